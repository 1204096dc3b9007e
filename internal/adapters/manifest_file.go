package adapters

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"

	"cargo-add/internal/ports"
)

const ManifestFileName = "Cargo.toml"

type ManifestFileAdapter struct{}

func NewManifestFileAdapter() ManifestFileAdapter {
	return ManifestFileAdapter{}
}

// Locate resolves start to a manifest file. A file path is returned as
// is; for a directory the nearest Cargo.toml in it or a parent wins.
func (a ManifestFileAdapter) Locate(start string) (string, error) {
	if strings.TrimSpace(start) == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return "", errbuilder.New().
				WithCode(errbuilder.CodeInternal).
				WithMsg("failed to read working directory").
				WithCause(err)
		}
		start = cwd
	}
	abs, err := filepath.Abs(start)
	if err != nil {
		return "", errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("invalid manifest path").
			WithCause(err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", errbuilder.New().
			WithCode(errbuilder.CodeNotFound).
			WithMsg("manifest path not found: " + start).
			WithCause(err)
	}
	if !info.IsDir() {
		return abs, nil
	}
	for dir := abs; ; {
		candidate := filepath.Join(dir, ManifestFileName)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", errbuilder.New().
		WithCode(errbuilder.CodeNotFound).
		WithMsg("could not find " + ManifestFileName + " in " + abs + " or any parent directory")
}

func (a ManifestFileAdapter) Read(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeNotFound).
			WithMsg("failed to read manifest " + path).
			WithCause(err)
	}
	return data, nil
}

// Write replaces the manifest through a temporary file in the same
// directory, keeping the original file mode.
func (a ManifestFileAdapter) Write(path string, data []byte) error {
	if strings.TrimSpace(path) == "" {
		return errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("manifest path is required")
	}
	mode := os.FileMode(0o644)
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode().Perm()
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to create temporary manifest").
			WithCause(err)
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		cleanup()
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to write manifest").
			WithCause(err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to write manifest").
			WithCause(err)
	}
	if err := os.Chmod(tmpName, mode); err != nil {
		cleanup()
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to set manifest permissions").
			WithCause(err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		cleanup()
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to replace manifest").
			WithCause(err)
	}
	return nil
}

var _ ports.ManifestPort = ManifestFileAdapter{}
