package adapters

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/pelletier/go-toml/v2"
	"github.com/rs/zerolog/log"

	"cargo-add/internal/ports"
	"cargo-add/internal/shared"
)

const DefaultGitRawURL = "https://raw.githubusercontent.com"

// SourceProbeAdapter reads package.name from the manifest a local or git
// dependency points at.
type SourceProbeAdapter struct {
	RawBaseURL string
	http       httpRetryConfig
}

type packageManifest struct {
	Package struct {
		Name string `toml:"name"`
	} `toml:"package"`
}

func NewSourceProbeAdapter(rawBaseURL string, opts HTTPOptions) SourceProbeAdapter {
	base := strings.TrimRight(strings.TrimSpace(rawBaseURL), "/")
	if base == "" {
		base = DefaultGitRawURL
	}
	return SourceProbeAdapter{RawBaseURL: base, http: normalizeHTTPConfig(opts)}
}

func (a SourceProbeAdapter) LocalPackageName(dir string) (string, error) {
	path := expandHome(dir)
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		path = filepath.Join(path, ManifestFileName)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", errbuilder.New().
			WithCode(errbuilder.CodeNotFound).
			WithMsg("no crate manifest found at " + dir).
			WithCause(err)
	}
	return packageName(data, dir)
}

// GitPackageName fetches Cargo.toml from the default branch of a GitHub
// repository.
func (a SourceProbeAdapter) GitPackageName(ctx context.Context, repoURL string) (string, error) {
	owner, repo, err := githubRepo(repoURL)
	if err != nil {
		return "", err
	}
	endpoint := a.RawBaseURL + "/" + owner + "/" + repo + "/HEAD/" + ManifestFileName
	log.Debug().Str("url", endpoint).Msg("fetching git manifest")
	resp, err := doRequest(ctx, endpoint, a.http)
	if err != nil {
		return "", errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to fetch manifest of " + repoURL).
			WithCause(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return "", errbuilder.New().
			WithCode(errbuilder.CodeNotFound).
			WithMsg("no crate manifest found in " + repoURL).
			WithCause(shared.HTTPStatusError(resp.StatusCode, endpoint))
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to read manifest of " + repoURL).
			WithCause(err)
	}
	return packageName(data, repoURL)
}

func packageName(data []byte, origin string) (string, error) {
	var manifest packageManifest
	if err := toml.Unmarshal(data, &manifest); err != nil {
		return "", errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("invalid crate manifest in " + origin).
			WithCause(err)
	}
	name := strings.TrimSpace(manifest.Package.Name)
	if name == "" {
		return "", errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("crate manifest in " + origin + " has no package.name")
	}
	return name, nil
}

func githubRepo(raw string) (string, string, error) {
	parsed, err := url.Parse(raw)
	if err != nil || parsed.Host == "" {
		return "", "", errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("invalid git url " + raw).
			WithCause(err)
	}
	if !strings.EqualFold(strings.TrimPrefix(parsed.Hostname(), "www."), "github.com") {
		return "", "", errbuilder.New().
			WithCode(errbuilder.CodeFailedPrecondition).
			WithMsg("cannot read the crate name from " + raw + "; only GitHub repositories are supported, pass the name with --git instead")
	}
	parts := strings.Split(strings.Trim(parsed.Path, "/"), "/")
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return "", "", errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("git url " + raw + " does not name a repository")
	}
	return parts[0], strings.TrimSuffix(parts[1], ".git"), nil
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}

var _ ports.SourceProbePort = SourceProbeAdapter{}
