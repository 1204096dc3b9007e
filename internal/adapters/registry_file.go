package adapters

import (
	"context"
	"os"
	"slices"
	"strings"
	"sync"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"gopkg.in/yaml.v3"

	"cargo-add/internal/ports"
	"cargo-add/internal/shared"
	"cargo-add/internal/types"
)

// RegistryFileAdapter serves lookups from an offline YAML index. The
// file is read once and shared by concurrent lookups.
type RegistryFileAdapter struct {
	Path   string
	once   sync.Once
	cached types.RegistryIndexFile
	err    error
}

func NewRegistryFileAdapter(path string) *RegistryFileAdapter {
	return &RegistryFileAdapter{Path: path}
}

func (a *RegistryFileAdapter) AvailableVersions(ctx context.Context, name string) (types.CrateVersions, error) {
	index, err := a.load()
	if err != nil {
		return types.CrateVersions{}, err
	}
	canonical, err := a.canonicalName(index, name)
	if err != nil {
		return types.CrateVersions{}, err
	}
	yanked := index.Yanked[canonical]
	result := types.CrateVersions{Name: canonical}
	for _, version := range index.Crates[canonical] {
		if slices.Contains(yanked, version) {
			continue
		}
		result.Versions = append(result.Versions, version)
	}
	return result, nil
}

// canonicalName resolves aliases first, then the registry's
// hyphen/underscore folding. Two index entries that fold to the same
// name make the lookup ambiguous.
func (a *RegistryFileAdapter) canonicalName(index types.RegistryIndexFile, name string) (string, error) {
	if alias, ok := index.Aliases[name]; ok {
		name = alias
	}
	if _, ok := index.Crates[name]; ok {
		return name, nil
	}
	normalized := shared.NormalizeCrateName(name)
	var matches []string
	for candidate := range index.Crates {
		if shared.NormalizeCrateName(candidate) == normalized {
			matches = append(matches, candidate)
		}
	}
	slices.Sort(matches)
	switch len(matches) {
	case 0:
		return "", errbuilder.New().
			WithCode(errbuilder.CodeNotFound).
			WithMsg("crate " + name + " not found in registry index")
	case 1:
		return matches[0], nil
	default:
		return "", errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("registry index lists " + strings.Join(matches, ", ") + " for " + name)
	}
}

func (a *RegistryFileAdapter) load() (types.RegistryIndexFile, error) {
	a.once.Do(func() {
		data, err := os.ReadFile(a.Path)
		if err != nil {
			a.err = errbuilder.New().
				WithCode(errbuilder.CodeNotFound).
				WithMsg("registry index file not found").
				WithCause(err)
			return
		}
		var idx types.RegistryIndexFile
		if err := yaml.Unmarshal(data, &idx); err != nil {
			a.err = errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg("invalid registry index format").
				WithCause(err)
			return
		}
		if idx.Crates == nil {
			idx.Crates = map[string][]string{}
		}
		a.cached = idx
	})
	return a.cached, a.err
}

var _ ports.RegistryPort = (*RegistryFileAdapter)(nil)
