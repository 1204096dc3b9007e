package core

import (
	"context"
	"fmt"

	assert "github.com/ZanzyTHEbar/assert-lib"
	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog/log"

	"cargo-add/internal/policies"
	"cargo-add/internal/types"
)

// EditPlan is a fully validated add request. Dependencies keep argument
// order; later entries for the same name win.
type EditPlan struct {
	Kind         types.DependencyKind
	Target       *string
	Table        []string
	Strategy     types.UpgradeStrategy
	Dependencies []types.PlannedDependency
}

// Editor validates add requests and applies dependency entries to a
// manifest document.
type Editor struct {
	policy policies.PlacementPolicy
}

func NewEditor() Editor {
	return Editor{policy: policies.NewPlacementPolicy()}
}

// Prepare validates the request before any lookup or mutation. Checks
// run in a fixed order so the first violated rule is the one reported.
func (e Editor) Prepare(req types.AddRequest) (EditPlan, error) {
	if len(req.Crates) == 0 {
		return EditPlan{}, types.NewEditError(
			types.ErrorKindInvalidCrateName,
			errbuilder.CodeInvalidArgument,
			"at least one crate is required",
		)
	}
	kind, err := e.policy.DependencyKind(req.Dev, req.Build)
	if err != nil {
		return EditPlan{}, err
	}
	flagSource, err := sourceFromFlags(req.Version, req.Git, req.Path)
	if err != nil {
		return EditPlan{}, err
	}
	planned := make([]types.PlannedDependency, 0, len(req.Crates))
	for _, raw := range req.Crates {
		id, err := ParseIdentifier(raw)
		if err != nil {
			return EditPlan{}, err
		}
		source, err := combineSource(id, flagSource)
		if err != nil {
			return EditPlan{}, err
		}
		planned = append(planned, types.PlannedDependency{
			Identifier: id,
			Name:       id.Name,
			Source:     source,
			Optional:   req.Optional,
		})
	}
	if err := e.policy.CheckOptional(kind, req.Optional); err != nil {
		return EditPlan{}, err
	}
	if err := e.policy.CheckTarget(req.Target); err != nil {
		return EditPlan{}, err
	}
	for _, dep := range planned {
		if requirement, ok := dep.Source.Requirement(); ok {
			if err := ValidateRequirement(requirement); err != nil {
				return EditPlan{}, types.WrapEditError(types.ErrorKindInvalidVersionRequirement, dep.Identifier.Raw, err)
			}
		}
	}
	strategy, err := ParseUpgradeStrategy(req.Upgrade)
	if err != nil {
		return EditPlan{}, err
	}
	return EditPlan{
		Kind:         kind,
		Target:       req.Target,
		Table:        DependencyTablePath(kind, req.Target),
		Strategy:     strategy,
		Dependencies: planned,
	}, nil
}

// ApplyLookup completes a planned dependency with a registry answer. The
// registry's spelling of the name replaces the requested one.
func (e Editor) ApplyLookup(plan EditPlan, dep types.PlannedDependency, found types.CrateVersion) (types.PlannedDependency, error) {
	requirement, err := FormatRequirement(found.Version, plan.Strategy)
	if err != nil {
		return dep, err
	}
	if found.Name != "" {
		dep.Name = found.Name
	}
	dep.Source = types.RegistrySource(requirement)
	return dep, nil
}

// Upsert writes entry into table, replacing any previous entry of the
// same name. An existing optional = true survives the overwrite.
func (e Editor) Upsert(ctx context.Context, doc *Document, table []string, entry types.DependencyEntry) error {
	assert.NotEmpty(ctx, entry.Name, "dependency name must be set")
	assert.NotEmpty(ctx, string(entry.Source.Kind()), "dependency source must be set")
	optional := entry.Optional
	if existing, ok := doc.Lookup(append(clonePath(table), entry.Name)...); ok {
		if fields, isTable := existing.(map[string]any); isTable {
			if previous, _ := fields["optional"].(bool); previous {
				optional = true
			}
		}
		log.Debug().
			Str("name", entry.Name).
			Str("table", encodeKeyPath(table)).
			Msg("overwriting existing dependency")
	}
	if err := doc.SetEntry(table, entry.Name, EntryValue(entry.Source, optional)); err != nil {
		return types.WrapEditError(types.ErrorKindTableConflict, entry.Name, err)
	}
	return nil
}

// EntryValue renders a dependency. A plain registry requirement is a bare
// string; everything else is an inline table.
func EntryValue(source types.DependencySource, optional bool) Value {
	if requirement, ok := source.Requirement(); ok && !optional {
		return StringValue(requirement)
	}
	fields := []Field{{Key: sourceKey(source.Kind()), Value: StringValue(source.Value())}}
	if optional {
		fields = append(fields, Field{Key: "optional", Value: BoolValue(true)})
	}
	return InlineTableValue(fields...)
}

func sourceKey(kind types.SourceKind) string {
	switch kind {
	case types.SourceKindGit:
		return "git"
	case types.SourceKindPath:
		return "path"
	default:
		return "version"
	}
}

func sourceFromFlags(version string, git string, path string) (types.DependencySource, error) {
	var sources []types.DependencySource
	if version != "" {
		sources = append(sources, types.RegistrySource(version))
	}
	if git != "" {
		sources = append(sources, types.GitSource(git))
	}
	if path != "" {
		sources = append(sources, types.PathSource(path))
	}
	if len(sources) > 1 {
		return types.DependencySource{}, conflictingSource("only one of --vers, --git and --path may be given")
	}
	if len(sources) == 0 {
		return types.DependencySource{}, nil
	}
	return sources[0], nil
}

// combineSource merges the source named by the crate argument itself
// with the one given by flags. Naming two sources is an error.
func combineSource(id types.Identifier, flagSource types.DependencySource) (types.DependencySource, error) {
	var sources []types.DependencySource
	if !flagSource.IsZero() {
		sources = append(sources, flagSource)
	}
	if id.Requirement != "" {
		sources = append(sources, types.RegistrySource(id.Requirement))
	}
	if id.LocalPath != "" {
		sources = append(sources, types.PathSource(id.LocalPath))
	}
	if id.GitURL != "" {
		sources = append(sources, types.GitSource(id.GitURL))
	}
	if len(sources) > 1 {
		return types.DependencySource{}, conflictingSource(
			fmt.Sprintf("%q names a source and a source flag was also given", id.Raw),
		).For(id.Raw)
	}
	if len(sources) == 0 {
		return types.DependencySource{}, nil
	}
	return sources[0], nil
}

func conflictingSource(msg string) *types.EditError {
	return types.NewEditError(types.ErrorKindConflictingSource, errbuilder.CodeInvalidArgument, msg)
}
