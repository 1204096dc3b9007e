package app

import (
	"context"
	"fmt"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"cargo-add/internal/core"
	"cargo-add/internal/ports"
	"cargo-add/internal/types"
)

// Add validates the whole batch, completes every dependency through the
// registry or its source, then applies the entries in argument order.
// The manifest is written only when every entry was applied.
func (s Service) Add(ctx context.Context, req AddRequest) (AddResult, error) {
	plan, err := s.Editor.Prepare(req.Edit)
	if err != nil {
		return AddResult{}, err
	}
	path, err := s.Manifest.Locate(req.ManifestPath)
	if err != nil {
		return AddResult{}, err
	}
	data, err := s.Manifest.Read(path)
	if err != nil {
		return AddResult{}, err
	}
	doc, err := core.ParseDocument(data)
	if err != nil {
		return AddResult{}, err
	}
	result := AddResult{ManifestPath: path, Document: doc}

	deps, errs := s.complete(ctx, req, plan)
	for i, dep := range deps {
		if errs[i] != nil {
			return result, errs[i]
		}
		if requested := dep.Identifier.Name; requested != "" && requested != dep.Name {
			notice := fmt.Sprintf("Added `%s` instead of `%s`", dep.Name, requested)
			log.Warn().Msg(notice)
			result.Notices = append(result.Notices, notice)
		}
		entry := types.DependencyEntry{Name: dep.Name, Source: dep.Source, Optional: dep.Optional}
		if err := s.Editor.Upsert(ctx, doc, plan.Table, entry); err != nil {
			return result, err
		}
		result.Added = append(result.Added, AddedDependency{
			Name:     dep.Name,
			Table:    plan.Table,
			Source:   dep.Source,
			Optional: dep.Optional,
		})
		log.Debug().
			Str("name", dep.Name).
			Str("source", string(dep.Source.Kind())).
			Str("value", dep.Source.Value()).
			Msg("dependency applied")
	}

	if req.DryRun {
		return result, nil
	}
	if err := s.Manifest.Write(path, doc.Bytes()); err != nil {
		return result, err
	}
	result.Written = true
	return result, nil
}

// complete runs the registry lookups and source probes of a batch with a
// bounded number of workers. Results and errors are kept per index so
// the caller can apply everything before the first failure.
func (s Service) complete(ctx context.Context, req AddRequest, plan core.EditPlan) ([]types.PlannedDependency, []error) {
	deps := make([]types.PlannedDependency, len(plan.Dependencies))
	errs := make([]error, len(plan.Dependencies))
	copy(deps, plan.Dependencies)

	workers := req.LookupWorkers
	if workers <= 0 {
		workers = defaultLookupWorkers
	}
	var registry ports.RegistryPort
	var probe ports.SourceProbePort
	for _, dep := range deps {
		if dep.NeedsLookup() && registry == nil {
			registry = s.registryFor(req)
		}
		if dep.NeedsName() && probe == nil {
			probe = s.probeFor(req)
		}
	}

	var g errgroup.Group
	g.SetLimit(workers)
	for i := range deps {
		if !deps[i].NeedsLookup() && !deps[i].NeedsName() {
			continue
		}
		g.Go(func() error {
			dep, err := s.completeOne(ctx, req, plan, registry, probe, deps[i])
			deps[i] = dep
			errs[i] = err
			return nil
		})
	}
	_ = g.Wait()
	return deps, errs
}

func (s Service) completeOne(
	ctx context.Context,
	req AddRequest,
	plan core.EditPlan,
	registry ports.RegistryPort,
	probe ports.SourceProbePort,
	dep types.PlannedDependency,
) (types.PlannedDependency, error) {
	raw := dep.Identifier.Raw
	if dep.NeedsName() {
		var name string
		var err error
		switch dep.Source.Kind() {
		case types.SourceKindGit:
			name, err = probe.GitPackageName(ctx, dep.Source.Value())
		default:
			name, err = probe.LocalPackageName(dep.Source.Value())
		}
		if err != nil {
			return dep, types.WrapEditError(probeErrorKind(err), raw, err)
		}
		dep.Name = name
		log.Debug().Str("source", dep.Source.Value()).Str("name", name).Msg("read crate name from source")
	}
	if !dep.NeedsLookup() {
		return dep, nil
	}
	log.Debug().Str("crate", dep.Name).Msg("looking up latest version")
	available, err := registry.AvailableVersions(ctx, dep.Name)
	if err != nil {
		return dep, types.WrapEditError(types.ErrorKindLookup, raw, err)
	}
	latest, err := core.LatestVersion(available.Name, available.Versions, req.AllowPrerelease)
	if err != nil {
		return dep, types.WrapEditError(types.ErrorKindLookup, raw, err)
	}
	dep, err = s.Editor.ApplyLookup(plan, dep, types.CrateVersion{Name: available.Name, Version: latest})
	if err != nil {
		return dep, types.WrapEditError(types.ErrorKindInvalidUpgradeStrategy, raw, err)
	}
	return dep, nil
}

// probeErrorKind tells a source the probe cannot read at all (a git host
// other than GitHub) apart from a failed read.
func probeErrorKind(err error) types.ErrorKind {
	if errbuilder.CodeOf(err) == errbuilder.CodeFailedPrecondition {
		return types.ErrorKindUnsupportedSource
	}
	return types.ErrorKindLookup
}
