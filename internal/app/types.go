package app

import (
	"cargo-add/internal/adapters"
	"cargo-add/internal/core"
	"cargo-add/internal/types"
)

const defaultLookupWorkers = 4

type AddRequest struct {
	Edit             types.AddRequest
	ManifestPath     string
	RegistryURL      string
	RegistryIndex    string
	RegistryToken    string
	GitRawURL        string
	AllowPrerelease  bool
	LookupWorkers    int
	HTTPTimeoutSec   int
	HTTPRetries      int
	HTTPRetryDelayMs int
	DryRun           bool
}

func (r AddRequest) httpOptions() adapters.HTTPOptions {
	return adapters.HTTPOptions{
		TimeoutSec:   r.HTTPTimeoutSec,
		Retries:      r.HTTPRetries,
		RetryDelayMs: r.HTTPRetryDelayMs,
		Token:        r.RegistryToken,
	}
}

// AddedDependency describes one entry written to the manifest.
type AddedDependency struct {
	Name     string
	Table    []string
	Source   types.DependencySource
	Optional bool
}

// AddResult reports what an add did. On a failed batch Document holds
// the items applied before the failure and nothing is written.
type AddResult struct {
	ManifestPath string
	Added        []AddedDependency
	Notices      []string
	Document     *core.Document
	Written      bool
}
