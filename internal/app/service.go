package app

import (
	"cargo-add/internal/adapters"
	"cargo-add/internal/core"
	"cargo-add/internal/ports"
)

// Service wires the editor to its collaborators. Registry and Probe are
// built per request from the request's options when left nil.
type Service struct {
	Manifest ports.ManifestPort
	Registry ports.RegistryPort
	Probe    ports.SourceProbePort
	Editor   core.Editor
}

func NewService() Service {
	return Service{
		Manifest: adapters.NewManifestFileAdapter(),
		Editor:   core.NewEditor(),
	}
}

func (s Service) registryFor(req AddRequest) ports.RegistryPort {
	if s.Registry != nil {
		return s.Registry
	}
	if req.RegistryIndex != "" {
		return adapters.NewRegistryFileAdapter(req.RegistryIndex)
	}
	return adapters.NewRegistryHTTPAdapter(req.RegistryURL, req.httpOptions())
}

func (s Service) probeFor(req AddRequest) ports.SourceProbePort {
	if s.Probe != nil {
		return s.Probe
	}
	opts := req.httpOptions()
	// The registry token is never sent to git hosts.
	opts.Token = ""
	return adapters.NewSourceProbeAdapter(req.GitRawURL, opts)
}
