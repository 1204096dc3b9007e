package ports

import (
	"context"

	"cargo-add/internal/types"
)

// RegistryPort lists the versions a registry offers for a crate. The
// returned name is the registry's canonical spelling.
type RegistryPort interface {
	AvailableVersions(ctx context.Context, name string) (types.CrateVersions, error)
}
