package ports

import "context"

// SourceProbePort reads the package name declared by a local or git
// dependency source.
type SourceProbePort interface {
	LocalPackageName(dir string) (string, error)
	GitPackageName(ctx context.Context, url string) (string, error)
}
