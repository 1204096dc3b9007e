//go:build integration

package integration

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"cargo-add/internal/app"
	"cargo-add/internal/types"
	"cargo-add/tests/testutil"
)

const registryMockScript = `
import http.server, json

CRATES = {
    "serde": ("serde", ["1.0.150", "1.0.200", "1.0.201"], ["1.0.201"]),
    "linked-hash-map": ("linked-hash-map", ["0.5.4", "0.5.6"], []),
    "linked_hash_map": ("linked-hash-map", ["0.5.4", "0.5.6"], []),
    "flaky": ("flaky", ["2.0.0"], []),
}
FLAKY = {"count": 0}

class Handler(http.server.BaseHTTPRequestHandler):
    def do_GET(self):
        prefix = "/api/v1/crates/"
        if not self.path.startswith(prefix):
            self.send_response(404); self.end_headers(); return
        name = self.path[len(prefix):]
        if name == "flaky" and FLAKY["count"] < 1:
            FLAKY["count"] += 1
            self.send_response(503); self.end_headers(); return
        if name not in CRATES:
            self.send_response(404)
            self.send_header("Content-Type", "application/json")
            self.end_headers()
            self.wfile.write(b'{"errors":[{"detail":"Not Found"}]}')
            return
        canonical, versions, yanked = CRATES[name]
        body = {
            "crate": {"name": canonical},
            "versions": [{"num": v, "yanked": v in yanked} for v in reversed(versions)],
        }
        data = json.dumps(body).encode()
        self.send_response(200)
        self.send_header("Content-Type", "application/json")
        self.send_header("Content-Length", str(len(data)))
        self.end_headers()
        self.wfile.write(data)

    def log_message(self, *args):
        pass

http.server.ThreadingHTTPServer(("0.0.0.0", 8080), Handler).serve_forever()
`

func TestAddAgainstRegistryContainer(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping testcontainers test in short mode")
	}

	ctx := t.Context()
	endpoint, cleanup := startRegistryMock(ctx, t)
	t.Cleanup(cleanup)

	root := testutil.RepoRoot(t)
	manifest := testutil.CopyManifest(t, filepath.Join(root, "fixtures", "Cargo.toml.sample"))

	result, err := app.NewService().Add(ctx, app.AddRequest{
		Edit: types.AddRequest{
			Crates:  []string{"serde", "linked_hash_map", "flaky"},
			Upgrade: "minor",
		},
		ManifestPath:     manifest,
		RegistryURL:      endpoint,
		LookupWorkers:    2,
		HTTPRetries:      3,
		HTTPRetryDelayMs: 10,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"Added `linked-hash-map` instead of `linked_hash_map`"}, result.Notices)

	data, err := os.ReadFile(manifest)
	require.NoError(t, err)
	assert.Equal(t, `[package]
name = "cargo-list-test-fixture"
version = "0.0.0"

[dependencies]
serde = "^1.0.200"
linked-hash-map = "^0.5.6"
flaky = "^2.0.0"
`, string(data))

	_, err = app.NewService().Add(ctx, app.AddRequest{
		Edit:         types.AddRequest{Crates: []string{"does-not-exist"}},
		ManifestPath: manifest,
		RegistryURL:  endpoint,
		HTTPRetries:  1,
	})
	require.Error(t, err)
	assert.Equal(t, types.ErrorKindLookup, types.KindOf(err))
}

func startRegistryMock(ctx context.Context, t *testing.T) (string, func()) {
	t.Helper()
	req := testcontainers.ContainerRequest{
		Image:        "python:3.12-alpine",
		ExposedPorts: []string{"8080/tcp"},
		Cmd:          []string{"python", "-c", registryMockScript},
		WaitingFor:   wait.ForListeningPort("8080/tcp").WithStartupTimeout(30 * time.Second),
	}
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "8080/tcp")
	require.NoError(t, err)

	endpoint := fmt.Sprintf("http://%s:%s", host, port.Port())
	cleanup := func() {
		_ = container.Terminate(ctx)
	}
	return endpoint, cleanup
}
