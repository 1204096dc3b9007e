package core

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cargo-add/internal/types"
)

func strPtr(s string) *string {
	return &s
}

// ---------------------------------------------------------------------------
// Prepare
// ---------------------------------------------------------------------------

func TestPrepareDefaults(t *testing.T) {
	plan, err := NewEditor().Prepare(types.AddRequest{Crates: []string{"my-package"}})
	require.NoError(t, err)

	assert.Equal(t, types.DependencyKindNormal, plan.Kind)
	assert.Equal(t, []string{"dependencies"}, plan.Table)
	assert.Equal(t, types.UpgradeDefault, plan.Strategy)
	require.Len(t, plan.Dependencies, 1)
	dep := plan.Dependencies[0]
	assert.Equal(t, "my-package", dep.Name)
	assert.True(t, dep.NeedsLookup())
	assert.False(t, dep.NeedsName())
}

func TestPrepareSources(t *testing.T) {
	tests := []struct {
		name string
		req  types.AddRequest
		want types.DependencySource
		dep  string
	}{
		{
			name: "inline requirement",
			req:  types.AddRequest{Crates: []string{"serde@1.0"}},
			want: types.RegistrySource("1.0"),
			dep:  "serde",
		},
		{
			name: "version flag",
			req:  types.AddRequest{Crates: []string{"pkg"}, Version: ">=0.1.1"},
			want: types.RegistrySource(">=0.1.1"),
			dep:  "pkg",
		},
		{
			name: "git flag",
			req:  types.AddRequest{Crates: []string{"git-package"}, Git: "http://site/gp.git"},
			want: types.GitSource("http://site/gp.git"),
			dep:  "git-package",
		},
		{
			name: "path flag",
			req:  types.AddRequest{Crates: []string{"local"}, Path: "../local"},
			want: types.PathSource("../local"),
			dep:  "local",
		},
		{
			name: "local identifier",
			req:  types.AddRequest{Crates: []string{"../local"}},
			want: types.PathSource("../local"),
		},
		{
			name: "git identifier",
			req:  types.AddRequest{Crates: []string{"https://github.com/o/r"}},
			want: types.GitSource("https://github.com/o/r"),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan, err := NewEditor().Prepare(tt.req)
			require.NoError(t, err)
			require.Len(t, plan.Dependencies, 1)
			dep := plan.Dependencies[0]
			assert.Equal(t, tt.want, dep.Source)
			assert.Equal(t, tt.dep, dep.Name)
			assert.Equal(t, tt.dep == "", dep.NeedsName())
		})
	}
}

func TestPrepareTables(t *testing.T) {
	tests := []struct {
		req  types.AddRequest
		want []string
	}{
		{types.AddRequest{Crates: []string{"a"}, Dev: true}, []string{"dev-dependencies"}},
		{types.AddRequest{Crates: []string{"a"}, Build: true}, []string{"build-dependencies"}},
		{types.AddRequest{Crates: []string{"a"}, Target: strPtr("cfg(unix)")}, []string{"target", "cfg(unix)", "dependencies"}},
		{types.AddRequest{Crates: []string{"a"}, Dev: true, Target: strPtr("wasm32")}, []string{"target", "wasm32", "dev-dependencies"}},
	}
	for _, tt := range tests {
		plan, err := NewEditor().Prepare(tt.req)
		require.NoError(t, err)
		if diff := cmp.Diff(tt.want, plan.Table); diff != "" {
			t.Fatalf("unexpected table (-want +got):\n%s", diff)
		}
	}
}

func TestPrepareErrors(t *testing.T) {
	tests := []struct {
		name string
		req  types.AddRequest
		want types.ErrorKind
	}{
		{"no crates", types.AddRequest{}, types.ErrorKindInvalidCrateName},
		{"dev and build", types.AddRequest{Crates: []string{"a"}, Dev: true, Build: true}, types.ErrorKindConflictingDependencyKind},
		{"two source flags", types.AddRequest{Crates: []string{"a"}, Version: "1", Git: "http://x"}, types.ErrorKindConflictingSource},
		{"inline and flag", types.AddRequest{Crates: []string{"a@1"}, Path: "../a"}, types.ErrorKindConflictingSource},
		{"optional dev", types.AddRequest{Crates: []string{"a"}, Dev: true, Optional: true}, types.ErrorKindOptionalNotAllowedForDevBuild},
		{"optional build", types.AddRequest{Crates: []string{"a"}, Build: true, Optional: true}, types.ErrorKindOptionalNotAllowedForDevBuild},
		{"empty target", types.AddRequest{Crates: []string{"a"}, Target: strPtr("")}, types.ErrorKindEmptyTarget},
		{"bad requirement", types.AddRequest{Crates: []string{"a"}, Version: "invalid version string"}, types.ErrorKindInvalidVersionRequirement},
		{"bad inline requirement", types.AddRequest{Crates: []string{"a@latest"}}, types.ErrorKindInvalidVersionRequirement},
		{"empty inline requirement", types.AddRequest{Crates: []string{"a@"}}, types.ErrorKindInvalidVersionRequirement},
		{"bad upgrade", types.AddRequest{Crates: []string{"a"}, Upgrade: "an_invalid_string"}, types.ErrorKindInvalidUpgradeStrategy},
		{"bad crate", types.AddRequest{Crates: []string{"@1.0"}}, types.ErrorKindInvalidCrateName},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewEditor().Prepare(tt.req)
			require.Error(t, err)
			assert.Equal(t, tt.want, types.KindOf(err))
		})
	}
}

func TestPrepareReportsFirstViolation(t *testing.T) {
	// Every rule is broken; the dependency kind check runs first.
	req := types.AddRequest{
		Crates:   []string{"a@bad"},
		Dev:      true,
		Build:    true,
		Optional: true,
		Version:  "1",
		Git:      "http://x",
		Target:   strPtr(""),
		Upgrade:  "bogus",
	}
	_, err := NewEditor().Prepare(req)
	assert.Equal(t, types.ErrorKindConflictingDependencyKind, types.KindOf(err))

	req.Build = false
	_, err = NewEditor().Prepare(req)
	assert.Equal(t, types.ErrorKindConflictingSource, types.KindOf(err))

	req.Git = ""
	req.Version = ""
	req.Crates = []string{"a@bad"}
	_, err = NewEditor().Prepare(req)
	assert.Equal(t, types.ErrorKindOptionalNotAllowedForDevBuild, types.KindOf(err))

	req.Dev = false
	_, err = NewEditor().Prepare(req)
	assert.Equal(t, types.ErrorKindEmptyTarget, types.KindOf(err))

	req.Target = nil
	_, err = NewEditor().Prepare(req)
	assert.Equal(t, types.ErrorKindInvalidVersionRequirement, types.KindOf(err))

	req.Crates = []string{"a@1"}
	_, err = NewEditor().Prepare(req)
	assert.Equal(t, types.ErrorKindInvalidUpgradeStrategy, types.KindOf(err))
}

// ---------------------------------------------------------------------------
// ApplyLookup
// ---------------------------------------------------------------------------

func TestApplyLookup(t *testing.T) {
	editor := NewEditor()
	plan, err := editor.Prepare(types.AddRequest{Crates: []string{"my_package"}, Upgrade: "minor"})
	require.NoError(t, err)

	dep, err := editor.ApplyLookup(plan, plan.Dependencies[0], types.CrateVersion{Name: "my-package", Version: "0.4.2"})
	require.NoError(t, err)
	assert.Equal(t, "my-package", dep.Name)
	assert.Equal(t, types.RegistrySource("^0.4.2"), dep.Source)
	assert.False(t, dep.NeedsLookup())
}

// ---------------------------------------------------------------------------
// Upsert
// ---------------------------------------------------------------------------

func TestUpsertScenarios(t *testing.T) {
	tests := []struct {
		name  string
		table []string
		entry types.DependencyEntry
		want  string
	}{
		{
			name:  "plain version",
			table: []string{"dependencies"},
			entry: types.DependencyEntry{Name: "my-package", Source: types.RegistrySource("1.0.0")},
			want:  "\n[dependencies]\nmy-package = \"1.0.0\"\n",
		},
		{
			name:  "optional requirement",
			table: []string{"dependencies"},
			entry: types.DependencyEntry{Name: "versioned-package", Source: types.RegistrySource(">=0.1.1"), Optional: true},
			want:  "\n[dependencies]\nversioned-package = { version = \">=0.1.1\", optional = true }\n",
		},
		{
			name:  "git dev dependency",
			table: []string{"dev-dependencies"},
			entry: types.DependencyEntry{Name: "git-package", Source: types.GitSource("http://site/gp.git")},
			want:  "\n[dev-dependencies]\ngit-package = { git = \"http://site/gp.git\" }\n",
		},
		{
			name:  "path dependency",
			table: []string{"build-dependencies"},
			entry: types.DependencyEntry{Name: "local", Source: types.PathSource("../local")},
			want:  "\n[build-dependencies]\nlocal = { path = \"../local\" }\n",
		},
		{
			name:  "target table",
			table: []string{"target", "cfg(unix)", "dependencies"},
			entry: types.DependencyEntry{Name: "mio", Source: types.RegistrySource("0.8.0")},
			want:  "\n[target.\"cfg(unix)\".dependencies]\nmio = \"0.8.0\"\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := mustParse(t, sampleManifest)
			require.NoError(t, NewEditor().Upsert(t.Context(), doc, tt.table, tt.entry))
			assert.Equal(t, sampleManifest+tt.want, doc.String())
		})
	}
}

func TestUpsertOverwrite(t *testing.T) {
	tests := []struct {
		name     string
		existing string
		entry    types.DependencyEntry
		want     string
	}{
		{
			name:     "version over version",
			existing: `versioned-package = "0.1.1"`,
			entry:    types.DependencyEntry{Name: "versioned-package", Source: types.RegistrySource("0.3.0")},
			want:     `versioned-package = "0.3.0"`,
		},
		{
			name:     "version keeps optional",
			existing: `versioned-package = { version = "0.1.1", optional = true }`,
			entry:    types.DependencyEntry{Name: "versioned-package", Source: types.RegistrySource("0.3.0")},
			want:     `versioned-package = { version = "0.3.0", optional = true }`,
		},
		{
			name:     "git keeps optional",
			existing: `versioned-package = { version = "0.1.1", optional = true }`,
			entry:    types.DependencyEntry{Name: "versioned-package", Source: types.GitSource("git://git.git")},
			want:     `versioned-package = { git = "git://git.git", optional = true }`,
		},
		{
			name:     "path collapses to version",
			existing: `versioned-package = { path = "../x" }`,
			entry:    types.DependencyEntry{Name: "versioned-package", Source: types.RegistrySource("0.3.0")},
			want:     `versioned-package = "0.3.0"`,
		},
		{
			name:     "optional false is not kept",
			existing: `versioned-package = { version = "0.1.1", optional = false }`,
			entry:    types.DependencyEntry{Name: "versioned-package", Source: types.RegistrySource("0.3.0")},
			want:     `versioned-package = "0.3.0"`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := mustParse(t, "[dependencies]\n"+tt.existing+"\nother = \"1\"\n")
			require.NoError(t, NewEditor().Upsert(t.Context(), doc, []string{"dependencies"}, tt.entry))
			assert.Equal(t, "[dependencies]\n"+tt.want+"\nother = \"1\"\n", doc.String())
		})
	}
}

func TestUpsertIsIdempotent(t *testing.T) {
	editor := NewEditor()
	entry := types.DependencyEntry{Name: "serde", Source: types.RegistrySource("1.0"), Optional: true}
	doc := mustParse(t, commentedManifest)

	require.NoError(t, editor.Upsert(t.Context(), doc, []string{"dependencies"}, entry))
	once := doc.String()
	require.NoError(t, editor.Upsert(t.Context(), doc, []string{"dependencies"}, entry))
	assert.Equal(t, once, doc.String())
	assert.Contains(t, once, "serde = { version = \"1.0\", optional = true }   # keep me\n")
}

func TestUpsertPreservesUnrelatedContent(t *testing.T) {
	doc := mustParse(t, commentedManifest)
	before, err := doc.Tree()
	require.NoError(t, err)

	entry := types.DependencyEntry{Name: "tokio", Source: types.RegistrySource("1"), Optional: false}
	require.NoError(t, NewEditor().Upsert(t.Context(), doc, []string{"target", "cfg(unix)", "dev-dependencies"}, entry))

	after, err := doc.Tree()
	require.NoError(t, err)
	delete(after, "target")
	if diff := cmp.Diff(before, after); diff != "" {
		t.Fatalf("unrelated content changed (-want +got):\n%s", diff)
	}
}

func TestUpsertTableConflictLeavesDocument(t *testing.T) {
	input := "dependencies = { serde = \"1\" }\n"
	doc := mustParse(t, input)
	err := NewEditor().Upsert(t.Context(), doc, []string{"dependencies"},
		types.DependencyEntry{Name: "rand", Source: types.RegistrySource("0.8")})
	require.Error(t, err)
	assert.Equal(t, types.ErrorKindTableConflict, types.KindOf(err))
	assert.Equal(t, input, doc.String())
}
