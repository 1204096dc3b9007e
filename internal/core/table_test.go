package core

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"

	"cargo-add/internal/types"
)

func TestDependencyTablePath(t *testing.T) {
	unix := "cfg(unix)"
	custom := "x86_64/windows.json"
	tests := []struct {
		name   string
		kind   types.DependencyKind
		target *string
		want   []string
	}{
		{"normal", types.DependencyKindNormal, nil, []string{"dependencies"}},
		{"dev", types.DependencyKindDev, nil, []string{"dev-dependencies"}},
		{"build", types.DependencyKindBuild, nil, []string{"build-dependencies"}},
		{"normal target", types.DependencyKindNormal, &unix, []string{"target", "cfg(unix)", "dependencies"}},
		{"dev target", types.DependencyKindDev, &unix, []string{"target", "cfg(unix)", "dev-dependencies"}},
		{"build target", types.DependencyKindBuild, &custom, []string{"target", "x86_64/windows.json", "build-dependencies"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, DependencyTablePath(tt.kind, tt.target)); diff != "" {
				t.Fatalf("unexpected table path (-want +got):\n%s", diff)
			}
		})
	}
}

func TestTableName(t *testing.T) {
	assert.Equal(t, "dependencies", TableName([]string{"dependencies"}))
	assert.Equal(t, `target."cfg(unix)".dev-dependencies`, TableName([]string{"target", "cfg(unix)", "dev-dependencies"}))
	assert.Equal(t, `target."x86_64/windows.json".dependencies`, TableName([]string{"target", "x86_64/windows.json", "dependencies"}))
}
