package core

import "cargo-add/internal/types"

var dependencyTables = map[types.DependencyKind]string{
	types.DependencyKindNormal: "dependencies",
	types.DependencyKindDev:    "dev-dependencies",
	types.DependencyKindBuild:  "build-dependencies",
}

// DependencyTablePath returns the table a dependency of the given kind
// belongs to. The target is used verbatim as a single key segment.
func DependencyTablePath(kind types.DependencyKind, target *string) []string {
	name, ok := dependencyTables[kind]
	if !ok {
		name = dependencyTables[types.DependencyKindNormal]
	}
	if target == nil {
		return []string{name}
	}
	return []string{"target", *target, name}
}

// TableName renders a table path the way it appears in a header.
func TableName(path []string) string {
	return encodeKeyPath(path)
}
