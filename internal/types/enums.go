package types

type DependencyKind string

const (
	DependencyKindNormal DependencyKind = "normal"
	DependencyKindDev    DependencyKind = "dev"
	DependencyKindBuild  DependencyKind = "build"
)

type SourceKind string

const (
	SourceKindRegistry SourceKind = "registry"
	SourceKindGit      SourceKind = "git"
	SourceKindPath     SourceKind = "path"
)

// UpgradeStrategy selects the operator prefixed to a resolved registry
// version. The zero value writes the bare version.
type UpgradeStrategy string

const (
	UpgradeDefault UpgradeStrategy = ""
	UpgradeNone    UpgradeStrategy = "none"
	UpgradePatch   UpgradeStrategy = "patch"
	UpgradeMinor   UpgradeStrategy = "minor"
	UpgradeAll     UpgradeStrategy = "all"
)
