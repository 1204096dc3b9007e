package types

// DependencySource describes where a dependency comes from. Exactly one
// variant is populated; values are only built through the constructors
// below.
type DependencySource struct {
	kind  SourceKind
	value string
}

func RegistrySource(requirement string) DependencySource {
	return DependencySource{kind: SourceKindRegistry, value: requirement}
}

func GitSource(url string) DependencySource {
	return DependencySource{kind: SourceKindGit, value: url}
}

func PathSource(path string) DependencySource {
	return DependencySource{kind: SourceKindPath, value: path}
}

func (s DependencySource) Kind() SourceKind {
	return s.kind
}

// Value returns the requirement, URL or path carried by the variant.
func (s DependencySource) Value() string {
	return s.value
}

func (s DependencySource) IsZero() bool {
	return s.kind == ""
}

// Requirement returns the version requirement of a registry source.
func (s DependencySource) Requirement() (string, bool) {
	if s.kind != SourceKindRegistry {
		return "", false
	}
	return s.value, true
}

// DependencyEntry is the value written for one dependency name.
type DependencyEntry struct {
	Name     string
	Source   DependencySource
	Optional bool
}

// Identifier is one crate argument as typed by the user. At most one of
// Requirement, LocalPath and GitURL is set by the parser.
type Identifier struct {
	Raw         string
	Name        string
	Requirement string
	LocalPath   string
	GitURL      string
}

// AddRequest carries the flags shared by every identifier of one add
// invocation.
type AddRequest struct {
	Crates   []string
	Dev      bool
	Build    bool
	Optional bool
	Version  string
	Git      string
	Path     string
	Target   *string
	Upgrade  string
}

// PlannedDependency is a validated identifier waiting for its source to
// be completed by a registry lookup or a source probe.
type PlannedDependency struct {
	Identifier Identifier
	Name       string
	Source     DependencySource
	Optional   bool
}

// NeedsLookup reports whether the registry must supply a version.
func (p PlannedDependency) NeedsLookup() bool {
	return p.Source.IsZero()
}

// NeedsName reports whether the crate name must be read from the local
// or git source the identifier points at.
func (p PlannedDependency) NeedsName() bool {
	return p.Name == ""
}
