package types

// CrateVersion is the answer of a registry lookup. Name is the
// registry's canonical spelling, which may differ from the query.
type CrateVersion struct {
	Name    string
	Version string
}

// CrateVersions lists the installable (non-yanked) versions of a crate
// in registry order.
type CrateVersions struct {
	Name     string
	Versions []string
}

// RegistryIndexFile is the offline registry format. Aliases map
// alternative spellings to the canonical crate name.
type RegistryIndexFile struct {
	Crates  map[string][]string `yaml:"crates"`
	Yanked  map[string][]string `yaml:"yanked,omitempty"`
	Aliases map[string]string   `yaml:"aliases,omitempty"`
}
