package core

// RepoConfig represents the structure of the optional .shiplane.yml file a
// repository may carry to override the configured defaults.
type RepoConfig struct {
	// Marker file whose presence selects the build rule. Empty keeps the
	// server-wide default.
	MarkerFile string `yaml:"marker_file"`

	// Build command override, e.g. ["mvn", "-B", "package"].
	BuildCommand []string `yaml:"build_command"`

	// Run command override. The placeholder {port} is substituted with the
	// allocated port.
	RunCommand []string `yaml:"run_command"`

	// Base semantic version used by the versioning listener.
	BaseVersion string `yaml:"base_version"`
}

// DefaultRepoConfig returns a config with no overrides set.
func DefaultRepoConfig() *RepoConfig {
	return &RepoConfig{}
}
