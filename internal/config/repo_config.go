package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/shiplane/shiplane/internal/core"
	"github.com/shiplane/shiplane/internal/snapshot"
)

// RepoConfigFile is the per-repository override file read from the worktree.
const RepoConfigFile = ".shiplane.yml"

var (
	ErrRepoConfigNotFound = errors.New("repo config file not found")
	ErrRepoConfigParsing  = errors.New("repo config parsing failed")
)

// LoadRepoConfig loads and parses the .shiplane.yml file from a checked-out
// repository path. A missing file is not an error condition for callers that
// treat overrides as optional; they can test for ErrRepoConfigNotFound.
func LoadRepoConfig(repoPath string) (*core.RepoConfig, error) {
	data, err := snapshot.ReadFile(repoPath, RepoConfigFile)
	if err != nil {
		if os.IsNotExist(err) {
			return core.DefaultRepoConfig(), ErrRepoConfigNotFound
		}
		return nil, fmt.Errorf("failed to read %s: %w", RepoConfigFile, err)
	}

	repoCfg := core.DefaultRepoConfig()
	if err := yaml.Unmarshal(data, repoCfg); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRepoConfigParsing, err)
	}
	return repoCfg, nil
}

// MergeRepoConfig returns a DeliveryConfig with the repository's overrides
// applied on top of the server-wide defaults.
func MergeRepoConfig(base DeliveryConfig, repoCfg *core.RepoConfig) DeliveryConfig {
	if repoCfg == nil {
		return base
	}
	merged := base
	if repoCfg.MarkerFile != "" {
		merged.MarkerFile = repoCfg.MarkerFile
	}
	if len(repoCfg.BuildCommand) > 0 {
		merged.BuildCommand = repoCfg.BuildCommand[0]
		merged.BuildArgs = repoCfg.BuildCommand[1:]
	}
	if len(repoCfg.RunCommand) > 0 {
		merged.RunCommand = repoCfg.RunCommand[0]
		merged.RunArgs = repoCfg.RunCommand[1:]
	}
	if repoCfg.BaseVersion != "" {
		merged.BaseVersion = repoCfg.BaseVersion
	}
	return merged
}
