package version

import (
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// CheckConfigCompatibility checks that a dataset config pinned to configVersion can be
// run by a tool at toolVersion. Returns nil if compatible, error with details if not.
//
// Compatibility Rules:
//   - An empty configVersion does not pin a version and is always accepted
//   - If either version is "main" (development build), the check is skipped
//   - Major versions must match exactly
//   - The tool's minor version must be at least the config's
//   - Patch versions are ignored
//
// Examples:
//   - Tool 1.2.0, Config 1.2.0 -> OK
//   - Tool 1.3.0, Config 1.2.4 -> OK (newer tool)
//   - Tool 1.2.0, Config 1.3.0 -> ERROR (config needs a newer tool)
//   - Tool 2.0.0, Config 1.2.0 -> ERROR (major differs)
func CheckConfigCompatibility(toolVersion, configVersion string) error {
	toolVersion = strings.TrimPrefix(toolVersion, "v")
	configVersion = strings.TrimPrefix(configVersion, "v")

	if configVersion == "" || toolVersion == "main" || configVersion == "main" {
		return nil
	}

	toolSemver, err := semver.NewVersion(toolVersion)
	if err != nil {
		return fmt.Errorf("invalid tool version '%s': %w", toolVersion, err)
	}

	configSemver, err := semver.NewVersion(configVersion)
	if err != nil {
		return fmt.Errorf("invalid config version '%s': %w", configVersion, err)
	}

	if toolSemver.Major() != configSemver.Major() {
		return fmt.Errorf("major version mismatch: collect is %d.x.x but config requires %d.x.x",
			toolSemver.Major(), configSemver.Major())
	}

	if toolSemver.Minor() < configSemver.Minor() {
		return fmt.Errorf("config requires collect %d.%d.x or newer, running %d.%d.x",
			configSemver.Major(), configSemver.Minor(),
			toolSemver.Major(), toolSemver.Minor())
	}

	return nil
}
