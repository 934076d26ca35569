package version

import (
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/rxtech-lab/argo-runtime/pkg/errors"
)

// CheckConfigCompatibility checks that a config file written for
// configVersion can be loaded by a runtime at runtimeVersion.
//
// Rules:
//   - "main" on either side skips the check
//   - major versions must match
//   - the config minor version must not be newer than the runtime's
//   - patch, prerelease and build metadata are ignored
//
// Examples:
//   - runtime 1.2.0, config 1.2.5 -> OK
//   - runtime 1.3.0, config 1.2.0 -> OK
//   - runtime 1.2.0, config 1.3.0 -> ERROR (config is newer)
//   - runtime 2.0.0, config 1.2.0 -> ERROR (major differs)
func CheckConfigCompatibility(runtimeVersion, configVersion string) error {
	runtimeVersion = strings.TrimPrefix(runtimeVersion, "v")
	configVersion = strings.TrimPrefix(configVersion, "v")

	if runtimeVersion == "main" || configVersion == "main" {
		return nil
	}

	runtimeSemver, err := semver.NewVersion(runtimeVersion)
	if err != nil {
		return errors.Wrapf(errors.ErrCodeInvalidVersion, err, "invalid runtime version '%s'", runtimeVersion)
	}

	configSemver, err := semver.NewVersion(configVersion)
	if err != nil {
		return errors.Wrapf(errors.ErrCodeInvalidVersion, err, "invalid config version '%s'", configVersion)
	}

	if runtimeSemver.Major() != configSemver.Major() {
		return errors.Newf(errors.ErrCodeVersionMismatch, "major version mismatch: runtime is %d.x.x but config requires %d.x.x",
			runtimeSemver.Major(), configSemver.Major())
	}

	if configSemver.Minor() > runtimeSemver.Minor() {
		return errors.Newf(errors.ErrCodeVersionMismatch, "minor version mismatch: runtime is %d.%d.x but config requires %d.%d.x",
			runtimeSemver.Major(), runtimeSemver.Minor(),
			configSemver.Major(), configSemver.Minor())
	}

	return nil
}
