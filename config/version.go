package config

import (
	"fmt"

	"github.com/Masterminds/semver/v3"
)

// SchemaVersion is the version of the configuration schema. Files declare
// the version they were written for in their version field.
const SchemaVersion = "0.1.0"

// IsCompatible reports whether a file written for version can be read by
// this schema, using a caret constraint on SchemaVersion. For 0.x versions
// only patch releases are compatible.
func IsCompatible(version string) (bool, error) {
	constraint, err := semver.NewConstraint("^" + SchemaVersion)
	if err != nil {
		return false, fmt.Errorf("invalid schema version: %w", err)
	}
	v, err := semver.NewVersion(version)
	if err != nil {
		return false, fmt.Errorf("invalid config version %q: %w", version, err)
	}
	return constraint.Check(v), nil
}
