// SPDX-License-Identifier: MPL-2.0

package types

import (
	"errors"
	"fmt"
	"regexp"
)

// ErrInvalidSemanticVersion is the sentinel error wrapped by
// InvalidSemanticVersionError.
var ErrInvalidSemanticVersion = errors.New("invalid semantic version")

// semverPattern accepts MAJOR.MINOR.PATCH with optional pre-release and
// build-metadata suffixes. Extension manifests occasionally carry looser
// version strings; those are rejected here and surfaced by the
// compatibility assessor.
var semverPattern = regexp.MustCompile(`^\d+\.\d+\.\d+(?:-[0-9A-Za-z.-]+)?(?:\+[0-9A-Za-z.-]+)?$`)

type (
	// SemanticVersion represents an extension version string. The zero value
	// ("") is not valid; manifests without a version fail structural
	// validation.
	SemanticVersion string

	// InvalidSemanticVersionError is returned when a SemanticVersion does not
	// match the semantic-version pattern.
	InvalidSemanticVersionError struct {
		Value SemanticVersion
	}
)

// Error implements the error interface.
func (e *InvalidSemanticVersionError) Error() string {
	return fmt.Sprintf("invalid semantic version %q (expected MAJOR.MINOR.PATCH)", e.Value)
}

// Unwrap returns ErrInvalidSemanticVersion for errors.Is() compatibility.
func (e *InvalidSemanticVersionError) Unwrap() error { return ErrInvalidSemanticVersion }

// String returns the string representation of the SemanticVersion.
func (v SemanticVersion) String() string { return string(v) }

// IsValid reports whether the version matches the semantic-version pattern.
func (v SemanticVersion) IsValid() bool {
	return semverPattern.MatchString(string(v))
}

// Validate returns an error if the version does not match the
// semantic-version pattern.
func (v SemanticVersion) Validate() error {
	if !v.IsValid() {
		return &InvalidSemanticVersionError{Value: v}
	}
	return nil
}
