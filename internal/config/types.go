// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"strings"
)

const (
	// ColorSchemeAuto detects the terminal color scheme automatically.
	ColorSchemeAuto ColorScheme = "auto"
	// ColorSchemeDark forces dark color scheme.
	ColorSchemeDark ColorScheme = "dark"
	// ColorSchemeLight forces light color scheme.
	ColorSchemeLight ColorScheme = "light"
)

var (
	// ErrInvalidColorScheme is returned when a ColorScheme value is not recognized.
	ErrInvalidColorScheme = errors.New("invalid color scheme")
	// ErrInvalidVendorKeyword is returned when an extra vendor keyword is whitespace-only.
	ErrInvalidVendorKeyword = errors.New("invalid vendor keyword")
	// ErrInvalidConfig is the sentinel error wrapped by InvalidConfigError.
	ErrInvalidConfig = errors.New("invalid config")
)

type (
	// ColorScheme specifies the terminal color scheme preference.
	ColorScheme string

	// InvalidColorSchemeError is returned when a ColorScheme value is not recognized.
	// It wraps ErrInvalidColorScheme for errors.Is() compatibility.
	InvalidColorSchemeError struct {
		Value ColorScheme
	}

	// InvalidConfigError is returned when a Config has invalid fields.
	// It wraps ErrInvalidConfig for errors.Is() compatibility and collects
	// field-level validation errors from all sub-components.
	InvalidConfigError struct {
		FieldErrors []error
	}

	// Config holds the application configuration.
	Config struct {
		// BuiltinDir names the corpus subtree holding built-in extensions.
		BuiltinDir string `json:"builtin_dir" mapstructure:"builtin_dir"`
		// Workers is the extraction worker count (0 derives from CPU count).
		Workers int `json:"workers" mapstructure:"workers"`
		// CheckpointEvery is the store checkpoint interval in batches.
		CheckpointEvery int `json:"checkpoint_every" mapstructure:"checkpoint_every"`
		// SampleCap bounds the sample lines kept per integration token.
		SampleCap int `json:"sample_cap" mapstructure:"sample_cap"`
		// ExtraVendorKeywords extends the embedded vendor token list.
		ExtraVendorKeywords []string `json:"extra_vendor_keywords" mapstructure:"extra_vendor_keywords"`
		// UI configures the user interface.
		UI UIConfig `json:"ui" mapstructure:"ui"`
	}

	// UIConfig configures the user interface.
	UIConfig struct {
		// ColorScheme selects the terminal color scheme ("auto", "dark", "light").
		ColorScheme ColorScheme `json:"color_scheme" mapstructure:"color_scheme"`
		// Verbose enables verbose output.
		Verbose bool `json:"verbose" mapstructure:"verbose"`
	}
)

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		BuiltinDir:      "extensions",
		Workers:         0,
		CheckpointEvery: 32,
		SampleCap:       5,
		UI: UIConfig{
			ColorScheme: ColorSchemeAuto,
			Verbose:     false,
		},
	}
}

// IsValid reports whether the color scheme is one of the recognized values.
func (c ColorScheme) IsValid() bool {
	switch c {
	case ColorSchemeAuto, ColorSchemeDark, ColorSchemeLight:
		return true
	default:
		return false
	}
}

// Validate returns nil for recognized color schemes and an
// InvalidColorSchemeError otherwise.
func (c ColorScheme) Validate() error {
	if c.IsValid() {
		return nil
	}
	return &InvalidColorSchemeError{Value: c}
}

// Error implements the error interface.
func (e *InvalidColorSchemeError) Error() string {
	return fmt.Sprintf("%v: %q (valid: auto, dark, light)", ErrInvalidColorScheme, string(e.Value))
}

// Unwrap returns the sentinel error for errors.Is() checks.
func (e *InvalidColorSchemeError) Unwrap() error { return ErrInvalidColorScheme }

// Error implements the error interface.
func (e *InvalidConfigError) Error() string {
	msgs := make([]string, 0, len(e.FieldErrors))
	for _, err := range e.FieldErrors {
		msgs = append(msgs, err.Error())
	}
	return fmt.Sprintf("%v: %s", ErrInvalidConfig, strings.Join(msgs, "; "))
}

// Unwrap returns the sentinel error for errors.Is() checks.
func (e *InvalidConfigError) Unwrap() error { return ErrInvalidConfig }

// Validate checks constraints the CUE schema cannot express.
func (cfg *Config) Validate() error {
	var fieldErrors []error

	if err := cfg.UI.ColorScheme.Validate(); err != nil {
		fieldErrors = append(fieldErrors, err)
	}
	for i, keyword := range cfg.ExtraVendorKeywords {
		if strings.TrimSpace(keyword) == "" {
			fieldErrors = append(fieldErrors,
				fmt.Errorf("%w: extra_vendor_keywords[%d] is whitespace-only", ErrInvalidVendorKeyword, i))
		}
	}

	if len(fieldErrors) > 0 {
		return &InvalidConfigError{FieldErrors: fieldErrors}
	}
	return nil
}
