// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"testing"
)

func TestColorSchemeValidate(t *testing.T) {
	tests := []struct {
		scheme  ColorScheme
		wantErr bool
	}{
		{ColorSchemeAuto, false},
		{ColorSchemeDark, false},
		{ColorSchemeLight, false},
		{ColorScheme("sepia"), true},
		{ColorScheme(""), true},
	}

	for _, tt := range tests {
		t.Run(string(tt.scheme), func(t *testing.T) {
			err := tt.scheme.Validate()
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidColorScheme) {
					t.Fatalf("err = %v, want ErrInvalidColorScheme", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Validate(%q) = %v", tt.scheme, err)
			}
		})
	}
}

func TestConfigValidate(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config must validate: %v", err)
	}

	cfg.UI.ColorScheme = "sepia"
	cfg.ExtraVendorKeywords = []string{" "}

	err := cfg.Validate()
	if !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("err = %v, want ErrInvalidConfig", err)
	}
	var invalid *InvalidConfigError
	if !errors.As(err, &invalid) || len(invalid.FieldErrors) != 2 {
		t.Fatalf("expected 2 field errors, got %v", err)
	}
}
