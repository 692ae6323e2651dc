// SPDX-License-Identifier: MPL-2.0

package manifest

import (
	_ "embed"
	"fmt"

	"github.com/pelletier/go-toml/v2"
	"golang.org/x/exp/slices"
)

//go:embed taxonomy.toml
var taxonomyTOML []byte

type (
	// activationRule is one ordered classification rule from taxonomy.toml.
	// Exactly one of Prefix or Literal is set.
	activationRule struct {
		Prefix   string `toml:"prefix"`
		Literal  string `toml:"literal"`
		Category string `toml:"category"`
	}

	taxonomy struct {
		ContributionTypes []string         `toml:"contribution_types"`
		ActivationRules   []activationRule `toml:"activation_rules"`
	}
)

var loadedTaxonomy taxonomy

func init() {
	if err := toml.Unmarshal(taxonomyTOML, &loadedTaxonomy); err != nil {
		panic(fmt.Sprintf("manifest: embedded taxonomy.toml is invalid: %v", err))
	}
	if len(loadedTaxonomy.ContributionTypes) == 0 {
		panic("manifest: embedded taxonomy.toml declares no contribution types")
	}
	if len(loadedTaxonomy.ActivationRules) == 0 {
		panic("manifest: embedded taxonomy.toml declares no activation rules")
	}
}

// ContributionTypes returns the fixed, ordered list of recognized
// contribution-type identifiers.
func ContributionTypes() []string {
	return slices.Clone(loadedTaxonomy.ContributionTypes)
}

// IsRecognizedContribution reports whether key is in the fixed taxonomy.
func IsRecognizedContribution(key string) bool {
	return slices.Contains(loadedTaxonomy.ContributionTypes, key)
}
