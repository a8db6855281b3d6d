package confidence

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// Built-in historical-accuracy defaults per detector family, used when a
// signature has no learned record yet. Database findings are typically the
// most mechanical and so start with the most trust.
var builtinFamilyDefaults = map[string]float64{
	"database":    85,
	"security":    80,
	"dependency":  80,
	"build":       75,
	"structure":   75,
	"performance": 70,
}

// FamilyDefaults maps a detector family to the historical accuracy assumed
// for its unlearned patterns.
type FamilyDefaults struct {
	families map[string]float64
}

// NewFamilyDefaults returns the built-in family defaults.
func NewFamilyDefaults() *FamilyDefaults {
	families := make(map[string]float64, len(builtinFamilyDefaults))
	for family, accuracy := range builtinFamilyDefaults {
		families[family] = accuracy
	}
	return &FamilyDefaults{families: families}
}

type familyDefaultsFile struct {
	Detectors map[string]float64 `toml:"detectors"`
}

// LoadFamilyDefaults reads a detectors.toml file layered over the built-in
// defaults. A missing file yields the built-ins unchanged.
//
//	[detectors]
//	database = 90
//	performance = 65
func LoadFamilyDefaults(path string) (*FamilyDefaults, error) {
	defaults := NewFamilyDefaults()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return defaults, nil
	}

	var file familyDefaultsFile
	if _, err := toml.DecodeFile(path, &file); err != nil {
		return nil, fmt.Errorf("failed to parse detector defaults: %w", err)
	}

	for family, accuracy := range file.Detectors {
		if accuracy < 0 || accuracy > 100 {
			return nil, fmt.Errorf("detector default for %q out of range: %v", family, accuracy)
		}
		defaults.families[family] = accuracy
	}
	return defaults, nil
}

// For returns the default historical accuracy for a detector family,
// falling back to the general default for unknown families.
func (d *FamilyDefaults) For(family string) float64 {
	if accuracy, ok := d.families[family]; ok {
		return accuracy
	}
	return DefaultHistoricalAccuracy
}
