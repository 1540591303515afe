package pascal

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// Standard unit names. Every generated model has these; extra units only
// hold resources.
const (
	UnitBase      = "FHIRBase" // runtime library, not generated
	UnitConstants = "FHIRConstants"
	UnitTypes     = "FHIRTypes"
	UnitResources = "FHIRResources"
)

// UnitMap assigns resources to extra Pascal units.
//
//	units:
//	  FHIRResourcesClinical: [AllergyIntolerance, Condition]
//	  FHIRResourcesAdmin: [Patient, Practitioner]
type UnitMap struct {
	Units map[string][]string `yaml:"units"` // unit name → resource names
	// Reverse lookup: resource name → unit name.
	lookup map[string]string
}

// LoadUnitMap reads and parses a unitmap.yml file.
func LoadUnitMap(path string) (*UnitMap, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading unit map: %w", err)
	}

	var um UnitMap
	if err := yaml.Unmarshal(data, &um); err != nil {
		return nil, fmt.Errorf("parsing unit map: %w", err)
	}

	um.buildLookup()
	return &um, nil
}

// buildLookup creates the reverse lookup table.
func (um *UnitMap) buildLookup() {
	um.lookup = make(map[string]string)
	for unit, resources := range um.Units {
		for _, r := range resources {
			um.lookup[r] = unit
		}
	}
}

// UnitFor returns the unit for a resource name. If the resource is not in
// the map, it returns defaultUnit.
func (um *UnitMap) UnitFor(resource, defaultUnit string) string {
	if um == nil {
		return defaultUnit
	}
	if um.lookup == nil {
		um.buildLookup()
	}
	if unit, ok := um.lookup[resource]; ok {
		return unit
	}
	return defaultUnit
}

// AssignUnits sets the Unit field on each class. Primitives and data types
// (with their backbone classes) go to FHIRTypes. Resources and their
// backbone classes go to the mapped unit, defaulting to FHIRResources.
func (um *UnitMap) AssignUnits(model *Model) {
	resources := map[string]bool{}
	for _, c := range model.Classes {
		if c.Kind == ClassResource {
			resources[c.Owner] = true
		}
	}
	for _, c := range model.Classes {
		if resources[c.Owner] {
			c.Unit = um.UnitFor(c.Owner, UnitResources)
		} else {
			c.Unit = UnitTypes
		}
	}
}

// ExtraUnits returns the names of the non-standard units that hold at
// least one class, sorted.
func ExtraUnits(model *Model) []string {
	seen := map[string]bool{}
	var out []string
	for _, c := range model.Classes {
		if unitRank(c.Unit) == rankExtra && !seen[c.Unit] {
			seen[c.Unit] = true
			out = append(out, c.Unit)
		}
	}
	sort.Strings(out)
	return out
}

// Unit ranks define the uses order. A class may only depend on classes in
// its own unit or in a unit of lower rank.
const (
	rankBase = iota
	rankConstants
	rankTypes
	rankResources
	rankExtra
)

func unitRank(unit string) int {
	switch unit {
	case UnitBase:
		return rankBase
	case UnitConstants:
		return rankConstants
	case UnitTypes:
		return rankTypes
	case UnitResources:
		return rankResources
	}
	return rankExtra
}
