package pascal

import (
	"fmt"
	"os"
	"slices"

	"gopkg.in/yaml.v3"
)

// AugmentConfig holds class and field overrides loaded from augment.yml.
//
//	exclude:
//	  - ImplementationGuide
//	types:
//	  Patient.contact:
//	    name: TFhirPatientContactParty
//	    fields:
//	      name:
//	        name: partyName
//	        doc: The name of the contact party.
type AugmentConfig struct {
	Exclude []string               `yaml:"exclude,omitempty"` // resources left out entirely
	Types   map[string]AugmentType `yaml:"types"`             // keyed by FHIR name or backbone path
}

// AugmentType holds overrides for a single class.
type AugmentType struct {
	Name   string                  `yaml:"name,omitempty"`
	Doc    string                  `yaml:"doc,omitempty"`
	Fields map[string]AugmentField `yaml:"fields,omitempty"` // keyed by element name
}

// AugmentField holds overrides for a single property.
type AugmentField struct {
	Name string `yaml:"name,omitempty"`
	Doc  string `yaml:"doc,omitempty"`
}

// LoadAugmentations reads and parses an augment.yml file.
func LoadAugmentations(path string) (*AugmentConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading augment config: %w", err)
	}

	var config AugmentConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("parsing augment config: %w", err)
	}
	return &config, nil
}

// ApplyAugmentations applies overrides from the augment config to the
// model. It modifies the model in place. Overrides for names that are not
// in the model are ignored.
func ApplyAugmentations(model *Model, config *AugmentConfig) {
	if config == nil {
		return
	}

	for _, name := range config.Exclude {
		excludeResource(model, name)
	}

	for fhirName, aug := range config.Types {
		class := model.ClassByFHIRName(fhirName)
		if class == nil {
			continue
		}

		// Rename class.
		if aug.Name != "" && aug.Name != class.Name {
			oldName := class.Name
			class.Name = aug.Name

			// Update references in all classes.
			for _, c := range model.Classes {
				if c.Parent == oldName {
					c.Parent = aug.Name
				}
				for _, f := range c.Fields {
					if f.Type == oldName {
						f.Type = aug.Name
					}
				}
			}
		}

		if aug.Doc != "" {
			class.Doc = aug.Doc
		}

		// Apply field overrides.
		for elementName, fieldAug := range aug.Fields {
			for _, f := range class.Fields {
				if f.FHIRName == elementName {
					if fieldAug.Name != "" {
						f.Name = fieldAug.Name
					}
					if fieldAug.Doc != "" {
						f.Doc = fieldAug.Doc
					}
					break
				}
			}
		}
	}
}

// excludeResource removes a resource, its backbone classes, its search
// parameters and its resource type constant.
func excludeResource(model *Model, name string) {
	model.Classes = slices.DeleteFunc(model.Classes, func(c *PasClass) bool {
		return c.Owner == name && (c.Kind == ClassResource || c.Kind == ClassBackbone)
	})
	model.Searches = slices.DeleteFunc(model.Searches, func(s *PasSearch) bool {
		return s.Resource == name
	})
	model.ResourceTypes = slices.DeleteFunc(model.ResourceTypes, func(r string) bool {
		return r == name
	})
}
