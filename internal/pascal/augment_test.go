package pascal

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadAugmentations(t *testing.T) {
	path := writeFile(t, "augment.yml", `
exclude:
  - ImplementationGuide
types:
  Patient.contact:
    name: TFhirPatientContactParty
    doc: A contact party for the patient.
    fields:
      name:
        name: partyName
`)
	cfg, err := LoadAugmentations(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"ImplementationGuide"}, cfg.Exclude)
	contact := cfg.Types["Patient.contact"]
	assert.Equal(t, "TFhirPatientContactParty", contact.Name)
	assert.Equal(t, "A contact party for the patient.", contact.Doc)
	assert.Equal(t, "partyName", contact.Fields["name"].Name)
}

func TestLoadAugmentations_Errors(t *testing.T) {
	_, err := LoadAugmentations(filepath.Join(t.TempDir(), "missing.yml"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = LoadAugmentations(writeFile(t, "bad.yml", "types: [not, a, map]"))
	assert.ErrorContains(t, err, "parsing augment config")
}

func TestApplyAugmentations_Rename(t *testing.T) {
	model := mapTestModel(t)
	ApplyAugmentations(model, &AugmentConfig{
		Types: map[string]AugmentType{
			"Patient.contact": {
				Name: "TFhirPatientContactParty",
				Fields: map[string]AugmentField{
					"name": {Name: "partyName", Doc: "The name of the contact party."},
				},
			},
			"Patient": {Doc: "A person receiving care."},
			"Unknown": {Name: "TFhirIgnored"},
		},
	})

	assert.Nil(t, model.Class("TFhirPatientContact"))
	contact := model.Class("TFhirPatientContactParty")
	require.NotNil(t, contact)
	name := fieldByName(t, contact, "name")
	assert.Equal(t, "partyName", name.Name)
	assert.Equal(t, "The name of the contact party.", name.Doc)

	// References to the renamed class follow the new name.
	patient := model.Class("TFhirPatient")
	assert.Equal(t, "TFhirPatientContactParty", fieldByName(t, patient, "contact").Type)
	assert.Equal(t, "A person receiving care.", patient.Doc)
	assert.Nil(t, model.Class("TFhirIgnored"))
}

func TestApplyAugmentations_RenameParent(t *testing.T) {
	model := mapTestModel(t)
	ApplyAugmentations(model, &AugmentConfig{
		Types: map[string]AugmentType{
			"DomainResource": {Name: "TFhirDomainResourceBase"},
		},
	})
	assert.Equal(t, "TFhirDomainResourceBase", model.Class("TFhirPatient").Parent)
}

func TestApplyAugmentations_Exclude(t *testing.T) {
	model := mapTestModel(t)
	ApplyAugmentations(model, &AugmentConfig{Exclude: []string{"Patient"}})

	for _, c := range model.Classes {
		assert.NotEqual(t, "Patient", c.Owner, "class %s should be excluded", c.Name)
	}
	for _, s := range model.Searches {
		assert.NotEqual(t, "Patient", s.Resource)
	}
	assert.Empty(t, model.ResourceTypes)
}

func TestApplyAugmentations_Nil(t *testing.T) {
	model := mapTestModel(t)
	n := len(model.Classes)
	ApplyAugmentations(model, nil)
	assert.Len(t, model.Classes, n)
}
