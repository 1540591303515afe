package pascal

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
)

func assignedModel(t *testing.T, um *UnitMap) *Model {
	t.Helper()
	model := mapTestModel(t)
	um.AssignUnits(model)
	return model
}

func TestValidate_Valid(t *testing.T) {
	require.NoError(t, validate(assignedModel(t, nil)))
	require.NoError(t, validate(assignedModel(t, &UnitMap{
		Units: map[string][]string{"FHIRResourcesAdmin": {"Patient"}},
	})))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(m *Model)
		um     *UnitMap
		want   error
	}{
		{
			name: "duplicate class",
			mutate: func(m *Model) {
				m.Class("TFhirPatientContact").Name = "TFhirPatientLink"
			},
			want: ErrDuplicateClass,
		},
		{
			name: "class collides with list class",
			mutate: func(m *Model) {
				m.Class("TFhirPatientContact").Name = "TFHIRPatientList"
			},
			want: ErrDuplicateClass,
		},
		{
			name: "unknown base",
			mutate: func(m *Model) {
				m.Class("TFhirPatient").Parent = "TFhirMissing"
			},
			want: ErrUnknownBase,
		},
		{
			name: "unknown field type",
			mutate: func(m *Model) {
				m.Class("TFhirHumanName").Fields[0].Type = "TFhirMissing"
			},
			want: ErrUnknownType,
		},
		{
			name: "unknown enum",
			mutate: func(m *Model) {
				fieldByName(t, m.Class("TFhirPatient"), "gender").Enum = "TFhirMissingEnum"
			},
			want: ErrUnknownType,
		},
		{
			name: "duplicate property",
			mutate: func(m *Model) {
				fieldByName(t, m.Class("TFhirPatient"), "birthDate").Name = "Active"
			},
			want: ErrDuplicateProperty,
		},
		{
			name: "value accessor collides with list property",
			mutate: func(m *Model) {
				fieldByName(t, m.Class("TFhirPatient"), "birthDate").Name = "nameList"
			},
			want: ErrDuplicateProperty,
		},
		{
			name: "element property collides with object",
			mutate: func(m *Model) {
				fieldByName(t, m.Class("TFhirPatient"), "deceased").Name = "activeElement"
			},
			want: ErrDuplicateProperty,
		},
		{
			name: "reserved value accessor",
			mutate: func(m *Model) {
				fieldByName(t, m.Class("TFhirPatient"), "gender").Name = "type"
			},
			want: ErrReservedProperty,
		},
		{
			name: "reserved object property",
			mutate: func(m *Model) {
				fieldByName(t, m.Class("TFhirPatient"), "deceased").Name = "Object"
			},
			want: ErrReservedProperty,
		},
		{
			name: "inheritance cycle",
			mutate: func(m *Model) {
				m.Class("TFhirResource").Parent = "TFhirPatient"
			},
			want: ErrInheritanceCycle,
		},
		{
			name: "duplicate constant",
			mutate: func(m *Model) {
				m.Enum("TFhirLinkTypeEnum").Values[0].Name = "AdministrativeGenderMale"
			},
			want: ErrDuplicateConstant,
		},
		{
			name: "base resource in extra unit",
			um:   &UnitMap{Units: map[string][]string{"FHIRResourcesCore": {"DomainResource"}}},
			want: ErrUnitOrder,
		},
		{
			name: "resource in types unit",
			um:   &UnitMap{Units: map[string][]string{UnitTypes: {"Patient"}}},
			want: ErrUnitOrder,
		},
		{
			name: "data type depends on resource",
			mutate: func(m *Model) {
				m.Class("TFhirHumanName").Fields[0].Type = "TFhirPatient"
			},
			want: ErrUnitOrder,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			model := assignedModel(t, tt.um)
			if tt.mutate != nil {
				tt.mutate(model)
			}
			err := validate(model)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want), "got %v, want %v", err, tt.want)
		})
	}
}

func TestValidate_ReportsAll(t *testing.T) {
	model := assignedModel(t, nil)
	model.Class("TFhirPatient").Parent = "TFhirMissing"
	model.Class("TFhirHumanName").Fields[0].Type = "TFhirAlsoMissing"

	err := validate(model)
	require.Error(t, err)
	assert.Len(t, multierr.Errors(err), 2)
	assert.ErrorIs(t, err, ErrUnknownBase)
	assert.ErrorIs(t, err, ErrUnknownType)
}
