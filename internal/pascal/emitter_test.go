package pascal

import (
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrewkroh/go-fhir-delphi/definitions"
)

func testHeader() Header {
	return Header{
		Version:  "3.0.1",
		Revision: "11917",
		GenDate:  time.Date(2017, 4, 19, 7, 44, 43, 0, time.UTC),
		DSTU:     3,
	}
}

func renderTestModel(t *testing.T, um *UnitMap) map[string]string {
	t.Helper()
	model := assignedModel(t, um)
	require.NoError(t, validate(model))
	return NewEmitter(t.TempDir(), testHeader(), logrus.New()).Render(model)
}

func assertContainsAll(t *testing.T, src string, want ...string) {
	t.Helper()
	for _, w := range want {
		assert.Contains(t, src, w)
	}
}

func TestEmitter_Header(t *testing.T) {
	units := renderTestModel(t, nil)
	for name, src := range units {
		t.Run(name, func(t *testing.T) {
			assert.True(t, strings.HasPrefix(src, "unit "+name+";\n"))
			assertContainsAll(t, src,
				"Generated by fhir-delphi from FHIR v3.0.1 (revision 11917), DSTU3.",
				"Definitions generated 2017-04-19T07:44:43Z.",
				"\ninterface\n",
				"\nimplementation\n",
			)
			assert.True(t, strings.HasSuffix(src, "end.\n"))
		})
	}
}

func TestEmitter_Constants(t *testing.T) {
	src := renderTestModel(t, nil)[UnitConstants]

	assertContainsAll(t, src,
		"  FHIR_GENERATED_VERSION = '3.0.1';\n",
		"  FHIR_GENERATED_REVISION = '11917';\n",
		"  FHIR_GENERATED_DATE = '20170419074443';\n",
		"  FHIR_GENERATED_PUBLICATION = '3';\n",

		"  TFhirResourceType = (\n    frtNull,\n    frtPatient,\n    frtCustom);\n",
		"  TFhirResourceTypeSet = set of TFhirResourceType;\n",
		"  CODES_TFhirResourceType : Array[TFhirResourceType] of String = (\n    '',\n    'Patient',\n    'Custom');\n",

		"  { Search parameters for Patient }\n  TSearchParamsPatient = (\n",
		"    spPatient__id, { _id (token) }\n",
		"    spPatient_name); { name (string) }\n",
		"  CODES_TSearchParamsPatient : Array[TSearchParamsPatient] of String = (\n    '_id',\n    'gender',\n    'name');\n",
		"    'Gender of the patient',\n",

		"  { The gender of a person used for administrative purposes. }\n  TFhirAdministrativeGenderEnum = (\n",
		"    AdministrativeGenderNull, { Value is missing from Instance }\n",
		"    AdministrativeGenderMale, { male }\n",
		"    AdministrativeGenderUnknown); { unknown }\n",
		"  TFhirAdministrativeGenderEnumList = set of TFhirAdministrativeGenderEnum;\n",
		"    LinkTypeReplacedBy, { replaced-by }\n",
		"  SYSTEMS_TFhirLinkTypeEnum : Array[TFhirLinkTypeEnum] of String = (\n    '',\n    'http://hl7.org/fhir/link-type',\n",
	)
}

func TestEmitter_TypesUnit(t *testing.T) {
	src := renderTestModel(t, nil)[UnitTypes]

	assertContainsAll(t, src,
		"uses\n  SysUtils, Classes, StringSupport, DateSupport, FHIRBase, FHIRConstants;\n",
		"  TFhirHumanName = class;\n  TFhirHumanNameList = class;\n",
		"  TFhirHumanName = class (TFhirType)\n",
		"  TFhirString = class (TFhirPrimitiveType)\n",
		"    FValue : String;\n",
		"    property value : String read FValue write FValue;\n",
		"    constructor Create(value : String); overload;\n",
		"  TFhirCode = class (TFhirString)\n",
		"    property givenList : TFhirStringList read GetGivenList;\n",
		"    property hasGivenList : Boolean read GetHasGivenList;\n",
		"  TFhirExtensionList = class (TFHIRObjectList)\n",
		"    property FhirExtensions[index : Integer] : TFhirExtension read GetItemN write SetItemN; default;\n",
		"function TFhirHumanName.FhirType : string;\nbegin\n  result := 'HumanName';\nend;\n",
	)
	assert.NotContains(t, src, "TFhirPatient")

	// TDateTimeEx values are records and cannot be published.
	dt := src[strings.Index(src, "  TFhirDateTime = class (TFhirPrimitiveType)"):]
	dt = dt[:strings.Index(dt, "  end;")]
	assert.NotContains(t, dt, "published")

	// Parents are declared before their children.
	order := []string{
		"  TFhirElement = class (TFHIRBase)",
		"  TFhirType = class (TFhirElement)",
		"  TFhirPrimitiveType = class (TFhirType)",
		"  TFhirString = class (TFhirPrimitiveType)",
		"  TFhirCode = class (TFhirString)",
	}
	last := -1
	for _, decl := range order {
		i := strings.Index(src, decl)
		require.GreaterOrEqual(t, i, 0, decl)
		assert.Greater(t, i, last, "%s declared out of order", decl)
		last = i
	}
}

func TestEmitter_ResourcesUnit(t *testing.T) {
	src := renderTestModel(t, nil)[UnitResources]

	assertContainsAll(t, src,
		"uses\n  SysUtils, Classes, StringSupport, DateSupport, FHIRBase, FHIRConstants, FHIRTypes;\n",
		"  { Demographics and other administrative information about an individual. }\n  TFhirPatient = class (TFhirDomainResource)\n",
		"    FActive : TFhirBoolean;\n",
		"    FGender : TFhirEnum;\n",
		"    FLinkList : TFhirPatientLinkList;\n",
		"    function GetResourceType : TFhirResourceType; override;\n",

		// primitive
		"    { Whether this patient's record is in active use. }\n    property activeElement : TFhirBoolean read FActive write SetActive;\n",
		"    property active : Boolean read GetActiveST write SetActiveST;\n",
		// enum
		"    property genderElement : TFhirEnum read FGender write SetGender;\n",
		"    property gender : TFhirAdministrativeGenderEnum read GetGenderST write SetGenderST;\n",
		// reserved word
		"    property linkList : TFhirPatientLinkList read GetLinkList;\n",
		"    property typeElement : TFhirEnum read FType write SetType;\n",
		"    property type_ : TFhirLinkTypeEnum read GetTypeST write SetTypeST;\n",
		// choice
		"    property deceased : TFhirType read FDeceased write SetDeceased;\n",

		"function TFhirPatient.GetResourceType : TFhirResourceType;\nbegin\n  result := frtPatient;\nend;\n",
		"    result := TFhirAdministrativeGenderEnum(StringArrayIndexOfSensitive(CODES_TFhirAdministrativeGenderEnum, FGender.value));\n",
		"    SetGender(TFhirEnum.Create(SYSTEMS_TFhirAdministrativeGenderEnum[value], CODES_TFhirAdministrativeGenderEnum[value]));\n",
		"procedure TFhirPatient.SetActiveST(value : Boolean);\nbegin\n  if FActive = nil then\n    FActive := TFhirBoolean.Create;\n  FActive.value := value;\nend;\n",
		"function TFhirPatient.GetBirthDateST : TDateTimeEx;\n",
		"  if value.notNull then\n",
		"function TFhirPatientContact.FhirType : string;\nbegin\n  result := 'Patient.contact';\nend;\n",
	)

	// Abstract resources have no resource type.
	assert.NotContains(t, src, "TFhirDomainResource.GetResourceType")
	// TDateTimeEx accessors are public, not published.
	assert.Contains(t, src, "    property birthDate : TDateTimeEx read GetBirthDateST write SetBirthDateST;\n")
}

func TestEmitter_ReservedEnumList(t *testing.T) {
	defs := testDefinitions()
	types := elem("Patient.type", "*", "code")
	types.Binding = &definitions.Binding{Strength: definitions.BindingRequired, ValueSet: genderURL}
	patient := defs.Resources["Patient"]
	patient.Root.Children = append(patient.Root.Children, types)

	model, err := NewTypeMapper(defs).Map()
	require.NoError(t, err)
	var um *UnitMap
	um.AssignUnits(model)
	require.NoError(t, validate(model))
	src := NewEmitter(t.TempDir(), testHeader(), logrus.New()).Render(model)[UnitResources]

	assertContainsAll(t, src,
		"    property typeList : ",
		"    property hasTypeList : Boolean read GetHasTypeList;\n",
		"    property type_ : TFhirAdministrativeGenderEnumList read GetTypeST write SetTypeST;\n",
	)
	assert.NotContains(t, src, "property type : ")
}

func TestEmitter_ExtraUnit(t *testing.T) {
	units := renderTestModel(t, &UnitMap{Units: map[string][]string{"FHIRResourcesAdmin": {"Patient"}}})

	require.Contains(t, units, "FHIRResourcesAdmin")
	admin := units["FHIRResourcesAdmin"]
	assertContainsAll(t, admin,
		"uses\n  SysUtils, Classes, StringSupport, DateSupport, FHIRBase, FHIRConstants, FHIRTypes, FHIRResources;\n",
		"  TFhirPatient = class (TFhirDomainResource)\n",
		"  TFhirPatientContact = class (TFhirBackboneElement)\n",
	)
	assert.NotContains(t, units[UnitResources], "TFhirPatient")
	assert.Contains(t, units[UnitResources], "  TFhirDomainResource = class (TFhirResource)\n")
}

func TestEmitter_EmptyUnit(t *testing.T) {
	model := assignedModel(t, nil)
	ApplyAugmentations(model, &AugmentConfig{Exclude: []string{"Patient", "DomainResource", "Resource"}})
	src := NewEmitter(t.TempDir(), testHeader(), logrus.New()).Render(model)[UnitResources]

	assert.NotContains(t, src, "\ntype\n")
	assertContainsAll(t, src, "\ninterface\n", "\nimplementation\n\nend.\n")
}

func TestQuote(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", "''"},
		{"Patient", "'Patient'"},
		{"patient's", "'patient''s'"},
		{"line\nbreak", "'line break'"},
		{strings.Repeat("a", 300), "'" + strings.Repeat("a", 255) + "' + '" + strings.Repeat("a", 45) + "'"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, quote(tt.in))
	}
}

func TestSanitizeDoc(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"plain text", "plain text"},
		{"uses {braces}", "uses (braces)"},
		{"see [Patient](patient.html) for details", "see Patient for details"},
		{"multi\n\nline   text", "multi line text"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, sanitizeDoc(tt.in))
	}
}

func TestWrapDoc(t *testing.T) {
	got := wrapDoc("aaa bbb ccc ddd", 7)
	assert.Equal(t, []string{"aaa bbb", "ccc ddd"}, got)
	assert.Nil(t, wrapDoc("  ", 10))

	// Width counts runes, so each line holds two three-rune words.
	got = wrapDoc("ééé ààà üüü ööö", 7)
	assert.Equal(t, []string{"ééé ààà", "üüü ööö"}, got)
}
