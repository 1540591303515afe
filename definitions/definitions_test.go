package definitions

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestElementDefn_IsList(t *testing.T) {
	tests := []struct {
		max  string
		want bool
	}{
		{"*", true},
		{"1", false},
		{"0", false},
		{"2", true},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.max, func(t *testing.T) {
			e := &ElementDefn{Max: tt.max}
			if got := e.IsList(); got != tt.want {
				t.Errorf("IsList() with max %q = %v, want %v", tt.max, got, tt.want)
			}
		})
	}
}

func TestElementDefn_Cardinality(t *testing.T) {
	e := &ElementDefn{Min: 0, Max: "*"}
	if got := e.Cardinality(); got != "0..*" {
		t.Errorf("got %q, want 0..*", got)
	}
	e = &ElementDefn{Min: 1}
	if got := e.Cardinality(); got != "1..1" {
		t.Errorf("got %q, want 1..1", got)
	}
}

func TestTypeDefn_AllElements(t *testing.T) {
	contact := &ElementDefn{Name: "contact", Path: "Patient.contact"}
	contact.Children = []*ElementDefn{
		{Name: "name", Path: "Patient.contact.name"},
	}
	typ := &TypeDefn{
		Name: "Patient",
		Root: &ElementDefn{
			Name: "Patient",
			Path: "Patient",
			Children: []*ElementDefn{
				{Name: "active", Path: "Patient.active"},
				contact,
				{Name: "gender", Path: "Patient.gender"},
			},
		},
	}

	var paths []string
	for _, e := range typ.AllElements() {
		paths = append(paths, e.Path)
	}
	want := []string{"Patient.active", "Patient.contact", "Patient.contact.name", "Patient.gender"}
	if diff := cmp.Diff(want, paths); diff != "" {
		t.Errorf("AllElements() mismatch (-want +got):\n%s", diff)
	}

	if e := typ.FindElement("Patient.contact.name"); e == nil || e.Name != "name" {
		t.Errorf("FindElement returned %v", e)
	}
	if e := typ.FindElement("Patient.missing"); e != nil {
		t.Errorf("expected nil, got %v", e)
	}
}

func TestBinding_IsEnumerable(t *testing.T) {
	defs := New()
	defs.ValueSets["http://hl7.org/fhir/ValueSet/administrative-gender"] = &ValueSet{
		URL:   "http://hl7.org/fhir/ValueSet/administrative-gender",
		Codes: []Code{{Code: "male"}, {Code: "female"}},
	}
	defs.ValueSets["http://hl7.org/fhir/ValueSet/languages"] = &ValueSet{
		URL: "http://hl7.org/fhir/ValueSet/languages",
	}

	tests := []struct {
		name    string
		binding *Binding
		want    bool
	}{
		{"nil", nil, false},
		{"required", &Binding{Strength: BindingRequired, ValueSet: "http://hl7.org/fhir/ValueSet/administrative-gender"}, true},
		{"required versioned", &Binding{Strength: BindingRequired, ValueSet: "http://hl7.org/fhir/ValueSet/administrative-gender|3.0.1"}, true},
		{"extensible", &Binding{Strength: BindingExtensible, ValueSet: "http://hl7.org/fhir/ValueSet/administrative-gender"}, false},
		{"not enumerated", &Binding{Strength: BindingRequired, ValueSet: "http://hl7.org/fhir/ValueSet/languages"}, false},
		{"unknown", &Binding{Strength: BindingRequired, ValueSet: "http://example.com/vs"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.binding.IsEnumerable(defs); got != tt.want {
				t.Errorf("IsEnumerable() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDefinitions_Lookup(t *testing.T) {
	defs := New()
	defs.Primitives["string"] = &PrimitiveType{Name: "string"}
	defs.Types["Coding"] = &TypeDefn{Name: "Coding"}
	defs.Resources["Patient"] = &TypeDefn{Name: "Patient", Kind: KindResource}
	defs.Resources["Account"] = &TypeDefn{Name: "Account", Kind: KindResource}

	for _, name := range []string{"string", "Coding", "Patient"} {
		if !defs.HasType(name) {
			t.Errorf("HasType(%q) = false", name)
		}
	}
	if defs.HasType("Nope") {
		t.Error("HasType(Nope) = true")
	}
	if diff := cmp.Diff([]string{"Account", "Patient"}, defs.ResourceNames()); diff != "" {
		t.Errorf("ResourceNames() mismatch (-want +got):\n%s", diff)
	}
}
