package loader

import (
	"encoding/json"
	"fmt"
)

// The types in this file decode the subset of FHIR JSON needed to build
// definitions. Fields that only exist in one release are annotated; both
// releases decode into the same structs and the format implementations pick
// the fields they understand.

// Bundle is a FHIR Bundle resource.
type Bundle struct {
	ResourceType string        `json:"resourceType"`
	ID           string        `json:"id"`
	Meta         *Meta         `json:"meta,omitempty"`
	Entry        []BundleEntry `json:"entry"`
}

// Meta holds resource metadata.
type Meta struct {
	LastUpdated string `json:"lastUpdated,omitempty"`
}

// BundleEntry is one entry of a Bundle. The resource is decoded on demand.
type BundleEntry struct {
	FullURL  string          `json:"fullUrl,omitempty"`
	Resource json.RawMessage `json:"resource"`
}

// resourceHeader extracts the fields common to every conformance resource.
type resourceHeader struct {
	ResourceType string `json:"resourceType"`
	ID           string `json:"id"`
	URL          string `json:"url"`
}

// StructureDefinition defines a primitive, data type or resource.
type StructureDefinition struct {
	ResourceType string `json:"resourceType"`
	ID           string `json:"id"`
	URL          string `json:"url"`
	Name         string `json:"name"`
	Description  string `json:"description"`
	FhirVersion  string `json:"fhirVersion"`
	Kind         string `json:"kind"`
	Abstract     bool   `json:"abstract"`

	// DSTU2
	Base            string `json:"base"`
	ConstrainedType string `json:"constrainedType"`

	// DSTU3
	Type           string `json:"type"`
	BaseDefinition string `json:"baseDefinition"`
	Derivation     string `json:"derivation"`

	Snapshot     *ElementList `json:"snapshot,omitempty"`
	Differential *ElementList `json:"differential,omitempty"`
}

// ElementList holds the elements of a snapshot or differential.
type ElementList struct {
	Element []ElementDefinition `json:"element"`
}

// ElementDefinition is one element of a StructureDefinition.
type ElementDefinition struct {
	Path       string          `json:"path"`
	Name       string          `json:"name"` // DSTU2 element name, target of nameReference.
	Short      string          `json:"short"`
	Definition string          `json:"definition"`
	Min        int             `json:"min"`
	Max        string          `json:"max"`
	Type       []ElementType   `json:"type"`
	IsModifier bool            `json:"isModifier"`
	IsSummary  bool            `json:"isSummary"`
	Binding    *ElementBinding `json:"binding,omitempty"`
	Extension  []Extension     `json:"extension,omitempty"`

	NameReference    string `json:"nameReference"`    // DSTU2
	ContentReference string `json:"contentReference"` // DSTU3
}

// ElementType is one allowed type of an element.
type ElementType struct {
	Code          string          `json:"code"`
	CodeExtension *PrimitiveExt   `json:"_code,omitempty"`
	Profile       StringOrStrings `json:"profile,omitempty"`       // Array in DSTU2, string in DSTU3.
	TargetProfile string          `json:"targetProfile,omitempty"` // DSTU3
	Extension     []Extension     `json:"extension,omitempty"`
}

// PrimitiveExt carries the extensions of a primitive JSON property.
type PrimitiveExt struct {
	Extension []Extension `json:"extension,omitempty"`
}

// ElementBinding binds a coded element to a value set.
type ElementBinding struct {
	Strength          string      `json:"strength"`
	Description       string      `json:"description"`
	ValueSetURI       string      `json:"valueSetUri"`
	ValueSetReference *Reference  `json:"valueSetReference,omitempty"`
	Extension         []Extension `json:"extension,omitempty"`
}

// Reference is a FHIR Reference.
type Reference struct {
	Reference string `json:"reference"`
}

// Extension is a FHIR extension. Only string-like values are kept.
type Extension struct {
	URL         string `json:"url"`
	ValueString string `json:"valueString,omitempty"`
	ValueCode   string `json:"valueCode,omitempty"`
	ValueURI    string `json:"valueUri,omitempty"`
}

// Value returns whichever value the extension carries.
func (e Extension) Value() string {
	switch {
	case e.ValueString != "":
		return e.ValueString
	case e.ValueCode != "":
		return e.ValueCode
	default:
		return e.ValueURI
	}
}

// SearchParameter is a FHIR SearchParameter resource.
type SearchParameter struct {
	ResourceType string          `json:"resourceType"`
	ID           string          `json:"id"`
	URL          string          `json:"url"`
	Code         string          `json:"code"`
	Base         StringOrStrings `json:"base"` // String in DSTU2, array in DSTU3.
	Type         string          `json:"type"`
	Description  string          `json:"description"`
	Expression   string          `json:"expression"` // DSTU3
	XPath        string          `json:"xpath"`
	Target       []string        `json:"target"`
}

// ValueSet is a FHIR ValueSet resource.
type ValueSet struct {
	ResourceType string           `json:"resourceType"`
	ID           string           `json:"id"`
	URL          string           `json:"url"`
	Name         string           `json:"name"`
	Description  string           `json:"description"`
	CodeSystem   *InlineCodeSystem `json:"codeSystem,omitempty"` // DSTU2
	Compose      *Compose         `json:"compose,omitempty"`
}

// InlineCodeSystem is the code system defined inside a DSTU2 value set.
type InlineCodeSystem struct {
	System  string    `json:"system"`
	Concept []Concept `json:"concept"`
}

// Compose describes how a value set is assembled.
type Compose struct {
	Import  []string         `json:"import,omitempty"` // DSTU2
	Include []ComposeInclude `json:"include,omitempty"`
	Exclude []ComposeInclude `json:"exclude,omitempty"`
}

// ComposeInclude selects codes from one system.
type ComposeInclude struct {
	System   string            `json:"system"`
	Concept  []Concept         `json:"concept,omitempty"`
	Filter   []json.RawMessage `json:"filter,omitempty"`
	ValueSet []string          `json:"valueSet,omitempty"` // DSTU3
}

// CodeSystem is a DSTU3 CodeSystem resource.
type CodeSystem struct {
	ResourceType string    `json:"resourceType"`
	ID           string    `json:"id"`
	URL          string    `json:"url"`
	Name         string    `json:"name"`
	Content      string    `json:"content"`
	Concept      []Concept `json:"concept"`
}

// Concept is a code, possibly with nested child codes.
type Concept struct {
	Code       string    `json:"code"`
	Display    string    `json:"display"`
	Definition string    `json:"definition"`
	Abstract   bool      `json:"abstract"` // DSTU2
	Concept    []Concept `json:"concept,omitempty"`
}

// StringOrStrings accepts either a single JSON string or a list of strings.
// It always normalizes to a []string: a bare string becomes a single-element
// slice.
type StringOrStrings []string

// UnmarshalJSON implements [json.Unmarshaler] for StringOrStrings.
func (s *StringOrStrings) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*s = StringOrStrings{single}
		return nil
	}
	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return fmt.Errorf("expected string or list of strings: %w", err)
	}
	*s = list
	return nil
}
