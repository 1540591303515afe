// Package definitions holds the in-memory model of a loaded FHIR
// specification: primitive types, complex data types, resources with their
// element trees and search parameters, and the value sets referenced by
// element bindings.
//
// A Definitions value is produced by the loader package and consumed by the
// dumper, defsql and Pascal generator packages.
package definitions

import (
	"sort"
	"strconv"
	"strings"
	"time"
)

// Definitions is a loaded FHIR specification.
type Definitions struct {
	Version  string    // FHIR version, e.g. "3.0.1".
	Revision string    // Build revision. May be empty.
	GenDate  time.Time // When the specification was built.

	Primitives map[string]*PrimitiveType
	Types      map[string]*TypeDefn // Complex data types, including infrastructure types.
	Resources  map[string]*TypeDefn
	ValueSets  map[string]*ValueSet // By canonical URL.
}

// New returns an empty Definitions with all maps allocated.
func New() *Definitions {
	return &Definitions{
		Primitives: make(map[string]*PrimitiveType),
		Types:      make(map[string]*TypeDefn),
		Resources:  make(map[string]*TypeDefn),
		ValueSets:  make(map[string]*ValueSet),
	}
}

// PrimitiveNames returns the primitive type names in sorted order.
func (d *Definitions) PrimitiveNames() []string {
	return sortedKeys(d.Primitives)
}

// TypeNames returns the complex data type names in sorted order.
func (d *Definitions) TypeNames() []string {
	return sortedKeys(d.Types)
}

// ResourceNames returns the resource names in sorted order.
func (d *Definitions) ResourceNames() []string {
	return sortedKeys(d.Resources)
}

// ValueSetURLs returns the value set URLs in sorted order.
func (d *Definitions) ValueSetURLs() []string {
	return sortedKeys(d.ValueSets)
}

// HasType reports whether name is a known primitive, data type or resource.
func (d *Definitions) HasType(name string) bool {
	if _, ok := d.Primitives[name]; ok {
		return true
	}
	return d.LookupType(name) != nil
}

// LookupType returns the data type or resource with the given name, or nil.
func (d *Definitions) LookupType(name string) *TypeDefn {
	if t, ok := d.Types[name]; ok {
		return t
	}
	if t, ok := d.Resources[name]; ok {
		return t
	}
	return nil
}

// ValueSet returns the value set for a canonical URL. A trailing
// "|version" suffix is ignored.
func (d *Definitions) ValueSet(url string) *ValueSet {
	if idx := strings.Index(url, "|"); idx >= 0 {
		url = url[:idx]
	}
	return d.ValueSets[url]
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// PrimitiveType is a FHIR primitive such as boolean, string or code.
type PrimitiveType struct {
	Name  string
	Base  string // Primitive this one restricts (e.g. "string" for "code"). Empty for roots.
	Doc   string
	Regex string
}

// TypeKind classifies a TypeDefn.
type TypeKind int

const (
	KindComplexType TypeKind = iota
	KindResource
	KindLogical
)

// String returns the FHIR StructureDefinition kind.
func (k TypeKind) String() string {
	switch k {
	case KindComplexType:
		return "complex-type"
	case KindResource:
		return "resource"
	case KindLogical:
		return "logical"
	default:
		return "unknown"
	}
}

// TypeDefn is a complex data type or a resource.
type TypeDefn struct {
	Name         string
	Kind         TypeKind
	Base         string // Parent type name. Empty at the root of the hierarchy.
	Abstract     bool
	Doc          string
	Root         *ElementDefn
	SearchParams []*SearchParameter
}

// AllElements returns every element below the root, depth first, in
// source order. The root itself is not included.
func (t *TypeDefn) AllElements() []*ElementDefn {
	if t.Root == nil {
		return nil
	}
	var out []*ElementDefn
	var walk func(e *ElementDefn)
	walk = func(e *ElementDefn) {
		for _, c := range e.Children {
			out = append(out, c)
			walk(c)
		}
	}
	walk(t.Root)
	return out
}

// FindElement returns the element with the given full path, or nil.
func (t *TypeDefn) FindElement(path string) *ElementDefn {
	if t.Root == nil {
		return nil
	}
	if t.Root.Path == path {
		return t.Root
	}
	for _, e := range t.AllElements() {
		if e.Path == path {
			return e
		}
	}
	return nil
}

// ElementDefn is a node in a type's element tree.
type ElementDefn struct {
	Name             string // Last path segment with any "[x]" suffix removed.
	Path             string
	Min              int
	Max              string // "0", "1", "*", ...
	Types            []TypeRef
	Short            string
	Definition       string
	Binding          *Binding
	ContentReference string // Path of the element whose structure is reused.
	IsModifier       bool
	IsSummary        bool
	Choice           bool
	Children         []*ElementDefn
}

// IsList reports whether the element may repeat.
func (e *ElementDefn) IsList() bool {
	if e.Max == "*" {
		return true
	}
	n, err := strconv.Atoi(e.Max)
	return err == nil && n > 1
}

// IsChoice reports whether the element was declared as name[x].
func (e *ElementDefn) IsChoice() bool {
	return e.Choice
}

// IsBackbone reports whether the element defines its own structure.
func (e *ElementDefn) IsBackbone() bool {
	return len(e.Children) > 0
}

// Cardinality returns the element's cardinality as "min..max".
func (e *ElementDefn) Cardinality() string {
	max := e.Max
	if max == "" {
		max = "1"
	}
	return strconv.Itoa(e.Min) + ".." + max
}

// TypeCodes returns the type codes of the element.
func (e *ElementDefn) TypeCodes() []string {
	codes := make([]string, 0, len(e.Types))
	for _, t := range e.Types {
		codes = append(codes, t.Code)
	}
	return codes
}

// TypeRef is one allowed type of an element.
type TypeRef struct {
	Code     string
	Profiles []string // Target resource names for Reference types.
}

// String renders the reference as Code or Code(Target|Target).
func (r TypeRef) String() string {
	if len(r.Profiles) == 0 {
		return r.Code
	}
	return r.Code + "(" + strings.Join(r.Profiles, "|") + ")"
}

// Binding strengths.
const (
	BindingRequired   = "required"
	BindingExtensible = "extensible"
	BindingPreferred  = "preferred"
	BindingExample    = "example"
)

// Binding links a coded element to a value set.
type Binding struct {
	Name        string
	Strength    string
	ValueSet    string // Canonical URL.
	Description string
}

// IsEnumerable reports whether the binding can be represented as a closed
// list of codes: it is required and its value set is fully enumerated.
func (b *Binding) IsEnumerable(defs *Definitions) bool {
	if b == nil || b.Strength != BindingRequired || b.ValueSet == "" {
		return false
	}
	vs := defs.ValueSet(b.ValueSet)
	return vs != nil && len(vs.Codes) > 0
}

// ValueSet is a set of codes referenced by bindings.
type ValueSet struct {
	URL   string
	Name  string
	Doc   string
	Codes []Code // Empty when the value set cannot be fully enumerated.
}

// Code is a single coded value.
type Code struct {
	Code       string
	System     string
	Display    string
	Definition string
}

// Search parameter types.
const (
	SearchNumber    = "number"
	SearchDate      = "date"
	SearchString    = "string"
	SearchToken     = "token"
	SearchReference = "reference"
	SearchComposite = "composite"
	SearchQuantity  = "quantity"
	SearchURI       = "uri"
)

// SearchParameter is a search parameter defined for a resource.
type SearchParameter struct {
	Code        string
	Type        string
	Description string
	Expression  string
	XPath       string
	Targets     []string
}

// SortSearchParams sorts a resource's search parameters by code.
func (t *TypeDefn) SortSearchParams() {
	sort.Slice(t.SearchParams, func(i, j int) bool {
		return t.SearchParams[i].Code < t.SearchParams[j].Code
	})
}
