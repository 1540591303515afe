package pascal

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/andrewkroh/go-fhir-delphi/definitions"
)

// ClassKind classifies a generated Pascal class.
type ClassKind int

const (
	ClassPrimitive ClassKind = iota
	ClassComplex
	ClassResource
	ClassBackbone
)

func (k ClassKind) String() string {
	switch k {
	case ClassPrimitive:
		return "primitive"
	case ClassComplex:
		return "complex"
	case ClassResource:
		return "resource"
	case ClassBackbone:
		return "backbone"
	}
	return "unknown"
}

// Classes provided by the runtime library (FHIRBase) or synthesized by the
// generator. They are valid parents and field types but are not produced
// from definitions.
const (
	classBase          = "TFHIRBase"
	classObjectList    = "TFHIRObjectList"
	classEnum          = "TFhirEnum"
	classEnumList      = "TFhirEnumList"
	classType          = "TFhirType"
	classPrimitiveType = "TFhirPrimitiveType"
	classReference     = "TFhirReference"
	classResource      = "TFhirResource"
)

// externalClasses live in the FHIRBase unit.
var externalClasses = map[string]bool{
	classBase:       true,
	classObjectList: true,
	classEnum:       true,
	classEnumList:   true,
}

// PasClass represents a Pascal class to be generated.
type PasClass struct {
	Name      string // Pascal class name, e.g. TFhirPatient
	FHIRName  string // FHIR type name, or element path for backbone classes
	Parent    string // Pascal parent class name
	Doc       string
	Kind      ClassKind
	Abstract  bool
	Fields    []*PasField
	ValueType string // Delphi value type for primitives
	Owner     string // FHIR type that declares this class
	Unit      string
}

// ListName returns the name of the list class generated for c.
func (c *PasClass) ListName() string {
	return c.Name + "List"
}

// IsRootPrimitive reports whether c is a primitive that declares its own
// value field rather than inheriting one.
func (c *PasClass) IsRootPrimitive() bool {
	return c.Kind == ClassPrimitive && c.Parent == classPrimitiveType
}

// FieldKind classifies how a field is stored and exposed.
type FieldKind int

const (
	FieldObject FieldKind = iota
	FieldPrimitive
	FieldEnum
)

// PasField represents a published property of a generated class.
type PasField struct {
	Name      string // property name, reserved words escaped
	FHIRName  string // element name
	Doc       string
	Kind      FieldKind
	Type      string // Pascal class of the stored element
	Enum      string // enumerated type for FieldEnum
	ValueType string // Delphi value type for FieldPrimitive
	List      bool
	Min       int
	Max       string
	Summary   bool
	Modifier  bool
}

// StorageName returns the Pascal instance variable name.
func (f *PasField) StorageName() string {
	name := "F" + capitalize(strings.TrimSuffix(f.Name, "_"))
	if f.List {
		name += "List"
	}
	return name
}

// AccessorName returns the capitalized stem used for getter and setter
// method names.
func (f *PasField) AccessorName() string {
	name := capitalize(strings.TrimSuffix(f.Name, "_"))
	if f.List {
		name += "List"
	}
	return name
}

// StorageType returns the Pascal type of the instance variable.
func (f *PasField) StorageType() string {
	if f.List {
		if f.Kind == FieldEnum {
			return classEnumList
		}
		return f.Type + "List"
	}
	return f.Type
}

// PasEnum represents a Pascal enumerated type generated for a required
// binding.
type PasEnum struct {
	Name     string // e.g. TFhirAdministrativeGenderEnum
	Prefix   string // constant prefix, e.g. AdministrativeGender
	ValueSet string // canonical URL
	Doc      string
	Values   []PasEnumValue // excludes the Null value
}

// PasEnumValue is a single enumerated constant.
type PasEnumValue struct {
	Name   string
	Code   string
	System string
	Doc    string
}

// ListName returns the name of the set type over e.
func (e *PasEnum) ListName() string {
	return e.Name + "List"
}

// NullName returns the constant used for "no value".
func (e *PasEnum) NullName() string {
	return e.Prefix + "Null"
}

// SetAllowed reports whether Delphi can declare a set over e. Sets are
// limited to 256 ordinal values, including the Null value.
func (e *PasEnum) SetAllowed() bool {
	return len(e.Values)+1 <= 256
}

// PasSearch holds the search parameter enumeration for one resource.
type PasSearch struct {
	Resource string // FHIR resource name
	Name     string // e.g. TSearchParamsPatient
	Params   []PasSearchParam
}

// PasSearchParam is a single search parameter constant.
type PasSearchParam struct {
	Name        string
	Code        string
	Type        string
	Description string
	Targets     []string
}

// Model is the complete set of Pascal declarations derived from a set of
// definitions.
type Model struct {
	Classes       []*PasClass
	Enums         []*PasEnum
	Searches      []*PasSearch
	ResourceTypes []string // concrete resources, sorted
}

// Class returns the class with the given Pascal name, or nil.
func (m *Model) Class(name string) *PasClass {
	for _, c := range m.Classes {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// ClassByFHIRName returns the class generated for a FHIR type name or
// backbone element path, or nil.
func (m *Model) ClassByFHIRName(fhirName string) *PasClass {
	for _, c := range m.Classes {
		if c.FHIRName == fhirName {
			return c
		}
	}
	return nil
}

// Enum returns the enumerated type with the given name, or nil.
func (m *Model) Enum(name string) *PasEnum {
	for _, e := range m.Enums {
		if e.Name == name {
			return e
		}
	}
	return nil
}

// TypeMapper converts loaded definitions into a Pascal [Model].
type TypeMapper struct {
	defs    *definitions.Definitions
	classes map[string]*PasClass // by FHIR name or backbone path
	enums   map[string]*PasEnum  // by value set URL
	names   map[string]string    // enum name → value set URL
}

// NewTypeMapper creates a TypeMapper for defs.
func NewTypeMapper(defs *definitions.Definitions) *TypeMapper {
	return &TypeMapper{
		defs:    defs,
		classes: make(map[string]*PasClass),
		enums:   make(map[string]*PasEnum),
		names:   make(map[string]string),
	}
}

// Map builds the model. Classes are created for every primitive, type and
// resource first so that content references can be resolved regardless of
// declaration order, then fields are mapped.
func (m *TypeMapper) Map() (*Model, error) {
	for _, name := range m.defs.PrimitiveNames() {
		m.addPrimitive(m.defs.Primitives[name])
	}
	if _, ok := m.defs.Types["Element"]; ok {
		m.addSynthetic()
	}
	for _, name := range m.defs.TypeNames() {
		m.addStructure(m.defs.Types[name], ClassComplex)
	}
	for _, name := range m.defs.ResourceNames() {
		m.addStructure(m.defs.Resources[name], ClassResource)
	}

	for _, t := range m.structures() {
		if t.Root == nil {
			continue
		}
		if err := m.mapFields(t.Name, t.Root); err != nil {
			return nil, fmt.Errorf("mapping %s: %w", t.Name, err)
		}
	}

	model := &Model{
		Searches:      m.searches(),
		ResourceTypes: m.resourceTypes(),
	}
	for _, c := range m.classes {
		model.Classes = append(model.Classes, c)
	}
	sort.Slice(model.Classes, func(i, j int) bool {
		return model.Classes[i].Name < model.Classes[j].Name
	})
	for _, e := range m.enums {
		model.Enums = append(model.Enums, e)
	}
	sort.Slice(model.Enums, func(i, j int) bool {
		return model.Enums[i].Name < model.Enums[j].Name
	})
	return model, nil
}

// structures returns types then resources, each sorted by name.
func (m *TypeMapper) structures() []*definitions.TypeDefn {
	var out []*definitions.TypeDefn
	for _, name := range m.defs.TypeNames() {
		out = append(out, m.defs.Types[name])
	}
	for _, name := range m.defs.ResourceNames() {
		out = append(out, m.defs.Resources[name])
	}
	return out
}

func (m *TypeMapper) addPrimitive(p *definitions.PrimitiveType) {
	parent := classPrimitiveType
	if p.Base != "" {
		parent = ClassName(p.Base)
	}
	m.classes[p.Name] = &PasClass{
		Name:      ClassName(p.Name),
		FHIRName:  p.Name,
		Parent:    parent,
		Doc:       p.Doc,
		Kind:      ClassPrimitive,
		ValueType: m.primitiveValueType(p.Name),
		Owner:     p.Name,
	}
}

// addSynthetic adds the abstract classes that group data types and
// primitives below TFhirElement.
func (m *TypeMapper) addSynthetic() {
	m.classes["#Type"] = &PasClass{
		Name:     classType,
		FHIRName: "Type",
		Parent:   ClassName("Element"),
		Doc:      "Base class for all data types.",
		Kind:     ClassComplex,
		Abstract: true,
		Owner:    "Type",
	}
	m.classes["#PrimitiveType"] = &PasClass{
		Name:     classPrimitiveType,
		FHIRName: "PrimitiveType",
		Parent:   classType,
		Doc:      "Base class for all primitive data types.",
		Kind:     ClassComplex,
		Abstract: true,
		Owner:    "PrimitiveType",
	}
}

func (m *TypeMapper) addStructure(t *definitions.TypeDefn, kind ClassKind) {
	m.classes[t.Name] = &PasClass{
		Name:     ClassName(t.Name),
		FHIRName: t.Name,
		Parent:   m.parentClass(t, kind),
		Doc:      t.Doc,
		Kind:     kind,
		Abstract: t.Abstract,
		Owner:    t.Name,
	}
	if t.Root == nil {
		return
	}
	for _, e := range t.AllElements() {
		if !e.IsBackbone() {
			continue
		}
		m.classes[e.Path] = &PasClass{
			Name:     BackboneClassName(e.Path),
			FHIRName: e.Path,
			Parent:   ClassName("BackboneElement"),
			Doc:      elementDoc(e),
			Kind:     ClassBackbone,
			Owner:    t.Name,
		}
	}
}

// parentClass returns the Pascal parent of a type or resource. Data types
// deriving directly from Element are grouped below TFhirType, except
// BackboneElement which stays a plain element.
func (m *TypeMapper) parentClass(t *definitions.TypeDefn, kind ClassKind) string {
	switch {
	case t.Base == "":
		return classBase
	case kind == ClassComplex && t.Base == "Element" && t.Name != "BackboneElement":
		if _, ok := m.defs.Types["Element"]; ok {
			return classType
		}
	}
	return ClassName(t.Base)
}

// primitiveValueType returns the Delphi type holding a primitive's value,
// following the primitive's base chain to its root.
func (m *TypeMapper) primitiveValueType(name string) string {
	seen := map[string]bool{}
	for {
		p, ok := m.defs.Primitives[name]
		if !ok || p.Base == "" || seen[name] {
			break
		}
		seen[name] = true
		name = p.Base
	}
	switch name {
	case "boolean":
		return "Boolean"
	case "date", "dateTime", "instant":
		return "TDateTimeEx"
	case "base64Binary":
		return "TBytes"
	default:
		return "String"
	}
}

// mapFields creates the fields of the class generated for parent and
// recurses into backbone children.
func (m *TypeMapper) mapFields(owner string, parent *definitions.ElementDefn) error {
	key := owner
	if parent.Path != owner {
		key = parent.Path
	}
	class, ok := m.classes[key]
	if !ok {
		return fmt.Errorf("no class for %s", key)
	}
	for _, e := range parent.Children {
		f, err := m.field(e)
		if err != nil {
			return err
		}
		class.Fields = append(class.Fields, f)
		if e.IsBackbone() {
			if err := m.mapFields(owner, e); err != nil {
				return err
			}
		}
	}
	return nil
}

func (m *TypeMapper) field(e *definitions.ElementDefn) (*PasField, error) {
	f := &PasField{
		Name:     PropertyName(e.Name),
		FHIRName: e.Name,
		Doc:      elementDoc(e),
		Kind:     FieldObject,
		List:     e.IsList(),
		Min:      e.Min,
		Max:      e.Max,
		Summary:  e.IsSummary,
		Modifier: e.IsModifier,
	}

	switch {
	case e.ContentReference != "":
		target, ok := m.classes[e.ContentReference]
		if !ok {
			return nil, fmt.Errorf("element %s: content reference %s does not name a backbone element", e.Path, e.ContentReference)
		}
		f.Type = target.Name
	case e.IsBackbone():
		f.Type = m.classes[e.Path].Name
	case e.IsChoice() || len(e.Types) > 1:
		f.Type = classType
	case len(e.Types) == 0:
		f.Type = ClassName("Element")
	default:
		code := e.Types[0].Code
		switch {
		case code == "Reference":
			f.Type = classReference
		case code == "Resource":
			f.Type = classResource
		default:
			f.Type = ClassName(code)
		}
		if p, ok := m.defs.Primitives[code]; ok {
			f.Kind = FieldPrimitive
			f.ValueType = m.primitiveValueType(p.Name)
			if e.Binding != nil && e.Binding.IsEnumerable(m.defs) {
				f.Kind = FieldEnum
				f.Type = classEnum
				f.ValueType = ""
				f.Enum = m.enum(e.Binding).Name
			}
		}
	}
	return f, nil
}

// enum returns the enumerated type for an enumerable binding, creating it
// on first use. Distinct value sets with the same name get a numeric
// suffix.
func (m *TypeMapper) enum(b *definitions.Binding) *PasEnum {
	vs := m.defs.ValueSet(b.ValueSet)
	if e, ok := m.enums[vs.URL]; ok {
		return e
	}

	base := b.Name
	if base == "" {
		base = vs.Name
	}
	if base == "" {
		base = vs.URL[strings.LastIndex(vs.URL, "/")+1:]
	}
	base = ToPascalName(base)
	name := "TFhir" + base + "Enum"
	for i := 2; ; i++ {
		if url, taken := m.names[name]; !taken || url == vs.URL {
			break
		}
		name = "TFhir" + base + strconv.Itoa(i) + "Enum"
	}
	m.names[name] = vs.URL

	e := &PasEnum{
		Name:     name,
		Prefix:   enumPrefix(name),
		ValueSet: vs.URL,
		Doc:      vs.Doc,
	}
	used := map[string]bool{strings.ToLower(e.NullName()): true}
	for i, c := range vs.Codes {
		constName := enumConstName(e.Prefix, c.Code)
		if constName == "" || used[strings.ToLower(constName)] {
			constName = e.Prefix + "Value" + strconv.Itoa(i+1)
		}
		used[strings.ToLower(constName)] = true
		doc := c.Definition
		if doc == "" {
			doc = c.Display
		}
		e.Values = append(e.Values, PasEnumValue{
			Name:   constName,
			Code:   c.Code,
			System: c.System,
			Doc:    doc,
		})
	}
	m.enums[vs.URL] = e
	return e
}

// searches builds one search parameter enumeration per resource. A
// resource inherits the parameters of its base resources; a parameter
// declared closer to the resource wins.
func (m *TypeMapper) searches() []*PasSearch {
	var out []*PasSearch
	for _, name := range m.defs.ResourceNames() {
		params := map[string]*definitions.SearchParameter{}
		seen := map[string]bool{}
		for r := m.defs.Resources[name]; r != nil && !seen[r.Name]; r = m.defs.Resources[r.Base] {
			seen[r.Name] = true
			for _, sp := range r.SearchParams {
				if _, ok := params[sp.Code]; !ok {
					params[sp.Code] = sp
				}
			}
		}
		if len(params) == 0 {
			continue
		}

		codes := make([]string, 0, len(params))
		for code := range params {
			codes = append(codes, code)
		}
		sort.Strings(codes)

		s := &PasSearch{Resource: name, Name: "TSearchParams" + name}
		for _, code := range codes {
			sp := params[code]
			s.Params = append(s.Params, PasSearchParam{
				Name:        searchParamConstName(name, code),
				Code:        code,
				Type:        sp.Type,
				Description: sp.Description,
				Targets:     sp.Targets,
			})
		}
		out = append(out, s)
	}
	return out
}

func (m *TypeMapper) resourceTypes() []string {
	var out []string
	for _, name := range m.defs.ResourceNames() {
		if !m.defs.Resources[name].Abstract {
			out = append(out, name)
		}
	}
	return out
}

// elementDoc prefers the element definition over its short description.
func elementDoc(e *definitions.ElementDefn) string {
	if e.Definition != "" {
		return e.Definition
	}
	return e.Short
}
