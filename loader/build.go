package loader

import (
	"fmt"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/andrewkroh/go-fhir-delphi/definitions"
)

// structKind classifies a StructureDefinition.
type structKind int

const (
	structPrimitive structKind = iota
	structComplex
	structResource
	structLogical
)

// format interprets release-specific resource shapes.
type format interface {
	dstu() int

	// classify returns the kind of a StructureDefinition. skip is true for
	// profiles (constraints on another definition).
	classify(sd *StructureDefinition) (kind structKind, skip bool)

	// baseType returns the name of the parent type, or "" at the root.
	baseType(sd *StructureDefinition) string

	// typeRefs converts an element's type list.
	typeRefs(ed *ElementDefinition) []definitions.TypeRef

	// contentReference returns the path of the element whose structure is
	// reused, or "". names maps DSTU2 element names to paths.
	contentReference(ed *ElementDefinition, names map[string]string) string

	// searchParameter converts a SearchParameter. The result's targets are
	// plain resource names.
	searchParameter(sp *SearchParameter) *definitions.SearchParameter

	// valueSetCodes enumerates a value set. It returns nil when the value
	// set cannot be fully enumerated from the loaded resources.
	valueSetCodes(reg *Registry, vs *ValueSet) []definitions.Code
}

const (
	extBindingName = "http://hl7.org/fhir/StructureDefinition/elementdefinition-bindingName"
	extRegex       = "http://hl7.org/fhir/StructureDefinition/regex"
	extJSONType    = "http://hl7.org/fhir/StructureDefinition/structuredefinition-json-type"
)

// builder populates a Definitions from the resources in a registry.
type builder struct {
	format      format
	reg         *Registry
	defs        *definitions.Definitions
	log         logrus.FieldLogger
	fhirVersion string // First fhirVersion seen on a StructureDefinition.
}

func (b *builder) addStructures() error {
	for _, e := range b.reg.Entries("StructureDefinition") {
		sd, err := Decode[StructureDefinition](e)
		if err != nil {
			return err
		}
		if b.fhirVersion == "" {
			b.fhirVersion = sd.FhirVersion
		}

		kind, skip := b.format.classify(sd)
		if skip {
			b.log.WithField("url", sd.URL).Debug("Skipping profile.")
			continue
		}

		switch kind {
		case structPrimitive:
			p, err := b.primitive(sd)
			if err != nil {
				return err
			}
			b.defs.Primitives[p.Name] = p
		default:
			t, err := b.typeDefn(sd, kind)
			if err != nil {
				return err
			}
			if kind == structResource {
				b.defs.Resources[t.Name] = t
			} else {
				b.defs.Types[t.Name] = t
			}
		}
	}
	return nil
}

// structName returns the type name defined by a StructureDefinition. The
// path of the first element is authoritative; the id is the fallback.
func structName(sd *StructureDefinition) string {
	if el := elementsOf(sd); len(el) > 0 {
		if p := el[0].Path; p != "" && !strings.Contains(p, ".") {
			return p
		}
	}
	if sd.Type != "" {
		return sd.Type
	}
	return sd.ID
}

// elementsOf returns the elements a definition declares itself, preferring
// the differential.
func elementsOf(sd *StructureDefinition) []ElementDefinition {
	if sd.Differential != nil && len(sd.Differential.Element) > 0 {
		return sd.Differential.Element
	}
	if sd.Snapshot != nil {
		return sd.Snapshot.Element
	}
	return nil
}

func (b *builder) primitive(sd *StructureDefinition) (*definitions.PrimitiveType, error) {
	name := structName(sd)
	if name == "" {
		return nil, fmt.Errorf("primitive %s has no name", sd.URL)
	}
	p := &definitions.PrimitiveType{
		Name: name,
		Base: b.format.baseType(sd),
		Doc:  strings.TrimSpace(sd.Description),
	}
	if p.Base == "Element" {
		p.Base = ""
	}
	for _, ed := range elementsOf(sd) {
		if p.Doc == "" && ed.Path == name {
			p.Doc = strings.TrimSpace(ed.Definition)
		}
		if r := findRegex(&ed); r != "" && p.Regex == "" {
			p.Regex = r
		}
	}
	return p, nil
}

// findRegex looks for the regex extension on an element and its types.
func findRegex(ed *ElementDefinition) string {
	exts := append([]Extension(nil), ed.Extension...)
	for _, t := range ed.Type {
		exts = append(exts, t.Extension...)
		if t.CodeExtension != nil {
			exts = append(exts, t.CodeExtension.Extension...)
		}
	}
	for _, ext := range exts {
		if ext.URL == extRegex {
			return ext.Value()
		}
	}
	return ""
}

func (b *builder) typeDefn(sd *StructureDefinition, kind structKind) (*definitions.TypeDefn, error) {
	name := structName(sd)
	t := &definitions.TypeDefn{
		Name:     name,
		Base:     b.format.baseType(sd),
		Abstract: sd.Abstract,
		Doc:      strings.TrimSpace(sd.Description),
	}
	switch kind {
	case structResource:
		t.Kind = definitions.KindResource
	case structLogical:
		t.Kind = definitions.KindLogical
	default:
		t.Kind = definitions.KindComplexType
	}

	root, err := b.buildTree(name, elementsOf(sd))
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", name, err)
	}
	t.Root = root
	if t.Doc == "" {
		t.Doc = root.Definition
	}
	return t, nil
}

// buildTree assembles the element tree from a flat, path-ordered element
// list. Every element's parent must appear before it.
func (b *builder) buildTree(typeName string, elements []ElementDefinition) (*definitions.ElementDefn, error) {
	byPath := make(map[string]*definitions.ElementDefn, len(elements))
	names := make(map[string]string)
	for _, ed := range elements {
		if ed.Name != "" {
			names[ed.Name] = ed.Path
		}
	}

	var root *definitions.ElementDefn
	for i := range elements {
		ed := &elements[i]
		if ed.Path == "" {
			return nil, fmt.Errorf("element %d has no path", i)
		}
		if ed.Path != typeName && !strings.HasPrefix(ed.Path, typeName+".") {
			return nil, fmt.Errorf("element %s is outside type %s", ed.Path, typeName)
		}

		el := b.element(ed, names)
		if _, dup := byPath[el.Path]; dup {
			// Sliced elements repeat a path; the first declaration defines it.
			continue
		}
		byPath[el.Path] = el

		if ed.Path == typeName {
			root = el
			continue
		}
		parentPath := ed.Path[:strings.LastIndex(ed.Path, ".")]
		parent, ok := byPath[parentPath]
		if !ok {
			return nil, fmt.Errorf("element %s: parent %s not found", ed.Path, parentPath)
		}
		parent.Children = append(parent.Children, el)
	}
	if root == nil {
		root = &definitions.ElementDefn{Name: typeName, Path: typeName, Max: "*"}
	}
	return root, nil
}

func (b *builder) element(ed *ElementDefinition, names map[string]string) *definitions.ElementDefn {
	segment := ed.Path
	if idx := strings.LastIndex(segment, "."); idx >= 0 {
		segment = segment[idx+1:]
	}
	el := &definitions.ElementDefn{
		Name:             strings.TrimSuffix(segment, "[x]"),
		Path:             strings.TrimSuffix(ed.Path, "[x]"),
		Choice:           strings.HasSuffix(segment, "[x]"),
		Min:              ed.Min,
		Max:              ed.Max,
		Types:            b.format.typeRefs(ed),
		Short:            strings.TrimSpace(ed.Short),
		Definition:       strings.TrimSpace(ed.Definition),
		ContentReference: b.format.contentReference(ed, names),
		IsModifier:       ed.IsModifier,
		IsSummary:        ed.IsSummary,
	}
	if el.Max == "" {
		el.Max = "1"
	}
	if ed.Binding != nil {
		el.Binding = convertBinding(ed.Binding)
	}
	return el
}

func convertBinding(eb *ElementBinding) *definitions.Binding {
	bd := &definitions.Binding{
		Strength:    eb.Strength,
		Description: strings.TrimSpace(eb.Description),
		ValueSet:    eb.ValueSetURI,
	}
	if eb.ValueSetReference != nil && eb.ValueSetReference.Reference != "" {
		bd.ValueSet = eb.ValueSetReference.Reference
	}
	for _, ext := range eb.Extension {
		if ext.URL == extBindingName {
			bd.Name = ext.Value()
		}
	}
	return bd
}

// mergeTypeRefs collapses repeated type codes into one TypeRef listing all
// of their profiles, keeping first-seen order.
func mergeTypeRefs(refs []definitions.TypeRef) []definitions.TypeRef {
	var out []definitions.TypeRef
	index := make(map[string]int)
	for _, r := range refs {
		if i, ok := index[r.Code]; ok {
			out[i].Profiles = append(out[i].Profiles, r.Profiles...)
			continue
		}
		index[r.Code] = len(out)
		out = append(out, r)
	}
	return out
}

// implicitTypeCode returns the type code for elements whose type is only
// given through extensions (e.g. Element.id in DSTU3).
func implicitTypeCode(t *ElementType) string {
	if t.CodeExtension != nil {
		for _, ext := range t.CodeExtension.Extension {
			if ext.URL == extJSONType && ext.Value() != "" {
				return ext.Value()
			}
		}
	}
	return "string"
}

func (b *builder) addSearchParameters() error {
	seen := make(map[string]bool)
	for _, e := range b.reg.Entries("SearchParameter") {
		key := e.URL
		if key == "" {
			key = e.ID
		}
		if seen[key] {
			continue
		}
		seen[key] = true

		sp, err := Decode[SearchParameter](e)
		if err != nil {
			return err
		}
		param := b.format.searchParameter(sp)
		for _, base := range sp.Base {
			res, ok := b.defs.Resources[base]
			if !ok {
				b.log.WithFields(logrus.Fields{"code": sp.Code, "base": base}).Debug("Search parameter base is not a resource.")
				continue
			}
			p := *param
			res.SearchParams = append(res.SearchParams, &p)
		}
	}
	for _, res := range b.defs.Resources {
		res.SortSearchParams()
	}
	return nil
}

// addValueSets resolves the value set of every binding and records the
// ones found in the loaded bundles.
func (b *builder) addValueSets() error {
	urls := make(map[string]struct{})
	for _, group := range []map[string]*definitions.TypeDefn{b.defs.Types, b.defs.Resources} {
		for _, t := range group {
			for _, el := range t.AllElements() {
				if el.Binding != nil && el.Binding.ValueSet != "" {
					url, _ := splitCanonical(el.Binding.ValueSet)
					urls[url] = struct{}{}
				}
			}
		}
	}

	sorted := make([]string, 0, len(urls))
	for u := range urls {
		sorted = append(sorted, u)
	}
	sort.Strings(sorted)

	for _, url := range sorted {
		e, err := b.reg.Resolve(url)
		if err != nil || e.ResourceType != "ValueSet" {
			b.log.WithField("url", url).Debug("Value set not found.")
			continue
		}
		vs, err := Decode[ValueSet](e)
		if err != nil {
			return err
		}
		b.defs.ValueSets[url] = &definitions.ValueSet{
			URL:   url,
			Name:  vs.Name,
			Doc:   strings.TrimSpace(vs.Description),
			Codes: b.format.valueSetCodes(b.reg, vs),
		}
	}
	return nil
}

// flattenConcepts returns the codes of a concept hierarchy in depth-first
// order, skipping abstract concepts and duplicate codes.
func flattenConcepts(system string, concepts []Concept, seen map[string]bool, out []definitions.Code) []definitions.Code {
	for _, c := range concepts {
		if !c.Abstract && c.Code != "" && !seen[c.Code] {
			seen[c.Code] = true
			out = append(out, definitions.Code{
				Code:       c.Code,
				System:     system,
				Display:    c.Display,
				Definition: strings.TrimSpace(c.Definition),
			})
		}
		out = flattenConcepts(system, c.Concept, seen, out)
	}
	return out
}
