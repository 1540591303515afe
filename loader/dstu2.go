package loader

import (
	"unicode"

	"github.com/andrewkroh/go-fhir-delphi/definitions"
)

// dstu2Format reads DSTU2 (FHIR 1.0.x) resources.
//
// In DSTU2 a StructureDefinition's kind is "datatype", "resource" or
// "logical"; primitives are the datatypes with a lowercase name. Profiles
// carry a constrainedType. Code systems are defined inline in value sets.
type dstu2Format struct{}

func (dstu2Format) dstu() int { return 2 }

func (dstu2Format) classify(sd *StructureDefinition) (structKind, bool) {
	if sd.ConstrainedType != "" {
		return 0, true
	}
	switch sd.Kind {
	case "resource":
		return structResource, false
	case "logical":
		return structLogical, false
	}
	name := structName(sd)
	if name != "" && unicode.IsLower([]rune(name)[0]) {
		return structPrimitive, false
	}
	return structComplex, false
}

func (dstu2Format) baseType(sd *StructureDefinition) string {
	if sd.Base == "" {
		return ""
	}
	return tail(sd.Base)
}

func (dstu2Format) typeRefs(ed *ElementDefinition) []definitions.TypeRef {
	refs := make([]definitions.TypeRef, 0, len(ed.Type))
	for i := range ed.Type {
		t := &ed.Type[i]
		code := t.Code
		if code == "" {
			code = implicitTypeCode(t)
		}
		ref := definitions.TypeRef{Code: code}
		for _, p := range t.Profile {
			ref.Profiles = append(ref.Profiles, tail(p))
		}
		refs = append(refs, ref)
	}
	return mergeTypeRefs(refs)
}

// contentReference resolves a DSTU2 nameReference, which names another
// element of the same structure by its element name.
func (dstu2Format) contentReference(ed *ElementDefinition, names map[string]string) string {
	if ed.NameReference == "" {
		return ""
	}
	return names[ed.NameReference]
}

func (dstu2Format) searchParameter(sp *SearchParameter) *definitions.SearchParameter {
	p := &definitions.SearchParameter{
		Code:        sp.Code,
		Type:        sp.Type,
		Description: sp.Description,
		XPath:       sp.XPath,
	}
	p.Targets = append(p.Targets, sp.Target...)
	return p
}

func (dstu2Format) valueSetCodes(reg *Registry, vs *ValueSet) []definitions.Code {
	seen := make(map[string]bool)
	var codes []definitions.Code

	if vs.CodeSystem != nil {
		codes = flattenConcepts(vs.CodeSystem.System, vs.CodeSystem.Concept, seen, codes)
	}

	if c := vs.Compose; c != nil {
		if len(c.Import) > 0 || len(c.Exclude) > 0 {
			return nil
		}
		for _, inc := range c.Include {
			if len(inc.Filter) > 0 {
				return nil
			}
			if len(inc.Concept) > 0 {
				codes = flattenConcepts(inc.System, inc.Concept, seen, codes)
				continue
			}
			cs := reg.InlineCodeSystem(inc.System)
			if cs == nil {
				return nil
			}
			codes = flattenConcepts(cs.System, cs.Concept, seen, codes)
		}
	}
	return codes
}
