package loader

import (
	"github.com/andrewkroh/go-fhir-delphi/definitions"
)

// dstu3Format reads DSTU3 (FHIR 3.0.x) resources.
//
// In DSTU3 the kind distinguishes primitive-type and complex-type, profiles
// have derivation "constraint", references list one targetProfile per type
// entry, and code systems are separate CodeSystem resources.
type dstu3Format struct{}

func (dstu3Format) dstu() int { return 3 }

func (dstu3Format) classify(sd *StructureDefinition) (structKind, bool) {
	if sd.Derivation == "constraint" {
		return 0, true
	}
	switch sd.Kind {
	case "primitive-type":
		return structPrimitive, false
	case "resource":
		return structResource, false
	case "logical":
		return structLogical, false
	default:
		return structComplex, false
	}
}

func (dstu3Format) baseType(sd *StructureDefinition) string {
	if sd.BaseDefinition == "" {
		return ""
	}
	return tail(sd.BaseDefinition)
}

func (dstu3Format) typeRefs(ed *ElementDefinition) []definitions.TypeRef {
	refs := make([]definitions.TypeRef, 0, len(ed.Type))
	for i := range ed.Type {
		t := &ed.Type[i]
		code := t.Code
		if code == "" {
			code = implicitTypeCode(t)
		}
		ref := definitions.TypeRef{Code: code}
		if t.TargetProfile != "" {
			ref.Profiles = append(ref.Profiles, tail(t.TargetProfile))
		}
		refs = append(refs, ref)
	}
	return mergeTypeRefs(refs)
}

// contentReference strips the leading '#' of a DSTU3 contentReference.
func (dstu3Format) contentReference(ed *ElementDefinition, _ map[string]string) string {
	if len(ed.ContentReference) > 1 && ed.ContentReference[0] == '#' {
		return ed.ContentReference[1:]
	}
	return ed.ContentReference
}

func (dstu3Format) searchParameter(sp *SearchParameter) *definitions.SearchParameter {
	p := &definitions.SearchParameter{
		Code:        sp.Code,
		Type:        sp.Type,
		Description: sp.Description,
		Expression:  sp.Expression,
		XPath:       sp.XPath,
	}
	p.Targets = append(p.Targets, sp.Target...)
	return p
}

func (dstu3Format) valueSetCodes(reg *Registry, vs *ValueSet) []definitions.Code {
	c := vs.Compose
	if c == nil || len(c.Exclude) > 0 {
		return nil
	}

	seen := make(map[string]bool)
	var codes []definitions.Code
	for _, inc := range c.Include {
		if len(inc.Filter) > 0 || len(inc.ValueSet) > 0 {
			return nil
		}
		if len(inc.Concept) > 0 {
			codes = flattenConcepts(inc.System, inc.Concept, seen, codes)
			continue
		}
		if inc.System == "" {
			return nil
		}
		e, err := reg.Resolve(inc.System)
		if err != nil || e.ResourceType != "CodeSystem" {
			return nil
		}
		cs, err := Decode[CodeSystem](e)
		if err != nil || (cs.Content != "" && cs.Content != "complete") {
			return nil
		}
		codes = flattenConcepts(cs.URL, cs.Concept, seen, codes)
	}
	return codes
}
