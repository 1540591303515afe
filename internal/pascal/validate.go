package pascal

import (
	"errors"
	"fmt"
	"strings"

	"go.uber.org/multierr"
)

var (
	ErrDuplicateClass    = errors.New("duplicate class name")
	ErrDuplicateConstant = errors.New("duplicate constant")
	ErrDuplicateProperty = errors.New("duplicate property")
	ErrReservedProperty  = errors.New("property name is a reserved word")
	ErrUnknownBase       = errors.New("unknown base class")
	ErrUnknownType       = errors.New("unknown type")
	ErrInheritanceCycle  = errors.New("inheritance cycle")
	ErrUnitOrder         = errors.New("unit order")
)

// validate checks the model for problems that would produce Pascal that
// does not compile. Every problem found is reported.
func validate(model *Model) error {
	var errs error

	// Pascal identifiers are case-insensitive.
	classes := map[string]*PasClass{}
	declared := map[string]string{} // lower name → declaring class
	for _, c := range model.Classes {
		for _, name := range []string{c.Name, c.ListName()} {
			key := strings.ToLower(name)
			if other, ok := declared[key]; ok {
				errs = multierr.Append(errs, fmt.Errorf("%w: %s declared by %s and %s",
					ErrDuplicateClass, name, other, c.FHIRName))
				continue
			}
			declared[key] = c.FHIRName
		}
		classes[c.Name] = c
	}

	enums := map[string]bool{}
	for _, e := range model.Enums {
		enums[e.Name] = true
	}

	unitOf := func(name string) (string, bool) {
		if externalClasses[name] {
			return UnitBase, true
		}
		if c, ok := classes[name]; ok {
			return c.Unit, true
		}
		return "", false
	}
	checkUnit := func(c *PasClass, dep string) {
		unit, ok := unitOf(dep)
		if !ok || unit == c.Unit || unitRank(unit) < unitRank(c.Unit) {
			return
		}
		errs = multierr.Append(errs, fmt.Errorf("%w: %s in %s depends on %s in %s",
			ErrUnitOrder, c.Name, c.Unit, dep, unit))
	}

	for _, c := range model.Classes {
		if _, ok := unitOf(c.Parent); !ok {
			errs = multierr.Append(errs, fmt.Errorf("%w: %s (parent of %s)", ErrUnknownBase, c.Parent, c.Name))
		} else {
			checkUnit(c, c.Parent)
		}

		props := map[string]bool{}
		if c.IsRootPrimitive() {
			props["value"] = true
		}
		for _, f := range c.Fields {
			for _, name := range propertyNames(f, model) {
				key := strings.ToLower(name)
				if props[key] {
					errs = multierr.Append(errs, fmt.Errorf("%w: %s.%s", ErrDuplicateProperty, c.Name, name))
				}
				props[key] = true
				if IsReserved(name) {
					errs = multierr.Append(errs, fmt.Errorf("%w: %s.%s", ErrReservedProperty, c.Name, name))
				}
			}

			if f.Kind == FieldEnum && !enums[f.Enum] {
				errs = multierr.Append(errs, fmt.Errorf("%w: enum %s (field %s.%s)", ErrUnknownType, f.Enum, c.Name, f.Name))
			}
			if _, ok := unitOf(f.Type); !ok {
				errs = multierr.Append(errs, fmt.Errorf("%w: %s (field %s.%s)", ErrUnknownType, f.Type, c.Name, f.Name))
				continue
			}
			checkUnit(c, f.Type)
		}
	}

	errs = multierr.Append(errs, checkCycles(classes))
	errs = multierr.Append(errs, checkConstants(model))
	return errs
}

// checkCycles walks each class's parent chain.
func checkCycles(classes map[string]*PasClass) error {
	var errs error
	for name := range classes {
		seen := map[string]bool{}
		for cur := name; ; {
			if seen[cur] {
				errs = multierr.Append(errs, fmt.Errorf("%w: %s", ErrInheritanceCycle, name))
				break
			}
			seen[cur] = true
			c, ok := classes[cur]
			if !ok {
				break
			}
			cur = c.Parent
		}
	}
	return errs
}

// checkConstants ensures enumerated constants are unique across
// FHIRConstants, which declares all of them in one scope.
func checkConstants(model *Model) error {
	var errs error
	owners := map[string]string{} // lower constant → declaring type
	add := func(constName, typeName string) {
		key := strings.ToLower(constName)
		if existing, ok := owners[key]; ok {
			errs = multierr.Append(errs, fmt.Errorf("%w: %s conflicts between %s and %s",
				ErrDuplicateConstant, constName, existing, typeName))
			return
		}
		owners[key] = typeName
	}

	add("frtNull", "TFhirResourceType")
	for _, r := range model.ResourceTypes {
		add(resourceTypeConstName(r), "TFhirResourceType")
	}
	add("frtCustom", "TFhirResourceType")
	for _, s := range model.Searches {
		for _, p := range s.Params {
			add(p.Name, s.Name)
		}
	}
	for _, e := range model.Enums {
		add(e.NullName(), e.Name)
		for _, v := range e.Values {
			add(v.Name, e.Name)
		}
	}
	return errs
}
