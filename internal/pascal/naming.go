package pascal

import (
	"strings"
	"unicode"
)

// reservedWords holds Delphi reserved words and directives, plus the names
// of TFHIRBase methods that a generated property must not hide. Keys are
// lowercase because Pascal identifiers are case-insensitive. A property
// whose name matches gets a trailing underscore (e.g. "type" → "type_").
var reservedWords = map[string]bool{
	"and": true, "array": true, "as": true, "asm": true, "begin": true,
	"case": true, "class": true, "const": true, "constructor": true,
	"destructor": true, "dispinterface": true, "div": true, "do": true,
	"downto": true, "else": true, "end": true, "except": true, "exports": true,
	"file": true, "finalization": true, "finally": true, "for": true,
	"function": true, "goto": true, "if": true, "implementation": true,
	"in": true, "inherited": true, "initialization": true, "inline": true,
	"interface": true, "is": true, "label": true, "library": true, "mod": true,
	"nil": true, "not": true, "object": true, "of": true, "or": true,
	"out": true, "packed": true, "procedure": true, "program": true,
	"property": true, "raise": true, "record": true, "repeat": true,
	"resourcestring": true, "set": true, "shl": true, "shr": true,
	"string": true, "then": true, "threadvar": true, "to": true, "try": true,
	"type": true, "unit": true, "until": true, "uses": true, "var": true,
	"while": true, "with": true, "xor": true,

	// Directives that cannot be used as published property names.
	"private": true, "protected": true, "public": true, "published": true,
	"automated": true, "strict": true, "operator": true, "on": true,

	// TFHIRBase members.
	"link": true, "clone": true, "assign": true, "create": true,
	"destroy": true, "free": true, "fhirtype": true, "equals": true,
	"count": true,
}

// symbolNames maps codes made only of symbols to identifier words.
var symbolNames = map[string]string{
	"<":  "LessThan",
	"<=": "LessOrEqual",
	">":  "GreaterThan",
	">=": "GreaterOrEqual",
	"=":  "Equal",
	"!=": "NotEqual",
	"*":  "Asterisk",
	"+":  "Plus",
	"-":  "Minus",
	"/":  "Slash",
	"%":  "Percent",
}

// IsReserved reports whether name cannot be used as a property name.
func IsReserved(name string) bool {
	return reservedWords[strings.ToLower(name)]
}

// PropertyName converts an element name into a Pascal property name. FHIR
// element names are already camelCase; only reserved words change.
func PropertyName(elementName string) string {
	if IsReserved(elementName) {
		return elementName + "_"
	}
	return elementName
}

// ClassName returns the Pascal class name for a FHIR type name
// (e.g. "Patient" → "TFhirPatient", "dateTime" → "TFhirDateTime").
func ClassName(fhirName string) string {
	return "TFhir" + capitalize(fhirName)
}

// BackboneClassName returns the class name for a backbone element path.
// Every segment after the first is capitalized
// (e.g. "Questionnaire.item.enableWhen" → "TFhirQuestionnaireItemEnableWhen").
func BackboneClassName(path string) string {
	var b strings.Builder
	b.WriteString("TFhir")
	for _, seg := range strings.Split(path, ".") {
		b.WriteString(capitalize(seg))
	}
	return b.String()
}

// ToPascalName converts an arbitrary name (value set name, code) into a
// capitalized identifier. It handles snake_case, kebab-case, dotted,
// spaced and camelCase input, dropping every character that is not a
// letter or digit.
func ToPascalName(name string) string {
	if sym, ok := symbolNames[name]; ok {
		return sym
	}
	var b strings.Builder
	for _, w := range splitWords(name) {
		b.WriteString(capitalize(w))
	}
	return b.String()
}

// splitWords breaks a name into its component words. Any rune that is not
// a letter or digit separates words, as do lower-to-upper case transitions
// and the end of an uppercase run ("URLParser" → "URL", "Parser").
func splitWords(s string) []string {
	var words []string
	var current strings.Builder

	flush := func() {
		if current.Len() > 0 {
			words = append(words, current.String())
			current.Reset()
		}
	}

	runes := []rune(s)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		switch {
		case !unicode.IsLetter(r) && !unicode.IsDigit(r):
			flush()
		case unicode.IsUpper(r):
			if current.Len() > 0 && i > 0 && (unicode.IsLower(runes[i-1]) || unicode.IsDigit(runes[i-1])) {
				flush()
			} else if current.Len() > 1 && i+1 < len(runes) && unicode.IsLower(runes[i+1]) {
				// Uppercase run followed by a lowercase letter: this rune
				// starts the next word.
				flush()
			}
			current.WriteRune(r)
		default:
			current.WriteRune(r)
		}
	}
	flush()
	return words
}

// capitalize uppercases the first rune and keeps the rest as-is, so
// acronyms and camelCase tails survive.
func capitalize(s string) string {
	if s == "" {
		return s
	}
	runes := []rune(s)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}

// enumPrefix derives the constant prefix for an enum type name
// ("TFhirAdministrativeGenderEnum" → "AdministrativeGender").
func enumPrefix(enumName string) string {
	return strings.TrimSuffix(strings.TrimPrefix(enumName, "TFhir"), "Enum")
}

// enumConstName generates the Pascal constant name for a code.
func enumConstName(prefix, code string) string {
	name := ToPascalName(code)
	if name == "" {
		return ""
	}
	return prefix + name
}

// searchParamConstName generates the constant for a search parameter code
// (e.g. ("Patient", "_id") → "spPatient__id",
// ("Patient", "address-city") → "spPatient_address_city").
func searchParamConstName(resource, code string) string {
	cleaned := strings.Map(func(r rune) rune {
		if r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}
		return '_'
	}, code)
	return "sp" + resource + "_" + cleaned
}

// resourceTypeConstName returns the TFhirResourceType constant for a
// resource ("Patient" → "frtPatient").
func resourceTypeConstName(resource string) string {
	return "frt" + resource
}
