package pascal

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var markdownLink = regexp.MustCompile(`\[([^\]]*)\]\([^)]*\)`)

// sanitizeDoc makes FHIR markdown safe to place inside a Pascal { }
// comment. Braces are replaced with parentheses, markdown links keep only
// their text, and whitespace is collapsed to single spaces.
func sanitizeDoc(s string) string {
	s = markdownLink.ReplaceAllString(s, "$1")
	s = strings.NewReplacer("{", "(", "}", ")").Replace(s)
	return strings.Join(strings.Fields(s), " ")
}

// wrapDoc sanitizes s and wraps it to lines of at most width runes. Words
// longer than width are kept whole.
func wrapDoc(s string, width int) []string {
	words := strings.Fields(sanitizeDoc(s))
	if len(words) == 0 {
		return nil
	}
	var lines []string
	var cur strings.Builder
	n := 0 // runes in cur
	for _, w := range words {
		wn := utf8.RuneCountInString(w)
		if n > 0 && n+1+wn > width {
			lines = append(lines, cur.String())
			cur.Reset()
			n = 0
		}
		if n > 0 {
			cur.WriteByte(' ')
			n++
		}
		cur.WriteString(w)
		n += wn
	}
	lines = append(lines, cur.String())
	return lines
}

// maxLiteral is the longest run of characters Delphi accepts in a single
// string literal.
const maxLiteral = 255

// quote returns s as a Pascal string expression. Text longer than
// maxLiteral is split into concatenated literals.
func quote(s string) string {
	runes := []rune(sanitizeLiteral(s))
	if len(runes) <= maxLiteral {
		return "'" + strings.ReplaceAll(string(runes), "'", "''") + "'"
	}
	var parts []string
	for len(runes) > 0 {
		n := min(len(runes), maxLiteral)
		parts = append(parts, "'"+strings.ReplaceAll(string(runes[:n]), "'", "''")+"'")
		runes = runes[n:]
	}
	return strings.Join(parts, " + ")
}

// sanitizeLiteral flattens line breaks, which Pascal string literals
// cannot contain.
func sanitizeLiteral(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
