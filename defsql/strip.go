package defsql

import (
	"regexp"
	"strings"
)

var (
	markdownLink  = regexp.MustCompile(`\[([^\]]*)\]\([^)]*\)`)
	markdownMarks = strings.NewReplacer("**", "", "__", "", "`", "")
)

// searchText reduces FHIR markdown to the prose worth indexing.
//
// Element definitions frequently embed fenced examples (XML, JSON) and
// markdown tables of codes. These add tokens such as "value" or "system"
// to nearly every document and drown out the prose, so they are removed.
// The function:
//
//  1. Drops fenced code blocks, including the fences.
//  2. Drops markdown tables: contiguous lines starting with "|".
//  3. Keeps only the text of [text](url) links.
//  4. Removes bold markers and backticks.
//
// Runs of blank lines left behind collapse to one.
func searchText(parts ...string) string {
	var out []string
	for _, p := range parts {
		if s := stripMarkdown(p); s != "" {
			out = append(out, s)
		}
	}
	return strings.Join(out, "\n\n")
}

func stripMarkdown(content string) string {
	lines := strings.Split(content, "\n")
	out := make([]string, 0, len(lines))

	i := 0
	for i < len(lines) {
		trimmed := strings.TrimSpace(lines[i])

		switch {
		case strings.HasPrefix(trimmed, "```"):
			i = skipFencedBlock(lines, i)
			continue
		case strings.HasPrefix(trimmed, "|"):
			i = skipTable(lines, i)
			continue
		}

		line := markdownLink.ReplaceAllString(lines[i], "$1")
		line = strings.TrimRight(markdownMarks.Replace(line), " \t")

		// Collapse runs of blank lines.
		if line == "" && (len(out) == 0 || out[len(out)-1] == "") {
			i++
			continue
		}
		out = append(out, line)
		i++
	}

	return strings.TrimSpace(strings.Join(out, "\n"))
}

// skipTable advances past a markdown table starting at lines[start]. It
// skips all contiguous rows that start with "|". Returns the index of the
// first line after the table.
func skipTable(lines []string, start int) int {
	i := start
	for i < len(lines) {
		trimmed := strings.TrimSpace(lines[i])
		if trimmed == "" || !strings.HasPrefix(trimmed, "|") {
			break
		}
		i++
	}
	return i
}

// skipFencedBlock advances past a fenced code block starting at lines[start]
// (the opening ``` line). Returns the index of the first line after the
// closing ```.
func skipFencedBlock(lines []string, start int) int {
	i := start + 1 // skip opening fence
	for i < len(lines) {
		if strings.TrimSpace(lines[i]) == "```" {
			return i + 1 // skip closing fence
		}
		i++
	}
	// No closing fence found; skip to end.
	return i
}
