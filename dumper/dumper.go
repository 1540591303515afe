// Package dumper renders a loaded [definitions.Definitions] as an indented
// plain-text listing. The dump is an intermediate artifact written before
// code generation so that the loaded model can be inspected and diffed
// between specification builds.
package dumper

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/andrewkroh/go-fhir-delphi/definitions"
)

// DumpDefinitions returns the text dump of defs. The output is
// deterministic: every section is sorted by name.
func DumpDefinitions(defs *definitions.Definitions) string {
	var b strings.Builder

	fmt.Fprintf(&b, "FHIR Definitions v%s", defs.Version)
	if defs.Revision != "" {
		fmt.Fprintf(&b, " (rev %s)", defs.Revision)
	}
	if !defs.GenDate.IsZero() {
		fmt.Fprintf(&b, " generated %s", defs.GenDate.UTC().Format(time.RFC3339))
	}
	b.WriteString("\n")

	b.WriteString("\nPrimitives\n")
	for _, name := range defs.PrimitiveNames() {
		p := defs.Primitives[name]
		b.WriteString("  " + p.Name)
		if p.Base != "" {
			b.WriteString(" : " + p.Base)
		}
		if p.Regex != "" {
			fmt.Fprintf(&b, " /%s/", p.Regex)
		}
		b.WriteString("\n")
	}

	b.WriteString("\nTypes\n")
	for _, name := range defs.TypeNames() {
		dumpType(&b, defs.Types[name])
	}

	b.WriteString("\nResources\n")
	for _, name := range defs.ResourceNames() {
		t := defs.Resources[name]
		dumpType(&b, t)
		if len(t.SearchParams) > 0 {
			b.WriteString("    search\n")
			for _, sp := range t.SearchParams {
				fmt.Fprintf(&b, "      %s %s", sp.Code, sp.Type)
				if len(sp.Targets) > 0 {
					fmt.Fprintf(&b, " -> %s", strings.Join(sp.Targets, "|"))
				}
				b.WriteString("\n")
			}
		}
	}

	b.WriteString("\nValueSets\n")
	for _, url := range defs.ValueSetURLs() {
		vs := defs.ValueSets[url]
		if len(vs.Codes) == 0 {
			fmt.Fprintf(&b, "  %s: 0 codes (not enumerated)\n", url)
			continue
		}
		codes := make([]string, 0, len(vs.Codes))
		for _, c := range vs.Codes {
			codes = append(codes, c.Code)
		}
		fmt.Fprintf(&b, "  %s: %d codes [%s]\n", url, len(codes), strings.Join(codes, ", "))
	}

	return b.String()
}

func dumpType(b *strings.Builder, t *definitions.TypeDefn) {
	b.WriteString("  " + t.Name)
	if t.Base != "" {
		b.WriteString(" : " + t.Base)
	}
	if t.Abstract {
		b.WriteString(" (abstract)")
	}
	if t.Kind == definitions.KindLogical {
		b.WriteString(" (logical)")
	}
	b.WriteString("\n")
	if t.Root != nil {
		for _, c := range t.Root.Children {
			dumpElement(b, c, 2)
		}
	}
}

func dumpElement(b *strings.Builder, e *definitions.ElementDefn, depth int) {
	b.WriteString(strings.Repeat("  ", depth))
	name := e.Name
	if e.IsChoice() {
		name += "[x]"
	}
	fmt.Fprintf(b, "%s %s", name, e.Cardinality())

	switch {
	case e.ContentReference != "":
		fmt.Fprintf(b, " see %s", e.ContentReference)
	case len(e.Types) > 0:
		refs := make([]string, 0, len(e.Types))
		for _, t := range e.Types {
			refs = append(refs, t.String())
		}
		b.WriteString(" " + strings.Join(refs, "|"))
	}

	var flags []string
	if e.IsModifier {
		flags = append(flags, "modifier")
	}
	if e.IsSummary {
		flags = append(flags, "summary")
	}
	if len(flags) > 0 {
		fmt.Fprintf(b, " [%s]", strings.Join(flags, ","))
	}
	if e.Binding != nil {
		fmt.Fprintf(b, " {%s: %s}", e.Binding.Strength, e.Binding.ValueSet)
	}
	b.WriteString("\n")

	for _, c := range e.Children {
		dumpElement(b, c, depth+1)
	}
}

// WriteFile writes the dump of defs to path, creating parent directories
// as needed.
func WriteFile(path string, defs *definitions.Definitions) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating dump directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(DumpDefinitions(defs)), 0o644); err != nil {
		return fmt.Errorf("writing dump: %w", err)
	}
	return nil
}
