package defsql

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/andrewkroh/go-fhir-delphi/definitions"
)

// WriteDefinitions creates tables (if not exist), inserts defs within a
// single transaction and rebuilds the full-text indexes. Calling it twice
// with the same database fails on the unique type names.
func WriteDefinitions(ctx context.Context, db *sql.DB, defs *definitions.Definitions) error {
	// Create all tables.
	for _, ddl := range Creates {
		if _, err := db.ExecContext(ctx, ddl); err != nil {
			return fmt.Errorf("creating tables: %w", err)
		}
	}
	for _, ddl := range ftsSchemas {
		if _, err := db.ExecContext(ctx, ddl); err != nil {
			return fmt.Errorf("creating search indexes: %w", err)
		}
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	q := newStmtCache(tx)
	defer q.close()

	if err := writeDefinitions(ctx, q, defs); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing: %w", err)
	}

	if err := RebuildFTS(ctx, db); err != nil {
		return fmt.Errorf("rebuilding search indexes: %w", err)
	}
	return nil
}

const (
	insertMeta = `INSERT INTO meta (version, revision, gen_date) VALUES (?, ?, ?)`
	insertType = `INSERT INTO types (name, kind, base, abstract, doc, regex) VALUES (?, ?, ?, ?, ?, ?)`

	insertElement = `INSERT INTO elements (type_id, path, name, ordinal, min, max, is_choice, is_modifier, is_summary,
  content_reference, binding_strength, binding_value_set, short, definition, search_text)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	insertElementType = `INSERT INTO element_types (element_id, code, target_profiles) VALUES (?, ?, ?)`

	insertSearchParam = `INSERT INTO search_params (type_id, code, type, description, expression, xpath, targets)
VALUES (?, ?, ?, ?, ?, ?, ?)`

	insertValueSet = `INSERT INTO value_sets (url, name, doc, enumerated) VALUES (?, ?, ?, ?)`
	insertCode     = `INSERT INTO codes (value_set_id, ordinal, code, system, display, definition) VALUES (?, ?, ?, ?, ?, ?)`
)

func writeDefinitions(ctx context.Context, q *stmtCache, defs *definitions.Definitions) error {
	var genDate sql.NullString
	if !defs.GenDate.IsZero() {
		genDate = sql.NullString{String: defs.GenDate.UTC().Format(time.RFC3339), Valid: true}
	}
	if _, err := q.insert(ctx, insertMeta, defs.Version, nullString(defs.Revision), genDate); err != nil {
		return fmt.Errorf("inserting meta: %w", err)
	}

	// Insert primitives.
	for _, name := range defs.PrimitiveNames() {
		p := defs.Primitives[name]
		_, err := q.insert(ctx, insertType, p.Name, "primitive-type", nullString(p.Base), false,
			nullString(p.Doc), nullString(p.Regex))
		if err != nil {
			return fmt.Errorf("inserting primitive %s: %w", name, err)
		}
	}

	// Insert types and resources.
	for _, name := range defs.TypeNames() {
		if err := writeType(ctx, q, defs.Types[name]); err != nil {
			return fmt.Errorf("type %s: %w", name, err)
		}
	}
	for _, name := range defs.ResourceNames() {
		if err := writeType(ctx, q, defs.Resources[name]); err != nil {
			return fmt.Errorf("resource %s: %w", name, err)
		}
	}

	// Insert value sets.
	for _, url := range defs.ValueSetURLs() {
		if err := writeValueSet(ctx, q, defs.ValueSets[url]); err != nil {
			return fmt.Errorf("value set %s: %w", url, err)
		}
	}
	return nil
}

func writeType(ctx context.Context, q *stmtCache, t *definitions.TypeDefn) error {
	typeID, err := q.insert(ctx, insertType, t.Name, t.Kind.String(), nullString(t.Base), t.Abstract,
		nullString(t.Doc), nil)
	if err != nil {
		return fmt.Errorf("inserting type: %w", err)
	}

	for i, e := range t.AllElements() {
		var strength, valueSet sql.NullString
		if e.Binding != nil {
			strength = nullString(e.Binding.Strength)
			valueSet = nullString(e.Binding.ValueSet)
		}
		max := e.Max
		if max == "" {
			max = "1"
		}
		elemID, err := q.insert(ctx, insertElement, typeID, e.Path, e.Name, i, e.Min, max,
			e.IsChoice(), e.IsModifier, e.IsSummary, nullString(e.ContentReference), strength, valueSet,
			nullString(e.Short), nullString(e.Definition), searchText(e.Short, e.Definition))
		if err != nil {
			return fmt.Errorf("inserting element %s: %w", e.Path, err)
		}

		for _, ref := range e.Types {
			_, err := q.insert(ctx, insertElementType, elemID, ref.Code, nullString(strings.Join(ref.Profiles, ",")))
			if err != nil {
				return fmt.Errorf("inserting type %s of element %s: %w", ref.Code, e.Path, err)
			}
		}
	}

	for _, sp := range t.SearchParams {
		_, err := q.insert(ctx, insertSearchParam, typeID, sp.Code, sp.Type, nullString(sp.Description),
			nullString(sp.Expression), nullString(sp.XPath), nullString(strings.Join(sp.Targets, ",")))
		if err != nil {
			return fmt.Errorf("inserting search parameter %s: %w", sp.Code, err)
		}
	}
	return nil
}

func writeValueSet(ctx context.Context, q *stmtCache, vs *definitions.ValueSet) error {
	vsID, err := q.insert(ctx, insertValueSet, vs.URL, nullString(vs.Name), nullString(vs.Doc), len(vs.Codes) > 0)
	if err != nil {
		return fmt.Errorf("inserting value set: %w", err)
	}
	for i, c := range vs.Codes {
		_, err := q.insert(ctx, insertCode, vsID, i, c.Code, nullString(c.System), nullString(c.Display),
			nullString(c.Definition))
		if err != nil {
			return fmt.Errorf("inserting code %s: %w", c.Code, err)
		}
	}
	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
