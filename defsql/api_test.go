package defsql_test

import (
	"context"
	"database/sql"
	"strings"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"github.com/andrewkroh/go-fhir-delphi/definitions"
	"github.com/andrewkroh/go-fhir-delphi/defsql"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatal(err)
	}
	// A single connection keeps every statement on the same in-memory database.
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	return db
}

func testDefinitions() *definitions.Definitions {
	defs := definitions.New()
	defs.Version = "3.0.1"
	defs.Revision = "11917"
	defs.GenDate = time.Date(2017, 4, 19, 7, 44, 43, 0, time.UTC)

	defs.Primitives["string"] = &definitions.PrimitiveType{Name: "string", Regex: `[ \r\n\t\S]+`}
	defs.Primitives["code"] = &definitions.PrimitiveType{Name: "code", Base: "string"}

	defs.Types["Element"] = &definitions.TypeDefn{
		Name:     "Element",
		Kind:     definitions.KindComplexType,
		Abstract: true,
		Root: &definitions.ElementDefn{Name: "Element", Path: "Element", Children: []*definitions.ElementDefn{
			{Name: "id", Path: "Element.id", Max: "1", Types: []definitions.TypeRef{{Code: "string"}}},
		}},
	}

	gender := &definitions.ElementDefn{
		Name:       "gender",
		Path:       "Patient.gender",
		Max:        "1",
		Types:      []definitions.TypeRef{{Code: "code"}},
		Short:      "male | female",
		Definition: "Administrative Gender. See [ValueSet](valueset.html).",
		IsSummary:  true,
		Binding: &definitions.Binding{
			Strength: definitions.BindingRequired,
			ValueSet: "http://hl7.org/fhir/ValueSet/administrative-gender",
		},
	}
	contact := &definitions.ElementDefn{
		Name:       "contact",
		Path:       "Patient.contact",
		Max:        "*",
		Definition: "A contact party for the patient.",
		Children: []*definitions.ElementDefn{
			{Name: "name", Path: "Patient.contact.name", Max: "1", Types: []definitions.TypeRef{{Code: "string"}}},
		},
	}
	gp := &definitions.ElementDefn{
		Name:  "generalPractitioner",
		Path:  "Patient.generalPractitioner",
		Max:   "*",
		Types: []definitions.TypeRef{{Code: "Reference", Profiles: []string{"Organization", "Practitioner"}}},
	}
	defs.Resources["Patient"] = &definitions.TypeDefn{
		Name: "Patient",
		Kind: definitions.KindResource,
		Doc:  "Demographics and other administrative information.",
		Root: &definitions.ElementDefn{Name: "Patient", Path: "Patient",
			Children: []*definitions.ElementDefn{gender, contact, gp}},
		SearchParams: []*definitions.SearchParameter{
			{Code: "gender", Type: definitions.SearchToken, Expression: "Patient.gender"},
			{Code: "general-practitioner", Type: definitions.SearchReference, Targets: []string{"Organization", "Practitioner"}},
		},
	}

	defs.ValueSets["http://hl7.org/fhir/ValueSet/administrative-gender"] = &definitions.ValueSet{
		URL:  "http://hl7.org/fhir/ValueSet/administrative-gender",
		Name: "AdministrativeGender",
		Codes: []definitions.Code{
			{Code: "male", System: "http://hl7.org/fhir/administrative-gender", Display: "Male"},
			{Code: "female", System: "http://hl7.org/fhir/administrative-gender", Display: "Female"},
			{Code: "unknown", System: "http://hl7.org/fhir/administrative-gender", Display: "Unknown", Definition: "Gender is not known."},
		},
	}
	defs.ValueSets["http://hl7.org/fhir/ValueSet/languages"] = &definitions.ValueSet{
		URL:  "http://hl7.org/fhir/ValueSet/languages",
		Name: "Languages",
	}
	return defs
}

func TestTableSchemas(t *testing.T) {
	schemas := defsql.TableSchemas()
	if len(schemas) == 0 {
		t.Fatal("expected at least one table schema")
	}
	for _, s := range schemas {
		if !strings.HasPrefix(s, "CREATE TABLE IF NOT EXISTS") {
			t.Errorf("expected CREATE TABLE prefix, got: %s", s[:50])
		}
		if !strings.Contains(s, "-- ") {
			t.Errorf("expected inline comments in schema: %s", s[:50])
		}
	}
}

func TestSqliteMasterPreservesComments(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	for _, ddl := range defsql.TableSchemas() {
		if _, err := db.ExecContext(ctx, ddl); err != nil {
			t.Fatalf("executing DDL: %v", err)
		}
	}

	rows, err := db.QueryContext(ctx, "SELECT name, sql FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name")
	if err != nil {
		t.Fatal(err)
	}
	defer rows.Close()

	count := 0
	for rows.Next() {
		var name, ddl string
		if err := rows.Scan(&name, &ddl); err != nil {
			t.Fatal(err)
		}
		count++
		if !strings.Contains(ddl, "-- ") {
			t.Errorf("table %s: expected comments in sqlite_master.sql", name)
		}
	}
	if err := rows.Err(); err != nil {
		t.Fatal(err)
	}
	if count != len(defsql.TableSchemas()) {
		t.Fatalf("expected %d tables, got %d", len(defsql.TableSchemas()), count)
	}
}

func TestWriteDefinitions(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	if err := defsql.WriteDefinitions(ctx, db, testDefinitions()); err != nil {
		t.Fatalf("writing definitions: %v", err)
	}

	var version, revision, genDate string
	err := db.QueryRowContext(ctx, "SELECT version, revision, gen_date FROM meta").Scan(&version, &revision, &genDate)
	if err != nil {
		t.Fatalf("querying meta: %v", err)
	}
	if version != "3.0.1" || revision != "11917" || genDate != "2017-04-19T07:44:43Z" {
		t.Errorf("got version=%s revision=%s gen_date=%s", version, revision, genDate)
	}

	counts := map[string]int{
		"types":         4, // string, code, Element, Patient
		"elements":      5, // Element.id, gender, contact, contact.name, generalPractitioner
		"element_types": 4,
		"search_params": 2,
		"value_sets":    2,
		"codes":         3,
	}
	for table, want := range counts {
		var got int
		if err := db.QueryRowContext(ctx, "SELECT count(*) FROM "+table).Scan(&got); err != nil {
			t.Fatalf("counting %s: %v", table, err)
		}
		if got != want {
			t.Errorf("%s: expected %d rows, got %d", table, want, got)
		}
	}

	var kind, base sql.NullString
	err = db.QueryRowContext(ctx, "SELECT kind, base FROM types WHERE name = 'code'").Scan(&kind, &base)
	if err != nil {
		t.Fatalf("querying primitive: %v", err)
	}
	if kind.String != "primitive-type" || base.String != "string" {
		t.Errorf("got kind=%v base=%v", kind, base)
	}

	var targets string
	err = db.QueryRowContext(ctx, `SELECT et.target_profiles FROM element_types et
JOIN elements e ON e.id = et.element_id WHERE e.path = 'Patient.generalPractitioner'`).Scan(&targets)
	if err != nil {
		t.Fatalf("querying element types: %v", err)
	}
	if targets != "Organization,Practitioner" {
		t.Errorf("got target_profiles=%s", targets)
	}

	var max string
	var ordinal int
	err = db.QueryRowContext(ctx, "SELECT max, ordinal FROM elements WHERE path = 'Patient.contact.name'").Scan(&max, &ordinal)
	if err != nil {
		t.Fatalf("querying element: %v", err)
	}
	if max != "1" || ordinal != 2 {
		t.Errorf("got max=%s ordinal=%d", max, ordinal)
	}

	var enumerated bool
	err = db.QueryRowContext(ctx, "SELECT enumerated FROM value_sets WHERE name = 'Languages'").Scan(&enumerated)
	if err != nil {
		t.Fatalf("querying value set: %v", err)
	}
	if enumerated {
		t.Error("expected Languages to be marked as not enumerated")
	}
}

func TestWriteDefinitionsSearch(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	if err := defsql.WriteDefinitions(ctx, db, testDefinitions()); err != nil {
		t.Fatalf("writing definitions: %v", err)
	}

	var path, text string
	err := db.QueryRowContext(ctx, `SELECT e.path, e.search_text FROM elements_fts
JOIN elements e ON e.id = elements_fts.rowid WHERE elements_fts MATCH 'administrative'`).Scan(&path, &text)
	if err != nil {
		t.Fatalf("searching elements: %v", err)
	}
	if path != "Patient.gender" {
		t.Errorf("expected Patient.gender, got %s", path)
	}
	if strings.Contains(text, "valueset.html") {
		t.Errorf("expected link targets stripped from search text: %q", text)
	}

	var code string
	err = db.QueryRowContext(ctx, `SELECT c.code FROM codes_fts
JOIN codes c ON c.id = codes_fts.rowid WHERE codes_fts MATCH 'known'`).Scan(&code)
	if err != nil {
		t.Fatalf("searching codes: %v", err)
	}
	if code != "unknown" {
		t.Errorf("expected unknown, got %s", code)
	}
}

func TestWriteDefinitionsTwice(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	if err := defsql.WriteDefinitions(ctx, db, testDefinitions()); err != nil {
		t.Fatalf("writing definitions: %v", err)
	}
	if err := defsql.WriteDefinitions(ctx, db, testDefinitions()); err == nil {
		t.Fatal("expected an error on duplicate type names")
	}

	var n int
	if err := db.QueryRowContext(ctx, "SELECT count(*) FROM meta").Scan(&n); err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("expected the failed write to roll back, got %d meta rows", n)
	}
}
