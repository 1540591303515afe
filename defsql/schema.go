package defsql

const metaTable = `CREATE TABLE IF NOT EXISTS meta (
  -- One row describing the specification build the definitions came from.
  id INTEGER PRIMARY KEY,
  version TEXT NOT NULL, -- FHIR version, e.g. 3.0.1
  revision TEXT, -- build revision from version.info
  gen_date TEXT -- generation date, RFC 3339
)`

const typesTable = `CREATE TABLE IF NOT EXISTS types (
  -- Primitives, complex data types and resources.
  id INTEGER PRIMARY KEY,
  name TEXT NOT NULL UNIQUE, -- FHIR type name, e.g. Patient
  kind TEXT NOT NULL, -- primitive-type, complex-type, resource or logical
  base TEXT, -- name of the parent type, NULL at the root
  abstract INTEGER NOT NULL DEFAULT 0, -- 1 when the type cannot be instantiated
  doc TEXT, -- definition of the type
  regex TEXT -- value pattern, primitives only
)`

const elementsTable = `CREATE TABLE IF NOT EXISTS elements (
  -- Elements of complex types and resources in depth-first source order.
  id INTEGER PRIMARY KEY,
  type_id INTEGER NOT NULL REFERENCES types(id), -- declaring type
  path TEXT NOT NULL, -- full element path, e.g. Patient.contact.name
  name TEXT NOT NULL, -- last path segment without [x]
  ordinal INTEGER NOT NULL, -- position within the declaring type
  min INTEGER NOT NULL, -- minimum cardinality
  max TEXT NOT NULL, -- maximum cardinality, a number or *
  is_choice INTEGER NOT NULL DEFAULT 0, -- 1 when declared as name[x]
  is_modifier INTEGER NOT NULL DEFAULT 0, -- 1 when the element changes the meaning of others
  is_summary INTEGER NOT NULL DEFAULT 0, -- 1 when included in summary views
  content_reference TEXT, -- path of the element whose structure is reused
  binding_strength TEXT, -- required, extensible, preferred or example
  binding_value_set TEXT, -- canonical URL of the bound value set
  short TEXT, -- short label
  definition TEXT, -- full definition, markdown
  search_text TEXT -- short and definition as plain text, indexed by elements_fts
)`

const elementTypesTable = `CREATE TABLE IF NOT EXISTS element_types (
  -- Allowed types of an element. Choice elements have several rows.
  id INTEGER PRIMARY KEY,
  element_id INTEGER NOT NULL REFERENCES elements(id),
  code TEXT NOT NULL, -- type code, e.g. Reference
  target_profiles TEXT -- comma separated target resources for Reference
)`

const searchParamsTable = `CREATE TABLE IF NOT EXISTS search_params (
  -- Search parameters declared for a resource.
  id INTEGER PRIMARY KEY,
  type_id INTEGER NOT NULL REFERENCES types(id), -- resource the parameter applies to
  code TEXT NOT NULL, -- parameter name used in queries
  type TEXT NOT NULL, -- number, date, string, token, reference, composite, quantity or uri
  description TEXT,
  expression TEXT, -- FHIRPath expression
  xpath TEXT, -- XPath expression
  targets TEXT -- comma separated target resources for reference parameters
)`

const valueSetsTable = `CREATE TABLE IF NOT EXISTS value_sets (
  -- Value sets referenced by element bindings.
  id INTEGER PRIMARY KEY,
  url TEXT NOT NULL UNIQUE, -- canonical URL
  name TEXT,
  doc TEXT,
  enumerated INTEGER NOT NULL DEFAULT 0 -- 1 when the codes below are the complete set
)`

const codesTable = `CREATE TABLE IF NOT EXISTS codes (
  -- Codes of enumerated value sets.
  id INTEGER PRIMARY KEY,
  value_set_id INTEGER NOT NULL REFERENCES value_sets(id),
  ordinal INTEGER NOT NULL, -- position within the value set
  code TEXT NOT NULL,
  system TEXT, -- code system URL
  display TEXT,
  definition TEXT
)`

// Creates holds the CREATE TABLE statements in dependency order.
var Creates = []string{
	metaTable,
	typesTable,
	elementsTable,
	elementTypesTable,
	searchParamsTable,
	valueSetsTable,
	codesTable,
}

// TableSchemas returns the CREATE TABLE statements for all tables in
// dependency order. The statements include table and column comments
// inside the body, which are preserved in sqlite_master when the tables
// are created.
func TableSchemas() []string {
	return Creates
}
