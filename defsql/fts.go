package defsql

import (
	"context"
	"database/sql"
)

// elementsFTS is the FTS5 virtual table for full-text search over element
// paths and their plain-text descriptions. Uses external content mode:
// reads content from the elements table, stores only the inverted index.
// After bulk inserts, rebuild with:
//
//	INSERT INTO elements_fts(elements_fts) VALUES('rebuild')
const elementsFTS = `CREATE VIRTUAL TABLE IF NOT EXISTS elements_fts USING fts5(
  path,
  search_text,
  content=elements,
  content_rowid=id,
  tokenize='porter unicode61'
)`

// codesFTS indexes code displays and definitions so that a value set can
// be found by the meaning of its codes.
const codesFTS = `CREATE VIRTUAL TABLE IF NOT EXISTS codes_fts USING fts5(
  code,
  display,
  definition,
  content=codes,
  content_rowid=id,
  tokenize='porter unicode61'
)`

var ftsSchemas = []string{elementsFTS, codesFTS}

// RebuildFTS rebuilds all FTS5 full-text search indexes. WriteDefinitions
// calls this automatically after the transaction commits.
func RebuildFTS(ctx context.Context, db *sql.DB) error {
	for _, stmt := range []string{
		"INSERT INTO elements_fts(elements_fts) VALUES('rebuild')",
		"INSERT INTO codes_fts(codes_fts) VALUES('rebuild')",
	} {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
