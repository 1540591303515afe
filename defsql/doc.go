// Package defsql writes loaded FHIR definitions into a SQLite database so
// they can be queried and searched outside the generator.
//
// The primary entry point is [WriteDefinitions], which creates the tables
// and inserts a [definitions.Definitions] in one transaction. The
// [TableSchemas] function returns the CREATE TABLE statements, which carry
// inline comments describing each table and column so that the database
// file documents itself through sqlite_master.
//
// This package imports only [database/sql] and does not depend on any
// SQLite driver. The consumer must import a driver (e.g. modernc.org/sqlite)
// and pass a *sql.DB. The driver must support FTS5.
package defsql
