// Package history records pipeline runs in a small SQLite database so the CLI
// can list past runs.
//
// The Store is fed by pipeline events through Observer and never drives the
// pipeline itself. A run row is inserted when media is selected and updated as
// stages complete, fail, or the run is reset. Schema changes bump the version
// in schema.go; users clear the database to adopt the new schema.
package history
