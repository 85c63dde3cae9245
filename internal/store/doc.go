// Package store persists sessions, question mappings, rosters, and graded
// results in SQLite. The database is the durable record that joins a
// generated package to the responses imported for it later.
package store
