// Package sqlite provides SQLite-backed implementations of the session and
// case stores.
//
// Histories, rounds and tag selections are stored as JSON columns. Case
// edits run in immediate transactions, so concurrent edits to one case are
// applied one after another.
package sqlite
