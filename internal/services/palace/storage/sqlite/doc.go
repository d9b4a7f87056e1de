// Package sqlite implements the credential store over a single SQLite file.
//
// Mutations are staged in memory and written in one transaction by Save, so
// a host decides exactly when an identifier becomes durable.
package sqlite
