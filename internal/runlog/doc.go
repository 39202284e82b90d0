// Package runlog keeps a history of supervised runs in a local SQLite
// database, one row per Start, completed by the matching Stop.
package runlog
