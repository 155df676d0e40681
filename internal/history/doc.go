// Package history implements the append-only dedup ledger that prevents a
// source or file from being published twice.
package history
