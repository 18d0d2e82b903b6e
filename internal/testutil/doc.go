// Package testutil provides fixtures shared by package tests: a manual clock
// and a fluent builder that wires a store, catalog, ledger, tracker and engine
// the way the facade does.
//
// It is internal to keep test-only helpers out of the public API.
package testutil
