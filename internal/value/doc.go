// Package value provides typed, nullable parameter values bound to queries.
//
// A Value carries the declared type, the raw text it was read from, and a null
// flag. Numeric values are parsed when the Value is constructed, so a scenario
// with a malformed literal fails while loading rather than during execution.
//
// Parameters is the ordered, optionally named collection a tester binds to a
// query. Named entries are unique by name; positional entries are append-only.
package value
