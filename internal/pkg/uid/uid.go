// Package uid provides identifier generators behind small interfaces so
// business logic never calls a concrete generator directly.
package uid

// StringID generates opaque string identifiers (UUIDs, token IDs).
type StringID interface {
	Generate() string
}

// NumberID generates sortable numeric identifiers for primary keys.
type NumberID interface {
	Generate() int64
}
