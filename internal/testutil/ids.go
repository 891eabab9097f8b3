package testutil

import "fmt"

// FixedIDGenerator hands out predictable run IDs: "run-0001", "run-0002", ...
//
// Used in place of UUIDv7 generation so journal rows and golden output are
// identical across test runs.
type FixedIDGenerator struct {
	prefix string
	n      int
}

// NewFixedIDGenerator creates a generator. An empty prefix defaults to "run".
func NewFixedIDGenerator(prefix string) *FixedIDGenerator {
	if prefix == "" {
		prefix = "run"
	}
	return &FixedIDGenerator{prefix: prefix}
}

// Generate returns the next ID.
func (g *FixedIDGenerator) Generate() string {
	g.n++
	return fmt.Sprintf("%s-%04d", g.prefix, g.n)
}
