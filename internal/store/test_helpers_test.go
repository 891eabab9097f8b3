package store

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/roach88/dbgw/internal/scenario"
	"github.com/roach88/dbgw/internal/testutil"
)

// createTestStore creates a journal in a temp dir with deterministic IDs and clock.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	clock := testutil.NewDeterministicClock()
	ids := testutil.NewFixedIDGenerator("run")
	s, err := Open(path, WithClock(clock.Now), WithIDGenerator(ids.Generate))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func mustScenario(t *testing.T, doc string) *scenario.Scenario {
	t.Helper()
	sc, err := scenario.Parse(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("Parse() failed: %v", err)
	}
	return sc
}
