package harness

import (
	"bytes"
	"context"
	"fmt"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/dbgw/internal/scenario"
)

// Transcript runs sc against d with both report streams captured into one
// buffer, in the order lines were written. The exit code is appended as a
// final "exit: N" line.
func Transcript(ctx context.Context, sc *scenario.Scenario, d Dispatcher) ([]byte, Summary, error) {
	var buf bytes.Buffer
	e := &Executor{Reporter: NewReporter(&buf, &buf)}
	summary, err := e.Run(ctx, sc, d)
	if err != nil {
		return nil, Summary{}, err
	}
	fmt.Fprintf(&buf, "exit: %d\n", summary.ExitCode)
	return buf.Bytes(), summary, nil
}

// RunWithGolden executes sc and compares the transcript against
// testdata/golden/{name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, name string, sc *scenario.Scenario, d Dispatcher) Summary {
	t.Helper()

	out, summary, err := Transcript(context.Background(), sc, d)
	if err != nil {
		t.Fatalf("executing scenario %s: %v", name, err)
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, out)
	return summary
}
