package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/dbgw/internal/client"
	"github.com/roach88/dbgw/internal/scenario"
)

// ErrAlreadyExecuted is returned when a scenario is run a second time.
var ErrAlreadyExecuted = errors.New("scenario has already been executed")

// Executor runs scenarios against a Dispatcher.
//
// All fields are optional: a nil Reporter discards the console report, a
// nil Recorder records nothing and a nil Logger discards logs.
type Executor struct {
	Reporter *Reporter
	Recorder Recorder
	Logger   *slog.Logger
}

// Execute runs sc against d and returns the process exit code: 0 when no
// tester failed, 1 otherwise. The dispatcher is closed before returning.
func (e *Executor) Execute(ctx context.Context, sc *scenario.Scenario, d Dispatcher) int {
	summary, err := e.Run(ctx, sc, d)
	if err != nil {
		e.logger().Error("scenario not executed", "namespace", sc.Namespace, "error", err)
		return 1
	}
	return summary.ExitCode
}

// Run is Execute returning the full summary. It fails only when sc has
// already been executed; dispatcher errors are reflected in the summary.
func (e *Executor) Run(ctx context.Context, sc *scenario.Scenario, d Dispatcher) (Summary, error) {
	if !sc.MarkExecuted() {
		return Summary{}, fmt.Errorf("namespace %q: %w", sc.Namespace, ErrAlreadyExecuted)
	}

	var (
		rep    = e.reporter()
		log    = e.logger()
		names  = d.QueryNames()
		known  = make(map[string]bool, len(names))
		dummy  = make(map[string]bool)
		result = 0
	)
	for _, name := range names {
		known[name] = true
	}

	log.Debug("executing scenario", "namespace", sc.Namespace, "transactions", len(sc.Transactions), "catalog", len(names))

	for ti, tx := range sc.Transactions {
		for i, t := range tx.Testers {
			if t.Dummy {
				dummy[t.QueryName] = true
			} else {
				sc.TestCount++
			}
			delete(known, t.QueryName)

			out := e.runTester(ctx, sc, d, rep, t)
			out.Transaction, out.Index = ti, i
			e.record(ctx, out)

			if out.Status == StatusFailed {
				result = 1
			}
		}

		if err := d.Rollback(); err != nil {
			log.Error("rollback failed", "transaction", ti, "error", err)
			result = 1
		}
	}

	summary := Summary{
		Namespace: sc.Namespace,
		Passed:    sc.PassCount,
		Tested:    sc.TestCount,
		Catalog:   len(names) - len(dummy),
	}
	rep.Summary(summary.Passed, summary.Tested, summary.Catalog)

	for _, name := range names {
		if known[name] {
			summary.Unexecuted = append(summary.Unexecuted, name)
		}
	}
	rep.Unexecuted(summary.Unexecuted)

	if err := d.Close(); err != nil {
		log.Error("close failed", "namespace", sc.Namespace, "error", err)
		result = 1
	}

	summary.ExitCode = result
	if e.Recorder != nil {
		if err := e.Recorder.RecordSummary(ctx, summary); err != nil {
			log.Warn("failed to record summary", "error", err)
		}
	}
	return summary, nil
}

func (e *Executor) runTester(ctx context.Context, sc *scenario.Scenario, d Dispatcher, rep *Reporter, t scenario.Tester) Outcome {
	out := Outcome{Query: t.QueryName, Dummy: t.Dummy}

	res, err := d.Exec(ctx, t.QueryName, t.Params)
	if err == nil {
		err = d.LastError()
	}
	if res != nil {
		out.Rows = res.AffectedRows
		if res.NeedsFetch {
			out.Rows = int64(res.RowCount)
		}
	}

	switch {
	case err == nil && t.Dummy:
		out.Status = StatusDummy
	case err == nil:
		sc.PassCount++
		out.Status = StatusPassed
		rep.OK(t.QueryName, res)
	case client.IsValidationMismatch(err) && t.Dummy:
		out.Status = StatusDummy
		out.Detail = err.Error()
	case client.IsValidationMismatch(err):
		out.Status = StatusWarned
		out.Detail = err.Error()
		rep.Warn(t.QueryName, err)
	default:
		out.Status = StatusFailed
		out.Detail = err.Error()
		rep.Fail(t.QueryName, err)
	}
	return out
}

func (e *Executor) record(ctx context.Context, o Outcome) {
	if e.Recorder == nil {
		return
	}
	if err := e.Recorder.RecordOutcome(ctx, o); err != nil {
		e.logger().Warn("failed to record outcome", "query", o.Query, "error", err)
	}
}

func (e *Executor) reporter() *Reporter {
	if e.Reporter == nil {
		return NewReporter(nil, nil)
	}
	return e.Reporter
}

func (e *Executor) logger() *slog.Logger {
	if e.Logger == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return e.Logger
}
