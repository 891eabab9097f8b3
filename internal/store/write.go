package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/roach88/dbgw/internal/harness"
)

// timeFormat is how timestamps are stored. It sorts lexically.
const timeFormat = time.RFC3339Nano

// Run records the outcomes of one scenario execution. It implements
// harness.Recorder.
type Run struct {
	ID string

	store *Store
	seq   int64
}

// BeginRun inserts a new run and returns its recorder.
func (s *Store) BeginRun(ctx context.Context, scenarioPath, namespace string) (*Run, error) {
	id := s.newID()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs (id, seq, scenario, namespace, started_at)
		VALUES (?, (SELECT COALESCE(MAX(seq), 0) + 1 FROM runs), ?, ?, ?)
	`, id, scenarioPath, namespace, s.now().UTC().Format(timeFormat))
	if err != nil {
		return nil, fmt.Errorf("begin run: %w", err)
	}
	return &Run{ID: id, store: s}, nil
}

// RecordOutcome appends one tester outcome to the run.
func (r *Run) RecordOutcome(ctx context.Context, o harness.Outcome) error {
	r.seq++
	_, err := r.store.db.ExecContext(ctx, `
		INSERT INTO outcomes
		(run_id, seq, tx_index, tester_index, query, dummy, status, row_count, detail)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		r.ID,
		r.seq,
		o.Transaction,
		o.Index,
		o.Query,
		o.Dummy,
		string(o.Status),
		o.Rows,
		o.Detail,
	)
	if err != nil {
		return fmt.Errorf("record outcome: %w", err)
	}
	return nil
}

// RecordSummary closes the run with its final counts.
func (r *Run) RecordSummary(ctx context.Context, s harness.Summary) error {
	res, err := r.store.db.ExecContext(ctx, `
		UPDATE runs
		SET finished_at = ?, passed = ?, tested = ?, catalog = ?, unexecuted = ?, exit_code = ?
		WHERE id = ?
	`,
		r.store.now().UTC().Format(timeFormat),
		s.Passed,
		s.Tested,
		s.Catalog,
		strings.Join(s.Unexecuted, ","),
		s.ExitCode,
		r.ID,
	)
	if err != nil {
		return fmt.Errorf("record summary: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("record summary: %w: %s", ErrRunNotFound, r.ID)
	}
	return nil
}
