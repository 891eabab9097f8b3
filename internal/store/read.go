package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/roach88/dbgw/internal/harness"
)

// ErrRunNotFound is returned when a run ID is not in the journal.
var ErrRunNotFound = errors.New("run not found")

// RunRecord is a journaled run.
type RunRecord struct {
	ID         string
	Seq        int64
	Scenario   string
	Namespace  string
	StartedAt  time.Time
	FinishedAt time.Time

	// Finished is false for runs that never recorded a summary.
	Finished bool

	Passed     int
	Tested     int
	Catalog    int
	Unexecuted []string
	ExitCode   int
}

const runColumns = `id, seq, scenario, namespace, started_at, finished_at, passed, tested, catalog, unexecuted, exit_code`

// ListRuns returns up to limit runs, most recent first. A limit <= 0
// returns every run.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]RunRecord, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+runColumns+`
		FROM runs
		ORDER BY seq DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []RunRecord{}
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// GetRun returns the run with the given ID.
func (s *Store) GetRun(ctx context.Context, id string) (RunRecord, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	r, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return RunRecord{}, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	return r, err
}

// Outcomes returns the outcomes of a run in the order they were recorded.
// Returns an empty slice (not nil) for a run with no outcomes.
func (s *Store) Outcomes(ctx context.Context, runID string) ([]harness.Outcome, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT tx_index, tester_index, query, dummy, status, row_count, detail
		FROM outcomes
		WHERE run_id = ?
		ORDER BY seq ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query outcomes: %w", err)
	}
	defer rows.Close()

	outcomes := []harness.Outcome{}
	for rows.Next() {
		var (
			o      harness.Outcome
			status string
		)
		if err := rows.Scan(&o.Transaction, &o.Index, &o.Query, &o.Dummy, &status, &o.Rows, &o.Detail); err != nil {
			return nil, fmt.Errorf("scan outcome: %w", err)
		}
		o.Status = harness.Status(status)
		outcomes = append(outcomes, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate outcomes: %w", err)
	}
	return outcomes, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(sc scanner) (RunRecord, error) {
	var (
		r          RunRecord
		startedAt  string
		finishedAt sql.NullString
		unexecuted string
		exitCode   sql.NullInt64
	)
	err := sc.Scan(&r.ID, &r.Seq, &r.Scenario, &r.Namespace, &startedAt, &finishedAt,
		&r.Passed, &r.Tested, &r.Catalog, &unexecuted, &exitCode)
	if errors.Is(err, sql.ErrNoRows) {
		return RunRecord{}, err
	}
	if err != nil {
		return RunRecord{}, fmt.Errorf("scan run: %w", err)
	}

	if r.StartedAt, err = time.Parse(timeFormat, startedAt); err != nil {
		return RunRecord{}, fmt.Errorf("parse started_at of run %s: %w", r.ID, err)
	}
	if finishedAt.Valid {
		if r.FinishedAt, err = time.Parse(timeFormat, finishedAt.String); err != nil {
			return RunRecord{}, fmt.Errorf("parse finished_at of run %s: %w", r.ID, err)
		}
		r.Finished = true
	}
	if unexecuted != "" {
		r.Unexecuted = strings.Split(unexecuted, ",")
	}
	r.ExitCode = int(exitCode.Int64)
	return r, nil
}
