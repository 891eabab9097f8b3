package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/dbgw/internal/harness"
	"github.com/roach88/dbgw/internal/testutil"
)

func TestRun_RecordsOutcomesAndSummary(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	run, err := s.BeginRun(ctx, "scenarios/shop.xml", "shop")
	require.NoError(t, err)
	assert.Equal(t, "run-0001", run.ID)

	outcomes := []harness.Outcome{
		{Transaction: 0, Index: 0, Query: "add_user", Status: harness.StatusPassed, Rows: 1},
		{Transaction: 1, Index: 0, Query: "seed", Dummy: true, Status: harness.StatusDummy},
		{Transaction: 1, Index: 1, Query: "bad", Status: harness.StatusFailed, Detail: "DISPATCH_FAILED: boom"},
		{Transaction: 1, Index: 2, Query: "shape", Status: harness.StatusWarned, Detail: "VALIDATION_MISMATCH: expected 2 result columns, got 1"},
	}
	for _, o := range outcomes {
		require.NoError(t, run.RecordOutcome(ctx, o))
	}
	require.NoError(t, run.RecordSummary(ctx, harness.Summary{
		Namespace: "shop", Passed: 1, Tested: 2, Catalog: 4,
		Unexecuted: []string{"later", "clear_users"}, ExitCode: 1,
	}))

	got, err := s.Outcomes(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, outcomes, got)

	rec, err := s.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), rec.Seq)
	assert.Equal(t, "scenarios/shop.xml", rec.Scenario)
	assert.True(t, rec.Finished)
	assert.Equal(t, testutil.Epoch, rec.StartedAt)
	assert.True(t, rec.FinishedAt.After(rec.StartedAt))
	assert.Equal(t, 1, rec.Passed)
	assert.Equal(t, 2, rec.Tested)
	assert.Equal(t, 4, rec.Catalog)
	assert.Equal(t, []string{"later", "clear_users"}, rec.Unexecuted)
	assert.Equal(t, 1, rec.ExitCode)
}

func TestListRuns_MostRecentFirst(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	for _, ns := range []string{"a", "b", "c"} {
		_, err := s.BeginRun(ctx, ns+".xml", ns)
		require.NoError(t, err)
	}

	runs, err := s.ListRuns(ctx, 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "run-0003", runs[0].ID)
	assert.Equal(t, int64(3), runs[0].Seq)
	assert.Equal(t, "run-0002", runs[1].ID)
	assert.False(t, runs[0].Finished)
	assert.Nil(t, runs[0].Unexecuted)

	all, err := s.ListRuns(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestListRuns_Empty(t *testing.T) {
	s := createTestStore(t)
	runs, err := s.ListRuns(context.Background(), 10)
	require.NoError(t, err)
	assert.NotNil(t, runs)
	assert.Empty(t, runs)
}

func TestGetRun_NotFound(t *testing.T) {
	s := createTestStore(t)
	_, err := s.GetRun(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrRunNotFound)

	outcomes, err := s.Outcomes(context.Background(), "missing")
	require.NoError(t, err)
	assert.Empty(t, outcomes)
}

func TestRun_OutcomeRequiresRun(t *testing.T) {
	s := createTestStore(t)
	orphan := &Run{ID: "ghost", store: s}

	err := orphan.RecordOutcome(context.Background(), harness.Outcome{Query: "q", Status: harness.StatusPassed})
	assert.Error(t, err, "foreign key should reject outcomes of unknown runs")

	err = orphan.RecordSummary(context.Background(), harness.Summary{})
	assert.ErrorIs(t, err, ErrRunNotFound)
}

func TestRun_WithExecutor(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	run, err := s.BeginRun(ctx, "inline", "ns")
	require.NoError(t, err)

	sc := mustScenario(t, `<scenario namespace="ns"><execute sql-name="q1"/><execute sql-name="q2"/></scenario>`)
	d := testutil.NewFakeDispatcher("q1", "q2", "q3").Rows("q1", 2).Fail("q2", "boom")

	code := (&harness.Executor{Recorder: run}).Execute(ctx, sc, d)
	assert.Equal(t, 1, code)

	got, err := s.Outcomes(ctx, run.ID)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, harness.StatusPassed, got[0].Status)
	assert.Equal(t, int64(2), got[0].Rows)
	assert.Equal(t, harness.StatusFailed, got[1].Status)
	assert.Equal(t, 1, got[1].Transaction)

	rec, err := s.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"q3"}, rec.Unexecuted)
	assert.Equal(t, 1, rec.ExitCode)
}
