package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"github.com/roach88/dbgw/internal/harness"
	"github.com/roach88/dbgw/internal/store"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Journal string
	RunID   string
	Limit   int
}

// HistoryRun is the JSON form of a journaled run.
type HistoryRun struct {
	ID         string           `json:"id"`
	Seq        int64            `json:"seq"`
	Scenario   string           `json:"scenario"`
	Namespace  string           `json:"namespace"`
	StartedAt  time.Time        `json:"started_at"`
	FinishedAt *time.Time       `json:"finished_at,omitempty"`
	Passed     int              `json:"passed"`
	Tested     int              `json:"tested"`
	Catalog    int              `json:"catalog"`
	Unexecuted []string         `json:"unexecuted,omitempty"`
	ExitCode   int              `json:"exit_code"`
	Outcomes   []HistoryOutcome `json:"outcomes,omitempty"`
}

// HistoryOutcome is the JSON form of one journaled tester outcome.
type HistoryOutcome struct {
	Transaction int    `json:"transaction"`
	Index       int    `json:"index"`
	Query       string `json:"query"`
	Dummy       bool   `json:"dummy,omitempty"`
	Status      string `json:"status"`
	Rows        int64  `json:"rows"`
	Detail      string `json:"detail,omitempty"`
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history --journal <db>",
		Short: "Show runs recorded in a journal",
		Long: `List the runs recorded in a run journal, most recent first.

With --run, show that run's tester outcomes in execution order.

Examples:
  dbgw-query-tester history --journal runs.db
  dbgw-query-tester history --journal runs.db --limit 5
  dbgw-query-tester history --journal runs.db --run 0190f5d2-... --format json`,
		Args:          noArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Journal, "journal", "", "path to the SQLite run journal (required)")
	cmd.Flags().StringVar(&opts.RunID, "run", "", "show the outcomes of this run")
	cmd.Flags().IntVar(&opts.Limit, "limit", 20, "maximum number of runs to list (0 for all)")

	return cmd
}

func runHistory(opts *HistoryOptions, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	if opts.Journal == "" {
		return NewExitError(ExitCommandError, "required flag --journal not set")
	}

	// Opening creates missing files; a typo should not leave an empty journal behind.
	if _, err := os.Stat(opts.Journal); err != nil {
		return reportFailure(formatter, ErrCodeNotFound, fmt.Sprintf("journal not found: %s", opts.Journal), nil)
	}

	st, err := store.Open(opts.Journal)
	if err != nil {
		return reportFailure(formatter, ErrCodeJournal, err.Error(), nil)
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			opts.logger().Error("error closing journal", "error", closeErr)
		}
	}()

	ctx := commandContext(cmd)

	if opts.RunID != "" {
		rec, err := st.GetRun(ctx, opts.RunID)
		if errors.Is(err, store.ErrRunNotFound) {
			return reportFailure(formatter, ErrCodeNotFound, fmt.Sprintf("run %s not found", opts.RunID), nil)
		}
		if err != nil {
			return reportFailure(formatter, ErrCodeJournal, err.Error(), nil)
		}
		outcomes, err := st.Outcomes(ctx, opts.RunID)
		if err != nil {
			return reportFailure(formatter, ErrCodeJournal, err.Error(), nil)
		}
		return outputRun(formatter, rec, outcomes)
	}

	runs, err := st.ListRuns(ctx, opts.Limit)
	if err != nil {
		return reportFailure(formatter, ErrCodeJournal, err.Error(), nil)
	}
	formatter.VerboseLog("Read %d run(s) from %s", len(runs), opts.Journal)
	return outputRuns(formatter, runs)
}

func outputRuns(f *OutputFormatter, runs []store.RunRecord) error {
	if f.JSON() {
		data := make([]HistoryRun, 0, len(runs))
		for _, r := range runs {
			data = append(data, historyRun(r, nil))
		}
		return f.Success(data)
	}

	if len(runs) == 0 {
		fmt.Fprintln(f.Writer, "No runs recorded.")
		return nil
	}

	rows := make([]table.Row, 0, len(runs))
	for _, r := range runs {
		rows = append(rows, table.Row{
			r.Seq, r.ID, r.Namespace, r.Scenario,
			r.StartedAt.Format(time.RFC3339),
			fmt.Sprintf("%d/%d", r.Passed, r.Tested),
			len(r.Unexecuted),
			exitLabel(r),
		})
	}
	f.Table(table.Row{"#", "Run", "Namespace", "Scenario", "Started", "Passed", "Unexecuted", "Exit"}, rows)
	return nil
}

func outputRun(f *OutputFormatter, r store.RunRecord, outcomes []harness.Outcome) error {
	if f.JSON() {
		return f.Success(historyRun(r, outcomes))
	}

	fmt.Fprintf(f.Writer, "Run %s (#%d) %s against %q\n", r.ID, r.Seq, r.Scenario, r.Namespace)
	fmt.Fprintf(f.Writer, "%d passed / %d tested in %d querymap, exit %s\n", r.Passed, r.Tested, r.Catalog, exitLabel(r))
	if len(r.Unexecuted) > 0 {
		fmt.Fprintf(f.Writer, "Unexecuted: %s\n", strings.Join(r.Unexecuted, ", "))
	}

	rows := make([]table.Row, 0, len(outcomes))
	for _, o := range outcomes {
		query := o.Query
		if o.Dummy {
			query += " (dummy)"
		}
		rows = append(rows, table.Row{o.Transaction, o.Index, query, statusColor(o.Status).Sprint(string(o.Status)), o.Rows, o.Detail})
	}
	f.Table(table.Row{"Tx", "#", "Query", "Status", "Rows", "Detail"}, rows)
	return nil
}

func historyRun(r store.RunRecord, outcomes []harness.Outcome) HistoryRun {
	h := HistoryRun{
		ID:         r.ID,
		Seq:        r.Seq,
		Scenario:   r.Scenario,
		Namespace:  r.Namespace,
		StartedAt:  r.StartedAt,
		Passed:     r.Passed,
		Tested:     r.Tested,
		Catalog:    r.Catalog,
		Unexecuted: r.Unexecuted,
		ExitCode:   r.ExitCode,
	}
	if r.Finished {
		finished := r.FinishedAt
		h.FinishedAt = &finished
	}
	for _, o := range outcomes {
		h.Outcomes = append(h.Outcomes, HistoryOutcome{
			Transaction: o.Transaction,
			Index:       o.Index,
			Query:       o.Query,
			Dummy:       o.Dummy,
			Status:      string(o.Status),
			Rows:        o.Rows,
			Detail:      o.Detail,
		})
	}
	return h
}

// exitLabel is the run's exit code, or "-" for a run that never finished.
func exitLabel(r store.RunRecord) string {
	if !r.Finished {
		return "-"
	}
	return fmt.Sprint(r.ExitCode)
}

func statusColor(s harness.Status) text.Color {
	switch s {
	case harness.StatusPassed:
		return text.FgGreen
	case harness.StatusWarned:
		return text.FgYellow
	case harness.StatusFailed:
		return text.FgRed
	default:
		return text.FgHiBlack
	}
}
