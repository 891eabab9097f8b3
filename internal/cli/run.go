package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/roach88/dbgw/internal/client"
	"github.com/roach88/dbgw/internal/config"
	"github.com/roach88/dbgw/internal/harness"
	"github.com/roach88/dbgw/internal/querymap"
	"github.com/roach88/dbgw/internal/scenario"
	"github.com/roach88/dbgw/internal/store"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions

	// Journal overrides the connector file's journal path.
	Journal string
}

// RunSummary is the JSON form of a finished run.
type RunSummary struct {
	RunID      string   `json:"run_id,omitempty"`
	Scenario   string   `json:"scenario"`
	Namespace  string   `json:"namespace"`
	Passed     int      `json:"passed"`
	Tested     int      `json:"tested"`
	Catalog    int      `json:"catalog"`
	Unexecuted []string `json:"unexecuted,omitempty"`
	ExitCode   int      `json:"exit_code"`
}

var runArgs = minArgs(3, "<scenario> <connector> <querymap>...")

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <scenario> <connector> <querymap>...",
		Short: "Execute a scenario against its datasource",
		Long: `Execute a scenario file against the datasource the connector file
configures for the scenario's namespace.

Every transaction is rolled back once all of its testers have run; a failed
tester does not stop the ones after it. The exit code is 0 when no tester
failed and 1 otherwise. It is also 1 when a rollback or the final close of
the datasource fails, and when the scenario or configuration could not be
loaded.

Example:
  dbgw-query-tester run scenarios/shop.xml connector.yaml querymaps/shop.xml
  dbgw-query-tester run --journal runs.db scenarios/shop.xml connector.yaml querymaps/*.xml`,
		Args:          runArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScenario(opts, args, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Journal, "journal", "", "record the run in this SQLite journal")

	return cmd
}

// runRequest names the files one scenario run is assembled from.
type runRequest struct {
	Scenario  string
	Connector string
	Querymaps []string

	// Flags may override connector settings; nil leaves the file in charge.
	Flags *pflag.FlagSet
}

// setupError is a failure that stopped a run before any tester executed.
type setupError struct {
	Code string
	Err  error
}

func (e *setupError) Error() string { return e.Err.Error() }

func (e *setupError) Unwrap() error { return e.Err }

func runScenario(opts *RunOptions, args []string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// JSON output owns stdout; the console report moves to stderr.
	out := cmd.OutOrStdout()
	if formatter.JSON() {
		out = cmd.ErrOrStderr()
	}
	reporter := harness.NewReporter(out, cmd.ErrOrStderr())

	req := runRequest{Scenario: args[0], Connector: args[1], Querymaps: args[2:], Flags: cmd.Flags()}
	summary, err := executeScenario(ctx, req, reporter, opts.logger())
	if err != nil {
		var se *setupError
		code := ErrCodeGeneric
		if errors.As(err, &se) {
			code = se.Code
		}
		if formatter.JSON() {
			_ = formatter.Error(code, err.Error(), nil)
		} else {
			reporter.Fatal(err)
		}
		return &ExitError{Code: ExitFailure}
	}

	if formatter.JSON() {
		if err := formatter.Success(summary); err != nil {
			return WrapExitError(ExitFailure, "failed to write output", err)
		}
	}
	if summary.ExitCode != ExitSuccess {
		return &ExitError{Code: summary.ExitCode}
	}
	return nil
}

// executeScenario loads everything req names, runs the scenario and returns
// its summary. A returned error means nothing was executed.
func executeScenario(ctx context.Context, req runRequest, reporter *harness.Reporter, logger *slog.Logger) (RunSummary, error) {
	sc, err := scenario.Load(req.Scenario)
	if err != nil {
		return RunSummary{}, &setupError{Code: ErrCodeScenario, Err: err}
	}
	logger.Debug("scenario loaded", "path", req.Scenario, "namespace", sc.Namespace, "testers", sc.Testers())

	cfg, err := config.Load(req.Connector, req.Flags)
	if err != nil {
		return RunSummary{}, &setupError{Code: ErrCodeConnector, Err: err}
	}

	catalog, err := querymap.LoadFiles(req.Querymaps...)
	if err != nil {
		return RunSummary{}, &setupError{Code: ErrCodeQuerymap, Err: err}
	}
	logger.Debug("catalog loaded", "files", len(req.Querymaps), "queries", catalog.Len(sc.Namespace))

	svc, err := cfg.Service(sc.Namespace)
	if err != nil {
		return RunSummary{}, &setupError{Code: ErrCodeConnector, Err: err}
	}

	c, err := client.Open(ctx, svc, catalog, sc.Namespace, logger)
	if err != nil {
		return RunSummary{}, &setupError{Code: ErrCodeConnector, Err: fmt.Errorf("namespace %q: %w", sc.Namespace, err)}
	}

	exec := &harness.Executor{Reporter: reporter, Logger: logger}
	result := RunSummary{Scenario: req.Scenario, Namespace: sc.Namespace}

	if cfg.Journal != "" {
		st, err := store.Open(cfg.Journal)
		if err != nil {
			c.Close()
			return RunSummary{}, &setupError{Code: ErrCodeJournal, Err: err}
		}
		defer func() {
			if closeErr := st.Close(); closeErr != nil {
				logger.Error("error closing journal", "error", closeErr)
			}
		}()
		run, err := st.BeginRun(ctx, req.Scenario, sc.Namespace)
		if err != nil {
			c.Close()
			return RunSummary{}, &setupError{Code: ErrCodeJournal, Err: err}
		}
		exec.Recorder = run
		result.RunID = run.ID
		logger.Debug("journal run started", "journal", cfg.Journal, "run", run.ID)
	}

	summary, err := exec.Run(ctx, sc, c)
	if err != nil {
		return RunSummary{}, err
	}

	result.Passed = summary.Passed
	result.Tested = summary.Tested
	result.Catalog = summary.Catalog
	result.Unexecuted = summary.Unexecuted
	result.ExitCode = summary.ExitCode
	return result, nil
}

func (o *RootOptions) logger() *slog.Logger {
	if o.Logger == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return o.Logger
}

// commandContext returns the command's context, or Background when the
// command was executed without one.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
