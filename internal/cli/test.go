package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/dbgw/internal/harness"
)

// TestOptions holds flags for the test command.
type TestOptions struct {
	*RootOptions
	Update bool   // regenerate golden transcripts
	Filter string // suite filter (glob pattern)
}

// SuiteResult holds the result of a single suite execution.
type SuiteResult struct {
	Name     string   `json:"name"`
	Pass     bool     `json:"pass"`
	ExitCode int      `json:"exit_code"`
	Errors   []string `json:"errors,omitempty"`
}

// TestResult holds the overall test result.
type TestResult struct {
	Suites []SuiteResult `json:"suites"`
	Passed int           `json:"passed"`
	Failed int           `json:"failed"`
	Total  int           `json:"total"`
}

// NewTestCommand creates the test command.
func NewTestCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TestOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "test <suites-dir>",
		Short: "Run every suite manifest in a directory",
		Long: `Run the suite manifests (*.suite.yaml) found under a directory.

A suite names a scenario, its connector file and querymaps, and the exit
code the run must produce. When a <name>.golden file sits next to the
manifest, the run's console transcript must match it as well.

Exit codes:
  0 - All suites passed
  1 - One or more suites failed
  2 - Command error (invalid paths, etc.)

Examples:
  dbgw-query-tester test ./suites
  dbgw-query-tester test ./suites --filter "shop-*"
  dbgw-query-tester test ./suites --update
  dbgw-query-tester test ./suites --format json`,
		Args:          minArgs(1, "<suites-dir>"),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTests(opts, args[0], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Update, "update", false, "regenerate golden transcripts")
	cmd.Flags().StringVar(&opts.Filter, "filter", "", "filter suites by glob pattern")

	return cmd
}

func runTests(opts *TestOptions, suitesDir string, cmd *cobra.Command) error {
	if _, err := os.Stat(suitesDir); os.IsNotExist(err) {
		return NewExitError(ExitCommandError, fmt.Sprintf("suites directory not found: %s", suitesDir))
	}

	suiteFiles, err := findSuiteFiles(suitesDir, opts.Filter)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to find suites", err)
	}

	if len(suiteFiles) == 0 {
		if opts.Format == "json" {
			return outputTestJSON(cmd, TestResult{Suites: []SuiteResult{}})
		}
		fmt.Fprintln(cmd.OutOrStdout(), "No suites found.")
		return nil
	}

	result := TestResult{
		Suites: make([]SuiteResult, 0, len(suiteFiles)),
		Total:  len(suiteFiles),
	}
	for _, suiteFile := range suiteFiles {
		sr := runSuite(suiteFile, opts, cmd)
		result.Suites = append(result.Suites, sr)
		if sr.Pass {
			result.Passed++
		} else {
			result.Failed++
		}
	}

	if opts.Format == "json" {
		return outputTestJSON(cmd, result)
	}
	return outputTestText(cmd, result)
}

// suiteExts are the file suffixes that mark a suite manifest. Connector
// files and YAML querymaps can share the directory.
var suiteExts = []string{".suite.yaml", ".suite.yml"}

// suiteName returns the base name of a suite manifest without its suffix.
func suiteName(path string) (string, bool) {
	base := filepath.Base(path)
	for _, ext := range suiteExts {
		if name, ok := strings.CutSuffix(base, ext); ok {
			return name, true
		}
	}
	return "", false
}

// findSuiteFiles returns the suite manifests under dir whose name matches
// filter.
func findSuiteFiles(dir string, filter string) ([]string, error) {
	var files []string

	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}

		name, ok := suiteName(path)
		if !ok {
			return nil
		}

		if filter != "" {
			matched, err := filepath.Match(filter, name)
			if err != nil {
				return fmt.Errorf("invalid filter pattern: %w", err)
			}
			if !matched {
				return nil
			}
		}

		files = append(files, path)
		return nil
	})

	return files, err
}

func runSuite(suiteFile string, opts *TestOptions, cmd *cobra.Command) SuiteResult {
	w := cmd.OutOrStdout()
	text := opts.Format != "json"

	fail := func(name string, exit int, errs ...string) SuiteResult {
		if text {
			fmt.Fprintf(w, "✗ %s\n", name)
			for _, e := range errs {
				fmt.Fprintf(w, "  %s\n", e)
			}
		}
		return SuiteResult{Name: name, ExitCode: exit, Errors: errs}
	}

	suite, err := harness.LoadSuite(suiteFile)
	if err != nil {
		return fail(filepath.Base(suiteFile), ExitFailure, fmt.Sprintf("failed to load suite: %v", err))
	}

	transcript, exit := suiteTranscript(suite, opts, cmd)

	if exit != suite.ExpectExit {
		errs := []string{fmt.Sprintf("exit code %d, expected %d", exit, suite.ExpectExit)}
		if opts.Verbose {
			for _, line := range strings.Split(strings.TrimSuffix(string(transcript), "\n"), "\n") {
				errs = append(errs, "| "+line)
			}
		}
		return fail(suite.Name, exit, errs...)
	}

	goldenPath := goldenFilePath(suiteFile)
	if opts.Update {
		if err := os.WriteFile(goldenPath, transcript, 0o644); err != nil {
			return fail(suite.Name, exit, fmt.Sprintf("failed to update golden file: %v", err))
		}
		if text {
			fmt.Fprintf(w, "✓ %s (golden updated)\n", suite.Name)
		}
		return SuiteResult{Name: suite.Name, Pass: true, ExitCode: exit}
	}

	golden, err := os.ReadFile(goldenPath)
	switch {
	case os.IsNotExist(err):
		// Exit code alone decides.
	case err != nil:
		return fail(suite.Name, exit, fmt.Sprintf("golden comparison failed: %v", err))
	case !bytes.Equal(golden, transcript):
		return fail(suite.Name, exit, "transcript does not match golden file (run with --update to regenerate)")
	}

	if text {
		fmt.Fprintf(w, "✓ %s\n", suite.Name)
	}
	return SuiteResult{Name: suite.Name, Pass: true, ExitCode: exit}
}

// suiteTranscript runs suite and returns its console output, both streams
// interleaved, followed by an "exit: N" line.
func suiteTranscript(suite *harness.Suite, opts *TestOptions, cmd *cobra.Command) ([]byte, int) {
	var buf bytes.Buffer
	reporter := harness.NewReporter(&buf, &buf)

	req := runRequest{Scenario: suite.Scenario, Connector: suite.Connector, Querymaps: suite.Querymaps}
	ctx := commandContext(cmd)

	exit := ExitFailure
	summary, err := executeScenario(ctx, req, reporter, opts.logger().With("suite", suite.Name))
	if err != nil {
		reporter.Fatal(err)
	} else {
		exit = summary.ExitCode
	}
	fmt.Fprintf(&buf, "exit: %d\n", exit)
	return buf.Bytes(), exit
}

// goldenFilePath returns the golden transcript path for a suite file:
// shop.suite.yaml pairs with shop.golden.
func goldenFilePath(suiteFile string) string {
	name, _ := suiteName(suiteFile)
	return filepath.Join(filepath.Dir(suiteFile), name+".golden")
}

func outputTestJSON(cmd *cobra.Command, result TestResult) error {
	resp := CLIResponse{Status: "ok", Data: result}
	if result.Failed > 0 {
		resp.Status = "error"
		resp.Error = &CLIError{
			Code:    ErrCodeGeneric,
			Message: fmt.Sprintf("%d of %d suite(s) failed", result.Failed, result.Total),
		}
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(resp); err != nil {
		return WrapExitError(ExitFailure, "failed to write output", err)
	}

	if result.Failed > 0 {
		return &ExitError{Code: ExitFailure}
	}
	return nil
}

func outputTestText(cmd *cobra.Command, result TestResult) error {
	w := cmd.OutOrStdout()
	fmt.Fprintln(w)
	fmt.Fprintf(w, "%d passed, %d failed, %d total\n", result.Passed, result.Failed, result.Total)

	if result.Failed > 0 {
		return &ExitError{Code: ExitFailure}
	}
	return nil
}
