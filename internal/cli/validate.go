package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/dbgw/internal/querymap"
	"github.com/roach88/dbgw/internal/scenario"
)

// ValidationResult holds the coverage check of a scenario against a catalog.
type ValidationResult struct {
	Valid     bool   `json:"valid"`
	Namespace string `json:"namespace"`
	Testers   int    `json:"testers"`

	// Missing lists scenario queries the catalog does not define.
	Missing []string `json:"missing,omitempty"`

	// Unreferenced lists catalog queries no tester executes.
	Unreferenced []string `json:"unreferenced,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <scenario> <querymap>...",
		Short: "Check a scenario against a querymap catalog without executing it",
		Long: `Parse a scenario and the querymaps it runs against, without connecting
to any datasource.

Reports scenario queries that are missing from the catalog (an error) and
catalog queries that no tester references (a warning).`,
		Args:          minArgs(2, "<scenario> <querymap>..."),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], args[1:], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, scenarioPath string, querymaps []string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	sc, err := scenario.Load(scenarioPath)
	if err != nil {
		return reportFailure(formatter, ErrCodeScenario, err.Error(), nil)
	}
	formatter.VerboseLog("Parsed %s: namespace %q, %d transaction(s)", scenarioPath, sc.Namespace, len(sc.Transactions))

	catalog, err := querymap.LoadFiles(querymaps...)
	if err != nil {
		return reportFailure(formatter, ErrCodeQuerymap, err.Error(), nil)
	}
	formatter.VerboseLog("Loaded %d querymap file(s), %d queries in %q", len(querymaps), catalog.Len(sc.Namespace), sc.Namespace)

	result := checkCoverage(sc, catalog)
	if !result.Valid {
		return reportFailure(formatter, ErrCodeCoverage,
			fmt.Sprintf("queries not defined in namespace %q: %s", result.Namespace, strings.Join(result.Missing, ", ")), result)
	}

	if formatter.JSON() {
		return formatter.Success(result)
	}
	w := formatter.Writer
	fmt.Fprintf(w, "✓ %s: %d tester(s) in namespace %q\n", scenarioPath, result.Testers, result.Namespace)
	if len(result.Unreferenced) > 0 {
		fmt.Fprintf(w, "Unreferenced queries: %s\n", strings.Join(result.Unreferenced, ", "))
	}
	return nil
}

// checkCoverage compares the queries sc references with those catalog
// defines for the scenario's namespace.
func checkCoverage(sc *scenario.Scenario, catalog *querymap.Catalog) ValidationResult {
	result := ValidationResult{Namespace: sc.Namespace, Testers: sc.Testers()}

	referenced := make(map[string]bool)
	for _, name := range sc.QueryNames() {
		referenced[name] = true
		if _, ok := catalog.Lookup(sc.Namespace, name); !ok {
			result.Missing = append(result.Missing, name)
		}
	}
	for _, name := range catalog.Names(sc.Namespace) {
		if !referenced[name] {
			result.Unreferenced = append(result.Unreferenced, name)
		}
	}
	result.Valid = len(result.Missing) == 0
	return result
}
