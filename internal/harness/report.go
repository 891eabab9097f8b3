package harness

import (
	"fmt"
	"io"
	"strings"

	"github.com/roach88/dbgw/internal/client"
)

// Reporter writes the console report of a run.
type Reporter struct {
	Out io.Writer
	Err io.Writer
}

// NewReporter returns a reporter writing to out and errw. A nil writer
// discards its lines.
func NewReporter(out, errw io.Writer) *Reporter {
	if out == nil {
		out = io.Discard
	}
	if errw == nil {
		errw = io.Discard
	}
	return &Reporter{Out: out, Err: errw}
}

// OK reports a tester that dispatched cleanly.
func (r *Reporter) OK(query string, res *client.Result) {
	if res != nil && res.NeedsFetch {
		fmt.Fprintf(r.Out, "[OK  ] %s's row count is %d.\n", query, res.RowCount)
		return
	}
	var n int64
	if res != nil {
		n = res.AffectedRows
	}
	fmt.Fprintf(r.Out, "[OK  ] %s's affected row is %d.\n", query, n)
}

// Warn reports a validation mismatch.
func (r *Reporter) Warn(query string, err error) {
	fmt.Fprintf(r.Err, "[WARN] %s is failed to execute. %v\n", query, err)
}

// Fail reports a dispatch failure.
func (r *Reporter) Fail(query string, err error) {
	fmt.Fprintf(r.Err, "[FAIL] %s is failed to execute. %v\n", query, err)
}

// Summary reports the pass and test counts.
func (r *Reporter) Summary(passed, tested, catalog int) {
	fmt.Fprintf(r.Out, "[INFO] %d passed / %d tested in %d querymap.\n", passed, tested, catalog)
}

// Unexecuted warns about catalog queries no tester referenced.
func (r *Reporter) Unexecuted(names []string) {
	if len(names) == 0 {
		return
	}
	fmt.Fprintf(r.Out, "[WARN] %s are not excuted.\n", strings.Join(names, ", "))
}

// Fatal reports an error that prevented the run from starting.
func (r *Reporter) Fatal(err error) {
	fmt.Fprintf(r.Err, "[FAIL] %v\n", err)
}
