package harness

import (
	"context"

	"github.com/roach88/dbgw/internal/client"
	"github.com/roach88/dbgw/internal/value"
)

// Dispatcher executes catalog queries by name inside a transactional context.
// *client.Client implements it.
type Dispatcher interface {
	// Exec dispatches a query. A validation mismatch returns the result
	// together with the error.
	Exec(ctx context.Context, name string, params *value.Parameters) (*client.Result, error)

	// LastError reports the error of the most recent call.
	LastError() error

	// QueryNames lists every query in the catalog, in catalog order.
	QueryNames() []string

	Rollback() error
	Close() error
}

// Status is the classified outcome of one tester.
type Status string

const (
	StatusPassed Status = "passed"
	StatusWarned Status = "warned"
	StatusFailed Status = "failed"
	StatusDummy  Status = "dummy"
)

// Outcome is what happened to one tester.
type Outcome struct {
	// Transaction and Index locate the tester, both zero-based.
	Transaction int
	Index       int

	Query  string
	Dummy  bool
	Status Status

	// Rows is the fetched row count or the affected-row count.
	Rows int64

	// Detail is the error message for warned and failed testers.
	Detail string
}

// Summary is the result of a whole run.
type Summary struct {
	Namespace string
	Passed    int
	Tested    int

	// Catalog is the catalog size less the number of distinct dummy queries.
	Catalog int

	// Unexecuted lists catalog queries no tester referenced, in catalog order.
	Unexecuted []string

	ExitCode int
}

// Recorder receives outcomes as the run progresses. Recording errors are
// logged and do not affect the run.
type Recorder interface {
	RecordOutcome(ctx context.Context, o Outcome) error
	RecordSummary(ctx context.Context, s Summary) error
}
