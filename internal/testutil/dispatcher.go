package testutil

import (
	"context"
	"strings"

	"github.com/roach88/dbgw/internal/client"
	"github.com/roach88/dbgw/internal/value"
)

// Response is the canned reply of a FakeDispatcher to one query.
type Response struct {
	Result *client.Result
	Err    error
}

// FakeDispatcher is an in-memory query dispatcher that records every call.
//
// Queries without a canned response succeed with zero affected rows.
// Events holds the calls in order: "exec <name>", "rollback", "close".
type FakeDispatcher struct {
	Names     []string
	Responses map[string]Response
	Events    []string
	Params    []*value.Parameters

	RollbackErr error
	CloseErr    error

	lastErr error
}

// NewFakeDispatcher creates a dispatcher whose catalog holds names, in order.
func NewFakeDispatcher(names ...string) *FakeDispatcher {
	return &FakeDispatcher{Names: names, Responses: make(map[string]Response)}
}

// On sets the reply for a query and returns the dispatcher for chaining.
func (f *FakeDispatcher) On(name string, res *client.Result, err error) *FakeDispatcher {
	f.Responses[name] = Response{Result: res, Err: err}
	return f
}

// Rows makes name a fetch query returning n rows.
func (f *FakeDispatcher) Rows(name string, n int) *FakeDispatcher {
	return f.On(name, &client.Result{Query: name, NeedsFetch: true, RowCount: n}, nil)
}

// Affected makes name a write query changing n rows.
func (f *FakeDispatcher) Affected(name string, n int64) *FakeDispatcher {
	return f.On(name, &client.Result{Query: name, AffectedRows: n}, nil)
}

// Fail makes name fail with a dispatch error carrying msg.
func (f *FakeDispatcher) Fail(name, msg string) *FakeDispatcher {
	return f.On(name, nil, &client.Error{Code: client.CodeDispatch, Query: name, Message: msg})
}

// Mismatch makes name return n rows together with a validation mismatch.
func (f *FakeDispatcher) Mismatch(name string, n int, msg string) *FakeDispatcher {
	return f.On(name,
		&client.Result{Query: name, NeedsFetch: true, RowCount: n},
		&client.Error{Code: client.CodeValidation, Query: name, Message: msg})
}

func (f *FakeDispatcher) Exec(_ context.Context, name string, params *value.Parameters) (*client.Result, error) {
	f.Events = append(f.Events, "exec "+name)
	f.Params = append(f.Params, params)

	resp, ok := f.Responses[name]
	if !ok {
		resp = Response{Result: &client.Result{Query: name}}
	}
	f.lastErr = resp.Err
	return resp.Result, resp.Err
}

func (f *FakeDispatcher) LastError() error {
	return f.lastErr
}

func (f *FakeDispatcher) QueryNames() []string {
	out := make([]string, len(f.Names))
	copy(out, f.Names)
	return out
}

func (f *FakeDispatcher) Rollback() error {
	f.Events = append(f.Events, "rollback")
	return f.RollbackErr
}

func (f *FakeDispatcher) Close() error {
	f.Events = append(f.Events, "close")
	return f.CloseErr
}

// Count returns how many recorded events start with prefix.
func (f *FakeDispatcher) Count(prefix string) int {
	n := 0
	for _, ev := range f.Events {
		if strings.HasPrefix(ev, prefix) {
			n++
		}
	}
	return n
}
