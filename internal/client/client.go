// Package client dispatches catalog queries by name against a database.
//
// Autocommit is off: the first dispatch opens a transaction and every
// statement after it runs inside that transaction until Rollback or Close.
// The executor rolls back after each scenario transaction, so nothing a
// scenario does is ever committed.
package client

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/roach88/dbgw/internal/config"
	"github.com/roach88/dbgw/internal/querymap"
	"github.com/roach88/dbgw/internal/value"
)

// Result describes a dispatched statement.
type Result struct {
	Query string

	// NeedsFetch is true for statements that return rows.
	NeedsFetch bool

	// RowCount is the number of rows fetched when NeedsFetch is true.
	RowCount int

	// AffectedRows is the number of rows changed when NeedsFetch is false.
	AffectedRows int64

	Columns []string
}

// Options configures a Client.
type Options struct {
	Placeholder querymap.Placeholder

	// ValidateResult checks fetched rows against the query's declared columns.
	ValidateResult bool

	Logger *slog.Logger
}

// Client executes the queries of one catalog namespace.
type Client struct {
	db        *sql.DB
	tx        *sql.Tx
	catalog   *querymap.Catalog
	namespace string
	opts      Options
	logger    *slog.Logger
	lastErr   error
	closed    bool
}

// Open connects to the datasource described by svc.
func Open(ctx context.Context, svc config.Service, catalog *querymap.Catalog, namespace string, logger *slog.Logger) (*Client, error) {
	driver, ok := Lookup(svc.Driver)
	if !ok {
		return nil, &UnknownDriverError{Name: svc.Driver, Available: Drivers()}
	}

	db, err := sql.Open(driver.Name, svc.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s datasource: %w", driver.Name, err)
	}
	if svc.MaxOpenConns > 0 {
		db.SetMaxOpenConns(svc.MaxOpenConns)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to %s datasource: %w", driver.Name, err)
	}

	return New(db, catalog, namespace, Options{
		Placeholder:    driver.Placeholder,
		ValidateResult: svc.ValidateResult,
		Logger:         logger,
	}), nil
}

// New wraps an open database handle. The client takes ownership of db.
func New(db *sql.DB, catalog *querymap.Catalog, namespace string, opts Options) *Client {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Client{
		db:        db,
		catalog:   catalog,
		namespace: namespace,
		opts:      opts,
		logger:    logger,
	}
}

// QueryNames returns the catalog's query names for the client's namespace.
func (c *Client) QueryNames() []string {
	return c.catalog.Names(c.namespace)
}

// LastError returns the error of the most recent call, or nil.
func (c *Client) LastError() error {
	return c.lastErr
}

// Exec dispatches the named query with params.
//
// A result that does not match the declared columns returns both the
// result and a CodeValidation error.
func (c *Client) Exec(ctx context.Context, name string, params *value.Parameters) (*Result, error) {
	res, err := c.exec(ctx, name, params)
	c.lastErr = err
	if err != nil {
		c.logger.Debug("dispatch failed", "query", name, "error", err)
	}
	return res, err
}

func (c *Client) exec(ctx context.Context, name string, params *value.Parameters) (*Result, error) {
	if c.closed {
		return nil, &Error{Code: CodeTx, Query: name, Message: "client is closed"}
	}

	q, ok := c.catalog.Lookup(c.namespace, name)
	if !ok {
		return nil, &Error{Code: CodeNotFound, Query: name, Message: fmt.Sprintf("query %q is not defined in namespace %q", name, c.namespace)}
	}

	bound, err := querymap.Bind(q, params, c.opts.Placeholder)
	if err != nil {
		return nil, &Error{Code: CodeBind, Query: name, Message: "failed to bind parameters", Err: err}
	}

	if c.tx == nil {
		tx, err := c.db.BeginTx(ctx, nil)
		if err != nil {
			return nil, &Error{Code: CodeTx, Query: name, Message: "failed to begin transaction", Err: err}
		}
		c.tx = tx
	}

	c.logger.Debug("dispatching", "query", name, "sql", bound.SQL, "args", len(bound.Args))

	if !q.NeedsFetch() {
		r, err := c.tx.ExecContext(ctx, bound.SQL, bound.Args...)
		if err != nil {
			return nil, dispatchError(name, err)
		}
		n, err := r.RowsAffected()
		if err != nil {
			return nil, dispatchError(name, err)
		}
		return &Result{Query: name, AffectedRows: n}, nil
	}

	rows, err := c.tx.QueryContext(ctx, bound.SQL, bound.Args...)
	if err != nil {
		return nil, dispatchError(name, err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, dispatchError(name, err)
	}
	res := &Result{Query: name, NeedsFetch: true, Columns: cols}

	validate := c.opts.ValidateResult && len(q.Result) > 0
	var mismatch string
	if validate {
		mismatch = checkColumns(q.Result, cols)
	}

	dest := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range dest {
		ptrs[i] = &dest[i]
	}
	for rows.Next() {
		res.RowCount++
		if !validate || mismatch != "" {
			continue
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, dispatchError(name, err)
		}
		mismatch = checkRow(q.Result, dest, res.RowCount)
	}
	if err := rows.Err(); err != nil {
		return nil, dispatchError(name, err)
	}

	if mismatch != "" {
		return res, &Error{Code: CodeValidation, Query: name, Message: mismatch}
	}
	return res, nil
}

func checkColumns(decl []querymap.ColumnDecl, cols []string) string {
	if len(decl) != len(cols) {
		return fmt.Sprintf("expected %d result columns, got %d", len(decl), len(cols))
	}
	for i, d := range decl {
		if !strings.EqualFold(d.Name, cols[i]) {
			return fmt.Sprintf("result column %d is %q, expected %q", i+1, cols[i], d.Name)
		}
	}
	return ""
}

func checkRow(decl []querymap.ColumnDecl, row []any, n int) string {
	for i, d := range decl {
		if !value.Conforms(d.Type, row[i]) {
			return fmt.Sprintf("row %d: column %q value %v is not a valid %s", n, d.Name, row[i], d.Type)
		}
	}
	return ""
}

// Rollback discards the work of the current transaction. It is a no-op
// when no statement has run since the last rollback.
func (c *Client) Rollback() error {
	if c.tx == nil {
		return nil
	}
	tx := c.tx
	c.tx = nil
	if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		c.lastErr = &Error{Code: CodeTx, Message: "rollback failed", Err: err}
		return c.lastErr
	}
	c.lastErr = nil
	return nil
}

// Close rolls back any open transaction and releases the database handle.
func (c *Client) Close() error {
	if c.closed {
		return nil
	}
	rbErr := c.Rollback()
	c.closed = true
	if err := c.db.Close(); err != nil {
		return fmt.Errorf("failed to close datasource: %w", err)
	}
	return rbErr
}
