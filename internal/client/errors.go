package client

import (
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"
)

// Error codes reported by the client.
const (
	// CodeValidation means the statement ran but its result did not match
	// the columns the query declares.
	CodeValidation = "VALIDATION_MISMATCH"
	CodeDispatch   = "DISPATCH_FAILED"
	CodeNotFound   = "NOT_FOUND"
	CodeBind       = "BIND_FAILED"
	CodeTx         = "TX_FAILED"
)

// Error is a failed dispatch.
type Error struct {
	Code    string
	Query   string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsValidationMismatch reports whether err is a result validation failure.
func IsValidationMismatch(err error) bool {
	var ce *Error
	return errors.As(err, &ce) && ce.Code == CodeValidation
}

// IsNotFound reports whether err names a query missing from the catalog.
func IsNotFound(err error) bool {
	var ce *Error
	return errors.As(err, &ce) && ce.Code == CodeNotFound
}

// dispatchError wraps a driver error, naming the server-side error code
// when the driver exposes one.
func dispatchError(query string, err error) *Error {
	msg := "statement failed"

	var myErr *mysql.MySQLError
	var pgErr *pgconn.PgError
	var liteErr sqlite3.Error
	switch {
	case errors.As(err, &myErr):
		msg = fmt.Sprintf("statement failed (mysql error %d)", myErr.Number)
	case errors.As(err, &pgErr):
		msg = fmt.Sprintf("statement failed (sqlstate %s)", pgErr.Code)
	case errors.As(err, &liteErr):
		msg = fmt.Sprintf("statement failed (sqlite error %d)", int(liteErr.Code))
	}
	return &Error{Code: CodeDispatch, Query: query, Message: msg, Err: err}
}
