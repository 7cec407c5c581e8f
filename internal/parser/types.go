// Package parser extracts CREATE TABLE statements from loosely formatted text
// and turns each one into a schema name, a table name and an ordered column
// list.
package parser

import (
	"errors"
	"fmt"
	"log/slog"
)

var (
	// ErrNoStatementFound means the input held no acceptable CREATE TABLE
	// statement. Callers treat it as "nothing to do".
	ErrNoStatementFound = errors.New("no CREATE TABLE statement found")

	// ErrNoColumnBody means a statement has no balanced column-definition
	// region. It is fatal for that statement only.
	ErrNoColumnBody = errors.New("no column definition body found")
)

// StatementError scopes a parse failure to one statement of a batch.
type StatementError struct {
	Index int    // zero-based position in the extracted statement list
	Table string // table name when it could be derived
	Err   error
}

func (e *StatementError) Error() string {
	if e.Table != "" {
		return fmt.Sprintf("statement %d (%s): %v", e.Index+1, e.Table, e.Err)
	}
	return fmt.Sprintf("statement %d: %v", e.Index+1, e.Err)
}

func (e *StatementError) Unwrap() error {
	return e.Err
}

// Options configures table parsing. The zero value uses the built-in type
// classifier, the default ddv/edv schema markers and a silent logger.
type Options struct {
	Logger  *slog.Logger
	Types   *TypeClassifier
	Schemas SchemaClassifier
}

func (o Options) logger() *slog.Logger {
	if o.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return o.Logger
}

func (o Options) schemas() SchemaClassifier {
	if o.Schemas == nil {
		return DefaultClassifier()
	}
	return o.Schemas
}
