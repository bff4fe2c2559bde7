// Package request builds SQL statements for the common read and write
// patterns used against a single table.
//
// Every builder holds the parameters of exactly one statement and renders it
// as SQL text plus a short English description. Builders are immutable once
// constructed and never touch a database.
//
// Conditions, subqueries and HAVING predicates are raw SQL fragments and are
// copied into the statement verbatim. Nothing in this package escapes or
// validates them; callers must only pass trusted fragments. Values for inserts
// and updates are never embedded, they are rendered as "?" placeholders and
// returned by Args for binding.
package request

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidArguments is returned when a request is constructed with
	// structurally inconsistent parameters
	ErrInvalidArguments = errors.New("invalid arguments")
	// ErrUnimplemented is returned when asked to build a kind of request that
	// has no builder
	ErrUnimplemented = errors.New("unimplemented request kind")
)

// Kind identifies a request variant
type Kind string

const (
	KindSelectAll     Kind = "select_all"
	KindSelectColumns Kind = "select_columns"
	KindFilter        Kind = "filter"
	KindSort          Kind = "sort"
	KindLimit         Kind = "limit"
	KindPaginate      Kind = "paginate"
	KindDistinct      Kind = "distinct"
	KindAggregate     Kind = "aggregate"
	KindGroupBy       Kind = "group_by"
	KindGroupByHaving Kind = "group_by_having"
	KindSubquery      Kind = "subquery"
	KindInsertOne     Kind = "insert_one"
	KindInsertMany    Kind = "insert_many"
	KindUpdate        Kind = "update"
	KindDelete        Kind = "delete"
)

// Kinds lists every request kind in a stable order
var Kinds = []Kind{
	KindSelectAll, KindSelectColumns, KindFilter, KindSort, KindLimit,
	KindPaginate, KindDistinct, KindAggregate, KindGroupBy, KindGroupByHaving,
	KindSubquery, KindInsertOne, KindInsertMany, KindUpdate, KindDelete,
}

// IsWrite reports whether requests of this kind modify the table
func (k Kind) IsWrite() bool {
	switch k {
	case KindInsertOne, KindInsertMany, KindUpdate, KindDelete:
		return true
	default:
		return false
	}
}

// Request is a single SQL statement against one table.
//
// The set of implementations is closed; only the constructors in this package
// produce values satisfying it.
type Request interface {
	// Table returns the name of the table the statement targets
	Table() string
	// Kind returns the variant of the request
	Kind() Kind
	// Query renders the statement as SQL text
	Query() string
	// Description renders a short English sentence describing the statement
	Description() string
	// Args returns the values to bind to the statement placeholders, in order
	Args() []any

	sealed()
}

// base carries the table name shared by every variant
type base struct {
	table string
}

func newBase(table string) (base, error) {
	if strings.TrimSpace(table) == "" {
		return base{}, invalid("table name is required")
	}
	return base{table: table}, nil
}

// Table returns the name of the table the statement targets
func (b base) Table() string {
	return b.table
}

// Args returns nil; read statements have no bound values
func (b base) Args() []any {
	return nil
}

func (b base) sealed() {}

func invalid(format string, v ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidArguments, fmt.Sprintf(format, v...))
}

// requireFragment rejects blank column names and raw SQL fragments
func requireFragment(name, value string) error {
	if strings.TrimSpace(value) == "" {
		return invalid("%s is required", name)
	}
	return nil
}

// copyColumns validates a column list and returns a private copy of it
func copyColumns(columns []string) ([]string, error) {
	if len(columns) == 0 {
		return nil, invalid("at least one column is required")
	}
	out := make([]string, len(columns))
	for i, col := range columns {
		if strings.TrimSpace(col) == "" {
			return nil, invalid("column %d is empty", i)
		}
		out[i] = col
	}
	return out, nil
}

func joinColumns(columns []string) string {
	return strings.Join(columns, ", ")
}

// placeholders returns a parenthesised group of n "?" placeholders
func placeholders(n int) string {
	return "(" + strings.TrimSuffix(strings.Repeat("?, ", n), ", ") + ")"
}
