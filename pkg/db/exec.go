package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/FreePeak/inventory-dashboard/internal/logger"
	"github.com/FreePeak/inventory-dashboard/pkg/request"
)

// Runner executes statements. Both Database and Tx satisfy it.
type Runner interface {
	Query(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	Exec(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// ResultSet holds every row returned by a read request
type ResultSet struct {
	Columns []string        `json:"columns"`
	Rows    [][]interface{} `json:"rows"`
}

// Tx is a transaction that rewrites placeholders the same way Database does
type Tx struct {
	tx         *sql.Tx
	driverName string
}

// Query executes a query that returns rows inside the transaction
func (t *Tx) Query(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	return t.tx.QueryContext(ctx, Rebind(t.driverName, query), args...)
}

// Exec executes a statement inside the transaction
func (t *Tx) Exec(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	return t.tx.ExecContext(ctx, Rebind(t.driverName, query), args...)
}

// WithTx runs fn inside a transaction. The transaction is rolled back when fn
// returns an error or panics, and committed otherwise.
func WithTx(ctx context.Context, d Database, fn func(tx *Tx) error) (err error) {
	sqlTx, err := d.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			if rbErr := sqlTx.Rollback(); rbErr != nil {
				logger.Error("Failed to roll back transaction: %v", rbErr)
			}
			panic(p)
		}
	}()

	if err := fn(&Tx{tx: sqlTx, driverName: d.DriverName()}); err != nil {
		if rbErr := sqlTx.Rollback(); rbErr != nil {
			logger.Error("Failed to roll back transaction: %v", rbErr)
		}
		return err
	}

	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Run executes a request that does not return rows. extra values are bound
// after the request's own arguments, for placeholders in raw conditions.
func Run(ctx context.Context, r Runner, req request.Request, extra ...interface{}) (sql.Result, error) {
	args := append(req.Args(), extra...)
	logger.StatementLog(req.Description(), req.Query(), args)

	start := time.Now()
	result, err := r.Exec(ctx, req.Query(), args...)
	DefaultTracker.Record(req.Query(), args, time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("failed to execute %s on %s: %w", req.Kind(), req.Table(), err)
	}
	return result, nil
}

// Fetch executes a request that returns rows and reads all of them.
// []byte column values are converted to strings.
func Fetch(ctx context.Context, r Runner, req request.Request, extra ...interface{}) (*ResultSet, error) {
	args := append(req.Args(), extra...)
	logger.StatementLog(req.Description(), req.Query(), args)

	start := time.Now()
	rows, err := r.Query(ctx, req.Query(), args...)
	if err != nil {
		DefaultTracker.Record(req.Query(), args, time.Since(start), err)
		return nil, fmt.Errorf("failed to query %s on %s: %w", req.Kind(), req.Table(), err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			logger.Error("error closing rows: %v", err)
		}
	}()

	set, err := scanRows(rows)
	DefaultTracker.Record(req.Query(), args, time.Since(start), err)
	return set, err
}

func scanRows(rows *sql.Rows) (*ResultSet, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to get column names: %w", err)
	}

	result := &ResultSet{Columns: columns, Rows: [][]interface{}{}}
	for rows.Next() {
		values := make([]interface{}, len(columns))
		pointers := make([]interface{}, len(columns))
		for i := range values {
			pointers[i] = &values[i]
		}

		if err := rows.Scan(pointers...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		for i, v := range values {
			if b, ok := v.([]byte); ok {
				values[i] = string(b)
			}
		}
		result.Rows = append(result.Rows, values)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return result, nil
}
