package request

import (
	"fmt"
	"sort"
	"strings"
)

// InsertOne inserts a single row
type InsertOne struct {
	base
	columns []string
	values  []any
}

// NewInsertOne creates an InsertOne request. columns and values must have the
// same length and are matched by position.
func NewInsertOne(table string, columns []string, values []any) (*InsertOne, error) {
	b, err := newBase(table)
	if err != nil {
		return nil, err
	}
	cols, err := copyColumns(columns)
	if err != nil {
		return nil, err
	}
	if len(values) != len(cols) {
		return nil, invalid("got %d values for %d columns", len(values), len(cols))
	}
	return &InsertOne{base: b, columns: cols, values: append([]any(nil), values...)}, nil
}

func (r *InsertOne) Kind() Kind { return KindInsertOne }

func (r *InsertOne) Query() string {
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES %s", r.table, joinColumns(r.columns), placeholders(len(r.columns)))
}

func (r *InsertOne) Description() string {
	return fmt.Sprintf("Inserts a row into the '%s' table with the columns %s.", r.table, joinColumns(r.columns))
}

// Args returns the row values in column order
func (r *InsertOne) Args() []any {
	return append([]any(nil), r.values...)
}

// InsertMany inserts several rows with a single statement
type InsertMany struct {
	base
	columns []string
	rows    [][]any
}

// NewInsertMany creates an InsertMany request. Every row must have exactly
// one value per column.
func NewInsertMany(table string, columns []string, rows [][]any) (*InsertMany, error) {
	b, err := newBase(table)
	if err != nil {
		return nil, err
	}
	cols, err := copyColumns(columns)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, invalid("at least one row is required")
	}

	copied := make([][]any, len(rows))
	for i, row := range rows {
		if len(row) != len(cols) {
			return nil, invalid("row %d has %d values for %d columns", i, len(row), len(cols))
		}
		copied[i] = append([]any(nil), row...)
	}

	return &InsertMany{base: b, columns: cols, rows: copied}, nil
}

func (r *InsertMany) Kind() Kind { return KindInsertMany }

func (r *InsertMany) Query() string {
	group := placeholders(len(r.columns))
	groups := make([]string, len(r.rows))
	for i := range r.rows {
		groups[i] = group
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES %s", r.table, joinColumns(r.columns), strings.Join(groups, ", "))
}

func (r *InsertMany) Description() string {
	return fmt.Sprintf("Inserts %d rows into the '%s' table with the columns %s.", len(r.rows), r.table, joinColumns(r.columns))
}

// Args returns the values of every row, flattened in row order
func (r *InsertMany) Args() []any {
	args := make([]any, 0, len(r.rows)*len(r.columns))
	for _, row := range r.rows {
		args = append(args, row...)
	}
	return args
}

// UpdateData sets columns on the rows matching a raw SQL condition
type UpdateData struct {
	base
	columns   []string
	values    []any
	condition string
}

// NewUpdateData creates an UpdateData request. Assignments are rendered in
// ascending column order and Args follows the same order. Placeholders inside
// condition are not counted; their values go after Args when executing.
func NewUpdateData(table string, set map[string]any, condition string) (*UpdateData, error) {
	b, err := newBase(table)
	if err != nil {
		return nil, err
	}
	if len(set) == 0 {
		return nil, invalid("at least one column to set is required")
	}
	if err := requireFragment("condition", condition); err != nil {
		return nil, err
	}

	columns := make([]string, 0, len(set))
	for col := range set {
		if strings.TrimSpace(col) == "" {
			return nil, invalid("set column name is empty")
		}
		columns = append(columns, col)
	}
	sort.Strings(columns)

	values := make([]any, len(columns))
	for i, col := range columns {
		values[i] = set[col]
	}

	return &UpdateData{base: b, columns: columns, values: values, condition: condition}, nil
}

func (r *UpdateData) Kind() Kind { return KindUpdate }

func (r *UpdateData) Query() string {
	assignments := make([]string, len(r.columns))
	for i, col := range r.columns {
		assignments[i] = col + " = ?"
	}
	return fmt.Sprintf("UPDATE %s SET %s WHERE %s", r.table, strings.Join(assignments, ", "), r.condition)
}

func (r *UpdateData) Description() string {
	return fmt.Sprintf("Updates rows in the '%s' table where the condition '%s' is met.", r.table, r.condition)
}

// Args returns the values to set, in the same order as the SET clause
func (r *UpdateData) Args() []any {
	return append([]any(nil), r.values...)
}

// DeleteData deletes the rows matching a raw SQL condition
type DeleteData struct {
	base
	condition string
}

// NewDeleteData creates a DeleteData request
func NewDeleteData(table, condition string) (*DeleteData, error) {
	b, err := newBase(table)
	if err != nil {
		return nil, err
	}
	if err := requireFragment("condition", condition); err != nil {
		return nil, err
	}
	return &DeleteData{base: b, condition: condition}, nil
}

func (r *DeleteData) Kind() Kind { return KindDelete }

func (r *DeleteData) Query() string {
	return fmt.Sprintf("DELETE FROM %s WHERE %s", r.table, r.condition)
}

func (r *DeleteData) Description() string {
	return fmt.Sprintf("Deletes rows from the '%s' table where the condition '%s' is met.", r.table, r.condition)
}
