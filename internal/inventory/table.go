package inventory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"github.com/FreePeak/inventory-dashboard/pkg/db"
	"github.com/FreePeak/inventory-dashboard/pkg/request"
)

// Inventory errors
var (
	ErrNotLoaded     = errors.New("inventory not loaded")
	ErrUnknownRow    = errors.New("unknown row")
	ErrUnknownColumn = errors.New("unknown column")
	ErrDuplicateKey  = errors.New("duplicate key")
	ErrMissingKey    = errors.New("row has no key")
)

// Row is one table row keyed by column name
type Row map[string]interface{}

// Table is an in-memory copy of a database table
type Table struct {
	Columns []string `json:"columns"`
	Rows    []Row    `json:"rows"`
}

// Load reads every row of a table
func Load(ctx context.Context, r db.Runner, table string) (Table, error) {
	req, err := request.NewSelectAll(table)
	if err != nil {
		return Table{}, err
	}

	set, err := db.Fetch(ctx, r, req)
	if err != nil {
		return Table{}, err
	}

	t := Table{Columns: set.Columns, Rows: make([]Row, 0, len(set.Rows))}
	for _, values := range set.Rows {
		row := make(Row, len(set.Columns))
		for i, col := range set.Columns {
			row[col] = values[i]
		}
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}

// Clone returns a deep copy of the table
func (t Table) Clone() Table {
	c := Table{
		Columns: append([]string(nil), t.Columns...),
		Rows:    make([]Row, len(t.Rows)),
	}
	for i, row := range t.Rows {
		c.Rows[i] = row.clone()
	}
	return c
}

// HasColumn reports whether the table has the named column
func (t Table) HasColumn(name string) bool {
	for _, col := range t.Columns {
		if col == name {
			return true
		}
	}
	return false
}

// Find returns the position of the row whose key column prints as key
func (t Table) Find(keyColumn, key string) (int, bool) {
	for i, row := range t.Rows {
		if v, ok := row[keyColumn]; ok && KeyString(v) == key {
			return i, true
		}
	}
	return -1, false
}

// index maps the printed key of every row to its position
func (t Table) index(keyColumn string) (map[string]int, error) {
	idx := make(map[string]int, len(t.Rows))
	for i, row := range t.Rows {
		v, ok := row[keyColumn]
		if !ok || v == nil {
			return nil, fmt.Errorf("%w: row %d", ErrMissingKey, i)
		}
		k := KeyString(v)
		if _, dup := idx[k]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateKey, k)
		}
		idx[k] = i
	}
	return idx, nil
}

func (r Row) clone() Row {
	c := make(Row, len(r))
	for k, v := range r {
		c[k] = v
	}
	return c
}

// KeyString is the printed form used to identify a row by its key value
func KeyString(v interface{}) string {
	return fmt.Sprint(Normalize(v))
}

// Normalize converts numbers decoded from JSON into the integer form drivers
// return for integer columns. Other values are returned unchanged.
func Normalize(v interface{}) interface{} {
	switch n := v.(type) {
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return i
		}
		if f, err := n.Float64(); err == nil {
			return f
		}
		return n.String()
	case float64:
		if n == math.Trunc(n) && math.Abs(n) < 1<<53 {
			return int64(n)
		}
	case int:
		return int64(n)
	}
	return v
}

// sameValue compares two cell values by their printed form after
// normalisation, so that 5, int64(5) and json.Number("5") are equal
func sameValue(a, b interface{}) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return fmt.Sprint(Normalize(a)) == fmt.Sprint(Normalize(b))
}
