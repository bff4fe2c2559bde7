package inventory

import (
	"strings"

	"github.com/FreePeak/inventory-dashboard/pkg/request"
)

// RowUpdate holds the changed cells of one existing row
type RowUpdate struct {
	Key interface{} `json:"key"`
	Set Row         `json:"set"`
}

// Changes is the difference between an original and an edited table
type Changes struct {
	Updates []RowUpdate   `json:"updates"`
	Inserts []Row         `json:"inserts"`
	Deletes []interface{} `json:"deletes"`
}

// Empty reports whether there is nothing to apply
func (c Changes) Empty() bool {
	return len(c.Updates) == 0 && len(c.Inserts) == 0 && len(c.Deletes) == 0
}

// Statement is a request plus the values for placeholders in its condition
type Statement struct {
	Request request.Request
	Extra   []interface{}
}

// Diff compares two versions of a table row by row, matching rows on the key
// column. Changed cells of rows present in both become updates, rows only in
// edited become inserts and rows only in original become deletes.
// An edited row that lacks a column its original has was deleted and inserted
// again under the same key. It becomes a delete plus an insert, so the omitted
// columns take their database defaults instead of keeping the old values.
// Updates and inserts follow the order of edited, deletes the order of original.
func Diff(original, edited Table, keyColumn string) (Changes, error) {
	changes := Changes{}

	origIdx, err := original.index(keyColumn)
	if err != nil {
		return changes, err
	}
	editIdx, err := edited.index(keyColumn)
	if err != nil {
		return changes, err
	}

	replaced := map[string]bool{}
	for _, row := range edited.Rows {
		key := KeyString(row[keyColumn])
		i, ok := origIdx[key]
		if !ok {
			changes.Inserts = append(changes.Inserts, row.clone())
			continue
		}

		before := original.Rows[i]
		if omitsColumns(before, row) {
			replaced[key] = true
			changes.Inserts = append(changes.Inserts, row.clone())
			continue
		}

		set := Row{}
		for _, col := range edited.Columns {
			if col == keyColumn {
				continue
			}
			after, present := row[col]
			if !present {
				continue
			}
			if !sameValue(before[col], after) {
				set[col] = after
			}
		}
		if len(set) > 0 {
			changes.Updates = append(changes.Updates, RowUpdate{Key: before[keyColumn], Set: set})
		}
	}

	for _, row := range original.Rows {
		key := KeyString(row[keyColumn])
		if _, ok := editIdx[key]; !ok || replaced[key] {
			changes.Deletes = append(changes.Deletes, row[keyColumn])
		}
	}

	return changes, nil
}

// omitsColumns reports whether after is missing a column that before has
func omitsColumns(before, after Row) bool {
	for col := range before {
		if _, ok := after[col]; !ok {
			return true
		}
	}
	return false
}

// Statements turns the changes into requests against table. Deletes come
// first, then updates, then inserts. Inserts are batched per distinct set of
// columns, in the column order of columns.
func (c Changes) Statements(table, keyColumn string, columns []string) ([]Statement, error) {
	var stmts []Statement
	condition := keyColumn + " = ?"

	for _, key := range c.Deletes {
		req, err := request.NewDeleteData(table, condition)
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, Statement{Request: req, Extra: []interface{}{key}})
	}

	for _, u := range c.Updates {
		req, err := request.NewUpdateData(table, u.Set, condition)
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, Statement{Request: req, Extra: []interface{}{u.Key}})
	}

	type batch struct {
		columns []string
		rows    [][]any
	}
	var batches []*batch
	bySignature := map[string]*batch{}

	for _, row := range c.Inserts {
		var cols []string
		for _, col := range columns {
			if _, ok := row[col]; ok {
				cols = append(cols, col)
			}
		}

		sig := strings.Join(cols, "\x00")
		b, ok := bySignature[sig]
		if !ok {
			b = &batch{columns: cols}
			bySignature[sig] = b
			batches = append(batches, b)
		}

		values := make([]any, len(cols))
		for i, col := range cols {
			values[i] = row[col]
		}
		b.rows = append(b.rows, values)
	}

	for _, b := range batches {
		req, err := request.NewInsertMany(table, b.columns, b.rows)
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, Statement{Request: req})
	}

	return stmts, nil
}
