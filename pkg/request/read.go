package request

import (
	"fmt"
	"strings"
)

// Direction is a sort order
type Direction string

const (
	// Asc sorts in ascending order
	Asc Direction = "ASC"
	// Desc sorts in descending order
	Desc Direction = "DESC"
)

// ParseDirection converts a case-insensitive string into a Direction.
// An empty string yields Asc.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "", "ASC":
		return Asc, nil
	case "DESC":
		return Desc, nil
	default:
		return "", invalid("unknown sort direction %q", s)
	}
}

// SelectAll selects every row and column of a table
type SelectAll struct {
	base
}

// NewSelectAll creates a SelectAll request
func NewSelectAll(table string) (*SelectAll, error) {
	b, err := newBase(table)
	if err != nil {
		return nil, err
	}
	return &SelectAll{base: b}, nil
}

func (r *SelectAll) Kind() Kind { return KindSelectAll }

func (r *SelectAll) Query() string {
	return "SELECT * FROM " + r.table
}

func (r *SelectAll) Description() string {
	return fmt.Sprintf("Selects all rows and columns from the '%s' table.", r.table)
}

// SelectColumns selects a list of columns, in the given order
type SelectColumns struct {
	base
	columns []string
}

// NewSelectColumns creates a SelectColumns request
func NewSelectColumns(table string, columns []string) (*SelectColumns, error) {
	b, err := newBase(table)
	if err != nil {
		return nil, err
	}
	cols, err := copyColumns(columns)
	if err != nil {
		return nil, err
	}
	return &SelectColumns{base: b, columns: cols}, nil
}

// Columns returns a copy of the selected columns
func (r *SelectColumns) Columns() []string {
	return append([]string(nil), r.columns...)
}

func (r *SelectColumns) Kind() Kind { return KindSelectColumns }

func (r *SelectColumns) Query() string {
	return fmt.Sprintf("SELECT %s FROM %s", joinColumns(r.columns), r.table)
}

func (r *SelectColumns) Description() string {
	return fmt.Sprintf("Selects the columns %s from the '%s' table.", joinColumns(r.columns), r.table)
}

// FilterWhere selects the rows matching a raw SQL condition
type FilterWhere struct {
	base
	condition string
}

// NewFilterWhere creates a FilterWhere request
func NewFilterWhere(table, condition string) (*FilterWhere, error) {
	b, err := newBase(table)
	if err != nil {
		return nil, err
	}
	if err := requireFragment("condition", condition); err != nil {
		return nil, err
	}
	return &FilterWhere{base: b, condition: condition}, nil
}

func (r *FilterWhere) Kind() Kind { return KindFilter }

func (r *FilterWhere) Query() string {
	return fmt.Sprintf("SELECT * FROM %s WHERE %s", r.table, r.condition)
}

func (r *FilterWhere) Description() string {
	return fmt.Sprintf("Selects rows from the '%s' table where the condition '%s' is met.", r.table, r.condition)
}

// SortOrderBy selects every row sorted by one column
type SortOrderBy struct {
	base
	column    string
	direction Direction
}

// NewSortOrderBy creates a SortOrderBy request
func NewSortOrderBy(table, column string, direction Direction) (*SortOrderBy, error) {
	b, err := newBase(table)
	if err != nil {
		return nil, err
	}
	if err := requireFragment("sort column", column); err != nil {
		return nil, err
	}
	if direction != Asc && direction != Desc {
		return nil, invalid("unknown sort direction %q", direction)
	}
	return &SortOrderBy{base: b, column: column, direction: direction}, nil
}

func (r *SortOrderBy) Kind() Kind { return KindSort }

func (r *SortOrderBy) Query() string {
	return fmt.Sprintf("SELECT * FROM %s ORDER BY %s %s", r.table, r.column, r.direction)
}

func (r *SortOrderBy) Description() string {
	return fmt.Sprintf("Selects rows from the '%s' table and sorts them by '%s' in %s order.", r.table, r.column, r.direction)
}

// Limit caps the number of rows returned
type Limit struct {
	base
	limit int
}

// NewLimit creates a Limit request
func NewLimit(table string, limit int) (*Limit, error) {
	b, err := newBase(table)
	if err != nil {
		return nil, err
	}
	if limit < 0 {
		return nil, invalid("limit must not be negative, got %d", limit)
	}
	return &Limit{base: b, limit: limit}, nil
}

func (r *Limit) Kind() Kind { return KindLimit }

func (r *Limit) Query() string {
	return fmt.Sprintf("SELECT * FROM %s LIMIT %d", r.table, r.limit)
}

func (r *Limit) Description() string {
	return fmt.Sprintf("Limits the results from the '%s' table to %d rows.", r.table, r.limit)
}

// Paginate returns one page of rows using the "LIMIT offset, count" form
type Paginate struct {
	base
	offset int
	limit  int
}

// NewPaginate creates a Paginate request
func NewPaginate(table string, offset, limit int) (*Paginate, error) {
	b, err := newBase(table)
	if err != nil {
		return nil, err
	}
	if offset < 0 {
		return nil, invalid("offset must not be negative, got %d", offset)
	}
	if limit < 0 {
		return nil, invalid("limit must not be negative, got %d", limit)
	}
	return &Paginate{base: b, offset: offset, limit: limit}, nil
}

func (r *Paginate) Kind() Kind { return KindPaginate }

func (r *Paginate) Query() string {
	return fmt.Sprintf("SELECT * FROM %s LIMIT %d, %d", r.table, r.offset, r.limit)
}

func (r *Paginate) Description() string {
	return fmt.Sprintf("Paginates results from the '%s' table with an offset of %d and a limit of %d.", r.table, r.offset, r.limit)
}

// Distinct selects the distinct values of one column
type Distinct struct {
	base
	column string
}

// NewDistinct creates a Distinct request
func NewDistinct(table, column string) (*Distinct, error) {
	b, err := newBase(table)
	if err != nil {
		return nil, err
	}
	if err := requireFragment("column", column); err != nil {
		return nil, err
	}
	return &Distinct{base: b, column: column}, nil
}

func (r *Distinct) Kind() Kind { return KindDistinct }

func (r *Distinct) Query() string {
	return fmt.Sprintf("SELECT DISTINCT %s FROM %s", r.column, r.table)
}

func (r *Distinct) Description() string {
	return fmt.Sprintf("Selects distinct values from the '%s' column in the '%s' table.", r.column, r.table)
}

// Subquery selects the rows whose column equals the result of a nested query
type Subquery struct {
	base
	column   string
	subquery string
}

// NewSubquery creates a Subquery request. The nested query is raw SQL.
func NewSubquery(table, column, subquery string) (*Subquery, error) {
	b, err := newBase(table)
	if err != nil {
		return nil, err
	}
	if err := requireFragment("column", column); err != nil {
		return nil, err
	}
	if err := requireFragment("subquery", subquery); err != nil {
		return nil, err
	}
	return &Subquery{base: b, column: column, subquery: subquery}, nil
}

func (r *Subquery) Kind() Kind { return KindSubquery }

func (r *Subquery) Query() string {
	return fmt.Sprintf("SELECT * FROM %s WHERE %s = (%s)", r.table, r.column, r.subquery)
}

func (r *Subquery) Description() string {
	return fmt.Sprintf("Uses a subquery to filter rows in the '%s' table where '%s' matches the result of the subquery.", r.table, r.column)
}
