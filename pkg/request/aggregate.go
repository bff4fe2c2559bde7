package request

import (
	"fmt"
	"strings"
)

// AggregateFunc is a SQL aggregate function
type AggregateFunc string

const (
	Count AggregateFunc = "COUNT"
	Sum   AggregateFunc = "SUM"
	Avg   AggregateFunc = "AVG"
	Min   AggregateFunc = "MIN"
	Max   AggregateFunc = "MAX"
)

// ParseAggregateFunc converts a case-insensitive function name into an AggregateFunc
func ParseAggregateFunc(s string) (AggregateFunc, error) {
	fn := AggregateFunc(strings.ToUpper(strings.TrimSpace(s)))
	if !fn.valid() {
		return "", invalid("unknown aggregate function %q", s)
	}
	return fn, nil
}

func (f AggregateFunc) valid() bool {
	switch f {
	case Count, Sum, Avg, Min, Max:
		return true
	}
	return false
}

// aggregation is the "FN(column)" part shared by the aggregate variants
type aggregation struct {
	function AggregateFunc
	column   string
}

func newAggregation(function AggregateFunc, column string) (aggregation, error) {
	if !function.valid() {
		return aggregation{}, invalid("unknown aggregate function %q", function)
	}
	if err := requireFragment("aggregate column", column); err != nil {
		return aggregation{}, err
	}
	return aggregation{function: function, column: column}, nil
}

func (a aggregation) expr() string {
	return fmt.Sprintf("%s(%s)", a.function, a.column)
}

// Aggregate applies an aggregate function to one column of the whole table
type Aggregate struct {
	base
	aggregation
}

// NewAggregate creates an Aggregate request
func NewAggregate(table string, function AggregateFunc, column string) (*Aggregate, error) {
	b, err := newBase(table)
	if err != nil {
		return nil, err
	}
	agg, err := newAggregation(function, column)
	if err != nil {
		return nil, err
	}
	return &Aggregate{base: b, aggregation: agg}, nil
}

func (r *Aggregate) Kind() Kind { return KindAggregate }

func (r *Aggregate) Query() string {
	return fmt.Sprintf("SELECT %s FROM %s", r.expr(), r.table)
}

func (r *Aggregate) Description() string {
	return fmt.Sprintf("Performs the %s function on the '%s' column in the '%s' table.", r.function, r.column, r.table)
}

// GroupBy groups rows by a column and aggregates another column per group
type GroupBy struct {
	base
	aggregation
	groupColumn string
}

// NewGroupBy creates a GroupBy request
func NewGroupBy(table, groupColumn string, function AggregateFunc, column string) (*GroupBy, error) {
	b, err := newBase(table)
	if err != nil {
		return nil, err
	}
	if err := requireFragment("group column", groupColumn); err != nil {
		return nil, err
	}
	agg, err := newAggregation(function, column)
	if err != nil {
		return nil, err
	}
	return &GroupBy{base: b, aggregation: agg, groupColumn: groupColumn}, nil
}

func (r *GroupBy) Kind() Kind { return KindGroupBy }

func (r *GroupBy) Query() string {
	return fmt.Sprintf("SELECT %s, %s FROM %s GROUP BY %s", r.groupColumn, r.expr(), r.table, r.groupColumn)
}

func (r *GroupBy) Description() string {
	return fmt.Sprintf("Groups rows by '%s' and applies the %s function to the '%s' column in the '%s' table.",
		r.groupColumn, r.function, r.column, r.table)
}

// GroupByHaving is a GroupBy whose groups are filtered by a raw HAVING condition
type GroupByHaving struct {
	GroupBy
	having string
}

// NewGroupByHaving creates a GroupByHaving request
func NewGroupByHaving(table, groupColumn string, function AggregateFunc, column, having string) (*GroupByHaving, error) {
	g, err := NewGroupBy(table, groupColumn, function, column)
	if err != nil {
		return nil, err
	}
	if err := requireFragment("having condition", having); err != nil {
		return nil, err
	}
	return &GroupByHaving{GroupBy: *g, having: having}, nil
}

func (r *GroupByHaving) Kind() Kind { return KindGroupByHaving }

func (r *GroupByHaving) Query() string {
	return fmt.Sprintf("%s HAVING %s", r.GroupBy.Query(), r.having)
}

func (r *GroupByHaving) Description() string {
	return fmt.Sprintf("Groups rows by '%s', applies the %s function to the '%s' column, and filters groups using the condition '%s' in the '%s' table.",
		r.groupColumn, r.function, r.column, r.having, r.table)
}
