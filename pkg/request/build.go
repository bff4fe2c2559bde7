package request

import "fmt"

// Params is the generic, serialisable description of a request.
// Only the fields relevant to Kind are read.
type Params struct {
	Kind        Kind           `json:"kind"`
	Table       string         `json:"table"`
	Columns     []string       `json:"columns,omitempty"`
	Column      string         `json:"column,omitempty"`
	Condition   string         `json:"condition,omitempty"`
	Direction   string         `json:"direction,omitempty"`
	Function    string         `json:"function,omitempty"`
	GroupColumn string         `json:"groupColumn,omitempty"`
	Having      string         `json:"having,omitempty"`
	Subquery    string         `json:"subquery,omitempty"`
	Limit       int            `json:"limit,omitempty"`
	Offset      int            `json:"offset,omitempty"`
	Values      []any          `json:"values,omitempty"`
	Rows        [][]any        `json:"rows,omitempty"`
	Set         map[string]any `json:"set,omitempty"`
}

// wrap keeps a failed constructor from yielding a non-nil Request holding a nil pointer
func wrap(r Request, err error) (Request, error) {
	if err != nil {
		return nil, err
	}
	return r, nil
}

// Build constructs the request described by p
func Build(p Params) (Request, error) {
	switch p.Kind {
	case KindSelectAll:
		return wrap(NewSelectAll(p.Table))
	case KindSelectColumns:
		return wrap(NewSelectColumns(p.Table, p.Columns))
	case KindFilter:
		return wrap(NewFilterWhere(p.Table, p.Condition))
	case KindSort:
		dir, err := ParseDirection(p.Direction)
		if err != nil {
			return nil, err
		}
		return wrap(NewSortOrderBy(p.Table, p.Column, dir))
	case KindLimit:
		return wrap(NewLimit(p.Table, p.Limit))
	case KindPaginate:
		return wrap(NewPaginate(p.Table, p.Offset, p.Limit))
	case KindDistinct:
		return wrap(NewDistinct(p.Table, p.Column))
	case KindAggregate:
		fn, err := ParseAggregateFunc(p.Function)
		if err != nil {
			return nil, err
		}
		return wrap(NewAggregate(p.Table, fn, p.Column))
	case KindGroupBy:
		fn, err := ParseAggregateFunc(p.Function)
		if err != nil {
			return nil, err
		}
		return wrap(NewGroupBy(p.Table, p.GroupColumn, fn, p.Column))
	case KindGroupByHaving:
		fn, err := ParseAggregateFunc(p.Function)
		if err != nil {
			return nil, err
		}
		return wrap(NewGroupByHaving(p.Table, p.GroupColumn, fn, p.Column, p.Having))
	case KindSubquery:
		return wrap(NewSubquery(p.Table, p.Column, p.Subquery))
	case KindInsertOne:
		return wrap(NewInsertOne(p.Table, p.Columns, p.Values))
	case KindInsertMany:
		return wrap(NewInsertMany(p.Table, p.Columns, p.Rows))
	case KindUpdate:
		return wrap(NewUpdateData(p.Table, p.Set, p.Condition))
	case KindDelete:
		return wrap(NewDeleteData(p.Table, p.Condition))
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnimplemented, p.Kind)
	}
}
