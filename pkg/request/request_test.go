package request

import (
	"errors"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// allVariants builds one valid request of every kind against the given table
func allVariants(t *testing.T, table string) []Request {
	t.Helper()

	var reqs []Request
	add := func(r Request, err error) {
		require.NoError(t, err)
		reqs = append(reqs, r)
	}

	add(NewSelectAll(table))
	add(NewSelectColumns(table, []string{"item", "quantity"}))
	add(NewFilterWhere(table, "quantity < 5"))
	add(NewSortOrderBy(table, "item", Desc))
	add(NewLimit(table, 10))
	add(NewPaginate(table, 20, 10))
	add(NewDistinct(table, "location"))
	add(NewAggregate(table, Sum, "quantity"))
	add(NewGroupBy(table, "subteam", Count, "item"))
	add(NewGroupByHaving(table, "subteam", Sum, "quantity", "SUM(quantity) > 100"))
	add(NewSubquery(table, "quantity", "SELECT MAX(quantity) FROM "+table))
	add(NewInsertOne(table, []string{"item", "quantity"}, []any{"bolt", 4}))
	add(NewInsertMany(table, []string{"item", "quantity"}, [][]any{{"bolt", 4}, {"nut", 8}}))
	add(NewUpdateData(table, map[string]any{"quantity": 3}, "hash_key = ?"))
	add(NewDeleteData(table, "quantity = 0"))

	return reqs
}

func TestQueries(t *testing.T) {
	tests := []struct {
		name  string
		build func() (Request, error)
		query string
	}{
		{
			name:  "select all",
			build: func() (Request, error) { return wrap(NewSelectAll("inventory")) },
			query: "SELECT * FROM inventory",
		},
		{
			name:  "select columns",
			build: func() (Request, error) { return wrap(NewSelectColumns("inventory", []string{"b", "a", "c"})) },
			query: "SELECT b, a, c FROM inventory",
		},
		{
			name:  "filter",
			build: func() (Request, error) { return wrap(NewFilterWhere("inventory", "quantity < 5")) },
			query: "SELECT * FROM inventory WHERE quantity < 5",
		},
		{
			name:  "sort",
			build: func() (Request, error) { return wrap(NewSortOrderBy("inventory", "item", Desc)) },
			query: "SELECT * FROM inventory ORDER BY item DESC",
		},
		{
			name:  "limit",
			build: func() (Request, error) { return wrap(NewLimit("inventory", 0)) },
			query: "SELECT * FROM inventory LIMIT 0",
		},
		{
			name:  "paginate",
			build: func() (Request, error) { return wrap(NewPaginate("inventory", 40, 20)) },
			query: "SELECT * FROM inventory LIMIT 40, 20",
		},
		{
			name:  "distinct",
			build: func() (Request, error) { return wrap(NewDistinct("inventory", "location")) },
			query: "SELECT DISTINCT location FROM inventory",
		},
		{
			name:  "aggregate",
			build: func() (Request, error) { return wrap(NewAggregate("inventory", Avg, "quantity")) },
			query: "SELECT AVG(quantity) FROM inventory",
		},
		{
			name:  "group by",
			build: func() (Request, error) { return wrap(NewGroupBy("inventory", "subteam", Max, "quantity")) },
			query: "SELECT subteam, MAX(quantity) FROM inventory GROUP BY subteam",
		},
		{
			name: "group by having",
			build: func() (Request, error) {
				return wrap(NewGroupByHaving("inventory", "subteam", Count, "item", "COUNT(item) > 2"))
			},
			query: "SELECT subteam, COUNT(item) FROM inventory GROUP BY subteam HAVING COUNT(item) > 2",
		},
		{
			name: "subquery",
			build: func() (Request, error) {
				return wrap(NewSubquery("inventory", "quantity", "SELECT MIN(quantity) FROM inventory"))
			},
			query: "SELECT * FROM inventory WHERE quantity = (SELECT MIN(quantity) FROM inventory)",
		},
		{
			name: "insert one",
			build: func() (Request, error) {
				return wrap(NewInsertOne("inventory", []string{"hash_key", "item", "quantity"}, []any{"k1", "bolt", 4}))
			},
			query: "INSERT INTO inventory (hash_key, item, quantity) VALUES (?, ?, ?)",
		},
		{
			name: "insert many",
			build: func() (Request, error) {
				return wrap(NewInsertMany("inventory", []string{"a", "b"}, [][]any{{1, 2}, {3, 4}}))
			},
			query: "INSERT INTO inventory (a, b) VALUES (?, ?), (?, ?)",
		},
		{
			name: "update",
			build: func() (Request, error) {
				return wrap(NewUpdateData("inventory", map[string]any{"quantity": 1, "item": "nut"}, "hash_key = ?"))
			},
			query: "UPDATE inventory SET item = ?, quantity = ? WHERE hash_key = ?",
		},
		{
			name:  "delete",
			build: func() (Request, error) { return wrap(NewDeleteData("inventory", "quantity = 0")) },
			query: "DELETE FROM inventory WHERE quantity = 0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := tt.build()
			require.NoError(t, err)
			assert.Equal(t, tt.query, req.Query())
		})
	}
}

func TestSelectColumnsPreservesOrder(t *testing.T) {
	columnSets := [][]string{
		{"id"},
		{"quantity", "item"},
		{"order_link", "hash_key", "location", "subteam"},
	}

	for _, cols := range columnSets {
		req, err := NewSelectColumns("inventory", cols)
		require.NoError(t, err)

		query := req.Query()
		selected := strings.TrimSuffix(strings.TrimPrefix(query, "SELECT "), " FROM inventory")
		assert.Equal(t, cols, strings.Split(selected, ", "))
	}
}

func TestSelectColumnsCopiesInput(t *testing.T) {
	cols := []string{"item", "quantity"}
	req, err := NewSelectColumns("inventory", cols)
	require.NoError(t, err)

	cols[0] = "changed"
	assert.Equal(t, "SELECT item, quantity FROM inventory", req.Query())

	got := req.Columns()
	got[1] = "changed"
	assert.Equal(t, []string{"item", "quantity"}, req.Columns())
}

func TestPaginateLimitForm(t *testing.T) {
	for _, tc := range [][2]int{{0, 0}, {0, 25}, {100, 1}, {7, 13}} {
		req, err := NewPaginate("inventory", tc[0], tc[1])
		require.NoError(t, err)
		assert.Contains(t, req.Query(), "LIMIT "+strconv.Itoa(tc[0])+", "+strconv.Itoa(tc[1]))
	}
}

func TestInsertManyGroups(t *testing.T) {
	req, err := NewInsertMany("inventory", []string{"a", "b"}, [][]any{{1, 2}, {3, 4}})
	require.NoError(t, err)

	assert.Equal(t, 2, strings.Count(req.Query(), "(?, ?)"))
	assert.Equal(t, []any{1, 2, 3, 4}, req.Args())

	_, err = NewInsertMany("inventory", []string{"a", "b"}, [][]any{{1, 2}, {3}})
	assert.True(t, errors.Is(err, ErrInvalidArguments))
}

func TestGroupByHavingOrdering(t *testing.T) {
	req, err := NewGroupByHaving("inventory", "location", Sum, "quantity", "SUM(quantity) > 10")
	require.NoError(t, err)

	query := req.Query()
	groupAt := strings.Index(query, "GROUP BY location")
	havingAt := strings.Index(query, "HAVING SUM(quantity) > 10")
	require.NotEqual(t, -1, groupAt)
	require.NotEqual(t, -1, havingAt)
	assert.Less(t, groupAt, havingAt)
}

func TestDescriptions(t *testing.T) {
	expected := []string{
		"Selects all rows and columns from the 'inventory' table.",
		"Selects the columns item, quantity from the 'inventory' table.",
		"Selects rows from the 'inventory' table where the condition 'quantity < 5' is met.",
		"Selects rows from the 'inventory' table and sorts them by 'item' in DESC order.",
		"Limits the results from the 'inventory' table to 10 rows.",
		"Paginates results from the 'inventory' table with an offset of 20 and a limit of 10.",
		"Selects distinct values from the 'location' column in the 'inventory' table.",
		"Performs the SUM function on the 'quantity' column in the 'inventory' table.",
		"Groups rows by 'subteam' and applies the COUNT function to the 'item' column in the 'inventory' table.",
		"Groups rows by 'subteam', applies the SUM function to the 'quantity' column, " +
			"and filters groups using the condition 'SUM(quantity) > 100' in the 'inventory' table.",
		"Uses a subquery to filter rows in the 'inventory' table where 'quantity' matches the result of the subquery.",
		"Inserts a row into the 'inventory' table with the columns item, quantity.",
		"Inserts 2 rows into the 'inventory' table with the columns item, quantity.",
		"Updates rows in the 'inventory' table where the condition 'hash_key = ?' is met.",
		"Deletes rows from the 'inventory' table where the condition 'quantity = 0' is met.",
	}

	reqs := allVariants(t, "inventory")
	require.Len(t, reqs, len(expected))
	for i, req := range reqs {
		t.Run(string(req.Kind()), func(t *testing.T) {
			assert.Equal(t, expected[i], req.Description())
		})
	}

	del, err := NewDeleteData("inventory", "hash_key = 'k1'")
	require.NoError(t, err)
	assert.Equal(t, "Deletes rows from the 'inventory' table where the condition 'hash_key = 'k1'' is met.", del.Description())
}

func TestIdempotence(t *testing.T) {
	for _, req := range allVariants(t, "inventory") {
		assert.Equal(t, req.Query(), req.Query(), req.Kind())
		assert.Equal(t, req.Description(), req.Description(), req.Kind())
		assert.Equal(t, req.Args(), req.Args(), req.Kind())
	}
}

func TestTableNameAppearsInOutput(t *testing.T) {
	for _, table := range []string{"inventory", "user", "parts_2024"} {
		for _, req := range allVariants(t, table) {
			assert.Equal(t, table, req.Table())
			assert.Contains(t, req.Query(), table, req.Kind())
			assert.Contains(t, req.Description(), table, req.Kind())
		}
	}
}

func TestEveryKindCovered(t *testing.T) {
	seen := map[Kind]bool{}
	for _, req := range allVariants(t, "inventory") {
		seen[req.Kind()] = true
	}
	for _, k := range Kinds {
		assert.True(t, seen[k], "no variant for %s", k)
	}
	assert.Len(t, seen, len(Kinds))
}

func TestWriteArgs(t *testing.T) {
	one, err := NewInsertOne("inventory", []string{"item", "quantity"}, []any{"bolt", 4})
	require.NoError(t, err)
	assert.Equal(t, []any{"bolt", 4}, one.Args())

	upd, err := NewUpdateData("inventory", map[string]any{"quantity": 9, "location": "shelf", "item": "nut"}, "hash_key = ?")
	require.NoError(t, err)
	assert.Equal(t, "UPDATE inventory SET item = ?, location = ?, quantity = ? WHERE hash_key = ?", upd.Query())
	assert.Equal(t, []any{"nut", "shelf", 9}, upd.Args())

	sel, err := NewSelectAll("inventory")
	require.NoError(t, err)
	assert.Nil(t, sel.Args())
	assert.False(t, sel.Kind().IsWrite())
	assert.True(t, upd.Kind().IsWrite())
}

func TestUpdateDataCopiesSet(t *testing.T) {
	set := map[string]any{"quantity": 1}
	req, err := NewUpdateData("inventory", set, "id = 1")
	require.NoError(t, err)

	set["item"] = "added later"
	set["quantity"] = 2
	assert.Equal(t, "UPDATE inventory SET quantity = ? WHERE id = 1", req.Query())
	assert.Equal(t, []any{1}, req.Args())
}

func TestInvalidArguments(t *testing.T) {
	tests := []struct {
		name  string
		build func() (Request, error)
	}{
		{"empty table", func() (Request, error) { return wrap(NewSelectAll("")) }},
		{"blank table", func() (Request, error) { return wrap(NewSelectAll("   ")) }},
		{"no columns", func() (Request, error) { return wrap(NewSelectColumns("t", nil)) }},
		{"empty column", func() (Request, error) { return wrap(NewSelectColumns("t", []string{"a", ""})) }},
		{"empty condition", func() (Request, error) { return wrap(NewFilterWhere("t", "")) }},
		{"bad direction", func() (Request, error) { return wrap(NewSortOrderBy("t", "a", Direction("UP"))) }},
		{"negative limit", func() (Request, error) { return wrap(NewLimit("t", -1)) }},
		{"negative offset", func() (Request, error) { return wrap(NewPaginate("t", -1, 10)) }},
		{"negative page size", func() (Request, error) { return wrap(NewPaginate("t", 0, -10)) }},
		{"empty distinct column", func() (Request, error) { return wrap(NewDistinct("t", "")) }},
		{"bad function", func() (Request, error) { return wrap(NewAggregate("t", AggregateFunc("MEDIAN"), "a")) }},
		{"empty group column", func() (Request, error) { return wrap(NewGroupBy("t", "", Sum, "a")) }},
		{"empty having", func() (Request, error) { return wrap(NewGroupByHaving("t", "g", Sum, "a", " ")) }},
		{"empty subquery", func() (Request, error) { return wrap(NewSubquery("t", "a", "")) }},
		{"insert arity", func() (Request, error) { return wrap(NewInsertOne("t", []string{"a", "b"}, []any{1})) }},
		{"insert many no rows", func() (Request, error) { return wrap(NewInsertMany("t", []string{"a"}, nil)) }},
		{"insert many arity", func() (Request, error) {
			return wrap(NewInsertMany("t", []string{"a", "b"}, [][]any{{1}}))
		}},
		{"update nothing", func() (Request, error) { return wrap(NewUpdateData("t", map[string]any{}, "id = 1")) }},
		{"update no condition", func() (Request, error) { return wrap(NewUpdateData("t", map[string]any{"a": 1}, "")) }},
		{"delete no condition", func() (Request, error) { return wrap(NewDeleteData("t", "")) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := tt.build()
			assert.Nil(t, req)
			assert.True(t, errors.Is(err, ErrInvalidArguments), "got %v", err)
		})
	}
}

func TestParsers(t *testing.T) {
	dir, err := ParseDirection("desc")
	assert.NoError(t, err)
	assert.Equal(t, Desc, dir)

	dir, err = ParseDirection("")
	assert.NoError(t, err)
	assert.Equal(t, Asc, dir)

	_, err = ParseDirection("sideways")
	assert.ErrorIs(t, err, ErrInvalidArguments)

	fn, err := ParseAggregateFunc(" avg ")
	assert.NoError(t, err)
	assert.Equal(t, Avg, fn)

	_, err = ParseAggregateFunc("median")
	assert.ErrorIs(t, err, ErrInvalidArguments)
}

func TestBuild(t *testing.T) {
	req, err := Build(Params{
		Kind:        KindGroupByHaving,
		Table:       "inventory",
		GroupColumn: "subteam",
		Function:    "sum",
		Column:      "quantity",
		Having:      "SUM(quantity) > 3",
	})
	require.NoError(t, err)
	assert.Equal(t, KindGroupByHaving, req.Kind())
	assert.Equal(t, "SELECT subteam, SUM(quantity) FROM inventory GROUP BY subteam HAVING SUM(quantity) > 3", req.Query())

	req, err = Build(Params{Kind: KindInsertMany, Table: "inventory", Columns: []string{"a"}, Rows: [][]any{{1}, {2}}})
	require.NoError(t, err)
	assert.Equal(t, "INSERT INTO inventory (a) VALUES (?), (?)", req.Query())

	req, err = Build(Params{Kind: KindSort, Table: "inventory", Column: "item"})
	require.NoError(t, err)
	assert.Equal(t, "SELECT * FROM inventory ORDER BY item ASC", req.Query())

	req, err = Build(Params{Kind: KindSelectAll})
	assert.Nil(t, req)
	assert.ErrorIs(t, err, ErrInvalidArguments)

	req, err = Build(Params{Kind: "merge", Table: "inventory"})
	assert.Nil(t, req)
	assert.ErrorIs(t, err, ErrUnimplemented)
}

func TestBuildEveryKind(t *testing.T) {
	params := map[Kind]Params{
		KindSelectAll:     {Table: "t"},
		KindSelectColumns: {Table: "t", Columns: []string{"a"}},
		KindFilter:        {Table: "t", Condition: "a = 1"},
		KindSort:          {Table: "t", Column: "a", Direction: "DESC"},
		KindLimit:         {Table: "t", Limit: 3},
		KindPaginate:      {Table: "t", Offset: 3, Limit: 3},
		KindDistinct:      {Table: "t", Column: "a"},
		KindAggregate:     {Table: "t", Function: "COUNT", Column: "a"},
		KindGroupBy:       {Table: "t", GroupColumn: "g", Function: "MIN", Column: "a"},
		KindGroupByHaving: {Table: "t", GroupColumn: "g", Function: "MIN", Column: "a", Having: "MIN(a) > 0"},
		KindSubquery:      {Table: "t", Column: "a", Subquery: "SELECT 1"},
		KindInsertOne:     {Table: "t", Columns: []string{"a"}, Values: []any{1}},
		KindInsertMany:    {Table: "t", Columns: []string{"a"}, Rows: [][]any{{1}}},
		KindUpdate:        {Table: "t", Set: map[string]any{"a": 1}, Condition: "a = 0"},
		KindDelete:        {Table: "t", Condition: "a = 0"},
	}

	for _, k := range Kinds {
		p, ok := params[k]
		require.True(t, ok, "missing params for %s", k)
		p.Kind = k

		req, err := Build(p)
		require.NoError(t, err, k)
		assert.Equal(t, k, req.Kind())
	}
}
