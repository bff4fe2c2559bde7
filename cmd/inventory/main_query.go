package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/FreePeak/inventory-dashboard/internal/inventory"
	"github.com/FreePeak/inventory-dashboard/internal/logger"
	"github.com/FreePeak/inventory-dashboard/pkg/db"
	"github.com/FreePeak/inventory-dashboard/pkg/request"
)

// Output formats for query results
const (
	formatTable = "table"
	formatJSON  = "json"
)

type cmdQuery struct {
	global *cmdGlobal

	flagKind        string
	flagTable       string
	flagColumns     []string
	flagColumn      string
	flagCondition   string
	flagDirection   string
	flagFunction    string
	flagGroupColumn string
	flagHaving      string
	flagSubquery    string
	flagLimit       int
	flagOffset      int
	flagValues      string
	flagRows        string
	flagSet         string
	flagArgs        string
	flagExec        bool
	flagFormat      string
}

func (c *cmdQuery) command() *cobra.Command {
	kinds := make([]string, len(request.Kinds))
	for i, k := range request.Kinds {
		kinds[i] = string(k)
	}

	cmd := &cobra.Command{
		Use:   "query",
		Short: "Build a structured request and optionally execute it",
		Long: `Build a request of the given kind and print its SQL and description.

With --exec the request is run against the configured database. Rows are
printed for reads and the number of affected rows for writes.

Kinds: ` + strings.Join(kinds, ", "),
		Example: `  inventory query --kind filter --condition "quantity < 5"
  inventory query --kind update --set '{"quantity": 0}' --condition "hash_key = ?" --args '["a1"]' --exec`,
		Args: cobra.NoArgs,
		RunE: c.run,
	}

	flags := cmd.Flags()
	flags.StringVar(&c.flagKind, "kind", "", "Request kind")
	flags.StringVar(&c.flagTable, "table", "", "Table name (defaults to INVENTORY_TABLE)")
	flags.StringSliceVar(&c.flagColumns, "columns", nil, "Column list")
	flags.StringVar(&c.flagColumn, "column", "", "Column")
	flags.StringVar(&c.flagCondition, "condition", "", "Raw SQL condition")
	flags.StringVar(&c.flagDirection, "direction", "", "Sort direction (ASC or DESC)")
	flags.StringVar(&c.flagFunction, "function", "", "Aggregate function (COUNT, SUM, AVG, MIN, MAX)")
	flags.StringVar(&c.flagGroupColumn, "group-column", "", "Column to group by")
	flags.StringVar(&c.flagHaving, "having", "", "Raw SQL having condition")
	flags.StringVar(&c.flagSubquery, "subquery", "", "Raw SQL subquery")
	flags.IntVar(&c.flagLimit, "limit", 0, "Row limit")
	flags.IntVar(&c.flagOffset, "offset", 0, "Row offset")
	flags.StringVar(&c.flagValues, "values", "", "JSON array of values for insert_one")
	flags.StringVar(&c.flagRows, "rows", "", "JSON array of rows for insert_many")
	flags.StringVar(&c.flagSet, "set", "", "JSON object of column values for update")
	flags.StringVar(&c.flagArgs, "args", "", "JSON array bound to placeholders in the condition")
	flags.BoolVar(&c.flagExec, "exec", false, "Execute the request")
	flags.StringVar(&c.flagFormat, "format", formatTable, "Output format for rows (table or json)")
	_ = cmd.MarkFlagRequired("kind")

	return cmd
}

// params collects the flags into request parameters
func (c *cmdQuery) params() (request.Params, error) {
	p := request.Params{
		Kind:        request.Kind(c.flagKind),
		Table:       c.flagTable,
		Columns:     c.flagColumns,
		Column:      c.flagColumn,
		Condition:   c.flagCondition,
		Direction:   c.flagDirection,
		Function:    c.flagFunction,
		GroupColumn: c.flagGroupColumn,
		Having:      c.flagHaving,
		Subquery:    c.flagSubquery,
		Limit:       c.flagLimit,
		Offset:      c.flagOffset,
	}
	if p.Table == "" && c.global.config != nil {
		p.Table = c.global.config.Inventory.Table
	}

	if err := decodeFlag("values", c.flagValues, &p.Values); err != nil {
		return p, err
	}
	if err := decodeFlag("rows", c.flagRows, &p.Rows); err != nil {
		return p, err
	}
	if err := decodeFlag("set", c.flagSet, &p.Set); err != nil {
		return p, err
	}

	p.Values = normalizeAll(p.Values)
	for i, row := range p.Rows {
		p.Rows[i] = normalizeAll(row)
	}
	for k, v := range p.Set {
		p.Set[k] = inventory.Normalize(v)
	}
	return p, nil
}

func (c *cmdQuery) run(cmd *cobra.Command, args []string) error {
	if c.flagFormat != formatTable && c.flagFormat != formatJSON {
		return fmt.Errorf("unknown format %q", c.flagFormat)
	}

	p, err := c.params()
	if err != nil {
		return err
	}
	req, err := request.Build(p)
	if err != nil {
		return err
	}

	var extra []any
	if err := decodeFlag("args", c.flagArgs, &extra); err != nil {
		return err
	}
	extra = normalizeAll(extra)

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s\n%s\n", req.Description(), req.Query())
	if !c.flagExec {
		return nil
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), c.global.config.QueryTimeout)
	defer cancel()

	database, err := c.global.connect(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err := database.Close(); err != nil {
			logger.Error("Failed to close database: %v", err)
		}
	}()

	return execute(ctx, out, database, req, extra, c.flagFormat)
}

// execute runs the request and prints its outcome
func execute(ctx context.Context, out io.Writer, r db.Runner, req request.Request, extra []any, format string) error {
	if req.Kind().IsWrite() {
		result, err := db.Run(ctx, r, req, extra...)
		if err != nil {
			return err
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get affected rows: %w", err)
		}
		fmt.Fprintf(out, "Rows affected: %d\n", affected)
		return nil
	}

	set, err := db.Fetch(ctx, r, req, extra...)
	if err != nil {
		return err
	}
	return renderResult(out, set, format)
}

// renderResult prints a result set as a table or as JSON
func renderResult(out io.Writer, set *db.ResultSet, format string) error {
	if format == formatJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(set)
	}

	table := tablewriter.NewWriter(out)
	table.SetHeader(set.Columns)
	table.SetAutoWrapText(false)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	for _, row := range set.Rows {
		cells := make([]string, len(row))
		for i, v := range row {
			if v == nil {
				cells[i] = "NULL"
				continue
			}
			cells[i] = fmt.Sprint(v)
		}
		table.Append(cells)
	}
	table.Render()
	return nil
}

// decodeFlag parses a JSON flag value, keeping numbers exact
func decodeFlag(name, value string, v interface{}) error {
	if value == "" {
		return nil
	}
	dec := json.NewDecoder(strings.NewReader(value))
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid JSON for --%s: %w", name, err)
	}
	return nil
}

func normalizeAll(values []any) []any {
	for i, v := range values {
		values[i] = inventory.Normalize(v)
	}
	return values
}
