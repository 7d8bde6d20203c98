package command

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/bambangdb/bambangdb"
)

// CreateTableCommand defines a new table by column spec, with no SQL
// parsing: each column is given as "name:type[:nullable]".
type CreateTableCommand struct{}

func (c *CreateTableCommand) Help() string {
	return strings.TrimSpace(`
Usage: bambangdb create-table -db=path -table=name -column=name:type[:nullable] ...

Options:

	-db=""       Database file path
	-table=""    Table name
	-column=""   Repeatable column spec: name:type or name:type:nullable
`)
}

func (c *CreateTableCommand) Synopsis() string {
	return "Creates a table with the given columns"
}

type columnFlags []string

func (c *columnFlags) String() string { return strings.Join(*c, ",") }
func (c *columnFlags) Set(v string) error {
	*c = append(*c, v)
	return nil
}

func (c *CreateTableCommand) Run(args []string) int {
	var dbPath, table string
	var columns columnFlags

	fs := flag.NewFlagSet("create-table", flag.ContinueOnError)
	fs.StringVar(&dbPath, "db", "", "database file path")
	fs.StringVar(&table, "table", "", "table name")
	fs.Var(&columns, "column", "column spec name:type[:nullable]")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	if dbPath == "" || table == "" || len(columns) == 0 {
		fmt.Fprintln(os.Stderr, "db, table, and at least one -column are required")
		return 1
	}

	colDefs, err := parseColumns(columns)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %s\n", err)
		return 1
	}

	db, err := bambangdb.Create(dbPath, bambangdb.Config{}, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error creating database: %s\n", err)
		return 1
	}
	defer db.Close()

	sql := fmt.Sprintf("CREATE TABLE %s (%s)", table, strings.Join(columns, ", "))
	if err := db.CreateTable(table, sql, colDefs); err != nil {
		fmt.Fprintf(os.Stderr, "error creating table: %s\n", err)
		return 1
	}
	return 0
}

func parseColumns(specs []string) ([]bambangdb.ColumnDef, error) {
	defs := make([]bambangdb.ColumnDef, 0, len(specs))
	for i, spec := range specs {
		parts := strings.Split(spec, ":")
		if len(parts) < 2 {
			return nil, fmt.Errorf("invalid column spec %q", spec)
		}
		def := bambangdb.ColumnDef{
			Name:     parts[0],
			DataType: strings.ToUpper(parts[1]),
			Position: i,
		}
		if len(parts) > 2 && parts[2] == "nullable" {
			def.Nullable = true
		}
		defs = append(defs, def)
	}
	return defs, nil
}
