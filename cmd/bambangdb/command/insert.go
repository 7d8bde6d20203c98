package command

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/bambangdb/bambangdb"
)

// InsertCommand inserts one row given as positional literal values, in
// column order. Values are typed against the table's schema; no SQL expression
// parsing is involved.
type InsertCommand struct{}

func (c *InsertCommand) Help() string {
	return strings.TrimSpace(`
Usage: bambangdb insert -db=path -table=name -row-id=N -value=literal ...

Options:

	-db=""       Database file path
	-table=""    Table name
	-row-id=0    Row id to assign
	-value=""    Repeatable positional literal, in column order
`)
}

func (c *InsertCommand) Synopsis() string { return "Inserts a row into a table" }

type valueFlags []string

func (v *valueFlags) String() string { return strings.Join(*v, ",") }
func (v *valueFlags) Set(s string) error {
	*v = append(*v, s)
	return nil
}

func (c *InsertCommand) Run(args []string) int {
	var dbPath, table string
	var rowID uint64
	var values valueFlags

	fs := flag.NewFlagSet("insert", flag.ContinueOnError)
	fs.StringVar(&dbPath, "db", "", "database file path")
	fs.StringVar(&table, "table", "", "table name")
	fs.Uint64Var(&rowID, "row-id", 0, "row id")
	fs.Var(&values, "value", "positional literal value")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	if dbPath == "" || table == "" {
		fmt.Fprintln(os.Stderr, "db and table are required")
		return 1
	}

	db, err := bambangdb.Open(dbPath, bambangdb.Config{}, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error opening database: %s\n", err)
		return 1
	}
	defer db.Close()

	def, err := db.TableDef(table)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error loading table schema: %s\n", err)
		return 1
	}
	if len(values) != len(def.Columns) {
		fmt.Fprintf(os.Stderr, "expected %d values, got %d\n", len(def.Columns), len(values))
		return 1
	}

	parsed := make([]bambangdb.Value, len(values))
	for i, raw := range values {
		parsed[i] = parseLiteral(def.Columns[i].DataType, raw)
	}

	if err := db.Insert(table, rowID, parsed); err != nil {
		fmt.Fprintf(os.Stderr, "error inserting row: %s\n", err)
		return 1
	}
	return 0
}

func parseLiteral(dataType, raw string) bambangdb.Value {
	switch strings.ToUpper(dataType) {
	case "INTEGER", "INT":
		n, _ := strconv.ParseInt(raw, 10, 64)
		return bambangdb.IntegerValue(n)
	case "REAL", "FLOAT", "DOUBLE":
		f, _ := strconv.ParseFloat(raw, 64)
		return bambangdb.RealValue(f)
	case "BOOLEAN", "BOOL":
		return bambangdb.BooleanValue(raw == "true" || raw == "1")
	default:
		return bambangdb.TextValue(raw)
	}
}
