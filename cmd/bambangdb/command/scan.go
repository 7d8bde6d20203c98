package command

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/bambangdb/bambangdb"
)

// ScanCommand prints every row of a table in key order.
type ScanCommand struct{}

func (c *ScanCommand) Help() string {
	return strings.TrimSpace(`
Usage: bambangdb scan -db=path -table=name

Options:

	-db=""       Database file path
	-table=""    Table name
`)
}

func (c *ScanCommand) Synopsis() string { return "Scans every row of a table" }

func (c *ScanCommand) Run(args []string) int {
	var dbPath, table string
	fs := flag.NewFlagSet("scan", flag.ContinueOnError)
	fs.StringVar(&dbPath, "db", "", "database file path")
	fs.StringVar(&table, "table", "", "table name")
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

	s, err := db.Scanner(table)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error opening scanner: %s\n", err)
		return 1
	}
	for {
		batch, err := s.Next()
		if err != nil {
			fmt.Fprintf(os.Stderr, "scan error: %s\n", err)
			return 1
		}
		if len(batch) == 0 {
			break
		}
		for _, row := range batch {
			fmt.Println(formatRow(row))
		}
	}
	return 0
}

func formatRow(row bambangdb.Row) string {
	parts := make([]string, len(row.Values))
	for i, v := range row.Values {
		parts[i] = formatValue(v)
	}
	return strings.Join(parts, "\t")
}

func formatValue(v bambangdb.Value) string {
	switch v.Kind {
	case bambangdb.KindNull:
		return "NULL"
	case bambangdb.KindInteger:
		return fmt.Sprintf("%d", v.Integer)
	case bambangdb.KindReal:
		return fmt.Sprintf("%g", v.Real)
	case bambangdb.KindText:
		return v.Text
	case bambangdb.KindBlob:
		return fmt.Sprintf("<blob %d bytes>", len(v.Blob))
	case bambangdb.KindBoolean:
		return fmt.Sprintf("%t", v.Boolean)
	case bambangdb.KindTimestamp:
		return fmt.Sprintf("%d", v.Timestamp)
	default:
		return "?"
	}
}
