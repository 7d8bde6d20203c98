package command

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/bambangdb/bambangdb"
)

// InfoCommand prints a database file's header fields without opening it
// for writes.
type InfoCommand struct{}

func (c *InfoCommand) Help() string {
	return strings.TrimSpace(`
Usage: bambangdb info -db=path

Options:

	-db=""   Database file path
`)
}

func (c *InfoCommand) Synopsis() string { return "Prints database file header info" }

func (c *InfoCommand) Run(args []string) int {
	var dbPath string
	fs := flag.NewFlagSet("info", flag.ContinueOnError)
	fs.StringVar(&dbPath, "db", "", "database file path")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	if dbPath == "" {
		fmt.Fprintln(os.Stderr, "db is required")
		return 1
	}

	pages, size, err := bambangdb.Stat(dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error reading database: %s\n", err)
		return 1
	}
	fmt.Printf("pages: %d\nsize_bytes: %d\n", pages, size)
	return 0
}
