package main

import (
	"fmt"
	"os"

	"github.com/mitchellh/cli"

	"github.com/bambangdb/bambangdb/cmd/bambangdb/command"
)

func main() {
	args := os.Args[1:]

	commands := map[string]cli.CommandFactory{
		"create-table": func() (cli.Command, error) { return &command.CreateTableCommand{}, nil },
		"insert":       func() (cli.Command, error) { return &command.InsertCommand{}, nil },
		"scan":         func() (cli.Command, error) { return &command.ScanCommand{}, nil },
		"info":         func() (cli.Command, error) { return &command.InfoCommand{}, nil },
	}

	dbCLI := &cli.CLI{
		Args:     args,
		Commands: commands,
		HelpFunc: cli.BasicHelpFunc("bambangdb"),
	}

	exitCode, err := dbCLI.Run()
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error: %s\n", err.Error())
		os.Exit(1)
	}
	os.Exit(exitCode)
}
