package main

import (
	"os"

	"github.com/dyluth/kanban/cmd/kanban/commands"
	"github.com/dyluth/kanban/internal/printer"
)

// Version information - set during build
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	commands.SetVersionInfo(version, commit, date)

	// Errors from the printer package are already on stderr
	if err := commands.Execute(); err != nil {
		if !printer.IsPrinted(err) {
			printer.Error("Error", err.Error(), nil)
		}
		os.Exit(1)
	}
}
