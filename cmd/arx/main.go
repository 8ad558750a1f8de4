// Package main is the entry point for the arx CLI.
package main

import (
	"os"

	"github.com/thoreinstein/arx/cmd/arx/commands"
)

func main() {
	os.Exit(commands.Execute())
}
