// Package main is the entry point for the udisescan CLI.
package main

import (
	"os"

	"github.com/udisescan/udisescan/cmd/udisescan/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
