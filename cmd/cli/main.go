// Package main is the entry point for the usage-pricing CLI.
package main

import (
	"os"

	"usage-pricing/cmd/cli/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
