// Package main is the entry point for the poetry-migrate CLI tool.
package main

import (
	"os"

	"github.com/aidanlsb/poetry-migrate/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
