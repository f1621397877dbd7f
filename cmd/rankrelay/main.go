// Package main is the entry point for the rankrelay CLI.
package main

import (
	"os"

	"github.com/corridas/rankrelay/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
