// Package main provides the entry point for the bibsearch CLI.
package main

import (
	"os"

	"github.com/Aman-CERP/bibsearch/cmd/bibsearch/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
