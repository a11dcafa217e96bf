// Package main is the entry point for the modelsearch CLI.
package main

import (
	"fmt"
	"os"

	"github.com/kailas-cloud/modelsearch/internal/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, "modelsearch:", err)
		os.Exit(1)
	}
}
