// Package main provides the breachstore command-line tool for importing,
// deduplicating and searching breach dumps.
package main

import (
	"os"
)

func main() {
	if err := Execute(); err != nil {
		printError("%v", err)
		os.Exit(1)
	}
}
