// Command passage runs a small authenticated API in front of a Passage
// application and manages its configuration file.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
