// Command shipreport renders the dashboard views in a terminal and writes
// them to CSV or XLSX files.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
