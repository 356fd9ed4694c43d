// Package main provides the crediario CLI, a single-user installment-credit
// ledger.
package main

import (
	"fmt"
	"os"
)

func main() {
	cmd := newRootCmd()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "crediario:", err)
		os.Exit(exitCode(err))
	}
}
