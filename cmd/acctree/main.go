// Command acctree is a command-line bank ledger backed by an AVL index.
package main

import (
	"os"

	"github.com/roach88/acctree/internal/cli"
)

func main() {
	os.Exit(cli.Execute(os.Args[1:], os.Stdout, os.Stderr))
}
