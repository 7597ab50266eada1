// Command rjoin performs a streaming sort-merge join of two
// delimiter-separated files on one or more key fields.
package main

import (
	"os"

	"github.com/gocsv/rjoin/internal/cli"
)

func main() {
	os.Exit(cli.Run(os.Stdin, os.Stdout, os.Stderr, os.Args))
}
