// Package main provides the entry point for covenant.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/safedep/covenant/cli"
)

func main() {
	err := cli.Execute()
	if err == nil {
		return
	}

	var coder cli.ExitCoder
	if errors.As(err, &coder) {
		fmt.Fprint(os.Stderr, coder.Message())
		os.Exit(coder.ExitCode())
	}

	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(cli.ExitGeneral)
}
