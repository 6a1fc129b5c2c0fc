// Command ax navigates accessibility trees and collects training data.
package main

import (
	"fmt"
	"os"

	"github.com/dshills/goax/pkg/cli"
	axerrors "github.com/dshills/goax/pkg/errors"
)

func main() {
	if err := cli.Execute(); err != nil {
		if os.Getenv("NO_COLOR") != "" {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		} else {
			fmt.Fprintf(os.Stderr, "\033[31mError:\033[0m %v\n", err)
		}
		os.Exit(axerrors.ExitCode(err))
	}
}
