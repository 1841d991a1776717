package main

import (
	"fmt"
	"os"

	"github.com/hacolby/assistant-sync/cmd/cli"
)

const (
	exitErrorTemplateConstant = "%v\n"
)

// main executes the assistant-sync command-line application.
func main() {
	if executionError := cli.Execute(); executionError != nil {
		fmt.Fprintf(os.Stderr, exitErrorTemplateConstant, executionError)
		os.Exit(1)
	}
}
