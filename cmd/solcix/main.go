// Command solcix manages solidity compiler versions.
package main

import (
	"fmt"
	"os"

	"github.com/pkg/errors"
)

// exitCodeError carries the exit code of a forwarded solc run.
type exitCodeError struct {
	code int
}

func (e *exitCodeError) Error() string {
	return fmt.Sprintf("solc exited with code %d", e.code)
}

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	cmd, closeApp := newRootCommand()
	cmd.SetArgs(args)
	err := cmd.Execute()
	if cerr := closeApp(); err == nil {
		err = cerr
	}
	if err == nil {
		return 0
	}
	var exit *exitCodeError
	if errors.As(err, &exit) {
		return exit.code
	}
	fmt.Fprintln(os.Stderr, "solcix:", err) //nolint:errcheck
	return 1
}
