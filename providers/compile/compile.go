/*
Package compile runs an installed solc executable.

Goals:
  - Building solc command lines from source files, remappings and flags
  - Classifying solc failures into typed errors
  - Forwarding arguments, stdio and the exit code for the 'run' command
*/
package compile

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

// UnrecognizedOptionError is returned when solc does not know a flag.
type UnrecognizedOptionError struct {
	Option string
}

func (e *UnrecognizedOptionError) Error() string {
	return fmt.Sprintf("solc does not support the '%s' option", e.Option)
}

// InvalidOptionError is returned when solc rejects the value of a flag.
type InvalidOptionError struct {
	Flag   string
	Option string
}

func (e *InvalidOptionError) Error() string {
	return fmt.Sprintf("solc does not accept '%s' as an option for the '%s' flag", e.Option, e.Flag)
}

// SolcError is returned for any other non-zero solc exit.
type SolcError struct {
	Message  string
	Command  []string
	ExitCode int
	Stdout   string
	Stderr   string
}

func (e *SolcError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = "an error occurred during execution"
	}
	return strings.TrimSpace(fmt.Sprintf("%s\n> command: `%s`\n> return code: `%d`\n> stdout:\n%s\n> stderr:\n%s",
		msg, strings.Join(e.Command, " "), e.ExitCode, e.Stdout, e.Stderr))
}

// Flag is a solc command line flag, an empty Value makes it a bare switch.
type Flag struct {
	Name  string
	Value string
}

// Options describe a solc invocation.
type Options struct {
	SourceFiles []string
	// Stdin is written to solc standard input, solc reads it when no source file is given.
	Stdin string
	// Remappings are passed as 'prefix=target' arguments.
	Remappings map[string]string
	Flags      []Flag
}

// Result is a successful solc invocation.
type Result struct {
	Command []string
	Stdout  string
	Stderr  string
}

// Command returns the solc command line for the options.
func Command(solc string, opts Options) []string {
	cmd := []string{solc}
	cmd = append(cmd, opts.SourceFiles...)

	prefixes := make([]string, 0, len(opts.Remappings))
	for prefix := range opts.Remappings {
		prefixes = append(prefixes, prefix)
	}
	sort.Strings(prefixes)
	for _, prefix := range prefixes {
		cmd = append(cmd, prefix+"="+opts.Remappings[prefix])
	}

	standardJSON := false
	for _, f := range opts.Flags {
		name := "--" + strings.ReplaceAll(strings.TrimLeft(f.Name, "-"), "_", "-")
		if name == "--standard-json" {
			standardJSON = true
		}
		cmd = append(cmd, name)
		if f.Value != "" {
			cmd = append(cmd, f.Value)
		}
	}

	if !standardJSON && len(opts.SourceFiles) == 0 {
		cmd = append(cmd, "-")
	}
	return cmd
}

// Execute runs solc and returns its output.
func Execute(ctx context.Context, solc string, opts Options) (*Result, error) {
	if _, err := os.Stat(solc); err != nil {
		return nil, errors.Wrapf(err, "solc executable %s", solc)
	}

	command := Command(solc, opts)
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, command[0], command[1:]...)
	cmd.Stdin = strings.NewReader(opts.Stdin)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err == nil {
		return &Result{Command: command, Stdout: stdout.String(), Stderr: stderr.String()}, nil
	}

	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		return nil, errors.Wrap(err, "unable to run solc")
	}
	return nil, classify(command, exitErr.ExitCode(), stdout.String(), stderr.String())
}

// classify turns the solc stderr of a failed run into a typed error.
func classify(command []string, code int, stdout, stderr string) error {
	switch {
	case strings.HasPrefix(stderr, "unrecognised option"):
		parts := strings.Split(stderr, "'")
		if len(parts) > 1 {
			return &UnrecognizedOptionError{Option: parts[1]}
		}
	case strings.HasPrefix(stderr, "Invalid option"):
		if idx := strings.Index(stderr, ": "); idx > 0 {
			fields := strings.Fields(stderr[:idx])
			return &InvalidOptionError{
				Flag:   fields[len(fields)-1],
				Option: strings.TrimSpace(stderr[idx+2:]),
			}
		}
	}
	return &SolcError{Command: command, ExitCode: code, Stdout: stdout, Stderr: stderr}
}

// Stdio are the streams of a forwarded invocation, nil streams are discarded.
type Stdio struct {
	In  io.Reader
	Out io.Writer
	Err io.Writer
}

// Passthrough runs solc with args attached to stdio and returns its exit code.
//
// A non-zero exit code is not an error, err is set only when solc could not be run.
func Passthrough(ctx context.Context, solc string, args []string, stdio Stdio) (int, error) {
	cmd := exec.CommandContext(ctx, solc, args...)
	cmd.Stdin = stdio.In
	cmd.Stdout = stdio.Out
	cmd.Stderr = stdio.Err

	err := cmd.Run()
	if err == nil {
		return 0, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode(), nil
	}
	return -1, errors.Wrap(err, "unable to run solc")
}
