package compile

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/pkg/errors"
)

var ErrNoSources = errors.New("input JSON does not contain any source")

// StandardOutput is the part of the solc standard JSON output used by solcix.
type StandardOutput struct {
	Errors    []StandardError                       `json:"errors,omitempty"`
	Sources   map[string]json.RawMessage            `json:"sources,omitempty"`
	Contracts map[string]map[string]json.RawMessage `json:"contracts,omitempty"`
}

// StandardError is a diagnostic of the standard JSON output.
type StandardError struct {
	Type             string `json:"type"`
	Severity         string `json:"severity"`
	Message          string `json:"message"`
	FormattedMessage string `json:"formattedMessage,omitempty"`
}

// Standard compiles a standard JSON input.
//
// Diagnostics with 'error' severity are returned as SolcError, warnings stay in the output.
func Standard(ctx context.Context, solc string, input map[string]interface{}, flags ...Flag) (*StandardOutput, error) {
	if sources, _ := input["sources"].(map[string]interface{}); len(sources) == 0 {
		return nil, ErrNoSources
	}
	stdin, err := json.Marshal(input)
	if err != nil {
		return nil, errors.Wrap(err, "unable to encode the standard JSON input")
	}

	opts := Options{Stdin: string(stdin), Flags: append([]Flag{{Name: "standard-json"}}, flags...)}
	res, err := Execute(ctx, solc, opts)
	if err != nil {
		return nil, err
	}

	var out StandardOutput
	if err := json.Unmarshal([]byte(res.Stdout), &out); err != nil {
		return nil, errors.Wrap(err, "unable to parse the standard JSON output")
	}

	var msgs []string
	for _, e := range out.Errors {
		if e.Severity == "error" {
			msgs = append(msgs, e.Message)
		}
	}
	if len(msgs) > 0 {
		return &out, &SolcError{
			Message: strings.Join(msgs, "\n"),
			Command: res.Command,
			Stdout:  res.Stdout,
			Stderr:  res.Stderr,
		}
	}
	return &out, nil
}
