package command

import (
	"encoding/json"
	"io"
	"os"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/supertracker-go/internal/core/domain"
)

// readJSON returns the JSON document given as value. "-" reads standard
// input and "@path" reads a file; anything else is the document itself.
func readJSON(c *cli.Context, name, value string) (json.RawMessage, error) {
	if value == "" {
		return nil, domain.ErrMissingArgument.WithDetails(name + " is required")
	}

	var data []byte
	switch {
	case value == "-":
		r := c.App.Reader
		if r == nil {
			r = os.Stdin
		}
		b, err := io.ReadAll(r)
		if err != nil {
			return nil, err
		}
		data = b
	case strings.HasPrefix(value, "@"):
		b, err := os.ReadFile(value[1:])
		if err != nil {
			return nil, err
		}
		data = b
	default:
		data = []byte(value)
	}

	if !json.Valid(data) {
		return nil, domain.ErrInvalidArgument.WithDetails(name + " is not valid JSON")
	}
	return json.RawMessage(data), nil
}

// requireArg returns the first positional argument.
func requireArg(c *cli.Context, name string) (string, error) {
	arg := strings.TrimSpace(c.Args().First())
	if arg == "" {
		return "", domain.ErrMissingArgument.WithDetails(name + " is required")
	}
	return arg, nil
}
