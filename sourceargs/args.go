// Package sourceargs turns command-line arguments into a property layer.
//
// Option arguments have the form --key=value. A bare --flag is stored as
// "true", and repeated options are joined with commas. Everything else,
// including arguments after a lone "--", is collected under nonOptionArgs.
//
// Example:
//
//	source := sourceargs.New(flag.Args())
//	sources, err := propbind.NewLoader().WithSource(source).Load(ctx)
package sourceargs

import (
	"context"
	"fmt"
	"strings"

	"github.com/Azhovan/propbind"
)

const (
	// Name is the layer name of every args source.
	Name = "commandLineArgs"

	// NonOptionArgsKey holds the comma-joined non-option arguments.
	NonOptionArgsKey = "nonOptionArgs"
)

type argsSource struct {
	args []string
}

// New creates a source over args. args is copied.
func New(args []string) propbind.OrderedSource {
	return &argsSource{args: append([]string(nil), args...)}
}

func (a *argsSource) Name() string { return Name }

func (a *argsSource) Load(ctx context.Context) (map[string]any, error) {
	props, err := a.LoadOrdered(ctx)
	if err != nil {
		return nil, err
	}
	return props.ToMap(), nil
}

// LoadOrdered parses the arguments. Keys appear in order of first occurrence.
func (a *argsSource) LoadOrdered(ctx context.Context) (*propbind.Properties, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var (
		keys       []string
		values     = make(map[string][]string)
		nonOptions []string
		terminated bool
	)

	for _, arg := range a.args {
		if terminated || !strings.HasPrefix(arg, "--") {
			nonOptions = append(nonOptions, arg)
			continue
		}
		if arg == "--" {
			terminated = true
			continue
		}

		key, value, hasValue := strings.Cut(arg[2:], "=")
		if strings.TrimSpace(key) == "" {
			return nil, fmt.Errorf("invalid argument syntax: %s", arg)
		}
		if !hasValue {
			value = "true"
		}
		if _, ok := values[key]; !ok {
			keys = append(keys, key)
		}
		values[key] = append(values[key], value)
	}

	props := propbind.NewProperties()
	for _, key := range keys {
		props.Set(key, strings.Join(values[key], ","))
	}
	if len(nonOptions) > 0 {
		props.Set(NonOptionArgsKey, strings.Join(nonOptions, ","))
	}
	return props, nil
}
