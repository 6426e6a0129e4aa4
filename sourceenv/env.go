package sourceenv

import (
	"context"
	"os"
	"strings"

	"github.com/Azhovan/propbind"
	"github.com/Azhovan/propbind/internal/normalize"
)

// Options configures environment variable source behavior.
type Options struct {
	// Prefix filters vars starting with prefix (stripped before normalization).
	// Empty = load all vars.
	// Prefix matching behavior is controlled by CaseSensitive.
	Prefix string

	// CaseSensitive controls prefix matching (default: false).
	// When false, prefix matching is case-insensitive (APP_ matches app_, App_, etc.).
	// When true, prefix must match exactly.
	// Keys are always normalized to lowercase after prefix stripping.
	CaseSensitive bool

	// Environ supplies the variables in KEY=value form. Default: os.Environ.
	Environ func() []string
}

type envSource struct {
	opts Options
}

// New creates an environment variable source.
func New(opts Options) propbind.Source {
	if opts.Environ == nil {
		opts.Environ = os.Environ
	}
	return &envSource{opts: opts}
}

// Load scans environment variables, filters by prefix, and normalizes keys.
func (e *envSource) Load(ctx context.Context) (map[string]any, error) {
	result := make(map[string]any)

	for _, env := range e.opts.Environ() {
		key, value, ok := strings.Cut(env, "=")
		if !ok {
			continue
		}

		if e.opts.Prefix != "" {
			var hasPrefix bool
			if e.opts.CaseSensitive {
				hasPrefix = strings.HasPrefix(key, e.opts.Prefix)
			} else {
				hasPrefix = strings.HasPrefix(strings.ToUpper(key), strings.ToUpper(e.opts.Prefix))
			}

			if !hasPrefix {
				continue
			}
			key = key[len(e.opts.Prefix):]
		}

		if key == "" {
			continue
		}

		// Normalize: FOO__BAR → foo.bar
		result[normalize.ToLowerDotPath(key)] = value
	}

	return result, nil
}

// Name returns "env", or "env:<prefix>" when a prefix is set.
func (e *envSource) Name() string {
	if e.opts.Prefix == "" {
		return "env"
	}
	return "env:" + e.opts.Prefix
}
