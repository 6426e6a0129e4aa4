// Package sourcedotenv loads configuration from a .env file.
//
// Keys are normalized the same way as environment variables:
// DATABASE__HOST=db becomes database.host, MAX_CONNS stays max_conns.
//
// Example:
//
//	source := sourcedotenv.New(".env", sourcedotenv.Options{Prefix: "APP_"})
//	sources, err := propbind.NewLoader().WithSource(source).Load(ctx)
package sourcedotenv

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/Azhovan/propbind"
	"github.com/Azhovan/propbind/internal/normalize"
	"github.com/joho/godotenv"
)

// Options configures dotenv source behavior.
type Options struct {
	// Prefix keeps only variables starting with it (case-insensitive) and strips it.
	Prefix string

	// Required: if true, a missing file is an error. Default: false (empty layer).
	Required bool
}

type dotenvSource struct {
	path string
	opts Options
}

// New creates a source that reads the .env file at path.
// The file is parsed, never exported to the process environment.
func New(path string, opts Options) propbind.Source {
	return &dotenvSource{path: path, opts: opts}
}

func (d *dotenvSource) Load(ctx context.Context) (map[string]any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	vars, err := godotenv.Read(d.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) && !d.opts.Required {
			return make(map[string]any), nil
		}
		return nil, fmt.Errorf("read dotenv file %s: %w", d.path, err)
	}

	result := make(map[string]any, len(vars))
	upperPrefix := strings.ToUpper(d.opts.Prefix)
	for key, value := range vars {
		if d.opts.Prefix != "" {
			if !strings.HasPrefix(strings.ToUpper(key), upperPrefix) {
				continue
			}
			key = key[len(d.opts.Prefix):]
		}
		if key == "" {
			continue
		}
		result[normalize.ToLowerDotPath(key)] = value
	}
	return result, nil
}

func (d *dotenvSource) Name() string {
	return "dotenv:" + filepath.Base(d.path)
}
