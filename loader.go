package propbind

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/sourcegraph/conc/iter"
)

// Loader reads configuration Sources and stacks them into PropertySources.
// Sources added later take precedence over those added before them.
type Loader struct {
	sources []Source
	logger  *slog.Logger
}

// NewLoader creates a Loader with no sources.
func NewLoader() *Loader {
	return &Loader{
		sources: make([]Source, 0),
		logger:  slog.Default(),
	}
}

// WithSource adds a source. Later sources override earlier ones.
func (l *Loader) WithSource(src Source) *Loader {
	if src != nil {
		l.sources = append(l.sources, src)
	}
	return l
}

// WithLogger sets the logger used for load diagnostics. Nil loggers are ignored.
func (l *Loader) WithLogger(logger *slog.Logger) *Loader {
	if logger != nil {
		l.logger = logger
	}
	return l
}

// Load reads all sources concurrently and returns the resulting stack, with the
// last added source on top. Every failing source is reported.
func (l *Loader) Load(ctx context.Context) (*PropertySources, error) {
	layers, err := iter.MapErr(l.sources, func(src *Source) (PropertySource, error) {
		return l.loadOne(ctx, *src)
	})
	if err != nil {
		return nil, err
	}

	stack := NewPropertySources()
	for _, layer := range layers {
		stack.AddFirst(layer)
	}
	return stack, nil
}

func (l *Loader) loadOne(ctx context.Context, src Source) (PropertySource, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("load source %s: %w", src.Name(), err)
	}

	start := time.Now()

	var layer PropertySource
	if ordered, ok := src.(OrderedSource); ok {
		props, err := ordered.LoadOrdered(ctx)
		if err != nil {
			return nil, fmt.Errorf("load source %s: %w", src.Name(), err)
		}
		layer = NewOrderedSource(src.Name(), props)
	} else {
		data, err := src.Load(ctx)
		if err != nil {
			return nil, fmt.Errorf("load source %s: %w", src.Name(), err)
		}
		layer = NewMapSource(src.Name(), data)
	}

	l.logger.Debug("loaded property source",
		slog.String("source", src.Name()),
		slog.Int("keys", len(layer.Keys())),
		slog.Duration("took", time.Since(start)))

	return layer, nil
}
