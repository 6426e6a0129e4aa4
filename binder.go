package propbind

import (
	"log/slog"
	"reflect"

	"github.com/Azhovan/propbind/internal/normalize"
)

// Binder reads a property-source stack through a prefix. It either extracts the
// matching entries into an ordered map or binds them onto a target.
// A Binder holds no per-call state and is safe for concurrent use as long as
// its Engine is.
type Binder struct {
	sources *PropertySources
	engine  Engine
	logger  *slog.Logger
}

// Option configures a Binder.
type Option func(*Binder)

// WithEngine replaces the default ReflectEngine. Nil engines are ignored.
func WithEngine(e Engine) Option {
	return func(b *Binder) {
		if e != nil {
			b.engine = e
		}
	}
}

// WithLogger sets the logger used for bind diagnostics. Nil loggers are ignored.
func WithLogger(l *slog.Logger) Option {
	return func(b *Binder) {
		if l != nil {
			b.logger = l
		}
	}
}

// NewBinder creates a Binder over sources. The stack is read, never modified.
func NewBinder(sources *PropertySources, opts ...Option) *Binder {
	b := &Binder{
		sources: sources,
		engine:  ReflectEngine{},
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// FromEnvironment returns the property-source stack carried by env.
func FromEnvironment(env Environment) *PropertySources {
	if env == nil {
		return nil
	}
	return env.PropertySources()
}

// PropertySources returns the stack the binder reads.
func (b *Binder) PropertySources() *PropertySources {
	return b.sources
}

// ExtractAll returns every property whose key starts with prefix, with the
// prefix and its separator removed. A blank prefix returns all keys.
// The result is never nil; engine failures are logged and the entries
// collected so far are returned.
func (b *Binder) ExtractAll(prefix string) *Properties {
	content := NewProperties()
	if err := b.BindTo(prefix, content); err != nil {
		b.logger.Warn("extract properties failed",
			slog.String("prefix", prefix),
			slog.Any("error", err))
	}
	return content
}

// BindTo populates target from the properties under prefix: field f of target
// resolves against key prefix.f. Engine failures are returned as *BindError.
func (b *Binder) BindTo(prefix string, target any) error {
	namespace := normalize.CleanPrefix(prefix)

	if target == nil || isNilPointer(target) {
		return &BindError{Target: describeTarget(target), Prefix: namespace, Err: ErrNilTarget}
	}

	if err := b.engine.Bind(b.sources, namespace, target); err != nil {
		return &BindError{Target: describeTarget(target), Prefix: namespace, Err: err}
	}

	b.logger.Debug("bound properties",
		slog.String("prefix", namespace),
		slog.String("target", reflect.TypeOf(target).String()))
	return nil
}

func isNilPointer(v any) bool {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Map:
		return rv.IsNil()
	}
	return false
}
