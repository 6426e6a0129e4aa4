package propbind

import (
	"context"
)

// Source provides raw configuration data from a backend (env vars, files, remote stores).
// A Loader turns each Source into one PropertySource layer.
type Source interface {
	// Name identifies the layer the source produces.
	Name() string

	// Load returns configuration as a flat map. Missing optional sources should return empty map.
	Load(ctx context.Context) (map[string]any, error)
}

// OrderedSource is a Source that can keep the order of its keys.
type OrderedSource interface {
	Source

	// LoadOrdered returns configuration in the order the backend holds it.
	LoadOrdered(ctx context.Context) (*Properties, error)
}

// Environment is anything that carries a property-source stack.
type Environment interface {
	PropertySources() *PropertySources
}

// Optional distinguishes "not set" from "zero value".
type Optional[T any] struct {
	Value T
	Set   bool
}

// Get returns the wrapped value and whether it was set.
func (o Optional[T]) Get() (T, bool) {
	return o.Value, o.Set
}

// OrDefault returns the wrapped value or the provided default.
func (o Optional[T]) OrDefault(defaultVal T) T {
	if o.Set {
		return o.Value
	}
	return defaultVal
}

// optionalMarker lets the binder recognize any Optional[T] instantiation.
func (o *Optional[T]) optionalMarker() {}

// Validator performs custom validation after tag-based validation.
// Bind targets implement it for cross-field or semantic checks.
type Validator interface {
	// Validate checks the bound value. Return *ValidationError for field-level errors.
	Validate() error
}
