package propbind

import (
	"github.com/Azhovan/propbind/internal/normalize"
)

// Engine populates a target from the properties under a namespace.
// Implementations do the type coercion and nested-path resolution; they must
// resolve against the key set returned by Scope so that binding and extraction agree.
type Engine interface {
	Bind(sources *PropertySources, namespace string, target any) error
}

// EngineFunc is a function adapter for the Engine interface.
type EngineFunc func(sources *PropertySources, namespace string, target any) error

func (f EngineFunc) Bind(sources *PropertySources, namespace string, target any) error {
	return f(sources, namespace, target)
}

// scopedEntry is one property visible under a namespace.
type scopedEntry struct {
	key     string // Key with the namespace stripped
	fullKey string // Key as stored in the layer
	value   any
	origin  string // Name of the layer supplying the value
}

// scope walks the stack from the highest-precedence layer down and collects the
// keys under namespace. The first layer holding a key wins.
func scope(sources *PropertySources, namespace string) []scopedEntry {
	if sources == nil {
		return nil
	}

	namespace = normalize.CleanPrefix(namespace)
	seen := make(map[string]bool)
	var entries []scopedEntry

	for _, src := range sources.Sources() {
		for _, fullKey := range src.Keys() {
			if seen[fullKey] {
				continue
			}
			seen[fullKey] = true

			key, ok := normalize.StripPrefix(fullKey, namespace)
			if !ok {
				continue
			}

			// Layers may hand out shared lists and maps; entries own a copy.
			value, _ := src.Property(fullKey)
			entries = append(entries, scopedEntry{
				key:     key,
				fullKey: fullKey,
				value:   cloneValue(value),
				origin:  src.Name(),
			})
		}
	}

	return entries
}

// Scope returns the properties under namespace with the namespace stripped,
// in first-occurrence order across layers. A blank namespace returns every key.
func Scope(sources *PropertySources, namespace string) *Properties {
	props := NewProperties()
	for _, e := range scope(sources, namespace) {
		props.SetIfAbsent(e.key, e.value)
	}
	return props
}

// Origins maps every key under namespace (stripped) to the layer that supplies it.
func Origins(sources *PropertySources, namespace string) map[string]string {
	out := make(map[string]string)
	for _, e := range scope(sources, namespace) {
		if _, ok := out[e.key]; !ok {
			out[e.key] = e.origin
		}
	}
	return out
}
