package propbind

import (
	"sort"
	"sync"
)

// PropertySource is one named layer of key/value configuration.
type PropertySource interface {
	// Name identifies the layer (e.g., "env", "file:config.yaml").
	Name() string

	// Property returns the raw value stored under key.
	Property(key string) (any, bool)

	// Keys enumerates the layer's keys in its own order.
	Keys() []string
}

// MapPropertySource is an immutable map-backed PropertySource. Values are
// copied on the way in and on the way out.
type MapPropertySource struct {
	name  string
	props *Properties
}

// NewMapSource creates a layer from a plain map. Keys enumerate in sorted order.
func NewMapSource(name string, values map[string]any) *MapPropertySource {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	props := NewProperties()
	for _, k := range keys {
		props.Set(k, cloneValue(values[k]))
	}
	return &MapPropertySource{name: name, props: props}
}

// NewOrderedSource creates a layer that keeps the insertion order of props.
// props is copied; later changes to it are not visible to the layer.
func NewOrderedSource(name string, props *Properties) *MapPropertySource {
	clone := NewProperties()
	for k, v := range props.All() {
		clone.Set(k, cloneValue(v))
	}
	return &MapPropertySource{name: name, props: clone}
}

func (m *MapPropertySource) Name() string { return m.name }

func (m *MapPropertySource) Property(key string) (any, bool) {
	v, ok := m.props.Get(key)
	return cloneValue(v), ok
}

func (m *MapPropertySource) Keys() []string { return m.props.Keys() }

// PropertySources is an ordered stack of layers. Index 0 has the highest
// precedence: when several layers hold the same key, the first one wins.
// Safe for concurrent use.
type PropertySources struct {
	mu      sync.RWMutex
	sources []PropertySource
}

// NewPropertySources creates a stack from layers given in precedence order.
func NewPropertySources(sources ...PropertySource) *PropertySources {
	s := &PropertySources{}
	for _, src := range sources {
		s.AddLast(src)
	}
	return s
}

// AddFirst pushes src on top of the stack. A layer with the same name is replaced.
func (s *PropertySources) AddFirst(src PropertySource) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removeLocked(src.Name())
	s.sources = append([]PropertySource{src}, s.sources...)
}

// AddLast appends src at the bottom of the stack. A layer with the same name is replaced.
func (s *PropertySources) AddLast(src PropertySource) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removeLocked(src.Name())
	s.sources = append(s.sources, src)
}

// Remove drops the layer called name and returns it.
func (s *PropertySources) Remove(name string) (PropertySource, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.removeLocked(name)
}

func (s *PropertySources) removeLocked(name string) (PropertySource, bool) {
	for i, src := range s.sources {
		if src.Name() == name {
			s.sources = append(s.sources[:i:i], s.sources[i+1:]...)
			return src, true
		}
	}
	return nil, false
}

// Get returns the layer called name.
func (s *PropertySources) Get(name string) (PropertySource, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, src := range s.sources {
		if src.Name() == name {
			return src, true
		}
	}
	return nil, false
}

// Names returns layer names in precedence order.
func (s *PropertySources) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, len(s.sources))
	for i, src := range s.sources {
		names[i] = src.Name()
	}
	return names
}

// Len returns the number of layers.
func (s *PropertySources) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sources)
}

// Sources returns a copy of the layers in precedence order.
func (s *PropertySources) Sources() []PropertySource {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]PropertySource, len(s.sources))
	copy(out, s.sources)
	return out
}

// Property returns the value of key from the first layer that holds it.
func (s *PropertySources) Property(key string) (any, bool) {
	for _, src := range s.Sources() {
		if v, ok := src.Property(key); ok {
			return v, true
		}
	}
	return nil, false
}

// Origin returns the name of the layer that supplies key.
func (s *PropertySources) Origin(key string) (string, bool) {
	for _, src := range s.Sources() {
		if _, ok := src.Property(key); ok {
			return src.Name(), true
		}
	}
	return "", false
}

// Keys returns every key across all layers, each once, in first-occurrence order.
func (s *PropertySources) Keys() []string {
	seen := make(map[string]bool)
	var keys []string
	for _, src := range s.Sources() {
		for _, k := range src.Keys() {
			if seen[k] {
				continue
			}
			seen[k] = true
			keys = append(keys, k)
		}
	}
	return keys
}
