// Package info assembles application information from contributors and
// serves it over HTTP.
//
// The EnvironmentContributor publishes every property under "info":
//
//	info.app.name=demo      →  {"app": {"name": "demo"}}
//	info.build.version=1.0  →  {"app": {...}, "build": {"version": "1.0"}}
//
// Example:
//
//	endpoint := info.NewEndpoint(info.EndpointOptions{
//	    Contributors: []info.Contributor{info.NewEnvironmentContributor(binder)},
//	})
//	r.Mount("/info", endpoint.Routes())
package info

import (
	"encoding/json"
	"maps"
	"slices"

	"github.com/Azhovan/propbind"
)

// Info is an immutable, ordered set of details.
type Info struct {
	details *propbind.Properties
}

// Details returns a copy of the details in insertion order.
func (i *Info) Details() *propbind.Properties {
	return clone(i.details)
}

// Get returns the detail stored under key.
func (i *Info) Get(key string) (any, bool) {
	return i.details.Get(key)
}

// MarshalJSON encodes the details as one JSON object.
func (i *Info) MarshalJSON() ([]byte, error) {
	if i.details == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(i.details)
}

// Builder collects details for an Info.
type Builder struct {
	details *propbind.Properties
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{details: propbind.NewProperties()}
}

// WithDetail records value under key, replacing an earlier value.
func (b *Builder) WithDetail(key string, value any) *Builder {
	b.details.Set(key, value)
	return b
}

// WithDetails records every entry of details in key order.
func (b *Builder) WithDetails(details map[string]any) *Builder {
	for _, key := range slices.Sorted(maps.Keys(details)) {
		b.details.Set(key, details[key])
	}
	return b
}

// Build returns an Info holding a copy of the details recorded so far.
func (b *Builder) Build() *Info {
	return &Info{details: clone(b.details)}
}

// Contributor adds details to an Info being built.
type Contributor interface {
	Contribute(b *Builder)
}

// ContributorFunc is a function adapter for the Contributor interface.
type ContributorFunc func(b *Builder)

func (f ContributorFunc) Contribute(b *Builder) { f(b) }

func clone(p *propbind.Properties) *propbind.Properties {
	out := propbind.NewProperties()
	for k, v := range p.All() {
		out.Set(k, v)
	}
	return out
}
