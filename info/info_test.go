package info

import (
	"encoding/json"
	"testing"

	"github.com/Azhovan/propbind"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuilder(t *testing.T) {
	b := NewBuilder().
		WithDetail("name", "demo").
		WithDetails(map[string]any{"zeta": 1, "alpha": 2}).
		WithDetail("name", "renamed")

	built := b.Build()
	assert.Equal(t, []string{"name", "alpha", "zeta"}, built.Details().Keys())

	v, ok := built.Get("name")
	require.True(t, ok)
	assert.Equal(t, "renamed", v)

	b.WithDetail("late", true)
	_, ok = built.Get("late")
	assert.False(t, ok, "Build must copy the details")
}

func TestInfo_MarshalJSON(t *testing.T) {
	built := NewBuilder().WithDetail("b", 1).WithDetail("a", "x").Build()

	data, err := json.Marshal(built)
	require.NoError(t, err)
	assert.Equal(t, `{"b":1,"a":"x"}`, string(data))

	data, err = json.Marshal(&Info{})
	require.NoError(t, err)
	assert.Equal(t, `{}`, string(data))
}

func TestContributorFunc(t *testing.T) {
	var c Contributor = ContributorFunc(func(b *Builder) {
		b.WithDetail("git", "abc123")
	})

	b := NewBuilder()
	c.Contribute(b)
	v, _ := b.Build().Get("git")
	assert.Equal(t, "abc123", v)
}

func TestNest(t *testing.T) {
	flat := propbind.NewProperties()
	flat.Set("app.name", "demo")
	flat.Set("app.version", "1.0")
	flat.Set("java.vendor", "none")
	flat.Set("app", "shadowed")
	flat.Set("java.vendor.url", "ignored")
	flat.Set("plain", 3)

	data, err := json.Marshal(Nest(flat))
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"app": {"name": "demo", "version": "1.0"},
		"java": {"vendor": "none"},
		"plain": 3
	}`, string(data))
	assert.Equal(t, `{"app":{"name":"demo","version":"1.0"},"java":{"vendor":"none"},"plain":3}`, string(data))
}

func TestEnvironmentContributor(t *testing.T) {
	sources := propbind.NewPropertySources(
		propbind.NewOrderedSource("args", orderedProps("info.app.name", "override")),
		propbind.NewMapSource("file", map[string]any{
			"info.app.name":    "demo",
			"info.app.version": "1.0",
			"info.team":        "platform",
			"server.port":      8080,
		}),
	)

	b := NewBuilder()
	NewEnvironmentContributor(propbind.NewBinder(sources)).Contribute(b)

	data, err := json.Marshal(b.Build())
	require.NoError(t, err)
	assert.Equal(t, `{"app":{"name":"override","version":"1.0"},"team":"platform"}`, string(data))
}

func orderedProps(kv ...string) *propbind.Properties {
	p := propbind.NewProperties()
	for i := 0; i+1 < len(kv); i += 2 {
		p.Set(kv[i], kv[i+1])
	}
	return p
}
