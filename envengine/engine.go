// Package envengine provides a propbind.Engine backed by github.com/caarlos0/env.
//
// The properties under the namespace are turned into an environment
// (server.max-size → MAX_SIZE after the namespace is stripped) and the target
// struct is parsed from it, so struct tags follow the env conventions:
//
//	type Server struct {
//	    Host    string `envDefault:"localhost"`
//	    MaxSize int    `env:"MAX_SIZE,required"`
//	}
//
//	binder := propbind.NewBinder(sources, propbind.WithEngine(envengine.New()))
//	err := binder.BindTo("server", &srv)
//
// Fields without an env tag use their name converted to SCREAMING_SNAKE_CASE.
// Nested structs need an envPrefix tag. Targets that are not pointers to
// structs are handed to the fallback engine.
package envengine

import (
	"fmt"
	"reflect"
	"strings"
	"unicode"

	"github.com/Azhovan/propbind"
	"github.com/Azhovan/propbind/internal/normalize"
	"github.com/caarlos0/env/v11"
)

// Engine binds struct targets with caarlos0/env.
type Engine struct {
	// Fallback handles map targets. Default: propbind.ReflectEngine{}.
	Fallback propbind.Engine
}

// New returns an Engine with the default fallback.
func New() *Engine {
	return &Engine{Fallback: propbind.ReflectEngine{}}
}

// Bind implements propbind.Engine.
func (e *Engine) Bind(sources *propbind.PropertySources, namespace string, target any) error {
	if sources == nil {
		return propbind.ErrNilSources
	}

	rv := reflect.ValueOf(target)
	if rv.Kind() != reflect.Ptr || rv.IsNil() || rv.Elem().Kind() != reflect.Struct {
		fallback := e.Fallback
		if fallback == nil {
			fallback = propbind.ReflectEngine{}
		}
		return fallback.Bind(sources, namespace, target)
	}

	environment := Environment(propbind.Scope(sources, namespace))
	return env.ParseWithOptions(target, env.Options{
		Environment:           environment,
		UseFieldNameByDefault: true,
	})
}

// Environment renders properties as environment variables.
// The first key to claim a variable name wins.
func Environment(props *propbind.Properties) map[string]string {
	out := make(map[string]string, props.Len())
	for key, value := range props.All() {
		name := VarName(key)
		if _, ok := out[name]; ok {
			continue
		}
		out[name] = formatValue(value)
	}
	return out
}

// VarName converts a relative property key to an environment variable name.
// Examples:
//   - "max-size" → "MAX_SIZE"
//   - "maxSize" → "MAX_SIZE"
//   - "pool.min_idle" → "POOL_MIN_IDLE"
func VarName(key string) string {
	var b strings.Builder
	b.Grow(len(key) + 4)
	var prev rune
	for i, r := range key {
		if i > 0 && unicode.IsUpper(r) && unicode.IsLower(prev) {
			b.WriteByte('_')
		}
		b.WriteRune(r)
		prev = r
	}
	return normalize.EnvName(b.String())
}

func formatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case []any:
		parts := make([]string, len(val))
		for i, item := range val {
			parts[i] = formatValue(item)
		}
		return strings.Join(parts, ",")
	case []string:
		return strings.Join(val, ",")
	default:
		return fmt.Sprint(val)
	}
}
