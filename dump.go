package propbind

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// Redacted replaces the value of sensitive keys in dumps and snapshots.
const Redacted = "***redacted***"

// sensitiveMarkers are matched against the last segment of a key.
var sensitiveMarkers = []string{"password", "secret", "token", "credential"}

// IsSensitiveKey reports whether the value of key should be hidden.
// The last segment is checked for password, secret, token, credential, or a "key" suffix.
func IsSensitiveKey(key string) bool {
	last := strings.ToLower(key)
	if i := strings.LastIndex(last, "."); i >= 0 {
		last = last[i+1:]
	}
	for _, marker := range sensitiveMarkers {
		if strings.Contains(last, marker) {
			return true
		}
	}
	return strings.HasSuffix(last, "key")
}

// DumpOption configures dump behavior using the functional options pattern.
type DumpOption func(*dumpConfig)

type dumpConfig struct {
	withSources bool   // Include source attribution for each key
	asJSON      bool   // Output as JSON instead of text format
	indent      string // Indentation for JSON output (default: "  ")
}

// WithSources includes source attribution for each key in the output.
func WithSources() DumpOption {
	return func(cfg *dumpConfig) {
		cfg.withSources = true
	}
}

// AsJSON outputs properties as a JSON object instead of text lines.
func AsJSON() DumpOption {
	return func(cfg *dumpConfig) {
		cfg.asJSON = true
	}
}

// WithIndent sets the indentation for JSON output.
// Default is two spaces ("  "). An empty indent produces compact JSON.
func WithIndent(indent string) DumpOption {
	return func(cfg *dumpConfig) {
		cfg.indent = indent
	}
}

// Dump writes the properties under prefix in extraction order.
// Values of sensitive keys are written as "***redacted***".
func Dump(w io.Writer, sources *PropertySources, prefix string, opts ...DumpOption) error {
	if sources == nil {
		return ErrNilSources
	}

	config := dumpConfig{indent: "  "}
	for _, opt := range opts {
		opt(&config)
	}

	props := redact(Scope(sources, prefix))

	if config.asJSON {
		return dumpAsJSON(w, props, Origins(sources, prefix), config)
	}
	return dumpAsText(w, props, Origins(sources, prefix), config)
}

func dumpAsText(w io.Writer, props *Properties, origins map[string]string, config dumpConfig) error {
	for key, value := range props.All() {
		line := fmt.Sprintf("%s: %s", key, formatDumpValue(value))
		if config.withSources {
			if origin, ok := origins[key]; ok {
				line += fmt.Sprintf(" (source: %s)", origin)
			}
		}
		line += "\n"

		if _, err := io.WriteString(w, line); err != nil {
			return fmt.Errorf("write error: %w", err)
		}
	}
	return nil
}

func dumpAsJSON(w io.Writer, props *Properties, origins map[string]string, config dumpConfig) error {
	var out any = props
	if config.withSources {
		annotated := NewProperties()
		for key, value := range props.All() {
			annotated.Set(key, map[string]any{
				"value":  value,
				"source": origins[key],
			})
		}
		out = annotated
	}

	var data []byte
	var err error
	if config.indent != "" {
		data, err = json.MarshalIndent(out, "", config.indent)
	} else {
		data, err = json.Marshal(out)
	}
	if err != nil {
		return fmt.Errorf("json marshal error: %w", err)
	}

	data = append(data, '\n')
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write error: %w", err)
	}
	return nil
}

// redact returns a copy of props with sensitive values replaced.
func redact(props *Properties) *Properties {
	out := NewProperties()
	for key, value := range props.All() {
		if IsSensitiveKey(key) {
			value = Redacted
		}
		out.Set(key, value)
	}
	return out
}

// formatDumpValue formats a raw value for text output.
func formatDumpValue(value any) string {
	switch v := value.(type) {
	case nil:
		return "<nil>"
	case string:
		if v == Redacted {
			return v
		}
		return fmt.Sprintf("%q", v)
	case []any:
		parts := make([]string, len(v))
		for i, item := range v {
			parts[i] = fmt.Sprint(item)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	default:
		return fmt.Sprint(v)
	}
}
