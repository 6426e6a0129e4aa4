package propbind

import (
	"strings"
)

// DefaultTagName is the struct tag read by ReflectEngine.
const DefaultTagName = "prop"

// tagConfig holds parsed directives from a struct field's tag.
type tagConfig struct {
	skip       bool     // Field is ignored (tag "-")
	name       string   // Key segment(s) replacing the field name (name:custom.path)
	prefix     string   // Key segment(s) for a nested struct (prefix:foo)
	defValue   string   // Default value (default:value)
	hasDefault bool     // Whether a default directive was present
	min        string   // Minimum constraint (min:N)
	max        string   // Maximum constraint (max:M)
	oneof      []string // Allowed values (oneof:a,b,c)
	required   bool     // Field is required (required or required:true)
	secret     bool     // Field is secret (secret or secret:true)
}

// knownDirectives is used to find where an oneof value list ends.
var knownDirectives = []string{"name:", "prefix:", "default:", "min:", "max:", "oneof:", "required", "secret"}

// parseTag parses a struct tag into a tagConfig.
// Tag format: "directive1:value1,directive2:value2,..."
// Boolean directives can omit `:true` (e.g., "required" == "required:true").
func parseTag(tag string) tagConfig {
	cfg := tagConfig{}

	tag = strings.TrimSpace(tag)
	if tag == "" {
		return cfg
	}
	if tag == "-" {
		cfg.skip = true
		return cfg
	}

	for _, directive := range splitDirectives(tag) {
		directive = strings.TrimSpace(directive)
		if directive == "" {
			continue
		}

		name, value, _ := strings.Cut(directive, ":")
		name = strings.TrimSpace(name)

		switch name {
		case "name":
			cfg.name = value
		case "prefix":
			cfg.prefix = value
		case "default":
			// Don't trim: an empty or padded default may be intentional
			cfg.defValue = value
			cfg.hasDefault = true
		case "min":
			cfg.min = value
		case "max":
			cfg.max = value
		case "oneof":
			if value != "" {
				for _, opt := range strings.Split(value, ",") {
					cfg.oneof = append(cfg.oneof, strings.TrimSpace(opt))
				}
			}
		case "required":
			cfg.required = parseBoolDirective(value)
		case "secret":
			cfg.secret = parseBoolDirective(value)
		}
	}

	return cfg
}

// parseBoolDirective treats anything but an explicit "false" as true.
func parseBoolDirective(value string) bool {
	return strings.TrimSpace(value) != "false"
}

// splitDirectives splits a tag string into individual directives,
// keeping the commas that belong to an oneof value list.
func splitDirectives(tag string) []string {
	var directives []string
	var current strings.Builder
	inOneof := false

	for i := 0; i < len(tag); i++ {
		if !inOneof && strings.HasPrefix(tag[i:], "oneof:") {
			inOneof = true
			current.WriteString("oneof:")
			i += len("oneof:") - 1
			continue
		}

		ch := tag[i]
		if ch != ',' {
			current.WriteByte(ch)
			continue
		}

		if inOneof && !startsWithDirective(tag[i+1:]) {
			// Comma inside the oneof list
			current.WriteByte(ch)
			continue
		}

		inOneof = false
		directives = append(directives, current.String())
		current.Reset()
	}

	if current.Len() > 0 {
		directives = append(directives, current.String())
	}

	return directives
}

// startsWithDirective checks if a string starts with a known directive name.
func startsWithDirective(s string) bool {
	s = strings.TrimSpace(s)
	for _, d := range knownDirectives {
		if strings.HasPrefix(s, d) {
			return true
		}
	}
	return false
}

// keySegment returns the key segment a field binds from.
func (c tagConfig) keySegment(fieldName string) string {
	if c.name != "" {
		return c.name
	}
	if c.prefix != "" {
		return c.prefix
	}
	return fieldName
}
