package normalize

import (
	"strings"
)

// ToLowerDotPath normalizes an environment-style key to a lowercase dot-separated path.
// Double underscores (__) are treated as level separators and converted to dots.
// Single underscores within a level are preserved.
// Examples:
//   - "FOO__BAR" → "foo.bar"
//   - "DB_MAX_CONNECTIONS" → "db_max_connections"
//   - "API__RATE_LIMIT" → "api.rate_limit"
func ToLowerDotPath(key string) string {
	normalized := strings.ReplaceAll(key, "__", ".")
	return strings.ToLower(normalized)
}

// Canonical reduces a key to its relaxed form: every segment is lowercased and
// stripped of '-' and '_'. Two keys with the same canonical form name the same property.
// Examples:
//   - "app.max-size" → "app.maxsize"
//   - "APP.Max_Size" → "app.maxsize"
//   - "app.maxSize" → "app.maxsize"
func Canonical(key string) string {
	var b strings.Builder
	b.Grow(len(key))
	for _, r := range strings.ToLower(key) {
		if r == '-' || r == '_' {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// CleanPrefix trims whitespace and surrounding dots from a prefix.
// A blank prefix cleans to "".
func CleanPrefix(prefix string) string {
	return strings.Trim(strings.TrimSpace(prefix), ".")
}

// ApplyPrefix combines a prefix with a key to create a nested configuration path.
// If prefix is empty, returns the key unchanged.
// Examples:
//   - ApplyPrefix("database", "host") → "database.host"
//   - ApplyPrefix("", "host") → "host"
func ApplyPrefix(prefix, key string) string {
	if prefix == "" {
		return key
	}
	if key == "" {
		return prefix
	}
	return prefix + "." + key
}

// StripPrefix reports whether key lives under prefix and returns the remainder.
// Matching is segment-aware and relaxed: "app.info" matches "App.Info.name" but
// not "app.information". A key equal to the prefix is not under it.
// An empty prefix matches every non-empty key unchanged.
func StripPrefix(key, prefix string) (string, bool) {
	if prefix == "" {
		return key, key != ""
	}

	prefixSegments := strings.Split(prefix, ".")
	keySegments := strings.Split(key, ".")
	if len(keySegments) <= len(prefixSegments) {
		return "", false
	}

	for i, seg := range prefixSegments {
		if Canonical(seg) != Canonical(keySegments[i]) {
			return "", false
		}
	}

	rest := strings.Join(keySegments[len(prefixSegments):], ".")
	return rest, rest != ""
}

// EnvName converts a dotted key to an environment variable name.
// Examples:
//   - "max-size" → "MAX_SIZE"
//   - "db.pool.size" → "DB_POOL_SIZE"
func EnvName(key string) string {
	r := strings.NewReplacer(".", "_", "-", "_")
	return strings.ToUpper(r.Replace(key))
}
