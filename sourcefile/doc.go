// Package sourcefile loads configuration from YAML, JSON, or TOML files.
//
// Format is auto-detected from extension (.yaml, .json, .toml).
// Nested tables are flattened to dotted keys; YAML keeps document order.
//
// Example:
//
//	source := sourcefile.New("config.yaml", sourcefile.Options{Required: true})
//	sources, err := propbind.NewLoader().WithSource(source).Load(ctx)
package sourcefile
