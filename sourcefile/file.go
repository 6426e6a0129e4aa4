package sourcefile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/Azhovan/propbind"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Options configures file source behavior.
type Options struct {
	// Format: "yaml", "json", or "toml". Auto-detected from extension if empty.
	Format string

	// Required: if true, missing files cause an error. Default: false (returns empty map).
	Required bool
}

type fileSource struct {
	path string
	opts Options
}

// New creates a file-based configuration source.
func New(path string, opts Options) propbind.OrderedSource {
	return &fileSource{
		path: path,
		opts: opts,
	}
}

// Load reads and parses the file, returning flattened configuration.
func (f *fileSource) Load(ctx context.Context) (map[string]any, error) {
	props, err := f.LoadOrdered(ctx)
	if err != nil {
		return nil, err
	}
	return props.ToMap(), nil
}

// LoadOrdered reads and parses the file. YAML documents keep their key order;
// JSON and TOML keys are sorted.
func (f *fileSource) LoadOrdered(ctx context.Context) (*propbind.Properties, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	props := propbind.NewProperties()

	data, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			if f.opts.Required {
				return nil, fmt.Errorf("required config file not found: %s: %w", f.path, err)
			}
			return props, nil
		}
		return nil, fmt.Errorf("read config file %s: %w", f.path, err)
	}

	format := f.opts.Format
	if format == "" {
		format = inferFormat(f.path)
	}

	switch format {
	case "yaml", "yml":
		var doc yaml.Node
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("parse YAML file %s: %w", f.path, err)
		}
		if err := flattenNode("", &doc, props); err != nil {
			return nil, fmt.Errorf("parse YAML file %s: %w", f.path, err)
		}
		return props, nil
	case "json":
		var raw map[string]any
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("parse JSON file %s: %w", f.path, err)
		}
		return sortedProperties(raw), nil
	case "toml":
		var raw map[string]any
		if err := toml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("parse TOML file %s: %w", f.path, err)
		}
		return sortedProperties(raw), nil
	default:
		return nil, fmt.Errorf("unsupported file format: %s (supported: yaml, json, toml)", format)
	}
}

// Name returns a human-readable identifier for this source.
func (f *fileSource) Name() string {
	return "file:" + filepath.Base(f.path)
}

func sortedProperties(raw map[string]any) *propbind.Properties {
	flat := make(map[string]any)
	flattenMap("", raw, flat)

	props := propbind.NewProperties()
	for _, key := range slices.Sorted(maps.Keys(flat)) {
		props.Set(key, flat[key])
	}
	return props
}

// flattenMap recursively flattens nested maps to dot-separated keys.
func flattenMap(prefix string, value any, result map[string]any) {
	switch v := value.(type) {
	case map[string]any:
		for key, val := range v {
			flattenMap(joinKey(prefix, key), val, result)
		}
	case map[any]any:
		for key, val := range v {
			keyStr, ok := key.(string)
			if !ok {
				continue
			}
			flattenMap(joinKey(prefix, keyStr), val, result)
		}
	default:
		if prefix != "" {
			result[prefix] = value
		}
	}
}

// flattenNode walks a YAML node tree in document order.
func flattenNode(prefix string, node *yaml.Node, props *propbind.Properties) error {
	switch node.Kind {
	case yaml.DocumentNode:
		for _, child := range node.Content {
			if err := flattenNode(prefix, child, props); err != nil {
				return err
			}
		}
		return nil
	case yaml.AliasNode:
		return flattenNode(prefix, node.Alias, props)
	case yaml.MappingNode:
		pairs, err := mappingPairs(node)
		if err != nil {
			return fmt.Errorf("key %s: %w", prefix, err)
		}
		for _, p := range pairs {
			if err := flattenNode(joinKey(prefix, p.key.Value), p.value, props); err != nil {
				return err
			}
		}
		return nil
	default:
		if prefix == "" {
			return nil
		}
		var value any
		if err := node.Decode(&value); err != nil {
			return fmt.Errorf("key %s: %w", prefix, err)
		}
		props.Set(prefix, value)
		return nil
	}
}

type nodePair struct {
	key, value *yaml.Node
}

// mappingPairs returns the entries of a mapping with merge keys resolved:
// explicit keys in document order, then the keys contributed by "<<" that the
// mapping does not set itself. Earlier merge sources win over later ones.
func mappingPairs(node *yaml.Node) ([]nodePair, error) {
	var pairs []nodePair
	var merges []*yaml.Node
	seen := make(map[string]bool)

	for i := 0; i+1 < len(node.Content); i += 2 {
		keyNode, valNode := node.Content[i], node.Content[i+1]
		if keyNode.Tag == "!!merge" {
			if valNode.Kind == yaml.SequenceNode {
				merges = append(merges, valNode.Content...)
			} else {
				merges = append(merges, valNode)
			}
			continue
		}
		seen[keyNode.Value] = true
		pairs = append(pairs, nodePair{key: keyNode, value: valNode})
	}

	for _, m := range merges {
		for m.Kind == yaml.AliasNode {
			m = m.Alias
		}
		if m.Kind != yaml.MappingNode {
			return nil, fmt.Errorf("merge value must be a mapping")
		}
		merged, err := mappingPairs(m)
		if err != nil {
			return nil, err
		}
		for _, p := range merged {
			if seen[p.key.Value] {
				continue
			}
			seen[p.key.Value] = true
			pairs = append(pairs, p)
		}
	}

	return pairs, nil
}

func joinKey(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + "." + key
}

func inferFormat(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".yaml", ".yml":
		return "yaml"
	case ".json":
		return "json"
	case ".toml":
		return "toml"
	default:
		return ""
	}
}
