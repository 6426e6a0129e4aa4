package info

import (
	"strings"

	"github.com/Azhovan/propbind"
)

// Prefix is the namespace EnvironmentContributor reads.
const Prefix = "info"

// EnvironmentContributor publishes the properties under "info".
type EnvironmentContributor struct {
	binder *propbind.Binder
}

// NewEnvironmentContributor creates a contributor reading through binder.
func NewEnvironmentContributor(binder *propbind.Binder) *EnvironmentContributor {
	return &EnvironmentContributor{binder: binder}
}

// Contribute adds one detail per top-level segment under "info". Dotted keys
// become nested objects; when a key is both a value and a parent, the first one seen wins.
func (c *EnvironmentContributor) Contribute(b *Builder) {
	for key, value := range Nest(c.binder.ExtractAll(Prefix)).All() {
		b.WithDetail(key, value)
	}
}

// Nest turns flat dotted keys into nested *propbind.Properties, keeping order.
func Nest(flat *propbind.Properties) *propbind.Properties {
	root := propbind.NewProperties()
	for key, value := range flat.All() {
		insert(root, strings.Split(key, "."), value)
	}
	return root
}

func insert(node *propbind.Properties, path []string, value any) {
	head := path[0]
	existing, ok := node.Get(head)

	if len(path) == 1 {
		if !ok {
			node.Set(head, value)
		}
		return
	}

	if !ok {
		child := propbind.NewProperties()
		node.Set(head, child)
		insert(child, path[1:], value)
		return
	}
	if child, isNode := existing.(*propbind.Properties); isNode {
		insert(child, path[1:], value)
	}
}
