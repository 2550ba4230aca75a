package tree

import (
	"errors"
	"fmt"
	"sort"

	"github.com/aretw0/taproot/pkg/value"
)

// Branch is a composite node with named children. Its own externally visible
// value is its shape: adding or removing a child notifies the branch's
// subscribers, while changes inside a child notify that child's.
type Branch struct {
	subscribers

	children map[string]Node
}

// NewBranch creates an empty branch.
func NewBranch() *Branch {
	return &Branch{children: make(map[string]Node)}
}

// Add attaches a child under name. Attaching over an existing name is an
// error; use Remove first when replacing a child.
func (b *Branch) Add(name string, child Node) error {
	if _, exists := b.children[name]; exists {
		return fmt.Errorf("add %q: duplicate child", name)
	}
	b.children[name] = child
	b.notify()
	return nil
}

// Remove detaches the named child. Removing an absent name is a no-op.
func (b *Branch) Remove(name string) {
	if _, exists := b.children[name]; !exists {
		return
	}
	delete(b.children, name)
	b.notify()
}

// Child returns the named child.
func (b *Branch) Child(name string) (Node, bool) {
	child, ok := b.children[name]
	return child, ok
}

// Names returns the children's names in sorted order.
func (b *Branch) Names() []string {
	names := make([]string, 0, len(b.children))
	for name := range b.children {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Serialize reports the branch to visit, then serializes every child in name
// order into an object.
func (b *Branch) Serialize(visit func(Node)) (value.Value, error) {
	if visit != nil {
		visit(b)
	}
	obj := make(value.Object, len(b.children))
	for _, name := range b.Names() {
		v, err := b.children[name].Serialize(visit)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		obj[name] = v
	}
	return obj, nil
}

// Deserialize applies an object snapshot: known keys recurse into the
// matching child, unknown keys are errors, absent keys are skipped (a
// defaults snapshot may legitimately cover only part of the tree). All
// failures are reported together.
func (b *Branch) Deserialize(v value.Value) error {
	obj, ok := v.(value.Object)
	if !ok {
		return fmt.Errorf("expected object, got %s", value.Name(v))
	}

	var errs []error
	for _, key := range obj.Keys() {
		child, ok := b.children[key]
		if !ok {
			errs = append(errs, fmt.Errorf("%s: %w", key, ErrUnknownKey))
			continue
		}
		if err := child.Deserialize(obj[key]); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", key, err))
		}
	}
	return errors.Join(errs...)
}
