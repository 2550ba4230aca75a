package tree

import (
	"errors"
	"fmt"

	"github.com/aretw0/taproot/pkg/value"
)

// List is a composite node with positional children. Like Branch, its own
// value is its shape; appending notifies the list's subscribers.
type List struct {
	subscribers

	items []Node
}

// NewList creates a list over the given items.
func NewList(items ...Node) *List {
	return &List{items: items}
}

// Append attaches an item at the end.
func (l *List) Append(item Node) {
	l.items = append(l.items, item)
	l.notify()
}

// Len returns the item count.
func (l *List) Len() int {
	return len(l.items)
}

// At returns the item at index i.
func (l *List) At(i int) (Node, bool) {
	if i < 0 || i >= len(l.items) {
		return nil, false
	}
	return l.items[i], true
}

// Serialize reports the list to visit, then serializes every item in order
// into an array.
func (l *List) Serialize(visit func(Node)) (value.Value, error) {
	if visit != nil {
		visit(l)
	}
	arr := make(value.Array, len(l.items))
	for i, item := range l.items {
		v, err := item.Serialize(visit)
		if err != nil {
			return nil, fmt.Errorf("[%d]: %w", i, err)
		}
		arr[i] = v
	}
	return arr, nil
}

// Deserialize applies an array snapshot item by item. The array must match
// the list's length exactly: a mismatch means the snapshot was taken against
// a differently-shaped tree, which schema-less persistence cannot reconcile.
func (l *List) Deserialize(v value.Value) error {
	arr, ok := v.(value.Array)
	if !ok {
		return fmt.Errorf("expected array, got %s", value.Name(v))
	}
	if len(arr) != len(l.items) {
		return fmt.Errorf("%w: got %d items, want %d", ErrLength, len(arr), len(l.items))
	}

	var errs []error
	for i, item := range l.items {
		if err := item.Deserialize(arr[i]); err != nil {
			errs = append(errs, fmt.Errorf("[%d]: %w", i, err))
		}
	}
	return errors.Join(errs...)
}
