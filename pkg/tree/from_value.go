package tree

import (
	"github.com/aretw0/taproot/pkg/schema"
	"github.com/aretw0/taproot/pkg/value"
)

// FromValue materializes a tree mirroring the shape of a snapshot: objects
// become branches, arrays become lists, scalars become untyped cells. Useful
// when the tree's shape is only known from a stored document, as in the
// taproot CLI's serve mode.
func FromValue(v value.Value) Node {
	switch fv := v.(type) {
	case value.Object:
		b := NewBranch()
		for _, k := range fv.Keys() {
			// Add cannot fail here: keys of an object are unique.
			_ = b.Add(k, FromValue(fv[k]))
		}
		return b
	case value.Array:
		items := make([]Node, len(fv))
		for i, e := range fv {
			items[i] = FromValue(e)
		}
		return NewList(items...)
	default:
		return NewCell(v)
	}
}

// FromValueTyped materializes a tree like FromValue, attaching declared types
// to the root document's fields so that later writes through the tree are
// checked. A typed field backed by an array becomes a single typed cell
// rather than a list; objects and undeclared fields fall back to FromValue.
func FromValueTyped(v value.Value, types schema.Schema) Node {
	obj, ok := v.(value.Object)
	if !ok || len(types) == 0 {
		return FromValue(v)
	}
	b := NewBranch()
	for _, k := range obj.Keys() {
		child := obj[k]
		t, declared := types[k]
		if _, composite := child.(value.Object); declared && !composite {
			_ = b.Add(k, NewCell(child, WithType(t)))
			continue
		}
		_ = b.Add(k, FromValue(child))
	}
	return b
}
