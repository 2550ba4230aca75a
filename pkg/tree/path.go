package tree

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/aretw0/taproot/pkg/value"
)

// Lookup walks a dotted path from root ("rig.freq", "inputs.0.gain") and
// returns the node it lands on. The empty path returns root.
func Lookup(root Node, path string) (Node, error) {
	if path == "" {
		return root, nil
	}

	node := root
	segs := strings.Split(path, ".")
	for i, seg := range segs {
		at := strings.Join(segs[:i+1], ".")
		switch n := node.(type) {
		case *Branch:
			child, ok := n.Child(seg)
			if !ok {
				return nil, fmt.Errorf("%s: %w", at, ErrUnknownKey)
			}
			node = child
		case *List:
			idx, err := strconv.Atoi(seg)
			if err != nil {
				return nil, fmt.Errorf("%s: list index %q is not a number", at, seg)
			}
			item, ok := n.At(idx)
			if !ok {
				return nil, fmt.Errorf("%s: index out of range", at)
			}
			node = item
		default:
			return nil, fmt.Errorf("%s: %T has no children", at, node)
		}
	}
	return node, nil
}

// Get serializes the node at path without arming subscriptions.
func Get(root Node, path string) (value.Value, error) {
	node, err := Lookup(root, path)
	if err != nil {
		return nil, err
	}
	return node.Serialize(nil)
}

// Set writes a value to the cell at path.
func Set(root Node, path string, v value.Value) error {
	node, err := Lookup(root, path)
	if err != nil {
		return err
	}
	cell, ok := node.(*Cell)
	if !ok {
		return fmt.Errorf("%s: not a cell (%T)", path, node)
	}
	if err := cell.Set(v); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}
