package tree

import (
	"fmt"

	"github.com/aretw0/taproot/pkg/schema"
	"github.com/aretw0/taproot/pkg/value"
)

// Cell is a leaf node holding one snapshot value. Cells optionally carry a
// schema type and, for numeric cells, a range constraint; both police every
// write. Read-only cells still serialize and still notify subscribers when
// updated internally (hardware-fed readings work this way), but external
// writes and snapshot restores leave them alone.
type Cell struct {
	subscribers

	v        value.Value
	typ      schema.Type
	rng      *schema.Range
	readOnly bool
}

// CellOption configures a Cell.
type CellOption func(*Cell)

// WithType attaches a schema type checked on every write.
func WithType(t schema.Type) CellOption {
	return func(c *Cell) {
		c.typ = t
	}
}

// WithRange attaches a numeric range constraint. Non-strict ranges clamp
// out-of-bounds writes; strict ranges reject them.
func WithRange(r schema.Range) CellOption {
	return func(c *Cell) {
		c.rng = &r
	}
}

// ReadOnly marks the cell as externally immutable: Set fails and Deserialize
// skips it. Update still works.
func ReadOnly() CellOption {
	return func(c *Cell) {
		c.readOnly = true
	}
}

// NewCell creates a cell holding initial. The initial value is trusted and
// not validated against the options.
func NewCell(initial value.Value, opts ...CellOption) *Cell {
	c := &Cell{v: initial}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the cell's current value. Treat it as immutable.
func (c *Cell) Get() value.Value {
	return c.v
}

// ReadOnlyCell reports whether external writes are rejected.
func (c *Cell) ReadOnlyCell() bool {
	return c.readOnly
}

// Set applies an external write: validation, range policing, then change
// notification if the stored value actually changed.
func (c *Cell) Set(v value.Value) error {
	if c.readOnly {
		return ErrReadOnly
	}
	return c.apply(v)
}

// Update applies an internal write, bypassing the read-only guard. Intended
// for the authoritative side of a read-only cell (a device reporting its
// sample rate); validation still applies.
func (c *Cell) Update(v value.Value) error {
	return c.apply(v)
}

func (c *Cell) apply(v value.Value) error {
	if c.typ != nil {
		if err := c.typ.Validate(v); err != nil {
			return err
		}
	}
	if c.rng != nil {
		n, ok := v.(value.Number)
		if !ok {
			return fmt.Errorf("range constraint needs a number, got %s", value.Name(v))
		}
		constrained, err := c.rng.Apply(n)
		if err != nil {
			return err
		}
		v = constrained
	}

	if value.Equal(c.v, v) {
		return nil
	}
	c.v = v
	c.notify()
	return nil
}

// Serialize reports the cell to visit and returns its value.
func (c *Cell) Serialize(visit func(Node)) (value.Value, error) {
	if visit != nil {
		visit(c)
	}
	return c.v, nil
}

// Deserialize restores the cell from a snapshot. Read-only cells ignore the
// incoming value: the live side owns them, and a stale stored copy must not
// override it.
func (c *Cell) Deserialize(v value.Value) error {
	if c.readOnly {
		return nil
	}
	return c.apply(v)
}
