package schema

import (
	"fmt"
	"math"

	"github.com/aretw0/taproot/pkg/value"
)

// Range constrains a numeric cell to [Min, Max]. Strict ranges reject
// out-of-bounds writes; non-strict ranges clamp them to the violated bound,
// which is the friendlier behavior for hardware-backed settings (a tuner asked
// for 5 GHz settles on its maximum instead of erroring).
type Range struct {
	Min    float64
	Max    float64
	Strict bool
}

// NewRange builds a clamping range.
func NewRange(min, max float64) Range {
	return Range{Min: min, Max: max}
}

// NewStrictRange builds a rejecting range.
func NewStrictRange(min, max float64) Range {
	return Range{Min: min, Max: max, Strict: true}
}

// Apply checks n against the range. In-bounds values come back unchanged, with
// their original text intact. Out-of-bounds values either error (Strict) or
// come back clamped.
func (r Range) Apply(n value.Number) (value.Number, error) {
	f, err := n.Float64()
	if err != nil {
		return n, fmt.Errorf("range: not numeric: %q", string(n))
	}
	if f >= r.Min && f <= r.Max {
		return n, nil
	}
	if r.Strict {
		return n, fmt.Errorf("range: %v outside [%v, %v]", f, r.Min, r.Max)
	}

	clamped := math.Min(math.Max(f, r.Min), r.Max)
	if clamped == math.Trunc(clamped) && math.Abs(clamped) < 1<<53 {
		return value.Int(int64(clamped)), nil
	}
	return value.Float(clamped), nil
}

func (r Range) String() string {
	if r.Strict {
		return fmt.Sprintf("[%v, %v] strict", r.Min, r.Max)
	}
	return fmt.Sprintf("[%v, %v]", r.Min, r.Max)
}
