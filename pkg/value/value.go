package value

import (
	"fmt"
	"sort"
	"strconv"
)

// Value is one node of a snapshot. The concrete types are Null, Bool, Number,
// String, Array and Object; the set is closed, so switches over a Value can be
// exhaustive.
type Value interface {
	isValue()
}

// Null is the JSON null.
type Null struct{}

// Bool is a JSON boolean.
type Bool bool

// Number is a JSON number kept as its decimal text. Keeping the text (instead
// of float64) preserves integer fidelity beyond 2^53, matching the strict
// numeric mode used by the storage layer.
type Number string

// String is a JSON string.
type String string

// Array is an ordered sequence of Values.
type Array []Value

// Object maps string keys to Values.
type Object map[string]Value

func (Null) isValue()   {}
func (Bool) isValue()   {}
func (Number) isValue() {}
func (String) isValue() {}
func (Array) isValue()  {}
func (Object) isValue() {}

// Int builds a Number from an int64.
func Int(i int64) Number {
	return Number(strconv.FormatInt(i, 10))
}

// Float builds a Number from a float64.
func Float(f float64) Number {
	return Number(strconv.FormatFloat(f, 'g', -1, 64))
}

// Int64 parses the number as an integer.
func (n Number) Int64() (int64, error) {
	return strconv.ParseInt(string(n), 10, 64)
}

// Float64 parses the number as a float.
func (n Number) Float64() (float64, error) {
	return strconv.ParseFloat(string(n), 64)
}

// Name returns a short lowercase name for the value's kind, for error
// messages ("object", "string", ...). A nil Value reports "nothing".
func Name(v Value) string {
	switch v.(type) {
	case nil:
		return "nothing"
	case Null:
		return "null"
	case Bool:
		return "bool"
	case Number:
		return "number"
	case String:
		return "string"
	case Array:
		return "array"
	case Object:
		return "object"
	default:
		return fmt.Sprintf("%T", v)
	}
}

// Equal reports structural equality. Numbers are compared numerically when
// both parse (so "100" equals "1e2"), falling back to text otherwise.
func Equal(a, b Value) bool {
	switch av := a.(type) {
	case nil:
		return b == nil
	case Null:
		_, ok := b.(Null)
		return ok
	case Bool:
		bv, ok := b.(Bool)
		return ok && av == bv
	case Number:
		bv, ok := b.(Number)
		if !ok {
			return false
		}
		return numberEqual(av, bv)
	case String:
		bv, ok := b.(String)
		return ok && av == bv
	case Array:
		bv, ok := b.(Array)
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !Equal(av[i], bv[i]) {
				return false
			}
		}
		return true
	case Object:
		bv, ok := b.(Object)
		if !ok || len(av) != len(bv) {
			return false
		}
		for k, ae := range av {
			be, ok := bv[k]
			if !ok || !Equal(ae, be) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

func numberEqual(a, b Number) bool {
	if a == b {
		return true
	}
	ai, aerr := a.Int64()
	bi, berr := b.Int64()
	if aerr == nil && berr == nil {
		return ai == bi
	}
	af, aerr := a.Float64()
	bf, berr := b.Float64()
	if aerr == nil && berr == nil {
		return af == bf
	}
	return false
}

// Clone returns a deep copy. Scalars are returned as-is; Arrays and Objects
// are rebuilt so the copy shares no containers with the original.
func Clone(v Value) Value {
	switch cv := v.(type) {
	case Array:
		out := make(Array, len(cv))
		for i, e := range cv {
			out[i] = Clone(e)
		}
		return out
	case Object:
		out := make(Object, len(cv))
		for k, e := range cv {
			out[k] = Clone(e)
		}
		return out
	default:
		return v
	}
}

// Keys returns the object's keys in sorted order.
func (o Object) Keys() []string {
	keys := make([]string, 0, len(o))
	for k := range o {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
