package value

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

var (
	// ErrMalformedNumber reports a Number whose text is not valid JSON.
	ErrMalformedNumber = errors.New("value: malformed number")

	// ErrTrailingData reports extra content after the first JSON document.
	ErrTrailingData = errors.New("value: trailing data after document")
)

// Encode renders the value as compact JSON. Object keys are emitted in sorted
// order so the same Value always encodes to the same bytes.
func Encode(v Value) ([]byte, error) {
	var buf bytes.Buffer
	if err := encode(&buf, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// EncodeIndent renders the value as indented JSON for human consumption.
func EncodeIndent(v Value) ([]byte, error) {
	compact, err := Encode(v)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, compact, "", "  "); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func encode(buf *bytes.Buffer, v Value) error {
	switch ev := v.(type) {
	case nil, Null:
		buf.WriteString("null")
	case Bool:
		if ev {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
	case Number:
		if !json.Valid([]byte(ev)) {
			return fmt.Errorf("%w: %q", ErrMalformedNumber, string(ev))
		}
		buf.WriteString(string(ev))
	case String:
		quoted, err := json.Marshal(string(ev))
		if err != nil {
			return err
		}
		buf.Write(quoted)
	case Array:
		buf.WriteByte('[')
		for i, e := range ev {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := encode(buf, e); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case Object:
		buf.WriteByte('{')
		for i, k := range ev.Keys() {
			if i > 0 {
				buf.WriteByte(',')
			}
			quoted, err := json.Marshal(k)
			if err != nil {
				return err
			}
			buf.Write(quoted)
			buf.WriteByte(':')
			if err := encode(buf, ev[k]); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	default:
		return fmt.Errorf("value: cannot encode %T", v)
	}
	return nil
}

// Decode parses one JSON document into a Value. Numbers are kept as their
// decimal text rather than float64.
func Decode(data []byte) (Value, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("value: decode: %w", err)
	}
	if dec.More() {
		return nil, ErrTrailingData
	}
	return FromGo(raw)
}

// FromGo converts plain Go data (the shapes encoding/json and most transports
// produce) into a Value. Values pass through unchanged.
func FromGo(x any) (Value, error) {
	switch gv := x.(type) {
	case nil:
		return Null{}, nil
	case Value:
		return gv, nil
	case bool:
		return Bool(gv), nil
	case string:
		return String(gv), nil
	case json.Number:
		return Number(gv), nil
	case int:
		return Int(int64(gv)), nil
	case int32:
		return Int(int64(gv)), nil
	case int64:
		return Int(gv), nil
	case float32:
		return Float(float64(gv)), nil
	case float64:
		return Float(gv), nil
	case []any:
		out := make(Array, len(gv))
		for i, e := range gv {
			ev, err := FromGo(e)
			if err != nil {
				return nil, err
			}
			out[i] = ev
		}
		return out, nil
	case map[string]any:
		out := make(Object, len(gv))
		for k, e := range gv {
			ev, err := FromGo(e)
			if err != nil {
				return nil, err
			}
			out[k] = ev
		}
		return out, nil
	default:
		return nil, fmt.Errorf("value: cannot represent %T", x)
	}
}
