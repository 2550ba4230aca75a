package cli

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"golang.org/x/term"

	"github.com/aretw0/taproot/internal/logging"
	"github.com/aretw0/taproot/pkg/value"
)

// NewLogger configures the CLI logger. Debug mode logs to stderr so stdout
// stays reserved for command output.
func NewLogger(debug bool) *slog.Logger {
	if debug {
		return logging.New(slog.LevelDebug)
	}
	return logging.New(slog.LevelWarn)
}

// IsInteractive reports whether stdout is a terminal, gating banners and
// colored output.
func IsInteractive() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// ParseValueArg turns a CLI argument into a snapshot value. Valid JSON is
// taken as-is ("42", "true", `{"a":1}`); anything else is treated as a bare
// string, so `taproot set rig.mode usb` works without quoting gymnastics.
func ParseValueArg(arg string) (value.Value, error) {
	if json.Valid([]byte(arg)) {
		return value.Decode([]byte(arg))
	}
	return value.String(arg), nil
}

// PrintValue writes a value to stdout as indented JSON.
func PrintValue(v value.Value) error {
	data, err := value.EncodeIndent(v)
	if err != nil {
		return fmt.Errorf("failed to encode value: %w", err)
	}
	fmt.Println(string(data))
	return nil
}

// Dig walks a dotted path into a snapshot value, for reading stored
// documents without materializing a tree.
func Dig(v value.Value, path string) (value.Value, error) {
	if path == "" {
		return v, nil
	}
	node := v
	for _, seg := range splitPath(path) {
		obj, ok := node.(value.Object)
		if !ok {
			return nil, fmt.Errorf("cannot descend into %s at %q", value.Name(node), seg)
		}
		child, ok := obj[seg]
		if !ok {
			return nil, fmt.Errorf("no key %q", seg)
		}
		node = child
	}
	return node, nil
}

// Put sets a dotted path inside a snapshot object, creating intermediate
// objects as needed, and returns the updated document.
func Put(v value.Value, path string, newValue value.Value) (value.Value, error) {
	segs := splitPath(path)
	if len(segs) == 0 {
		return newValue, nil
	}

	obj, ok := v.(value.Object)
	if !ok {
		if v != nil {
			if _, isNull := v.(value.Null); !isNull {
				return nil, fmt.Errorf("cannot set %q inside %s", segs[0], value.Name(v))
			}
		}
		obj = value.Object{}
	}

	out := value.Clone(obj).(value.Object)
	cur := out
	for _, seg := range segs[:len(segs)-1] {
		next, ok := cur[seg].(value.Object)
		if !ok {
			next = value.Object{}
			cur[seg] = next
		}
		cur = next
	}
	cur[segs[len(segs)-1]] = newValue
	return out, nil
}

func splitPath(path string) []string {
	if path == "" {
		return nil
	}
	var segs []string
	start := 0
	for i := 0; i <= len(path); i++ {
		if i == len(path) || path[i] == '.' {
			if i > start {
				segs = append(segs, path[start:i])
			}
			start = i + 1
		}
	}
	return segs
}
