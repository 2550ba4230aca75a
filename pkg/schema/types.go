package schema

import (
	"fmt"
	"math"

	"github.com/aretw0/taproot/pkg/value"
)

// Type defines the contract for cell and field validation.
// Implementations determine how snapshot values are validated against a type.
type Type interface {
	// Name returns the human-readable name of the type (e.g., "string", "int").
	Name() string
	// Validate checks if a value conforms to this type.
	Validate(v value.Value) error
}

// --- Built-in Type Implementations ---

// StringType validates string values.
type StringType struct{}

func (t *StringType) Name() string { return "string" }

func (t *StringType) Validate(v value.Value) error {
	if _, ok := v.(value.String); !ok {
		return fmt.Errorf("expected string, got %s", value.Name(v))
	}
	return nil
}

// IntType validates integer values.
type IntType struct{}

func (t *IntType) Name() string { return "int" }

func (t *IntType) Validate(v value.Value) error {
	n, ok := v.(value.Number)
	if !ok {
		return fmt.Errorf("expected int, got %s", value.Name(v))
	}
	if _, err := n.Int64(); err == nil {
		return nil
	}
	// Accept floats that are whole numbers (from lenient encoders)
	f, err := n.Float64()
	if err != nil || f != math.Trunc(f) {
		return fmt.Errorf("expected int, got %s", string(n))
	}
	return nil
}

// FloatType validates floating-point values.
type FloatType struct{}

func (t *FloatType) Name() string { return "float" }

func (t *FloatType) Validate(v value.Value) error {
	n, ok := v.(value.Number)
	if !ok {
		return fmt.Errorf("expected float, got %s", value.Name(v))
	}
	if _, err := n.Float64(); err != nil {
		return fmt.Errorf("expected float, got %s", string(n))
	}
	return nil
}

// BoolType validates boolean values.
type BoolType struct{}

func (t *BoolType) Name() string { return "bool" }

func (t *BoolType) Validate(v value.Value) error {
	if _, ok := v.(value.Bool); !ok {
		return fmt.Errorf("expected bool, got %s", value.Name(v))
	}
	return nil
}

// SliceType validates arrays of a specific element type.
type SliceType struct {
	elemType Type
}

func (t *SliceType) Name() string {
	return fmt.Sprintf("[%s]", t.elemType.Name())
}

func (t *SliceType) Validate(v value.Value) error {
	arr, ok := v.(value.Array)
	if !ok {
		return fmt.Errorf("expected %s, got %s", t.Name(), value.Name(v))
	}

	// Validate each element
	for i, elem := range arr {
		if err := t.elemType.Validate(elem); err != nil {
			return fmt.Errorf("element %d: %w", i, err)
		}
	}
	return nil
}

// CustomType applies a user-defined validation function.
type CustomType struct {
	name     string
	validate func(value.Value) error
}

func (t *CustomType) Name() string { return t.name }

func (t *CustomType) Validate(v value.Value) error {
	return t.validate(v)
}

// --- Factory Functions ---

// String creates a string type validator.
func String() Type { return &StringType{} }

// Int creates an integer type validator.
func Int() Type { return &IntType{} }

// Float creates a float type validator.
func Float() Type { return &FloatType{} }

// Bool creates a boolean type validator.
func Bool() Type { return &BoolType{} }

// Slice creates an array type validator for elements of the given type.
func Slice(elemType Type) Type {
	return &SliceType{elemType: elemType}
}

// Custom creates a custom type validator with a user-defined function.
func Custom(name string, validate func(value.Value) error) Type {
	return &CustomType{name: name, validate: validate}
}

// ParseType converts a string type name to a Type.
// Supports basic types: "string", "int", "float", "bool", "[string]", "[int]", etc.
func ParseType(typeStr string) (Type, error) {
	// Handle array types: [string], [int], etc.
	if len(typeStr) > 2 && typeStr[0] == '[' && typeStr[len(typeStr)-1] == ']' {
		elemTypeStr := typeStr[1 : len(typeStr)-1]
		elemType, err := ParseType(elemTypeStr)
		if err != nil {
			return nil, err
		}
		return Slice(elemType), nil
	}

	// Handle built-in types
	switch typeStr {
	case "string":
		return String(), nil
	case "int":
		return Int(), nil
	case "float":
		return Float(), nil
	case "bool":
		return Bool(), nil
	default:
		return nil, fmt.Errorf("unsupported type: %s", typeStr)
	}
}

// ParseTypeMap converts a map of field names to type strings into a Schema.
// Example: {"callsign": "string", "freq": "float"}
func ParseTypeMap(typeMap map[string]string) (Schema, error) {
	result := make(Schema)
	for key, typeStr := range typeMap {
		t, err := ParseType(typeStr)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", key, err)
		}
		result[key] = t
	}
	return result, nil
}
