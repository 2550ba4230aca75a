// Package schema provides a type-safe validation system for snapshot values.
//
// It defines a simple type system with built-in types (string, int, float,
// bool) and support for arrays and custom validators. Schemas map field names
// to types, enabling runtime validation of whole snapshot objects; individual
// cells in a state tree attach a single Type (and optionally a Range) to
// police incoming writes.
//
// Basic usage:
//
//	s := schema.Schema{
//	    "callsign": schema.String(),
//	    "freq":     schema.Float(),
//	    "tags":     schema.Slice(schema.String()),
//	}
//
//	if err := schema.Validate(s, snapshot); err != nil {
//	    // Handle validation errors
//	}
//
// Schemas can also be parsed from type strings ("string", "int", "[string]")
// via ParseType and ParseTypeMap.
//
// This package depends only on the snapshot value types and the standard
// library, so it can be embedded in larger systems without dragging in the
// rest of the module.
package schema
