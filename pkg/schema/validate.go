package schema

import "github.com/aretw0/taproot/pkg/value"

// Schema is a map of field names to their expected types.
// Example: {"callsign": String(), "freq": Float(), "tags": Slice(String())}
type Schema map[string]Type

// Validate checks if a snapshot object conforms to the schema.
// Returns an error with all validation failures found.
func Validate(schema Schema, obj value.Object) error {
	if len(schema) == 0 {
		// No schema = no validation
		return nil
	}

	var errs []error

	// Validate each field in the schema
	for fieldName, fieldType := range schema {
		v, exists := obj[fieldName]
		if !exists {
			errs = append(errs, &ValidationError{
				Key:    fieldName,
				Reason: "required",
			})
			continue
		}

		// Validate the value against the type
		if err := fieldType.Validate(v); err != nil {
			errs = append(errs, &ValidationError{
				Key:    fieldName,
				Reason: err.Error(),
				Value:  v,
			})
		}
	}

	// If there are errors, aggregate them
	if len(errs) > 0 {
		return &AggregateError{Errors: errs}
	}

	return nil
}
