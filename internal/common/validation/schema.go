// Package validation checks agent structured outputs against JSON schemas
// at the collaborator boundary, so the core never sees malformed documents.
package validation

import (
	"fmt"

	"github.com/xeipuuv/gojsonschema"
)

// ValidateJSON validates a raw JSON document against a schema string.
func ValidateJSON(schema string, document []byte) error {
	schemaLoader := gojsonschema.NewStringLoader(schema)
	documentLoader := gojsonschema.NewBytesLoader(document)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return fmt.Errorf("validation error: %w", err)
	}

	if !result.Valid() {
		errs := make([]string, len(result.Errors()))
		for i, desc := range result.Errors() {
			errs[i] = desc.String()
		}
		return fmt.Errorf("output validation failed: %v", errs)
	}

	return nil
}
