// Package schemas validates structured documents against embedded JSON Schemas.
package schemas

import (
	_ "embed"
	"fmt"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed document.schema.json
var documentSchema string

var (
	documentOnce   sync.Once
	documentLoaded *gojsonschema.Schema
	documentErr    error
)

// FieldError represents a single validation error at a specific field.
type FieldError struct {
	Field   string
	Message string
}

// ValidationError represents a schema validation error with field paths.
type ValidationError struct {
	Errors []FieldError
}

func (ve *ValidationError) Error() string {
	var sb strings.Builder
	sb.WriteString("validation failed:")
	for i, err := range ve.Errors {
		fmt.Fprintf(&sb, "\n  %d. %s: %s", i+1, err.Field, err.Message)
	}
	return sb.String()
}

// ValidateDocument checks a structured CV/JD JSON document against the embedded schema.
func ValidateDocument(data []byte) error {
	documentOnce.Do(func() {
		documentLoaded, documentErr = gojsonschema.NewSchema(gojsonschema.NewStringLoader(documentSchema))
	})
	if documentErr != nil {
		return fmt.Errorf("load document schema: %w", documentErr)
	}

	result, err := documentLoaded.Validate(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return fmt.Errorf("read document: %w", err)
	}
	if result.Valid() {
		return nil
	}

	verr := &ValidationError{Errors: make([]FieldError, 0, len(result.Errors()))}
	for _, desc := range result.Errors() {
		field := desc.Field()
		if field == "" {
			field = "(root)"
		}
		verr.Errors = append(verr.Errors, FieldError{Field: field, Message: desc.Description()})
	}
	return verr
}
