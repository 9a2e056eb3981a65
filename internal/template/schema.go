package template

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schema/template.schema.json
var schemaText string

var documentSchema = jsonschema.MustCompileString("template.schema.json", schemaText)

// SchemaText returns the JSON Schema that ValidateDocument checks against.
func SchemaText() string { return schemaText }

// ValidateDocument checks a raw template document against the JSON Schema.
// It is a structural pre-check for hand-written files; FromDocument still
// performs the authoritative decoding.
func ValidateDocument(raw []byte) error {
	var v any
	dec := json.NewDecoder(strings.NewReader(string(raw)))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		return fmt.Errorf("parse document: %w", err)
	}
	if err := documentSchema.Validate(v); err != nil {
		return fmt.Errorf("template schema: %w", err)
	}
	return nil
}
