package recovery

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/pdf-saas/orchestrator/internal/document"
)

const schemaURL = "document.schema.json"

//go:embed schema/document.schema.json
var documentSchema []byte

var (
	schemaOnce sync.Once
	schema     *jsonschema.Schema
	schemaErr  error
)

func loadSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		c := jsonschema.NewCompiler()
		if err := c.AddResource(schemaURL, bytes.NewReader(documentSchema)); err != nil {
			schemaErr = fmt.Errorf("add document schema: %w", err)
			return
		}
		schema, schemaErr = c.Compile(schemaURL)
	})
	return schema, schemaErr
}

// strictParse succeeds only when text is valid JSON shaped like a StructuredDocument.
func strictParse(text string) (document.StructuredDocument, error) {
	var doc document.StructuredDocument

	var v any
	if err := json.Unmarshal([]byte(text), &v); err != nil {
		return doc, err
	}

	s, err := loadSchema()
	if err != nil {
		return doc, err
	}
	if err := s.Validate(v); err != nil {
		return doc, fmt.Errorf("output does not match the document structure: %w", err)
	}

	if err := json.Unmarshal([]byte(text), &doc); err != nil {
		return doc, err
	}
	return doc, nil
}
