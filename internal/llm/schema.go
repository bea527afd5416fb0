package llm

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// generationSchema is the JSON Schema the generation response must satisfy
// before it is unmarshalled.
var generationSchema = map[string]any{
	"type":     "object",
	"required": []any{"questions"},
	"properties": map[string]any{
		"questions": map[string]any{
			"type": "array",
			"items": map[string]any{
				"type":     "object",
				"required": []any{"questionType", "questionText"},
				"properties": map[string]any{
					"questionType":  map[string]any{"enum": []any{"MCQ", "Theory"}},
					"questionText":  map[string]any{"type": "string"},
					"diagramPrompt": map[string]any{"type": []any{"string", "null"}},
				},
			},
		},
	},
}

var (
	schemaOnce     sync.Once
	schemaErr      error
	compiledSchema *jsonschema.Schema
)

func compileGenerationSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		// The compiler expects a parsed JSON value, not raw bytes.
		defBytes, err := json.Marshal(generationSchema)
		if err != nil {
			schemaErr = fmt.Errorf("marshal schema definition: %w", err)
			return
		}
		var defParsed any
		if err := json.Unmarshal(defBytes, &defParsed); err != nil {
			schemaErr = fmt.Errorf("parse schema definition: %w", err)
			return
		}

		c := jsonschema.NewCompiler()
		const schemaURL = "schema://question-paper.json"
		if err := c.AddResource(schemaURL, defParsed); err != nil {
			schemaErr = fmt.Errorf("add resource: %w", err)
			return
		}
		compiledSchema, schemaErr = c.Compile(schemaURL)
	})
	return compiledSchema, schemaErr
}

// validateGeneration checks raw model output against generationSchema.
func validateGeneration(raw []byte) error {
	var parsed any
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	compiled, err := compileGenerationSchema()
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}
	if err := compiled.Validate(parsed); err != nil {
		return fmt.Errorf("schema validation failed: %w", err)
	}
	return nil
}
