package dataset

import (
	"fmt"
	"sync"

	json "github.com/goccy/go-json"
	"github.com/kaptinlin/jsonschema"
)

// recordSchema describes the interchange shape shared with training code.
var recordSchema = []byte(`{
	"type": "object",
	"required": ["word", "labels", "morphemes"],
	"properties": {
		"original": {"type": "string"},
		"word": {"type": "string"},
		"labels": {
			"type": "array",
			"items": {"enum": ["O", "B-PREFIX", "I-PREFIX", "B-ROOT", "I-ROOT", "B-SUFFIX", "I-SUFFIX"]}
		},
		"morphemes": {
			"type": "array",
			"minItems": 1,
			"items": {
				"type": "object",
				"required": ["type", "text", "start", "end"],
				"properties": {
					"type": {"enum": ["prefix", "root", "suffix"]},
					"text": {"type": "string"},
					"start": {"type": "integer", "minimum": 0},
					"end": {"type": "integer", "minimum": 0}
				}
			}
		},
		"complexity": {"type": "integer", "minimum": 0},
		"confidence": {"type": "number", "exclusiveMinimum": 0, "maximum": 1}
	}
}`)

var compiledSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	return jsonschema.NewCompiler().Compile(recordSchema)
})

// DecodeLine parses one JSON line, checks it against the record schema and
// then validates its contents.
func DecodeLine(line []byte) (Record, error) {
	schema, err := compiledSchema()
	if err != nil {
		return Record{}, fmt.Errorf("compile record schema: %w", err)
	}
	var raw map[string]any
	if err := json.Unmarshal(line, &raw); err != nil {
		return Record{}, fmt.Errorf("%w: %w", ErrInvalidRecord, err)
	}
	if result := schema.Validate(raw); !result.IsValid() {
		return Record{}, fmt.Errorf("%w: schema: %v", ErrInvalidRecord, result.Errors)
	}
	var rec Record
	if err := json.Unmarshal(line, &rec); err != nil {
		return Record{}, fmt.Errorf("%w: %w", ErrInvalidRecord, err)
	}
	return rec, Validate(rec)
}
