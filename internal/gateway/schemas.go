package gateway

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// schemaSet holds one compiled argument schema per operation.
type schemaSet struct {
	byOperation map[string]*jsonschema.Schema
}

func (s *schemaSet) forOperation(op string) (*jsonschema.Schema, bool) {
	schema, ok := s.byOperation[op]
	return schema, ok
}

// validate checks raw arguments against a compiled schema.
func validate(schema *jsonschema.Schema, data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("unmarshal arguments: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("arguments do not match schema: %w", err)
	}
	return nil
}

// researchSpecSchema is shared by start_job and generate_variants.
var researchSpecSchema = map[string]any{
	"type":     "object",
	"required": []any{"research_goal"},
	"properties": map[string]any{
		"research_goal": map[string]any{"type": "string", "minLength": 1},
		"domain":        map[string]any{"type": "string"},
		"scope": map[string]any{
			"type": "object",
			"properties": map[string]any{
				"breadth": map[string]any{"type": "string"},
				"depth":   map[string]any{"type": "string"},
			},
		},
		"audience": map[string]any{
			"type": "object",
			"properties": map[string]any{
				"expertise_level": map[string]any{"type": "string"},
				"context":         map[string]any{"type": "string"},
			},
		},
		"focus_areas": map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
		"exclusions":  map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
		"constraints": map[string]any{
			"type": "object",
			"properties": map[string]any{
				"recency":    map[string]any{"type": "string"},
				"geographic": map[string]any{"type": "string"},
			},
		},
		"output_preferences": map[string]any{
			"type": "object",
			"properties": map[string]any{
				"format":          map[string]any{"type": "string"},
				"word_count":      map[string]any{"type": "integer"},
				"include_sources": map[string]any{"type": "boolean"},
				"include_images":  map[string]any{"type": "boolean"},
			},
		},
		"clarification_notes": map[string]any{"type": "string"},
	},
}

var imagePromptSchema = map[string]any{
	"type":     "object",
	"required": []any{"description"},
	"properties": map[string]any{
		"description":       map[string]any{"type": "string"},
		"style":             map[string]any{"type": "string"},
		"quality_modifiers": map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
		"aspect_ratio":      map[string]any{"type": "string"},
		"purpose":           map[string]any{"type": "string"},
	},
}

var operationSchemas = map[string]map[string]any{
	OpStartJob: {
		"type":     "object",
		"required": []any{"spec"},
		"properties": map[string]any{
			"spec":        researchSpecSchema,
			"output_path": map[string]any{"type": "string"},
		},
	},
	OpCheckStatus: {
		"type":     "object",
		"required": []any{"job_id"},
		"properties": map[string]any{
			"job_id": map[string]any{"type": "string", "minLength": 1},
		},
	},
	OpGetResult: {
		"type":     "object",
		"required": []any{"job_id"},
		"properties": map[string]any{
			"job_id": map[string]any{"type": "string", "minLength": 1},
		},
	},
	OpGenerateVariants: {
		"type":     "object",
		"required": []any{"research", "spec"},
		"properties": map[string]any{
			"research": map[string]any{"type": "string", "minLength": 1},
			"spec":     researchSpecSchema,
		},
	},
	OpGenerateBatch: {
		"type":     "object",
		"required": []any{"prompts"},
		"properties": map[string]any{
			"prompts":    map[string]any{"type": "array", "items": imagePromptSchema},
			"output_dir": map[string]any{"type": "string", "minLength": 1},
		},
	},
	OpAssemble: {
		"type":     "object",
		"required": []any{"draft"},
		"properties": map[string]any{
			"draft":  map[string]any{"type": "string", "minLength": 1},
			"images": map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
			"format": map[string]any{"type": "string"},
		},
	},
}

// compileSchemas compiles every operation schema once at startup. The schema
// maps are static, so a compile failure is a programmer error.
func compileSchemas() *schemaSet {
	set := &schemaSet{byOperation: make(map[string]*jsonschema.Schema, len(operationSchemas))}
	for op, schemaMap := range operationSchemas {
		b, err := json.Marshal(schemaMap)
		if err != nil {
			panic(fmt.Sprintf("marshal %s schema: %v", op, err))
		}
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource(op+".json", bytes.NewReader(b)); err != nil {
			panic(fmt.Sprintf("add %s schema: %v", op, err))
		}
		schema, err := compiler.Compile(op + ".json")
		if err != nil {
			panic(fmt.Sprintf("compile %s schema: %v", op, err))
		}
		set.byOperation[op] = schema
	}
	return set
}
