package oracle

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"

	gojson "github.com/goccy/go-json"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schemas/relevance.schema.json
var relevanceSchemaJSON string

type relevanceReply struct {
	Articles []relevanceAssignment `json:"articles"`
}

type relevanceAssignment struct {
	Article     int      `json:"article"`
	Communities []string `json:"communities"`
}

var (
	compileOnce       sync.Once
	compiledSchema    *jsonschema.Schema
	compiledSchemaErr error
)

// decodeRelevanceJSON accepts a reply only when it is a single JSON document
// that satisfies the relevance schema.
func decodeRelevanceJSON(raw string) (*relevanceReply, error) {
	value, err := decodeStrictJSON([]byte(raw))
	if err != nil {
		return nil, fmt.Errorf("decode relevance JSON: %w", err)
	}

	schema, err := loadRelevanceSchema()
	if err != nil {
		return nil, fmt.Errorf("load schema: %w", err)
	}
	if err := schema.Validate(value); err != nil {
		return nil, fmt.Errorf("schema validation failed: %w", err)
	}

	var reply relevanceReply
	if err := gojson.Unmarshal([]byte(raw), &reply); err != nil {
		return nil, fmt.Errorf("unmarshal relevance reply: %w", err)
	}
	return &reply, nil
}

func loadRelevanceSchema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		compiler.Draft = jsonschema.Draft2020

		if err := compiler.AddResource("relevance.schema.json", strings.NewReader(relevanceSchemaJSON)); err != nil {
			compiledSchemaErr = fmt.Errorf("add schema resource: %w", err)
			return
		}
		schema, err := compiler.Compile("relevance.schema.json")
		if err != nil {
			compiledSchemaErr = fmt.Errorf("compile schema: %w", err)
			return
		}
		compiledSchema = schema
	})

	if compiledSchemaErr != nil {
		return nil, compiledSchemaErr
	}
	if compiledSchema == nil {
		return nil, fmt.Errorf("schema not initialized")
	}
	return compiledSchema, nil
}

// decodeStrictJSON uses encoding/json because the schema validator expects
// its json.Number values.
func decodeStrictJSON(raw []byte) (any, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("payload is empty")
	}

	decoder := json.NewDecoder(bytes.NewReader(trimmed))
	decoder.UseNumber()

	var value any
	if err := decoder.Decode(&value); err != nil {
		return nil, err
	}
	if err := decoder.Decode(&struct{}{}); err != io.EOF {
		return nil, fmt.Errorf("payload contains trailing content")
	}
	return value, nil
}
