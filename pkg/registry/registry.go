package registry

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/xeipuuv/gojsonschema"
)

// Registry holds compiled schemas keyed by record type name.
type Registry struct {
	version string
	types   []RecordTypeInfo
	schemas map[string]*gojsonschema.Schema
}

// RecordTypeInfo describes a registered record type without its
// compiled schema.
type RecordTypeInfo struct {
	Name        string `json:"name"`
	DisplayName string `json:"displayName"`
	Description string `json:"description"`
}

// Load reads the registry file and compiles every record-type schema.
func Load(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read schema registry: %w", err)
	}
	return Parse(data)
}

// Parse compiles a registry from raw JSON.
func Parse(data []byte) (*Registry, error) {
	var raw SchemaRegistry
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode schema registry: %w", err)
	}

	schemas := make(map[string]*gojsonschema.Schema, len(raw.RecordTypes))
	types := make([]RecordTypeInfo, 0, len(raw.RecordTypes))
	for _, rt := range raw.RecordTypes {
		schema, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(rt.Schema))
		if err != nil {
			return nil, fmt.Errorf("compile schema for record type %q: %w", rt.Name, err)
		}
		schemas[rt.Name] = schema
		types = append(types, RecordTypeInfo{
			Name:        rt.Name,
			DisplayName: rt.DisplayName,
			Description: rt.Description,
		})
	}

	return &Registry{version: raw.Version, types: types, schemas: schemas}, nil
}

// Version returns the registry file's version string.
func (r *Registry) Version() string {
	return r.version
}

// RecordTypes lists the registered record types.
func (r *Registry) RecordTypes() []RecordTypeInfo {
	return r.types
}

// Has reports whether a schema is registered for the record type.
func (r *Registry) Has(recordType string) bool {
	_, ok := r.schemas[recordType]
	return ok
}

// Validate checks a payload against the record type's schema and
// returns the individual violation messages.
func (r *Registry) Validate(recordType string, payload map[string]interface{}) ([]string, error) {
	schema, ok := r.schemas[recordType]
	if !ok {
		return nil, fmt.Errorf("no schema registered for record type %q", recordType)
	}

	result, err := schema.Validate(gojsonschema.NewGoLoader(payload))
	if err != nil {
		return nil, fmt.Errorf("validate %q payload: %w", recordType, err)
	}
	if result.Valid() {
		return nil, nil
	}

	violations := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		violations = append(violations, desc.String())
	}
	return violations, nil
}
