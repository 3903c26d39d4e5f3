// Package registry loads the record-type schema registry: one JSON
// schema per record type, used to validate create and import payloads.
package registry

type SchemaRegistry struct {
	Version     string       `json:"version"`
	LastUpdated string       `json:"lastUpdated"`
	RecordTypes []RecordType `json:"recordTypes"`
}

type RecordType struct {
	Name        string                 `json:"name"`
	DisplayName string                 `json:"displayName"`
	Description string                 `json:"description"`
	Schema      map[string]interface{} `json:"schema"`
}
