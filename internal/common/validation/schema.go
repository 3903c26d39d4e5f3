// Package validation provides lightweight JSON-schema style checks for
// request payloads at the API boundary.
package validation

import (
	"fmt"
	"regexp"
)

// JSONSchema defines the structure for input schemas.
type JSONSchema struct {
	Type                 string              `json:"type"`
	Properties           map[string]Property `json:"properties"`
	Required             []string            `json:"required,omitempty"`
	AdditionalProperties bool                `json:"additionalProperties,omitempty"`
}

type Property struct {
	Type      string   `json:"type"`
	Enum      []string `json:"enum,omitempty"`
	Pattern   *string  `json:"pattern,omitempty"`
	MinLength *int     `json:"minLength,omitempty"`
	MaxLength *int     `json:"maxLength,omitempty"`
}

type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// GetErrorMessages flattens the errors to "field: message" strings.
func (r *ValidationResult) GetErrorMessages() []string {
	messages := make([]string, 0, len(r.Errors))
	for _, e := range r.Errors {
		messages = append(messages, fmt.Sprintf("%s: %s", e.Field, e.Message))
	}
	return messages
}

// ValidateInput validates input against a schema with detailed errors.
func ValidateInput(input map[string]interface{}, schema JSONSchema) *ValidationResult {
	errors := []ValidationError{}

	for _, requiredField := range schema.Required {
		if _, exists := input[requiredField]; !exists {
			errors = append(errors, ValidationError{
				Field:   requiredField,
				Message: "required field missing",
				Code:    "REQUIRED_FIELD_MISSING",
			})
		}
	}

	for fieldName, value := range input {
		prop, exists := schema.Properties[fieldName]
		if !exists {
			if !schema.AdditionalProperties {
				errors = append(errors, ValidationError{
					Field:   fieldName,
					Message: "field not allowed in schema",
					Code:    "EXTRA_FIELD",
				})
			}
			continue
		}

		errors = append(errors, validateField(fieldName, value, prop)...)
	}

	return &ValidationResult{
		Valid:  len(errors) == 0,
		Errors: errors,
	}
}

func validateField(fieldName string, value interface{}, prop Property) []ValidationError {
	errors := []ValidationError{}

	if typeErr := validateType(value, prop.Type); typeErr != nil {
		return append(errors, ValidationError{
			Field:   fieldName,
			Message: typeErr.Error(),
			Code:    "INVALID_TYPE",
		})
	}

	strVal, ok := value.(string)
	if !ok {
		return errors
	}

	if prop.MinLength != nil && len(strVal) < *prop.MinLength {
		errors = append(errors, ValidationError{
			Field:   fieldName,
			Message: fmt.Sprintf("value must be at least %d characters", *prop.MinLength),
			Code:    "MIN_LENGTH_VIOLATION",
		})
	}
	if prop.MaxLength != nil && len(strVal) > *prop.MaxLength {
		errors = append(errors, ValidationError{
			Field:   fieldName,
			Message: fmt.Sprintf("value must be at most %d characters", *prop.MaxLength),
			Code:    "MAX_LENGTH_VIOLATION",
		})
	}

	if prop.Pattern != nil {
		matched, err := regexp.MatchString(*prop.Pattern, strVal)
		if err != nil || !matched {
			errors = append(errors, ValidationError{
				Field:   fieldName,
				Message: "value does not match required pattern",
				Code:    "PATTERN_VIOLATION",
			})
		}
	}

	if len(prop.Enum) > 0 {
		found := false
		for _, allowed := range prop.Enum {
			if strVal == allowed {
				found = true
				break
			}
		}
		if !found {
			errors = append(errors, ValidationError{
				Field:   fieldName,
				Message: fmt.Sprintf("value must be one of %v", prop.Enum),
				Code:    "ENUM_VIOLATION",
			})
		}
	}

	return errors
}

func validateType(value interface{}, expected string) error {
	if expected == "" || value == nil {
		return nil
	}
	switch expected {
	case "string":
		if _, ok := value.(string); !ok {
			return fmt.Errorf("expected string, got %T", value)
		}
	case "number":
		switch value.(type) {
		case float64, int, int64:
		default:
			return fmt.Errorf("expected number, got %T", value)
		}
	case "boolean":
		if _, ok := value.(bool); !ok {
			return fmt.Errorf("expected boolean, got %T", value)
		}
	case "object":
		if _, ok := value.(map[string]interface{}); !ok {
			return fmt.Errorf("expected object, got %T", value)
		}
	case "array":
		if _, ok := value.([]interface{}); !ok {
			return fmt.Errorf("expected array, got %T", value)
		}
	}
	return nil
}
