package registry

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleRegistry = `{
	"version": "2.1.0",
	"lastUpdated": "2026-07-14",
	"recordTypes": [
		{
			"name": "student",
			"displayName": "Student Record",
			"description": "Core student record",
			"schema": {
				"type": "object",
				"required": ["firstName", "lastName"],
				"additionalProperties": false,
				"properties": {
					"firstName": {"type": "string", "minLength": 1},
					"lastName": {"type": "string", "minLength": 1},
					"dateOfBirth": {"type": "string", "pattern": "^\\d{4}-\\d{2}-\\d{2}$"}
				}
			}
		},
		{
			"name": "guardian",
			"displayName": "Guardian Contact",
			"schema": {
				"type": "object",
				"required": ["name"],
				"properties": {"name": {"type": "string"}}
			}
		}
	]
}`

func TestParse(t *testing.T) {
	reg, err := Parse([]byte(sampleRegistry))
	require.NoError(t, err)

	assert.Equal(t, "2.1.0", reg.Version())
	assert.True(t, reg.Has("student"))
	assert.True(t, reg.Has("guardian"))
	assert.False(t, reg.Has("teacher"))

	types := reg.RecordTypes()
	require.Len(t, types, 2)
	assert.Equal(t, "student", types[0].Name)
	assert.Equal(t, "Student Record", types[0].DisplayName)
}

func TestParseInvalidJSON(t *testing.T) {
	_, err := Parse([]byte("{not json"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	reg, err := Parse([]byte(sampleRegistry))
	require.NoError(t, err)

	t.Run("valid payload", func(t *testing.T) {
		violations, err := reg.Validate("student", map[string]interface{}{
			"firstName":   "Rahul",
			"lastName":    "Sharma",
			"dateOfBirth": "2010-04-01",
		})
		require.NoError(t, err)
		assert.Empty(t, violations)
	})

	t.Run("missing required field", func(t *testing.T) {
		violations, err := reg.Validate("student", map[string]interface{}{
			"firstName": "Rahul",
		})
		require.NoError(t, err)
		assert.NotEmpty(t, violations)
	})

	t.Run("pattern violation", func(t *testing.T) {
		violations, err := reg.Validate("student", map[string]interface{}{
			"firstName":   "Rahul",
			"lastName":    "Sharma",
			"dateOfBirth": "01/04/2010",
		})
		require.NoError(t, err)
		assert.NotEmpty(t, violations)
	})

	t.Run("additional property rejected", func(t *testing.T) {
		violations, err := reg.Validate("student", map[string]interface{}{
			"firstName": "Rahul",
			"lastName":  "Sharma",
			"shoeSize":  9,
		})
		require.NoError(t, err)
		assert.NotEmpty(t, violations)
	})

	t.Run("unknown record type", func(t *testing.T) {
		_, err := reg.Validate("teacher", map[string]interface{}{})
		assert.Error(t, err)
	})
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "registry.json")
	require.NoError(t, os.WriteFile(path, []byte(sampleRegistry), 0o644))

	reg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "2.1.0", reg.Version())

	_, err = Load(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}
