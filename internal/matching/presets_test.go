package matching

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPresetNames(t *testing.T) {
	names := PresetNames()
	assert.Equal(t, []string{"strict", "moderate", "lenient", "contact_only", "name_and_dob"}, names)

	for _, name := range names {
		c, err := Preset(name)
		require.NoError(t, err, "preset %q", name)
		result := c.Validate()
		assert.True(t, result.Valid, "preset %q must validate: %v", name, result.Errors)
	}
}

func TestPresetUnknown(t *testing.T) {
	_, err := Preset("paranoid")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "paranoid")
}

func TestPresetEmptyIsModerate(t *testing.T) {
	c, err := Preset("")
	require.NoError(t, err)
	assert.Equal(t, DefaultCriteria(), c)
}

func TestPresetStrict(t *testing.T) {
	c, err := Preset(PresetStrict)
	require.NoError(t, err)

	assert.Equal(t, 0.9, c.OverallThreshold)
	for _, rule := range c.FieldRules {
		assert.GreaterOrEqual(t, rule.Threshold, 0.95, "field %s", rule.Field)
	}
}

func TestPresetLenient(t *testing.T) {
	c, err := Preset(PresetLenient)
	require.NoError(t, err)

	assert.Equal(t, 0.6, c.OverallThreshold)

	firstName, _ := c.FieldRule(FieldFirstName)
	assert.InDelta(t, 0.7, firstName.Threshold, 1e-9)

	// exact identifiers are untouched
	phone, _ := c.FieldRule(FieldPhoneNumber)
	assert.Equal(t, 1.0, phone.Threshold)
}

func TestPresetContactOnly(t *testing.T) {
	c, err := Preset(PresetContactOnly)
	require.NoError(t, err)

	enabled := map[Field]bool{}
	for _, rule := range c.FieldRules {
		enabled[rule.Field] = rule.Enabled
	}
	assert.True(t, enabled[FieldPhoneNumber])
	assert.True(t, enabled[FieldEmail])
	assert.True(t, enabled[FieldIDNumber])
	assert.True(t, enabled[FieldGuardianPhone])
	assert.True(t, enabled[FieldEnrollmentID])
	assert.False(t, enabled[FieldFirstName])
	assert.False(t, enabled[FieldLastName])
	assert.False(t, enabled[FieldFullName])
	assert.False(t, enabled[FieldDateOfBirth])
}

func TestPresetNameAndDOB(t *testing.T) {
	c, err := Preset(PresetNameAndDOB)
	require.NoError(t, err)

	assert.Equal(t, 0.75, c.OverallThreshold)
	for _, rule := range c.FieldRules {
		switch rule.Field {
		case FieldFirstName, FieldLastName, FieldFullName, FieldDateOfBirth:
			assert.True(t, rule.Enabled, "field %s", rule.Field)
		default:
			assert.False(t, rule.Enabled, "field %s", rule.Field)
		}
	}
}

func TestPresetsDoNotShareState(t *testing.T) {
	strict, err := Preset(PresetStrict)
	require.NoError(t, err)
	strict.FieldRules[0].Threshold = 0.1

	again, err := Preset(PresetStrict)
	require.NoError(t, err)
	assert.NotEqual(t, 0.1, again.FieldRules[0].Threshold)

	moderate, err := Preset(PresetModerate)
	require.NoError(t, err)
	assert.Equal(t, DefaultCriteria(), moderate)
}
