package matching

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCriteria(t *testing.T) {
	c := DefaultCriteria()

	assert.Len(t, c.FieldRules, len(AllFields()))
	assert.Equal(t, 0.7, c.OverallThreshold)
	assert.Equal(t, 10, c.MaxResults)

	result := c.Validate()
	assert.True(t, result.Valid, "default criteria must validate: %v", result.Errors)

	phone, ok := c.FieldRule(FieldPhoneNumber)
	require.True(t, ok)
	assert.Equal(t, 1.0, phone.Threshold)
	assert.Equal(t, MatchTypeNormalized, phone.MatchType)

	firstName, ok := c.FieldRule(FieldFirstName)
	require.True(t, ok)
	assert.Equal(t, 0.85, firstName.Threshold)
	assert.Equal(t, MatchTypeFuzzy, firstName.MatchType)
}

func TestUpdateFieldRuleDoesNotMutateReceiver(t *testing.T) {
	base := DefaultCriteria()
	threshold := 0.5

	updated, err := base.UpdateFieldRule(FieldFirstName, FieldRulePatch{Threshold: &threshold})
	require.NoError(t, err)

	original, _ := base.FieldRule(FieldFirstName)
	changed, _ := updated.FieldRule(FieldFirstName)
	assert.Equal(t, 0.85, original.Threshold)
	assert.Equal(t, 0.5, changed.Threshold)
}

func TestUpdateFieldRuleUnknownField(t *testing.T) {
	_, err := DefaultCriteria().UpdateFieldRule(Field("shoe_size"), FieldRulePatch{})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "shoe_size")
}

func TestEnableDisableFieldRule(t *testing.T) {
	base := DefaultCriteria()

	disabled, err := base.DisableFieldRule(FieldEmail)
	require.NoError(t, err)
	rule, _ := disabled.FieldRule(FieldEmail)
	assert.False(t, rule.Enabled)

	reEnabled, err := disabled.EnableFieldRule(FieldEmail)
	require.NoError(t, err)
	rule, _ = reEnabled.FieldRule(FieldEmail)
	assert.True(t, rule.Enabled)

	// the intermediate values are untouched
	rule, _ = base.FieldRule(FieldEmail)
	assert.True(t, rule.Enabled)
}

func TestUpdateCrossFieldRule(t *testing.T) {
	base := DefaultCriteria()
	weight := 3.0

	updated, err := base.UpdateCrossFieldRule("phone_and_email", CrossFieldRulePatch{Weight: &weight})
	require.NoError(t, err)

	for _, cr := range updated.CrossFieldRules {
		if cr.Name == "phone_and_email" {
			assert.Equal(t, 3.0, cr.Weight)
		}
	}
	for _, cr := range base.CrossFieldRules {
		if cr.Name == "phone_and_email" {
			assert.Equal(t, 2.0, cr.Weight)
		}
	}

	_, err = base.UpdateCrossFieldRule("no_such_rule", CrossFieldRulePatch{})
	assert.Error(t, err)
}

func TestWithOverrides(t *testing.T) {
	base := DefaultCriteria()
	threshold := 0.9
	maxResults := 3

	merged := base.WithOverrides(Overrides{
		OverallThreshold: &threshold,
		MaxResults:       &maxResults,
	})

	assert.Equal(t, 0.9, merged.OverallThreshold)
	assert.Equal(t, 3, merged.MaxResults)
	assert.Equal(t, base.FieldRules, merged.FieldRules)

	// base is untouched
	assert.Equal(t, 0.7, base.OverallThreshold)
	assert.Equal(t, 10, base.MaxResults)
}

func TestWithOverridesReplacesRulesWholesale(t *testing.T) {
	base := DefaultCriteria()
	merged := base.WithOverrides(Overrides{
		FieldRules: []FieldRule{
			{Field: FieldPhoneNumber, Threshold: 1.0, Weight: 1.0, Enabled: true, MatchType: MatchTypeNormalized},
		},
	})

	assert.Len(t, merged.FieldRules, 1)
	assert.Len(t, base.FieldRules, len(AllFields()))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Criteria)
		wantErr string
	}{
		{
			name:    "threshold above one",
			mutate:  func(c *Criteria) { c.FieldRules[0].Threshold = 1.5 },
			wantErr: "threshold must be in [0,1]",
		},
		{
			name:    "negative weight",
			mutate:  func(c *Criteria) { c.FieldRules[0].Weight = -1 },
			wantErr: "weight must be non-negative",
		},
		{
			name:    "overall threshold out of range",
			mutate:  func(c *Criteria) { c.OverallThreshold = 2 },
			wantErr: "overallThreshold must be in [0,1]",
		},
		{
			name:    "max results below one",
			mutate:  func(c *Criteria) { c.MaxResults = 0 },
			wantErr: "maxResults must be at least 1",
		},
		{
			name:    "unknown field",
			mutate:  func(c *Criteria) { c.FieldRules[0].Field = "shoe_size" },
			wantErr: "unknown field",
		},
		{
			name: "duplicate field rule",
			mutate: func(c *Criteria) {
				c.FieldRules = append(c.FieldRules, c.FieldRules[0])
			},
			wantErr: "duplicate rule",
		},
		{
			name: "required matches above field count",
			mutate: func(c *Criteria) {
				c.CrossFieldRules[0].RequiredMatches = 5
			},
			wantErr: "requiredMatches",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := DefaultCriteria()
			tt.mutate(&c)
			result := c.Validate()
			assert.False(t, result.Valid)
			require.NotEmpty(t, result.Errors)
			found := false
			for _, e := range result.Errors {
				if strings.Contains(e, tt.wantErr) {
					found = true
				}
			}
			assert.True(t, found, "expected an error containing %q, got %v", tt.wantErr, result.Errors)
		})
	}
}

func TestValidateCollectsAllErrors(t *testing.T) {
	c := DefaultCriteria()
	c.OverallThreshold = -1
	c.MaxResults = 0
	c.FieldRules[0].Weight = -1

	result := c.Validate()
	assert.False(t, result.Valid)
	assert.Len(t, result.Errors, 3)
}
