package matching

import (
	"fmt"
)

// MatchType selects the comparison strategy for a field rule.
type MatchType string

const (
	MatchTypeExact      MatchType = "exact"
	MatchTypeNormalized MatchType = "normalized"
	MatchTypeFuzzy      MatchType = "fuzzy"
)

// FieldRule governs whether a field's computed score counts toward the
// aggregate, and how heavily.
type FieldRule struct {
	Field     Field     `json:"field"`
	Threshold float64   `json:"threshold"`
	Weight    float64   `json:"weight"`
	Enabled   bool      `json:"enabled"`
	MatchType MatchType `json:"matchType"`
}

// CrossFieldRule fires when at least RequiredMatches of its fields
// independently satisfied their own field rule threshold, contributing
// its weight as a compound-evidence bonus.
type CrossFieldRule struct {
	Name            string  `json:"name"`
	Fields          []Field `json:"fields"`
	RequiredMatches int     `json:"requiredMatches"`
	Weight          float64 `json:"weight"`
	Enabled         bool    `json:"enabled"`
	Description     string  `json:"description,omitempty"`
}

// Criteria is the complete matching configuration. It is a value type:
// every update operation returns a new Criteria and never mutates the
// receiver, so a Criteria may be cached and shared across concurrent
// detection calls. Invariant: exactly one FieldRule per field.
type Criteria struct {
	FieldRules       []FieldRule      `json:"fieldRules"`
	CrossFieldRules  []CrossFieldRule `json:"crossFieldRules"`
	OverallThreshold float64          `json:"overallThreshold"`
	MaxResults       int              `json:"maxResults"`
}

// Overrides merges onto a base Criteria: scalar fields replace when
// set, rule slices replace wholesale when non-nil.
type Overrides struct {
	FieldRules       []FieldRule      `json:"fieldRules,omitempty"`
	CrossFieldRules  []CrossFieldRule `json:"crossFieldRules,omitempty"`
	OverallThreshold *float64         `json:"overallThreshold,omitempty"`
	MaxResults       *int             `json:"maxResults,omitempty"`
}

// FieldRulePatch updates individual attributes of a field rule. Nil
// members keep the existing value.
type FieldRulePatch struct {
	Threshold *float64   `json:"threshold,omitempty"`
	Weight    *float64   `json:"weight,omitempty"`
	Enabled   *bool      `json:"enabled,omitempty"`
	MatchType *MatchType `json:"matchType,omitempty"`
}

// CrossFieldRulePatch updates individual attributes of a cross-field rule.
type CrossFieldRulePatch struct {
	Fields          []Field  `json:"fields,omitempty"`
	RequiredMatches *int     `json:"requiredMatches,omitempty"`
	Weight          *float64 `json:"weight,omitempty"`
	Enabled         *bool    `json:"enabled,omitempty"`
	Description     *string  `json:"description,omitempty"`
}

// DefaultCriteria returns the moderate baseline configuration: exact
// identifiers at threshold 1.0 with the highest weights, fuzzy name
// fields at 0.85, and the fixed compound-evidence rules.
func DefaultCriteria() Criteria {
	return Criteria{
		FieldRules: []FieldRule{
			{Field: FieldPhoneNumber, Threshold: 1.0, Weight: 1.0, Enabled: true, MatchType: MatchTypeNormalized},
			{Field: FieldEmail, Threshold: 1.0, Weight: 1.0, Enabled: true, MatchType: MatchTypeNormalized},
			{Field: FieldIDNumber, Threshold: 1.0, Weight: 1.0, Enabled: true, MatchType: MatchTypeNormalized},
			{Field: FieldFirstName, Threshold: 0.85, Weight: 0.5, Enabled: true, MatchType: MatchTypeFuzzy},
			{Field: FieldLastName, Threshold: 0.85, Weight: 0.5, Enabled: true, MatchType: MatchTypeFuzzy},
			{Field: FieldFullName, Threshold: 0.85, Weight: 0.7, Enabled: true, MatchType: MatchTypeFuzzy},
			{Field: FieldDateOfBirth, Threshold: 1.0, Weight: 0.8, Enabled: true, MatchType: MatchTypeExact},
			{Field: FieldGuardianPhone, Threshold: 1.0, Weight: 0.6, Enabled: true, MatchType: MatchTypeNormalized},
			{Field: FieldEnrollmentID, Threshold: 1.0, Weight: 0.9, Enabled: true, MatchType: MatchTypeNormalized},
		},
		CrossFieldRules: []CrossFieldRule{
			{
				Name:            "full_name_and_dob",
				Fields:          []Field{FieldFullName, FieldDateOfBirth},
				RequiredMatches: 2,
				Weight:          1.5,
				Enabled:         true,
				Description:     "Same full name and date of birth",
			},
			{
				Name:            "phone_and_email",
				Fields:          []Field{FieldPhoneNumber, FieldEmail},
				RequiredMatches: 2,
				Weight:          2.0,
				Enabled:         true,
				Description:     "Same phone number and email address",
			},
			{
				Name:            "id_and_full_name",
				Fields:          []Field{FieldIDNumber, FieldFullName},
				RequiredMatches: 2,
				Weight:          2.0,
				Enabled:         true,
				Description:     "Same government ID and full name",
			},
		},
		OverallThreshold: 0.7,
		MaxResults:       10,
	}
}

// clone deep-copies the rule slices so updates never alias the receiver.
func (c Criteria) clone() Criteria {
	out := c
	out.FieldRules = make([]FieldRule, len(c.FieldRules))
	copy(out.FieldRules, c.FieldRules)
	out.CrossFieldRules = make([]CrossFieldRule, len(c.CrossFieldRules))
	for i, cr := range c.CrossFieldRules {
		fields := make([]Field, len(cr.Fields))
		copy(fields, cr.Fields)
		cr.Fields = fields
		out.CrossFieldRules[i] = cr
	}
	return out
}

// WithOverrides merges top-level scalars and replaces rule slices
// wholesale when provided, keeping the base's otherwise.
func (c Criteria) WithOverrides(o Overrides) Criteria {
	out := c.clone()
	if o.FieldRules != nil {
		out.FieldRules = make([]FieldRule, len(o.FieldRules))
		copy(out.FieldRules, o.FieldRules)
	}
	if o.CrossFieldRules != nil {
		out.CrossFieldRules = make([]CrossFieldRule, len(o.CrossFieldRules))
		for i, cr := range o.CrossFieldRules {
			fields := make([]Field, len(cr.Fields))
			copy(fields, cr.Fields)
			cr.Fields = fields
			out.CrossFieldRules[i] = cr
		}
	}
	if o.OverallThreshold != nil {
		out.OverallThreshold = *o.OverallThreshold
	}
	if o.MaxResults != nil {
		out.MaxResults = *o.MaxResults
	}
	return out
}

// FieldRule returns the rule for the given field.
func (c Criteria) FieldRule(f Field) (FieldRule, bool) {
	for _, r := range c.FieldRules {
		if r.Field == f {
			return r, true
		}
	}
	return FieldRule{}, false
}

// UpdateFieldRule returns a new Criteria with the targeted rule
// patched. It never creates a rule: an unknown field is an error.
func (c Criteria) UpdateFieldRule(f Field, patch FieldRulePatch) (Criteria, error) {
	out := c.clone()
	for i := range out.FieldRules {
		if out.FieldRules[i].Field != f {
			continue
		}
		if patch.Threshold != nil {
			out.FieldRules[i].Threshold = *patch.Threshold
		}
		if patch.Weight != nil {
			out.FieldRules[i].Weight = *patch.Weight
		}
		if patch.Enabled != nil {
			out.FieldRules[i].Enabled = *patch.Enabled
		}
		if patch.MatchType != nil {
			out.FieldRules[i].MatchType = *patch.MatchType
		}
		return out, nil
	}
	return Criteria{}, fmt.Errorf("no matching rule for field %q", f)
}

// EnableFieldRule returns a new Criteria with the field's rule enabled.
func (c Criteria) EnableFieldRule(f Field) (Criteria, error) {
	enabled := true
	return c.UpdateFieldRule(f, FieldRulePatch{Enabled: &enabled})
}

// DisableFieldRule returns a new Criteria with the field's rule disabled.
func (c Criteria) DisableFieldRule(f Field) (Criteria, error) {
	enabled := false
	return c.UpdateFieldRule(f, FieldRulePatch{Enabled: &enabled})
}

// UpdateCrossFieldRule returns a new Criteria with the named cross-field
// rule patched; an unknown name is an error.
func (c Criteria) UpdateCrossFieldRule(name string, patch CrossFieldRulePatch) (Criteria, error) {
	out := c.clone()
	for i := range out.CrossFieldRules {
		if out.CrossFieldRules[i].Name != name {
			continue
		}
		if patch.Fields != nil {
			fields := make([]Field, len(patch.Fields))
			copy(fields, patch.Fields)
			out.CrossFieldRules[i].Fields = fields
		}
		if patch.RequiredMatches != nil {
			out.CrossFieldRules[i].RequiredMatches = *patch.RequiredMatches
		}
		if patch.Weight != nil {
			out.CrossFieldRules[i].Weight = *patch.Weight
		}
		if patch.Enabled != nil {
			out.CrossFieldRules[i].Enabled = *patch.Enabled
		}
		if patch.Description != nil {
			out.CrossFieldRules[i].Description = *patch.Description
		}
		return out, nil
	}
	return Criteria{}, fmt.Errorf("no cross-field rule named %q", name)
}

// EnableCrossFieldRule returns a new Criteria with the named rule enabled.
func (c Criteria) EnableCrossFieldRule(name string) (Criteria, error) {
	enabled := true
	return c.UpdateCrossFieldRule(name, CrossFieldRulePatch{Enabled: &enabled})
}

// DisableCrossFieldRule returns a new Criteria with the named rule disabled.
func (c Criteria) DisableCrossFieldRule(name string) (Criteria, error) {
	enabled := false
	return c.UpdateCrossFieldRule(name, CrossFieldRulePatch{Enabled: &enabled})
}

// ValidationResult reports whether a Criteria is usable for detection.
type ValidationResult struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors,omitempty"`
}

// Validate checks every range invariant. It never mutates. Callers must
// check Valid before using the criteria in detection; the detector does
// not re-validate.
func (c Criteria) Validate() ValidationResult {
	var errs []string

	if c.OverallThreshold < 0 || c.OverallThreshold > 1 {
		errs = append(errs, fmt.Sprintf("overallThreshold must be in [0,1], got %v", c.OverallThreshold))
	}
	if c.MaxResults < 1 {
		errs = append(errs, fmt.Sprintf("maxResults must be at least 1, got %d", c.MaxResults))
	}

	seen := make(map[Field]bool, len(c.FieldRules))
	for _, r := range c.FieldRules {
		if !r.Field.Valid() {
			errs = append(errs, fmt.Sprintf("unknown field %q", r.Field))
		}
		if seen[r.Field] {
			errs = append(errs, fmt.Sprintf("duplicate rule for field %q", r.Field))
		}
		seen[r.Field] = true
		if r.Threshold < 0 || r.Threshold > 1 {
			errs = append(errs, fmt.Sprintf("field %q: threshold must be in [0,1], got %v", r.Field, r.Threshold))
		}
		if r.Weight < 0 {
			errs = append(errs, fmt.Sprintf("field %q: weight must be non-negative, got %v", r.Field, r.Weight))
		}
	}

	for _, cr := range c.CrossFieldRules {
		if cr.RequiredMatches < 1 || cr.RequiredMatches > len(cr.Fields) {
			errs = append(errs, fmt.Sprintf("cross-field rule %q: requiredMatches must be in [1,%d], got %d",
				cr.Name, len(cr.Fields), cr.RequiredMatches))
		}
		if cr.Weight < 0 {
			errs = append(errs, fmt.Sprintf("cross-field rule %q: weight must be non-negative, got %v", cr.Name, cr.Weight))
		}
	}

	return ValidationResult{Valid: len(errs) == 0, Errors: errs}
}
