package matching

import "fmt"

// Preset names accepted from callers. Each preset is derived from the
// defaults by a pure transform; the defaults are never mutated.
const (
	PresetStrict      = "strict"
	PresetModerate    = "moderate"
	PresetLenient     = "lenient"
	PresetContactOnly = "contact_only"
	PresetNameAndDOB  = "name_and_dob"
)

// PresetNames lists the accepted preset names.
func PresetNames() []string {
	return []string{PresetStrict, PresetModerate, PresetLenient, PresetContactOnly, PresetNameAndDOB}
}

// Preset resolves a named matching profile. Unknown names are an
// error: the boundary is expected to reject them before detection.
func Preset(name string) (Criteria, error) {
	switch name {
	case PresetStrict:
		return strictCriteria(), nil
	case PresetModerate, "":
		return DefaultCriteria(), nil
	case PresetLenient:
		return lenientCriteria(), nil
	case PresetContactOnly:
		return contactOnlyCriteria(), nil
	case PresetNameAndDOB:
		return nameAndDOBCriteria(), nil
	}
	return Criteria{}, fmt.Errorf("unknown matching preset %q", name)
}

// strictCriteria raises every field threshold to at least 0.95 and the
// overall threshold to 0.9.
func strictCriteria() Criteria {
	c := DefaultCriteria().clone()
	for i := range c.FieldRules {
		if c.FieldRules[i].Threshold < 0.95 {
			c.FieldRules[i].Threshold = 0.95
		}
	}
	c.OverallThreshold = 0.9
	return c
}

// lenientCriteria lowers fuzzy-field thresholds by 0.15 with a floor of
// 0.7; exact-identifier thresholds are unchanged. Overall drops to 0.6.
func lenientCriteria() Criteria {
	c := DefaultCriteria().clone()
	for i := range c.FieldRules {
		if c.FieldRules[i].MatchType != MatchTypeFuzzy {
			continue
		}
		t := c.FieldRules[i].Threshold - 0.15
		if t < 0.7 {
			t = 0.7
		}
		c.FieldRules[i].Threshold = t
	}
	c.OverallThreshold = 0.6
	return c
}

// contactOnlyCriteria keeps only the contact identifiers enabled.
func contactOnlyCriteria() Criteria {
	c := DefaultCriteria().clone()
	keep := map[Field]bool{
		FieldPhoneNumber:   true,
		FieldEmail:         true,
		FieldIDNumber:      true,
		FieldGuardianPhone: true,
		FieldEnrollmentID:  true,
	}
	for i := range c.FieldRules {
		c.FieldRules[i].Enabled = keep[c.FieldRules[i].Field]
	}
	return c
}

// nameAndDOBCriteria keeps only name fields and date of birth enabled,
// with a slightly raised overall threshold.
func nameAndDOBCriteria() Criteria {
	c := DefaultCriteria().clone()
	keep := map[Field]bool{
		FieldFirstName:   true,
		FieldLastName:    true,
		FieldFullName:    true,
		FieldDateOfBirth: true,
	}
	for i := range c.FieldRules {
		c.FieldRules[i].Enabled = keep[c.FieldRules[i].Field]
	}
	c.OverallThreshold = 0.75
	return c
}
