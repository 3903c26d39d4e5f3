package matching

import (
	"regexp"
	"strings"
)

var (
	nonDigitRegex    = regexp.MustCompile(`\D+`)
	nonNameCharRegex = regexp.MustCompile(`[^a-z\s]+`)
	nonAlnumRegex    = regexp.MustCompile(`[^a-z0-9\s]+`)
	whitespaceRegex  = regexp.MustCompile(`\s+`)
)

// NormalizePhone strips every non-digit character and keeps the last
// ten digits, dropping country prefixes like +91 or 0091.
func NormalizePhone(s string) string {
	digits := nonDigitRegex.ReplaceAllString(s, "")
	if len(digits) > 10 {
		digits = digits[len(digits)-10:]
	}
	return digits
}

// NormalizeEmail trims surrounding whitespace and lowercases.
func NormalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// NormalizeIDNumber strips every non-digit character. Used for
// aadhar-style numeric government identifiers.
func NormalizeIDNumber(s string) string {
	return nonDigitRegex.ReplaceAllString(s, "")
}

// NormalizeName lowercases, strips characters outside [a-z\s] and
// collapses internal whitespace to single spaces.
func NormalizeName(s string) string {
	s = strings.ToLower(s)
	s = nonNameCharRegex.ReplaceAllString(s, "")
	s = whitespaceRegex.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// normalizeAddressText lowercases, strips non-alphanumerics and
// collapses whitespace. Shared by AddressSimilarity.
func normalizeAddressText(s string) string {
	s = strings.ToLower(s)
	s = nonAlnumRegex.ReplaceAllString(s, "")
	s = whitespaceRegex.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// NormalizeValue canonicalizes a raw value for the given field. Garbage
// in produces a best-effort canonical form, never an error.
func NormalizeValue(f Field, s string) string {
	switch f {
	case FieldPhoneNumber, FieldGuardianPhone:
		return NormalizePhone(s)
	case FieldEmail:
		return NormalizeEmail(s)
	case FieldIDNumber:
		return NormalizeIDNumber(s)
	case FieldEnrollmentID:
		// enrollment ids are alphanumeric, keep letters
		return strings.ToUpper(strings.TrimSpace(s))
	case FieldFirstName, FieldLastName, FieldFullName:
		return NormalizeName(s)
	case FieldDateOfBirth:
		return strings.TrimSpace(s)
	}
	return strings.TrimSpace(s)
}
