package matching

import "time"

// Field identifies one matchable identity attribute. The set is closed:
// every switch over Field in this package and in the candidate store is
// exhaustive, so adding a field is a compile-checked change.
type Field string

const (
	FieldPhoneNumber   Field = "phone_number"
	FieldEmail         Field = "email"
	FieldIDNumber      Field = "id_number"
	FieldFirstName     Field = "first_name"
	FieldLastName      Field = "last_name"
	FieldFullName      Field = "full_name"
	FieldDateOfBirth   Field = "date_of_birth"
	FieldGuardianPhone Field = "guardian_phone"
	FieldEnrollmentID  Field = "enrollment_id"
)

// AllFields returns every matchable field in canonical order.
func AllFields() []Field {
	return []Field{
		FieldPhoneNumber,
		FieldEmail,
		FieldIDNumber,
		FieldFirstName,
		FieldLastName,
		FieldFullName,
		FieldDateOfBirth,
		FieldGuardianPhone,
		FieldEnrollmentID,
	}
}

// Valid reports whether f is one of the known matchable fields.
func (f Field) Valid() bool {
	switch f {
	case FieldPhoneNumber, FieldEmail, FieldIDNumber, FieldFirstName,
		FieldLastName, FieldFullName, FieldDateOfBirth, FieldGuardianPhone,
		FieldEnrollmentID:
		return true
	}
	return false
}

// HasColumn reports whether the field maps to a stored column the
// candidate store can query directly. FullName is derived from the
// first/last name columns and is scoring-only.
func (f Field) HasColumn() bool {
	return f != FieldFullName
}

// IdentityInput is the partial identity record being checked for
// duplicates. Absent fields are skipped during matching.
type IdentityInput struct {
	PhoneNumber   string     `json:"phoneNumber,omitempty"`
	Email         string     `json:"email,omitempty"`
	IDNumber      string     `json:"idNumber,omitempty"`
	FirstName     string     `json:"firstName,omitempty"`
	LastName      string     `json:"lastName,omitempty"`
	DateOfBirth   *time.Time `json:"dateOfBirth,omitempty"`
	GuardianPhone string     `json:"guardianPhone,omitempty"`
	EnrollmentID  string     `json:"enrollmentId,omitempty"`
}

// CandidateRecord is a previously stored identity retrieved as a
// possible duplicate. It is an immutable snapshot at retrieval time.
type CandidateRecord struct {
	ID            string     `json:"id"`
	PhoneNumber   string     `json:"phoneNumber,omitempty"`
	Email         string     `json:"email,omitempty"`
	IDNumber      string     `json:"idNumber,omitempty"`
	FirstName     string     `json:"firstName,omitempty"`
	LastName      string     `json:"lastName,omitempty"`
	DateOfBirth   *time.Time `json:"dateOfBirth,omitempty"`
	GuardianPhone string     `json:"guardianPhone,omitempty"`
	EnrollmentID  string     `json:"enrollmentId,omitempty"`
}

const dateLayout = "2006-01-02"

// value returns the raw value of f on the input and whether it is populated.
func (in IdentityInput) value(f Field) (string, bool) {
	switch f {
	case FieldPhoneNumber:
		return in.PhoneNumber, in.PhoneNumber != ""
	case FieldEmail:
		return in.Email, in.Email != ""
	case FieldIDNumber:
		return in.IDNumber, in.IDNumber != ""
	case FieldFirstName:
		return in.FirstName, in.FirstName != ""
	case FieldLastName:
		return in.LastName, in.LastName != ""
	case FieldFullName:
		full := joinName(in.FirstName, in.LastName)
		return full, full != ""
	case FieldDateOfBirth:
		if in.DateOfBirth == nil {
			return "", false
		}
		return in.DateOfBirth.Format(dateLayout), true
	case FieldGuardianPhone:
		return in.GuardianPhone, in.GuardianPhone != ""
	case FieldEnrollmentID:
		return in.EnrollmentID, in.EnrollmentID != ""
	}
	return "", false
}

// IsEmpty reports whether no matchable field is populated.
func (in IdentityInput) IsEmpty() bool {
	for _, f := range AllFields() {
		if _, ok := in.value(f); ok {
			return false
		}
	}
	return true
}

func (c CandidateRecord) value(f Field) (string, bool) {
	switch f {
	case FieldPhoneNumber:
		return c.PhoneNumber, c.PhoneNumber != ""
	case FieldEmail:
		return c.Email, c.Email != ""
	case FieldIDNumber:
		return c.IDNumber, c.IDNumber != ""
	case FieldFirstName:
		return c.FirstName, c.FirstName != ""
	case FieldLastName:
		return c.LastName, c.LastName != ""
	case FieldFullName:
		full := joinName(c.FirstName, c.LastName)
		return full, full != ""
	case FieldDateOfBirth:
		if c.DateOfBirth == nil {
			return "", false
		}
		return c.DateOfBirth.Format(dateLayout), true
	case FieldGuardianPhone:
		return c.GuardianPhone, c.GuardianPhone != ""
	case FieldEnrollmentID:
		return c.EnrollmentID, c.EnrollmentID != ""
	}
	return "", false
}

func joinName(first, last string) string {
	switch {
	case first == "":
		return last
	case last == "":
		return first
	default:
		return first + " " + last
	}
}
