// Package students implements the student-record domain: the model,
// its repository and the service that guards writes with duplicate
// detection.
package students

import (
	"time"

	"student-records/internal/matching"
)

// Student is one stored student record.
type Student struct {
	ID            string     `json:"id"`
	FirstName     string     `json:"firstName"`
	LastName      string     `json:"lastName"`
	Email         string     `json:"email,omitempty"`
	PhoneNumber   string     `json:"phoneNumber,omitempty"`
	GuardianPhone string     `json:"guardianPhone,omitempty"`
	IDNumber      string     `json:"idNumber,omitempty"`
	EnrollmentID  string     `json:"enrollmentId,omitempty"`
	DateOfBirth   *time.Time `json:"dateOfBirth,omitempty"`
	Address       string     `json:"address,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

// Identity projects the record onto the matchable identity fields.
func (s Student) Identity() matching.IdentityInput {
	return matching.IdentityInput{
		PhoneNumber:   s.PhoneNumber,
		Email:         s.Email,
		IDNumber:      s.IDNumber,
		FirstName:     s.FirstName,
		LastName:      s.LastName,
		DateOfBirth:   s.DateOfBirth,
		GuardianPhone: s.GuardianPhone,
		EnrollmentID:  s.EnrollmentID,
	}
}
