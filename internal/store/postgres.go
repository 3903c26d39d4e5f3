// Package store implements the persistence collaborators consumed by
// the matching engine and the students service.
package store

import (
	"context"
	"database/sql"

	"student-records/internal/common/errors"
	"student-records/internal/matching"
)

// candidateColumns is the projection shared by every candidate lookup.
const candidateColumns = `id, phone_number, email, id_number, first_name, last_name, date_of_birth, guardian_phone, enrollment_id`

// PostgresCandidateStore resolves exact lookups on the normalized
// lookup columns of the students table.
type PostgresCandidateStore struct {
	db *sql.DB
}

func NewPostgresCandidateStore(db *sql.DB) *PostgresCandidateStore {
	return &PostgresCandidateStore{db: db}
}

// lookupColumn maps a matchable field to its normalized lookup column.
// The repository keeps these columns in sync on every write. FullName
// has no column: it is derived from the name columns and scoring-only.
func lookupColumn(f matching.Field) (string, bool) {
	switch f {
	case matching.FieldPhoneNumber:
		return "phone_normalized", true
	case matching.FieldEmail:
		return "email_normalized", true
	case matching.FieldIDNumber:
		return "id_number_normalized", true
	case matching.FieldFirstName:
		return "first_name_normalized", true
	case matching.FieldLastName:
		return "last_name_normalized", true
	case matching.FieldFullName:
		return "", false
	case matching.FieldDateOfBirth:
		return "date_of_birth", true
	case matching.FieldGuardianPhone:
		return "guardian_phone_normalized", true
	case matching.FieldEnrollmentID:
		return "enrollment_id_normalized", true
	}
	return "", false
}

// FindByField returns every stored record whose normalized column
// equals the given value, excluding excludeID when set. No rows is an
// empty slice, not an error.
func (s *PostgresCandidateStore) FindByField(ctx context.Context, field matching.Field, normalizedValue string, excludeID string) ([]matching.CandidateRecord, error) {
	column, ok := lookupColumn(field)
	if !ok {
		return []matching.CandidateRecord{}, nil
	}

	query := `SELECT ` + candidateColumns + ` FROM students WHERE ` + column + ` = $1`
	args := []interface{}{normalizedValue}
	if excludeID != "" {
		query += ` AND id <> $2`
		args = append(args, excludeID)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.NewQueryExecutionFailedError("candidate lookup on "+column, err)
	}
	defer rows.Close()

	records := []matching.CandidateRecord{}
	for rows.Next() {
		rec, err := scanCandidate(rows)
		if err != nil {
			return nil, errors.NewQueryExecutionFailedError("candidate scan", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewQueryExecutionFailedError("candidate iteration", err)
	}
	return records, nil
}

func scanCandidate(rows *sql.Rows) (matching.CandidateRecord, error) {
	var rec matching.CandidateRecord
	var phone, email, idNumber, firstName, lastName, guardianPhone, enrollmentID sql.NullString
	var dob sql.NullTime

	err := rows.Scan(&rec.ID, &phone, &email, &idNumber, &firstName, &lastName, &dob, &guardianPhone, &enrollmentID)
	if err != nil {
		return matching.CandidateRecord{}, err
	}

	rec.PhoneNumber = phone.String
	rec.Email = email.String
	rec.IDNumber = idNumber.String
	rec.FirstName = firstName.String
	rec.LastName = lastName.String
	rec.GuardianPhone = guardianPhone.String
	rec.EnrollmentID = enrollmentID.String
	if dob.Valid {
		d := dob.Time
		rec.DateOfBirth = &d
	}
	return rec, nil
}
