package students

import (
	"context"
	"database/sql"
	"time"

	"student-records/internal/common/errors"
	"student-records/internal/matching"
)

const studentColumns = `id, first_name, last_name, email, phone_number, guardian_phone, id_number, enrollment_id, date_of_birth, address, created_at, updated_at`

// Repository persists student records. Every write also refreshes the
// normalized lookup columns the candidate store queries.
type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(ctx context.Context, s *Student) error {
	now := time.Now().UTC()
	s.CreatedAt = now
	s.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO students (
			id, first_name, last_name, email, phone_number, guardian_phone,
			id_number, enrollment_id, date_of_birth, address,
			phone_normalized, email_normalized, id_number_normalized,
			first_name_normalized, last_name_normalized,
			guardian_phone_normalized, enrollment_id_normalized,
			created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19)`,
		s.ID, s.FirstName, s.LastName, nullable(s.Email), nullable(s.PhoneNumber), nullable(s.GuardianPhone),
		nullable(s.IDNumber), nullable(s.EnrollmentID), s.DateOfBirth, nullable(s.Address),
		nullable(matching.NormalizePhone(s.PhoneNumber)),
		nullable(matching.NormalizeEmail(s.Email)),
		nullable(matching.NormalizeIDNumber(s.IDNumber)),
		nullable(matching.NormalizeName(s.FirstName)),
		nullable(matching.NormalizeName(s.LastName)),
		nullable(matching.NormalizePhone(s.GuardianPhone)),
		nullable(matching.NormalizeValue(matching.FieldEnrollmentID, s.EnrollmentID)),
		s.CreatedAt, s.UpdatedAt,
	)
	if err != nil {
		return errors.NewQueryExecutionFailedError("insert student", err)
	}
	return nil
}

func (r *Repository) GetByID(ctx context.Context, id string) (*Student, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+studentColumns+` FROM students WHERE id = $1`, id)

	s, err := scanStudent(row)
	if err == sql.ErrNoRows {
		return nil, errors.NewRecordNotFoundError(id)
	}
	if err != nil {
		return nil, errors.NewQueryExecutionFailedError("select student", err)
	}
	return s, nil
}

func (r *Repository) Update(ctx context.Context, s *Student) error {
	s.UpdatedAt = time.Now().UTC()

	result, err := r.db.ExecContext(ctx, `
		UPDATE students SET
			first_name = $2, last_name = $3, email = $4, phone_number = $5,
			guardian_phone = $6, id_number = $7, enrollment_id = $8,
			date_of_birth = $9, address = $10,
			phone_normalized = $11, email_normalized = $12, id_number_normalized = $13,
			first_name_normalized = $14, last_name_normalized = $15,
			guardian_phone_normalized = $16, enrollment_id_normalized = $17,
			updated_at = $18
		WHERE id = $1`,
		s.ID, s.FirstName, s.LastName, nullable(s.Email), nullable(s.PhoneNumber),
		nullable(s.GuardianPhone), nullable(s.IDNumber), nullable(s.EnrollmentID),
		s.DateOfBirth, nullable(s.Address),
		nullable(matching.NormalizePhone(s.PhoneNumber)),
		nullable(matching.NormalizeEmail(s.Email)),
		nullable(matching.NormalizeIDNumber(s.IDNumber)),
		nullable(matching.NormalizeName(s.FirstName)),
		nullable(matching.NormalizeName(s.LastName)),
		nullable(matching.NormalizePhone(s.GuardianPhone)),
		nullable(matching.NormalizeValue(matching.FieldEnrollmentID, s.EnrollmentID)),
		s.UpdatedAt,
	)
	if err != nil {
		return errors.NewQueryExecutionFailedError("update student", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return errors.NewRecordNotFoundError(s.ID)
	}
	return nil
}

func (r *Repository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM students WHERE id = $1`, id)
	if err != nil {
		return errors.NewQueryExecutionFailedError("delete student", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return errors.NewRecordNotFoundError(id)
	}
	return nil
}

func (r *Repository) List(ctx context.Context, limit, offset int) ([]Student, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+studentColumns+` FROM students ORDER BY created_at DESC LIMIT $1 OFFSET $2`,
		limit, offset)
	if err != nil {
		return nil, errors.NewQueryExecutionFailedError("list students", err)
	}
	defer rows.Close()

	out := []Student{}
	for rows.Next() {
		s, err := scanStudent(rows)
		if err != nil {
			return nil, errors.NewQueryExecutionFailedError("scan student", err)
		}
		out = append(out, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewQueryExecutionFailedError("iterate students", err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanStudent(row rowScanner) (*Student, error) {
	var s Student
	var email, phone, guardianPhone, idNumber, enrollmentID, address sql.NullString
	var dob sql.NullTime

	err := row.Scan(&s.ID, &s.FirstName, &s.LastName, &email, &phone, &guardianPhone,
		&idNumber, &enrollmentID, &dob, &address, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}

	s.Email = email.String
	s.PhoneNumber = phone.String
	s.GuardianPhone = guardianPhone.String
	s.IDNumber = idNumber.String
	s.EnrollmentID = enrollmentID.String
	s.Address = address.String
	if dob.Valid {
		d := dob.Time
		s.DateOfBirth = &d
	}
	return &s, nil
}

// nullable maps empty strings to NULL so partially-filled records do
// not collide on empty normalized values.
func nullable(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
