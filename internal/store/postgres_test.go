package store

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"student-records/internal/common/errors"
	"student-records/internal/matching"
)

func candidateRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "phone_number", "email", "id_number", "first_name", "last_name",
		"date_of_birth", "guardian_phone", "enrollment_id",
	})
}

func TestFindByField_Phone(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	dob := time.Date(2010, 4, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta(
		`SELECT id, phone_number, email, id_number, first_name, last_name, date_of_birth, guardian_phone, enrollment_id FROM students WHERE phone_normalized = $1`,
	)).
		WithArgs("9876543210").
		WillReturnRows(candidateRows().AddRow(
			"stu-1", "+91 9876543210", "test@example.com", nil, "Rahul", "Sharma", dob, nil, "STU-2024-001",
		))

	store := NewPostgresCandidateStore(db)
	records, err := store.FindByField(context.Background(), matching.FieldPhoneNumber, "9876543210", "")

	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "stu-1", records[0].ID)
	assert.Equal(t, "+91 9876543210", records[0].PhoneNumber)
	assert.Equal(t, "", records[0].IDNumber)
	require.NotNil(t, records[0].DateOfBirth)
	assert.True(t, dob.Equal(*records[0].DateOfBirth))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindByField_ExcludeID(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta(
		`SELECT id, phone_number, email, id_number, first_name, last_name, date_of_birth, guardian_phone, enrollment_id FROM students WHERE email_normalized = $1 AND id <> $2`,
	)).
		WithArgs("test@example.com", "stu-1").
		WillReturnRows(candidateRows())

	store := NewPostgresCandidateStore(db)
	records, err := store.FindByField(context.Background(), matching.FieldEmail, "test@example.com", "stu-1")

	require.NoError(t, err)
	assert.Empty(t, records)
	assert.NotNil(t, records, "no rows must be an empty slice, not nil")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindByField_FullNameHasNoColumn(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	store := NewPostgresCandidateStore(db)
	records, err := store.FindByField(context.Background(), matching.FieldFullName, "rahul sharma", "")

	require.NoError(t, err)
	assert.Empty(t, records)
	assert.NoError(t, mock.ExpectationsWereMet(), "full name lookups must not hit the database")
}

func TestFindByField_QueryError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT").WillReturnError(assert.AnError)

	store := NewPostgresCandidateStore(db)
	_, err = store.FindByField(context.Background(), matching.FieldIDNumber, "123456789012", "")

	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeQueryExecutionFailed, errors.Normalize(err).Code)
}

func TestLookupColumn(t *testing.T) {
	for _, f := range matching.AllFields() {
		column, ok := lookupColumn(f)
		if f == matching.FieldFullName {
			assert.False(t, ok)
			continue
		}
		assert.True(t, ok, "field %s", f)
		assert.NotEmpty(t, column, "field %s", f)
	}

	_, ok := lookupColumn(matching.Field("shoe_size"))
	assert.False(t, ok)
}
