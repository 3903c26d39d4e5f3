package students

import (
	"bytes"
	"context"
	"encoding/csv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExportCSV(t *testing.T) {
	svc, mock := newTestService(t, &detectorStub{result: cleanResult()}, nil)

	now := time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)
	dob := time.Date(2010, 4, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery("SELECT .* FROM students ORDER BY created_at DESC").
		WithArgs(500, 0).
		WillReturnRows(studentRows().
			AddRow("stu-1", "Rahul", "Sharma", "test@example.com", "+91 9876543210", nil,
				nil, "STU-2024-001", dob, nil, now, now))

	var buf bytes.Buffer
	require.NoError(t, svc.ExportCSV(context.Background(), &buf))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, exportHeader, records[0])
	assert.Equal(t, "stu-1", records[1][0])
	assert.Equal(t, "2010-04-01", records[1][8])
}
