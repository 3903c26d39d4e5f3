package students

import (
	"context"
	"encoding/csv"
	"io"
	"strconv"
)

// exportHeader is the canonical column order for CSV export, mirrored
// by the importer.
var exportHeader = []string{
	"id", "first_name", "last_name", "email", "phone_number",
	"guardian_phone", "id_number", "enrollment_id", "date_of_birth",
	"address", "created_at",
}

// ExportCSV streams every student page by page as CSV.
func (s *Service) ExportCSV(ctx context.Context, w io.Writer) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(exportHeader); err != nil {
		return err
	}

	const pageSize = 500
	for offset := 0; ; offset += pageSize {
		page, err := s.repo.List(ctx, pageSize, offset)
		if err != nil {
			return err
		}
		for _, student := range page {
			if err := writer.Write(exportRow(student)); err != nil {
				return err
			}
		}
		if len(page) < pageSize {
			break
		}
	}

	writer.Flush()
	return writer.Error()
}

func exportRow(s Student) []string {
	dob := ""
	if s.DateOfBirth != nil {
		dob = s.DateOfBirth.Format("2006-01-02")
	}
	return []string{
		s.ID, s.FirstName, s.LastName, s.Email, s.PhoneNumber,
		s.GuardianPhone, s.IDNumber, s.EnrollmentID, dob,
		s.Address, strconv.FormatInt(s.CreatedAt.Unix(), 10),
	}
}
