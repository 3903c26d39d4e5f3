// Package importer loads student records from CSV files, pushing each
// row through the same duplicate-guarded create path as the API.
package importer

import (
	"context"
	"encoding/csv"
	stderrors "errors"
	"fmt"
	"io"
	"strings"
	"time"

	"student-records/internal/common/errors"
	"student-records/internal/common/logger"
	"student-records/internal/common/metrics"
	"student-records/internal/matching"
	"student-records/internal/students"
	"student-records/pkg/registry"
)

// Creator is the slice of the student service the importer needs.
type Creator interface {
	Create(ctx context.Context, student students.Student, force bool) (*students.Student, matching.Result, error)
}

// RowError records why a single row could not be imported.
type RowError struct {
	Line    int    `json:"line"`
	Message string `json:"message"`
}

// Report summarizes an import run.
type Report struct {
	Total     int        `json:"total"`
	Created   int        `json:"created"`
	Skipped   int        `json:"skipped"`
	Failed    int        `json:"failed"`
	RowErrors []RowError `json:"rowErrors,omitempty"`
}

// Importer reads student rows from CSV input. When a schema registry
// is provided, every row is validated against the student record
// schema before it reaches the create path.
type Importer struct {
	creator  Creator
	registry *registry.Registry
	logger   logger.Logger
}

func New(creator Creator, reg *registry.Registry, log logger.Logger) *Importer {
	return &Importer{creator: creator, registry: reg, logger: log}
}

var knownColumns = map[string]bool{
	"first_name":     true,
	"last_name":      true,
	"email":          true,
	"phone_number":   true,
	"guardian_phone": true,
	"id_number":      true,
	"enrollment_id":  true,
	"date_of_birth":  true,
	"address":        true,
}

// Run imports every row from r. Rows rejected as duplicates are
// counted as skipped, malformed rows as failed. The first hard error
// on the reader itself aborts the run.
func (i *Importer) Run(ctx context.Context, r io.Reader) (*Report, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, errors.NewImportParseFailedError(0, fmt.Errorf("read header: %w", err))
	}
	columns, err := mapHeader(header)
	if err != nil {
		return nil, err
	}

	report := &Report{}
	line := 1
	for {
		line++
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			report.Total++
			report.Failed++
			report.RowErrors = append(report.RowErrors, RowError{Line: line, Message: err.Error()})
			metrics.ImportRows.WithLabelValues("failed").Inc()
			continue
		}

		report.Total++
		student, err := rowToStudent(columns, record)
		if err != nil {
			report.Failed++
			report.RowErrors = append(report.RowErrors, RowError{Line: line, Message: err.Error()})
			metrics.ImportRows.WithLabelValues("failed").Inc()
			continue
		}

		if violations := i.validateRow(columns, record); len(violations) > 0 {
			report.Failed++
			report.RowErrors = append(report.RowErrors, RowError{Line: line, Message: strings.Join(violations, "; ")})
			metrics.ImportRows.WithLabelValues("failed").Inc()
			continue
		}

		_, _, err = i.creator.Create(ctx, student, false)
		switch {
		case err == nil:
			report.Created++
			metrics.ImportRows.WithLabelValues("created").Inc()
		case isDuplicate(err):
			report.Skipped++
			metrics.ImportRows.WithLabelValues("skipped").Inc()
			i.logger.Info("skipped duplicate row", map[string]interface{}{
				"line": line,
			})
		default:
			report.Failed++
			report.RowErrors = append(report.RowErrors, RowError{Line: line, Message: err.Error()})
			metrics.ImportRows.WithLabelValues("failed").Inc()
		}
	}

	i.logger.Info("import finished", map[string]interface{}{
		"total":   report.Total,
		"created": report.Created,
		"skipped": report.Skipped,
		"failed":  report.Failed,
	})
	return report, nil
}

func mapHeader(header []string) (map[string]int, error) {
	columns := make(map[string]int, len(header))
	for idx, name := range header {
		key := strings.ToLower(strings.TrimSpace(name))
		if !knownColumns[key] {
			return nil, errors.NewImportParseFailedError(1, fmt.Errorf("unknown column %q", name))
		}
		columns[key] = idx
	}
	if _, ok := columns["first_name"]; !ok {
		return nil, errors.NewImportParseFailedError(1, stderrors.New("missing required column first_name"))
	}
	if _, ok := columns["last_name"]; !ok {
		return nil, errors.NewImportParseFailedError(1, stderrors.New("missing required column last_name"))
	}
	return columns, nil
}

// payloadField maps CSV column names to the student schema's JSON
// property names.
var payloadField = map[string]string{
	"first_name":     "firstName",
	"last_name":      "lastName",
	"email":          "email",
	"phone_number":   "phoneNumber",
	"guardian_phone": "guardianPhone",
	"id_number":      "idNumber",
	"enrollment_id":  "enrollmentId",
	"date_of_birth":  "dateOfBirth",
	"address":        "address",
}

// validateRow checks the row against the registered student schema.
// Without a registry, or without a student schema, rows pass.
func (i *Importer) validateRow(columns map[string]int, record []string) []string {
	if i.registry == nil || !i.registry.Has("student") {
		return nil
	}

	payload := make(map[string]interface{}, len(columns))
	for name, idx := range columns {
		if idx >= len(record) {
			continue
		}
		value := strings.TrimSpace(record[idx])
		if value == "" {
			continue
		}
		payload[payloadField[name]] = value
	}

	violations, err := i.registry.Validate("student", payload)
	if err != nil {
		return []string{err.Error()}
	}
	return violations
}

func rowToStudent(columns map[string]int, record []string) (students.Student, error) {
	get := func(name string) string {
		idx, ok := columns[name]
		if !ok || idx >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[idx])
	}

	student := students.Student{
		FirstName:     get("first_name"),
		LastName:      get("last_name"),
		Email:         get("email"),
		PhoneNumber:   get("phone_number"),
		GuardianPhone: get("guardian_phone"),
		IDNumber:      get("id_number"),
		EnrollmentID:  get("enrollment_id"),
		Address:       get("address"),
	}
	if student.FirstName == "" || student.LastName == "" {
		return students.Student{}, stderrors.New("first_name and last_name are required")
	}

	if dob := get("date_of_birth"); dob != "" {
		parsed, err := time.Parse("2006-01-02", dob)
		if err != nil {
			return students.Student{}, fmt.Errorf("invalid date_of_birth %q: expected YYYY-MM-DD", dob)
		}
		student.DateOfBirth = &parsed
	}
	return student, nil
}

func isDuplicate(err error) bool {
	var stdErr *errors.StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr.Code == errors.ErrCodeDuplicateRecord
	}
	return false
}
