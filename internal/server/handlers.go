package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"student-records/internal/common/errors"
	"student-records/internal/common/logger"
	"student-records/internal/common/metrics"
	"student-records/internal/common/observability"
	"student-records/internal/common/validation"
	"student-records/internal/importer"
	"student-records/internal/matching"
	"student-records/internal/students"
	"student-records/pkg/registry"
)

// StudentService is the service surface the HTTP handlers depend on.
type StudentService interface {
	Create(ctx context.Context, student students.Student, force bool) (*students.Student, matching.Result, error)
	Update(ctx context.Context, student students.Student, force bool) (*students.Student, matching.Result, error)
	Get(ctx context.Context, id string) (*students.Student, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, limit, offset int) ([]students.Student, error)
	CheckDuplicates(ctx context.Context, input matching.IdentityInput, presetName, profileName string, overrides *matching.Overrides, excludeID string) (matching.Result, error)
	SaveProfile(ctx context.Context, name string, overrides matching.Overrides) error
	GetProfile(ctx context.Context, name string) (matching.Overrides, error)
	DeleteProfile(ctx context.Context, name string) error
	ExportCSV(ctx context.Context, w io.Writer) error
}

// ImportRunner runs a CSV import stream.
type ImportRunner interface {
	Run(ctx context.Context, r io.Reader) (*importer.Report, error)
}

// Handler holds the dependencies for all API endpoints.
type Handler struct {
	service  StudentService
	importer ImportRunner
	registry *registry.Registry
	obs      *observability.Observability
	logger   logger.Logger
}

func NewHandler(service StudentService, imp ImportRunner, reg *registry.Registry, obs *observability.Observability, log logger.Logger) *Handler {
	return &Handler{
		service:  service,
		importer: imp,
		registry: reg,
		obs:      obs,
		logger:   log,
	}
}

// studentPayload is the wire form of a student record. Dates come in
// as YYYY-MM-DD strings.
type studentPayload struct {
	FirstName     string `json:"firstName"`
	LastName      string `json:"lastName"`
	Email         string `json:"email,omitempty"`
	PhoneNumber   string `json:"phoneNumber,omitempty"`
	GuardianPhone string `json:"guardianPhone,omitempty"`
	IDNumber      string `json:"idNumber,omitempty"`
	EnrollmentID  string `json:"enrollmentId,omitempty"`
	DateOfBirth   string `json:"dateOfBirth,omitempty"`
	Address       string `json:"address,omitempty"`
}

var datePattern = `^\d{4}-\d{2}-\d{2}$`

var studentSchema = validation.JSONSchema{
	Type: "object",
	Properties: map[string]validation.Property{
		"firstName":     {Type: "string", MinLength: intPtr(1), MaxLength: intPtr(100)},
		"lastName":      {Type: "string", MinLength: intPtr(1), MaxLength: intPtr(100)},
		"email":         {Type: "string", MaxLength: intPtr(254)},
		"phoneNumber":   {Type: "string", MaxLength: intPtr(32)},
		"guardianPhone": {Type: "string", MaxLength: intPtr(32)},
		"idNumber":      {Type: "string", MaxLength: intPtr(64)},
		"enrollmentId":  {Type: "string", MaxLength: intPtr(64)},
		"dateOfBirth":   {Type: "string", Pattern: &datePattern},
		"address":       {Type: "string", MaxLength: intPtr(500)},
	},
	Required: []string{"firstName", "lastName"},
}

func intPtr(v int) *int { return &v }

func (p studentPayload) toStudent() (students.Student, error) {
	s := students.Student{
		FirstName:     p.FirstName,
		LastName:      p.LastName,
		Email:         p.Email,
		PhoneNumber:   p.PhoneNumber,
		GuardianPhone: p.GuardianPhone,
		IDNumber:      p.IDNumber,
		EnrollmentID:  p.EnrollmentID,
		Address:       p.Address,
	}
	if p.DateOfBirth != "" {
		parsed, err := time.Parse("2006-01-02", p.DateOfBirth)
		if err != nil {
			return students.Student{}, errors.NewValidationFailedError("dateOfBirth must be YYYY-MM-DD")
		}
		s.DateOfBirth = &parsed
	}
	return s, nil
}

type identityPayload struct {
	PhoneNumber   string `json:"phoneNumber,omitempty"`
	Email         string `json:"email,omitempty"`
	IDNumber      string `json:"idNumber,omitempty"`
	FirstName     string `json:"firstName,omitempty"`
	LastName      string `json:"lastName,omitempty"`
	DateOfBirth   string `json:"dateOfBirth,omitempty"`
	GuardianPhone string `json:"guardianPhone,omitempty"`
	EnrollmentID  string `json:"enrollmentId,omitempty"`
}

func (p identityPayload) toInput() (matching.IdentityInput, error) {
	input := matching.IdentityInput{
		PhoneNumber:   p.PhoneNumber,
		Email:         p.Email,
		IDNumber:      p.IDNumber,
		FirstName:     p.FirstName,
		LastName:      p.LastName,
		GuardianPhone: p.GuardianPhone,
		EnrollmentID:  p.EnrollmentID,
	}
	if p.DateOfBirth != "" {
		parsed, err := time.Parse("2006-01-02", p.DateOfBirth)
		if err != nil {
			return matching.IdentityInput{}, errors.NewValidationFailedError("dateOfBirth must be YYYY-MM-DD")
		}
		input.DateOfBirth = &parsed
	}
	return input, nil
}

type studentResponse struct {
	Student   *students.Student `json:"student"`
	Detection matching.Result   `json:"detection"`
}

// CreateStudent handles POST /api/students. The force query parameter
// bypasses the duplicate rejection.
func (h *Handler) CreateStudent(w http.ResponseWriter, r *http.Request) {
	payload, err := decodeStudentPayload(r)
	if err != nil {
		errors.WriteHTTP(w, err)
		return
	}
	student, err := payload.toStudent()
	if err != nil {
		errors.WriteHTTP(w, err)
		return
	}

	force := r.URL.Query().Get("force") == "true"
	created, detection, err := h.service.Create(r.Context(), student, force)
	if err != nil {
		errors.WriteHTTP(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, studentResponse{Student: created, Detection: detection})
}

// UpdateStudent handles PUT /api/students/{id}.
func (h *Handler) UpdateStudent(w http.ResponseWriter, r *http.Request) {
	payload, err := decodeStudentPayload(r)
	if err != nil {
		errors.WriteHTTP(w, err)
		return
	}
	student, err := payload.toStudent()
	if err != nil {
		errors.WriteHTTP(w, err)
		return
	}
	student.ID = r.PathValue("id")

	force := r.URL.Query().Get("force") == "true"
	updated, detection, err := h.service.Update(r.Context(), student, force)
	if err != nil {
		errors.WriteHTTP(w, err)
		return
	}
	writeJSON(w, http.StatusOK, studentResponse{Student: updated, Detection: detection})
}

// GetStudent handles GET /api/students/{id}.
func (h *Handler) GetStudent(w http.ResponseWriter, r *http.Request) {
	student, err := h.service.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		errors.WriteHTTP(w, err)
		return
	}
	writeJSON(w, http.StatusOK, student)
}

// DeleteStudent handles DELETE /api/students/{id}.
func (h *Handler) DeleteStudent(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), r.PathValue("id")); err != nil {
		errors.WriteHTTP(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListStudents handles GET /api/students with limit/offset paging.
func (h *Handler) ListStudents(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 50)
	offset := queryInt(r, "offset", 0)
	if limit < 1 || limit > 500 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	list, err := h.service.List(r.Context(), limit, offset)
	if err != nil {
		errors.WriteHTTP(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"students": list,
		"count":    len(list),
	})
}

type checkDuplicatesRequest struct {
	Input     identityPayload     `json:"input"`
	Preset    string              `json:"preset,omitempty"`
	Profile   string              `json:"profile,omitempty"`
	Overrides *matching.Overrides `json:"overrides,omitempty"`
	ExcludeID string              `json:"excludeId,omitempty"`
}

// CheckDuplicates handles POST /api/students/check-duplicates.
func (h *Handler) CheckDuplicates(w http.ResponseWriter, r *http.Request) {
	var req checkDuplicatesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errors.WriteHTTP(w, errors.NewValidationFailedError("invalid request body: "+err.Error()))
		return
	}
	input, err := req.Input.toInput()
	if err != nil {
		errors.WriteHTTP(w, err)
		return
	}

	start := time.Now()
	result, err := h.service.CheckDuplicates(r.Context(), input, req.Preset, req.Profile, req.Overrides, req.ExcludeID)
	if err != nil {
		h.obs.RecordDetection(r.Context(), "error", time.Since(start))
		errors.WriteHTTP(w, err)
		return
	}

	outcome := "clean"
	if result.HasPotentialDuplicates {
		outcome = "duplicates_found"
	}
	h.obs.RecordDetection(r.Context(), outcome, time.Since(start))
	writeJSON(w, http.StatusOK, result)
}

// ListPresets handles GET /api/matching/presets.
func (h *Handler) ListPresets(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"presets": matching.PresetNames(),
	})
}

// GetPreset handles GET /api/matching/presets/{name}, returning the
// full resolved criteria.
func (h *Handler) GetPreset(w http.ResponseWriter, r *http.Request) {
	criteria, err := matching.Preset(r.PathValue("name"))
	if err != nil {
		errors.WriteHTTP(w, errors.NewUnknownPresetError(r.PathValue("name")))
		return
	}
	writeJSON(w, http.StatusOK, criteria)
}

type profileRequest struct {
	Overrides matching.Overrides `json:"overrides"`
}

// SaveProfile handles PUT /api/matching/profiles/{name}.
func (h *Handler) SaveProfile(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	var req profileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errors.WriteHTTP(w, errors.NewValidationFailedError("invalid request body: "+err.Error()))
		return
	}
	if err := h.service.SaveProfile(r.Context(), name, req.Overrides); err != nil {
		errors.WriteHTTP(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"name": name})
}

// GetProfile handles GET /api/matching/profiles/{name}.
func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	overrides, err := h.service.GetProfile(r.Context(), r.PathValue("name"))
	if err != nil {
		errors.WriteHTTP(w, err)
		return
	}
	writeJSON(w, http.StatusOK, profileRequest{Overrides: overrides})
}

// DeleteProfile handles DELETE /api/matching/profiles/{name}.
func (h *Handler) DeleteProfile(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteProfile(r.Context(), r.PathValue("name")); err != nil {
		errors.WriteHTTP(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ImportStudents handles POST /api/students/import with a CSV body.
func (h *Handler) ImportStudents(w http.ResponseWriter, r *http.Request) {
	contentType := r.Header.Get("Content-Type")
	if contentType != "" && !strings.HasPrefix(contentType, "text/csv") {
		errors.WriteHTTP(w, errors.NewValidationFailedError("expected text/csv body"))
		return
	}

	report, err := h.importer.Run(r.Context(), r.Body)
	if err != nil {
		errors.WriteHTTP(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// ExportStudents handles GET /api/students/export.csv.
func (h *Handler) ExportStudents(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="students.csv"`)
	if err := h.service.ExportCSV(r.Context(), w); err != nil {
		h.logger.Error("export failed", map[string]interface{}{"error": err.Error()})
	}
}

// ListSchemas handles GET /api/registry, describing the registered
// record schemas.
func (h *Handler) ListSchemas(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"version":     h.registry.Version(),
		"recordTypes": h.registry.RecordTypes(),
	})
}

// ValidateRecord handles POST /api/registry/{type}/validate, checking
// an arbitrary payload against the registered schema.
func (h *Handler) ValidateRecord(w http.ResponseWriter, r *http.Request) {
	recordType := r.PathValue("type")
	if !h.registry.Has(recordType) {
		errors.WriteHTTP(w, errors.NewSchemaNotFoundError(recordType))
		return
	}
	var payload map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		errors.WriteHTTP(w, errors.NewValidationFailedError("invalid request body: "+err.Error()))
		return
	}

	violations, err := h.registry.Validate(recordType, payload)
	if err != nil {
		errors.WriteHTTP(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"valid":      len(violations) == 0,
		"violations": violations,
	})
}

func decodeStudentPayload(r *http.Request) (studentPayload, error) {
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		return studentPayload{}, errors.NewValidationFailedError("failed to read request body")
	}

	var raw map[string]interface{}
	if err := json.Unmarshal(body, &raw); err != nil {
		return studentPayload{}, errors.NewValidationFailedError("invalid request body: " + err.Error())
	}
	if result := validation.ValidateInput(raw, studentSchema); !result.Valid {
		return studentPayload{}, errors.NewValidationFailedError(strings.Join(result.GetErrorMessages(), "; "))
	}

	var payload studentPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return studentPayload{}, errors.NewValidationFailedError("invalid request body: " + err.Error())
	}
	return payload, nil
}

func queryInt(r *http.Request, key string, fallback int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		metrics.StudentOperations.WithLabelValues("encode_response", "error").Inc()
	}
}
