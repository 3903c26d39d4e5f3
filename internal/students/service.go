package students

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"student-records/internal/common/errors"
	"student-records/internal/common/logger"
	"student-records/internal/common/metrics"
	"student-records/internal/matching"
)

// Detector is the slice of the matching engine the service needs.
type Detector interface {
	Detect(ctx context.Context, input matching.IdentityInput, criteria matching.Criteria, opts matching.DetectOptions) (matching.Result, error)
}

// ProfileStore resolves named criteria overrides.
type ProfileStore interface {
	Get(ctx context.Context, name string) (matching.Overrides, bool, error)
	Save(ctx context.Context, name string, overrides matching.Overrides) error
	Delete(ctx context.Context, name string) error
}

// ServiceConfig carries the service-level matching policy.
type ServiceConfig struct {
	DefaultPreset     string
	RejectOnHighMatch bool
}

// Service coordinates record writes with duplicate detection.
type Service struct {
	repo     *Repository
	detector Detector
	profiles ProfileStore
	config   ServiceConfig
	logger   logger.Logger
}

func NewService(repo *Repository, detector Detector, profiles ProfileStore, cfg ServiceConfig, log logger.Logger) *Service {
	if cfg.DefaultPreset == "" {
		cfg.DefaultPreset = matching.PresetModerate
	}
	return &Service{
		repo:     repo,
		detector: detector,
		profiles: profiles,
		config:   cfg,
		logger:   log,
	}
}

// CheckDuplicates resolves the requested criteria and runs detection.
// An unknown preset or profile name, or criteria failing validation,
// is a caller error.
func (s *Service) CheckDuplicates(ctx context.Context, input matching.IdentityInput, presetName, profileName string, overrides *matching.Overrides, excludeID string) (matching.Result, error) {
	criteria, err := s.resolveCriteria(ctx, presetName, profileName, overrides)
	if err != nil {
		return matching.Result{}, err
	}
	return s.detector.Detect(ctx, input, criteria, matching.DetectOptions{ExcludeID: excludeID})
}

// resolveCriteria layers preset -> saved profile -> request overrides
// and validates the outcome before it reaches the detector.
func (s *Service) resolveCriteria(ctx context.Context, presetName, profileName string, overrides *matching.Overrides) (matching.Criteria, error) {
	if presetName == "" {
		presetName = s.config.DefaultPreset
	}
	criteria, err := matching.Preset(presetName)
	if err != nil {
		return matching.Criteria{}, errors.NewUnknownPresetError(presetName)
	}

	if profileName != "" {
		profile, found, err := s.profiles.Get(ctx, profileName)
		if err != nil {
			return matching.Criteria{}, errors.NewInternalError(err)
		}
		if !found {
			return matching.Criteria{}, errors.NewValidationFailedError("unknown matching profile: " + profileName)
		}
		criteria = criteria.WithOverrides(profile)
	}

	if overrides != nil {
		criteria = criteria.WithOverrides(*overrides)
	}

	if result := criteria.Validate(); !result.Valid {
		return matching.Criteria{}, errors.NewInvalidCriteriaError(joinErrors(result.Errors))
	}
	return criteria, nil
}

// SaveProfile persists named criteria overrides after checking they
// produce a valid configuration on top of the defaults.
func (s *Service) SaveProfile(ctx context.Context, name string, overrides matching.Overrides) error {
	candidate := matching.DefaultCriteria().WithOverrides(overrides)
	if result := candidate.Validate(); !result.Valid {
		return errors.NewInvalidCriteriaError(joinErrors(result.Errors))
	}
	return s.profiles.Save(ctx, name, overrides)
}

// GetProfile loads named criteria overrides.
func (s *Service) GetProfile(ctx context.Context, name string) (matching.Overrides, error) {
	overrides, found, err := s.profiles.Get(ctx, name)
	if err != nil {
		return matching.Overrides{}, errors.NewInternalError(err)
	}
	if !found {
		return matching.Overrides{}, errors.NewValidationFailedError("unknown matching profile: " + name)
	}
	return overrides, nil
}

// DeleteProfile removes named criteria overrides.
func (s *Service) DeleteProfile(ctx context.Context, name string) error {
	return s.profiles.Delete(ctx, name)
}

// Create stores a new student after a duplicate check. A
// high-confidence match rejects the write unless force is set; the
// detection result always reaches the caller for review.
func (s *Service) Create(ctx context.Context, student Student, force bool) (*Student, matching.Result, error) {
	if student.FirstName == "" && student.LastName == "" {
		return nil, matching.Result{}, errors.NewValidationFailedError("student name is required")
	}

	detection, err := s.CheckDuplicates(ctx, student.Identity(), "", "", nil, "")
	if err != nil {
		metrics.StudentOperations.WithLabelValues("create", "error").Inc()
		return nil, matching.Result{}, err
	}

	if s.config.RejectOnHighMatch && !force && detection.Confidence == matching.ConfidenceHigh {
		best := detection.Matches[0]
		metrics.StudentOperations.WithLabelValues("create", "duplicate").Inc()
		s.logger.Warn("rejecting create, high-confidence duplicate", map[string]interface{}{
			"candidateId": best.CandidateID,
			"score":       best.OverallScore,
		})
		return nil, detection, errors.NewDuplicateRecordError(best.CandidateID, best.OverallScore)
	}

	student.ID = uuid.NewString()
	if err := s.repo.Create(ctx, &student); err != nil {
		metrics.StudentOperations.WithLabelValues("create", "error").Inc()
		return nil, detection, err
	}

	metrics.StudentOperations.WithLabelValues("create", "ok").Inc()
	s.logger.Info("student created", map[string]interface{}{
		"id":         student.ID,
		"duplicates": len(detection.Matches),
	})
	return &student, detection, nil
}

// Update rewrites an existing student. The duplicate check excludes the
// record's own id so it never flags itself.
func (s *Service) Update(ctx context.Context, student Student, force bool) (*Student, matching.Result, error) {
	if student.ID == "" {
		return nil, matching.Result{}, errors.NewValidationFailedError("student id is required")
	}

	detection, err := s.CheckDuplicates(ctx, student.Identity(), "", "", nil, student.ID)
	if err != nil {
		metrics.StudentOperations.WithLabelValues("update", "error").Inc()
		return nil, matching.Result{}, err
	}

	if s.config.RejectOnHighMatch && !force && detection.Confidence == matching.ConfidenceHigh {
		best := detection.Matches[0]
		metrics.StudentOperations.WithLabelValues("update", "duplicate").Inc()
		return nil, detection, errors.NewDuplicateRecordError(best.CandidateID, best.OverallScore)
	}

	if err := s.repo.Update(ctx, &student); err != nil {
		metrics.StudentOperations.WithLabelValues("update", "error").Inc()
		return nil, detection, err
	}

	metrics.StudentOperations.WithLabelValues("update", "ok").Inc()
	return &student, detection, nil
}

// Get returns one student by id.
func (s *Service) Get(ctx context.Context, id string) (*Student, error) {
	return s.repo.GetByID(ctx, id)
}

// Delete removes one student by id.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		metrics.StudentOperations.WithLabelValues("delete", "error").Inc()
		return err
	}
	metrics.StudentOperations.WithLabelValues("delete", "ok").Inc()
	return nil
}

// List returns a page of students.
func (s *Service) List(ctx context.Context, limit, offset int) ([]Student, error) {
	return s.repo.List(ctx, limit, offset)
}

func joinErrors(errs []string) string {
	return strings.Join(errs, "; ")
}
