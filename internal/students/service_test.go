package students

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"student-records/internal/common/errors"
	"student-records/internal/common/logger"
	"student-records/internal/matching"
)

// ==========================
// Test Helper Functions
// ==========================

type detectorStub struct {
	result       matching.Result
	err          error
	lastInput    matching.IdentityInput
	lastCriteria matching.Criteria
	lastOpts     matching.DetectOptions
}

func (d *detectorStub) Detect(ctx context.Context, input matching.IdentityInput, criteria matching.Criteria, opts matching.DetectOptions) (matching.Result, error) {
	d.lastInput = input
	d.lastCriteria = criteria
	d.lastOpts = opts
	if d.err != nil {
		return matching.Result{}, d.err
	}
	return d.result, nil
}

type profilesStub struct {
	profiles map[string]matching.Overrides
}

func (p *profilesStub) Get(ctx context.Context, name string) (matching.Overrides, bool, error) {
	o, ok := p.profiles[name]
	return o, ok, nil
}

func (p *profilesStub) Save(ctx context.Context, name string, overrides matching.Overrides) error {
	if p.profiles == nil {
		p.profiles = map[string]matching.Overrides{}
	}
	p.profiles[name] = overrides
	return nil
}

func (p *profilesStub) Delete(ctx context.Context, name string) error {
	delete(p.profiles, name)
	return nil
}

func cleanResult() matching.Result {
	return matching.Result{HasPotentialDuplicates: false, Confidence: matching.ConfidenceLow, Matches: []matching.Match{}}
}

func highResult() matching.Result {
	return matching.Result{
		HasPotentialDuplicates: true,
		Confidence:             matching.ConfidenceHigh,
		Matches: []matching.Match{
			{CandidateID: "existing-1", OverallScore: 1.0},
		},
	}
}

func newTestService(t *testing.T, detector *detectorStub, profiles *profilesStub) (*Service, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	if profiles == nil {
		profiles = &profilesStub{}
	}
	svc := NewService(NewRepository(db), detector, profiles, ServiceConfig{
		DefaultPreset:     matching.PresetModerate,
		RejectOnHighMatch: true,
	}, logger.NewTestLogger(t))
	return svc, mock
}

// ==========================
// Create / Update
// ==========================

func TestServiceCreateCleanRecord(t *testing.T) {
	detector := &detectorStub{result: cleanResult()}
	svc, mock := newTestService(t, detector, nil)

	mock.ExpectExec("INSERT INTO students").WillReturnResult(sqlmock.NewResult(0, 1))

	created, detection, err := svc.Create(context.Background(), Student{
		FirstName:   "Rahul",
		LastName:    "Sharma",
		PhoneNumber: "+91 9876543210",
	}, false)

	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.False(t, detection.HasPotentialDuplicates)
	assert.Equal(t, "+91 9876543210", detector.lastInput.PhoneNumber)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestServiceCreateRejectsHighConfidenceDuplicate(t *testing.T) {
	detector := &detectorStub{result: highResult()}
	svc, mock := newTestService(t, detector, nil)

	created, detection, err := svc.Create(context.Background(), Student{
		FirstName: "Rahul",
		LastName:  "Sharma",
	}, false)

	require.Error(t, err)
	assert.Nil(t, created)
	stdErr := errors.Normalize(err)
	assert.Equal(t, errors.ErrCodeDuplicateRecord, stdErr.Code)
	assert.Equal(t, "existing-1", stdErr.Metadata["candidateId"])
	// the detection result still reaches the caller for review
	assert.True(t, detection.HasPotentialDuplicates)
	assert.NoError(t, mock.ExpectationsWereMet(), "rejected create must not insert")
}

func TestServiceCreateForceBypassesRejection(t *testing.T) {
	detector := &detectorStub{result: highResult()}
	svc, mock := newTestService(t, detector, nil)

	mock.ExpectExec("INSERT INTO students").WillReturnResult(sqlmock.NewResult(0, 1))

	created, detection, err := svc.Create(context.Background(), Student{
		FirstName: "Rahul",
		LastName:  "Sharma",
	}, true)

	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.True(t, detection.HasPotentialDuplicates)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestServiceCreateRequiresName(t *testing.T) {
	svc, _ := newTestService(t, &detectorStub{result: cleanResult()}, nil)

	_, _, err := svc.Create(context.Background(), Student{Email: "x@example.com"}, false)

	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeValidationFailed, errors.Normalize(err).Code)
}

func TestServiceUpdateExcludesOwnID(t *testing.T) {
	detector := &detectorStub{result: cleanResult()}
	svc, mock := newTestService(t, detector, nil)

	mock.ExpectExec("UPDATE students").WillReturnResult(sqlmock.NewResult(0, 1))

	_, _, err := svc.Update(context.Background(), Student{
		ID:        "stu-1",
		FirstName: "Rahul",
		LastName:  "Sharma",
	}, false)

	require.NoError(t, err)
	assert.Equal(t, "stu-1", detector.lastOpts.ExcludeID)
}

func TestServiceUpdateRequiresID(t *testing.T) {
	svc, _ := newTestService(t, &detectorStub{result: cleanResult()}, nil)

	_, _, err := svc.Update(context.Background(), Student{FirstName: "Rahul"}, false)

	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeValidationFailed, errors.Normalize(err).Code)
}

// ==========================
// Criteria resolution
// ==========================

func TestServiceCheckDuplicatesUnknownPreset(t *testing.T) {
	svc, _ := newTestService(t, &detectorStub{result: cleanResult()}, nil)

	_, err := svc.CheckDuplicates(context.Background(), matching.IdentityInput{PhoneNumber: "9876543210"}, "paranoid", "", nil, "")

	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeUnknownPreset, errors.Normalize(err).Code)
}

func TestServiceCheckDuplicatesLayersProfileAndOverrides(t *testing.T) {
	detector := &detectorStub{result: cleanResult()}
	profileThreshold := 0.9
	profiles := &profilesStub{profiles: map[string]matching.Overrides{
		"admissions": {OverallThreshold: &profileThreshold},
	}}
	svc, _ := newTestService(t, detector, profiles)

	maxResults := 3
	_, err := svc.CheckDuplicates(context.Background(),
		matching.IdentityInput{PhoneNumber: "9876543210"},
		matching.PresetModerate, "admissions",
		&matching.Overrides{MaxResults: &maxResults}, "")

	require.NoError(t, err)
	// profile raised the threshold, request override capped the results
	assert.Equal(t, 0.9, detector.lastCriteria.OverallThreshold)
	assert.Equal(t, 3, detector.lastCriteria.MaxResults)
}

func TestServiceCheckDuplicatesUnknownProfile(t *testing.T) {
	svc, _ := newTestService(t, &detectorStub{result: cleanResult()}, nil)

	_, err := svc.CheckDuplicates(context.Background(), matching.IdentityInput{PhoneNumber: "9876543210"}, "", "no-such-profile", nil, "")

	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeValidationFailed, errors.Normalize(err).Code)
}

func TestServiceCheckDuplicatesInvalidOverrides(t *testing.T) {
	svc, _ := newTestService(t, &detectorStub{result: cleanResult()}, nil)

	bad := 3.0
	_, err := svc.CheckDuplicates(context.Background(), matching.IdentityInput{PhoneNumber: "9876543210"}, "", "", &matching.Overrides{OverallThreshold: &bad}, "")

	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeInvalidCriteria, errors.Normalize(err).Code)
}

// ==========================
// Profiles
// ==========================

func TestServiceSaveProfileValidates(t *testing.T) {
	profiles := &profilesStub{}
	svc, _ := newTestService(t, &detectorStub{result: cleanResult()}, profiles)

	bad := -1.0
	err := svc.SaveProfile(context.Background(), "broken", matching.Overrides{OverallThreshold: &bad})
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeInvalidCriteria, errors.Normalize(err).Code)
	assert.Empty(t, profiles.profiles)

	good := 0.9
	require.NoError(t, svc.SaveProfile(context.Background(), "strict-ish", matching.Overrides{OverallThreshold: &good}))

	loaded, err := svc.GetProfile(context.Background(), "strict-ish")
	require.NoError(t, err)
	assert.Equal(t, 0.9, *loaded.OverallThreshold)
}
