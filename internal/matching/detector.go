package matching

import (
	"context"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"student-records/internal/common/errors"
	"student-records/internal/common/logger"
	"student-records/internal/common/metrics"
)

// Confidence is the coarse classification of the best surviving score.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// Match is one scored candidate. FieldScores records every computed
// per-field score, including sub-threshold ones kept for transparency.
type Match struct {
	CandidateID   string            `json:"candidateId"`
	OverallScore  float64           `json:"overallScore"`
	MatchedFields []Field           `json:"matchedFields"`
	FieldScores   map[Field]float64 `json:"fieldScores"`
}

// Result is the outcome of one detection call. Matches are sorted by
// overall score descending and capped at the criteria's MaxResults.
type Result struct {
	HasPotentialDuplicates bool       `json:"hasPotentialDuplicates"`
	Confidence             Confidence `json:"confidence"`
	Matches                []Match    `json:"matches"`
}

// DetectOptions carries per-call options. ExcludeID keeps a record from
// flagging itself when an update is being validated.
type DetectOptions struct {
	ExcludeID string
}

// CandidateStore is the detector's single collaborator: an exact lookup
// on one indexed field. Implementations return an empty slice, not an
// error, when nothing matches.
type CandidateStore interface {
	FindByField(ctx context.Context, field Field, normalizedValue string, excludeID string) ([]CandidateRecord, error)
}

// Detector retrieves candidates, scores them against the criteria and
// produces a ranked, deduplicated result. Detection calls are fully
// independent; the detector holds no per-call state.
type Detector struct {
	store  CandidateStore
	logger logger.Logger
}

func NewDetector(store CandidateStore, log logger.Logger) *Detector {
	return &Detector{store: store, logger: log}
}

// Detect checks the identity input against stored records. The criteria
// must already have passed Validate; the detector does not re-check it.
func (d *Detector) Detect(ctx context.Context, input IdentityInput, criteria Criteria, opts DetectOptions) (Result, error) {
	start := time.Now()
	defer func() { metrics.DetectionDuration.Observe(time.Since(start).Seconds()) }()

	// The empty-input branch is the only one guaranteed to avoid I/O.
	if input.IsEmpty() {
		metrics.DetectionRequests.WithLabelValues("empty_input").Inc()
		return Result{HasPotentialDuplicates: false, Confidence: ConfidenceLow, Matches: []Match{}}, nil
	}

	candidates, err := d.fetchCandidates(ctx, input, criteria, opts)
	if err != nil {
		metrics.DetectionRequests.WithLabelValues("lookup_failed").Inc()
		return Result{}, err
	}

	matches := d.scoreCandidates(input, criteria, candidates)

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].OverallScore != matches[j].OverallScore {
			return matches[i].OverallScore > matches[j].OverallScore
		}
		return matches[i].CandidateID < matches[j].CandidateID
	})
	if len(matches) > criteria.MaxResults {
		matches = matches[:criteria.MaxResults]
	}

	result := Result{
		HasPotentialDuplicates: len(matches) > 0,
		Confidence:             classifyConfidence(matches),
		Matches:                matches,
	}

	metrics.DetectionRequests.WithLabelValues("ok").Inc()
	if result.HasPotentialDuplicates {
		metrics.DetectionDuplicatesFound.WithLabelValues(string(result.Confidence)).Inc()
		d.logger.Info("potential duplicates found", map[string]interface{}{
			"matches":    len(result.Matches),
			"confidence": result.Confidence,
			"topScore":   result.Matches[0].OverallScore,
		})
	}
	return result, nil
}

// fetchCandidates fans out one lookup per populated field with an
// enabled rule and joins the results into a set deduplicated by id.
// The first failing lookup cancels the rest and aborts the call.
func (d *Detector) fetchCandidates(ctx context.Context, input IdentityInput, criteria Criteria, opts DetectOptions) (map[string]CandidateRecord, error) {
	type lookup struct {
		field Field
		value string
	}

	var lookups []lookup
	for _, rule := range criteria.FieldRules {
		if !rule.Enabled || !rule.Field.HasColumn() {
			continue
		}
		raw, ok := input.value(rule.Field)
		if !ok {
			continue
		}
		normalized := NormalizeValue(rule.Field, raw)
		if normalized == "" {
			continue
		}
		lookups = append(lookups, lookup{field: rule.Field, value: normalized})
	}

	merged := make(map[string]CandidateRecord)
	if len(lookups) == 0 {
		return merged, nil
	}

	g, ctx := errgroup.WithContext(ctx)
	var mu sync.Mutex
	for _, lk := range lookups {
		g.Go(func() error {
			lookupStart := time.Now()
			records, err := d.store.FindByField(ctx, lk.field, lk.value, opts.ExcludeID)
			metrics.CandidateLookupDuration.WithLabelValues(string(lk.field)).Observe(time.Since(lookupStart).Seconds())
			if err != nil {
				metrics.CandidateLookups.WithLabelValues(string(lk.field), "error").Inc()
				return errors.NewCandidateLookupFailedError(string(lk.field), err)
			}
			metrics.CandidateLookups.WithLabelValues(string(lk.field), "ok").Inc()

			mu.Lock()
			for _, rec := range records {
				if rec.ID == "" || rec.ID == opts.ExcludeID {
					continue
				}
				merged[rec.ID] = rec
			}
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return merged, nil
}

// scoreCandidates evaluates every unique candidate against the enabled
// field and cross-field rules and keeps those meeting the overall
// threshold.
func (d *Detector) scoreCandidates(input IdentityInput, criteria Criteria, candidates map[string]CandidateRecord) []Match {
	matches := make([]Match, 0, len(candidates))
	for _, cand := range candidates {
		var pool []WeightedScore
		fieldScores := make(map[Field]float64)
		var matchedFields []Field
		met := make(map[Field]bool)

		for _, rule := range criteria.FieldRules {
			if !rule.Enabled {
				continue
			}
			score, ok := scoreField(rule, input, cand)
			if !ok {
				continue
			}
			fieldScores[rule.Field] = score
			// Sub-threshold scores are recorded but never weighted.
			if score >= rule.Threshold {
				pool = append(pool, WeightedScore{Score: score, Weight: rule.Weight})
				matchedFields = append(matchedFields, rule.Field)
				met[rule.Field] = true
			}
		}

		for _, cr := range criteria.CrossFieldRules {
			if !cr.Enabled {
				continue
			}
			count := 0
			for _, f := range cr.Fields {
				if met[f] {
					count++
				}
			}
			if count >= cr.RequiredMatches {
				pool = append(pool, WeightedScore{Score: 1, Weight: cr.Weight})
			}
		}

		overall := WeightedAggregate(pool)
		if overall < criteria.OverallThreshold {
			continue
		}
		matches = append(matches, Match{
			CandidateID:   cand.ID,
			OverallScore:  overall,
			MatchedFields: matchedFields,
			FieldScores:   fieldScores,
		})
	}
	return matches
}

// scoreField computes a per-field score when the field is present on
// both records, using the comparison mode declared on the rule.
func scoreField(rule FieldRule, input IdentityInput, cand CandidateRecord) (float64, bool) {
	rawIn, okIn := input.value(rule.Field)
	rawCand, okCand := cand.value(rule.Field)
	if !okIn || !okCand {
		return 0, false
	}

	switch rule.MatchType {
	case MatchTypeExact:
		if rule.Field == FieldDateOfBirth {
			return DateSimilarity(*input.DateOfBirth, *cand.DateOfBirth), true
		}
		return ExactMatch(NormalizeValue(rule.Field, rawIn), NormalizeValue(rule.Field, rawCand)), true

	case MatchTypeNormalized:
		return ExactMatch(NormalizeValue(rule.Field, rawIn), NormalizeValue(rule.Field, rawCand)), true

	case MatchTypeFuzzy:
		switch rule.Field {
		case FieldFullName:
			return IndianNameSimilarity(rawIn, rawCand), true
		case FieldFirstName, FieldLastName:
			return NameSimilarity(rawIn, rawCand), true
		default:
			return StringSimilarity(rawIn, rawCand), true
		}
	}
	return 0, false
}

// classifyConfidence derives the coarse level from the best surviving
// score: >=0.95 high, >=0.8 medium, else low.
func classifyConfidence(matches []Match) Confidence {
	if len(matches) == 0 {
		return ConfidenceLow
	}
	best := matches[0].OverallScore
	for _, m := range matches[1:] {
		if m.OverallScore > best {
			best = m.OverallScore
		}
	}
	switch {
	case best >= 0.95:
		return ConfidenceHigh
	case best >= 0.8:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}
