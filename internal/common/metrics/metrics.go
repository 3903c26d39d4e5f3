package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	DetectionRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "detection_requests_total",
			Help: "Total number of duplicate detection calls",
		},
		[]string{"outcome"},
	)

	DetectionDuplicatesFound = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "detection_duplicates_found_total",
			Help: "Total number of detection calls that found potential duplicates",
		},
		[]string{"confidence"},
	)

	DetectionDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name: "detection_duration_seconds",
			Help: "Duration of duplicate detection calls in seconds",
		},
	)

	CandidateLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "candidate_lookups_total",
			Help: "Total number of candidate store lookups by field",
		},
		[]string{"field", "status"},
	)

	CandidateLookupDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "candidate_lookup_duration_seconds",
			Help: "Duration of candidate store lookups in seconds",
		},
		[]string{"field"},
	)

	StudentOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "student_operations_total",
			Help: "Total number of student record operations",
		},
		[]string{"operation", "status"},
	)

	ImportRows = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "import_rows_total",
			Help: "Total number of imported CSV rows by result",
		},
		[]string{"result"},
	)
)
