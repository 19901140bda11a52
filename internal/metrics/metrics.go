package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"

	ScopeCourse  = "course"
	ScopeStudent = "student"
)

var (
	// UpstreamRequestTotal tracks the upstream LMS calls by service, function and outcome (success or error)
	UpstreamRequestTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lms_upstream_request_total",
			Help: "Total number of upstream LMS requests by service, function and outcome",
		},
		[]string{"service", "function", "outcome"},
	)

	// AttemptLookupFailureTotal tracks the (student, quiz) attempt lookups that failed during aggregation
	AttemptLookupFailureTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "lms_attempt_lookup_failure_total",
			Help: "Total number of failed attempt lookups during performance aggregation",
		},
	)

	// PerformanceComputationTotal tracks the performance computations by scope (course or student)
	PerformanceComputationTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lms_performance_computation_total",
			Help: "Total number of performance computations by scope (course or student)",
		},
		[]string{"scope"},
	)

	// ClassroomLoginTotal tracks the total number of Google Classroom logins
	ClassroomLoginTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "lms_classroom_login_total",
			Help: "Total number of Google Classroom logins",
		},
	)
)

// RecordUpstreamRequest records an upstream call; a nil err counts as success.
func RecordUpstreamRequest(service, function string, err error) {
	outcome := OutcomeSuccess
	if err != nil {
		outcome = OutcomeError
	}

	UpstreamRequestTotal.WithLabelValues(service, function, outcome).Inc()
}

// RecordAttemptLookupFailure records a failed attempt lookup
func RecordAttemptLookupFailure() {
	AttemptLookupFailureTotal.Inc()
}

// RecordPerformanceComputation records a performance computation with the given scope
func RecordPerformanceComputation(scope string) {
	PerformanceComputationTotal.WithLabelValues(scope).Inc()
}

// RecordClassroomLogin records a Google Classroom login
func RecordClassroomLogin() {
	ClassroomLoginTotal.Inc()
}
