package metrics

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	otelcodes "go.opentelemetry.io/otel/codes"
)

var classroomSessionsDesc = prometheus.NewDesc(
	"lms_classroom_sessions",
	"Number of live Google Classroom sessions",
	nil,
	nil,
)

// SessionCounter counts the live sessions of a session store.
type SessionCounter interface {
	Count(ctx context.Context) (int, error)
}

// SessionCollector reports the live Classroom sessions on every scrape.
type SessionCollector struct {
	sessions SessionCounter
}

func NewSessionCollector(sessions SessionCounter) *SessionCollector {
	return &SessionCollector{sessions: sessions}
}

func (c *SessionCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- classroomSessionsDesc
}

func (c *SessionCollector) Collect(ch chan<- prometheus.Metric) {
	ctx, cancel := context.WithTimeout(context.Background(), ScrapeTimeout)
	defer cancel()

	ctx, span := tracer.Start(ctx, "SessionCollector.Collect")
	defer span.End()

	count, err := c.sessions.Count(ctx)
	if err != nil {
		span.SetStatus(otelcodes.Error, "Failed to count sessions")
		span.RecordError(err)

		ch <- prometheus.NewInvalidMetric(classroomSessionsDesc, err)
		return
	}

	span.SetStatus(otelcodes.Ok, "Sessions counted successfully")

	ch <- prometheus.MustNewConstMetric(classroomSessionsDesc, prometheus.GaugeValue, float64(count))
}

var _ prometheus.Collector = (*SessionCollector)(nil)
