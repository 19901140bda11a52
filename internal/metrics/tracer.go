package metrics

import (
	"time"

	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("lms.metrics")

// ScrapeTimeout bounds the upstream work of a single collection.
const ScrapeTimeout = 30 * time.Second
