package analysis

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/OCAP2/courtstats/internal/analysis"

func meter() metric.Meter {
	return otel.Meter(instrumentationName)
}
