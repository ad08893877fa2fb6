package source

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "insarmap/internal/source"

func meter() metric.Meter {
	return otel.Meter(instrumentationName)
}
