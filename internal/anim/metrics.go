package anim

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "insarmap/internal/anim"

func meter() metric.Meter {
	return otel.Meter(instrumentationName)
}
