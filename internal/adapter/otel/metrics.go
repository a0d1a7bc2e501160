// Package otel provides OpenTelemetry instrumentation for TokenCalc.
package otel

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "tokencalc"

// Metrics holds all TokenCalc metric instruments.
type Metrics struct {
	CalculationsCompleted metric.Int64Counter
	CalculationsDenied    metric.Int64Counter
	TokensDebited         metric.Int64Counter
	TokensCredited        metric.Int64Counter
	PipelineRuns          metric.Int64Counter
	PipelineFailures      metric.Int64Counter
	PipelineDuration      metric.Float64Histogram
}

// NewMetrics creates all metric instruments.
func NewMetrics() (*Metrics, error) {
	meter := otel.Meter(meterName)
	m := &Metrics{}
	var err error

	m.CalculationsCompleted, err = meter.Int64Counter("tokencalc.calculations.completed",
		metric.WithDescription("Number of completed paid calculations"))
	if err != nil {
		return nil, err
	}

	m.CalculationsDenied, err = meter.Int64Counter("tokencalc.calculations.denied",
		metric.WithDescription("Number of calculations denied by plan or balance"))
	if err != nil {
		return nil, err
	}

	m.TokensDebited, err = meter.Int64Counter("tokencalc.tokens.debited",
		metric.WithDescription("Tokens debited for calculations"))
	if err != nil {
		return nil, err
	}

	m.TokensCredited, err = meter.Int64Counter("tokencalc.tokens.credited",
		metric.WithDescription("Tokens credited by grants, recharges and bonuses"))
	if err != nil {
		return nil, err
	}

	m.PipelineRuns, err = meter.Int64Counter("tokencalc.pipeline.runs",
		metric.WithDescription("Number of assistant pipeline invocations"))
	if err != nil {
		return nil, err
	}

	m.PipelineFailures, err = meter.Int64Counter("tokencalc.pipeline.failures",
		metric.WithDescription("Number of assistant pipeline invocations that failed"))
	if err != nil {
		return nil, err
	}

	m.PipelineDuration, err = meter.Float64Histogram("tokencalc.pipeline.duration_seconds",
		metric.WithDescription("Assistant pipeline duration in seconds"))
	if err != nil {
		return nil, err
	}

	return m, nil
}
