// Copyright 2025 Tom Barlow
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package workermetrics wraps the OpenTelemetry counters and histograms the
// worker loop reports, and the Prometheus exporter that serves them over
// /metrics.
package workermetrics

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// Recorder records poll-cycle, submission, and limiter observations.
type Recorder struct {
	pollCycles       metric.Int64Counter
	pollDuration     metric.Float64Histogram
	runsAdmitted     metric.Int64Counter
	submissions      metric.Int64Counter
	submissionResult metric.Int64Counter
	limiterInUse     metric.Int64UpDownCounter
}

// New builds a Recorder whose instruments come from meter. The Prometheus
// exporter reader is built separately, by NewMeterProvider.
func New(meter metric.Meter) (*Recorder, error) {
	pollCycles, err := meter.Int64Counter("flowworker.poll_cycles",
		metric.WithDescription("poll cycles run"))
	if err != nil {
		return nil, fmt.Errorf("workermetrics: poll_cycles counter: %w", err)
	}
	pollDuration, err := meter.Float64Histogram("flowworker.poll_cycle.duration",
		metric.WithDescription("poll cycle duration in seconds"), metric.WithUnit("s"))
	if err != nil {
		return nil, fmt.Errorf("workermetrics: poll_cycle.duration histogram: %w", err)
	}
	runsAdmitted, err := meter.Int64Counter("flowworker.runs_admitted",
		metric.WithDescription("flow runs admitted for submission"))
	if err != nil {
		return nil, fmt.Errorf("workermetrics: runs_admitted counter: %w", err)
	}
	submissions, err := meter.Int64Counter("flowworker.submissions",
		metric.WithDescription("submissions attempted"))
	if err != nil {
		return nil, fmt.Errorf("workermetrics: submissions counter: %w", err)
	}
	submissionResult, err := meter.Int64Counter("flowworker.submission_results",
		metric.WithDescription("submissions by terminal outcome"))
	if err != nil {
		return nil, fmt.Errorf("workermetrics: submission_results counter: %w", err)
	}
	limiterInUse, err := meter.Int64UpDownCounter("flowworker.limiter.in_use",
		metric.WithDescription("concurrency slots currently held"))
	if err != nil {
		return nil, fmt.Errorf("workermetrics: limiter.in_use counter: %w", err)
	}

	return &Recorder{
		pollCycles:       pollCycles,
		pollDuration:     pollDuration,
		runsAdmitted:     runsAdmitted,
		submissions:      submissions,
		submissionResult: submissionResult,
		limiterInUse:     limiterInUse,
	}, nil
}

// NewMeterProvider builds an SDK MeterProvider with a Prometheus exporter
// registered as its reader, returning both so the caller can serve the
// exporter's HTTP handler and shut the provider down on exit.
func NewMeterProvider() (*sdkmetric.MeterProvider, error) {
	exporter, err := prometheus.New()
	if err != nil {
		return nil, fmt.Errorf("workermetrics: creating prometheus exporter: %w", err)
	}
	return sdkmetric.NewMeterProvider(sdkmetric.WithReader(exporter)), nil
}

// RecordPollCycle records one completed poll cycle: its wall-clock duration
// and the number of runs it admitted.
func (r *Recorder) RecordPollCycle(ctx context.Context, poolName string, durationSeconds float64, admitted int) {
	attrs := metric.WithAttributes(attribute.String("work_pool", poolName))
	r.pollCycles.Add(ctx, 1, attrs)
	r.pollDuration.Record(ctx, durationSeconds, attrs)
	if admitted > 0 {
		r.runsAdmitted.Add(ctx, int64(admitted), attrs)
	}
}

// RecordSubmission records one submission attempt and its outcome
// ("launched", "aborted", "rejected", "refused", "launch_failed").
func (r *Recorder) RecordSubmission(ctx context.Context, poolName, outcome string) {
	attrs := metric.WithAttributes(attribute.String("work_pool", poolName))
	r.submissions.Add(ctx, 1, attrs)
	r.submissionResult.Add(ctx, 1, metric.WithAttributes(
		attribute.String("work_pool", poolName), attribute.String("outcome", outcome)))
}

// SetLimiterInUse adds delta to the limiter in-use up-down counter for
// poolName; the reported value is the running sum of all deltas.
func (r *Recorder) SetLimiterInUse(ctx context.Context, poolName string, delta int64) {
	r.limiterInUse.Add(ctx, delta, metric.WithAttributes(attribute.String("work_pool", poolName)))
}
