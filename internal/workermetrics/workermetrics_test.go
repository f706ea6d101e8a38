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

package workermetrics

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func collect(t *testing.T, reader *metric.ManualReader) *metricdata.ResourceMetrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	return &rm
}

func findMetric(rm *metricdata.ResourceMetrics, name string) (metricdata.Metrics, bool) {
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name == name {
				return m, true
			}
		}
	}
	return metricdata.Metrics{}, false
}

func sumValue(t *testing.T, m metricdata.Metrics) int64 {
	t.Helper()
	sum, ok := m.Data.(metricdata.Sum[int64])
	require.True(t, ok, "expected metricdata.Sum[int64] for %s", m.Name)
	require.Len(t, sum.DataPoints, 1)
	return sum.DataPoints[0].Value
}

func TestNew_RegistersAllInstruments(t *testing.T) {
	reader := metric.NewManualReader()
	provider := metric.NewMeterProvider(metric.WithReader(reader))
	defer provider.Shutdown(context.Background())

	r, err := New(provider.Meter("flowworker-test"))
	require.NoError(t, err)
	require.NotNil(t, r)

	r.RecordPollCycle(context.Background(), "default", 0.5, 0)

	rm := collect(t, reader)
	for _, name := range []string{
		"flowworker.poll_cycles",
		"flowworker.poll_cycle.duration",
		"flowworker.submissions",
		"flowworker.submission_results",
		"flowworker.limiter.in_use",
	} {
		_, ok := findMetric(rm, name)
		assert.True(t, ok, "expected metric %s to be registered", name)
	}
}

func TestRecordPollCycle_RecordsDurationAndCount(t *testing.T) {
	reader := metric.NewManualReader()
	provider := metric.NewMeterProvider(metric.WithReader(reader))
	defer provider.Shutdown(context.Background())

	r, err := New(provider.Meter("flowworker-test"))
	require.NoError(t, err)

	r.RecordPollCycle(context.Background(), "default", 1.25, 3)

	rm := collect(t, reader)

	cycles, ok := findMetric(rm, "flowworker.poll_cycles")
	require.True(t, ok)
	assert.Equal(t, int64(1), sumValue(t, cycles))

	admitted, ok := findMetric(rm, "flowworker.runs_admitted")
	require.True(t, ok)
	assert.Equal(t, int64(3), sumValue(t, admitted))

	duration, ok := findMetric(rm, "flowworker.poll_cycle.duration")
	require.True(t, ok)
	hist, ok := duration.Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	require.Len(t, hist.DataPoints, 1)
	assert.Equal(t, uint64(1), hist.DataPoints[0].Count)
	assert.Equal(t, 1.25, hist.DataPoints[0].Sum)
}

func TestRecordPollCycle_ZeroAdmittedSkipsCounter(t *testing.T) {
	reader := metric.NewManualReader()
	provider := metric.NewMeterProvider(metric.WithReader(reader))
	defer provider.Shutdown(context.Background())

	r, err := New(provider.Meter("flowworker-test"))
	require.NoError(t, err)

	r.RecordPollCycle(context.Background(), "default", 0.1, 0)

	rm := collect(t, reader)
	_, ok := findMetric(rm, "flowworker.runs_admitted")
	assert.False(t, ok, "runs_admitted should not be reported for an empty poll cycle")
}

func TestRecordSubmission_RecordsAttemptAndOutcome(t *testing.T) {
	reader := metric.NewManualReader()
	provider := metric.NewMeterProvider(metric.WithReader(reader))
	defer provider.Shutdown(context.Background())

	r, err := New(provider.Meter("flowworker-test"))
	require.NoError(t, err)

	r.RecordSubmission(context.Background(), "default", "launched")
	r.RecordSubmission(context.Background(), "default", "rejected")

	rm := collect(t, reader)

	submissions, ok := findMetric(rm, "flowworker.submissions")
	require.True(t, ok)
	assert.Equal(t, int64(2), sumValue(t, submissions))

	results, ok := findMetric(rm, "flowworker.submission_results")
	require.True(t, ok)
	sum, ok := results.Data.(metricdata.Sum[int64])
	require.True(t, ok)
	assert.Len(t, sum.DataPoints, 2, "launched and rejected outcomes are distinct series")
}

func TestSetLimiterInUse_AccumulatesDelta(t *testing.T) {
	reader := metric.NewManualReader()
	provider := metric.NewMeterProvider(metric.WithReader(reader))
	defer provider.Shutdown(context.Background())

	r, err := New(provider.Meter("flowworker-test"))
	require.NoError(t, err)

	r.SetLimiterInUse(context.Background(), "default", 1)
	r.SetLimiterInUse(context.Background(), "default", 1)
	r.SetLimiterInUse(context.Background(), "default", -1)

	rm := collect(t, reader)
	inUse, ok := findMetric(rm, "flowworker.limiter.in_use")
	require.True(t, ok)
	assert.Equal(t, int64(1), sumValue(t, inUse))
}

func TestNewMeterProvider_BuildsPrometheusBackedProvider(t *testing.T) {
	provider, err := NewMeterProvider()
	require.NoError(t, err)
	require.NotNil(t, provider)
	defer provider.Shutdown(context.Background())

	r, err := New(provider.Meter("flowworker-test"))
	require.NoError(t, err)
	r.RecordPollCycle(context.Background(), "default", 0.1, 1)
}
