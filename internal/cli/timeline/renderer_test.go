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

package timeline

import (
	"strings"
	"testing"
	"time"
)

func TestRenderer_Render(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name     string
		poolName string
		spans    []SubmissionSpan
		wantErr  bool
		checks   []func(string) bool
	}{
		{
			name:     "single completed run",
			poolName: "default-pool",
			spans: []SubmissionSpan{
				{
					RunID:     "run-1",
					FlowName:  "etl-flow",
					StartTime: now,
					EndTime:   now.Add(100 * time.Millisecond),
					Status:    "completed",
				},
			},
			checks: []func(string) bool{
				func(s string) bool { return strings.Contains(s, "default-pool") },
				func(s string) bool { return strings.Contains(s, "etl-flow") },
				func(s string) bool { return strings.Contains(s, StatusIconOK) },
			},
		},
		{
			name:     "two concurrent runs",
			poolName: "default-pool",
			spans: []SubmissionSpan{
				{
					RunID:     "run-1",
					FlowName:  "flow-a",
					StartTime: now,
					EndTime:   now.Add(200 * time.Millisecond),
					Status:    "completed",
				},
				{
					RunID:     "run-2",
					FlowName:  "flow-b",
					StartTime: now.Add(10 * time.Millisecond),
					EndTime:   now.Add(110 * time.Millisecond),
					Status:    "completed",
				},
			},
			checks: []func(string) bool{
				func(s string) bool { return strings.Contains(s, "flow-a") },
				func(s string) bool { return strings.Contains(s, "flow-b") },
			},
		},
		{
			name:     "rejected run shows error icon",
			poolName: "default-pool",
			spans: []SubmissionSpan{
				{
					RunID:     "run-1",
					FlowName:  "bad-flow",
					StartTime: now,
					EndTime:   now.Add(50 * time.Millisecond),
					Status:    "rejected",
				},
			},
			checks: []func(string) bool{
				func(s string) bool { return strings.Contains(s, StatusIconError) },
				func(s string) bool { return strings.Contains(s, "bad-flow") },
			},
		},
		{
			name:     "run still in flight shows running icon",
			poolName: "default-pool",
			spans: []SubmissionSpan{
				{
					RunID:     "run-1",
					FlowName:  "long-flow",
					StartTime: now,
				},
			},
			checks: []func(string) bool{
				func(s string) bool { return strings.Contains(s, StatusIconRunning) },
				func(s string) bool { return strings.Contains(s, "running") },
			},
		},
		{
			name:     "empty spans returns error",
			poolName: "empty",
			spans:    []SubmissionSpan{},
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &Renderer{Width: 100, BarWidth: 40}

			output, err := r.Render(tt.poolName, tt.spans)

			if tt.wantErr {
				if err == nil {
					t.Errorf("Render() expected error, got nil")
				}
				return
			}

			if err != nil {
				t.Errorf("Render() unexpected error: %v", err)
				return
			}

			for i, check := range tt.checks {
				if !check(output) {
					t.Errorf("Render() check %d failed\nOutput:\n%s", i, output)
				}
			}
		})
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		maxLen int
		want   string
	}{
		{name: "short string unchanged", input: "short", maxLen: 10, want: "short"},
		{name: "exact length unchanged", input: "exactly10c", maxLen: 10, want: "exactly10c"},
		{name: "long string truncated", input: "this is a very long string", maxLen: 10, want: "this is..."},
		{name: "maxLen <= 3 no ellipsis", input: "test", maxLen: 3, want: "tes"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := truncate(tt.input, tt.maxLen)
			if got != tt.want {
				t.Errorf("truncate() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		name string
		dur  time.Duration
		want string
	}{
		{name: "microseconds", dur: 500 * time.Microsecond, want: "500µs"},
		{name: "milliseconds", dur: 150 * time.Millisecond, want: "150ms"},
		{name: "seconds", dur: 2500 * time.Millisecond, want: "2.5s"},
		{name: "minutes", dur: 90 * time.Second, want: "1.5m"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := formatDuration(tt.dur)
			if got != tt.want {
				t.Errorf("formatDuration() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCalculateBounds(t *testing.T) {
	baseTime := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

	spans := []SubmissionSpan{
		{RunID: "run-1", StartTime: baseTime, EndTime: baseTime.Add(100 * time.Millisecond)},
		{RunID: "run-2", StartTime: baseTime.Add(50 * time.Millisecond), EndTime: baseTime.Add(200 * time.Millisecond)},
		{RunID: "run-3", StartTime: baseTime.Add(10 * time.Millisecond), EndTime: baseTime.Add(150 * time.Millisecond)},
	}

	r := &Renderer{Width: 100, BarWidth: 40}
	minTime, maxTime := r.calculateBounds(spans)

	if !minTime.Equal(baseTime) {
		t.Errorf("calculateBounds() minTime = %v, want %v", minTime, baseTime)
	}

	expectedMax := baseTime.Add(200 * time.Millisecond)
	if !maxTime.Equal(expectedMax) {
		t.Errorf("calculateBounds() maxTime = %v, want %v", maxTime, expectedMax)
	}
}

func TestRender_NarrowWidthRendersAnyway(t *testing.T) {
	r := &Renderer{Width: MinTerminalWidth - 1, BarWidth: DefaultBarWidth}

	_, err := r.Render("test", []SubmissionSpan{
		{RunID: "run-1", FlowName: "test", StartTime: time.Now(), EndTime: time.Now().Add(100 * time.Millisecond), Status: "completed"},
	})
	if err != nil {
		t.Errorf("Render() with narrow width should still render, got error: %v", err)
	}
}
