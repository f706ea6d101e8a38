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

// Package timeline renders an ASCII timeline of the flow runs a worker has
// submitted, for use by the CLI's status command.
package timeline

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/term"
)

const (
	// MinTerminalWidth is the minimum supported terminal width
	MinTerminalWidth = 80
	// DefaultBarWidth is the default width for duration bars
	DefaultBarWidth = 40
	// StatusIconOK indicates the run reached a terminal success state
	StatusIconOK = "✓"
	// StatusIconError indicates the run was aborted, rejected, or failed
	StatusIconError = "✗"
	// StatusIconRunning indicates the run has not reached a terminal state
	StatusIconRunning = "…"
)

// SubmissionSpan describes one flow run's submission window for rendering.
// Runs are flat, not hierarchical: the worker submits each run independently
// and has no notion of parent/child runs.
type SubmissionSpan struct {
	RunID     string
	FlowName  string
	StartTime time.Time
	EndTime   time.Time
	Status    string // "accepted", "aborted", "rejected", "completed", "failed", or "" if still running
}

func (s SubmissionSpan) duration() time.Duration {
	if s.EndTime.IsZero() {
		return 0
	}
	return s.EndTime.Sub(s.StartTime)
}

func (s SubmissionSpan) terminal() bool {
	return !s.EndTime.IsZero()
}

func (s SubmissionSpan) failed() bool {
	switch s.Status {
	case "aborted", "rejected", "failed":
		return true
	default:
		return false
	}
}

// Renderer renders ASCII timelines of flow run submissions.
type Renderer struct {
	Width    int
	BarWidth int
}

// NewRenderer creates a new timeline renderer with terminal width detection.
func NewRenderer() (*Renderer, error) {
	width, _, err := term.GetSize(0)
	if err != nil {
		// Default to 100 if detection fails
		width = 100
	}

	if width < MinTerminalWidth {
		return nil, fmt.Errorf("terminal width %d is too narrow (minimum %d columns)", width, MinTerminalWidth)
	}

	// Reserve space for labels, status, and borders.
	// Format: "│ run_name ██████░░░░  duration  status │"
	barWidth := width - 40
	if barWidth > 60 {
		barWidth = 60
	}
	if barWidth < DefaultBarWidth {
		barWidth = DefaultBarWidth
	}

	return &Renderer{
		Width:    width,
		BarWidth: barWidth,
	}, nil
}

// Render generates an ASCII timeline of the given flow run submissions for
// the named work pool, earliest submission first.
func (r *Renderer) Render(poolName string, spans []SubmissionSpan) (string, error) {
	if len(spans) == 0 {
		return "", fmt.Errorf("no flow runs to render")
	}

	minTime, maxTime := r.calculateBounds(spans)
	totalDuration := maxTime.Sub(minTime)
	if totalDuration <= 0 {
		totalDuration = time.Second
	}

	var sb strings.Builder

	border := strings.Repeat("─", r.Width-2)
	sb.WriteString("┌" + border + "┐\n")

	header := fmt.Sprintf("│ Pool: %-*s Window: %s  │\n",
		r.Width-24,
		truncate(poolName, r.Width-24),
		formatDuration(totalDuration))
	sb.WriteString(header)

	sb.WriteString("├" + border + "┤\n")

	for _, span := range spans {
		sb.WriteString(r.renderSpan(span, minTime, totalDuration))
	}

	sb.WriteString("└" + border + "┘\n")

	return sb.String(), nil
}

// calculateBounds finds the earliest start and latest end time across all spans.
func (r *Renderer) calculateBounds(spans []SubmissionSpan) (time.Time, time.Time) {
	minTime := spans[0].StartTime
	maxTime := spans[0].StartTime

	for _, span := range spans {
		if span.StartTime.Before(minTime) {
			minTime = span.StartTime
		}
		end := span.EndTime
		if end.IsZero() {
			end = time.Now()
		}
		if end.After(maxTime) {
			maxTime = end
		}
	}

	return minTime, maxTime
}

// renderSpan generates a timeline line for a single flow run.
func (r *Renderer) renderSpan(span SubmissionSpan, minTime time.Time, totalDuration time.Duration) string {
	startOffset := span.StartTime.Sub(minTime)
	startPos := int(float64(startOffset) / float64(totalDuration) * float64(r.BarWidth))

	duration := span.duration()
	barLength := int(float64(duration) / float64(totalDuration) * float64(r.BarWidth))
	if barLength < 1 {
		barLength = 1
	}
	if startPos+barLength > r.BarWidth {
		barLength = r.BarWidth - startPos
	}
	if startPos >= r.BarWidth {
		startPos = r.BarWidth - 1
	}

	bar := make([]rune, r.BarWidth)
	for i := 0; i < r.BarWidth; i++ {
		if i >= startPos && i < startPos+barLength {
			bar[i] = '█'
		} else {
			bar[i] = '░'
		}
	}

	statusIcon := StatusIconRunning
	if span.terminal() {
		statusIcon = StatusIconOK
		if span.failed() {
			statusIcon = StatusIconError
		}
	}

	nameWidth := 20
	name := truncate(span.FlowName, nameWidth)

	durationStr := formatDuration(duration)
	if !span.terminal() {
		durationStr = "running"
	}

	return fmt.Sprintf("│ %-*s %s  %8s  %s  %-8s │\n",
		nameWidth,
		name,
		string(bar),
		durationStr,
		statusIcon,
		span.Status,
	)
}

// truncate shortens a string to maxLen with ellipsis if needed.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}

// formatDuration formats a duration in a human-readable way.
func formatDuration(d time.Duration) string {
	if d < time.Millisecond {
		return fmt.Sprintf("%dµs", d.Microseconds())
	}
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	return fmt.Sprintf("%.1fm", d.Minutes())
}
