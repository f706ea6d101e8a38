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

package worker

import (
	"time"
)

// SubmissionRecord is a point-in-time snapshot of one flow run's
// submission window, retained so "flowworker status" can render a
// timeline of what a running worker has done recently.
type SubmissionRecord struct {
	RunID     string
	FlowName  string
	StartTime time.Time
	EndTime   time.Time
	Status    string // "aborted", "rejected", "completed", "failed", or "" while still running
}

// maxHistoryRecords bounds retained submission history so a long-running
// worker's memory doesn't grow without limit.
const maxHistoryRecords = 200

// beginHistory records the start of a submission. Called once per admitted
// run, before any proposal or launch attempt.
func (w *Worker) beginHistory(run FlowRun) {
	w.historyMu.Lock()
	defer w.historyMu.Unlock()
	w.history = append(w.history, &SubmissionRecord{
		RunID:     run.ID,
		FlowName:  run.Name,
		StartTime: time.Now(),
	})
	if len(w.history) > maxHistoryRecords {
		w.history = w.history[len(w.history)-maxHistoryRecords:]
	}
}

// endHistory closes out the most recent open record for runID with a
// terminal status. A no-op if beginHistory's record was trimmed by
// maxHistoryRecords in the meantime.
func (w *Worker) endHistory(runID, status string) {
	w.historyMu.Lock()
	defer w.historyMu.Unlock()
	for i := len(w.history) - 1; i >= 0; i-- {
		if w.history[i].RunID == runID && w.history[i].EndTime.IsZero() {
			w.history[i].EndTime = time.Now()
			w.history[i].Status = status
			return
		}
	}
}

// History returns a snapshot of the worker's recent submissions, oldest
// first.
func (w *Worker) History() []SubmissionRecord {
	w.historyMu.Lock()
	defer w.historyMu.Unlock()
	out := make([]SubmissionRecord, len(w.history))
	for i, r := range w.history {
		out[i] = *r
	}
	return out
}
