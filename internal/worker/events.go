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

import "github.com/tombee/flowworker/internal/events"

// submittedEvent builds the "submitted-flow-run" event for one admission.
func (w *Worker) submittedEvent(run FlowRun, cfg JobConfiguration) events.Event {
	return events.NewSubmittedFlowRunEvent(events.SubmittedFlowRunParams{
		WorkerType:   w.Type,
		WorkerName:   w.Name,
		Version:      w.version,
		FlowRunID:    run.ID,
		FlowRunName:  run.Name,
		DeploymentID: run.DeploymentID,
		FlowID:       run.FlowID,
		WorkPoolName: w.PoolName,
	})
}

// proposalOutcomeString renders a ProposalOutcome for log fields.
func proposalOutcomeString(o ProposalOutcome) string {
	switch o {
	case Accepted:
		return "accepted"
	case Aborted:
		return "aborted"
	case Rejected:
		return "rejected"
	default:
		return "unknown"
	}
}
