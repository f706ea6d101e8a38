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

// Package worker implements the flow-run worker's polling, admission, and
// submission engine: it polls a named work pool for scheduled flow runs,
// admits them under a concurrency budget, claims each exactly once against
// the orchestration server's state machine, and dispatches each to an
// infrastructure backend.
package worker

import "time"

// WorkPool is the remote-owned record describing the pool this worker
// polls. Fetched fresh on every poll cycle.
type WorkPool struct {
	Name            string
	Type            string
	BaseJobTemplate map[string]any
}

// FlowRun is the remote-owned record of one scheduled or in-progress
// execution. The worker never mutates it directly except through state
// proposals and an infrastructure_pid update.
type FlowRun struct {
	ID                     string
	Name                   string
	DeploymentID           string
	FlowID                 string
	State                  string
	NextScheduledStartTime time.Time
}

// Deployment is the server-side spec binding a flow to a schedule and
// parameters, read once per submission when resolving a run's
// configuration.
type Deployment struct {
	ID                string
	Name              string
	FlowID            string
	StorageDocumentID string // non-empty means remote storage, which this worker refuses
	InfraOverrides    map[string]any
	Labels            map[string]string
	Tags              []string
}

// Flow is the server-side record of the flow a deployment binds to.
type Flow struct {
	ID   string
	Name string
	Tags []string
}

// JobConfiguration is the value object rendered from a work pool's base job
// template plus deployment overrides and resolved block references, then
// enriched with flow-run context. Vendor carries subtype-specific fields
// (e.g. an EC2 instance profile) that the core never interprets — only the
// infrastructure backend that receives them does.
type JobConfiguration struct {
	Name    string
	Command string
	Env     map[string]string
	Labels  map[string]string
	Vendor  map[string]any
}

// WorkerResult is the outcome of one infrastructure run, truthy iff
// StatusCode == 0.
type WorkerResult struct {
	Identifier string
	StatusCode int
}

// Succeeded reports whether the run completed without error.
func (r WorkerResult) Succeeded() bool {
	return r.StatusCode == 0
}

const (
	// StateScheduled is the state a flow run is in before a worker submits it.
	StateScheduled = "SCHEDULED"
	// StatePending is proposed immediately before the infrastructure run call.
	StatePending = "PENDING"
	// StateFailed is proposed when a run fails to launch.
	StateFailed = "FAILED"
	// StateCrashed is proposed when a launched run exits with a non-zero status.
	StateCrashed = "CRASHED"
)
