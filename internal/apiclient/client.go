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

package apiclient

import (
	"context"
	"time"

	"github.com/tombee/flowworker/internal/worker"
)

// StateKind classifies the outcome of a state proposal, independent of the
// specific state name the server substituted.
type StateKind string

const (
	StateKindPending StateKind = "PENDING"
	StateKindRunning StateKind = "RUNNING"
	StateKindFailed  StateKind = "FAILED"
	StateKindCrashed StateKind = "CRASHED"
	StateKindOther   StateKind = "OTHER"
)

// State is the server's response to a proposed state transition.
type State struct {
	Kind    StateKind
	Name    string
	Message string
}

// AbortSignal is returned by ProposeState when the server explicitly
// refuses a transition as unrecoverable (e.g. the run was already
// cancelled). It is distinct from a State whose Kind simply disagrees with
// the request.
type AbortSignal struct {
	Reason string
}

func (a *AbortSignal) Error() string { return "state proposal aborted: " + a.Reason }

// ScheduledFlowRun is one entry returned by GetScheduledFlowRunsForWorkPool.
type ScheduledFlowRun struct {
	Run       worker.FlowRun
	WorkQueue string
}

// Client is the orchestration API surface the worker depends on. An HTTP
// implementation lives in httpclient.go; internal/testing/mock provides an
// in-memory fake for tests.
type Client interface {
	ReadWorkPool(ctx context.Context, name string) (worker.WorkPool, error)
	CreateWorkPool(ctx context.Context, name, poolType string) (worker.WorkPool, error)
	UpdateWorkPool(ctx context.Context, name string, baseJobTemplate map[string]any) error
	SendWorkerHeartbeat(ctx context.Context, poolName, workerName string) error
	GetScheduledFlowRunsForWorkPool(ctx context.Context, poolName string, scheduledBefore time.Time, workQueues []string) ([]ScheduledFlowRun, error)
	ReadDeployment(ctx context.Context, id string) (worker.Deployment, error)
	ReadFlow(ctx context.Context, id string) (worker.Flow, error)
	UpdateFlowRun(ctx context.Context, id string, infrastructurePID string) error
	ProposeState(ctx context.Context, flowRunID, targetState string) (State, error)
}
