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

package worker_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tombee/flowworker/internal/apiclient"
	"github.com/tombee/flowworker/internal/testing/mock"
	"github.com/tombee/flowworker/internal/worker"
)

func TestStateProposer_Propose_Accepted(t *testing.T) {
	client := mock.NewClient()
	client.ProposeStateFunc = func(flowRunID, targetState string) (apiclient.State, error) {
		return apiclient.State{Kind: apiclient.StateKindPending}, nil
	}

	p := worker.NewStateProposer(client, testLogger())
	proposal := p.Propose(context.Background(), "run-1", worker.StatePending)

	assert.Equal(t, worker.Accepted, proposal.Outcome)
}

func TestStateProposer_Propose_RejectedOnKindMismatch(t *testing.T) {
	client := mock.NewClient()
	client.ProposeStateFunc = func(flowRunID, targetState string) (apiclient.State, error) {
		return apiclient.State{Kind: apiclient.StateKindRunning}, nil
	}

	p := worker.NewStateProposer(client, testLogger())
	proposal := p.Propose(context.Background(), "run-1", worker.StatePending)

	assert.Equal(t, worker.Rejected, proposal.Outcome)
	assert.Contains(t, proposal.Reason, "server substituted state")
}

func TestStateProposer_Propose_Aborted(t *testing.T) {
	client := mock.NewClient()
	client.ProposeStateFunc = func(flowRunID, targetState string) (apiclient.State, error) {
		return apiclient.State{}, &apiclient.AbortSignal{Reason: "already running elsewhere"}
	}

	p := worker.NewStateProposer(client, testLogger())
	proposal := p.Propose(context.Background(), "run-1", worker.StatePending)

	assert.Equal(t, worker.Aborted, proposal.Outcome)
	assert.Equal(t, "already running elsewhere", proposal.Reason)
}

func TestStateProposer_Propose_RejectedOnClientError(t *testing.T) {
	client := mock.NewClient()
	client.ProposeStateFunc = func(flowRunID, targetState string) (apiclient.State, error) {
		return apiclient.State{}, errors.New("connection reset")
	}

	p := worker.NewStateProposer(client, testLogger())
	proposal := p.Propose(context.Background(), "run-1", worker.StateFailed)

	assert.Equal(t, worker.Rejected, proposal.Outcome)
	assert.Equal(t, "connection reset", proposal.Reason)
}

func TestStateProposer_Propose_EachTargetStateMatchesItsKind(t *testing.T) {
	cases := []struct {
		target string
		kind   apiclient.StateKind
	}{
		{worker.StatePending, apiclient.StateKindPending},
		{worker.StateFailed, apiclient.StateKindFailed},
		{worker.StateCrashed, apiclient.StateKindCrashed},
	}

	for _, tc := range cases {
		client := mock.NewClient()
		client.ProposeStateFunc = func(flowRunID, targetState string) (apiclient.State, error) {
			return apiclient.State{Kind: tc.kind}, nil
		}

		p := worker.NewStateProposer(client, testLogger())
		proposal := p.Propose(context.Background(), "run-1", tc.target)
		assert.Equal(t, worker.Accepted, proposal.Outcome, "target state %s", tc.target)
	}
}
