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
	"context"
	"errors"
	"log/slog"

	"github.com/tombee/flowworker/internal/apiclient"
)

// ProposalOutcome classifies what happened to a state proposal, without
// the proposer ever interpreting the returned state beyond this.
type ProposalOutcome int

const (
	// Accepted means the server's returned state matches the kind we asked
	// for.
	Accepted ProposalOutcome = iota
	// Aborted means the server explicitly signaled the transition cannot
	// happen (the run is in a conflicting or terminal state elsewhere).
	Aborted
	// Rejected means the server substituted a different state than the one
	// requested, without signaling an explicit abort.
	Rejected
)

// Proposal is the result of a StateProposer.Propose call.
type Proposal struct {
	Outcome ProposalOutcome
	State   apiclient.State
	Reason  string
}

// StateProposer is a thin wrapper over apiclient.Client.ProposeState,
// translating its outcomes into {accepted, aborted, rejected}. It never
// interprets the returned state beyond comparing its kind to the one
// requested.
type StateProposer struct {
	client apiclient.Client
	logger *slog.Logger
}

// NewStateProposer constructs a StateProposer over client.
func NewStateProposer(client apiclient.Client, logger *slog.Logger) *StateProposer {
	return &StateProposer{client: client, logger: logger}
}

// Propose asks the server to transition flowRunID to targetState (one of
// StatePending, StateFailed, StateCrashed).
func (p *StateProposer) Propose(ctx context.Context, flowRunID, targetState string) Proposal {
	state, err := p.client.ProposeState(ctx, flowRunID, targetState)
	if err != nil {
		var abort *apiclient.AbortSignal
		if errors.As(err, &abort) {
			return Proposal{Outcome: Aborted, Reason: abort.Reason}
		}
		p.logger.Error("state proposal failed",
			slog.String(RunIDKey, flowRunID),
			slog.String("target_state", targetState),
			slog.String("error", err.Error()),
		)
		return Proposal{Outcome: Rejected, Reason: err.Error()}
	}

	if !kindMatches(state.Kind, targetState) {
		p.logger.Warn("state proposal rejected by server",
			slog.String(RunIDKey, flowRunID),
			slog.String("requested", targetState),
			slog.String("returned", string(state.Kind)),
		)
		return Proposal{Outcome: Rejected, State: state, Reason: "server substituted state " + string(state.Kind)}
	}

	return Proposal{Outcome: Accepted, State: state}
}

func kindMatches(kind apiclient.StateKind, target string) bool {
	switch target {
	case StatePending:
		return kind == apiclient.StateKindPending
	case StateFailed:
		return kind == apiclient.StateKindFailed
	case StateCrashed:
		return kind == apiclient.StateKindCrashed
	default:
		return false
	}
}
