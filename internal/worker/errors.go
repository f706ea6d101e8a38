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

import workerrors "github.com/tombee/flowworker/pkg/errors"

// Sentinel errors surfaced by the admission and submission path. Callers
// should compare with errors.Is; these are frequently wrapped with
// additional context via workerrors.Wrap.
var (
	// ErrAborted is returned when the orchestration server rejects a state
	// proposal because the run has already moved to a terminal or
	// conflicting state (e.g. cancelled while still in the admit queue).
	ErrAborted = workerrors.New("flow run was aborted by the orchestration server")

	// ErrRejected is returned when the orchestration server refuses a
	// proposed state transition outright (not merely a race).
	ErrRejected = workerrors.New("flow run state proposal was rejected")

	// ErrStorageNotSupported is returned when a deployment's flow is stored
	// in a remote storage block this worker does not resolve. The spec
	// scopes this worker to local/packaged flow storage only.
	ErrStorageNotSupported = workerrors.New("deployment references unsupported remote flow storage")

	// ErrLaunchFailed is returned when an infrastructure backend's Run call
	// fails before it ever reports a started identifier.
	ErrLaunchFailed = workerrors.New("infrastructure backend failed to launch flow run")
)
