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

package mock

import (
	"context"
	"sync"

	"github.com/tombee/flowworker/internal/infra"
	"github.com/tombee/flowworker/internal/worker"
)

// Backend is an in-memory fake of infra.Backend. Configure Identifier,
// Result, RunErr, or StartErr before use; LaunchesSeen accumulates every
// flow run it was asked to run.
type Backend struct {
	mu sync.Mutex

	Identifier string
	Result     worker.WorkerResult
	RunErr     error
	StartErr   error
	// SkipStarted, when true, simulates a backend that returns without
	// ever calling started (the "anomalous return" case).
	SkipStarted bool

	// Block, when non-nil, is read from after started is called and
	// before Run returns, letting tests hold a submission in flight.
	Block <-chan struct{}

	LaunchesSeen []worker.FlowRun
}

// NewBackend returns a Backend that reports success with identifier
// "fake-1" and a zero status code.
func NewBackend() *Backend {
	return &Backend{Identifier: "fake-1"}
}

func (b *Backend) Run(ctx context.Context, run worker.FlowRun, cfg worker.JobConfiguration, started infra.StartedFunc) (worker.WorkerResult, error) {
	b.mu.Lock()
	b.LaunchesSeen = append(b.LaunchesSeen, run)
	b.mu.Unlock()

	if b.StartErr != nil {
		started("", b.StartErr)
		return worker.WorkerResult{}, b.StartErr
	}
	if !b.SkipStarted {
		started(b.Identifier, nil)
	}
	if b.Block != nil {
		<-b.Block
	}
	if b.RunErr != nil {
		return worker.WorkerResult{}, b.RunErr
	}
	return b.Result, nil
}
