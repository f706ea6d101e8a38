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
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"

	"github.com/tombee/flowworker/internal/apiclient"
	"github.com/tombee/flowworker/internal/events"
	"github.com/tombee/flowworker/internal/infra"
	workerrors "github.com/tombee/flowworker/pkg/errors"
)

// lifecycleState tracks the Worker's position in the state machine named
// in the component design: New → Setup → Running ⇄ Polling →
// Tearing_Down → Closed, with no back-edge from Tearing_Down.
type lifecycleState int

const (
	lifecycleNew lifecycleState = iota
	lifecycleSetup
	lifecycleRunning
	lifecycleTearingDown
	lifecycleClosed
)

// Worker is the process-wide actor identified by (PoolName, Name). It owns
// the task group (a sync.WaitGroup of submitter goroutines), the
// orchestration client, the limiter, and the in-flight set — the set of
// flow-run IDs currently being submitted.
type Worker struct {
	PoolName string
	Name     string
	Type     string

	client   apiclient.Client
	backends *infra.Registry
	events   events.Sink
	resolver BlockReferenceResolver
	tracer   trace.Tracer
	logger   *slog.Logger

	limit                int
	prefetchSeconds      int
	workQueues           []string
	createPoolIfNotFound bool
	version              string

	limiter  *Limiter
	proposer *StateProposer
	pool     WorkPool

	mu       sync.Mutex
	state    lifecycleState
	inFlight map[string]struct{}
	wg       sync.WaitGroup

	historyMu sync.Mutex
	history   []*SubmissionRecord
}

const defaultPrefetchSeconds = 10

// forbiddenNameChars are disallowed in a worker name (P7 Name hygiene).
const forbiddenNameChars = "/%"

// New constructs a Worker for poolName. If name is empty, a random suffixed
// name is generated. An explicit name containing a forbidden character
// fails construction.
func New(poolName, workerType, name string, client apiclient.Client, logger *slog.Logger, opts ...Option) (*Worker, error) {
	if poolName == "" {
		return nil, workerrors.New("worker: pool name is required")
	}
	if name == "" {
		name = fmt.Sprintf("%s-worker-%s", workerType, uuid.New().String()[:8])
	}
	if strings.ContainsAny(name, forbiddenNameChars) {
		return nil, &workerrors.ValidationError{
			Field:   "name",
			Message: fmt.Sprintf("worker name %q must not contain '/' or '%%'", name),
		}
	}

	w := &Worker{
		PoolName:        poolName,
		Name:            name,
		Type:            workerType,
		client:          client,
		logger:          logger,
		prefetchSeconds: defaultPrefetchSeconds,
		state:           lifecycleNew,
		inFlight:        make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.proposer = NewStateProposer(client, logger)
	return w, nil
}

// Setup opens resources the worker needs before polling: the limiter
// (unbounded when no concurrency budget was configured) and the lifecycle
// transition to Setup. Calling Setup twice is a programming error, not retried.
func (w *Worker) Setup(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.state != lifecycleNew {
		return workerrors.New("worker: Setup called out of order")
	}
	w.limiter = NewLimiter(w.limit)
	w.state = lifecycleSetup
	w.logger.Info("worker setup complete",
		slog.String(PoolKey, w.PoolName),
		slog.String(WorkerNameKey, w.Name),
	)
	return nil
}

// Teardown awaits all outstanding submitter goroutines (no forced
// cancellation of user infrastructure — cancellation scoped only to the
// wait), then marks the worker Closed. Safe to call multiple times; after
// the first call, the in-flight set is empty (R2 idempotence).
func (w *Worker) Teardown(ctx context.Context) error {
	w.mu.Lock()
	if w.state == lifecycleClosed {
		w.mu.Unlock()
		return nil
	}
	w.state = lifecycleTearingDown
	w.mu.Unlock()

	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		w.logger.Warn("teardown context cancelled while draining submitters",
			slog.String(PoolKey, w.PoolName), slog.String(WorkerNameKey, w.Name))
	}

	w.mu.Lock()
	w.state = lifecycleClosed
	w.mu.Unlock()
	return nil
}

// currentPool returns a snapshot of the worker's cached pool metadata,
// safe to read concurrently with pollcycle's updates.
func (w *Worker) currentPool() WorkPool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.pool
}

// inFlightCount reports the size of the in-flight set, for metrics.
func (w *Worker) inFlightCount() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.inFlight)
}
