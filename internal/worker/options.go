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
	"go.opentelemetry.io/otel/trace"

	"github.com/tombee/flowworker/internal/events"
	"github.com/tombee/flowworker/internal/infra"
)

// Option configures a Worker at construction time.
type Option func(*Worker)

// WithLimit sets the worker's concurrency budget. Zero or negative means
// unbounded.
func WithLimit(limit int) Option {
	return func(w *Worker) {
		w.limit = limit
	}
}

// WithPrefetchSeconds sets how far into the future a poll cycle looks when
// fetching scheduled runs.
func WithPrefetchSeconds(seconds int) Option {
	return func(w *Worker) {
		if seconds > 0 {
			w.prefetchSeconds = seconds
		}
	}
}

// WithWorkQueues restricts polling to the named work queues within the
// pool. An empty set means all queues in the pool.
func WithWorkQueues(queues []string) Option {
	return func(w *Worker) {
		w.workQueues = queues
	}
}

// WithCreatePoolIfNotFound enables auto-creating the work pool on first
// poll if the server reports it missing.
func WithCreatePoolIfNotFound(create bool) Option {
	return func(w *Worker) {
		w.createPoolIfNotFound = create
	}
}

// WithEventSink sets the sink observability events are emitted to.
func WithEventSink(sink events.Sink) Option {
	return func(w *Worker) {
		w.events = sink
	}
}

// WithBackendRegistry sets the infrastructure backend registry used to
// resolve the work pool's declared type to a concrete Backend.
func WithBackendRegistry(registry *infra.Registry) Option {
	return func(w *Worker) {
		w.backends = registry
	}
}

// WithResolver sets the block-document reference resolver used during
// configuration rendering.
func WithResolver(resolver BlockReferenceResolver) Option {
	return func(w *Worker) {
		w.resolver = resolver
	}
}

// WithTracer sets the OpenTelemetry tracer used to span poll cycles and
// submissions.
func WithTracer(tracer trace.Tracer) Option {
	return func(w *Worker) {
		w.tracer = tracer
	}
}

// WithWorkerVersion sets the version string reported on emitted events.
func WithWorkerVersion(version string) Option {
	return func(w *Worker) {
		w.version = version
	}
}
