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

// Package infra defines the abstract infrastructure backend the worker
// dispatches flow runs to, and a registry mapping a work pool's declared
// type string to a concrete backend constructor. The core never interprets
// how a backend launches work; it only observes the started callback and
// the final WorkerResult.
package infra

import (
	"context"
	"fmt"
	"sync"

	"github.com/tombee/flowworker/internal/worker"
)

// StartedFunc is invoked by a Backend exactly once: with a non-empty
// identifier on a successful launch, or with a non-nil err if the backend
// never managed to start the run.
type StartedFunc func(identifier string, err error)

// Backend launches one flow run and blocks until it completes. It must
// call started exactly once, before Run returns, as soon as the run's
// infrastructure identifier (pid, container id, instance id) is known or
// launch has definitively failed.
type Backend interface {
	Run(ctx context.Context, run worker.FlowRun, cfg worker.JobConfiguration, started StartedFunc) (worker.WorkerResult, error)
}

// Constructor builds a Backend; it takes no arguments. Implementations
// typically close over shared clients (an AWS config, nothing for the
// process backend).
type Constructor func() (Backend, error)

// Registry maps a work pool's declared type string (e.g. "process", "ec2")
// to a Backend constructor, replacing the dynamic subtype registration the
// source relies on with an explicit map populated at program start.
type Registry struct {
	mu           sync.RWMutex
	constructors map[string]Constructor
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{constructors: make(map[string]Constructor)}
}

// Register adds a constructor for typeTag. Registering the same tag twice
// overwrites the previous constructor — callers are expected to populate
// the registry once at startup.
func (r *Registry) Register(typeTag string, ctor Constructor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.constructors[typeTag] = ctor
}

// Build constructs a Backend for typeTag.
func (r *Registry) Build(typeTag string) (Backend, error) {
	r.mu.RLock()
	ctor, ok := r.constructors[typeTag]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("infra: no backend registered for type %q", typeTag)
	}
	return ctor()
}

// Types returns the registered type tags, in no particular order.
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.constructors))
	for t := range r.constructors {
		out = append(out, t)
	}
	return out
}
