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
	"fmt"
	"sync"
)

// Limiter bounds the number of flow runs submitted concurrently. Unlike a
// plain counting semaphore, each held slot is keyed by the flow run ID that
// acquired it, so a run can only be released once and a poll cycle can ask
// "would the next admission block" without actually blocking.
type Limiter struct {
	mu     sync.Mutex
	slots  chan struct{}
	held   map[string]struct{}
	strict bool // panics on double-release; used by tests to catch bookkeeping bugs
}

// NewLimiter creates a Limiter with the given concurrency budget. A
// non-positive max is treated as unbounded.
func NewLimiter(max int) *Limiter {
	if max <= 0 {
		max = 1 << 30
	}
	return &Limiter{
		slots: make(chan struct{}, max),
		held:  make(map[string]struct{}),
	}
}

// WithStrictRelease enables panic-on-double-release, for use in tests that
// want release-discipline bugs to fail loudly rather than silently
// over-admit.
func (l *Limiter) WithStrictRelease() *Limiter {
	l.strict = true
	return l
}

// TryAcquire attempts to claim a slot for runID without blocking. It
// reports false if the limiter is at capacity.
func (l *Limiter) TryAcquire(runID string) bool {
	select {
	case l.slots <- struct{}{}:
		l.mu.Lock()
		l.held[runID] = struct{}{}
		l.mu.Unlock()
		return true
	default:
		return false
	}
}

// WouldBlock reports whether the next TryAcquire call would fail, without
// mutating any state. The poll cycle does not call it; it stops admitting
// on the first TryAcquire that fails.
func (l *Limiter) WouldBlock() bool {
	return len(l.slots) == cap(l.slots)
}

// Release frees the slot held for runID. Releasing a runID that does not
// currently hold a slot is a no-op unless strict mode is enabled, in which
// case it panics — a double release indicates a bookkeeping bug in the
// caller, since it would let more runs through than the configured budget.
func (l *Limiter) Release(runID string) {
	l.mu.Lock()
	_, ok := l.held[runID]
	if ok {
		delete(l.held, runID)
	}
	l.mu.Unlock()

	if !ok {
		if l.strict {
			panic(fmt.Sprintf("worker: Limiter.Release(%q) called without a matching acquire", runID))
		}
		return
	}

	<-l.slots
}

// InUse returns the number of slots currently held, for metrics reporting.
func (l *Limiter) InUse() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.held)
}
