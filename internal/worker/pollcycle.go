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
	"sort"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/tombee/flowworker/internal/util"
	workerrors "github.com/tombee/flowworker/pkg/errors"
)

// defaultBaseJobTemplate is installed on a work pool that reports none, per
// §3's WorkPool invariant.
func defaultBaseJobTemplate(workerType string) map[string]any {
	return map[string]any{
		"job_configuration": map[string]any{
			"command": "{{ command }}",
			"env":     map[string]any{},
		},
		"variables": map[string]any{
			"properties": map[string]any{},
		},
	}
}

// GetAndSubmit runs one poll cycle: sync work-pool metadata and heartbeat,
// fetch scheduled runs, order them earliest-deadline-first, and admit as
// many as the limiter allows. It returns the flow-run IDs admitted this
// cycle.
func (w *Worker) GetAndSubmit(ctx context.Context) ([]string, error) {
	if w.tracer != nil {
		var span trace.Span
		ctx, span = w.tracer.Start(ctx, "worker.poll_cycle")
		defer span.End()
	}

	if err := w.syncWorkPool(ctx); err != nil {
		w.logger.Warn("work pool sync failed, continuing with zero runs this cycle",
			slog.String(PoolKey, w.PoolName), slog.String("error", err.Error()))
		return nil, nil
	}

	if err := w.client.SendWorkerHeartbeat(ctx, w.PoolName, w.Name); err != nil {
		w.logger.Warn("heartbeat failed", slog.String(PoolKey, w.PoolName), slog.String("error", err.Error()))
	}

	scheduledBefore := time.Now().UTC().Add(time.Duration(w.prefetchSeconds) * time.Second)
	candidates, err := w.client.GetScheduledFlowRunsForWorkPool(ctx, w.PoolName, scheduledBefore, w.workQueues)
	if err != nil {
		var notFound *workerrors.NotFoundError
		if errors.As(err, &notFound) {
			return nil, nil
		}
		return nil, workerrors.Wrap(err, "fetching scheduled flow runs")
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		ti, tj := candidates[i].Run.NextScheduledStartTime, candidates[j].Run.NextScheduledStartTime
		if ti.Equal(tj) {
			return candidates[i].Run.ID < candidates[j].Run.ID
		}
		return ti.Before(tj)
	})

	var admitted []string
	for _, candidate := range candidates {
		run := candidate.Run

		// The server is asked to filter by work queue, but defend against a
		// client implementation that returns its full candidate set anyway.
		if len(w.workQueues) > 0 && !util.Contains(w.workQueues, candidate.WorkQueue) {
			continue
		}

		w.mu.Lock()
		_, inFlight := w.inFlight[run.ID]
		w.mu.Unlock()
		if inFlight {
			continue
		}

		if w.limiter != nil && !w.limiter.TryAcquire(run.ID) {
			// Earliest-deadline-first is strict: stop rather than skip
			// ahead to a later-scheduled run.
			break
		}

		w.mu.Lock()
		w.inFlight[run.ID] = struct{}{}
		w.mu.Unlock()

		admitted = append(admitted, run.ID)
		w.wg.Add(1)
		go func(r FlowRun) {
			defer w.wg.Done()
			w.submit(ctx, r)
		}(run)
	}

	return admitted, nil
}

func (w *Worker) syncWorkPool(ctx context.Context) error {
	pool, err := w.client.ReadWorkPool(ctx, w.PoolName)
	if err != nil {
		var notFound *workerrors.NotFoundError
		if errors.As(err, &notFound) && w.createPoolIfNotFound {
			created, createErr := w.client.CreateWorkPool(ctx, w.PoolName, w.Type)
			if createErr != nil {
				return workerrors.Wrap(createErr, "creating missing work pool")
			}
			pool = created
		} else {
			return err
		}
	}

	if pool.Type != "" && pool.Type != w.Type {
		w.logger.Warn("work pool type disagrees with worker's declared type, continuing anyway",
			slog.String(PoolKey, w.PoolName), slog.String("pool_type", pool.Type), slog.String("worker_type", w.Type))
	}

	if pool.BaseJobTemplate == nil {
		pool.BaseJobTemplate = defaultBaseJobTemplate(w.Type)
		if err := w.client.UpdateWorkPool(ctx, w.PoolName, pool.BaseJobTemplate); err != nil {
			return workerrors.Wrap(err, "writing back default base job template")
		}
	}

	w.mu.Lock()
	w.pool = pool
	w.mu.Unlock()
	return nil
}

// releaseInFlight removes runID from the in-flight set and releases its
// limiter slot, if any. It is the single path every submitter exit must
// go through, preserving the invariant that a flow-run id is in-flight iff
// a limiter token is held on its behalf.
func (w *Worker) releaseInFlight(runID string) {
	w.mu.Lock()
	delete(w.inFlight, runID)
	w.mu.Unlock()
	if w.limiter != nil {
		w.limiter.Release(runID)
	}
}
