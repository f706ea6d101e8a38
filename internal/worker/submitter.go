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
	"sync"

	"go.opentelemetry.io/otel/trace"

	"github.com/tombee/flowworker/internal/infra"
	workerrors "github.com/tombee/flowworker/pkg/errors"
)

// startSignal is the one-shot completion object standing in for the
// source's supervised-task "started" primitive: settable exactly once,
// awaited by the submitter goroutine that spawned the backend call. It
// carries either an infrastructure identifier or the launch error.
type startSignal struct {
	once       sync.Once
	done       chan struct{}
	identifier string
	err        error
}

func newStartSignal() *startSignal {
	return &startSignal{done: make(chan struct{})}
}

// settle fires the signal exactly once; subsequent calls are no-ops. This
// is what guarantees runAndCapture's "started called exactly once"
// contract even if a careless Backend implementation calls started twice.
func (s *startSignal) settle(identifier string, err error) {
	s.once.Do(func() {
		s.identifier = identifier
		s.err = err
		close(s.done)
	})
}

func (s *startSignal) wait(ctx context.Context) (string, error) {
	select {
	case <-s.done:
		return s.identifier, s.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// submit runs the per-run pipeline described in §4.4: precheck, propose
// Pending, resolve configuration, emit the submission event, launch via
// the infrastructure backend, and record the result. Every exit path
// leaves run.ID out of the in-flight set with its limiter slot released.
func (w *Worker) submit(ctx context.Context, run FlowRun) {
	if w.tracer != nil {
		var span trace.Span
		ctx, span = w.tracer.Start(ctx, "worker.submit")
		defer span.End()
	}

	logger := w.logger.With(slog.String(RunIDKey, run.ID), slog.String(PoolKey, w.PoolName))
	w.beginHistory(run)

	if err := w.precheckStorage(ctx, run); err != nil {
		logger.Info("flow run refused at precheck", slog.String("error", err.Error()))
		w.endHistory(run.ID, "rejected")
		w.releaseInFlight(run.ID)
		return
	}

	proposal := w.proposer.Propose(ctx, run.ID, StatePending)
	if proposal.Outcome != Accepted {
		logger.Info("pending proposal not accepted, not submitting",
			slog.String("outcome", proposalOutcomeString(proposal.Outcome)), slog.String("reason", proposal.Reason))
		w.endHistory(run.ID, proposalOutcomeString(proposal.Outcome))
		w.releaseInFlight(run.ID)
		return
	}

	cfg, err := w.getConfiguration(ctx, run)
	if err != nil {
		logger.Error("configuration resolution failed, treating as launch failure", slog.String("error", err.Error()))
		w.proposer.Propose(ctx, run.ID, StateFailed)
		w.endHistory(run.ID, "failed")
		w.releaseInFlight(run.ID)
		return
	}

	if w.events != nil {
		if emitErr := w.events.Emit(w.submittedEvent(run, cfg)); emitErr != nil {
			logger.Warn("failed to emit submitted-flow-run event", slog.String("error", emitErr.Error()))
		}
	}

	backend, err := w.backends.Build(w.currentPool().Type)
	if err != nil {
		logger.Error("no infrastructure backend available, treating as launch failure", slog.String("error", err.Error()))
		w.proposer.Propose(ctx, run.ID, StateFailed)
		w.endHistory(run.ID, "failed")
		w.releaseInFlight(run.ID)
		return
	}

	identifier, launchErr := w.runAndCapture(ctx, run, cfg, backend, logger)
	if launchErr == nil && identifier != "" {
		if err := w.client.UpdateFlowRun(ctx, run.ID, identifier); err != nil {
			logger.Warn("run will not be cancellable: failed to record infrastructure_pid", slog.String("error", err.Error()))
		}
	}
	if launchErr != nil {
		w.endHistory(run.ID, "failed")
	} else {
		w.endHistory(run.ID, "completed")
	}

	w.releaseInFlight(run.ID)
}

func (w *Worker) precheckStorage(ctx context.Context, run FlowRun) error {
	if run.DeploymentID == "" {
		return nil
	}
	d, err := w.client.ReadDeployment(ctx, run.DeploymentID)
	if err != nil {
		return workerrors.Wrap(err, "reading deployment for precheck")
	}
	if d.StorageDocumentID != "" {
		return workerrors.Wrap(ErrStorageNotSupported, "workers currently only support local storage")
	}
	return nil
}

func (w *Worker) getConfiguration(ctx context.Context, run FlowRun) (JobConfiguration, error) {
	var deployment Deployment
	var flow Flow
	var err error

	if run.DeploymentID != "" {
		deployment, err = w.client.ReadDeployment(ctx, run.DeploymentID)
		if err != nil {
			return JobConfiguration{}, workerrors.Wrap(err, "reading deployment")
		}
	}
	if run.FlowID != "" {
		flow, err = w.client.ReadFlow(ctx, run.FlowID)
		if err != nil {
			return JobConfiguration{}, workerrors.Wrap(err, "reading flow")
		}
	}

	pool := w.currentPool()
	template, _ := pool.BaseJobTemplate["job_configuration"].(map[string]any)
	schema, _ := pool.BaseJobTemplate["variables"].(map[string]any)

	rendered, err := RenderTemplate(template, schema, deployment.InfraOverrides, w.resolver)
	if err != nil {
		return JobConfiguration{}, workerrors.Wrap(err, "rendering job configuration template")
	}

	return prepareForFlowRun(rendered, run, deployment, flow), nil
}

// prepareForFlowRun overlays flow-run context onto a rendered template per
// §3: env with PREFECT__FLOW_RUN_ID, merged labels (later wins), a name
// fallback, and a command fallback with empty-string coercion to unset
// (P8).
func prepareForFlowRun(rendered map[string]any, run FlowRun, deployment Deployment, flow Flow) JobConfiguration {
	cfg := JobConfiguration{
		Env:    map[string]string{},
		Labels: map[string]string{},
		Vendor: map[string]any{},
	}

	if env, ok := rendered["env"].(map[string]any); ok {
		for k, v := range env {
			if v == nil {
				continue
			}
			cfg.Env[k] = fmt.Sprintf("%v", v)
		}
	}
	cfg.Env["PREFECT__FLOW_RUN_ID"] = hexRunID(run.ID)

	for k, v := range deployment.Labels {
		cfg.Labels[k] = v
	}
	cfg.Labels["prefect.io/flow-run-id"] = run.ID
	cfg.Labels["prefect.io/flow-run-name"] = run.Name
	cfg.Labels["prefect.io/deployment-id"] = deployment.ID
	cfg.Labels["prefect.io/deployment-name"] = deployment.Name
	cfg.Labels["prefect.io/flow-id"] = flow.ID
	cfg.Labels["prefect.io/flow-name"] = flow.Name

	cfg.Name = run.Name
	if name, ok := rendered["name"].(string); ok && name != "" {
		cfg.Name = name
	}

	cfg.Command = "python -m prefect.engine"
	if command, ok := rendered["command"].(string); ok && command != "" {
		cfg.Command = command
	}

	for k, v := range rendered {
		switch k {
		case "env", "name", "command", "labels":
		default:
			cfg.Vendor[k] = v
		}
	}

	return cfg
}

func hexRunID(id string) string {
	out := make([]byte, 0, len(id)*2)
	for i := 0; i < len(id); i++ {
		out = append(out, hexDigits[id[i]>>4], hexDigits[id[i]&0x0f])
	}
	return string(out)
}

const hexDigits = "0123456789abcdef"

// runAndCapture implements §4.4's core contract: call the infrastructure
// backend, let it signal started exactly once, and translate every exit
// path (launch exception, mid-run exception, non-zero exit, anomalous
// return) into the state-proposal taxonomy from §7.
func (w *Worker) runAndCapture(ctx context.Context, run FlowRun, cfg JobConfiguration, backend infra.Backend, logger *slog.Logger) (string, error) {
	signal := newStartSignal()

	type runOutcome struct {
		result WorkerResult
		err    error
	}
	resultCh := make(chan runOutcome, 1)

	go func() {
		result, err := backend.Run(ctx, run, cfg, signal.settle)
		resultCh <- runOutcome{result, err}
		// Anomalous return: the backend returned without ever calling
		// started. Settle now, carrying the backend's own error, so the
		// waiter below never deadlocks *and* a backend that fails before
		// calling started resolves
		// as a launch failure rather than a silent mid-run exit. If
		// started already fired, this is a no-op (settle fires once).
		signal.settle("", err)
	}()

	identifier, startErr := signal.wait(ctx)
	if startErr != nil {
		// Launch failure before started fired.
		w.proposer.Propose(ctx, run.ID, StateFailed)
		logger.Error("flow run failed to launch", slog.String("error", startErr.Error()))
		return "", startErr
	}

	select {
	case outcome := <-resultCh:
		if outcome.err != nil {
			// Mid-run exception after started already fired: the process
			// did start, so we log only — the server reconciles via
			// heartbeat/timeout.
			logger.Error("error while monitoring flow run", slog.String("error", outcome.err.Error()))
			return identifier, nil
		}
		if outcome.result.StatusCode != 0 {
			w.proposer.Propose(ctx, run.ID, StateCrashed)
			logger.Warn("flow run exited non-zero", slog.Int("status_code", outcome.result.StatusCode))
		}
		return identifier, nil
	case <-ctx.Done():
		return identifier, ctx.Err()
	}
}

