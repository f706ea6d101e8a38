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

// Package process implements a reference infrastructure backend that runs
// a flow run's command as a local child process.
package process

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strconv"

	"github.com/tombee/flowworker/internal/infra"
	"github.com/tombee/flowworker/internal/worker"
)

// Backend runs JobConfiguration.Command as a child process via os/exec,
// reporting the OS pid as the infrastructure identifier.
type Backend struct {
	// WorkingDir overrides the working directory for every launched
	// process, if set.
	WorkingDir string
}

// New constructs a process Backend. It satisfies infra.Constructor.
func New() (infra.Backend, error) {
	return &Backend{}, nil
}

// Run implements infra.Backend.
func (b *Backend) Run(ctx context.Context, run worker.FlowRun, cfg worker.JobConfiguration, started infra.StartedFunc) (worker.WorkerResult, error) {
	command := cfg.Command
	if command == "" {
		err := fmt.Errorf("process: empty command for flow run %s", run.ID)
		started("", err)
		return worker.WorkerResult{}, err
	}

	cmd := exec.CommandContext(ctx, "sh", "-c", command)
	if b.WorkingDir != "" {
		cmd.Dir = b.WorkingDir
	}

	cmd.Env = os.Environ()
	for k, v := range cfg.Env {
		cmd.Env = append(cmd.Env, k+"="+v)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		started("", err)
		return worker.WorkerResult{}, err
	}
	started(strconv.Itoa(cmd.Process.Pid), nil)

	err := cmd.Wait()
	if err == nil {
		return worker.WorkerResult{Identifier: strconv.Itoa(cmd.Process.Pid), StatusCode: 0}, nil
	}

	exitErr, ok := err.(*exec.ExitError)
	if !ok {
		return worker.WorkerResult{}, err
	}
	return worker.WorkerResult{
		Identifier: strconv.Itoa(cmd.Process.Pid),
		StatusCode: exitErr.ExitCode(),
	}, nil
}
