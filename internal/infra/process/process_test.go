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

package process_test

import (
	"context"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tombee/flowworker/internal/infra/process"
	"github.com/tombee/flowworker/internal/worker"
)

type startedCall struct {
	identifier string
	err        error
}

func TestBackend_Run_Success(t *testing.T) {
	backend := &process.Backend{}
	var calls []startedCall
	started := func(identifier string, err error) { calls = append(calls, startedCall{identifier, err}) }

	result, err := backend.Run(context.Background(), worker.FlowRun{ID: "run-1"},
		worker.JobConfiguration{Command: "exit 0"}, started)
	require.NoError(t, err)
	assert.Equal(t, 0, result.StatusCode)

	require.Len(t, calls, 1)
	assert.NoError(t, calls[0].err)
	pid, convErr := strconv.Atoi(calls[0].identifier)
	require.NoError(t, convErr)
	assert.Greater(t, pid, 0)
	assert.Equal(t, calls[0].identifier, result.Identifier)
}

func TestBackend_Run_NonZeroExit(t *testing.T) {
	backend := &process.Backend{}
	started := func(string, error) {}

	result, err := backend.Run(context.Background(), worker.FlowRun{ID: "run-1"},
		worker.JobConfiguration{Command: "exit 7"}, started)
	require.NoError(t, err)
	assert.Equal(t, 7, result.StatusCode)
}

func TestBackend_Run_EmptyCommand(t *testing.T) {
	backend := &process.Backend{}
	var calls []startedCall
	started := func(identifier string, err error) { calls = append(calls, startedCall{identifier, err}) }

	_, err := backend.Run(context.Background(), worker.FlowRun{ID: "run-1"},
		worker.JobConfiguration{Command: ""}, started)
	require.Error(t, err)
	// An empty command fails before any process is launched, and the
	// failure is reported through started.
	require.Len(t, calls, 1)
	assert.Error(t, calls[0].err)
}

func TestBackend_Run_EnvPassedThrough(t *testing.T) {
	backend := &process.Backend{}
	started := func(string, error) {}

	result, err := backend.Run(context.Background(), worker.FlowRun{ID: "run-1"},
		worker.JobConfiguration{
			Command: `test "$FLOWWORKER_TEST_VAR" = "hello" && exit 0 || exit 9`,
			Env:     map[string]string{"FLOWWORKER_TEST_VAR": "hello"},
		}, started)
	require.NoError(t, err)
	assert.Equal(t, 0, result.StatusCode)
}
