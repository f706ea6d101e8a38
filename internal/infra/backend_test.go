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

package infra_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tombee/flowworker/internal/infra"
	"github.com/tombee/flowworker/internal/worker"
)

type stubBackend struct{}

func (stubBackend) Run(context.Context, worker.FlowRun, worker.JobConfiguration, infra.StartedFunc) (worker.WorkerResult, error) {
	return worker.WorkerResult{}, nil
}

func TestRegistry_BuildUnregisteredType(t *testing.T) {
	r := infra.NewRegistry()
	_, err := r.Build("process")
	require.Error(t, err)
}

func TestRegistry_RegisterAndBuild(t *testing.T) {
	r := infra.NewRegistry()
	r.Register("process", func() (infra.Backend, error) { return stubBackend{}, nil })

	backend, err := r.Build("process")
	require.NoError(t, err)
	assert.IsType(t, stubBackend{}, backend)
}

func TestRegistry_RegisterTwiceOverwrites(t *testing.T) {
	r := infra.NewRegistry()
	r.Register("process", func() (infra.Backend, error) { return stubBackend{}, nil })
	r.Register("process", func() (infra.Backend, error) { return nil, assert.AnError })

	_, err := r.Build("process")
	require.Error(t, err)
}

func TestRegistry_Types(t *testing.T) {
	r := infra.NewRegistry()
	r.Register("process", func() (infra.Backend, error) { return stubBackend{}, nil })
	r.Register("ec2", func() (infra.Backend, error) { return stubBackend{}, nil })

	assert.ElementsMatch(t, []string{"process", "ec2"}, r.Types())
}

func TestRegistry_ConcurrentRegisterAndBuild(t *testing.T) {
	r := infra.NewRegistry()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			r.Register("process", func() (infra.Backend, error) { return stubBackend{}, nil })
		}()
		go func() {
			defer wg.Done()
			_, _ = r.Build("process")
		}()
	}
	wg.Wait()
}
