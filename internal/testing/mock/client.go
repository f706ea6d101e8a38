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

// Package mock provides hand-rolled in-memory fakes of the worker's
// external collaborators, for use in package tests that exercise the
// polling/admission/submission engine without a live orchestration server
// or infrastructure backend.
package mock

import (
	"context"
	"sync"
	"time"

	"github.com/tombee/flowworker/internal/apiclient"
	"github.com/tombee/flowworker/internal/worker"
	workerrors "github.com/tombee/flowworker/pkg/errors"
)

// Call records one invocation against the fake client, for assertions
// about ordering (e.g. P3 Pending-before-run).
type Call struct {
	Method string
	Args   []any
}

// Client is an in-memory fake of apiclient.Client. Zero value is usable;
// configure behavior via the exported fields before handing it to a
// Worker.
type Client struct {
	mu sync.Mutex

	Pool        worker.WorkPool
	PoolMissing bool

	ScheduledRuns []apiclient.ScheduledFlowRun
	Deployments   map[string]worker.Deployment
	Flows         map[string]worker.Flow

	// ProposeStateFunc, when set, overrides the default accept-everything
	// behavior of ProposeState.
	ProposeStateFunc func(flowRunID, targetState string) (apiclient.State, error)

	Calls []Call
}

// NewClient returns a ready-to-configure fake client.
func NewClient() *Client {
	return &Client{
		Deployments: make(map[string]worker.Deployment),
		Flows:       make(map[string]worker.Flow),
	}
}

func (c *Client) record(method string, args ...any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Calls = append(c.Calls, Call{Method: method, Args: args})
}

func (c *Client) ReadWorkPool(ctx context.Context, name string) (worker.WorkPool, error) {
	c.record("ReadWorkPool", name)
	if c.PoolMissing {
		return worker.WorkPool{}, &workerrors.NotFoundError{Resource: "work_pool", ID: name}
	}
	return c.Pool, nil
}

func (c *Client) CreateWorkPool(ctx context.Context, name, poolType string) (worker.WorkPool, error) {
	c.record("CreateWorkPool", name, poolType)
	c.Pool = worker.WorkPool{Name: name, Type: poolType}
	c.PoolMissing = false
	return c.Pool, nil
}

func (c *Client) UpdateWorkPool(ctx context.Context, name string, baseJobTemplate map[string]any) error {
	c.record("UpdateWorkPool", name)
	c.Pool.BaseJobTemplate = baseJobTemplate
	return nil
}

func (c *Client) SendWorkerHeartbeat(ctx context.Context, poolName, workerName string) error {
	c.record("SendWorkerHeartbeat", poolName, workerName)
	return nil
}

func (c *Client) GetScheduledFlowRunsForWorkPool(ctx context.Context, poolName string, scheduledBefore time.Time, workQueues []string) ([]apiclient.ScheduledFlowRun, error) {
	c.record("GetScheduledFlowRunsForWorkPool", poolName)
	return c.ScheduledRuns, nil
}

func (c *Client) ReadDeployment(ctx context.Context, id string) (worker.Deployment, error) {
	c.record("ReadDeployment", id)
	d, ok := c.Deployments[id]
	if !ok {
		return worker.Deployment{}, &workerrors.NotFoundError{Resource: "deployment", ID: id}
	}
	return d, nil
}

func (c *Client) ReadFlow(ctx context.Context, id string) (worker.Flow, error) {
	c.record("ReadFlow", id)
	f, ok := c.Flows[id]
	if !ok {
		return worker.Flow{}, &workerrors.NotFoundError{Resource: "flow", ID: id}
	}
	return f, nil
}

func (c *Client) UpdateFlowRun(ctx context.Context, id string, infrastructurePID string) error {
	c.record("UpdateFlowRun", id, infrastructurePID)
	return nil
}

func (c *Client) ProposeState(ctx context.Context, flowRunID, targetState string) (apiclient.State, error) {
	c.record("ProposeState", flowRunID, targetState)
	if c.ProposeStateFunc != nil {
		return c.ProposeStateFunc(flowRunID, targetState)
	}
	return apiclient.State{Kind: apiclient.StateKind(targetState), Name: targetState}, nil
}

// CallsFor returns every recorded call to method, in order.
func (c *Client) CallsFor(method string) []Call {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []Call
	for _, call := range c.Calls {
		if call.Method == method {
			out = append(out, call)
		}
	}
	return out
}
