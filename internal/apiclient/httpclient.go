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

package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	workerrors "github.com/tombee/flowworker/pkg/errors"
	"github.com/tombee/flowworker/pkg/httpclient"

	"github.com/tombee/flowworker/internal/worker"
)

// HTTPClient implements Client over the orchestration API's REST surface.
// It is built on pkg/httpclient for retries, sanitized request logging, and
// connection pooling, with a golang.org/x/time/rate limiter guarding
// outbound request volume so a slow or aggressive poll interval can never
// hammer the server.
type HTTPClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// HTTPClientConfig configures an HTTPClient.
type HTTPClientConfig struct {
	BaseURL string
	APIKey  string
	// RequestsPerSecond bounds outbound request volume; zero disables the
	// rate limit entirely.
	RequestsPerSecond float64
	// Burst allows short bursts above RequestsPerSecond; defaults to 1 if
	// RequestsPerSecond is set and Burst is zero.
	Burst int
	// Transport, when set, overrides the default pkg/httpclient factory
	// config — primarily for tests.
	Transport httpclient.Config
}

// NewHTTPClient constructs an HTTPClient from cfg.
func NewHTTPClient(cfg HTTPClientConfig) (*HTTPClient, error) {
	if cfg.BaseURL == "" {
		return nil, workerrors.New("building orchestration API client: base URL is required")
	}
	transportCfg := cfg.Transport
	if transportCfg.UserAgent == "" {
		transportCfg = httpclient.DefaultConfig()
	}
	hc, err := httpclient.New(transportCfg)
	if err != nil {
		return nil, workerrors.Wrap(err, "building orchestration API client")
	}

	var limiter *rate.Limiter
	if cfg.RequestsPerSecond > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
	}

	return &HTTPClient{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		httpClient: hc,
		limiter:    limiter,
	}, nil
}

func (c *HTTPClient) do(ctx context.Context, method, path string, body, out any) (*http.Response, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, workerrors.Wrap(err, "waiting for rate limiter")
		}
	}

	var reqBody *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, workerrors.Wrap(err, "encoding request body")
		}
		reqBody = bytes.NewReader(payload)
	} else {
		reqBody = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, workerrors.Wrap(err, "building request")
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &workerrors.ProviderError{Provider: "orchestration-api", Cause: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return resp, &workerrors.NotFoundError{Resource: path}
	}
	if resp.StatusCode >= 400 {
		return resp, &workerrors.ProviderError{
			Provider: "orchestration-api",
			Cause:    fmt.Errorf("unexpected status %d from %s %s", resp.StatusCode, method, path),
		}
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp, workerrors.Wrap(err, "decoding response body")
		}
	}
	return resp, nil
}

type workPoolDTO struct {
	Name            string         `json:"name"`
	Type            string         `json:"type"`
	BaseJobTemplate map[string]any `json:"base_job_template"`
}

func (c *HTTPClient) ReadWorkPool(ctx context.Context, name string) (worker.WorkPool, error) {
	var dto workPoolDTO
	if _, err := c.do(ctx, http.MethodGet, "/work_pools/"+name, nil, &dto); err != nil {
		return worker.WorkPool{}, err
	}
	return worker.WorkPool{Name: dto.Name, Type: dto.Type, BaseJobTemplate: dto.BaseJobTemplate}, nil
}

func (c *HTTPClient) CreateWorkPool(ctx context.Context, name, poolType string) (worker.WorkPool, error) {
	var dto workPoolDTO
	req := workPoolDTO{Name: name, Type: poolType}
	if _, err := c.do(ctx, http.MethodPost, "/work_pools/", req, &dto); err != nil {
		return worker.WorkPool{}, err
	}
	return worker.WorkPool{Name: dto.Name, Type: dto.Type, BaseJobTemplate: dto.BaseJobTemplate}, nil
}

func (c *HTTPClient) UpdateWorkPool(ctx context.Context, name string, baseJobTemplate map[string]any) error {
	req := struct {
		BaseJobTemplate map[string]any `json:"base_job_template"`
	}{BaseJobTemplate: baseJobTemplate}
	_, err := c.do(ctx, http.MethodPatch, "/work_pools/"+name, req, nil)
	return err
}

func (c *HTTPClient) SendWorkerHeartbeat(ctx context.Context, poolName, workerName string) error {
	req := struct {
		Name string `json:"name"`
	}{Name: workerName}
	_, err := c.do(ctx, http.MethodPost, "/work_pools/"+poolName+"/workers/heartbeat", req, nil)
	return err
}

type scheduledFlowRunDTO struct {
	WorkQueueName string `json:"work_queue_name"`
	FlowRun       struct {
		ID                     string    `json:"id"`
		Name                   string    `json:"name"`
		DeploymentID           string    `json:"deployment_id"`
		FlowID                 string    `json:"flow_id"`
		State                  string    `json:"state"`
		NextScheduledStartTime time.Time `json:"next_scheduled_start_time"`
	} `json:"flow_run"`
}

func (c *HTTPClient) GetScheduledFlowRunsForWorkPool(ctx context.Context, poolName string, scheduledBefore time.Time, workQueues []string) ([]ScheduledFlowRun, error) {
	req := struct {
		ScheduledBefore time.Time `json:"scheduled_before"`
		WorkQueueNames  []string  `json:"work_queue_names,omitempty"`
	}{ScheduledBefore: scheduledBefore, WorkQueueNames: workQueues}

	var dtos []scheduledFlowRunDTO
	_, err := c.do(ctx, http.MethodPost, "/work_pools/"+poolName+"/get_scheduled_flow_runs", req, &dtos)
	if err != nil {
		var notFound *workerrors.NotFoundError
		if workerrors.As(err, &notFound) {
			return nil, nil
		}
		return nil, err
	}

	out := make([]ScheduledFlowRun, 0, len(dtos))
	for _, d := range dtos {
		out = append(out, ScheduledFlowRun{
			WorkQueue: d.WorkQueueName,
			Run: worker.FlowRun{
				ID:                     d.FlowRun.ID,
				Name:                   d.FlowRun.Name,
				DeploymentID:           d.FlowRun.DeploymentID,
				FlowID:                 d.FlowRun.FlowID,
				State:                  d.FlowRun.State,
				NextScheduledStartTime: d.FlowRun.NextScheduledStartTime,
			},
		})
	}
	return out, nil
}

type deploymentDTO struct {
	ID                string            `json:"id"`
	Name              string            `json:"name"`
	FlowID            string            `json:"flow_id"`
	StorageDocumentID string            `json:"storage_document_id"`
	InfraOverrides    map[string]any    `json:"infra_overrides"`
	Labels            map[string]string `json:"labels"`
	Tags              []string          `json:"tags"`
}

func (c *HTTPClient) ReadDeployment(ctx context.Context, id string) (worker.Deployment, error) {
	var dto deploymentDTO
	if _, err := c.do(ctx, http.MethodGet, "/deployments/"+id, nil, &dto); err != nil {
		return worker.Deployment{}, err
	}
	return worker.Deployment{
		ID:                dto.ID,
		Name:              dto.Name,
		FlowID:            dto.FlowID,
		StorageDocumentID: dto.StorageDocumentID,
		InfraOverrides:    dto.InfraOverrides,
		Labels:            dto.Labels,
		Tags:              dto.Tags,
	}, nil
}

type flowDTO struct {
	ID   string   `json:"id"`
	Name string   `json:"name"`
	Tags []string `json:"tags"`
}

func (c *HTTPClient) ReadFlow(ctx context.Context, id string) (worker.Flow, error) {
	var dto flowDTO
	if _, err := c.do(ctx, http.MethodGet, "/flows/"+id, nil, &dto); err != nil {
		return worker.Flow{}, err
	}
	return worker.Flow{ID: dto.ID, Name: dto.Name, Tags: dto.Tags}, nil
}

func (c *HTTPClient) UpdateFlowRun(ctx context.Context, id string, infrastructurePID string) error {
	req := struct {
		InfrastructurePID string `json:"infrastructure_pid"`
	}{InfrastructurePID: infrastructurePID}
	_, err := c.do(ctx, http.MethodPatch, "/flow_runs/"+id, req, nil)
	return err
}

type proposeStateResponseDTO struct {
	State struct {
		Type    string `json:"type"`
		Name    string `json:"name"`
		Message string `json:"message"`
	} `json:"state"`
	Status string `json:"status"` // "ACCEPT", "ABORT", or "REJECT"
}

func (c *HTTPClient) ProposeState(ctx context.Context, flowRunID, targetState string) (State, error) {
	req := struct {
		State struct {
			Type string `json:"type"`
		} `json:"state"`
	}{}
	req.State.Type = targetState

	var dto proposeStateResponseDTO
	if _, err := c.do(ctx, http.MethodPost, "/flow_runs/"+flowRunID+"/set_state", req, &dto); err != nil {
		return State{}, err
	}

	if dto.Status == "ABORT" {
		return State{}, &AbortSignal{Reason: dto.State.Message}
	}

	return State{
		Kind:    stateKindOf(dto.State.Type),
		Name:    dto.State.Name,
		Message: dto.State.Message,
	}, nil
}

func stateKindOf(stateType string) StateKind {
	switch strings.ToUpper(stateType) {
	case "PENDING":
		return StateKindPending
	case "RUNNING":
		return StateKindRunning
	case "FAILED":
		return StateKindFailed
	case "CRASHED":
		return StateKindCrashed
	default:
		return StateKindOther
	}
}
