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

// Package status implements "flowworker status", which renders a timeline
// of a running worker's recent flow-run submissions.
package status

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/tombee/flowworker/internal/cli/timeline"
	"github.com/tombee/flowworker/internal/worker"
)

// statusResponse mirrors the JSON "flowworker start" serves on /status
// alongside its Prometheus /metrics endpoint.
type statusResponse struct {
	Pool    string                    `json:"pool"`
	Worker  string                    `json:"worker"`
	History []worker.SubmissionRecord `json:"history"`
}

// NewCommand creates the "status" command.
func NewCommand() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show a timeline of a running worker's recent flow-run submissions",
		Long: `status polls a running "flowworker start" process's /status endpoint
and renders its recent flow-run submissions as an ASCII timeline.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), cmd, addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "http://localhost:9100", "Base address of the worker's metrics server")
	return cmd
}

func run(ctx context.Context, cmd *cobra.Command, addr string) error {
	payload, err := fetchStatus(ctx, addr)
	if err != nil {
		return err
	}

	if len(payload.History) == 0 {
		cmd.Printf("pool %q (worker %s): no flow runs submitted yet\n", payload.Pool, payload.Worker)
		return nil
	}

	renderer, err := timeline.NewRenderer()
	if err != nil {
		return fmt.Errorf("status: %w", err)
	}

	out, err := renderer.Render(payload.Pool, toSpans(payload.History))
	if err != nil {
		return fmt.Errorf("status: rendering timeline: %w", err)
	}

	cmd.Print(out)
	return nil
}

func fetchStatus(ctx context.Context, addr string) (statusResponse, error) {
	httpClient := &http.Client{Timeout: 10 * time.Second}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, addr+"/status", nil)
	if err != nil {
		return statusResponse{}, fmt.Errorf("status: building request: %w", err)
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return statusResponse{}, fmt.Errorf("status: fetching worker status from %s: %w", addr, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return statusResponse{}, fmt.Errorf("status: worker at %s returned HTTP %d", addr, resp.StatusCode)
	}

	var payload statusResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return statusResponse{}, fmt.Errorf("status: decoding worker status: %w", err)
	}
	return payload, nil
}

func toSpans(history []worker.SubmissionRecord) []timeline.SubmissionSpan {
	spans := make([]timeline.SubmissionSpan, len(history))
	for i, r := range history {
		spans[i] = timeline.SubmissionSpan{
			RunID:     r.RunID,
			FlowName:  r.FlowName,
			StartTime: r.StartTime,
			EndTime:   r.EndTime,
			Status:    r.Status,
		}
	}
	return spans
}
