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

package log

import (
	"log/slog"
	"time"
)

// APIRequest describes one outbound call to the orchestration API, for
// logging purposes.
type APIRequest struct {
	// Operation names the call being made (e.g. "poll", "submit", "heartbeat").
	Operation string

	// CorrelationID is the correlation ID tracing the request, see internal/tracing.
	CorrelationID string

	// Pool is the work pool the call is scoped to, if any.
	Pool string

	// Metadata contains additional request metadata.
	Metadata map[string]interface{}
}

// APIResponse describes the outcome of an APIRequest, for logging purposes.
type APIResponse struct {
	// Success indicates whether the call succeeded.
	Success bool

	// Error is the error message if the call failed.
	Error string

	// DurationMs is the duration of the call in milliseconds.
	DurationMs int64

	// Metadata contains additional response metadata.
	Metadata map[string]interface{}
}

// LogAPIRequest logs an outbound call before it is made.
func LogAPIRequest(logger *slog.Logger, req *APIRequest) {
	attrs := []any{
		"event", "api_request",
		"operation", req.Operation,
	}

	if req.Pool != "" {
		attrs = append(attrs, PoolKey, req.Pool)
	}

	if req.CorrelationID != "" {
		attrs = append(attrs, "correlation_id", req.CorrelationID)
	}

	for k, v := range req.Metadata {
		attrs = append(attrs, k, v)
	}

	logger.Info("api request sent", attrs...)
}

// LogAPIResponse logs the outcome of an outbound call.
func LogAPIResponse(logger *slog.Logger, req *APIRequest, resp *APIResponse) {
	attrs := []any{
		"event", "api_response",
		"operation", req.Operation,
		"success", resp.Success,
		"duration_ms", resp.DurationMs,
	}

	if req.Pool != "" {
		attrs = append(attrs, PoolKey, req.Pool)
	}

	if req.CorrelationID != "" {
		attrs = append(attrs, "correlation_id", req.CorrelationID)
	}

	if resp.Error != "" {
		attrs = append(attrs, "error", resp.Error)
	}

	for k, v := range resp.Metadata {
		attrs = append(attrs, k, v)
	}

	level := slog.LevelInfo
	message := "api request completed"

	if !resp.Success {
		level = slog.LevelError
		message = "api request failed"
	}

	logger.Log(nil, level, message, attrs...)
}

// APIMiddleware wraps a call to the orchestration API with logging.
// It logs the request when it is made and the response when it completes.
type APIMiddleware struct {
	logger *slog.Logger
}

// NewAPIMiddleware creates a new API call logging middleware.
func NewAPIMiddleware(logger *slog.Logger) *APIMiddleware {
	return &APIMiddleware{
		logger: logger,
	}
}

// Call wraps a function that performs one outbound API call.
// It logs the request and response automatically.
func (m *APIMiddleware) Call(req *APIRequest, call func() error) error {
	start := time.Now()

	LogAPIRequest(m.logger, req)

	err := call()

	duration := time.Since(start).Milliseconds()

	resp := &APIResponse{
		Success:    err == nil,
		DurationMs: duration,
	}

	if err != nil {
		resp.Error = err.Error()
	}

	LogAPIResponse(m.logger, req, resp)

	return err
}

// CallWithMetadata wraps a function that performs one outbound API call and
// returns response metadata. It logs the request and response with the
// returned metadata.
func (m *APIMiddleware) CallWithMetadata(req *APIRequest, call func() (map[string]interface{}, error)) (map[string]interface{}, error) {
	start := time.Now()

	LogAPIRequest(m.logger, req)

	metadata, err := call()

	duration := time.Since(start).Milliseconds()

	resp := &APIResponse{
		Success:    err == nil,
		DurationMs: duration,
		Metadata:   metadata,
	}

	if err != nil {
		resp.Error = err.Error()
	}

	LogAPIResponse(m.logger, req, resp)

	return metadata, err
}
