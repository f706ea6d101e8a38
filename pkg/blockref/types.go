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

// Package blockref resolves block-document references embedded in a flow
// run's job configuration, e.g. an infrastructure template field that reads
// "{{ prefect.blocks.aws-credentials.prod }}" instead of a literal value.
//
// A job configuration's base job template is rendered once per run (see
// internal/worker/render.go); any field whose rendered string still looks
// like a reference is routed through a Resolver so the value the
// infrastructure backend sees is the concrete secret or block payload, never
// the reference string itself.
package blockref

import "time"

// Reference identifies a single block-document reference found inside a
// job configuration field.
type Reference struct {
	// Raw is the original reference string, e.g. "env:AWS_SECRET_KEY".
	Raw string

	// Scheme identifies which provider resolves this reference (env, file,
	// block, vault, ...).
	Scheme string

	// Key is the provider-specific identifier: an environment variable
	// name, a file path, or a block document slug.
	Key string
}

// ValueMetadata records that a reference was resolved, for audit logging
// without exposing the resolved value itself.
type ValueMetadata struct {
	// Reference is the truncated reference string (see TruncateReference).
	Reference string `json:"reference"`

	// Provider is the scheme that resolved this reference.
	Provider string `json:"provider"`

	// Success indicates whether resolution succeeded.
	Success bool `json:"success"`

	// RunID is the flow run whose job configuration requested this value.
	RunID string `json:"run_id"`

	// Pool is the work pool the run was claimed from.
	Pool string `json:"pool"`

	// Timestamp is when resolution occurred.
	Timestamp time.Time `json:"timestamp"`

	// ErrorCategory is set for failed resolutions.
	ErrorCategory string `json:"error_category,omitempty"`
}
