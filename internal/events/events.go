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

// Package events defines the observability event sink the worker emits
// lifecycle notifications to. The core only depends on the Sink interface;
// LogSink in this package is the log-backed implementation, and other
// transports (a remote event API) live outside this package.
package events

import "strings"

// Resource identifies the entity an event is about or related to.
type Resource struct {
	ID         string
	Name       string
	Role       string // "worker", "flow-run", "deployment", "flow", "work-pool", "tag"
	Attributes map[string]string
}

// Event is a single observability notification.
type Event struct {
	Event    string
	Resource Resource
	Related  []Resource
}

// Sink receives emitted events. Implementations must not block the caller
// for longer than a short, bounded send — the worker emits on its hot path.
type Sink interface {
	Emit(Event) error
}

// SubmittedFlowRunParams carries the fields needed to build the
// "submitted-flow-run" event for one admission.
type SubmittedFlowRunParams struct {
	WorkerType string
	WorkerName string
	Version    string

	FlowRunID      string
	FlowRunName    string
	FlowRunTags    []string
	DeploymentID   string
	DeploymentName string
	FlowID         string
	FlowName       string
	FlowTags       []string
	WorkPoolName   string
}

// NewSubmittedFlowRunEvent builds the "submitted-flow-run" event per the
// worker resource naming convention prefect.worker.<type>.<slug(name)>.
func NewSubmittedFlowRunEvent(p SubmittedFlowRunParams) Event {
	resource := Resource{
		ID:   "prefect.worker." + p.WorkerType + "." + slug(p.WorkerName),
		Name: p.WorkerName,
		Role: "worker",
		Attributes: map[string]string{
			"worker-type": p.WorkerType,
			"version":     p.Version,
		},
	}

	related := []Resource{
		{ID: "prefect.flow-run." + p.FlowRunID, Name: p.FlowRunName, Role: "flow-run"},
		{ID: "prefect.deployment." + p.DeploymentID, Name: p.DeploymentName, Role: "deployment"},
		{ID: "prefect.flow." + p.FlowID, Name: p.FlowName, Role: "flow"},
		{ID: "prefect.work-pool." + p.WorkPoolName, Name: p.WorkPoolName, Role: "work-pool"},
	}
	for _, tag := range dedupeTags(p.FlowRunTags, p.FlowTags) {
		related = append(related, Resource{ID: "prefect.tag." + tag, Name: tag, Role: "tag"})
	}

	return Event{
		Event:    "prefect.worker.submitted-flow-run",
		Resource: resource,
		Related:  related,
	}
}

func dedupeTags(tagSets ...[]string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, tags := range tagSets {
		for _, t := range tags {
			if _, ok := seen[t]; ok {
				continue
			}
			seen[t] = struct{}{}
			out = append(out, t)
		}
	}
	return out
}

func slug(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	var b strings.Builder
	lastDash := false
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	return strings.Trim(b.String(), "-")
}
