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

package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSubmittedFlowRunEvent(t *testing.T) {
	e := NewSubmittedFlowRunEvent(SubmittedFlowRunParams{
		WorkerType:     "process",
		WorkerName:     "Worker One!",
		FlowRunID:      "run-1",
		FlowRunName:    "run-1-name",
		FlowRunTags:    []string{"nightly", "etl"},
		DeploymentID:   "dep-1",
		DeploymentName: "D1",
		FlowID:         "flow-1",
		FlowName:       "F1",
		FlowTags:       []string{"etl", "prod"},
		WorkPoolName:   "nightly-etl",
	})

	assert.Equal(t, "prefect.worker.submitted-flow-run", e.Event)
	assert.Equal(t, "prefect.worker.process.worker-one", e.Resource.ID)
	assert.Equal(t, "worker", e.Resource.Role)
	assert.Equal(t, "process", e.Resource.Attributes["worker-type"])

	var tagIDs []string
	for _, r := range e.Related {
		if r.Role == "tag" {
			tagIDs = append(tagIDs, r.ID)
		}
	}
	// nightly, etl (deduped against the flow's own etl tag), prod
	assert.Equal(t, []string{"prefect.tag.nightly", "prefect.tag.etl", "prefect.tag.prod"}, tagIDs)

	var flowRunRelated Resource
	for _, r := range e.Related {
		if r.Role == "flow-run" {
			flowRunRelated = r
		}
	}
	assert.Equal(t, "prefect.flow-run.run-1", flowRunRelated.ID)
	assert.Equal(t, "run-1-name", flowRunRelated.Name)
}

func TestDedupeTags(t *testing.T) {
	out := dedupeTags([]string{"a", "b", "a"}, []string{"b", "c"})
	assert.Equal(t, []string{"a", "b", "c"}, out)
}

func TestDedupeTags_Empty(t *testing.T) {
	assert.Empty(t, dedupeTags())
	assert.Empty(t, dedupeTags(nil, []string{}))
}

func TestSlug(t *testing.T) {
	cases := map[string]string{
		"Worker One!":    "worker-one",
		"  leading":      "leading",
		"trailing  ":     "trailing",
		"already-dashed": "already-dashed",
		"multi   space":  "multi-space",
		"":                "",
		"UPPER_CASE":      "upper-case",
	}
	for in, want := range cases {
		require.Equal(t, want, slug(in), "slug(%q)", in)
	}
}
