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
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogSink_Emit(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	sink := NewLogSink(logger)

	err := sink.Emit(Event{
		Event:    "prefect.worker.submitted-flow-run",
		Resource: Resource{ID: "prefect.worker.process.worker-1"},
		Related: []Resource{
			{ID: "prefect.flow-run.run-1", Role: "flow-run"},
		},
	})
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "event emitted", decoded["msg"])
	assert.Equal(t, "prefect.worker.submitted-flow-run", decoded["event"])
	assert.Equal(t, "prefect.worker.process.worker-1", decoded["resource_id"])

	related, ok := decoded["related"].([]any)
	require.True(t, ok)
	require.Len(t, related, 1)
	assert.Equal(t, "flow-run:prefect.flow-run.run-1", related[0])
}

func TestLogSink_Emit_NoRelated(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	sink := NewLogSink(logger)

	err := sink.Emit(Event{Event: "prefect.worker.started", Resource: Resource{ID: "prefect.worker.process.worker-1"}})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "prefect.worker.started")
}
