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

import "log/slog"

// LogSink emits events as structured log lines. It is the default Sink for
// deployments with no separate event-ingestion endpoint: every submission
// still shows up in the worker's own logs, just not on the orchestration
// server's event feed.
type LogSink struct {
	logger *slog.Logger
}

// NewLogSink builds a LogSink over logger.
func NewLogSink(logger *slog.Logger) *LogSink {
	return &LogSink{logger: logger}
}

func (s *LogSink) Emit(e Event) error {
	related := make([]string, 0, len(e.Related))
	for _, r := range e.Related {
		related = append(related, r.Role+":"+r.ID)
	}
	s.logger.Info("event emitted",
		slog.String("event", e.Event),
		slog.String("resource_id", e.Resource.ID),
		slog.Any("related", related),
	)
	return nil
}
