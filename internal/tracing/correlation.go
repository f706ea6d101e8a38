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

// Package tracing carries a per-request correlation ID through a context.Context
// so the HTTP client, logger, and worker loop can all tag the same outbound
// call without threading an explicit parameter through every signature.
package tracing

import (
	"context"

	"github.com/google/uuid"
)

// CorrelationID identifies one outbound request across log lines and
// the X-Correlation-ID header sent to the orchestration API.
type CorrelationID string

// IsValid reports whether id holds a non-empty correlation ID.
func (id CorrelationID) IsValid() bool {
	return id != ""
}

// String returns the correlation ID's string form.
func (id CorrelationID) String() string {
	return string(id)
}

// NewCorrelationID generates a fresh, random correlation ID.
func NewCorrelationID() CorrelationID {
	return CorrelationID(uuid.NewString())
}

type correlationIDKey struct{}

// ToContext attaches id to ctx.
func ToContext(ctx context.Context, id CorrelationID) context.Context {
	return context.WithValue(ctx, correlationIDKey{}, id)
}

// FromContextOrEmpty returns the correlation ID attached to ctx, or the zero
// value if none was attached.
func FromContextOrEmpty(ctx context.Context) CorrelationID {
	id, _ := ctx.Value(correlationIDKey{}).(CorrelationID)
	return id
}
