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

package worker

import "github.com/tombee/flowworker/internal/log"

// Structured log field keys shared across the package's slog calls,
// reusing the field-key constants the rest of the binary logs with.
const (
	RunIDKey      = log.RunIDKey
	PoolKey       = log.PoolKey
	WorkerNameKey = log.WorkerNameKey
)
