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

// Package apiclient defines the orchestration API client surface the worker
// consumes, and an HTTP implementation of it.
//
// Client is the only type internal/worker depends on; internal/testing/mock
// provides an in-memory fake of it for tests. HTTPClient is the production
// implementation, built on pkg/httpclient for retries, sanitized request
// logging, and connection pooling, with golang.org/x/time/rate added for
// outbound request pacing.
package apiclient
