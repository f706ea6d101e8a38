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

package blockref

import "context"

// Provider resolves references for a single scheme (env, file, vault, ...).
//
// Providers must respect context cancellation/timeout and must never log
// the resolved value. Errors returned should be sanitized with
// NewValueResolutionError so the raw reference never reaches a log line or
// an error surfaced to a CLI user.
type Provider interface {
	// Scheme returns the URI scheme this provider answers for, e.g. "env".
	Scheme() string

	// Resolve returns the concrete value for a provider-specific reference
	// (already stripped of its "scheme:" prefix).
	Resolve(ctx context.Context, reference string) (string, error)
}

// Registry routes a reference to the provider registered for its scheme.
type Registry interface {
	// Register adds a provider. Returns an error if the scheme is already
	// registered.
	Register(provider Provider) error

	// Resolve routes reference to its provider and returns the resolved
	// value. Accepts both "scheme:key" and the legacy "${KEY}" env syntax.
	Resolve(ctx context.Context, reference string) (string, error)

	// GetProvider returns the provider registered for scheme, or nil.
	GetProvider(scheme string) Provider
}
