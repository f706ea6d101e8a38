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

import (
	"context"
	"fmt"
	"strings"
)

// DefaultRegistry routes a reference to the Provider registered for its
// scheme. It accepts both "scheme:key" and the legacy "${KEY}" env syntax.
type DefaultRegistry struct {
	providers map[string]Provider
}

// NewDefaultRegistry returns an empty DefaultRegistry.
func NewDefaultRegistry() *DefaultRegistry {
	return &DefaultRegistry{providers: make(map[string]Provider)}
}

func (r *DefaultRegistry) Register(provider Provider) error {
	scheme := provider.Scheme()
	if _, exists := r.providers[scheme]; exists {
		return fmt.Errorf("blockref: provider for scheme %q already registered", scheme)
	}
	r.providers[scheme] = provider
	return nil
}

func (r *DefaultRegistry) GetProvider(scheme string) Provider {
	return r.providers[scheme]
}

func (r *DefaultRegistry) Resolve(ctx context.Context, reference string) (string, error) {
	scheme, key := parseReference(reference)
	provider, ok := r.providers[scheme]
	if !ok {
		return "", NewValueResolutionError(ErrorCategoryNotFound, reference, scheme,
			fmt.Sprintf("no provider registered for scheme %q", scheme), nil)
	}
	return provider.Resolve(ctx, key)
}

func parseReference(reference string) (scheme, key string) {
	if strings.HasPrefix(reference, "${") && strings.HasSuffix(reference, "}") {
		return "env", strings.TrimSuffix(strings.TrimPrefix(reference, "${"), "}")
	}
	scheme, key, found := strings.Cut(reference, ":")
	if !found {
		return "plain", reference
	}
	return scheme, key
}
