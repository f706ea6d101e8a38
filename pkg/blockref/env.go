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
	"os"
)

// EnvProvider resolves "env:VAR_NAME" references from the process
// environment, subject to an optional allowlist.
type EnvProvider struct {
	enabled   bool
	allowlist []string
}

// NewEnvProvider creates an EnvProvider. enabled gates all access; an empty
// allowlist with enabled true permits any variable name.
func NewEnvProvider(enabled bool, allowlist []string) *EnvProvider {
	return &EnvProvider{enabled: enabled, allowlist: allowlist}
}

func (p *EnvProvider) Scheme() string { return "env" }

func (p *EnvProvider) Resolve(_ context.Context, reference string) (string, error) {
	if !p.enabled {
		return "", NewValueResolutionError(ErrorCategoryAccessDenied, "env:"+reference, "env",
			"environment variable access is disabled", nil)
	}
	if len(p.allowlist) > 0 && !p.isAllowed(reference) {
		return "", NewValueResolutionError(ErrorCategoryAccessDenied, "env:"+reference, "env",
			"environment variable not in allowlist", nil)
	}
	value, ok := os.LookupEnv(reference)
	if !ok {
		return "", NewValueResolutionError(ErrorCategoryNotFound, "env:"+reference, "env",
			"environment variable not set", nil)
	}
	return value, nil
}

func (p *EnvProvider) isAllowed(name string) bool {
	for _, pattern := range p.allowlist {
		if pattern == name {
			return true
		}
		if len(pattern) > 0 && pattern[len(pattern)-1] == '*' &&
			len(name) >= len(pattern)-1 && name[:len(pattern)-1] == pattern[:len(pattern)-1] {
			return true
		}
	}
	return false
}
