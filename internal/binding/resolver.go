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

// Package binding resolves block-document references embedded in a flow
// run's job configuration fields.
//
// A base job template can carry either a literal value or a reference string
// such as "env:AWS_SECRET_KEY" or "${AWS_SECRET_KEY}" for a field that must
// come from a secret at submission time rather than live in the template
// itself. The Resolver walks a rendered job configuration's extension
// fields and replaces every reference it finds with the provider's resolved
// value, following a fixed precedence order:
//
//  1. work pool override (set on the pool's base job template)
//  2. the flow run's own job variable (set on the deployment/run)
//  3. environment variable, if inherit_env is enabled
//  4. literal value as written (not a reference)
//  5. error: reference present but no provider registered for its scheme
package binding

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/tombee/flowworker/pkg/blockref"
)

// Resolver resolves block references inside job configuration fields.
type Resolver struct {
	registry   blockref.Registry
	inheritEnv bool
	allowlist  []string
}

// NewResolver creates a Resolver backed by registry. inheritEnv controls
// whether "${VAR}" / "env:VAR" references may fall back to the process
// environment when the registry has no "env" provider registered;
// allowlist, if non-empty, restricts which environment variable names may
// be read this way.
func NewResolver(registry blockref.Registry, inheritEnv bool, allowlist []string) *Resolver {
	return &Resolver{registry: registry, inheritEnv: inheritEnv, allowlist: allowlist}
}

// FieldSource records where a resolved field's value came from, for debug
// logging.
type FieldSource string

const (
	SourcePoolOverride FieldSource = "pool_override"
	SourceRunValue     FieldSource = "run_value"
	SourceEnvironment  FieldSource = "environment"
	SourceLiteral      FieldSource = "literal"
)

// Resolved is a single resolved field.
type Resolved struct {
	Value  any
	Source FieldSource
}

// ResolveFields resolves every field in runValues against poolOverrides and
// the registered providers. Fields present in poolOverrides always win over
// the same field in runValues, mirroring the work pool's base job template
// taking precedence over a deployment's job variables.
func (r *Resolver) ResolveFields(ctx context.Context, runValues, poolOverrides map[string]any) (map[string]Resolved, error) {
	merged := make(map[string]any, len(runValues)+len(poolOverrides))
	sources := make(map[string]FieldSource, len(merged))
	for k, v := range runValues {
		merged[k] = v
		sources[k] = SourceRunValue
	}
	for k, v := range poolOverrides {
		merged[k] = v
		sources[k] = SourcePoolOverride
	}

	resolved := make(map[string]Resolved, len(merged))
	for key, value := range merged {
		str, ok := value.(string)
		if !ok {
			resolved[key] = Resolved{Value: value, Source: sources[key]}
			continue
		}

		if !isReference(str) {
			resolved[key] = Resolved{Value: str, Source: sources[key]}
			continue
		}

		val, source, err := r.resolveReference(ctx, str, sources[key])
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", key, err)
		}
		resolved[key] = Resolved{Value: val, Source: source}
	}

	return resolved, nil
}

func (r *Resolver) resolveReference(ctx context.Context, reference string, source FieldSource) (string, FieldSource, error) {
	scheme, key := splitReference(reference)

	if r.registry != nil {
		if provider := r.registry.GetProvider(scheme); provider != nil {
			value, err := r.registry.Resolve(ctx, reference)
			if err != nil {
				return "", source, err
			}
			return value, source, nil
		}
	}

	if scheme == "env" && r.inheritEnv {
		if !r.envAllowed(key) {
			return "", source, blockref.NewValueResolutionError(
				blockref.ErrorCategoryAccessDenied, reference, "env",
				fmt.Sprintf("environment variable %q is not in the allowlist", key), nil)
		}
		if v, ok := os.LookupEnv(key); ok {
			return v, SourceEnvironment, nil
		}
		return "", source, blockref.NewValueResolutionError(
			blockref.ErrorCategoryNotFound, reference, "env",
			fmt.Sprintf("environment variable %q is not set", key), nil)
	}

	return "", source, blockref.NewValueResolutionError(
		blockref.ErrorCategoryNotFound, reference, scheme,
		fmt.Sprintf("no provider registered for scheme %q", scheme), nil)
}

// Resolve resolves a single block-document reference, satisfying
// worker.BlockReferenceResolver. It follows the same provider/environment
// precedence as ResolveFields but for one reference at a time, which is
// all the job-configuration template renderer needs.
func (r *Resolver) Resolve(reference string) (any, error) {
	value, _, err := r.resolveReference(context.Background(), reference, SourceLiteral)
	if err != nil {
		return nil, err
	}
	return value, nil
}

func (r *Resolver) envAllowed(name string) bool {
	if len(r.allowlist) == 0 {
		return true
	}
	for _, pattern := range r.allowlist {
		if matched, _ := pathMatch(pattern, name); matched {
			return true
		}
	}
	return false
}

// pathMatch supports a trailing "*" glob, the only pattern shape the
// allowlist needs (e.g. "FLOWWORKER_*").
func pathMatch(pattern, name string) (bool, error) {
	if strings.HasSuffix(pattern, "*") {
		return strings.HasPrefix(name, strings.TrimSuffix(pattern, "*")), nil
	}
	return pattern == name, nil
}

// isReference reports whether value looks like a block reference rather
// than a literal: "${VAR}" or "scheme:rest".
func isReference(value string) bool {
	if strings.HasPrefix(value, "${") && strings.HasSuffix(value, "}") {
		return true
	}
	if scheme, _, found := strings.Cut(value, ":"); found {
		switch scheme {
		case "env", "file", "vault", "block", "aws-secrets":
			return true
		}
	}
	return false
}

// splitReference extracts the scheme and key from a reference string.
func splitReference(reference string) (scheme, key string) {
	if strings.HasPrefix(reference, "${") && strings.HasSuffix(reference, "}") {
		return "env", strings.TrimSuffix(strings.TrimPrefix(reference, "${"), "}")
	}
	scheme, key, _ = strings.Cut(reference, ":")
	return scheme, key
}
