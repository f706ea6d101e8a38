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

import (
	"fmt"
	"regexp"

	workerrors "github.com/tombee/flowworker/pkg/errors"
)

// BlockReferenceResolver resolves an opaque block-document reference (a
// secret-like indirection) to its concrete value. Injected so the core
// never knows how references are stored.
type BlockReferenceResolver interface {
	Resolve(reference string) (any, error)
}

var placeholderPattern = regexp.MustCompile(`\{\{\s*([a-zA-Z0-9_.]+)\s*\}\}`)

// RenderTemplate implements the pure function described in §4.5: it starts
// from schema defaults, overlays caller-supplied values, resolves
// block-document references via resolver, and substitutes the result into
// jobConfigTemplate's placeholder tree ("{{ name }}" form, with per-property
// overrides via properties[k].template).
func RenderTemplate(jobConfigTemplate map[string]any, variablesSchema map[string]any, overrides map[string]any, resolver BlockReferenceResolver) (map[string]any, error) {
	values := schemaDefaults(variablesSchema)
	for k, v := range overrides {
		values[k] = v
	}

	resolved := make(map[string]any, len(values))
	for k, v := range values {
		if ref, ok := asBlockReference(v); ok {
			value, err := resolver.Resolve(ref)
			if err != nil {
				return nil, workerrors.Wrapf(err, "resolving block reference for variable %q", k)
			}
			resolved[k] = value
			continue
		}
		resolved[k] = v
	}

	return substitute(jobConfigTemplate, resolved, propertyTemplates(variablesSchema)), nil
}

// schemaDefaults extracts variables.properties[*].default from a JSON
// Schema-shaped map.
func schemaDefaults(schema map[string]any) map[string]any {
	out := make(map[string]any)
	props, _ := schema["properties"].(map[string]any)
	for name, rawProp := range props {
		prop, ok := rawProp.(map[string]any)
		if !ok {
			continue
		}
		if def, ok := prop["default"]; ok {
			out[name] = def
		}
	}
	return out
}

// propertyTemplates extracts variables.properties[k].template, the
// per-property override that replaces the default "{{ k }}" placeholder
// substitution for variable k with a caller-authored template string
// (itself substituted against the same resolved values, so it may
// reference other variables or wrap k's value in a larger expression).
func propertyTemplates(schema map[string]any) map[string]string {
	out := make(map[string]string)
	props, _ := schema["properties"].(map[string]any)
	for name, rawProp := range props {
		prop, ok := rawProp.(map[string]any)
		if !ok {
			continue
		}
		if tmpl, ok := prop["template"].(string); ok && tmpl != "" {
			out[name] = tmpl
		}
	}
	return out
}

// asBlockReference reports whether v is the opaque indirection form
// {"$ref": "block-document:<id>"} that delegated resolution handles.
func asBlockReference(v any) (string, bool) {
	m, ok := v.(map[string]any)
	if !ok {
		return "", false
	}
	ref, ok := m["$ref"].(string)
	return ref, ok
}

// substitute walks node, replacing any string leaf that matches the
// placeholder pattern with the corresponding resolved value (or, if
// overrides names a per-property template for that placeholder, with the
// result of substituting overrides[name] instead). Non-string, non-map,
// non-slice leaves pass through unchanged.
func substitute(node any, values map[string]any, overrides map[string]string) map[string]any {
	result, _ := substituteValue(node, values, overrides, map[string]bool{}).(map[string]any)
	return result
}

func substituteValue(node any, values map[string]any, overrides map[string]string, visiting map[string]bool) any {
	switch v := node.(type) {
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, val := range v {
			out[k] = substituteValue(val, values, overrides, visiting)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, val := range v {
			out[i] = substituteValue(val, values, overrides, visiting)
		}
		return out
	case string:
		if m := placeholderPattern.FindStringSubmatch(v); m != nil && placeholderPattern.FindString(v) == v {
			name := m[1]
			if resolved, ok := resolveName(name, values, overrides, visiting); ok {
				return resolved
			}
			return nil
		}
		return placeholderPattern.ReplaceAllStringFunc(v, func(match string) string {
			name := placeholderPattern.FindStringSubmatch(match)[1]
			if resolved, ok := resolveName(name, values, overrides, visiting); ok {
				return fmt.Sprintf("%v", resolved)
			}
			return ""
		})
	default:
		return v
	}
}

// resolveName resolves a single placeholder name, preferring its
// per-property template override (recursively substituted against the
// same values) over the raw resolved value. visiting guards against a
// template that (directly or transitively) references its own property.
func resolveName(name string, values map[string]any, overrides map[string]string, visiting map[string]bool) (any, bool) {
	if tmpl, ok := overrides[name]; ok && !visiting[name] {
		visiting[name] = true
		result := substituteValue(tmpl, values, overrides, visiting)
		delete(visiting, name)
		return result, true
	}
	resolved, ok := values[name]
	return resolved, ok
}
