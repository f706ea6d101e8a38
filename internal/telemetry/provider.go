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

package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// ExporterKind selects which trace exporter NewTracerProvider wires up.
type ExporterKind string

const (
	ExporterConsole  ExporterKind = "console"
	ExporterOTLPGRPC ExporterKind = "otlp-grpc"
	ExporterOTLPHTTP ExporterKind = "otlp-http"
	ExporterNone     ExporterKind = "none"
)

// Config selects an exporter and the endpoint/service metadata to report
// spans under.
type Config struct {
	Kind        ExporterKind
	ServiceName string
	OTLP        OTLPConfig
}

// NewTracerProvider builds a trace.TracerProvider wired to the exporter
// named by cfg.Kind. ExporterNone returns a provider with no exporter
// registered (spans are created but dropped), for running without
// tracing configured.
func NewTracerProvider(ctx context.Context, cfg Config) (*trace.TracerProvider, error) {
	res, err := resource.New(ctx, resource.WithAttributes(semconv.ServiceName(cfg.ServiceName)))
	if err != nil {
		return nil, fmt.Errorf("telemetry: building resource: %w", err)
	}

	var exporter trace.SpanExporter
	switch cfg.Kind {
	case ExporterConsole:
		exporter, err = NewConsoleExporter(ConsoleConfig{PrettyPrint: true})
	case ExporterOTLPGRPC:
		exporter, err = NewOTLPGRPCExporter(ctx, cfg.OTLP)
	case ExporterOTLPHTTP:
		exporter, err = NewOTLPHTTPExporter(ctx, cfg.OTLP)
	case ExporterNone, "":
		return trace.NewTracerProvider(trace.WithResource(res)), nil
	default:
		return nil, fmt.Errorf("telemetry: unknown exporter kind %q", cfg.Kind)
	}
	if err != nil {
		return nil, err
	}

	return trace.NewTracerProvider(
		trace.WithBatcher(exporter),
		trace.WithResource(res),
	), nil
}
