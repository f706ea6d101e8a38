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

// Package start implements "flowworker start", the long-running poll loop.
package start

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"

	"github.com/tombee/flowworker/internal/apiclient"
	"github.com/tombee/flowworker/internal/binding"
	"github.com/tombee/flowworker/internal/cli"
	"github.com/tombee/flowworker/internal/config"
	"github.com/tombee/flowworker/internal/events"
	"github.com/tombee/flowworker/internal/infra"
	"github.com/tombee/flowworker/internal/infra/ec2"
	"github.com/tombee/flowworker/internal/infra/process"
	"github.com/tombee/flowworker/internal/log"
	"github.com/tombee/flowworker/internal/telemetry"
	"github.com/tombee/flowworker/internal/worker"
	"github.com/tombee/flowworker/internal/workermetrics"
	"github.com/tombee/flowworker/pkg/blockref"
)

// NewCommand builds the "start" command.
func NewCommand() *cobra.Command {
	var (
		poolName       string
		workerName     string
		workerType     string
		metricsAddr    string
		createPoolFlag bool
	)

	cmd := &cobra.Command{
		Use:   "start",
		Short: "Poll a work pool and submit scheduled flow runs",
		Long: `start loads worker settings from the config file (or --config),
connects to the orchestration API, and polls the named work pool on a
fixed interval, admitting and submitting scheduled flow runs until
interrupted.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), runOptions{
				poolName:    poolName,
				workerName:  workerName,
				workerType:  workerType,
				metricsAddr: metricsAddr,
				createPool:  createPoolFlag,
				configPath:  cli.GetConfigPath(),
			})
		},
	}

	cmd.Flags().StringVar(&poolName, "pool", "", "Work pool to poll (overrides config)")
	cmd.Flags().StringVar(&workerName, "name", "", "Worker name (default: randomly generated)")
	cmd.Flags().StringVar(&workerType, "type", "", "Work pool type (overrides config)")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", ":9100", "Address to serve Prometheus /metrics on")
	cmd.Flags().BoolVar(&createPoolFlag, "create-pool", false, "Create the work pool if it does not exist")

	return cmd
}

type runOptions struct {
	poolName    string
	workerName  string
	workerType  string
	metricsAddr string
	createPool  bool
	configPath  string
}

// statusResponse is served on /status alongside /metrics, for "flowworker
// status" to poll and render as a timeline.
type statusResponse struct {
	Pool    string                    `json:"pool"`
	Worker  string                    `json:"worker"`
	History []worker.SubmissionRecord `json:"history"`
}

func run(ctx context.Context, opts runOptions) error {
	cfg, err := config.LoadSettings(opts.configPath)
	if err != nil {
		return fmt.Errorf("start: loading config: %w", err)
	}
	if opts.poolName != "" {
		cfg.Pool.Name = opts.poolName
	}
	if opts.workerType != "" {
		cfg.Pool.WorkerType = opts.workerType
	}
	if cfg.Pool.Name == "" {
		return fmt.Errorf("start: pool name is required (set pool.name in config or pass --pool)")
	}

	logCfg := log.FromEnv()
	if cfg.Log.Level != "" {
		logCfg.Level = cfg.Log.Level
	}
	if cfg.Log.Format != "" {
		logCfg.Format = log.Format(cfg.Log.Format)
	}
	logger := log.New(logCfg)
	slog.SetDefault(logger)

	if warning, err := apiclient.CheckAPIKeyExpiry(cfg.API.Key, 7*24*time.Hour); err != nil {
		logger.Warn("could not inspect API key expiry", log.Error(err))
	} else if warning != nil {
		if warning.Expired {
			logger.Error("orchestration API key has expired", slog.Time("expired_at", warning.ExpiresAt))
		} else {
			logger.Warn("orchestration API key expires soon", slog.Time("expires_at", warning.ExpiresAt))
		}
	}

	client, err := apiclient.NewHTTPClient(apiclient.HTTPClientConfig{
		BaseURL:           cfg.API.BaseURL,
		APIKey:            cfg.API.Key,
		RequestsPerSecond: 20,
		Burst:             5,
	})
	if err != nil {
		return fmt.Errorf("start: building API client: %w", err)
	}

	backends := infra.NewRegistry()
	backends.Register("process", process.New)
	backends.Register("ec2", func() (infra.Backend, error) { return ec2.New(ctx) })

	registry := blockref.NewDefaultRegistry()
	registry.Register(blockref.NewEnvProvider(true, nil))
	resolver := binding.NewResolver(registry, true, nil)

	tracerProvider, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Kind:        telemetry.ExporterKind(os.Getenv("FLOWWORKER_TRACE_EXPORTER")),
		ServiceName: "flowworker",
	})
	if err != nil {
		return fmt.Errorf("start: building tracer provider: %w", err)
	}
	otel.SetTracerProvider(tracerProvider)
	defer tracerProvider.Shutdown(context.Background())

	meterProvider, err := workermetrics.NewMeterProvider()
	if err != nil {
		return fmt.Errorf("start: building meter provider: %w", err)
	}
	defer meterProvider.Shutdown(context.Background())
	recorder, err := workermetrics.New(meterProvider.Meter("flowworker"))
	if err != nil {
		return fmt.Errorf("start: building metrics recorder: %w", err)
	}

	w, err := worker.New(cfg.Pool.Name, cfg.Pool.WorkerType, opts.workerName, client, logger,
		worker.WithLimit(cfg.Pool.ConcurrencyLimit),
		worker.WithPrefetchSeconds(cfg.Poll.PrefetchSeconds),
		worker.WithCreatePoolIfNotFound(opts.createPool),
		worker.WithBackendRegistry(backends),
		worker.WithResolver(resolver),
		worker.WithEventSink(events.NewLogSink(logger)),
		worker.WithTracer(tracerProvider.Tracer("flowworker/worker")),
	)
	if err != nil {
		return fmt.Errorf("start: constructing worker: %w", err)
	}
	if err := w.Setup(ctx); err != nil {
		return fmt.Errorf("start: worker setup: %w", err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/status", func(rw http.ResponseWriter, r *http.Request) {
		rw.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(rw).Encode(statusResponse{
			Pool:    cfg.Pool.Name,
			Worker:  w.Name,
			History: w.History(),
		}); err != nil {
			logger.Warn("failed to encode status response", log.Error(err))
		}
	})
	metricsServer := &http.Server{Addr: opts.metricsAddr, Handler: mux}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("metrics server failed", log.Error(err))
		}
	}()
	defer metricsServer.Shutdown(context.Background())

	signalCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	interval := time.Duration(cfg.Poll.IntervalSeconds) * time.Second
	if interval <= 0 {
		interval = 15 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	logger.Info("worker started", slog.String(log.PoolKey, cfg.Pool.Name), slog.String(log.WorkerNameKey, w.Name))

pollLoop:
	for {
		start := time.Now()
		admitted, err := w.GetAndSubmit(signalCtx)
		recorder.RecordPollCycle(signalCtx, cfg.Pool.Name, time.Since(start).Seconds(), len(admitted))
		if err != nil {
			logger.Warn("poll cycle failed", log.Error(err))
		}

		select {
		case <-signalCtx.Done():
			break pollLoop
		case <-ticker.C:
		}
	}

	logger.Info("shutting down, waiting for in-flight submissions")
	teardownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return w.Teardown(teardownCtx)
}
