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

// Package config resolves the worker's settings from a config file, flags,
// and environment, and persists them back to disk.
package config

// Config is the on-disk settings.yaml shape. It is loaded once at startup
// and handed to the worker as plain values (the arguments and options of
// worker.New, see internal/worker/options.go) - never consulted as a
// package-level global afterward.
type Config struct {
	Version int `yaml:"version" json:"version"`

	Pool PoolConfig `yaml:"pool" json:"pool"`
	Poll PollConfig `yaml:"poll" json:"poll"`
	API  APIConfig  `yaml:"api" json:"api"`
	Log  LogConfig  `yaml:"log" json:"log"`
}

// PoolConfig identifies the work pool this worker polls and how it
// identifies itself to the orchestration server.
type PoolConfig struct {
	Name             string `yaml:"name" json:"name"`
	WorkerNamePrefix string `yaml:"worker_name_prefix,omitempty" json:"worker_name_prefix,omitempty"`
	WorkerType       string `yaml:"worker_type" json:"worker_type"`
	ConcurrencyLimit int    `yaml:"concurrency_limit" json:"concurrency_limit"`
}

// PollConfig controls the worker's polling and heartbeat cadence.
type PollConfig struct {
	IntervalSeconds     int `yaml:"interval_seconds" json:"interval_seconds"`
	PrefetchSeconds     int `yaml:"prefetch_seconds" json:"prefetch_seconds"`
	HeartbeatSeconds    int `yaml:"heartbeat_seconds" json:"heartbeat_seconds"`
	QueryChunkSize      int `yaml:"query_chunk_size,omitempty" json:"query_chunk_size,omitempty"`
	ConnectTimeoutSecs  int `yaml:"connect_timeout_seconds,omitempty" json:"connect_timeout_seconds,omitempty"`
}

// APIConfig addresses the orchestration server this worker talks to.
type APIConfig struct {
	BaseURL string `yaml:"base_url" json:"base_url"`
	Key     string `yaml:"key,omitempty" json:"key,omitempty"`
}

// LogConfig controls the worker's structured logging output.
type LogConfig struct {
	Level  string `yaml:"level" json:"level"`
	Format string `yaml:"format" json:"format"`
}

// Default returns a Config with every field set to its documented default.
func Default() *Config {
	return &Config{
		Version: 1,
		Pool: PoolConfig{
			WorkerType:       "process",
			ConcurrencyLimit: 10,
		},
		Poll: PollConfig{
			IntervalSeconds:    15,
			PrefetchSeconds:    10,
			HeartbeatSeconds:   30,
			QueryChunkSize:     100,
			ConnectTimeoutSecs: 10,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// applyDefaults fills in zero-valued fields with their documented defaults,
// so a partially-specified settings.yaml (or one written by an older
// version) still produces a fully usable Config.
func (c *Config) applyDefaults() {
	d := Default()

	if c.Version == 0 {
		c.Version = d.Version
	}
	if c.Pool.WorkerType == "" {
		c.Pool.WorkerType = d.Pool.WorkerType
	}
	if c.Pool.ConcurrencyLimit == 0 {
		c.Pool.ConcurrencyLimit = d.Pool.ConcurrencyLimit
	}
	if c.Poll.IntervalSeconds == 0 {
		c.Poll.IntervalSeconds = d.Poll.IntervalSeconds
	}
	if c.Poll.PrefetchSeconds == 0 {
		c.Poll.PrefetchSeconds = d.Poll.PrefetchSeconds
	}
	if c.Poll.HeartbeatSeconds == 0 {
		c.Poll.HeartbeatSeconds = d.Poll.HeartbeatSeconds
	}
	if c.Poll.QueryChunkSize == 0 {
		c.Poll.QueryChunkSize = d.Poll.QueryChunkSize
	}
	if c.Poll.ConnectTimeoutSecs == 0 {
		c.Poll.ConnectTimeoutSecs = d.Poll.ConnectTimeoutSecs
	}
	if c.Log.Level == "" {
		c.Log.Level = d.Log.Level
	}
	if c.Log.Format == "" {
		c.Log.Format = d.Log.Format
	}
}
