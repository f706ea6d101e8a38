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

package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefault(t *testing.T) {
	d := Default()
	assert.Equal(t, 1, d.Version)
	assert.Equal(t, "process", d.Pool.WorkerType)
	assert.Equal(t, 10, d.Pool.ConcurrencyLimit)
	assert.Equal(t, 15, d.Poll.IntervalSeconds)
	assert.Equal(t, "info", d.Log.Level)
	assert.Equal(t, "text", d.Log.Format)
}

func TestApplyDefaults_FillsZeroValuesOnly(t *testing.T) {
	c := &Config{
		Pool: PoolConfig{Name: "nightly-etl", ConcurrencyLimit: 3},
		Log:  LogConfig{Level: "debug"},
	}
	c.applyDefaults()

	// Explicitly set fields are preserved.
	assert.Equal(t, "nightly-etl", c.Pool.Name)
	assert.Equal(t, 3, c.Pool.ConcurrencyLimit)
	assert.Equal(t, "debug", c.Log.Level)

	// Zero-valued fields pick up documented defaults.
	assert.Equal(t, 1, c.Version)
	assert.Equal(t, "process", c.Pool.WorkerType)
	assert.Equal(t, 15, c.Poll.IntervalSeconds)
	assert.Equal(t, 10, c.Poll.PrefetchSeconds)
	assert.Equal(t, 30, c.Poll.HeartbeatSeconds)
	assert.Equal(t, 100, c.Poll.QueryChunkSize)
	assert.Equal(t, 10, c.Poll.ConnectTimeoutSecs)
	assert.Equal(t, "text", c.Log.Format)
}

func TestApplyDefaults_OnZeroValueConfig(t *testing.T) {
	c := &Config{}
	c.applyDefaults()
	assert.Equal(t, *Default(), *c)
}
