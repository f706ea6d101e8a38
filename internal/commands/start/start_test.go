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

package start

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCommand_FlagDefaults(t *testing.T) {
	cmd := NewCommand()
	assert.Equal(t, "start", cmd.Use)

	metricsAddr := cmd.Flags().Lookup("metrics-addr")
	require.NotNil(t, metricsAddr)
	assert.Equal(t, ":9100", metricsAddr.DefValue)

	createPool := cmd.Flags().Lookup("create-pool")
	require.NotNil(t, createPool)
	assert.Equal(t, "false", createPool.DefValue)
}

func TestRun_RequiresPoolName(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "missing-config.yaml")

	err := run(context.Background(), runOptions{configPath: cfgPath})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pool name is required")
}

func TestRun_PoolFlagOverridesEmptyConfigName(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "missing-config.yaml")

	// Still fails, but past the pool-name check: the API client build
	// fails first since BaseURL is unset, proving --pool took effect.
	err := run(context.Background(), runOptions{configPath: cfgPath, poolName: "nightly-etl"})
	require.Error(t, err)
	assert.NotContains(t, err.Error(), "pool name is required")
}
