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

package version

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tombee/flowworker/internal/cli"
)

func TestNewCommand_Metadata(t *testing.T) {
	cmd := NewCommand()
	assert.Equal(t, "version", cmd.Use)
	assert.NotEmpty(t, cmd.Short)
}

func TestRun_TextOutput(t *testing.T) {
	cli.SetVersion("1.2.3", "abc1234", "2026-01-01")

	cmd := NewCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)

	require.NoError(t, cmd.Execute())

	text := out.String()
	assert.Contains(t, text, "flowworker version 1.2.3")
	assert.Contains(t, text, "commit:     abc1234")
	assert.Contains(t, text, "build date: 2026-01-01")
}

func TestRun_TextOutput_LinesInOrder(t *testing.T) {
	cli.SetVersion("9.9.9", "deadbee", "2026-06-15")

	cmd := NewCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	require.NoError(t, cmd.Execute())

	lines := strings.Split(strings.TrimRight(out.String(), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "flowworker version"))
}
