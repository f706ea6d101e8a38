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

package cli

import (
	"github.com/spf13/cobra"
)

// SetVersion sets the version information (called from main)
func SetVersion(v, c, b string) {
	setVersion(v, c, b)
}

// NewRootCommand creates the root Cobra command for the flow-run worker CLI.
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "flowworker",
		Short: "flowworker polls a work pool and submits flow runs for execution",
		Long: `flowworker is the agent that polls a named work pool on the
orchestration server, admits scheduled flow runs under a concurrency
budget, and dispatches each one to an infrastructure backend.

Run 'flowworker pools create' to register a new work pool interactively.
Run 'flowworker start' to begin polling.`,
		SilenceUsage:  true, // Don't show usage on errors
		SilenceErrors: true, // We handle errors ourselves for proper exit codes
	}

	verbose, quiet, json, config := registerFlagPointers()

	// Add global flags
	cmd.PersistentFlags().BoolVarP(verbose, "verbose", "v", false, "Enable verbose output")
	cmd.PersistentFlags().BoolVarP(quiet, "quiet", "q", false, "Suppress non-error output")
	cmd.PersistentFlags().BoolVar(json, "json", false, "Output in JSON format")
	cmd.PersistentFlags().StringVar(config, "config", "", "Path to config file (default: ~/.config/flowworker/settings.yaml)")

	return cmd
}

// GetVersion returns version information
func GetVersion() (string, string, string) {
	return getVersion()
}

// HandleExitError handles exit errors with proper exit codes
func HandleExitError(err error) {
	handleExitError(err)
}
