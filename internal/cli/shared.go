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
	"fmt"
	"os"
)

// JSONResponse is the envelope every --json command output embeds.
type JSONResponse struct {
	Version string `json:"version"`
	Command string `json:"command"`
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

var (
	flagVerbose bool
	flagQuiet   bool
	flagJSON    bool
	flagConfig  string

	buildVersion string
	buildCommit  string
	buildDate    string
)

// registerFlagPointers returns the addresses backing the root command's
// persistent flags, mirroring the way the root command's global state is
// threaded into subcommands without a package-level config object.
func registerFlagPointers() (*bool, *bool, *bool, *string) {
	return &flagVerbose, &flagQuiet, &flagJSON, &flagConfig
}

// GetJSON reports whether the --json flag was set on the root command.
func GetJSON() bool {
	return flagJSON
}

// GetVerbose reports whether the --verbose flag was set on the root command.
func GetVerbose() bool {
	return flagVerbose
}

// GetQuiet reports whether the --quiet flag was set on the root command.
func GetQuiet() bool {
	return flagQuiet
}

// GetConfigPath returns the --config flag value, empty if unset.
func GetConfigPath() string {
	return flagConfig
}

// setVersion records build metadata reported by the version command.
func setVersion(v, c, b string) {
	buildVersion, buildCommit, buildDate = v, c, b
}

func getVersion() (string, string, string) {
	return buildVersion, buildCommit, buildDate
}

// exitError is returned by command handlers that already reported their
// failure and just need a specific process exit code.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

// NewExitError wraps err so HandleExitError exits with code instead of 1.
func NewExitError(err error, code int) error {
	return &exitError{code: code, err: err}
}

// handleExitError prints err to stderr and exits with its code, or 1.
func handleExitError(err error) {
	if err == nil {
		return
	}
	code := 1
	var ee *exitError
	if as, ok := err.(*exitError); ok {
		ee = as
	}
	if ee != nil {
		code = ee.code
	}
	fmt.Fprintln(os.Stderr, "error:", err)
	os.Exit(code)
}
