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

package pools

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/tombee/flowworker/internal/apiclient"
	"github.com/tombee/flowworker/internal/cli"
	"github.com/tombee/flowworker/internal/cli/prompt"
	"github.com/tombee/flowworker/internal/config"
)

// NewCreateCommand creates the "pools create" command.
func NewCreateCommand() *cobra.Command {
	var (
		name        string
		poolType    string
		interactive bool
	)

	cmd := &cobra.Command{
		Use:   "create [name]",
		Short: "Register a new work pool on the orchestration server",
		Long: `create registers a work pool so a worker can poll it.

Direct mode (for scripts):
  flowworker pools create nightly-etl --type process

Interactive mode (default when no name is given):
  flowworker pools create`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				name = args[0]
			}
			if name == "" {
				interactive = true
			}
			if interactive {
				return runInteractive(cmd.Context())
			}
			if poolType == "" {
				return fmt.Errorf("pools create: --type is required in direct mode")
			}
			return runDirect(cmd.Context(), name, poolType)
		},
	}

	cmd.Flags().StringVar(&poolType, "type", "", "Infrastructure backend type (process, ec2)")
	cmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "Use interactive mode")

	return cmd
}

func buildClient() (apiclient.Client, error) {
	cfg, err := config.LoadSettings(cli.GetConfigPath())
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return apiclient.NewHTTPClient(apiclient.HTTPClientConfig{
		BaseURL: cfg.API.BaseURL,
		APIKey:  cfg.API.Key,
	})
}

func runDirect(ctx context.Context, name, poolType string) error {
	client, err := buildClient()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	pool, err := client.CreateWorkPool(ctx, name, poolType)
	if err != nil {
		return fmt.Errorf("pools create: %w", err)
	}

	if cli.GetJSON() {
		return json.NewEncoder(os.Stdout).Encode(pool)
	}
	fmt.Printf("Created work pool %q (type %q)\n", pool.Name, pool.Type)
	fmt.Printf("Start polling it with:\n  flowworker start --pool %s\n", pool.Name)
	return nil
}

func runInteractive(ctx context.Context) error {
	p := prompt.NewSurveyPrompter(term.IsTerminal(int(os.Stdin.Fd())))
	if !p.IsInteractive() {
		return fmt.Errorf("pools create: interactive mode not available (not a TTY)")
	}

	fmt.Println("Register a new work pool")
	fmt.Println()

	name, err := p.PromptString(ctx, "Pool name", "Unique name for this work pool", "")
	if err != nil {
		return fmt.Errorf("pools create: %w", err)
	}
	if name == "" {
		return fmt.Errorf("pools create: pool name is required")
	}

	poolType, err := p.PromptEnum(ctx, "Infrastructure type", "How flow runs from this pool are launched",
		[]string{"process", "ec2"}, "process")
	if err != nil {
		return fmt.Errorf("pools create: %w", err)
	}

	return runDirect(ctx, name, poolType)
}
