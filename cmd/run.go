// Copyright 2026 Google LLC
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/wirednil/noctra-sub000/internal/executor"
	"github.com/wirednil/noctra-sub000/internal/session"
	"github.com/wirednil/noctra-sub000/internal/sources"
	"github.com/wirednil/noctra-sub000/internal/sources/analytical"
	"github.com/wirednil/noctra-sub000/internal/xql"

	// Native RDBMS source kinds register their config factories on import so
	// USE ... OPTIONS(kind=...) can reach them.
	_ "github.com/wirednil/noctra-sub000/internal/sources/mysqlsource"
	_ "github.com/wirednil/noctra-sub000/internal/sources/postgressource"
	_ "github.com/wirednil/noctra-sub000/internal/sources/sqlitesource"
)

var continueOnError bool

// newRunCommand builds "xql run <script-file>": parse the script, feed it
// statement-by-statement to a fresh executor/session pair, and print each
// ResultSet's ToTable rendering.
func newRunCommand(root *Command) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <script-file>",
		Short: "Execute an XQL script file against a fresh session",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			return runScript(c, args[0], root)
		},
	}
	cmd.Flags().BoolVar(&continueOnError, "continue-on-error", false,
		"keep executing remaining statements after one fails")
	return cmd
}

func runScript(c *cobra.Command, path string, root *Command) error {
	ctx, shutdown, err := root.Setup(c.Context())
	if err != nil {
		return err
	}
	defer func() { _ = shutdown(ctx) }()

	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading script: %w", err)
	}

	tree, err := xql.Parse(string(raw))
	if err != nil {
		return fmt.Errorf("parsing script: %w", err)
	}
	for _, warning := range tree.Metadata.Warnings {
		root.Logger().WarnContext(ctx, "parser warning", "warning", warning)
	}

	registry := sources.NewRegistry()
	analyticalSrc, err := analytical.NewInMemoryWithConfig(analytical.Local(0))
	if err != nil {
		return fmt.Errorf("starting analytical backend: %w", err)
	}
	registry.Register("analytical", analyticalSrc)

	execConfig := executor.DefaultConfig()
	execConfig.ContinueOnError = continueOnError
	exec := executor.New(registry, root.Tracer(), root.Logger(), execConfig)
	sess := session.New()

	for _, stmt := range tree.Statements {
		result, err := exec.Dispatch(ctx, sess, stmt)
		if err != nil {
			fmt.Fprintf(root.Out(), "❌ line %d: %v\n", stmt.Line, err)
			if !exec.Config().ContinueOnError {
				return err
			}
			continue
		}
		if result.ColumnCount() > 0 {
			fmt.Fprintln(root.Out(), result.ToTable())
		}
	}
	return nil
}
