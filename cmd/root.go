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

// Package cmd wires the xql CLI: a thin scripting surface over the parser,
// executor, and source registry.
package cmd

import (
	"context"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/wirednil/noctra-sub000/internal/log"
)

// Command is the root "xql" command. It owns the logging flags shared by
// every subcommand.
type Command struct {
	*cobra.Command

	logFormat string
	logLevel  string

	outWriter io.Writer
	errWriter io.Writer

	logger log.Logger
}

// NewCommand builds the root command with "run" wired in as its only
// subcommand in this milestone.
func NewCommand() *Command {
	c := &Command{outWriter: os.Stdout, errWriter: os.Stderr}

	c.Command = &cobra.Command{
		Use:           "xql",
		Short:         "Run XQL scripts against file, relational, and analytical sources",
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	c.registerLoggingFlags(c.PersistentFlags())

	c.AddCommand(newRunCommand(c))
	return c
}

func (c *Command) registerLoggingFlags(flags *pflag.FlagSet) {
	flags.StringVar(&c.logFormat, "log-format", "standard", `logging format, either "standard" or "json"`)
	flags.StringVar(&c.logLevel, "log-level", log.Info, "minimum log severity to emit")
}

// Setup constructs the logger from the root command's flags. It returns a
// context plus a shutdown func so a future embedding can flush telemetry,
// even though this CLI has no tracer exporter to flush yet.
func (c *Command) Setup(ctx context.Context) (context.Context, func(context.Context) error, error) {
	logger, err := log.NewLogger(c.logFormat, c.logLevel, c.outWriter, c.errWriter)
	if err != nil {
		return ctx, func(context.Context) error { return nil }, err
	}
	c.logger = logger
	return ctx, func(context.Context) error { return nil }, nil
}

func (c *Command) Logger() log.Logger { return c.logger }

func (c *Command) Out() io.Writer { return c.outWriter }

// Tracer returns a no-op tracer; the CLI has nowhere to export spans to, but
// every source adapter expects one to start its connection span against.
func (c *Command) Tracer() trace.Tracer { return otel.Tracer("xql-cli") }

// Execute runs the command tree, the entry point main() calls.
func Execute() error {
	return NewCommand().Command.Execute()
}
