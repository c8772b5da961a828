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

// Package cmd wires the mimir binary's cobra CLI: a root command
// carrying the shared configs/secrets/logging flags, and the serve,
// validate, query, describe, init, list, and create subcommands on top
// of internal/catalog, internal/engine, internal/server, and
// internal/mysqlproxy. Grounded on original_source/src/mimir/cli.py's
// command set and internal/cli/invoke's RootCommand wiring style
// (Setup returning a context and shutdown func, a Logger() accessor).
package cmd

import (
	"context"
	"os"
	"time"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"

	"github.com/spf13/cobra"

	"github.com/mimirdata/mimir/internal/catalog"
	"github.com/mimirdata/mimir/internal/engine"
	"github.com/mimirdata/mimir/internal/log"
)

// shutdownGracePeriod bounds how long serve waits for in-flight HTTP
// requests to finish once a shutdown signal arrives.
const shutdownGracePeriod = 10 * time.Second

// versionString is set at build time via -ldflags; it defaults to "dev"
// for local builds, matching the teacher's own version-stamping
// approach (a package var rather than baking the value into go.mod).
var versionString = "dev"

// Command wraps the root *cobra.Command together with the
// configuration every subcommand needs to build a catalog and engine:
// the configs/secrets paths and the logger, set up once in Setup and
// shared from there.
type Command struct {
	*cobra.Command

	configsPath   string
	secretsPath   string
	logLevel      string
	loggingFormat string

	logger   log.Logger
	provider *sdktrace.TracerProvider
}

// NewCommand builds the mimir root command and every subcommand.
func NewCommand() *Command {
	c := &Command{}
	root := &cobra.Command{
		Use:           "mimir",
		Short:         "Mimir: a semantic layer for data analytics",
		Version:       versionString,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&c.configsPath, "configs", "c", envOr("CONFIGS_PATH", "configs"), "path to the configs directory")
	flags.StringVarP(&c.secretsPath, "secrets", "s", envOr("SECRETS_PATH", "secrets"), "path to the secrets directory")
	flags.StringVar(&c.logLevel, "log-level", "info", "logging level (debug, info, warn, error)")
	flags.StringVar(&c.loggingFormat, "logging-format", "standard", "logging format (standard, json)")

	c.Command = root
	root.AddCommand(
		newServeCommand(c),
		newValidateCommand(c),
		newQueryCommand(c),
		newDescribeCommand(c),
		newInitCommand(),
		newListCommand(c),
		newCreateCommand(c),
	)
	return c
}

func envOr(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fallback
}

// Setup initializes the logger and tracer provider for this invocation
// and returns a shutdown func that flushes the tracer provider.
func (c *Command) Setup(ctx context.Context) (context.Context, func(context.Context) error, error) {
	logger, err := log.NewLogger(c.loggingFormat, c.logLevel, c.OutOrStdout(), c.ErrOrStderr())
	if err != nil {
		return ctx, nil, err
	}
	c.logger = logger
	c.provider = sdktrace.NewTracerProvider()
	shutdown := func(ctx context.Context) error {
		return c.provider.Shutdown(ctx)
	}
	return ctx, shutdown, nil
}

// Logger returns the logger built by Setup.
func (c *Command) Logger() log.Logger { return c.logger }

func (c *Command) tracer() trace.Tracer {
	if c.provider == nil {
		c.provider = sdktrace.NewTracerProvider()
	}
	return c.provider.Tracer("mimir/cmd")
}

// newEngine builds an Engine over a FileConfigLoader rooted at the
// configured paths. A non-validating engine (used by describe, list,
// and validate --no-secrets, which never need a live connection) is built without a
// secrets path, matching cli.py's get_engine(..., validate_connections)
// helper.
func (c *Command) newEngine(validateConnections bool) *engine.Engine {
	secretsPath := c.secretsPath
	if !validateConnections {
		secretsPath = ""
	}
	loader := catalog.NewFileConfigLoader(c.configsPath, secretsPath)
	cat := catalog.NewCatalog(loader, c.tracer(), validateConnections)
	return engine.New(cat)
}
