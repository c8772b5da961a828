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

	"github.com/spf13/cobra"
)

// newValidateCommand loads every source, metric, and dimension and
// reports success or the first configuration error, mirroring
// cli.py's validate command.
func newValidateCommand(root *Command) *cobra.Command {
	var noSecrets bool

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate Mimir configuration files",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, shutdown, err := root.Setup(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = shutdown(ctx) }()

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Validating configs in: %s\n", root.configsPath)
			if noSecrets {
				fmt.Fprintln(out, "Skipping secrets and connection validation.")
			} else {
				fmt.Fprintf(out, "Using secrets from: %s\n", root.secretsPath)
			}

			eng := root.newEngine(!noSecrets)
			sources, err := eng.Catalog.GetSources(ctx)
			if err != nil {
				return err
			}
			metrics, err := eng.Catalog.GetMetrics(ctx)
			if err != nil {
				return err
			}
			dimensions, err := eng.Catalog.GetDimensions(ctx)
			if err != nil {
				return err
			}

			fmt.Fprintln(out, "All configurations are valid.")
			fmt.Fprintf(out, "Found %d sources, %d metrics, and %d dimensions.\n", len(sources), len(metrics), len(dimensions))
			return nil
		},
	}

	cmd.Flags().BoolVar(&noSecrets, "no-secrets", false, "skip the retrieval of secrets and validation of connections")
	return cmd
}
