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
	"text/tabwriter"

	"github.com/spf13/cobra"
)

// newListCommand groups the sources/metrics/dimensions listing
// subcommands, mirroring cli.py's list_app sub-typer.
func newListCommand(root *Command) *cobra.Command {
	list := &cobra.Command{
		Use:   "list",
		Short: "List available definitions",
	}
	list.AddCommand(
		newListSourcesCommand(root),
		newListMetricsCommand(root),
		newListDimensionsCommand(root),
	)
	return list
}

func newListSourcesCommand(root *Command) *cobra.Command {
	return &cobra.Command{
		Use:   "sources",
		Short: "List all available sources",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, shutdown, err := root.Setup(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = shutdown(ctx) }()

			eng := root.newEngine(false)
			sources, err := eng.Catalog.GetSources(ctx)
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 2, 2, ' ', 0)
			defer w.Flush()
			fmt.Fprintln(w, "NAME\tTIME COLUMN\tDESCRIPTION")
			for _, s := range sources {
				fmt.Fprintf(w, "%s\t%s\t%s\n", s.Name, s.TimeColAlias, s.Description)
			}
			return nil
		},
	}
}

func newListMetricsCommand(root *Command) *cobra.Command {
	return &cobra.Command{
		Use:   "metrics",
		Short: "List all available metrics",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, shutdown, err := root.Setup(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = shutdown(ctx) }()

			eng := root.newEngine(false)
			metrics, err := eng.Catalog.GetMetrics(ctx)
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 2, 2, ' ', 0)
			defer w.Flush()
			fmt.Fprintln(w, "NAME\tSOURCE\tDESCRIPTION")
			for _, m := range metrics {
				fmt.Fprintf(w, "%s\t%s\t%s\n", m.Name, m.SourceName, m.Description)
			}
			return nil
		},
	}
}

func newListDimensionsCommand(root *Command) *cobra.Command {
	return &cobra.Command{
		Use:   "dimensions",
		Short: "List all available dimensions",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, shutdown, err := root.Setup(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = shutdown(ctx) }()

			eng := root.newEngine(false)
			dimensions, err := eng.Catalog.GetDimensions(ctx)
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 2, 2, ' ', 0)
			defer w.Flush()
			fmt.Fprintln(w, "NAME\tSOURCE\tDESCRIPTION")
			for _, d := range dimensions {
				fmt.Fprintf(w, "%s\t%s\t%s\n", d.Name, d.SourceName, d.Description)
			}
			return nil
		},
	}
}
