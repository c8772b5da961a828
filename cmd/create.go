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
	"path/filepath"

	"github.com/goccy/go-yaml"
	"github.com/spf13/cobra"
)

// newCreateCommand groups the metric/dimension scaffolding
// subcommands, mirroring cli.py's create_app sub-typer. The original
// prompts interactively for each field (typer.prompt); this CLI takes
// the same fields as flags instead, since the pack carries no
// interactive-prompt library and cobra's own idiom favors flags.
func newCreateCommand(root *Command) *cobra.Command {
	create := &cobra.Command{
		Use:   "create",
		Short: "Create new definitions",
	}
	create.AddCommand(
		newCreateMetricCommand(root),
		newCreateDimensionCommand(root),
	)
	return create
}

func newCreateMetricCommand(root *Command) *cobra.Command {
	var name, sourceName, sqlExpr, description string

	cmd := &cobra.Command{
		Use:   "metric",
		Short: "Create a new metric definition",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := filepath.Join(root.configsPath, "metrics", name+".yaml")
			data := map[string]string{
				"name":        name,
				"source_name": sourceName,
				"sql":         fmt.Sprintf("SELECT %s as %s", sqlExpr, name),
				"description": description,
			}
			if err := writeDefinitionFile(path, data); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Metric %q created at %s\n", name, path)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "metric name, e.g. rentals_revenue")
	cmd.Flags().StringVar(&sourceName, "source", "", "owning source name")
	cmd.Flags().StringVar(&sqlExpr, "sql", "", "SQL expression, e.g. SUM(amount)")
	cmd.Flags().StringVar(&description, "description", "", "human-readable description")
	cmd.MarkFlagRequired("name")
	cmd.MarkFlagRequired("source")
	cmd.MarkFlagRequired("sql")
	return cmd
}

func newCreateDimensionCommand(root *Command) *cobra.Command {
	var name, sourceName, sqlExpr, description string

	cmd := &cobra.Command{
		Use:   "dimension",
		Short: "Create a new dimension definition",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := filepath.Join(root.configsPath, "dimensions", name+".yaml")
			data := map[string]string{
				"name":        name,
				"source_name": sourceName,
				"sql":         fmt.Sprintf("SELECT %s as %s", sqlExpr, name),
				"description": description,
			}
			if err := writeDefinitionFile(path, data); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Dimension %q created at %s\n", name, path)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "dimension name, e.g. dim_customer_country")
	cmd.Flags().StringVar(&sourceName, "source", "", "owning source name")
	cmd.Flags().StringVar(&sqlExpr, "sql", "", "SQL expression, e.g. country.name")
	cmd.Flags().StringVar(&description, "description", "", "human-readable description")
	cmd.MarkFlagRequired("name")
	cmd.MarkFlagRequired("source")
	cmd.MarkFlagRequired("sql")
	return cmd
}

func writeDefinitionFile(path string, data map[string]string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", filepath.Dir(path), err)
	}
	body, err := yaml.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshaling definition: %w", err)
	}
	if err := os.WriteFile(path, body, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
