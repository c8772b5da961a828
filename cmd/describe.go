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

	"github.com/mimirdata/mimir/internal/util"
)

// newDescribeCommand prints the fields of a single named definition,
// mirroring cli.py's describe command. definitionType defaults to
// "metric" (matching the original's typer.Argument default) when only
// a name is given.
func newDescribeCommand(root *Command) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "describe <name> [metric|dimension|source]",
		Short: "Describe a single Mimir definition",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, shutdown, err := root.Setup(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = shutdown(ctx) }()

			name := args[0]
			kind := "metric"
			if len(args) > 1 {
				kind = args[1]
			}

			eng := root.newEngine(false)
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 2, 2, ' ', 0)
			defer w.Flush()

			switch kind {
			case "metric":
				m, err := eng.Catalog.GetMetric(ctx, name)
				if err != nil {
					return err
				}
				fmt.Fprintf(w, "Name\t%s\n", m.Name)
				fmt.Fprintf(w, "SQL\t%s\n", m.SQL)
				fmt.Fprintf(w, "Description\t%s\n", m.Description)
				fmt.Fprintf(w, "Source\t%s\n", m.SourceName)
				if len(m.RequiredDimensions) > 0 {
					fmt.Fprintf(w, "Required dimensions\t%v\n", m.RequiredDimensions)
				}
			case "dimension":
				d, err := eng.Catalog.GetDimension(ctx, name)
				if err != nil {
					return err
				}
				fmt.Fprintf(w, "Name\t%s\n", d.Name)
				fmt.Fprintf(w, "SQL\t%s\n", d.SQL)
				fmt.Fprintf(w, "Description\t%s\n", d.Description)
				fmt.Fprintf(w, "Source\t%s\n", d.SourceName)
			case "source":
				s, err := eng.Catalog.GetSource(ctx, name)
				if err != nil {
					return err
				}
				fmt.Fprintf(w, "Name\t%s\n", s.Name)
				fmt.Fprintf(w, "SQL\t%s\n", s.SQL)
				fmt.Fprintf(w, "Description\t%s\n", s.Description)
				fmt.Fprintf(w, "Time column\t%s\n", s.TimeColAlias)
				fmt.Fprintf(w, "Connection\t%s\n", s.ConnectionName)
			default:
				return util.NewConfigurationErrorf(nil, "invalid definition type: %s", kind)
			}
			return nil
		},
	}
	return cmd
}
