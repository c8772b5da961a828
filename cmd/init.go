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

	"github.com/spf13/cobra"

	"github.com/mimirdata/mimir/internal/util"
)

// newInitCommand scaffolds the configs/sources, configs/dimensions,
// configs/metrics, and secrets directories for a new project, matching
// cli.py's init command.
func newInitCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "init [project-name]",
		Short: "Initialize a new Mimir project directory layout",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			projectName := "."
			if len(args) > 0 {
				projectName = args[0]
			}

			out := cmd.OutOrStdout()
			info, err := os.Stat(projectName)
			if err == nil && !info.IsDir() {
				return util.NewConfigurationErrorf(nil, "project path %q exists and is a file", projectName)
			}
			if err == nil {
				entries, err := os.ReadDir(projectName)
				if err == nil && len(entries) > 0 {
					fmt.Fprintf(cmd.ErrOrStderr(), "warning: project directory %q is not empty\n", projectName)
				}
			}

			fmt.Fprintf(out, "Initializing Mimir project in %q...\n", projectName)
			dirs := []string{
				filepath.Join(projectName, "configs", "sources"),
				filepath.Join(projectName, "configs", "dimensions"),
				filepath.Join(projectName, "configs", "metrics"),
				filepath.Join(projectName, "secrets"),
			}
			for _, d := range dirs {
				if err := os.MkdirAll(d, 0o755); err != nil {
					return fmt.Errorf("creating %s: %w", d, err)
				}
				fmt.Fprintf(out, "  created %s/\n", d)
			}
			fmt.Fprintln(out, "Project initialized successfully.")
			return nil
		},
	}
}
