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
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mimirdata/mimir/internal/mysqlproxy"
	"github.com/mimirdata/mimir/internal/server"
)

// newServeCommand starts the HTTP adapter and, when --mysql-address is
// given, the MySQL-wire front door alongside it. There is no
// cli.py-side equivalent command (the original always runs its HTTP
// server through example/server/main.py); this mirrors that role for
// this repository's SPEC_FULL.md §6 external interfaces instead.
func newServeCommand(root *Command) *cobra.Command {
	var address, mysqlAddress string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP adapter (and optionally the MySQL-wire proxy)",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, shutdown, err := root.Setup(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = shutdown(ctx) }()

			ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			eng := root.newEngine(true)
			srv := server.NewServer(eng, root.Logger(), versionString)
			router, err := srv.Router()
			if err != nil {
				return fmt.Errorf("building router: %w", err)
			}

			httpServer := &http.Server{Addr: address, Handler: router}
			errCh := make(chan error, 2)
			go func() {
				root.Logger().InfoContext(ctx, "starting HTTP adapter", "address", address)
				if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- fmt.Errorf("HTTP adapter: %w", err)
				}
			}()

			var proxy *mysqlproxy.Proxy
			if mysqlAddress != "" {
				proxy, err = mysqlproxy.NewProxy(eng)
				if err != nil {
					return fmt.Errorf("building MySQL-wire proxy: %w", err)
				}
				wire := mysqlproxy.NewWireServer(proxy)
				go func() {
					root.Logger().InfoContext(ctx, "starting MySQL-wire proxy", "address", mysqlAddress)
					if err := wire.ListenAndServe(ctx, mysqlAddress); err != nil {
						errCh <- fmt.Errorf("MySQL-wire proxy: %w", err)
					}
				}()
			}

			select {
			case <-ctx.Done():
				root.Logger().InfoContext(ctx, "shutting down")
			case err := <-errCh:
				return err
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGracePeriod)
			defer cancel()
			if proxy != nil {
				_ = proxy.Close()
			}
			return httpServer.Shutdown(shutdownCtx)
		},
	}

	cmd.Flags().StringVar(&address, "address", ":8080", "address the HTTP adapter listens on")
	cmd.Flags().StringVar(&mysqlAddress, "mysql-address", "", "address the MySQL-wire proxy listens on (disabled when empty)")
	return cmd
}
