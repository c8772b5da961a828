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
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"text/tabwriter"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/spf13/cobra"

	"github.com/mimirdata/mimir/internal/engine"
)

// remoteInquiryRequest mirrors internal/server's unexported
// inquiryRequestBody wire shape, since a CLI querying a remote Mimir
// host (the --host flag, matching cli.py's query command) has no
// access to that unexported type.
type remoteInquiryRequest struct {
	Metrics      []string `json:"metrics"`
	Dimensions   []string `json:"dimensions,omitempty"`
	StartDate    string   `json:"start_date,omitempty"`
	EndDate      string   `json:"end_date,omitempty"`
	Granularity  string   `json:"granularity,omitempty"`
	GlobalFilter string   `json:"global_filter,omitempty"`
	OrderBy      string   `json:"order_by,omitempty"`
	ClientSQL    string   `json:"client_sql,omitempty"`
}

func newQueryCommand(root *Command) *cobra.Command {
	var (
		metrics      []string
		dimensions   []string
		granularity  string
		startDate    string
		endDate      string
		globalFilter string
		orderBy      string
		dryRun       bool
		host         string
	)

	cmd := &cobra.Command{
		Use:   "query",
		Short: "Run a query against the Mimir engine",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, shutdown, err := root.Setup(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = shutdown(ctx) }()

			out := cmd.OutOrStdout()
			req := engine.InquiryRequest{
				Metrics:      metrics,
				Dimensions:   dimensions,
				Granularity:  granularity,
				StartDate:    startDate,
				EndDate:      endDate,
				GlobalFilter: globalFilter,
				OrderBy:      orderBy,
			}

			var table arrow.Table
			if host != "" {
				fmt.Fprintf(out, "Querying remote Mimir host: %s\n", host)
				table, err = queryRemote(ctx, host, req)
			} else {
				// Compile always needs a live connection to probe each
				// atomic query's schema via a "LIMIT 0" execution, so
				// --dry-run still validates connections; it only skips
				// dispatch.
				eng := root.newEngine(true)
				if dryRun {
					fmt.Fprintln(out, "Compiling query...")
					sql, err := eng.Describe(ctx, req)
					if err != nil {
						return err
					}
					fmt.Fprintln(out, sql)
					return nil
				}
				fmt.Fprintln(out, "Dispatching inquiry...")
				table, err = eng.Query(ctx, req)
			}
			if err != nil {
				return err
			}
			defer table.Release()

			if table.NumRows() == 0 {
				fmt.Fprintln(out, "Query returned no results.")
				return nil
			}
			return printArrowTable(out, table)
		},
	}

	cmd.Flags().StringSliceVarP(&metrics, "metric", "m", nil, "metric to query (repeatable)")
	cmd.Flags().StringSliceVarP(&dimensions, "dimension", "d", nil, "dimension to group by (repeatable)")
	cmd.Flags().StringVarP(&granularity, "granularity", "g", "", "time granularity (TIME, DATE, MONTH, YEAR)")
	cmd.Flags().StringVar(&startDate, "start-date", "", "start date, YYYY-MM-DD")
	cmd.Flags().StringVar(&endDate, "end-date", "", "end date, YYYY-MM-DD")
	cmd.Flags().StringVarP(&globalFilter, "filter", "f", "", "SQL WHERE-body to apply")
	cmd.Flags().StringVarP(&orderBy, "order-by", "o", "", "SQL order-by list")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "compile and print the SQL without executing it")
	cmd.Flags().StringVar(&host, "host", "", "a running Mimir HTTP adapter to query instead of running locally")
	cmd.MarkFlagRequired("metric")
	return cmd
}

// queryRemote POSTs req to host's /inquiry endpoint and decodes the
// streaming Arrow IPC response into a single in-memory table.
func queryRemote(ctx context.Context, host string, req engine.InquiryRequest) (arrow.Table, error) {
	body, err := json.Marshal(remoteInquiryRequest{
		Metrics:      req.Metrics,
		Dimensions:   req.Dimensions,
		StartDate:    req.StartDate,
		EndDate:      req.EndDate,
		Granularity:  req.Granularity,
		GlobalFilter: req.GlobalFilter,
		OrderBy:      req.OrderBy,
		ClientSQL:    req.ClientSQL,
	})
	if err != nil {
		return nil, fmt.Errorf("encoding request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, host+"/inquiry", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("calling %s: %w", host, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("remote host returned %s: %s", resp.Status, payload)
	}

	reader, err := ipc.NewReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("decoding Arrow stream: %w", err)
	}
	defer reader.Release()

	var records []arrow.Record
	for reader.Next() {
		rec := reader.Record()
		rec.Retain()
		records = append(records, rec)
	}
	if err := reader.Err(); err != nil && err != io.EOF {
		return nil, fmt.Errorf("reading Arrow stream: %w", err)
	}
	return array.NewTableFromRecords(reader.Schema(), records), nil
}

// printArrowTable renders a table's rows as a tab-aligned grid, the
// same stdlib text/tabwriter approach this CLI uses for list/describe
// output, in place of the original's rich-rendered polars DataFrame.
func printArrowTable(out io.Writer, table arrow.Table) error {
	w := tabwriter.NewWriter(out, 0, 2, 2, ' ', 0)
	defer w.Flush()

	schema := table.Schema()
	names := make([]string, schema.NumFields())
	for i, f := range schema.Fields() {
		names[i] = f.Name
	}
	fmt.Fprintln(w, joinTab(names))

	reader := array.NewTableReader(table, 0)
	defer reader.Release()
	for reader.Next() {
		rec := reader.Record()
		for row := 0; row < int(rec.NumRows()); row++ {
			cells := make([]string, rec.NumCols())
			for col := 0; col < int(rec.NumCols()); col++ {
				arr := rec.Column(col)
				if arr.IsNull(row) {
					cells[col] = "null"
				} else {
					cells[col] = arr.ValueStr(row)
				}
			}
			fmt.Fprintln(w, joinTab(cells))
		}
	}
	return nil
}

func joinTab(cells []string) string {
	out := ""
	for i, c := range cells {
		if i > 0 {
			out += "\t"
		}
		out += c
	}
	return out
}
