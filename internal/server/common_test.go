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

package server

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"go.opentelemetry.io/otel/trace/noop"

	"github.com/mimirdata/mimir/internal/catalog"
	"github.com/mimirdata/mimir/internal/engine"
	"github.com/mimirdata/mimir/internal/log"
)

// schemaLoader serves one source and one metric, enough to exercise the
// /schema and /inquiry routes without a real database connection.
type schemaLoader struct{}

func (schemaLoader) Get(kind catalog.ConfigKind, name string) (map[string]any, error) {
	switch kind {
	case catalog.ConfigSource:
		if name == "orders" {
			return map[string]any{
				"name":            "orders",
				"sql":             "SELECT region, revenue, ts FROM orders_table",
				"time_col":        "ts",
				"connection_name": "orders-db",
			}, nil
		}
	case catalog.ConfigMetric:
		if name == "revenue" {
			return map[string]any{
				"name":        "revenue",
				"sql":         "SUM(revenue) as revenue",
				"source_name": "orders",
			}, nil
		}
	}
	return nil, nil
}

func (schemaLoader) GetAll(kind catalog.ConfigKind) (map[string]map[string]any, error) {
	switch kind {
	case catalog.ConfigSource:
		return map[string]map[string]any{
			"orders": {
				"name":            "orders",
				"sql":             "SELECT region, revenue, ts FROM orders_table",
				"time_col":        "ts",
				"connection_name": "orders-db",
			},
		}, nil
	case catalog.ConfigMetric:
		return map[string]map[string]any{
			"revenue": {
				"name":        "revenue",
				"sql":         "SUM(revenue) as revenue",
				"source_name": "orders",
			},
		}, nil
	}
	return nil, nil
}

func (schemaLoader) GetSecret(name string) (map[string]any, error) { return nil, nil }

// setUpServer builds a Server over a fixture catalog with connection
// validation disabled, so routes exercising schema resolution work
// without a live database.
func setUpServer(t *testing.T) *Server {
	t.Helper()
	cat := catalog.NewCatalog(&schemaLoader{}, noop.NewTracerProvider().Tracer("test"), false)
	logger, err := log.NewStdLogger(os.Stdout, os.Stderr, "info")
	if err != nil {
		t.Fatalf("unable to initialize logger: %s", err)
	}
	return NewServer(engine.New(cat), logger, "0.0.0-test")
}

func runRequest(ts *httptest.Server, method, path string, body io.Reader) (*http.Response, []byte, error) {
	req, err := http.NewRequest(method, ts.URL+path, body)
	if err != nil {
		return nil, nil, fmt.Errorf("unable to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("unable to send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("unable to read response body: %w", err)
	}
	return resp, respBody, nil
}
