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

package mysqlproxy

import (
	"context"
	"testing"

	"go.opentelemetry.io/otel/trace/noop"

	"github.com/mimirdata/mimir/internal/catalog"
	"github.com/mimirdata/mimir/internal/engine"
	"github.com/mimirdata/mimir/internal/util"
)

// proxyTestLoader serves one source/metric pair with connection
// validation disabled, enough to exercise routing without a live
// database - queries against mimir.metrics still fail at dispatch time
// since no connection is ever opened, which is exactly the signal this
// test uses to confirm the statement was routed to the engine at all.
type proxyTestLoader struct{}

func (proxyTestLoader) Get(kind catalog.ConfigKind, name string) (map[string]any, error) {
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

func (proxyTestLoader) GetAll(kind catalog.ConfigKind) (map[string]map[string]any, error) {
	return nil, nil
}

func (proxyTestLoader) GetSecret(name string) (map[string]any, error) { return nil, nil }

func newTestProxy(t *testing.T) *Proxy {
	t.Helper()
	cat := catalog.NewCatalog(&proxyTestLoader{}, noop.NewTracerProvider().Tracer("test"), false)
	p, err := NewProxy(engine.New(cat))
	if err != nil {
		t.Fatalf("unable to build proxy: %s", err)
	}
	t.Cleanup(func() { _ = p.Close() })
	return p
}

func TestQueryRoutesMetricsTableToEngine(t *testing.T) {
	p := newTestProxy(t)
	_, err := p.Query(context.Background(), "SELECT region, AGG(revenue) FROM mimir.metrics")
	if err == nil {
		t.Fatalf("expected an error since no source connection is configured")
	}
	if _, ok := err.(util.MimirError); !ok {
		t.Fatalf("expected a MimirError surfaced through the engine, got %T: %s", err, err)
	}
}

func TestQueryRoutesOtherTablesToPassthrough(t *testing.T) {
	p := newTestProxy(t)
	table, err := p.Query(context.Background(), "SELECT 1 AS x")
	if err != nil {
		t.Fatalf("unexpected error from passthrough query: %s", err)
	}
	defer table.Release()
	if table.NumRows() != 1 {
		t.Fatalf("expected 1 row, got %d", table.NumRows())
	}
}

func TestQueryRejectsUnsupportedShapeAgainstMetrics(t *testing.T) {
	p := newTestProxy(t)
	_, err := p.Query(context.Background(), "WITH x AS (SELECT 1) SELECT * FROM mimir.metrics")
	if err == nil {
		t.Fatalf("expected an error")
	}
	mimirErr, ok := err.(util.MimirError)
	if !ok {
		t.Fatalf("expected a MimirError, got %T", err)
	}
	if mimirErr.Category() != util.CategoryNotImplemented {
		t.Fatalf("expected NOT_IMPLEMENTED_ERROR, got %s", mimirErr.Category())
	}
}
