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

package engine

import (
	"context"
	"strings"
	"testing"

	"go.opentelemetry.io/otel/trace/noop"

	"github.com/apache/arrow-go/v18/arrow"

	"github.com/mimirdata/mimir/internal/catalog"
	"github.com/mimirdata/mimir/internal/sources"
)

// stubConnection is a no-op sources.Source used so catalog.NewSource can
// build a connected Source without a real database.
type stubConnection struct{}

var _ sources.Source = stubConnection{}

func (stubConnection) SourceKind() string                  { return "stub" }
func (stubConnection) ToConfig() sources.SourceConfig       { return nil }
func (stubConnection) Close() error                         { return nil }
func (stubConnection) Execute(ctx context.Context, sql string) (arrow.Table, error) {
	return nil, nil
}

func newOrdersSource(t *testing.T) *catalog.Source {
	t.Helper()
	src, err := catalog.NewSource(
		"orders",
		"SELECT region, revenue, ts FROM orders_table",
		"orders source",
		"ts",
		"",
		"orders-db",
		nil,
		nil,
	)
	if err != nil {
		t.Fatalf("building source: %s", err)
	}
	return src
}

func newRevenueMetric(t *testing.T, source *catalog.Source) *catalog.Metric {
	t.Helper()
	m, err := catalog.NewMetric("revenue", "SUM(revenue) as revenue", "", "orders", source, nil)
	if err != nil {
		t.Fatalf("building metric: %s", err)
	}
	return m
}

func TestAtomicQuerySQLIncludesCTEAndGroupBy(t *testing.T) {
	ctx := context.Background()
	loader := &emptyLoader{}
	cat := catalog.NewCatalog(loader, noop.NewTracerProvider().Tracer("test"), false)
	source := newOrdersSource(t)
	metric := newRevenueMetric(t, source)

	dims := []catalog.Dimension{{Name: "region", SourceName: "local"}}
	aq, err := newAtomicQuery(ctx, cat, source, []*catalog.Metric{metric}, dims, "2026-01-01", "2026-01-31", nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if !strings.HasPrefix(aq.Name, "tbl_") {
		t.Fatalf("expected table name prefixed tbl_, got %s", aq.Name)
	}
	if !strings.Contains(aq.SQL, "WITH orders AS") {
		t.Fatalf("expected CTE wrapping, got %s", aq.SQL)
	}
	if !strings.Contains(aq.SQL, "GROUP BY 1") {
		t.Fatalf("expected positional group by, got %s", aq.SQL)
	}
	if !strings.Contains(aq.SQL, "revenue") {
		t.Fatalf("expected revenue projection, got %s", aq.SQL)
	}
}

func TestAtomicQueryResolvesRequiredDimensions(t *testing.T) {
	ctx := context.Background()
	loader := &emptyLoader{}
	cat := catalog.NewCatalog(loader, noop.NewTracerProvider().Tracer("test"), false)
	source := newOrdersSource(t)
	metric, err := catalog.NewMetric("revenue_per_rep", "SUM(revenue) as revenue_per_rep", "", "orders", source, []string{"rep"})
	if err != nil {
		t.Fatalf("building metric: %s", err)
	}

	aq, err := newAtomicQuery(ctx, cat, source, []*catalog.Metric{metric}, nil, "", "", nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if len(aq.RequiredDimensions) != 1 || aq.RequiredDimensions[0].Name != "rep" {
		t.Fatalf("expected required dimension 'rep' to be resolved, got %v", aq.RequiredDimensions)
	}
}

// emptyLoader is a catalog.ConfigLoader with nothing configured, enough
// for GetDimension's stub-synthesis fallback to kick in.
type emptyLoader struct{}

func (emptyLoader) Get(kind catalog.ConfigKind, name string) (map[string]any, error) {
	return nil, nil
}
func (emptyLoader) GetAll(kind catalog.ConfigKind) (map[string]map[string]any, error) {
	return nil, nil
}
func (emptyLoader) GetSecret(name string) (map[string]any, error) { return nil, nil }
