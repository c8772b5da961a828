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

	"github.com/mimirdata/mimir/internal/catalog"
)

// inquiryLoader serves one source and one metric, enough to exercise
// NewInquiry's full construction path without touching a real database.
type inquiryLoader struct{}

func (inquiryLoader) Get(kind catalog.ConfigKind, name string) (map[string]any, error) {
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

func (inquiryLoader) GetAll(kind catalog.ConfigKind) (map[string]map[string]any, error) {
	return nil, nil
}

func (inquiryLoader) GetSecret(name string) (map[string]any, error) { return nil, nil }

func newInquiryTestCatalog() *catalog.Catalog {
	return catalog.NewCatalog(&inquiryLoader{}, noop.NewTracerProvider().Tracer("test"), false)
}

func TestNewInquirySplitsOneQueryPerSource(t *testing.T) {
	ctx := context.Background()
	cat := newInquiryTestCatalog()

	inq, err := NewInquiry(ctx, cat, InquiryRequest{
		Metrics:    []string{"revenue"},
		Dimensions: []string{"region"},
		StartDate:  "2026-01-01",
		EndDate:    "2026-01-31",
	})
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if len(inq.AtomicQueries) != 1 {
		t.Fatalf("expected 1 atomic query, got %d", len(inq.AtomicQueries))
	}
	if inq.AtomicQueries[0].Source.Name != "orders" {
		t.Fatalf("expected atomic query against orders, got %s", inq.AtomicQueries[0].Source.Name)
	}
}

func TestCombineQueryUsesFullJoinWhenDimensionsPresent(t *testing.T) {
	ctx := context.Background()
	cat := newInquiryTestCatalog()

	inq, err := NewInquiry(ctx, cat, InquiryRequest{
		Metrics:    []string{"revenue"},
		Dimensions: []string{"region"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	sql := inq.combineQuery().SQL()
	if !strings.Contains(sql, "region") {
		t.Fatalf("expected combined query to select region, got %s", sql)
	}
	if !strings.Contains(sql, "revenue") {
		t.Fatalf("expected combined query to select revenue, got %s", sql)
	}

	// A second intermediate table is joined on the dimension columns.
	inq.AtomicQueries = append(inq.AtomicQueries, &AtomicQuery{Name: "tbl_second"})
	sql = inq.combineQuery().SQL()
	if !strings.Contains(sql, "FULL JOIN tbl_second USING (region)") {
		t.Fatalf("expected a FULL JOIN on region, got %s", sql)
	}
}

func TestCombineQueryUsesCrossJoinWhenNoDimensions(t *testing.T) {
	ctx := context.Background()
	cat := newInquiryTestCatalog()

	inq, err := NewInquiry(ctx, cat, InquiryRequest{
		Metrics: []string{"revenue"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	// Only one atomic query here, so no join is emitted yet.
	sql := inq.combineQuery().SQL()
	if strings.Contains(sql, "FULL JOIN") {
		t.Fatalf("expected no join with a single atomic query, got %s", sql)
	}

	// A second intermediate table with no dimensions is cross joined.
	inq.AtomicQueries = append(inq.AtomicQueries, &AtomicQuery{Name: "tbl_second"})
	sql = inq.combineQuery().SQL()
	if !strings.Contains(sql, "CROSS JOIN tbl_second") {
		t.Fatalf("expected a CROSS JOIN, got %s", sql)
	}
}

func TestNewInquiryRejectsUnknownDimensionInConditions(t *testing.T) {
	ctx := context.Background()
	cat := newInquiryTestCatalog()

	_, err := NewInquiry(ctx, cat, InquiryRequest{
		Metrics:      []string{"revenue"},
		GlobalFilter: "nonexistent_column = 1",
	})
	if err == nil {
		t.Fatalf("expected validation error for unknown column in filter")
	}
}
