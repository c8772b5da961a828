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

// Package engine implements the query-splitting and parallel-dispatch
// layer on top of the catalog: one AtomicQuery per source, combined by
// an Inquiry into a single federated result.
package engine

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"

	"github.com/mimirdata/mimir/internal/catalog"
	"github.com/mimirdata/mimir/internal/sqlast"
	"github.com/mimirdata/mimir/internal/util"
)

// AtomicQuery is a single, executable query against one Source: the
// metrics and dimensions an Inquiry routed there, compiled into one
// SQL statement and run through that source's connection.
type AtomicQuery struct {
	Name   string
	Source *catalog.Source

	Metrics            []*catalog.Metric
	Dimensions         []catalog.Dimension
	RequiredDimensions []catalog.Dimension

	StartDate   string
	EndDate     string
	Granularity *catalog.Granularity
	GlobalFilter sqlast.Expr

	SQL string
}

// newAtomicQuery computes required dimensions, compiles the source and
// the outer metrics/dimensions projection, and renders the final SQL -
// mirroring AtomicQuery.__init__ / _build_sql in the original engine.
func newAtomicQuery(ctx context.Context, cat *catalog.Catalog, source *catalog.Source, metrics []*catalog.Metric, dimensions []catalog.Dimension, startDate, endDate string, granularity *catalog.Granularity, globalFilter sqlast.Expr) (*AtomicQuery, error) {
	name, err := randomTableName()
	if err != nil {
		return nil, err
	}

	have := map[string]struct{}{}
	for _, d := range dimensions {
		have[d.Name] = struct{}{}
	}
	seen := map[string]struct{}{}
	var required []catalog.Dimension
	for _, m := range metrics {
		for _, dn := range m.RequiredDimensions {
			if _, ok := have[dn]; ok {
				continue
			}
			if _, dup := seen[dn]; dup {
				continue
			}
			seen[dn] = struct{}{}
			dim, err := cat.GetDimension(ctx, dn)
			if err != nil {
				return nil, err
			}
			required = append(required, *dim)
		}
	}

	aq := &AtomicQuery{
		Name:               name,
		Source:             source,
		Metrics:            metrics,
		Dimensions:         dimensions,
		RequiredDimensions: required,
		StartDate:          startDate,
		EndDate:            endDate,
		Granularity:        granularity,
		GlobalFilter:       globalFilter,
	}
	sql, err := aq.buildSQL()
	if err != nil {
		return nil, err
	}
	aq.SQL = sql
	return aq, nil
}

func randomTableName() (string, error) {
	buf := make([]byte, 15)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating table name: %w", err)
	}
	return "tbl_" + hex.EncodeToString(buf), nil
}

// buildSQL renders the atomic query: a CTE wrapping the compiled source
// (joined in any non-local required/requested dimensions and bounded by
// the date range), with an outer SELECT of the granularity expression,
// dimension names, and metric expressions, grouped positionally.
func (aq *AtomicQuery) buildSQL() (string, error) {
	allDims := make([]catalog.Dimension, 0, len(aq.Dimensions)+len(aq.RequiredDimensions))
	allDims = append(allDims, aq.Dimensions...)
	allDims = append(allDims, aq.RequiredDimensions...)

	compiled, err := aq.Source.CompileSource(allDims, aq.StartDate, aq.EndDate)
	if err != nil {
		return "", err
	}

	var projections []sqlast.Projection
	if aq.Granularity != nil {
		expr, err := aq.Granularity.Expression(aq.Source.TimeColAlias)
		if err != nil {
			return "", err
		}
		sqlText, alias := sqlast.SplitProjection(expr)
		projections = append(projections, sqlast.Projection{SQL: sqlText, Alias: alias})
	}
	for _, d := range aq.Dimensions {
		projections = append(projections, sqlast.Projection{SQL: d.Name})
	}
	groupByCount := len(projections)

	for _, m := range aq.Metrics {
		if m.SQL == "" {
			continue
		}
		sel, err := sqlast.ParseSelect("SELECT " + m.SQL)
		if err != nil {
			return "", util.NewConfigurationErrorf(err, "metric %q has unparseable sql", m.Name)
		}
		for _, e := range sel.SelectExprs {
			sqlText, alias := sqlast.SplitProjection(e)
			projections = append(projections, sqlast.Projection{SQL: sqlText, Alias: alias})
		}
	}

	where := sqlast.ExprSQL(aq.GlobalFilter)

	stmt := sqlast.AtomicSelect{
		Projections:  projections,
		From:         aq.Source.Name,
		GroupByCount: groupByCount,
		Where:        where,
		CTEName:      aq.Source.Name,
		CTEBody:      sqlast.SelectSQL(compiled),
	}
	return stmt.SQL(), nil
}

// Execute runs the atomic query against its source's connection.
func (aq *AtomicQuery) Execute(ctx context.Context) (arrow.Table, error) {
	if aq.Source.Connection == nil {
		return nil, util.NewQueryError(fmt.Sprintf("Source '%s' has no active connection.", aq.Source.Name), nil)
	}
	return aq.Source.Connection.Execute(ctx, aq.SQL)
}
