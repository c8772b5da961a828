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
	"fmt"
	"sort"

	"github.com/apache/arrow-go/v18/arrow"

	"github.com/mimirdata/mimir/internal/catalog"
	"github.com/mimirdata/mimir/internal/sqlast"
)

// Inquiry is a request for data spanning one or more sources: it
// resolves metric/dimension names against the catalog, validates them
// against each source they touch, splits into one AtomicQuery per
// source, and recombines the results.
type Inquiry struct {
	cat *catalog.Catalog

	Dimensions   []catalog.Dimension
	Metrics      []*catalog.Metric
	StartDate    string
	EndDate      string
	GlobalFilter sqlast.Expr
	Granularity  *catalog.Granularity
	OrderBy      []sqlast.OrderItem
	clientSQL    *sqlast.Select

	AtomicQueries []*AtomicQuery
}

// InquiryRequest is the wire shape of an inquiry, independent of how it
// arrived (HTTP body, CLI flags).
type InquiryRequest struct {
	Metrics      []string
	Dimensions   []string
	StartDate    string
	EndDate      string
	GlobalFilter string
	Granularity  string
	OrderBy      string
	ClientSQL    string
}

// NewInquiry builds and validates an Inquiry, then splits it into its
// per-source AtomicQueries - mirroring Inquiry.__init__ in the original
// engine, through to _split_queries.
func NewInquiry(ctx context.Context, cat *catalog.Catalog, req InquiryRequest) (*Inquiry, error) {
	dims := make([]catalog.Dimension, 0, len(req.Dimensions))
	for _, name := range req.Dimensions {
		d, err := cat.GetDimension(ctx, name)
		if err != nil {
			return nil, err
		}
		dims = append(dims, *d)
	}

	metrics := make([]*catalog.Metric, 0, len(req.Metrics))
	for _, name := range req.Metrics {
		m, err := cat.GetMetric(ctx, name)
		if err != nil {
			return nil, err
		}
		metrics = append(metrics, m)
	}
	sort.SliceStable(metrics, func(i, j int) bool {
		return metrics[i].Source.Name < metrics[j].Source.Name
	})

	filter, err := sqlast.ParseWhereBody(req.GlobalFilter)
	if err != nil {
		return nil, err
	}

	var granularity *catalog.Granularity
	if req.Granularity != "" {
		g, err := catalog.ParseGranularity(req.Granularity)
		if err != nil {
			return nil, err
		}
		granularity = &g
	}

	orderBy, err := sqlast.ParseOrderByBody(req.OrderBy)
	if err != nil {
		return nil, err
	}

	var clientSQL *sqlast.Select
	if req.ClientSQL != "" {
		clientSQL, err = sqlast.ParseSelect(req.ClientSQL)
		if err != nil {
			return nil, err
		}
	}

	inq := &Inquiry{
		cat:          cat,
		Dimensions:   dims,
		Metrics:      metrics,
		StartDate:    req.StartDate,
		EndDate:      req.EndDate,
		GlobalFilter: filter,
		Granularity:  granularity,
		OrderBy:      orderBy,
		clientSQL:    clientSQL,
	}
	if err := inq.validate(); err != nil {
		return nil, err
	}
	queries, err := inq.splitQueries(ctx)
	if err != nil {
		return nil, err
	}
	inq.AtomicQueries = queries
	return inq, nil
}

// validate checks the inquiry's dimensions, filter, and sort against
// every source its metrics touch.
func (inq *Inquiry) validate() error {
	seen := map[string]*catalog.Source{}
	for _, m := range inq.Metrics {
		seen[m.Source.Name] = m.Source
	}
	metricNames := make([]string, len(inq.Metrics))
	for i, m := range inq.Metrics {
		metricNames[i] = m.Name
	}
	var granularityAlias string
	if inq.Granularity != nil {
		granularityAlias = inq.Granularity.Alias()
	}

	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		source := seen[name]
		if err := source.ValidateDimensions(inq.Dimensions); err != nil {
			return err
		}
		if err := source.ValidateConditions(inq.GlobalFilter, metricNames); err != nil {
			return err
		}
		if err := source.ValidateSort(inq.OrderBy, metricNames, granularityAlias); err != nil {
			return err
		}
	}
	return nil
}

// splitQueries groups the (already source-sorted) metrics by source and
// builds one AtomicQuery per group.
func (inq *Inquiry) splitQueries(ctx context.Context) ([]*AtomicQuery, error) {
	var queries []*AtomicQuery
	i := 0
	for i < len(inq.Metrics) {
		j := i + 1
		source := inq.Metrics[i].Source
		for j < len(inq.Metrics) && inq.Metrics[j].Source.Name == source.Name {
			j++
		}
		aq, err := newAtomicQuery(ctx, inq.cat, source, inq.Metrics[i:j], inq.Dimensions, inq.StartDate, inq.EndDate, inq.Granularity, inq.GlobalFilter)
		if err != nil {
			return nil, err
		}
		queries = append(queries, aq)
		i = j
	}
	return queries, nil
}

// combineQuery builds the composition that joins every atomic query's
// intermediate table back into one result set.
func (inq *Inquiry) combineQuery() sqlast.CombineQuery {
	dimColumns := make([]string, 0, len(inq.Dimensions)+1)
	if inq.Granularity != nil {
		dimColumns = append(dimColumns, inq.Granularity.Alias())
	}
	for _, d := range inq.Dimensions {
		dimColumns = append(dimColumns, d.Name)
	}
	metricColumns := make([]string, len(inq.Metrics))
	for i, m := range inq.Metrics {
		metricColumns[i] = m.Name
	}
	tableNames := make([]string, len(inq.AtomicQueries))
	for i, aq := range inq.AtomicQueries {
		tableNames[i] = aq.Name
	}

	var projections []sqlast.Projection
	if inq.clientSQL != nil {
		for _, e := range inq.clientSQL.SelectExprs {
			sqlText, alias := sqlast.SplitProjection(e)
			projections = append(projections, sqlast.Projection{SQL: sqlText, Alias: alias})
		}
	} else {
		for _, c := range dimColumns {
			projections = append(projections, sqlast.Projection{SQL: c})
		}
		for _, c := range metricColumns {
			projections = append(projections, sqlast.Projection{SQL: c})
		}
	}

	var joins []sqlast.Join
	for _, t := range tableNames[1:] {
		if len(dimColumns) > 0 {
			joins = append(joins, sqlast.Join{Type: sqlast.JoinFullOuter, Table: t, Using: dimColumns})
		} else {
			joins = append(joins, sqlast.Join{Type: sqlast.JoinCross, Table: t})
		}
	}

	return sqlast.CombineQuery{
		Projections: projections,
		From:        tableNames[0],
		Joins:       joins,
		OrderBy:     sqlast.OrderBySQL(inq.OrderBy),
	}
}

// Compile renders the full federated query as SQL text without
// dispatching it. Each atomic query is probed against its source with
// "LIMIT 0" and the empty result registered into a throwaway substrate,
// so an atomic query that does not run fails compilation; the
// combination SQL itself is built from the inquiry's granularity,
// dimension and metric names.
func (inq *Inquiry) Compile(ctx context.Context) (string, error) {
	if len(inq.AtomicQueries) == 0 {
		return "", fmt.Errorf("inquiry has no atomic queries to compile")
	}
	sub, err := openSubstrate(ctx)
	if err != nil {
		return "", err
	}
	defer sub.Close()

	for _, aq := range inq.AtomicQueries {
		if aq.Source.Connection == nil {
			return "", fmt.Errorf("source %q has no active connection for compilation", aq.Source.Name)
		}
		dummy, err := aq.Source.Connection.Execute(ctx, aq.SQL+" LIMIT 0")
		if err != nil {
			return "", fmt.Errorf("compiling atomic query for source %q: %w", aq.Source.Name, err)
		}
		if err := sub.register(ctx, aq.Name, dummy); err != nil {
			return "", err
		}
	}
	return inq.combineQuery().SQL(), nil
}

// Dispatch runs every atomic query in parallel, registers each result
// into the in-memory combination substrate, and returns the final
// combined result.
func (inq *Inquiry) Dispatch(ctx context.Context) (arrow.Table, error) {
	if len(inq.AtomicQueries) == 0 {
		return nil, fmt.Errorf("inquiry has no atomic queries to dispatch")
	}
	sub, err := openSubstrate(ctx)
	if err != nil {
		return nil, err
	}
	defer sub.Close()

	if err := dispatchAtomicQueries(ctx, inq.AtomicQueries, sub); err != nil {
		return nil, err
	}

	result, err := sub.query(ctx, inq.combineQuery().SQL())
	if err != nil {
		return nil, fmt.Errorf("executing combined query: %w", err)
	}
	return result, nil
}
