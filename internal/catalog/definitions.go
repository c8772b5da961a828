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

package catalog

import (
	"fmt"
	"strings"
	"time"

	"github.com/mimirdata/mimir/internal/sources"
	"github.com/mimirdata/mimir/internal/sqlast"
	"github.com/mimirdata/mimir/internal/util"
)

// Definition is satisfied by Source, Dimension, and Metric so they can
// share equality and ordering by (name, kind) without an embedded base
// type.
type Definition interface {
	Kind() string
	GetName() string
}

// Equal reports whether two definitions have the same name and kind.
func Equal(a, b Definition) bool {
	return a.GetName() == b.GetName() && a.Kind() == b.Kind()
}

// Less orders definitions by name, matching the source config's
// sortable-by-name behavior.
func Less(a, b Definition) bool {
	return a.GetName() < b.GetName()
}

// Dimension is a categorical column usable for grouping.
type Dimension struct {
	Name        string
	SQL         string
	Description string
	// SourceName names the Source this dimension belongs to. It defaults
	// to "local" for dimensions declared directly inside a source's SQL.
	SourceName string
}

func (d Dimension) Kind() string    { return "dimension" }
func (d Dimension) GetName() string { return d.Name }

// Source is a data source: connection info plus the columns it exposes.
type Source struct {
	Name        string
	SQL         string
	Description string

	TimeCol         string
	TimeColAlias    string
	SourceDimensions []string
	LocalDimensions  []string
	ConnectionName   string
	Connection       sources.Source
}

func (s Source) Kind() string    { return "source" }
func (s Source) GetName() string { return s.Name }

// NewSource validates and derives a Source's computed fields from its raw
// configuration, mirroring the source config's after-validation hook.
func NewSource(name, sql, description, timeCol, timeColAlias, connectionName string, sourceDimensions []string, conn sources.Source) (*Source, error) {
	if sql == "" {
		return nil, util.NewConfigurationError("sql field is needed in the source config", nil)
	}
	if timeColAlias == "" {
		timeColAlias = timeCol
	}

	sel, err := sqlast.ParseSelect(sql)
	if err != nil {
		return nil, util.NewConfigurationErrorf(err, "source %q has unparseable sql", name)
	}
	var local []string
	for _, e := range sel.SelectExprs {
		alias := sqlast.ProjectionAlias(e)
		if alias != timeColAlias {
			local = append(local, alias)
		}
	}

	return &Source{
		Name:             name,
		SQL:              sql,
		Description:      description,
		TimeCol:          timeCol,
		TimeColAlias:     timeColAlias,
		SourceDimensions: sourceDimensions,
		LocalDimensions:  local,
		ConnectionName:   connectionName,
		Connection:       conn,
	}, nil
}

// validateColumns checks that every name in columnNames is among the
// source's local dimensions, its declared source dimensions, the given
// metric names, its time column alias, or (when non-empty) the given
// granularity alias.
func (s *Source) validateColumns(columnNames []string, metricNames []string, granularityAlias string, errMessage string) error {
	if errMessage == "" {
		errMessage = "The following dimensions are missing from the source config: "
	}

	allowed := map[string]struct{}{s.TimeColAlias: {}}
	for _, c := range s.LocalDimensions {
		allowed[c] = struct{}{}
	}
	for _, c := range s.SourceDimensions {
		allowed[c] = struct{}{}
	}
	for _, c := range metricNames {
		allowed[c] = struct{}{}
	}
	if granularityAlias != "" {
		allowed[granularityAlias] = struct{}{}
	}

	var unavailable []string
	for _, c := range columnNames {
		if _, ok := allowed[c]; !ok {
			unavailable = append(unavailable, c)
		}
	}
	if len(unavailable) > 0 {
		return util.NewConfigurationError(
			fmt.Sprintf("Invalid columns for source '%s'. %s(%s)", s.Name, errMessage, strings.Join(unavailable, ", ")),
			nil,
		)
	}
	return nil
}

// ValidateDimensions checks that every requested dimension is available
// on this source.
func (s *Source) ValidateDimensions(dimensions []Dimension) error {
	names := make([]string, len(dimensions))
	for i, d := range dimensions {
		names[i] = d.Name
	}
	return s.validateColumns(names, nil, "", "")
}

// ValidateConditions checks that every column referenced by a WHERE
// clause is available on this source, also allowing metric names.
func (s *Source) ValidateConditions(where sqlast.Expr, metricNames []string) error {
	if where == nil {
		return nil
	}
	return s.validateColumns(sqlast.Identifiers(where), metricNames, "", "")
}

// ValidateSort checks that every column referenced by an ORDER BY list is
// available on this source, also allowing metric names and a
// granularity alias.
func (s *Source) ValidateSort(orderBy []sqlast.OrderItem, metricNames []string, granularityAlias string) error {
	if len(orderBy) == 0 {
		return nil
	}
	return s.validateColumns(sqlast.OrderIdentifiers(orderBy), metricNames, granularityAlias, "")
}

// CompileSource builds the source's query, appending any non-local
// dimensions' own projections and bounding it by the given date range.
// start/end are "YYYY-MM-DD" strings, matching Inquiry's wire format; an
// empty string means "no bound".
func (s *Source) CompileSource(dimensions []Dimension, start, end string) (*sqlast.Select, error) {
	if s.SQL == "" {
		return nil, util.NewConfigurationError(fmt.Sprintf("Source '%s' has no SQL expression defined.", s.Name), nil)
	}

	sel, err := sqlast.ParseSelect(s.SQL)
	if err != nil {
		return nil, util.NewConfigurationErrorf(err, "source %q has unparseable sql", s.Name)
	}

	for _, dim := range dimensions {
		if dim.SourceName == "local" || dim.SQL == "" {
			continue
		}
		dimSel, err := sqlast.ParseSelect(dim.SQL)
		if err != nil {
			return nil, util.NewConfigurationErrorf(err, "dimension %q has unparseable sql", dim.Name)
		}
		sel.SelectExprs = append(sel.SelectExprs, dimSel.SelectExprs...)
	}

	if start != "" {
		cond, err := sqlast.ParseWhereBody(fmt.Sprintf("%s >= '%s'", s.TimeCol, start))
		if err != nil {
			return nil, util.NewQueryError("building start-date filter", err)
		}
		sqlast.AppendWhere(sel, cond)
	}
	if end != "" {
		endDate, err := time.Parse("2006-01-02", end)
		if err != nil {
			return nil, util.NewQueryError("parsing end date", err)
		}
		exclusive := endDate.AddDate(0, 0, 1).Format("2006-01-02")
		cond, err := sqlast.ParseWhereBody(fmt.Sprintf("%s < '%s'", s.TimeCol, exclusive))
		if err != nil {
			return nil, util.NewQueryError("building end-date filter", err)
		}
		sqlast.AppendWhere(sel, cond)
	}

	return sel, nil
}
