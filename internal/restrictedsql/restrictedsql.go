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

// Package restrictedsql parses a single SELECT over a virtual
// mimir.metrics table into inquiry parameters: the alternate front door
// onto the same engine.Inquiry, exercising the same validation rules a
// direct API call would. Grounded on
// original_source/src/mimir/sql/mimir_sql.py's MimirSql.
package restrictedsql

import (
	"strings"

	"github.com/mimirdata/mimir/internal/sqlast"
	"github.com/mimirdata/mimir/internal/util"
)

// Parsed is the set of inquiry parameters extracted from one restricted
// SQL statement.
type Parsed struct {
	Dimensions   []string
	Metrics      []string
	GlobalFilter string
	OrderBy      string
	ClientSQL    string
}

// aggFunc is the sentinel function name marking a top-level projection
// as a metric rather than a dimension, recognized case-insensitively.
const aggFunc = "agg"

// Parse parses sql - a single SELECT over mimir.metrics - into inquiry
// parameters. It rejects, with a NotImplementedError, multiple
// statements, CTEs, derived tables, and subqueries.
func Parse(sql string) (*Parsed, error) {
	if err := rejectMultipleStatements(sql); err != nil {
		return nil, err
	}

	sel, err := sqlast.ParseSelect(sql)
	if err != nil {
		if looksLikeCTE(sql) {
			return nil, util.NewNotImplementedError("CTEs are not yet supported")
		}
		return nil, util.NewConfigurationErrorf(err, "parsing restricted sql")
	}
	if sqlast.HasSubquery(sel) {
		return nil, util.NewNotImplementedError("derived tables and subqueries are not yet supported")
	}

	funcNames := sqlast.TopLevelFuncCalls(sel)
	var dimensions, metrics []string
	var clientProjections []sqlast.Projection

	for i, e := range sel.SelectExprs {
		if funcNames[i] == aggFunc {
			arg, ok := sqlast.FuncArg(e)
			if !ok {
				return nil, util.NewConfigurationError("AGG(...) must take exactly one argument", nil)
			}
			metrics = append(metrics, arg)
			_, alias := sqlast.SplitProjection(e)
			clientProjections = append(clientProjections, sqlast.Projection{SQL: arg, Alias: alias})
			continue
		}
		sqlText, alias := sqlast.SplitProjection(e)
		dimensions = append(dimensions, sqlText)
		clientProjections = append(clientProjections, sqlast.Projection{SQL: sqlText, Alias: alias})
	}

	return &Parsed{
		Dimensions:   dimensions,
		Metrics:      metrics,
		GlobalFilter: sqlast.WhereSQL(sel),
		OrderBy:      sqlast.SelectOrderBySQL(sel),
		ClientSQL:    renderClientSQL(clientProjections),
	}, nil
}

// renderClientSQL renders the rewritten projection-only SELECT where
// every AGG(x) has been replaced by x, preserving column order and
// aliases.
func renderClientSQL(projections []sqlast.Projection) string {
	parts := make([]string, len(projections))
	for i, p := range projections {
		parts[i] = p.String()
	}
	return "SELECT " + strings.Join(parts, ", ")
}

// rejectMultipleStatements rejects input containing more than one
// semicolon-separated statement.
func rejectMultipleStatements(sql string) error {
	count := 0
	for _, stmt := range strings.Split(sql, ";") {
		if strings.TrimSpace(stmt) != "" {
			count++
		}
	}
	if count > 1 {
		return util.NewNotImplementedError("multiple statements are not yet supported")
	}
	return nil
}

// looksLikeCTE reports whether sql opens with a WITH clause - the
// vitess-derived parser used elsewhere in this package doesn't
// represent CTEs, so a WITH-prefixed statement fails to parse as a bare
// SELECT; this turns that parse failure into the NotImplementedError
// the specification calls for instead of a generic configuration error.
func looksLikeCTE(sql string) bool {
	trimmed := strings.TrimSpace(sql)
	return len(trimmed) >= 4 && strings.EqualFold(trimmed[:4], "with")
}
