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

package sqlast

import (
	"fmt"
	"strconv"
	"strings"
)

// Projection is one item of a composed SELECT's projection list: already
// rendered SQL text (itself produced by ExprSQL/ProjectionAlias over
// parsed nodes) plus its output alias.
type Projection struct {
	SQL   string
	Alias string
}

func (p Projection) String() string {
	if p.Alias == "" {
		return p.SQL
	}
	return fmt.Sprintf("%s AS %s", p.SQL, p.Alias)
}

// JoinType is the kind of join used to stitch two atomic queries'
// intermediate tables together in a combination query. Dialects that
// compose inquiries (DuckDB, Postgres-family warehouses) support FULL
// OUTER JOIN; the vitess-derived parser used elsewhere in this package
// targets a MySQL grammar that doesn't, which is why joins here are
// modeled directly rather than parsed.
type JoinType int

const (
	JoinCross JoinType = iota
	JoinFullOuter
)

// Join describes one join step onto a running combination query.
type Join struct {
	Type  JoinType
	Table string
	Using []string
}

func (j Join) String() string {
	switch j.Type {
	case JoinCross:
		return fmt.Sprintf("CROSS JOIN %s", j.Table)
	case JoinFullOuter:
		return fmt.Sprintf("FULL JOIN %s USING (%s)", j.Table, strings.Join(j.Using, ", "))
	default:
		return ""
	}
}

// CombineQuery is the composition for an inquiry's post-dispatch
// combination SELECT: a projection list over a left-folded chain of
// joins across the atomic queries' intermediate tables, with an optional
// ORDER BY.
type CombineQuery struct {
	Projections []Projection
	From        string
	Joins       []Join
	OrderBy     string
}

// SQL renders the combination query.
func (q CombineQuery) SQL() string {
	cols := make([]string, 0, len(q.Projections))
	for _, p := range q.Projections {
		cols = append(cols, p.String())
	}
	var b strings.Builder
	fmt.Fprintf(&b, "SELECT %s FROM %s", strings.Join(cols, ", "), q.From)
	for _, j := range q.Joins {
		b.WriteString(" ")
		b.WriteString(j.String())
	}
	if q.OrderBy != "" {
		fmt.Fprintf(&b, " ORDER BY %s", q.OrderBy)
	}
	return b.String()
}

// AtomicSelect is the composition for one atomic query's outer SELECT: a
// positional GROUP BY over its leading dimension projections, wrapping a
// compiled source as a named CTE.
type AtomicSelect struct {
	Projections  []Projection
	From         string
	GroupByCount int
	Where        string
	CTEName      string
	CTEBody      string
}

// SQL renders the atomic query.
func (q AtomicSelect) SQL() string {
	cols := make([]string, 0, len(q.Projections))
	for _, p := range q.Projections {
		cols = append(cols, p.String())
	}
	var b strings.Builder
	fmt.Fprintf(&b, "WITH %s AS (%s) SELECT %s FROM %s", q.CTEName, q.CTEBody, strings.Join(cols, ", "), q.From)
	if q.Where != "" {
		fmt.Fprintf(&b, " WHERE %s", q.Where)
	}
	if q.GroupByCount > 0 {
		positions := make([]string, q.GroupByCount)
		for i := range positions {
			positions[i] = strconv.Itoa(i + 1)
		}
		fmt.Fprintf(&b, " GROUP BY %s", strings.Join(positions, ", "))
	}
	return b.String()
}
