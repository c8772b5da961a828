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

// Package sqlast builds and inspects SQL fragments as parsed nodes rather
// than by splicing strings together. Fragments that arrive from source,
// dimension, and metric configuration are parsed with the vitess-derived
// sqlparser so column references and projections can be inspected and
// validated; fragments this package itself assembles (CTE wrapping, the
// inquiry's join chain, positional GROUP BY) are built through the small
// composition types in compose.go, which know only SELECT/WHERE/ORDER
// BY/JOIN shapes and never touch untrusted text directly.
package sqlast

import (
	"fmt"
	"strings"

	"github.com/blastrain/vitess-sqlparser/sqlparser"
)

// Expr is a parsed SQL expression, reused verbatim from the parser rather
// than reimplemented.
type Expr = sqlparser.Expr

// SelectExpr is one projection in a SELECT list.
type SelectExpr = sqlparser.SelectExpr

// Select is a parsed SELECT statement.
type Select = sqlparser.Select

// ParseSelect parses sql, which must be a single SELECT statement.
func ParseSelect(sql string) (*sqlparser.Select, error) {
	stmt, err := sqlparser.Parse(sql)
	if err != nil {
		return nil, fmt.Errorf("parsing sql: %w", err)
	}
	sel, ok := stmt.(*sqlparser.Select)
	if !ok {
		return nil, fmt.Errorf("expected a SELECT statement, got %T", stmt)
	}
	return sel, nil
}

// ProjectionAlias returns the effective output name of a single
// projection: its explicit alias, else the bare column name it selects,
// else its rendered SQL text.
func ProjectionAlias(expr SelectExpr) string {
	switch e := expr.(type) {
	case *sqlparser.AliasedExpr:
		if !e.As.IsEmpty() {
			return e.As.String()
		}
		if col, ok := e.Expr.(*sqlparser.ColName); ok {
			return col.Name.String()
		}
		return sqlparser.String(e.Expr)
	case *sqlparser.StarExpr:
		return "*"
	default:
		return sqlparser.String(expr)
	}
}

// ProjectionAliases returns ProjectionAlias for every projection in sel,
// in order.
func ProjectionAliases(sel *sqlparser.Select) []string {
	aliases := make([]string, 0, len(sel.SelectExprs))
	for _, e := range sel.SelectExprs {
		aliases = append(aliases, ProjectionAlias(e))
	}
	return aliases
}

// ParseWhereBody parses the body of a WHERE clause - the boolean
// expression with no leading WHERE keyword - by wrapping it in a
// throwaway SELECT and pulling the condition back out.
func ParseWhereBody(body string) (Expr, error) {
	if strings.TrimSpace(body) == "" {
		return nil, nil
	}
	sel, err := ParseSelect("SELECT 1 WHERE " + body)
	if err != nil {
		return nil, fmt.Errorf("parsing filter: %w", err)
	}
	if sel.Where == nil {
		return nil, nil
	}
	return sel.Where.Expr, nil
}

// OrderItem is one ORDER BY term: an expression plus its direction.
type OrderItem struct {
	Expr Expr
	Desc bool
}

// ParseOrderByBody parses a comma-separated ORDER BY term list with no
// leading ORDER BY keyword.
func ParseOrderByBody(body string) ([]OrderItem, error) {
	if strings.TrimSpace(body) == "" {
		return nil, nil
	}
	sel, err := ParseSelect("SELECT 1 ORDER BY " + body)
	if err != nil {
		return nil, fmt.Errorf("parsing order by: %w", err)
	}
	items := make([]OrderItem, 0, len(sel.OrderBy))
	for _, o := range sel.OrderBy {
		items = append(items, OrderItem{Expr: o.Expr, Desc: o.Direction == sqlparser.DescScr})
	}
	return items, nil
}

// Identifiers returns the distinct column identifiers referenced anywhere
// within expr, in first-seen order.
func Identifiers(expr Expr) []string {
	if expr == nil {
		return nil
	}
	seen := map[string]struct{}{}
	var out []string
	_ = sqlparser.Walk(func(node sqlparser.SQLNode) (bool, error) {
		if col, ok := node.(*sqlparser.ColName); ok {
			name := col.Name.String()
			if _, dup := seen[name]; !dup {
				seen[name] = struct{}{}
				out = append(out, name)
			}
		}
		return true, nil
	}, expr)
	return out
}

// OrderIdentifiers returns the distinct identifiers referenced across a
// parsed ORDER BY term list.
func OrderIdentifiers(items []OrderItem) []string {
	seen := map[string]struct{}{}
	var out []string
	for _, it := range items {
		for _, id := range Identifiers(it.Expr) {
			if _, dup := seen[id]; !dup {
				seen[id] = struct{}{}
				out = append(out, id)
			}
		}
	}
	return out
}

// ExprSQL renders expr back to SQL text.
func ExprSQL(expr Expr) string {
	if expr == nil {
		return ""
	}
	return sqlparser.String(expr)
}

// SelectSQL renders a whole parsed SELECT statement back to SQL text.
func SelectSQL(sel *sqlparser.Select) string {
	return sqlparser.String(sel)
}

// OrderBySQL renders a parsed ORDER BY term list back to its body text
// (without the leading keyword).
func OrderBySQL(items []OrderItem) string {
	parts := make([]string, 0, len(items))
	for _, it := range items {
		s := sqlparser.String(it.Expr)
		if it.Desc {
			s += " desc"
		}
		parts = append(parts, s)
	}
	return strings.Join(parts, ", ")
}

// WhereSQL renders sel's WHERE clause body (no leading keyword), or ""
// if sel has none.
func WhereSQL(sel *sqlparser.Select) string {
	if sel.Where == nil {
		return ""
	}
	return sqlparser.String(sel.Where.Expr)
}

// SelectOrderBySQL renders sel's own ORDER BY term list back to its body
// text (no leading keyword), or "" if sel has none.
func SelectOrderBySQL(sel *sqlparser.Select) string {
	if len(sel.OrderBy) == 0 {
		return ""
	}
	items := make([]OrderItem, 0, len(sel.OrderBy))
	for _, o := range sel.OrderBy {
		items = append(items, OrderItem{Expr: o.Expr, Desc: o.Direction == sqlparser.DescScr})
	}
	return OrderBySQL(items)
}

// HasSubquery reports whether sel contains a derived table or subquery
// anywhere in its FROM, projections, or WHERE clause - used by the
// restricted-SQL translator to reject what it doesn't support.
func HasSubquery(sel *sqlparser.Select) bool {
	found := false
	_ = sqlparser.Walk(func(node sqlparser.SQLNode) (bool, error) {
		if _, ok := node.(*sqlparser.Subquery); ok {
			found = true
			return false, nil
		}
		return true, nil
	}, sel)
	return found
}

// TargetsTable reports whether sel's FROM clause is exactly one table
// named table, optionally qualified by schema (schema is ignored if
// empty). Used by the MySQL-wire proxy to recognize statements against
// the mimir.metrics virtual table and route everything else to local
// passthrough execution.
func TargetsTable(sel *sqlparser.Select, schema, table string) bool {
	if len(sel.From) != 1 {
		return false
	}
	aliased, ok := sel.From[0].(*sqlparser.AliasedTableExpr)
	if !ok {
		return false
	}
	name, ok := aliased.Expr.(sqlparser.TableName)
	if !ok {
		return false
	}
	if !strings.EqualFold(name.Name.String(), table) {
		return false
	}
	if schema == "" {
		return true
	}
	return strings.EqualFold(name.Qualifier.String(), schema)
}

// AppendWhere conjoins cond onto sel's existing WHERE clause with AND, or
// sets it if sel has none yet.
func AppendWhere(sel *sqlparser.Select, cond Expr) {
	if cond == nil {
		return
	}
	if sel.Where == nil {
		sel.Where = &sqlparser.Where{Type: sqlparser.WhereStr, Expr: cond}
		return
	}
	sel.Where.Expr = &sqlparser.AndExpr{Left: sel.Where.Expr, Right: cond}
}

// TopLevelFuncCalls returns, for each projection in sel, the function
// name of a bare top-level call (e.g. AGG(x) -> "agg") or "" if that
// projection isn't a bare function call. Used by the restricted-SQL
// translator to find the AGG(...) sentinel.
func TopLevelFuncCalls(sel *sqlparser.Select) []string {
	names := make([]string, len(sel.SelectExprs))
	for i, e := range sel.SelectExprs {
		ae, ok := e.(*sqlparser.AliasedExpr)
		if !ok {
			continue
		}
		fe, ok := ae.Expr.(*sqlparser.FuncExpr)
		if !ok {
			continue
		}
		names[i] = strings.ToLower(fe.Name.String())
	}
	return names
}

// SplitProjection separates a parsed projection into its bare SQL text
// (with no trailing "AS alias") and that alias on its own, the shape
// compose.go's Projection wants when re-rendering an already-parsed
// expression inside a query this package assembles itself.
func SplitProjection(expr SelectExpr) (sql string, alias string) {
	ae, ok := expr.(*sqlparser.AliasedExpr)
	if !ok {
		return sqlparser.String(expr), ""
	}
	if !ae.As.IsEmpty() {
		return sqlparser.String(ae.Expr), ae.As.String()
	}
	return sqlparser.String(ae.Expr), ""
}

// FuncArg returns the rendered SQL of the sole argument of a FuncExpr
// projection, as produced alongside TopLevelFuncCalls.
func FuncArg(expr SelectExpr) (string, bool) {
	ae, ok := expr.(*sqlparser.AliasedExpr)
	if !ok {
		return "", false
	}
	fe, ok := ae.Expr.(*sqlparser.FuncExpr)
	if !ok || len(fe.Exprs) != 1 {
		return "", false
	}
	return sqlparser.String(fe.Exprs[0]), true
}
