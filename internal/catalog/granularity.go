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

	"github.com/mimirdata/mimir/internal/sqlast"
)

// Granularity is the closed set of time bucketing variants an Inquiry may
// request. Each variant carries its own alias and the SQL expression it
// contributes for a given time column - there is no way to construct a
// Granularity outside this set.
type Granularity int

const (
	Time Granularity = iota
	Date
	Month
	Year
)

var granularityNames = map[string]Granularity{
	"TIME":  Time,
	"DATE":  Date,
	"MONTH": Month,
	"YEAR":  Year,
}

// ParseGranularity resolves a granularity by its configuration name
// (TIME, DATE, MONTH, YEAR).
func ParseGranularity(name string) (Granularity, error) {
	g, ok := granularityNames[name]
	if !ok {
		return 0, fmt.Errorf("unknown granularity %q", name)
	}
	return g, nil
}

// String renders the enum constant name.
func (g Granularity) String() string {
	switch g {
	case Time:
		return "TIME"
	case Date:
		return "DATE"
	case Month:
		return "MONTH"
	case Year:
		return "YEAR"
	default:
		return "UNKNOWN"
	}
}

// Alias is the output column name this granularity produces; it is the
// same name its Expression aliases the projection as.
func (g Granularity) Alias() string {
	switch g {
	case Time:
		return "ts"
	case Date:
		return "ds"
	case Month:
		return "year_month"
	case Year:
		return "year"
	default:
		return ""
	}
}

// Expression returns the SELECT projection this granularity contributes
// for the given time column, parsed through sqlast so it composes with
// the rest of a projection list as a real node rather than pasted text.
func (g Granularity) Expression(timeCol string) (sqlast.SelectExpr, error) {
	var text string
	switch g {
	case Time:
		text = fmt.Sprintf("%s as ts", timeCol)
	case Date:
		text = fmt.Sprintf("DATE(%s) as ds", timeCol)
	case Month:
		text = fmt.Sprintf("DATE_TRUNC('month', %s) as year_month", timeCol)
	case Year:
		text = fmt.Sprintf("DATE_TRUNC('year', %s) as year", timeCol)
	default:
		return nil, fmt.Errorf("unknown granularity %v", g)
	}
	sel, err := sqlast.ParseSelect("SELECT " + text)
	if err != nil {
		return nil, fmt.Errorf("building granularity expression: %w", err)
	}
	return sel.SelectExprs[0], nil
}
