// Copyright 2026 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package sources

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
)

// QueryArrow runs query against pool and materializes the full result as
// an in-memory Arrow table, column type inferred from each column's
// first non-null value. Every pooled database/sql connection class
// (mysql, postgres, clickhouse, mssql, oracle, trino, singlestore,
// mindsdb, duckdb, sqlite)
// shares this so the Connection abstraction's Execute always hands back
// the same interchange shape regardless of driver.
func QueryArrow(ctx context.Context, pool *sql.DB, query string) (arrow.Table, error) {
	rows, err := pool.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("executing query: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("reading columns: %w", err)
	}

	scanDest := make([]any, len(cols))
	for i := range scanDest {
		scanDest[i] = new(any)
	}

	return buildArrowTable(cols, func() ([]any, bool, error) {
		if !rows.Next() {
			return nil, false, rows.Err()
		}
		if err := rows.Scan(scanDest...); err != nil {
			return nil, false, fmt.Errorf("scanning row: %w", err)
		}
		rowVals := make([]any, len(cols))
		for i, d := range scanDest {
			rowVals[i] = *(d.(*any))
		}
		return rowVals, true, nil
	})
}

// buildArrowTable drives next (a database/sql or pgx row cursor
// abstracted to a plain value slice) to materialize an Arrow table,
// column type inferred from each column's first non-null value.
func buildArrowTable(cols []string, next func() ([]any, bool, error)) (arrow.Table, error) {
	allocator := memory.NewGoAllocator()
	builders := make([]array.Builder, len(cols))
	fields := make([]arrow.Field, len(cols))
	kinds := make([]fieldKind, len(cols))
	for i, name := range cols {
		kinds[i] = kindUnset
		fields[i] = arrow.Field{Name: name, Type: arrow.BinaryTypes.String, Nullable: true}
	}

	var rowCount int
	var rawRows [][]any
	for {
		rowVals, ok, err := next()
		if err != nil {
			return nil, fmt.Errorf("iterating rows: %w", err)
		}
		if !ok {
			break
		}
		for i, v := range rowVals {
			if kinds[i] == kindUnset && v != nil {
				kinds[i] = kindOf(v)
				fields[i].Type = arrowTypeFor(kinds[i])
			}
		}
		rawRows = append(rawRows, rowVals)
		rowCount++
	}

	for i := range builders {
		if kinds[i] == kindUnset {
			kinds[i] = kindString
			fields[i].Type = arrow.BinaryTypes.String
		}
		builders[i] = array.NewBuilder(allocator, fields[i].Type)
	}

	for _, rowVals := range rawRows {
		for i, v := range rowVals {
			appendValue(builders[i], kinds[i], v)
		}
	}

	arrays := make([]arrow.Array, len(builders))
	for i, b := range builders {
		arrays[i] = b.NewArray()
		defer arrays[i].Release()
	}

	schema := arrow.NewSchema(fields, nil)
	rec := array.NewRecord(schema, arrays, int64(rowCount))
	defer rec.Release()
	return array.NewTableFromRecords(schema, []arrow.Record{rec}), nil
}

type fieldKind int

const (
	kindUnset fieldKind = iota
	kindInt64
	kindFloat64
	kindBool
	kindTime
	kindBytes
	kindString
)

func kindOf(v any) fieldKind {
	switch v.(type) {
	case int64, int32, int:
		return kindInt64
	case float64, float32:
		return kindFloat64
	case bool:
		return kindBool
	case time.Time:
		return kindTime
	case []byte:
		return kindBytes
	default:
		return kindString
	}
}

func arrowTypeFor(k fieldKind) arrow.DataType {
	switch k {
	case kindInt64:
		return arrow.PrimitiveTypes.Int64
	case kindFloat64:
		return arrow.PrimitiveTypes.Float64
	case kindBool:
		return arrow.FixedWidthTypes.Boolean
	case kindTime:
		return arrow.FixedWidthTypes.Timestamp_us
	case kindBytes:
		return arrow.BinaryTypes.Binary
	default:
		return arrow.BinaryTypes.String
	}
}

func appendValue(b array.Builder, k fieldKind, v any) {
	if v == nil {
		b.AppendNull()
		return
	}
	switch k {
	case kindInt64:
		bb := b.(*array.Int64Builder)
		switch n := v.(type) {
		case int64:
			bb.Append(n)
		case int32:
			bb.Append(int64(n))
		case int:
			bb.Append(int64(n))
		default:
			bb.AppendNull()
		}
	case kindFloat64:
		bb := b.(*array.Float64Builder)
		switch n := v.(type) {
		case float64:
			bb.Append(n)
		case float32:
			bb.Append(float64(n))
		default:
			bb.AppendNull()
		}
	case kindBool:
		bb := b.(*array.BooleanBuilder)
		if n, ok := v.(bool); ok {
			bb.Append(n)
		} else {
			bb.AppendNull()
		}
	case kindTime:
		bb := b.(*array.TimestampBuilder)
		if t, ok := v.(time.Time); ok {
			bb.Append(arrow.Timestamp(t.UnixMicro()))
		} else {
			bb.AppendNull()
		}
	case kindBytes:
		bb := b.(*array.BinaryBuilder)
		if byt, ok := v.([]byte); ok {
			bb.Append(byt)
		} else {
			bb.AppendNull()
		}
	default:
		bb := b.(*array.StringBuilder)
		bb.Append(fmt.Sprintf("%v", v))
	}
}
