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
	"strings"
	"testing"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
)

func TestArrowCreateTableSQLMapsTypes(t *testing.T) {
	schema := arrow.NewSchema([]arrow.Field{
		{Name: "revenue", Type: arrow.PrimitiveTypes.Float64},
		{Name: "region", Type: arrow.BinaryTypes.String},
		{Name: "active", Type: arrow.FixedWidthTypes.Boolean},
	}, nil)

	sql, err := arrowCreateTableSQL("tbl_abc", schema)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if !strings.Contains(sql, "DOUBLE") || !strings.Contains(sql, "VARCHAR") || !strings.Contains(sql, "BOOLEAN") {
		t.Fatalf("expected mapped column types, got %s", sql)
	}
	if !strings.HasPrefix(sql, `CREATE TABLE "tbl_abc"`) {
		t.Fatalf("expected quoted table name, got %s", sql)
	}
}

func TestArrowValueAtReadsTypedValues(t *testing.T) {
	alloc := memory.NewGoAllocator()
	b := array.NewFloat64Builder(alloc)
	defer b.Release()
	b.Append(42.5)
	b.AppendNull()
	arr := b.NewArray()
	defer arr.Release()

	if v := arrowValueAt(arr, 0); v != 42.5 {
		t.Fatalf("expected 42.5, got %v", v)
	}
	if v := arrowValueAt(arr, 1); v != nil {
		t.Fatalf("expected nil for null value, got %v", v)
	}
}

func TestMin64(t *testing.T) {
	if min64(3, 8) != 3 {
		t.Fatalf("expected 3")
	}
	if min64(8, 3) != 3 {
		t.Fatalf("expected 3")
	}
}
