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
	"database/sql"
	"database/sql/driver"
	"fmt"
	"strings"
	"sync"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	duckdb "github.com/marcboeker/go-duckdb"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/mimirdata/mimir/internal/sources"
	"github.com/mimirdata/mimir/internal/util"
)

// MaxConcurrentDispatch bounds how many atomic queries a single Inquiry
// will run against their sources at once.
const MaxConcurrentDispatch = 8

// substrate is the per-Inquiry in-memory DuckDB database atomic query
// results are registered into so the combination query (FULL JOIN /
// CROSS JOIN across sources) can run as one statement. Grounded in
// original_source/src/mimir/api/engine.py's `duckdb.connect(":memory:")`
// + `conn.register(...)` pattern: opened once per Compile/Dispatch call
// and closed on every exit path.
type substrate struct {
	db *sql.DB
	mu sync.Mutex
}

// openSubstrate opens a fresh in-memory DuckDB database for one
// Inquiry's Compile or Dispatch call.
func openSubstrate(ctx context.Context) (*substrate, error) {
	db, err := sql.Open("duckdb", "")
	if err != nil {
		return nil, fmt.Errorf("opening combination substrate: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("opening combination substrate: %w", err)
	}
	return &substrate{db: db}, nil
}

// Close tears down the substrate. Safe to defer unconditionally - it
// runs on success, error, and cancellation alike.
func (s *substrate) Close() error {
	return s.db.Close()
}

// register makes tbl queryable under name inside the substrate,
// serialized behind a mutex per the one-writer-at-a-time requirement on
// DuckDB registration.
func (s *substrate) register(ctx context.Context, name string, tbl arrow.Table) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return registerArrowTable(ctx, s.db, name, tbl)
}

// query runs sql against the substrate and returns the result as Arrow.
func (s *substrate) query(ctx context.Context, query string) (arrow.Table, error) {
	return sources.QueryArrow(ctx, s.db, query)
}

// dispatchAtomicQueries runs every atomic query concurrently (bounded by
// MaxConcurrentDispatch), registering each result into sub as it
// completes. The first error cancels the rest via the errgroup's derived
// context.
func dispatchAtomicQueries(ctx context.Context, queries []*AtomicQuery, sub *substrate) error {
	g, gctx := errgroup.WithContext(ctx)
	sem := semaphore.NewWeighted(min64(int64(len(queries)), MaxConcurrentDispatch))

	for _, aq := range queries {
		aq := aq
		g.Go(func() error {
			if err := sem.Acquire(gctx, 1); err != nil {
				return err
			}
			defer sem.Release(1)

			data, err := aq.Execute(gctx)
			if err != nil {
				if _, ok := err.(util.MimirError); ok {
					return err
				}
				return fmt.Errorf("atomic query against source %q: %w", aq.Source.Name, err)
			}
			if err := sub.register(gctx, aq.Name, data); err != nil {
				return fmt.Errorf("registering result for source %q: %w", aq.Source.Name, err)
			}
			return nil
		})
	}
	return g.Wait()
}

func min64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}

// registerArrowTable materializes tbl into db under name: a CREATE
// TABLE inferred from tbl's schema, then a duckdb Appender to load
// every row - the same two-step the rill metrics-view aggregator uses
// to pivot arbitrary query results through an embedded DuckDB
// connection (CreateTableQuery + duckdb.NewAppenderFromConn +
// AppendRowArray).
func registerArrowTable(ctx context.Context, db *sql.DB, name string, tbl arrow.Table) error {
	createSQL, err := arrowCreateTableSQL(name, tbl.Schema())
	if err != nil {
		return err
	}
	if _, err := db.ExecContext(ctx, createSQL); err != nil {
		return fmt.Errorf("creating substrate table %q: %w", name, err)
	}

	conn, err := db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("acquiring substrate connection: %w", err)
	}
	defer conn.Close()

	return conn.Raw(func(driverConn any) error {
		dc, ok := driverConn.(driver.Conn)
		if !ok {
			return fmt.Errorf("substrate: unexpected driver connection type %T", driverConn)
		}
		appender, err := duckdb.NewAppenderFromConn(dc, "", name)
		if err != nil {
			return fmt.Errorf("creating appender for %q: %w", name, err)
		}
		defer appender.Close()

		numCols := int(tbl.NumCols())
		cols := make([]arrow.Array, numCols)
		for i := 0; i < numCols; i++ {
			col := tbl.Column(i).Data()
			if col.Len() == 0 {
				continue
			}
			cols[i] = col.Chunk(0)
		}

		row := make([]driver.Value, numCols)
		for r := 0; r < int(tbl.NumRows()); r++ {
			for c := 0; c < numCols; c++ {
				row[c] = arrowValueAt(cols[c], r)
			}
			if err := appender.AppendRowArray(row); err != nil {
				return fmt.Errorf("appending row to %q: %w", name, err)
			}
		}
		return nil
	})
}

// arrowValueAt reads the value at row i of arr as a database/sql/driver
// value, the inverse of arrowexec.go's appendValue.
func arrowValueAt(arr arrow.Array, i int) driver.Value {
	if arr == nil || arr.IsNull(i) {
		return nil
	}
	switch a := arr.(type) {
	case *array.Int64:
		return a.Value(i)
	case *array.Float64:
		return a.Value(i)
	case *array.Boolean:
		return a.Value(i)
	case *array.Timestamp:
		return a.Value(i).ToTime(arrow.Microsecond)
	case *array.Binary:
		return a.Value(i)
	case *array.String:
		return a.Value(i)
	default:
		return fmt.Sprintf("%v", arr)
	}
}

// arrowCreateTableSQL renders a CREATE TABLE statement whose column
// types are DuckDB's closest match to each Arrow field's type.
func arrowCreateTableSQL(name string, schema *arrow.Schema) (string, error) {
	cols := make([]string, schema.NumFields())
	for i, f := range schema.Fields() {
		cols[i] = fmt.Sprintf("%q %s", f.Name, duckDBColumnType(f.Type))
	}
	return fmt.Sprintf("CREATE TABLE %q (%s)", name, strings.Join(cols, ", ")), nil
}

func duckDBColumnType(t arrow.DataType) string {
	switch t.ID() {
	case arrow.INT64:
		return "BIGINT"
	case arrow.FLOAT64:
		return "DOUBLE"
	case arrow.BOOL:
		return "BOOLEAN"
	case arrow.TIMESTAMP:
		return "TIMESTAMP"
	case arrow.BINARY:
		return "BLOB"
	default:
		return "VARCHAR"
	}
}
