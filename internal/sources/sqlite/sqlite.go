// Copyright 2025 Google LLC
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

// Package sqlite implements the other half of the "embedded" connection
// class: a file-backed or in-memory SQLite database, using the
// pure-Go modernc.org/sqlite driver so embedded sources never require
// cgo.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/goccy/go-yaml"
	"github.com/mimirdata/mimir/internal/sources"
	_ "modernc.org/sqlite"
	"go.opentelemetry.io/otel/trace"
)

// SourceKind for an embedded SQLite database.
const SourceKind string = "sqlite"

// validate interface
var _ sources.SourceConfig = Config{}

func init() {
	if !sources.Register(SourceKind, newConfig) {
		panic(fmt.Sprintf("source kind %q already registered", SourceKind))
	}
}

func newConfig(ctx context.Context, name string, decoder *yaml.Decoder) (sources.SourceConfig, error) {
	actual := Config{Name: name}
	if err := decoder.DecodeContext(ctx, &actual); err != nil {
		return nil, err
	}
	return actual, nil
}

// Config holds the configuration parameters for an embedded SQLite
// database. Path may be a file path or ":memory:".
type Config struct {
	Name string `yaml:"name" validate:"required"`
	Kind string `yaml:"kind" validate:"required"`
	Path string `yaml:"path" validate:"required"`
}

func (r Config) SourceConfigKind() string {
	return SourceKind
}

func (r Config) Initialize(ctx context.Context, tracer trace.Tracer) (sources.Source, error) {
	pool, err := initSQLiteConnectionPool(ctx, tracer, r.Name, r.Path)
	if err != nil {
		return nil, fmt.Errorf("unable to create pool: %w", err)
	}

	err = pool.PingContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("unable to connect successfully: %w", err)
	}

	s := &Source{
		Config: r,
		Pool:   pool,
	}
	return s, nil
}

var _ sources.Source = &Source{}

// Source represents an embedded SQLite database source.
type Source struct {
	Config
	Pool *sql.DB
}

func (s *Source) SourceKind() string {
	return SourceKind
}

func (s *Source) ToConfig() sources.SourceConfig {
	return s.Config
}

func (s *Source) SQLitePool() *sql.DB {
	return s.Pool
}

func (s *Source) Close() error { return s.Pool.Close() }

func (s *Source) Execute(ctx context.Context, query string) (arrow.Table, error) {
	return sources.QueryArrow(ctx, s.Pool, query)
}

func initSQLiteConnectionPool(ctx context.Context, tracer trace.Tracer, name, path string) (*sql.DB, error) {
	//nolint:all // Reassigned ctx
	ctx, span := sources.InitConnectionSpan(ctx, tracer, SourceKind, name)
	defer span.End()

	pool, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sql.Open: %w", err)
	}
	// modernc.org/sqlite's driver serializes writers internally; a single
	// pooled connection avoids "database is locked" contention.
	pool.SetMaxOpenConns(1)
	return pool, nil
}
