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

// Package sources defines the Connection abstraction every backend
// connection class implements, and the registry each concrete kind
// (mysql, postgres, clickhouse, mssql, oracle, trino, singlestore,
// mindsdb, yugabytedb, duckdb, sqlite) registers itself into via init().
package sources

import (
	"context"
	"fmt"
	"sync"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-yaml"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Source is the runtime capability every connection class exposes once
// initialized: run a SQL string, get a columnar result back as an Arrow
// table. This is the Go rendering of the specification's
// execute(sql) -> table capability, renamed to avoid colliding with the
// "execute" used elsewhere for statement dispatch.
type Source interface {
	SourceKind() string
	ToConfig() SourceConfig
	Execute(ctx context.Context, sql string) (arrow.Table, error)
	Close() error
}

// SourceConfig is the declared, not-yet-connected configuration for one
// named source entry; Initialize opens the real connection.
type SourceConfig interface {
	SourceConfigKind() string
	Initialize(ctx context.Context, tracer trace.Tracer) (Source, error)
}

// NewConfigFunc decodes one source's YAML body into a concrete
// SourceConfig for a given kind.
type NewConfigFunc func(ctx context.Context, name string, decoder *yaml.Decoder) (SourceConfig, error)

var (
	mu       sync.RWMutex
	registry = map[string]NewConfigFunc{}
)

// Register adds a connection kind's config decoder to the registry. It
// returns false (and registers nothing) if the kind is already taken, so
// callers can panic from their own init() with a precise message.
func Register(kind string, fn NewConfigFunc) bool {
	mu.Lock()
	defer mu.Unlock()
	if _, ok := registry[kind]; ok {
		return false
	}
	registry[kind] = fn
	return true
}

// DecodeConfig looks up kind's decoder and uses it to parse body into a
// SourceConfig, then applies the config's validate struct tags.
func DecodeConfig(ctx context.Context, kind, name string, decoder *yaml.Decoder) (SourceConfig, error) {
	mu.RLock()
	fn, ok := registry[kind]
	mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("no driver registered for connection kind %q", kind)
	}
	cfg, err := fn(ctx, name, decoder)
	if err != nil {
		return nil, err
	}
	if err := validate.Struct(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// InitConnectionSpan starts a span around a connection-class's pool
// setup, tagging it with the kind and instance name so traces can
// distinguish one backend's connect latency from another's.
func InitConnectionSpan(ctx context.Context, tracer trace.Tracer, kind, name string) (context.Context, trace.Span) {
	ctx, span := tracer.Start(ctx, "mimir/sources/init",
		trace.WithAttributes(attribute.String("source_kind", kind)),
		trace.WithAttributes(attribute.String("source_name", name)),
	)
	return ctx, span
}
