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

	"github.com/apache/arrow-go/v18/arrow"

	"github.com/mimirdata/mimir/internal/catalog"
)

// Engine is the facade callers (the HTTP server, the CLI) build one
// Inquiry at a time through: it wraps the Catalog and exposes the two
// operations an inquiry supports end to end.
type Engine struct {
	Catalog *catalog.Catalog
}

// New builds an Engine over an already-constructed Catalog.
func New(cat *catalog.Catalog) *Engine {
	return &Engine{Catalog: cat}
}

// Schema returns the engine's full source/metric/dimension schema.
func (e *Engine) Schema(ctx context.Context) (map[string]catalog.SchemaEntry, error) {
	return e.Catalog.GetSchema(ctx)
}

// Query builds an Inquiry from req and dispatches it, returning the
// combined result as an Arrow table.
func (e *Engine) Query(ctx context.Context, req InquiryRequest) (arrow.Table, error) {
	inq, err := NewInquiry(ctx, e.Catalog, req)
	if err != nil {
		return nil, err
	}
	return inq.Dispatch(ctx)
}

// Describe builds an Inquiry from req and compiles its SQL without
// executing it.
func (e *Engine) Describe(ctx context.Context, req InquiryRequest) (string, error) {
	inq, err := NewInquiry(ctx, e.Catalog, req)
	if err != nil {
		return "", err
	}
	return inq.Compile(ctx)
}
