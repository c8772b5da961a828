// Copyright 2024 Google LLC
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

package log

import (
	"context"
	"io"
	"log/slog"

	"go.opentelemetry.io/otel/trace"
)

// Logger is the interface used throughout the codebase for contextual,
// leveled logging. Two concrete implementations are provided: StdLogger
// (human-readable) and StructuredLogger (JSON, Cloud-LogEntry shaped).
type Logger interface {
	DebugContext(ctx context.Context, msg string, keysAndValues ...any)
	InfoContext(ctx context.Context, msg string, keysAndValues ...any)
	WarnContext(ctx context.Context, msg string, keysAndValues ...any)
	ErrorContext(ctx context.Context, msg string, keysAndValues ...any)
}

// NewValueTextHandler returns a slog.Handler producing one line of
// key=value pairs per record, the shape used by NewStdLogger.
func NewValueTextHandler(w io.Writer, opts *slog.HandlerOptions) slog.Handler {
	return handlerWithSpanContext(slog.NewTextHandler(w, opts))
}

// handlerWithSpanContext wraps a handler so that records emitted inside a
// traced context carry trace_id/span_id attributes, without requiring
// every call site to thread them through manually.
func handlerWithSpanContext(h slog.Handler) slog.Handler {
	return &spanContextHandler{inner: h}
}

type spanContextHandler struct {
	inner slog.Handler
}

func (h *spanContextHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

func (h *spanContextHandler) Handle(ctx context.Context, r slog.Record) error {
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		r.AddAttrs(
			slog.String("trace_id", sc.TraceID().String()),
			slog.String("span_id", sc.SpanID().String()),
		)
	}
	return h.inner.Handle(ctx, r)
}

func (h *spanContextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &spanContextHandler{inner: h.inner.WithAttrs(attrs)}
}

func (h *spanContextHandler) WithGroup(name string) slog.Handler {
	return &spanContextHandler{inner: h.inner.WithGroup(name)}
}
