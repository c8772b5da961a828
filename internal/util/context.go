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

package util

import (
	"context"
	"fmt"

	"github.com/mimirdata/mimir/internal/log"
)

type loggerContextKey struct{}

// WithLogger returns a context carrying logger, retrievable later with
// LoggerFromContext - used to thread the configured Logger down into
// backend connection-class code without adding a parameter to every call.
func WithLogger(ctx context.Context, logger log.Logger) context.Context {
	return context.WithValue(ctx, loggerContextKey{}, logger)
}

// LoggerFromContext retrieves the logger installed by WithLogger.
func LoggerFromContext(ctx context.Context) (log.Logger, error) {
	logger, ok := ctx.Value(loggerContextKey{}).(log.Logger)
	if !ok {
		return nil, fmt.Errorf("unable to get logger from context")
	}
	return logger, nil
}
