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
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/yugabyte/pgx/v5"
)

// PgxQuerier is satisfied by *pgxpool.Pool; kept narrow so this file
// doesn't need to import pgxpool itself.
type PgxQuerier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// QueryArrowPgx is QueryArrow's counterpart for YugabyteDB's forked pgx
// driver, which exposes rows as []any via Values() instead of the
// database/sql Scanner protocol.
func QueryArrowPgx(ctx context.Context, pool PgxQuerier, query string) (arrow.Table, error) {
	rows, err := pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("executing query: %w", err)
	}
	defer rows.Close()

	fieldDescs := rows.FieldDescriptions()
	cols := make([]string, len(fieldDescs))
	for i, fd := range fieldDescs {
		cols[i] = fd.Name
	}

	table, err := buildArrowTable(cols, func() ([]any, bool, error) {
		if !rows.Next() {
			return nil, false, rows.Err()
		}
		vals, err := rows.Values()
		if err != nil {
			return nil, false, fmt.Errorf("scanning row: %w", err)
		}
		return vals, true, nil
	})
	if err != nil {
		return nil, err
	}
	return table, nil
}
