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

// Package register blank-imports every connection-class backend so
// each one's init() call into sources.Register runs as a side effect
// of importing this package. Nothing in this package's own code path
// depends on the backends directly; main wires it in purely for that
// side effect, the same way the toolbox's own cmd entry point pulls in
// every tools/sources kind it ships.
package register

import (
	_ "github.com/mimirdata/mimir/internal/sources/clickhouse"
	_ "github.com/mimirdata/mimir/internal/sources/duckdb"
	_ "github.com/mimirdata/mimir/internal/sources/mindsdb"
	_ "github.com/mimirdata/mimir/internal/sources/mssql"
	_ "github.com/mimirdata/mimir/internal/sources/mysql"
	_ "github.com/mimirdata/mimir/internal/sources/oracle"
	_ "github.com/mimirdata/mimir/internal/sources/postgres"
	_ "github.com/mimirdata/mimir/internal/sources/singlestore"
	_ "github.com/mimirdata/mimir/internal/sources/sqlite"
	_ "github.com/mimirdata/mimir/internal/sources/trino"
	_ "github.com/mimirdata/mimir/internal/sources/yugabytedb"
)
