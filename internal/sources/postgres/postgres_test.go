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

package postgres_test

import (
	"sort"
	"strings"
	"testing"

	yaml "github.com/goccy/go-yaml"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/jackc/pgx/v5"

	"github.com/mimirdata/mimir/internal/server"
	"github.com/mimirdata/mimir/internal/sources/postgres"
	"github.com/mimirdata/mimir/internal/testutils"
)

func TestParseFromYamlPostgres(t *testing.T) {
	tcs := []struct {
		desc string
		in   string
		want server.SourceConfigs
	}{
		{
			desc: "basic example",
			in: `
			sources:
				my-pg-instance:
					kind: postgres
					host: my-host
					port: my-port
					database: my_db
					user: my_user
					password: my_pass
			`,
			want: server.SourceConfigs{
				"my-pg-instance": postgres.Config{
					Name:     "my-pg-instance",
					Kind:     postgres.SourceKind,
					Host:     "my-host",
					Port:     "my-port",
					Database: "my_db",
					User:     "my_user",
					Password: "my_pass",
				},
			},
		},
		{
			desc: "example with query exec mode",
			in: `
			sources:
				my-pg-instance:
					kind: postgres
					host: my-host
					port: my-port
					database: my_db
					user: my_user
					password: my_pass
					queryExecMode: simple_protocol
			`,
			want: server.SourceConfigs{
				"my-pg-instance": postgres.Config{
					Name:          "my-pg-instance",
					Kind:          postgres.SourceKind,
					Host:          "my-host",
					Port:          "my-port",
					Database:      "my_db",
					User:          "my_user",
					Password:      "my_pass",
					QueryExecMode: "simple_protocol",
				},
			},
		},
	}
	for _, tc := range tcs {
		t.Run(tc.desc, func(t *testing.T) {
			t.Parallel()
			got := struct {
				Sources server.SourceConfigs `yaml:"sources"`
			}{}
			err := yaml.Unmarshal(testutils.FormatYaml(tc.in), &got)
			if err != nil {
				t.Fatalf("unable to unmarshal: %s", err)
			}
			if diff := cmp.Diff(tc.want, got.Sources, cmpopts.EquateEmpty()); diff != "" {
				t.Fatalf("mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestFailParseFromYaml(t *testing.T) {
	tcs := []struct {
		desc string
		in   string
		err  string
	}{
		{
			desc: "invalid query exec mode",
			in: `
			sources:
				my-pg-instance:
					kind: postgres
					host: my-host
					port: my-port
					database: my_db
					user: my_user
					password: my_pass
					queryExecMode: invalid_mode
			`,
			err: "oneof",
		},
	}
	for _, tc := range tcs {
		t.Run(tc.desc, func(t *testing.T) {
			t.Parallel()
			got := struct {
				Sources server.SourceConfigs `yaml:"sources"`
			}{}
			err := yaml.Unmarshal(testutils.FormatYaml(tc.in), &got)
			if err == nil {
				t.Fatalf("expect parsing to fail")
			}
			if !strings.Contains(err.Error(), tc.err) {
				t.Fatalf("unexpected error: got %q, want substring %q", err.Error(), tc.err)
			}
		})
	}
}

func TestConvertParamMapToRawQuery(t *testing.T) {
	tcs := []struct {
		desc string
		in   map[string]string
		want string
	}{
		{desc: "nil param", in: nil, want: ""},
		{desc: "single query param", in: map[string]string{"foo": "bar"}, want: "foo=bar"},
		{desc: "more than one query param", in: map[string]string{"foo": "bar", "hello": "world"}, want: "foo=bar&hello=world"},
	}
	for _, tc := range tcs {
		t.Run(tc.desc, func(t *testing.T) {
			got := postgres.ConvertParamMapToRawQuery(tc.in)
			if strings.Contains(got, "&") {
				splitGot := strings.Split(got, "&")
				sort.Strings(splitGot)
				got = strings.Join(splitGot, "&")
			}
			if got != tc.want {
				t.Fatalf("incorrect conversion: got %s want %s", got, tc.want)
			}
		})
	}
}

func TestParseQueryExecMode(t *testing.T) {
	tcs := []struct {
		desc    string
		in      string
		want    pgx.QueryExecMode
		wantErr bool
	}{
		{desc: "empty (default)", in: "", want: pgx.QueryExecModeCacheStatement},
		{desc: "cache_statement", in: "cache_statement", want: pgx.QueryExecModeCacheStatement},
		{desc: "cache_describe", in: "cache_describe", want: pgx.QueryExecModeCacheDescribe},
		{desc: "describe_exec", in: "describe_exec", want: pgx.QueryExecModeDescribeExec},
		{desc: "exec", in: "exec", want: pgx.QueryExecModeExec},
		{desc: "simple_protocol", in: "simple_protocol", want: pgx.QueryExecModeSimpleProtocol},
		{desc: "invalid mode", in: "invalid_mode", wantErr: true},
	}
	for _, tc := range tcs {
		t.Run(tc.desc, func(t *testing.T) {
			got, err := postgres.ParseQueryExecMode(tc.in)
			if (err != nil) != tc.wantErr {
				t.Fatalf("ParseQueryExecMode() error = %v, wantErr %v", err, tc.wantErr)
			}
			if !tc.wantErr && got != tc.want {
				t.Errorf("ParseQueryExecMode() = %v, want %v", got, tc.want)
			}
		})
	}
}
