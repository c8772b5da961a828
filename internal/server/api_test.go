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

package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/mimirdata/mimir/internal/catalog"
)

func TestSchemaEndpointReturnsCatalogSchema(t *testing.T) {
	s := setUpServer(t)
	r, err := apiRouter(s)
	if err != nil {
		t.Fatalf("unable to build api router: %s", err)
	}
	ts := httptest.NewServer(r)
	defer ts.Close()

	resp, body, err := runRequest(ts, http.MethodGet, "/schema", nil)
	if err != nil {
		t.Fatalf("request failed: %s", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.StatusCode, body)
	}

	var schema map[string]catalog.SchemaEntry
	if err := json.Unmarshal(body, &schema); err != nil {
		t.Fatalf("unable to decode response: %s", err)
	}
	entry, ok := schema["orders"]
	if !ok {
		t.Fatalf("expected schema to contain orders source, got %v", schema)
	}
	if len(entry.Metrics) != 1 || entry.Metrics[0] != "revenue" {
		t.Fatalf("expected orders to list revenue metric, got %v", entry.Metrics)
	}
}

func TestInquiryEndpointRejectsMalformedBody(t *testing.T) {
	s := setUpServer(t)
	r, err := apiRouter(s)
	if err != nil {
		t.Fatalf("unable to build api router: %s", err)
	}
	ts := httptest.NewServer(r)
	defer ts.Close()

	resp, body, err := runRequest(ts, http.MethodPost, "/inquiry", strings.NewReader("not json"))
	if err != nil {
		t.Fatalf("request failed: %s", err)
	}
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", resp.StatusCode, body)
	}
}

func TestInquiryEndpointRejectsEmptyMetrics(t *testing.T) {
	s := setUpServer(t)
	r, err := apiRouter(s)
	if err != nil {
		t.Fatalf("unable to build api router: %s", err)
	}
	ts := httptest.NewServer(r)
	defer ts.Close()

	resp, body, err := runRequest(ts, http.MethodPost, "/inquiry", strings.NewReader(`{"metrics": []}`))
	if err != nil {
		t.Fatalf("request failed: %s", err)
	}
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", resp.StatusCode, body)
	}
}

func TestInquiryEndpointRejectsUnknownMetric(t *testing.T) {
	s := setUpServer(t)
	r, err := apiRouter(s)
	if err != nil {
		t.Fatalf("unable to build api router: %s", err)
	}
	ts := httptest.NewServer(r)
	defer ts.Close()

	resp, body, err := runRequest(ts, http.MethodPost, "/inquiry", strings.NewReader(`{"metrics": ["does_not_exist"]}`))
	if err != nil {
		t.Fatalf("request failed: %s", err)
	}
	// The catalog rejects an unresolvable metric before dispatch ever
	// opens a connection, so this surfaces the same as any other
	// configuration problem in the request.
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", resp.StatusCode, body)
	}
}
