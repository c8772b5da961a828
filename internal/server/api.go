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

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/ipc"

	"github.com/mimirdata/mimir/internal/engine"
	"github.com/mimirdata/mimir/internal/util"
)

// arrowStreamBatchSize bounds how many rows go into a single IPC record
// batch written to the response body, per spec.md §6.
const arrowStreamBatchSize = 8192

// arrowStreamContentType is the media type an inquiry response is
// streamed as.
const arrowStreamContentType = "application/vnd.apache.arrow.stream"

var validate = validator.New(validator.WithRequiredStructEnabled())

// inquiryRequestBody is the wire shape of POST /inquiry, independent of
// engine.InquiryRequest so JSON and validation tags don't leak into the
// engine package.
type inquiryRequestBody struct {
	Metrics      []string `json:"metrics" validate:"required,min=1"`
	Dimensions   []string `json:"dimensions"`
	StartDate    string   `json:"start_date"`
	EndDate      string   `json:"end_date"`
	Granularity  string   `json:"granularity"`
	GlobalFilter string   `json:"global_filter"`
	OrderBy      string   `json:"order_by"`
	ClientSQL    string   `json:"client_sql"`
}

func (b inquiryRequestBody) toEngineRequest() engine.InquiryRequest {
	return engine.InquiryRequest{
		Metrics:      b.Metrics,
		Dimensions:   b.Dimensions,
		StartDate:    b.StartDate,
		EndDate:      b.EndDate,
		GlobalFilter: b.GlobalFilter,
		Granularity:  b.Granularity,
		OrderBy:      b.OrderBy,
		ClientSQL:    b.ClientSQL,
	}
}

// apiRouter assembles the /inquiry and /schema endpoints.
func apiRouter(s *Server) (chi.Router, error) {
	r := chi.NewRouter()
	r.Post("/inquiry", s.handleInquiry)
	r.Get("/schema", s.handleSchema)
	return r, nil
}

// handleInquiry decodes and validates an InquiryRequest, dispatches it
// through the engine, and streams the result as Arrow IPC.
func (s *Server) handleInquiry(w http.ResponseWriter, r *http.Request) {
	var body inquiryRequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.renderError(w, r, util.NewConfigurationError("malformed request body", err))
		return
	}
	if err := validate.Struct(body); err != nil {
		s.renderError(w, r, util.NewConfigurationError("invalid request body", err))
		return
	}

	table, err := s.Engine.Query(r.Context(), body.toEngineRequest())
	if err != nil {
		s.renderError(w, r, err)
		return
	}
	defer table.Release()

	w.Header().Set("Content-Type", arrowStreamContentType)
	w.WriteHeader(http.StatusOK)

	writer := ipc.NewWriter(w, ipc.WithSchema(table.Schema()))
	defer writer.Close()

	reader := array.NewTableReader(table, arrowStreamBatchSize)
	defer reader.Release()
	for reader.Next() {
		rec := reader.Record()
		if err := writer.Write(rec); err != nil {
			s.Logger.ErrorContext(r.Context(), "failed writing arrow batch", "error", err)
			return
		}
	}
}

// handleSchema returns the catalog's full source/metric/dimension
// schema as JSON.
func (s *Server) handleSchema(w http.ResponseWriter, r *http.Request) {
	schema, err := s.Engine.Schema(r.Context())
	if err != nil {
		s.renderError(w, r, err)
		return
	}
	render.JSON(w, r, schema)
}
