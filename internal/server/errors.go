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
	"net/http"

	"github.com/go-chi/render"

	"github.com/mimirdata/mimir/internal/util"
)

// errorPayload is the JSON body rendered for any failed request.
type errorPayload struct {
	Error string `json:"error"`
}

// renderError picks an HTTP status from err's MimirError category (400
// for Configuration/Query, 501 for NotImplemented, 502 for Connection,
// 500 for anything else) and renders it with a JSON error body.
func (s *Server) renderError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	if mimirErr, ok := err.(util.MimirError); ok {
		switch mimirErr.Category() {
		case util.CategoryConfiguration, util.CategoryQuery:
			status = http.StatusBadRequest
		case util.CategoryNotImplemented:
			status = http.StatusNotImplemented
		case util.CategoryConnection:
			status = http.StatusBadGateway
		}
	}
	s.Logger.ErrorContext(r.Context(), "request failed", "error", err, "status", status)
	render.Status(r, status)
	render.JSON(w, r, errorPayload{Error: err.Error()})
}
