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

// Package server is the HTTP adapter: a chi router exposing the
// engine.Engine facade as POST /inquiry (Arrow IPC streaming) and
// GET /schema (JSON). Grounded on the teacher's internal/server/
// common_test.go, which is as much of a route-wiring file as the
// retrieval pack carries for this teacher - the router construction
// below is built from the teacher's own chi/cors/render dependency
// choices rather than a single copyable source file.
package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/mimirdata/mimir/internal/engine"
	"github.com/mimirdata/mimir/internal/log"
)

// Server holds the dependencies every route handler needs.
type Server struct {
	Engine  *engine.Engine
	Logger  log.Logger
	Version string
}

// NewServer builds a Server over an already-constructed Engine.
func NewServer(eng *engine.Engine, logger log.Logger, version string) *Server {
	return &Server{Engine: eng, Logger: logger, Version: version}
}

// Router assembles the full top-level router: /api for the inquiry and
// schema endpoints.
func (s *Server) Router() (chi.Router, error) {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
		AllowedHeaders: []string{"Content-Type"},
	}))

	api, err := apiRouter(s)
	if err != nil {
		return nil, err
	}
	r.Mount("/api", api)

	return r, nil
}
