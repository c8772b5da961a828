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

package mysqlproxy

import (
	"context"

	"github.com/mimirdata/mimir/internal/util"
)

// WireServer accepts real MySQL wire-protocol clients (handshake,
// packet framing, authentication) and dispatches each parsed statement
// through a Proxy. No pack example ships a pure-Go MySQL *server* (as
// opposed to client) implementation to ground an implementation on -
// see DESIGN.md - so this stays behind an interface with a stub
// implementation rather than a hand-rolled protocol codec.
type WireServer interface {
	ListenAndServe(ctx context.Context, addr string) error
}

// unimplementedWireServer is the stub WireServer wired into cmd today.
// TODO: implement the actual wire protocol (see DESIGN.md) and swap it
// in behind this same interface; Proxy.Query is already where every
// session would hand off a decoded statement.
type unimplementedWireServer struct {
	proxy *Proxy
}

var _ WireServer = &unimplementedWireServer{}

// NewWireServer returns the stub WireServer bound to proxy.
func NewWireServer(proxy *Proxy) WireServer {
	return &unimplementedWireServer{proxy: proxy}
}

func (s *unimplementedWireServer) ListenAndServe(ctx context.Context, addr string) error {
	return util.NewNotImplementedError("the MySQL wire protocol server is not yet implemented; use the HTTP /inquiry endpoint or internal/mysqlproxy.Proxy.Query directly")
}
