// Copyright 2024 The Nsdb Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or
// implied. See the License for the specific language governing
// permissions and limitations under the License.

// Package httpserver is the REST surface of spec.md §6.1, mirroring the
// teacher's server/httpserver.go (plain net/http.Server, a handful of
// explicit routes, graceful Shutdown on Stop). The teacher's own mux is
// blobstore's rpc.Router, used there for exactly one route (/stats); this
// module has a dozen routes with JSON/msgpack bodies, so routing is a
// plain net/http.ServeMux (stdlib, justified in DESIGN.md) rather than
// guessing at the unexported internals of a router this pack never shows
// handling a request body.
package httpserver

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cubefs/cubefs/blobstore/util/log"
	"github.com/vmihailenco/msgpack/v5"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/nsdb/nsdb/rpcserver"
)

const (
	defaultShutdownTimeoutS      = 10
	defaultReadRequestTimeoutS   = 30
	defaultWriteResponseTimeoutS = 30
)

// Server exposes rpcserver.Server's domain methods over HTTP, reusing its
// request/response shapes rather than redefining them -- the RPC and REST
// surfaces share one set of types, only the transport differs.
type Server struct {
	rpc *rpcserver.Server

	httpServer *http.Server
}

func NewServer(rpc *rpcserver.Server) *Server {
	return &Server{rpc: rpc}
}

func (s *Server) Serve(addr string) {
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      s.newMux(),
		ReadTimeout:  defaultReadRequestTimeoutS * time.Second,
		WriteTimeout: defaultWriteResponseTimeoutS * time.Second,
	}
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("http server exits:", err)
		}
	}()
	s.httpServer = httpServer
	log.Info("http server is running at:", addr)
}

func (s *Server) Stop() {
	ctx, cancel := context.WithTimeout(context.Background(), defaultShutdownTimeoutS*time.Second)
	defer cancel()
	s.httpServer.Shutdown(ctx)
}

func (s *Server) newMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/stats", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	mux.HandleFunc("/namespaces", s.handleCreateNamespace)
	mux.HandleFunc("/namespaces/", s.handleNamespace)
	mux.HandleFunc("/txn", s.handleBeginTxn)
	mux.HandleFunc("/txn/", s.handleTxn)
	return mux
}

// handleNamespace dispatches /namespaces/{name}/{items|query|indexes}.
func (s *Server) handleNamespace(w http.ResponseWriter, r *http.Request) {
	parts := strings.Split(strings.TrimPrefix(r.URL.Path, "/namespaces/"), "/")
	if len(parts) != 2 || parts[0] == "" {
		http.NotFound(w, r)
		return
	}
	name, action := parts[0], parts[1]
	switch action {
	case "items":
		s.handleItems(w, r, name)
	case "query":
		s.handleQuery(w, r, name)
	case "indexes":
		s.handleCreateIndex(w, r, name)
	default:
		http.NotFound(w, r)
	}
}

func (s *Server) handleTxn(w http.ResponseWriter, r *http.Request) {
	parts := strings.Split(strings.TrimPrefix(r.URL.Path, "/txn/"), "/")
	if len(parts) != 2 || parts[0] == "" {
		http.NotFound(w, r)
		return
	}
	id, action := parts[0], parts[1]
	switch action {
	case "step":
		var req rpcserver.TxnStepRequest
		if !decodeBody(w, r, &req) {
			return
		}
		req.TxnID = id
		resp, err := s.rpc.TxnStep(r.Context(), &req)
		respond(w, r, resp, err)
	case "commit":
		resp, err := s.rpc.CommitTxn(r.Context(), &rpcserver.TxnEndRequest{TxnID: id})
		respond(w, r, resp, err)
	case "rollback":
		resp, err := s.rpc.RollbackTxn(r.Context(), &rpcserver.TxnEndRequest{TxnID: id})
		respond(w, r, resp, err)
	default:
		http.NotFound(w, r)
	}
}

func (s *Server) handleBeginTxn(w http.ResponseWriter, r *http.Request) {
	var req rpcserver.TxnBeginRequest
	if !decodeBody(w, r, &req) {
		return
	}
	resp, err := s.rpc.BeginTxn(r.Context(), &req)
	respond(w, r, resp, err)
}

func (s *Server) handleCreateNamespace(w http.ResponseWriter, r *http.Request) {
	var req rpcserver.CreateNamespaceRequest
	if !decodeBody(w, r, &req) {
		return
	}
	resp, err := s.rpc.CreateNamespace(r.Context(), &req)
	respond(w, r, resp, err)
}

func (s *Server) handleCreateIndex(w http.ResponseWriter, r *http.Request, name string) {
	var req rpcserver.CreateIndexRequest
	if !decodeBody(w, r, &req) {
		return
	}
	req.Namespace = name
	resp, err := s.rpc.CreateIndex(r.Context(), &req)
	respond(w, r, resp, err)
}

func (s *Server) handleItems(w http.ResponseWriter, r *http.Request, name string) {
	var req rpcserver.DocRequest
	if !decodeBody(w, r, &req) {
		return
	}
	req.Namespace = name
	var resp *rpcserver.DocResponse
	var err error
	switch r.Method {
	case http.MethodPost:
		resp, err = s.rpc.Insert(r.Context(), &req)
	case http.MethodPut:
		resp, err = s.rpc.Update(r.Context(), &req)
	case http.MethodPatch:
		resp, err = s.rpc.Upsert(r.Context(), &req)
	case http.MethodDelete:
		resp, err = s.rpc.Delete(r.Context(), &req)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	respond(w, r, resp, err)
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request, name string) {
	var req rpcserver.SelectRequest
	if !decodeBody(w, r, &req) {
		return
	}
	req.Namespace = name
	resp, err := s.rpc.Select(r.Context(), &req)
	respond(w, r, resp, err)
}

// decodeBody reads the request body as JSON by default, or msgpack when
// the client sends Content-Type: application/msgpack -- spec.md §6's
// format=msgpack wire option, mirrored on the request side too.
func decodeBody(w http.ResponseWriter, r *http.Request, out interface{}) bool {
	if r.Body == nil {
		return true
	}
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return false
	}
	if len(body) == 0 {
		return true
	}
	if isMsgpack(r.Header.Get("Content-Type")) {
		err = msgpack.Unmarshal(body, out)
	} else {
		err = json.Unmarshal(body, out)
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}

// respond writes resp as JSON, or as msgpack when the caller asked for
// format=msgpack (query param) or Accept: application/msgpack.
func respond(w http.ResponseWriter, r *http.Request, resp interface{}, err error) {
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	format := r.URL.Query().Get("format")
	switch {
	case format == "msgpack" || isMsgpack(r.Header.Get("Accept")):
		b, err := msgpack.Marshal(resp)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/msgpack")
		w.Write(b)
		return
	case format == "protobuf" || strings.Contains(r.Header.Get("Accept"), "protobuf"):
		payload, err := json.Marshal(resp)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		b, err := proto.Marshal(wrapperspb.Bytes(payload))
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/protobuf")
		w.Write(b)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		log.Error("httpserver: encode response failed:", err)
	}
}

func isMsgpack(contentType string) bool {
	return strings.Contains(contentType, "msgpack")
}
