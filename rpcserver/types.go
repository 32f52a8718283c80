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

package rpcserver

import "github.com/nsdb/nsdb/planner"

// Every RPC exchanges one of these shapes, JSON-encoded inside a
// wrapperspb.BytesValue envelope (see codec.go). Hand-declaring protobuf
// messages for spec.md §6's command set would need a .proto compile step
// this module never runs; wrapping JSON in a real generated protobuf type
// keeps the wire format genuinely protobuf (google.golang.org/protobuf)
// without fabricating generated code by hand.

type errorResponse struct {
	Error string `json:"error,omitempty"`
}

type SelectRequest struct {
	Namespace string `json:"namespace"`
	SQL       string `json:"sql,omitempty"`
	JSON      string `json:"json,omitempty"` // raw query.ParseJSON document, mutually exclusive with SQL
}

type SelectResponse struct {
	errorResponse
	Ids     []int                `json:"ids,omitempty"`
	Scores  map[string]float64   `json:"scores,omitempty"`
	Total   int                  `json:"total,omitempty"`
	Aggs    []planner.AggResult  `json:"aggregations,omitempty"`
	Explain *planner.ExplainNode `json:"explain,omitempty"`
	Matched int                  `json:"matched,omitempty"` // DELETE/UPDATE row count
}

type DocRequest struct {
	Namespace string                 `json:"namespace"`
	Doc       map[string]interface{} `json:"doc"`
}

type DocResponse struct {
	errorResponse
	Id int `json:"id,omitempty"`
}

type TxnBeginRequest struct {
	Namespace string `json:"namespace"`
}

type TxnBeginResponse struct {
	errorResponse
	TxnID string `json:"txn_id,omitempty"`
}

type TxnStepRequest struct {
	TxnID string                 `json:"txn_id"`
	Mode  string                 `json:"mode"` // "insert"|"update"|"upsert"|"delete"|"query"
	Doc   map[string]interface{} `json:"doc,omitempty"`
	SQL   string                 `json:"sql,omitempty"` // for mode=="query"
}

type TxnStepResponse struct {
	errorResponse
}

type TxnEndRequest struct {
	TxnID string `json:"txn_id"`
}

type TxnEndResponse struct {
	errorResponse
	Applied int `json:"applied,omitempty"`
	Total   int `json:"total,omitempty"`
}

type FieldSpec struct {
	Name    string `json:"name"`
	Kind    string `json:"kind"` // "bool"|"int"|"int64"|"double"|"string"|"composite"
	IsArray bool   `json:"is_array,omitempty"`
}

type CreateNamespaceRequest struct {
	Name    string      `json:"name"`
	Fields  []FieldSpec `json:"fields"`
	PKField string      `json:"pk_field"`
}

type CreateNamespaceResponse struct {
	errorResponse
}

type CreateIndexRequest struct {
	Namespace string   `json:"namespace"`
	Field     string   `json:"field"`
	Kind      string   `json:"kind"` // "tree"|"hash"|"column"|"composite"|"geo"|"bool"|"fulltext_fast"|"fulltext_fuzzy"
	PK        bool     `json:"pk,omitempty"`
	Composite []string `json:"composite,omitempty"`
}

type CreateIndexResponse struct {
	errorResponse
}
