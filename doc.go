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

/*

# nsdb: an embedded, in-memory document database engine

## Data Model

* Namespace, the logical container of items -- a schema (PayloadType) plus
  its indexes, much like a table.

* Item, a document: one Payload value per declared field, addressed by an
  integer id assigned on insert.

* Index, one of ordered (B-tree), hash, column (bitset-friendly scan),
  composite (multi-field), geo, bool, or full text (fast/fuzzy).

## Architecture

nsdb runs as a single process embedding one namespace.Catalog. There is
no cluster, no shard routing, and no raft -- consensus and sharding are
explicit non-goals of this module; replication is limited to publishing
WAL records to subscribers (package repl). The unit of durability is the
WAL per namespace, backed by rocksdb or held in memory.

Every namespace is served over two transports from the same process:
gRPC (rpcserver) and RESTful JSON/msgpack/protobuf (httpserver), both
backed by one set of request/response types.

## Building Blocks

* Bluge, full text indexing
* grpc-go, RPC transport
* Rocksdb, WAL storage
* Prometheus, metrics

*/

package nsdb
