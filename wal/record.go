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

// Package wal is the write-ahead log for one namespace: an in-memory
// buffer that batches records for a disk segment, plus replay on open.
// Grounded on the teacher's raft proposal queue (raft/proposal_queue.go)
// for the "buffer then flush in batches" shape, but with the raft
// consensus layer itself dropped -- spec.md's non-goal of distributed
// consensus (SPEC_FULL §13) means replication below is async log
// shipping, not a quorum-committed log.
package wal

import (
	"github.com/vmihailenco/msgpack/v5"

	"github.com/nsdb/nsdb/itable"
)

// RecordType tags what a Record carries, mirroring the write paths
// spec.md's Namespace module exposes (item CRUD, index/schema DDL, tag
// matcher growth, transaction framing).
type RecordType int

const (
	RecItemUpsert RecordType = iota
	RecItemDelete
	RecIndexAdd
	RecIndexDrop
	RecSchemaSet
	RecTagMatcherGrow
	RecTxnBegin
	RecTxnCommit
	RecTxnRollback
)

// Record is one WAL entry. LSN is assigned by the namespace under its
// write lock before Append is called, so records always arrive in LSN
// order (spec.md §4.3's item-table invariant depends on this).
type Record struct {
	LSN     int64
	Type    RecordType
	ItemID  itable.IdType
	TxnID   string
	Payload []byte // msgpack-encoded record-specific body
}

// Encode/Decode use msgpack rather than encoding/gob: the teacher's RPC
// surface is protobuf for service calls but the retrieved REST-facing
// examples in the pack lean on msgpack for compact on-disk/wire records,
// and WAL segments benefit from the same compactness protobuf would need a
// .proto schema to get.
func Encode(r Record) ([]byte, error) { return msgpack.Marshal(r) }

func Decode(b []byte) (Record, error) {
	var r Record
	err := msgpack.Unmarshal(b, &r)
	return r, err
}

// ItemUpsertBody is the Payload body for RecItemUpsert.
type ItemUpsertBody struct {
	Fields map[string]interface{}
}

// IndexDDLBody is the Payload body for RecIndexAdd/RecIndexDrop.
type IndexDDLBody struct {
	Field string
	Kind  int
}
