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

// Package itable is the arena-indexed item store: a dense vector of slots
// with a free list for reuse, grounded on the teacher's shard data layout
// (shard/catalog/shard.go encodes one kv entry per ino) but kept entirely
// in memory here, with kvstore used only as an optional mirror by the wal
// package.
package itable

import (
	"github.com/nsdb/nsdb/value"
)

// IdType is the dense slot id of a live item, the same role the teacher's
// "ino" plays for inode rows.
type IdType = int

// IdEnd marks one-past-the-last id / not-found, mirroring the sentinel the
// planner's iterators compare against at Start/End.
const IdEnd IdType = -1

// Precept is an auto-fill directive evaluated at upsert time, see
// SPEC_FULL §12.
type Precept struct {
	Field string
	Kind  PreceptKind
	Unit  string // for PreceptNow: "sec"|"msec"|"usec"|"nsec"
}

type PreceptKind int

const (
	PreceptSerial PreceptKind = iota
	PreceptNow
)

// Item is one live document: a fixed payload row plus dynamic body, tagged
// with the LSN that last wrote it.
type Item struct {
	Id      IdType
	LSN     int64
	Payload *value.Payload
	free    bool
}
