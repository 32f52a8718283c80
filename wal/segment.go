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

package wal

import (
	"context"
	"encoding/binary"
	"io"

	"github.com/nsdb/nsdb/common/kvstore"
)

// KVSink persists WAL records into the teacher's pluggable kvstore.Store
// (rocksdb-backed in production), one column family per namespace, keyed
// by big-endian LSN so List() naturally replays in order.
type KVSink struct {
	store kvstore.Store
	col   kvstore.CF
}

func NewKVSink(store kvstore.Store, namespace string) (*KVSink, error) {
	col := kvstore.CF("wal-" + namespace)
	if !store.CheckColumns(col) {
		if err := store.CreateColumn(col); err != nil {
			return nil, err
		}
	}
	return &KVSink{store: store, col: col}, nil
}

func lsnKey(lsn int64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, uint64(lsn))
	return b
}

func (s *KVSink) WriteBatch(records []Record) error {
	ctx := context.Background()
	batch := s.store.NewWriteBatch()
	defer batch.Close()
	for _, r := range records {
		b, err := Encode(r)
		if err != nil {
			return err
		}
		batch.Put(s.col, lsnKey(r.LSN), b)
	}
	return s.store.Write(ctx, batch, s.store.NewWriteOption())
}

func (s *KVSink) Replay(apply func(Record) error) error {
	ctx := context.Background()
	reader := s.store.List(ctx, s.col, nil, nil, s.store.NewReadOption())
	defer reader.Close()
	for {
		_, val, err := reader.ReadNextCopy()
		if err == io.EOF || err == kvstore.ErrNotFound {
			break
		}
		if err != nil {
			return err
		}
		r, err := Decode(val)
		if err != nil {
			return err
		}
		if err := apply(r); err != nil {
			return err
		}
	}
	return nil
}

func (s *KVSink) Close() error { return nil }

// MemSink is a non-durable Sink for tests and in-memory-only namespaces;
// it keeps everything it's given so Replay can hand it straight back.
type MemSink struct {
	records []Record
}

func NewMemSink() *MemSink { return &MemSink{} }

func (s *MemSink) WriteBatch(records []Record) error {
	s.records = append(s.records, records...)
	return nil
}

func (s *MemSink) Replay(apply func(Record) error) error {
	for _, r := range s.records {
		if err := apply(r); err != nil {
			return err
		}
	}
	return nil
}

func (s *MemSink) Close() error { return nil }
