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

package namespace

import (
	"fmt"
	"sync"

	"github.com/vmihailenco/msgpack/v5"

	nsdberrors "github.com/nsdb/nsdb/errors"
	"github.com/nsdb/nsdb/fulltext"
	"github.com/nsdb/nsdb/index"
	"github.com/nsdb/nsdb/value"
	"github.com/nsdb/nsdb/wal"
)

// IndexSpec is the declarative form of an index DDL statement: "build an
// index of this Kind over this field". A Catalog turns one of these into
// the concrete index.Index the field asks for.
type IndexSpec struct {
	Field     string
	Kind      index.Kind
	Collate   value.Collate
	PK        bool     // HashIndex only: marks the primary-key index (IsPK); the index accepts duplicate keys
	Composite []string // CompositeIndex only: the fields it joins, Field is the alias
	FastText  fulltext.FastConfig
	FuzzyText fulltext.FuzzyConfig
}

// Catalog is the process-wide registry of namespaces, the single entry
// point a DDL handler (rpcserver's CreateNamespace/CreateIndex RPCs) uses to
// stand up new collections, mirroring the teacher's shard catalog
// (shard/catalog/catalog.go) generalized from fixed inode shards to
// named, schema-declared namespaces.
type Catalog struct {
	mu     sync.RWMutex
	sink   func(name string) wal.Sink
	cfg    Config
	spaces map[string]*Namespace
}

// NewCatalog creates an empty catalog. sinkFor builds (or opens) the WAL
// sink for a namespace by name; a nil sinkFor defaults every namespace to
// an in-memory sink, useful for tests.
func NewCatalog(sinkFor func(name string) wal.Sink, cfg Config) *Catalog {
	if sinkFor == nil {
		sinkFor = func(string) wal.Sink { return wal.NewMemSink() }
	}
	return &Catalog{sink: sinkFor, cfg: cfg, spaces: make(map[string]*Namespace)}
}

// CreateNamespace declares a new namespace with the given fixed-row schema
// and primary key field, per spec.md §3. pkField must name a declared field.
func (c *Catalog) CreateNamespace(name string, pt *value.PayloadType, pkField string) (*Namespace, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.spaces[name]; exists {
		return nil, nsdberrors.ErrNamespaceAlreadyCreated
	}
	if pt.FieldIndex(pkField) < 0 {
		return nil, fmt.Errorf("namespace: pk field %q not declared in payload type %q", pkField, pt.Name)
	}
	ns := New(name, pt, pkField, c.sink(name), c.cfg)
	c.spaces[name] = ns
	return ns, nil
}

func (c *Catalog) Namespace(name string) (*Namespace, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ns, ok := c.spaces[name]
	return ns, ok
}

func (c *Catalog) DropNamespace(name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	ns, ok := c.spaces[name]
	if !ok {
		return nsdberrors.ErrNamespaceDoesNotExist
	}
	delete(c.spaces, name)
	return ns.Close()
}

func (c *Catalog) Namespaces() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, 0, len(c.spaces))
	for name := range c.spaces {
		out = append(out, name)
	}
	return out
}

// CreateIndex builds the concrete index.Index spec describes and registers
// it on ns, per spec.md §4.2's per-field index DDL. This is the one place
// a Kind gets turned into a constructor call, so rpcserver's CreateIndex
// handler never has to know about the index package's concrete types.
func (ns *Namespace) CreateIndex(spec IndexSpec) error {
	idx, err := buildIndex(spec, ns.strings)
	if err != nil {
		return err
	}
	if err := ns.AddIndex(idx); err != nil {
		return err
	}
	ns.appendIndexDDL(spec.Field, spec.Kind)
	return nil
}

func buildIndex(spec IndexSpec, pool *index.StringPool) (index.Index, error) {
	switch spec.Kind {
	case index.KindOrdered:
		return index.NewTreeIndex(spec.Field, spec.Collate, pool), nil
	case index.KindHash:
		return index.NewHashIndex(spec.Field, spec.PK, pool), nil
	case index.KindColumn:
		return index.NewColumnIndex(spec.Field, spec.Collate), nil
	case index.KindGeo:
		return index.NewGeoIndex(spec.Field), nil
	case index.KindBool:
		return index.NewBoolIndex(spec.Field), nil
	case index.KindComposite:
		return index.NewCompositeIndex(spec.Composite, spec.Field, true, pool), nil
	case index.KindFullTextFast:
		return index.NewFastTextIndex(spec.Field, spec.FastText)
	case index.KindFullTextFuzzy:
		return index.NewFuzzyTextIndex(spec.Field, spec.FuzzyText), nil
	default:
		return nil, fmt.Errorf("namespace: unsupported index kind %v for field %q", spec.Kind, spec.Field)
	}
}

// appendIndexDDL records the schema change in the WAL so a replay rebuilds
// the same secondary indexes a restarted process would otherwise have to be
// told about out of band.
func (ns *Namespace) appendIndexDDL(field string, kind index.Kind) {
	body := wal.IndexDDLBody{Field: field, Kind: int(kind)}
	payload, _ := msgpack.Marshal(body)
	ns.lock.Lock()
	defer ns.lock.Unlock()
	ns.lastLSN++
	ns.log.Append(wal.Record{LSN: ns.lastLSN, Type: wal.RecIndexAdd, Payload: payload})
}
