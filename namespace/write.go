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
	"context"

	"github.com/cubefs/cubefs/blobstore/common/trace"
	"github.com/vmihailenco/msgpack/v5"

	nsdberrors "github.com/nsdb/nsdb/errors"
	"github.com/nsdb/nsdb/index"
	"github.com/nsdb/nsdb/itable"
	"github.com/nsdb/nsdb/metrics"
	"github.com/nsdb/nsdb/planner"
	"github.com/nsdb/nsdb/query"
	"github.com/nsdb/nsdb/repl"
	"github.com/nsdb/nsdb/txn"
	"github.com/nsdb/nsdb/value"
	"github.com/nsdb/nsdb/wal"
)

// syncTagMatcher interns every dynamic-body path of p, growing the
// namespace's tag dictionary as needed; this is the "tag matcher sync"
// step that runs before any index mutation so a field introduced by this
// write is nameable by subsequent queries.
func (ns *Namespace) syncTagMatcher(p *value.Payload) {
	for path := range p.Dynamic {
		ns.matcher.Intern(path)
	}
}

func (ns *Namespace) indexUpsert(id itable.IdType, p *value.Payload) {
	for field, list := range ns.indexes {
		v, ok := p.Get(field)
		if !ok {
			continue
		}
		for _, idx := range list {
			_ = idx.Upsert(keysOf(v), id)
		}
	}
}

func (ns *Namespace) indexDelete(id itable.IdType, p *value.Payload) {
	for field, list := range ns.indexes {
		v, ok := p.Get(field)
		if !ok {
			continue
		}
		for _, idx := range list {
			_ = idx.Delete(keysOf(v), id)
		}
	}
}

func (ns *Namespace) commitIndexes() {
	for _, list := range ns.indexes {
		for _, idx := range list {
			_ = idx.Commit()
		}
	}
}

func (ns *Namespace) appendWAL(ctx context.Context, rt wal.RecordType, id itable.IdType, p *value.Payload) {
	span := trace.SpanFromContextSafe(ctx)
	ns.lastLSN++
	body := wal.ItemUpsertBody{Fields: make(map[string]interface{}, len(ns.payloadType.Fields))}
	for i, f := range ns.payloadType.Fields {
		body.Fields[f.Name] = p.Values[i].String()
	}
	payload, err := msgpack.Marshal(body)
	if err != nil {
		span.Warnf("namespace %s: wal record %d encode failed: %s", ns.Name, ns.lastLSN, err)
	}
	rec := wal.Record{LSN: ns.lastLSN, Type: rt, ItemID: id, Payload: payload}
	ns.log.Append(rec)
	ns.pub.Publish(repl.Event{LSN: ns.lastLSN, Type: int(rt), ItemID: id})
	span.Debugf("namespace %s: appended wal record lsn=%d type=%d item=%d", ns.Name, ns.lastLSN, rt, id)
}

// Insert adds a new item and fails with ErrDuplicatePK if the primary-key
// value is already present.
func (ns *Namespace) Insert(ctx context.Context, p *value.Payload) (itable.IdType, error) {
	ns.lock.Lock()
	defer ns.lock.Unlock()
	return ns.insertLocked(ctx, p)
}

// ApplyInsertLocked is Insert's LockedApplier form: the caller must
// already hold ns.lock (see WithWriteLock), so this never locks itself.
// txn.Commit drives every staged step through the Locked forms under a
// single WithWriteLock call, per spec.md §4.6 / §5 ordering guarantee (4).
func (ns *Namespace) ApplyInsertLocked(ctx context.Context, p *value.Payload) (itable.IdType, error) {
	return ns.insertLocked(ctx, p)
}

func (ns *Namespace) insertLocked(ctx context.Context, p *value.Payload) (itable.IdType, error) {
	span := trace.SpanFromContextSafe(ctx)
	ns.applyPrecepts(p, ns.precepts)
	if pk, ok := p.Get(ns.pkField); ok {
		if dup := ns.findByPKLocked(pk); dup != itable.IdEnd {
			span.Infof("namespace %s: insert rejected, duplicate pk %v", ns.Name, pk)
			return itable.IdEnd, nsdberrors.ErrDuplicatePK
		}
	}
	ns.syncTagMatcher(p)
	id := ns.items.Create()
	item := &itable.Item{Payload: p}
	ns.items.Set(id, item)
	ns.indexUpsert(id, p)
	ns.commitIndexes()
	ns.appendWAL(ctx, wal.RecItemUpsert, id, p)
	return id, nil
}

func (ns *Namespace) findByPKLocked(pk value.Value) itable.IdType {
	for _, idx := range ns.indexes[ns.pkField] {
		res, err := idx.SelectKey([]value.Value{pk}, index.CondEQ, index.SelectOpts{})
		if err == nil && res.Supported {
			for _, e := range res.Entries {
				if e.Len() > 0 {
					return e.Ids[0]
				}
			}
		}
	}
	return itable.IdEnd
}

// Update overwrites an existing item (by primary key) in place, failing
// with ErrItemDoesNotExist if it is not present.
func (ns *Namespace) Update(ctx context.Context, p *value.Payload) (itable.IdType, error) {
	ns.lock.Lock()
	defer ns.lock.Unlock()
	return ns.updateLocked(ctx, p)
}

// ApplyUpdateLocked is Update's LockedApplier form; see ApplyInsertLocked.
func (ns *Namespace) ApplyUpdateLocked(ctx context.Context, p *value.Payload) (itable.IdType, error) {
	return ns.updateLocked(ctx, p)
}

func (ns *Namespace) updateLocked(ctx context.Context, p *value.Payload) (itable.IdType, error) {
	span := trace.SpanFromContextSafe(ctx)
	pk, ok := p.Get(ns.pkField)
	if !ok {
		return itable.IdEnd, nsdberrors.ErrInvalidItem
	}
	id := ns.findByPKLocked(pk)
	if id == itable.IdEnd {
		span.Infof("namespace %s: update rejected, pk %v does not exist", ns.Name, pk)
		return itable.IdEnd, nsdberrors.ErrItemDoesNotExist
	}
	old := ns.items.Get(id)
	ns.indexDelete(id, old.Payload)
	ns.applyPrecepts(p, ns.precepts)
	ns.syncTagMatcher(p)
	item := &itable.Item{Id: id, Payload: p}
	ns.items.Set(id, item)
	ns.indexUpsert(id, p)
	ns.commitIndexes()
	ns.appendWAL(ctx, wal.RecItemUpsert, id, p)
	return id, nil
}

// Upsert inserts or updates by primary key.
func (ns *Namespace) Upsert(ctx context.Context, p *value.Payload) (itable.IdType, error) {
	ns.lock.Lock()
	defer ns.lock.Unlock()
	return ns.upsertLocked(ctx, p)
}

// ApplyUpsertLocked is Upsert's LockedApplier form; see ApplyInsertLocked.
func (ns *Namespace) ApplyUpsertLocked(ctx context.Context, p *value.Payload) (itable.IdType, error) {
	return ns.upsertLocked(ctx, p)
}

func (ns *Namespace) upsertLocked(ctx context.Context, p *value.Payload) (itable.IdType, error) {
	pk, ok := p.Get(ns.pkField)
	if ok {
		if id := ns.findByPKLocked(pk); id != itable.IdEnd {
			old := ns.items.Get(id)
			ns.indexDelete(id, old.Payload)
			ns.applyPrecepts(p, ns.precepts)
			ns.syncTagMatcher(p)
			ns.items.Set(id, &itable.Item{Id: id, Payload: p})
			ns.indexUpsert(id, p)
			ns.commitIndexes()
			ns.appendWAL(ctx, wal.RecItemUpsert, id, p)
			return id, nil
		}
	}
	return ns.insertLocked(ctx, p)
}

// Delete removes an item by primary key value.
func (ns *Namespace) Delete(ctx context.Context, p *value.Payload) error {
	ns.lock.Lock()
	defer ns.lock.Unlock()
	return ns.deleteLocked(ctx, p)
}

// ApplyDeleteLocked is Delete's LockedApplier form; see ApplyInsertLocked.
func (ns *Namespace) ApplyDeleteLocked(ctx context.Context, p *value.Payload) error {
	return ns.deleteLocked(ctx, p)
}

func (ns *Namespace) deleteLocked(ctx context.Context, p *value.Payload) error {
	span := trace.SpanFromContextSafe(ctx)
	pk, ok := p.Get(ns.pkField)
	if !ok {
		return nsdberrors.ErrInvalidItem
	}
	id := ns.findByPKLocked(pk)
	if id == itable.IdEnd {
		span.Infof("namespace %s: delete rejected, pk %v does not exist", ns.Name, pk)
		return nsdberrors.ErrItemDoesNotExist
	}
	old := ns.items.Get(id)
	ns.indexDelete(id, old.Payload)
	if err := ns.items.Delete(id); err != nil {
		span.Errorf("namespace %s: delete item %d failed: %s", ns.Name, id, err)
		return err
	}
	ns.appendWAL(ctx, wal.RecItemDelete, id, old.Payload)
	return nil
}

// ApplyQuery executes an UPDATE/DELETE query's mutation against every
// matched row, used both for direct UPDATE/DELETE statements and for
// transaction-staged bulk mutations (txn.LockedApplier).
func (ns *Namespace) ApplyQuery(ctx context.Context, q *query.Query) (int, error) {
	ns.lock.Lock()
	defer ns.lock.Unlock()
	return ns.applyQueryLocked(ctx, q)
}

// ApplyQueryLocked is ApplyQuery's LockedApplier form; see
// ApplyInsertLocked.
func (ns *Namespace) ApplyQueryLocked(ctx context.Context, q *query.Query) (int, error) {
	return ns.applyQueryLocked(ctx, q)
}

func (ns *Namespace) applyQueryLocked(ctx context.Context, q *query.Query) (int, error) {
	span := trace.SpanFromContextSafe(ctx)
	res, err := planner.Plan(ctx, q, ns, nil)
	if err != nil {
		span.Warnf("namespace %s: bulk query plan failed: %s", ns.Name, err)
		return 0, err
	}
	matched := 0
	for _, id := range res.Ids {
		item := ns.items.Get(id)
		if item == nil {
			continue
		}
		if q.IsDelete {
			ns.indexDelete(id, item.Payload)
			if err := ns.items.Delete(id); err == nil {
				ns.appendWAL(ctx, wal.RecItemDelete, id, item.Payload)
				matched++
			}
			continue
		}
		if q.IsUpdate {
			ns.indexDelete(id, item.Payload)
			applySetExprs(item.Payload, q.UpdateSet)
			ns.indexUpsert(id, item.Payload)
			ns.appendWAL(ctx, wal.RecItemUpsert, id, item.Payload)
			matched++
		}
	}
	ns.commitIndexes()
	span.Infof("namespace %s: bulk query matched %d rows", ns.Name, matched)
	metrics.SelectMatched.WithLabelValues(ns.Name).Observe(float64(matched))
	return matched, nil
}

// WithWriteLock acquires ns.lock once, runs fn against ns (which satisfies
// txn.LockedApplier), and releases it -- the single-hold commit path
// spec.md §4.6 describes ("Commit acquires the namespace write lock ...
// applies steps in order ... and releases the lock") and §5 ordering
// guarantee (4) requires (a concurrent Select sees either zero or all of
// a transaction's effects, never a partial prefix).
func (ns *Namespace) WithWriteLock(fn func(txn.LockedApplier) error) error {
	ns.lock.Lock()
	defer ns.lock.Unlock()
	return fn(ns)
}

// applySetExprs applies SET field=value / field=field+N updates in place.
func applySetExprs(p *value.Payload, sets []query.SetExpr) {
	for _, s := range sets {
		if s.Expr == "" {
			p.Set(s.Field, s.Value)
			continue
		}
		cur, _ := p.Get(s.Field)
		p.Set(s.Field, evalFieldExpr(cur, s.Expr))
	}
}

// evalFieldExpr evaluates the small "field+N"/"field-N" update expression
// syntax of SPEC_FULL §12 against the field's current value.
func evalFieldExpr(cur value.Value, expr string) value.Value {
	for i := 0; i < len(expr); i++ {
		if expr[i] == '+' || expr[i] == '-' {
			delta := parseIntSuffix(expr[i+1:])
			if expr[i] == '-' {
				delta = -delta
			}
			return value.Int64(cur.Int64() + delta)
		}
	}
	return cur
}

func parseIntSuffix(s string) int64 {
	var n int64
	neg := false
	for i, c := range s {
		if i == 0 && c == '-' {
			neg = true
			continue
		}
		if c < '0' || c > '9' {
			break
		}
		n = n*10 + int64(c-'0')
	}
	if neg {
		n = -n
	}
	return n
}

