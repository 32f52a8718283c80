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

package planner

import (
	"context"
	"sort"

	nsdberrors "github.com/nsdb/nsdb/errors"
	"github.com/nsdb/nsdb/fulltext"
	"github.com/nsdb/nsdb/index"
	"github.com/nsdb/nsdb/itable"
	"github.com/nsdb/nsdb/query"
	"github.com/nsdb/nsdb/value"
)

// checkCancel is probed at iterator boundaries, between merge steps and
// between sort/scan chunks, per spec.md §5's cooperative cancellation
// model (RdxContext::cancel). A canceled or expired ctx surfaces as a
// typed Canceled/Timeout error rather than a partial result.
func checkCancel(ctx context.Context) error {
	if ctx == nil {
		return nil
	}
	select {
	case <-ctx.Done():
		if ctx.Err() == context.DeadlineExceeded {
			return nsdberrors.Wrap(nsdberrors.KindTimeout, "select deadline exceeded", ctx.Err())
		}
		return nsdberrors.Wrap(nsdberrors.KindCanceled, "select canceled", ctx.Err())
	default:
		return nil
	}
}

// cancelEvery is the chunk size comparator scans and full-table walks
// check ctx.Done() at, matching the "between sort/optimizer chunks" check
// points spec.md §5 and §4.9 describe, without paying the channel-select
// cost on every single row.
const cancelEvery = 512

// Result is the planner's output: the matched, sorted, paginated id
// window, optional total count, aggregation output and, when the query
// asked for it, the EXPLAIN tree.
type Result struct {
	Ids     []itable.IdType
	Scores  map[itable.IdType]float64
	Total   int
	Aggs    []AggResult
	Explain *ExplainNode
}

type AggResult struct {
	Kind    query.AggKind
	Fields  []string
	Value   float64            // Sum/Avg/Min/Max/Count
	Facets  []FacetRow         // Distinct/Facet
}

type FacetRow struct {
	Values []value.Value
	Count  int
}

type planLeaf struct {
	set *resultSet
}

// condMap translates query.Cond to index.Condition; the two enums are
// declared in lockstep (see query/query.go) specifically so this is a
// direct cast.
func condMap(c query.Cond) index.Condition { return index.Condition(c) }

// Plan evaluates q against src and returns the matched/sorted/paginated
// result, per spec.md §4.5. ctx carries the request's cancellation/deadline
// budget (spec.md §5); pass context.Background() for callers with no
// deadline of their own (e.g. transaction-staged query steps).
func Plan(ctx context.Context, q *query.Query, src Source, joins JoinResolver) (*Result, error) {
	if err := checkCancel(ctx); err != nil {
		return nil, err
	}

	universe, err := allIds(ctx, src)
	if err != nil {
		return nil, err
	}

	rs, explainRoot, err := evalEntries(ctx, q.Entries, src, universe)
	if err != nil {
		return nil, err
	}
	if rs == nil {
		rs = &resultSet{ids: universe, sorted: true, kind: iterForward, cost: len(universe)}
	}

	for _, j := range q.Joins {
		rs, err = applyJoin(ctx, rs, j, src, joins)
		if err != nil {
			return nil, err
		}
	}

	for _, mq := range q.Merged {
		if err := checkCancel(ctx); err != nil {
			return nil, err
		}
		mr, err := Plan(ctx, mq, src, joins)
		if err != nil {
			return nil, err
		}
		other := &resultSet{ids: mr.Ids, scores: mr.Scores, kind: iterHash}
		rs = union(rs, other)
	}

	total := len(rs.ids)

	if err := checkCancel(ctx); err != nil {
		return nil, err
	}
	if len(q.Sort) > 0 {
		sortIds(rs, q.Sort, src)
	} else if rs.scores != nil {
		sortByScore(rs)
	} else {
		rs.ensureSorted()
	}

	if err := checkCancel(ctx); err != nil {
		return nil, err
	}
	var aggs []AggResult
	if len(q.Aggregations) > 0 {
		aggs = computeAggregations(q.Aggregations, rs.ids, src)
	}

	window := paginate(rs.ids, q.Offset, q.Limit)

	res := &Result{Ids: window, Scores: rs.scores, Aggs: aggs}
	if q.ReqTotal {
		res.Total = total
	}
	if q.Explain {
		root := mergeExplain("result", rs, explainRoot)
		res.Explain = &root
	}
	return res, nil
}

func allIds(ctx context.Context, src Source) ([]itable.IdType, error) {
	ids := make([]itable.IdType, 0, src.ItemCount())
	n := 0
	var cancelErr error
	src.ForEachItem(func(id itable.IdType, _ *itable.Item) bool {
		n++
		if n%cancelEvery == 0 {
			if err := checkCancel(ctx); err != nil {
				cancelErr = err
				return false
			}
		}
		ids = append(ids, id)
		return true
	})
	if cancelErr != nil {
		return nil, cancelErr
	}
	sort.Sort(idSlice(ids))
	return ids, nil
}

// evalEntries folds a flat filter list left to right, per the semantics
// documented on query.FilterEntry.Op: OpAnd/OpOr combine normally, OpNot
// means "AND NOT this entry", including for the very first entry.
func evalEntries(ctx context.Context, entries []query.FilterEntry, src Source, universe []itable.IdType) (*resultSet, ExplainNode, error) {
	if len(entries) == 0 {
		return nil, ExplainNode{}, nil
	}
	base, baseExplain, err := evalEntry(ctx, entries[0], src, universe)
	if err != nil {
		return nil, ExplainNode{}, err
	}
	if entries[0].Op == query.OpNot {
		base = subtract(universe, base)
		baseExplain = mergeExplain("not", base, baseExplain)
	}
	result := base
	explainTree := baseExplain
	for i := 1; i < len(entries); i++ {
		if err := checkCancel(ctx); err != nil {
			return nil, ExplainNode{}, err
		}
		rhs, rhsExplain, err := evalEntry(ctx, entries[i], src, universe)
		if err != nil {
			return nil, ExplainNode{}, err
		}
		switch entries[i].Op {
		case query.OpOr:
			result = union(result, rhs)
			explainTree = mergeExplain("or", result, explainTree, rhsExplain)
		case query.OpNot:
			neg := subtract(universe, rhs)
			result = intersect(result, neg)
			explainTree = mergeExplain("and-not", result, explainTree, rhsExplain)
		default:
			result = intersect(result, rhs)
			explainTree = mergeExplain("and", result, explainTree, rhsExplain)
		}
	}
	return result, explainTree, nil
}

func evalEntry(ctx context.Context, e query.FilterEntry, src Source, universe []itable.IdType) (*resultSet, ExplainNode, error) {
	if e.SubEntries != nil {
		return evalEntries(ctx, e.SubEntries, src, universe)
	}
	leaf, err := evalLeaf(ctx, e, src)
	if err != nil {
		return nil, ExplainNode{}, err
	}
	return leaf.set, leafExplain(leaf), nil
}

func evalLeaf(ctx context.Context, e query.FilterEntry, src Source) (*planLeaf, error) {
	if e.FullText != "" {
		return evalFullText(e, src)
	}
	if err := checkCancel(ctx); err != nil {
		return nil, err
	}
	cond := condMap(e.Cond)
	candidates := src.IndexesFor(e.Field)

	var best *planLeaf
	for _, idx := range candidates {
		if idx.Kind() == index.KindFullTextFast || idx.Kind() == index.KindFullTextFuzzy {
			continue
		}
		if !index.SupportsCondition(idx, cond) {
			continue
		}
		skr, err := idx.SelectKey(e.Values, cond, index.SelectOpts{})
		if err != nil {
			return nil, err
		}
		if !skr.Supported {
			continue
		}
		rs := mergeKeyEntries(skr.Entries, idx.Kind())
		cand := &planLeaf{set: rs}
		if best == nil || cand.set.cost < best.set.cost {
			best = cand
		}
	}
	if best != nil {
		best.set.field = e.Field
		return best, nil
	}

	// no index can resolve this condition: fall back to a row-wise
	// comparator scan, matching the teacher's "fallback is a straight
	// iteration" escape hatch for IndexStore<T>. This is the scan S6
	// targets: check ctx every cancelEvery rows rather than per row, so a
	// 10^6-row scan under a tight deadline still aborts promptly without
	// paying a channel-select on every candidate.
	rs := &resultSet{kind: iterComparator, field: e.Field, desc: "comparator"}
	var cancelErr error
	src.ForEachItem(func(id itable.IdType, item *itable.Item) bool {
		rs.cost++
		if rs.cost%cancelEvery == 0 {
			if err := checkCancel(ctx); err != nil {
				cancelErr = err
				return false
			}
		}
		v, ok := src.FieldValue(item, e.Field)
		if !ok {
			v = value.Null()
		}
		ok2, err := index.Match(v, cond, e.Values, value.CollateNone)
		if err == nil && ok2 {
			rs.ids = append(rs.ids, id)
		}
		return true
	})
	if cancelErr != nil {
		return nil, cancelErr
	}
	rs.sorted = true
	return &planLeaf{set: rs}, nil
}

func mergeKeyEntries(entries []*index.KeyEntry, kind index.Kind) *resultSet {
	rs := &resultSet{}
	switch kind {
	case index.KindOrdered:
		rs.kind = iterForward
		rs.sorted = true
	default:
		rs.kind = iterHash
	}
	if len(entries) == 1 {
		rs.ids = entries[0].Ids
		rs.scores = entries[0].Scores
		rs.cost = len(entries[0].Ids)
		return rs
	}
	for _, ke := range entries {
		other := &resultSet{ids: ke.Ids, scores: ke.Scores, sorted: rs.kind == iterForward}
		rs = union(rs, other)
	}
	return rs
}

func evalFullText(e query.FilterEntry, src Source) (*planLeaf, error) {
	for _, idx := range src.IndexesFor(e.Field) {
		ti, ok := idx.(interface {
			SearchText(*fulltext.DSL) ([]fulltext.Result, error)
		})
		if !ok {
			continue
		}
		results, err := ti.SearchText(fulltext.ParseDSL(e.FullText))
		if err != nil {
			return nil, err
		}
		rs := &resultSet{kind: iterFullText, field: e.Field, cost: len(results)}
		rs.scores = make(map[itable.IdType]float64, len(results))
		for _, r := range results {
			if src.Item(r.DocID) == nil {
				continue
			}
			rs.ids = append(rs.ids, r.DocID)
			rs.scores[r.DocID] = r.Score
		}
		return &planLeaf{set: rs}, nil
	}
	return nil, nsdberrors.Newf(nsdberrors.KindNotFound, "no full-text index on field %q", e.Field)
}

func paginate(ids []itable.IdType, offset, limit int) []itable.IdType {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(ids) {
		return nil
	}
	end := len(ids)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return ids[offset:end]
}
