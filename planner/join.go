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

	nsdberrors "github.com/nsdb/nsdb/errors"
	"github.com/nsdb/nsdb/itable"
	"github.com/nsdb/nsdb/query"
)

// applyJoin resolves one join against the current result set. The
// right-hand sub-query is planned once per join (not once per left row),
// then collapsed into a value-membership set -- the "join cache keyed by
// right-ns+signature" of spec.md §4.5, minus a per-left-key dimension,
// since Inner/OrInner only need set membership, not per-key payloads.
// Inner keeps
// only left rows whose LeftField value appears among the right-hand
// matches; OrInner unions such rows into the result instead of filtering;
// Left passes every row through unfiltered, since this planner does not
// attach joined sub-documents to a result row, only evaluates join
// predicates (no [MODULE] in spec.md §4.5 requires row hydration from the
// join, only filtering semantics).
func applyJoin(ctx context.Context, rs *resultSet, j query.Join, src Source, joins JoinResolver) (*resultSet, error) {
	if j.SubQuery == nil {
		return rs, nil
	}
	if joins == nil {
		return nil, nsdberrors.New(nsdberrors.KindLogic, "query has joins but no join resolver was supplied")
	}
	rightSrc, ok := joins.Resolve(j.SubQuery.Namespace)
	if !ok {
		return nil, nsdberrors.Newf(nsdberrors.KindNotFound, "join target namespace %q not found", j.SubQuery.Namespace)
	}

	rightResult, err := Plan(ctx, j.SubQuery, rightSrc, joins)
	if err != nil {
		return nil, err
	}

	matchSet := make(map[string]bool, len(rightResult.Ids))
	for _, id := range rightResult.Ids {
		item := rightSrc.Item(id)
		if item == nil {
			continue
		}
		v, ok := rightSrc.FieldValue(item, j.RightField)
		if !ok {
			continue
		}
		matchSet[v.String()] = true
	}

	switch j.Kind {
	case query.JoinLeft:
		return rs, nil
	case query.JoinOrInner:
		extra := &resultSet{kind: iterHash}
		src.ForEachItem(func(id itable.IdType, item *itable.Item) bool {
			v, ok := src.FieldValue(item, j.LeftField)
			if ok && matchSet[v.String()] {
				extra.ids = append(extra.ids, id)
				extra.cost++
			}
			return true
		})
		return union(rs, extra), nil
	default: // JoinInner
		out := &resultSet{kind: rs.kind, sorted: rs.sorted, scores: rs.scores, field: rs.field}
		for _, id := range rs.ids {
			item := src.Item(id)
			if item == nil {
				continue
			}
			v, ok := src.FieldValue(item, j.LeftField)
			if ok && matchSet[v.String()] {
				out.ids = append(out.ids, id)
			}
		}
		out.cost = rs.cost + rightResult.Total
		return out, nil
	}
}
