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

package fulltext

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/blugelabs/bluge"
)

// FastConfig mirrors the tunables spec.md §4.8 names for the fast variant.
type FastConfig struct {
	MaxTyposInWord  int
	MaxTypoLen      int
	PartialMatchDecrease float64 // default 15, applied as relevancy penalty
	MaxRebuildSteps int
	MaxStepSize     int
}

func DefaultFastConfig() FastConfig {
	return FastConfig{MaxTyposInWord: 2, MaxTypoLen: 3, PartialMatchDecrease: 15, MaxRebuildSteps: 8, MaxStepSize: 1000}
}

type pendingDoc struct {
	id     DocID
	fields []pendingField
}

type pendingField struct {
	name string
	text string
}

// Fast is the BM25-scored, typo-tolerant full-text engine of spec.md §4.8,
// built on bluge's analysis pipeline and term dictionary. AddData buffers
// documents; Commit builds (or rebuilds) the bluge index in chunks of
// MaxStepSize documents, checking the supplied cancel channel between
// chunks -- the same chunked-with-cancellation shape the background
// optimizer uses for sort orders (spec.md §4.9).
type Fast struct {
	cfg     FastConfig
	mu      sync.RWMutex
	pending map[DocID]*pendingDoc
	fields  []string // field_index -> name, as AddData's field_index addresses them
	writer  *bluge.Writer
	built   bool
}

func NewFast(cfg FastConfig) (*Fast, error) {
	config := bluge.InMemoryOnlyConfig()
	w, err := bluge.OpenWriter(config)
	if err != nil {
		return nil, err
	}
	return &Fast{cfg: cfg, pending: make(map[DocID]*pendingDoc), writer: w}, nil
}

// AddData buffers text for field_index of vdoc_id. extra_word_symbols is
// not used here: bluge's own analyzer handles fast-engine tokenization.
func (f *Fast) AddData(text string, vdocID DocID, fieldIndex int, extraWordSymbols string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for len(f.fields) <= fieldIndex {
		f.fields = append(f.fields, fmt.Sprintf("field%d", len(f.fields)))
	}
	d, ok := f.pending[vdocID]
	if !ok {
		d = &pendingDoc{id: vdocID}
		f.pending[vdocID] = d
	}
	d.fields = append(d.fields, pendingField{name: f.fields[fieldIndex], text: text})
	f.built = false
}

// Commit (re)indexes every document AddData has buffered so far (pending
// is never cleared, so each Commit resubmits all of them and batch.Update
// replaces their previous versions), in passes of cfg.MaxStepSize
// documents and at most cfg.MaxRebuildSteps passes; cancel aborts between
// passes, leaving documents from finished passes searchable.
func (f *Fast) Commit(cancel <-chan struct{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	docs := make([]*pendingDoc, 0, len(f.pending))
	for _, d := range f.pending {
		docs = append(docs, d)
	}

	steps := 0
	for off := 0; off < len(docs); off += f.cfg.MaxStepSize {
		if steps >= f.cfg.MaxRebuildSteps {
			break
		}
		steps++
		end := off + f.cfg.MaxStepSize
		if end > len(docs) {
			end = len(docs)
		}
		batch := bluge.NewBatch()
		for _, d := range docs[off:end] {
			bd := bluge.NewDocument(strconv.Itoa(d.id))
			for _, fld := range d.fields {
				bd.AddField(bluge.NewTextField(fld.name, fld.text).StoreValue().SearchTermPositions())
			}
			bd.AddField(bluge.NewCompositeFieldExcluding("_all", []string{"_id"}))
			batch.Update(bd.ID(), bd)
		}
		if err := f.writer.Batch(batch); err != nil {
			return err
		}
		select {
		case <-cancel:
			return nil
		default:
		}
	}
	f.built = true
	return nil
}

// Search runs dsl against the committed index and scores hits with
// bluge's BM25 score, discounted by finalScore when the query has
// optional terms. The discount is the same for every hit: how many of the
// optional terms each document matched is not computed.
func (f *Fast) Search(dsl *DSL) ([]Result, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	bq := bluge.NewBooleanQuery()
	optionalCount := 0
	for _, t := range dsl.Terms {
		q := f.termQuery(t)
		switch {
		case t.Forbidden:
			bq.AddMustNot(q)
		case t.Required:
			bq.AddMust(q)
		default:
			bq.AddShould(q)
			optionalCount++
		}
	}
	for _, p := range dsl.Phrases {
		pq := bluge.NewMatchPhraseQuery(strings.Join(p.Words, " "))
		if p.Forbidden {
			bq.AddMustNot(pq)
		} else {
			bq.AddMust(pq)
		}
	}

	reader, err := f.writer.Reader()
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	req := bluge.NewTopNSearch(1000, bq)
	dmi, err := reader.Search(context.Background(), req)
	if err != nil {
		return nil, err
	}

	var results []Result
	match, err := dmi.Next()
	for err == nil && match != nil {
		var idStr string
		_ = match.VisitStoredFields(func(field string, value []byte) bool {
			if field == "_id" {
				idStr = string(value)
			}
			return true
		})
		id, convErr := strconv.Atoi(idStr)
		if convErr == nil {
			score := f.finalScore(match.Score, optionalCount)
			results = append(results, Result{DocID: id, Score: score})
		}
		match, err = dmi.Next()
	}
	return results, nil
}

func (f *Fast) termQuery(t Term) bluge.Query {
	var q bluge.Query
	switch {
	case t.Prefix:
		pq := bluge.NewPrefixQuery(t.Text)
		if t.Field != "" {
			pq.SetField(t.Field)
		}
		q = pq
	case f.cfg.MaxTyposInWord > 0 && len(t.Text) > f.cfg.MaxTypoLen:
		fq := bluge.NewFuzzyQuery(t.Text).SetFuzziness(f.cfg.MaxTyposInWord)
		if t.Field != "" {
			fq.SetField(t.Field)
		}
		q = fq
	default:
		mq := bluge.NewMatchQuery(t.Text)
		if t.Field != "" {
			mq.SetField(t.Field)
		}
		q = mq
	}
	return q
}

// finalScore applies the partial-match discount: with no optional (should)
// terms in the query the BM25 score is returned unchanged, otherwise it is
// scaled by (1 - PartialMatchDecrease/100).
func (f *Fast) finalScore(bm25 float64, optionalCount int) float64 {
	if optionalCount == 0 {
		return bm25
	}
	// bluge does not expose per-should-clause match counts through the
	// simple search API used here, so every hit gets the same discount,
	// whether it matched all of the optional terms or only some of them.
	return bm25 * (1 - f.cfg.PartialMatchDecrease/100)
}

func (f *Fast) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.writer.Close()
}
