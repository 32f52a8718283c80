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
	"sort"
	"sync"
)

// FuzzyConfig mirrors spec.md §4.8's fuzzy variant tunables.
type FuzzyConfig struct {
	MinOkProc float64 // entries scoring below this percentage are dropped
}

func DefaultFuzzyConfig() FuzzyConfig { return FuzzyConfig{MinOkProc: 10} }

// Fuzzy is the trigram-based approximate matcher of spec.md §4.8: it has
// no BM25 notion of its own, scoring is the fraction of a query word's
// trigrams found in a candidate word, merged across words and documents
// and rescaled so the best-matching id gets 100. Grounded on a
// posting-list inverted index (see the retrieved
// Adithya-Monish-Kumar-K-Distributed-Search-Analytics-Platform posting.go
// pattern): trigram -> postings, rather than word -> postings.
type Fuzzy struct {
	cfg FuzzyConfig
	mu  sync.RWMutex
	// trigram -> set of (docID,fieldIndex,word) occurrences
	postings map[string][]fuzzyPosting
	words    map[int]string // wordID -> original word, for trigram extraction dedup
	nextWord int
	wordID   map[string]int
}

type fuzzyPosting struct {
	doc    DocID
	field  int
	wordID int
}

func NewFuzzy(cfg FuzzyConfig) *Fuzzy {
	return &Fuzzy{
		cfg:      cfg,
		postings: make(map[string][]fuzzyPosting),
		words:    make(map[int]string),
		wordID:   make(map[string]int),
	}
}

func trigrams(word string) []string {
	padded := "  " + word + "  "
	if len(padded) < 3 {
		return []string{padded}
	}
	out := make([]string, 0, len(padded)-2)
	for i := 0; i+3 <= len(padded); i++ {
		out = append(out, padded[i:i+3])
	}
	return out
}

func (f *Fuzzy) AddData(text string, vdocID DocID, fieldIndex int, extraWordSymbols string) {
	words := Tokenize(text, extraWordSymbols)
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, w := range words {
		wid, ok := f.wordID[w]
		if !ok {
			wid = f.nextWord
			f.nextWord++
			f.wordID[w] = wid
			f.words[wid] = w
		}
		p := fuzzyPosting{doc: vdocID, field: fieldIndex, wordID: wid}
		for _, tg := range trigrams(w) {
			f.postings[tg] = append(f.postings[tg], p)
		}
	}
}

// Commit is a no-op for the fuzzy engine: the trigram postings are already
// queryable as AddData runs; kept to satisfy the shared engine contract
// with Fast.
func (f *Fuzzy) Commit(<-chan struct{}) error { return nil }

// Search scores every candidate word sharing at least one trigram with a
// query term by the fraction of the query term's trigrams it contains,
// merges per-document maxima across matched terms, drops anything below
// MinOkProc, and rescales so the top score is 100.
func (f *Fuzzy) Search(dsl *DSL) ([]Result, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	type docScore struct {
		sum, max float64
		matched  int
	}
	perDoc := make(map[DocID]*docScore)

	for _, t := range dsl.Terms {
		if t.Forbidden {
			continue
		}
		qTrigrams := trigrams(t.Text)
		candWordScore := make(map[int]float64) // wordID -> fraction of qTrigrams present
		seen := make(map[int]map[string]bool)
		for _, tg := range qTrigrams {
			for _, p := range f.postings[tg] {
				if seen[p.wordID] == nil {
					seen[p.wordID] = make(map[string]bool)
				}
				seen[p.wordID][tg] = true
			}
		}
		for wid, tgs := range seen {
			candWordScore[wid] = float64(len(tgs)) / float64(len(qTrigrams))
		}

		for _, tg := range qTrigrams {
			for _, p := range f.postings[tg] {
				frac, ok := candWordScore[p.wordID]
				if !ok {
					continue
				}
				ds, ok := perDoc[p.doc]
				if !ok {
					ds = &docScore{}
					perDoc[p.doc] = ds
				}
				if frac*100 > ds.max {
					ds.max = frac * 100
				}
			}
		}
	}

	for doc := range perDoc {
		perDoc[doc].matched++
	}

	var results []Result
	topScore := 0.0
	for doc, ds := range perDoc {
		if ds.max > topScore {
			topScore = ds.max
		}
		results = append(results, Result{DocID: doc, Score: ds.max})
	}
	if topScore == 0 {
		return nil, nil
	}
	filtered := results[:0]
	for _, r := range results {
		scaled := r.Score / topScore * 100
		if scaled < f.cfg.MinOkProc {
			continue
		}
		filtered = append(filtered, Result{DocID: r.DocID, Score: scaled})
	}
	sort.Slice(filtered, func(i, j int) bool { return filtered[i].Score > filtered[j].Score })
	return filtered, nil
}
