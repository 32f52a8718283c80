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

package query

import (
	"strings"

	nsdberrors "github.com/nsdb/nsdb/errors"
	"github.com/nsdb/nsdb/value"
)

// parser is a recursive-descent parser over the lexer's token stream,
// grounded on the scanner+recursive-descent split of the retrieved
// sk2233-mysql example (parser.go) but generalized to this engine's
// filter-tree/sort/limit grammar (spec.md §4.4).
type parser struct {
	toks []token
	pos  int
}

// ParseSQL parses the SQL dialect of spec.md §4.4 into a *Query. Hard parse
// errors are *errors.Error of KindParse carrying the offending token's
// line/column, per spec.md §4.4/§7.
func ParseSQL(sql string) (*Query, error) {
	p := &parser{toks: lex(sql)}
	return p.parseStatement()
}

func (p *parser) cur() token  { return p.toks[p.pos] }
func (p *parser) advance() token {
	t := p.toks[p.pos]
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return t
}

func (p *parser) errAt(t token, msg string) error {
	return nsdberrors.AtPos(nsdberrors.KindParse, msg, t.line, t.col)
}

func (p *parser) expectKeyword(kw string) (token, error) {
	t := p.cur()
	if t.kind != tokKeyword || t.text != kw {
		return t, p.errAt(t, "expected keyword "+kw)
	}
	return p.advance(), nil
}

func (p *parser) expectPunct(s string) (token, error) {
	t := p.cur()
	if t.kind != tokPunct || t.text != s {
		return t, p.errAt(t, "expected '"+s+"'")
	}
	return p.advance(), nil
}

func (p *parser) isKeyword(kw string) bool {
	return p.cur().kind == tokKeyword && p.cur().text == kw
}

func (p *parser) isPunct(s string) bool {
	return p.cur().kind == tokPunct && p.cur().text == s
}

func (p *parser) parseStatement() (*Query, error) {
	t := p.cur()
	switch {
	case t.kind == tokKeyword && t.text == "SELECT":
		return p.parseSelect()
	case t.kind == tokKeyword && t.text == "DELETE":
		return p.parseDelete()
	case t.kind == tokKeyword && t.text == "UPDATE":
		return p.parseUpdate()
	default:
		return nil, p.errAt(t, "expected SELECT, UPDATE or DELETE")
	}
}

func (p *parser) parseSelect() (*Query, error) {
	p.advance() // SELECT

	// projection list: '*' or ident[,ident...] or aggregate calls; the
	// planner only needs to know which fields are requested, aggregation
	// parsing is handled separately below via AggKind keywords.
	var aggs []Aggregation
	for {
		if p.isPunct("*") {
			p.advance()
		} else if p.cur().kind == tokIdent || p.cur().kind == tokKeyword {
			name := p.advance().text
			upper := strings.ToUpper(name)
			if p.isPunct("(") {
				p.advance()
				var fields []string
				for !p.isPunct(")") {
					if p.cur().kind == tokIdent || p.isPunct("*") {
						if p.isPunct("*") {
							p.advance()
						} else {
							fields = append(fields, p.advance().text)
						}
					}
					if p.isPunct(",") {
						p.advance()
					}
				}
				p.advance() // ')'
				if kind, ok := aggKindOf(upper); ok {
					aggs = append(aggs, Aggregation{Kind: kind, Fields: fields})
				}
			}
		}
		if p.isPunct(",") {
			p.advance()
			continue
		}
		break
	}

	if _, err := p.expectKeyword("FROM"); err != nil {
		return nil, err
	}
	nsTok := p.advance()
	if nsTok.kind != tokIdent {
		return nil, p.errAt(nsTok, "expected namespace name")
	}
	q := New(nsTok.text)
	q.Aggregations = aggs

	if err := p.parseWhereSortLimit(q); err != nil {
		return nil, err
	}
	return q, nil
}

func aggKindOf(name string) (AggKind, bool) {
	switch name {
	case "SUM":
		return AggSum, true
	case "AVG":
		return AggAvg, true
	case "MIN":
		return AggMin, true
	case "MAX":
		return AggMax, true
	case "COUNT":
		return AggCount, true
	case "DISTINCT":
		return AggDistinct, true
	case "FACET":
		return AggFacet, true
	default:
		return 0, false
	}
}

func (p *parser) parseDelete() (*Query, error) {
	p.advance() // DELETE
	if _, err := p.expectKeyword("FROM"); err != nil {
		return nil, err
	}
	nsTok := p.advance()
	if nsTok.kind != tokIdent {
		return nil, p.errAt(nsTok, "expected namespace name")
	}
	q := New(nsTok.text)
	q.IsDelete = true
	if err := p.parseWhereSortLimit(q); err != nil {
		return nil, err
	}
	return q, nil
}

func (p *parser) parseUpdate() (*Query, error) {
	p.advance() // UPDATE
	nsTok := p.advance()
	if nsTok.kind != tokIdent {
		return nil, p.errAt(nsTok, "expected namespace name")
	}
	q := New(nsTok.text)
	q.IsUpdate = true

	if _, err := p.expectKeyword("SET"); err != nil {
		return nil, err
	}
	for {
		fieldTok := p.advance()
		if fieldTok.kind != tokIdent {
			return nil, p.errAt(fieldTok, "expected field name")
		}
		if _, err := p.expectPunct("="); err != nil {
			return nil, err
		}
		set := SetExpr{Field: fieldTok.text}
		// detect "field = field + N" update expressions (SPEC_FULL §12).
		if p.cur().kind == tokIdent && p.cur().text == fieldTok.text {
			start := p.pos
			p.advance()
			if p.isPunct("+") || p.isPunct("-") {
				op := p.advance().text
				numTok := p.advance()
				set.Expr = fieldTok.text + op + numTok.text
			} else {
				p.pos = start
			}
		}
		if set.Expr == "" {
			v, err := p.parseLiteral()
			if err != nil {
				return nil, err
			}
			set.Value = v
		}
		q.UpdateSet = append(q.UpdateSet, set)
		if p.isPunct(",") {
			p.advance()
			continue
		}
		break
	}

	if err := p.parseWhereSortLimit(q); err != nil {
		return nil, err
	}
	return q, nil
}

func (p *parser) parseWhereSortLimit(q *Query) error {
	if p.isKeyword("WHERE") {
		p.advance()
		entries, err := p.parseOrExpr()
		if err != nil {
			return err
		}
		q.Entries = entries
	}
	if p.isKeyword("ORDER") {
		p.advance()
		if _, err := p.expectKeyword("BY"); err != nil {
			return err
		}
		for {
			if p.isKeyword("FIELD") {
				p.advance()
				if _, err := p.expectPunct("("); err != nil {
					return err
				}
				fieldTok := p.advance()
				se := SortEntry{Field: fieldTok.text}
				for p.isPunct(",") {
					p.advance()
					v, err := p.parseLiteral()
					if err != nil {
						return err
					}
					se.ForcedValues = append(se.ForcedValues, v)
				}
				if _, err := p.expectPunct(")"); err != nil {
					return err
				}
				q.Sort = append(q.Sort, se)
			} else {
				fieldTok := p.advance()
				if fieldTok.kind != tokIdent {
					return p.errAt(fieldTok, "expected sort field")
				}
				se := SortEntry{Field: fieldTok.text}
				if p.isKeyword("DESC") {
					p.advance()
					se.Desc = true
				} else if p.isKeyword("ASC") {
					p.advance()
				}
				q.Sort = append(q.Sort, se)
			}
			if p.isPunct(",") {
				p.advance()
				continue
			}
			break
		}
	}
	if p.isKeyword("LIMIT") {
		p.advance()
		n, err := p.parseLiteral()
		if err != nil {
			return err
		}
		q.Limit = n.Int()
	}
	if p.isKeyword("OFFSET") {
		p.advance()
		n, err := p.parseLiteral()
		if err != nil {
			return err
		}
		q.Offset = n.Int()
	}
	return nil
}

func (p *parser) parseOrExpr() ([]FilterEntry, error) {
	left, err := p.parseAndExpr()
	if err != nil {
		return nil, err
	}
	for p.isKeyword("OR") {
		p.advance()
		right, err := p.parseAndExpr()
		if err != nil {
			return nil, err
		}
		if right[0].Op != OpNot {
			right[0].Op = OpOr
		}
		left = append(left, right...)
	}
	return left, nil
}

func (p *parser) parseAndExpr() ([]FilterEntry, error) {
	first, err := p.parseTerm()
	if err != nil {
		return nil, err
	}
	entries := []FilterEntry{first}
	for p.isKeyword("AND") {
		p.advance()
		next, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		if next.Op != OpNot {
			next.Op = OpAnd
		}
		entries = append(entries, next)
	}
	return entries, nil
}

func (p *parser) parseTerm() (FilterEntry, error) {
	if p.isKeyword("NOT") {
		p.advance()
		e, err := p.parseTerm()
		if err != nil {
			return e, err
		}
		e.Op = OpNot
		return e, nil
	}
	if p.isPunct("(") {
		p.advance()
		sub, err := p.parseOrExpr()
		if err != nil {
			return FilterEntry{}, err
		}
		if _, err := p.expectPunct(")"); err != nil {
			return FilterEntry{}, err
		}
		return FilterEntry{SubEntries: sub}, nil
	}
	return p.parsePredicate()
}

func (p *parser) parsePredicate() (FilterEntry, error) {
	fieldTok := p.advance()
	if fieldTok.kind != tokIdent {
		return FilterEntry{}, p.errAt(fieldTok, "expected field name")
	}
	entry := FilterEntry{Field: fieldTok.text}

	switch {
	case p.isKeyword("BETWEEN"):
		p.advance()
		lo, err := p.parseLiteral()
		if err != nil {
			return entry, err
		}
		if _, err := p.expectKeyword("AND"); err != nil {
			return entry, err
		}
		hi, err := p.parseLiteral()
		if err != nil {
			return entry, err
		}
		entry.Cond = CondRANGE
		entry.Values = []value.Value{lo, hi}
	case p.isKeyword("IN"):
		p.advance()
		vals, err := p.parseValueList()
		if err != nil {
			return entry, err
		}
		entry.Cond = CondSET
		entry.Values = vals
	case p.isKeyword("LIKE"):
		p.advance()
		v, err := p.parseLiteral()
		if err != nil {
			return entry, err
		}
		entry.Cond = CondLIKE
		entry.Values = []value.Value{v}
	case p.isKeyword("IS"):
		p.advance()
		_ = p.advance() // NULL
		entry.Cond = CondEMPTY
	default:
		opTok := p.cur()
		cond, err := p.opToCond(opTok)
		if err != nil {
			return entry, err
		}
		p.advance()
		v, err := p.parseLiteral()
		if err != nil {
			return entry, err
		}
		entry.Cond = cond
		entry.Values = []value.Value{v}
		if opTok.text == "!=" || opTok.text == "<>" {
			entry.Op = OpNot
		}
	}
	return entry, nil
}

func (p *parser) opToCond(t token) (Cond, error) {
	if t.kind != tokPunct {
		return 0, p.errAt(t, "expected comparison operator")
	}
	switch t.text {
	case "=":
		return CondEQ, nil
	case ">":
		return CondGT, nil
	case ">=":
		return CondGE, nil
	case "<":
		return CondLT, nil
	case "<=":
		return CondLE, nil
	case "!=", "<>":
		return CondEQ, nil // NE handled by caller negating with NOT, reported as EQ+Op=OpNot upstream
	default:
		return 0, p.errAt(t, "unknown operator "+t.text)
	}
}

func (p *parser) parseValueList() ([]value.Value, error) {
	if _, err := p.expectPunct("("); err != nil {
		return nil, err
	}
	var vals []value.Value
	for !p.isPunct(")") {
		v, err := p.parseLiteral()
		if err != nil {
			return nil, err
		}
		vals = append(vals, v)
		if p.isPunct(",") {
			p.advance()
		}
	}
	p.advance() // ')'
	return vals, nil
}

func (p *parser) parseLiteral() (value.Value, error) {
	t := p.advance()
	switch t.kind {
	case tokString:
		return value.String(t.text), nil
	case tokNumber:
		if t.isFloat {
			return value.Double(t.num), nil
		}
		return value.Int64(int64(t.num)), nil
	case tokKeyword:
		switch t.text {
		case "NULL":
			return value.Null(), nil
		}
		return value.Value{}, p.errAt(t, "expected literal value")
	case tokIdent:
		switch strings.ToLower(t.text) {
		case "true":
			return value.Bool(true), nil
		case "false":
			return value.Bool(false), nil
		}
		return value.Value{}, p.errAt(t, "expected literal value")
	default:
		return value.Value{}, p.errAt(t, "expected literal value")
	}
}
