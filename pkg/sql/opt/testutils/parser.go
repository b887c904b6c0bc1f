// Copyright 2024 The Silo Authors.
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

package testutils

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/silodb/silo/pkg/sql/opt/optbuilder"
	"github.com/silodb/silo/pkg/sql/types"
)

// ParseTree parses the parenthesized tree form used in test files:
//
//	(scan t)
//	(filter (= a 1) <node>)
//	(project [a b] <node>)
//	(join (= a c) <node> <node>)
//	(aggregate [a] [(total sum b)] <node>)
//	(order-by [+a -b] <node>)
//
// Scalars are prefix forms over column names and integer literals:
// (= a 1), (and ...), (or ...), (not ...).
func ParseTree(input string) (optbuilder.Node, error) {
	p := &parser{tokens: tokenize(input)}
	form, err := p.next()
	if err != nil {
		return nil, err
	}
	node, err := parseNode(form)
	if err != nil {
		return nil, err
	}
	if !p.done() {
		return nil, fmt.Errorf("unexpected input after tree")
	}
	return node, nil
}

// sexp is either an atom (string), a parenthesized list, or a bracketed
// list.
type sexp interface{}

type list []sexp
type bracketList []sexp

func tokenize(input string) []string {
	var tokens []string
	var atom strings.Builder
	flush := func() {
		if atom.Len() > 0 {
			tokens = append(tokens, atom.String())
			atom.Reset()
		}
	}
	for _, r := range input {
		switch {
		case r == '(' || r == ')' || r == '[' || r == ']':
			flush()
			tokens = append(tokens, string(r))
		case unicode.IsSpace(r):
			flush()
		default:
			atom.WriteRune(r)
		}
	}
	flush()
	return tokens
}

type parser struct {
	tokens []string
	pos    int
}

func (p *parser) done() bool {
	return p.pos >= len(p.tokens)
}

func (p *parser) next() (sexp, error) {
	if p.done() {
		return nil, fmt.Errorf("unexpected end of input")
	}
	tok := p.tokens[p.pos]
	p.pos++
	switch tok {
	case "(":
		return p.list(")")
	case "[":
		items, err := p.list("]")
		if err != nil {
			return nil, err
		}
		return bracketList(items.(list)), nil
	case ")", "]":
		return nil, fmt.Errorf("unexpected %q", tok)
	default:
		return tok, nil
	}
}

func (p *parser) list(close string) (sexp, error) {
	var items list
	for {
		if p.done() {
			return nil, fmt.Errorf("missing %q", close)
		}
		if p.tokens[p.pos] == close {
			p.pos++
			return items, nil
		}
		item, err := p.next()
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
}

func parseNode(form sexp) (optbuilder.Node, error) {
	items, ok := form.(list)
	if !ok || len(items) == 0 {
		return nil, fmt.Errorf("expected a (op ...) form, got %v", form)
	}
	head, ok := items[0].(string)
	if !ok {
		return nil, fmt.Errorf("expected an operator name, got %v", items[0])
	}

	switch head {
	case "scan":
		if len(items) != 2 {
			return nil, fmt.Errorf("scan wants a table name")
		}
		name, ok := items[1].(string)
		if !ok {
			return nil, fmt.Errorf("scan wants a table name")
		}
		return &optbuilder.Scan{Table: name}, nil

	case "filter":
		if len(items) != 3 {
			return nil, fmt.Errorf("filter wants a predicate and an input")
		}
		pred, err := parseScalar(items[1])
		if err != nil {
			return nil, err
		}
		input, err := parseNode(items[2])
		if err != nil {
			return nil, err
		}
		return &optbuilder.Filter{Input: input, Pred: pred}, nil

	case "project":
		if len(items) != 3 {
			return nil, fmt.Errorf("project wants a column list and an input")
		}
		names, ok := items[1].(bracketList)
		if !ok {
			return nil, fmt.Errorf("project wants a [col ...] list")
		}
		var cols []optbuilder.ProjectCol
		for _, n := range names {
			name, ok := n.(string)
			if !ok {
				return nil, fmt.Errorf("project columns must be names")
			}
			cols = append(cols, optbuilder.ProjectCol{Name: name})
		}
		input, err := parseNode(items[2])
		if err != nil {
			return nil, err
		}
		return &optbuilder.Project{Input: input, Cols: cols}, nil

	case "join":
		if len(items) != 4 {
			return nil, fmt.Errorf("join wants a condition and two inputs")
		}
		on, err := parseScalar(items[1])
		if err != nil {
			return nil, err
		}
		left, err := parseNode(items[2])
		if err != nil {
			return nil, err
		}
		right, err := parseNode(items[3])
		if err != nil {
			return nil, err
		}
		return &optbuilder.Join{Left: left, Right: right, On: on}, nil

	case "aggregate":
		if len(items) != 4 {
			return nil, fmt.Errorf("aggregate wants groupings, aggregates and an input")
		}
		groupings, ok := items[1].(bracketList)
		if !ok {
			return nil, fmt.Errorf("aggregate wants a [col ...] grouping list")
		}
		var groupBy []string
		for _, g := range groupings {
			name, ok := g.(string)
			if !ok {
				return nil, fmt.Errorf("grouping columns must be names")
			}
			groupBy = append(groupBy, name)
		}
		aggForms, ok := items[2].(bracketList)
		if !ok {
			return nil, fmt.Errorf("aggregate wants a [(name fn arg) ...] list")
		}
		var aggs []optbuilder.AggCol
		for _, form := range aggForms {
			agg, err := parseAgg(form)
			if err != nil {
				return nil, err
			}
			aggs = append(aggs, agg)
		}
		input, err := parseNode(items[3])
		if err != nil {
			return nil, err
		}
		return &optbuilder.Aggregate{Input: input, GroupBy: groupBy, Aggs: aggs}, nil

	case "order-by":
		if len(items) != 3 {
			return nil, fmt.Errorf("order-by wants a key list and an input")
		}
		keys, ok := items[1].(bracketList)
		if !ok {
			return nil, fmt.Errorf("order-by wants a [+col ...] list")
		}
		var cols []optbuilder.OrderItem
		for _, k := range keys {
			key, ok := k.(string)
			if !ok || key == "" {
				return nil, fmt.Errorf("order-by keys must be names")
			}
			item := optbuilder.OrderItem{Col: strings.TrimLeft(key, "+-")}
			item.Descending = strings.HasPrefix(key, "-")
			cols = append(cols, item)
		}
		input, err := parseNode(items[2])
		if err != nil {
			return nil, err
		}
		return &optbuilder.OrderBy{Input: input, Cols: cols}, nil
	}
	return nil, fmt.Errorf("unknown operator %q", head)
}

func parseAgg(form sexp) (optbuilder.AggCol, error) {
	items, ok := form.(list)
	if !ok || len(items) != 3 {
		return optbuilder.AggCol{}, fmt.Errorf("aggregates have the form (name fn arg)")
	}
	name, _ := items[0].(string)
	fn, _ := items[1].(string)
	arg, _ := items[2].(string)
	if name == "" || fn == "" || arg == "" {
		return optbuilder.AggCol{}, fmt.Errorf("aggregates have the form (name fn arg)")
	}
	typ := types.Int
	if fn == "avg" {
		typ = types.Float
	}
	return optbuilder.AggCol{Name: name, Func: fn, Arg: arg, Type: typ}, nil
}

func parseScalar(form sexp) (optbuilder.Scalar, error) {
	switch t := form.(type) {
	case string:
		if v, err := strconv.Atoi(t); err == nil {
			return &optbuilder.Lit{Val: v, Typ: types.Int}, nil
		}
		return &optbuilder.ColRef{Name: t}, nil

	case list:
		if len(t) == 0 {
			return nil, fmt.Errorf("empty scalar form")
		}
		head, ok := t[0].(string)
		if !ok {
			return nil, fmt.Errorf("expected a scalar operator, got %v", t[0])
		}
		switch head {
		case "=", "<", ">", "<=", ">=", "!=":
			if len(t) != 3 {
				return nil, fmt.Errorf("%s wants two operands", head)
			}
			left, err := parseScalar(t[1])
			if err != nil {
				return nil, err
			}
			right, err := parseScalar(t[2])
			if err != nil {
				return nil, err
			}
			return &optbuilder.Cmp{Op: head, Left: left, Right: right}, nil

		case "and", "or":
			if len(t) != 3 {
				return nil, fmt.Errorf("%s wants two operands", head)
			}
			left, err := parseScalar(t[1])
			if err != nil {
				return nil, err
			}
			right, err := parseScalar(t[2])
			if err != nil {
				return nil, err
			}
			if head == "and" {
				return &optbuilder.And{Left: left, Right: right}, nil
			}
			return &optbuilder.Or{Left: left, Right: right}, nil

		case "not":
			if len(t) != 2 {
				return nil, fmt.Errorf("not wants one operand")
			}
			input, err := parseScalar(t[1])
			if err != nil {
				return nil, err
			}
			return &optbuilder.Not{Input: input}, nil
		}
		return nil, fmt.Errorf("unknown scalar operator %q", head)
	}
	return nil, fmt.Errorf("unexpected scalar form %v", form)
}
