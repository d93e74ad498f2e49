package model

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"unicode"
)

// ContentMatch represents a match state of a node type's content expression,
// and can be used to find out whether further content matches here, and
// whether a given position is a valid end of the node.
type ContentMatch struct {
	// True when this match state represents a valid end of the node.
	ValidEnd bool
	next     []matchEdge
}

type matchEdge struct {
	typ  *NodeType
	next *ContentMatch
}

// NewContentMatch is the constructor for ContentMatch.
func NewContentMatch(validEnd bool) *ContentMatch {
	return &ContentMatch{ValidEnd: validEnd}
}

// EmptyContentMatch is an empty ContentMatch.
var EmptyContentMatch = NewContentMatch(true)

// ParseContentMatch compiles a content expression against the given node
// types. Group names are resolved in the order of nodeTypes.
func ParseContentMatch(str string, nodeTypes []*NodeType) (*ContentMatch, error) {
	stream := newTokenStream(str, nodeTypes)
	if stream.next() == nil {
		return EmptyContentMatch, nil
	}
	expr, err := parseExpr(stream)
	if err != nil {
		return nil, err
	}
	if stream.next() != nil {
		return nil, stream.err("Unexpected trailing text")
	}
	return dfa(nfa(expr)), nil
}

// MatchType matches a node type, returning a match after that node if
// successful.
func (cm *ContentMatch) MatchType(typ *NodeType) *ContentMatch {
	for _, edge := range cm.next {
		if edge.typ == typ {
			return edge.next
		}
	}
	return nil
}

// MatchFragment tries to match a fragment. Returns the resulting match when
// successful.
//
// :: (Fragment, ?number, ?number) → ?ContentMatch
func (cm *ContentMatch) MatchFragment(frag *Fragment, args ...int) *ContentMatch {
	cur := cm
	start := 0
	if len(args) > 0 {
		start = args[0]
	}
	end := frag.ChildCount()
	if len(args) > 1 {
		end = args[1]
	}
	for i := start; cur != nil && i < end; i++ {
		cur = cur.MatchType(frag.Content[i].Type)
	}
	return cur
}

// EdgeCount is the number of outgoing edges this node has in the finite
// automaton that describes the content expression.
func (cm *ContentMatch) EdgeCount() int {
	return len(cm.next)
}

// Edge gets the nth outgoing edge from this node in the finite automaton that
// describes the content expression.
func (cm *ContentMatch) Edge(n int) (*NodeType, *ContentMatch, error) {
	if n >= len(cm.next) {
		return nil, nil, fmt.Errorf("There's no %dth edge in this content match", n)
	}
	return cm.next[n].typ, cm.next[n].next, nil
}

func (cm *ContentMatch) inlineContent() bool {
	if len(cm.next) == 0 {
		return false
	}
	return cm.next[0].typ.IsInline()
}

func (cm *ContentMatch) String() string {
	var seen []*ContentMatch
	var scan func(m *ContentMatch)
	scan = func(m *ContentMatch) {
		seen = append(seen, m)
		for _, edge := range m.next {
			found := false
			for _, s := range seen {
				if s == edge.next {
					found = true
					break
				}
			}
			if !found {
				scan(edge.next)
			}
		}
	}
	scan(cm)
	index := func(m *ContentMatch) int {
		for i, s := range seen {
			if s == m {
				return i
			}
		}
		return -1
	}
	lines := make([]string, len(seen))
	for i, m := range seen {
		out := strconv.Itoa(i)
		if m.ValidEnd {
			out += "*"
		} else {
			out += " "
		}
		parts := make([]string, len(m.next))
		for j, edge := range m.next {
			parts[j] = edge.typ.Name + "->" + strconv.Itoa(index(edge.next))
		}
		lines[i] = out + " " + strings.Join(parts, ", ")
	}
	return strings.Join(lines, "\n")
}

type tokenStream struct {
	str       string
	nodeTypes []*NodeType
	inline    *bool
	pos       int
	tokens    []string
}

func newTokenStream(str string, nodeTypes []*NodeType) *tokenStream {
	return &tokenStream{
		str:       str,
		nodeTypes: nodeTypes,
		tokens:    tokenize(str),
	}
}

// tokenize splits a content expression into words and single punctuation
// characters, dropping whitespace.
func tokenize(str string) []string {
	var tokens []string
	runes := []rune(str)
	for i := 0; i < len(runes); {
		r := runes[i]
		switch {
		case unicode.IsSpace(r):
			i++
		case isWordRune(r):
			j := i
			for j < len(runes) && isWordRune(runes[j]) {
				j++
			}
			tokens = append(tokens, string(runes[i:j]))
			i = j
		default:
			tokens = append(tokens, string(r))
			i++
		}
	}
	return tokens
}

func (ts *tokenStream) next() *string {
	if ts.pos >= len(ts.tokens) {
		return nil
	}
	return &ts.tokens[ts.pos]
}

func (ts *tokenStream) eat(tok string) bool {
	if s := ts.next(); s == nil || *s != tok {
		return false
	}
	ts.pos++
	return true
}

func (ts *tokenStream) err(format string, args ...interface{}) error {
	str := fmt.Sprintf(format, args...)
	return fmt.Errorf("%s (in content expression %q)", str, ts.str)
}

type exprType struct {
	Type  string
	Exprs []*exprType
	Expr  *exprType
	Min   int
	Max   int
	Value *NodeType
}

func parseExpr(stream *tokenStream) (*exprType, error) {
	exprs := []*exprType{}
	for {
		seq, err := parseExprSeq(stream)
		if err != nil {
			return nil, err
		}
		exprs = append(exprs, seq)
		if !stream.eat("|") {
			break
		}
	}
	if len(exprs) == 1 {
		return exprs[0], nil
	}
	return &exprType{Type: "choice", Exprs: exprs}, nil
}

func parseExprSeq(stream *tokenStream) (*exprType, error) {
	exprs := []*exprType{}
	for {
		sub, err := parseExprSubscript(stream)
		if err != nil {
			return nil, err
		}
		exprs = append(exprs, sub)
		s := stream.next()
		if s == nil || *s == ")" || *s == "|" {
			break
		}
	}
	if len(exprs) == 1 {
		return exprs[0], nil
	}
	return &exprType{Type: "seq", Exprs: exprs}, nil
}

func parseExprSubscript(stream *tokenStream) (*exprType, error) {
	expr, err := parseExprAtom(stream)
	if err != nil {
		return nil, err
	}
	for {
		if stream.eat("+") {
			expr = &exprType{Type: "plus", Expr: expr}
		} else if stream.eat("*") {
			expr = &exprType{Type: "star", Expr: expr}
		} else if stream.eat("?") {
			expr = &exprType{Type: "opt", Expr: expr}
		} else if stream.eat("{") {
			expr, err = parseExprRange(stream, expr)
			if err != nil {
				return nil, err
			}
		} else {
			break
		}
	}
	return expr, nil
}

func parseNum(stream *tokenStream) (int, error) {
	s := stream.next()
	if s == nil {
		return 0, stream.err("Expected number, got nil")
	}
	result, err := strconv.Atoi(*s)
	if err != nil {
		return 0, stream.err("Expected number, got %q", *s)
	}
	stream.pos++
	return result, nil
}

func parseExprRange(stream *tokenStream, expr *exprType) (*exprType, error) {
	min, err := parseNum(stream)
	if err != nil {
		return nil, err
	}
	max := min
	if stream.eat(",") {
		if s := stream.next(); s != nil && *s != "}" {
			max, err = parseNum(stream)
			if err != nil {
				return nil, err
			}
		} else {
			max = -1
		}
	}
	if !stream.eat("}") {
		return nil, stream.err("Unclosed braced range")
	}
	return &exprType{Type: "range", Min: min, Max: max, Expr: expr}, nil
}

func resolveName(stream *tokenStream, name string) ([]*NodeType, error) {
	for _, typ := range stream.nodeTypes {
		if typ.Name == name {
			return []*NodeType{typ}, nil
		}
	}
	var result []*NodeType
	for _, typ := range stream.nodeTypes {
		for _, g := range typ.Groups {
			if g == name {
				result = append(result, typ)
				break
			}
		}
	}
	if len(result) == 0 {
		return nil, stream.err("No node type or group %q found", name)
	}
	return result, nil
}

func parseExprAtom(stream *tokenStream) (*exprType, error) {
	if stream.eat("(") {
		expr, err := parseExpr(stream)
		if err != nil {
			return nil, err
		}
		if !stream.eat(")") {
			return nil, stream.err("Missing closing paren")
		}
		return expr, nil
	}

	s := stream.next()
	if s == nil {
		return nil, stream.err("Unexpected end of expression")
	}
	if !isWordToken(*s) {
		return nil, stream.err("Unexpected token %q", *s)
	}
	types, err := resolveName(stream, *s)
	if err != nil {
		return nil, err
	}
	var exprs []*exprType
	for _, typ := range types {
		inline := typ.IsInline()
		if stream.inline == nil {
			stream.inline = &inline
		} else if *stream.inline != inline {
			return nil, stream.err("Mixing inline and block content")
		}
		exprs = append(exprs, &exprType{Type: "name", Value: typ})
	}
	stream.pos++
	if len(exprs) == 1 {
		return exprs[0], nil
	}
	return &exprType{Type: "choice", Exprs: exprs}, nil
}

// The code below constructs a non-deterministic finite automaton from the
// expression, then turns it into a deterministic one.

type nfaEdge struct {
	term *NodeType
	to   int
}

type nfaBuilder struct {
	states [][]*nfaEdge
}

func nfa(expr *exprType) [][]*nfaEdge {
	b := &nfaBuilder{states: [][]*nfaEdge{{}}}
	b.connect(b.compile(expr, 0), b.node())
	return b.states
}

func (b *nfaBuilder) node() int {
	b.states = append(b.states, []*nfaEdge{})
	return len(b.states) - 1
}

func (b *nfaBuilder) edge(from, to int, term *NodeType) *nfaEdge {
	e := &nfaEdge{term: term, to: to}
	b.states[from] = append(b.states[from], e)
	return e
}

func (b *nfaBuilder) connect(edges []*nfaEdge, to int) {
	for _, e := range edges {
		e.to = to
	}
}

func (b *nfaBuilder) compile(expr *exprType, from int) []*nfaEdge {
	switch expr.Type {
	case "choice":
		var out []*nfaEdge
		for _, e := range expr.Exprs {
			out = append(out, b.compile(e, from)...)
		}
		return out
	case "seq":
		for i := 0; ; i++ {
			next := b.compile(expr.Exprs[i], from)
			if i == len(expr.Exprs)-1 {
				return next
			}
			from = b.node()
			b.connect(next, from)
		}
	case "star":
		loop := b.node()
		b.edge(from, loop, nil)
		b.connect(b.compile(expr.Expr, loop), loop)
		return []*nfaEdge{b.edge(loop, -1, nil)}
	case "plus":
		loop := b.node()
		b.connect(b.compile(expr.Expr, from), loop)
		b.connect(b.compile(expr.Expr, loop), loop)
		return []*nfaEdge{b.edge(loop, -1, nil)}
	case "opt":
		return append([]*nfaEdge{b.edge(from, -1, nil)}, b.compile(expr.Expr, from)...)
	case "range":
		cur := from
		for i := 0; i < expr.Min; i++ {
			next := b.node()
			b.connect(b.compile(expr.Expr, cur), next)
			cur = next
		}
		if expr.Max == -1 {
			b.connect(b.compile(expr.Expr, cur), cur)
		} else {
			for i := expr.Min; i < expr.Max; i++ {
				next := b.node()
				b.edge(cur, next, nil)
				b.connect(b.compile(expr.Expr, cur), next)
				cur = next
			}
		}
		return []*nfaEdge{b.edge(cur, -1, nil)}
	case "name":
		return []*nfaEdge{b.edge(from, -1, expr.Value)}
	}
	panic(fmt.Errorf("Unknown expr type %q", expr.Type))
}

// nullFrom returns the sorted set of states reachable from node through
// empty edges.
func nullFrom(states [][]*nfaEdge, node int) []int {
	var result []int
	var scan func(n int)
	scan = func(n int) {
		edges := states[n]
		if len(edges) == 1 && edges[0].term == nil {
			scan(edges[0].to)
			return
		}
		result = append(result, n)
		for _, e := range edges {
			if e.term == nil && !containsInt(result, e.to) {
				scan(e.to)
			}
		}
	}
	scan(node)
	sort.Ints(result)
	return result
}

func dfa(states [][]*nfaEdge) *ContentMatch {
	labeled := map[string]*ContentMatch{}
	var explore func(set []int) *ContentMatch
	explore = func(set []int) *ContentMatch {
		type termSet struct {
			term  *NodeType
			nodes []int
		}
		var out []*termSet
		for _, node := range set {
			for _, e := range states[node] {
				if e.term == nil {
					continue
				}
				var ts *termSet
				for _, o := range out {
					if o.term == e.term {
						ts = o
						break
					}
				}
				for _, n := range nullFrom(states, e.to) {
					if ts == nil {
						ts = &termSet{term: e.term}
						out = append(out, ts)
					}
					if !containsInt(ts.nodes, n) {
						ts.nodes = append(ts.nodes, n)
					}
				}
			}
		}
		state := NewContentMatch(containsInt(set, len(states)-1))
		labeled[joinInts(set)] = state
		for _, ts := range out {
			sort.Ints(ts.nodes)
			next, ok := labeled[joinInts(ts.nodes)]
			if !ok {
				next = explore(ts.nodes)
			}
			state.next = append(state.next, matchEdge{typ: ts.term, next: next})
		}
		return state
	}
	return explore(nullFrom(states, 0))
}

func containsInt(list []int, n int) bool {
	for _, x := range list {
		if x == n {
			return true
		}
	}
	return false
}

func joinInts(list []int) string {
	parts := make([]string, len(list))
	for i, n := range list {
		parts[i] = strconv.Itoa(n)
	}
	return strings.Join(parts, ",")
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

func isWordToken(str string) bool {
	for _, r := range str {
		if !isWordRune(r) {
			return false
		}
	}
	return str != ""
}

func splitSpaces(str string) []string {
	return strings.Fields(str)
}
