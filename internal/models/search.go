package models

import (
	"fmt"
	"strings"
)

// TagOp is the operator of a tag expression node
type TagOp string

const (
	TagLeaf TagOp = "tag"
	TagAnd  TagOp = "and"
	TagOr   TagOp = "or"
	TagXor  TagOp = "xor"
	TagNot  TagOp = "not"
)

// TagExpr is a boolean expression over prompt tags, e.g. "ai AND NOT draft"
type TagExpr struct {
	Op   TagOp
	Tag  string
	Args []*TagExpr
}

// Match evaluates the expression against tags. A nil expression matches everything.
func (e *TagExpr) Match(tags []string) bool {
	if e == nil {
		return true
	}

	switch e.Op {
	case TagLeaf:
		return containsTag(tags, e.Tag)
	case TagAnd:
		for _, a := range e.Args {
			if !a.Match(tags) {
				return false
			}
		}
		return true
	case TagOr:
		for _, a := range e.Args {
			if a.Match(tags) {
				return true
			}
		}
		return false
	case TagXor:
		if len(e.Args) != 2 {
			return false
		}
		return e.Args[0].Match(tags) != e.Args[1].Match(tags)
	case TagNot:
		if len(e.Args) != 1 {
			return false
		}
		return !e.Args[0].Match(tags)
	default:
		return false
	}
}

func (e *TagExpr) String() string {
	if e == nil {
		return ""
	}

	switch e.Op {
	case TagLeaf:
		return fmt.Sprintf("[%s]", e.Tag)
	case TagNot:
		if len(e.Args) == 1 {
			return "NOT " + e.Args[0].String()
		}
		return "NOT ?"
	default:
		parts := make([]string, len(e.Args))
		for i, a := range e.Args {
			parts[i] = a.String()
		}
		return "(" + strings.Join(parts, " "+strings.ToUpper(string(e.Op))+" ") + ")"
	}
}

func containsTag(tags []string, target string) bool {
	for _, tag := range tags {
		if strings.EqualFold(tag, target) {
			return true
		}
	}
	return false
}

// ParseTagExpr parses a query such as `ai AND (writing OR "code review") AND NOT draft`.
// Precedence from loosest to tightest is OR, XOR, AND, NOT. Adjacent tags without an
// operator are joined with AND.
func ParseTagExpr(query string) (*TagExpr, error) {
	toks, err := tokenizeTagQuery(query)
	if err != nil {
		return nil, err
	}
	if len(toks) == 0 {
		return nil, nil
	}

	p := &tagParser{toks: toks}
	expr, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if p.pos < len(p.toks) {
		return nil, fmt.Errorf("unexpected %q at position %d", p.toks[p.pos], p.pos+1)
	}
	return expr, nil
}

type tagParser struct {
	toks []string
	pos  int
}

func (p *tagParser) peek() string {
	if p.pos >= len(p.toks) {
		return ""
	}
	return p.toks[p.pos]
}

func (p *tagParser) keyword(kw string) bool {
	if strings.EqualFold(p.peek(), kw) {
		p.pos++
		return true
	}
	return false
}

func (p *tagParser) parseOr() (*TagExpr, error) {
	return p.parseBinary(TagOr, "OR", p.parseXor)
}

func (p *tagParser) parseXor() (*TagExpr, error) {
	return p.parseBinary(TagXor, "XOR", p.parseAnd)
}

func (p *tagParser) parseBinary(op TagOp, kw string, next func() (*TagExpr, error)) (*TagExpr, error) {
	left, err := next()
	if err != nil {
		return nil, err
	}
	for p.keyword(kw) {
		right, err := next()
		if err != nil {
			return nil, err
		}
		left = &TagExpr{Op: op, Args: []*TagExpr{left, right}}
	}
	return left, nil
}

func (p *tagParser) parseAnd() (*TagExpr, error) {
	args := []*TagExpr{}
	for {
		e, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		args = append(args, e)

		if p.keyword("AND") {
			continue
		}
		next := p.peek()
		if next == "" || next == ")" || strings.EqualFold(next, "OR") || strings.EqualFold(next, "XOR") {
			break
		}
	}
	if len(args) == 1 {
		return args[0], nil
	}
	return &TagExpr{Op: TagAnd, Args: args}, nil
}

func (p *tagParser) parseNot() (*TagExpr, error) {
	if p.keyword("NOT") {
		e, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		return &TagExpr{Op: TagNot, Args: []*TagExpr{e}}, nil
	}
	return p.parseAtom()
}

func (p *tagParser) parseAtom() (*TagExpr, error) {
	tok := p.peek()
	switch {
	case tok == "":
		return nil, fmt.Errorf("unexpected end of query")
	case tok == "(":
		p.pos++
		e, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if !p.keyword(")") {
			return nil, fmt.Errorf("missing closing parenthesis")
		}
		return e, nil
	case tok == ")":
		return nil, fmt.Errorf("unexpected %q", tok)
	}
	for _, kw := range []string{"AND", "OR", "XOR", "NOT"} {
		if strings.EqualFold(tok, kw) {
			return nil, fmt.Errorf("expected a tag, found operator %s", kw)
		}
	}
	p.pos++
	return &TagExpr{Op: TagLeaf, Tag: strings.Trim(tok, `"`)}, nil
}

func tokenizeTagQuery(query string) ([]string, error) {
	var (
		toks []string
		cur  strings.Builder
	)
	flush := func() {
		if cur.Len() > 0 {
			toks = append(toks, cur.String())
			cur.Reset()
		}
	}

	inQuote := false
	for _, r := range query {
		switch {
		case r == '"':
			cur.WriteRune(r)
			if inQuote {
				flush()
			}
			inQuote = !inQuote
		case inQuote:
			cur.WriteRune(r)
		case r == '(' || r == ')':
			flush()
			toks = append(toks, string(r))
		case r == ' ' || r == '\t' || r == '\n':
			flush()
		default:
			cur.WriteRune(r)
		}
	}
	if inQuote {
		return nil, fmt.Errorf("unterminated quote")
	}
	flush()
	return toks, nil
}
