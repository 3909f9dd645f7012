package predicate

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
	"unicode"

	"github.com/BenLubar/memoize"
	"github.com/carbocation/qfeatures/errs"
)

// Parse compiles a filter expression such as
//
//	pval < 0.05 & (Potential.contaminant != "+" | Reverse == FALSE)
//
// Grammar, loosest binding first:
//
//	expr    := and ( ("|" | "||") and )*
//	and     := unary ( ("&" | "&&") unary )*
//	unary   := "!" unary | primary
//	primary := "(" expr ")" | ident op literal | literal op ident
//	         | ident ("in" | "%in%") "(" literal ("," literal)* ")"
//	op      := "<" | "<=" | ">" | ">=" | "==" | "=" | "!="
//	literal := number | "string" | 'string' | TRUE | FALSE
//
// Identifiers may contain letters, digits, '_' and '.', or be wrapped in
// backquotes to hold anything else.
func Parse(expr string) (Predicate, error) {
	toks, err := lex(expr)
	if err != nil {
		return nil, &errs.InvalidPredicateError{Expr: expr, Reason: err.Error()}
	}
	p := &parser{toks: toks}
	out, err := p.expr()
	if err == nil && p.peek().kind != tokEOF {
		err = fmt.Errorf("unexpected %s", p.peek())
	}
	if err != nil {
		return nil, &errs.InvalidPredicateError{Expr: expr, Reason: err.Error()}
	}
	return out, nil
}

var (
	memoizedParse   = memoize.Memoize(Parse)
	memoizedParseMu sync.Mutex
)

// ParseCached is Parse with results remembered by expression text. The cache
// is never emptied, so only use it for a fixed set of expressions, such as
// those named on a command line, and never for client input. Safe for
// concurrent use.
func ParseCached(expr string) (Predicate, error) {
	memoizedParseMu.Lock()
	defer memoizedParseMu.Unlock()

	return memoizedParse.(func(string) (Predicate, error))(expr)
}

type tokKind int

const (
	tokEOF tokKind = iota
	tokIdent
	tokNumber
	tokString
	tokBool
	tokOp
	tokAnd
	tokOr
	tokNot
	tokIn
	tokLParen
	tokRParen
	tokComma
)

type token struct {
	kind tokKind
	text string
	pos  int
}

func (t token) String() string {
	if t.kind == tokEOF {
		return "end of expression"
	}
	return fmt.Sprintf("%q at offset %d", t.text, t.pos)
}

func isLetter(r rune) bool { return unicode.IsLetter(r) }
func isDigit(r rune) bool  { return r >= '0' && r <= '9' }

func lex(s string) ([]token, error) {
	var out []token
	rs := []rune(s)
	for i := 0; i < len(rs); {
		r := rs[i]
		start := i
		switch {
		case unicode.IsSpace(r):
			i++
			continue

		case r == '(':
			out = append(out, token{tokLParen, "(", start})
			i++
		case r == ')':
			out = append(out, token{tokRParen, ")", start})
			i++
		case r == ',':
			out = append(out, token{tokComma, ",", start})
			i++

		case r == '&' || r == '|':
			i++
			if i < len(rs) && rs[i] == r {
				i++
			}
			kind := tokAnd
			if r == '|' {
				kind = tokOr
			}
			out = append(out, token{kind, string(rs[start:i]), start})

		case r == '<' || r == '>' || r == '=' || r == '!':
			i++
			if i < len(rs) && rs[i] == '=' {
				i++
			}
			text := string(rs[start:i])
			if text == "!" {
				out = append(out, token{tokNot, text, start})
				continue
			}
			if text == "=" {
				text = "=="
			}
			out = append(out, token{tokOp, text, start})

		case r == '%':
			end := strings.Index(string(rs[i:]), "%in%")
			if end != 0 {
				return nil, fmt.Errorf("unexpected %q at offset %d", r, start)
			}
			i += 4
			out = append(out, token{tokIn, "%in%", start})

		case r == '"' || r == '\'':
			i++
			var b strings.Builder
			closed := false
			for i < len(rs) {
				c := rs[i]
				i++
				if c == '\\' && i < len(rs) {
					b.WriteRune(rs[i])
					i++
					continue
				}
				if c == r {
					closed = true
					break
				}
				b.WriteRune(c)
			}
			if !closed {
				return nil, fmt.Errorf("unterminated string at offset %d", start)
			}
			out = append(out, token{tokString, b.String(), start})

		case r == '`':
			i++
			for i < len(rs) && rs[i] != '`' {
				i++
			}
			if i >= len(rs) {
				return nil, fmt.Errorf("unterminated identifier at offset %d", start)
			}
			out = append(out, token{tokIdent, string(rs[start+1 : i]), start})
			i++

		case isDigit(r) || r == '-' || (r == '.' && i+1 < len(rs) && isDigit(rs[i+1])):
			i++
			for i < len(rs) && (isDigit(rs[i]) || rs[i] == '.') {
				i++
			}
			if i < len(rs) && (rs[i] == 'e' || rs[i] == 'E') {
				i++
				if i < len(rs) && (rs[i] == '+' || rs[i] == '-') {
					i++
				}
				for i < len(rs) && isDigit(rs[i]) {
					i++
				}
			}
			out = append(out, token{tokNumber, string(rs[start:i]), start})

		case isLetter(r) || r == '_' || r == '.':
			for i < len(rs) && (isLetter(rs[i]) || isDigit(rs[i]) || rs[i] == '_' || rs[i] == '.') {
				i++
			}
			text := string(rs[start:i])
			switch text {
			case "TRUE", "true", "FALSE", "false":
				out = append(out, token{tokBool, text, start})
			case "in":
				out = append(out, token{tokIn, text, start})
			default:
				out = append(out, token{tokIdent, text, start})
			}

		default:
			return nil, fmt.Errorf("unexpected %q at offset %d", r, start)
		}
	}
	return append(out, token{kind: tokEOF, pos: len(rs)}), nil
}

type parser struct {
	toks []token
	pos  int
}

func (p *parser) peek() token { return p.toks[p.pos] }

func (p *parser) next() token {
	t := p.toks[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

func (p *parser) expr() (Predicate, error) {
	first, err := p.and()
	if err != nil {
		return nil, err
	}
	terms := []Predicate{first}
	for p.peek().kind == tokOr {
		p.next()
		t, err := p.and()
		if err != nil {
			return nil, err
		}
		terms = append(terms, t)
	}
	if len(terms) == 1 {
		return first, nil
	}
	return Or(terms...), nil
}

func (p *parser) and() (Predicate, error) {
	first, err := p.unary()
	if err != nil {
		return nil, err
	}
	terms := []Predicate{first}
	for p.peek().kind == tokAnd {
		p.next()
		t, err := p.unary()
		if err != nil {
			return nil, err
		}
		terms = append(terms, t)
	}
	if len(terms) == 1 {
		return first, nil
	}
	return And(terms...), nil
}

func (p *parser) unary() (Predicate, error) {
	if p.peek().kind == tokNot {
		p.next()
		t, err := p.unary()
		if err != nil {
			return nil, err
		}
		return Not(t), nil
	}
	return p.primary()
}

func (p *parser) primary() (Predicate, error) {
	t := p.next()
	switch t.kind {
	case tokLParen:
		inner, err := p.expr()
		if err != nil {
			return nil, err
		}
		if c := p.next(); c.kind != tokRParen {
			return nil, fmt.Errorf("expected ) but found %s", c)
		}
		return inner, nil

	case tokIdent:
		switch p.peek().kind {
		case tokOp:
			op := parseOp(p.next().text)
			lit, err := p.literal()
			if err != nil {
				return nil, err
			}
			return Compare(t.text, op, lit), nil
		case tokIn:
			p.next()
			set, err := p.literalList()
			if err != nil {
				return nil, err
			}
			return In(t.text, set...), nil
		}
		return nil, fmt.Errorf("expected comparison after %s but found %s", t, p.peek())

	case tokNumber, tokString, tokBool:
		p.pos--
		lit, err := p.literal()
		if err != nil {
			return nil, err
		}
		opTok := p.next()
		if opTok.kind != tokOp {
			return nil, fmt.Errorf("expected comparison operator but found %s", opTok)
		}
		ident := p.next()
		if ident.kind != tokIdent {
			return nil, fmt.Errorf("expected column name but found %s", ident)
		}
		return Compare(ident.text, parseOp(opTok.text).flip(), lit), nil
	}

	return nil, fmt.Errorf("unexpected %s", t)
}

func (p *parser) literal() (Literal, error) {
	t := p.next()
	switch t.kind {
	case tokNumber:
		f, err := strconv.ParseFloat(t.text, 64)
		if err != nil {
			return Literal{}, fmt.Errorf("bad number %s", t)
		}
		return Number(f), nil
	case tokString:
		return String(t.text), nil
	case tokBool:
		return Bool(strings.EqualFold(t.text, "true")), nil
	}
	return Literal{}, fmt.Errorf("expected a value but found %s", t)
}

func (p *parser) literalList() ([]Literal, error) {
	if t := p.next(); t.kind != tokLParen {
		return nil, fmt.Errorf("expected ( but found %s", t)
	}
	var out []Literal
	for {
		l, err := p.literal()
		if err != nil {
			return nil, err
		}
		out = append(out, l)
		t := p.next()
		if t.kind == tokRParen {
			return out, nil
		}
		if t.kind != tokComma {
			return nil, fmt.Errorf("expected , or ) but found %s", t)
		}
	}
}

func parseOp(s string) Op {
	for op, sym := range opSymbols {
		if sym == s {
			return Op(op)
		}
	}
	return EQ
}
