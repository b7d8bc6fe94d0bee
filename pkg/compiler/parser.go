package compiler

import (
	"fmt"
	"strconv"

	"github.com/emberlang/ember/pkg/lexer"
	"github.com/emberlang/ember/pkg/vmerrors"
)

// Parser is a single-pass recursive-descent parser that emits bytecode
// directly as it recognises each production, per spec.md §4.8 ("there is no
// separate AST stage"). It holds exactly one token of lookahead (p.cur);
// productions that need a second token of lookahead (assign's
// IDENT-then-assign-op disambiguation) use src.Peek(), which is
// non-destructive.
type Parser struct {
	file string
	live *liveSource
	src  tokenSource
	cur  lexer.Token
}

func newParser(file, source string) *Parser {
	live := &liveSource{lex: lexer.New(source)}
	return &Parser{file: file, live: live, src: live}
}

func (p *Parser) start() error { return p.advance() }

// advance pulls the next token from the current source into p.cur.
func (p *Parser) advance() error {
	tok, err := p.src.Next()
	if err != nil {
		return p.lexErr(err)
	}
	p.cur = tok
	return nil
}

func (p *Parser) lexErr(err error) error {
	return &vmerrors.ParseError{File: p.file, Line: p.cur.Line, Message: err.Error()}
}

func (p *Parser) errf(format string, args ...any) error {
	return &vmerrors.ParseError{File: p.file, Line: p.cur.Line, Message: fmt.Sprintf(format, args...)}
}

// expect checks the current token's type, reporting msg on mismatch, then
// advances past it.
func (p *Parser) expect(tt lexer.TokenType, what string) error {
	if p.cur.Type != tt {
		return p.errf("expected %s, found %q", what, p.cur.Literal)
	}
	return p.advance()
}

// expectIdent returns the current identifier's text and advances past it.
func (p *Parser) expectIdent() (string, error) {
	if p.cur.Type != lexer.TokenIdent {
		return "", p.errf("expected identifier, found %q", p.cur.Literal)
	}
	name := p.cur.Literal
	return name, p.advance()
}

// expectString returns the current string literal's text and advances past
// it. Object names are written as string literals (spec.md §4.8:
// `object_decl := 'object' STRING '{' ...`).
func (p *Parser) expectString() (string, error) {
	if p.cur.Type != lexer.TokenString {
		return "", p.errf("expected string literal, found %q", p.cur.Literal)
	}
	s := p.cur.Literal
	return s, p.advance()
}

func (p *Parser) parseNumber(lit string) (float64, error) {
	n, err := strconv.ParseFloat(lit, 64)
	if err != nil {
		return 0, p.errf("invalid numeric literal %q", lit)
	}
	return n, nil
}

// withSource temporarily swaps in a replay source for the duration of fn, restoring
// both the source and p.cur to what they were before returning. Used by the
// for-loop's post-clause deferred emission (stmt.go).
func (p *Parser) withSource(src tokenSource, fn func() error) error {
	savedSrc, savedCur := p.src, p.cur
	p.src = src
	defer func() {
		p.src = savedSrc
		p.cur = savedCur
	}()
	if err := p.advance(); err != nil {
		return err
	}
	return fn()
}
