package compiler

import "github.com/emberlang/ember/pkg/lexer"

// tokenSource abstracts where the parser's next token comes from: the live
// lexer over the compilation unit, or a replay buffer. The only user of the
// replay form is the classic for-loop's post clause (forStmt in stmt.go):
// `for(init; cond; post) body` reads post's tokens before body but must
// emit its code after body, so the parser buffers post's tokens once and
// re-parses them from the buffer once the body has been compiled.
type tokenSource interface {
	Next() (lexer.Token, error)
	Peek() (lexer.Token, error)
}

type liveSource struct{ lex *lexer.Lexer }

func (s *liveSource) Next() (lexer.Token, error) { return s.lex.Next() }
func (s *liveSource) Peek() (lexer.Token, error) { return s.lex.Peek() }

// bufSource replays a fixed slice of tokens already scanned off the live
// lexer, yielding TokenEOF once exhausted.
type bufSource struct {
	toks []lexer.Token
	i    int
}

func (s *bufSource) Next() (lexer.Token, error) {
	t := s.Peek1()
	if s.i < len(s.toks) {
		s.i++
	}
	return t, nil
}

func (s *bufSource) Peek() (lexer.Token, error) { return s.Peek1(), nil }

func (s *bufSource) Peek1() lexer.Token {
	if s.i >= len(s.toks) {
		return lexer.Token{Type: lexer.TokenEOF}
	}
	return s.toks[s.i]
}
