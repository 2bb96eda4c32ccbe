package syntax

import (
	"fmt"

	svinverr "svinv/internal/errors"
)

// TokenKind classifies lexed tokens.
type TokenKind int

const (
	TokEOF TokenKind = iota
	TokIdent
	TokNumber // unsigned decimal literal
	TokKeyword
	TokSymbol // any punctuation or operator character sequence
	TokString
)

// Token is one lexed token with its source position.
type Token struct {
	Kind TokenKind
	Text string
	Line int
	Col  int
}

// keywords the parser dispatches on. Other SystemVerilog keywords lex as
// identifiers and are handled by the skip logic.
var keywords = map[string]bool{
	"module": true, "endmodule": true,
	"input": true, "output": true, "inout": true,
	"logic": true, "wire": true, "reg": true, "bit": true,
	"begin": true, "end": true,
	"case": true, "endcase": true,
	"fork": true, "join": true,
	"function": true, "endfunction": true,
	"task": true, "endtask": true,
	"generate": true, "endgenerate": true,
	"package": true, "endpackage": true,
	"interface": true, "endinterface": true,
	"class": true, "endclass": true,
	"assign": true, "parameter": true, "localparam": true,
	"always": true, "always_ff": true, "always_comb": true, "initial": true,
}

// lexer turns preprocessed source text into a token stream.
type lexer struct {
	file string
	src  []byte
	pos  int
	line int
	col  int
}

func newLexer(file string, src []byte) *lexer {
	return &lexer{file: file, src: src, line: 1, col: 1}
}

func (l *lexer) errorf(line, col int, format string, args ...interface{}) error {
	return svinverr.New(svinverr.ParseError, fmt.Sprintf(format, args...)).InFile(l.file).At(line, col)
}

func (l *lexer) peekByte() byte {
	if l.pos >= len(l.src) {
		return 0
	}
	return l.src[l.pos]
}

func (l *lexer) advance() byte {
	c := l.src[l.pos]
	l.pos++
	if c == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
	return c
}

func (l *lexer) skipSpaceAndComments() error {
	for l.pos < len(l.src) {
		c := l.peekByte()
		switch {
		case c == ' ' || c == '\t' || c == '\r' || c == '\n':
			l.advance()
		case c == '/' && l.pos+1 < len(l.src) && l.src[l.pos+1] == '/':
			for l.pos < len(l.src) && l.peekByte() != '\n' {
				l.advance()
			}
		case c == '/' && l.pos+1 < len(l.src) && l.src[l.pos+1] == '*':
			line, col := l.line, l.col
			l.advance()
			l.advance()
			closed := false
			for l.pos < len(l.src) {
				if l.peekByte() == '*' && l.pos+1 < len(l.src) && l.src[l.pos+1] == '/' {
					l.advance()
					l.advance()
					closed = true
					break
				}
				l.advance()
			}
			if !closed {
				return l.errorf(line, col, "unterminated block comment")
			}
		default:
			return nil
		}
	}
	return nil
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || c == '$' || (c >= '0' && c <= '9')
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

// next lexes one token. At end of input it returns a TokEOF token.
func (l *lexer) next() (Token, error) {
	if err := l.skipSpaceAndComments(); err != nil {
		return Token{}, err
	}
	if l.pos >= len(l.src) {
		return Token{Kind: TokEOF, Line: l.line, Col: l.col}, nil
	}

	line, col := l.line, l.col
	c := l.peekByte()

	switch {
	case isIdentStart(c):
		start := l.pos
		for l.pos < len(l.src) && isIdentPart(l.peekByte()) {
			l.advance()
		}
		text := string(l.src[start:l.pos])
		kind := TokIdent
		if keywords[text] {
			kind = TokKeyword
		}
		return Token{Kind: kind, Text: text, Line: line, Col: col}, nil

	case c == '\\':
		// Escaped identifier: backslash up to the next whitespace.
		l.advance()
		start := l.pos
		for l.pos < len(l.src) {
			b := l.peekByte()
			if b == ' ' || b == '\t' || b == '\r' || b == '\n' {
				break
			}
			l.advance()
		}
		if l.pos == start {
			return Token{}, l.errorf(line, col, "empty escaped identifier")
		}
		return Token{Kind: TokIdent, Text: string(l.src[start:l.pos]), Line: line, Col: col}, nil

	case isDigit(c):
		start := l.pos
		for l.pos < len(l.src) && (isDigit(l.peekByte()) || l.peekByte() == '_') {
			l.advance()
		}
		// A based literal like 4'b1010 continues with a quote; lex the
		// whole thing as one symbol token so skipping stays aligned.
		if l.peekByte() == '\'' {
			l.advance()
			for l.pos < len(l.src) && (isIdentPart(l.peekByte()) || l.peekByte() == '?') {
				l.advance()
			}
			return Token{Kind: TokSymbol, Text: string(l.src[start:l.pos]), Line: line, Col: col}, nil
		}
		return Token{Kind: TokNumber, Text: string(l.src[start:l.pos]), Line: line, Col: col}, nil

	case c == '"':
		l.advance()
		start := l.pos
		for l.pos < len(l.src) {
			b := l.peekByte()
			if b == '\\' && l.pos+1 < len(l.src) {
				l.advance()
				l.advance()
				continue
			}
			if b == '"' {
				text := string(l.src[start:l.pos])
				l.advance()
				return Token{Kind: TokString, Text: text, Line: line, Col: col}, nil
			}
			l.advance()
		}
		return Token{}, l.errorf(line, col, "unterminated string literal")

	default:
		l.advance()
		return Token{Kind: TokSymbol, Text: string(c), Line: line, Col: col}, nil
	}
}

// lexAll tokenizes the whole input, appending a trailing EOF token.
func lexAll(file string, src []byte) ([]Token, error) {
	l := newLexer(file, src)
	var toks []Token
	for {
		tok, err := l.next()
		if err != nil {
			return nil, err
		}
		toks = append(toks, tok)
		if tok.Kind == TokEOF {
			return toks, nil
		}
	}
}
