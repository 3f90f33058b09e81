package rdla

import (
	"fmt"
	"strings"
)

// TokenType represents the type of a lexer token.
type TokenType uint8

const (
	TokenEOF TokenType = iota
	TokenError

	// Literals
	TokenTrue   // true
	TokenFalse  // false
	TokenNil    // nil
	TokenInt    // 123, -456
	TokenFloat  // 1.23, -4.56e7, inf, nan
	TokenString // "quoted string"

	// Structural
	TokenLBrace   // {
	TokenRBrace   // }
	TokenLBracket // [
	TokenRBracket // ]
	TokenLParen   // (
	TokenRParen   // )
	TokenEq       // =
	TokenComma    // , or ;

	// Class names, constructors and helper functions
	TokenIdent
)

// String returns the token type name.
func (t TokenType) String() string {
	switch t {
	case TokenEOF:
		return "EOF"
	case TokenError:
		return "ERROR"
	case TokenTrue:
		return "TRUE"
	case TokenFalse:
		return "FALSE"
	case TokenNil:
		return "NIL"
	case TokenInt:
		return "INT"
	case TokenFloat:
		return "FLOAT"
	case TokenString:
		return "STRING"
	case TokenLBrace:
		return "{"
	case TokenRBrace:
		return "}"
	case TokenLBracket:
		return "["
	case TokenRBracket:
		return "]"
	case TokenLParen:
		return "("
	case TokenRParen:
		return ")"
	case TokenEq:
		return "="
	case TokenComma:
		return ","
	case TokenIdent:
		return "IDENT"
	default:
		return "UNKNOWN"
	}
}

// Position represents a source location.
type Position struct {
	Line   int
	Column int
	Offset int
}

// String returns position as "line:column".
func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// Token represents a lexer token.
type Token struct {
	Type  TokenType
	Value string
	Pos   Position
}

// String returns a debug representation of the token.
func (t Token) String() string {
	if t.Value == "" {
		return t.Type.String()
	}
	return fmt.Sprintf("%s(%q)", t.Type, t.Value)
}

// Lexer tokenizes rdla text.
type Lexer struct {
	input string
	pos   int // Current position in input
	line  int // Current line number (1-based)
	col   int // Current column number (1-based)
	err   error
}

// NewLexer creates a new lexer for the given input.
func NewLexer(input string) *Lexer {
	return &Lexer{input: input, line: 1, col: 1}
}

// Tokenize returns all tokens from the input. The first malformed token
// stops the scan with a *ParseError.
func (l *Lexer) Tokenize() ([]Token, error) {
	var tokens []Token
	for {
		tok := l.nextToken()
		tokens = append(tokens, tok)
		if tok.Type == TokenEOF || tok.Type == TokenError {
			break
		}
	}
	return tokens, l.err
}

func (l *Lexer) fail(pos Position, format string, args ...any) Token {
	l.err = &ParseError{Message: fmt.Sprintf(format, args...), Pos: pos}
	return Token{Type: TokenError, Pos: pos}
}

func (l *Lexer) nextToken() Token {
	if tok, ok := l.skipWhitespaceAndComments(); !ok {
		return tok
	}

	startPos := l.currentPos()
	if l.pos >= len(l.input) {
		return Token{Type: TokenEOF, Pos: startPos}
	}

	ch := l.peek()
	switch ch {
	case '{':
		l.advance()
		return Token{Type: TokenLBrace, Value: "{", Pos: startPos}
	case '}':
		l.advance()
		return Token{Type: TokenRBrace, Value: "}", Pos: startPos}
	case '[':
		l.advance()
		return Token{Type: TokenLBracket, Value: "[", Pos: startPos}
	case ']':
		l.advance()
		return Token{Type: TokenRBracket, Value: "]", Pos: startPos}
	case '(':
		l.advance()
		return Token{Type: TokenLParen, Value: "(", Pos: startPos}
	case ')':
		l.advance()
		return Token{Type: TokenRParen, Value: ")", Pos: startPos}
	case '=':
		l.advance()
		return Token{Type: TokenEq, Value: "=", Pos: startPos}
	case ',', ';':
		l.advance()
		return Token{Type: TokenComma, Value: string(ch), Pos: startPos}
	case '"', '\'':
		return l.scanString(ch)
	}

	if strings.HasPrefix(l.input[l.pos:], "-inf") {
		for range 4 {
			l.advance()
		}
		return Token{Type: TokenFloat, Value: "-inf", Pos: startPos}
	}
	if ch == '-' || ch == '.' || isDigit(ch) {
		return l.scanNumber()
	}
	if isIdentStart(ch) {
		return l.scanIdentOrKeyword()
	}

	l.advance()
	return l.fail(startPos, "unexpected character %q", ch)
}

// scanString scans a string quoted with " or '.
func (l *Lexer) scanString(quote byte) Token {
	startPos := l.currentPos()
	l.advance() // consume opening quote

	var sb strings.Builder
	for {
		if l.pos >= len(l.input) {
			return l.fail(startPos, "unterminated string")
		}
		ch := l.peek()
		if ch == quote {
			l.advance()
			break
		}
		if ch == '\n' {
			return l.fail(startPos, "unterminated string")
		}
		if ch != '\\' {
			sb.WriteByte(ch)
			l.advance()
			continue
		}

		l.advance()
		if l.pos >= len(l.input) {
			return l.fail(l.currentPos(), "unterminated escape")
		}
		escaped := l.peek()
		l.advance()
		switch escaped {
		case 'n':
			sb.WriteByte('\n')
		case 'r':
			sb.WriteByte('\r')
		case 't':
			sb.WriteByte('\t')
		case '0':
			sb.WriteByte(0)
		default:
			sb.WriteByte(escaped)
		}
	}
	return Token{Type: TokenString, Value: sb.String(), Pos: startPos}
}

// scanNumber scans an integer or float.
func (l *Lexer) scanNumber() Token {
	startPos := l.currentPos()
	start := l.pos

	if l.peek() == '-' {
		l.advance()
	}
	digits := 0
	for l.pos < len(l.input) && isDigit(l.peek()) {
		l.advance()
		digits++
	}

	isFloat := false
	if l.pos < len(l.input) && l.peek() == '.' {
		isFloat = true
		l.advance()
		for l.pos < len(l.input) && isDigit(l.peek()) {
			l.advance()
			digits++
		}
	}
	if digits == 0 {
		return l.fail(startPos, "malformed number %q", l.input[start:l.pos])
	}

	if l.pos < len(l.input) && (l.peek() == 'e' || l.peek() == 'E') {
		isFloat = true
		l.advance()
		if l.pos < len(l.input) && (l.peek() == '+' || l.peek() == '-') {
			l.advance()
		}
		exp := 0
		for l.pos < len(l.input) && isDigit(l.peek()) {
			l.advance()
			exp++
		}
		if exp == 0 {
			return l.fail(startPos, "malformed exponent in %q", l.input[start:l.pos])
		}
	}

	value := l.input[start:l.pos]
	if isFloat {
		return Token{Type: TokenFloat, Value: value, Pos: startPos}
	}
	return Token{Type: TokenInt, Value: value, Pos: startPos}
}

// scanIdentOrKeyword scans an identifier or keyword.
func (l *Lexer) scanIdentOrKeyword() Token {
	startPos := l.currentPos()
	start := l.pos
	for l.pos < len(l.input) && isIdentContinue(l.peek()) {
		l.advance()
	}

	value := l.input[start:l.pos]
	switch value {
	case "true":
		return Token{Type: TokenTrue, Value: value, Pos: startPos}
	case "false":
		return Token{Type: TokenFalse, Value: value, Pos: startPos}
	case "nil":
		return Token{Type: TokenNil, Value: value, Pos: startPos}
	case "inf", "nan":
		return Token{Type: TokenFloat, Value: value, Pos: startPos}
	}
	return Token{Type: TokenIdent, Value: value, Pos: startPos}
}

// skipWhitespaceAndComments skips whitespace, "--" line comments and
// "--[[ ]]" block comments. It fails on an unterminated block comment.
func (l *Lexer) skipWhitespaceAndComments() (Token, bool) {
	for l.pos < len(l.input) {
		ch := l.peek()
		if ch == ' ' || ch == '\t' || ch == '\r' || ch == '\n' {
			l.advance()
			continue
		}
		if !strings.HasPrefix(l.input[l.pos:], "--") {
			break
		}

		startPos := l.currentPos()
		l.advance()
		l.advance()
		if strings.HasPrefix(l.input[l.pos:], "[[") {
			end := strings.Index(l.input[l.pos:], "]]")
			if end < 0 {
				return l.fail(startPos, "unterminated block comment"), false
			}
			for range end + 2 {
				l.advance()
			}
			continue
		}
		for l.pos < len(l.input) && l.peek() != '\n' {
			l.advance()
		}
	}
	return Token{}, true
}

// Helper methods

func (l *Lexer) peek() byte {
	if l.pos >= len(l.input) {
		return 0
	}
	return l.input[l.pos]
}

func (l *Lexer) advance() {
	if l.pos < len(l.input) {
		if l.input[l.pos] == '\n' {
			l.line++
			l.col = 1
		} else {
			l.col++
		}
		l.pos++
	}
}

func (l *Lexer) currentPos() Position {
	return Position{Line: l.line, Column: l.col, Offset: l.pos}
}

// Character classification

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

func isIdentStart(ch byte) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || ch == '_'
}

func isIdentContinue(ch byte) bool {
	return isIdentStart(ch) || isDigit(ch)
}

// TokenStream provides a stream interface over tokens.
type TokenStream struct {
	tokens []Token
	pos    int
}

// NewTokenStream creates a token stream from tokens.
func NewTokenStream(tokens []Token) *TokenStream {
	return &TokenStream{tokens: tokens}
}

// Peek returns the current token without advancing.
func (ts *TokenStream) Peek() Token {
	if ts.pos >= len(ts.tokens) {
		return Token{Type: TokenEOF}
	}
	return ts.tokens[ts.pos]
}

// PeekN returns the token N positions ahead.
func (ts *TokenStream) PeekN(n int) Token {
	idx := ts.pos + n
	if idx >= len(ts.tokens) {
		return Token{Type: TokenEOF}
	}
	return ts.tokens[idx]
}

// Advance moves to the next token and returns the current one.
func (ts *TokenStream) Advance() Token {
	tok := ts.Peek()
	if ts.pos < len(ts.tokens) {
		ts.pos++
	}
	return tok
}

// Expect advances if the current token matches, otherwise returns a
// *ParseError.
func (ts *TokenStream) Expect(typ TokenType) (Token, error) {
	tok := ts.Peek()
	if tok.Type != typ {
		return tok, &ParseError{Message: fmt.Sprintf("expected %s, got %s", typ, tok), Pos: tok.Pos}
	}
	ts.Advance()
	return tok, nil
}

// Match returns true and advances if the current token matches.
func (ts *TokenStream) Match(typ TokenType) bool {
	if ts.Peek().Type == typ {
		ts.Advance()
		return true
	}
	return false
}

// AtEnd returns true if at end of stream.
func (ts *TokenStream) AtEnd() bool {
	return ts.Peek().Type == TokenEOF
}
