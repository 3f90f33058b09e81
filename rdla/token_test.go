package rdla

import (
	"errors"
	"testing"

	"github.com/Neumenon/rdl2/rdl"
)

// ============================================================
// Lexer Tests
// ============================================================

func TestLexer_BasicTokens(t *testing.T) {
	tests := []struct {
		input    string
		expected []TokenType
	}{
		{"123", []TokenType{TokenInt, TokenEOF}},
		{"-456", []TokenType{TokenInt, TokenEOF}},
		{"3.14", []TokenType{TokenFloat, TokenEOF}},
		{".5", []TokenType{TokenFloat, TokenEOF}},
		{"-2.5e10", []TokenType{TokenFloat, TokenEOF}},
		{"1e-3", []TokenType{TokenFloat, TokenEOF}},
		{"inf", []TokenType{TokenFloat, TokenEOF}},
		{"-inf", []TokenType{TokenFloat, TokenEOF}},
		{"nan", []TokenType{TokenFloat, TokenEOF}},
		{"true", []TokenType{TokenTrue, TokenEOF}},
		{"false", []TokenType{TokenFalse, TokenEOF}},
		{"nil", []TokenType{TokenNil, TokenEOF}},
		{`"hello"`, []TokenType{TokenString, TokenEOF}},
		{`'hello'`, []TokenType{TokenString, TokenEOF}},
		{"SphereGeometry", []TokenType{TokenIdent, TokenEOF}},
		{"{}", []TokenType{TokenLBrace, TokenRBrace, TokenEOF}},
		{"[]", []TokenType{TokenLBracket, TokenRBracket, TokenEOF}},
		{"()", []TokenType{TokenLParen, TokenRParen, TokenEOF}},
		{"=", []TokenType{TokenEq, TokenEOF}},
		{",;", []TokenType{TokenComma, TokenComma, TokenEOF}},
		{`["radius"] = 2,`, []TokenType{TokenLBracket, TokenString, TokenRBracket, TokenEq, TokenInt, TokenComma, TokenEOF}},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			tokens, err := NewLexer(tt.input).Tokenize()
			if err != nil {
				t.Fatalf("Tokenize failed: %v", err)
			}
			if len(tokens) != len(tt.expected) {
				t.Fatalf("Expected %d tokens, got %d", len(tt.expected), len(tokens))
			}
			for i, tok := range tokens {
				if tok.Type != tt.expected[i] {
					t.Errorf("Token %d: expected %s, got %s", i, tt.expected[i], tok.Type)
				}
			}
		})
	}
}

func TestLexer_Comments(t *testing.T) {
	input := `123 -- line comment
--[[ block
comment ]] 456 --[[ inline ]] -7`
	tokens, err := NewLexer(input).Tokenize()
	if err != nil {
		t.Fatalf("Tokenize failed: %v", err)
	}
	if len(tokens) != 4 {
		t.Fatalf("Expected 4 tokens, got %d: %v", len(tokens), tokens)
	}
	if tokens[0].Value != "123" || tokens[1].Value != "456" || tokens[2].Value != "-7" {
		t.Errorf("Unexpected token values: %v", tokens)
	}
	if tokens[1].Pos.Line != 3 || tokens[1].Pos.Column != 12 {
		t.Errorf("456 at %s, want 3:12", tokens[1].Pos)
	}
}

func TestLexer_StringEscapes(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{`"plain"`, "plain"},
		{`"a\"b"`, `a"b`},
		{`'it\'s'`, "it's"},
		{`"tab\there"`, "tab\there"},
		{`"line\nbreak"`, "line\nbreak"},
		{`"nul\0"`, "nul\x00"},
		{`"back\\slash"`, `back\slash`},
		{`'mixed "quotes"'`, `mixed "quotes"`},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			tokens, err := NewLexer(tt.input).Tokenize()
			if err != nil {
				t.Fatalf("Tokenize failed: %v", err)
			}
			if tokens[0].Type != TokenString || tokens[0].Value != tt.want {
				t.Errorf("got %v, want string %q", tokens[0], tt.want)
			}
		})
	}
}

func TestLexer_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"unterminated string", `"abc`},
		{"newline in string", "\"abc\ndef\""},
		{"unterminated block comment", "--[[ never closed"},
		{"lone minus", "- 1"},
		{"bad exponent", "1e+"},
		{"unexpected character", "@"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewLexer(tt.input).Tokenize()
			if err == nil {
				t.Fatal("expected an error")
			}
			var pe *ParseError
			if !errors.As(err, &pe) {
				t.Fatalf("expected *ParseError, got %T", err)
			}
			if !errors.Is(err, rdl.ErrParse) {
				t.Errorf("%v does not wrap rdl.ErrParse", err)
			}
			if pe.Pos.Line != 1 {
				t.Errorf("error at %s, want line 1", pe.Pos)
			}
		})
	}
}

func TestTokenStream(t *testing.T) {
	tokens, err := NewLexer(`SceneVariables { }`).Tokenize()
	if err != nil {
		t.Fatalf("Tokenize failed: %v", err)
	}
	ts := NewTokenStream(tokens)
	if ts.PeekN(1).Type != TokenLBrace {
		t.Errorf("PeekN(1) = %v", ts.PeekN(1))
	}
	if _, err := ts.Expect(TokenLBrace); err == nil {
		t.Error("Expect should fail on an identifier")
	}
	if tok := ts.Advance(); tok.Value != "SceneVariables" {
		t.Errorf("Advance = %v", tok)
	}
	if !ts.Match(TokenLBrace) || ts.Match(TokenLBrace) {
		t.Error("Match should consume exactly one brace")
	}
	ts.Advance()
	if !ts.AtEnd() {
		t.Errorf("expected end of stream at %v", ts.Peek())
	}
}
