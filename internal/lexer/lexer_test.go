package lexer

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/deepnoodle-ai/kinetic/internal/token"
)

type expectedToken struct {
	typ     token.Type
	literal string
}

func lexAll(t *testing.T, input string) []expectedToken {
	t.Helper()
	l := New(input)
	var out []expectedToken
	for {
		tok, err := l.Next()
		require.NoError(t, err)
		out = append(out, expectedToken{tok.Type, tok.Literal})
		if tok.Type == token.EOF {
			return out
		}
	}
}

func TestNextToken(t *testing.T) {
	input := "+-*/^**(),;"
	require.Equal(t, []expectedToken{
		{token.PLUS, "+"},
		{token.MINUS, "-"},
		{token.ASTERISK, "*"},
		{token.SLASH, "/"},
		{token.CARET, "^"},
		{token.POW, "**"},
		{token.LPAREN, "("},
		{token.RPAREN, ")"},
		{token.COMMA, ","},
		{token.SEMICOLON, ";"},
		{token.EOF, ""},
	}, lexAll(t, input))
}

func TestExpression(t *testing.T) {
	input := "0.3*x*y - log(abs(z_1)) # rate\nk2 ^ 2i"
	require.Equal(t, []expectedToken{
		{token.FLOAT, "0.3"},
		{token.ASTERISK, "*"},
		{token.IDENT, "x"},
		{token.ASTERISK, "*"},
		{token.IDENT, "y"},
		{token.MINUS, "-"},
		{token.IDENT, "log"},
		{token.LPAREN, "("},
		{token.IDENT, "abs"},
		{token.LPAREN, "("},
		{token.IDENT, "z_1"},
		{token.RPAREN, ")"},
		{token.RPAREN, ")"},
		{token.NEWLINE, "\n"},
		{token.IDENT, "k2"},
		{token.CARET, "^"},
		{token.IMAG, "2i"},
		{token.EOF, ""},
	}, lexAll(t, input))
}

func TestNumbers(t *testing.T) {
	tests := []struct {
		input string
		typ   token.Type
	}{
		{"42", token.INT},
		{"0", token.INT},
		{"3.25", token.FLOAT},
		{".5", token.FLOAT},
		{"1.", token.FLOAT},
		{"6.02e23", token.FLOAT},
		{"1E-9", token.FLOAT},
		{"2e+3", token.FLOAT},
		{"1i", token.IMAG},
		{"0.5i", token.IMAG},
		{"1e3i", token.IMAG},
		{"pi", token.FLOAT},
		{"e", token.FLOAT},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			tok, err := New(tt.input).Next()
			require.NoError(t, err)
			require.Equal(t, tt.typ, tok.Type)
			require.Equal(t, tt.input, tok.Literal)
		})
	}
}

func TestInvalids(t *testing.T) {
	tests := []struct {
		input   string
		literal string
	}{
		{"2x", "2x"},
		{"1.2.3", "1.2.3"},
		{"3in", "3in"},
		{"$", "$"},
		{"x % y", "%"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			l := New(tt.input)
			var err error
			var tok token.Token
			for err == nil && tok.Type != token.EOF {
				tok, err = l.Next()
			}
			require.Error(t, err)
			require.Equal(t, token.ILLEGAL, tok.Type)
			require.Equal(t, tt.literal, tok.Literal)
		})
	}
}

func TestUnicodeIdentifiers(t *testing.T) {
	require.Equal(t, []expectedToken{
		{token.IDENT, "α"},
		{token.ASTERISK, "*"},
		{token.IDENT, "β2"},
		{token.EOF, ""},
	}, lexAll(t, "α*β2"))
}

func TestLineNumbers(t *testing.T) {
	l := New("x\r\n  y + z\n")
	tok, _ := l.Next()
	require.Equal(t, 0, tok.StartPosition.Line)
	tok, _ = l.Next()
	require.Equal(t, token.NEWLINE, tok.Type)
	tok, _ = l.Next()
	require.Equal(t, "y", tok.Literal)
	require.Equal(t, 2, tok.StartPosition.LineNumber())
	require.Equal(t, 3, tok.StartPosition.ColumnNumber())
	require.Equal(t, "  y + z", l.GetLineText(tok))
}

func TestStateSaveRestore(t *testing.T) {
	l := New("a + b")
	first, _ := l.Next()
	state := l.SaveState()
	second, _ := l.Next()
	l.RestoreState(state)
	again, _ := l.Next()
	require.Equal(t, "a", first.Literal)
	require.Equal(t, second, again)
}

func TestMultipleEOFReads(t *testing.T) {
	l := New("   # only a comment")
	for i := 0; i < 3; i++ {
		tok, err := l.Next()
		require.NoError(t, err)
		require.Equal(t, token.EOF, tok.Type)
	}
}

func TestFilename(t *testing.T) {
	l := New("x")
	l.SetFilename("model.toml")
	tok, _ := l.Next()
	require.Equal(t, "model.toml", l.Filename())
	require.Equal(t, "model.toml", tok.StartPosition.File)
}
