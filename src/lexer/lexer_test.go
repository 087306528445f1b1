// Tests the lexer by verifying that a small sample program is tokenized
// into the expected ordered sequence of kinds, following the literal-
// expectation-slice style of frontend/lexer_test.go in the teacher repo.
package lexer

import (
	"testing"

	"github.com/GungYe918/parus-sub001/src/diag"
	"github.com/GungYe918/parus-sub001/src/token"
)

func scanAll(t *testing.T, src string) []token.Token {
	t.Helper()
	bag := diag.NewBag()
	l := New(src, 1, bag)
	go l.Run()
	var toks []token.Token
	for tk := range l.Tokens {
		toks = append(toks, tk)
		if tk.Kind == token.Eof {
			break
		}
	}
	return toks
}

func TestLexerBasicFunction(t *testing.T) {
	src := `fn main() -> i64 { set x = 1; let y: i64 = x; return y; }`
	toks := scanAll(t, src)
	exp := []token.Kind{
		token.KwFn, token.Ident, token.LParen, token.RParen, token.Arrow, token.KwI64,
		token.LBrace,
		token.KwSet, token.Ident, token.Eq, token.IntLit, token.Semi,
		token.KwLet, token.Ident, token.Colon, token.KwI64, token.Eq, token.Ident, token.Semi,
		token.KwReturn, token.Ident, token.Semi,
		token.RBrace, token.Eof,
	}
	if len(toks) != len(exp) {
		t.Fatalf("got %d tokens, want %d: %v", len(toks), len(exp), toks)
	}
	for i, k := range exp {
		if toks[i].Kind != k {
			t.Errorf("token %d: got %s, want %s", i, toks[i].Kind, k)
		}
	}
}

func TestLexerBorrowAndEscapeOperators(t *testing.T) {
	src := `set m = &mut x; set h = &&x; set r = &x;`
	toks := scanAll(t, src)
	exp := []token.Kind{
		token.KwSet, token.Ident, token.Eq, token.Amp, token.KwMut, token.Ident, token.Semi,
		token.KwSet, token.Ident, token.Eq, token.AmpAmp, token.Ident, token.Semi,
		token.KwSet, token.Ident, token.Eq, token.Amp, token.Ident, token.Semi,
		token.Eof,
	}
	if len(toks) != len(exp) {
		t.Fatalf("got %d tokens, want %d: %v", len(toks), len(exp), toks)
	}
	for i, k := range exp {
		if toks[i].Kind != k {
			t.Errorf("token %d: got %s, want %s", i, toks[i].Kind, k)
		}
	}
}

func TestLexerUnterminatedStringReportsDiagnosticAndContinues(t *testing.T) {
	bag := diag.NewBag()
	l := New("\"abc\nlet x", 1, bag)
	go l.Run()
	for range l.Tokens {
	}
	if !bag.HasError() {
		t.Fatalf("expected an error diagnostic for the unterminated string")
	}
}
