package macro

import (
	"testing"

	"github.com/GungYe918/parus-sub001/src/ast"
	"github.com/GungYe918/parus-sub001/src/diag"
	"github.com/GungYe918/parus-sub001/src/token"
	"github.com/GungYe918/parus-sub001/src/typepool"
)

func ident(name string) token.Token { return token.Token{Kind: token.Ident, Lexeme: name} }

func TestSplitTopLevelCommasRespectsNesting(t *testing.T) {
	toks := []token.Token{ident("a"), {Kind: token.Comma}, {Kind: token.LParen}, ident("b"), {Kind: token.Comma}, ident("c"), {Kind: token.RParen}}
	groups := splitTopLevelCommas(toks)
	if len(groups) != 2 {
		t.Fatalf("expected 2 top-level groups, got %d", len(groups))
	}
	if len(groups[1]) != 5 {
		t.Fatalf("expected nested group to keep its inner comma, got %d toks", len(groups[1]))
	}
}

func TestBindArmRejectsArityMismatch(t *testing.T) {
	arm := Arm{Captures: []Capture{{Name: "x", Kind: FragExpr}}}
	_, ok := bindArm(arm, [][]token.Token{{ident("a")}, {ident("b")}})
	if ok {
		t.Fatalf("expected arity mismatch to fail binding")
	}
}

func TestBindArmAcceptsTrailingVariadic(t *testing.T) {
	arm := Arm{Captures: []Capture{
		{Name: "head", Kind: FragExpr},
		{Name: "rest", Kind: FragExpr, Variadic: true},
	}}
	binds, ok := bindArm(arm, [][]token.Token{{ident("a")}, {ident("b")}, {ident("c")}})
	if !ok {
		t.Fatalf("expected variadic bind to succeed")
	}
	rest, _ := findBinding(binds, "rest")
	if len(rest.list) != 2 {
		t.Fatalf("expected 2 variadic entries, got %d", len(rest.list))
	}
}

func TestSubstituteHygienatesNonCapturedIdents(t *testing.T) {
	binds := []binding{{cap: Capture{Name: "x", Kind: FragExpr}, slice: []token.Token{ident("caller_val")}}}
	template := []token.Token{ident("tmp"), {Kind: token.Eq}, {Kind: token.Dollar}, ident("x")}
	out := substitute(template, binds, 1)
	if out[0].Lexeme == "tmp" {
		t.Fatalf("expected template-origin ident to be hygiene-marked, got unmarked %q", out[0].Lexeme)
	}
	if out[len(out)-1].Lexeme != "caller_val" {
		t.Fatalf("expected captured token to retain original lexeme, got %q", out[len(out)-1].Lexeme)
	}
}

func TestExpandCallNoMatchReportsDiagnostic(t *testing.T) {
	a := ast.NewArena()
	pool := typepool.NewPool()
	bag := diag.NewBag()
	reparse := func(ctx Context, toks []token.Token) (ast.NodeID, bool) { return ast.NoNode, false }
	e := NewExpander(a, pool, bag, reparse, DefaultBatchBudget())
	_, ok := e.ExpandCall("undeclared", nil, 0, CtxExpr, diag.Span{}, 1)
	if ok {
		t.Fatalf("expected expansion of an undeclared macro to fail")
	}
	if !bag.HasError() {
		t.Fatalf("expected MacroNoMatch diagnostic to be recorded")
	}
}

func TestExpandCallHonoursStepBudget(t *testing.T) {
	a := ast.NewArena()
	pool := typepool.NewPool()
	bag := diag.NewBag()
	reparse := func(ctx Context, toks []token.Token) (ast.NodeID, bool) { return ast.NoNode, true }
	e := NewExpander(a, pool, bag, reparse, Budget{MaxSteps: 1, MaxDepth: 64})
	e.Declare(Decl{Name: "m", Groups: []Group{{Context: CtxExpr, Arms: []Arm{{}}}}})
	_, ok := e.ExpandCall("m", nil, 0, CtxExpr, diag.Span{}, 1)
	if !ok {
		t.Fatalf("first call within budget should succeed")
	}
	_, ok = e.ExpandCall("m", nil, 0, CtxExpr, diag.Span{}, 1)
	if ok {
		t.Fatalf("second call should exceed the 1-step budget")
	}
	if !bag.HasFatal() {
		t.Fatalf("expected MacroRecursionBudget fatal diagnostic")
	}
}
