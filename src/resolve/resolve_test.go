package resolve

import (
	"testing"

	"github.com/GungYe918/parus-sub001/src/ast"
	"github.com/GungYe918/parus-sub001/src/diag"
)

func TestDuplicateDeclarationInSameScopeIsError(t *testing.T) {
	a := ast.NewArena()
	bag := diag.NewBag()
	v1 := a.New(ast.Node{Kind: ast.KVarDecl, Name: "x"})
	v2 := a.New(ast.Node{Kind: ast.KVarDecl, Name: "x"})
	begin, count := a.PushChildren([]ast.NodeID{v1, v2})
	root := a.New(ast.Node{Kind: ast.KBlockStmt, ChildrenBegin: begin, ChildrenCnt: count})

	r := New(a, bag, ShadowAllow)
	r.Run(root)

	if !bag.HasError() {
		t.Fatalf("expected duplicate declaration in the same scope to be an error")
	}
}

func TestShadowingPolicyAllowProducesNoDiagnostic(t *testing.T) {
	a := ast.NewArena()
	bag := diag.NewBag()
	outerDecl := a.New(ast.Node{Kind: ast.KVarDecl, Name: "x"})
	innerDecl := a.New(ast.Node{Kind: ast.KVarDecl, Name: "x"})
	innerBegin, innerCount := a.PushChildren([]ast.NodeID{innerDecl})
	inner := a.New(ast.Node{Kind: ast.KBlockStmt, ChildrenBegin: innerBegin, ChildrenCnt: innerCount})
	outerBegin, outerCount := a.PushChildren([]ast.NodeID{outerDecl, inner})
	root := a.New(ast.Node{Kind: ast.KBlockStmt, ChildrenBegin: outerBegin, ChildrenCnt: outerCount})

	r := New(a, bag, ShadowAllow)
	r.Run(root)

	if bag.HasError() {
		t.Fatalf("expected no diagnostic under ShadowAllow, got %d", bag.Len())
	}
}

func TestUndefinedIdentIsReported(t *testing.T) {
	a := ast.NewArena()
	bag := diag.NewBag()
	use := a.New(ast.Node{Kind: ast.KIdent, Name: "nowhere"})
	stmt := a.New(ast.Node{Kind: ast.KExprStmt, A: use})
	begin, count := a.PushChildren([]ast.NodeID{stmt})
	root := a.New(ast.Node{Kind: ast.KBlockStmt, ChildrenBegin: begin, ChildrenCnt: count})

	r := New(a, bag, ShadowAllow)
	r.Run(root)

	if !bag.HasError() {
		t.Fatalf("expected UndefinedName diagnostic")
	}
}

func TestActsPathIsNeverFlaggedUndefined(t *testing.T) {
	a := ast.NewArena()
	bag := diag.NewBag()
	use := a.New(ast.Node{Kind: ast.KIdent, Name: "T::acts(Set)::member"})
	stmt := a.New(ast.Node{Kind: ast.KExprStmt, A: use})
	begin, count := a.PushChildren([]ast.NodeID{stmt})
	root := a.New(ast.Node{Kind: ast.KBlockStmt, ChildrenBegin: begin, ChildrenCnt: count})

	r := New(a, bag, ShadowAllow)
	r.Run(root)

	if bag.HasError() {
		t.Fatalf("expected acts-path resolution to be deferred without diagnostics")
	}
}
