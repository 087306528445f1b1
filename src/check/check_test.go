package check

import (
	"testing"

	"github.com/GungYe918/parus-sub001/src/ast"
	"github.com/GungYe918/parus-sub001/src/diag"
	"github.com/GungYe918/parus-sub001/src/typepool"
)

func TestDeferredIntegerPinsToConcreteOperand(t *testing.T) {
	a := ast.NewArena()
	pool := typepool.NewPool()
	bag := diag.NewBag()
	c := New(a, pool, bag, nil)

	lit := a.New(ast.Node{Kind: ast.KIntLit, Lit: int64(5)})
	innerLit := a.New(ast.Node{Kind: ast.KIntLit, Lit: int64(2)})
	// a cast is the one expression kind whose checked type is pinned up
	// front (by the parser), simulating an already-concrete rhs operand.
	concreteIdent := a.New(ast.Node{Kind: ast.KCast, A: innerLit})
	castNode := a.Get(concreteIdent)
	castNode.Type = pool.BuiltinID(typepool.I64)
	a.Set(concreteIdent, castNode)
	bin := a.New(ast.Node{Kind: ast.KBinary, A: lit, B: concreteIdent, Aux: opAdd})

	ty := c.CheckExpr(bin)
	if ty != pool.BuiltinID(typepool.I64) {
		t.Fatalf("expected binary result to pin to i64, got %v", pool.Print(ty, false))
	}
}

func TestUnresolvedIntegerDefaultsToSmallestFittingWidth(t *testing.T) {
	a := ast.NewArena()
	pool := typepool.NewPool()
	bag := diag.NewBag()
	c := New(a, pool, bag, nil)

	lit := a.New(ast.Node{Kind: ast.KIntLit, Lit: int64(200)})
	c.CheckExpr(lit)
	c.FinalizePending()
	// Not tracked via pendingInteger unless explicitly added; this test
	// exercises the defaulting helper directly.
	if b := defaultIntegerWidth(200); b != typepool.I16 {
		t.Fatalf("expected 200 to default to i16, got %v", b)
	}
	if b := defaultIntegerWidth(5); b != typepool.I8 {
		t.Fatalf("expected 5 to default to i8, got %v", b)
	}
}

func TestBreakValueOutsideLoopIsRejected(t *testing.T) {
	a := ast.NewArena()
	pool := typepool.NewPool()
	bag := diag.NewBag()
	c := New(a, pool, bag, nil)

	v := a.New(ast.Node{Kind: ast.KIntLit, Lit: int64(1)})
	brk := a.New(ast.Node{Kind: ast.KBreakStmt, A: v})
	c.CheckStmt(brk)
	if !bag.HasError() {
		t.Fatalf("expected break-with-value outside a loop expression to be an error")
	}
}

func TestBreakValueInsideLoopUnifiesType(t *testing.T) {
	a := ast.NewArena()
	pool := typepool.NewPool()
	bag := diag.NewBag()
	c := New(a, pool, bag, nil)

	v := a.New(ast.Node{Kind: ast.KCharLit, Lit: "x"})
	brk := a.New(ast.Node{Kind: ast.KBreakStmt, A: v})
	begin, count := a.PushChildren([]ast.NodeID{brk})
	body := a.New(ast.Node{Kind: ast.KBlockStmt, ChildrenBegin: begin, ChildrenCnt: count})
	loop := a.New(ast.Node{Kind: ast.KLoopExpr, LoopBody: body})

	ty := c.CheckExpr(loop)
	if ty != pool.BuiltinID(typepool.Char) {
		t.Fatalf("expected loop expression to unify to char, got %v", pool.Print(ty, false))
	}
	if bag.HasError() {
		t.Fatalf("expected no diagnostics, got %d", bag.Len())
	}
}

func TestSetCannotInferFromNull(t *testing.T) {
	a := ast.NewArena()
	pool := typepool.NewPool()
	bag := diag.NewBag()
	c := New(a, pool, bag, nil)

	nullLit := a.New(ast.Node{Kind: ast.KNullLit})
	decl := a.New(ast.Node{Kind: ast.KVarDecl, Name: "x", A: nullLit, Aux: 1})
	c.CheckStmt(decl)
	if !bag.HasError() {
		t.Fatalf("expected SetCannotInferFromNull diagnostic")
	}
}

func TestAssignToNonPlaceIsRejected(t *testing.T) {
	a := ast.NewArena()
	pool := typepool.NewPool()
	bag := diag.NewBag()
	c := New(a, pool, bag, nil)

	lit := a.New(ast.Node{Kind: ast.KIntLit, Lit: int64(1)})
	rhs := a.New(ast.Node{Kind: ast.KIntLit, Lit: int64(2)})
	assign := a.New(ast.Node{Kind: ast.KAssign, A: lit, B: rhs})
	c.CheckExpr(assign)
	if !bag.HasError() {
		t.Fatalf("expected assignment to a non-place lhs to be rejected")
	}
}
