package sir

import (
	"testing"

	"github.com/GungYe918/parus-sub001/src/ast"
	"github.com/GungYe918/parus-sub001/src/resolve"
	"github.com/GungYe918/parus-sub001/src/typepool"
)

// buildProgram wraps fns in a top-level KBlockStmt, the root shape
// BuildProgram expects, and returns that block's id.
func buildProgram(a *ast.Arena, fns []ast.NodeID) ast.NodeID {
	begin, count := a.PushChildren(fns)
	return a.New(ast.Node{Kind: ast.KBlockStmt, ChildrenBegin: begin, ChildrenCnt: count})
}

func newFnDecl(a *ast.Arena, pool *typepool.Pool, name string, bodyStmts []ast.NodeID) ast.NodeID {
	begin, count := a.PushChildren(bodyStmts)
	body := a.New(ast.Node{Kind: ast.KBlockStmt, ChildrenBegin: begin, ChildrenCnt: count})
	return a.New(ast.Node{Kind: ast.KFnDecl, Name: name, B: body, Type: pool.BuiltinID(typepool.Unit)})
}

func TestBuildProgramLowersVarDeclWithAssign(t *testing.T) {
	a := ast.NewArena()
	pool := typepool.NewPool()

	lit := a.New(ast.Node{Kind: ast.KIntLit, Lit: int64(1), Type: pool.BuiltinID(typepool.I8)})
	decl := a.New(ast.Node{Kind: ast.KVarDecl, Name: "x", A: lit, Type: pool.BuiltinID(typepool.I8)})
	fn := newFnDecl(a, pool, "main", []ast.NodeID{decl})
	root := buildProgram(a, []ast.NodeID{fn})

	b := NewBuilder(a, pool, nil)
	m := b.BuildProgram(root)

	if len(m.Funcs) != 1 {
		t.Fatalf("expected 1 function, got %d", len(m.Funcs))
	}
	vds := m.Funcs[0].VarDecls
	if len(vds) != 1 {
		t.Fatalf("expected 1 var decl, got %d", len(vds))
	}
	initVal := m.Value(vds[0].Init)
	if initVal.Op != OpConst {
		t.Fatalf("expected var decl init to lower to a const, got op %v", initVal.Op)
	}

	body := m.Block(m.Funcs[0].Body)
	foundInit := false
	for _, vid := range body.Values {
		if m.Value(vid).Op == OpVarInit {
			foundInit = true
		}
	}
	if !foundInit {
		t.Fatalf("expected body block to contain an OpVarInit for the initializer")
	}
}

func TestBuildProgramResolvesDirectCallee(t *testing.T) {
	a := ast.NewArena()
	pool := typepool.NewPool()

	calleeFn := newFnDecl(a, pool, "helper", nil)

	calleeIdent := a.New(ast.Node{Kind: ast.KIdent, Name: "helper", Type: pool.BuiltinID(typepool.Unit)})
	call := a.New(ast.Node{Kind: ast.KCall, A: calleeIdent, Type: pool.BuiltinID(typepool.Unit)})
	callStmt := a.New(ast.Node{Kind: ast.KExprStmt, A: call})
	callerFn := newFnDecl(a, pool, "caller", []ast.NodeID{callStmt})

	root := buildProgram(a, []ast.NodeID{calleeFn, callerFn})

	table := &resolve.Table{
		Resolved:  make(map[ast.NodeID]resolve.ResolvedSymbol),
		Namespace: make(map[string]ast.NodeID),
		Aliases:   make(map[string]string),
	}
	table.Resolved[calleeIdent] = resolve.ResolvedSymbol{Kind: resolve.BindFn, ID: int32(calleeFn)}

	b := NewBuilder(a, pool, table)
	m := b.BuildProgram(root)

	var callValue Value
	found := false
	for i := 0; i < m.ValueCount(); i++ {
		v := m.Value(ValueID(i))
		if v.Op == OpCall {
			callValue = v
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a lowered OpCall value")
	}
	if callValue.DirectCallee < 0 {
		t.Fatalf("expected direct callee to resolve, got unresolved (-1)")
	}
	if m.Funcs[callValue.DirectCallee].Name != m.Funcs[0].Name {
		t.Fatalf("direct callee did not point at the registered helper function")
	}
}

func TestCanonicalizeCollapsesRedundantCastPair(t *testing.T) {
	m := NewModule()
	i64 := typepool.TypeID(1)

	base := m.newValue(Value{Op: OpConst, Type: i64})
	inner := m.newValue(Value{Op: OpCast, A: base, Type: i64})
	outer := m.newValue(Value{Op: OpCast, A: inner, Type: i64})

	Canonicalize(m)

	if m.RewrittenValues != 1 {
		t.Fatalf("expected exactly one rewrite, got %d", m.RewrittenValues)
	}
	if m.Value(outer).A != base {
		t.Fatalf("expected outer cast to now point directly at base, got %d", m.Value(outer).A)
	}
}

func TestVerifyCatchesOutOfRangeOperand(t *testing.T) {
	m := NewModule()
	blk := m.newBlock()
	bogus := ValueID(99)
	v := m.newValue(Value{Op: OpUnary, A: bogus})
	m.appendToBlock(blk, v)
	m.Funcs = append(m.Funcs, Func{Name: "f", Body: blk})

	errs := Verify(m)
	if len(errs) == 0 {
		t.Fatalf("expected verifier to flag the out-of-range operand")
	}
}

func TestVerifyAcceptsWellFormedModule(t *testing.T) {
	m := NewModule()
	blk := m.newBlock()
	c := m.newValue(Value{Op: OpConst})
	m.appendToBlock(blk, c)
	m.Funcs = append(m.Funcs, Func{Name: "f", Body: blk})

	if errs := Verify(m); len(errs) != 0 {
		t.Fatalf("expected no verifier errors, got %v", errs)
	}
}
