package sir

import (
	"github.com/GungYe918/parus-sub001/src/ast"
	"github.com/GungYe918/parus-sub001/src/resolve"
	"github.com/GungYe918/parus-sub001/src/typepool"
)

// Builder lowers a type-checked, resolved AST into an SIR Module.
type Builder struct {
	A        *ast.Arena
	Pool     *typepool.Pool
	Resolved *resolve.Table
	Module   *Module

	// declNodeToFunc maps an ast.NodeID (KFnDecl) to its index in
	// Module.Funcs, for direct-callee resolution.
	declNodeToFunc map[ast.NodeID]int32
	curBlock       BlockID
	localSym       map[string]int32
	nextLocalSym   int32
	curFunc        int32 // index into Module.Funcs being lowered, -1 outside any

	// globalSym/nextGlobalSym number top-level `static` declarations in a
	// space disjoint from every function's locals (which each reset to 0),
	// so a symbol id alone tells capability analysis and OIR whether a
	// place is rooted in a global without consulting the AST.
	globalSym     map[string]int32
	nextGlobalSym int32
}

// globalSymBase is the first id handed to a top-level `static` declaration;
// no real function nests anywhere near this many locals, so local and
// global symbol spaces never collide.
const globalSymBase int32 = 1 << 20

// NewBuilder constructs a Builder over arena a and resolved symbol table
// resolved (may be nil for context-free single-expression lowering).
func NewBuilder(a *ast.Arena, pool *typepool.Pool, resolved *resolve.Table) *Builder {
	return &Builder{
		A: a, Pool: pool, Resolved: resolved, Module: NewModule(),
		declNodeToFunc: make(map[ast.NodeID]int32),
		localSym:       make(map[string]int32),
		globalSym:      make(map[string]int32),
		nextGlobalSym:  globalSymBase,
		curFunc:        -1,
	}
}

// BuildProgram lowers every top-level KFnDecl under root into one SIR
// function each, in source order (a prepass registers every declaration
// before any body is lowered, so forward calls resolve to direct callees).
// Top-level `static` var decls are lowered first, into Module.Init, so a
// function body referencing a global sees it already registered.
func (b *Builder) BuildProgram(root ast.NodeID) *Module {
	rootNode := b.A.Get(root)
	kids := b.A.Children(rootNode.ChildrenBegin, rootNode.ChildrenCnt)
	b.registerFnDecls(kids)
	b.registerFieldDecls(kids)

	b.Module.Init = b.Module.newBlock()
	prevBlock := b.curBlock
	b.curBlock = b.Module.Init
	for _, k := range kids {
		n := b.A.Get(k)
		if n.Kind == ast.KVarDecl {
			b.lowerGlobalVarDecl(k, n)
		}
	}
	b.curBlock = prevBlock

	for _, k := range kids {
		n := b.A.Get(k)
		if n.Kind == ast.KFnDecl {
			b.lowerFnDecl(k, n)
		}
	}
	return b.Module
}

func (b *Builder) declareGlobal(name string) int32 {
	id := b.nextGlobalSym
	b.nextGlobalSym++
	b.globalSym[name] = id
	return id
}

// lowerGlobalVarDecl lowers one top-level `static` declaration: registers
// its symbol in the global numbering space, records a GlobalDecl entry, and
// (if present) emits its initializer's OpVarInit into Module.Init.
func (b *Builder) lowerGlobalVarDecl(id ast.NodeID, n ast.Node) {
	sym := b.declareGlobal(n.Name)
	isMut := n.Aux&4 != 0
	b.Module.Globals = append(b.Module.Globals, GlobalDecl{
		Sym: sym, Name: n.Name, Type: n.Type, IsMut: isMut, DeclaredType: n.Type,
	})
	if n.A != ast.NoNode {
		init := b.coerce(b.lowerExpr(n.A), n.Type)
		b.emit(Value{Op: OpVarInit, Aux: int(sym), A: init, Type: n.Type})
	}
}

func (b *Builder) registerFnDecls(kids []ast.NodeID) {
	for _, k := range kids {
		n := b.A.Get(k)
		if n.Kind != ast.KFnDecl {
			continue
		}
		cabi := hasAttr(b.A, n, "extern")
		var paramTypes []typepool.TypeID
		for _, pm := range b.A.Params(n.ParamsBegin, n.ParamsCount) {
			paramTypes = append(paramTypes, pm.Type)
		}
		name := n.Name
		if !cabi {
			name = mangleName("main", "", n.Name, "fn", "", paramTypes, b.Pool)
		}
		idx := int32(len(b.Module.Funcs))
		b.Module.Funcs = append(b.Module.Funcs, Func{
			Name: name, CABI: cabi, ParamTypes: paramTypes, RetType: n.Type,
			IsPure: hasAttr(b.A, n, "pure"), IsComptime: hasAttr(b.A, n, "comptime"),
		})
		b.declNodeToFunc[k] = idx
	}
}

// registerFieldDecls interns one TypeID per top-level `field` declaration
// and records its member list, so the OIR builder can compute member
// offsets from SIR alone (see FieldDecl).
func (b *Builder) registerFieldDecls(kids []ast.NodeID) {
	for _, k := range kids {
		n := b.A.Get(k)
		if n.Kind != ast.KFieldDecl {
			continue
		}
		ty := b.Pool.MakeNamedUserPath([]string{n.Name}, nil)
		var members []FieldMemberInfo
		for _, fm := range b.A.Fields(n.ParamsBegin, n.ParamsCount) {
			members = append(members, FieldMemberInfo{Name: fm.Name, Type: fm.Type})
		}
		b.Module.FieldDecls = append(b.Module.FieldDecls, FieldDecl{Type: ty, Name: n.Name, Members: members})
	}
}

func hasAttr(a *ast.Arena, n ast.Node, name string) bool {
	for _, at := range a.Attrs(n.AttrsBegin, n.AttrsCount) {
		if at == name {
			return true
		}
	}
	return false
}

func (b *Builder) lowerFnDecl(declID ast.NodeID, n ast.Node) {
	idx := b.declNodeToFunc[declID]
	prevLocal, prevNext := b.localSym, b.nextLocalSym
	b.localSym = make(map[string]int32)
	b.nextLocalSym = 0
	prevFunc := b.curFunc
	b.curFunc = idx

	var params []ParamInfo
	for _, pm := range b.A.Params(n.ParamsBegin, n.ParamsCount) {
		sym := b.declareLocal(pm.Name)
		params = append(params, ParamInfo{Sym: sym, Name: pm.Name, Type: pm.Type, IsMut: pm.IsMut})
	}

	body := b.lowerBlock(n.B)
	fn := b.Module.Funcs[idx]
	fn.Body = body
	fn.Params = params
	b.Module.Funcs[idx] = fn

	b.localSym, b.nextLocalSym = prevLocal, prevNext
	b.curFunc = prevFunc
}

func (b *Builder) declareLocal(name string) int32 {
	id := b.nextLocalSym
	b.nextLocalSym++
	b.localSym[name] = id
	return id
}

// lowerBlock lowers a KBlockStmt into a fresh SIR block, returning its id.
func (b *Builder) lowerBlock(id ast.NodeID) BlockID {
	blk := b.Module.newBlock()
	if id == ast.NoNode {
		return blk
	}
	n := b.A.Get(id)
	prevBlock := b.curBlock
	b.curBlock = blk
	for _, k := range b.A.Children(n.ChildrenBegin, n.ChildrenCnt) {
		b.lowerStmt(k)
	}
	if n.B != ast.NoNode {
		b.lowerExpr(n.B)
	}
	b.curBlock = prevBlock
	return blk
}

func (b *Builder) emit(v Value) ValueID {
	id := b.Module.newValue(v)
	b.Module.appendToBlock(b.curBlock, id)
	return id
}

func (b *Builder) lowerStmt(id ast.NodeID) {
	if id == ast.NoNode {
		return
	}
	n := b.A.Get(id)
	switch n.Kind {
	case ast.KExprStmt:
		b.lowerExpr(n.A)
	case ast.KVarDecl:
		b.lowerVarDecl(id, n)
	case ast.KWhileStmt:
		cond := b.lowerExpr(n.A)
		body := b.lowerBlock(n.B)
		b.emit(Value{Op: OpWhile, A: cond, Blocks: []BlockID{body}, Type: b.Pool.BuiltinID(typepool.Unit)})
	case ast.KDoWhileStmt:
		body := b.lowerBlock(n.A)
		cond := b.lowerExpr(n.B)
		b.emit(Value{Op: OpDoWhile, A: cond, Blocks: []BlockID{body}, Type: b.Pool.BuiltinID(typepool.Unit)})
	case ast.KDoScopeStmt, ast.KManualStmt:
		b.lowerBlock(n.A)
	case ast.KSwitchStmt:
		scrut := b.lowerExpr(n.A)
		var caseBlocks []BlockID
		var patterns []ValueID
		var isDefault []bool
		for _, cs := range b.A.Cases(n.CasesBegin, n.CasesCount) {
			var pat ValueID
			if !cs.IsDefault {
				pat = b.lowerExpr(cs.Pattern)
			}
			patterns = append(patterns, pat)
			isDefault = append(isDefault, cs.IsDefault)
			caseBlocks = append(caseBlocks, b.lowerBlock(cs.Body))
		}
		b.emit(Value{Op: OpSwitch, A: scrut, Blocks: caseBlocks, CasePatterns: patterns, CaseIsDefault: isDefault, Type: b.Pool.BuiltinID(typepool.Unit)})
	case ast.KReturnStmt:
		v := b.lowerExpr(n.A)
		b.emit(Value{Op: OpReturn, A: v})
	case ast.KBreakStmt:
		v := b.lowerExpr(n.A)
		b.emit(Value{Op: OpBreak, A: v})
	case ast.KBlockStmt:
		blk := b.lowerBlock(id)
		b.emit(Value{Op: OpBlock, Blocks: []BlockID{blk}})
	case ast.KFnDecl, ast.KFieldDecl, ast.KActsDecl, ast.KNestDecl, ast.KEmptyStmt, ast.KContinueStmt:
		// nested declarations/no-ops: not lowered at statement granularity
	}
}

func (b *Builder) lowerVarDecl(id ast.NodeID, n ast.Node) {
	sym := b.declareLocal(n.Name)
	var init ValueID
	hasInit := n.A != ast.NoNode
	if hasInit {
		init = b.coerce(b.lowerExpr(n.A), n.Type)
	}
	vd := VarDecl{
		Sym: sym, IsSet: n.Aux&1 != 0, IsMut: n.Aux&4 != 0, IsStatic: n.Aux&2 != 0,
		DeclaredType: n.Type, Init: init,
	}
	// VarDecls are recorded against whichever function is currently being
	// lowered; top-level/global decls (outside any fn body) are dropped
	// at this layer and handled by OIR's direct-address globals path.
	if b.curFunc >= 0 {
		b.Module.Funcs[b.curFunc].VarDecls = append(b.Module.Funcs[b.curFunc].VarDecls, vd)
	}
	if hasInit {
		b.emit(Value{Op: OpVarInit, Aux: int(sym), A: init, Type: n.Type})
	}
}

// coerce inserts the optional/null coercion spec.md section 4.7 requires
// at every value boundary: assignment, call argument, return, field init.
func (b *Builder) coerce(v ValueID, dst typepool.TypeID) ValueID {
	if !b.Pool.IsValid(dst) {
		return v
	}
	srcVal := b.Module.Value(v)
	dstT := b.Pool.Get(dst)
	if dstT.Kind != typepool.KindOptional {
		return v
	}
	if srcVal.Op == OpConstNull {
		return v
	}
	if srcVal.Type == dst {
		return v
	}
	return b.emit(Value{Op: OpCast, A: v, Type: dst})
}

func (b *Builder) lowerExpr(id ast.NodeID) ValueID {
	if id == ast.NoNode {
		return b.emit(Value{Op: OpConst, Type: b.Pool.BuiltinID(typepool.Unit)})
	}
	n := b.A.Get(id)
	switch n.Kind {
	case ast.KIntLit, ast.KFloatLit, ast.KStringLit, ast.KCharLit, ast.KBoolLit:
		return b.emit(Value{Op: OpConst, Lit: n.Lit, Type: n.Type})
	case ast.KNullLit:
		return b.emit(Value{Op: OpConstNull, Type: n.Type})
	case ast.KIdent:
		sym, ok := b.localSym[n.Name]
		if !ok {
			if gsym, gok := b.globalSym[n.Name]; gok {
				sym = gsym
				ok = true
			}
		}
		if !ok {
			sym = -1
		}
		return b.emit(Value{Op: OpIdent, Aux: int(sym), Name: n.Name, Type: n.Type})
	case ast.KBorrow:
		place := b.lowerExpr(n.A)
		return b.emit(Value{Op: OpBorrow, A: place, Aux: n.Aux, Type: n.Type})
	case ast.KEscape:
		place := b.lowerExpr(n.A)
		return b.emit(Value{Op: OpEscape, A: place, Type: n.Type})
	case ast.KUnary:
		v := b.lowerExpr(n.A)
		return b.emit(Value{Op: OpUnary, A: v, Aux: n.Aux, Type: n.Type})
	case ast.KBinary:
		l := b.lowerExpr(n.A)
		r := b.lowerExpr(n.B)
		return b.emit(Value{Op: OpBinary, A: l, B: r, Aux: n.Aux, Type: n.Type})
	case ast.KAssign:
		l := b.lowerExpr(n.A)
		r := b.coerce(b.lowerExpr(n.B), n.Type)
		return b.emit(Value{Op: OpAssign, A: l, B: r, Type: n.Type})
	case ast.KCall:
		return b.lowerCall(id, n)
	case ast.KIndex:
		v := b.lowerExpr(n.A)
		ix := b.lowerExpr(n.B)
		return b.emit(Value{Op: OpIndex, A: v, B: ix, Type: n.Type})
	case ast.KField:
		v := b.lowerExpr(n.A)
		return b.emit(Value{Op: OpField, A: v, Name: n.Name, Type: n.Type})
	case ast.KCast:
		v := b.lowerExpr(n.A)
		return b.emit(Value{Op: OpCast, A: v, Aux: n.Aux, Type: n.Type})
	case ast.KIfExpr, ast.KTernary:
		cond := b.lowerExpr(n.A)
		thenBlk := b.lowerExprAsBlock(n.B)
		var blocks []BlockID
		blocks = append(blocks, thenBlk)
		if n.C != ast.NoNode {
			blocks = append(blocks, b.lowerExprAsBlock(n.C))
		}
		return b.emit(Value{Op: OpIf, A: cond, Blocks: blocks, Type: n.Type})
	case ast.KBlockStmt:
		blk := b.lowerBlock(id)
		return b.emit(Value{Op: OpBlock, Blocks: []BlockID{blk}, Type: n.Type})
	case ast.KLoopExpr:
		iter := b.lowerExpr(n.LoopIter)
		body := b.lowerBlock(n.LoopBody)
		return b.emit(Value{Op: OpLoop, A: iter, Blocks: []BlockID{body}, Type: n.Type})
	default:
		return b.emit(Value{Op: OpConst, Type: n.Type})
	}
}

// lowerExprAsBlock wraps a single expression in its own SIR block so if/
// loop arms have a uniform Blocks shape regardless of whether their source
// form was already a block expression.
func (b *Builder) lowerExprAsBlock(id ast.NodeID) BlockID {
	if id == ast.NoNode {
		return b.Module.newBlock()
	}
	if b.A.Get(id).Kind == ast.KBlockStmt {
		return b.lowerBlock(id)
	}
	blk := b.Module.newBlock()
	prev := b.curBlock
	b.curBlock = blk
	b.lowerExpr(id)
	b.curBlock = prev
	return blk
}

// lowerCall resolves the direct-callee index by decl-id first (via the
// resolver's table, when the callee is a plain identifier bound to a
// KFnDecl), falling back to -1 (indirect call by value) otherwise.
func (b *Builder) lowerCall(id ast.NodeID, n ast.Node) ValueID {
	direct := int32(-1)
	if calleeNode := b.A.Get(n.A); calleeNode.Kind == ast.KIdent && b.Resolved != nil {
		if sym, ok := b.Resolved.Resolved[n.A]; ok && sym.Kind == resolve.BindFn {
			if idx, ok := b.declNodeToFunc[ast.NodeID(sym.ID)]; ok {
				direct = idx
			}
		}
	}
	callee := b.lowerExpr(n.A)
	var argVals []ValueID
	for _, arg := range b.A.Args(n.ArgsBegin, n.ArgsCount) {
		argVals = append(argVals, b.lowerExpr(arg.Value))
	}
	begin, count := b.Module.PushCallArgs(argVals)
	return b.emit(Value{
		Op: OpCall, A: callee, Type: n.Type, DirectCallee: direct,
		ArgsBegin: begin, ArgsCount: count,
	})
}
