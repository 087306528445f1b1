package oir

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/GungYe918/parus-sub001/src/capability"
	"github.com/GungYe918/parus-sub001/src/sir"
	"github.com/GungYe918/parus-sub001/src/typepool"
)

// Build lowers a capability-checked SIR module into an OIR module. It first
// checks spec.md section 4.9's three-part gate — a clean SIR verify, a
// clean capability analysis, and every escape handle's MaterializeCount
// equal to 0 — before constructing a single block or value; when the gate
// fails it returns a Module with GatePassed false and GateError set, Funcs
// left empty, the same "refuse to build on a bad unit" posture the
// teacher's ir/lir package takes toward a malformed AST.
//
// Independent functions lower concurrently via errgroup, mirroring
// capability.Analyze's per-unit worker pool; every mutation of the shared
// Module arena goes through its mutex-guarded methods.
func Build(sm *sir.Module, pool *typepool.Pool, sirClean bool, caps capability.Results) *Module {
	m := &Module{}
	if !sirClean {
		m.GateError = "oir gate: sir module failed verification"
		return m
	}
	if !caps.OK() {
		m.GateError = "oir gate: capability analysis reported errors"
		return m
	}
	for _, h := range caps.AllEscapeHandles() {
		if h.MaterializeCount != 0 {
			m.GateError = "oir gate: materialize_count must be 0"
			return m
		}
	}
	m.GatePassed = true
	for _, h := range caps.AllEscapeHandles() {
		m.EscapeHints = append(m.EscapeHints, EscapeHint{Type: h.PointeeType, Kind: h.Kind, Boundary: h.Boundary, HasDrop: h.HasDrop})
	}

	ub :=&unitBuilder{sm: sm, pool: pool, m: m, globals: make(map[int32]ValueID)}
	ub.buildGlobals()
	ub.buildFieldLayouts()
	ub.registerFuncs()

	g, _ := errgroup.WithContext(context.Background())
	for i := range sm.Funcs {
		i := i
		g.Go(func() error {
			ub.buildFunc(i)
			return nil
		})
	}
	_ = g.Wait()

	m.Stats = Stats{FunctionCount: len(m.Funcs), BlockCount: m.BlockCount(), InstCount: ub.instCount()}
	return m
}

// unitBuilder holds the state every per-function funcBuilder shares:
// read-only after the sequential buildGlobals/registerFuncs prepass, so
// concurrent buildFunc calls need no lock of their own beyond the Module's.
type unitBuilder struct {
	sm      *sir.Module
	pool    *typepool.Pool
	m       *Module
	globals map[int32]ValueID // sir global symbol -> its OpGlobalRef address value
}

func (ub *unitBuilder) buildGlobals() {
	for _, g := range ub.sm.Globals {
		id := ub.m.NewValue(Value{Op: OpGlobalRef, Type: g.Type, Name: g.Name})
		ub.globals[g.Sym] = id
		ub.m.Globals = append(ub.m.Globals, GlobalDecl{Name: g.Name, Type: g.Type, IsMut: g.IsMut, Ref: id})
	}
}

func (ub *unitBuilder) buildFieldLayouts() {
	for _, fd := range ub.sm.FieldDecls {
		ub.m.FieldLayouts = append(ub.m.FieldLayouts, layoutOf(fd, ub.pool))
	}
}

// registerFuncs pre-sizes Module.Funcs so concurrent buildFunc calls can
// write their own index directly instead of racing on append.
func (ub *unitBuilder) registerFuncs() {
	ub.m.Funcs = make([]Func, len(ub.sm.Funcs))
}

func (ub *unitBuilder) instCount() int {
	n := 0
	for i := 0; i < ub.m.BlockCount(); i++ {
		n += len(ub.m.Block(BlockID(i)).Insts)
	}
	return n
}

func (ub *unitBuilder) buildFunc(i int) {
	sfn := ub.sm.Funcs[i]
	fb := &funcBuilder{
		ub:       ub,
		sfn:      &sfn,
		varDecls: make(map[int32]sir.VarDecl),
		bindings: make(map[int32]binding),
	}
	for _, vd := range sfn.VarDecls {
		fb.varDecls[vd.Sym] = vd
	}

	entry := fb.newBlock(sfn.ParamTypes)
	fb.cur = entry
	entryBlk := ub.m.Block(entry)
	for pi, p := range sfn.Params {
		paramVal := entryBlk.Params[pi]
		if p.IsMut {
			alloca := fb.emit(Value{Op: OpAllocaLocal, Type: p.Type, Name: p.Name})
			fb.emit(Value{Op: OpStore, A: alloca, B: paramVal, Type: p.Type})
			fb.bindings[p.Sym] = binding{isSlot: true, value: alloca, ty: p.Type}
		} else {
			fb.bindings[p.Sym] = binding{isSlot: false, value: paramVal, ty: p.Type}
		}
	}

	fb.lowerBlockBody(sfn.Body, ub.pool.BuiltinID(typepool.Unit))

	if ub.m.Block(fb.cur).Term.Kind == TermNone {
		retVal := fb.unit(sfn.RetType)
		fb.finish(Terminator{Kind: TermRet, HasValue: true, Value: retVal})
	}

	ub.m.Funcs[i] = Func{
		Name: sfn.Name, SourceName: sfn.Name, CABI: sfn.CABI, IsPure: sfn.IsPure,
		ParamTypes: sfn.ParamTypes, RetType: sfn.RetType, Entry: entry, Blocks: fb.allBlocks,
	}
}

// binding is one local symbol's current OIR representation: either a slot
// (an AllocaLocal address, read via Load and written via Store — every
// mutable local and mutable parameter gets one) or a direct SSA value
// (every immutable local and immutable parameter).
type binding struct {
	isSlot bool
	value  ValueID
	ty     typepool.TypeID
}

type scopeUndo struct {
	sym  int32
	had  bool
	prev binding
}

// breakTarget is the innermost enclosing while/do-while/switch/loop's exit
// block; hasValue is true only for `loop`, the one construct spec.md
// section 4.7 lets a break value escape through (Scenario D).
type breakTarget struct {
	exit     BlockID
	hasValue bool
}

// funcBuilder flattens one SIR function body into basic blocks. It is not
// shared across goroutines: each buildFunc call gets its own.
type funcBuilder struct {
	ub  *unitBuilder
	sfn *sir.Func
	cur BlockID

	allBlocks []BlockID

	varDecls map[int32]sir.VarDecl
	bindings map[int32]binding

	scopeStack [][]scopeUndo
	breakStack []breakTarget
}

func (fb *funcBuilder) sm() *sir.Module { return fb.ub.sm }

func (fb *funcBuilder) newBlock(paramTypes []typepool.TypeID) BlockID {
	id := fb.ub.m.NewBlock(paramTypes)
	fb.allBlocks = append(fb.allBlocks, id)
	return id
}

// deadBlock creates a fresh unreachable block to route statements that
// follow a return/break (spec.md section 4.9 requires every block to end
// in exactly one terminator; trailing dead code after one of these gets
// routed here instead of special-cased away).
func (fb *funcBuilder) deadBlock() BlockID {
	id := fb.newBlock(nil)
	fb.ub.m.SetTerm(id, Terminator{Kind: TermUnreachable})
	return id
}

func (fb *funcBuilder) emit(v Value) ValueID {
	id := fb.ub.m.NewValue(v)
	fb.ub.m.AppendInst(fb.cur, id)
	return id
}

func (fb *funcBuilder) finish(t Terminator) {
	fb.ub.m.SetTerm(fb.cur, t)
}

func (fb *funcBuilder) unitType() typepool.TypeID { return fb.ub.pool.BuiltinID(typepool.Unit) }

func (fb *funcBuilder) isUnitType(ty typepool.TypeID) bool {
	t := fb.ub.pool.Get(ty)
	return t.Kind == typepool.KindBuiltin && t.Builtin == typepool.Unit
}

func (fb *funcBuilder) constOpFor(ty typepool.TypeID) OpKind {
	t := fb.ub.pool.Get(ty)
	if t.Kind == typepool.KindBuiltin {
		switch {
		case t.Builtin == typepool.Bool:
			return OpConstBool
		case t.Builtin.IsFloat():
			return OpConstFloat
		case t.Builtin.IsInt() || t.Builtin == typepool.InferInteger:
			return OpConstInt
		}
	}
	return OpConstText
}

// unit synthesizes a zero-ish placeholder value of type ty, used wherever a
// statement-shaped SIR construct (var-init, while, break, return, ...) must
// still produce a ValueID for lowerValue's uniform signature.
func (fb *funcBuilder) unit(ty typepool.TypeID) ValueID {
	return fb.emit(Value{Op: fb.constOpFor(ty), Type: ty})
}

func (fb *funcBuilder) pushScope() {
	fb.scopeStack = append(fb.scopeStack, nil)
}

func (fb *funcBuilder) popScope() {
	top := len(fb.scopeStack) - 1
	undo := fb.scopeStack[top]
	fb.scopeStack = fb.scopeStack[:top]
	for i := len(undo) - 1; i >= 0; i-- {
		u := undo[i]
		if u.had {
			fb.bindings[u.sym] = u.prev
		} else {
			delete(fb.bindings, u.sym)
		}
	}
}

func (fb *funcBuilder) bind(sym int32, bd binding) {
	if len(fb.scopeStack) > 0 {
		top := len(fb.scopeStack) - 1
		prev, had := fb.bindings[sym]
		fb.scopeStack[top] = append(fb.scopeStack[top], scopeUndo{sym: sym, had: had, prev: prev})
	}
	fb.bindings[sym] = bd
}

func (fb *funcBuilder) readSymbol(sym int32, ty typepool.TypeID) ValueID {
	if sym < 0 {
		return fb.unit(ty)
	}
	if bd, ok := fb.bindings[sym]; ok {
		if bd.isSlot {
			return fb.emit(Value{Op: OpLoad, A: bd.value, Type: ty})
		}
		return bd.value
	}
	if addr, ok := fb.ub.globals[sym]; ok {
		return fb.emit(Value{Op: OpLoad, A: addr, Type: ty})
	}
	return fb.unit(ty)
}

func (fb *funcBuilder) storeSymbol(sym int32, val ValueID, ty typepool.TypeID) {
	if bd, ok := fb.bindings[sym]; ok {
		if bd.isSlot {
			fb.emit(Value{Op: OpStore, A: bd.value, B: val, Type: ty})
		} else {
			fb.bindings[sym] = binding{isSlot: false, value: val, ty: ty}
		}
		return
	}
	if addr, ok := fb.ub.globals[sym]; ok {
		fb.emit(Value{Op: OpStore, A: addr, B: val, Type: ty})
	}
}

// lowerBlockBody lowers every value of a structured SIR block in order,
// returning the lowered value of its last entry when tailType is not Unit
// (the block is used in expression position — an if/loop arm, or a bare
// `{...}` tail), and a placeholder otherwise.
func (fb *funcBuilder) lowerBlockBody(id sir.BlockID, tailType typepool.TypeID) ValueID {
	fb.pushScope()
	defer fb.popScope()
	blk := fb.sm().Block(id)
	var last ValueID
	hasLast := false
	for _, vid := range blk.Values {
		last = fb.lowerValue(vid)
		hasLast = true
	}
	if fb.isUnitType(tailType) || !hasLast {
		return fb.unit(tailType)
	}
	return last
}

// lowerValue recursively lowers one SIR value, dispatching control-flow
// shapes (if/while/do-while/switch/loop/break/return/block) to their own
// basic-block-flattening methods and everything else to a direct OIR
// instruction of the matching shape.
func (fb *funcBuilder) lowerValue(id sir.ValueID) ValueID {
	v := fb.sm().Value(id)
	switch v.Op {
	case sir.OpConst:
		return fb.emit(Value{Op: fb.constOpFor(v.Type), Type: v.Type, Lit: v.Lit})
	case sir.OpConstNull:
		return fb.emit(Value{Op: OpConstNull, Type: v.Type})
	case sir.OpIdent:
		return fb.readSymbol(int32(v.Aux), v.Type)
	case sir.OpUnary:
		a := fb.lowerValue(v.A)
		return fb.emit(Value{Op: OpUnary, A: a, Aux: v.Aux, Type: v.Type})
	case sir.OpBinary:
		a := fb.lowerValue(v.A)
		b := fb.lowerValue(v.B)
		return fb.emit(Value{Op: OpBinOp, A: a, B: b, Aux: v.Aux, Type: v.Type})
	case sir.OpAssign:
		return fb.lowerAssign(v)
	case sir.OpVarInit:
		fb.lowerVarInit(v)
		return fb.unit(v.Type)
	case sir.OpCall:
		return fb.lowerCall(v)
	case sir.OpIndex:
		a := fb.lowerValue(v.A)
		b := fb.lowerValue(v.B)
		return fb.emit(Value{Op: OpIndex, A: a, B: b, Type: v.Type})
	case sir.OpField:
		a := fb.lowerValue(v.A)
		return fb.emit(Value{Op: OpField, A: a, Name: v.Name, Type: v.Type})
	case sir.OpBorrow, sir.OpEscape:
		return fb.lowerPlaceAddress(v.A)
	case sir.OpCast:
		a := fb.lowerValue(v.A)
		return fb.emit(Value{Op: OpCast, A: a, Aux: v.Aux, Type: v.Type})
	case sir.OpIf:
		return fb.lowerIf(v)
	case sir.OpWhile:
		fb.lowerWhile(v, false)
		return fb.unit(v.Type)
	case sir.OpDoWhile:
		fb.lowerWhile(v, true)
		return fb.unit(v.Type)
	case sir.OpSwitch:
		return fb.lowerSwitch(v)
	case sir.OpLoop:
		return fb.lowerLoop(v)
	case sir.OpBreak:
		fb.lowerBreak(v)
		return fb.unit(v.Type)
	case sir.OpReturn:
		fb.lowerReturn(v)
		return fb.unit(v.Type)
	case sir.OpBlock:
		if len(v.Blocks) == 0 {
			return fb.unit(v.Type)
		}
		return fb.lowerBlockBody(v.Blocks[0], v.Type)
	default:
		return fb.unit(v.Type)
	}
}

func (fb *funcBuilder) lowerVarInit(v sir.Value) {
	sym := int32(v.Aux)
	val := fb.lowerValue(v.A)
	if vd, ok := fb.varDecls[sym]; ok && vd.IsMut {
		alloca := fb.emit(Value{Op: OpAllocaLocal, Type: vd.DeclaredType})
		fb.emit(Value{Op: OpStore, A: alloca, B: val, Type: vd.DeclaredType})
		fb.bind(sym, binding{isSlot: true, value: alloca, ty: vd.DeclaredType})
		return
	}
	fb.bind(sym, binding{isSlot: false, value: val, ty: v.Type})
}

// lowerAssign dispatches on the SIR shape of the assignment target: a bare
// identifier stores through its binding, an Index/Field target stores
// through the new OpIndexStore/OpFieldStore place-assignment instructions.
func (fb *funcBuilder) lowerAssign(v sir.Value) ValueID {
	lhs := fb.sm().Value(v.A)
	rhs := fb.lowerValue(v.B)
	switch lhs.Op {
	case sir.OpIdent:
		fb.storeSymbol(int32(lhs.Aux), rhs, lhs.Type)
	case sir.OpIndex:
		base := fb.lowerValue(lhs.A)
		idx := fb.lowerValue(lhs.B)
		fb.emit(Value{Op: OpIndexStore, A: base, B: idx, C: rhs, Type: lhs.Type})
	case sir.OpField:
		base := fb.lowerValue(lhs.A)
		fb.emit(Value{Op: OpFieldStore, A: base, B: rhs, Name: lhs.Name, Type: lhs.Type})
	default:
		fb.lowerValue(v.A)
	}
	return rhs
}

// lowerPlaceAddress lowers a borrow/escape operand to the address of the
// place it names rather than its loaded value: capability analysis has
// already verified every aliasing rule by this point, so OIR only needs a
// pointer-shaped value for the emitter to hand across the ABI boundary.
func (fb *funcBuilder) lowerPlaceAddress(id sir.ValueID) ValueID {
	v := fb.sm().Value(id)
	switch v.Op {
	case sir.OpIdent:
		sym := int32(v.Aux)
		if bd, ok := fb.bindings[sym]; ok {
			if bd.isSlot {
				return bd.value
			}
			alloca := fb.emit(Value{Op: OpAllocaLocal, Type: v.Type})
			fb.emit(Value{Op: OpStore, A: alloca, B: bd.value, Type: v.Type})
			return alloca
		}
		if addr, ok := fb.ub.globals[sym]; ok {
			return addr
		}
		return fb.unit(v.Type)
	case sir.OpIndex:
		base := fb.lowerPlaceAddress(v.A)
		idx := fb.lowerValue(v.B)
		return fb.emit(Value{Op: OpIndex, A: base, B: idx, Type: v.Type})
	case sir.OpField:
		base := fb.lowerPlaceAddress(v.A)
		return fb.emit(Value{Op: OpField, A: base, Name: v.Name, Type: v.Type})
	default:
		return fb.lowerValue(id)
	}
}

func (fb *funcBuilder) lowerCall(v sir.Value) ValueID {
	sirArgs := fb.sm().CallArgs(v.ArgsBegin, v.ArgsCount)
	loweredArgs := make([]ValueID, len(sirArgs))
	for i, a := range sirArgs {
		loweredArgs[i] = fb.lowerValue(a)
	}
	begin, count := fb.ub.m.PushCallArgs(loweredArgs)
	direct := v.DirectCallee
	if direct < 0 {
		// Indirect callee: still lower the callee expression for any side
		// effects/diagnostics it carries, even though the emitter targets a
		// call stub rather than resolving it (see llvmemit's unresolved-call
		// handling).
		fb.lowerValue(v.A)
	}
	return fb.emit(Value{Op: OpCall, DirectCallee: direct, ArgsBegin: begin, ArgsCount: count, Type: v.Type})
}

// lowerIf flattens an if/ternary into then_bb/[else_bb]/join_bb per
// spec.md section 4.9: join_bb takes one block parameter when the
// if-expression produces a value (statement-form ifs type Unit and take
// none).
func (fb *funcBuilder) lowerIf(v sir.Value) ValueID {
	cond := fb.lowerValue(v.A)
	hasValue := !fb.isUnitType(v.Type)
	var joinParams []typepool.TypeID
	if hasValue {
		joinParams = []typepool.TypeID{v.Type}
	}

	thenBB := fb.newBlock(nil)
	joinBB := fb.newBlock(joinParams)
	hasElse := len(v.Blocks) > 1
	elseTarget := joinBB
	var elseBB BlockID
	if hasElse {
		elseBB = fb.newBlock(nil)
		elseTarget = elseBB
	}
	fb.finish(Terminator{Kind: TermCondBr, Cond: cond, Then: thenBB, Else: elseTarget})

	fb.cur = thenBB
	thenVal := fb.lowerBlockBody(v.Blocks[0], v.Type)
	var thenArgs []ValueID
	if hasValue {
		thenArgs = []ValueID{thenVal}
	}
	fb.finish(Terminator{Kind: TermBr, Target: joinBB, TargetArgs: thenArgs})

	if hasElse {
		fb.cur = elseBB
		elseVal := fb.lowerBlockBody(v.Blocks[1], v.Type)
		var elseArgs []ValueID
		if hasValue {
			elseArgs = []ValueID{elseVal}
		}
		fb.finish(Terminator{Kind: TermBr, Target: joinBB, TargetArgs: elseArgs})
	}

	fb.cur = joinBB
	if hasValue {
		return fb.ub.m.Block(joinBB).Params[0]
	}
	return fb.unit(v.Type)
}

// lowerWhile flattens while/do-while into cond_bb/body_bb/exit_bb; a
// do-while's entry edge targets body_bb directly instead of cond_bb, the
// one structural difference between the two forms.
func (fb *funcBuilder) lowerWhile(v sir.Value, isDo bool) {
	condBB := fb.newBlock(nil)
	bodyBB := fb.newBlock(nil)
	exitBB := fb.newBlock(nil)

	if isDo {
		fb.finish(Terminator{Kind: TermBr, Target: bodyBB})
	} else {
		fb.finish(Terminator{Kind: TermBr, Target: condBB})
	}

	fb.cur = condBB
	cond := fb.lowerValue(v.A)
	fb.finish(Terminator{Kind: TermCondBr, Cond: cond, Then: bodyBB, Else: exitBB})

	fb.cur = bodyBB
	fb.breakStack = append(fb.breakStack, breakTarget{exit: exitBB, hasValue: false})
	if len(v.Blocks) > 0 {
		fb.lowerBlockBody(v.Blocks[0], fb.unitType())
	}
	fb.breakStack = fb.breakStack[:len(fb.breakStack)-1]
	fb.finish(Terminator{Kind: TermBr, Target: condBB})

	fb.cur = exitBB
}

// lowerLoop flattens `loop` into body_bb/exit_bb with no condition block:
// the only way out is a break, whose value (if any) becomes exit_bb's
// single block parameter (Scenario D).
func (fb *funcBuilder) lowerLoop(v sir.Value) ValueID {
	fb.lowerValue(v.A)
	bodyBB := fb.newBlock(nil)
	hasValue := !fb.isUnitType(v.Type)
	var exitParams []typepool.TypeID
	if hasValue {
		exitParams = []typepool.TypeID{v.Type}
	}
	exitBB := fb.newBlock(exitParams)

	fb.finish(Terminator{Kind: TermBr, Target: bodyBB})

	fb.cur = bodyBB
	fb.breakStack = append(fb.breakStack, breakTarget{exit: exitBB, hasValue: hasValue})
	if len(v.Blocks) > 0 {
		fb.lowerBlockBody(v.Blocks[0], fb.unitType())
	}
	fb.breakStack = fb.breakStack[:len(fb.breakStack)-1]
	fb.finish(Terminator{Kind: TermBr, Target: bodyBB})

	fb.cur = exitBB
	if hasValue {
		return fb.ub.m.Block(exitBB).Params[0]
	}
	return fb.unit(v.Type)
}

func (fb *funcBuilder) lowerBreak(v sir.Value) {
	if len(fb.breakStack) == 0 {
		fb.finish(Terminator{Kind: TermUnreachable})
		fb.cur = fb.deadBlock()
		return
	}
	top := fb.breakStack[len(fb.breakStack)-1]
	var args []ValueID
	if top.hasValue {
		args = []ValueID{fb.lowerValue(v.A)}
	} else {
		fb.lowerValue(v.A)
	}
	fb.finish(Terminator{Kind: TermBr, Target: top.exit, TargetArgs: args})
	fb.cur = fb.deadBlock()
}

func (fb *funcBuilder) lowerReturn(v sir.Value) {
	val := fb.lowerValue(v.A)
	fb.finish(Terminator{Kind: TermRet, HasValue: true, Value: val})
	fb.cur = fb.deadBlock()
}

// lowerSwitch builds a compare-and-branch chain: each non-default case
// compares the scrutinee for equality against its lowered pattern and
// branches into its body (which falls through to exit_bb, not the next
// case — this language's switch does not C-style fall through); the
// default case, if present, is the chain's final fallthrough target.
func (fb *funcBuilder) lowerSwitch(v sir.Value) ValueID {
	scrut := fb.lowerValue(v.A)
	exitBB := fb.newBlock(nil)
	fb.breakStack = append(fb.breakStack, breakTarget{exit: exitBB, hasValue: false})

	defaultIdx := -1
	for i, isDef := range v.CaseIsDefault {
		if isDef {
			defaultIdx = i
			break
		}
	}

	boolTy := fb.ub.pool.BuiltinID(typepool.Bool)
	for i, caseBlk := range v.Blocks {
		if i == defaultIdx {
			continue
		}
		pat := fb.lowerValue(v.CasePatterns[i])
		cmp := fb.emit(Value{Op: OpBinOp, A: scrut, B: pat, Aux: int(sir.ArithEq), Type: boolTy})
		caseBB := fb.newBlock(nil)
		nextBB := fb.newBlock(nil)
		fb.finish(Terminator{Kind: TermCondBr, Cond: cmp, Then: caseBB, Else: nextBB})

		fb.cur = caseBB
		fb.lowerBlockBody(caseBlk, fb.unitType())
		fb.finish(Terminator{Kind: TermBr, Target: exitBB})

		fb.cur = nextBB
	}

	if defaultIdx >= 0 {
		fb.lowerBlockBody(v.Blocks[defaultIdx], fb.unitType())
	}
	fb.finish(Terminator{Kind: TermBr, Target: exitBB})

	fb.breakStack = fb.breakStack[:len(fb.breakStack)-1]
	fb.cur = exitBB
	return fb.unit(v.Type)
}
