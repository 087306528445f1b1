// Package llvmemit lowers a gated oir.Module to LLVM IR text, grounded on
// the teacher's src/ir/llvm/transform.go: the same llvm.Context/Builder/
// Module setup, the same genType-style per-kind type switch, and the same
// two-pass per-function strategy (headers first, so every call site can
// resolve its callee, then bodies). Where the teacher tracks SSA values by
// name in a symTab guarded by a sync.RWMutex, this emitter keys a
// valueCache by oir.ValueID directly, since OIR is already an id-addressed
// arena rather than a name-addressed AST.
//
// OIR's block parameters have no CreatePHI/AddIncoming counterpart wired
// here: each predecessor branch stores its argument into a per-parameter
// alloca immediately before branching, and the receiving block's first acts
// are loads from those same allocas. A real compiler would run mem2reg over
// this; that pass is out of scope per spec.md section 1's Non-goals, so the
// allocas are left in place and LLVM's own -mem2reg (not invoked here) is
// the documented way to clean them up downstream.
package llvmemit

import (
	"fmt"

	llvm "tinygo.org/x/go-llvm"

	"github.com/GungYe918/parus-sub001/src/oir"
	"github.com/GungYe918/parus-sub001/src/typepool"
)

// Emitter holds the per-run LLVM context and the caches that let OIR ids be
// resolved to LLVM values during a single module's emission.
type Emitter struct {
	pool   *typepool.Pool
	oirMod *oir.Module

	ctx     llvm.Context
	builder llvm.Builder
	mod     llvm.Module

	funcValues []llvm.Value // indexed by oir.Module.Funcs index

	valueCache map[oir.ValueID]llvm.Value
	blockCache map[oir.BlockID]llvm.BasicBlock
	paramSlots map[oir.ValueID]llvm.Value // block-param alloca, keyed by the param's own ValueID
}

// Emit lowers m to LLVM IR text under module name `name`. It errors out
// immediately if m.GatePassed is false or a structural Verify error
// remains: spec.md section 4.9 requires both checks to pass before
// codegen, the same way the teacher's GenLLVM assumes a semantically
// accepted tree.
func Emit(m *oir.Module, pool *typepool.Pool, name string) (string, error) {
	if !m.GatePassed {
		return "", fmt.Errorf("llvmemit: module did not pass the OIR gate: %s", m.GateError)
	}
	if errs := oir.Verify(m); len(errs) > 0 {
		return "", fmt.Errorf("llvmemit: %s", errs[0].Error())
	}

	ctx := llvm.NewContext()
	e := &Emitter{
		pool:        pool,
		oirMod:      m,
		ctx:         ctx,
		builder:     ctx.NewBuilder(),
		mod:         ctx.NewModule(name),
		valueCache:  make(map[oir.ValueID]llvm.Value),
		blockCache:  make(map[oir.BlockID]llvm.BasicBlock),
		paramSlots:  make(map[oir.ValueID]llvm.Value),
	}
	defer e.builder.Dispose()
	defer ctx.Dispose()

	e.mod.SetTarget("x86_64-unknown-linux-gnu")

	e.declareGlobals()
	e.declareFuncHeaders()
	for i, fn := range m.Funcs {
		e.emitFuncBody(i, fn)
	}

	return e.mod.String(), nil
}

// declareGlobals emits every module-level `static` as an LLVM global and
// seeds valueCache with its OpGlobalRef id, exactly the step the
// GlobalDecl.Ref field exists to make possible: a global's defining value
// never sits in any block's Insts list, so nothing would otherwise populate
// its cache entry before the first function body that reads it.
func (e *Emitter) declareGlobals() {
	for _, g := range e.oirMod.Globals {
		ty := e.llvmType(g.Type)
		gv := llvm.AddGlobal(e.mod, ty, g.Name)
		gv.SetInitializer(llvm.ConstNull(ty))
		if !g.IsExport {
			gv.SetLinkage(llvm.InternalLinkage)
		}
		e.valueCache[g.Ref] = gv
	}
}

// declareFuncHeaders pre-declares every function (spec.md's CABI flag
// controlling name mangling suppression) so call sites resolve regardless
// of definition order, mirroring the teacher's genFuncHeader/genFuncBody
// split.
func (e *Emitter) declareFuncHeaders() {
	e.funcValues = make([]llvm.Value, len(e.oirMod.Funcs))
	for i, fn := range e.oirMod.Funcs {
		var params []llvm.Type
		for _, pt := range fn.ParamTypes {
			params = append(params, e.llvmType(pt))
		}
		ftyp := llvm.FunctionType(e.retType(fn.RetType), params, false)
		name := fn.Name
		if fn.CABI {
			name = fn.SourceName
		}
		fv := llvm.AddFunction(e.mod, name, ftyp)
		e.funcValues[i] = fv
	}
}

// emitFuncBody runs the two-pass strategy described in the package doc:
// pass 1 pre-creates every basic block and every block-parameter's alloca
// so every branch target and phi-like read resolves regardless of creation
// order; pass 2 walks fb.Blocks in builder-assigned order (which the OIR
// builder guarantees is define-before-use for everything but block-param
// reads, already handled by pass 1) and emits instructions.
func (e *Emitter) emitFuncBody(idx int, fn oir.Func) {
	fv := e.funcValues[idx]
	for i := range fn.ParamTypes {
		fv.Param(i).SetName(fmt.Sprintf("p%d", i))
	}

	llvmEntry := llvm.AddBasicBlock(fv, "entry")
	e.blockCache[fn.Entry] = llvmEntry
	for _, b := range fn.Blocks {
		if b == fn.Entry {
			continue
		}
		e.blockCache[b] = llvm.AddBasicBlock(fv, fmt.Sprintf("bb%d", b))
	}

	// Every block's parameters get a stack slot up front, all sited in the
	// entry block so they dominate every later read regardless of which
	// block (including loop bodies that branch back on themselves) ends up
	// storing into them.
	e.builder.SetInsertPointAtEnd(llvmEntry)
	for _, b := range fn.Blocks {
		blk := e.oirMod.Block(b)
		for i, pv := range blk.Params {
			slot := e.builder.CreateAlloca(e.llvmType(blk.ParamTypes[i]), fmt.Sprintf("bb%d.param%d", b, i))
			e.paramSlots[pv] = slot
		}
	}

	// The entry block's parameters ARE the function's formal parameters
	// (oir/builder.go's buildFunc seeds entry's ParamTypes from sfn.ParamTypes
	// and binds each sir parameter symbol to entryBlk.Params[pi]): store the
	// incoming LLVM arguments into those same slots so emitBlock's uniform
	// param-load step, run below for every block including entry, produces
	// the right value with no parameter-specific case in emitBlock itself.
	entryBlk := e.oirMod.Block(fn.Entry)
	for i, pv := range entryBlk.Params {
		e.builder.CreateStore(fv.Param(i), e.paramSlots[pv])
	}

	for _, b := range fn.Blocks {
		e.emitBlock(fv, b, e.oirMod.Block(b))
	}
}

func (e *Emitter) emitBlock(fv llvm.Value, id oir.BlockID, blk oir.Block) {
	bb := e.blockCache[id]
	e.builder.SetInsertPointAtEnd(bb)
	for i, pv := range blk.Params {
		slot := e.paramSlots[pv]
		e.valueCache[pv] = e.builder.CreateLoad(slot, fmt.Sprintf("bb%d.p%d", id, i))
	}
	for _, vid := range blk.Insts {
		e.emitValue(vid, e.oirMod.Value(vid))
	}
	e.emitTerm(blk.Term)
}

func (e *Emitter) emitTerm(t oir.Terminator) {
	switch t.Kind {
	case oir.TermRet:
		if t.HasValue {
			v := e.resolve(t.Value)
			val := e.oirMod.Value(t.Value)
			if e.isUnitValue(val.Type) {
				e.builder.CreateRetVoid()
			} else {
				e.builder.CreateRet(v)
			}
		} else {
			e.builder.CreateRetVoid()
		}
	case oir.TermBr:
		e.storeBlockArgs(t.Target, t.TargetArgs)
		e.builder.CreateBr(e.blockCache[t.Target])
	case oir.TermCondBr:
		cond := e.resolve(t.Cond)
		e.storeBlockArgs(t.Then, t.ThenArgs)
		e.storeBlockArgs(t.Else, t.ElseArgs)
		e.builder.CreateCondBr(cond, e.blockCache[t.Then], e.blockCache[t.Else])
	case oir.TermUnreachable:
		e.builder.CreateUnreachable()
	case oir.TermNone:
		e.builder.CreateUnreachable()
	}
}

func (e *Emitter) storeBlockArgs(target oir.BlockID, args []oir.ValueID) {
	blk := e.oirMod.Block(target)
	for i, a := range args {
		slot := e.paramSlots[blk.Params[i]]
		e.builder.CreateStore(e.resolve(a), slot)
	}
}

func (e *Emitter) isUnitValue(id typepool.TypeID) bool {
	t := e.pool.Get(id)
	return t.Kind == typepool.KindBuiltin && (t.Builtin == typepool.Unit || t.Builtin == typepool.Never)
}

// resolve fetches v's cached LLVM value, computing it on first reference
// for values that legitimately aren't in creation order relative to the
// reader (block-parameter reads, handled in emitBlock before emitValue
// ever runs, and forward references, which do not occur by construction:
// see oir.go's Func doc comment on define-before-use).
func (e *Emitter) resolve(v oir.ValueID) llvm.Value {
	if lv, ok := e.valueCache[v]; ok {
		return lv
	}
	return e.emitValue(v, e.oirMod.Value(v))
}
