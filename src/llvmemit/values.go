package llvmemit

import (
	"fmt"

	llvm "tinygo.org/x/go-llvm"

	"github.com/GungYe918/parus-sub001/src/oir"
	"github.com/GungYe918/parus-sub001/src/sir"
	"github.com/GungYe918/parus-sub001/src/typepool"
)

// emitValue lowers one OIR value to its LLVM instruction(s), caching the
// result so later resolve calls don't re-emit it. Block-parameter values
// never reach here (emitBlock seeds them directly from their alloca load),
// and OpGlobalRef values never reach here either (declareGlobals seeds
// them) — both are asserted implicitly by the switch's default case, which
// would otherwise silently double-emit.
func (e *Emitter) emitValue(id oir.ValueID, v oir.Value) llvm.Value {
	var out llvm.Value
	switch v.Op {
	case oir.OpConstInt:
		out = e.emitConstInt(v)
	case oir.OpConstFloat:
		out = e.emitConstFloat(v)
	case oir.OpConstBool:
		b := uint64(0)
		if lit, ok := v.Lit.(bool); ok && lit {
			b = 1
		}
		out = llvm.ConstInt(llvm.Int1Type(), b, false)
	case oir.OpConstNull:
		out = llvm.ConstNull(e.llvmType(v.Type))
	case oir.OpConstText:
		s, _ := v.Lit.(string)
		out = e.builder.CreateGlobalStringPtr(s, "str")
	case oir.OpUnary:
		out = e.emitUnary(v)
	case oir.OpBinOp:
		out = e.emitBinOp(v)
	case oir.OpCast:
		out = e.emitCast(v)
	case oir.OpFuncRef:
		out = e.funcValueByName(v.Name)
	case oir.OpCall:
		out = e.emitCall(v)
	case oir.OpIndex:
		out = e.emitLoadFrom(e.emitIndexAddr(v))
	case oir.OpField:
		out = e.emitLoadFrom(e.emitFieldAddr(v))
	case oir.OpIndexStore:
		addr := e.emitIndexAddrParts(v.A, v.B, v.Type)
		val := e.resolve(v.C)
		e.builder.CreateStore(val, addr)
		out = val
	case oir.OpFieldStore:
		addr := e.emitFieldAddrParts(v.A, v.Name, v.Type)
		val := e.resolve(v.B)
		e.builder.CreateStore(val, addr)
		out = val
	case oir.OpAllocaLocal:
		name := v.Name
		if name == "" {
			name = fmt.Sprintf("v%d", id)
		}
		out = e.builder.CreateAlloca(e.llvmType(v.Type), name)
	case oir.OpLoad:
		out = e.builder.CreateLoad(e.resolve(v.A), fmt.Sprintf("v%d", id))
	case oir.OpStore:
		e.builder.CreateStore(e.resolve(v.B), e.resolve(v.A))
		out = e.resolve(v.B)
	default:
		out = llvm.ConstNull(e.llvmType(v.Type))
	}
	e.valueCache[id] = out
	return out
}

func (e *Emitter) emitConstInt(v oir.Value) llvm.Value {
	ty := e.llvmType(v.Type)
	var n int64
	switch lit := v.Lit.(type) {
	case int64:
		n = lit
	case uint64:
		n = int64(lit)
	case int:
		n = int64(lit)
	}
	t := e.pool.Get(v.Type)
	signed := t.Kind == typepool.KindBuiltin && t.Builtin.IsSignedInt()
	return llvm.ConstInt(ty, uint64(n), signed)
}

func (e *Emitter) emitConstFloat(v oir.Value) llvm.Value {
	ty := e.llvmType(v.Type)
	var f float64
	switch lit := v.Lit.(type) {
	case float64:
		f = lit
	case float32:
		f = float64(lit)
	}
	return llvm.ConstFloat(ty, f)
}

func (e *Emitter) isFloatType(id typepool.TypeID) bool {
	t := e.pool.Get(id)
	return t.Kind == typepool.KindBuiltin && t.Builtin.IsFloat()
}

func (e *Emitter) isSignedType(id typepool.TypeID) bool {
	t := e.pool.Get(id)
	return t.Kind == typepool.KindBuiltin && t.Builtin.IsSignedInt()
}

func (e *Emitter) emitUnary(v oir.Value) llvm.Value {
	a := e.resolve(v.A)
	op := sir.UnaryOp(v.Aux)
	switch op {
	case sir.ArithSub:
		if e.isFloatType(v.Type) {
			return e.builder.CreateFNeg(a, "neg")
		}
		return e.builder.CreateNeg(a, "neg")
	case sir.ArithLogNot:
		return e.builder.CreateNot(a, "not")
	default:
		return a
	}
}

// emitBinOp dispatches on the operand type (int vs float) and the ArithOp
// tag, matching the teacher's genRelation/genArith split between integer
// and floating-point instruction families.
func (e *Emitter) emitBinOp(v oir.Value) llvm.Value {
	a := e.resolve(v.A)
	b := e.resolve(v.B)
	op := sir.BinaryOp(v.Aux)
	operandIsFloat := e.isFloatType(e.oirMod.Value(v.A).Type)

	if op.IsComparison() {
		if operandIsFloat {
			return e.builder.CreateFCmp(floatPredicate(op), a, b, "fcmp")
		}
		signed := e.isSignedType(e.oirMod.Value(v.A).Type)
		return e.builder.CreateICmp(intPredicate(op, signed), a, b, "icmp")
	}

	switch op {
	case sir.ArithAdd, sir.ArithAddEq:
		if operandIsFloat {
			return e.builder.CreateFAdd(a, b, "add")
		}
		return e.builder.CreateAdd(a, b, "add")
	case sir.ArithSub, sir.ArithSubEq:
		if operandIsFloat {
			return e.builder.CreateFSub(a, b, "sub")
		}
		return e.builder.CreateSub(a, b, "sub")
	case sir.ArithMul, sir.ArithMulEq:
		if operandIsFloat {
			return e.builder.CreateFMul(a, b, "mul")
		}
		return e.builder.CreateMul(a, b, "mul")
	case sir.ArithDiv, sir.ArithDivEq:
		if operandIsFloat {
			return e.builder.CreateFDiv(a, b, "div")
		}
		if e.isSignedType(v.Type) {
			return e.builder.CreateSDiv(a, b, "div")
		}
		return e.builder.CreateUDiv(a, b, "div")
	case sir.ArithRem, sir.ArithRemEq:
		if operandIsFloat {
			return e.builder.CreateFRem(a, b, "rem")
		}
		if e.isSignedType(v.Type) {
			return e.builder.CreateSRem(a, b, "rem")
		}
		return e.builder.CreateURem(a, b, "rem")
	case sir.ArithLogAnd, sir.ArithBitAnd:
		return e.builder.CreateAnd(a, b, "and")
	case sir.ArithLogOr, sir.ArithBitOr:
		return e.builder.CreateOr(a, b, "or")
	case sir.ArithBitXor:
		return e.builder.CreateXor(a, b, "xor")
	case sir.ArithShl:
		return e.builder.CreateShl(a, b, "shl")
	case sir.ArithShr:
		if e.isSignedType(v.Type) {
			return e.builder.CreateAShr(a, b, "ashr")
		}
		return e.builder.CreateLShr(a, b, "lshr")
	case sir.ArithNullCoalesce:
		// `a ?? b` on an opaque pointer-shaped optional: a non-null check
		// isn't representable without the optional's payload tag, which
		// this emitter's opaque-pointer stub for Optional (spec.md section
		// 9's open question) doesn't carry. Per that same open question's
		// resolution, ?? is emitted as identity-of-lhs; the rhs is still
		// evaluated above (for its side effects / diagnostics) but its
		// value is discarded here.
		return a
	default:
		return a
	}
}

func intPredicate(op sir.ArithOp, signed bool) llvm.IntPredicate {
	switch op {
	case sir.ArithEq:
		return llvm.IntEQ
	case sir.ArithNe:
		return llvm.IntNE
	case sir.ArithLt:
		if signed {
			return llvm.IntSLT
		}
		return llvm.IntULT
	case sir.ArithLe:
		if signed {
			return llvm.IntSLE
		}
		return llvm.IntULE
	case sir.ArithGt:
		if signed {
			return llvm.IntSGT
		}
		return llvm.IntUGT
	case sir.ArithGe:
		if signed {
			return llvm.IntSGE
		}
		return llvm.IntUGE
	default:
		return llvm.IntEQ
	}
}

func floatPredicate(op sir.ArithOp) llvm.FloatPredicate {
	switch op {
	case sir.ArithEq:
		return llvm.FloatOEQ
	case sir.ArithNe:
		return llvm.FloatONE
	case sir.ArithLt:
		return llvm.FloatOLT
	case sir.ArithLe:
		return llvm.FloatOLE
	case sir.ArithGt:
		return llvm.FloatOGT
	case sir.ArithGe:
		return llvm.FloatOGE
	default:
		return llvm.FloatOEQ
	}
}

// emitCast converts a's value from its own type to v.Type, choosing the
// LLVM conversion instruction from the two types' kinds (int widen/narrow,
// signed/unsigned extend, int<->float, or a bitcast fallback for the
// pointer-shaped kinds that all share the one opaque-pointer representation).
func (e *Emitter) emitCast(v oir.Value) llvm.Value {
	a := e.resolve(v.A)
	srcTy := e.oirMod.Value(v.A).Type
	src := e.pool.Get(srcTy)
	dst := e.pool.Get(v.Type)
	dstLLVM := e.llvmType(v.Type)

	srcIsInt := src.Kind == typepool.KindBuiltin && (src.Builtin.IsInt() || src.Builtin == typepool.Bool || src.Builtin == typepool.Char)
	dstIsInt := dst.Kind == typepool.KindBuiltin && (dst.Builtin.IsInt() || dst.Builtin == typepool.Bool || dst.Builtin == typepool.Char)
	srcIsFloat := src.Kind == typepool.KindBuiltin && src.Builtin.IsFloat()
	dstIsFloat := dst.Kind == typepool.KindBuiltin && dst.Builtin.IsFloat()

	srcBits := builtinBits(src)
	dstBits := builtinBits(dst)

	switch {
	case srcIsInt && dstIsInt:
		switch {
		case dstBits == srcBits:
			return a
		case dstBits > srcBits:
			if e.isSignedType(srcTy) {
				return e.builder.CreateSExt(a, dstLLVM, "sext")
			}
			return e.builder.CreateZExt(a, dstLLVM, "zext")
		default:
			return e.builder.CreateTrunc(a, dstLLVM, "trunc")
		}
	case srcIsInt && dstIsFloat:
		if e.isSignedType(srcTy) {
			return e.builder.CreateSIToFP(a, dstLLVM, "sitofp")
		}
		return e.builder.CreateUIToFP(a, dstLLVM, "uitofp")
	case srcIsFloat && dstIsInt:
		if e.isSignedType(v.Type) {
			return e.builder.CreateFPToSI(a, dstLLVM, "fptosi")
		}
		return e.builder.CreateFPToUI(a, dstLLVM, "fptoui")
	case srcIsFloat && dstIsFloat:
		switch {
		case dstBits > srcBits:
			return e.builder.CreateFPExt(a, dstLLVM, "fpext")
		case dstBits < srcBits:
			return e.builder.CreateFPTrunc(a, dstLLVM, "fptrunc")
		default:
			return a
		}
	case src.Kind != typepool.KindBuiltin && dst.Kind != typepool.KindBuiltin:
		// Every non-builtin kind this emitter lowers to a value (Optional,
		// Borrow, Escape, Ptr, Fn) shares the one opaque-pointer
		// representation (see types.go), so a cast between them is a no-op
		// bitcast at the LLVM level.
		return e.builder.CreateBitCast(a, dstLLVM, "ptrcast")
	default:
		return a
	}
}

// builtinBits reports t's bit width for the builtins BitWidth knows about,
// and the LLVM storage width for Bool (1, Int1Type) and Char (32,
// Int32Type), which BitWidth reports as 0; InferInteger counts as 32. An
// int<->bool/char cast therefore widens or narrows by true storage width,
// and a char<->i32/u32 cast, whose widths tie, returns the value unchanged.
func builtinBits(t typepool.Type) int {
	if t.Kind != typepool.KindBuiltin {
		return 0
	}
	switch t.Builtin {
	case typepool.Bool:
		return 1
	case typepool.Char:
		return 32
	case typepool.InferInteger:
		return 32
	}
	return t.Builtin.BitWidth()
}

func (e *Emitter) funcValueByName(name string) llvm.Value {
	for i, fn := range e.oirMod.Funcs {
		if fn.Name == name {
			return e.funcValues[i]
		}
	}
	return llvm.ConstNull(e.opaquePtr())
}

// emitCall resolves a direct callee by its Module.Funcs index and emits a
// real `call`; an indirect callee (DirectCallee < 0 — function values held
// in a variable, out of scope per spec.md section 9's function-value
// simplification) instead targets a declared-but-undefined stub so the
// module still verifies, matching the "opaque, not wired" treatment the
// spec gives first-class function values generally.
func (e *Emitter) emitCall(v oir.Value) llvm.Value {
	args := make([]llvm.Value, 0, v.ArgsCount)
	for _, a := range e.oirMod.CallArgs(v.ArgsBegin, v.ArgsCount) {
		args = append(args, e.resolve(a))
	}
	name := "v"
	if v.DirectCallee >= 0 && int(v.DirectCallee) < len(e.funcValues) {
		callee := e.funcValues[v.DirectCallee]
		if e.retType(v.Type).TypeKind() == llvm.VoidTypeKind {
			e.builder.CreateCall(callee, args, "")
			return llvm.ConstNull(e.llvmType(v.Type))
		}
		return e.builder.CreateCall(callee, args, name)
	}
	return e.emitIndirectCallStub(v, args)
}

// emitIndirectCallStub lazily declares one opaque extern function matching
// the exact argument/return shape seen at an indirect call site and calls
// it, so an indirect call still lowers to valid, linkable IR rather than
// aborting emission — the call's result is never meaningfully defined
// since no concrete callee was resolved.
func (e *Emitter) emitIndirectCallStub(v oir.Value, args []llvm.Value) llvm.Value {
	retTy := e.retType(v.Type)
	paramTys := make([]llvm.Type, len(args))
	for i, a := range args {
		paramTys[i] = a.Type()
	}
	// Keyed by the call's own ValueID rather than its shape: two indirect
	// calls can share an argument count while disagreeing on argument
	// types, and AddFunction on an already-declared name with a different
	// signature would silently hand back the first declaration's type.
	stubName := fmt.Sprintf("__indirect_call_stub_%d", v.ID)
	stub := llvm.AddFunction(e.mod, stubName, llvm.FunctionType(retTy, paramTys, false))
	if retTy.TypeKind() == llvm.VoidTypeKind {
		e.builder.CreateCall(stub, args, "")
		return llvm.ConstNull(e.llvmType(v.Type))
	}
	return e.builder.CreateCall(stub, args, "indirect")
}

func (e *Emitter) emitLoadFrom(addr llvm.Value) llvm.Value {
	return e.builder.CreateLoad(addr, "ld")
}

// emitIndexAddr computes arr[idx]'s address. Arrays default to the i64
// stub at v0 (spec.md section 4.10), so the base alloca carries no real
// element-sized aggregate type to GEP through: base is bitcast to a
// pointer of elemType first, then indexed as flat pointer arithmetic in
// elemType-sized units.
func (e *Emitter) emitIndexAddr(v oir.Value) llvm.Value {
	return e.emitIndexAddrParts(v.A, v.B, v.Type)
}

func (e *Emitter) emitIndexAddrParts(base, index oir.ValueID, elemType typepool.TypeID) llvm.Value {
	baseAddr := e.resolve(base)
	idx := e.resolve(index)
	typed := e.builder.CreateBitCast(baseAddr, llvm.PointerType(e.llvmType(elemType), 0), "idx.base")
	return e.builder.CreateGEP(typed, []llvm.Value{idx}, "idx")
}

// emitFieldAddr computes base.Name's address by the member's byte offset
// in its struct's FieldLayoutDecl. Named user types default to the i64
// stub at v0 (spec.md section 4.10), so base carries no real struct type
// to GEP through: the base address is bitcast to a raw byte pointer,
// walked by the member's offset, then bitcast to the member's own
// pointer type. Keying layout lookup by the base's static type (rather
// than a named struct-field index) keeps this symmetric with memberOffset.
func (e *Emitter) emitFieldAddr(v oir.Value) llvm.Value {
	return e.emitFieldAddrParts(v.A, v.Name, v.Type)
}

func (e *Emitter) emitFieldAddrParts(base oir.ValueID, name string, memberType typepool.TypeID) llvm.Value {
	baseAddr := e.resolve(base)
	baseVal := e.oirMod.Value(base)
	offset := e.memberOffset(baseVal.Type, name)
	bytePtr := e.builder.CreateBitCast(baseAddr, e.opaquePtr(), "field.base")
	off := llvm.ConstInt(llvm.Int32Type(), offset, false)
	addr := e.builder.CreateGEP(bytePtr, []llvm.Value{off}, "field.raw")
	return e.builder.CreateBitCast(addr, llvm.PointerType(e.llvmType(memberType), 0), "field.addr")
}

func (e *Emitter) memberOffset(structType typepool.TypeID, name string) uint64 {
	for _, fl := range e.oirMod.FieldLayouts {
		if fl.Type != structType {
			continue
		}
		for i, n := range fl.MemberNames {
			if n == name && i < len(fl.MemberOffsets) {
				return fl.MemberOffsets[i]
			}
		}
	}
	return 0
}
