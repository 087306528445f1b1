package llvmemit

import (
	llvm "tinygo.org/x/go-llvm"

	"github.com/GungYe918/parus-sub001/src/typepool"
)

// opaquePtr is the one pointer shape this emitter ever constructs: an i8*,
// standing in for every borrow/escape/raw-pointer/function-value/optional
// type. tinygo.org/x/go-llvm's pinned version predates opaque pointers, so
// a single concretely-typed pointer plays that role instead, exactly as
// the teacher's genType does for VSL's only reference-shaped type.
func (e *Emitter) opaquePtr() llvm.Type {
	return llvm.PointerType(llvm.Int8Type(), 0)
}

// llvmType maps a surface TypeID to its LLVM value-position representation.
// Unit never reaches here as a value type in well-typed input; callers that
// need Unit in return position use retType instead. Per spec.md section
// 4.10, user types and arrays default to i64 at v0 (a deliberate
// simplification, not yet upgraded to a real aggregate shape): the OIR's
// FieldLayoutDecl offsets still drive byte-level field/index access (see
// emitFieldAddr/emitIndexAddr in values.go), they just no longer need a
// matching LLVM aggregate type to GEP through.
func (e *Emitter) llvmType(id typepool.TypeID) llvm.Type {
	t := e.pool.Get(id)
	switch t.Kind {
	case typepool.KindBuiltin:
		return e.builtinType(t.Builtin)
	case typepool.KindOptional, typepool.KindBorrow, typepool.KindEscape, typepool.KindPtr, typepool.KindFn:
		return e.opaquePtr()
	default: // KindArray, KindNamedUser, and anything else: the v0 i64 stub.
		return llvm.Int64Type()
	}
}

func (e *Emitter) builtinType(b typepool.Builtin) llvm.Type {
	switch b {
	case typepool.Bool:
		return llvm.Int1Type()
	case typepool.Char:
		return llvm.Int32Type()
	case typepool.Text:
		return e.opaquePtr()
	case typepool.I8, typepool.U8:
		return llvm.Int8Type()
	case typepool.I16, typepool.U16:
		return llvm.Int16Type()
	case typepool.I32, typepool.U32:
		return llvm.Int32Type()
	case typepool.I64, typepool.U64, typepool.ISize, typepool.USize:
		return llvm.Int64Type()
	case typepool.I128, typepool.U128:
		return llvm.IntType(128)
	case typepool.F32:
		return llvm.FloatType()
	case typepool.F64:
		return llvm.DoubleType()
	case typepool.F128:
		return llvm.FP128Type()
	case typepool.InferInteger:
		// A deferred-integer literal that survived to codegen without
		// being resolved by the checker defaults to the platform int.
		return llvm.Int32Type()
	default: // Unit, Never, Null: no runtime representation as a value.
		return llvm.Int1Type()
	}
}

// retType maps id to a function's LLVM return type, mapping Unit/Never to
// void rather than the placeholder i1 builtinType uses for a Unit value.
func (e *Emitter) retType(id typepool.TypeID) llvm.Type {
	t := e.pool.Get(id)
	if t.Kind == typepool.KindBuiltin && (t.Builtin == typepool.Unit || t.Builtin == typepool.Never) {
		return llvm.VoidType()
	}
	return e.llvmType(id)
}

