package sir

// ArithOp names the specific operator encoded in a Binary/Unary/Assign
// value's Aux field. The index order matches the parser's internal
// operator-tag table (and ast/print.go's opName list) exactly, so a Value
// lowered by src/sir and read back here never needs a translation table of
// its own — Aux is cast straight to ArithOp.
type ArithOp int

const (
	ArithAdd ArithOp = iota
	ArithSub
	ArithMul
	ArithDiv
	ArithRem
	ArithEq
	ArithNe
	ArithLt
	ArithLe
	ArithGt
	ArithGe
	ArithLogAnd
	ArithLogOr
	ArithBitAnd
	ArithBitOr
	ArithBitXor
	ArithShl
	ArithShr
	ArithLogNot
	ArithAssign
	ArithAddEq
	ArithSubEq
	ArithMulEq
	ArithDivEq
	ArithRemEq
	ArithNullCoalesceEq
	ArithNullCoalesce
	ArithInc
	ArithDec
)

// IsComparison reports whether op produces a bool result from two operands
// of the same type, the set OIR's CondBr construction and the LLVM
// emitter's icmp/fcmp dispatch both need to recognize.
func (o ArithOp) IsComparison() bool {
	switch o {
	case ArithEq, ArithNe, ArithLt, ArithLe, ArithGt, ArithGe:
		return true
	}
	return false
}

// UnaryOp returns the ArithOp a KUnary node's Aux carries. Unary only ever
// produces ArithSub (negate) or ArithLogNot (the parser packs "!" as
// opNot, stored at the same index as ArithLogNot).
func UnaryOp(aux int) ArithOp { return ArithOp(aux) }

// BinaryOp returns the ArithOp a KBinary/KAssign node's Aux carries.
func BinaryOp(aux int) ArithOp { return ArithOp(aux) }
