package check

import (
	"github.com/GungYe918/parus-sub001/src/ast"
	"github.com/GungYe918/parus-sub001/src/diag"
	"github.com/GungYe918/parus-sub001/src/resolve"
	"github.com/GungYe918/parus-sub001/src/typepool"
)

// op tags mirror parser/expr.go's opAdd..opDec iota block; duplicated here
// (rather than imported) since the parser package does not export them and
// the checker only needs to distinguish arithmetic/comparison/logical
// families, not reproduce the full operator table.
const (
	opAdd = iota
	opSub
	opMul
	opDiv
	opRem
	opEq
	opNe
	opLt
	opLe
	opGt
	opGe
	opAnd
	opOr
)

// isPlace reports whether id is an expression usable as an assignment or
// borrow target: an identifier, index, or field expression. The AST has no
// dereference node, so no dereference form is accepted.
func (c *Checker) isPlace(id ast.NodeID) bool {
	switch c.A.Get(id).Kind {
	case ast.KIdent, ast.KIndex, ast.KField:
		return true
	}
	return false
}

// CheckExpr type-checks expr and returns its resolved type, writing the
// type back into the node and the cache.
func (c *Checker) CheckExpr(id ast.NodeID) typepool.TypeID {
	if id == ast.NoNode {
		return c.Pool.BuiltinID(typepool.Unit)
	}
	n := c.A.Get(id)
	var ty typepool.TypeID
	switch n.Kind {
	case ast.KIntLit:
		ty = c.Pool.BuiltinID(typepool.InferInteger)
	case ast.KFloatLit:
		ty = c.Pool.BuiltinID(typepool.F64)
	case ast.KStringLit:
		ty = c.Pool.InternIdent(stringTypeName)
	case ast.KCharLit:
		ty = c.Pool.BuiltinID(typepool.Char)
	case ast.KBoolLit:
		ty = c.Pool.BuiltinID(typepool.Bool)
	case ast.KNullLit:
		ty = c.Pool.BuiltinID(typepool.Null)
	case ast.KIdent:
		ty = c.checkIdent(id, n)
	case ast.KArrayLit:
		ty = c.checkArrayLit(id, n)
	case ast.KBorrow:
		ty = c.checkBorrow(id, n)
	case ast.KEscape:
		ty = c.checkEscape(id, n)
	case ast.KUnary:
		ty = c.CheckExpr(n.A)
	case ast.KBinary:
		ty = c.checkBinary(id, n)
	case ast.KAssign:
		ty = c.checkAssign(id, n)
	case ast.KPostfixInc:
		ty = c.CheckExpr(n.A)
	case ast.KCall:
		ty = c.checkCall(id, n)
	case ast.KIndex:
		elemTy := c.CheckExpr(n.A)
		c.CheckExpr(n.B)
		arrT := c.Pool.Get(elemTy)
		if arrT.Kind == typepool.KindArray {
			ty = arrT.Elem
		} else {
			ty = c.Pool.Error()
		}
	case ast.KField:
		c.CheckExpr(n.A)
		ty = c.Pool.Error() // field-member typing deferred to a fields table, out of scope here
	case ast.KIfExpr:
		ty = c.checkIfExpr(n)
	case ast.KBlockStmt:
		ty = c.checkBlockExpr(id, n)
	case ast.KLoopExpr:
		ty = c.checkLoopExpr(n)
	case ast.KCast:
		ty = c.checkCast(id, n)
	case ast.KTernary:
		c.CheckExpr(n.A)
		tthen := c.CheckExpr(n.B)
		c.CheckExpr(n.C)
		ty = tthen
	default:
		ty = c.Pool.Error()
	}
	c.setType(id, ty)
	return ty
}

func (c *Checker) checkIdent(id ast.NodeID, n ast.Node) typepool.TypeID {
	if c.Resolved == nil {
		return c.Pool.Error()
	}
	sym, ok := c.Resolved.Resolved[id]
	if !ok {
		return c.Pool.Error()
	}
	if sym.Kind == resolve.BindFn {
		decl := c.A.Get(ast.NodeID(sym.ID))
		return decl.Type
	}
	// LocalVar/Param: the declared type lives on the declaring node, which
	// we do not track by symbol id directly here; the SIR builder resolves
	// these by walking declared_type off the VarDecl/Param record instead.
	return c.Pool.Error()
}

func (c *Checker) checkArrayLit(id ast.NodeID, n ast.Node) typepool.TypeID {
	kids := c.A.Children(n.ChildrenBegin, n.ChildrenCnt)
	if len(kids) == 0 {
		return c.Pool.MakeArray(c.Pool.Error(), false, 0)
	}
	elem := c.CheckExpr(kids[0])
	for _, k := range kids[1:] {
		kt := c.CheckExpr(k)
		if !c.canAssign(elem, kt) && !c.canAssign(kt, elem) {
			c.errorf(n.Span, diag.TypeMismatch, elem, kt)
		}
	}
	return c.Pool.MakeArray(elem, true, uint64(len(kids)))
}

func (c *Checker) checkBorrow(id ast.NodeID, n ast.Node) typepool.TypeID {
	if c.inPureOrComptime() {
		c.errorf(n.Span, diag.TypeBorrowNotAllowedInPureComptime)
	}
	placeTy := c.CheckExpr(n.A)
	isMut := n.Aux != 0
	return c.Pool.MakeBorrow(placeTy, isMut)
}

func (c *Checker) checkEscape(id ast.NodeID, n ast.Node) typepool.TypeID {
	if c.inPureOrComptime() {
		c.errorf(n.Span, diag.TypeEscapeNotAllowedInPureComptime)
	}
	placeTy := c.CheckExpr(n.A)
	return c.Pool.MakeEscape(placeTy)
}

func (c *Checker) inPureOrComptime() bool {
	return c.funcAttrs["pure"] || c.funcAttrs["comptime"]
}

func (c *Checker) checkBinary(id ast.NodeID, n ast.Node) typepool.TypeID {
	lt := c.CheckExpr(n.A)
	rt := c.CheckExpr(n.B)

	if isNullCompare(n.Aux) && (isNullType(c.Pool, lt) || isNullType(c.Pool, rt)) {
		other := lt
		if isNullType(c.Pool, lt) {
			other = rt
		}
		if !isNullType(c.Pool, other) && !c.isOptional(other) {
			c.errorf(n.Span, diag.NullComparisonRequiresOptional)
		}
		return c.Pool.BuiltinID(typepool.Bool)
	}

	if c.isInferInteger(lt) && c.isFloat(rt) || c.isInferInteger(rt) && c.isFloat(lt) {
		c.errorf(n.Span, diag.TypeMismatch, lt, rt)
		return c.Pool.Error()
	}
	if c.isInferInteger(lt) && c.isInt(rt) {
		c.pinInferInteger(n.A, rt)
		lt = rt
	} else if c.isInferInteger(rt) && c.isInt(lt) {
		c.pinInferInteger(n.B, lt)
		rt = lt
	}
	if lt != rt {
		c.errorf(n.Span, diag.TypeMismatch, lt, rt)
		return c.Pool.Error()
	}
	if isComparisonOp(n.Aux) {
		return c.Pool.BuiltinID(typepool.Bool)
	}
	return lt
}

func isNullCompare(aux int) bool { return aux == opEq || aux == opNe }
func isComparisonOp(aux int) bool {
	switch aux {
	case opEq, opNe, opLt, opLe, opGt, opGe:
		return true
	}
	return false
}

func isNullType(pool *typepool.Pool, ty typepool.TypeID) bool {
	t := pool.Get(ty)
	return t.Kind == typepool.KindBuiltin && t.Builtin == typepool.Null
}

// pinInferInteger pins an unresolved-integer-literal expression to a
// concrete integer destination type once it is used in a context that
// demands one (here, arithmetic against a concrete operand).
func (c *Checker) pinInferInteger(id ast.NodeID, ty typepool.TypeID) {
	n := c.A.Get(id)
	if n.Kind != ast.KIntLit {
		return
	}
	c.setType(id, ty)
}

func (c *Checker) checkAssign(id ast.NodeID, n ast.Node) typepool.TypeID {
	if !c.isPlace(n.A) {
		c.errorf(n.Span, diag.AssignLhsMustBePlace)
	}
	lt := c.CheckExpr(n.A)
	rt := c.CheckExpr(n.B)
	if !c.canAssign(lt, rt) {
		c.errorf(n.Span, diag.TypeMismatch, lt, rt)
	}
	return lt
}

func (c *Checker) checkCall(id ast.NodeID, n ast.Node) typepool.TypeID {
	calleeTy := c.CheckExpr(n.A)
	calleeT := c.Pool.Get(calleeTy)
	args := c.A.Args(n.ArgsBegin, n.ArgsCount)
	if calleeT.Kind != typepool.KindFn {
		for _, arg := range args {
			c.CheckExpr(arg.Value)
		}
		return c.Pool.Error()
	}
	params := c.Pool.FnParams(calleeTy)
	positional := 0
	for _, arg := range args {
		if arg.Kind == ast.ArgPositional {
			positional++
		}
	}
	if positional != int(calleeT.PositionalCount) {
		c.errorf(n.Span, diag.CallArityMismatch, calleeT.PositionalCount, positional)
	}
	pi := 0
	for _, arg := range args {
		at := c.CheckExpr(arg.Value)
		switch arg.Kind {
		case ast.ArgPositional:
			if pi < len(params) {
				if !c.canAssign(params[pi].Type, at) {
					c.errorf(n.Span, diag.CallArgTypeMismatch, at, params[pi].Type)
				}
			}
			pi++
		case ast.ArgLabeled:
			found := false
			for _, p := range params {
				if p.Label == arg.Label {
					found = true
					if !c.canAssign(p.Type, at) {
						c.errorf(n.Span, diag.CallArgTypeMismatch, at, p.Type)
					}
					break
				}
			}
			if !found {
				c.errorf(n.Span, diag.CallUnknownLabel, arg.Label)
			}
		case ast.ArgNamedGroup:
			for _, entry := range c.A.NamedGroup(arg.GroupBegin, arg.GroupCount) {
				et := c.CheckExpr(entry.Value)
				found := false
				for _, p := range params {
					if p.Label == entry.Label {
						found = true
						if !c.canAssign(p.Type, et) {
							c.errorf(n.Span, diag.CallArgTypeMismatch, et, p.Type)
						}
						break
					}
				}
				if !found {
					c.errorf(n.Span, diag.CallUnknownLabel, entry.Label)
				}
			}
		}
	}
	return calleeT.Ret
}

func (c *Checker) checkIfExpr(n ast.Node) typepool.TypeID {
	c.CheckExpr(n.A)
	thenTy := c.CheckExpr(n.B)
	if n.C == ast.NoNode {
		return c.Pool.BuiltinID(typepool.Unit)
	}
	elseTy := c.CheckExpr(n.C)
	if thenTy != elseTy && !c.canAssign(thenTy, elseTy) && !c.canAssign(elseTy, thenTy) {
		return c.Pool.Error()
	}
	return thenTy
}

func (c *Checker) checkBlockExpr(id ast.NodeID, n ast.Node) typepool.TypeID {
	for _, k := range c.A.Children(n.ChildrenBegin, n.ChildrenCnt) {
		c.CheckStmt(k)
	}
	if n.B == ast.NoNode {
		return c.Pool.BuiltinID(typepool.Unit)
	}
	return c.CheckExpr(n.B)
}

func (c *Checker) checkLoopExpr(n ast.Node) typepool.TypeID {
	c.CheckExpr(n.LoopIter)
	c.loopDepth++
	prevBreak := c.breakType
	c.breakType = typepool.InvalidType()
	c.CheckStmt(n.LoopBody)
	result := c.breakType
	c.breakType = prevBreak
	c.loopDepth--
	if !c.Pool.IsValid(result) {
		return c.Pool.BuiltinID(typepool.Unit)
	}
	return result
}

func (c *Checker) checkCast(id ast.NodeID, n ast.Node) typepool.TypeID {
	c.CheckExpr(n.A)
	return n.Type // target type was already recorded on the node by the parser
}
