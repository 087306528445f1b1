package check

import (
	"github.com/GungYe918/parus-sub001/src/ast"
	"github.com/GungYe918/parus-sub001/src/diag"
	"github.com/GungYe918/parus-sub001/src/typepool"
)

// CheckStmt type-checks one statement, recursing into nested expressions
// and blocks.
func (c *Checker) CheckStmt(id ast.NodeID) {
	if id == ast.NoNode {
		return
	}
	n := c.A.Get(id)
	switch n.Kind {
	case ast.KEmptyStmt, ast.KContinueStmt:
		// no-op
	case ast.KExprStmt:
		c.CheckExpr(n.A)
	case ast.KVarDecl:
		c.checkVarDecl(id, n)
	case ast.KWhileStmt:
		c.CheckExpr(n.A)
		c.CheckStmt(n.B)
	case ast.KDoWhileStmt:
		c.CheckStmt(n.A)
		c.CheckExpr(n.B)
	case ast.KDoScopeStmt, ast.KManualStmt:
		c.CheckStmt(n.A)
	case ast.KSwitchStmt:
		c.CheckExpr(n.A)
		for _, cs := range c.A.Cases(n.CasesBegin, n.CasesCount) {
			if !cs.IsDefault {
				c.CheckExpr(cs.Pattern)
			}
			c.CheckStmt(cs.Body)
		}
	case ast.KReturnStmt:
		c.CheckExpr(n.A)
	case ast.KBreakStmt:
		c.checkBreak(id, n)
	case ast.KBlockStmt:
		for _, k := range c.A.Children(n.ChildrenBegin, n.ChildrenCnt) {
			c.CheckStmt(k)
		}
		if n.B != ast.NoNode {
			c.CheckExpr(n.B)
		}
	case ast.KFnDecl:
		c.checkFnDecl(id, n)
	case ast.KFieldDecl, ast.KNestDecl:
		if n.Kind == ast.KNestDecl && n.A != ast.NoNode {
			c.CheckStmt(n.A)
		}
	case ast.KActsDecl:
		c.CheckStmt(n.B)
	}
}

func (c *Checker) checkVarDecl(id ast.NodeID, n ast.Node) {
	declared := n.Type
	hasDeclared := c.Pool.IsValid(declared) && declared != typepool.InvalidType()
	isSet := n.Aux&1 != 0 // vdSet bit, mirrors parser/stmt.go's flag layout

	if n.A == ast.NoNode {
		return
	}
	initTy := c.CheckExpr(n.A)
	if isNullType(c.Pool, initTy) && isSet {
		c.errorf(n.Span, diag.SetCannotInferFromNull)
		return
	}
	if isSet {
		c.setType(id, initTy)
		return
	}
	if !hasDeclared {
		return
	}
	if !c.canAssign(declared, initTy) {
		c.errorf(n.Span, diag.TypeLetInitMismatch, initTy, declared)
	}
	if c.isInferInteger(initTy) {
		c.pinInferInteger(n.A, declared)
	}
}

func (c *Checker) checkBreak(id ast.NodeID, n ast.Node) {
	if n.A == ast.NoNode {
		return
	}
	if c.loopDepth == 0 {
		c.errorf(n.Span, diag.TypeBreakValueOnlyInLoopExpr)
		return
	}
	vt := c.CheckExpr(n.A)
	if !c.Pool.IsValid(c.breakType) {
		c.breakType = vt
	}
}

func (c *Checker) checkFnDecl(id ast.NodeID, n ast.Node) {
	prevAttrs := c.funcAttrs
	c.funcAttrs = make(map[string]bool)
	for _, a := range c.A.Attrs(n.AttrsBegin, n.AttrsCount) {
		c.funcAttrs[a] = true
	}
	for _, pm := range c.A.Params(n.ParamsBegin, n.ParamsCount) {
		if pm.HasDefault {
			c.CheckExpr(pm.Default)
		}
	}
	c.CheckStmt(n.B)
	c.funcAttrs = prevAttrs
}
