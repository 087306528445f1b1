package resolve

import (
	"strings"

	"github.com/GungYe918/parus-sub001/src/ast"
	"github.com/GungYe918/parus-sub001/src/diag"
)

// walkStmt performs the structured (scoped) walk over one statement node.
func (r *Resolver) walkStmt(id ast.NodeID) {
	if id == ast.NoNode {
		return
	}
	n := r.A.Get(id)
	switch n.Kind {
	case ast.KBlockStmt:
		r.pushScope()
		for _, k := range r.A.Children(n.ChildrenBegin, n.ChildrenCnt) {
			r.walkStmt(k)
		}
		r.walkExpr(n.B)
		r.popScope()
	case ast.KVarDecl:
		r.walkExpr(n.A)
		sym := r.declare(n.Name, BindLocalVar, n.Span)
		r.table.Resolved[id] = ResolvedSymbol{Kind: BindLocalVar, ID: sym, Span: n.Span}
	case ast.KWhileStmt:
		r.walkExpr(n.A)
		r.pushScope()
		r.walkStmt(n.B)
		r.popScope()
	case ast.KDoWhileStmt:
		r.pushScope()
		r.walkStmt(n.A)
		r.popScope()
		r.walkExpr(n.B)
	case ast.KDoScopeStmt, ast.KManualStmt:
		r.pushScope()
		r.walkStmt(n.A)
		r.popScope()
	case ast.KSwitchStmt:
		r.walkExpr(n.A)
		for _, c := range r.A.Cases(n.CasesBegin, n.CasesCount) {
			r.walkExpr(c.Pattern)
			r.pushScope()
			r.walkStmt(c.Body)
			r.popScope()
		}
	case ast.KReturnStmt, ast.KBreakStmt:
		r.walkExpr(n.A)
	case ast.KExprStmt:
		r.walkExpr(n.A)
	case ast.KFnDecl:
		sym := r.declareFn(n.Name, id, n.Span)
		r.table.Resolved[id] = ResolvedSymbol{Kind: BindFn, ID: sym, Span: n.Span}
		r.pushScope()
		for _, pm := range r.A.Params(n.ParamsBegin, n.ParamsCount) {
			r.declare(pm.Name, BindParam, n.Span)
			if pm.HasDefault {
				r.walkExpr(pm.Default)
			}
		}
		r.walkStmt(n.B)
		r.popScope()
	case ast.KFieldDecl, ast.KNestDecl:
		if n.Kind == ast.KNestDecl && n.A != ast.NoNode {
			r.nsStack = append(r.nsStack, n.Name)
			r.pushScope()
			r.walkStmt(n.A)
			r.popScope()
			r.nsStack = r.nsStack[:len(r.nsStack)-1]
		}
	case ast.KActsDecl:
		r.pushScope()
		r.walkStmt(n.B)
		r.popScope()
	}
}

// walkExpr performs the scoped walk over one expression node, resolving
// every Ident it finds per the order documented in section 4.5.
func (r *Resolver) walkExpr(id ast.NodeID) {
	if id == ast.NoNode {
		return
	}
	n := r.A.Get(id)
	switch n.Kind {
	case ast.KIdent:
		r.resolveIdent(id, n)
	case ast.KBlockStmt:
		r.pushScope()
		r.walkStmt(id)
		r.popScope()
	case ast.KLoopExpr:
		r.pushScope()
		r.walkExpr(n.LoopIter)
		r.walkStmt(n.LoopBody)
		r.popScope()
	case ast.KIfExpr, ast.KTernary:
		r.walkExpr(n.A)
		r.walkExpr(n.B)
		r.walkExpr(n.C)
	case ast.KCall:
		r.walkExpr(n.A)
		for _, arg := range r.A.Args(n.ArgsBegin, n.ArgsCount) {
			r.walkExpr(arg.Value)
		}
	default:
		if n.A != ast.NoNode {
			r.walkExpr(n.A)
		}
		if n.B != ast.NoNode {
			r.walkExpr(n.B)
		}
		if n.C != ast.NoNode {
			r.walkExpr(n.C)
		}
	}
}

// isActsPath reports whether name matches `T::acts(Set)::member`, deferred
// entirely to the type checker.
func isActsPath(name string) bool {
	return strings.Contains(name, "::acts(")
}

func (r *Resolver) resolveIdent(id ast.NodeID, n ast.Node) {
	name := n.Name
	if isActsPath(name) {
		return
	}
	head := name
	if i := strings.Index(name, "::"); i >= 0 {
		head = name[:i]
	}
	if alias, ok := r.table.Aliases[head]; ok {
		name = alias + name[len(head):]
	}
	if s, ok := r.lookupLexical(name); ok {
		r.table.Resolved[id] = ResolvedSymbol{Kind: s.kind, ID: s.id, Span: n.Span}
		return
	}
	if declID, ok := r.table.Namespace[name]; ok {
		r.table.Resolved[id] = ResolvedSymbol{Kind: BindFn, ID: int32(declID), Span: n.Span}
		return
	}
	if strings.Contains(name, "::") {
		r.Bag.Errorf(diag.UndefinedName, n.Span, name)
		return
	}
	for i := len(r.nsStack); i > 0; i-- {
		prefix := strings.Join(r.nsStack[:i], "::")
		full := prefix + "::" + name
		if declID, ok := r.table.Namespace[full]; ok {
			r.table.Resolved[id] = ResolvedSymbol{Kind: BindFn, ID: int32(declID), Span: n.Span}
			return
		}
	}
	r.Bag.Errorf(diag.UndefinedName, n.Span, name)
}

func (r *Resolver) lookupLexical(name string) (symbolEntry, bool) {
	for i := len(r.scopes) - 1; i >= 0; i-- {
		if s, ok := r.scopes[i].find(name); ok {
			return s, true
		}
	}
	return symbolEntry{}, false
}
