package macro

import (
	"github.com/GungYe918/parus-sub001/src/ast"
	"github.com/GungYe918/parus-sub001/src/diag"
)

// Run walks the AST rooted at root (normally the program's top-level block
// from parser.ParseProgram), replacing every KMacroCallExpr/Stmt/Item node
// it finds with its expansion, recursively, until no macro calls remain or
// a budget is exceeded, then resolves every type-position macro call parsing
// recorded in the arena's type-node side table (see resolveTypeMacros). depth
// tracks nested-expansion recursion for the budget check.
func (e *Expander) Run(root ast.NodeID) ast.NodeID {
	root = e.walk(root, 0, 0)
	e.resolveTypeMacros()
	return root
}

// resolveTypeMacros expands every `$name(...)` call parseMacroCallType left
// pending in a type position, substituting the placeholder TypeID it minted
// at parse time with the real resolution everywhere the arena embeds it.
// Scope depth for a type-position call isn't tracked by the arena's type-node
// side table, so lookup runs at caller depth 0, where only top-level macro
// declarations are visible; macros declared only inside a nested scope cannot be reached
// from type position, a known limitation (see DESIGN.md).
func (e *Expander) resolveTypeMacros() {
	for _, tn := range e.A.PendingTypeMacros() {
		raw := e.A.MacroTokens(tn.MacroTokBegin, tn.MacroTokCnt)
		node, ok := e.ExpandCall(tn.MacroName, raw, 0, CtxType, tn.Span, 1)
		if !ok {
			continue
		}
		resolved := e.A.Get(node)
		if resolved.Kind != ast.KTypeValue {
			e.Bag.Errorf(diag.MacroReparseFail, tn.Span, tn.MacroName)
			continue
		}
		e.A.ReplaceType(tn.Resolved, resolved.Type)
	}
}

func (e *Expander) walk(id ast.NodeID, scopeDepth, expandDepth int) ast.NodeID {
	if id == ast.NoNode {
		return id
	}
	n := e.A.Get(id)

	switch n.Kind {
	case ast.KMacroCallExpr, ast.KMacroCallItem, ast.KMacroCallStmt:
		raw := e.A.MacroTokens(n.MacroTokBegin, n.MacroTokCnt)
		ctx := CtxExpr
		switch n.Kind {
		case ast.KMacroCallItem:
			ctx = CtxItem
		case ast.KMacroCallStmt:
			ctx = CtxStmt
		}
		expanded, ok := e.ExpandCall(n.Name, raw, scopeDepth, ctx, n.Span, expandDepth+1)
		if !ok {
			return id
		}
		return e.walk(expanded, scopeDepth, expandDepth+1)
	case ast.KBlockStmt:
		childScope := scopeDepth + 1
		kids := e.A.Children(n.ChildrenBegin, n.ChildrenCnt)
		newKids := make([]ast.NodeID, len(kids))
		for i, k := range kids {
			newKids[i] = e.walk(k, childScope, expandDepth)
		}
		begin, count := e.A.PushChildren(newKids)
		n.ChildrenBegin, n.ChildrenCnt = begin, count
		if n.B != ast.NoNode {
			n.B = e.walk(n.B, childScope, expandDepth)
		}
		e.A.Set(id, n)
		return id
	default:
		if n.A != ast.NoNode {
			n.A = e.walk(n.A, scopeDepth, expandDepth)
		}
		if n.B != ast.NoNode {
			n.B = e.walk(n.B, scopeDepth, expandDepth)
		}
		if n.C != ast.NoNode {
			n.C = e.walk(n.C, scopeDepth, expandDepth)
		}
		e.A.Set(id, n)
		return id
	}
}
