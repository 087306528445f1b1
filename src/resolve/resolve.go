// Package resolve implements the two-pass name resolver: a predeclaration
// walk over namespace bodies that registers fully-qualified function,
// field, and acts symbols, followed by a scoped walk that binds every
// name-bearing expression, declaration, and parameter to a ResolvedSymbol.
package resolve

import (
	"strings"

	"github.com/GungYe918/parus-sub001/src/ast"
	"github.com/GungYe918/parus-sub001/src/diag"
)

// BindKind classifies what a resolved name refers to.
type BindKind int

const (
	BindLocalVar BindKind = iota
	BindParam
	BindFn
	BindType
)

// ResolvedSymbol is the resolver's output record for one name occurrence.
type ResolvedSymbol struct {
	Kind BindKind
	ID   int32
	Span diag.Span
}

// ShadowPolicy controls what happens when a new declaration's name already
// exists in an enclosing (not the same) scope.
type ShadowPolicy int

const (
	ShadowAllow ShadowPolicy = iota
	ShadowWarn
	ShadowError
)

type symbolEntry struct {
	name string
	kind BindKind
	id   int32
}

// scope is one lexical level: blocks, function bodies, loop headers, and
// switch arms each push one.
type scope struct {
	symbols []symbolEntry
}

func (s *scope) find(name string) (symbolEntry, bool) {
	for i := len(s.symbols) - 1; i >= 0; i-- {
		if s.symbols[i].name == name {
			return s.symbols[i], true
		}
	}
	return symbolEntry{}, false
}

// Table is the resolver's full output: the resolved-symbol table keyed by
// AST node id, plus the namespace symbol table built during predeclaration.
type Table struct {
	Resolved map[ast.NodeID]ResolvedSymbol
	// Namespace maps a fully-qualified name (e.g. "Outer::member") to its
	// declaring node id, populated by the predeclaration walk.
	Namespace map[string]ast.NodeID
	// Aliases records import-alias rewrites applied during the walk, keyed
	// by the head segment that was rewritten.
	Aliases map[string]string
}

func newTable() *Table {
	return &Table{
		Resolved:  make(map[ast.NodeID]ResolvedSymbol),
		Namespace: make(map[string]ast.NodeID),
		Aliases:   make(map[string]string),
	}
}

// Resolver carries the mutable state of one resolution pass.
type Resolver struct {
	A      *ast.Arena
	Bag    *diag.Bag
	Policy ShadowPolicy

	table    *Table
	scopes   []scope
	nsStack  []string
	nextSym  int32
	nextFn   int32
}

// New constructs a Resolver over arena a, reporting diagnostics to bag.
func New(a *ast.Arena, bag *diag.Bag, policy ShadowPolicy) *Resolver {
	return &Resolver{A: a, Bag: bag, Policy: policy, table: newTable()}
}

// Run performs both passes over root (the program's top-level block) and
// returns the populated Table.
func (r *Resolver) Run(root ast.NodeID) *Table {
	r.predeclare(root, nil)
	r.pushScope()
	r.walkStmt(root)
	r.popScope()
	return r.table
}

func (r *Resolver) pushScope() { r.scopes = append(r.scopes, scope{}) }
func (r *Resolver) popScope()  { r.scopes = r.scopes[:len(r.scopes)-1] }

func (r *Resolver) currentScope() *scope { return &r.scopes[len(r.scopes)-1] }

// declare registers name in the current scope, applying the shadowing
// policy against enclosing scopes and rejecting same-scope duplicates
// outright (except for BindFn, which allows overload re-entry).
func (r *Resolver) declare(name string, kind BindKind, span diag.Span) int32 {
	cur := r.currentScope()
	for _, s := range cur.symbols {
		if s.name == name {
			if kind == BindFn && s.kind == BindFn {
				return s.id
			}
			r.Bag.Errorf(diag.DuplicateDecl, span, name)
			return s.id
		}
	}
	for i := len(r.scopes) - 2; i >= 0; i-- {
		if _, ok := r.scopes[i].find(name); ok {
			switch r.Policy {
			case ShadowWarn:
				r.Bag.Warnf(diag.Shadowing, span, name)
			case ShadowError:
				r.Bag.Errorf(diag.ShadowingNotAllowed, span, name)
			}
			break
		}
	}
	id := r.nextSym
	r.nextSym++
	cur.symbols = append(cur.symbols, symbolEntry{name: name, kind: kind, id: id})
	return id
}

// declareFn registers a function name in the current scope using its own
// declaring node id as the symbol id (rather than the generic counter),
// since downstream stages resolve a function symbol straight back to its
// FnDecl node to read its signature. Re-declaring the same name with
// BindFn reuses the existing entry (overloading), matching declare.
func (r *Resolver) declareFn(name string, nodeID ast.NodeID, span diag.Span) int32 {
	cur := r.currentScope()
	for _, s := range cur.symbols {
		if s.name == name && s.kind == BindFn {
			return s.id
		}
	}
	id := int32(nodeID)
	cur.symbols = append(cur.symbols, symbolEntry{name: name, kind: BindFn, id: id})
	return id
}

// predeclare walks namespace (`nest`) bodies registering Fn/Field/Acts
// symbols under their fully-qualified path so forward references resolve.
func (r *Resolver) predeclare(id ast.NodeID, prefix []string) {
	if id == ast.NoNode {
		return
	}
	n := r.A.Get(id)
	switch n.Kind {
	case ast.KBlockStmt:
		for _, k := range r.A.Children(n.ChildrenBegin, n.ChildrenCnt) {
			r.predeclare(k, prefix)
		}
	case ast.KNestDecl:
		inner := append(append([]string{}, prefix...), n.Name)
		r.table.Namespace[strings.Join(inner, "::")] = id
		if n.A != ast.NoNode {
			r.predeclare(n.A, inner)
		}
	case ast.KFnDecl:
		qual := qualify(prefix, n.Name)
		r.table.Namespace[qual] = id
	case ast.KFieldDecl:
		qual := qualify(prefix, n.Name)
		r.table.Namespace[qual] = id
	case ast.KActsDecl:
		qual := qualify(prefix, n.Name)
		r.table.Namespace[qual] = id
		if n.Aux == 0 { // namespace-acts: member fns registered as Outer::member
			innerPrefix := append(append([]string{}, prefix...), n.Name)
			body := r.A.Get(n.B)
			for _, k := range r.A.Children(body.ChildrenBegin, body.ChildrenCnt) {
				kn := r.A.Get(k)
				if kn.Kind == ast.KFnDecl {
					r.table.Namespace[qualify(innerPrefix, kn.Name)] = k
				}
			}
		}
	}
}

func qualify(prefix []string, name string) string {
	if len(prefix) == 0 {
		return name
	}
	return strings.Join(prefix, "::") + "::" + name
}
