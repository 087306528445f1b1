// Package macro implements the hygienic macro expansion pass that runs
// after parsing and before name resolution: it walks the AST looking for
// `$name(args...)` call nodes, matches declarations by lexical scope, binds
// captures, substitutes templates, and re-parses the result through the
// parser package's secondary entry points.
package macro

import (
	"github.com/GungYe918/parus-sub001/src/ast"
	"github.com/GungYe918/parus-sub001/src/diag"
	"github.com/GungYe918/parus-sub001/src/token"
	"github.com/GungYe918/parus-sub001/src/typepool"
)

// Context is the syntactic position a macro call or arm output is valid in.
type Context int

const (
	CtxExpr Context = iota
	CtxStmt
	CtxItem
	CtxType
	CtxToken
)

// FragmentKind classifies a capture's expected shape.
type FragmentKind int

const (
	FragExpr FragmentKind = iota
	FragStmt
	FragItem
	FragType
	FragTt
	FragIdent
	FragPath
	FragBlock
)

// Capture is one named binding in an arm's parameter list.
type Capture struct {
	Name     string
	Kind     FragmentKind
	Variadic bool
}

// Arm is one pattern/template pair within a Group.
type Arm struct {
	Captures []Capture
	Template []token.Token
}

// Group binds a single Context to an ordered list of candidate Arms.
type Group struct {
	Context Context
	Arms    []Arm
}

// Decl is a full macro declaration: a name plus its ordered groups, visible
// from some lexical scope depth (deeper declarations shadow shallower ones
// with the same name; among equal depth, earlier index wins ties).
type Decl struct {
	Name       string
	Groups     []Group
	ScopeDepth int
	Index      int
}

// Budget bounds expansion work. Defaults differ between batch and
// interactive drivers; Clamp enforces the hard ceilings regardless of what
// a caller requests.
type Budget struct {
	MaxSteps int
	MaxDepth int
}

const (
	hardMaxSteps = 100000
	hardMaxDepth = 128

	defaultBatchSteps  = 20000
	defaultBatchDepth  = 64
	defaultInteractSteps = 2000
	defaultInteractDepth = 16
)

// DefaultBatchBudget is the budget used by the batch (file/all) driver.
func DefaultBatchBudget() Budget { return Budget{MaxSteps: defaultBatchSteps, MaxDepth: defaultBatchDepth} }

// DefaultInteractiveBudget is the smaller budget used by the `--expr`/
// `--stmt` interactive driver surface.
func DefaultInteractiveBudget() Budget {
	return Budget{MaxSteps: defaultInteractSteps, MaxDepth: defaultInteractDepth}
}

// clampBudget enforces the hard maxima on entry, per spec's clamp_budget.
func clampBudget(b Budget) Budget {
	if b.MaxSteps <= 0 || b.MaxSteps > hardMaxSteps {
		b.MaxSteps = hardMaxSteps
	}
	if b.MaxDepth <= 0 || b.MaxDepth > hardMaxDepth {
		b.MaxDepth = hardMaxDepth
	}
	return b
}

// ReparseFunc dispatches a fully-substituted, Eof-terminated token stream
// back into the parser for the given output context. It is supplied by the
// caller (normally parser.ParseExprFull and siblings) to avoid an import
// cycle between macro and parser.
type ReparseFunc func(ctx Context, toks []token.Token) (ast.NodeID, bool)

// Expander owns the declaration table and shared arenas/diagnostics for one
// expansion pass.
type Expander struct {
	A       *ast.Arena
	Pool    *typepool.Pool
	Bag     *diag.Bag
	Reparse ReparseFunc
	Budget  Budget

	decls []Decl
	steps int
}

// NewExpander constructs an Expander with its budget clamped to the hard
// maxima.
func NewExpander(a *ast.Arena, pool *typepool.Pool, bag *diag.Bag, reparse ReparseFunc, budget Budget) *Expander {
	return &Expander{A: a, Pool: pool, Bag: bag, Reparse: reparse, Budget: clampBudget(budget)}
}

// Declare registers a macro declaration visible from scopeDepth. Index
// should be the declaration's source order among same-depth declarations,
// used to break ties (earlier index wins).
func (e *Expander) Declare(d Decl) { e.decls = append(e.decls, d) }

// lookup finds the best-matching declaration for name, visible at
// callerDepth: deepest scope wins, earlier index breaks ties among equals.
func (e *Expander) lookup(name string, callerDepth int) (Decl, bool) {
	best := -1
	for i, d := range e.decls {
		if d.Name != name || d.ScopeDepth > callerDepth {
			continue
		}
		if best == -1 {
			best = i
			continue
		}
		cur := e.decls[best]
		if d.ScopeDepth > cur.ScopeDepth || (d.ScopeDepth == cur.ScopeDepth && d.Index < cur.Index) {
			best = i
		}
	}
	if best == -1 {
		return Decl{}, false
	}
	return e.decls[best], true
}

// chooseGroup picks the group matching ctx, falling back to the first
// other group in declaration order if no exact match exists.
func chooseGroup(d Decl, ctx Context) (Group, bool) {
	for _, g := range d.Groups {
		if g.Context == ctx {
			return g, true
		}
	}
	if len(d.Groups) > 0 {
		return d.Groups[0], true
	}
	return Group{}, false
}
