// Package ast is the append-only arena holding every expression and
// statement record produced by the parser (and later annotated by the
// resolver and type checker). It generalizes the teacher's ir.Node — a
// single flat node type carrying a Kind tag and a slice of child pointers —
// into an index-based arena: every cross-reference is a 32-bit id into this
// arena or one of its side tables, never a pointer, and no id is ever
// reused (spec.md section 3).
package ast

import (
	"github.com/GungYe918/parus-sub001/src/diag"
	"github.com/GungYe918/parus-sub001/src/typepool"
)

// ----------------------------
// ----- Type definitions -----
// ----------------------------

// NodeID is the shared id space for every expression and statement record.
// Child slots Expr.a/b/c are NodeIDs reinterpreted according to Kind, per
// spec.md's "id-space overloads" invariant (e.g. a block Expr's `a` holds a
// StmtId, its `b` holds a tail ExprId).
type NodeID uint32

// NoNode is the invalid/absent NodeID. Valid node ids start at 1 so that the
// zero value of a NodeID field reliably means "absent".
const NoNode NodeID = 0

// ExprID / StmtID / TypeNodeID / ParamIndex are the id-space aliases spec.md
// names explicitly. They share the NodeID space (ExprID, StmtID) or their
// own side-table index spaces (TypeNodeID, ParamIndex), typed distinctly so
// callers cannot accidentally mix an expression id with a parameter index.
type ExprID = NodeID
type StmtID = NodeID
type TypeNodeID uint32
type ParamIndex uint32

// Kind discriminates every expression, statement, and declaration record
// the arena can hold.
type Kind int

const (
	KInvalid Kind = iota

	// ----- literal / primary expressions -----
	KIntLit
	KFloatLit
	KStringLit
	KCharLit
	KBoolLit
	KNullLit
	KIdent
	KArrayLit
	KFieldInitLit // struct literal: { label: value, ... }

	// ----- compound expressions -----
	KBorrow  // &place / &mut place
	KEscape  // &&place
	KUnary   // -x !x ^x
	KBinary  // x + y, etc.
	KAssign  // lhs = rhs (also +=, -=, ??=, ...)
	KPostfixInc
	KCall
	KIndex
	KField
	KIfExpr
	KBlockExpr
	KLoopExpr
	KCast // as / as? / as!
	KTernary

	// ----- statements -----
	KEmptyStmt
	KExprStmt
	KVarDecl
	KIfStmt
	KWhileStmt
	KDoScopeStmt
	KDoWhileStmt
	KManualStmt
	KReturnStmt
	KBreakStmt
	KContinueStmt
	KSwitchStmt
	KCommitStmt
	KRecastStmt
	KBlockStmt // holds StmtID list + optional tail ExprID, per block invariant

	// ----- declarations / items -----
	KFnDecl
	KFieldDecl
	KActsDecl
	KUseImport
	KUseTypeAlias
	KUsePathAlias
	KUseTextSubst
	KUseFfiFunc
	KUseFfiStruct
	KNestDecl
	KMacroDecl
	KMacroCallExpr
	KMacroCallStmt
	KMacroCallItem

	// KTypeValue is a synthetic node produced only by ParseTypeFull's
	// caller to carry a type-position macro expansion's resolved TypeID
	// (stored in Node.Type) back through the uniform NodeID-returning
	// macro.ReparseFunc signature; it never appears in a parsed program's
	// real tree.
	KTypeValue

	KError
)

// CastKind discriminates the three cast spellings.
type CastKind int

const (
	CastAs CastKind = iota
	CastAsQ
	CastAsBang // force cast ("as!"); carries a MayTrap effect downstream.
)

// BindKind used both by var decls (let/set/static) further down and by the
// resolver's ResolvedSymbol.
type BindKind int

const (
	BindLocalVar BindKind = iota
	BindParam
	BindFn
	BindType
)

// Node is one record in the arena. Only the fields relevant to Kind are
// populated; A/B/C are the three generic child slots spec.md names, Lit
// carries literal payload data, and Aux is kind-specific scalar data
// (operator tag, cast kind, mutability flag, ...).
type Node struct {
	Kind Kind
	Span diag.Span

	A, B, C NodeID // generic child slots; meaning depends on Kind.

	Lit interface{} // IntLit -> int64, FloatLit -> float64, StringLit/CharLit -> string, BoolLit -> bool.

	Aux int // operator tag / cast kind / bool flags packed as small ints, per Kind.

	Name string // identifier text, field/label name, path text, etc., when applicable.

	Type typepool.TypeID // resolved type, filled in by the type checker; typepool.InvalidType() until then.

	ArgsBegin, ArgsCount       uint32 // KCall
	ChildrenBegin, ChildrenCnt uint32 // KBlockStmt statement list, KArrayLit elements, KFieldInitLit members
	ParamsBegin, ParamsCount   uint32 // KFnDecl
	CasesBegin, CasesCount     uint32 // KSwitchStmt
	AttrsBegin, AttrsCount     uint32 // KFnDecl attributes
	PathBegin, PathCount       uint32 // identifiers/use-decls with qualified paths
	MacroTokBegin, MacroTokCnt uint32 // KMacroCallExpr/Stmt/Item raw argument tokens

	LoopIter NodeID // KLoopExpr / while / for-style loops: iteration expr, if any
	LoopBody StmtID // KLoopExpr / while: loop body block

	ResolvedSym int32 // index into resolve.Table once bound, -1 until resolved
}

// Arg is one call argument: positional, labeled, or (at most one, trailing)
// named-group whose members are themselves a child slice.
type Arg struct {
	Kind          ArgKind
	Value         ExprID // positional / labeled value
	Label         string // ArgLabeled
	GroupBegin    uint32 // ArgNamedGroup: slice into Arena.namedGroupEntries
	GroupCount    uint32
}

type ArgKind int

const (
	ArgPositional ArgKind = iota
	ArgLabeled
	ArgNamedGroup
)

// NamedGroupEntry is one `label: value` pair inside a trailing named-group
// call argument.
type NamedGroupEntry struct {
	Label string
	Value ExprID
}

// Param is one function parameter.
type Param struct {
	Name       string
	Type       typepool.TypeID
	Label      string // "" if purely positional
	HasDefault bool
	Default    ExprID
	IsMut      bool
}

// FieldMember is one member of a `field` (struct) declaration.
type FieldMember struct {
	Name string
	Type typepool.TypeID
}

// SwitchCase is one `switch` arm: a literal pattern (nil Pattern means the
// `default` arm) plus a body block.
type SwitchCase struct {
	Pattern  ExprID // NoNode for `default`
	IsDefault bool
	Body     StmtID
}

// TypeNode records a macro-expandable type-syntax spelling alongside its
// resolved TypeID, so the macro expander's `parse_type_full_for_macro` can
// capture both the syntax and the resolution. When IsMacroCall is set,
// Resolved holds a unique placeholder type (interned by parseMacroCallType
// at parse time, before any macro declaration is known) rather than a real
// resolution; MacroName/MacroTokBegin/MacroTokCnt are the raw `$name(...)`
// call the macro expander's type-position pass later expands and
// re-parses via ParseTypeFull, substituting the placeholder for the real
// type everywhere it was embedded (see ast.Arena.ReplaceType).
type TypeNode struct {
	Resolved typepool.TypeID
	Span     diag.Span

	IsMacroCall   bool
	MacroName     string
	MacroTokBegin uint32
	MacroTokCnt   uint32
}
