// Package check implements the type checker: it writes resolved types back
// into expression nodes, maintains a per-expression type cache, and
// enforces the assignability, place, and purity rules of spec.md section
// 4.6. Deferred-integer literals are tracked in a pending-inference table
// keyed by declaration symbol id until a consuming context (or end of
// program) pins them to a concrete width.
package check

import (
	"github.com/GungYe918/parus-sub001/src/ast"
	"github.com/GungYe918/parus-sub001/src/diag"
	"github.com/GungYe918/parus-sub001/src/resolve"
	"github.com/GungYe918/parus-sub001/src/typepool"
)

// stringTypeName is the single-segment NamedUser spelling every string
// literal interns to.
const stringTypeName = "string"

// Checker owns the mutable state of one type-checking pass over a program.
type Checker struct {
	A        *ast.Arena
	Pool     *typepool.Pool
	Bag      *diag.Bag
	Resolved *resolve.Table

	// TypeCache mirrors ast.Node.Type but is kept independently so the
	// checker can answer "what is this expression's type" without a
	// round-trip through the arena during intermediate work.
	TypeCache map[ast.NodeID]typepool.TypeID

	// pendingInteger holds the literal node ids for InferInteger values
	// not yet pinned to a concrete width, keyed by the declaring symbol.
	pendingInteger map[int32][]ast.NodeID

	// loopDepth tracks whether the checker is currently inside a `loop`
	// expression, for the break-value-only-in-loop-expr rule.
	loopDepth int
	// funcAttrs tracks the attribute set (pure/comptime) of the function
	// currently being checked.
	funcAttrs map[string]bool
	// breakType accumulates the unified type of every `break <value>`
	// seen inside the current loop expression.
	breakType typepool.TypeID

	errCount int
}

// New constructs a Checker. resolved may be nil if name resolution was
// skipped (e.g. `--expr` single-expression mode checks a context-free
// fragment).
func New(a *ast.Arena, pool *typepool.Pool, bag *diag.Bag, resolved *resolve.Table) *Checker {
	return &Checker{
		A: a, Pool: pool, Bag: bag, Resolved: resolved,
		TypeCache:      make(map[ast.NodeID]typepool.TypeID),
		pendingInteger: make(map[int32][]ast.NodeID),
	}
}

// setType records id's checked type both in the arena node and the cache.
func (c *Checker) setType(id ast.NodeID, ty typepool.TypeID) {
	n := c.A.Get(id)
	n.Type = ty
	c.A.Set(id, n)
	c.TypeCache[id] = ty
}

func (c *Checker) isInt(ty typepool.TypeID) bool {
	t := c.Pool.Get(ty)
	return t.Kind == typepool.KindBuiltin && t.Builtin.IsInt()
}

func (c *Checker) isFloat(ty typepool.TypeID) bool {
	t := c.Pool.Get(ty)
	return t.Kind == typepool.KindBuiltin && t.Builtin.IsFloat()
}

func (c *Checker) isInferInteger(ty typepool.TypeID) bool {
	t := c.Pool.Get(ty)
	return t.Kind == typepool.KindBuiltin && t.Builtin == typepool.InferInteger
}

func (c *Checker) isOptional(ty typepool.TypeID) bool {
	return c.Pool.Get(ty).Kind == typepool.KindOptional
}

// canAssign implements can_assign_(dst, src): structural equality, null to
// any Optional, and InferInteger to an integer destination only.
func (c *Checker) canAssign(dst, src typepool.TypeID) bool {
	if dst == src {
		return true
	}
	dstT := c.Pool.Get(dst)
	if dstT.Kind == typepool.KindOptional {
		srcT := c.Pool.Get(src)
		if srcT.Kind == typepool.KindBuiltin && srcT.Builtin == typepool.Null {
			return true
		}
		if src == dstT.Elem {
			return true
		}
	}
	if c.isInferInteger(src) && c.isInt(dst) {
		return true
	}
	return false
}

// fitsBuiltinInt reports whether value v fits builtin integer kind b,
// mirroring fits_builtin_int_.
func fitsBuiltinInt(b typepool.Builtin, v int64) bool {
	width := b.BitWidth()
	if width == 0 || width >= 64 {
		return true
	}
	if b.IsSignedInt() {
		lo := -(int64(1) << (width - 1))
		hi := (int64(1) << (width - 1)) - 1
		return v >= lo && v <= hi
	}
	if v < 0 {
		return false
	}
	hi := (int64(1) << width) - 1
	return v <= hi
}

// defaultIntegerWidth returns the smallest signed type (i8..i128) v fits
// in, applied to any InferInteger placeholder unresolved at end-of-program.
func defaultIntegerWidth(v int64) typepool.Builtin {
	for _, b := range []typepool.Builtin{typepool.I8, typepool.I16, typepool.I32, typepool.I64} {
		if fitsBuiltinInt(b, v) {
			return b
		}
	}
	return typepool.I128
}

// FinalizePending resolves every InferInteger placeholder left unresolved
// at end-of-program to the smallest signed type that fits its value.
func (c *Checker) FinalizePending() {
	for _, ids := range c.pendingInteger {
		for _, id := range ids {
			n := c.A.Get(id)
			v, _ := n.Lit.(int64)
			c.setType(id, c.Pool.BuiltinID(defaultIntegerWidth(v)))
		}
	}
	c.pendingInteger = make(map[int32][]ast.NodeID)
}

// ErrorCount reports how many type errors this checker has raised,
// independent of the shared diagnostics bag's contents.
func (c *Checker) ErrorCount() int { return c.errCount }

func (c *Checker) errorf(span diag.Span, code diag.Code, args ...interface{}) {
	c.Bag.Errorf(code, span, args...)
	c.errCount++
}
