// Package capability implements the borrow/escape dataflow analysis that
// gates OIR lowering: active-borrow overlap rules, per-symbol move-by-escape
// tracking, and EscapeHandleMeta emission. It is the idiomatic-Go
// re-expression of a single tagged-union-instruction C++ analyzer —
// represented here as a dispatch over sir.OpKind instead of a variant visit.
package capability

import (
	"github.com/GungYe918/parus-sub001/src/diag"
	"github.com/GungYe918/parus-sub001/src/sir"
	"github.com/GungYe918/parus-sub001/src/typepool"
)

// ProjectionKind discriminates one step of a PlaceRef's path.
type ProjectionKind int

const (
	ProjIndex ProjectionKind = iota
	ProjField
)

// Projection is one Index/Field step of a place path.
type Projection struct {
	Kind          ProjectionKind
	HasConstIndex bool
	ConstIndex    uint64
	FieldName     string
}

// PlaceRef names a storage location: a root local symbol plus a path of
// Index/Field projections.
type PlaceRef struct {
	Root int32
	Proj []Projection
}

// projectionDisjoint reports whether two projections are provably disjoint
// (different constant index, or different field name).
func projectionDisjoint(a, b Projection) bool {
	if a.Kind != b.Kind {
		return false
	}
	if a.Kind == ProjField {
		return a.FieldName != "" && b.FieldName != "" && a.FieldName != b.FieldName
	}
	return a.HasConstIndex && b.HasConstIndex && a.ConstIndex != b.ConstIndex
}

// placeOverlap reports whether two places may alias: same root and no
// provably-disjoint projection pair.
func placeOverlap(a, b PlaceRef) bool {
	if a.Root != b.Root {
		return false
	}
	n := len(a.Proj)
	if len(b.Proj) < n {
		n = len(b.Proj)
	}
	for i := 0; i < n; i++ {
		if projectionDisjoint(a.Proj[i], b.Proj[i]) {
			return false
		}
	}
	return true
}

func projectionEqual(a, b Projection) bool {
	if a.Kind != b.Kind {
		return false
	}
	if a.Kind == ProjIndex {
		return a.HasConstIndex == b.HasConstIndex && a.ConstIndex == b.ConstIndex
	}
	return a.FieldName == b.FieldName
}

func placeEqual(a, b PlaceRef) bool {
	if a.Root != b.Root || len(a.Proj) != len(b.Proj) {
		return false
	}
	for i := range a.Proj {
		if !projectionEqual(a.Proj[i], b.Proj[i]) {
			return false
		}
	}
	return true
}

// ActiveBorrow is one live `&place`/`&mut place` value.
type ActiveBorrow struct {
	Place    PlaceRef
	IsMut    bool
	OwnerSym int32 // -1 for a temporary (unbound) borrow
}

func borrowEqual(a, b ActiveBorrow) bool {
	return a.IsMut == b.IsMut && a.OwnerSym == b.OwnerSym && placeEqual(a.Place, b.Place)
}

// appendUniqueBorrow inserts item into dst, upgrading an existing same-
// owner/place entry to mut rather than duplicating (conservative merge:
// prevents a missed conflict after a CFG join).
func appendUniqueBorrow(dst []ActiveBorrow, item ActiveBorrow) []ActiveBorrow {
	for i, cur := range dst {
		if borrowEqual(cur, item) {
			return dst
		}
		if cur.OwnerSym == item.OwnerSym && placeEqual(cur.Place, item.Place) && cur.IsMut != item.IsMut {
			dst[i].IsMut = true
			return dst
		}
	}
	return append(dst, item)
}

func mergeBorrowSets(a, b []ActiveBorrow) []ActiveBorrow {
	out := make([]ActiveBorrow, 0, len(a)+len(b))
	for _, x := range a {
		out = appendUniqueBorrow(out, x)
	}
	for _, x := range b {
		out = appendUniqueBorrow(out, x)
	}
	return out
}

func borrowSetEqual(a, b []ActiveBorrow) bool {
	if len(a) != len(b) {
		return false
	}
	for _, x := range a {
		found := false
		for _, y := range b {
			if borrowEqual(x, y) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// SymbolTraits records the mutability/storage-class facts capability
// analysis needs about one local symbol, gathered once per function from
// its VarDecls and ParamInfo.
type SymbolTraits struct {
	IsMut    bool
	IsStatic bool
}

// EscapeBoundaryKind classifies the use-context an `&&place` value appeared
// in, per spec.md section 4.8's kind-derivation rule.
type EscapeBoundaryKind int

const (
	BoundaryNone EscapeBoundaryKind = iota
	BoundaryReturn
	BoundaryCallArg
)

// EscapeHandleKind classifies how an escape value will be represented once
// it reaches an ABI boundary.
type EscapeHandleKind int

const (
	HandleStackSlot EscapeHandleKind = iota
	HandleCallerSlot
	HandleTrivial
)

// EscapeHandleMeta is the per-`&&`-value metadata capability analysis
// registers; OIR's gate requires every entry's MaterializeCount to be 0.
type EscapeHandleMeta struct {
	EscapeValue       sir.ValueID
	OriginSym         int32 // -1 if untraceable to a symbol
	PointeeType       typepool.TypeID
	FromStatic        bool
	HasDrop           bool
	Boundary          EscapeBoundaryKind
	Kind              EscapeHandleKind
	MaterializeCount  int
}

// PerSymbolState is one symbol's capability-analysis summary, reported for
// observability per spec.md section 4.8.
type PerSymbolState struct {
	ActiveSharedBorrows int
	ActiveMutBorrow     bool
	MovedByEscape       bool
}

// Result is the complete output of analyzing one function's (or the
// module's top-level initializer's) SIR body. Analyze returns one Result
// per unit rather than a single module-wide aggregate, because local
// symbol ids are reused across functions (the SIR builder restarts its
// local symbol counter at 0 for each function), so a single shared StateBySymbol map would
// collide entries from distinct functions.
type Result struct {
	Func                    string
	OK                      bool
	ErrorCount              int
	StateBySymbol           map[int32]PerSymbolState
	EscapeHandles           []EscapeHandleMeta
	EscapeHandleCount       int
	MaterializedHandleCount int

	// bag holds this unit's raised diagnostics until Analyze merges them
	// into the caller's shared bag.
	bag *diag.Bag
}

// noSymbol marks "no traceable root symbol", mirroring k_invalid_symbol.
const noSymbol int32 = -1

// Results is the complete per-unit output of analyzing a whole SIR module.
type Results []*Result

// OK reports whether every analyzed unit passed with zero capability
// errors, the precondition spec.md section 4.8 assigns the OIR gate.
func (rs Results) OK() bool {
	for _, r := range rs {
		if r == nil || !r.OK {
			return false
		}
	}
	return true
}

// AllEscapeHandles flattens every unit's escape-handle metadata, the shape
// the OIR builder and escape-handle verifier consume.
func (rs Results) AllEscapeHandles() []EscapeHandleMeta {
	var out []EscapeHandleMeta
	for _, r := range rs {
		out = append(out, r.EscapeHandles...)
	}
	return out
}
