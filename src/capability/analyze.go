package capability

import (
	"golang.org/x/sync/errgroup"

	"github.com/GungYe918/parus-sub001/src/diag"
	"github.com/GungYe918/parus-sub001/src/sir"
	"github.com/GungYe918/parus-sub001/src/typepool"
)

// useContext classifies the syntactic position an `&&place` escape value
// appeared in, for the boundary check spec.md section 4.8 requires.
type useContext int

const (
	useNone useContext = iota
	useReturn
	useCallArg
)

// flowState is the active-borrow/moved-symbol dataflow fact carried between
// statements within one function, and merged at CFG join points.
type flowState struct {
	borrows []ActiveBorrow
	moved   map[int32]bool
}

func newFlowState() flowState {
	return flowState{moved: make(map[int32]bool)}
}

func (s flowState) clone() flowState {
	out := flowState{
		borrows: append([]ActiveBorrow(nil), s.borrows...),
		moved:   make(map[int32]bool, len(s.moved)),
	}
	for k, v := range s.moved {
		out.moved[k] = v
	}
	return out
}

func mergeMoved(a, b map[int32]bool) map[int32]bool {
	out := make(map[int32]bool, len(a)+len(b))
	for k, v := range a {
		out[k] = out[k] || v
	}
	for k, v := range b {
		out[k] = out[k] || v
	}
	return out
}

func mergeStates(a, b flowState) flowState {
	return flowState{
		borrows: mergeBorrowSets(a.borrows, b.borrows),
		moved:   mergeMoved(a.moved, b.moved),
	}
}

// analyzer holds the per-function (or per-module-Init) analysis context:
// the module being read, the symbol traits table, a diagnostics bag scoped
// to this unit, and the accumulated result.
type analyzer struct {
	m      *sir.Module
	pool   *typepool.Pool
	traits map[int32]SymbolTraits
	res    *Result
}

func (az *analyzer) errorf(code diag.Code, args ...interface{}) {
	az.res.bag.Errorf(code, diag.Span{}, args...)
	az.res.ErrorCount++
}

// Analyze runs capability analysis over every function in m plus its
// top-level Init pseudo-function, one unit at a time but in parallel across
// units via an errgroup (independent functions share no dataflow edges,
// mirroring the teacher's hand-rolled worker-pool split for exactly this
// kind of embarrassingly-parallel per-function pass, generalized to
// errgroup per SPEC_FULL.md section 2). bag receives every diagnostic
// raised across every unit.
func Analyze(m *sir.Module, pool *typepool.Pool, bag *diag.Bag) Results {
	traits := globalTraits(m)
	results := make(Results, len(m.Funcs)+1)

	var g errgroup.Group
	for i := range m.Funcs {
		i := i
		g.Go(func() error {
			fn := m.Funcs[i]
			ft := mergeTraits(traits, fn.Params, fn.VarDecls)
			results[i] = analyzeUnit(m, pool, fn.Name, fn.Body, ft)
			return nil
		})
	}
	g.Go(func() error {
		results[len(m.Funcs)] = analyzeUnit(m, pool, "$init", m.Init, traits)
		return nil
	})
	_ = g.Wait()

	for _, r := range results {
		bag.Merge(r.bag)
	}
	return results
}

func globalTraits(m *sir.Module) map[int32]SymbolTraits {
	out := make(map[int32]SymbolTraits, len(m.Globals))
	for _, gl := range m.Globals {
		out[gl.Sym] = SymbolTraits{IsMut: gl.IsMut, IsStatic: true}
	}
	return out
}

func mergeTraits(globals map[int32]SymbolTraits, params []sir.ParamInfo, decls []sir.VarDecl) map[int32]SymbolTraits {
	out := make(map[int32]SymbolTraits, len(globals)+len(params)+len(decls))
	for k, v := range globals {
		out[k] = v
	}
	for _, p := range params {
		out[p.Sym] = SymbolTraits{IsMut: p.IsMut}
	}
	for _, d := range decls {
		out[d.Sym] = SymbolTraits{IsMut: d.IsMut, IsStatic: d.IsStatic}
	}
	return out
}

func analyzeUnit(m *sir.Module, pool *typepool.Pool, name string, entry sir.BlockID, traits map[int32]SymbolTraits) *Result {
	az := &analyzer{
		m: m, pool: pool, traits: traits,
		res: &Result{Func: name, StateBySymbol: make(map[int32]PerSymbolState), bag: diag.NewBag()},
	}
	final := az.walkBlock(entry, newFlowState(), useNone)
	for sym := range traits {
		st := PerSymbolState{MovedByEscape: final.moved[sym]}
		for _, b := range final.borrows {
			if b.Place.Root != sym {
				continue
			}
			if b.IsMut {
				st.ActiveMutBorrow = true
			} else {
				st.ActiveSharedBorrows++
			}
		}
		az.res.StateBySymbol[sym] = st
	}
	az.res.OK = az.res.ErrorCount == 0
	az.res.EscapeHandleCount = len(az.res.EscapeHandles)
	return az.res
}

const maxLoopFixedPoint = 16

// place resolves id to a PlaceRef if it denotes one of Ident/Index/Field;
// ok is false for any other value shape (literals, calls, borrows, ...).
func (az *analyzer) place(id sir.ValueID) (PlaceRef, bool) {
	v := az.m.Value(id)
	switch v.Op {
	case sir.OpIdent:
		if v.Aux < 0 {
			return PlaceRef{}, false
		}
		return PlaceRef{Root: int32(v.Aux)}, true
	case sir.OpIndex:
		base, ok := az.place(v.A)
		if !ok {
			return PlaceRef{}, false
		}
		proj := Projection{Kind: ProjIndex}
		idxVal := az.m.Value(v.B)
		if idxVal.Op == sir.OpConst {
			if iv, ok2 := idxVal.Lit.(int64); ok2 {
				proj.HasConstIndex = true
				proj.ConstIndex = uint64(iv)
			}
		}
		base.Proj = append(append([]Projection{}, base.Proj...), proj)
		return base, true
	case sir.OpField:
		base, ok := az.place(v.A)
		if !ok {
			return PlaceRef{}, false
		}
		base.Proj = append(append([]Projection{}, base.Proj...), Projection{Kind: ProjField, FieldName: v.Name})
		return base, true
	}
	return PlaceRef{}, false
}

func isBorrowOrEscape(v sir.Value) bool {
	return v.Op == sir.OpBorrow || v.Op == sir.OpEscape
}

// overlapsMut reports whether any active borrow overlapping p is mut.
func overlapsMut(borrows []ActiveBorrow, p PlaceRef) bool {
	for _, b := range borrows {
		if b.IsMut && placeOverlap(b.Place, p) {
			return true
		}
	}
	return false
}

func overlapsAny(borrows []ActiveBorrow, p PlaceRef) bool {
	for _, b := range borrows {
		if placeOverlap(b.Place, p) {
			return true
		}
	}
	return false
}

func overlapsShared(borrows []ActiveBorrow, p PlaceRef) bool {
	for _, b := range borrows {
		if !b.IsMut && placeOverlap(b.Place, p) {
			return true
		}
	}
	return false
}

func hasDrop(pool *typepool.Pool, ty typepool.TypeID) bool {
	t := pool.Get(ty)
	switch t.Kind {
	case typepool.KindOptional, typepool.KindArray:
		return hasDrop(pool, t.Elem)
	case typepool.KindNamedUser:
		return true
	default:
		return false
	}
}

// walkValue processes one value in program order, threading state through
// and returning the (possibly updated) state. ctx carries the enclosing
// use-context for an `&&` operand evaluated directly as this value (Return/
// CallArg), useNone otherwise.
func (az *analyzer) walkValue(id sir.ValueID, st flowState, ctx useContext) flowState {
	v := az.m.Value(id)
	switch v.Op {
	case sir.OpConst, sir.OpConstNull:
		return st

	case sir.OpIdent:
		if v.Aux >= 0 && st.moved[int32(v.Aux)] {
			az.errorf(diag.SirUseAfterEscapeMove)
		}
		return st

	case sir.OpBorrow:
		inner := az.m.Value(v.A)
		if isBorrowOrEscape(inner) {
			az.errorf(diag.BorrowOperandMustBeOwnedPlace)
			return st
		}
		p, ok := az.place(v.A)
		if !ok {
			az.errorf(diag.BorrowOperandMustBePlace)
			return st
		}
		isMut := v.Aux != 0
		if isMut {
			if t, ok2 := az.traits[p.Root]; !ok2 || !t.IsMut {
				az.errorf(diag.BorrowMutRequiresMutablePlace)
			}
			if overlapsMut(st.borrows, p) {
				az.errorf(diag.BorrowMutConflict)
			} else if overlapsShared(st.borrows, p) {
				az.errorf(diag.BorrowMutConflictWithShared)
			}
		} else {
			if overlapsMut(st.borrows, p) {
				az.errorf(diag.BorrowSharedConflictWithMut)
			}
		}
		st.borrows = appendUniqueBorrow(st.borrows, ActiveBorrow{Place: p, IsMut: isMut, OwnerSym: noSymbol})
		return st

	case sir.OpEscape:
		inner := az.m.Value(v.A)
		if isBorrowOrEscape(inner) {
			az.errorf(diag.EscapeOperandMustNotBeBorrow)
			return st
		}
		p, ok := az.place(v.A)
		if !ok {
			az.errorf(diag.EscapeOperandMustBePlace)
			return st
		}
		if overlapsAny(st.borrows, p) {
			if overlapsMut(st.borrows, p) {
				az.errorf(diag.EscapeWhileMutBorrowActive)
			} else {
				az.errorf(diag.EscapeWhileBorrowActive)
			}
		}
		traits, known := az.traits[p.Root]
		fromStatic := known && traits.IsStatic
		if ctx == useNone && !fromStatic {
			az.errorf(diag.SirEscapeBoundaryViolation)
		}
		boundary := BoundaryNone
		switch ctx {
		case useReturn:
			boundary = BoundaryReturn
		case useCallArg:
			boundary = BoundaryCallArg
		}
		kind := HandleStackSlot
		if fromStatic {
			kind = HandleTrivial
		} else if boundary == BoundaryReturn || boundary == BoundaryCallArg {
			kind = HandleCallerSlot
		}
		az.res.EscapeHandles = append(az.res.EscapeHandles, EscapeHandleMeta{
			EscapeValue: id, OriginSym: p.Root, PointeeType: v.Type,
			FromStatic: fromStatic, HasDrop: hasDrop(az.pool, v.Type),
			Boundary: boundary, Kind: kind,
		})
		st.moved[p.Root] = true
		return st

	case sir.OpUnary:
		return az.walkValue(v.A, st, useNone)

	case sir.OpBinary:
		st = az.walkValue(v.A, st, useNone)
		return az.walkValue(v.B, st, useNone)

	case sir.OpAssign:
		p, isPlace := az.place(v.A)
		st = az.walkValue(v.B, st, useNone)
		if isPlace {
			if overlapsShared(st.borrows, p) {
				az.errorf(diag.BorrowSharedWriteConflict)
			}
			rhs := az.m.Value(v.B)
			if rhs.Op == sir.OpBorrow {
				if traits, known := az.traits[p.Root]; known && traits.IsStatic {
					// escape-to-storage only applies when the destination
					// outlives the borrow's scope; a plain local place
					// never outlives its own function, so only flag a
					// static/global destination here.
					az.errorf(diag.BorrowEscapeToStorage)
				}
			}
		}
		return st

	case sir.OpVarInit:
		st = az.walkValue(v.A, st, useNone)
		return st

	case sir.OpCall:
		args := az.m.CallArgs(v.ArgsBegin, v.ArgsCount)
		st = az.walkValue(v.A, st, useNone)
		for _, a := range args {
			argEntry := len(st.borrows)
			st = az.walkValue(a, st, useCallArg)
			st.borrows = st.borrows[:argEntry]
		}
		return st

	case sir.OpIndex:
		st = az.walkValue(v.A, st, useNone)
		return az.walkValue(v.B, st, useNone)

	case sir.OpField:
		return az.walkValue(v.A, st, useNone)

	case sir.OpCast:
		return az.walkValue(v.A, st, useNone)

	case sir.OpIf:
		entry := len(st.borrows)
		cond := az.walkValue(v.A, st, useNone)
		var outs []flowState
		for _, blk := range v.Blocks {
			branchIn := cond.clone()
			out := az.walkBlock(blk, branchIn, useNone)
			out.borrows = out.borrows[:min(len(out.borrows), entry)]
			outs = append(outs, out)
		}
		merged := cond
		for _, o := range outs {
			merged = mergeStates(merged, o)
		}
		merged.borrows = merged.borrows[:min(len(merged.borrows), entry)]
		return merged

	case sir.OpWhile, sir.OpDoWhile:
		pre := st
		cur := pre
		for i := 0; i < maxLoopFixedPoint; i++ {
			entry := len(cur.borrows)
			head := az.walkValue(v.A, cur.clone(), useNone)
			body := cur.clone()
			if len(v.Blocks) > 0 {
				body = az.walkBlock(v.Blocks[0], head.clone(), useNone)
			}
			body.borrows = body.borrows[:min(len(body.borrows), entry)]
			next := mergeStates(pre, body)
			if borrowSetEqual(next.borrows, cur.borrows) && movedEqual(next.moved, cur.moved) {
				cur = next
				break
			}
			cur = next
		}
		return cur

	case sir.OpSwitch:
		entry := len(st.borrows)
		scrut := az.walkValue(v.A, st, useNone)
		var outs []flowState
		for _, blk := range v.Blocks {
			out := az.walkBlock(blk, scrut.clone(), useNone)
			out.borrows = out.borrows[:min(len(out.borrows), entry)]
			outs = append(outs, out)
		}
		merged := scrut
		for _, o := range outs {
			merged = mergeStates(merged, o)
		}
		merged.borrows = merged.borrows[:min(len(merged.borrows), entry)]
		return merged

	case sir.OpLoop:
		entry := len(st.borrows)
		body := st
		if len(v.Blocks) > 0 {
			body = az.walkBlock(v.Blocks[0], st.clone(), useNone)
		}
		body.borrows = body.borrows[:min(len(body.borrows), entry)]
		return body

	case sir.OpBreak:
		return az.walkValue(v.A, st, useNone)

	case sir.OpReturn:
		argVal := az.m.Value(v.A)
		if isBorrowOrEscape(argVal) && argVal.Op == sir.OpBorrow {
			az.errorf(diag.BorrowEscapeFromReturn)
			return st
		}
		return az.walkValue(v.A, st, useReturn)

	case sir.OpBlock:
		if len(v.Blocks) == 0 {
			return st
		}
		return az.walkBlock(v.Blocks[0], st, useNone)

	default:
		return st
	}
}

func movedEqual(a, b map[int32]bool) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		if b[k] != v {
			return false
		}
	}
	return true
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// walkBlock enters a fresh borrow-scope (spec.md section 4.8's "entering an
// SIR block pushes a borrow-scope marker"), walks every value in order, and
// truncates the borrow vector back to its entry length on exit.
func (az *analyzer) walkBlock(id sir.BlockID, st flowState, ctx useContext) flowState {
	entry := len(st.borrows)
	blk := az.m.Block(id)
	for _, vid := range blk.Values {
		st = az.walkValue(vid, st, ctx)
	}
	st.borrows = st.borrows[:min(len(st.borrows), entry)]
	return st
}
