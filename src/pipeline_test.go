package main

import (
	"testing"

	"github.com/GungYe918/parus-sub001/src/capability"
	"github.com/GungYe918/parus-sub001/src/diag"
)

// hasCode reports whether bag contains a diagnostic tagged code anywhere.
func hasCode(bag *diag.Bag, code diag.Code) bool {
	for _, d := range bag.All() {
		if d.Code == code {
			return true
		}
	}
	return false
}

// TestScenarioA_DeferredIntegerPromotedToI64 is spec.md section 8, Scenario A.
func TestScenarioA_DeferredIntegerPromotedToI64(t *testing.T) {
	res := compileProgram(`fn main() -> i64 { set x = 1; let y: i64 = x; return y; }`)
	if res.Bag.HasError() {
		t.Fatalf("expected no diagnostics, got %v", res.Bag.All())
	}
	if res.SIR == nil || len(res.SIR.Funcs) == 0 {
		t.Fatalf("expected a lowered SIR function")
	}
	fn := res.SIR.Funcs[0]
	if len(fn.VarDecls) == 0 {
		t.Fatalf("expected at least one VarDecl")
	}
	x := fn.VarDecls[0]
	if x.DeclaredType != fn.RetType {
		t.Fatalf("expected x's declared type to match i64, got %v want %v", x.DeclaredType, fn.RetType)
	}
}

// TestScenarioB_UseAfterEscapeRejected is spec.md section 8, Scenario B.
func TestScenarioB_UseAfterEscapeRejected(t *testing.T) {
	res := compileProgram(`fn main() -> i32 { set x = 1i32; set h = &&x; return 0i32; }`)
	if !hasCode(res.Bag, diag.SirEscapeBoundaryViolation) {
		t.Fatalf("expected SirEscapeBoundaryViolation, got %v", res.Bag.All())
	}
	if !res.Bag.HasError() {
		t.Fatalf("expected capability analysis to fail")
	}
	if res.OIR != nil {
		t.Fatalf("expected OIR gate not to run once capability analysis failed")
	}
}

// TestScenarioC_SharedWithMutConflict is spec.md section 8, Scenario C.
func TestScenarioC_SharedWithMutConflict(t *testing.T) {
	res := compileProgram(`fn main() -> i32 { set mut x = 1i32; set m = &mut x; set r = &x; return 0i32; }`)
	if !hasCode(res.Bag, diag.BorrowSharedConflictWithMut) {
		t.Fatalf("expected BorrowSharedConflictWithMut, got %v", res.Bag.All())
	}
}

// TestScenarioD_LoopBreakValue is spec.md section 8, Scenario D.
func TestScenarioD_LoopBreakValue(t *testing.T) {
	res := compileProgram(`fn main() -> i32 { set x = loop { break 7i32; }; return x; }`)
	if res.Bag.HasError() {
		t.Fatalf("expected no diagnostics, got %v", res.Bag.All())
	}
	if res.OIR == nil || !res.OIR.GatePassed {
		t.Fatalf("expected OIR gate to pass")
	}
	fn := res.OIR.Funcs[0]
	exitHasOneParam := false
	for _, bid := range fn.Blocks {
		blk := res.OIR.Block(bid)
		if len(blk.ParamTypes) == 1 {
			exitHasOneParam = true
		}
	}
	if !exitHasOneParam {
		t.Fatalf("expected the loop exit block to carry one block parameter for the break value")
	}
}

// TestScenarioE_WhileBreakValueRejected is spec.md section 8, Scenario E.
func TestScenarioE_WhileBreakValueRejected(t *testing.T) {
	res := compileProgram(`fn main() -> i32 { while (true) { break 1i32; } return 0i32; }`)
	if !hasCode(res.Bag, diag.TypeBreakValueOnlyInLoopExpr) {
		t.Fatalf("expected TypeBreakValueOnlyInLoopExpr, got %v", res.Bag.All())
	}
}

// TestScenarioF_StaticEscapePermitted is spec.md section 8, Scenario F.
func TestScenarioF_StaticEscapePermitted(t *testing.T) {
	res := compileProgram(`static let G: i32 = 7i32; static set mut HG = &&G; fn main() -> i32 { return 0i32; }`)
	if res.Bag.HasError() {
		t.Fatalf("expected no diagnostics, got %v", res.Bag.All())
	}
	handles := res.Caps.AllEscapeHandles()
	if len(handles) != 1 {
		t.Fatalf("expected exactly one escape handle, got %d", len(handles))
	}
	h := handles[0]
	if h.Kind != capability.HandleTrivial || !h.FromStatic {
		t.Fatalf("expected a Trivial, from-static handle, got %+v", h)
	}
}
