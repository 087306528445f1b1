package sir

import "fmt"

// VerifyError describes one verifier failure.
type VerifyError struct {
	Msg string
}

func (e VerifyError) Error() string { return e.Msg }

// Verify checks the structural invariants spec.md section 4.7 assigns the
// SIR verifier: every value id referenced is in range, every declared type
// is valid (checked by the caller, which owns the type pool), and every
// function's body block exists. capability.go's analysis assumes a module
// that already passed this check.
func Verify(m *Module) []VerifyError {
	var errs []VerifyError
	inRangeValue := func(id ValueID) bool { return int(id) < len(m.values) }
	inRangeBlock := func(id BlockID) bool { return int(id) < len(m.blocks) }

	for _, fn := range m.Funcs {
		if !inRangeBlock(fn.Body) {
			errs = append(errs, VerifyError{fmt.Sprintf("function %s: body block %d out of range", fn.Name, fn.Body)})
		}
	}
	for i, v := range m.values {
		checkOperand := func(id ValueID, label string) {
			if id != 0 && !inRangeValue(id) {
				errs = append(errs, VerifyError{fmt.Sprintf("value %d: %s operand %d out of range", i, label, id)})
			}
		}
		checkOperand(v.A, "a")
		checkOperand(v.B, "b")
		checkOperand(v.C, "c")
		for _, bid := range v.Blocks {
			if !inRangeBlock(bid) {
				errs = append(errs, VerifyError{fmt.Sprintf("value %d: block %d out of range", i, bid)})
			}
		}
		if v.Op == OpCall {
			for _, argID := range m.CallArgs(v.ArgsBegin, v.ArgsCount) {
				if !inRangeValue(argID) {
					errs = append(errs, VerifyError{fmt.Sprintf("value %d: call argument %d out of range", i, argID)})
				}
			}
		}
	}
	for i, blk := range m.blocks {
		for _, vid := range blk.Values {
			if !inRangeValue(vid) {
				errs = append(errs, VerifyError{fmt.Sprintf("block %d: value %d out of range", i, vid)})
			}
		}
	}
	return errs
}
