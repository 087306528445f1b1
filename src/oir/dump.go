package oir

import (
	"fmt"
	"strings"
)

// String renders a Module as readable text for the --dump-oir driver
// surface (spec.md section 6), grounded on the teacher's lir.Module.String:
// globals, then one block per function with its parameters, instructions,
// and terminator.
func (m *Module) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "oir module: %d function(s), %d global(s)\n\n", len(m.Funcs), len(m.Globals))

	for _, g := range m.Globals {
		fmt.Fprintf(&sb, "global %%g%d %s mut=%v export=%v import=%v\n", g.Ref, g.Name, g.IsMut, g.IsExport, g.IsImport)
	}
	if len(m.Globals) > 0 {
		sb.WriteRune('\n')
	}

	for _, fn := range m.Funcs {
		fmt.Fprintf(&sb, "fn %s (source %s) cabi=%v pure=%v entry=bb%d\n", fn.Name, fn.SourceName, fn.CABI, fn.IsPure, fn.Entry)
		for _, bid := range fn.Blocks {
			blk := m.Block(bid)
			fmt.Fprintf(&sb, "  bb%d(%s):\n", bid, paramList(blk))
			for _, vid := range blk.Insts {
				fmt.Fprintf(&sb, "    %s\n", valueString(vid, m.Value(vid)))
			}
			fmt.Fprintf(&sb, "    %s\n", termString(blk.Term))
		}
		sb.WriteRune('\n')
	}
	return sb.String()
}

func paramList(blk Block) string {
	parts := make([]string, len(blk.Params))
	for i, p := range blk.Params {
		parts[i] = fmt.Sprintf("%%v%d", p)
	}
	return strings.Join(parts, ", ")
}

func valueString(id ValueID, v Value) string {
	switch v.Op {
	case OpConstInt, OpConstFloat, OpConstBool:
		return fmt.Sprintf("%%v%d = const %v", id, v.Lit)
	case OpConstNull:
		return fmt.Sprintf("%%v%d = null", id)
	case OpConstText:
		return fmt.Sprintf("%%v%d = text %q", id, v.Lit)
	case OpUnary:
		return fmt.Sprintf("%%v%d = unary(%d) %%v%d", id, v.Aux, v.A)
	case OpBinOp:
		return fmt.Sprintf("%%v%d = binop(%d) %%v%d, %%v%d", id, v.Aux, v.A, v.B)
	case OpCast:
		return fmt.Sprintf("%%v%d = cast %%v%d", id, v.A)
	case OpFuncRef:
		return fmt.Sprintf("%%v%d = funcref %s", id, v.Name)
	case OpGlobalRef:
		return fmt.Sprintf("%%v%d = globalref %s", id, v.Name)
	case OpCall:
		return fmt.Sprintf("%%v%d = call callee=%d args=[%d..%d)", id, v.DirectCallee, v.ArgsBegin, v.ArgsBegin+v.ArgsCount)
	case OpIndex:
		return fmt.Sprintf("%%v%d = index %%v%d[%%v%d]", id, v.A, v.B)
	case OpField:
		return fmt.Sprintf("%%v%d = field %%v%d.%s", id, v.A, v.Name)
	case OpIndexStore:
		return fmt.Sprintf("store-index %%v%d[%%v%d] = %%v%d", v.A, v.B, v.C)
	case OpFieldStore:
		return fmt.Sprintf("store-field %%v%d.%s = %%v%d", v.A, v.Name, v.B)
	case OpAllocaLocal:
		return fmt.Sprintf("%%v%d = alloca %s", id, v.Name)
	case OpLoad:
		return fmt.Sprintf("%%v%d = load %%v%d", id, v.A)
	case OpStore:
		return fmt.Sprintf("store %%v%d = %%v%d", v.A, v.B)
	default:
		return fmt.Sprintf("%%v%d = <unknown>", id)
	}
}

func termString(t Terminator) string {
	switch t.Kind {
	case TermRet:
		if t.HasValue {
			return fmt.Sprintf("ret %%v%d", t.Value)
		}
		return "ret"
	case TermBr:
		return fmt.Sprintf("br bb%d(%s)", t.Target, idList(t.TargetArgs))
	case TermCondBr:
		return fmt.Sprintf("condbr %%v%d, bb%d(%s), bb%d(%s)", t.Cond, t.Then, idList(t.ThenArgs), t.Else, idList(t.ElseArgs))
	case TermUnreachable:
		return "unreachable"
	default:
		return "<no terminator>"
	}
}

func idList(ids []ValueID) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = fmt.Sprintf("%%v%d", id)
	}
	return strings.Join(parts, ", ")
}
