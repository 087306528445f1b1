package ast

import (
	"strconv"
	"strings"

	"github.com/GungYe918/parus-sub001/src/typepool"
)

// Printer renders nodes back to parser-friendly surface syntax. It exists
// so that spec.md property 2 ("re-parsing the pretty-printed non-export
// form yields a structurally equal AST") is something the parser package's
// tests can actually exercise.
type Printer struct {
	A    *Arena
	Pool *typepool.Pool
}

// Expr renders the expression (or statement) at id.
func (p *Printer) Expr(id ExprID) string {
	n := p.A.Get(id)
	switch n.Kind {
	case KIntLit:
		return strconv.FormatInt(n.Lit.(int64), 10)
	case KFloatLit:
		return strconv.FormatFloat(n.Lit.(float64), 'g', -1, 64)
	case KStringLit:
		return strconv.Quote(n.Lit.(string))
	case KCharLit:
		return "'" + n.Lit.(string) + "'"
	case KBoolLit:
		if n.Lit.(bool) {
			return "true"
		}
		return "false"
	case KNullLit:
		return "null"
	case KIdent:
		return n.Name
	case KArrayLit:
		elems := p.A.Children(n.ChildrenBegin, n.ChildrenCnt)
		parts := make([]string, len(elems))
		for i, e := range elems {
			parts[i] = p.Expr(e)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case KBorrow:
		prefix := "&"
		if n.Aux != 0 {
			prefix = "&mut "
		}
		return prefix + p.Expr(n.A)
	case KEscape:
		return "&&" + p.Expr(n.A)
	case KUnary:
		return opName(n.Aux) + p.Expr(n.A)
	case KBinary:
		return p.Expr(n.A) + " " + opName(n.Aux) + " " + p.Expr(n.B)
	case KAssign:
		return p.Expr(n.A) + " " + opName(n.Aux) + " " + p.Expr(n.B)
	case KPostfixInc:
		return p.Expr(n.A) + opName(n.Aux)
	case KCall:
		args := p.A.Args(n.ArgsBegin, n.ArgsCount)
		parts := make([]string, 0, len(args))
		for _, a := range args {
			switch a.Kind {
			case ArgPositional:
				parts = append(parts, p.Expr(a.Value))
			case ArgLabeled:
				parts = append(parts, a.Label+": "+p.Expr(a.Value))
			case ArgNamedGroup:
				entries := p.A.NamedGroup(a.GroupBegin, a.GroupCount)
				gp := make([]string, len(entries))
				for i, e := range entries {
					gp[i] = e.Label + ": " + p.Expr(e.Value)
				}
				parts = append(parts, "{ "+strings.Join(gp, ", ")+" }")
			}
		}
		return p.Expr(n.A) + "(" + strings.Join(parts, ", ") + ")"
	case KIndex:
		return p.Expr(n.A) + "[" + p.Expr(n.B) + "]"
	case KField:
		return p.Expr(n.A) + "." + n.Name
	case KIfExpr:
		return "if (" + p.Expr(n.A) + ") " + p.Expr(n.B) + " else " + p.Expr(n.C)
	case KTernary:
		return p.Expr(n.A) + " ? " + p.Expr(n.B) + " : " + p.Expr(n.C)
	case KBlockExpr, KBlockStmt:
		var sb strings.Builder
		sb.WriteString("{ ")
		for _, s := range p.A.Children(n.ChildrenBegin, n.ChildrenCnt) {
			sb.WriteString(p.Expr(s))
			sb.WriteString("; ")
		}
		if n.B != NoNode {
			sb.WriteString(p.Expr(n.B))
			sb.WriteString(" ")
		}
		sb.WriteString("}")
		return sb.String()
	case KLoopExpr:
		return "loop " + p.Expr(n.LoopBody)
	case KCast:
		kw := "as"
		switch CastKind(n.Aux) {
		case CastAsQ:
			kw = "as?"
		case CastAsBang:
			kw = "as!"
		}
		return p.Expr(n.A) + " " + kw + " " + p.Pool.Print(n.Type, false)
	case KExprStmt:
		return p.Expr(n.A)
	case KVarDecl:
		return p.varDeclString(n)
	case KIfStmt:
		s := "if (" + p.Expr(n.A) + ") " + p.Expr(n.B)
		if n.C != NoNode {
			s += " else " + p.Expr(n.C)
		}
		return s
	case KWhileStmt:
		return "while (" + p.Expr(n.A) + ") " + p.Expr(n.B)
	case KDoScopeStmt:
		return "do " + p.Expr(n.A)
	case KDoWhileStmt:
		return "do " + p.Expr(n.A) + " while (" + p.Expr(n.B) + ")"
	case KManualStmt:
		return "manual " + p.Expr(n.A)
	case KReturnStmt:
		if n.A == NoNode {
			return "return"
		}
		return "return " + p.Expr(n.A)
	case KBreakStmt:
		if n.A == NoNode {
			return "break"
		}
		return "break " + p.Expr(n.A)
	case KContinueStmt:
		return "continue"
	case KSwitchStmt:
		var sb strings.Builder
		sb.WriteString("switch (" + p.Expr(n.A) + ") { ")
		for _, c := range p.A.Cases(n.CasesBegin, n.CasesCount) {
			if c.IsDefault {
				sb.WriteString("default: ")
			} else {
				sb.WriteString(p.Expr(c.Pattern) + ": ")
			}
			sb.WriteString(p.Expr(c.Body))
			sb.WriteString(" ")
		}
		sb.WriteString("}")
		return sb.String()
	case KEmptyStmt:
		return ";"
	default:
		return "<?>"
	}
}

func (p *Printer) varDeclString(n Node) string {
	kw := "let"
	if n.Aux&1 != 0 {
		kw = "set"
	}
	if n.Aux&2 != 0 {
		kw += " static"
	}
	mut := ""
	if n.Aux&4 != 0 {
		mut = "mut "
	}
	s := kw + " " + mut + n.Name
	if p.Pool.IsValid(n.Type) && n.Aux&1 == 0 {
		s += ": " + p.Pool.Print(n.Type, false)
	}
	if n.A != NoNode {
		s += " = " + p.Expr(n.A)
	}
	return s
}

func opName(aux int) string {
	ops := []string{"+", "-", "*", "/", "%", "==", "!=", "<", "<=", ">", ">=",
		"&&", "||", "&", "|", "^", "<<", ">>", "!", "=", "+=", "-=", "*=", "/=",
		"%=", "??=", "??", "++", "--"}
	if aux >= 0 && aux < len(ops) {
		return ops[aux]
	}
	return "?op?"
}
