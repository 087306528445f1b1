package macro

import (
	"github.com/GungYe918/parus-sub001/src/ast"
	"github.com/GungYe918/parus-sub001/src/diag"
	"github.com/GungYe918/parus-sub001/src/token"
)

// binding is one matched capture: either a single token slice (non-
// variadic) or a list of slices (variadic, one per comma-split argument it
// swallowed).
type binding struct {
	cap   Capture
	slice []token.Token
	list  [][]token.Token
}

// splitTopLevelCommas splits toks on commas that are not nested inside
// `()`, `{}`, or `[]`.
func splitTopLevelCommas(toks []token.Token) [][]token.Token {
	var out [][]token.Token
	var cur []token.Token
	depth := 0
	for _, t := range toks {
		switch t.Kind {
		case token.LParen, token.LBrace, token.LBracket:
			depth++
		case token.RParen, token.RBrace, token.RBracket:
			depth--
		}
		if t.Kind == token.Comma && depth == 0 {
			out = append(out, cur)
			cur = nil
			continue
		}
		cur = append(cur, t)
	}
	out = append(out, cur)
	return out
}

// validateFragment checks a captured slice's shape against its declared
// fragment kind, per spec.md section 4.4 rule 5.
func validateFragment(kind FragmentKind, toks []token.Token) bool {
	switch kind {
	case FragIdent:
		return len(toks) == 1 && toks[0].Kind == token.Ident
	case FragPath:
		if len(toks) == 0 || toks[0].Kind != token.Ident {
			return false
		}
		i := 1
		for i < len(toks) {
			if toks[i].Kind != token.ColonColon || i+1 >= len(toks) || toks[i+1].Kind != token.Ident {
				return false
			}
			i += 2
		}
		return true
	case FragBlock:
		return len(toks) >= 2 && toks[0].Kind == token.LBrace && toks[len(toks)-1].Kind == token.RBrace
	default:
		return len(toks) > 0
	}
}

// bindArm attempts to bind a single argument-token stream against one arm's
// capture list. Returns bindings and ok; ok is false if arity or fragment
// validation fails.
func bindArm(arm Arm, argGroups [][]token.Token) ([]binding, bool) {
	variadicIdx := -1
	for i, c := range arm.Captures {
		if c.Variadic {
			variadicIdx = i
		}
	}
	if variadicIdx != -1 && variadicIdx != len(arm.Captures)-1 {
		return nil, false
	}
	if variadicIdx == -1 {
		if len(argGroups) != len(arm.Captures) {
			return nil, false
		}
	} else if len(argGroups) < variadicIdx {
		return nil, false
	}

	var out []binding
	for i, c := range arm.Captures {
		if c.Variadic {
			var list [][]token.Token
			for _, g := range argGroups[i:] {
				if !validateFragment(c.Kind, g) {
					return nil, false
				}
				list = append(list, g)
			}
			out = append(out, binding{cap: c, list: list})
			continue
		}
		if i >= len(argGroups) || !validateFragment(c.Kind, argGroups[i]) {
			return nil, false
		}
		out = append(out, binding{cap: c, slice: argGroups[i]})
	}
	return out, true
}

func findBinding(binds []binding, name string) (binding, bool) {
	for _, b := range binds {
		if b.cap.Name == name {
			return b, true
		}
	}
	return binding{}, false
}

// substitute expands an arm's template against its bound captures,
// stamping non-captured (template-origin) tokens with a fresh hygiene id so
// downstream binder resolution never confuses them with caller-scope
// identifiers of the same spelling.
func substitute(template []token.Token, binds []binding, hygieneID int) []token.Token {
	var out []token.Token
	for i := 0; i < len(template); i++ {
		t := template[i]
		if t.Kind == token.Dollar && i+1 < len(template) {
			nameTok := template[i+1]
			if nameTok.Kind == token.Ident {
				b, ok := findBinding(binds, nameTok.Lexeme)
				if ok {
					if b.cap.Variadic && i+2 < len(template) && isVariadicSpread(template[i+2:]) {
						out = append(out, spreadVariadic(b.list)...)
						i += 2 + variadicSpreadWidth(template[i+2:])
						continue
					}
					out = append(out, b.slice...)
					i++
					continue
				}
			}
		}
		out = append(out, hygienate(t, hygieneID))
	}
	return out
}

func isVariadicSpread(rest []token.Token) bool {
	if len(rest) >= 1 && rest[0].Kind == token.Dot3 {
		return true
	}
	return len(rest) >= 2 && rest[0].Kind == token.Dot2 && rest[1].Kind == token.Dot
}

func variadicSpreadWidth(rest []token.Token) int {
	if len(rest) >= 1 && rest[0].Kind == token.Dot3 {
		return 1
	}
	return 2
}

func spreadVariadic(list [][]token.Token) []token.Token {
	var out []token.Token
	for i, g := range list {
		if i > 0 {
			out = append(out, token.Token{Kind: token.Comma, Lexeme: ","})
		}
		out = append(out, g...)
	}
	return out
}

// hygienate marks a template-origin token as generated by tagging its
// lexeme with a hygiene suffix for Ident tokens only; every other token
// kind is structural and carries no binder identity.
func hygienate(t token.Token, hygieneID int) token.Token {
	if t.Kind != token.Ident {
		return t
	}
	t.Lexeme = t.Lexeme + hygieneSuffix(hygieneID)
	return t
}

func hygieneSuffix(id int) string {
	const digits = "0123456789"
	if id == 0 {
		return "#h0"
	}
	buf := []byte{'#', 'h'}
	var rev []byte
	for id > 0 {
		rev = append(rev, digits[id%10])
		id /= 10
	}
	for i := len(rev) - 1; i >= 0; i-- {
		buf = append(buf, rev[i])
	}
	return string(buf)
}

// ExpandCall performs one macro expansion step for a single `$name(args)`
// call site: rawArgs are the call's raw argument tokens and callSpan is its
// span. callerDepth is the lexical scope depth the call site appears at, ctx
// is the syntactic context it must expand into, and depth is the nesting
// depth of this expansion, checked against Budget.MaxDepth.
func (e *Expander) ExpandCall(name string, rawArgs []token.Token, callerDepth int, ctx Context, callSpan diag.Span, depth int) (ast.NodeID, bool) {
	e.steps++
	if e.steps > e.Budget.MaxSteps {
		e.Bag.Fatalf(diag.MacroRecursionBudget, callSpan, "step")
		return ast.NoNode, false
	}
	if depth > e.Budget.MaxDepth {
		e.Bag.Fatalf(diag.MacroRecursionBudget, callSpan, "depth")
		return ast.NoNode, false
	}

	d, ok := e.lookup(name, callerDepth)
	if !ok {
		e.Bag.Errorf(diag.MacroNoMatch, callSpan, name)
		return ast.NoNode, false
	}
	g, ok := chooseGroup(d, ctx)
	if !ok {
		e.Bag.Errorf(diag.MacroNoMatch, callSpan, name)
		return ast.NoNode, false
	}
	if g.Context == CtxToken {
		e.Bag.Errorf(diag.MacroTokenUnimplemented, callSpan, name)
		return ast.NoNode, false
	}

	argGroups := splitTopLevelCommas(rawArgs)
	if len(rawArgs) == 0 {
		argGroups = nil
	}

	for _, arm := range g.Arms {
		binds, ok := bindArm(arm, argGroups)
		if !ok {
			continue
		}
		out := substitute(arm.Template, binds, e.steps)
		out = appendSyntheticEof(out)
		node, ok := e.Reparse(g.Context, out)
		if !ok {
			e.Bag.Errorf(diag.MacroReparseFail, callSpan, name)
			return ast.NoNode, false
		}
		return node, true
	}
	e.Bag.Errorf(diag.MacroNoMatch, callSpan, name)
	return ast.NoNode, false
}

func appendSyntheticEof(toks []token.Token) []token.Token {
	return append(toks, token.Token{Kind: token.Eof})
}
