package parser

import (
	"strconv"

	"github.com/GungYe918/parus-sub001/src/ast"
	"github.com/GungYe918/parus-sub001/src/diag"
	"github.com/GungYe918/parus-sub001/src/token"
	"github.com/GungYe918/parus-sub001/src/typepool"
)

// scanMacroCallHead consumes `$Name(` and the balanced-paren argument
// token stream up to and including the matching `)`, stashing the raw
// arguments verbatim in the arena's macro-token side table. It is shared
// by every macro-call position (expr/stmt/item/type): none of them
// interpret the arguments themselves, only the macro package does, once
// it knows which declaration's group the call site resolves to.
func (p *Parser) scanMacroCallHead() (start token.Token, name token.Token, begin, count uint32, ok bool) {
	start = p.advance() // $
	name, ok = p.expect(token.Ident)
	if !ok {
		return start, name, 0, 0, false
	}
	if !p.at(token.LParen) {
		p.errorf(diag.ExpectedToken, token.LParen.String(), p.cur().Kind.String())
		return start, name, 0, 0, false
	}
	p.advance() // (
	var raw []token.Token
	depth := 1
	for depth > 0 && !p.at(token.Eof) {
		switch p.cur().Kind {
		case token.LParen:
			depth++
		case token.RParen:
			depth--
			if depth == 0 {
				p.advance()
				goto done
			}
		}
		raw = append(raw, p.advance())
	}
done:
	begin, count = p.A.PushMacroTokens(raw)
	return start, name, begin, count, true
}

// parseMacroCallExpr parses `$Name(...)` at primary-expression position,
// re-dispatched later by the macro package into ParseExprFull.
func (p *Parser) parseMacroCallExpr() ast.ExprID {
	start, name, begin, count, ok := p.scanMacroCallHead()
	if !ok {
		return p.A.New(ast.Node{Kind: ast.KError, Span: start.Span})
	}
	return p.A.New(ast.Node{
		Kind: ast.KMacroCallExpr, Name: name.Lexeme,
		MacroTokBegin: begin, MacroTokCnt: count, Span: diag.Join(start.Span, name.Span),
	})
}

// parseMacroCallStmt parses `$Name(...)` at statement position (a bare
// macro call followed by `;`, where the expander must try the macro's
// Stmt-context group rather than silently falling back to Expr, per
// spec.md section 4.4). Re-dispatched later into ParseStmtFull.
func (p *Parser) parseMacroCallStmt() ast.StmtID {
	start, name, begin, count, ok := p.scanMacroCallHead()
	if !ok {
		return p.A.New(ast.Node{Kind: ast.KError, Span: start.Span})
	}
	if p.at(token.Semi) {
		p.advance()
	}
	return p.A.New(ast.Node{
		Kind: ast.KMacroCallStmt, Name: name.Lexeme,
		MacroTokBegin: begin, MacroTokCnt: count, Span: diag.Join(start.Span, name.Span),
	})
}

// parseMacroCallItem parses `$Name(...)` at top-level item position.
// Re-dispatched later into ParseItemFull.
func (p *Parser) parseMacroCallItem() ast.StmtID {
	start, name, begin, count, ok := p.scanMacroCallHead()
	if !ok {
		return p.A.New(ast.Node{Kind: ast.KError, Span: start.Span})
	}
	if p.at(token.Semi) {
		p.advance()
	}
	return p.A.New(ast.Node{
		Kind: ast.KMacroCallItem, Name: name.Lexeme,
		MacroTokBegin: begin, MacroTokCnt: count, Span: diag.Join(start.Span, name.Span),
	})
}

// parseMacroCallType parses `$Name(...)` in type position. Unlike the
// expr/stmt/item positions, the result cannot be resolved to a concrete
// type immediately: the macro declaration supplying name's Type-context
// group is only known to the macro expander, which runs as a
// whole-program AST pass after parsing completes. parseMacroCallType
// instead interns a unique placeholder type and records the raw call in
// the arena's type-node side table; macro.Expander.Run later expands it,
// re-parses the substitution via ParseTypeFull, and rewrites every
// embedding of the placeholder to the real type (ast.Arena.ReplaceType).
func (p *Parser) parseMacroCallType() typepool.TypeID {
	start, name, begin, count, ok := p.scanMacroCallHead()
	if !ok {
		return p.Pool.Error()
	}
	p.macroTypeSeq++
	placeholder := p.Pool.MakeNamedUserPath(
		[]string{"$macrotype", name.Lexeme, strconv.Itoa(p.macroTypeSeq)}, nil)
	p.A.PushMacroTypeNode(placeholder, name.Lexeme, begin, count, diag.Join(start.Span, name.Span))
	return placeholder
}
