package parser

import (
	"github.com/GungYe918/parus-sub001/src/ast"
	"github.com/GungYe918/parus-sub001/src/diag"
	"github.com/GungYe918/parus-sub001/src/token"
	"github.com/GungYe918/parus-sub001/src/typepool"
)

var pInvalidType = typepool.InvalidType()

// varDecl flag bits packed into Node.Aux for KVarDecl, per ast/print.go's
// varDeclString reader.
const (
	vdSet = 1 << iota
	vdStatic
	vdMut
)

// parseStmtOrTailExpr parses one statement. The second return value
// reports whether the parsed node is an expression that could legally be a
// block's tail expression (bare expression statements without a trailing
// semicolon, immediately followed by `}`).
func (p *Parser) parseStmtOrTailExpr() (ast.StmtID, bool) {
	switch p.cur().Kind {
	case token.KwLet, token.KwSet, token.KwStatic:
		return p.parseVarDecl(), false
	case token.KwIf:
		e := p.parseIfExpr()
		if p.at(token.Semi) {
			p.advance()
		}
		return p.A.New(ast.Node{Kind: ast.KExprStmt, A: e}), !p.at(token.Semi)
	case token.KwWhile:
		return p.parseWhileStmt(), false
	case token.KwDo:
		return p.parseDoStmt(), false
	case token.KwManual:
		return p.parseManualStmt(), false
	case token.KwSwitch:
		return p.parseSwitchStmt(), false
	case token.KwReturn:
		return p.parseReturnStmt(), false
	case token.KwBreak:
		return p.parseBreakStmt(), false
	case token.KwContinue:
		return p.parseContinueStmt(), false
	case token.KwUse:
		return p.parseUseDecl(), false
	case token.KwNest:
		return p.parseNestDecl(), false
	case token.KwFn:
		return p.parseFnDecl(), false
	case token.KwField:
		return p.parseFieldDecl(), false
	case token.KwActs:
		return p.parseActsDecl(), false
	case token.Dollar:
		return p.parseMacroCallStmt(), false
	case token.Semi:
		p.advance()
		return p.A.New(ast.Node{Kind: ast.KEmptyStmt}), false
	case token.LBrace:
		start := p.cur().Span
		b := p.parseBlockStmt()
		p.Bag.Warnf(diag.BareBlockScopePreferDo, start)
		return p.A.New(ast.Node{Kind: ast.KExprStmt, A: b}), false
	default:
		e := p.parseExpr()
		tail := !p.at(token.Semi)
		if p.at(token.Semi) {
			p.advance()
		}
		return p.A.New(ast.Node{Kind: ast.KExprStmt, A: e}), tail
	}
}

// parseItem parses one top-level declaration. A `$name(...)` at this
// position is an item-position macro call (ast.KMacroCallItem), which must
// be intercepted here rather than falling through to
// parseStmtOrTailExpr's own Dollar case (ast.KMacroCallStmt): the two
// positions select different macro-declaration groups (spec.md section
// 4.4), and parseStmtOrTailExpr has no way to tell "top-level item" apart
// from "nested statement" on its own.
func (p *Parser) parseItem() ast.StmtID {
	if p.at(token.Dollar) {
		return p.parseMacroCallItem()
	}
	s, _ := p.parseStmtOrTailExpr()
	return s
}

func (p *Parser) parseVarDecl() ast.StmtID {
	start := p.advance() // let/set/static
	aux := 0
	switch start.Kind {
	case token.KwSet:
		aux |= vdSet
	case token.KwStatic:
		aux |= vdStatic
		if p.at(token.KwSet) {
			p.advance()
			aux |= vdSet
		} else if p.at(token.KwLet) {
			p.advance()
		}
	}
	if p.at(token.KwMut) {
		p.advance()
		aux |= vdMut
	}
	name, ok := p.expect(token.Ident)
	if !ok {
		p.errorf(diag.VarDeclNameExpected)
	}
	declaredType := pInvalidType
	if p.at(token.Colon) {
		p.advance()
		declaredType = p.parseType()
	} else if aux&vdSet == 0 {
		p.errorf(diag.VarDeclTypeAnnotationRequired)
	}
	var init ast.ExprID = ast.NoNode
	if p.at(token.Eq) {
		p.advance()
		init = p.parseExpr()
	} else if aux&vdSet != 0 {
		p.errorf(diag.SetInitializerRequired)
	}
	if p.at(token.Semi) {
		p.advance()
	}
	n := p.A.New(ast.Node{Kind: ast.KVarDecl, Name: name.Lexeme, A: init, Aux: aux, Span: start.Span})
	node := p.A.Get(n)
	node.Type = declaredType
	p.A.Set(n, node)
	return n
}

func (p *Parser) parseWhileStmt() ast.StmtID {
	start := p.advance()
	p.expect(token.LParen)
	cond := p.parseExpr()
	p.expect(token.RParen)
	if !p.at(token.LBrace) {
		p.errorf(diag.WhileBodyExpectedBlock)
	}
	body := p.parseBlockStmt()
	return p.A.New(ast.Node{Kind: ast.KWhileStmt, A: cond, B: body, Span: start.Span})
}

func (p *Parser) parseDoStmt() ast.StmtID {
	start := p.advance() // do
	body := p.parseBlockStmt()
	if p.at(token.KwWhile) {
		p.advance()
		p.expect(token.LParen)
		cond := p.parseExpr()
		p.expect(token.RParen)
		if p.at(token.Semi) {
			p.advance()
		}
		return p.A.New(ast.Node{Kind: ast.KDoWhileStmt, A: body, B: cond, Span: start.Span})
	}
	return p.A.New(ast.Node{Kind: ast.KDoScopeStmt, A: body, Span: start.Span})
}

func (p *Parser) parseManualStmt() ast.StmtID {
	start := p.advance() // manual
	body := p.parseBlockStmt()
	return p.A.New(ast.Node{Kind: ast.KManualStmt, A: body, Span: start.Span})
}

func (p *Parser) parseSwitchStmt() ast.StmtID {
	start := p.advance() // switch
	p.expect(token.LParen)
	scrut := p.parseExpr()
	p.expect(token.RParen)
	p.expect(token.LBrace)
	var cases []ast.SwitchCase
	sawDefault := false
	for !p.at(token.RBrace) && !p.at(token.Eof) {
		var c ast.SwitchCase
		if p.at(token.KwDefault) {
			p.advance()
			if sawDefault {
				p.errorf(diag.SwitchCaseExpectedColon)
			}
			sawDefault = true
			c.IsDefault = true
		} else {
			c.Pattern = p.parseExpr()
		}
		if !p.at(token.Colon) {
			p.errorf(diag.SwitchCaseExpectedColon)
		} else {
			p.advance()
		}
		c.Body = p.parseBlockStmt()
		cases = append(cases, c)
	}
	p.expect(token.RBrace)
	begin, count := p.A.PushCases(cases)
	return p.A.New(ast.Node{Kind: ast.KSwitchStmt, A: scrut, CasesBegin: begin, CasesCount: count, Span: start.Span})
}

func (p *Parser) parseReturnStmt() ast.StmtID {
	start := p.advance()
	var v ast.ExprID = ast.NoNode
	if !p.at(token.Semi) {
		v = p.parseExpr()
	}
	if p.at(token.Semi) {
		p.advance()
	}
	return p.A.New(ast.Node{Kind: ast.KReturnStmt, A: v, Span: start.Span})
}

func (p *Parser) parseBreakStmt() ast.StmtID {
	start := p.advance()
	var v ast.ExprID = ast.NoNode
	if !p.at(token.Semi) {
		v = p.parseExpr()
	}
	if p.at(token.Semi) {
		p.advance()
	}
	return p.A.New(ast.Node{Kind: ast.KBreakStmt, A: v, Span: start.Span})
}

func (p *Parser) parseContinueStmt() ast.StmtID {
	start := p.advance()
	if p.at(token.Semi) {
		p.advance()
	}
	return p.A.New(ast.Node{Kind: ast.KContinueStmt, Span: start.Span})
}
