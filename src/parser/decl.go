package parser

import (
	"github.com/GungYe918/parus-sub001/src/ast"
	"github.com/GungYe918/parus-sub001/src/diag"
	"github.com/GungYe918/parus-sub001/src/token"
)

// parseFnDecl parses `fn name(params) -> retType { body }` with optional
// leading attributes (`pure`, `comptime`, `extern`, ...).
func (p *Parser) parseFnDecl() ast.StmtID {
	start := p.advance() // fn
	var attrs []string
	for p.at(token.Ident) && p.peekAt(1).Kind != token.LParen && isAttrKeyword(p.cur().Lexeme) {
		attrs = append(attrs, p.advance().Lexeme)
	}
	name, ok := p.expect(token.Ident)
	if !ok {
		p.errorf(diag.FnNameExpected)
	}
	p.expect(token.LParen)
	var params []ast.Param
	for !p.at(token.RParen) && !p.at(token.Eof) {
		pm := ast.Param{}
		if p.at(token.KwMut) {
			p.advance()
			pm.IsMut = true
		}
		pname, _ := p.expect(token.Ident)
		pm.Name = pname.Lexeme
		p.expect(token.Colon)
		pm.Type = p.parseType()
		if p.at(token.Eq) {
			p.advance()
			pm.HasDefault = true
			pm.Default = p.parseExpr()
		}
		params = append(params, pm)
		if p.at(token.Comma) {
			p.advance()
			continue
		}
		break
	}
	p.expect(token.RParen)
	retType := pInvalidType
	if p.at(token.Arrow) {
		p.advance()
		retType = p.parseType()
	}
	var body ast.StmtID = ast.NoNode
	if p.at(token.LBrace) {
		body = p.parseBlockStmt()
	} else if p.at(token.Semi) {
		p.advance() // extern/ffi declaration with no body
	}
	pb, pc := p.A.PushParams(params)
	ab, ac := p.A.PushAttrs(attrs)
	n := p.A.New(ast.Node{
		Kind: ast.KFnDecl, Name: name.Lexeme, B: body,
		ParamsBegin: pb, ParamsCount: pc, AttrsBegin: ab, AttrsCount: ac,
		Span: start.Span,
	})
	node := p.A.Get(n)
	node.Type = retType
	p.A.Set(n, node)
	return n
}

func isAttrKeyword(s string) bool {
	switch s {
	case "pure", "comptime", "extern":
		return true
	}
	return false
}

// parseFieldDecl parses `field Name { member: Type, ... }`.
func (p *Parser) parseFieldDecl() ast.StmtID {
	start := p.advance() // field
	name, ok := p.expect(token.Ident)
	if !ok {
		p.errorf(diag.FieldMemberNameExpected)
	}
	p.expect(token.LBrace)
	var members []ast.FieldMember
	for !p.at(token.RBrace) && !p.at(token.Eof) {
		mname, mok := p.expect(token.Ident)
		if !mok {
			p.errorf(diag.FieldMemberNameExpected)
			break
		}
		p.expect(token.Colon)
		mt := p.parseType()
		members = append(members, ast.FieldMember{Name: mname.Lexeme, Type: mt})
		if p.at(token.Comma) {
			p.advance()
			continue
		}
		break
	}
	p.expect(token.RBrace)
	fb, fc := p.A.PushFields(members)
	return p.A.New(ast.Node{Kind: ast.KFieldDecl, Name: name.Lexeme, ParamsBegin: fb, ParamsCount: fc, Span: start.Span})
}

// parseActsDecl parses either a namespace-acts block (`acts Name { fn ... }`)
// or a `for`-lane binding (`acts Name for T { fn ... }`), the two lanes
// spec.md section 4.5 describes.
func (p *Parser) parseActsDecl() ast.StmtID {
	start := p.advance() // acts
	name, ok := p.expect(token.Ident)
	if !ok {
		p.errorf(diag.ActsNameExpected)
	}
	isForLane := false
	var target ast.ExprID = ast.NoNode
	if p.at(token.KwFor) {
		p.advance()
		isForLane = true
		tok, _ := p.expect(token.Ident)
		target = p.A.New(ast.Node{Kind: ast.KIdent, Name: tok.Lexeme, Span: tok.Span})
	}
	body := p.parseBlockStmt()
	aux := 0
	if isForLane {
		aux = 1
	}
	return p.A.New(ast.Node{Kind: ast.KActsDecl, Name: name.Lexeme, A: target, B: body, Aux: aux, Span: start.Span})
}

// parseUseDecl parses the four `use` variants plus the two FFI forms, per
// spec.md section 4.2.
func (p *Parser) parseUseDecl() ast.StmtID {
	start := p.advance() // use
	switch {
	case p.at(token.KwFunc) && p.peekAt(1).Kind == token.ColonColon:
		return p.parseUseFfiFunc(start)
	case p.at(token.KwStruct) && p.peekAt(1).Kind == token.ColonColon:
		return p.parseUseFfiStruct(start)
	case p.at(token.Ident) && looksLikeTypeAlias(p):
		return p.parseUseTypeAlias(start)
	default:
		return p.parseUseImportOrPathAlias(start)
	}
}

func looksLikeTypeAlias(p *Parser) bool {
	return p.peekAt(1).Kind == token.Eq
}

func (p *Parser) parseUseImportOrPathAlias(start token.Token) ast.StmtID {
	segs := p.parsePathSegs()
	if p.at(token.KwAs) {
		p.advance()
		alias, _ := p.expect(token.Ident)
		if p.at(token.Semi) {
			p.advance()
		}
		pb, pc := p.A.PushPath(segs)
		return p.A.New(ast.Node{Kind: ast.KUsePathAlias, Name: alias.Lexeme, PathBegin: pb, PathCount: pc, Span: start.Span})
	}
	if p.at(token.Semi) {
		p.advance()
	}
	pb, pc := p.A.PushPath(segs)
	return p.A.New(ast.Node{Kind: ast.KUseImport, PathBegin: pb, PathCount: pc, Span: start.Span})
}

func (p *Parser) parseUseTypeAlias(start token.Token) ast.StmtID {
	alias, _ := p.expect(token.Ident)
	p.expect(token.Eq)
	ty := p.parseType()
	if p.at(token.Semi) {
		p.advance()
	}
	n := p.A.New(ast.Node{Kind: ast.KUseTypeAlias, Name: alias.Lexeme, Span: start.Span})
	node := p.A.Get(n)
	node.Type = ty
	p.A.Set(n, node)
	return n
}

func (p *Parser) parsePathSegs() []string {
	var segs []string
	if p.at(token.Ident) {
		segs = append(segs, p.advance().Lexeme)
	}
	for p.at(token.ColonColon) {
		p.advance()
		if p.at(token.Ident) {
			segs = append(segs, p.advance().Lexeme)
		}
	}
	return segs
}

func (p *Parser) parseUseFfiFunc(start token.Token) ast.StmtID {
	p.advance() // func
	p.advance() // ::
	p.expect(token.KwFfi)
	p.expect(token.Lt)
	sig := p.parseType()
	p.expect(token.Gt)
	name, _ := p.expect(token.Ident)
	if p.at(token.Semi) {
		p.advance()
	}
	n := p.A.New(ast.Node{Kind: ast.KUseFfiFunc, Name: name.Lexeme, Span: start.Span})
	node := p.A.Get(n)
	node.Type = sig
	p.A.Set(n, node)
	return n
}

func (p *Parser) parseUseFfiStruct(start token.Token) ast.StmtID {
	p.advance() // struct
	p.advance() // ::
	p.expect(token.KwFfi)
	name, _ := p.expect(token.Ident)
	p.expect(token.LBrace)
	var members []ast.FieldMember
	for !p.at(token.RBrace) && !p.at(token.Eof) {
		mname, _ := p.expect(token.Ident)
		p.expect(token.Colon)
		mt := p.parseType()
		members = append(members, ast.FieldMember{Name: mname.Lexeme, Type: mt})
		if p.at(token.Comma) {
			p.advance()
			continue
		}
		break
	}
	p.expect(token.RBrace)
	fb, fc := p.A.PushFields(members)
	return p.A.New(ast.Node{Kind: ast.KUseFfiStruct, Name: name.Lexeme, ParamsBegin: fb, ParamsCount: fc, Span: start.Span})
}

// parseNestDecl parses a namespace declaration. `nest Name;` is a
// file-scoped directive (no body); `nest Name { ... }` is a block form.
func (p *Parser) parseNestDecl() ast.StmtID {
	start := p.advance() // nest
	name, _ := p.expect(token.Ident)
	if p.at(token.Semi) {
		p.advance()
		return p.A.New(ast.Node{Kind: ast.KNestDecl, Name: name.Lexeme, Span: start.Span})
	}
	body := p.parseBlockStmt()
	return p.A.New(ast.Node{Kind: ast.KNestDecl, Name: name.Lexeme, A: body, Span: start.Span})
}
