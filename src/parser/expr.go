package parser

import (
	"strconv"
	"strings"

	"github.com/GungYe918/parus-sub001/src/ast"
	"github.com/GungYe918/parus-sub001/src/diag"
	"github.com/GungYe918/parus-sub001/src/token"
)

// Operator tag constants, matching ast/print.go's opName table index order.
const (
	opAdd = iota
	opSub
	opMul
	opDiv
	opRem
	opEq
	opNe
	opLt
	opLe
	opGt
	opGe
	opAnd
	opOr
	opBitAnd
	opBitOr
	opBitXor
	opShl
	opShr
	opNot
	opAssign
	opAddEq
	opSubEq
	opMulEq
	opDivEq
	opRemEq
	opNullCoalesceEq
	opNullCoalesce
	opInc
	opDec
)

// precedence table for binary operators, highest number binds tightest.
// Matches spec.md section 4.2's operator precedence list.
var binPrec = map[token.Kind]int{
	token.QuestionQuestion: 2,
	token.PipePipe:         3,
	token.AmpAmp:           4, // note: AmpAmp is escape in prefix position; only reached here mid-expr.
	token.EqEq:             5, token.BangEq: 5,
	token.Lt: 6, token.LtEq: 6, token.Gt: 6, token.GtEq: 6,
	token.Pipe: 7, token.Caret: 7, token.Amp: 8,
	token.Shl: 9, token.Shr: 9,
	token.Plus: 10, token.Minus: 10,
	token.Star: 11, token.Slash: 11, token.Percent: 11,
}

var binOp = map[token.Kind]int{
	token.Plus: opAdd, token.Minus: opSub, token.Star: opMul, token.Slash: opDiv, token.Percent: opRem,
	token.EqEq: opEq, token.BangEq: opNe, token.Lt: opLt, token.LtEq: opLe, token.Gt: opGt, token.GtEq: opGe,
	token.PipePipe: opOr, token.AmpAmp: opAnd, token.Amp: opBitAnd, token.Pipe: opBitOr, token.Caret: opBitXor,
	token.Shl: opShl, token.Shr: opShr, token.QuestionQuestion: opNullCoalesce,
}

var assignOp = map[token.Kind]int{
	token.Eq: opAssign, token.PlusEq: opAddEq, token.MinusEq: opSubEq, token.StarEq: opMulEq,
	token.SlashEq: opDivEq, token.PercentEq: opRemEq, token.QuestionQuestionEq: opNullCoalesceEq,
}

// parseExpr parses a full expression starting at assignment precedence
// (the lowest), including the right-associative `??=` form.
func (p *Parser) parseExpr() ast.ExprID {
	lhs := p.parseTernary()
	if op, ok := assignOp[p.cur().Kind]; ok {
		start := p.cur().Span
		p.advance()
		rhs := p.parseExpr() // right-associative
		return p.A.New(ast.Node{Kind: ast.KAssign, A: lhs, B: rhs, Aux: op, Span: diag.Join(start, p.A.Get(rhs).Span)})
	}
	return lhs
}

func (p *Parser) parseTernary() ast.ExprID {
	cond := p.parseNullCoalesce()
	if p.at(token.Question) {
		p.advance()
		then := p.parseExpr()
		p.expect(token.Colon)
		els := p.parseExpr()
		return p.A.New(ast.Node{Kind: ast.KTernary, A: cond, B: then, C: els})
	}
	return cond
}

func (p *Parser) parseNullCoalesce() ast.ExprID {
	return p.parseBinary(2)
}

// parseBinary implements precedence climbing over binPrec/binOp.
func (p *Parser) parseBinary(minPrec int) ast.ExprID {
	lhs := p.parseUnary()
	for {
		prec, ok := binPrec[p.cur().Kind]
		if !ok || prec < minPrec {
			return lhs
		}
		opTok := p.advance()
		op := binOp[opTok.Kind]
		rhs := p.parseBinary(prec + 1)
		lhs = p.A.New(ast.Node{Kind: ast.KBinary, A: lhs, B: rhs, Aux: op, Span: diag.Join(p.A.Get(lhs).Span, p.A.Get(rhs).Span)})
	}
}

// parseUnary handles prefix operators: `-` and `~` (both encoded as opSub,
// negation), `!` (opNot), `&`/`&mut` (borrow), `&&` (escape). `^` is not a
// prefix operator.
func (p *Parser) parseUnary() ast.ExprID {
	start := p.cur()
	switch start.Kind {
	case token.Minus, token.Bang, token.Tilde:
		p.advance()
		operand := p.parseUnary()
		op := opSub
		if start.Kind == token.Bang {
			op = opNot
		}
		return p.A.New(ast.Node{Kind: ast.KUnary, A: operand, Aux: op, Span: diag.Join(start.Span, p.A.Get(operand).Span)})
	case token.Amp:
		p.advance()
		isMut := false
		if p.at(token.KwMut) {
			p.advance()
			isMut = true
		}
		if p.at(token.Amp) {
			p.errorf(diag.AmbiguousAmpPrefixChain)
		}
		place := p.parseUnary()
		aux := 0
		if isMut {
			aux = 1
		}
		return p.A.New(ast.Node{Kind: ast.KBorrow, A: place, Aux: aux, Span: diag.Join(start.Span, p.A.Get(place).Span)})
	case token.AmpAmp:
		p.advance()
		place := p.parseUnary()
		return p.A.New(ast.Node{Kind: ast.KEscape, A: place, Span: diag.Join(start.Span, p.A.Get(place).Span)})
	}
	return p.parsePostfix()
}

// parsePostfix handles call `()`, index `[]`, field `.`, and the three
// cast forms `as`/`as?`/`as!`.
func (p *Parser) parsePostfix() ast.ExprID {
	e := p.parsePrimary()
	for {
		switch {
		case p.at(token.LParen):
			e = p.parseCall(e)
		case p.at(token.LBracket):
			p.advance()
			idx := p.parseExpr()
			p.expect(token.RBracket)
			e = p.A.New(ast.Node{Kind: ast.KIndex, A: e, B: idx})
		case p.at(token.Dot):
			p.advance()
			name, _ := p.expect(token.Ident)
			e = p.A.New(ast.Node{Kind: ast.KField, A: e, Name: name.Lexeme, Span: name.Span})
		case p.at(token.PlusPlus), p.at(token.MinusMinus):
			op := opInc
			if p.at(token.MinusMinus) {
				op = opDec
			}
			tok := p.advance()
			e = p.A.New(ast.Node{Kind: ast.KPostfixInc, A: e, Aux: op, Span: tok.Span})
		case p.at(token.KwAs), p.at(token.AsQ), p.at(token.AsBang):
			kind := ast.CastAs
			if p.at(token.AsQ) {
				kind = ast.CastAsQ
			} else if p.at(token.AsBang) {
				kind = ast.CastAsBang
			}
			p.advance()
			ty := p.parseType()
			n := p.A.New(ast.Node{Kind: ast.KCast, A: e, Aux: int(kind)})
			node := p.A.Get(n)
			node.Type = ty
			p.A.Set(n, node)
			e = n
		default:
			return e
		}
	}
}

// parseCall parses the argument list of a call expression starting at the
// current `(`. Positional and labeled arguments may precede at most one
// trailing named-group; anything after a named group is rejected.
func (p *Parser) parseCall(callee ast.ExprID) ast.ExprID {
	open := p.advance() // (
	var args []ast.Arg
	sawNamedGroup := false
	for !p.at(token.RParen) && !p.at(token.Eof) {
		if sawNamedGroup {
			p.errorf(diag.CallNoArgsAfterNamedGroup)
		}
		if p.at(token.LBrace) {
			args = append(args, p.parseNamedGroupArg())
			sawNamedGroup = true
		} else if p.at(token.Ident) && p.peekAt(1).Kind == token.Colon {
			label := p.advance().Lexeme
			p.advance() // :
			v := p.parseExpr()
			args = append(args, ast.Arg{Kind: ast.ArgLabeled, Label: label, Value: v})
		} else {
			v := p.parseExpr()
			args = append(args, ast.Arg{Kind: ast.ArgPositional, Value: v})
		}
		if p.at(token.Comma) {
			p.advance()
			continue
		}
		break
	}
	close_, _ := p.expect(token.RParen)
	begin, count := p.A.PushArgs(args)
	return p.A.New(ast.Node{Kind: ast.KCall, A: callee, ArgsBegin: begin, ArgsCount: count, Span: diag.Join(open.Span, close_.Span)})
}

func (p *Parser) parseNamedGroupArg() ast.Arg {
	p.advance() // {
	var entries []ast.NamedGroupEntry
	for !p.at(token.RBrace) && !p.at(token.Eof) {
		name, _ := p.expect(token.Ident)
		p.expect(token.Colon)
		v := p.parseExpr()
		entries = append(entries, ast.NamedGroupEntry{Label: name.Lexeme, Value: v})
		if p.at(token.Comma) {
			p.advance()
			continue
		}
		break
	}
	p.expect(token.RBrace)
	begin, count := p.A.PushNamedGroup(entries)
	return ast.Arg{Kind: ast.ArgNamedGroup, GroupBegin: begin, GroupCount: count}
}

// parsePrimary parses literals, identifiers, parenthesized expressions,
// array literals, `if` (as expression), block expressions, and `loop`.
func (p *Parser) parsePrimary() ast.ExprID {
	t := p.cur()
	switch t.Kind {
	case token.IntLit:
		p.advance()
		v, _ := strconv.ParseInt(stripIntSuffix(t.Lexeme), 10, 64)
		return p.A.New(ast.Node{Kind: ast.KIntLit, Lit: v, Span: t.Span, Name: intSuffix(t.Lexeme)})
	case token.FloatLit:
		p.advance()
		v, _ := strconv.ParseFloat(stripFloatSuffix(t.Lexeme), 64)
		return p.A.New(ast.Node{Kind: ast.KFloatLit, Lit: v, Span: t.Span})
	case token.StringLit, token.RawStringLit, token.InterpStringLit:
		p.advance()
		return p.A.New(ast.Node{Kind: ast.KStringLit, Lit: unquoteLexeme(t.Lexeme), Span: t.Span})
	case token.CharLit:
		p.advance()
		return p.A.New(ast.Node{Kind: ast.KCharLit, Lit: unquoteLexeme(t.Lexeme), Span: t.Span})
	case token.KwTrue, token.KwFalse:
		p.advance()
		return p.A.New(ast.Node{Kind: ast.KBoolLit, Lit: t.Kind == token.KwTrue, Span: t.Span})
	case token.KwNull:
		p.advance()
		return p.A.New(ast.Node{Kind: ast.KNullLit, Span: t.Span})
	case token.Ident:
		p.advance()
		return p.A.New(ast.Node{Kind: ast.KIdent, Name: t.Lexeme, Span: t.Span})
	case token.Dollar:
		return p.parseMacroCallExpr()
	case token.LParen:
		p.advance()
		e := p.parseExpr()
		p.expect(token.RParen)
		return e
	case token.LBracket:
		p.advance()
		var elems []ast.ExprID
		for !p.at(token.RBracket) && !p.at(token.Eof) {
			elems = append(elems, p.parseExpr())
			if p.at(token.Comma) {
				p.advance()
				continue
			}
			break
		}
		p.expect(token.RBracket)
		begin, count := p.A.PushChildren(elems)
		return p.A.New(ast.Node{Kind: ast.KArrayLit, ChildrenBegin: begin, ChildrenCnt: count, Span: t.Span})
	case token.KwIf:
		return p.parseIfExpr()
	case token.KwLoop:
		return p.parseLoopExpr()
	case token.LBrace:
		return p.parseBlockExpr()
	default:
		p.errorf(diag.UnexpectedToken, t.Kind.String())
		p.advance()
		return p.A.New(ast.Node{Kind: ast.KError, Span: t.Span})
	}
}

func (p *Parser) parseIfExpr() ast.ExprID {
	start := p.advance() // if
	p.expect(token.LParen)
	cond := p.parseExpr()
	p.expect(token.RParen)
	then := p.parseBlockExpr()
	var els ast.ExprID = ast.NoNode
	if p.at(token.KwElse) {
		p.advance()
		if p.at(token.KwIf) {
			els = p.parseIfExpr()
		} else {
			els = p.parseBlockExpr()
		}
	} else if p.at(token.KwElif) {
		// elif desugars to a nested if/else, per spec.md section 4.2.
		els = p.parseIfExprFromElif()
	}
	return p.A.New(ast.Node{Kind: ast.KIfExpr, A: cond, B: then, C: els, Span: start.Span})
}

func (p *Parser) parseIfExprFromElif() ast.ExprID {
	start := p.advance() // elif
	p.expect(token.LParen)
	cond := p.parseExpr()
	p.expect(token.RParen)
	then := p.parseBlockExpr()
	var els ast.ExprID = ast.NoNode
	if p.at(token.KwElse) {
		p.advance()
		els = p.parseBlockExpr()
	} else if p.at(token.KwElif) {
		els = p.parseIfExprFromElif()
	}
	return p.A.New(ast.Node{Kind: ast.KIfExpr, A: cond, B: then, C: els, Span: start.Span})
}

func (p *Parser) parseLoopExpr() ast.ExprID {
	start := p.advance() // loop
	body := p.parseBlockStmt()
	return p.A.New(ast.Node{Kind: ast.KLoopExpr, LoopBody: body, Span: start.Span})
}

// parseBlockExpr parses `{ stmt* tailExpr? }` as an expression through
// parseBlockStmt: the statements occupy the node's children range and `b`
// holds the optional tail ExprID.
func (p *Parser) parseBlockExpr() ast.ExprID {
	return p.parseBlockStmt()
}

func (p *Parser) parseBlockStmt() ast.StmtID {
	open, _ := p.expect(token.LBrace)
	var stmts []ast.StmtID
	var tail ast.ExprID = ast.NoNode
	for !p.at(token.RBrace) && !p.at(token.Eof) {
		startPos := p.pos
		s, isTailCandidate := p.parseStmtOrTailExpr()
		if isTailCandidate && p.at(token.RBrace) {
			tail = s
			break
		}
		if s != ast.NoNode {
			stmts = append(stmts, s)
		}
		if p.pos == startPos {
			p.recover(startPos)
		}
	}
	close_, _ := p.expect(token.RBrace)
	begin, count := p.A.PushChildren(stmts)
	return p.A.New(ast.Node{Kind: ast.KBlockStmt, ChildrenBegin: begin, ChildrenCnt: count, B: tail, Span: diag.Join(open.Span, close_.Span)})
}

func stripIntSuffix(lex string) string {
	i := 0
	for i < len(lex) && (lex[i] >= '0' && lex[i] <= '9') {
		i++
	}
	return lex[:i]
}

func intSuffix(lex string) string {
	i := 0
	for i < len(lex) && (lex[i] >= '0' && lex[i] <= '9') {
		i++
	}
	return lex[i:]
}

func stripFloatSuffix(lex string) string {
	i := 0
	for i < len(lex) {
		c := lex[i]
		if (c >= '0' && c <= '9') || c == '.' || c == 'e' || c == 'E' || c == '+' || c == '-' {
			i++
			continue
		}
		break
	}
	return lex[:i]
}

func unquoteLexeme(lex string) string {
	s := strings.TrimPrefix(lex, "R")
	s = strings.TrimPrefix(s, "F")
	s = strings.Trim(s, "\"'")
	s = strings.TrimPrefix(s, "\"\"")
	s = strings.TrimSuffix(s, "\"\"")
	return s
}
