// Package parser implements a recursive-descent, Pratt-style expression
// parser with bounded lookahead and an explicit error-recovery protocol,
// per spec.md section 4.2. It cannot be grounded on the teacher's
// goyacc grammar (parser.y describes a different, untyped toy language with
// none of this language's borrow/escape/acts/macro productions) — see
// DESIGN.md — so the grammar itself is authored fresh from spec.md, while
// the surrounding driver idiom (construct, wrap errors, continue past
// reported problems) follows frontend/tree.go's Parse/TokenStream shape.
package parser

import (
	"github.com/GungYe918/parus-sub001/src/ast"
	"github.com/GungYe918/parus-sub001/src/diag"
	"github.com/GungYe918/parus-sub001/src/token"
	"github.com/GungYe918/parus-sub001/src/typepool"
)

// ----------------------------
// ----- Type definitions -----
// ----------------------------

// Parser holds all of the mutable arenas a parse pass writes into, plus its
// own cursor state over a pre-lexed token buffer.
type Parser struct {
	toks []token.Token
	pos  int

	A    *ast.Arena
	Pool *typepool.Pool
	Bag  *diag.Bag

	maxErrors int
	errCount  int
	aborted   bool

	// macroTypeSeq numbers this parser's type-position macro calls so each
	// placeholder type parseMacroCallType interns is structurally unique
	// even when two calls name the same macro (see ast.Arena.PushMacroTypeNode).
	macroTypeSeq int
}

// ---------------------
// ----- constants -----
// ---------------------

// kMaxParseErrors is the hard safety cap on reported parse errors before
// the driver aborts the parser (and every subsequent stage), per spec.md
// section 4.2.
const kMaxParseErrors = 64

// ---------------------
// ----- functions -----
// ---------------------

// New constructs a Parser over a complete token slice (the lexer having
// already run to completion). maxErrors of 0 selects kMaxParseErrors.
func New(toks []token.Token, a *ast.Arena, pool *typepool.Pool, bag *diag.Bag, maxErrors int) *Parser {
	if maxErrors <= 0 {
		maxErrors = kMaxParseErrors
	}
	return &Parser{toks: toks, A: a, Pool: pool, Bag: bag, maxErrors: maxErrors}
}

// Aborted reports whether the hard error cap fired.
func (p *Parser) Aborted() bool { return p.aborted }

func (p *Parser) cur() token.Token {
	if p.pos >= len(p.toks) {
		return token.Token{Kind: token.Eof}
	}
	return p.toks[p.pos]
}

func (p *Parser) peekAt(n int) token.Token {
	i := p.pos + n
	if i >= len(p.toks) {
		return token.Token{Kind: token.Eof}
	}
	return p.toks[i]
}

func (p *Parser) at(k token.Kind) bool { return p.cur().Kind == k }

func (p *Parser) advance() token.Token {
	t := p.cur()
	if t.Kind != token.Eof {
		p.pos++
	}
	return t
}

// expect consumes a token of kind k, reporting diag.ExpectedToken and
// returning a zero Token if the cursor isn't on one.
func (p *Parser) expect(k token.Kind) (token.Token, bool) {
	if p.at(k) {
		return p.advance(), true
	}
	p.errorf(diag.ExpectedToken, k.String(), p.cur().Kind.String())
	return token.Token{}, false
}

// errorf reports a diagnostic at the current cursor position, then checks
// the hard error cap, matching the '-fmax-errors=N' fatal-abort rule.
func (p *Parser) errorf(code diag.Code, args ...interface{}) {
	p.Bag.Errorf(code, p.cur().Span, args...)
	p.errCount++
	if p.errCount > p.maxErrors {
		p.Bag.Fatalf(diag.TooManyErrors, p.cur().Span, p.maxErrors)
		p.aborted = true
	}
}

// boundaryTokens is the small set of tokens the recovery protocol
// synchronizes to: statement terminators, block delimiters, and
// declaration/keyword starts.
func (p *Parser) isBoundary(t token.Token) bool {
	switch t.Kind {
	case token.Semi, token.RBrace, token.Eof,
		token.KwLet, token.KwSet, token.KwStatic, token.KwIf, token.KwWhile,
		token.KwDo, token.KwManual, token.KwSwitch, token.KwReturn, token.KwBreak,
		token.KwContinue, token.KwUse, token.KwNest, token.KwFn, token.KwField,
		token.KwActs:
		return true
	}
	return false
}

// recover synchronizes the cursor to the next boundary token after an
// unexpected-token error, guaranteeing forward progress: if the cursor
// hasn't moved after a full statement attempt, the driver consumes one
// token, per spec.md section 4.2.
func (p *Parser) recover(startPos int) {
	for !p.isBoundary(p.cur()) {
		if p.aborted {
			return
		}
		p.advance()
	}
	if p.at(token.Semi) {
		p.advance()
	}
	if p.pos == startPos && !p.at(token.Eof) {
		p.advance()
	}
}

// ParseProgram parses a full top-level program: zero or more items
// (function/field/acts/use/nest declarations) until Eof, returning the
// synthetic root block's StmtID.
func (p *Parser) ParseProgram() ast.StmtID {
	var items []ast.StmtID
	for !p.at(token.Eof) && !p.aborted {
		startPos := p.pos
		id := p.parseItem()
		if id != ast.NoNode {
			items = append(items, id)
		}
		if p.pos == startPos {
			p.recover(startPos)
		}
	}
	begin, count := p.A.PushChildren(items)
	return p.A.New(ast.Node{Kind: ast.KBlockStmt, ChildrenBegin: begin, ChildrenCnt: count, B: ast.NoNode})
}

// ParseExprFull parses a standalone, Eof-terminated expression token
// stream, the `--expr` CLI surface and the macro expander's CtxExpr
// reparse target (see macro.ReparseFunc's doc comment on why this lives on
// Parser rather than macro importing parser directly).
func ParseExprFull(toks []token.Token, a *ast.Arena, pool *typepool.Pool, bag *diag.Bag) (ast.ExprID, bool) {
	p := New(toks, a, pool, bag, 0)
	id := p.parseExpr()
	return id, !p.aborted
}

// ParseStmtFull parses a standalone, Eof-terminated statement token
// stream: the `--stmt` CLI surface and the macro expander's CtxStmt
// reparse target.
func ParseStmtFull(toks []token.Token, a *ast.Arena, pool *typepool.Pool, bag *diag.Bag) (ast.StmtID, bool) {
	p := New(toks, a, pool, bag, 0)
	id, _ := p.parseStmtOrTailExpr()
	return id, !p.aborted
}

// ParseItemFull parses a standalone, Eof-terminated top-level item token
// stream: the macro expander's CtxItem reparse target.
func ParseItemFull(toks []token.Token, a *ast.Arena, pool *typepool.Pool, bag *diag.Bag) (ast.StmtID, bool) {
	p := New(toks, a, pool, bag, 0)
	id := p.parseItem()
	return id, !p.aborted
}

// ParseTypeFull parses a standalone, Eof-terminated type token stream: the
// macro expander's CtxType reparse target, mirroring spec.md section 4.2's
// `parse_type_full_for_macro`. The caller (the CtxType case of main.go's
// ReparseFunc) wraps the returned TypeID back into a KTypeValue node so it
// fits the same `(ast.NodeID, bool)` shape every other reparse entry point
// returns; see macro.Expander.resolveTypeMacros in src/macro/walk.go.
func ParseTypeFull(toks []token.Token, a *ast.Arena, pool *typepool.Pool, bag *diag.Bag) (typepool.TypeID, bool) {
	p := New(toks, a, pool, bag, 0)
	ty := p.parseType()
	return ty, !p.aborted
}
