package parser

import (
	"strconv"

	"github.com/GungYe918/parus-sub001/src/diag"
	"github.com/GungYe918/parus-sub001/src/token"
	"github.com/GungYe918/parus-sub001/src/typepool"
)

// parseType parses a type expression: a path (with optional generic
// args), optionally wrapped in borrow/escape/array/optional syntax.
// Grammar (highest precedence first, matching spec.md section 4.3's
// pretty-printer inverse):
//
//	type := ('&' 'mut'? | '^&')? primaryType ('[' ']' | '[' int ']')* '?'?
func (p *Parser) parseType() typepool.TypeID {
	switch {
	case p.at(token.Amp):
		p.advance()
		isMut := false
		if p.at(token.KwMut) {
			p.advance()
			isMut = true
		}
		elem := p.parseType()
		return p.Pool.MakeBorrow(elem, isMut)
	case p.at(token.AmpAmp), p.at(token.CaretAmp):
		p.advance()
		elem := p.parseType()
		return p.Pool.MakeEscape(elem)
	}
	t := p.parsePrimaryType()
	for {
		switch {
		case p.at(token.LBracket):
			p.advance()
			if p.at(token.IntLit) {
				n, _ := strconv.ParseUint(p.cur().Lexeme, 10, 64)
				p.advance()
				p.expect(token.RBracket)
				t = p.Pool.MakeArray(t, true, n)
			} else {
				p.expect(token.RBracket)
				t = p.Pool.MakeArray(t, false, 0)
			}
		case p.at(token.Question):
			p.advance()
			t = p.Pool.MakeOptional(t)
		default:
			return t
		}
	}
}

// parsePrimaryType parses a builtin keyword type, a (possibly qualified,
// possibly generic) named user type, or a type-position macro call.
func (p *Parser) parsePrimaryType() typepool.TypeID {
	if p.at(token.Dollar) {
		return p.parseMacroCallType()
	}
	if k, ok := builtinTypeKeyword(p.cur().Kind); ok {
		p.advance()
		return p.Pool.BuiltinID(k)
	}
	if !p.at(token.Ident) {
		p.errorf(diag.CastTargetTypeExpected)
		return p.Pool.Error()
	}
	segs := []string{p.advance().Lexeme}
	for p.at(token.ColonColon) {
		p.advance()
		if !p.at(token.Ident) {
			break
		}
		segs = append(segs, p.advance().Lexeme)
	}
	var args []typepool.TypeID
	if p.at(token.Lt) {
		p.advance()
		for !p.at(token.Gt) && !p.at(token.Eof) {
			args = append(args, p.parseType())
			if p.at(token.Comma) {
				p.advance()
				continue
			}
			break
		}
		p.expect(token.Gt)
	}
	if len(args) == 0 {
		return p.Pool.InternPath(segs)
	}
	return p.Pool.MakeNamedUserPath(segs, args)
}

func builtinTypeKeyword(k token.Kind) (typepool.Builtin, bool) {
	switch k {
	case token.KwVoid:
		return typepool.Unit, true
	case token.KwBool:
		return typepool.Bool, true
	case token.KwChar:
		return typepool.Char, true
	case token.KwText:
		return typepool.Text, true
	case token.KwI8:
		return typepool.I8, true
	case token.KwI16:
		return typepool.I16, true
	case token.KwI32:
		return typepool.I32, true
	case token.KwI64:
		return typepool.I64, true
	case token.KwI128:
		return typepool.I128, true
	case token.KwU8:
		return typepool.U8, true
	case token.KwU16:
		return typepool.U16, true
	case token.KwU32:
		return typepool.U32, true
	case token.KwU64:
		return typepool.U64, true
	case token.KwU128:
		return typepool.U128, true
	case token.KwIsize:
		return typepool.ISize, true
	case token.KwUsize:
		return typepool.USize, true
	case token.KwF32:
		return typepool.F32, true
	case token.KwF64:
		return typepool.F64, true
	case token.KwF128:
		return typepool.F128, true
	}
	return 0, false
}
