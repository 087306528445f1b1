// Package token defines the closed token-kind enumeration and the Token
// record the lexer emits. Tokens are immutable once lexed: a Token's Lexeme
// is a borrowed slice into the source.Manager's buffer, never copied.
package token

import "github.com/GungYe918/parus-sub001/src/diag"

// Kind tags every lexeme the lexer can emit. The enumeration intentionally
// mirrors spec.md section 3's "~150 token kinds" budget: keywords,
// punctuators, and literal classes, plus Eof and Error sentinels.
type Kind int

const (
	Invalid Kind = iota
	Eof

	// ----- literal classes -----
	IntLit
	FloatLit
	StringLit
	RawStringLit
	InterpStringLit
	CharLit
	Ident

	// ----- keywords -----
	KwLet
	KwSet
	KwStatic
	KwMut
	KwIf
	KwElif
	KwElse
	KwWhile
	KwDo
	KwManual
	KwSwitch
	KwDefault
	KwReturn
	KwBreak
	KwContinue
	KwUse
	KwNest
	KwFn
	KwField
	KwActs
	KwFor
	KwLoop
	KwAs
	KwNull
	KwTrue
	KwFalse
	KwFunc
	KwStruct
	KwFfi

	// ----- builtin type keywords -----
	KwVoid
	KwBool
	KwChar
	KwText
	KwI8
	KwI16
	KwI32
	KwI64
	KwI128
	KwU8
	KwU16
	KwU32
	KwU64
	KwU128
	KwIsize
	KwUsize
	KwF32
	KwF64
	KwF128

	// ----- punctuators -----
	LParen
	RParen
	LBrace
	RBrace
	LBracket
	RBracket
	Comma
	Colon
	ColonColon
	Semi
	Dot
	Arrow
	FatArrow
	Question
	QuestionQuestion
	QuestionQuestionEq
	QuestionColon
	Amp
	AmpAmp
	AmpMut
	Caret
	CaretAmp
	Bang
	BangEq
	Eq
	EqEq
	Lt
	LtEq
	Gt
	GtEq
	Plus
	PlusEq
	Minus
	MinusEq
	Star
	StarEq
	Slash
	SlashEq
	Percent
	PercentEq
	Pipe
	PipePipe
	Caret_
	Tilde
	Shl
	Shr
	PlusPlus
	MinusMinus
	AsQ
	AsBang
	Dollar
	Dot3
	Dot2

	maxKind
)

var names = map[Kind]string{
	Invalid: "<invalid>", Eof: "<eof>",
	IntLit: "int-literal", FloatLit: "float-literal", StringLit: "string-literal",
	RawStringLit: "raw-string-literal", InterpStringLit: "interp-string-literal",
	CharLit: "char-literal", Ident: "identifier",
	KwLet: "let", KwSet: "set", KwStatic: "static", KwMut: "mut",
	KwIf: "if", KwElif: "elif", KwElse: "else", KwWhile: "while", KwDo: "do",
	KwManual: "manual", KwSwitch: "switch", KwDefault: "default",
	KwReturn: "return", KwBreak: "break", KwContinue: "continue",
	KwUse: "use", KwNest: "nest", KwFn: "fn", KwField: "field",
	KwActs: "acts", KwFor: "for", KwLoop: "loop", KwAs: "as",
	KwNull: "null", KwTrue: "true", KwFalse: "false",
	KwFunc: "func", KwStruct: "struct", KwFfi: "ffi",
	KwVoid: "void", KwBool: "bool", KwChar: "char", KwText: "text",
	KwI8: "i8", KwI16: "i16", KwI32: "i32", KwI64: "i64", KwI128: "i128",
	KwU8: "u8", KwU16: "u16", KwU32: "u32", KwU64: "u64", KwU128: "u128",
	KwIsize: "isize", KwUsize: "usize", KwF32: "f32", KwF64: "f64", KwF128: "f128",
	LParen: "(", RParen: ")", LBrace: "{", RBrace: "}", LBracket: "[", RBracket: "]",
	Comma: ",", Colon: ":", ColonColon: "::", Semi: ";", Dot: ".",
	Arrow: "->", FatArrow: "=>",
	Question: "?", QuestionQuestion: "??", QuestionQuestionEq: "??=", QuestionColon: "?:",
	Amp: "&", AmpAmp: "&&", AmpMut: "&mut", Caret: "^", CaretAmp: "^&",
	Bang: "!", BangEq: "!=", Eq: "=", EqEq: "==",
	Lt: "<", LtEq: "<=", Gt: ">", GtEq: ">=",
	Plus: "+", PlusEq: "+=", Minus: "-", MinusEq: "-=",
	Star: "*", StarEq: "*=", Slash: "/", SlashEq: "/=",
	Percent: "%", PercentEq: "%=", Pipe: "|", PipePipe: "||",
	Caret_: "^", Tilde: "~", Shl: "<<", Shr: ">>",
	PlusPlus: "++", MinusMinus: "--", AsQ: "as?", AsBang: "as!",
	Dollar: "$", Dot3: "...", Dot2: "..",
}

// String returns the canonical spelling or descriptive label for k.
func (k Kind) String() string {
	if s, ok := names[k]; ok {
		return s
	}
	return "<unknown-kind>"
}

// IsKeyword reports whether k is one of the reserved keyword kinds.
func (k Kind) IsKeyword() bool {
	return k >= KwLet && k <= KwF128
}

// Token is an immutable lexeme produced by the lexer: a kind tag, the
// borrowed source slice, and its span.
type Token struct {
	Kind   Kind
	Lexeme string
	Span   diag.Span
}
