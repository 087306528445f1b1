package token

// keywordBuckets groups keywordList (reserved word -> Kind) by word length.
// LookupKeyword below picks the bucket by length before scanning, mirroring frontend/lang.go's rw table: indexing
// by length and only then scanning the bucket is faster than a flat hash
// lookup for the small keyword set this language has.
var keywordBuckets = buildKeywordBuckets()

var keywordList = map[string]Kind{
	"let": KwLet, "set": KwSet, "static": KwStatic, "mut": KwMut,
	"if": KwIf, "elif": KwElif, "else": KwElse, "while": KwWhile, "do": KwDo,
	"manual": KwManual, "switch": KwSwitch, "default": KwDefault,
	"return": KwReturn, "break": KwBreak, "continue": KwContinue,
	"use": KwUse, "nest": KwNest, "fn": KwFn, "field": KwField,
	"acts": KwActs, "for": KwFor, "loop": KwLoop, "as": KwAs,
	"null": KwNull, "true": KwTrue, "false": KwFalse,
	"func": KwFunc, "struct": KwStruct, "ffi": KwFfi,
	"void": KwVoid, "bool": KwBool, "char": KwChar, "text": KwText,
	"i8": KwI8, "i16": KwI16, "i32": KwI32, "i64": KwI64, "i128": KwI128,
	"u8": KwU8, "u16": KwU16, "u32": KwU32, "u64": KwU64, "u128": KwU128,
	"isize": KwIsize, "usize": KwUsize, "f32": KwF32, "f64": KwF64, "f128": KwF128,
}

func buildKeywordBuckets() map[int][]struct {
	val string
	typ Kind
} {
	buckets := make(map[int][]struct {
		val string
		typ Kind
	})
	for s, t := range keywordList {
		buckets[len(s)] = append(buckets[len(s)], struct {
			val string
			typ Kind
		}{s, t})
	}
	return buckets
}

// LookupKeyword returns the keyword Kind for s, (Ident, false) if s is not
// a reserved word, or (Invalid, false) if s is empty.
func LookupKeyword(s string) (Kind, bool) {
	if len(s) == 0 {
		return Invalid, false
	}
	for _, e := range keywordBuckets[len(s)] {
		if e.val == s {
			return e.typ, true
		}
	}
	return Ident, false
}
