package typepool

import "strings"

var builtinNameTable = buildBuiltinNameTable()

func buildBuiltinNameTable() map[string]Builtin {
	m := make(map[string]Builtin, builtinCount)
	for b, n := range builtinNames {
		if b == InferInteger {
			continue // internal-only; must never appear in surface spellings
		}
		m[n] = b
	}
	return m
}

// InternIdent interns a single identifier as a type: it first tries a
// builtin-name lookup against the fixed name table, then falls back to a
// single-segment NamedUser, per spec.md section 4.3.
func (p *Pool) InternIdent(name string) TypeID {
	if b, ok := builtinNameTable[name]; ok {
		return p.BuiltinID(b)
	}
	return p.MakeNamedUserPath([]string{name}, nil)
}

// InternPath interns a qualified path as a NamedUser type. It rejects
// Unit/InferInteger spellings (a single segment "void" or "{integer}"),
// returning kInvalidType.
func (p *Pool) InternPath(segs []string) TypeID {
	if len(segs) == 0 {
		return kInvalidType
	}
	if len(segs) == 1 {
		if segs[0] == "void" || segs[0] == "{integer}" {
			return kInvalidType
		}
		if b, ok := builtinNameTable[segs[0]]; ok {
			return p.BuiltinID(b)
		}
	}
	return p.MakeNamedUserPath(segs, nil)
}

// InvalidType is the sentinel returned by interning functions on malformed
// input, never causing a panic.
func InvalidType() TypeID { return kInvalidType }

// IsValid reports whether id is a real, in-range type id (as opposed to the
// kInvalidType sentinel).
func (p *Pool) IsValid(id TypeID) bool {
	return id != kInvalidType && int(id) < len(p.types)
}

// JoinPath renders path segments joined with "::", the surface-syntax
// separator for qualified names.
func JoinPath(segs []string) string { return strings.Join(segs, "::") }
