package typepool

import "strings"

// Print renders id in parser-friendly surface syntax. Export controls
// whether function-type parameter labels and default markers are emitted:
// the export form omits them so that it stays stable across ABI boundaries
// (spec.md section 3).
func (p *Pool) Print(id TypeID, export bool) string {
	t := p.Get(id)
	switch t.Kind {
	case KindError:
		return "<error>"
	case KindBuiltin:
		return builtinNames[t.Builtin]
	case KindOptional:
		return p.printMaybeParen(t.Elem, export) + "?"
	case KindArray:
		if t.HasSize {
			return p.printMaybeParen(t.Elem, export) + "[" + itoa(t.Size) + "]"
		}
		return p.printMaybeParen(t.Elem, export) + "[]"
	case KindBorrow:
		inner := p.Get(t.Elem)
		slicePrefix := ""
		if inner.Kind == KindArray && !inner.HasSize {
			slicePrefix = "[" + p.Print(inner.Elem, export) + "]"
		}
		if slicePrefix != "" {
			if t.IsMut {
				return "&mut " + slicePrefix
			}
			return "&" + slicePrefix
		}
		if t.IsMut {
			return "&mut " + p.Print(t.Elem, export)
		}
		return "&" + p.Print(t.Elem, export)
	case KindEscape:
		return "^&" + p.Print(t.Elem, export)
	case KindPtr:
		if t.IsMut {
			return "*mut " + p.Print(t.Elem, export)
		}
		return "*" + p.Print(t.Elem, export)
	case KindFn:
		params := p.FnParams(id)
		parts := make([]string, len(params))
		for i, fp := range params {
			s := p.Print(fp.Type, export)
			if !export {
				if fp.Label != "" {
					s = fp.Label + ": " + s
				}
				if fp.HasDefault {
					s += " = _"
				}
			}
			parts[i] = s
		}
		return "fn(" + strings.Join(parts, ", ") + ") -> " + p.Print(t.Ret, export)
	case KindNamedUser:
		segs, args := p.DecomposeNamedUser(id)
		s := JoinPath(segs)
		if len(args) > 0 {
			parts := make([]string, len(args))
			for i, a := range args {
				parts[i] = p.Print(a, export)
			}
			s += "<" + strings.Join(parts, ", ") + ">"
		}
		return s
	default:
		return "<invalid>"
	}
}

// printMaybeParen parenthesizes function types in suffix-prefix contexts
// (Optional/Array element position), per spec.md section 4.3's pretty-
// printer rule.
func (p *Pool) printMaybeParen(id TypeID, export bool) string {
	if p.Get(id).Kind == KindFn {
		return "(" + p.Print(id, export) + ")"
	}
	return p.Print(id, export)
}

func itoa(n uint64) string {
	if n == 0 {
		return "0"
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	return string(buf[i:])
}
