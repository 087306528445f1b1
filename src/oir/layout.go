package oir

import (
	"github.com/GungYe918/parus-sub001/src/sir"
	"github.com/GungYe918/parus-sub001/src/typepool"
)

// layoutOf computes one struct's C-compatible member layout: each member is
// placed at the next offset aligned to its own alignment, and the struct's
// total size is rounded up to its largest member's alignment.
func layoutOf(fd sir.FieldDecl, pool *typepool.Pool) FieldLayoutDecl {
	var names []string
	var offsets []uint64
	var cur uint64
	var maxAlign uint64 = 1
	for _, mem := range fd.Members {
		size, align := sizeAlignOf(mem.Type, pool)
		if align == 0 {
			align = 1
		}
		if rem := cur % align; rem != 0 {
			cur += align - rem
		}
		names = append(names, mem.Name)
		offsets = append(offsets, cur)
		cur += size
		if align > maxAlign {
			maxAlign = align
		}
	}
	if rem := cur % maxAlign; maxAlign > 0 && rem != 0 {
		cur += maxAlign - rem
	}
	return FieldLayoutDecl{Type: fd.Type, MemberNames: names, MemberOffsets: offsets, Size: cur, Align: maxAlign}
}

// sizeAlignOf reports a type's (size, alignment) in bytes on the emitter's
// fixed 64-bit target. Unsized arrays (`T[]`) have no statically knowable
// layout; per spec.md section 9's open question they are stubbed at 16
// bytes/8-byte alignment (a pointer+length pair's natural layout) rather
// than rejected.
func sizeAlignOf(ty typepool.TypeID, pool *typepool.Pool) (size, align uint64) {
	t := pool.Get(ty)
	switch t.Kind {
	case typepool.KindBuiltin:
		switch t.Builtin {
		case typepool.Bool, typepool.Char:
			return 1, 1
		case typepool.Unit, typepool.Never, typepool.Null:
			return 0, 1
		case typepool.Text:
			return 8, 8
		default:
			bits := t.Builtin.BitWidth()
			bytes := uint64(bits) / 8
			if bytes == 0 {
				bytes = 1
			}
			return bytes, bytes
		}
	case typepool.KindOptional, typepool.KindBorrow, typepool.KindEscape, typepool.KindPtr, typepool.KindFn:
		return 8, 8
	case typepool.KindArray:
		if t.HasSize {
			elemSize, elemAlign := sizeAlignOf(t.Elem, pool)
			return elemSize * t.Size, elemAlign
		}
		return 16, 8
	case typepool.KindNamedUser:
		// A nested struct field takes a pointer-sized placeholder slot,
		// matching the i64 stub the LLVM emitter uses for every named user
		// type; neither this pass nor the emitter computes the nested
		// struct's own size.
		return 8, 8
	default:
		return 8, 8
	}
}
