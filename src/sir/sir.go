// Package sir implements the structured intermediate representation: a
// typed lowering of the AST that preserves if/while/do-while/switch/loop
// structure (basic-block flattening is OIR's job, package oir). It mangles
// non-C-ABI function names, resolves direct callees where possible, and
// inserts optional/null coercions at every value boundary.
package sir

import (
	"hash/fnv"

	"github.com/GungYe918/parus-sub001/src/typepool"
)

// ValueID identifies one SIR value, in program-order.
type ValueID uint32

// BlockID identifies one (structured, not basic) SIR block.
type BlockID uint32

// OpKind discriminates an SIR instruction's shape.
type OpKind int

const (
	OpConst OpKind = iota
	OpConstNull
	OpIdent
	OpBinary
	OpUnary
	OpAssign
	// OpVarInit sequences a VarDecl's initializer evaluation within its
	// block; Aux holds the declared local's symbol id, A the initializer's
	// (already coerced) value id. Distinct from OpAssign (lhs/rhs
	// expression assignment) so a reader of a lowered block never has to
	// guess which shape an instruction carries.
	OpVarInit
	OpCall
	OpIndex
	OpField
	OpBorrow
	OpEscape
	OpCast
	OpIf
	OpWhile
	OpDoWhile
	OpSwitch
	OpLoop
	OpBreak
	OpReturn
	OpBlock
)

// Value is one SIR instruction/value record.
type Value struct {
	ID           ValueID
	Op           OpKind
	Type         typepool.TypeID
	A, B, C      ValueID
	Aux          int
	Lit          interface{}
	Name         string
	DirectCallee int32 // OpCall: index into Module.Funcs, -1 if unresolved
	Blocks       []BlockID
	ArgsBegin    uint32 // OpCall: slice into Module.callArgs
	ArgsCount    uint32

	// CasePatterns/CaseIsDefault are OpSwitch-only, one entry per Blocks
	// entry: CasePatterns[i] is the i'th case's pattern value id (ignored
	// when CaseIsDefault[i] is true), so OIR's switch lowering can build a
	// real compare-and-branch chain instead of losing the pattern-to-case
	// association once cases are flattened to bare blocks.
	CasePatterns  []ValueID
	CaseIsDefault []bool
}

// Block is one structured SIR block: an ordered list of values.
type Block struct {
	ID     BlockID
	Values []ValueID
}

// VarDecl mirrors spec.md section 4.7's `VarDecl(sym, is_set, is_mut,
// is_static, declared_type, init)` record.
type VarDecl struct {
	Sym          int32
	IsSet        bool
	IsMut        bool
	IsStatic     bool
	DeclaredType typepool.TypeID
	Init         ValueID
}

// ParamInfo records a function parameter's local symbol id and mutability,
// mirrored onto the SIR function so capability analysis can read symbol
// traits without consulting the AST arena.
type ParamInfo struct {
	Sym   int32
	Name  string
	Type  typepool.TypeID
	IsMut bool
}

// Func is one SIR function: a mangled (or C-ABI source) name, its
// parameter/return types, and its structured body block.
type Func struct {
	Name        string
	CABI        bool
	IsPure      bool
	IsComptime  bool
	ParamTypes  []typepool.TypeID
	Params      []ParamInfo
	RetType     typepool.TypeID
	Body        BlockID
	VarDecls    []VarDecl
}

// GlobalDecl is one top-level `static` declaration, lowered outside any
// function body. Its symbol id lives in a disjoint numbering space from
// every function's local symbols (see Builder.declareGlobal), so capability
// analysis and the OIR builder can tell a global apart from a same-numbered
// local without consulting the AST.
type GlobalDecl struct {
	Sym          int32
	Name         string
	Type         typepool.TypeID
	IsMut        bool
	DeclaredType typepool.TypeID
}

// FieldDecl records one user-defined struct's member list, registered
// during the prepass so the OIR builder's field-layout pass (spec.md
// section 4.9) can compute C-compatible member offsets without consulting
// the AST arena.
type FieldDecl struct {
	Type    typepool.TypeID
	Name    string
	Members []FieldMemberInfo
}

// FieldMemberInfo is one member of a FieldDecl.
type FieldMemberInfo struct {
	Name string
	Type typepool.TypeID
}

// Module is the complete SIR translation unit.
type Module struct {
	Funcs      []Func
	Globals    []GlobalDecl
	FieldDecls []FieldDecl
	// Init is the pseudo-block holding every top-level `static` var decl's
	// initializer, evaluated in source order, mirroring how an AllocaLocal
	// per-function body initializes locals (spec.md section 4.9's globals
	// are "pre-bound as direct-address bindings"; Init is what produces the
	// values those bindings are initialized from).
	Init     BlockID
	values   []Value
	blocks   []Block
	callArgs []ValueID

	// RewrittenValues counts the canonicalizer's rewrites; RewrittenCalls
	// is not incremented anywhere.
	RewrittenValues int
	RewrittenCalls  int
}

// PushCallArgs appends an OpCall's argument value ids to the side table,
// returning the (begin, count) slice to store on the Value.
func (m *Module) PushCallArgs(args []ValueID) (begin, count uint32) {
	begin = uint32(len(m.callArgs))
	m.callArgs = append(m.callArgs, args...)
	return begin, uint32(len(args))
}

// CallArgs reads back a previously pushed argument-id slice.
func (m *Module) CallArgs(begin, count uint32) []ValueID {
	return m.callArgs[begin : begin+count]
}

// NewModule constructs an empty SIR module.
func NewModule() *Module {
	return &Module{}
}

func (m *Module) newValue(v Value) ValueID {
	v.ID = ValueID(len(m.values))
	m.values = append(m.values, v)
	return v.ID
}

func (m *Module) newBlock() BlockID {
	id := BlockID(len(m.blocks))
	m.blocks = append(m.blocks, Block{ID: id})
	return id
}

// Value returns the value record for id.
func (m *Module) Value(id ValueID) Value { return m.values[id] }

// SetValue overwrites the value record for id (used by the canonicalizer).
func (m *Module) SetValue(id ValueID, v Value) { m.values[id] = v }

// Block returns the block record for id.
func (m *Module) Block(id BlockID) Block { return m.blocks[id] }

func (m *Module) appendToBlock(b BlockID, v ValueID) {
	blk := m.blocks[b]
	blk.Values = append(blk.Values, v)
	m.blocks[b] = blk
}

// ValueCount / BlockCount report arena sizes, used by the verifier to range
// check ids.
func (m *Module) ValueCount() int { return len(m.values) }
func (m *Module) BlockCount() int { return len(m.blocks) }

// mangleName implements the `bundle|path|name|mode|recv|sig` FNV-1a
// mangling scheme for non-C-ABI functions.
func mangleName(bundle, path, name, mode, recv string, paramTypes []typepool.TypeID, pool *typepool.Pool) string {
	h := fnv.New64a()
	h.Write([]byte(bundle))
	h.Write([]byte{'|'})
	h.Write([]byte(path))
	h.Write([]byte{'|'})
	h.Write([]byte(name))
	h.Write([]byte{'|'})
	h.Write([]byte(mode))
	h.Write([]byte{'|'})
	h.Write([]byte(recv))
	h.Write([]byte{'|'})
	for _, pt := range paramTypes {
		h.Write([]byte(pool.Print(pt, true)))
		h.Write([]byte{','})
	}
	sum := h.Sum64()
	return "_P" + uitoa(sum)
}

func uitoa(v uint64) string {
	if v == 0 {
		return "0"
	}
	const digits = "0123456789abcdef"
	var buf [16]byte
	i := len(buf)
	for v > 0 {
		i--
		buf[i] = digits[v&0xf]
		v >>= 4
	}
	return string(buf[i:])
}
