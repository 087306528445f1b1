// Package oir implements the SSA basic-block IR spec.md section 4.9
// describes: structured SIR is flattened into basic blocks with explicit
// block parameters supplied at branch sites (phi-like, but carried as
// argument lists on Br/CondBr rather than as a separate phi instruction
// kind), gated by a clean SIR verify, a clean capability analysis, and a
// clean escape-handle verify. It is grounded on the teacher's `ir/lir`
// package (`block.go`, `branch.go`, `function.go`) for the
// basic-block-plus-terminator shape, generalized from a register-targeted
// IR to an SSA one (block parameters instead of a register file).
package oir

import (
	"sync"

	"github.com/GungYe918/parus-sub001/src/capability"
	"github.com/GungYe918/parus-sub001/src/typepool"
)

// ValueID identifies one OIR value: either an instruction result or a block
// parameter, in the single shared id space a Module owns.
type ValueID uint32

// BlockID identifies one basic block within a Module.
type BlockID uint32

// Effect mirrors SIR's Pure/MayWrite/Unknown effect classification, carried
// through to OIR so a later optimization pass (out of scope here, but
// reserved per spec.md section 1) can reuse it without recomputing.
type Effect int

const (
	EffectPure Effect = iota
	EffectMayWrite
	EffectUnknown
)

// OpKind discriminates an OIR instruction's shape. Block parameters are not
// an OpKind: they are a distinct Value shape (see Value.IsParam) bound at
// the owning block rather than produced by an instruction.
type OpKind int

const (
	OpConstInt OpKind = iota
	OpConstFloat
	OpConstBool
	OpConstNull
	OpConstText
	OpUnary
	OpBinOp
	OpCast
	OpFuncRef
	OpGlobalRef
	OpCall
	OpIndex
	OpField
	// OpIndexStore assigns arr[B] = C with base A. OpFieldStore assigns
	// base.Name = B with base A.
	OpIndexStore
	OpFieldStore
	OpAllocaLocal
	OpLoad
	OpStore
)

// Value is one OIR value: either the result of instruction Op (def_a/def_b
// generalized here to the A/B operand slots plus the kind-specific fields
// below), or — when IsParam is set — the ParamIndex'th parameter of block
// ParamBlock, supplied by every predecessor's branch terminator.
type Value struct {
	ID     ValueID
	Op     OpKind
	Type   typepool.TypeID
	Effect Effect

	A, B, C ValueID
	Aux     int // ArithOp tag for Unary/BinOp, CastKind for Cast
	Lit     interface{}

	DirectCallee int32 // OpCall: index into Module.Funcs, -1 if indirect
	ArgsBegin    uint32
	ArgsCount    uint32

	Name string // OpFuncRef/OpGlobalRef/OpAllocaLocal: referenced/declared name

	IsParam    bool
	ParamBlock BlockID
	ParamIndex int
}

// TermKind discriminates a block's terminator shape.
type TermKind int

const (
	TermNone TermKind = iota
	TermRet
	TermBr
	TermCondBr
	TermUnreachable
)

// Terminator is one block's control-transfer instruction. Exactly one of
// the Kind-specific field groups is meaningful for a given Kind.
type Terminator struct {
	Kind TermKind

	HasValue bool     // TermRet
	Value    ValueID  // TermRet

	Target     BlockID   // TermBr
	TargetArgs []ValueID // TermBr

	Cond      ValueID   // TermCondBr
	Then      BlockID   // TermCondBr
	ThenArgs  []ValueID // TermCondBr
	Else      BlockID   // TermCondBr
	ElseArgs  []ValueID // TermCondBr
}

// Block is one basic block: an ordered instruction list, a parameter-type
// list (the "phi-like" values supplied by every predecessor edge), and a
// terminator.
type Block struct {
	ID         BlockID
	ParamTypes []typepool.TypeID
	Params     []ValueID // one Value (IsParam) per ParamTypes entry, same order
	Insts      []ValueID
	Term       Terminator
}

// Func is one OIR function: its mangled name, its original source name
// (for diagnostics), ABI/purity flags, and its basic-block graph.
type Func struct {
	Name       string
	SourceName string
	CABI       bool
	IsPure     bool
	ParamTypes []typepool.TypeID
	RetType    typepool.TypeID
	Entry      BlockID
	Blocks     []BlockID
}

// FieldLayoutDecl is one NamedUser type's computed C-compatible member
// layout, keyed by the type id spec.md section 4.9 names.
type FieldLayoutDecl struct {
	Type          typepool.TypeID
	MemberNames   []string
	MemberOffsets []uint64
	Size          uint64
	Align         uint64
}

// GlobalDecl mirrors one SIR GlobalDecl with the import/export/mut flags
// spec.md section 3's OIR module-level description adds.
type GlobalDecl struct {
	Name     string
	Type     typepool.TypeID
	IsMut    bool
	IsImport bool
	IsExport bool

	// Ref is the OpGlobalRef value id standing in for this global's address
	// everywhere it's referenced from function bodies; it is never appended
	// to any block's instruction list (a global has no owning block), so
	// the emitter must look it up by this field rather than by walking
	// block instructions.
	Ref ValueID
}

// EscapeHint is one escape-handle's module-level summary, carried from
// capability analysis into the OIR module by Build. The LLVM emitter does
// not read it.
type EscapeHint struct {
	Type     typepool.TypeID
	Kind     capability.EscapeHandleKind
	Boundary capability.EscapeBoundaryKind
	HasDrop  bool
}

// Stats reserves the optimization-pass observability fields spec.md section
// 1 calls out as out of scope here (CSE/LICM/mem-to-reg hit counts); it is
// populated with raw structural counts only, never with real pass output.
type Stats struct {
	FunctionCount int
	BlockCount    int
	InstCount     int
}

// Module is the complete OIR translation unit.
type Module struct {
	Funcs        []Func
	FieldLayouts []FieldLayoutDecl
	Globals      []GlobalDecl
	EscapeHints  []EscapeHint
	Stats        Stats

	// GatePassed/GateError record whether this Module is eligible for
	// lowering at all: spec.md section 4.9 requires a clean SIR verify, a
	// clean capability analysis, and a clean escape-handle verify (every
	// MaterializeCount == 0) before OIR construction proceeds. When
	// GatePassed is false the Module's Funcs/blocks are not populated.
	GatePassed bool
	GateError  string

	blocks   []Block
	values   []Value
	callArgs []ValueID

	// mu guards blocks/values/callArgs: Build lowers independent functions
	// concurrently (errgroup), each appending into this shared arena.
	mu sync.Mutex
}

// PushCallArgs appends an OpCall's argument value ids to the side table,
// returning the (begin, count) slice to store on the Value.
func (m *Module) PushCallArgs(args []ValueID) (begin, count uint32) {
	m.mu.Lock()
	defer m.mu.Unlock()
	begin = uint32(len(m.callArgs))
	m.callArgs = append(m.callArgs, args...)
	return begin, uint32(len(args))
}

// CallArgs reads back a previously pushed argument-id slice.
func (m *Module) CallArgs(begin, count uint32) []ValueID {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]ValueID, count)
	copy(out, m.callArgs[begin:begin+count])
	return out
}

// NewBlock creates a basic block with the given block-parameter types,
// locking the shared arena for the duration.
func (m *Module) NewBlock(paramTypes []typepool.TypeID) BlockID {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.newBlock(paramTypes)
}

func (m *Module) newBlock(paramTypes []typepool.TypeID) BlockID {
	id := BlockID(len(m.blocks))
	blk := Block{ID: id, ParamTypes: append([]typepool.TypeID(nil), paramTypes...)}
	for i, ty := range blk.ParamTypes {
		pv := m.newValueLocked(Value{Type: ty, IsParam: true, ParamBlock: id, ParamIndex: i})
		blk.Params = append(blk.Params, pv)
	}
	m.blocks = append(m.blocks, blk)
	return id
}

func (m *Module) newValueLocked(v Value) ValueID {
	v.ID = ValueID(len(m.values))
	m.values = append(m.values, v)
	return v.ID
}

// NewValue appends a value to the shared arena, locking for the duration.
func (m *Module) NewValue(v Value) ValueID {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.newValueLocked(v)
}

// Block returns the block record for id.
func (m *Module) Block(id BlockID) Block {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.blocks[id]
}

// Value returns the value record for id.
func (m *Module) Value(id ValueID) Value {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.values[id]
}

// BlockCount / ValueCount report arena sizes, used by the verifier.
func (m *Module) BlockCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.blocks)
}
func (m *Module) ValueCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.values)
}

// AppendInst appends an instruction value id to block b, locking for the
// duration.
func (m *Module) AppendInst(b BlockID, id ValueID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.appendInst(b, id)
}

func (m *Module) appendInst(b BlockID, id ValueID) {
	blk := m.blocks[b]
	blk.Insts = append(blk.Insts, id)
	m.blocks[b] = blk
}

// SetTerm installs block b's terminator, locking for the duration.
func (m *Module) SetTerm(b BlockID, t Terminator) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.setTerm(b, t)
}

func (m *Module) setTerm(b BlockID, t Terminator) {
	blk := m.blocks[b]
	blk.Term = t
	m.blocks[b] = blk
}
