package ast

import (
	"github.com/GungYe918/parus-sub001/src/diag"
	"github.com/GungYe918/parus-sub001/src/token"
	"github.com/GungYe918/parus-sub001/src/typepool"
)

// ----------------------------
// ----- Type definitions -----
// ----------------------------

// Arena owns every Node plus every side table referenced by (begin, count)
// slices. It is the sole owner of every AST record (spec.md section 3's
// ownership rule); the type pool and the diagnostics bag are owned
// elsewhere and only referenced by id from here.
type Arena struct {
	nodes []Node

	args            []Arg
	namedGroupEntry []NamedGroupEntry
	children        []NodeID
	params          []Param
	fields          []FieldMember
	cases           []SwitchCase
	attrs           []string
	pathSegs        []string
	macroToks       []token.Token
	typeNodes       []TypeNode
}

// ---------------------
// ----- functions -----
// ---------------------

// NewArena returns an empty AST arena. Node id 0 (NoNode) is reserved so
// that the zero value of a NodeID field means "absent".
func NewArena() *Arena {
	return &Arena{nodes: make([]Node, 1, 1024)}
}

// New appends a new node and returns its id.
func (a *Arena) New(n Node) NodeID {
	n.Type = typepool.InvalidType()
	n.ResolvedSym = -1
	id := NodeID(len(a.nodes))
	a.nodes = append(a.nodes, n)
	return id
}

// Get returns a copy of the node at id. Requesting NoNode or an
// out-of-range id returns a KError node rather than panicking, matching the
// fail-soft posture of every arena in this pipeline.
func (a *Arena) Get(id NodeID) Node {
	if id == NoNode || int(id) >= len(a.nodes) {
		return Node{Kind: KError}
	}
	return a.nodes[id]
}

// Set overwrites node id in place. Used by the resolver/checker to
// annotate a node with a resolved type or symbol without changing its
// identity.
func (a *Arena) Set(id NodeID, n Node) {
	if id == NoNode || int(id) >= len(a.nodes) {
		return
	}
	a.nodes[id] = n
}

// Len returns the number of allocated nodes, including the reserved
// NoNode slot at index 0. Useful for sizing a per-expression type cache.
func (a *Arena) Len() int { return len(a.nodes) }

// ----- side-table accessors -----

// PushChildren appends ids to the shared children pool and returns the
// (begin, count) slice referencing them.
func (a *Arena) PushChildren(ids []NodeID) (begin, count uint32) {
	begin = uint32(len(a.children))
	a.children = append(a.children, ids...)
	return begin, uint32(len(ids))
}

// Children returns the NodeID slice previously stored at (begin, count).
func (a *Arena) Children(begin, count uint32) []NodeID {
	return a.children[begin : begin+count]
}

// PushArgs appends call arguments to the shared arg pool.
func (a *Arena) PushArgs(args []Arg) (begin, count uint32) {
	begin = uint32(len(a.args))
	a.args = append(a.args, args...)
	return begin, uint32(len(args))
}

func (a *Arena) Args(begin, count uint32) []Arg {
	return a.args[begin : begin+count]
}

// PushNamedGroup appends named-group call argument entries.
func (a *Arena) PushNamedGroup(entries []NamedGroupEntry) (begin, count uint32) {
	begin = uint32(len(a.namedGroupEntry))
	a.namedGroupEntry = append(a.namedGroupEntry, entries...)
	return begin, uint32(len(entries))
}

func (a *Arena) NamedGroup(begin, count uint32) []NamedGroupEntry {
	return a.namedGroupEntry[begin : begin+count]
}

// PushParams appends function parameters.
func (a *Arena) PushParams(params []Param) (begin, count uint32) {
	begin = uint32(len(a.params))
	a.params = append(a.params, params...)
	return begin, uint32(len(params))
}

func (a *Arena) Params(begin, count uint32) []Param {
	return a.params[begin : begin+count]
}

// PushFields appends field (struct) members.
func (a *Arena) PushFields(fields []FieldMember) (begin, count uint32) {
	begin = uint32(len(a.fields))
	a.fields = append(a.fields, fields...)
	return begin, uint32(len(fields))
}

func (a *Arena) Fields(begin, count uint32) []FieldMember {
	return a.fields[begin : begin+count]
}

// PushCases appends switch-statement cases.
func (a *Arena) PushCases(cases []SwitchCase) (begin, count uint32) {
	begin = uint32(len(a.cases))
	a.cases = append(a.cases, cases...)
	return begin, uint32(len(cases))
}

func (a *Arena) Cases(begin, count uint32) []SwitchCase {
	return a.cases[begin : begin+count]
}

// PushAttrs appends function attribute names (e.g. "pure", "comptime",
// "extern").
func (a *Arena) PushAttrs(attrs []string) (begin, count uint32) {
	begin = uint32(len(a.attrs))
	a.attrs = append(a.attrs, attrs...)
	return begin, uint32(len(attrs))
}

func (a *Arena) Attrs(begin, count uint32) []string {
	return a.attrs[begin : begin+count]
}

// PushPath appends path segments (for qualified identifiers / use decls).
func (a *Arena) PushPath(segs []string) (begin, count uint32) {
	begin = uint32(len(a.pathSegs))
	a.pathSegs = append(a.pathSegs, segs...)
	return begin, uint32(len(segs))
}

func (a *Arena) Path(begin, count uint32) []string {
	return a.pathSegs[begin : begin+count]
}

// PushMacroTokens appends raw macro-call argument tokens.
func (a *Arena) PushMacroTokens(toks []token.Token) (begin, count uint32) {
	begin = uint32(len(a.macroToks))
	a.macroToks = append(a.macroToks, toks...)
	return begin, uint32(len(toks))
}

func (a *Arena) MacroTokens(begin, count uint32) []token.Token {
	return a.macroToks[begin : begin+count]
}

// PushTypeNode records a macro-expandable type-syntax spelling and returns
// its TypeNodeID.
func (a *Arena) PushTypeNode(resolved typepool.TypeID, span diag.Span) TypeNodeID {
	id := TypeNodeID(len(a.typeNodes))
	a.typeNodes = append(a.typeNodes, TypeNode{Resolved: resolved, Span: span})
	return id
}

func (a *Arena) TypeNode(id TypeNodeID) TypeNode {
	return a.typeNodes[id]
}

// PushMacroTypeNode records a macro call found in type position: unlike an
// expression/statement/item macro call, parseType cannot resolve it to a
// concrete type immediately, since the macro declaration supplying name's
// Type-context group is only known to the macro expander, which runs as a
// whole-program pass after parsing completes. placeholder is a unique,
// otherwise-unused TypeID parseMacroCallType interned for this one call
// site; it stands in for the real type everywhere parseType's caller
// embedded it, until the macro expander resolves it (see ReplaceType).
func (a *Arena) PushMacroTypeNode(placeholder typepool.TypeID, name string, tokBegin, tokCnt uint32, span diag.Span) TypeNodeID {
	id := TypeNodeID(len(a.typeNodes))
	a.typeNodes = append(a.typeNodes, TypeNode{
		Resolved: placeholder, Span: span,
		IsMacroCall: true, MacroName: name, MacroTokBegin: tokBegin, MacroTokCnt: tokCnt,
	})
	return id
}

// PendingTypeMacros returns every type-position macro call recorded during
// parsing, in the order parseType encountered them; an entry stays in the
// list after its placeholder has been resolved.
func (a *Arena) PendingTypeMacros() []TypeNode {
	var out []TypeNode
	for _, tn := range a.typeNodes {
		if tn.IsMacroCall {
			out = append(out, tn)
		}
	}
	return out
}

// ReplaceType rewrites every occurrence of old to replacement across every
// node and type-bearing side table (function parameters, field members)
// this arena owns. It is the global substitution the macro expander's
// type-position pass uses to thread a deferred type-macro call's real
// resolution back into every place parseType's placeholder was embedded,
// since a typepool.TypeID carries no owning-node back-pointer of its own.
func (a *Arena) ReplaceType(old, replacement typepool.TypeID) {
	for i := range a.nodes {
		if a.nodes[i].Type == old {
			a.nodes[i].Type = replacement
		}
	}
	for i := range a.params {
		if a.params[i].Type == old {
			a.params[i].Type = replacement
		}
	}
	for i := range a.fields {
		if a.fields[i].Type == old {
			a.fields[i].Type = replacement
		}
	}
}
