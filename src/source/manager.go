// Package source owns every source buffer read by the compiler and converts
// byte offsets into line/column positions. Every lexeme slice and every
// diag.Span handed to downstream stages borrows from a Manager's buffers;
// the Manager must outlive every arena built on top of it (spec.md section
// 5's "source manager outlives all downstream arenas").
package source

import (
	"os"
	"sort"

	"github.com/GungYe918/parus-sub001/src/diag"
)

// ----------------------------
// ----- Type definitions -----
// ----------------------------

// file holds one registered source buffer and the byte offset of the start
// of each line within it, used for fast line/column lookups.
type file struct {
	name      string
	text      string
	lineStart []uint32
}

// Manager owns every source buffer registered during a compiler invocation.
// Nothing is ever removed from it; FileIDs are never reused.
type Manager struct {
	files []file
}

// Position is a 1-based line/column pair within a registered file.
type Position struct {
	Line int
	Col  int
}

// ---------------------
// ----- functions -----
// ---------------------

// NewManager returns an empty source manager. FileID 0 is reserved as
// "unknown" per diag.Span's join rule, so the first registered file gets id
// 1.
func NewManager() *Manager {
	return &Manager{files: []file{{}}} // index 0 reserved
}

// AddText registers a named in-memory source buffer and returns its FileID.
func (m *Manager) AddText(name, text string) diag.FileID {
	m.files = append(m.files, file{name: name, text: text, lineStart: computeLineStarts(text)})
	return diag.FileID(len(m.files) - 1)
}

// AddFile reads a source file from disk and registers its contents.
func (m *Manager) AddFile(path string) (diag.FileID, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	return m.AddText(path, string(b)), nil
}

// Text returns the full buffer registered under id.
func (m *Manager) Text(id diag.FileID) string {
	if int(id) >= len(m.files) {
		return ""
	}
	return m.files[id].text
}

// Name returns the file name/path registered under id.
func (m *Manager) Name(id diag.FileID) string {
	if int(id) >= len(m.files) {
		return "<unknown>"
	}
	return m.files[id].name
}

// Slice returns the source text covered by span, borrowing from the
// registered buffer.
func (m *Manager) Slice(span diag.Span) string {
	t := m.Text(span.File)
	if int(span.Hi) > len(t) || span.Lo > span.Hi {
		return ""
	}
	return t[span.Lo:span.Hi]
}

// Position converts a byte offset within file id into a 1-based
// line/column pair.
func (m *Manager) Position(id diag.FileID, offset uint32) Position {
	if int(id) >= len(m.files) {
		return Position{Line: 1, Col: 1}
	}
	ls := m.files[id].lineStart
	line := sort.Search(len(ls), func(i int) bool { return ls[i] > offset }) - 1
	if line < 0 {
		line = 0
	}
	return Position{Line: line + 1, Col: int(offset-ls[line]) + 1}
}

func computeLineStarts(text string) []uint32 {
	starts := []uint32{0}
	for i := 0; i < len(text); i++ {
		if text[i] == '\n' {
			starts = append(starts, uint32(i+1))
		}
	}
	return starts
}
