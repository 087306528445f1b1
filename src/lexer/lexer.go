// Package lexer scans source text into a stream of token.Token values.
// The scanner is modeled directly on frontend/lexer.go of the teacher
// repository: a rune-at-a-time state machine (Rob Pike's "Lexical Scanning
// in Go" talk) that runs as a goroutine and emits tokens on a channel, so
// that lexing overlaps with the parser consuming tokens.
package lexer

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/GungYe918/parus-sub001/src/diag"
	"github.com/GungYe918/parus-sub001/src/token"
)

// ----------------------------
// ----- Type definitions -----
// ----------------------------

// stateFunc is the lexer's current state; it scans some runes and returns
// the next state, or nil to stop.
type stateFunc func(*Lexer) stateFunc

// Lexer traverses a source buffer rune by rune and emits token.Token values
// on its Tokens channel. It never halts on an unexpected character: it
// reports diag.UnexpectedCharacter and keeps going, per spec.md 4.1.
type Lexer struct {
	input  string
	file   diag.FileID
	start  int
	pos    int
	width  int
	state  stateFunc
	bag    *diag.Bag
	Tokens chan token.Token
}

// ---------------------
// ----- constants -----
// ---------------------

const eof = rune(0)

// ---------------------
// ----- functions -----
// ---------------------

// New constructs a Lexer over src, reporting lex-time diagnostics into bag.
func New(src string, file diag.FileID, bag *diag.Bag) *Lexer {
	return &Lexer{
		input:  src,
		file:   file,
		state:  lexStart,
		bag:    bag,
		Tokens: make(chan token.Token, 2),
	}
}

// Run starts the state machine. Call as `go l.Run()`; tokens arrive on
// l.Tokens until an token.Eof token closes the channel's logical stream.
func (l *Lexer) Run() {
	defer close(l.Tokens)
	for state := l.state; state != nil; {
		state = state(l)
	}
}

// next decodes and consumes the rune at l.pos, returning eof (with width
// 0) once the input is exhausted.
func (l *Lexer) next() (r rune) {
	if l.pos >= len(l.input) {
		l.width = 0
		return eof
	}
	r, l.width = utf8.DecodeRuneInString(l.input[l.pos:])
	l.pos += l.width
	return r
}

func (l *Lexer) backup() {
	if l.pos > l.start {
		l.pos -= l.width
	}
}

func (l *Lexer) peek() rune {
	r := l.next()
	l.backup()
	return r
}

// peek2 returns the rune after the next rune, without consuming either.
func (l *Lexer) peek2() rune {
	savedPos, savedWidth := l.pos, l.width
	r1 := l.next()
	if r1 == eof {
		l.pos, l.width = savedPos, savedWidth
		return eof
	}
	r2 := l.next()
	l.pos, l.width = savedPos, savedWidth
	return r2
}

func (l *Lexer) ignore() {
	l.start = l.pos
}

func (l *Lexer) accept(valid string) bool {
	if strings.ContainsRune(valid, l.next()) {
		return true
	}
	l.backup()
	return false
}

func (l *Lexer) acceptRun(valid string) {
	for strings.ContainsRune(valid, l.next()) {
	}
	l.backup()
}

func (l *Lexer) acceptRunFunc(pred func(rune) bool) {
	for pred(l.next()) {
	}
	l.backup()
}

func (l *Lexer) span() diag.Span {
	return diag.Span{File: l.file, Lo: uint32(l.start), Hi: uint32(l.pos)}
}

func (l *Lexer) emit(kind token.Kind) stateFunc {
	l.Tokens <- token.Token{Kind: kind, Lexeme: l.input[l.start:l.pos], Span: l.span()}
	l.start = l.pos
	return lexStart
}

func (l *Lexer) errorf(format string, args ...interface{}) stateFunc {
	l.bag.Errorf(diag.UnexpectedCharacter, l.span(), fmt.Sprintf(format, args...))
	l.start = l.pos
	return lexStart
}

// isIdentStart / isIdentCont classify identifier runes, UTF-8 aware.
func isIdentStart(r rune) bool { return r == '_' || unicode.IsLetter(r) }
func isIdentCont(r rune) bool  { return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) }
