package lexer

import (
	"unicode"

	"github.com/GungYe918/parus-sub001/src/token"
)

// lexStart is the lexer's global state: it skips whitespace and comments,
// then dispatches to a more specific state based on the next rune.
// Mirrors frontend/lexerStates.go's lexGlobal.
func lexStart(l *Lexer) stateFunc {
	r := l.next()
	switch {
	case r == eof:
		l.emit(token.Eof)
		return nil
	case r == ' ' || r == '\t' || r == '\r' || r == '\n':
		l.ignore()
		return lexStart
	case r == '/' && l.peek() == '/':
		return lexLineComment
	case r == '/' && l.peek() == '*':
		return lexBlockComment
	case r == '"':
		return lexMaybeTripleString
	case r == '\'':
		return lexChar
	case unicode.IsDigit(r):
		l.backup()
		return lexNumber
	case isIdentStart(r):
		l.backup()
		return lexIdentOrKeyword
	default:
		l.backup()
		return lexOperator
	}
}

func lexLineComment(l *Lexer) stateFunc {
	for {
		r := l.next()
		if r == '\n' || r == eof {
			l.backup()
			l.ignore()
			return lexStart
		}
	}
}

func lexBlockComment(l *Lexer) stateFunc {
	for {
		r := l.next()
		if r == eof {
			l.ignore()
			return lexStart
		}
		if r == '*' && l.peek() == '/' {
			l.next()
			l.ignore()
			return lexStart
		}
	}
}

// lexMaybeTripleString handles `"""`-delimited raw/interp strings as well as
// ordinary `"..."` strings. R"""...""" and F"""...""" are recognized by the
// identifier state instead (their leading R/F is a normal identifier char
// until the lexer sees the immediately following `"""`), so this state only
// has to special-case a bare `"""`.
func lexMaybeTripleString(l *Lexer) stateFunc {
	if l.peek() == '"' && l.peek2() == '"' {
		l.next()
		l.next()
		return lexTripleStringBody(token.StringLit)
	}
	return lexSimpleStringBody
}

func lexSimpleStringBody(l *Lexer) stateFunc {
	for {
		r := l.next()
		switch r {
		case eof, '\n':
			return l.errorf("unterminated string literal")
		case '\\':
			l.next() // consume escaped rune, whatever it is
		case '"':
			return l.emit(token.StringLit)
		}
	}
}

// lexTripleStringBody consumes until the closing `"""`, emitting kind.
func lexTripleStringBody(kind token.Kind) stateFunc {
	return func(l *Lexer) stateFunc {
		for {
			r := l.next()
			if r == eof {
				return l.errorf("unterminated triple-quoted string literal")
			}
			if r == '"' && l.peek() == '"' {
				savedPos, savedWidth := l.pos, l.width
				l.next()
				if l.peek() == '"' {
					l.next()
					return l.emit(kind)
				}
				l.pos, l.width = savedPos, savedWidth
			}
		}
	}
}

func lexChar(l *Lexer) stateFunc {
	r := l.next()
	if r == '\\' {
		l.next()
	}
	if l.next() != '\'' {
		return l.errorf("unterminated char literal")
	}
	return l.emit(token.CharLit)
}

func lexNumber(l *Lexer) stateFunc {
	const digits = "0123456789"
	l.acceptRun(digits)
	isFloat := false
	if l.peek() == '.' && l.peek2() != '.' {
		isFloat = true
		l.next()
		l.acceptRun(digits)
	}
	if l.accept("eE") {
		isFloat = true
		l.accept("+-")
		l.acceptRun(digits)
	}
	// Suffix letters (i32, u64, f32, lf, ...) are part of the lexeme.
	l.acceptRunFunc(func(r rune) bool { return unicode.IsLetter(r) || unicode.IsDigit(r) })
	if isFloat {
		return l.emit(token.FloatLit)
	}
	return l.emit(token.IntLit)
}

func lexIdentOrKeyword(l *Lexer) stateFunc {
	first := l.next()
	// Recognize R"""...""" and F"""...""" prefixes immediately.
	if (first == 'R' || first == 'F') && l.peek() == '"' {
		savedPos, savedWidth := l.pos, l.width
		l.next()
		if l.peek() == '"' && l.peek2() == '"' {
			l.next()
			l.next()
			if first == 'R' {
				return lexTripleStringBody(token.RawStringLit)
			}
			return lexTripleStringBody(token.InterpStringLit)
		}
		l.pos, l.width = savedPos, savedWidth
	}
	l.acceptRunFunc(isIdentCont)
	lexeme := l.input[l.start:l.pos]
	if kind, ok := token.LookupKeyword(lexeme); ok {
		return l.emit(kind)
	}
	return l.emit(token.Ident)
}

// lexOperator scans a punctuator. It is the generalization of the teacher's
// single-character emit(int(r)) fallback: this language has many multi-rune
// operators, so each is tried longest-match-first.
func lexOperator(l *Lexer) stateFunc {
	r := l.next()
	switch r {
	case '(':
		return l.emit(token.LParen)
	case ')':
		return l.emit(token.RParen)
	case '{':
		return l.emit(token.LBrace)
	case '}':
		return l.emit(token.RBrace)
	case '[':
		return l.emit(token.LBracket)
	case ']':
		return l.emit(token.RBracket)
	case ',':
		return l.emit(token.Comma)
	case ';':
		return l.emit(token.Semi)
	case '$':
		return l.emit(token.Dollar)
	case ':':
		if l.accept(":") {
			return l.emit(token.ColonColon)
		}
		return l.emit(token.Colon)
	case '.':
		if l.accept(".") {
			if l.accept(".") {
				return l.emit(token.Dot3)
			}
			return l.emit(token.Dot2)
		}
		return l.emit(token.Dot)
	case '-':
		if l.accept(">") {
			return l.emit(token.Arrow)
		}
		if l.accept("-") {
			return l.emit(token.MinusMinus)
		}
		if l.accept("=") {
			return l.emit(token.MinusEq)
		}
		return l.emit(token.Minus)
	case '+':
		if l.accept("+") {
			return l.emit(token.PlusPlus)
		}
		if l.accept("=") {
			return l.emit(token.PlusEq)
		}
		return l.emit(token.Plus)
	case '*':
		if l.accept("=") {
			return l.emit(token.StarEq)
		}
		return l.emit(token.Star)
	case '/':
		if l.accept("=") {
			return l.emit(token.SlashEq)
		}
		return l.emit(token.Slash)
	case '%':
		if l.accept("=") {
			return l.emit(token.PercentEq)
		}
		return l.emit(token.Percent)
	case '=':
		if l.accept(">") {
			return l.emit(token.FatArrow)
		}
		if l.accept("=") {
			return l.emit(token.EqEq)
		}
		return l.emit(token.Eq)
	case '!':
		if l.accept("=") {
			return l.emit(token.BangEq)
		}
		return l.emit(token.Bang)
	case '<':
		if l.accept("<") {
			return l.emit(token.Shl)
		}
		if l.accept("=") {
			return l.emit(token.LtEq)
		}
		return l.emit(token.Lt)
	case '>':
		if l.accept(">") {
			return l.emit(token.Shr)
		}
		if l.accept("=") {
			return l.emit(token.GtEq)
		}
		return l.emit(token.Gt)
	case '?':
		if l.accept("?") {
			if l.accept("=") {
				return l.emit(token.QuestionQuestionEq)
			}
			return l.emit(token.QuestionQuestion)
		}
		if l.accept(":") {
			return l.emit(token.QuestionColon)
		}
		return l.emit(token.Question)
	case '&':
		if l.accept("&") {
			return l.emit(token.AmpAmp)
		}
		// `&mut` is lexed as two tokens (Amp then KwMut); the parser
		// recognizes the pair. This keeps the keyword table the single
		// source of truth for `mut`.
		return l.emit(token.Amp)
	case '^':
		if l.accept("&") {
			return l.emit(token.CaretAmp)
		}
		return l.emit(token.Caret)
	case '|':
		if l.accept("|") {
			return l.emit(token.PipePipe)
		}
		return l.emit(token.Pipe)
	case '~':
		return l.emit(token.Tilde)
	default:
		return l.errorf("unexpected character %q", r)
	}
}
