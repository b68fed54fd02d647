package parser

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"

	"github.com/rill-lang/rill/token"
)

const (
	bom = 0xFEFF // byte order mark
	eof = -1     // end of file
)

// ScannerErrorHandler is an error handler for the scanner.
type ScannerErrorHandler func(pos token.FilePos, msg string)

// Scanner reads rill source text.
type Scanner struct {
	file         *token.File         // source file handle
	src          []byte              // source
	ch           rune                // current character
	offset       int                 // character offset
	readOffset   int                 // reading offset (position after current character)
	strDepth     int                 // number of open string literals
	interps      []int               // per open interpolation, unmatched brace depth
	errorHandler ScannerErrorHandler // error reporting; or nil
	errorCount   int                 // number of errors encountered
}

// NewScanner creates a Scanner.
func NewScanner(file *token.File, src []byte, errorHandler ScannerErrorHandler) *Scanner {
	if file.Size != len(src) {
		panic(fmt.Sprintf("file size (%d) does not match src len (%d)", file.Size, len(src)))
	}

	s := &Scanner{
		file:         file,
		src:          src,
		errorHandler: errorHandler,
		ch:           ' ',
	}

	s.next()
	if s.ch == bom {
		s.next() // ignore BOM at file beginning
	}

	return s
}

// ErrorCount returns the number of errors.
func (s *Scanner) ErrorCount() int {
	return s.errorCount
}

// Scan returns a token, token literal and its position.
func (s *Scanner) Scan() (tok token.Token, literal string, pos token.Pos) {
	s.skipWhitespace()

	pos = s.file.Pos(s.offset)

	switch ch := s.ch; {
	case isLetter(ch):
		literal = s.scanIdentifier()
		tok = token.Lookup(literal)
	case isDecimal(ch):
		tok, literal = s.scanNumber()
	default:
		s.next() // always make progress
		switch ch {
		case eof:
			if s.strDepth > 0 {
				s.error(s.offset, "string literal not terminated")
				s.strDepth = 0
				s.interps = nil
			}
			tok = token.EOF
		case '"':
			tok, literal = s.scanStringChunk(true)
		case '\'':
			if !isLetter(s.ch) {
				s.error(s.offset, "label must begin with a letter")
				tok = token.Illegal
				break
			}
			tok, literal = token.Label, s.scanIdentifier()
		case '#':
			if s.ch != '{' {
				s.error(s.offset, fmt.Sprintf("illegal character %#U", ch))
				tok = token.Illegal
				break
			}
			s.next()
			s.openBrace()
			tok = token.HashBrace
		case '{':
			s.openBrace()
			tok = token.LBrace
		case '}':
			if n := len(s.interps); n > 0 && s.interps[n-1] == 0 {
				// the `}` resumes the interpolated string
				s.interps = s.interps[:n-1]
				tok, literal = s.scanStringChunk(false)
				break
			}
			s.closeBrace()
			tok = token.RBrace
		case '+':
			tok = s.switch2(token.Add, token.AddAssign)
		case '-':
			tok = s.switch2(token.Sub, token.SubAssign)
		case '*':
			tok = s.switch2(token.Mul, token.MulAssign)
		case '/':
			tok = s.switch2(token.Quo, token.QuoAssign)
		case '<':
			if s.ch == '<' {
				s.next()
				tok = s.switch2(token.Shl, token.ShlAssign)
				break
			}
			tok = s.switch2(token.Less, token.LessEq)
		case '>':
			if s.ch == '>' {
				s.next()
				tok = s.switch2(token.Shr, token.ShrAssign)
				break
			}
			tok = s.switch2(token.Greater, token.GreaterEq)
		case '=':
			tok = s.switch2(token.Assign, token.Equal)
		case '(':
			tok = token.LParen
		case ')':
			tok = token.RParen
		case '[':
			tok = token.LBrack
		case ']':
			tok = token.RBrack
		case ',':
			tok = token.Comma
		case ';':
			tok = token.Semicolon
		case ':':
			tok = token.Colon
		case '.':
			if s.ch == '.' {
				s.next()
				tok = token.DotDot
				break
			}
			tok = token.Period
		default:
			s.error(s.file.Offset(pos), fmt.Sprintf("illegal character %#U", ch))
			tok = token.Illegal
			literal = string(ch)
		}
	}

	return tok, literal, pos
}

// scanStringChunk scans one literal chunk of a string. It is entered right
// after the opening quote (opening) or after the `}` closing an
// interpolation, and returns when the string ends or the next interpolation
// starts.
func (s *Scanner) scanStringChunk(opening bool) (token.Token, string) {
	if opening {
		s.strDepth++
	}

	var b strings.Builder
	for {
		switch {
		case s.ch == eof || s.ch == '\n':
			s.error(s.offset, "string literal not terminated")
			s.strDepth--
			if opening {
				return token.String, b.String()
			}
			return token.StringHi, b.String()
		case s.ch == '"':
			s.next()
			s.strDepth--
			if opening {
				return token.String, b.String()
			}
			return token.StringHi, b.String()
		case s.ch == '$' && s.peek() == '{':
			s.next()
			s.next()
			s.interps = append(s.interps, 0)
			if opening {
				return token.StringLo, b.String()
			}
			return token.StringMid, b.String()
		case s.ch == '\\':
			s.next()
			b.WriteRune(s.scanEscape())
		default:
			b.WriteRune(s.ch)
			s.next()
		}
	}
}

func (s *Scanner) scanEscape() rune {
	ch := s.ch
	s.next()
	switch ch {
	case 'n':
		return '\n'
	case 'r':
		return '\r'
	case 't':
		return '\t'
	case '0':
		return 0
	case '\\', '"', '\'', '$':
		return ch
	}
	s.error(s.offset, fmt.Sprintf("unknown escape sequence \\%c", ch))
	return ch
}

// scanIdentifier scans an identifier and normalizes it to NFC, so that
// source in either Unicode normal form names the same binding.
func (s *Scanner) scanIdentifier() string {
	offset := s.offset
	ascii := true
	for isLetter(s.ch) || isDecimal(s.ch) {
		if s.ch >= utf8.RuneSelf {
			ascii = false
		}
		s.next()
	}
	literal := string(s.src[offset:s.offset])
	if !ascii {
		literal = norm.NFC.String(literal)
	}
	return literal
}

func (s *Scanner) scanNumber() (token.Token, string) {
	offset := s.offset

	if s.ch == '0' && (s.peek() == 'x' || s.peek() == 'o' || s.peek() == 'b') {
		s.next()
		s.next()
		for isHex(s.ch) || s.ch == '_' {
			s.next()
		}
		return token.Int, string(s.src[offset:s.offset])
	}

	tok := token.Int
	s.scanDigits()
	if s.ch == '.' && isDecimal(s.peek()) {
		tok = token.Float
		s.next()
		s.scanDigits()
	}
	if s.ch == 'e' || s.ch == 'E' {
		tok = token.Float
		s.next()
		if s.ch == '+' || s.ch == '-' {
			s.next()
		}
		if !isDecimal(s.ch) {
			s.error(s.offset, "exponent has no digits")
		}
		s.scanDigits()
	}

	return tok, string(s.src[offset:s.offset])
}

func (s *Scanner) scanDigits() {
	for isDecimal(s.ch) || s.ch == '_' {
		s.next()
	}
}

func (s *Scanner) skipWhitespace() {
	for {
		switch {
		case s.ch == ' ' || s.ch == '\t' || s.ch == '\r' || s.ch == '\n':
			s.next()
		case s.ch == '/' && s.peek() == '/':
			for s.ch != '\n' && s.ch != eof {
				s.next()
			}
		case s.ch == '/' && s.peek() == '*':
			offset := s.offset
			s.next()
			s.next()
			for {
				if s.ch == eof {
					s.error(offset, "comment not terminated")
					break
				}
				if s.ch == '*' && s.peek() == '/' {
					s.next()
					s.next()
					break
				}
				s.next()
			}
		default:
			return
		}
	}
}

// openBrace tracks a `{` opened inside a string interpolation, so that only
// the matching `}` resumes the string.
func (s *Scanner) openBrace() {
	if n := len(s.interps); n > 0 {
		s.interps[n-1]++
	}
}

func (s *Scanner) closeBrace() {
	if n := len(s.interps); n > 0 && s.interps[n-1] > 0 {
		s.interps[n-1]--
	}
}

func (s *Scanner) switch2(tok0, tok1 token.Token) token.Token {
	if s.ch == '=' {
		s.next()
		return tok1
	}
	return tok0
}

func (s *Scanner) next() {
	if s.readOffset >= len(s.src) {
		s.offset = len(s.src)
		s.ch = eof
		return
	}

	s.offset = s.readOffset
	if s.ch == '\n' {
		s.file.AddLine(s.offset)
	}

	r, w := rune(s.src[s.readOffset]), 1
	switch {
	case r == 0:
		s.error(s.offset, "illegal character NUL")
	case r >= utf8.RuneSelf:
		// not ASCII
		r, w = utf8.DecodeRune(s.src[s.readOffset:])
		if r == utf8.RuneError && w == 1 {
			s.error(s.offset, "illegal UTF-8 encoding")
		}
	}
	s.readOffset += w
	s.ch = r
}

func (s *Scanner) peek() byte {
	if s.readOffset < len(s.src) {
		return s.src[s.readOffset]
	}
	return 0
}

func (s *Scanner) error(offset int, msg string) {
	if s.errorHandler != nil {
		s.errorHandler(s.file.Position(s.file.Pos(offset)), msg)
	}
	s.errorCount++
}

func isLetter(ch rune) bool {
	return 'a' <= ch && ch <= 'z' ||
		'A' <= ch && ch <= 'Z' ||
		ch == '_' ||
		ch >= utf8.RuneSelf && unicode.IsLetter(ch)
}

func isDecimal(ch rune) bool {
	return '0' <= ch && ch <= '9'
}

func isHex(ch rune) bool {
	return isDecimal(ch) || 'a' <= ch && ch <= 'f' || 'A' <= ch && ch <= 'F'
}
