package lexer

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/example/jsviz/token"
)

type Lexer struct {
	input   string
	pos     int // current position in input (points to current char)
	readPos int // current reading position (after current char)
	ch      rune
	line    int
	col     int

	// prev is the type of the last emitted token, used to tell a
	// regular expression from a division.
	prev    token.TokenType
	started bool
}

func New(input string) *Lexer {
	l := &Lexer{
		input: input,
		line:  1,
		prev:  token.Illegal,
	}
	l.readChar()
	return l
}

func (l *Lexer) readChar() {
	if l.ch == '\n' {
		l.line++
		l.col = 0
	} else if l.readPos > 0 {
		l.col++
	}
	if l.readPos >= len(l.input) {
		l.ch = 0
		l.pos = len(l.input)
		l.readPos = len(l.input) + 1
		return
	}
	r, size := utf8.DecodeRuneInString(l.input[l.readPos:])
	l.ch = r
	l.pos = l.readPos
	l.readPos += size
}

func (l *Lexer) peekChar() rune {
	if l.readPos >= len(l.input) {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(l.input[l.readPos:])
	return r
}

func (l *Lexer) peekCharAt(offset int) rune {
	pos := l.readPos + offset
	if pos >= len(l.input) {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(l.input[pos:])
	return r
}

func (l *Lexer) atEOF() bool {
	return l.pos >= len(l.input)
}

func (l *Lexer) here() token.Position {
	return token.Position{Offset: l.pos, Line: l.line, Column: l.col}
}

// skipWhitespaceAndComments reports whether a line terminator was crossed.
func (l *Lexer) skipWhitespaceAndComments() bool {
	newline := false
	for !l.atEOF() {
		switch {
		case l.ch == '\n':
			newline = true
			l.readChar()
		case l.ch == ' ' || l.ch == '\t' || l.ch == '\r' || l.ch == '\v' || l.ch == '\f' || l.ch == 0xA0 || l.ch == 0xFEFF:
			l.readChar()
		case l.ch == '/' && l.peekChar() == '/':
			for !l.atEOF() && l.ch != '\n' {
				l.readChar()
			}
		case l.ch == '/' && l.peekChar() == '*':
			l.readChar()
			l.readChar()
			for !l.atEOF() && !(l.ch == '*' && l.peekChar() == '/') {
				if l.ch == '\n' {
					newline = true
				}
				l.readChar()
			}
			if !l.atEOF() {
				l.readChar()
				l.readChar()
			}
		default:
			return newline
		}
	}
	return newline
}

func regexAllowed(prev token.TokenType) bool {
	switch prev {
	case token.Identifier, token.Number, token.String, token.RegExp, token.Template,
		token.RightParen, token.RightBracket, token.RightBrace,
		token.This, token.True, token.False, token.Null,
		token.Increment, token.Decrement:
		return false
	}
	return true
}

// NextToken returns the next token. Every token carries its start and
// (exclusive) end position.
func (l *Lexer) NextToken() token.Token {
	newline := l.skipWhitespaceAndComments()
	if !l.started {
		newline = false
		l.started = true
	}
	tok := l.scan()
	tok.End = l.here()
	tok.NewlineBefore = newline
	l.prev = tok.Type
	return tok
}

func (l *Lexer) scan() token.Token {
	start := l.here()
	tok := func(t token.TokenType, lit string) token.Token {
		return token.Token{Type: t, Literal: lit, Start: start}
	}
	// op consumes n runes and returns a token of the given type.
	op := func(t token.TokenType, n int) token.Token {
		for i := 0; i < n; i++ {
			l.readChar()
		}
		return tok(t, l.input[start.Offset:l.pos])
	}

	if l.atEOF() {
		return tok(token.EOF, "")
	}

	switch l.ch {
	case '(':
		return op(token.LeftParen, 1)
	case ')':
		return op(token.RightParen, 1)
	case '{':
		return op(token.LeftBrace, 1)
	case '}':
		return op(token.RightBrace, 1)
	case '[':
		return op(token.LeftBracket, 1)
	case ']':
		return op(token.RightBracket, 1)
	case ';':
		return op(token.Semicolon, 1)
	case ':':
		return op(token.Colon, 1)
	case ',':
		return op(token.Comma, 1)
	case '~':
		return op(token.BitwiseNot, 1)
	case '?':
		return op(token.QuestionMark, 1)
	case '.':
		if isDigit(l.peekChar()) {
			return l.readNumber(start)
		}
		if l.peekChar() == '.' && l.peekCharAt(1) == '.' {
			return op(token.Spread, 3)
		}
		return op(token.Dot, 1)
	case '+':
		switch l.peekChar() {
		case '+':
			return op(token.Increment, 2)
		case '=':
			return op(token.PlusAssign, 2)
		}
		return op(token.Plus, 1)
	case '-':
		switch l.peekChar() {
		case '-':
			return op(token.Decrement, 2)
		case '=':
			return op(token.MinusAssign, 2)
		}
		return op(token.Minus, 1)
	case '*':
		switch l.peekChar() {
		case '*':
			return op(token.Exponent, 2)
		case '=':
			return op(token.AsteriskAssign, 2)
		}
		return op(token.Asterisk, 1)
	case '/':
		if regexAllowed(l.prev) {
			return l.readRegExp(start)
		}
		if l.peekChar() == '=' {
			return op(token.SlashAssign, 2)
		}
		return op(token.Slash, 1)
	case '%':
		if l.peekChar() == '=' {
			return op(token.PercentAssign, 2)
		}
		return op(token.Percent, 1)
	case '=':
		if l.peekChar() == '=' {
			if l.peekCharAt(1) == '=' {
				return op(token.StrictEqual, 3)
			}
			return op(token.Equal, 2)
		}
		if l.peekChar() == '>' {
			return op(token.Arrow, 2)
		}
		return op(token.Assign, 1)
	case '!':
		if l.peekChar() == '=' {
			if l.peekCharAt(1) == '=' {
				return op(token.StrictNotEqual, 3)
			}
			return op(token.NotEqual, 2)
		}
		return op(token.Not, 1)
	case '<':
		if l.peekChar() == '<' {
			if l.peekCharAt(1) == '=' {
				return op(token.LeftShiftAssign, 3)
			}
			return op(token.LeftShift, 2)
		}
		if l.peekChar() == '=' {
			return op(token.LessThanOrEqual, 2)
		}
		return op(token.LessThan, 1)
	case '>':
		if l.peekChar() == '>' {
			if l.peekCharAt(1) == '>' {
				if l.peekCharAt(2) == '=' {
					return op(token.UnsignedRightShiftAssign, 4)
				}
				return op(token.UnsignedRightShift, 3)
			}
			if l.peekCharAt(1) == '=' {
				return op(token.RightShiftAssign, 3)
			}
			return op(token.RightShift, 2)
		}
		if l.peekChar() == '=' {
			return op(token.GreaterThanOrEqual, 2)
		}
		return op(token.GreaterThan, 1)
	case '&':
		switch l.peekChar() {
		case '&':
			return op(token.And, 2)
		case '=':
			return op(token.AmpersandAssign, 2)
		}
		return op(token.BitwiseAnd, 1)
	case '|':
		switch l.peekChar() {
		case '|':
			return op(token.Or, 2)
		case '=':
			return op(token.PipeAssign, 2)
		}
		return op(token.BitwiseOr, 1)
	case '^':
		if l.peekChar() == '=' {
			return op(token.CaretAssign, 2)
		}
		return op(token.BitwiseXor, 1)
	case '"', '\'':
		return l.readString(start)
	case '`':
		return l.readTemplate(start)
	}

	if isDigit(l.ch) {
		return l.readNumber(start)
	}
	if isIdentStart(l.ch) {
		return l.readIdentifier(start)
	}

	ch := l.ch
	l.readChar()
	return tok(token.Illegal, "unexpected character "+string(ch))
}

func (l *Lexer) readIdentifier(start token.Position) token.Token {
	for isIdentPart(l.ch) && !l.atEOF() {
		l.readChar()
	}
	lit := l.input[start.Offset:l.pos]
	return token.Token{Type: token.LookupIdentifier(lit), Literal: lit, Start: start}
}

func (l *Lexer) readString(start token.Position) token.Token {
	illegal := func(msg string) token.Token {
		return token.Token{Type: token.Illegal, Literal: msg, Start: start}
	}
	quote := l.ch
	l.readChar() // skip opening quote
	var buf strings.Builder

	for l.ch != quote && !l.atEOF() && l.ch != '\n' {
		if l.ch != '\\' {
			buf.WriteRune(l.ch)
			l.readChar()
			continue
		}
		l.readChar()
		switch l.ch {
		case 'n':
			buf.WriteByte('\n')
		case 'r':
			buf.WriteByte('\r')
		case 't':
			buf.WriteByte('\t')
		case 'b':
			buf.WriteByte('\b')
		case 'f':
			buf.WriteByte('\f')
		case 'v':
			buf.WriteByte('\v')
		case '0':
			if isDigit(l.peekChar()) {
				return illegal("octal escape sequences are not allowed in strict mode")
			}
			buf.WriteByte(0)
		case 'x':
			l.readChar()
			d1 := hexVal(l.ch)
			l.readChar()
			d2 := hexVal(l.ch)
			if d1 < 0 || d2 < 0 {
				return illegal("invalid hex escape")
			}
			buf.WriteRune(rune(d1*16 + d2))
		case 'u':
			l.readChar()
			if l.ch == '{' {
				return illegal("unicode code point escapes are not supported")
			}
			r := l.readUnicodeEscape()
			if r < 0 {
				return illegal("invalid unicode escape")
			}
			if r >= 0xD800 && r <= 0xDBFF && l.ch == '\\' && l.peekChar() == 'u' {
				l.readChar()
				l.readChar()
				r2 := l.readUnicodeEscape()
				if r2 >= 0xDC00 && r2 <= 0xDFFF {
					r = 0x10000 + (r-0xD800)*0x400 + (r2 - 0xDC00)
				} else {
					buf.WriteRune(utf8.RuneError)
					r = r2
				}
			}
			if r >= 0xD800 && r <= 0xDFFF {
				r = utf8.RuneError
			}
			buf.WriteRune(rune(r))
			continue // readUnicodeEscape already advanced past the escape
		case '\r':
			if l.peekChar() == '\n' {
				l.readChar()
			}
		case '\n':
			// line continuation
		default:
			if isDigit(l.ch) {
				return illegal("octal escape sequences are not allowed in strict mode")
			}
			buf.WriteRune(l.ch)
		}
		l.readChar()
	}

	if l.ch != quote || l.atEOF() {
		return illegal("unterminated string")
	}
	l.readChar() // skip closing quote
	return token.Token{Type: token.String, Literal: buf.String(), Start: start}
}

// readUnicodeEscape reads exactly four hex digits and returns the code
// unit, or -1. On return the lexer points past the last digit.
func (l *Lexer) readUnicodeEscape() int {
	val := 0
	for i := 0; i < 4; i++ {
		d := hexVal(l.ch)
		if d < 0 {
			return -1
		}
		val = val*16 + d
		l.readChar()
	}
	return val
}

func (l *Lexer) readNumber(start token.Position) token.Token {
	illegal := func(msg string) token.Token {
		return token.Token{Type: token.Illegal, Literal: msg, Start: start}
	}

	if l.ch == '0' {
		next := l.peekChar()
		switch {
		case next == 'x' || next == 'X':
			l.readChar() // 0
			l.readChar() // x
			if !isHexDigit(l.ch) {
				return illegal("invalid hex literal")
			}
			for isHexDigit(l.ch) {
				l.readChar()
			}
			return token.Token{Type: token.Number, Literal: l.input[start.Offset:l.pos], Start: start}
		case next == 'o' || next == 'O' || next == 'b' || next == 'B':
			l.readChar()
			l.readChar()
			for isHexDigit(l.ch) {
				l.readChar()
			}
			return illegal("binary and octal literals are not supported")
		case isDigit(next):
			for isDigit(l.ch) {
				l.readChar()
			}
			return illegal("octal literals are not allowed in strict mode")
		}
	}

	l.readDecimalDigits()
	if l.ch == '.' {
		l.readChar()
		l.readDecimalDigits()
	}
	if l.ch == 'e' || l.ch == 'E' {
		l.readChar()
		if l.ch == '+' || l.ch == '-' {
			l.readChar()
		}
		if !isDigit(l.ch) {
			return illegal("invalid number literal")
		}
		l.readDecimalDigits()
	}
	if isIdentStart(l.ch) {
		return illegal("identifier starts immediately after numeric literal")
	}
	return token.Token{Type: token.Number, Literal: l.input[start.Offset:l.pos], Start: start}
}

func (l *Lexer) readDecimalDigits() {
	for isDigit(l.ch) {
		l.readChar()
	}
}

// readTemplate consumes a whole template literal, substitutions
// included, so the parser can report it as one unsupported token.
func (l *Lexer) readTemplate(start token.Position) token.Token {
	l.readChar() // skip `
	depth := 0
	for !l.atEOF() {
		switch {
		case l.ch == '\\':
			l.readChar()
		case l.ch == '$' && l.peekChar() == '{':
			depth++
			l.readChar()
		case l.ch == '}' && depth > 0:
			depth--
		case l.ch == '`' && depth == 0:
			l.readChar()
			return token.Token{Type: token.Template, Literal: l.input[start.Offset:l.pos], Start: start}
		}
		l.readChar()
	}
	return token.Token{Type: token.Illegal, Literal: "unterminated template literal", Start: start}
}

func (l *Lexer) readRegExp(start token.Position) token.Token {
	l.readChar() // skip opening /
	inClass := false
	for {
		if l.atEOF() || l.ch == '\n' {
			return token.Token{Type: token.Illegal, Literal: "unterminated regexp", Start: start}
		}
		if l.ch == '\\' {
			l.readChar()
			if l.atEOF() || l.ch == '\n' {
				return token.Token{Type: token.Illegal, Literal: "unterminated regexp", Start: start}
			}
			l.readChar()
			continue
		}
		if l.ch == '[' {
			inClass = true
		} else if l.ch == ']' {
			inClass = false
		} else if l.ch == '/' && !inClass {
			l.readChar()
			break
		}
		l.readChar()
	}
	for isIdentPart(l.ch) && !l.atEOF() {
		l.readChar()
	}
	return token.Token{Type: token.RegExp, Literal: l.input[start.Offset:l.pos], Start: start}
}

// Tokenize returns every token of input, EOF included.
func Tokenize(input string) []token.Token {
	l := New(input)
	var tokens []token.Token
	for {
		tok := l.NextToken()
		tokens = append(tokens, tok)
		if tok.Type == token.EOF {
			return tokens
		}
	}
}

func isDigit(ch rune) bool {
	return ch >= '0' && ch <= '9'
}

func isHexDigit(ch rune) bool {
	return isDigit(ch) || (ch >= 'a' && ch <= 'f') || (ch >= 'A' && ch <= 'F')
}

func isIdentStart(ch rune) bool {
	return ch == '_' || ch == '$' || unicode.IsLetter(ch)
}

func isIdentPart(ch rune) bool {
	return isIdentStart(ch) || unicode.IsDigit(ch) || ch == 0x200C || ch == 0x200D
}

func hexVal(ch rune) int {
	switch {
	case ch >= '0' && ch <= '9':
		return int(ch - '0')
	case ch >= 'a' && ch <= 'f':
		return int(ch-'a') + 10
	case ch >= 'A' && ch <= 'F':
		return int(ch-'A') + 10
	}
	return -1
}
