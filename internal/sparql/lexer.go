package sparql

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokIRI
	tokPName
	tokVar
	tokBlank
	tokString
	tokLang
	tokDatatype
	tokNumber
	tokName
	tokPunct
	tokOp
)

func (k tokenKind) String() string {
	switch k {
	case tokEOF:
		return "end of query"
	case tokIRI:
		return "IRI"
	case tokPName:
		return "prefixed name"
	case tokVar:
		return "variable"
	case tokBlank:
		return "blank node"
	case tokString:
		return "string"
	case tokLang:
		return "language tag"
	case tokDatatype:
		return "^^"
	case tokNumber:
		return "number"
	case tokName:
		return "name"
	default:
		return "symbol"
	}
}

type token struct {
	kind tokenKind
	text string
	pos  int
}

func (t token) String() string {
	if t.kind == tokEOF {
		return t.kind.String()
	}
	return fmt.Sprintf("%q", t.text)
}

// is reports whether the token is the given punctuation, operator, or
// (case-insensitive) keyword
func (t token) is(text string) bool {
	switch t.kind {
	case tokPunct, tokOp:
		return t.text == text
	case tokName:
		return strings.EqualFold(t.text, text)
	}
	return false
}

type lexer struct {
	src    string
	pos    int
	tokens []token
}

func lex(src string) ([]token, error) {
	l := &lexer{src: src}
	for {
		tok, err := l.next()
		if err != nil {
			return nil, err
		}
		l.tokens = append(l.tokens, tok)
		if tok.kind == tokEOF {
			return l.tokens, nil
		}
	}
}

func (l *lexer) errorf(pos int, format string, args ...any) error {
	return &SyntaxError{Pos: pos, Msg: fmt.Sprintf(format, args...)}
}

func (l *lexer) peekByte(offset int) byte {
	if l.pos+offset < len(l.src) {
		return l.src[l.pos+offset]
	}
	return 0
}

func (l *lexer) skipSpace() {
	for l.pos < len(l.src) {
		c := l.src[l.pos]
		switch {
		case c == '#':
			for l.pos < len(l.src) && l.src[l.pos] != '\n' {
				l.pos++
			}
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			l.pos++
		default:
			return
		}
	}
}

func (l *lexer) next() (token, error) {
	l.skipSpace()
	start := l.pos
	if l.pos >= len(l.src) {
		return token{kind: tokEOF, pos: start}, nil
	}

	c := l.src[l.pos]
	switch {
	case c == '<':
		if end, ok := l.scanIRI(); ok {
			l.pos = end + 1
			return token{kind: tokIRI, text: l.src[start+1 : end], pos: start}, nil
		}
		if l.peekByte(1) == '=' {
			l.pos += 2
			return token{kind: tokOp, text: "<=", pos: start}, nil
		}
		l.pos++
		return token{kind: tokOp, text: "<", pos: start}, nil
	case c == '>':
		if l.peekByte(1) == '=' {
			l.pos += 2
			return token{kind: tokOp, text: ">=", pos: start}, nil
		}
		l.pos++
		return token{kind: tokOp, text: ">", pos: start}, nil
	case c == '!':
		if l.peekByte(1) == '=' {
			l.pos += 2
			return token{kind: tokOp, text: "!=", pos: start}, nil
		}
		l.pos++
		return token{kind: tokOp, text: "!", pos: start}, nil
	case c == '&' || c == '|':
		if l.peekByte(1) != c {
			return token{}, l.errorf(start, "unexpected %q", c)
		}
		l.pos += 2
		return token{kind: tokOp, text: string([]byte{c, c}), pos: start}, nil
	case c == '=' || c == '+' || c == '-' || c == '/':
		if (c == '+' || c == '-') && isDigit(l.peekByte(1)) && l.numberContext() {
			return l.scanNumber()
		}
		l.pos++
		return token{kind: tokOp, text: string(c), pos: start}, nil
	case c == '^':
		if l.peekByte(1) != '^' {
			return token{}, l.errorf(start, "unexpected '^'")
		}
		l.pos += 2
		return token{kind: tokDatatype, text: "^^", pos: start}, nil
	case strings.IndexByte("{}().;,*[]", c) >= 0:
		if c == '.' && isDigit(l.peekByte(1)) {
			return l.scanNumber()
		}
		l.pos++
		return token{kind: tokPunct, text: string(c), pos: start}, nil
	case c == '?' || c == '$':
		l.pos++
		name := l.scanName()
		if name == "" {
			return token{}, l.errorf(start, "empty variable name")
		}
		return token{kind: tokVar, text: name, pos: start}, nil
	case c == '_' && l.peekByte(1) == ':':
		l.pos += 2
		name := l.scanLocal()
		if name == "" {
			return token{}, l.errorf(start, "empty blank node label")
		}
		return token{kind: tokBlank, text: name, pos: start}, nil
	case c == '"' || c == '\'':
		return l.scanString()
	case c == '@':
		l.pos++
		tag := l.scanLangTag()
		if tag == "" {
			return token{}, l.errorf(start, "empty language tag")
		}
		return token{kind: tokLang, text: tag, pos: start}, nil
	case isDigit(c):
		return l.scanNumber()
	case c == ':':
		l.pos++
		return token{kind: tokPName, text: ":" + l.scanLocal(), pos: start}, nil
	default:
		r, _ := utf8.DecodeRuneInString(l.src[l.pos:])
		if !isNameStart(r) {
			return token{}, l.errorf(start, "unexpected character %q", r)
		}
		name := l.scanName()
		if l.pos < len(l.src) && l.src[l.pos] == ':' {
			l.pos++
			return token{kind: tokPName, text: name + ":" + l.scanLocal(), pos: start}, nil
		}
		return token{kind: tokName, text: name, pos: start}, nil
	}
}

// scanIRI looks for the closing '>' of an IRI reference starting at l.pos.
// A '<' followed by whitespace before any '>' is a comparison operator.
func (l *lexer) scanIRI() (int, bool) {
	for i := l.pos + 1; i < len(l.src); i++ {
		c := l.src[i]
		switch {
		case c == '>':
			return i, true
		case c <= ' ' || strings.IndexByte("<\"{}|^`\\", c) >= 0:
			return 0, false
		}
	}
	return 0, false
}

// numberContext reports whether a sign at l.pos starts a signed number
// rather than a binary operator: it does when the previous token cannot end
// an operand.
func (l *lexer) numberContext() bool {
	if len(l.tokens) == 0 {
		return true
	}
	prev := l.tokens[len(l.tokens)-1]
	switch prev.kind {
	case tokVar, tokNumber, tokString, tokIRI, tokPName, tokLang, tokBlank:
		return false
	case tokPunct:
		return prev.text != ")" && prev.text != "]"
	case tokName:
		return false
	}
	return true
}

func (l *lexer) scanName() string {
	start := l.pos
	for l.pos < len(l.src) {
		r, size := utf8.DecodeRuneInString(l.src[l.pos:])
		if !isNameChar(r) {
			break
		}
		l.pos += size
	}
	return l.src[start:l.pos]
}

// scanLocal scans the local part of a prefixed name. Dots are allowed
// inside but not at the end.
func (l *lexer) scanLocal() string {
	start := l.pos
	for l.pos < len(l.src) {
		r, size := utf8.DecodeRuneInString(l.src[l.pos:])
		if !isNameChar(r) && r != '.' {
			break
		}
		l.pos += size
	}
	for l.pos > start && l.src[l.pos-1] == '.' {
		l.pos--
	}
	return l.src[start:l.pos]
}

func (l *lexer) scanLangTag() string {
	start := l.pos
	for l.pos < len(l.src) {
		c := l.src[l.pos]
		if !(c == '-' || isDigit(c) || (c|0x20 >= 'a' && c|0x20 <= 'z')) {
			break
		}
		l.pos++
	}
	return l.src[start:l.pos]
}

func (l *lexer) scanNumber() (token, error) {
	start := l.pos
	if c := l.src[l.pos]; c == '+' || c == '-' {
		l.pos++
	}
	for l.pos < len(l.src) && isDigit(l.src[l.pos]) {
		l.pos++
	}
	if l.pos < len(l.src) && l.src[l.pos] == '.' && isDigit(l.peekByte(1)) {
		l.pos++
		for l.pos < len(l.src) && isDigit(l.src[l.pos]) {
			l.pos++
		}
	}
	if l.pos < len(l.src) && (l.src[l.pos] == 'e' || l.src[l.pos] == 'E') {
		save := l.pos
		l.pos++
		if c := l.peekByte(0); c == '+' || c == '-' {
			l.pos++
		}
		if !isDigit(l.peekByte(0)) {
			l.pos = save
		}
		for l.pos < len(l.src) && isDigit(l.src[l.pos]) {
			l.pos++
		}
	}
	return token{kind: tokNumber, text: l.src[start:l.pos], pos: start}, nil
}

func (l *lexer) scanString() (token, error) {
	start := l.pos
	quote := l.src[l.pos]
	long := strings.HasPrefix(l.src[l.pos:], strings.Repeat(string(quote), 3))
	if long {
		l.pos += 3
	} else {
		l.pos++
	}

	var sb strings.Builder
	for {
		if l.pos >= len(l.src) {
			return token{}, l.errorf(start, "unterminated string")
		}
		c := l.src[l.pos]
		switch {
		case c == '\\':
			if l.pos+1 >= len(l.src) {
				return token{}, l.errorf(l.pos, "unterminated escape")
			}
			esc := l.src[l.pos+1]
			switch esc {
			case 't':
				sb.WriteByte('\t')
			case 'n':
				sb.WriteByte('\n')
			case 'r':
				sb.WriteByte('\r')
			case 'b':
				sb.WriteByte('\b')
			case 'f':
				sb.WriteByte('\f')
			case '"', '\'', '\\':
				sb.WriteByte(esc)
			default:
				return token{}, l.errorf(l.pos, "invalid escape \\%c", esc)
			}
			l.pos += 2
		case long && strings.HasPrefix(l.src[l.pos:], strings.Repeat(string(quote), 3)):
			l.pos += 3
			return token{kind: tokString, text: sb.String(), pos: start}, nil
		case !long && c == quote:
			l.pos++
			return token{kind: tokString, text: sb.String(), pos: start}, nil
		case !long && (c == '\n' || c == '\r'):
			return token{}, l.errorf(l.pos, "newline in string")
		default:
			sb.WriteByte(c)
			l.pos++
		}
	}
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isNameStart(r rune) bool {
	return r == '_' || unicode.IsLetter(r)
}

func isNameChar(r rune) bool {
	return r == '_' || r == '-' || unicode.IsLetter(r) || unicode.IsDigit(r)
}
