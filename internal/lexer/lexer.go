package lexer

import (
	"lox/internal/diag"
	"lox/internal/token"
	"strconv"
)

type Lexer struct {
	input   string
	start   int // byte offset of the token being scanned
	current int // byte offset of the next unread byte
	line    int

	tokens []*token.Token
	errors diag.List
}

func New(input string) *Lexer {
	return &Lexer{input: input, line: 1}
}

// ScanTokens consumes the whole input. The returned slice always ends with an
// EOF token, even when errors were reported.
func (l *Lexer) ScanTokens() []*token.Token {
	for !l.isAtEnd() {
		l.start = l.current
		l.scanToken()
	}
	l.tokens = append(l.tokens, &token.Token{Type: token.EOF, Line: l.line})
	return l.tokens
}

func (l *Lexer) Errors() *diag.List {
	return &l.errors
}

func (l *Lexer) scanToken() {
	ch := l.readChar()
	switch ch {
	case '(':
		l.addToken(token.LPAREN)
	case ')':
		l.addToken(token.RPAREN)
	case '{':
		l.addToken(token.LBRACE)
	case '}':
		l.addToken(token.RBRACE)
	case ',':
		l.addToken(token.COMMA)
	case '.':
		l.addToken(token.PERIOD)
	case '-':
		l.addToken(token.MINUS)
	case '+':
		l.addToken(token.PLUS)
	case ';':
		l.addToken(token.SEMICOLON)
	case '*':
		l.addToken(token.ASTERISK)
	case '!':
		l.handleCompoundToken(token.BANG, '=', token.NOT_EQ)
	case '=':
		l.handleCompoundToken(token.ASSIGN, '=', token.EQ)
	case '<':
		l.handleCompoundToken(token.LT, '=', token.LT_EQ)
	case '>':
		l.handleCompoundToken(token.GT, '=', token.GT_EQ)
	case '/':
		if l.peekChar() == '/' {
			l.skipToLineEnd()
		} else {
			l.addToken(token.SLASH)
		}
	case ' ', '\r', '\t':
	case '\n':
		l.line++
	case '"':
		l.readString()
	default:
		switch {
		case isDigit(ch):
			l.readNumber()
		case isLetter(ch):
			l.readIdentifier()
		default:
			l.error("Unexpected character.")
		}
	}
}

func (l *Lexer) handleCompoundToken(t token.TokenType, ch1 byte, t1 token.TokenType) {
	if l.peekChar() == ch1 {
		l.current++
		l.addToken(t1)
		return
	}
	l.addToken(t)
}

func (l *Lexer) skipToLineEnd() {
	for l.peekChar() != '\n' && !l.isAtEnd() {
		l.current++
	}
}

func (l *Lexer) readString() {
	for l.peekChar() != '"' && !l.isAtEnd() {
		if l.peekChar() == '\n' {
			l.line++
		}
		l.current++
	}

	if l.isAtEnd() {
		l.error("Unterminated string.")
		return
	}

	// closing quote
	l.current++
	l.addLiteral(token.STRING, l.input[l.start+1:l.current-1])
}

func (l *Lexer) readNumber() {
	for isDigit(l.peekChar()) {
		l.current++
	}

	// a trailing '.' is left for the parser (method call on a number)
	if l.peekChar() == '.' && isDigit(l.peekTwoChars()) {
		l.current++
		for isDigit(l.peekChar()) {
			l.current++
		}
	}

	value, err := strconv.ParseFloat(l.input[l.start:l.current], 64)
	if err != nil {
		l.error("Invalid number literal.")
		return
	}
	l.addLiteral(token.NUMBER, value)
}

func (l *Lexer) readIdentifier() {
	for isLetter(l.peekChar()) || isDigit(l.peekChar()) {
		l.current++
	}
	l.addToken(token.LookupIdent(l.input[l.start:l.current]))
}

func (l *Lexer) readChar() byte {
	ch := l.input[l.current]
	l.current++
	return ch
}

// peekChar returns the next byte without advancing; returns 0 at EOF
func (l *Lexer) peekChar() byte {
	if l.isAtEnd() {
		return 0
	}
	return l.input[l.current]
}

func (l *Lexer) peekTwoChars() byte {
	if l.current+1 >= len(l.input) {
		return 0
	}
	return l.input[l.current+1]
}

func (l *Lexer) isAtEnd() bool {
	return l.current >= len(l.input)
}

func (l *Lexer) addToken(t token.TokenType) {
	l.addLiteral(t, nil)
}

func (l *Lexer) addLiteral(t token.TokenType, literal any) {
	l.tokens = append(l.tokens, &token.Token{
		Type:    t,
		Lexeme:  l.input[l.start:l.current],
		Literal: literal,
		Line:    l.line,
	})
}

func (l *Lexer) error(message string) {
	l.errors.Add(&diag.StaticError{Kind: diag.Syntax, Line: l.line, Message: message})
}

func isLetter(ch byte) bool {
	return ch == '_' || (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}
