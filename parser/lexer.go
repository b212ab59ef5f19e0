// Copyright 2019 PingCAP, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// See the License for the specific language governing permissions and
// limitations under the License.

package parser

import (
	"strings"
	"unicode"
)

// lexer tokenizes one SQL statement.
type lexer struct {
	input string
	pos   int
	ch    byte
}

func newLexer(input string) *lexer {
	l := &lexer{input: input}
	l.advance()
	return l
}

func (l *lexer) advance() {
	if l.pos >= len(l.input) {
		l.ch = 0
	} else {
		l.ch = l.input[l.pos]
	}
	l.pos++
}

func (l *lexer) peek() byte {
	if l.pos >= len(l.input) {
		return 0
	}
	return l.input[l.pos]
}

func (l *lexer) skipWhitespace() {
	for l.ch != 0 && unicode.IsSpace(rune(l.ch)) {
		l.advance()
	}
}

// next returns the next token. On malformed input it returns a
// tokenError whose lit holds the problem description.
func (l *lexer) next() token {
	l.skipWhitespace()

	startPos := l.pos - 1

	if l.ch == 0 {
		return token{typ: tokenEOF, pos: startPos}
	}

	switch l.ch {
	case ',':
		l.advance()
		return token{typ: tokenComma, lit: ",", pos: startPos}
	case '.':
		l.advance()
		return token{typ: tokenDot, lit: ".", pos: startPos}
	case '(':
		l.advance()
		return token{typ: tokenLParen, lit: "(", pos: startPos}
	case ')':
		l.advance()
		return token{typ: tokenRParen, lit: ")", pos: startPos}
	case '*':
		l.advance()
		return token{typ: tokenStar, lit: "*", pos: startPos}
	case ';':
		l.advance()
		return token{typ: tokenSemicolon, lit: ";", pos: startPos}
	case '=':
		l.advance()
		return token{typ: tokenEq, lit: "=", pos: startPos}
	case '\'', '"':
		return l.readString()
	}

	if unicode.IsDigit(rune(l.ch)) || (l.ch == '-' && unicode.IsDigit(rune(l.peek()))) {
		return l.readNumber()
	}

	if unicode.IsLetter(rune(l.ch)) || l.ch == '_' {
		return l.readIdentifier()
	}

	ch := l.ch
	l.advance()
	return token{typ: tokenError, lit: "unexpected character " + string(ch), pos: startPos}
}

// readString reads a quoted literal. Both quote styles are accepted and
// a doubled quote inside the literal escapes itself, 'it''s' is it's.
func (l *lexer) readString() token {
	startPos := l.pos - 1
	quote := l.ch
	l.advance()

	var sb strings.Builder
	for {
		if l.ch == 0 {
			return token{typ: tokenError, lit: "unterminated string literal", pos: startPos}
		}
		if l.ch == quote {
			if l.peek() == quote {
				sb.WriteByte(quote)
				l.advance()
				l.advance()
				continue
			}
			l.advance()
			break
		}
		sb.WriteByte(l.ch)
		l.advance()
	}

	return token{typ: tokenString, lit: sb.String(), pos: startPos}
}

func (l *lexer) readNumber() token {
	startPos := l.pos - 1
	start := l.pos - 1

	if l.ch == '-' {
		l.advance()
	}
	for unicode.IsDigit(rune(l.ch)) {
		l.advance()
	}

	return token{typ: tokenNumber, lit: l.input[start : l.pos-1], pos: startPos}
}

// readIdentifier reads an identifier or keyword. Keywords are matched
// case-insensitively, identifiers are folded to lower case.
func (l *lexer) readIdentifier() token {
	startPos := l.pos - 1
	start := l.pos - 1

	for unicode.IsLetter(rune(l.ch)) || unicode.IsDigit(rune(l.ch)) || l.ch == '_' {
		l.advance()
	}

	word := l.input[start : l.pos-1]
	upper := strings.ToUpper(word)
	if typ, ok := keywords[upper]; ok {
		return token{typ: typ, lit: upper, pos: startPos}
	}

	return token{typ: tokenIdent, lit: strings.ToLower(word), pos: startPos}
}
