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

import "fmt"

// tokenType identifies a lexical token.
type tokenType int

const (
	tokenEOF tokenType = iota
	tokenError

	// keywords
	tokenSelect
	tokenInsert
	tokenUpdate
	tokenDelete
	tokenCreate
	tokenDrop
	tokenTable
	tokenFrom
	tokenWhere
	tokenInto
	tokenValues
	tokenSet
	tokenJoin
	tokenInner
	tokenLeft
	tokenRight
	tokenOn
	tokenOrder
	tokenBy
	tokenAnd
	tokenOr
	tokenNot
	tokenNull
	tokenLike
	tokenPrimary
	tokenKey
	tokenUnique
	tokenTrue
	tokenFalse

	// type names
	tokenTypeName

	// literals
	tokenIdent
	tokenNumber
	tokenString

	// operators and punctuation
	tokenEq        // =
	tokenComma     // ,
	tokenDot       // .
	tokenLParen    // (
	tokenRParen    // )
	tokenStar      // *
	tokenSemicolon // ;
)

var tokenNames = map[tokenType]string{
	tokenEOF:       "EOF",
	tokenError:     "ERROR",
	tokenSelect:    "SELECT",
	tokenInsert:    "INSERT",
	tokenUpdate:    "UPDATE",
	tokenDelete:    "DELETE",
	tokenCreate:    "CREATE",
	tokenDrop:      "DROP",
	tokenTable:     "TABLE",
	tokenFrom:      "FROM",
	tokenWhere:     "WHERE",
	tokenInto:      "INTO",
	tokenValues:    "VALUES",
	tokenSet:       "SET",
	tokenJoin:      "JOIN",
	tokenInner:     "INNER",
	tokenLeft:      "LEFT",
	tokenRight:     "RIGHT",
	tokenOn:        "ON",
	tokenOrder:     "ORDER",
	tokenBy:        "BY",
	tokenAnd:       "AND",
	tokenOr:        "OR",
	tokenNot:       "NOT",
	tokenNull:      "NULL",
	tokenLike:      "LIKE",
	tokenPrimary:   "PRIMARY",
	tokenKey:       "KEY",
	tokenUnique:    "UNIQUE",
	tokenTrue:      "TRUE",
	tokenFalse:     "FALSE",
	tokenTypeName:  "TYPE",
	tokenIdent:     "IDENT",
	tokenNumber:    "NUMBER",
	tokenString:    "STRING",
	tokenEq:        "=",
	tokenComma:     ",",
	tokenDot:       ".",
	tokenLParen:    "(",
	tokenRParen:    ")",
	tokenStar:      "*",
	tokenSemicolon: ";",
}

func (t tokenType) String() string {
	if name, ok := tokenNames[t]; ok {
		return name
	}
	return fmt.Sprintf("token(%d)", t)
}

// token is one lexical token. pos is the byte offset of its first
// character in the statement text.
type token struct {
	typ tokenType
	lit string
	pos int
}

func (t token) String() string {
	return fmt.Sprintf("{%s %q}", t.typ, t.lit)
}

// keywords maps upper-cased keyword spellings to token types. Type names
// share one token type, the parser resolves the concrete type from lit.
var keywords = map[string]tokenType{
	"SELECT":  tokenSelect,
	"INSERT":  tokenInsert,
	"UPDATE":  tokenUpdate,
	"DELETE":  tokenDelete,
	"CREATE":  tokenCreate,
	"DROP":    tokenDrop,
	"TABLE":   tokenTable,
	"FROM":    tokenFrom,
	"WHERE":   tokenWhere,
	"INTO":    tokenInto,
	"VALUES":  tokenValues,
	"SET":     tokenSet,
	"JOIN":    tokenJoin,
	"INNER":   tokenInner,
	"LEFT":    tokenLeft,
	"RIGHT":   tokenRight,
	"ON":      tokenOn,
	"ORDER":   tokenOrder,
	"BY":      tokenBy,
	"AND":     tokenAnd,
	"OR":      tokenOr,
	"NOT":     tokenNot,
	"NULL":    tokenNull,
	"LIKE":    tokenLike,
	"PRIMARY": tokenPrimary,
	"KEY":     tokenKey,
	"UNIQUE":  tokenUnique,
	"TRUE":    tokenTrue,
	"FALSE":   tokenFalse,
	"INT":     tokenTypeName,
	"INTEGER": tokenTypeName,
	"VARCHAR": tokenTypeName,
	"BOOL":    tokenTypeName,
	"BOOLEAN": tokenTypeName,
	"DATE":    tokenTypeName,
}
