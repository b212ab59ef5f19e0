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

// Package parser turns SQL statement text into typed statement values.
// The grammar is deliberately small: CREATE TABLE, DROP TABLE, INSERT,
// SELECT with one optional join, UPDATE and DELETE, each with at most a
// single WHERE comparison.
package parser

import (
	"fmt"
	"strconv"

	"github.com/reldb/reldb/types"
)

type parser struct {
	lex *lexer
	tok token
}

// Parse parses one SQL statement. A trailing semicolon is allowed. All
// failures are *ParseError values carrying the byte offset of the
// offending token.
func Parse(sql string) (Statement, error) {
	p := &parser{lex: newLexer(sql)}
	p.next()

	stmt, err := p.parseStatement()
	if err != nil {
		return nil, err
	}

	if p.tok.typ == tokenSemicolon {
		p.next()
	}
	if p.tok.typ != tokenEOF {
		return nil, p.unexpected("end of statement")
	}

	return stmt, nil
}

func (p *parser) next() {
	p.tok = p.lex.next()
}

func (p *parser) unexpected(want string) error {
	switch p.tok.typ {
	case tokenError:
		return &ParseError{Msg: p.tok.lit, Pos: p.tok.pos}
	case tokenEOF:
		return &ParseError{Msg: "unexpected end of statement, want " + want, Pos: p.tok.pos}
	default:
		return &ParseError{Msg: fmt.Sprintf("unexpected %q, want %s", p.tok.lit, want), Pos: p.tok.pos}
	}
}

func (p *parser) expect(typ tokenType) (token, error) {
	if p.tok.typ != typ {
		return token{}, p.unexpected(typ.String())
	}
	tok := p.tok
	p.next()
	return tok, nil
}

func (p *parser) parseIdent() (string, error) {
	tok, err := p.expect(tokenIdent)
	if err != nil {
		return "", err
	}
	return tok.lit, nil
}

func (p *parser) parseStatement() (Statement, error) {
	switch p.tok.typ {
	case tokenSelect:
		p.next()
		return p.parseSelect()
	case tokenInsert:
		p.next()
		return p.parseInsert()
	case tokenUpdate:
		p.next()
		return p.parseUpdate()
	case tokenDelete:
		p.next()
		return p.parseDelete()
	case tokenCreate:
		p.next()
		return p.parseCreateTable()
	case tokenDrop:
		p.next()
		return p.parseDropTable()
	case tokenError:
		return nil, &ParseError{Msg: p.tok.lit, Pos: p.tok.pos}
	default:
		return nil, &ParseError{Msg: fmt.Sprintf("unsupported statement starting with %q", p.tok.lit), Pos: p.tok.pos}
	}
}

func (p *parser) parseCreateTable() (Statement, error) {
	if _, err := p.expect(tokenTable); err != nil {
		return nil, err
	}
	name, err := p.parseIdent()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(tokenLParen); err != nil {
		return nil, err
	}

	stmt := &CreateTableStmt{Table: name}
	for {
		def, err := p.parseColumnDef()
		if err != nil {
			return nil, err
		}
		stmt.Columns = append(stmt.Columns, def)

		if p.tok.typ != tokenComma {
			break
		}
		p.next()
	}

	if _, err := p.expect(tokenRParen); err != nil {
		return nil, err
	}

	return stmt, nil
}

func (p *parser) parseColumnDef() (ColumnDef, error) {
	var def ColumnDef

	name, err := p.parseIdent()
	if err != nil {
		return def, err
	}
	def.Name = name

	typeTok, err := p.expect(tokenTypeName)
	if err != nil {
		return def, err
	}
	dt, ok := types.ParseDataType(typeTok.lit)
	if !ok {
		return def, &ParseError{Msg: fmt.Sprintf("unsupported data type %q", typeTok.lit), Pos: typeTok.pos}
	}
	def.Type = dt

	if p.tok.typ == tokenLParen {
		lparen := p.tok
		p.next()
		numTok, err := p.expect(tokenNumber)
		if err != nil {
			return def, err
		}
		n, err := strconv.Atoi(numTok.lit)
		if err != nil || n <= 0 {
			return def, &ParseError{Msg: fmt.Sprintf("invalid length %q, must be a positive integer", numTok.lit), Pos: numTok.pos}
		}
		if _, err := p.expect(tokenRParen); err != nil {
			return def, err
		}
		if dt != types.TypeVarchar {
			return def, &ParseError{Msg: fmt.Sprintf("type %s takes no length", dt), Pos: lparen.pos}
		}
		def.Length = n
	} else if dt == types.TypeVarchar {
		return def, &ParseError{Msg: "VARCHAR requires a length, like VARCHAR(50)", Pos: p.tok.pos}
	}

	for {
		switch p.tok.typ {
		case tokenPrimary:
			p.next()
			if _, err := p.expect(tokenKey); err != nil {
				return def, err
			}
			def.PrimaryKey = true
		case tokenUnique:
			p.next()
			def.Unique = true
		case tokenNot:
			p.next()
			if _, err := p.expect(tokenNull); err != nil {
				return def, err
			}
			def.NotNull = true
		default:
			return def, nil
		}
	}
}

func (p *parser) parseDropTable() (Statement, error) {
	if _, err := p.expect(tokenTable); err != nil {
		return nil, err
	}
	name, err := p.parseIdent()
	if err != nil {
		return nil, err
	}

	return &DropTableStmt{Table: name}, nil
}

func (p *parser) parseInsert() (Statement, error) {
	if _, err := p.expect(tokenInto); err != nil {
		return nil, err
	}
	name, err := p.parseIdent()
	if err != nil {
		return nil, err
	}

	stmt := &InsertStmt{Table: name}

	if p.tok.typ == tokenLParen {
		listPos := p.tok.pos
		p.next()
		for {
			col, err := p.parseIdent()
			if err != nil {
				return nil, err
			}
			stmt.Columns = append(stmt.Columns, col)
			if p.tok.typ != tokenComma {
				break
			}
			p.next()
		}
		if _, err := p.expect(tokenRParen); err != nil {
			return nil, err
		}
		if len(stmt.Columns) == 0 {
			return nil, &ParseError{Msg: "empty column list", Pos: listPos}
		}
	}

	if _, err := p.expect(tokenValues); err != nil {
		return nil, err
	}
	valuesPos := p.tok.pos
	if _, err := p.expect(tokenLParen); err != nil {
		return nil, err
	}
	for {
		v, err := p.parseLiteral()
		if err != nil {
			return nil, err
		}
		stmt.Values = append(stmt.Values, v)
		if p.tok.typ != tokenComma {
			break
		}
		p.next()
	}
	if _, err := p.expect(tokenRParen); err != nil {
		return nil, err
	}

	// the positional form is checked against the schema at execution
	if stmt.Columns != nil && len(stmt.Columns) != len(stmt.Values) {
		return nil, &ParseError{
			Msg: fmt.Sprintf("column count (%d) doesn't match value count (%d)", len(stmt.Columns), len(stmt.Values)),
			Pos: valuesPos,
		}
	}

	return stmt, nil
}

func (p *parser) parseLiteral() (types.Datum, error) {
	switch p.tok.typ {
	case tokenNumber:
		v, err := strconv.ParseInt(p.tok.lit, 10, 64)
		if err != nil {
			return types.Datum{}, &ParseError{Msg: fmt.Sprintf("integer literal %q out of range", p.tok.lit), Pos: p.tok.pos}
		}
		p.next()
		return types.NewIntDatum(v), nil
	case tokenString:
		v := p.tok.lit
		p.next()
		return types.NewStringDatum(v), nil
	case tokenTrue:
		p.next()
		return types.NewBoolDatum(true), nil
	case tokenFalse:
		p.next()
		return types.NewBoolDatum(false), nil
	case tokenNull:
		p.next()
		return types.NewNullDatum(), nil
	default:
		return types.Datum{}, p.unexpected("literal value")
	}
}

func (p *parser) parseUpdate() (Statement, error) {
	name, err := p.parseIdent()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(tokenSet); err != nil {
		return nil, err
	}

	stmt := &UpdateStmt{Table: name}
	for {
		col, err := p.parseIdent()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(tokenEq); err != nil {
			return nil, err
		}
		v, err := p.parseLiteral()
		if err != nil {
			return nil, err
		}
		stmt.Assignments = append(stmt.Assignments, Assignment{Column: col, Value: v})
		if p.tok.typ != tokenComma {
			break
		}
		p.next()
	}

	stmt.Where, err = p.parseOptionalWhere()
	if err != nil {
		return nil, err
	}

	return stmt, nil
}

func (p *parser) parseDelete() (Statement, error) {
	if _, err := p.expect(tokenFrom); err != nil {
		return nil, err
	}
	name, err := p.parseIdent()
	if err != nil {
		return nil, err
	}

	stmt := &DeleteStmt{Table: name}
	stmt.Where, err = p.parseOptionalWhere()
	if err != nil {
		return nil, err
	}

	return stmt, nil
}

func (p *parser) parseSelect() (Statement, error) {
	stmt := &SelectStmt{}

	if p.tok.typ == tokenStar {
		stmt.Star = true
		p.next()
	} else {
		for {
			ref, err := p.parseColumnRef()
			if err != nil {
				return nil, err
			}
			stmt.Projection = append(stmt.Projection, ref)
			if p.tok.typ != tokenComma {
				break
			}
			p.next()
		}
	}

	if _, err := p.expect(tokenFrom); err != nil {
		return nil, err
	}
	name, err := p.parseIdent()
	if err != nil {
		return nil, err
	}
	stmt.Table = name

	switch p.tok.typ {
	case tokenInner, tokenLeft, tokenRight:
		join, err := p.parseJoin(stmt.Table)
		if err != nil {
			return nil, err
		}
		stmt.Join = join
	}

	stmt.Where, err = p.parseOptionalWhere()
	if err != nil {
		return nil, err
	}

	if p.tok.typ == tokenOrder {
		p.next()
		if _, err := p.expect(tokenBy); err != nil {
			return nil, err
		}
		for {
			ref, err := p.parseColumnRef()
			if err != nil {
				return nil, err
			}
			stmt.OrderBy = append(stmt.OrderBy, ref)
			if p.tok.typ != tokenComma {
				break
			}
			p.next()
		}
	}

	return stmt, nil
}

// parseColumnRef parses ident or ident.ident.
func (p *parser) parseColumnRef() (ColumnRef, error) {
	name, err := p.parseIdent()
	if err != nil {
		return ColumnRef{}, err
	}
	if p.tok.typ != tokenDot {
		return ColumnRef{Column: name}, nil
	}
	p.next()
	col, err := p.parseIdent()
	if err != nil {
		return ColumnRef{}, err
	}

	return ColumnRef{Table: name, Column: col}, nil
}

func (p *parser) parseJoin(fromTable string) (*JoinClause, error) {
	join := &JoinClause{}
	switch p.tok.typ {
	case tokenInner:
		join.Kind = JoinInner
	case tokenLeft:
		join.Kind = JoinLeft
	case tokenRight:
		join.Kind = JoinRight
	}
	kindPos := p.tok.pos
	p.next()

	if _, err := p.expect(tokenJoin); err != nil {
		return nil, err
	}
	name, err := p.parseIdent()
	if err != nil {
		return nil, err
	}
	join.Table = name
	if join.Table == fromTable {
		return nil, &ParseError{Msg: fmt.Sprintf("self join of table %q is not supported", name), Pos: kindPos}
	}

	if _, err := p.expect(tokenOn); err != nil {
		return nil, err
	}
	onPos := p.tok.pos
	first, err := p.parseColumnRef()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(tokenEq); err != nil {
		return nil, err
	}
	second, err := p.parseColumnRef()
	if err != nil {
		return nil, err
	}

	if first.Table == "" || second.Table == "" {
		return nil, &ParseError{Msg: "ON condition must qualify both columns as table.column", Pos: onPos}
	}

	// normalize so Left refers to the FROM table
	switch {
	case first.Table == fromTable && second.Table == join.Table:
		join.Left, join.Right = first, second
	case first.Table == join.Table && second.Table == fromTable:
		join.Left, join.Right = second, first
	default:
		bad := first.Table
		if bad == fromTable || bad == join.Table {
			bad = second.Table
		}
		return nil, &ParseError{Msg: fmt.Sprintf("ON condition references unknown table %q", bad), Pos: onPos}
	}

	return join, nil
}

func (p *parser) parseOptionalWhere() (*Predicate, error) {
	if p.tok.typ != tokenWhere {
		return nil, nil
	}
	p.next()

	ref, err := p.parseColumnRef()
	if err != nil {
		return nil, err
	}

	pred := &Predicate{Column: ref}
	switch p.tok.typ {
	case tokenEq:
		pred.Op = OpEq
		p.next()
		pred.Value, err = p.parseLiteral()
		if err != nil {
			return nil, err
		}
	case tokenLike:
		pred.Op = OpLike
		p.next()
		patTok := p.tok
		pat, err := p.parseLiteral()
		if err != nil {
			return nil, err
		}
		if pat.Kind() != types.KindString {
			return nil, &ParseError{Msg: "LIKE pattern must be a string literal", Pos: patTok.pos}
		}
		pred.Value = pat
	default:
		return nil, p.unexpected(`"=" or LIKE`)
	}

	// a second condition is a deliberate, explicit error
	if p.tok.typ == tokenAnd || p.tok.typ == tokenOr {
		return nil, &ParseError{
			Msg: fmt.Sprintf("%s is not supported: WHERE accepts a single comparison", p.tok.lit),
			Pos: p.tok.pos,
		}
	}

	return pred, nil
}
