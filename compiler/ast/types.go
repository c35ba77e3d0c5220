package ast

import (
	"tlog.app/go/errors"
)

type (
	UnexpectedTypeError struct {
		Pos  Pos
		Text string
	}
)

// ParseType parses a type expression in source syntax:
//
//	u8
//	*const i32
//	*mut *const u8
//
// pos is the position of the first byte of text.
func ParseType(pos Pos, text string) (*TypeRef, error) {
	b := []byte(text)

	i := skipSpaces(b, 0)

	t, i, err := parseType(b, i, pos)
	if err != nil {
		return nil, err
	}

	i = skipSpaces(b, i)
	if i != len(b) {
		return nil, UnexpectedTypeError{Pos: at(pos, i), Text: string(b[i:])}
	}

	return t, nil
}

func parseType(b []byte, st int, pos Pos) (t *TypeRef, i int, err error) {
	if st == len(b) {
		return nil, st, errors.New("%v: type expected", at(pos, st))
	}

	if b[st] != '*' {
		i = skipIdent(b, st)
		if i == st {
			return nil, st, UnexpectedTypeError{Pos: at(pos, st), Text: string(b[st:])}
		}

		return &TypeRef{Pos: at(pos, st), Name: string(b[st:i])}, i, nil
	}

	t = &TypeRef{Pos: at(pos, st)}

	i = skipSpaces(b, st+1)
	e := skipIdent(b, i)

	switch string(b[i:e]) {
	case "const":
		t.Const = true
	case "mut":
	default:
		return nil, i, errors.New("%v: expected const or mut after '*'", at(pos, i))
	}

	i = skipSpaces(b, e)

	t.Elem, i, err = parseType(b, i, pos)
	if err != nil {
		return nil, i, errors.Wrap(err, "pointer elem")
	}

	return t, i, nil
}

func at(pos Pos, off int) Pos {
	pos.Col += off
	return pos
}

func skipSpaces(b []byte, i int) int {
	for i < len(b) && (b[i] == ' ' || b[i] == '\t') {
		i++
	}

	return i
}

func skipIdent(b []byte, i int) int {
	for i < len(b) && (b[i] == '_' ||
		b[i] >= 'A' && b[i] <= 'Z' ||
		b[i] >= 'a' && b[i] <= 'z' ||
		b[i] >= '0' && b[i] <= '9') {
		i++
	}

	return i
}

func (e UnexpectedTypeError) Error() string {
	return e.Pos.String() + ": unexpected token in type: " + e.Text
}
