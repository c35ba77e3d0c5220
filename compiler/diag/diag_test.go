package diag

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slowlang/ziggurat/compiler/ast"
)

func TestSink(t *testing.T) {
	var s Sink

	assert.True(t, s.Empty())
	assert.NoError(t, s.Err())

	s.Add(ast.Pos{Line: 3, Col: 7}, "undefined function: '%s'", "bar")
	s.Add(ast.Pos{Line: 1, Col: 2}, "invalid type name: '%s'", "i64")

	assert.False(t, s.Empty())
	assert.Equal(t, 2, s.Len())

	assert.Equal(t, []Error{
		{LineStart: 3, ColumnStart: 7, LineEnd: -1, ColumnEnd: -1, Msg: "undefined function: 'bar'"},
		{LineStart: 1, ColumnStart: 2, LineEnd: -1, ColumnEnd: -1, Msg: "invalid type name: 'i64'"},
	}, s.Errors())

	err := s.Err()
	require.Error(t, err)
	assert.Equal(t, "3:7: error: undefined function: 'bar' (and 1 more errors)", err.Error())

	assert.Equal(t, "main.zig:3:7: error: undefined function: 'bar'\nmain.zig:1:2: error: invalid type name: 'i64'\n",
		string(s.AppendText(nil, "main.zig")))
}

func TestListSingle(t *testing.T) {
	l := List{{LineStart: 1, ColumnStart: 1, LineEnd: -1, ColumnEnd: -1, Msg: "pointer to unreachable not allowed"}}

	assert.Equal(t, "1:1: error: pointer to unreachable not allowed", l.Error())
	assert.Equal(t, "no errors", List(nil).Error())
}
