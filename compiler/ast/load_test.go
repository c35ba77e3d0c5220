package ast

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	const data = `file: main.zig
dir: /src
decls:
  - extern:
      - fn: foo
        params: [{a: i32}, {s: "*const u8"}]
        ret: i32
      - fn: abort
        ret: unreachable
  - fn: main
    ret: i32
    body:
      - expr: {call: foo, args: [1, {str: hello}]}
      - {call: abort}
      - return: {call: foo, args: [-2, {str: ""}]}
  - fn: nothing
    body:
      - return: ~
      - unreachable
  - decl: later
`

	root, src, err := Load(context.Background(), []byte(data))
	require.NoError(t, err)

	assert.Equal(t, Source{Dir: "/src", File: "main.zig"}, src)
	require.Len(t, root.Decls, 4)

	ext, ok := root.Decls[0].(*ExternBlock)
	require.True(t, ok, "%T", root.Decls[0])
	require.Len(t, ext.Decls, 2)

	foo := ext.Decls[0].Proto
	assert.Equal(t, "foo", foo.Name)
	require.Len(t, foo.Params, 2)
	assert.Equal(t, "a", foo.Params[0].Name)
	assert.Equal(t, "i32", foo.Params[0].Type.String())
	assert.Equal(t, "*const u8", foo.Params[1].Type.String())
	assert.Equal(t, "i32", foo.Ret.String())
	assert.Equal(t, 5, foo.Pos.Line)

	assert.Equal(t, "unreachable", ext.Decls[1].Proto.Ret.String())
	assert.Len(t, ext.Decls[1].Proto.Params, 0)

	main, ok := root.Decls[1].(*FnDef)
	require.True(t, ok, "%T", root.Decls[1])
	assert.Equal(t, "main", main.Proto.Name)
	assert.Equal(t, 10, main.Line)
	require.Len(t, main.Body.Stmts, 3)

	st, ok := main.Body.Stmts[0].(*ExprStmt)
	require.True(t, ok)

	call, ok := st.X.(*Call)
	require.True(t, ok)
	assert.Equal(t, "foo", call.Name)
	require.Len(t, call.Args, 2)
	assert.Equal(t, &Number{Pos: call.Args[0].Position(), Text: "1"}, call.Args[0])
	assert.Equal(t, "hello", call.Args[1].(*String).Value)

	st, ok = main.Body.Stmts[1].(*ExprStmt)
	require.True(t, ok)
	assert.Equal(t, "abort", st.X.(*Call).Name)

	ret, ok := main.Body.Stmts[2].(*Return)
	require.True(t, ok)

	call = ret.X.(*Call)
	assert.Equal(t, "-2", call.Args[0].(*Number).Text)
	assert.Equal(t, "", call.Args[1].(*String).Value)

	nothing := root.Decls[2].(*FnDef)
	assert.Equal(t, "void", nothing.Proto.Ret.Name)
	require.Len(t, nothing.Body.Stmts, 2)
	assert.Nil(t, nothing.Body.Stmts[0].(*Return).X)
	assert.IsType(t, &Unreachable{}, nothing.Body.Stmts[1].(*ExprStmt).X)

	decl, ok := root.Decls[3].(*FnDecl)
	require.True(t, ok)
	assert.Equal(t, "later", decl.Proto.Name)
}

func TestLoadErrors(t *testing.T) {
	for _, data := range []string{
		``,
		`decls: 1`,
		`decls: [{what: x}]`,
		`decls: [{fn: main}]`,
		`decls: [{fn: main, body: [{call: [x]}]}]`,
		`decls: [{fn: main, body: [text]}]`,
		`decls: [{fn: main, params: [{a: "*u8"}], body: []}]`,
		`decls: [{extern: {fn: x}}]`,
		`unknown: key`,
		`decls: [{fn: main, body: [0x10]}]`,
		`decls: [{fn: main, body: [0o17]}]`,
		`decls: [{fn: main, body: [1_000]}]`,
		`decls: [{fn: "1f", body: []}]`,
		`decls: [{fn: main, params: [{"a b": i32}], body: []}]`,
		`decls: [{fn: main, body: [{call: "x.y"}]}]`,
	} {
		_, _, err := Load(context.Background(), []byte(data))
		assert.Error(t, err, "%q", data)
	}
}

func TestLoadIntegerLiterals(t *testing.T) {
	for _, text := range []string{"0", "42", "-7", "+3", "4294967296"} {
		root, _, err := Load(context.Background(), []byte(`decls: [{fn: main, body: [`+text+`]}]`))
		if !assert.NoError(t, err, text) {
			continue
		}

		st := root.Decls[0].(*FnDef).Body.Stmts[0].(*ExprStmt)
		assert.Equal(t, text, st.X.(*Number).Text)
	}

	_, _, err := Load(context.Background(), []byte(`decls: [{fn: main, body: [0x10]}]`))
	if assert.Error(t, err) {
		assert.Contains(t, err.Error(), `decimal integer literal expected, got "0x10"`)
	}
}
