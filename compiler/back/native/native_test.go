package native

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slowlang/ziggurat/compiler/ast"
	"github.com/slowlang/ziggurat/compiler/back"
	"github.com/slowlang/ziggurat/compiler/front"
)

func TestEmitObject(t *testing.T) {
	tg, err := New(Config{})
	require.NoError(t, err)

	defer tg.Close()

	assert.NotEmpty(t, tg.Triple())

	m := ir.NewModule()
	f := m.NewFunc("main", types.I32)
	f.NewBlock("entry").NewRet(constant.NewInt(types.I32, 0))

	path := filepath.Join(t.TempDir(), "main.o")

	err = tg.EmitObject(context.Background(), m, path)
	require.NoError(t, err)

	st, err := os.Stat(path)
	require.NoError(t, err)
	assert.NotZero(t, st.Size())

	assert.NoFileExists(t, path+".ll")
}

func TestEmitInvalidModule(t *testing.T) {
	tg, err := New(Config{})
	require.NoError(t, err)

	defer tg.Close()

	m := ir.NewModule()
	f := m.NewFunc("main", types.I32)
	f.NewBlock("entry").NewRet(constant.NewInt(types.I8, 0))

	err = tg.EmitObject(context.Background(), m, filepath.Join(t.TempDir(), "main.o"))
	assert.ErrorIs(t, err, back.ErrInvalidModule)
}

func TestUnknownTarget(t *testing.T) {
	_, err := New(Config{Triple: "nonexistent-unknown-nothing"})
	assert.ErrorIs(t, err, back.ErrTarget)
}

func TestEmitCompiled(t *testing.T) {
	tg, err := New(Config{})
	require.NoError(t, err)

	defer tg.Close()

	hello, err := os.ReadFile("../../testdata/hello.yaml")
	require.NoError(t, err)

	for _, tc := range []struct {
		name string
		data string
	}{
		{name: "hello", data: string(hello)},
		{name: "noreturn_dead_code", data: `file: dead.zig
decls:
  - extern:
      - fn: abort
        ret: unreachable
  - fn: die
    ret: unreachable
    body:
      - {call: abort}
  - fn: main
    ret: i32
    body:
      - {call: die}
      - unreachable
      - return: 1
  - fn: nothing
    body: []
`},
		{name: "user_symbols", data: `file: names.zig
decls:
  - extern:
      - fn: puts
        params: [{s: "*const u8"}]
        ret: i32
  - fn: str
    params: [{entry: i32}]
    ret: i32
    body:
      - return: {call: puts, args: [{str: hi}]}
  - fn: main
    ret: i32
    body:
      - return: {call: str, args: [1]}
`},
	} {
		t.Run(tc.name, func(t *testing.T) {
			ctx := context.Background()

			root, src, err := ast.Load(ctx, []byte(tc.data))
			require.NoError(t, err)

			c := front.New(root, src, front.Config{})

			require.NoError(t, c.Analyze(ctx))
			require.NoError(t, c.Generate(ctx))
			require.Empty(t, c.Errors())

			path := filepath.Join(t.TempDir(), tc.name+".o")

			err = tg.EmitObject(ctx, c.Module(), path)
			require.NoError(t, err, "%s", c.Module())

			assert.FileExists(t, path)
		})
	}
}

func TestHostDefaults(t *testing.T) {
	triple, cpu, _ := hostDefaults(Config{})
	assert.NotEmpty(t, triple)
	assert.NotEmpty(t, cpu)

	_, cpu, _ = hostDefaults(Config{CPU: "generic"})
	assert.Equal(t, "generic", cpu)

	triple, cpu, features := hostDefaults(Config{Triple: "x86_64-unknown-linux-gnu"})
	assert.Equal(t, "x86_64-unknown-linux-gnu", triple)
	assert.Empty(t, cpu)
	assert.Empty(t, features)
}
