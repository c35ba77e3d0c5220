package back

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/llir/llvm/ir"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"tlog.app/go/errors"
)

type fakeEmitter struct {
	paths []string
	err   error
}

func (e *fakeEmitter) EmitObject(ctx context.Context, m *ir.Module, path string) error {
	e.paths = append(e.paths, path)

	if e.err != nil {
		return e.err
	}

	return os.WriteFile(path, []byte(m.String()), 0o644)
}

func TestLinkArgs(t *testing.T) {
	assert.Equal(t, "build/app.o", ObjectPath("build/app"))
	assert.Equal(t, []string{"-o", "build/app", "build/app.o", "-lc"}, LinkArgs("build/app"))
}

func TestLink(t *testing.T) {
	linker, err := exec.LookPath("true")
	if err != nil {
		t.Skipf("no true executable: %v", err)
	}

	out := filepath.Join(t.TempDir(), "app")

	var e fakeEmitter

	err = Link(context.Background(), &e, ir.NewModule(), out, LinkConfig{Linker: linker})
	require.NoError(t, err)

	assert.Equal(t, []string{out + ".o"}, e.paths)
	assert.FileExists(t, out+".o")
}

func TestLinkFailed(t *testing.T) {
	linker, err := exec.LookPath("false")
	if err != nil {
		t.Skipf("no false executable: %v", err)
	}

	out := filepath.Join(t.TempDir(), "app")

	err = Link(context.Background(), &fakeEmitter{}, ir.NewModule(), out, LinkConfig{Linker: linker})
	assert.Error(t, err)
}

func TestLinkEmitFailed(t *testing.T) {
	out := filepath.Join(t.TempDir(), "app")

	e := &fakeEmitter{err: errors.Wrap(ErrEmit, "no target")}

	err := Link(context.Background(), e, ir.NewModule(), out, LinkConfig{Linker: "/nonexistent/linker"})
	assert.ErrorIs(t, err, ErrEmit)
	assert.NoFileExists(t, out)
}
