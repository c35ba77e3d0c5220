package back

import (
	"bytes"
	"context"
	"os/exec"

	"github.com/llir/llvm/ir"
	"tlog.app/go/errors"
	"tlog.app/go/tlog"
)

type (
	// ObjectEmitter writes a native object file for a verified module.
	ObjectEmitter interface {
		EmitObject(ctx context.Context, m *ir.Module, path string) error
	}

	LinkConfig struct {
		// Linker executable. Default is ld.
		Linker string
	}
)

const DefaultLinker = "ld"

// ObjectPath is the intermediate object file name for out.
func ObjectPath(out string) string {
	return out + ".o"
}

func LinkArgs(out string) []string {
	return []string{"-o", out, ObjectPath(out), "-lc"}
}

// Link emits out.o and links it into out.
// The linker is waited for synchronously.
func Link(ctx context.Context, e ObjectEmitter, m *ir.Module, out string, cfg LinkConfig) (err error) {
	tr, ctx := tlog.SpawnFromContextAndWrap(ctx, "back: link", "out", out)
	defer tr.Finish("err", &err)

	obj := ObjectPath(out)

	err = e.EmitObject(ctx, m, obj)
	if err != nil {
		return errors.Wrap(err, "emit %v", obj)
	}

	linker := cfg.Linker
	if linker == "" {
		linker = DefaultLinker
	}

	args := LinkArgs(out)

	tr.Printw("spawn linker", "linker", linker, "args", args)

	var buf bytes.Buffer

	cmd := exec.CommandContext(ctx, linker, args...)
	cmd.Stdout = &buf
	cmd.Stderr = &buf

	err = cmd.Run()
	if err != nil {
		return errors.Wrap(err, "%v: %s", linker, bytes.TrimSpace(buf.Bytes()))
	}

	return nil
}
