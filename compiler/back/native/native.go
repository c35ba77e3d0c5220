package native

import (
	"context"
	"os"

	"github.com/llir/llvm/ir"
	"tinygo.org/x/go-llvm"
	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/slowlang/ziggurat/compiler/back"
)

type (
	Config struct {
		// Triple defaults to the host triple.
		Triple   string
		CPU      string
		Features string

		Static bool
	}

	// Target emits object files through an LLVM target machine.
	Target struct {
		triple string
		tm     llvm.TargetMachine
	}
)

func New(cfg Config) (*Target, error) {
	llvm.InitializeAllTargetInfos()
	llvm.InitializeAllTargets()
	llvm.InitializeAllTargetMCs()
	llvm.InitializeAllAsmParsers()
	llvm.InitializeAllAsmPrinters()

	triple, cpu, features := hostDefaults(cfg)

	target, err := llvm.GetTargetFromTriple(triple)
	if err != nil {
		return nil, errors.Wrap(back.ErrTarget, "%v: %v", triple, err)
	}

	reloc := llvm.RelocPIC
	if cfg.Static {
		reloc = llvm.RelocStatic
	}

	tm := target.CreateTargetMachine(triple, cpu, features, llvm.CodeGenLevelNone, reloc, llvm.CodeModelDefault)

	tlog.V("target").Printw("target machine", "triple", triple, "cpu", cpu, "features", features, "static", cfg.Static)

	return &Target{
		triple: triple,
		tm:     tm,
	}, nil
}

// hostDefaults fills the host CPU and features when compiling for the host.
// An explicit triple keeps generic CPU settings unless they are given.
func hostDefaults(cfg Config) (triple, cpu, features string) {
	triple, cpu, features = cfg.Triple, cfg.CPU, cfg.Features

	if triple != "" {
		return
	}

	triple = llvm.DefaultTargetTriple()

	if cpu == "" {
		cpu = llvm.GetHostCPUName()
	}

	if features == "" {
		features = llvm.GetHostCPUFeatures()
	}

	return
}

func (t *Target) Triple() string { return t.triple }

func (t *Target) Close() {
	t.tm.Dispose()
}

// EmitObject re-parses the textual module with LLVM, verifies it and writes an object file.
func (t *Target) EmitObject(ctx context.Context, m *ir.Module, path string) (err error) {
	tr, _ := tlog.SpawnFromContextAndWrap(ctx, "native: emit object", "path", path, "triple", t.triple)
	defer tr.Finish("err", &err)

	m.TargetTriple = t.triple

	ll := path + ".ll"

	err = os.WriteFile(ll, []byte(m.String()), 0o644)
	if err != nil {
		return errors.Wrap(err, "write ir")
	}

	defer func() {
		e := os.Remove(ll)
		if err == nil && e != nil {
			err = errors.Wrap(e, "remove ir")
		}
	}()

	buf, err := llvm.NewMemoryBufferFromFile(ll)
	if err != nil {
		return errors.Wrap(back.ErrEmit, "read ir: %v", err)
	}

	lctx := llvm.NewContext()
	defer lctx.Dispose()

	mod, err := lctx.ParseIR(buf)
	if err != nil {
		return errors.Wrap(back.ErrInvalidModule, "parse ir: %v", err)
	}

	defer mod.Dispose()

	err = llvm.VerifyModule(mod, llvm.ReturnStatusAction)
	if err != nil {
		return errors.Wrap(back.ErrInvalidModule, "llvm: %v", err)
	}

	obj, err := t.tm.EmitToMemoryBuffer(mod, llvm.ObjectFile)
	if err != nil {
		return errors.Wrap(back.ErrEmit, "%v", err)
	}

	defer obj.Dispose()

	err = os.WriteFile(path, obj.Bytes(), 0o644)
	if err != nil {
		return errors.Wrap(err, "write object")
	}

	tr.Printw("object written", "size", len(obj.Bytes()))

	return nil
}
