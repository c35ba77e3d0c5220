package compiler

import (
	"context"

	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/slowlang/ziggurat/compiler/ast"
	"github.com/slowlang/ziggurat/compiler/back"
	"github.com/slowlang/ziggurat/compiler/back/native"
	"github.com/slowlang/ziggurat/compiler/front"
)

type (
	Config struct {
		// Output executable path. Object file is Output + ".o".
		Output string

		Linker string
		Static bool

		Triple   string
		CPU      string
		Features string

		Producer    string
		PointerBits int
	}
)

var ErrDiagnostics = errors.New("compilation failed")

// CompileFile loads a syntax tree file and runs both passes on it.
func CompileFile(ctx context.Context, name string, cfg Config) (*front.Context, error) {
	root, src, err := ast.LoadFile(ctx, name)
	if err != nil {
		return nil, errors.Wrap(err, "load %v", name)
	}

	return Compile(ctx, root, src, cfg)
}

// Compile runs analysis and code generation.
// Diagnostics are not returned as an error, check Context.Errors.
func Compile(ctx context.Context, root *ast.Root, src ast.Source, cfg Config) (c *front.Context, err error) {
	tr, ctx := tlog.SpawnFromContextAndWrap(ctx, "compile", "file", src.File)
	defer tr.Finish("err", &err)

	c = front.New(root, src, front.Config{
		Producer:    cfg.Producer,
		PointerBits: cfg.PointerBits,
	})

	err = c.Analyze(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "analyze")
	}

	err = c.Generate(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "generate")
	}

	tr.Printw("compiled", "errors", len(c.Errors()))

	return c, nil
}

// Build links the compiled module into cfg.Output.
// It refuses to link a unit with diagnostics.
func Build(ctx context.Context, c *front.Context, cfg Config) (err error) {
	tr, ctx := tlog.SpawnFromContextAndWrap(ctx, "build", "out", cfg.Output)
	defer tr.Finish("err", &err)

	if n := len(c.Errors()); n != 0 {
		return errors.Wrap(ErrDiagnostics, "%d errors", n)
	}

	t, err := native.New(native.Config{
		Triple:   cfg.Triple,
		CPU:      cfg.CPU,
		Features: cfg.Features,
		Static:   cfg.Static,
	})
	if err != nil {
		return errors.Wrap(err, "target")
	}

	defer t.Close()

	err = back.Link(ctx, t, c.Module(), cfg.Output, back.LinkConfig{Linker: cfg.Linker})
	if err != nil {
		return errors.Wrap(err, "link")
	}

	return nil
}
