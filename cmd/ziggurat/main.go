package main

import (
	"context"
	"fmt"
	"os"

	"nikand.dev/go/cli"
	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/slowlang/ziggurat/compiler"
	"github.com/slowlang/ziggurat/compiler/ast"
	"github.com/slowlang/ziggurat/compiler/format"
	"github.com/slowlang/ziggurat/compiler/front"
)

func main() {
	compileFlags := []*cli.Flag{
		cli.NewFlag("producer", front.DefaultProducer, "debug info producer"),
		cli.NewFlag("pointer-bits", 64, "target pointer size"),
		cli.NewFlag("v", "", "verbose log topics"),
	}

	astCmd := &cli.Command{
		Name:        "ast",
		Description: "print syntax tree in source form",
		Action:      astAct,
		Args:        cli.Args{},
		Flags:       []*cli.Flag{cli.NewFlag("v", "", "verbose log topics")},
	}

	checkCmd := &cli.Command{
		Name:        "check",
		Description: "analyze and generate, report diagnostics",
		Action:      checkAct,
		Args:        cli.Args{},
		Flags:       compileFlags,
	}

	irCmd := &cli.Command{
		Name:        "ir",
		Description: "print generated llvm module",
		Action:      irAct,
		Args:        cli.Args{},
		Flags:       compileFlags,
	}

	buildCmd := &cli.Command{
		Name:        "build",
		Description: "compile and link an executable",
		Action:      buildAct,
		Args:        cli.Args{},
		Flags: append([]*cli.Flag{
			cli.NewFlag("output,o", "a.out", "output executable"),
			cli.NewFlag("linker", "ld", "linker executable"),
			cli.NewFlag("static", false, "static relocation model"),
			cli.NewFlag("triple", "", "target triple, host by default"),
			cli.NewFlag("cpu", "", "target cpu"),
			cli.NewFlag("features", "", "target cpu features"),
		}, compileFlags...),
	}

	app := &cli.Command{
		Name:        "ziggurat",
		Description: "ziggurat compiles syntax trees into executables",
		Commands: []*cli.Command{
			astCmd,
			checkCmd,
			irCmd,
			buildCmd,
		},
	}

	cli.RunAndExit(app, os.Args, os.Environ())
}

func before(c *cli.Command) context.Context {
	tlog.SetVerbosity(c.String("v"))

	ctx := context.Background()
	ctx = tlog.ContextWithSpan(ctx, tlog.Root())

	return ctx
}

func config(c *cli.Command, build bool) compiler.Config {
	cfg := compiler.Config{
		Producer:    c.String("producer"),
		PointerBits: c.Int("pointer-bits"),
	}

	if !build {
		return cfg
	}

	cfg.Output = c.String("output")
	cfg.Linker = c.String("linker")
	cfg.Static = c.Bool("static")
	cfg.Triple = c.String("triple")
	cfg.CPU = c.String("cpu")
	cfg.Features = c.String("features")

	return cfg
}

func astAct(c *cli.Command) (err error) {
	ctx := before(c)

	for _, a := range c.Args {
		root, _, err := ast.LoadFile(ctx, a)
		if err != nil {
			return errors.Wrap(err, "load %v", a)
		}

		b, err := format.Format(ctx, nil, root)
		if err != nil {
			return errors.Wrap(err, "format %v", a)
		}

		_, _ = os.Stdout.Write(b)
	}

	return nil
}

func checkAct(c *cli.Command) (err error) {
	ctx := before(c)
	cfg := config(c, false)

	failed := 0

	for _, a := range c.Args {
		x, err := compiler.CompileFile(ctx, a, cfg)
		if err != nil {
			return errors.Wrap(err, "compile %v", a)
		}

		if !report(x, a) {
			failed++
		}
	}

	if failed != 0 {
		return errors.Wrap(compiler.ErrDiagnostics, "%d files", failed)
	}

	return nil
}

func irAct(c *cli.Command) (err error) {
	ctx := before(c)
	cfg := config(c, false)

	for _, a := range c.Args {
		x, err := compiler.CompileFile(ctx, a, cfg)
		if err != nil {
			return errors.Wrap(err, "compile %v", a)
		}

		report(x, a)

		fmt.Printf("%s", x.Module())
	}

	return nil
}

func buildAct(c *cli.Command) (err error) {
	ctx := before(c)
	cfg := config(c, true)

	if len(c.Args) != 1 {
		return errors.New("expected exactly one input file, got %d", len(c.Args))
	}

	a := c.Args[0]

	x, err := compiler.CompileFile(ctx, a, cfg)
	if err != nil {
		return errors.Wrap(err, "compile %v", a)
	}

	if !report(x, a) {
		return errors.Wrap(compiler.ErrDiagnostics, "%v", a)
	}

	err = compiler.Build(ctx, x, cfg)
	if err != nil {
		return errors.Wrap(err, "build %v", a)
	}

	return nil
}

// report prints diagnostics to stderr and tells if there were none.
func report(x *front.Context, name string) bool {
	s := x.Sink()
	if s.Empty() {
		return true
	}

	_, _ = os.Stderr.Write(s.AppendText(nil, name))

	return false
}
