package front

import (
	"context"
	"fmt"
	"strconv"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/enum"
	"github.com/llir/llvm/ir/metadata"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"
	"nikand.dev/go/heap"
	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/slowlang/ziggurat/compiler/ast"
	"github.com/slowlang/ziggurat/compiler/back"
	"github.com/slowlang/ziggurat/compiler/tp"
)

// Generate lowers every registered definition into the module.
// The module is verified only if no diagnostics were reported.
func (c *Context) Generate(ctx context.Context) (err error) {
	tr, ctx := tlog.SpawnFromContextAndWrap(ctx, "front: generate", "file", c.src.File)
	defer tr.Finish("err", &err)

	if !c.analyzed {
		return errors.New("generate before analyze")
	}

	if c.generated {
		return errors.New("generated twice")
	}

	c.generated = true

	c.dbg.CompileUnit(c.src.File, c.src.Dir, c.cfg.Producer)

	defs := c.sortedDefs()
	funs := make([]*funContext, len(defs))

	for i, d := range defs {
		funs[i] = c.declareDef(d)
	}

	for _, f := range funs {
		c.genFunc(ctx, f)
	}

	err = c.dbg.Finalize()
	if err != nil {
		return errors.Wrap(err, "finalize debug info")
	}

	if tr.If("dump_module") {
		tr.Printw("module", "ir", c.m.String())
	}

	if !c.errs.Empty() {
		tr.Printw("verification skipped", "errors", c.errs.Len())
		return nil
	}

	err = back.Verify(c.m)
	if err != nil {
		return errors.Wrap(err, "verify")
	}

	return nil
}

func (c *Context) sortedDefs() []*ast.FnDef {
	h := heap.Heap[*ast.FnDef]{
		Less: func(d []*ast.FnDef, i, j int) bool {
			return d[i].Proto.Name < d[j].Proto.Name
		},
	}

	for _, d := range c.fnDefs {
		h.Push(d)
	}

	defs := make([]*ast.FnDef, 0, h.Len())

	for h.Len() != 0 {
		defs = append(defs, h.Pop())
	}

	return defs
}

func (c *Context) declareDef(d *ast.FnDef) *funContext {
	e := c.declare(d.Proto, false)

	ts := make([]metadata.Field, 0, 1+len(e.Params))
	ts = append(ts, e.Ret.Debug)

	for _, p := range e.Params {
		ts = append(ts, p.Debug)
	}

	sp := c.dbg.Function(e.Func, d.Line, c.dbg.SubroutineType(ts...))

	return &funContext{
		FnEntry: e,
		def:     d,
		sp:      sp,
	}
}

func (c *Context) genFunc(ctx context.Context, f *funContext) {
	tr := tlog.SpanFromContext(ctx)

	f.cur = f.Func.NewBlock("")

	for _, s := range f.def.Body.Stmts {
		c.genStmt(ctx, f, s)
	}

	switch {
	case f.cur.Term != nil:
	case f.dead:
		f.cur.NewUnreachable()
	case f.Ret.IsVoid():
		f.cur.NewRet(nil)
	default:
		if !f.Ret.IsInvalid() {
			c.errorf(ctx, f.def.Pos, "control reaches end of non-void function '%s'", f.Name)
		}

		f.cur.NewUnreachable()
	}

	if tr.If("dump_func") {
		tr.Printw("func", "name", f.Name, "blocks", len(f.Func.Blocks), "ir", f.Func.LLString())
	}
}

func (c *Context) genStmt(ctx context.Context, f *funContext, s ast.Stmt) {
	switch s := s.(type) {
	case *ast.ExprStmt:
		c.genExpr(ctx, f, s.X)
	case *ast.Return:
		c.genReturn(ctx, f, s)
	default:
		panic(fmt.Sprintf("unsupported statement: %T", s))
	}
}

func (c *Context) genReturn(ctx context.Context, f *funContext, s *ast.Return) {
	if f.Ret.IsUnreachable() {
		if s.X != nil {
			c.genExpr(ctx, f, s.X)
		}

		c.errorf(ctx, s.Pos, "return from function with return type 'unreachable'")

		f.block().NewUnreachable()

		return
	}

	if s.X == nil {
		if !tp.Assignable(f.Ret, c.types.Void()) {
			c.errorf(ctx, s.Pos, "type mismatch: expected '%s', got '%s'", f.Ret, c.types.Void())
		}

		c.ret(f, nil)

		return
	}

	v, t := c.genExpr(ctx, f, s.X)
	if v == nil {
		return // diverged
	}

	if !tp.Assignable(f.Ret, t) {
		c.errorf(ctx, s.X.Position(), "type mismatch: expected '%s', got '%s'", f.Ret, t)
	}

	if t.IsVoid() {
		v = nil
	}

	c.ret(f, v)
}

func (c *Context) ret(f *funContext, v value.Value) {
	if f.Ret.IsVoid() {
		f.block().NewRet(nil)
		return
	}

	if v == nil {
		v = constant.NewZeroInitializer(f.Ret.IR)
	}

	f.block().NewRet(v)
}

// genExpr returns a nil value if evaluation never completes.
func (c *Context) genExpr(ctx context.Context, f *funContext, x ast.Expr) (value.Value, *tp.Type) {
	switch x := x.(type) {
	case *ast.Number:
		return c.genNumber(ctx, x)
	case *ast.String:
		g := c.stringGlobal(x.Value)
		zero := constant.NewInt(types.I64, 0)

		gep := constant.NewGetElementPtr(g.ContentType, g, zero, zero)
		gep.InBounds = true

		return gep, c.types.Pointer(c.types.U8(), true)
	case *ast.Call:
		return c.genCall(ctx, f, x)
	case *ast.Unreachable:
		f.block().NewUnreachable()

		return nil, c.types.Unreachable()
	default:
		panic(fmt.Sprintf("unsupported expression: %T", x))
	}
}

func (c *Context) genNumber(ctx context.Context, x *ast.Number) (value.Value, *tp.Type) {
	v, err := strconv.ParseInt(x.Text, 10, 64)
	if err != nil || v < -1<<31 || v >= 1<<32 {
		c.errorf(ctx, x.Pos, "integer literal out of range: '%s'", x.Text)
		return c.placeholder()
	}

	return constant.NewInt(types.I32, int64(int32(uint32(v)))), c.types.Int()
}

func (c *Context) genCall(ctx context.Context, f *funContext, x *ast.Call) (value.Value, *tp.Type) {
	e, ok := c.fnDecls[x.Name]
	if !ok {
		c.errorf(ctx, x.Pos, "undefined function: '%s'", x.Name)
		return c.placeholder()
	}

	if len(x.Args) != len(e.Params) {
		c.errorf(ctx, x.Pos, "wrong number of arguments. Expected %d, got %d.", len(e.Params), len(x.Args))
		return c.placeholder()
	}

	args := make([]value.Value, len(x.Args))

	for i, a := range x.Args {
		v, t := c.genExpr(ctx, f, a)
		if v == nil {
			return nil, c.types.Unreachable()
		}

		if !tp.Assignable(e.Params[i], t) {
			c.errorf(ctx, a.Position(), "type mismatch: expected '%s', got '%s'", e.Params[i], t)
		}

		args[i] = v
	}

	call := f.block().NewCall(e.Func, args...)
	call.Metadata = append(call.Metadata, &metadata.Attachment{
		Name: "dbg",
		Node: c.dbg.Location(x.Line, x.Col, f.sp),
	})

	if e.Ret.IsUnreachable() {
		f.cur.NewUnreachable()

		return nil, e.Ret
	}

	return call, e.Ret
}

// placeholder stands in for an expression that failed to type.
func (c *Context) placeholder() (value.Value, *tp.Type) {
	return constant.NewInt(types.I32, 0), c.types.Invalid()
}

func (c *Context) stringGlobal(s string) *ir.Global {
	if g, ok := c.strs[s]; ok {
		return g
	}

	// unnamed: numbered by the module, apart from user symbols
	g := c.m.NewGlobalDef("", constant.NewCharArrayFromString(s+"\x00"))
	g.Immutable = true
	g.Linkage = enum.LinkagePrivate
	g.UnnamedAddr = enum.UnnamedAddrUnnamedAddr

	c.strs[s] = g

	return g
}

// block returns the block to emit into.
// Code following a terminator goes to a fresh unreachable block.
func (f *funContext) block() *ir.Block {
	if f.cur.Term != nil {
		f.cur = f.Func.NewBlock("")
		f.dead = true
	}

	return f.cur
}
