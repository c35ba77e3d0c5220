package front

import (
	"fmt"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/enum"
	"github.com/llir/llvm/ir/metadata"
	"tlog.app/go/loc"
	"tlog.app/go/tlog"

	"github.com/slowlang/ziggurat/compiler/ast"
	"github.com/slowlang/ziggurat/compiler/dbg"
	"github.com/slowlang/ziggurat/compiler/diag"
	"github.com/slowlang/ziggurat/compiler/tp"
)

type (
	Config struct {
		// Producer is recorded in the debug compile unit.
		Producer string

		// PointerBits is the target pointer size used for debug types.
		PointerBits int
	}

	// Context is the state of one compilation unit shared by both passes.
	Context struct {
		cfg  Config
		src  ast.Source
		root *ast.Root

		m     *ir.Module
		dbg   *dbg.Builder
		types *tp.Table
		errs  diag.Sink

		// resolved is written by Analyze only.
		resolved map[*ast.TypeRef]*tp.Type

		fnDefs  map[string]*ast.FnDef
		fnDecls map[string]*FnEntry
		strs    map[string]*ir.Global

		analyzed  bool
		generated bool
	}

	// FnEntry is a callable function: an extern declaration or a definition.
	FnEntry struct {
		Name  string
		Func  *ir.Func
		Proto *ast.FnProto

		Params []*tp.Type
		Ret    *tp.Type

		Extern bool
	}

	funContext struct {
		*FnEntry

		def *ast.FnDef
		sp  *metadata.DISubprogram

		cur  *ir.Block
		dead bool
	}
)

const DefaultProducer = "ziggurat"

func New(root *ast.Root, src ast.Source, cfg Config) *Context {
	if cfg.Producer == "" {
		cfg.Producer = DefaultProducer
	}

	m := ir.NewModule()
	m.SourceFilename = src.File

	d := dbg.New(m)

	return &Context{
		cfg:  cfg,
		src:  src,
		root: root,

		m:     m,
		dbg:   d,
		types: tp.New(d, cfg.PointerBits),

		resolved: make(map[*ast.TypeRef]*tp.Type),

		fnDefs:  make(map[string]*ast.FnDef),
		fnDecls: make(map[string]*FnEntry),
		strs:    make(map[string]*ir.Global),
	}
}

func (c *Context) Module() *ir.Module { return c.m }

func (c *Context) Types() *tp.Table { return c.types }

func (c *Context) Errors() []diag.Error { return c.errs.Errors() }

func (c *Context) Sink() *diag.Sink { return &c.errs }

// Decl looks up the function declaration table.
func (c *Context) Decl(name string) (*FnEntry, bool) {
	e, ok := c.fnDecls[name]
	return e, ok
}

// Def looks up the function definition table.
func (c *Context) Def(name string) (*ast.FnDef, bool) {
	d, ok := c.fnDefs[name]
	return d, ok
}

// StringGlobal returns the pooled constant for string literal content s.
func (c *Context) StringGlobal(s string) (*ir.Global, bool) {
	g, ok := c.strs[s]
	return g, ok
}

// TypeOf returns the type ref annotation made by Analyze.
func (c *Context) TypeOf(ref *ast.TypeRef) *tp.Type {
	t, ok := c.resolved[ref]
	if !ok {
		panic(fmt.Sprintf("type ref %v at %v is not resolved", ref, ref.Pos))
	}

	return t
}

func (c *Context) annotate(ref *ast.TypeRef, t *tp.Type) {
	if c.analyzed {
		panic("annotate after analysis")
	}

	if _, ok := c.resolved[ref]; ok {
		panic(fmt.Sprintf("type ref %v at %v annotated twice", ref, ref.Pos))
	}

	tlog.V("annotate").Printw("annotate", "ref", ref.String(), "pos", ref.Pos, "type", t, "from", loc.Callers(1, 3))

	c.resolved[ref] = t
}

// defined reports whether name is taken by a definition or an extern declaration.
func (c *Context) defined(name string) bool {
	_, def := c.fnDefs[name]
	_, decl := c.fnDecls[name]

	return def || decl
}

// paramType is the annotated type of p, or Invalid if p can't hold a value.
func (c *Context) paramType(p *ast.ParamDecl) *tp.Type {
	t := c.TypeOf(p.Type)
	if t.Kind == tp.Void || t.Kind == tp.Unreachable {
		return c.types.Invalid()
	}

	return t
}

// declare creates the backend function for a prototype and registers it.
func (c *Context) declare(p *ast.FnProto, extern bool) *FnEntry {
	e := &FnEntry{
		Name:   p.Name,
		Proto:  p,
		Ret:    c.TypeOf(p.Ret),
		Extern: extern,
	}

	params := make([]*ir.Param, len(p.Params))

	for i, pd := range p.Params {
		t := c.paramType(pd)

		e.Params = append(e.Params, t)
		params[i] = ir.NewParam(pd.Name, t.IR)
	}

	e.Func = c.m.NewFunc(p.Name, e.Ret.IR, params...)

	if e.Ret.IsUnreachable() {
		e.Func.FuncAttrs = append(e.Func.FuncAttrs, enum.FuncAttrNoReturn)
	}

	if !extern {
		e.Func.FuncAttrs = append(e.Func.FuncAttrs, enum.FuncAttrNoUnwind)
	}

	c.fnDecls[p.Name] = e

	return e
}
