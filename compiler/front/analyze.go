package front

import (
	"context"
	"fmt"

	"tlog.app/go/errors"
	"tlog.app/go/loc"
	"tlog.app/go/tlog"

	"github.com/slowlang/ziggurat/compiler/ast"
)

// Analyze resolves every type reference, registers extern declarations
// and function definitions. Diagnostics go to the sink, the walk never stops on them.
func (c *Context) Analyze(ctx context.Context) (err error) {
	tr, ctx := tlog.SpawnFromContextAndWrap(ctx, "front: analyze", "file", c.src.File)
	defer tr.Finish("err", &err)

	if c.analyzed {
		return errors.New("analyzed twice")
	}

	c.analyzeNode(ctx, c.root)

	c.analyzed = true

	tr.Printw("analyzed", "defs", len(c.fnDefs), "decls", len(c.fnDecls), "errors", c.errs.Len())

	return nil
}

func (c *Context) analyzeNode(ctx context.Context, n ast.Node) {
	switch n := n.(type) {
	case *ast.Root:
		for _, d := range n.Decls {
			c.analyzeNode(ctx, d)
		}
	case *ast.ExternBlock:
		for _, d := range n.Decls {
			c.analyzeNode(ctx, d)

			if c.defined(d.Proto.Name) {
				c.errorf(ctx, d.Pos, "redefinition of '%s'", d.Proto.Name)
				continue
			}

			e := c.declare(d.Proto, true)

			tlog.SpanFromContext(ctx).V("declare").Printw("extern", "name", e.Name, "ret", e.Ret, "params", len(e.Params))
		}
	case *ast.FnDef:
		if c.defined(n.Proto.Name) {
			c.errorf(ctx, n.Pos, "redefinition of '%s'", n.Proto.Name)
			return
		}

		c.fnDefs[n.Proto.Name] = n

		c.analyzeNode(ctx, n.Proto)
		c.analyzeNode(ctx, n.Body)
	case *ast.FnDecl:
		c.analyzeNode(ctx, n.Proto)
	case *ast.FnProto:
		seen := make(map[string]struct{}, len(n.Params))

		for _, p := range n.Params {
			c.analyzeNode(ctx, p)

			if _, ok := seen[p.Name]; ok {
				c.errorf(ctx, p.Pos, "redefinition of parameter '%s'", p.Name)
			}

			seen[p.Name] = struct{}{}
		}

		c.analyzeNode(ctx, n.Ret)
	case *ast.ParamDecl:
		c.analyzeNode(ctx, n.Type)

		if t := c.TypeOf(n.Type); t.IsVoid() || t.IsUnreachable() {
			c.errorf(ctx, n.Pos, "parameter of type '%s' not allowed", t.Name)
		}
	case *ast.TypeRef:
		c.types.Resolve(n, &c.errs, c.annotate)
	case *ast.Block:
		for _, s := range n.Stmts {
			c.analyzeNode(ctx, s)
		}
	case *ast.ExprStmt:
		c.analyzeNode(ctx, n.X)
	case *ast.Return:
		if n.X != nil {
			c.analyzeNode(ctx, n.X)
		}
	case *ast.Call:
		for _, a := range n.Args {
			c.analyzeNode(ctx, a)
		}
	case *ast.Number, *ast.String, *ast.Unreachable:
	default:
		panic(fmt.Sprintf("unsupported node: %T", n))
	}
}

func (c *Context) errorf(ctx context.Context, pos ast.Pos, format string, args ...any) {
	c.errs.Add(pos, format, args...)

	if tr := tlog.SpanFromContext(ctx); tr.If("diag") {
		tr.Printw("diagnostic", "pos", pos, "msg", fmt.Sprintf(format, args...), "from", loc.Caller(1))
	}
}
