package format

import (
	"context"
	"strconv"

	"github.com/nikandfor/hacked/hfmt"
	"tlog.app/go/errors"

	"github.com/slowlang/ziggurat/compiler/ast"
)

// Format renders a syntax tree in source form.
func Format(ctx context.Context, b []byte, x ast.Node) ([]byte, error) {
	return format(ctx, b, x, 0)
}

func format(ctx context.Context, b []byte, x ast.Node, d int) (_ []byte, err error) {
	switch x := x.(type) {
	case *ast.Root:
		return formatRoot(ctx, b, x, d)
	case *ast.ExternBlock:
		return formatExtern(ctx, b, x, d)
	case *ast.FnDef:
		return formatFunc(ctx, b, x, d)
	case *ast.FnDecl:
		b = app(b, d, "")
		b = formatProto(b, x.Proto)
		b = append(b, ";\n"...)

		return b, nil
	case ast.Stmt:
		return formatStmt(ctx, b, x, d)
	case ast.Expr:
		return formatExpr(ctx, b, x)
	default:
		return nil, errors.New("unsupported type: %T", x)
	}
}

func formatRoot(ctx context.Context, b []byte, x *ast.Root, d int) (_ []byte, err error) {
	for i, decl := range x.Decls {
		if i != 0 {
			b = append(b, '\n')
		}

		b, err = format(ctx, b, decl, d)
		if err != nil {
			return nil, errors.Wrap(err, "decl %d", i)
		}
	}

	return b, nil
}

func formatExtern(ctx context.Context, b []byte, x *ast.ExternBlock, d int) (_ []byte, err error) {
	b = app(b, d, "extern {\n")

	for _, f := range x.Decls {
		b, err = format(ctx, b, f, d+1)
		if err != nil {
			return nil, errors.Wrap(err, "extern %v", f.Proto.Name)
		}
	}

	b = app(b, d, "}\n")

	return b, nil
}

func formatFunc(ctx context.Context, b []byte, x *ast.FnDef, d int) (_ []byte, err error) {
	b = app(b, d, "")
	b = formatProto(b, x.Proto)
	b = append(b, " {\n"...)

	for _, s := range x.Body.Stmts {
		b, err = formatStmt(ctx, b, s, d+1)
		if err != nil {
			return nil, errors.Wrap(err, "func %v", x.Proto.Name)
		}
	}

	b = app(b, d, "}\n")

	return b, nil
}

func formatProto(b []byte, x *ast.FnProto) []byte {
	b = hfmt.Appendf(b, "fn %s(", x.Name)

	for i, p := range x.Params {
		if i != 0 {
			b = append(b, ", "...)
		}

		b = hfmt.Appendf(b, "%s: %s", p.Name, p.Type.String())
	}

	b = append(b, ") "...)
	b = append(b, x.Ret.String()...)

	return b
}

func formatStmt(ctx context.Context, b []byte, x ast.Stmt, d int) (_ []byte, err error) {
	b = app(b, d, "")

	switch x := x.(type) {
	case *ast.Return:
		b = append(b, "return"...)

		if x.X != nil {
			b = append(b, ' ')

			b, err = formatExpr(ctx, b, x.X)
		}
	case *ast.ExprStmt:
		b, err = formatExpr(ctx, b, x.X)
	default:
		return nil, errors.New("unsupported stmt: %T", x)
	}

	if err != nil {
		return nil, errors.Wrap(err, "stmt")
	}

	b = append(b, ";\n"...)

	return b, nil
}

func formatExpr(ctx context.Context, b []byte, x ast.Expr) (_ []byte, err error) {
	switch x := x.(type) {
	case *ast.Number:
		b = append(b, x.Text...)
	case *ast.String:
		b = strconv.AppendQuote(b, x.Value)
	case *ast.Unreachable:
		b = append(b, "unreachable"...)
	case *ast.Call:
		b = append(b, x.Name...)
		b = append(b, '(')

		for i, a := range x.Args {
			if i != 0 {
				b = append(b, ", "...)
			}

			b, err = formatExpr(ctx, b, a)
			if err != nil {
				return nil, errors.Wrap(err, "arg %d", i)
			}
		}

		b = append(b, ')')
	default:
		return nil, errors.New("unsupported expr: %T", x)
	}

	return b, nil
}

func app(b []byte, d int, f string, args ...any) []byte {
	const tabs = "\t\t\t\t\t\t\t\t\t\t\t\t\t\t\t"
	b = append(b, tabs[:d]...)
	b = hfmt.Appendf(b, f, args...)
	return b
}
