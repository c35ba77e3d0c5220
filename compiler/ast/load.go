package ast

import (
	"context"
	"os"

	"gopkg.in/yaml.v3"
	"tlog.app/go/errors"
	"tlog.app/go/tlog"
)

type (
	loader struct {
		src Source
	}

	field struct {
		key *yaml.Node
		val *yaml.Node
	}

	fields []field
)

// LoadFile reads a syntax tree produced by an external parser.
func LoadFile(ctx context.Context, name string) (*Root, Source, error) {
	data, err := os.ReadFile(name)
	if err != nil {
		return nil, Source{}, errors.Wrap(err, "read file")
	}

	tlog.SpanFromContext(ctx).Printw("read tree", "size", len(data), "name", name)

	return Load(ctx, data)
}

// Load decodes a YAML encoded syntax tree.
// Node positions are taken from the YAML document itself.
func Load(ctx context.Context, data []byte) (_ *Root, src Source, err error) {
	var doc yaml.Node

	err = yaml.Unmarshal(data, &doc)
	if err != nil {
		return nil, src, errors.Wrap(err, "decode yaml")
	}

	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, src, errors.New("empty document")
	}

	var l loader

	root, err := l.root(doc.Content[0])
	if err != nil {
		return nil, src, err
	}

	return root, l.src, nil
}

func (l *loader) root(n *yaml.Node) (_ *Root, err error) {
	fs, err := mapping(n, "file", "dir", "decls")
	if err != nil {
		return nil, errors.Wrap(err, "root")
	}

	r := &Root{Pos: pos(n)}

	if f := fs.get("file"); f != nil {
		l.src.File = f.Value
	}

	if f := fs.get("dir"); f != nil {
		l.src.Dir = f.Value
	}

	decls := fs.get("decls")
	if decls == nil {
		return r, nil
	}

	if decls.Kind != yaml.SequenceNode {
		return nil, nodeError(decls, "decls: sequence expected")
	}

	for _, d := range decls.Content {
		x, err := l.decl(d)
		if err != nil {
			return nil, errors.Wrap(err, "decl")
		}

		r.Decls = append(r.Decls, x)
	}

	return r, nil
}

func (l *loader) decl(n *yaml.Node) (Decl, error) {
	fs, err := mapping(n, "extern", "fn", "decl", "params", "ret", "body")
	if err != nil {
		return nil, err
	}

	switch {
	case fs.get("extern") != nil:
		list := fs.get("extern")
		if list.Kind != yaml.SequenceNode {
			return nil, nodeError(list, "extern: sequence expected")
		}

		b := &ExternBlock{Pos: pos(n)}

		for _, d := range list.Content {
			p, err := l.proto(d, "fn")
			if err != nil {
				return nil, errors.Wrap(err, "extern")
			}

			b.Decls = append(b.Decls, &FnDecl{Pos: pos(d), Proto: p})
		}

		return b, nil
	case fs.get("decl") != nil:
		p, err := l.proto(n, "decl")
		if err != nil {
			return nil, err
		}

		return &FnDecl{Pos: pos(n), Proto: p}, nil
	case fs.get("fn") != nil:
		p, err := l.proto(n, "fn")
		if err != nil {
			return nil, err
		}

		body := fs.get("body")
		if body == nil {
			return nil, nodeError(n, "fn %v: body expected", p.Name)
		}

		b, err := l.block(body)
		if err != nil {
			return nil, errors.Wrap(err, "fn %v", p.Name)
		}

		return &FnDef{Pos: pos(n), Proto: p, Body: b}, nil
	default:
		return nil, nodeError(n, "extern, fn or decl expected")
	}
}

func (l *loader) proto(n *yaml.Node, kw string) (_ *FnProto, err error) {
	fs, err := mapping(n, "fn", "decl", "params", "ret", "body")
	if err != nil {
		return nil, err
	}

	name := fs.field(kw)
	if name == nil || name.val.Kind != yaml.ScalarNode {
		return nil, nodeError(n, "%v: function name expected", kw)
	}

	if !isIdent(name.val.Value) {
		return nil, nodeError(name.val, "%v: identifier expected, got %q", kw, name.val.Value)
	}

	p := &FnProto{
		Pos:  pos(name.val),
		Name: name.val.Value,
	}

	if params := fs.get("params"); params != nil {
		if params.Kind != yaml.SequenceNode {
			return nil, nodeError(params, "params: sequence expected")
		}

		for _, pn := range params.Content {
			pfs, err := mapping(pn)
			if err != nil {
				return nil, errors.Wrap(err, "param")
			}

			if len(pfs) != 1 {
				return nil, nodeError(pn, "param: single {name: type} pair expected")
			}

			if !isIdent(pfs[0].key.Value) {
				return nil, nodeError(pfs[0].key, "param: identifier expected, got %q", pfs[0].key.Value)
			}

			t, err := typeRef(pfs[0].val)
			if err != nil {
				return nil, errors.Wrap(err, "param %v", pfs[0].key.Value)
			}

			p.Params = append(p.Params, &ParamDecl{
				Pos:  pos(pfs[0].key),
				Name: pfs[0].key.Value,
				Type: t,
			})
		}
	}

	if ret := fs.get("ret"); ret != nil {
		p.Ret, err = typeRef(ret)
		if err != nil {
			return nil, errors.Wrap(err, "return type")
		}
	} else {
		p.Ret = &TypeRef{Pos: p.Pos, Name: "void"}
	}

	return p, nil
}

func (l *loader) block(n *yaml.Node) (*Block, error) {
	if n.Kind != yaml.SequenceNode {
		return nil, nodeError(n, "body: sequence expected")
	}

	b := &Block{Pos: pos(n)}

	for _, sn := range n.Content {
		s, err := l.stmt(sn)
		if err != nil {
			return nil, errors.Wrap(err, "statement")
		}

		b.Stmts = append(b.Stmts, s)
	}

	return b, nil
}

func (l *loader) stmt(n *yaml.Node) (Stmt, error) {
	if n.Kind == yaml.MappingNode {
		fs, err := mapping(n)
		if err != nil {
			return nil, err
		}

		if f := fs.get("return"); f != nil && len(fs) == 1 {
			if f.Tag == "!!null" {
				return &Return{Pos: pos(n)}, nil
			}

			x, err := l.expr(f)
			if err != nil {
				return nil, errors.Wrap(err, "return")
			}

			return &Return{Pos: pos(n), X: x}, nil
		}

		if f := fs.get("expr"); f != nil && len(fs) == 1 {
			x, err := l.expr(f)
			if err != nil {
				return nil, err
			}

			return &ExprStmt{Pos: pos(n), X: x}, nil
		}
	}

	x, err := l.expr(n)
	if err != nil {
		return nil, err
	}

	return &ExprStmt{Pos: pos(n), X: x}, nil
}

func (l *loader) expr(n *yaml.Node) (Expr, error) {
	switch n.Kind {
	case yaml.ScalarNode:
		switch {
		case n.Tag == "!!int" && isDecimal(n.Value):
			return &Number{Pos: pos(n), Text: n.Value}, nil
		case n.Tag == "!!int":
			return nil, nodeError(n, "decimal integer literal expected, got %q", n.Value)
		case n.Value == "unreachable":
			return &Unreachable{Pos: pos(n)}, nil
		}

		return nil, nodeError(n, "unexpected scalar expression: %q", n.Value)
	case yaml.MappingNode:
	default:
		return nil, nodeError(n, "expression expected")
	}

	fs, err := mapping(n, "str", "call", "args")
	if err != nil {
		return nil, err
	}

	if s := fs.get("str"); s != nil {
		if len(fs) != 1 || s.Kind != yaml.ScalarNode {
			return nil, nodeError(n, "str: single scalar expected")
		}

		return &String{Pos: pos(n), Value: s.Value}, nil
	}

	name := fs.get("call")
	if name == nil || name.Kind != yaml.ScalarNode {
		return nil, nodeError(n, "call: function name expected")
	}

	if !isIdent(name.Value) {
		return nil, nodeError(name, "call: identifier expected, got %q", name.Value)
	}

	c := &Call{Pos: pos(n), Name: name.Value}

	if args := fs.get("args"); args != nil {
		if args.Kind != yaml.SequenceNode {
			return nil, nodeError(args, "args: sequence expected")
		}

		for _, a := range args.Content {
			x, err := l.expr(a)
			if err != nil {
				return nil, errors.Wrap(err, "call %v: arg", c.Name)
			}

			c.Args = append(c.Args, x)
		}
	}

	return c, nil
}

func typeRef(n *yaml.Node) (*TypeRef, error) {
	if n.Kind != yaml.ScalarNode {
		return nil, nodeError(n, "type expected")
	}

	return ParseType(pos(n), n.Value)
}

func mapping(n *yaml.Node, allowed ...string) (fs fields, err error) {
	if n.Kind != yaml.MappingNode {
		return nil, nodeError(n, "mapping expected")
	}

	for i := 0; i+1 < len(n.Content); i += 2 {
		k, v := n.Content[i], n.Content[i+1]

		if len(allowed) != 0 && !contains(allowed, k.Value) {
			return nil, nodeError(k, "unexpected key: %v", k.Value)
		}

		fs = append(fs, field{key: k, val: v})
	}

	return fs, nil
}

func (fs fields) field(key string) *field {
	for i := range fs {
		if fs[i].key.Value == key {
			return &fs[i]
		}
	}

	return nil
}

func (fs fields) get(key string) *yaml.Node {
	f := fs.field(key)
	if f == nil {
		return nil
	}

	return f.val
}

func contains(l []string, s string) bool {
	for _, x := range l {
		if x == s {
			return true
		}
	}

	return false
}

func isIdent(s string) bool {
	if s == "" || s[0] >= '0' && s[0] <= '9' {
		return false
	}

	return skipIdent([]byte(s), 0) == len(s)
}

func isDecimal(s string) bool {
	if s != "" && (s[0] == '-' || s[0] == '+') {
		s = s[1:]
	}

	if s == "" {
		return false
	}

	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}

	return true
}

func pos(n *yaml.Node) Pos {
	return Pos{Line: n.Line, Col: n.Column}
}

func nodeError(n *yaml.Node, format string, args ...any) error {
	return errors.Wrap(errors.New(format, args...), "%v", pos(n))
}
