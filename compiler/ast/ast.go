package ast

import "fmt"

type (
	Node interface {
		Position() Pos
	}

	// Pos is a 1-based source position. Zero line means unknown.
	Pos struct {
		Line int
		Col  int
	}

	Decl interface {
		Node
		decl()
	}

	Stmt interface {
		Node
		stmt()
	}

	Expr interface {
		Node
		expr()
	}

	// Source names the file the tree was parsed from.
	// It is used for debug info only.
	Source struct {
		Dir  string
		File string
	}

	Root struct {
		Pos `tlog:",embed"`

		Decls []Decl
	}

	ExternBlock struct {
		Pos `tlog:",embed"`

		Decls []*FnDecl
	}

	FnDef struct {
		Pos `tlog:",embed"`

		Proto *FnProto
		Body  *Block
	}

	FnDecl struct {
		Pos `tlog:",embed"`

		Proto *FnProto
	}

	FnProto struct {
		Pos `tlog:",embed"`

		Name   string
		Params []*ParamDecl
		Ret    *TypeRef
	}

	ParamDecl struct {
		Pos `tlog:",embed"`

		Name string
		Type *TypeRef
	}

	// TypeRef is either a primitive type name or a pointer to Elem.
	TypeRef struct {
		Pos `tlog:",embed"`

		Name string

		Elem  *TypeRef
		Const bool
	}

	Block struct {
		Pos `tlog:",embed"`

		Stmts []Stmt
	}

	ExprStmt struct {
		Pos `tlog:",embed"`

		X Expr
	}

	Return struct {
		Pos `tlog:",embed"`

		X Expr
	}

	Number struct {
		Pos `tlog:",embed"`

		Text string
	}

	String struct {
		Pos `tlog:",embed"`

		Value string
	}

	Call struct {
		Pos `tlog:",embed"`

		Name string
		Args []Expr
	}

	Unreachable struct {
		Pos `tlog:",embed"`
	}
)

func (p Pos) Position() Pos { return p }

func (p Pos) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Col)
}

func (t *TypeRef) IsPointer() bool { return t.Elem != nil }

func (t *TypeRef) String() string {
	if t == nil {
		return "<nil>"
	}

	if t.Elem == nil {
		return t.Name
	}

	if t.Const {
		return "*const " + t.Elem.String()
	}

	return "*mut " + t.Elem.String()
}

func (*ExternBlock) decl() {}
func (*FnDef) decl()       {}
func (*FnDecl) decl()      {}

func (*ExprStmt) stmt() {}
func (*Return) stmt()   {}

func (*Number) expr()      {}
func (*String) expr()      {}
func (*Call) expr()        {}
func (*Unreachable) expr() {}
