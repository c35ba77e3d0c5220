package tp

import (
	"github.com/llir/llvm/ir/metadata"
	"github.com/llir/llvm/ir/types"
	"tlog.app/go/tlog/tlwire"
)

type (
	Kind int

	// Type is a canonical type table entry.
	// Entries are compared by pointer.
	Type struct {
		Kind Kind
		Name string

		Bits   int
		Signed bool

		Elem  *Type
		Const bool

		IR    types.Type
		Debug metadata.Field
	}
)

const (
	Invalid Kind = iota
	Void
	Unreachable
	Int
	Pointer
)

func (k Kind) String() string {
	switch k {
	case Invalid:
		return "invalid"
	case Void:
		return "void"
	case Unreachable:
		return "unreachable"
	case Int:
		return "int"
	case Pointer:
		return "pointer"
	default:
		return "Kind(?)"
	}
}

func (t *Type) String() string {
	if t == nil {
		return "<nil>"
	}

	return t.Name
}

// Sized reports whether values of the type can be passed around.
func (t *Type) Sized() bool {
	return t.Kind == Int || t.Kind == Pointer
}

func (t *Type) IsVoid() bool { return t.Kind == Void }

func (t *Type) IsUnreachable() bool { return t.Kind == Unreachable }

func (t *Type) IsInvalid() bool { return t.Kind == Invalid }

func (t *Type) TlogAppend(b []byte) []byte {
	var e tlwire.Encoder

	return e.AppendString(b, t.String())
}
