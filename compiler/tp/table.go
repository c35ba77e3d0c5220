package tp

import (
	"github.com/llir/llvm/ir/types"
	"tlog.app/go/loc"
	"tlog.app/go/tlog"

	"github.com/slowlang/ziggurat/compiler/ast"
	"github.com/slowlang/ziggurat/compiler/dbg"
	"github.com/slowlang/ziggurat/compiler/diag"
)

type (
	// Table interns types. Structurally equal types share one entry.
	Table struct {
		d       *dbg.Builder
		ptrBits uint64

		byName map[string]*Type
		ptrs   map[ptrKey]*Type

		invalid     *Type
		void        *Type
		unreachable *Type
		u8          *Type
		i32         *Type
	}

	ptrKey struct {
		elem    *Type
		isConst bool
	}

	// AnnotateFunc records the resolved type of a type reference.
	AnnotateFunc func(ref *ast.TypeRef, t *Type)
)

const DefaultPointerBits = 64

func New(d *dbg.Builder, ptrBits int) *Table {
	if ptrBits == 0 {
		ptrBits = DefaultPointerBits
	}

	t := &Table{
		d:       d,
		ptrBits: uint64(ptrBits),
		byName:  make(map[string]*Type),
		ptrs:    make(map[ptrKey]*Type),
	}

	t.u8 = t.add(&Type{
		Kind: Int,
		Name: "u8",
		Bits: 8,
		IR:   types.I8,
	})

	t.i32 = t.add(&Type{
		Kind:   Int,
		Name:   "i32",
		Bits:   32,
		Signed: true,
		IR:     types.I32,
	})

	t.void = t.add(&Type{
		Kind: Void,
		Name: "void",
		IR:   types.Void,
	})

	t.unreachable = t.add(&Type{
		Kind:  Unreachable,
		Name:  "unreachable",
		IR:    types.Void,
		Debug: t.void.Debug,
	})

	// not reachable by name
	t.invalid = &Type{
		Kind:  Invalid,
		Name:  "(invalid)",
		IR:    types.I8,
		Debug: t.void.Debug,
	}

	return t
}

func (t *Table) add(x *Type) *Type {
	if x.Debug == nil {
		x.Debug = t.d.BasicType(x.Name, uint64(x.Bits), x.Signed)
	}

	t.byName[x.Name] = x

	return x
}

func (t *Table) Lookup(name string) (*Type, bool) {
	x, ok := t.byName[name]
	return x, ok
}

func (t *Table) Invalid() *Type     { return t.invalid }
func (t *Table) Void() *Type        { return t.void }
func (t *Table) Unreachable() *Type { return t.unreachable }
func (t *Table) U8() *Type          { return t.u8 }

// Int is the default integer type of literals.
func (t *Table) Int() *Type { return t.i32 }

// Resolve finds the entry for a type reference. It never fails:
// on error a diagnostic is reported and a fallback entry is returned.
// annotate is called for ref and every nested pointee reference.
func (t *Table) Resolve(ref *ast.TypeRef, errs *diag.Sink, annotate AnnotateFunc) (x *Type) {
	defer func() {
		if annotate != nil {
			annotate(ref, x)
		}
	}()

	if !ref.IsPointer() {
		x, ok := t.byName[ref.Name]
		if !ok {
			errs.Add(ref.Pos, "invalid type name: '%s'", ref.Name)
			return t.invalid
		}

		return x
	}

	elem := t.Resolve(ref.Elem, errs, annotate)

	if elem.Kind == Unreachable {
		errs.Add(ref.Pos, "pointer to unreachable not allowed")
		elem = t.invalid
	}

	return t.Pointer(elem, ref.Const)
}

// Pointer returns the canonical pointer entry to elem.
func (t *Table) Pointer(elem *Type, isConst bool) *Type {
	k := ptrKey{elem: elem, isConst: isConst}

	if x, ok := t.ptrs[k]; ok {
		return x
	}

	name := "*mut " + elem.Name
	if isConst {
		name = "*const " + elem.Name
	}

	irElem := elem.IR
	if _, ok := irElem.(*types.VoidType); ok {
		irElem = types.I8
	}

	x := &Type{
		Kind:  Pointer,
		Name:  name,
		Bits:  int(t.ptrBits),
		Elem:  elem,
		Const: isConst,
		IR:    types.NewPointer(irElem),
		Debug: t.d.PointerType(elem.Debug, t.ptrBits, name),
	}

	t.ptrs[k] = x
	t.byName[name] = x

	tlog.V("types").Printw("new pointer type", "name", name, "from", loc.Caller(1))

	return x
}

// Assignable reports whether a value of type src may be used where dst is expected.
// Invalid entries are assignable both ways so that one error does not cascade.
func Assignable(dst, src *Type) bool {
	switch {
	case dst == src:
		return true
	case dst.Kind == Invalid || src.Kind == Invalid:
		return true
	case src.Kind == Unreachable:
		return true
	case dst.Kind == Pointer && src.Kind == Pointer:
		return dst.Elem == src.Elem && dst.Const && !src.Const
	}

	return false
}
