package back

import (
	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/types"
	"tlog.app/go/errors"
)

var (
	ErrInvalidModule = errors.New("invalid module")
	ErrEmit          = errors.New("emit object")
	ErrTarget        = errors.New("target lookup")
)

// Verify performs structural checks on a generated module.
// A failure means the code generator produced broken IR.
func Verify(m *ir.Module) error {
	names := make(map[string]struct{}, len(m.Funcs)+len(m.Globals))

	// unnamed symbols are numbered when printed and never clash
	for _, g := range m.Globals {
		if g.GlobalName == "" {
			continue
		}

		if _, ok := names[g.GlobalName]; ok {
			return errors.Wrap(ErrInvalidModule, "global %v: defined twice", g.GlobalName)
		}

		names[g.GlobalName] = struct{}{}
	}

	for _, f := range m.Funcs {
		if _, ok := names[f.GlobalName]; ok {
			return errors.Wrap(ErrInvalidModule, "func %v: symbol defined twice", f.GlobalName)
		}

		names[f.GlobalName] = struct{}{}

		err := verifyFunc(f)
		if err != nil {
			return errors.Wrap(err, "func %v", f.Name())
		}
	}

	return nil
}

func verifyFunc(f *ir.Func) error {
	ret := f.Sig.RetType

	locals := make(map[string]struct{}, len(f.Params)+len(f.Blocks))

	local := func(kind, name string) error {
		if name == "" {
			return nil
		}

		if _, ok := locals[name]; ok {
			return errors.Wrap(ErrInvalidModule, "%v %%%v: local name defined twice", kind, name)
		}

		locals[name] = struct{}{}

		return nil
	}

	for _, p := range f.Params {
		if types.Equal(p.Typ, types.Void) {
			return errors.Wrap(ErrInvalidModule, "param %v: void type", p.Name())
		}

		if err := local("param", p.LocalName); err != nil {
			return err
		}
	}

	for _, b := range f.Blocks {
		if err := local("block", b.LocalName); err != nil {
			return err
		}
	}

	for i, b := range f.Blocks {
		for j, inst := range b.Insts {
			call, ok := inst.(*ir.InstCall)
			if !ok {
				continue
			}

			err := verifyCall(call)
			if err != nil {
				return errors.Wrap(err, "block %d: inst %d", i, j)
			}
		}

		switch t := b.Term.(type) {
		case nil:
			return errors.Wrap(ErrInvalidModule, "block %d: no terminator", i)
		case *ir.TermRet:
			if t.X == nil {
				if !types.Equal(ret, types.Void) {
					return errors.Wrap(ErrInvalidModule, "block %d: ret void in function returning %v", i, ret)
				}

				break
			}

			if !types.Equal(t.X.Type(), ret) {
				return errors.Wrap(ErrInvalidModule, "block %d: ret %v in function returning %v", i, t.X.Type(), ret)
			}
		}
	}

	return nil
}

func verifyCall(call *ir.InstCall) error {
	sig := call.Sig()

	if len(call.Args) != len(sig.Params) && !sig.Variadic {
		return errors.Wrap(ErrInvalidModule, "call: %d args for %d params", len(call.Args), len(sig.Params))
	}

	for i, p := range sig.Params {
		if i == len(call.Args) {
			break
		}

		if a := call.Args[i].Type(); !types.Equal(a, p) {
			return errors.Wrap(ErrInvalidModule, "call: arg %d: %v, want %v", i, a, p)
		}
	}

	return nil
}
