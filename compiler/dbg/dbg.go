package dbg

import (
	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/enum"
	"github.com/llir/llvm/ir/metadata"
	"github.com/llir/llvm/ir/types"
	"tlog.app/go/errors"
)

type (
	// Builder creates debug info metadata nodes and records them in the module.
	Builder struct {
		m *ir.Module

		cu   *metadata.DICompileUnit
		file *metadata.DIFile

		finalized bool
	}
)

const DebugInfoVersion = 3

func New(m *ir.Module) *Builder {
	return &Builder{m: m}
}

// CompileUnit creates the unit metadata. It must be called once before Function.
func (d *Builder) CompileUnit(file, dir, producer string) *metadata.DICompileUnit {
	if d.cu != nil {
		panic("compile unit already created")
	}

	d.file = d.File(file, dir)

	d.cu = &metadata.DICompileUnit{
		MetadataID:   -1,
		Distinct:     true,
		Language:     enum.DwarfLangC99,
		File:         d.file,
		Producer:     producer,
		EmissionKind: enum.EmissionKindFullDebug,
	}

	d.m.MetadataDefs = append(d.m.MetadataDefs, d.cu)

	return d.cu
}

func (d *Builder) Unit() *metadata.DICompileUnit { return d.cu }

func (d *Builder) File(file, dir string) *metadata.DIFile {
	f := &metadata.DIFile{
		MetadataID: -1,
		Filename:   file,
		Directory:  dir,
	}

	d.m.MetadataDefs = append(d.m.MetadataDefs, f)

	return f
}

func (d *Builder) BasicType(name string, bits uint64, signed bool) *metadata.DIBasicType {
	enc := enum.DwarfAttEncodingUnsigned
	if signed {
		enc = enum.DwarfAttEncodingSigned
	}

	t := &metadata.DIBasicType{
		MetadataID: -1,
		Tag:        enum.DwarfTagBaseType,
		Name:       name,
		Size:       bits,
		Encoding:   enc,
	}

	d.m.MetadataDefs = append(d.m.MetadataDefs, t)

	return t
}

func (d *Builder) PointerType(elem metadata.Field, bits uint64, name string) *metadata.DIDerivedType {
	t := &metadata.DIDerivedType{
		MetadataID: -1,
		Tag:        enum.DwarfTagPointerType,
		Name:       name,
		BaseType:   elem,
		Size:       bits,
	}

	d.m.MetadataDefs = append(d.m.MetadataDefs, t)

	return t
}

// SubroutineType takes the return type first, then parameter types.
func (d *Builder) SubroutineType(ts ...metadata.Field) *metadata.DISubroutineType {
	tuple := &metadata.Tuple{
		MetadataID: -1,
		Fields:     ts,
	}

	d.m.MetadataDefs = append(d.m.MetadataDefs, tuple)

	t := &metadata.DISubroutineType{
		MetadataID: -1,
		Types:      tuple,
	}

	d.m.MetadataDefs = append(d.m.MetadataDefs, t)

	return t
}

// Function creates a subprogram definition scoped to the unit file and attaches it to f.
func (d *Builder) Function(f *ir.Func, line int, typ *metadata.DISubroutineType) *metadata.DISubprogram {
	if d.cu == nil {
		panic("no compile unit")
	}

	sp := &metadata.DISubprogram{
		MetadataID: -1,
		Distinct:   true,
		Scope:      d.file,
		Name:       f.Name(),
		File:       d.file,
		Line:       int64(line),
		Type:       typ,
		ScopeLine:  int64(line),
		SPFlags:    enum.DISPFlagDefinition,
		Unit:       d.cu,
	}

	d.m.MetadataDefs = append(d.m.MetadataDefs, sp)

	f.Metadata = append(f.Metadata, &metadata.Attachment{Name: "dbg", Node: sp})

	return sp
}

func (d *Builder) Location(line, col int, scope *metadata.DISubprogram) *metadata.DILocation {
	l := &metadata.DILocation{
		MetadataID: -1,
		Line:       int64(line),
		Column:     int64(col),
		Scope:      scope,
	}

	d.m.MetadataDefs = append(d.m.MetadataDefs, l)

	return l
}

// Finalize publishes the compile unit and the debug info version module flag.
func (d *Builder) Finalize() error {
	if d.finalized {
		return errors.New("debug info finalized twice")
	}

	if d.cu == nil {
		return errors.New("no compile unit")
	}

	d.finalized = true

	if d.m.NamedMetadataDefs == nil {
		d.m.NamedMetadataDefs = make(map[string]*metadata.NamedDef)
	}

	d.m.NamedMetadataDefs["llvm.dbg.cu"] = &metadata.NamedDef{
		Name:  "llvm.dbg.cu",
		Nodes: []metadata.Node{d.cu},
	}

	flag := &metadata.Tuple{
		MetadataID: -1,
		Fields: []metadata.Field{
			constant.NewInt(types.I32, 2), // warning on mismatch
			&metadata.String{Value: "Debug Info Version"},
			constant.NewInt(types.I32, DebugInfoVersion),
		},
	}

	d.m.MetadataDefs = append(d.m.MetadataDefs, flag)

	d.m.NamedMetadataDefs["llvm.module.flags"] = &metadata.NamedDef{
		Name:  "llvm.module.flags",
		Nodes: []metadata.Node{flag},
	}

	return nil
}
