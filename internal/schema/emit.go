package schema

import (
	"fmt"
	"sort"
	"strings"
)

// Emitter renders a TypeModel into Go source text: one struct plus one
// deserializer function per packet, and a total dispatch table per state.
// This is a structural port of dune_data_gen::protocol::writer's per-state
// module emission, minus Rust's lifetime plumbing (see NeedsBorrow's doc
// comment for why that plumbing disappears here).
type Emitter struct {
	Store   *Store
	Package string
}

func NewEmitter(store *Store, pkg string) *Emitter {
	return &Emitter{Store: store, Package: pkg}
}

// EmitState renders one ConnectionState's two directions into a single Go
// source file, returning the file text.
func (e *Emitter) EmitState(st State) string {
	var b strings.Builder
	fmt.Fprintf(&b, "// Code generated by protocolgen from the %s state schema. DO NOT EDIT.\n\n", st.Kind)
	fmt.Fprintf(&b, "package %s\n\n", e.Package)
	b.WriteString("import (\n\t\"fmt\"\n\n\t\"duneproxy/internal/mcproto\"\n\t\"duneproxy/internal/wire\"\n)\n\n")

	all := append(append([]Packet{}, st.C2S.Packets...), st.S2C.Packets...)
	for _, p := range all {
		e.emitType(&b, p.Ty)
	}

	e.emitDispatch(&b, st, st.C2S, "DispatchC2S")
	e.emitDispatch(&b, st, st.S2C, "DispatchS2C")

	return b.String()
}

func (e *Emitter) emitType(b *strings.Builder, id TyID) {
	t := e.Store.Get(id)
	switch t.Kind {
	case KStruct:
		e.emitStruct(b, id, &t.Struct)
	case KEnum:
		e.emitEnum(b, &t.Enum)
	}
}

func goFieldType(store *Store, id TyID) string {
	t := store.Get(id)
	switch t.Kind {
	case KU8:
		return "uint8"
	case KU16:
		return "uint16"
	case KU32:
		return "uint32"
	case KU64:
		return "uint64"
	case KU128:
		return "[16]byte"
	case KI8:
		return "int8"
	case KI16:
		return "int16"
	case KI32, KVarInt:
		return "int32"
	case KI64, KVarLong:
		return "int64"
	case KF32:
		return "float32"
	case KF64:
		return "float64"
	case KBool:
		return "bool"
	case KString:
		return "string"
	case KBuffer, KRestBuffer:
		return "[]byte"
	case KPosition:
		return "mcproto.Position"
	case KSlot:
		return "[]byte" // raw undecoded slot bytes; see DESIGN.md Open Questions
	case KNbt, KOptionNbt:
		return "[]byte"
	case KChunkBlockEntity:
		return "[]byte"
	case KVec3F64:
		return "[3]float64"
	case KOption:
		return "*" + goFieldType(store, t.Option.Inner)
	case KArray:
		return "[]" + goFieldType(store, t.Array.Elem)
	case KBitfield:
		return bitfieldGoType(t.Bitfield.BaseWidth, t.Bitfield.Unsigned)
	case KStruct:
		return t.Struct.Name
	case KEnum:
		return t.Enum.Name
	default:
		return "any"
	}
}

func bitfieldGoType(width int, unsigned bool) string {
	sign := "int"
	if unsigned {
		sign = "uint"
	}
	return fmt.Sprintf("%s%d", sign, width)
}

func (e *Emitter) emitStruct(b *strings.Builder, id TyID, s *Struct) {
	if s.Failed {
		fmt.Fprintf(b, "// %s could not be fully lowered from the schema (unknown type referenced);\n// it carries only its raw payload.\ntype %s struct {\n\tRaw []byte\n}\n\n", s.Name, s.Name)
		fmt.Fprintf(b, "func decode%s(r *wire.Reader) (*%s, error) {\n\treturn &%s{Raw: r.Rest()}, nil\n}\n\n", s.Name, s.Name, s.Name)
		return
	}
	fmt.Fprintf(b, "type %s struct {\n", s.Name)
	for _, f := range s.Fields {
		fmt.Fprintf(b, "\t%s %s\n", snakeToPascal(f.Name), goFieldType(e.Store, f.Ty))
	}
	b.WriteString("}\n\n")

	fmt.Fprintf(b, "func decode%s(r *wire.Reader) (*%s, error) {\n", s.Name, s.Name)
	fmt.Fprintf(b, "\tv := &%s{}\n", s.Name)
	if s.BaseType >= 0 {
		e.emitBitfieldUnpack(b, s)
	}
	for _, f := range s.Fields {
		if e.Store.Get(f.Ty).Kind == KBitfield {
			continue
		}
		e.emitFieldDecode(b, f, s.Name)
	}
	b.WriteString("\treturn v, nil\n}\n\n")
}

// emitBitfieldUnpack reads this struct's single base word and assigns each
// bitfield-kind field its slice of it: a left shift drops the bits above
// the field, and a right shift (logical for unsigned fields, arithmetic for
// signed ones) drops the bits below it.
func (e *Emitter) emitBitfieldUnpack(b *strings.Builder, s *Struct) {
	fmt.Fprintf(b, "\tbase, err := r.%s(); if err != nil { return nil, err }\n", readerMethodFor(e.Store.Get(s.BaseType).Kind))
	for _, f := range s.Fields {
		t := e.Store.Get(f.Ty)
		if t.Kind != KBitfield {
			continue
		}
		bf := t.Bitfield
		width := bf.RangeEnd - bf.RangeBegin
		goTy := bitfieldGoType(bf.BaseWidth, bf.Unsigned)
		fmt.Fprintf(b, "\t{ x := (%s(base) << %d) >> %d; v.%s = x }\n", goTy, bf.RangeBegin, bf.BaseWidth-width, snakeToPascal(f.Name))
	}
}

func readerMethodFor(k Kind) string {
	switch k {
	case KI64:
		return "I64"
	case KI32:
		return "I32"
	case KI16:
		return "I16"
	default:
		return "I8"
	}
}

// emitInlineDecode writes statements decoding a value of type id into the
// Go variable named dst (already declared as the correct type), for use
// inside Option/Array field bodies where no named field exists to hang a
// top-level decode<Name> function off of.
func (e *Emitter) emitInlineDecode(b *strings.Builder, id TyID, dst string) {
	t := e.Store.Get(id)
	switch t.Kind {
	case KU8:
		fmt.Fprintf(b, "{ x, err := r.U8(); if err != nil { return nil, err }; %s = x }\n", dst)
	case KU16:
		fmt.Fprintf(b, "{ x, err := r.U16(); if err != nil { return nil, err }; %s = x }\n", dst)
	case KU32:
		fmt.Fprintf(b, "{ x, err := r.U32(); if err != nil { return nil, err }; %s = x }\n", dst)
	case KU64:
		fmt.Fprintf(b, "{ x, err := r.U64(); if err != nil { return nil, err }; %s = x }\n", dst)
	case KU128:
		fmt.Fprintf(b, "{ x, err := r.U128(); if err != nil { return nil, err }; %s = x }\n", dst)
	case KI8:
		fmt.Fprintf(b, "{ x, err := r.I8(); if err != nil { return nil, err }; %s = x }\n", dst)
	case KI16:
		fmt.Fprintf(b, "{ x, err := r.I16(); if err != nil { return nil, err }; %s = x }\n", dst)
	case KI32:
		fmt.Fprintf(b, "{ x, err := r.I32(); if err != nil { return nil, err }; %s = x }\n", dst)
	case KI64:
		fmt.Fprintf(b, "{ x, err := r.I64(); if err != nil { return nil, err }; %s = x }\n", dst)
	case KVarInt:
		fmt.Fprintf(b, "{ x, err := r.VarInt(); if err != nil { return nil, err }; %s = x }\n", dst)
	case KVarLong:
		fmt.Fprintf(b, "{ x, err := r.VarLong(); if err != nil { return nil, err }; %s = x }\n", dst)
	case KF32:
		fmt.Fprintf(b, "{ x, err := r.F32(); if err != nil { return nil, err }; %s = x }\n", dst)
	case KF64:
		fmt.Fprintf(b, "{ x, err := r.F64(); if err != nil { return nil, err }; %s = x }\n", dst)
	case KBool:
		fmt.Fprintf(b, "{ x, err := r.Bool(); if err != nil { return nil, err }; %s = x }\n", dst)
	case KString:
		fmt.Fprintf(b, "{ x, err := r.String(); if err != nil { return nil, err }; %s = x }\n", dst)
	case KBuffer, KRestBuffer:
		if t.Kind == KRestBuffer {
			fmt.Fprintf(b, "%s = r.Rest()\n", dst)
		} else if kind, n := e.Store.BufferInfo(id); kind == BufferFixed {
			fmt.Fprintf(b, "{ x, err := r.Take(%d); if err != nil { return nil, err }; %s = x }\n", n, dst)
		} else {
			fmt.Fprintf(b, "{ x, err := r.Buffer(); if err != nil { return nil, err }; %s = x }\n", dst)
		}
	case KPosition:
		fmt.Fprintf(b, "{ x, y, z, err := r.Position(); if err != nil { return nil, err }; %s = mcproto.Position{X: x, Y: y, Z: z} }\n", dst)
	case KSlot, KNbt, KOptionNbt, KChunkBlockEntity:
		fmt.Fprintf(b, "{ x, err := r.Fingerprint(mcproto.Skip%s); if err != nil { return nil, err }; %s = x }\n", kindSkipFn(t.Kind), dst)
	case KVec3F64:
		fmt.Fprintf(b, "{ x, err := r.F64(); if err != nil { return nil, err }; y1, err2 := r.F64(); if err2 != nil { return nil, err2 }; z1, err3 := r.F64(); if err3 != nil { return nil, err3 }; %s = [3]float64{x, y1, z1} }\n", dst)
	case KStruct:
		fmt.Fprintf(b, "{ x, err := decode%s(r); if err != nil { return nil, err }; %s = *x }\n", t.Struct.Name, dst)
	default:
		fmt.Fprintf(b, "// unsupported inline element kind for %s; left zero-valued\n", dst)
	}
}

func (e *Emitter) emitFieldDecode(b *strings.Builder, f StructField, structName string) {
	name := snakeToPascal(f.Name)
	t := e.Store.Get(f.Ty)
	switch t.Kind {
	case KU8:
		fmt.Fprintf(b, "\t{ x, err := r.U8(); if err != nil { return nil, err }; v.%s = x }\n", name)
	case KU16:
		fmt.Fprintf(b, "\t{ x, err := r.U16(); if err != nil { return nil, err }; v.%s = x }\n", name)
	case KU32:
		fmt.Fprintf(b, "\t{ x, err := r.U32(); if err != nil { return nil, err }; v.%s = x }\n", name)
	case KU64:
		fmt.Fprintf(b, "\t{ x, err := r.U64(); if err != nil { return nil, err }; v.%s = x }\n", name)
	case KU128:
		fmt.Fprintf(b, "\t{ x, err := r.U128(); if err != nil { return nil, err }; v.%s = x }\n", name)
	case KI8:
		fmt.Fprintf(b, "\t{ x, err := r.I8(); if err != nil { return nil, err }; v.%s = x }\n", name)
	case KI16:
		fmt.Fprintf(b, "\t{ x, err := r.I16(); if err != nil { return nil, err }; v.%s = x }\n", name)
	case KI32:
		fmt.Fprintf(b, "\t{ x, err := r.I32(); if err != nil { return nil, err }; v.%s = x }\n", name)
	case KI64:
		fmt.Fprintf(b, "\t{ x, err := r.I64(); if err != nil { return nil, err }; v.%s = x }\n", name)
	case KVarInt:
		fmt.Fprintf(b, "\t{ x, err := r.VarInt(); if err != nil { return nil, err }; v.%s = x }\n", name)
	case KVarLong:
		fmt.Fprintf(b, "\t{ x, err := r.VarLong(); if err != nil { return nil, err }; v.%s = x }\n", name)
	case KF32:
		fmt.Fprintf(b, "\t{ x, err := r.F32(); if err != nil { return nil, err }; v.%s = x }\n", name)
	case KF64:
		fmt.Fprintf(b, "\t{ x, err := r.F64(); if err != nil { return nil, err }; v.%s = x }\n", name)
	case KBool:
		fmt.Fprintf(b, "\t{ x, err := r.Bool(); if err != nil { return nil, err }; v.%s = x }\n", name)
	case KString:
		fmt.Fprintf(b, "\t{ x, err := r.String(); if err != nil { return nil, err }; v.%s = x }\n", name)
	case KBuffer, KRestBuffer:
		if t.Kind == KRestBuffer {
			fmt.Fprintf(b, "\tv.%s = r.Rest()\n", name)
		} else if kind, n := e.Store.BufferInfo(f.Ty); kind == BufferFixed {
			fmt.Fprintf(b, "\t{ x, err := r.Take(%d); if err != nil { return nil, err }; v.%s = x }\n", n, name)
		} else {
			fmt.Fprintf(b, "\t{ x, err := r.Buffer(); if err != nil { return nil, err }; v.%s = x }\n", name)
		}
	case KPosition:
		fmt.Fprintf(b, "\t{ x, y, z, err := r.Position(); if err != nil { return nil, err }; v.%s = mcproto.Position{X: x, Y: y, Z: z} }\n", name)
	case KSlot, KNbt, KOptionNbt, KChunkBlockEntity:
		fmt.Fprintf(b, "\t{ x, err := r.Fingerprint(mcproto.Skip%s); if err != nil { return nil, err }; v.%s = x }\n", kindSkipFn(t.Kind), name)
	case KVec3F64:
		fmt.Fprintf(b, "\t{ x, err := r.F64(); if err != nil { return nil, err }; y, err2 := r.F64(); if err2 != nil { return nil, err2 }; z, err3 := r.F64(); if err3 != nil { return nil, err3 }; v.%s = [3]float64{x, y, z} }\n", name)
	case KOption:
		inner := goFieldType(e.Store, t.Option.Inner)
		fmt.Fprintf(b, "\tif present, err := r.Bool(); err != nil {\n\t\treturn nil, err\n\t} else if present {\n\t\tvar tmp %s\n\t\t", inner)
		e.emitInlineDecode(b, t.Option.Inner, "tmp")
		fmt.Fprintf(b, "\t\tv.%s = &tmp\n\t}\n", name)
	case KArray:
		elem := goFieldType(e.Store, t.Array.Elem)
		fmt.Fprintf(b, "\t{\n\t\tvar n int32\n\t\t")
		e.emitInlineDecode(b, t.Array.CountTy, "n")
		fmt.Fprintf(b, "\t\tif n < 0 {\n\t\t\treturn nil, wire.ErrShortRead\n\t\t}\n")
		fmt.Fprintf(b, "\t\titems := make([]%s, 0, n)\n", elem)
		b.WriteString("\t\tfor i := int32(0); i < n; i++ {\n\t\t\tvar elem " + elem + "\n\t\t\t")
		e.emitInlineDecode(b, t.Array.Elem, "elem")
		b.WriteString("\t\t\titems = append(items, elem)\n\t\t}\n")
		fmt.Fprintf(b, "\t\tv.%s = items\n\t}\n", name)
	case KBitfield:
		fmt.Fprintf(b, "\t// %s is packed into the struct's base word; see decode%s's bitfield unpack block below.\n", name, structName)
	case KStruct:
		fmt.Fprintf(b, "\t{ x, err := decode%s(r); if err != nil { return nil, err }; v.%s = *x }\n", t.Struct.Name, name)
	case KEnum:
		fmt.Fprintf(b, "\t{ x, err := decode%s(r, fmt.Sprint(v.%s)); if err != nil { return nil, err }; v.%s = x }\n", t.Enum.Name, snakeToPascal(t.Enum.CompareTo), name)
	}
}

func kindSkipFn(k Kind) string {
	switch k {
	case KSlot:
		return "Slot"
	case KNbt:
		return "Nbt"
	case KOptionNbt:
		return "OptionNbt"
	default:
		return "ChunkBlockEntity"
	}
}

func (e *Emitter) emitEnum(b *strings.Builder, en *Enum) {
	fmt.Fprintf(b, "type %s struct {\n\tTag string\n", en.Name)
	seen := map[string]bool{}
	for _, k := range en.Order {
		v := en.Variants[k]
		if seen[v.Name] {
			continue
		}
		seen[v.Name] = true
		for _, f := range v.Fields {
			fmt.Fprintf(b, "\t%s %s\n", snakeToPascal(v.Name+"_"+f.Name), goFieldType(e.Store, f.Ty))
		}
	}
	b.WriteString("}\n\n")

	fmt.Fprintf(b, "func decode%s(r *wire.Reader, discriminator string) (%s, error) {\n", en.Name, en.Name)
	fmt.Fprintf(b, "\tv := %s{Tag: discriminator}\n\tswitch discriminator {\n", en.Name)
	seen = map[string]bool{}
	for _, k := range en.Order {
		v := en.Variants[k]
		fmt.Fprintf(b, "\tcase %q:\n", k.String())
		if !seen[v.Name] {
			for _, f := range v.Fields {
				fname := snakeToPascal(v.Name + "_" + f.Name)
				b.WriteString("\t\t")
				e.emitInlineDecode(b, f.Ty, "v."+fname)
			}
		}
		seen[v.Name] = true
	}
	b.WriteString("\t}\n\treturn v, nil\n}\n\n")
}

func (e *Emitter) emitDispatch(b *strings.Builder, st State, dir Direction, fnName string) {
	fmt.Fprintf(b, "func %s(id int32, r *wire.Reader) (any, error) {\n\tswitch id {\n", fnName)
	sort.Slice(dir.Packets, func(i, j int) bool { return dir.Packets[i].ID < dir.Packets[j].ID })
	for _, p := range dir.Packets {
		fmt.Fprintf(b, "\tcase %d:\n\t\treturn decode%s(r)\n", p.ID, e.Store.Get(p.Ty).Struct.Name)
	}
	b.WriteString("\tdefault:\n\t\treturn nil, mcproto.ErrUnknownPacket\n\t}\n}\n\n")
}
