// Package schema implements the schema-driven code generator: a parser
// that lowers the community minecraft-data JSON protocol description into
// an intermediate TypeModel, and an emitter that renders that model into a
// Go source file of packet types, deserializers and a dispatch table.
//
// This is a structural port of dune_data_gen's parser.rs/writer.rs (see
// DESIGN.md): Rust's arena-interned &Ty references become indices into a
// Store, since Go has no borrow checker to keep arena references alive
// across the parse.
package schema

import "fmt"

// Kind discriminates the variants of Ty, playing the role of Rust's Ty enum
// tag.
type Kind int

const (
	KU8 Kind = iota
	KU16
	KU32
	KU64
	KU128
	KI8
	KI16
	KI32
	KI64
	KF32
	KF64
	KBool
	KVarInt
	KVarLong
	KString
	KBuffer
	KRestBuffer
	KPosition
	KSlot
	KNbt
	KOptionNbt
	KChunkBlockEntity
	KVec3F64
	KStruct
	KOption
	KArray
	KBitfield
	KEnum
)

// TyID indexes into a Store's arena of types, standing in for Rust's
// &'x Ty<'x> arena references.
type TyID int

// BufferKind distinguishes a fixed-size buffer from a VarInt-length-prefixed
// one.
type BufferKind int

const (
	BufferFixed BufferKind = iota
	BufferVarintPrefixed
)

// StructField is one field of a Struct type: a name plus the TyID of its
// type.
type StructField struct {
	Name string
	Ty   TyID
}

// Struct models a container (or, when BaseType is set, a bitfield group
// sharing one base integer read).
type Struct struct {
	Name     string
	Fields   []StructField
	BaseType TyID // -1 if this struct is not a bitfield group
	Failed   bool // true if any field could not be lowered
}

// Option models `["option", inner]`: one bool byte, then inner iff true.
type Option struct {
	Inner TyID
}

// Array models `["array", {countType, type}]`. A u8 element with a VarInt
// count type is canonicalized to Buffer{VarintPrefixed} by the parser before an
// Array value is ever constructed for that shape.
type Array struct {
	CountTy TyID
	Elem    TyID
}

// Bitfield is one packed field within a Struct whose BaseType is set.
// RangeBegin/RangeEnd are bit offsets from the most-significant end of a
// BaseWidth-bit base word; Unsigned controls whether the right-shift that
// isolates the field is arithmetic or logical.
type Bitfield struct {
	RangeBegin int
	RangeEnd   int
	BaseWidth  int
	Unsigned   bool
}

// ConstantKind distinguishes the literal kinds a switch discriminator can
// compare against.
type ConstantKind int

const (
	ConstBool ConstantKind = iota
	ConstInt
	ConstString
)

// Constant is one switch-case key: a bool, an integer, or a string
// literal, ordered consistently so Enum.Variants can be emitted in a
// stable order.
type Constant struct {
	Kind ConstantKind
	B    bool
	I    int64
	S    string
}

func (c Constant) String() string {
	switch c.Kind {
	case ConstBool:
		return fmt.Sprintf("%v", c.B)
	case ConstInt:
		return fmt.Sprintf("%d", c.I)
	default:
		return c.S
	}
}

// VariantField is one field contributed to a merged enum variant by a
// single switch site (see Enum — multiple switches on the same
// discriminator within one struct merge their fields into the one
// variant keyed by the same constant).
type VariantField struct {
	Name string
	Ty   TyID
}

// Variant is the full set of fields associated with one discriminator
// value across every switch site that was merged into this Enum.
type Variant struct {
	Name   string
	Fields []VariantField
}

// Enum models a `switch` node lowered into a tagged union. CompareTo names
// the sibling field whose value selects a Variant; DiscriminatorType is the
// Go type of that field ("bool", "int32", "string") used by the emitter to
// generate dispatch code.
type Enum struct {
	Name             string
	CompareTo        string
	DiscriminatorType string
	Order            []Constant // variant insertion/sort order, for deterministic emission
	Variants         map[Constant]*Variant
}

// Ty is one interned type-graph node. Only the field matching Kind is
// populated; the rest are zero values. This stands in for Rust's `enum
// Ty<'x>` with its struct-like variants — Go enums aren't sum types, so a
// flat struct-of-optionals is the idiomatic substitute used throughout this
// generator.
type Ty struct {
	Kind     Kind
	Struct   Struct
	Option   Option
	Array    Array
	Bitfield Bitfield
	Enum     Enum
}

// NeedsBorrow reports whether values of this type borrow from the payload
// slice they were decoded from — String, every Buffer kind, Slot, Nbt,
// OptionNbt, ChunkBlockEntity, or any composite containing one. The
// emitter does not consult it: Go has no borrow checker, so a generated
// struct needs no lifetime parameter either way ("needs borrow" here means
// "holds a slice aliasing the original payload" instead of "requires a
// lifetime generic").
func (s *Store) NeedsBorrow(id TyID) bool {
	t := s.types[id]
	switch t.Kind {
	case KString, KBuffer, KRestBuffer, KSlot, KNbt, KOptionNbt, KChunkBlockEntity:
		return true
	case KStruct:
		for _, f := range t.Struct.Fields {
			if s.NeedsBorrow(f.Ty) {
				return true
			}
		}
		return false
	case KOption:
		return s.NeedsBorrow(t.Option.Inner)
	case KArray:
		return s.NeedsBorrow(t.Array.Elem)
	case KEnum:
		for _, v := range t.Enum.Variants {
			for _, f := range v.Fields {
				if s.NeedsBorrow(f.Ty) {
					return true
				}
			}
		}
		return false
	default:
		return false
	}
}

// Store is a content-addressed arena: structurally equal composite shapes
// are deduplicated to the same TyID, mirroring dune_data_gen's Bump-backed
// interner (there implemented via equality on the whole Ty value since
// Ty derives Eq/Hash/Ord; here via a string key built from a canonical
// textual rendering of the shape).
type Store struct {
	types        []Ty
	index        map[string]TyID
	bufferExtras map[TyID]bufferExtra
}

// NewStore creates an empty arena and interns every primitive/opaque type
// up front, matching Parser::new's eager insertion of ty_u8..ty_vec3f64.
func NewStore() *Store {
	s := &Store{index: make(map[string]TyID), bufferExtras: make(map[TyID]bufferExtra)}
	for k := KU8; k <= KVec3F64; k++ {
		s.intern(Ty{Kind: k})
	}
	return s
}

func (s *Store) key(t Ty) string {
	// Primitives and opaques are uniquely identified by Kind alone;
	// composites need their shape folded in so structurally-equal shapes
	// dedup to one TyID (e.g. two fields of identical anonymous struct
	// shape, or two Buffer{VarintPrefixed} sites).
	switch t.Kind {
	case KStruct:
		return fmt.Sprintf("struct:%s:%v:%d:%v", t.Struct.Name, t.Struct.Fields, t.Struct.BaseType, t.Struct.Failed)
	case KOption:
		return fmt.Sprintf("option:%d", t.Option.Inner)
	case KArray:
		return fmt.Sprintf("array:%d:%d", t.Array.CountTy, t.Array.Elem)
	case KBitfield:
		return fmt.Sprintf("bitfield:%d:%d:%d:%v", t.Bitfield.RangeBegin, t.Bitfield.RangeEnd, t.Bitfield.BaseWidth, t.Bitfield.Unsigned)
	case KEnum:
		return fmt.Sprintf("enum:%s", t.Enum.Name)
	case KBuffer:
		return "buffer:unspecified" // interned bare only by NewStore; sized buffers come from NewBuffer
	default:
		return fmt.Sprintf("prim:%d", t.Kind)
	}
}

func (s *Store) intern(t Ty) TyID {
	k := s.key(t)
	if id, ok := s.index[k]; ok {
		return id
	}
	id := TyID(len(s.types))
	s.types = append(s.types, t)
	s.index[k] = id
	return id
}

// Get returns the node for id. Panics on an out-of-range id, which would
// indicate a bug in the parser (every referenced TyID must already be
// interned — see SPEC_FULL.md invariants).
func (s *Store) Get(id TyID) *Ty {
	return &s.types[id]
}

// Primitive returns the TyID reserved for k (k must be <= KVec3F64).
func (s *Store) Primitive(k Kind) TyID {
	return TyID(k)
}

// NewStruct interns a new Struct node (structs are named, so they are not
// deduplicated against each other even when structurally identical —
// matching the Rust generator, which names every struct for its field
// path and never merges two distinctly-named containers).
func (s *Store) NewStruct(v Struct) TyID {
	id := TyID(len(s.types))
	s.types = append(s.types, Ty{Kind: KStruct, Struct: v})
	return id
}

// NewOption interns (or reuses) an Option wrapping inner.
func (s *Store) NewOption(inner TyID) TyID {
	return s.intern(Ty{Kind: KOption, Option: Option{Inner: inner}})
}

// NewArray interns (or reuses) an Array of elem counted by countTy.
func (s *Store) NewArray(countTy, elem TyID) TyID {
	return s.intern(Ty{Kind: KArray, Array: Array{CountTy: countTy, Elem: elem}})
}

// NewBitfield interns a Bitfield leaf (always unique per call site: the
// parser always creates a fresh one per declared bitfield sub-field).
func (s *Store) NewBitfield(v Bitfield) TyID {
	id := TyID(len(s.types))
	s.types = append(s.types, Ty{Kind: KBitfield, Bitfield: v})
	return id
}

// NewBuffer returns a fresh TyID for a buffer of the given kind. Buffers are
// not deduplicated against each other (the emitter only cares about Kind),
// but each call yields a distinct node so a Fixed(n) buffer can record its
// own n.
type bufferExtra struct {
	Kind BufferKind
	N    int
}

func (s *Store) NewBuffer(kind BufferKind, fixedN int) TyID {
	id := TyID(len(s.types))
	s.types = append(s.types, Ty{Kind: KBuffer})
	s.bufferExtras[id] = bufferExtra{Kind: kind, N: fixedN}
	return id
}

// BufferInfo returns the kind/size recorded for a Buffer TyID created via
// NewBuffer.
func (s *Store) BufferInfo(id TyID) (BufferKind, int) {
	e := s.bufferExtras[id]
	return e.Kind, e.N
}

// NewEnum registers a fresh Enum node (switches always create a new named
// enum the first time a discriminator is seen within a struct; subsequent
// switches on the same discriminator mutate this same node in place via
// EnumAt).
func (s *Store) NewEnum(v Enum) TyID {
	id := TyID(len(s.types))
	s.types = append(s.types, Ty{Kind: KEnum, Enum: v})
	return id
}

// EnumAt returns a mutable pointer to the Enum payload at id, for
// merging additional switch variants into an already-created enum (the
// "last_type" hint in parser.rs).
func (s *Store) EnumAt(id TyID) *Enum {
	return &s.types[id].Enum
}
