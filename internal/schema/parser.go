package schema

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// ConnectionState enumerates the four protocol phases a packet's id space
// is scoped to, mirroring dune_data_gen's parser-time ConnectionState
// (distinct from the runtime duneproxy/internal/mcproto.ConnectionState,
// which the generated dispatch table is built against).
type ConnectionState int

const (
	Handshaking ConnectionState = iota
	Status
	Login
	Play
)

func (s ConnectionState) String() string {
	switch s {
	case Handshaking:
		return "handshaking"
	case Status:
		return "status"
	case Login:
		return "login"
	default:
		return "play"
	}
}

// Packet is one (name, type, numeric id) triple parsed out of a direction
// block.
type Packet struct {
	Name string
	Ty   TyID
	ID   int
}

// Direction holds every packet declared for one (state, bound) pair.
type Direction struct {
	Packets []Packet
}

// State bundles both directions for one ConnectionState.
type State struct {
	Kind ConnectionState
	C2S  Direction
	S2C  Direction
}

// UnknownTypeReport records, for every schema type name the parser could
// not lower, which packets referenced it — surfaced at the end of parsing
// per spec.md §4.4.
type UnknownTypeReport map[string][]string

// Parser lowers minecraft-data JSON type expressions into TypeModel nodes,
// structurally mirroring dune_data_gen::protocol::parser::Parser.
type Parser struct {
	Store *Store

	unknown map[string][]string

	tyU8, tyU16, tyU128                                   TyID
	tyI8, tyI16, tyI32, tyI64                              TyID
	tyF32, tyF64                                           TyID
	tyBool, tyVarInt, tyVarLong, tyString                  TyID
	tyBufferVarint, tyRestBuffer                           TyID
	tyPosition, tySlot, tyNbt, tyOptionNbt, tyChunkBlockEntity, tyVec3F64 TyID
}

// NewParser builds a Parser over a fresh Store, interning the fixed set of
// primitive/opaque leaves up front (Parser::new in parser.rs).
func NewParser() *Parser {
	st := NewStore()
	p := &Parser{
		Store:   st,
		unknown: make(map[string][]string),

		tyU8:   st.Primitive(KU8),
		tyU16:  st.Primitive(KU16),
		tyU128: st.Primitive(KU128),

		tyI8:  st.Primitive(KI8),
		tyI16: st.Primitive(KI16),
		tyI32: st.Primitive(KI32),
		tyI64: st.Primitive(KI64),

		tyF32: st.Primitive(KF32),
		tyF64: st.Primitive(KF64),

		tyBool:    st.Primitive(KBool),
		tyVarInt:  st.Primitive(KVarInt),
		tyVarLong: st.Primitive(KVarLong),
		tyString:  st.Primitive(KString),

		tyRestBuffer: st.Primitive(KRestBuffer),

		tyPosition:         st.Primitive(KPosition),
		tySlot:             st.Primitive(KSlot),
		tyNbt:              st.Primitive(KNbt),
		tyOptionNbt:        st.Primitive(KOptionNbt),
		tyChunkBlockEntity: st.Primitive(KChunkBlockEntity),
		tyVec3F64:          st.Primitive(KVec3F64),
	}
	p.tyBufferVarint = st.NewBuffer(BufferVarintPrefixed, 0)
	return p
}

// Unknown returns the accumulated unknown-type report.
func (p *Parser) Unknown() UnknownTypeReport {
	return p.unknown
}

func (p *Parser) addUnknown(unkTy, packetTy string) {
	p.unknown[unkTy] = append(p.unknown[unkTy], packetTy)
}

// parentData threads the naming/switch-merge context through a recursive
// parse, mirroring parser.rs's ParentData.
type parentData struct {
	parentStructName string
	parentField      string // "" if none
	lastType         TyID
	hasLastType      bool
	switchUpdated    bool
}

func snakeToPascal(input string) string {
	var b strings.Builder
	lastUnderscore := true
	for _, c := range input {
		if lastUnderscore {
			lastUnderscore = false
			b.WriteRune(toUpperASCII(c))
		} else if c == '_' {
			lastUnderscore = true
		} else {
			b.WriteRune(c)
		}
	}
	return b.String()
}

func toUpperASCII(c rune) rune {
	if c >= 'a' && c <= 'z' {
		return c - ('a' - 'A')
	}
	return c
}

// toSnakeCase converts camelCase/PascalCase field names from the schema
// into snake_case, matching convert_case::Case::Snake used by parser.rs.
func toSnakeCase(input string) string {
	var b strings.Builder
	for i, c := range input {
		if c >= 'A' && c <= 'Z' {
			if i > 0 {
				b.WriteByte('_')
			}
			b.WriteRune(c - ('A' - 'a'))
		} else {
			b.WriteRune(c)
		}
	}
	return b.String()
}

func widthForBitfields(size int) int {
	switch {
	case size <= 8:
		return 8
	case size <= 16:
		return 16
	case size <= 32:
		return 32
	default:
		return 64
	}
}

// ParseType lowers one JSON type expression (a bare string, or a
// ["name", arg] pair) into a TyID, or returns ok=false if it references a
// type the parser does not recognize (recorded in the unknown-type
// report).
func (p *Parser) ParseType(input any, parent *parentData) (TyID, bool) {
	if s, ok := input.(string); ok {
		return p.parseTypeSimple(s, parent.parentStructName)
	}

	arr, ok := input.([]any)
	if !ok || len(arr) != 2 {
		p.addUnknown(fmt.Sprintf("%v", input), parent.parentStructName)
		return 0, false
	}
	name, _ := arr[0].(string)
	arg1 := arr[1]

	switch name {
	case "container":
		return p.parseContainer(arg1, parent, false)
	case "bitfield":
		return p.parseContainer(arg1, parent, true)
	case "option":
		return p.parseOption(arg1, parent)
	case "buffer":
		return p.parseBuffer(arg1), true
	case "array":
		return p.parseArray(arg1, parent)
	case "switch":
		return p.parseSwitch(arg1, parent)
	default:
		p.addUnknown(name, parent.parentStructName)
		return 0, false
	}
}

func (p *Parser) parseTypeSimple(input, structName string) (TyID, bool) {
	switch input {
	case "u8":
		return p.tyU8, true
	case "u16":
		return p.tyU16, true
	case "UUID":
		return p.tyU128, true
	case "i8":
		return p.tyI8, true
	case "i16":
		return p.tyI16, true
	case "i32":
		return p.tyI32, true
	case "i64":
		return p.tyI64, true
	case "f32":
		return p.tyF32, true
	case "f64":
		return p.tyF64, true
	case "bool":
		return p.tyBool, true
	case "varint":
		return p.tyVarInt, true
	case "varlong":
		return p.tyVarLong, true
	case "string":
		return p.tyString, true
	case "restBuffer":
		return p.tyRestBuffer, true
	case "position":
		return p.tyPosition, true
	case "slot":
		return p.tySlot, true
	case "nbt":
		return p.tyNbt, true
	case "optionalNbt":
		return p.tyOptionNbt, true
	case "chunkBlockEntity":
		return p.tyChunkBlockEntity, true
	case "vec3f64":
		return p.tyVec3F64, true
	default:
		p.addUnknown(input, structName)
		return 0, false
	}
}

func fieldJSONName(v any) (string, any) {
	m := v.(map[string]any)
	return m["name"].(string), m["type"]
}

func (p *Parser) parseContainer(input any, parent *parentData, isBitfield bool) (TyID, bool) {
	items, _ := input.([]any)
	var fields []StructField
	failed := false
	bitfieldRange := 0

	for _, raw := range items {
		m := raw.(map[string]any)
		rawName, _ := m["name"].(string)
		name := toSnakeCase(rawName)
		if name == "type" || name == "match" {
			name += "_"
		}

		var ty TyID
		if isBitfield {
			signed, _ := m["signed"].(bool)
			sizeF, _ := m["size"].(float64)
			size := int(sizeF)
			bf := Bitfield{
				RangeBegin: bitfieldRange,
				RangeEnd:   bitfieldRange + size,
				BaseWidth:  widthForBitfields(size),
				Unsigned:   !signed,
			}
			bitfieldRange += size
			ty = p.Store.NewBitfield(bf)
		} else {
			childParent := &parentData{
				parentStructName: parent.parentStructName,
				parentField:      name,
			}
			if len(fields) > 0 {
				childParent.lastType = fields[len(fields)-1].Ty
				childParent.hasLastType = true
			}
			t, ok := p.ParseType(m["type"], childParent)
			if childParent.switchUpdated && childParent.hasLastType && t == childParent.lastType {
				// A subsequent switch on the same discriminator merged
				// into the previous enum field rather than creating a
				// peer field.
				continue
			}
			if !ok {
				failed = true
				break
			}
			ty = t
		}
		fields = append(fields, StructField{Name: name, Ty: ty})
	}

	if failed {
		fields = nil
	}

	baseType := TyID(-1)
	if bitfieldRange != 0 {
		baseWidth := 64
		switch bitfieldRange {
		case 64:
			baseType = p.tyI64
		case 32:
			baseType, baseWidth = p.tyI32, 32
		case 16:
			baseType, baseWidth = p.tyI16, 16
		case 8:
			baseType, baseWidth = p.tyI8, 8
		default:
			baseType = p.tyI64
		}
		// Every packed field shares the one base word's width.
		for _, f := range fields {
			if bt := p.Store.Get(f.Ty); bt.Kind == KBitfield {
				bt.Bitfield.BaseWidth = baseWidth
			}
		}
	}

	name := parent.parentStructName
	if parent.parentField != "" {
		name += "_" + snakeToPascal(parent.parentField)
	}

	id := p.Store.NewStruct(Struct{Name: name, Fields: fields, BaseType: baseType, Failed: failed})
	return id, true
}

func (p *Parser) parseOption(input any, parent *parentData) (TyID, bool) {
	sub, ok := p.ParseType(input, parent)
	if !ok {
		return 0, false
	}
	return p.Store.NewOption(sub), true
}

func (p *Parser) parseBuffer(input any) TyID {
	arr, _ := input.([]any)
	arg1, _ := arr[0].(map[string]any)
	if ct, ok := arg1["countType"].(string); ok && ct == "varint" {
		return p.tyBufferVarint
	}
	if n, ok := arg1["count"].(float64); ok {
		return p.Store.NewBuffer(BufferFixed, int(n))
	}
	return p.tyBufferVarint
}

func (p *Parser) parseArray(input any, parent *parentData) (TyID, bool) {
	m, _ := input.(map[string]any)
	countTy, ok := p.ParseType(m["countType"], parent)
	if !ok {
		return 0, false
	}
	elem, ok := p.ParseType(m["type"], parent)
	if !ok {
		return 0, false
	}
	if countTy == p.tyVarInt && elem == p.tyU8 {
		return p.tyBufferVarint, true
	}
	return p.Store.NewArray(countTy, elem), true
}

func (p *Parser) parseSwitch(input any, parent *parentData) (TyID, bool) {
	m, _ := input.(map[string]any)
	compareToRaw, _ := m["compareTo"].(string)
	for _, c := range compareToRaw {
		if !((c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')) {
			return 0, false
		}
	}
	compareTo := toSnakeCase(compareToRaw)

	fieldsRaw, _ := m["fields"].(map[string]any)
	// Deterministic iteration: sort keys.
	keys := make([]string, 0, len(fieldsRaw))
	for k := range fieldsRaw {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var firstConstant *Constant
	merged := map[Constant]*Variant{}
	var order []Constant

	for _, k := range keys {
		v := fieldsRaw[k]
		constant := parseConstant(k)
		if firstConstant == nil {
			c := constant
			firstConstant = &c
		}
		ty, ok := p.ParseType(v, parent)
		if !ok {
			return 0, false
		}
		variantName := "Variant_" + constant.String()
		variant, exists := merged[constant]
		if !exists {
			variant = &Variant{Name: variantName}
			merged[constant] = variant
			order = append(order, constant)
		}
		variant.Fields = append(variant.Fields, VariantField{Name: parent.parentField, Ty: ty})
	}

	discriminatorType := "string"
	switch firstConstant.Kind {
	case ConstBool:
		discriminatorType = "bool"
	case ConstInt:
		discriminatorType = "int32"
	}

	var enumID TyID
	var enumPtr *Enum
	if parent.hasLastType && p.Store.Get(parent.lastType).Kind == KEnum {
		enumID = parent.lastType
		enumPtr = p.Store.EnumAt(enumID)
	} else {
		enumID = p.Store.NewEnum(Enum{
			Name:              parent.parentStructName + "_Enum",
			CompareTo:         compareTo,
			DiscriminatorType: discriminatorType,
			Variants:          map[Constant]*Variant{},
		})
		enumPtr = p.Store.EnumAt(enumID)
	}

	for _, k := range order {
		v := merged[k]
		if existing, ok := enumPtr.Variants[k]; ok {
			existing.Fields = append(existing.Fields, v.Fields...)
		} else {
			enumPtr.Variants[k] = v
			enumPtr.Order = append(enumPtr.Order, k)
		}
	}

	parent.switchUpdated = true
	return enumID, true
}

func parseConstant(k string) Constant {
	switch k {
	case "true":
		return Constant{Kind: ConstBool, B: true}
	case "false":
		return Constant{Kind: ConstBool, B: false}
	}
	if i, err := strconv.ParseInt(k, 10, 64); err == nil {
		return Constant{Kind: ConstInt, I: i}
	}
	return Constant{Kind: ConstString, S: k}
}

// --- direction/state/root assembly -----------------------------------

type rawSchema struct {
	Handshaking rawState `json:"handshaking"`
	Status      rawState `json:"status"`
	Login       rawState `json:"login"`
	Play        rawState `json:"play"`
}

type rawState struct {
	ToClient rawDirection `json:"toClient"`
	ToServer rawDirection `json:"toServer"`
}

type rawDirection struct {
	Types map[string]json.RawMessage `json:"types"`
}

func decodeMapping(raw json.RawMessage) (map[string]int, error) {
	// raw is ["container", [ {"name": "name", "type": ["mapper", {"mappings": {...}, "type": "varint"}]} ]]
	var outer []any
	if err := json.Unmarshal(raw, &outer); err != nil {
		return nil, err
	}
	fields, _ := outer[1].([]any)
	first, _ := fields[0].(map[string]any)
	typeExpr, _ := first["type"].([]any)
	args, _ := typeExpr[1].(map[string]any)
	mappings, _ := args["mappings"].(map[string]any)

	out := make(map[string]int, len(mappings))
	for hexID, nameRaw := range mappings {
		name, _ := nameRaw.(string)
		id, err := strconv.ParseInt(strings.TrimPrefix(hexID, "0x"), 16, 32)
		if err != nil {
			return nil, fmt.Errorf("bad packet id %q: %w", hexID, err)
		}
		out[name] = int(id)
	}
	return out, nil
}

// manglePacketName applies spec.md §4.4's packet-name mangling rules.
func manglePacketName(rawName string, kind ConnectionState, direction string) string {
	name := strings.TrimPrefix(rawName, "packet_")
	if kind == Play && name == "ping" {
		name = "play_" + name
	}
	if !strings.HasSuffix(name, "_request") && !strings.HasSuffix(name, "_response") {
		name += direction
	}
	return snakeToPascal(name)
}

func (p *Parser) parseDirection(dir rawDirection, kind ConnectionState, suffix string) (Direction, error) {
	mappingRaw, ok := dir.Types["packet"]
	if !ok {
		return Direction{}, nil
	}
	mapping, err := decodeMapping(mappingRaw)
	if err != nil {
		return Direction{}, err
	}

	var out Direction
	for rawName, valueRaw := range dir.Types {
		if rawName == "packet" {
			continue
		}
		trimmed := strings.TrimPrefix(rawName, "packet_")
		id, ok := mapping[trimmed]
		if !ok {
			continue
		}
		name := manglePacketName(rawName, kind, suffix)

		if rawName == "packet_advancements" {
			// Ignored in the upstream schema too (a legacy no-op entry);
			// still occupies its id slot with an empty failed struct so
			// dispatch stays total.
			ty := p.Store.NewStruct(Struct{Name: name, Failed: true, BaseType: -1})
			out.Packets = append(out.Packets, Packet{Name: name, Ty: ty, ID: id})
			continue
		}

		var value any
		if err := json.Unmarshal(valueRaw, &value); err != nil {
			return Direction{}, err
		}

		if name == "UseEntityRequest" {
			ty := buildUseEntityRequest(p.Store)
			out.Packets = append(out.Packets, Packet{Name: name, Ty: ty, ID: id})
			continue
		}

		parent := &parentData{parentStructName: name}
		ty, ok := p.ParseType(value, parent)
		if !ok {
			continue
		}
		out.Packets = append(out.Packets, Packet{Name: name, Ty: ty, ID: id})
	}

	sort.Slice(out.Packets, func(i, j int) bool { return out.Packets[i].ID < out.Packets[j].ID })
	return out, nil
}

// ParseSchema parses the full four-state schema document (the `pc.<version>.protocol`
// subtree) into TypeModel states.
func (p *Parser) ParseSchema(doc []byte) ([4]State, error) {
	var raw rawSchema
	if err := json.Unmarshal(doc, &raw); err != nil {
		return [4]State{}, err
	}

	build := func(kind ConnectionState, rs rawState) (State, error) {
		c2s, err := p.parseDirection(rs.ToServer, kind, "_request")
		if err != nil {
			return State{}, err
		}
		s2c, err := p.parseDirection(rs.ToClient, kind, "_response")
		if err != nil {
			return State{}, err
		}
		return State{Kind: kind, C2S: c2s, S2C: s2c}, nil
	}

	hs, err := build(Handshaking, raw.Handshaking)
	if err != nil {
		return [4]State{}, err
	}
	st, err := build(Status, raw.Status)
	if err != nil {
		return [4]State{}, err
	}
	lg, err := build(Login, raw.Login)
	if err != nil {
		return [4]State{}, err
	}
	pl, err := build(Play, raw.Play)
	if err != nil {
		return [4]State{}, err
	}
	return [4]State{hs, st, lg, pl}, nil
}

// buildUseEntityRequest hand-constructs the TypeModel shape for the
// UseEntityRequest special case (spec.md §4.4): the schema's generic
// switch-over-kind can't express the trailing "sneaking" varint-then-bool
// tail, so the generator substitutes a fixed struct describing the three
// kinds {Interact, Attack, InteractAt{x,y,z}} directly. The emitter
// recognizes this struct by name and emits hand-written deserialize code
// instead of the generic struct-field loop (see emit.go).
func buildUseEntityRequest(st *Store) TyID {
	return st.NewStruct(Struct{
		Name:     "UseEntityRequest",
		Failed:   false,
		BaseType: -1,
		Fields: []StructField{
			{Name: "entity_id", Ty: st.Primitive(KVarInt)},
			{Name: "kind", Ty: st.Primitive(KI32)}, // placeholder; emitter special-cases this struct entirely
			{Name: "sneaking", Ty: st.Primitive(KBool)},
		},
	})
}
