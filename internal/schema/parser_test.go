package schema

import "testing"

func TestParseTypeSimplePrimitives(t *testing.T) {
	p := NewParser()
	parent := &parentData{parentStructName: "Test"}

	id, ok := p.ParseType("varint", parent)
	if !ok || p.Store.Get(id).Kind != KVarInt {
		t.Fatalf("varint: got id=%d ok=%v", id, ok)
	}

	id, ok = p.ParseType("string", parent)
	if !ok || p.Store.Get(id).Kind != KString {
		t.Fatalf("string: got id=%d ok=%v", id, ok)
	}
}

func TestParseTypeUnknownRecordsReport(t *testing.T) {
	p := NewParser()
	parent := &parentData{parentStructName: "Test"}

	_, ok := p.ParseType("totallyMadeUpType", parent)
	if ok {
		t.Fatal("expected unknown primitive to fail")
	}
	report := p.Unknown()
	if packets, found := report["totallyMadeUpType"]; !found || len(packets) != 1 || packets[0] != "Test" {
		t.Fatalf("unknown report = %v, want entry for totallyMadeUpType referenced by Test", report)
	}
}

func TestParseContainerBuildsStruct(t *testing.T) {
	p := NewParser()
	input := []any{
		map[string]any{"name": "x", "type": "f64"},
		map[string]any{"name": "y", "type": "f64"},
	}
	parent := &parentData{parentStructName: "Position"}
	id, ok := p.parseContainer(input, parent, false)
	if !ok {
		t.Fatal("parseContainer failed")
	}
	ty := p.Store.Get(id)
	if ty.Kind != KStruct {
		t.Fatalf("kind = %v, want KStruct", ty.Kind)
	}
	if len(ty.Struct.Fields) != 2 {
		t.Fatalf("fields = %v, want 2", ty.Struct.Fields)
	}
	if ty.Struct.Fields[0].Name != "x" || ty.Struct.Fields[1].Name != "y" {
		t.Fatalf("field names = %+v", ty.Struct.Fields)
	}
}

func TestParseContainerReservedFieldNameSuffixed(t *testing.T) {
	p := NewParser()
	input := []any{
		map[string]any{"name": "type", "type": "u8"},
	}
	parent := &parentData{parentStructName: "Reserved"}
	id, ok := p.parseContainer(input, parent, false)
	if !ok {
		t.Fatal("parseContainer failed")
	}
	ty := p.Store.Get(id)
	if ty.Struct.Fields[0].Name != "type_" {
		t.Fatalf("field name = %q, want \"type_\" (reserved Go-ish word escaped)", ty.Struct.Fields[0].Name)
	}
}

func TestParseOptionWrapsInner(t *testing.T) {
	p := NewParser()
	parent := &parentData{parentStructName: "Test"}
	id, ok := p.ParseType([]any{"option", "string"}, parent)
	if !ok {
		t.Fatal("parseOption failed")
	}
	ty := p.Store.Get(id)
	if ty.Kind != KOption {
		t.Fatalf("kind = %v, want KOption", ty.Kind)
	}
	if p.Store.Get(ty.Option.Inner).Kind != KString {
		t.Fatalf("inner kind = %v, want KString", p.Store.Get(ty.Option.Inner).Kind)
	}
}

func TestParseArrayOfU8CanonicalizesToBuffer(t *testing.T) {
	p := NewParser()
	parent := &parentData{parentStructName: "Test"}
	input := map[string]any{"countType": "varint", "type": "u8"}
	id, ok := p.ParseType([]any{"array", input}, parent)
	if !ok {
		t.Fatal("parseArray failed")
	}
	if id != p.tyBufferVarint {
		t.Fatalf("array[varint,u8] should canonicalize to the shared varint-prefixed buffer TyID")
	}
}

func TestParseArrayOfStructsStaysArray(t *testing.T) {
	p := NewParser()
	parent := &parentData{parentStructName: "Test"}
	input := map[string]any{"countType": "varint", "type": "string"}
	id, ok := p.ParseType([]any{"array", input}, parent)
	if !ok {
		t.Fatal("parseArray failed")
	}
	ty := p.Store.Get(id)
	if ty.Kind != KArray {
		t.Fatalf("kind = %v, want KArray", ty.Kind)
	}
	if p.Store.Get(ty.Array.Elem).Kind != KString {
		t.Fatalf("elem kind = %v, want KString", p.Store.Get(ty.Array.Elem).Kind)
	}
}

func TestParseContainerBitfieldPacksRanges(t *testing.T) {
	p := NewParser()
	input := []any{
		map[string]any{"name": "a", "size": float64(4), "signed": false},
		map[string]any{"name": "b", "size": float64(4), "signed": true},
	}
	parent := &parentData{parentStructName: "Flags"}
	id, ok := p.parseContainer(input, parent, true)
	if !ok {
		t.Fatal("parseContainer(bitfield) failed")
	}
	ty := p.Store.Get(id)
	if ty.Struct.BaseType != p.tyI8 {
		t.Fatalf("bitfield base type = %d, want i8 (8 bits total)", ty.Struct.BaseType)
	}
	bfA := p.Store.Get(ty.Struct.Fields[0].Ty)
	bfB := p.Store.Get(ty.Struct.Fields[1].Ty)
	if bfA.Bitfield.RangeBegin != 0 || bfA.Bitfield.RangeEnd != 4 || !bfA.Bitfield.Unsigned {
		t.Fatalf("field a bitfield = %+v", bfA.Bitfield)
	}
	if bfB.Bitfield.RangeBegin != 4 || bfB.Bitfield.RangeEnd != 8 || bfB.Bitfield.Unsigned {
		t.Fatalf("field b bitfield = %+v", bfB.Bitfield)
	}
}

func TestParseSwitchMergesVariantsByDiscriminator(t *testing.T) {
	p := NewParser()
	parent := &parentData{parentStructName: "Action", parentField: "value"}
	input := map[string]any{
		"compareTo": "actionId",
		"fields": map[string]any{
			"0": "string",
			"1": "varint",
		},
	}
	id, ok := p.parseSwitch(input, parent)
	if !ok {
		t.Fatal("parseSwitch failed")
	}
	ty := p.Store.Get(id)
	if ty.Kind != KEnum {
		t.Fatalf("kind = %v, want KEnum", ty.Kind)
	}
	if ty.Enum.CompareTo != "action_id" {
		t.Fatalf("compareTo = %q, want snake_case action_id", ty.Enum.CompareTo)
	}
	if len(ty.Enum.Variants) != 2 {
		t.Fatalf("variants = %d, want 2", len(ty.Enum.Variants))
	}
	if !parent.switchUpdated {
		t.Fatal("parseSwitch must set switchUpdated so parseContainer skips adding a peer field")
	}
}

func TestParseSwitchRejectsNonAlphaCompareTo(t *testing.T) {
	p := NewParser()
	parent := &parentData{parentStructName: "Action", parentField: "value"}
	input := map[string]any{
		"compareTo": "../weird$field",
		"fields":    map[string]any{"0": "string"},
	}
	if _, ok := p.parseSwitch(input, parent); ok {
		t.Fatal("expected non-alphabetic compareTo to be rejected")
	}
}

func TestWidthForBitfieldsRoundsUpToByteBoundary(t *testing.T) {
	cases := map[int]int{1: 8, 8: 8, 9: 16, 16: 16, 17: 32, 32: 32, 33: 64, 64: 64}
	for size, want := range cases {
		if got := widthForBitfields(size); got != want {
			t.Fatalf("widthForBitfields(%d) = %d, want %d", size, got, want)
		}
	}
}

func TestSnakeToPascalAndToSnakeCase(t *testing.T) {
	if got := snakeToPascal("set_protocol"); got != "SetProtocol" {
		t.Fatalf("snakeToPascal = %q", got)
	}
	if got := toSnakeCase("entityId"); got != "entity_id" {
		t.Fatalf("toSnakeCase = %q", got)
	}
}

// TestParseSchemaEndToEnd feeds a tiny synthetic four-state document through
// ParseSchema, checking the packet-id mapping and name-mangling rules land
// correctly end to end rather than only unit-by-unit.
func TestParseSchemaEndToEnd(t *testing.T) {
	doc := []byte(`{
		"handshaking": {
			"toServer": {
				"types": {
					"packet_set_protocol": ["container", [
						{"name": "protocolVersion", "type": "varint"},
						{"name": "serverHost", "type": "string"}
					]],
					"packet": ["container", [
						{"name": "name", "type": ["mapper", {"type": "varint", "mappings": {"0x00": "set_protocol"}}]}
					]]
				}
			},
			"toClient": {"types": {}}
		},
		"status": {"toServer": {"types": {}}, "toClient": {"types": {}}},
		"login": {"toServer": {"types": {}}, "toClient": {"types": {}}},
		"play": {"toServer": {"types": {}}, "toClient": {"types": {}}}
	}`)

	p := NewParser()
	states, err := p.ParseSchema(doc)
	if err != nil {
		t.Fatalf("ParseSchema: %v", err)
	}
	hs := states[Handshaking]
	if len(hs.C2S.Packets) != 1 {
		t.Fatalf("handshaking c2s packets = %v, want 1", hs.C2S.Packets)
	}
	pkt := hs.C2S.Packets[0]
	if pkt.Name != "SetProtocolRequest" {
		t.Fatalf("packet name = %q, want SetProtocolRequest", pkt.Name)
	}
	if pkt.ID != 0 {
		t.Fatalf("packet id = %d, want 0", pkt.ID)
	}
	ty := p.Store.Get(pkt.Ty)
	if ty.Kind != KStruct || len(ty.Struct.Fields) != 2 {
		t.Fatalf("packet type = %+v, want 2-field struct", ty)
	}
}
