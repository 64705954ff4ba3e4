package schema

import (
	"strings"
	"testing"
)

func TestEmitStructProducesFieldAndDecoder(t *testing.T) {
	st := NewStore()
	id := st.NewStruct(Struct{
		Name:     "Greeting",
		BaseType: -1,
		Fields: []StructField{
			{Name: "message", Ty: st.Primitive(KString)},
			{Name: "count", Ty: st.Primitive(KVarInt)},
		},
	})

	e := NewEmitter(st, "status")
	var b strings.Builder
	e.emitStruct(&b, id, &st.Get(id).Struct)
	out := b.String()

	if !strings.Contains(out, "type Greeting struct {") {
		t.Fatalf("missing struct decl:\n%s", out)
	}
	if !strings.Contains(out, "Message string") {
		t.Fatalf("missing Message field:\n%s", out)
	}
	if !strings.Contains(out, "Count int32") {
		t.Fatalf("missing Count field:\n%s", out)
	}
	if !strings.Contains(out, "func decodeGreeting(r *wire.Reader) (*Greeting, error) {") {
		t.Fatalf("missing decoder func:\n%s", out)
	}
	if !strings.Contains(out, "r.String()") || !strings.Contains(out, "r.VarInt()") {
		t.Fatalf("missing field decode calls:\n%s", out)
	}
}

func TestEmitStructFailedEmitsRawFallback(t *testing.T) {
	st := NewStore()
	id := st.NewStruct(Struct{Name: "Broken", Failed: true, BaseType: -1})

	e := NewEmitter(st, "play")
	var b strings.Builder
	e.emitStruct(&b, id, &st.Get(id).Struct)
	out := b.String()

	if !strings.Contains(out, "type Broken struct {\n\tRaw []byte\n}") {
		t.Fatalf("expected raw-fallback struct shape:\n%s", out)
	}
	if !strings.Contains(out, "Raw: r.Rest()") {
		t.Fatalf("expected raw fallback decoder body:\n%s", out)
	}
}

func TestEmitDispatchGeneratesSwitchOverPacketID(t *testing.T) {
	st := NewStore()
	id := st.NewStruct(Struct{Name: "Ping", BaseType: -1, Fields: []StructField{
		{Name: "payload", Ty: st.Primitive(KI64)},
	}})

	e := NewEmitter(st, "status")
	dir := Direction{Packets: []Packet{{Name: "Ping", Ty: id, ID: 1}}}
	var b strings.Builder
	e.emitDispatch(&b, State{Kind: Status}, dir, "DispatchC2S")
	out := b.String()

	if !strings.Contains(out, "func DispatchC2S(id int32, r *wire.Reader) (any, error) {") {
		t.Fatalf("missing dispatch signature:\n%s", out)
	}
	if !strings.Contains(out, "case 1:\n\t\treturn decodePing(r)") {
		t.Fatalf("missing case for packet id 1:\n%s", out)
	}
	if !strings.Contains(out, "return nil, mcproto.ErrUnknownPacket") {
		t.Fatalf("missing default unknown-packet branch:\n%s", out)
	}
}

func TestEmitStateProducesCompleteFile(t *testing.T) {
	st := NewStore()
	reqID := st.NewStruct(Struct{Name: "PingRequest", BaseType: -1, Fields: []StructField{
		{Name: "payload", Ty: st.Primitive(KI64)},
	}})

	e := NewEmitter(st, "status")
	out := e.EmitState(State{
		Kind: Status,
		C2S:  Direction{Packets: []Packet{{Name: "PingRequest", Ty: reqID, ID: 1}}},
	})

	if !strings.Contains(out, "package status") {
		t.Fatalf("missing package clause:\n%s", out)
	}
	if !strings.Contains(out, "duneproxy/internal/wire") {
		t.Fatalf("missing wire import:\n%s", out)
	}
	if !strings.Contains(out, "func DispatchC2S") || !strings.Contains(out, "func DispatchS2C") {
		t.Fatalf("missing both dispatch functions:\n%s", out)
	}
}
