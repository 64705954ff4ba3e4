package replay

import (
	"bytes"
	"encoding/binary"
	"os"
	"testing"

	"github.com/google/uuid"

	"duneproxy/internal/capture"
	"duneproxy/internal/mcproto"
	"duneproxy/internal/varint"
)

type recordingListener struct {
	NopListener
	chats     []string
	positions []Position
}

func (l *recordingListener) OnChat(message string) error {
	l.chats = append(l.chats, message)
	return nil
}

func (l *recordingListener) OnPosition(pos Position) error {
	l.positions = append(l.positions, pos)
	return nil
}

func varintBytes(v int32) []byte {
	var buf bytes.Buffer
	varint.WriteInt(&buf, v)
	return buf.Bytes()
}

func stringBytes(s string) []byte {
	var buf bytes.Buffer
	buf.Write(varintBytes(int32(len(s))))
	buf.WriteString(s)
	return buf.Bytes()
}

// TestPlayFileDispatchesChatAndPosition writes a small synthetic capture
// (handshaking to Login, then two Play packets) and checks the engine
// drives the listener the way replay.rs's TrafficPlayer would.
func TestPlayFileDispatchesChatAndPosition(t *testing.T) {
	tmp, err := os.CreateTemp(t.TempDir(), "capture-*.bin")
	if err != nil {
		t.Fatalf("CreateTemp: %v", err)
	}
	path := tmp.Name()

	if err := capture.WriteHeader(tmp, capture.SessionHeader{SessionID: uuid.New(), ProtocolVersion: 765}); err != nil {
		t.Fatalf("WriteHeader: %v", err)
	}
	w, err := capture.NewWriter(tmp)
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}

	// Handshaking SetProtocolRequest -> next_state 2 (Login).
	var setProto bytes.Buffer
	setProto.Write(varintBytes(765))
	setProto.Write(stringBytes("play.example.com"))
	binary.Write(&setProto, binary.BigEndian, uint16(25565))
	setProto.Write(varintBytes(2))
	if err := w.WritePacket(0x00, mcproto.ClientToServer, setProto.Bytes()); err != nil {
		t.Fatalf("WritePacket(SetProtocol): %v", err)
	}

	// Login SuccessResponse -> state becomes Play, listener sees player info.
	var success bytes.Buffer
	success.Write(make([]byte, 16))
	success.Write(stringBytes("Notch"))
	if err := w.WritePacket(0x02, mcproto.ServerToClient, success.Bytes()); err != nil {
		t.Fatalf("WritePacket(Success): %v", err)
	}

	// Play ChatMessageRequest.
	chat := stringBytes("hello world")
	if err := w.WritePacket(0x05, mcproto.ClientToServer, chat); err != nil {
		t.Fatalf("WritePacket(Chat): %v", err)
	}

	// Play PositionRequest.
	var pos bytes.Buffer
	binary.Write(&pos, binary.BigEndian, float64(1.5))
	binary.Write(&pos, binary.BigEndian, float64(64.0))
	binary.Write(&pos, binary.BigEndian, float64(-2.5))
	pos.WriteByte(1) // on_ground
	if err := w.WritePacket(0x0D, mcproto.ClientToServer, pos.Bytes()); err != nil {
		t.Fatalf("WritePacket(Position): %v", err)
	}

	if err := w.Close(); err != nil {
		t.Fatalf("Close writer: %v", err)
	}
	tmp.Close()

	listener := &recordingListener{}
	engine := NewEngine(listener)
	if err := engine.PlayFile(path); err != nil {
		t.Fatalf("PlayFile: %v", err)
	}

	if len(listener.chats) != 1 || listener.chats[0] != "hello world" {
		t.Fatalf("chats = %v, want [\"hello world\"]", listener.chats)
	}
	if len(listener.positions) != 1 {
		t.Fatalf("positions = %v, want 1 entry", listener.positions)
	}
	want := Position{X: 1.5, Y: 64.0, Z: -2.5}
	if listener.positions[0] != want {
		t.Fatalf("position = %+v, want %+v", listener.positions[0], want)
	}
	if engine.state != mcproto.Play {
		t.Fatalf("engine state = %v, want Play", engine.state)
	}
}
