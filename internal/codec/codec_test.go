package codec

import (
	"bufio"
	"bytes"
	"testing"
)

func TestRoundTripUncompressed(t *testing.T) {
	var buf bytes.Buffer
	payload := []byte{0xDE, 0xAD, 0xBE, 0xEF}
	if err := EncodeFrame(&buf, 0x05, payload, -1); err != nil {
		t.Fatalf("EncodeFrame: %v", err)
	}

	frame, err := ReadFrame(bufio.NewReader(&buf), -1)
	if err != nil {
		t.Fatalf("ReadFrame: %v", err)
	}
	if frame.PacketID != 0x05 {
		t.Errorf("PacketID = %d, want 5", frame.PacketID)
	}
	if !bytes.Equal(frame.Payload, payload) {
		t.Errorf("Payload = %v, want %v", frame.Payload, payload)
	}
}

func TestRoundTripBelowThresholdStaysUncompressed(t *testing.T) {
	var buf bytes.Buffer
	payload := []byte{1, 2, 3}
	if err := EncodeFrame(&buf, 0x01, payload, 64); err != nil {
		t.Fatalf("EncodeFrame: %v", err)
	}

	frame, err := ReadFrame(bufio.NewReader(&buf), 64)
	if err != nil {
		t.Fatalf("ReadFrame: %v", err)
	}
	if frame.PacketID != 0x01 || !bytes.Equal(frame.Payload, payload) {
		t.Errorf("got (%d, %v)", frame.PacketID, frame.Payload)
	}
}

func TestRoundTripAboveThresholdCompresses(t *testing.T) {
	var buf bytes.Buffer
	payload := bytes.Repeat([]byte{0xAB}, 200)
	if err := EncodeFrame(&buf, 0x02, payload, 16); err != nil {
		t.Fatalf("EncodeFrame: %v", err)
	}

	frame, err := ReadFrame(bufio.NewReader(&buf), 16)
	if err != nil {
		t.Fatalf("ReadFrame: %v", err)
	}
	if frame.PacketID != 0x02 || !bytes.Equal(frame.Payload, payload) {
		t.Errorf("round trip mismatch: id=%d len=%d", frame.PacketID, len(frame.Payload))
	}
}

func TestReadFrameRejectsOversizeLength(t *testing.T) {
	var buf bytes.Buffer
	// VarInt encoding of a length just past MaxFrameLength.
	big := int32(MaxFrameLength + 1)
	var lenBuf bytes.Buffer
	for {
		b := byte(big & 0x7F)
		big >>= 7
		if big != 0 {
			b |= 0x80
		}
		lenBuf.WriteByte(b)
		if big == 0 {
			break
		}
	}
	buf.Write(lenBuf.Bytes())

	if _, err := ReadFrame(bufio.NewReader(&buf), -1); err != ErrFrameTooLarge {
		t.Fatalf("ReadFrame = %v, want ErrFrameTooLarge", err)
	}
}

func TestReadFrameCorruptZlibStreamReturnsBadFrameError(t *testing.T) {
	// dataLength > 0 (claims compression) followed by garbage that is not
	// a valid zlib stream.
	var body bytes.Buffer
	body.WriteByte(10) // VarInt data length
	body.Write([]byte{0xFF, 0xFF, 0xFF, 0xFF})

	var buf bytes.Buffer
	if err := writeLengthPrefixed(&buf, body.Bytes()); err != nil {
		t.Fatalf("writeLengthPrefixed: %v", err)
	}

	_, err := ReadFrame(bufio.NewReader(&buf), 16)
	var bfe *BadFrameError
	if err == nil {
		t.Fatal("expected an error decoding a corrupt zlib stream")
	}
	if !errorsAsBadFrame(err, &bfe) {
		t.Fatalf("err = %v (%T), want *BadFrameError", err, err)
	}
}

// TestTryReadFrameSequential checks property #4: a stream of frames
// back-to-back in one buffer parses one at a time, each call picking up
// exactly where the last one's consumed count left off.
func TestTryReadFrameSequential(t *testing.T) {
	var buf bytes.Buffer
	if err := EncodeFrame(&buf, 0x01, []byte{1, 2, 3}, -1); err != nil {
		t.Fatalf("EncodeFrame: %v", err)
	}
	if err := EncodeFrame(&buf, 0x02, []byte{4, 5}, -1); err != nil {
		t.Fatalf("EncodeFrame: %v", err)
	}

	data := buf.Bytes()
	frame, n, err := TryReadFrame(data, -1)
	if err != nil || frame == nil {
		t.Fatalf("TryReadFrame(1st) = (%v, %d, %v)", frame, n, err)
	}
	if frame.PacketID != 0x01 || !bytes.Equal(frame.Payload, []byte{1, 2, 3}) {
		t.Errorf("1st frame = %+v", frame)
	}

	frame, n2, err := TryReadFrame(data[n:], -1)
	if err != nil || frame == nil {
		t.Fatalf("TryReadFrame(2nd) = (%v, %d, %v)", frame, n2, err)
	}
	if frame.PacketID != 0x02 || !bytes.Equal(frame.Payload, []byte{4, 5}) {
		t.Errorf("2nd frame = %+v", frame)
	}
	if n+n2 != len(data) {
		t.Errorf("consumed %d+%d bytes, want %d", n, n2, len(data))
	}
}

// TestTryReadFrameSplitBufferDoesNotConsume checks property #5: handed only
// the first half of a frame, TryReadFrame reports "not enough data yet"
// without an error and without consuming any bytes from that half.
func TestTryReadFrameSplitBufferDoesNotConsume(t *testing.T) {
	var buf bytes.Buffer
	payload := bytes.Repeat([]byte{0xCC}, 40)
	if err := EncodeFrame(&buf, 0x03, payload, -1); err != nil {
		t.Fatalf("EncodeFrame: %v", err)
	}

	data := buf.Bytes()
	half := data[:len(data)/2]

	frame, n, err := TryReadFrame(half, -1)
	if err != nil {
		t.Fatalf("TryReadFrame(short buffer): %v", err)
	}
	if frame != nil || n != 0 {
		t.Fatalf("TryReadFrame(short buffer) = (%+v, %d), want (nil, 0)", frame, n)
	}

	frame, n, err = TryReadFrame(data, -1)
	if err != nil || frame == nil {
		t.Fatalf("TryReadFrame(full buffer) = (%v, %d, %v)", frame, n, err)
	}
	if frame.PacketID != 0x03 || !bytes.Equal(frame.Payload, payload) {
		t.Errorf("frame = %+v", frame)
	}
	if n != len(data) {
		t.Errorf("consumed %d bytes, want %d", n, len(data))
	}
}

func errorsAsBadFrame(err error, target **BadFrameError) bool {
	if bfe, ok := err.(*BadFrameError); ok {
		*target = bfe
		return true
	}
	return false
}
