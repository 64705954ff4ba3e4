package varint

import (
	"bytes"
	"errors"
	"io"
	"testing"
)

type byteSliceReader struct {
	b []byte
	i int
}

func (r *byteSliceReader) ReadByte() (byte, error) {
	if r.i >= len(r.b) {
		return 0, io.EOF
	}
	b := r.b[r.i]
	r.i++
	return b, nil
}

func TestReadIntCorpus(t *testing.T) {
	cases := []struct {
		bytes []byte
		value int32
	}{
		{[]byte{0x00}, 0},
		{[]byte{0x01}, 1},
		{[]byte{0x7f}, 127},
		{[]byte{0x80, 0x01}, 128},
		{[]byte{0xff, 0xff, 0xff, 0xff, 0x07}, 2147483647},
		{[]byte{0xff, 0xff, 0xff, 0xff, 0x0f}, -1},
	}
	for _, c := range cases {
		got, n, err := ReadInt(&byteSliceReader{b: c.bytes})
		if err != nil {
			t.Fatalf("ReadInt(%x): %v", c.bytes, err)
		}
		if got != c.value || n != len(c.bytes) {
			t.Errorf("ReadInt(%x) = (%d, %d), want (%d, %d)", c.bytes, got, n, c.value, len(c.bytes))
		}
	}
}

func TestReadIntTooLong(t *testing.T) {
	b := []byte{0x80, 0x80, 0x80, 0x80, 0x80, 0x01}
	_, _, err := ReadInt(&byteSliceReader{b: b})
	if !errors.Is(err, ErrTooLong) {
		t.Fatalf("expected ErrTooLong, got %v", err)
	}
}

func TestWriteReadRoundTrip(t *testing.T) {
	values := []int32{0, 1, 127, 128, -1, 1 << 30, -(1 << 30)}
	for _, v := range values {
		var buf bytes.Buffer
		n, err := WriteInt(&buf, v)
		if err != nil {
			t.Fatalf("WriteInt(%d): %v", v, err)
		}
		if n != Size(v) {
			t.Errorf("WriteInt(%d) wrote %d bytes, Size says %d", v, n, Size(v))
		}
		if n < 1 || n > 5 {
			t.Errorf("WriteInt(%d) wrote %d bytes, want 1..=5", v, n)
		}
		got, m, err := ReadInt(&byteSliceReader{b: buf.Bytes()})
		if err != nil {
			t.Fatalf("ReadInt round trip for %d: %v", v, err)
		}
		if got != v || m != n {
			t.Errorf("round trip %d: got (%d, %d), want (%d, %d)", v, got, m, v, n)
		}
	}
}

func TestVarLongRoundTrip(t *testing.T) {
	values := []int64{0, 1, 1 << 40, -1, -(1 << 40)}
	for _, v := range values {
		var buf bytes.Buffer
		if _, err := WriteLong(&buf, v); err != nil {
			t.Fatalf("WriteLong(%d): %v", v, err)
		}
		got, _, err := ReadLong(&byteSliceReader{b: buf.Bytes()})
		if err != nil {
			t.Fatalf("ReadLong round trip for %d: %v", v, err)
		}
		if got != v {
			t.Errorf("round trip %d: got %d", v, got)
		}
	}
}

func TestPeekInt(t *testing.T) {
	value, n, err := PeekInt([]byte{0x80, 0x01, 0xff})
	if err != nil {
		t.Fatalf("PeekInt: %v", err)
	}
	if value != 128 || n != 2 {
		t.Errorf("PeekInt = (%d, %d), want (128, 2)", value, n)
	}

	if _, _, err := PeekInt([]byte{0x80}); !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Errorf("PeekInt on truncated buffer: got %v, want ErrUnexpectedEOF", err)
	}
}
