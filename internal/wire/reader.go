// Package wire provides a zero-copy reader over a borrowed byte slice,
// the primitive every generated packet deserializer is built on. It plays
// the role of dune_data's protocol::de::Reader / MemoryExt trait: every
// read either returns a sub-slice of the original buffer or fails leaving
// the cursor untouched.
package wire

import (
	"encoding/binary"
	"errors"
	"io"
	"math"

	"duneproxy/internal/varint"
)

// ErrShortRead is returned when a read requests more bytes than remain in
// the buffer. The cursor is left unchanged so the caller may retry once
// more data has arrived (used by the frame codec's "not yet" path).
var ErrShortRead = errors.New("wire: short read")

// Reader is a cursor over a byte slice it does not own. Byte-slice reads
// borrow sub-slices of the backing array; only the fixed numeric decodes,
// U128 and String copy their bytes out.
type Reader struct {
	buf []byte
	pos int
}

// NewReader wraps buf for reading. buf is retained, not copied.
func NewReader(buf []byte) *Reader {
	return &Reader{buf: buf}
}

// Remaining reports how many bytes are left to read.
func (r *Reader) Remaining() int {
	return len(r.buf) - r.pos
}

// Pos returns the current cursor offset into the original buffer.
func (r *Reader) Pos() int { return r.pos }

// Rest returns every remaining byte and empties the cursor, matching the
// RestBuffer type's "consume to end" semantics.
func (r *Reader) Rest() []byte {
	b := r.buf[r.pos:]
	r.pos = len(r.buf)
	return b
}

// Take borrows exactly n bytes starting at the cursor and advances past
// them. Returns ErrShortRead without advancing if n exceeds Remaining().
func (r *Reader) Take(n int) ([]byte, error) {
	if n > r.Remaining() {
		return nil, ErrShortRead
	}
	b := r.buf[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}

func (r *Reader) U8() (uint8, error) {
	b, err := r.Take(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (r *Reader) I8() (int8, error) {
	v, err := r.U8()
	return int8(v), err
}

func (r *Reader) Bool() (bool, error) {
	v, err := r.U8()
	return v != 0, err
}

func (r *Reader) U16() (uint16, error) {
	b, err := r.Take(2)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(b), nil
}

func (r *Reader) I16() (int16, error) {
	v, err := r.U16()
	return int16(v), err
}

func (r *Reader) U32() (uint32, error) {
	b, err := r.Take(4)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b), nil
}

func (r *Reader) I32() (int32, error) {
	v, err := r.U32()
	return int32(v), err
}

func (r *Reader) U64() (uint64, error) {
	b, err := r.Take(8)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(b), nil
}

func (r *Reader) I64() (int64, error) {
	v, err := r.U64()
	return int64(v), err
}

func (r *Reader) U128() ([16]byte, error) {
	var out [16]byte
	b, err := r.Take(16)
	if err != nil {
		return out, err
	}
	copy(out[:], b)
	return out, nil
}

func (r *Reader) F32() (float32, error) {
	v, err := r.U32()
	return math.Float32frombits(v), err
}

func (r *Reader) F64() (float64, error) {
	v, err := r.U64()
	return math.Float64frombits(v), err
}

// VarInt reads a VarInt from the cursor, leaving it unchanged on failure.
func (r *Reader) VarInt() (int32, error) {
	v, n, err := varint.PeekInt(r.buf[r.pos:])
	if err != nil {
		return 0, translatePeekErr(err)
	}
	r.pos += n
	return v, nil
}

// VarLong reads a VarLong from the cursor.
func (r *Reader) VarLong() (int64, error) {
	br := &sliceByteReader{buf: r.buf, pos: r.pos}
	v, n, err := varintReadLong(br)
	if err != nil {
		return 0, translatePeekErr(err)
	}
	r.pos += n
	return v, nil
}

// PeekVarInt decodes a VarInt at the cursor without consuming it.
func (r *Reader) PeekVarInt() (int32, int, error) {
	v, n, err := varint.PeekInt(r.buf[r.pos:])
	if err != nil {
		return 0, 0, translatePeekErr(err)
	}
	return v, n, nil
}

// String reads a VarInt-length-prefixed UTF-8 string. The conversion to a
// Go string copies the bytes out of the backing array.
func (r *Reader) String() (string, error) {
	start := r.pos
	n, err := r.VarInt()
	if err != nil {
		return "", err
	}
	if n < 0 {
		r.pos = start
		return "", ErrShortRead
	}
	b, err := r.Take(int(n))
	if err != nil {
		r.pos = start
		return "", err
	}
	return string(b), nil
}

// Buffer reads a VarInt-length-prefixed byte buffer, borrowing it.
func (r *Reader) Buffer() ([]byte, error) {
	start := r.pos
	n, err := r.VarInt()
	if err != nil {
		return nil, err
	}
	if n < 0 {
		r.pos = start
		return nil, ErrShortRead
	}
	b, err := r.Take(int(n))
	if err != nil {
		r.pos = start
		return nil, err
	}
	return b, nil
}

// Position decodes a packed 64-bit Position word per spec:
// x = val>>38, z = (val<<26)>>38, y = (val<<52)>>52, each arithmetic
// (sign-extending) shifted.
func (r *Reader) Position() (x, y, z int32, err error) {
	val, err := r.I64()
	if err != nil {
		return 0, 0, 0, err
	}
	x = int32(val >> 38)
	y = int32((val << 52) >> 52)
	z = int32((val << 26) >> 38)
	return x, y, z, nil
}

// Fingerprint runs fn starting at the current cursor and returns the slice
// of bytes it consumed, regardless of how many bytes that was. This is the
// primitive the NBT/Slot skippers use: they advance the cursor by however
// many bytes their own format needs and the caller gets back the raw
// encoded range to journal unchanged, without the packet decoder ever
// having to understand NBT itself.
func (r *Reader) Fingerprint(fn func(*Reader) error) ([]byte, error) {
	start := r.pos
	if err := fn(r); err != nil {
		r.pos = start
		return nil, err
	}
	return r.buf[start:r.pos], nil
}

func translatePeekErr(err error) error {
	if errors.Is(err, varint.ErrTooLong) {
		return varint.ErrTooLong
	}
	return ErrShortRead
}

// sliceByteReader adapts a slice+cursor to io.ByteReader for VarLong's
// shared decode loop without forcing an allocation.
type sliceByteReader struct {
	buf []byte
	pos int
}

func (s *sliceByteReader) ReadByte() (byte, error) {
	if s.pos >= len(s.buf) {
		return 0, io.EOF
	}
	b := s.buf[s.pos]
	s.pos++
	return b, nil
}

func varintReadLong(br *sliceByteReader) (int64, int, error) {
	v, n, err := varint.ReadLong(br)
	if err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return 0, 0, ErrShortRead
		}
		return 0, 0, err
	}
	return v, n, nil
}
