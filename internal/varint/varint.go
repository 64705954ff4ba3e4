// Package varint implements Minecraft protocol's variable-length integer
// encodings: VarInt (up to 5 bytes, 32-bit) and VarLong (up to 10 bytes,
// 64-bit). Both are 7-bits-per-byte little-endian with the high bit of each
// byte set iff more bytes follow.
package varint

import (
	"errors"
	"io"
)

// ErrTooLong is returned when a VarInt/VarLong read consumes more bytes
// than the format allows (5 for VarInt, 10 for VarLong). The malformed
// stream is unrecoverable: the cursor is not rewound.
var ErrTooLong = errors.New("varint: value too long")

const (
	maxVarIntBytes  = 5
	maxVarLongBytes = 10
)

// ReadInt reads a VarInt from r, returning the decoded value and the number
// of bytes consumed. A read that finds fewer bytes than required returns
// io.ErrUnexpectedEOF; no bytes are considered consumed from the caller's
// point of view since r is a ByteReader.
func ReadInt(r io.ByteReader) (int32, int, error) {
	var result uint32
	var n int
	for {
		b, err := r.ReadByte()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return 0, n, io.ErrUnexpectedEOF
			}
			return 0, n, err
		}
		result |= uint32(b&0x7f) << (7 * uint(n))
		n++
		if n > maxVarIntBytes {
			return 0, n, ErrTooLong
		}
		if b&0x80 == 0 {
			break
		}
	}
	return int32(result), n, nil
}

// ReadLong reads a VarLong from r, mirroring ReadInt at 64-bit width with
// a 10-byte ceiling.
func ReadLong(r io.ByteReader) (int64, int, error) {
	var result uint64
	var n int
	for {
		b, err := r.ReadByte()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return 0, n, io.ErrUnexpectedEOF
			}
			return 0, n, err
		}
		result |= uint64(b&0x7f) << (7 * uint(n))
		n++
		if n > maxVarLongBytes {
			return 0, n, ErrTooLong
		}
		if b&0x80 == 0 {
			break
		}
	}
	return int64(result), n, nil
}

// WriteInt writes value as a VarInt, returning the number of bytes written
// (always 1..=5).
func WriteInt(w io.ByteWriter, value int32) (int, error) {
	v := uint32(value)
	n := 0
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if v != 0 {
			b |= 0x80
		}
		if err := w.WriteByte(b); err != nil {
			return n, err
		}
		n++
		if v == 0 {
			return n, nil
		}
	}
}

// WriteLong writes value as a VarLong.
func WriteLong(w io.ByteWriter, value int64) (int, error) {
	v := uint64(value)
	n := 0
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if v != 0 {
			b |= 0x80
		}
		if err := w.WriteByte(b); err != nil {
			return n, err
		}
		n++
		if v == 0 {
			return n, nil
		}
	}
}

// Size returns the number of bytes WriteInt would emit for value, without
// writing anything.
func Size(value int32) int {
	v := uint32(value)
	n := 1
	for v >= 0x80 {
		v >>= 7
		n++
	}
	return n
}

// PeekInt decodes a VarInt from the head of buf without requiring a
// ByteReader and without signaling how many bytes were "consumed" via any
// cursor — it simply reports (value, bytesUsed). Returns io.ErrUnexpectedEOF
// if buf runs out before a terminating byte is seen, and ErrTooLong if a
// 6th continuation byte would be required. Used by the frame codec to peek
// a length prefix before committing to a read.
func PeekInt(buf []byte) (int32, int, error) {
	var result uint32
	for i, b := range buf {
		if i >= maxVarIntBytes {
			return 0, 0, ErrTooLong
		}
		result |= uint32(b&0x7f) << (7 * uint(i))
		if b&0x80 == 0 {
			return int32(result), i + 1, nil
		}
	}
	if len(buf) >= maxVarIntBytes {
		return 0, 0, ErrTooLong
	}
	return 0, 0, io.ErrUnexpectedEOF
}
