// Package mcproto holds the types every generated per-version packet
// package depends on: the connection state machine, packet direction,
// the Position helper type, and the NBT/Slot "skip" primitives the
// generated decoders call through wire.Reader.Fingerprint instead of
// understanding those formats themselves.
package mcproto

import (
	"errors"
	"fmt"

	"duneproxy/internal/wire"
)

// ConnectionState is the runtime phase a session is in, mirroring
// spec.md §3's state machine: Handshaking -> {Status|Login} -> Play,
// monotonically increasing and terminal at Play.
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
	case Play:
		return "play"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// PacketDirection is which leg of the proxy sent a packet.
type PacketDirection int

const (
	ClientToServer PacketDirection = iota
	ServerToClient
)

func (d PacketDirection) String() string {
	if d == ClientToServer {
		return "c2s"
	}
	return "s2c"
}

// Position is the decoded form of the packed-word Position type
// (spec.md §4.5).
type Position struct {
	X, Y, Z int32
}

// ErrUnknownPacket is returned by a generated state's DispatchC2S/DispatchS2C
// when no packet in that (state, direction) is registered for the given id.
// Dispatch is still total in the sense that every registered id in the
// schema has a case; an id outside the schema's own numbering is the only
// way to hit this (internal/codec's UnknownPacketError is a separate,
// caller-facing error that wraps codec.ErrUnknown, not this sentinel).
var ErrUnknownPacket = errors.New("mcproto: unknown packet id for state/direction")

// SkipSlot consumes one Slot value without decoding its NBT payload: a
// bool present flag, then if present a VarInt item id, a byte count, and
// an NBT compound tag (skipped via SkipNbt). Grounds the "structural
// understanding only" contract from spec.md §4.2 for this type.
func SkipSlot(r *wire.Reader) error {
	present, err := r.Bool()
	if err != nil || !present {
		return err
	}
	if _, err := r.VarInt(); err != nil {
		return err
	}
	if _, err := r.U8(); err != nil {
		return err
	}
	return SkipNbt(r)
}

// SkipOptionNbt consumes a single leading tag-type byte; 0x00 (TAG_End)
// means absent, anything else means a full compound tag follows.
func SkipOptionNbt(r *wire.Reader) error {
	tag, err := r.U8()
	if err != nil {
		return err
	}
	if tag == 0x00 {
		return nil
	}
	return SkipNbtBody(r, tag)
}

// SkipNbt consumes one complete NBT tag starting at its type byte.
func SkipNbt(r *wire.Reader) error {
	tag, err := r.U8()
	if err != nil {
		return err
	}
	return SkipNbtBody(r, tag)
}

// SkipNbtBody consumes the name and payload of an NBT tag whose type byte
// has already been read as tag. This is a structural skip only: it knows
// each tag's shape well enough to find its end, never interprets values.
func SkipNbtBody(r *wire.Reader, tag byte) error {
	if tag == 0x00 {
		return nil
	}
	nameLen, err := r.U16()
	if err != nil {
		return err
	}
	if _, err := r.Take(int(nameLen)); err != nil {
		return err
	}
	return SkipNbtPayload(r, tag)
}

func SkipNbtPayload(r *wire.Reader, tag byte) error {
	switch tag {
	case 0x01: // byte
		_, err := r.U8()
		return err
	case 0x02: // short
		_, err := r.U16()
		return err
	case 0x03: // int
		_, err := r.U32()
		return err
	case 0x04: // long
		_, err := r.U64()
		return err
	case 0x05: // float
		_, err := r.F32()
		return err
	case 0x06: // double
		_, err := r.F64()
		return err
	case 0x07: // byte array
		n, err := r.I32()
		if err != nil {
			return err
		}
		_, err = r.Take(int(n))
		return err
	case 0x08: // string
		n, err := r.U16()
		if err != nil {
			return err
		}
		_, err = r.Take(int(n))
		return err
	case 0x09: // list
		elemTag, err := r.U8()
		if err != nil {
			return err
		}
		n, err := r.I32()
		if err != nil {
			return err
		}
		for i := int32(0); i < n; i++ {
			if err := SkipNbtPayload(r, elemTag); err != nil {
				return err
			}
		}
		return nil
	case 0x0A: // compound
		for {
			childTag, err := r.U8()
			if err != nil {
				return err
			}
			if childTag == 0x00 {
				return nil
			}
			if err := SkipNbtBody(r, childTag); err != nil {
				return err
			}
		}
	case 0x0B: // int array
		n, err := r.I32()
		if err != nil {
			return err
		}
		for i := int32(0); i < n; i++ {
			if _, err := r.U32(); err != nil {
				return err
			}
		}
		return nil
	case 0x0C: // long array
		n, err := r.I32()
		if err != nil {
			return err
		}
		for i := int32(0); i < n; i++ {
			if _, err := r.U64(); err != nil {
				return err
			}
		}
		return nil
	default:
		return fmt.Errorf("mcproto: unknown NBT tag 0x%02x", tag)
	}
}

// SkipChunkBlockEntity consumes one packed-xz/y/type/nbt block entity
// entry as used by the Play ChunkData packet's trailing array.
func SkipChunkBlockEntity(r *wire.Reader) error {
	if _, err := r.U8(); err != nil { // packed xz
		return err
	}
	if _, err := r.I16(); err != nil { // y
		return err
	}
	if _, err := r.VarInt(); err != nil { // type
		return err
	}
	return SkipNbt(r)
}
