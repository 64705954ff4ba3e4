// Package codec implements PacketCodec: turning a length-prefixed frame
// borrowed from a bufio.Reader into a packet id plus a wire.Reader over
// its (possibly decompressed) payload. Grounded on
// go-mclib-protocol's ReadWirePacketFrom/readCompressedPacket split and
// dune_lib/src/protocol/mod.rs::read_packet_info.
package codec

import (
	"bytes"
	"compress/zlib"
	"errors"
	"fmt"
	"io"

	"duneproxy/internal/varint"
	"duneproxy/internal/wire"
)

// ErrFrameTooLarge guards against a maliciously-large length prefix before
// an allocation is attempted (spec.md §4.6 sanity bound).
var ErrFrameTooLarge = errors.New("codec: frame length exceeds maximum")

// MaxFrameLength is the largest (PacketID+Data) length this codec will
// allocate for, matching the teacher's handleConnection sanity check
// (main.go's 1<<20 bound), rounded up to the protocol's own 2097151-byte
// ceiling (2^21 - 1, the largest 3-byte VarInt).
const MaxFrameLength = 2097151

// UnknownPacketError wraps ErrUnknown with the (state,
// direction, id) that triggered it, the idiomatic Go analogue of the
// Rust original's enum error variant carrying the same fields.
type UnknownPacketError struct {
	State     string
	Direction string
	ID        int32
}

func (e *UnknownPacketError) Error() string {
	return fmt.Sprintf("codec: unknown packet id 0x%x for state=%s direction=%s", e.ID, e.State, e.Direction)
}

func (e *UnknownPacketError) Unwrap() error { return ErrUnknown }

// ErrUnknown is the sentinel every UnknownPacketError wraps, for callers
// that only want to check "was this an unknown-packet failure" via
// errors.Is without caring about the offending id.
var ErrUnknown = errors.New("codec: unknown packet")

// BadFrameError reports a frame that was malformed below the level of a
// single field decode — a corrupt zlib stream, an unreadable data-length
// prefix — the idiomatic analogue of the Rust original's own frame-level
// error enum variant (src/error.rs).
type BadFrameError struct {
	Reason string
}

func (e *BadFrameError) Error() string { return "codec: bad frame: " + e.Reason }

// Frame is one decompressed (PacketID, Payload) pair read off the wire,
// ready to be handed to a generated state package's Dispatch function.
type Frame struct {
	PacketID int32
	Payload  []byte
}

// ReadFrame reads one length-prefixed frame from r, undoing compression
// if threshold >= 0 (spec.md §4.6: a VarInt dataLength follows the packet
// length; dataLength == 0 means this particular frame stayed
// uncompressed even though compression is enabled, matching
// go-mclib-protocol's readCompressedPacket special case).
func ReadFrame(r io.Reader, threshold int) (*Frame, error) {
	br, ok := r.(byteReaderProvider)
	var lengthReader interface {
		io.Reader
		ReadByte() (byte, error)
	}
	if ok {
		lengthReader = br
	} else {
		lengthReader = &countingByteReader{r: r}
	}

	length, n, err := varint.ReadInt(lengthReader)
	if err != nil {
		if n == 0 && errors.Is(err, io.ErrUnexpectedEOF) {
			// The stream ended cleanly between frames.
			return nil, io.EOF
		}
		return nil, fmt.Errorf("codec: read frame length: %w", err)
	}
	if length < 0 || length > MaxFrameLength {
		return nil, ErrFrameTooLarge
	}

	body := make([]byte, length)
	if _, err := io.ReadFull(r, body); err != nil {
		return nil, fmt.Errorf("codec: read frame body: %w", err)
	}

	return decodeFrameBody(body, threshold)
}

// TryReadFrame decodes one frame from the head of buf without blocking and
// without consuming anything on failure: it returns (nil, 0, nil) when buf
// does not yet hold a complete frame, so a caller accumulating bytes from a
// non-blocking source can simply retry once more data arrives. This is the
// non-consuming counterpart ReadFrame cannot offer on its own — ReadFrame
// stays the codec's blocking entry point for pump's live net.Conn reads,
// where a short read legitimately means "block until more bytes arrive"
// rather than "try again later with what I already have" (spec.md's
// testable properties #4 and #5: a stream of frames parses sequentially,
// and splitting that stream anywhere must yield a zero-consumption "not
// enough data" result from the half ending mid-frame).
func TryReadFrame(buf []byte, threshold int) (*Frame, int, error) {
	length, n, err := varint.PeekInt(buf)
	if err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, 0, nil
		}
		return nil, 0, err
	}
	if length < 0 || length > MaxFrameLength {
		return nil, 0, ErrFrameTooLarge
	}

	total := n + int(length)
	if len(buf) < total {
		return nil, 0, nil
	}

	frame, err := decodeFrameBody(buf[n:total], threshold)
	if err != nil {
		return nil, 0, err
	}
	return frame, total, nil
}

// byteReaderProvider is satisfied by *bufio.Reader and similar types that
// can read both a byte stream and single bytes without an adapter.
type byteReaderProvider interface {
	io.Reader
	ReadByte() (byte, error)
}

// countingByteReader adapts a plain io.Reader to io.ByteReader one byte
// at a time, for callers that did not hand ReadFrame a buffered reader.
type countingByteReader struct {
	r   io.Reader
	buf [1]byte
}

func (c *countingByteReader) Read(p []byte) (int, error) { return c.r.Read(p) }

func (c *countingByteReader) ReadByte() (byte, error) {
	if _, err := io.ReadFull(c.r, c.buf[:]); err != nil {
		return 0, err
	}
	return c.buf[0], nil
}

func decodeFrameBody(body []byte, threshold int) (*Frame, error) {
	if threshold < 0 {
		return decodeUncompressed(body)
	}

	br := bytes.NewReader(body)
	dataLength, _, err := varint.ReadInt(br)
	if err != nil {
		return nil, &BadFrameError{Reason: fmt.Sprintf("read data length: %v", err)}
	}
	if dataLength == 0 {
		rest := make([]byte, br.Len())
		if _, err := io.ReadFull(br, rest); err != nil {
			return nil, err
		}
		return decodeUncompressed(rest)
	}

	zr, err := zlib.NewReader(br)
	if err != nil {
		return nil, &BadFrameError{Reason: fmt.Sprintf("open zlib stream: %v", err)}
	}
	defer zr.Close()

	uncompressed := make([]byte, 0, dataLength)
	buf := make([]byte, 4096)
	for {
		n, rerr := zr.Read(buf)
		uncompressed = append(uncompressed, buf[:n]...)
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			return nil, &BadFrameError{Reason: fmt.Sprintf("decompress frame: %v", rerr)}
		}
	}

	return decodeUncompressed(uncompressed)
}

func decodeUncompressed(body []byte) (*Frame, error) {
	rdr := wire.NewReader(body)
	id, err := rdr.VarInt()
	if err != nil {
		return nil, fmt.Errorf("codec: read packet id: %w", err)
	}
	return &Frame{PacketID: id, Payload: rdr.Rest()}, nil
}

// EncodeFrame writes an already-serialized payload back out as a
// length-prefixed (and, above threshold, zlib-compressed) frame — the
// write-side counterpart used by the proxy's pump when forwarding
// packets to the other leg.
func EncodeFrame(w io.Writer, id int32, payload []byte, threshold int) error {
	var packetBody bytes.Buffer
	if _, err := varint.WriteInt(&packetBody, id); err != nil {
		return err
	}
	packetBody.Write(payload)

	if threshold < 0 || packetBody.Len() < threshold {
		var frame bytes.Buffer
		if threshold >= 0 {
			if _, err := varint.WriteInt(&frame, 0); err != nil {
				return err
			}
		}
		frame.Write(packetBody.Bytes())
		return writeLengthPrefixed(w, frame.Bytes())
	}

	var compressed bytes.Buffer
	zw := zlib.NewWriter(&compressed)
	if _, err := zw.Write(packetBody.Bytes()); err != nil {
		return err
	}
	if err := zw.Close(); err != nil {
		return err
	}

	var frame bytes.Buffer
	if _, err := varint.WriteInt(&frame, int32(packetBody.Len())); err != nil {
		return err
	}
	frame.Write(compressed.Bytes())
	return writeLengthPrefixed(w, frame.Bytes())
}

func writeLengthPrefixed(w io.Writer, frame []byte) error {
	var lenBuf bytes.Buffer
	if _, err := varint.WriteInt(&lenBuf, int32(len(frame))); err != nil {
		return err
	}
	if _, err := w.Write(lenBuf.Bytes()); err != nil {
		return err
	}
	_, err := w.Write(frame)
	return err
}
