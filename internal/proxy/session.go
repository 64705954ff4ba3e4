package proxy

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"duneproxy/internal/capture"
	"duneproxy/internal/codec"
	"duneproxy/internal/logging"
	"duneproxy/internal/mcproto"
	"duneproxy/internal/mcproto/v765"
	"duneproxy/internal/mcproto/v765/handshaking"
	"duneproxy/internal/mcproto/v765/login"
	"duneproxy/internal/mcproto/v765/play"
	"duneproxy/internal/wire"
)

// leg is one physical TCP endpoint of a proxied session: either the
// locally-accepted player connection or the proxy's own connection out to
// the real server. It carries its own optional encryption, mirroring
// record.rs::Session{read_buf, write_buf, crypt}. Only the server leg ever
// has crypt installed (see DESIGN.md and SPEC_FULL.md §10): the player
// never needs to speak encrypted Minecraft to the proxy.
type leg struct {
	conn  net.Conn
	br    *bufio.Reader
	crypt atomic.Pointer[Crypt]
}

func newLeg(conn net.Conn) *leg {
	return &leg{conn: conn, br: bufio.NewReaderSize(conn, 4096)}
}

// Read satisfies io.Reader, decrypting in place with this leg's current
// crypt (if any has been installed) after the underlying buffered read.
func (l *leg) Read(p []byte) (int, error) {
	n, err := l.br.Read(p)
	if n > 0 {
		if c := l.crypt.Load(); c != nil {
			c.Decrypt(p[:n])
		}
	}
	return n, err
}

// ReadByte lets codec.ReadFrame's VarInt length-prefix reader avoid the
// byte-at-a-time adapter it would otherwise need.
func (l *leg) ReadByte() (byte, error) {
	b, err := l.br.ReadByte()
	if err != nil {
		return 0, err
	}
	if c := l.crypt.Load(); c != nil {
		buf := [1]byte{b}
		c.Decrypt(buf[:])
		b = buf[0]
	}
	return b, nil
}

// Write satisfies io.Writer, encrypting a private copy of p (never the
// caller's own buffer) before handing it to the connection.
func (l *leg) Write(p []byte) (int, error) {
	if c := l.crypt.Load(); c != nil {
		buf := make([]byte, len(p))
		copy(buf, p)
		c.Encrypt(buf)
		return l.conn.Write(buf)
	}
	return l.conn.Write(p)
}

func (l *leg) installCrypt(c *Crypt) { l.crypt.Store(c) }

// sharedState is the mutable session-wide state both direction goroutines
// read and mutate: the connection state machine, compression threshold,
// and login bookkeeping, matching the fields record.rs's single-threaded
// Proxy struct keeps (state, compression, start_done) but now guarded by a
// mutex since two goroutines touch them (SPEC_FULL.md §6).
type sharedState struct {
	mu          sync.Mutex
	state       mcproto.ConnectionState
	threshold   int // -1 until CompressResponse is observed
	startDone   bool
	verifyToken []byte
}

// ProxySession owns one accepted player connection and its dialed
// upstream counterpart, relaying frames in both directions while applying
// spec.md §4.8's per-packet action table and appending every frame to a
// CaptureJournal. Grounded on record.rs::Proxy + run()/record_to_file(),
// translated from its single-threaded polling::Poller loop into one
// goroutine per direction (SPEC_FULL.md §5/§6).
type ProxySession struct {
	client *leg
	server *leg

	shared sharedState

	journal  *capture.Writer
	sourceID uuid.UUID

	auth       AuthData
	httpClient *http.Client

	log *logging.Logger
}

// NewProxySession dials upstreamAddr and wraps both connections, ready for
// Run to start relaying. journal may be nil to disable recording.
func NewProxySession(clientConn net.Conn, upstreamAddr string, auth AuthData, journal *capture.Writer, log *logging.Logger) (*ProxySession, error) {
	serverConn, err := net.Dial("tcp", upstreamAddr)
	if err != nil {
		return nil, fmt.Errorf("proxy: dial upstream %s: %w", upstreamAddr, err)
	}
	if log == nil {
		log = logging.Default()
	}
	return &ProxySession{
		client:     newLeg(clientConn),
		server:     newLeg(serverConn),
		shared:     sharedState{threshold: -1},
		journal:    journal,
		sourceID:   uuid.New(),
		auth:       auth,
		httpClient: &http.Client{},
		log:        log,
	}, nil
}

// Run relays both directions until either side closes or errors,
// returning the first error observed (io.EOF on a clean close is
// swallowed). It blocks until both direction goroutines exit.
func (s *ProxySession) Run() error {
	errc := make(chan error, 2)
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		errc <- s.pump(s.client, s.server, mcproto.ClientToServer)
		s.client.conn.Close()
		s.server.conn.Close()
	}()
	go func() {
		defer wg.Done()
		errc <- s.pump(s.server, s.client, mcproto.ServerToClient)
		s.client.conn.Close()
		s.server.conn.Close()
	}()
	wg.Wait()
	close(errc)

	if s.journal != nil {
		s.journal.Close()
	}

	first := <-errc
	if errors.Is(first, io.EOF) {
		return nil
	}
	return first
}

// pump reads frames from src, applies the per-packet action table, journals
// the frame, and forwards it to dst — the goroutine-per-direction analogue
// of record.rs's forward()/on_recv() pair, called once per readable frame
// instead of once per poll-ready event.
func (s *ProxySession) pump(src, dst *leg, dir mcproto.PacketDirection) error {
	for {
		s.shared.mu.Lock()
		threshold := s.shared.threshold
		s.shared.mu.Unlock()

		frame, err := codec.ReadFrame(src, threshold)
		if err != nil {
			return err
		}

		suppress := s.inspect(dir, frame)

		if s.journal != nil {
			id := uint32(frame.PacketID)
			if werr := s.journal.WritePacket(id, dir, frame.Payload); werr != nil {
				s.log.Warn("capture write failed: %v", werr)
			}
		}

		if suppress {
			continue
		}

		s.shared.mu.Lock()
		writeThreshold := s.shared.threshold
		s.shared.mu.Unlock()
		if err := codec.EncodeFrame(dst, frame.PacketID, frame.Payload, writeThreshold); err != nil {
			return err
		}
	}
}

// inspect decodes frame against the currently-known state and acts on the
// packets spec.md §4.8's action table names: state transitions, enabling
// compression, and driving the full Mojang-auth + crypto-install sequence
// on EncryptionBeginResponse. Decode failures are logged, not fatal — an
// unrecognized or partially-understood packet still forwards unchanged.
// The bool return reports whether the action table handled this frame by
// synthesizing its own reply, in which case pump must suppress the
// original frame rather than also forwarding it unchanged (spec.md §4.8:
// EncryptionBeginResponse is replaced end-to-end, never relayed verbatim).
func (s *ProxySession) inspect(dir mcproto.PacketDirection, frame *codec.Frame) bool {
	s.shared.mu.Lock()
	state := s.shared.state
	s.shared.mu.Unlock()

	r := wire.NewReader(frame.Payload)
	pkt, err := v765.Dispatch(state, dir, frame.PacketID, r)
	if err != nil {
		s.log.Debug("dispatch(%s,%s,0x%x): %v", state, dir, frame.PacketID, err)
		return false
	}

	switch p := pkt.(type) {
	case *handshaking.SetProtocolRequest:
		s.shared.mu.Lock()
		if p.NextState == 1 {
			s.shared.state = mcproto.Status
		} else {
			s.shared.state = mcproto.Login
		}
		s.shared.mu.Unlock()

	case *login.CompressResponse:
		s.shared.mu.Lock()
		if p.Threshold >= 0 {
			s.shared.threshold = int(p.Threshold)
		} else {
			s.shared.threshold = -1
		}
		s.shared.mu.Unlock()

	case *login.SuccessResponse:
		s.shared.mu.Lock()
		s.shared.state = mcproto.Play
		s.shared.startDone = true
		s.shared.mu.Unlock()

	case *login.EncryptionBeginResponse:
		if err := s.handleEncryptionBegin(p); err != nil {
			s.log.Error("encryption handshake failed: %v", err)
		}
		return true

	case *play.KeepAliveRequest:
		// no action needed beyond forwarding; named only so the action
		// table's switch documents every packet it considered.
	}
	return false
}

// handleEncryptionBegin runs the full sequence record.rs::on_start's
// EncryptionBeginResponse arm performs: generate a shared secret, join the
// Mojang session server, RSA-encrypt the reply, write it to the server
// leg, then install AES-128-CFB8 on that same leg. Per SPEC_FULL.md §10,
// encryption is installed only on the upstream (server) leg — the proxy
// never needs to speak encrypted Minecraft to the locally-accepted player.
func (s *ProxySession) handleEncryptionBegin(p *login.EncryptionBeginResponse) error {
	secret, err := RandomSharedSecret()
	if err != nil {
		return fmt.Errorf("generate shared secret: %w", err)
	}

	if err := JoinSession(s.httpClient, s.auth, secret[:], p.PublicKey); err != nil {
		return fmt.Errorf("mojang session join: %w", err)
	}

	encSecret, err := RSAEncryptPKCS1v15(p.PublicKey, secret[:])
	if err != nil {
		return fmt.Errorf("rsa-encrypt shared secret: %w", err)
	}
	encToken, err := RSAEncryptPKCS1v15(p.PublicKey, p.VerifyToken)
	if err != nil {
		return fmt.Errorf("rsa-encrypt verify token: %w", err)
	}

	reply := encodeEncryptionBeginRequest(encSecret, encToken)
	if _, err := s.server.conn.Write(reply); err != nil {
		return fmt.Errorf("write encryption response: %w", err)
	}

	crypt, err := NewCrypt(secret[:])
	if err != nil {
		return fmt.Errorf("build AES-128-CFB8 streams: %w", err)
	}
	s.server.installCrypt(crypt)
	return nil
}

// encodeEncryptionBeginRequest serializes a raw (packet id 0x01,
// varint-len-prefixed shared secret, varint-len-prefixed verify token)
// frame, outer-wrapped with its own varint size prefix — matching
// record.rs::Proxy::serialize_enc_response exactly. Written directly
// rather than through codec.EncodeFrame since this reply must go out
// uncompressed and unencrypted, before this leg's crypt is installed.
func encodeEncryptionBeginRequest(sharedSecret, verifyToken []byte) []byte {
	var body []byte
	body = append(body, 0x01)
	body = appendVarInt(body, int32(len(sharedSecret)))
	body = append(body, sharedSecret...)
	body = appendVarInt(body, int32(len(verifyToken)))
	body = append(body, verifyToken...)

	var out []byte
	out = appendVarInt(out, int32(len(body)))
	out = append(out, body...)
	return out
}

func appendVarInt(buf []byte, value int32) []byte {
	v := uint32(value)
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if v != 0 {
			b |= 0x80
		}
		buf = append(buf, b)
		if v == 0 {
			return buf
		}
	}
}
