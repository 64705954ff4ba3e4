package proxy

import (
	"bytes"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/binary"
	"net"
	"net/http"
	"testing"
	"time"

	"duneproxy/internal/codec"
	"duneproxy/internal/logging"
	"duneproxy/internal/mcproto"
	"duneproxy/internal/varint"
)

func newTestSession() *ProxySession {
	clientConn, _ := net.Pipe()
	serverConn, _ := net.Pipe()
	return &ProxySession{
		client: newLeg(clientConn),
		server: newLeg(serverConn),
		shared: sharedState{threshold: -1},
		log:    logging.Default(),
	}
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

// TestInspectSetProtocolAdvancesState feeds a handshaking SetProtocolRequest
// (next_state=2, i.e. Login) and checks the session's shared state machine
// transitions out of Handshaking, matching spec.md §3.
func TestInspectSetProtocolAdvancesState(t *testing.T) {
	s := newTestSession()

	var payload bytes.Buffer
	payload.Write(varintBytes(765))                  // protocol version
	payload.Write(stringBytes("play.example.com"))    // server host
	binary.Write(&payload, binary.BigEndian, uint16(25565)) // server port
	payload.Write(varintBytes(2))                     // next_state = Login

	s.inspect(mcproto.ClientToServer, &codec.Frame{PacketID: 0x00, Payload: payload.Bytes()})

	if s.shared.state != mcproto.Login {
		t.Fatalf("state = %v, want Login", s.shared.state)
	}
}

// TestInspectCompressSetsThreshold feeds a Login CompressResponse and
// checks the shared compression threshold is picked up for subsequent
// frames, matching spec.md §4.6.
func TestInspectCompressSetsThreshold(t *testing.T) {
	s := newTestSession()
	s.shared.state = mcproto.Login

	payload := varintBytes(512)
	s.inspect(mcproto.ServerToClient, &codec.Frame{PacketID: 0x03, Payload: payload})

	if s.shared.threshold != 512 {
		t.Fatalf("threshold = %d, want 512", s.shared.threshold)
	}
}

// TestInspectSuccessEntersPlay feeds a Login SuccessResponse and checks the
// session transitions to the terminal Play state.
func TestInspectSuccessEntersPlay(t *testing.T) {
	s := newTestSession()
	s.shared.state = mcproto.Login

	var payload bytes.Buffer
	payload.Write(make([]byte, 16)) // uuid
	payload.Write(stringBytes("Notch"))

	s.inspect(mcproto.ServerToClient, &codec.Frame{PacketID: 0x02, Payload: payload.Bytes()})

	if s.shared.state != mcproto.Play {
		t.Fatalf("state = %v, want Play", s.shared.state)
	}
	if !s.shared.startDone {
		t.Fatal("startDone = false, want true after SuccessResponse")
	}
}

// TestInspectUnknownPacketDoesNotPanic ensures an id the current state has
// no packet registered for is simply logged and skipped, per spec.md §4.6's
// totality requirement — the frame must still be forwardable even though it
// wasn't understood.
func TestInspectUnknownPacketDoesNotPanic(t *testing.T) {
	s := newTestSession()
	s.shared.state = mcproto.Handshaking

	s.inspect(mcproto.ClientToServer, &codec.Frame{PacketID: 0x7F, Payload: []byte{1, 2, 3}})

	if s.shared.state != mcproto.Handshaking {
		t.Fatalf("state = %v, want unchanged Handshaking", s.shared.state)
	}
}

// roundTripFunc lets a test stand in for the Mojang session-join call
// without reaching the network, the same role a fake transport plays in
// any http.Client-based test.
type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

func fakeSessionJoinClient() *http.Client {
	return &http.Client{Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
		return &http.Response{
			StatusCode: http.StatusNoContent,
			Body:       http.NoBody,
			Header:     make(http.Header),
		}, nil
	})}
}

// TestPumpSuppressesEncryptionBeginResponse feeds a Login EncryptionBeginResponse
// frame through pump (server -> client direction) and asserts nothing is
// forwarded to the client leg: the action table must suppress the original
// frame after synthesizing and sending its own reply upstream, per spec.md
// §4.8's "suppress the original frame" rule for this packet.
func TestPumpSuppressesEncryptionBeginResponse(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 1024)
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	pubDER, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	if err != nil {
		t.Fatalf("MarshalPKIXPublicKey: %v", err)
	}

	var payload bytes.Buffer
	payload.Write(stringBytes(""))        // server id
	payload.Write(varintBytes(int32(len(pubDER))))
	payload.Write(pubDER)
	verifyToken := []byte{1, 2, 3, 4}
	payload.Write(varintBytes(int32(len(verifyToken))))
	payload.Write(verifyToken)

	var frameBuf bytes.Buffer
	if err := codec.EncodeFrame(&frameBuf, 0x01, payload.Bytes(), -1); err != nil {
		t.Fatalf("EncodeFrame: %v", err)
	}

	clientConn, clientPeer := net.Pipe()
	serverConn, serverPeer := net.Pipe()
	defer clientConn.Close()
	defer clientPeer.Close()
	defer serverConn.Close()
	defer serverPeer.Close()

	s := &ProxySession{
		client:     newLeg(clientConn),
		server:     newLeg(serverConn),
		shared:     sharedState{state: mcproto.Login, threshold: -1},
		auth:       AuthData{AccessToken: "token"},
		httpClient: fakeSessionJoinClient(),
		log:        logging.Default(),
	}

	serverDone := make(chan struct{})
	go func() {
		defer close(serverDone)
		serverPeer.Write(frameBuf.Bytes())
		reply := make([]byte, 1024)
		serverPeer.SetReadDeadline(time.Now().Add(2 * time.Second))
		serverPeer.Read(reply) // drain the synthesized EncryptionBeginRequest reply
		serverPeer.Close()
	}()

	if err := s.pump(s.server, s.client, mcproto.ServerToClient); err == nil {
		t.Fatal("pump: expected an error once the server pipe closes, got nil")
	}
	<-serverDone

	buf := make([]byte, 64)
	clientPeer.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
	if _, err := clientPeer.Read(buf); err == nil {
		t.Fatal("client leg received a frame; EncryptionBeginResponse should have been suppressed")
	} else if ne, ok := err.(net.Error); !ok || !ne.Timeout() {
		t.Fatalf("client leg read error = %v, want a timeout (nothing was ever written)", err)
	}
}
