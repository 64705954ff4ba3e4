package replay

import (
	"encoding/json"
	"fmt"
	"net"
	"sync"

	"github.com/hashicorp/yamux"
)

// event is the wire shape pushed to every subscriber stream: a tag naming
// which Listener method fired, plus its JSON-encoded argument. Kept
// unexported since it's purely MultiplexedSink's own transport framing,
// not part of the Listener contract.
type event struct {
	Kind string `json:"kind"`
	Data any    `json:"data"`
}

// MultiplexedSink fans one decoded replay out to many live subscribers
// over a single net.Conn, yamux-multiplexed the same way handler.go's
// startMuxTunnel turns one Minecraft connection into many independent
// streams — here repurposed from tunneling arbitrary TCP traffic to
// broadcasting replay.Listener events, so a long capture can be watched
// by several attached clients (e.g. a live dashboard and a logger) without
// replaying the file twice.
type MultiplexedSink struct {
	mu      sync.Mutex
	session *yamux.Session
	streams []net.Conn
}

// NewMultiplexedSink starts a yamux server session over conn and begins
// accepting subscriber streams in the background, matching
// yamux.Server(mc, nil) + the Accept loop in handler.go's startMuxTunnel.
func NewMultiplexedSink(conn net.Conn) (*MultiplexedSink, error) {
	session, err := yamux.Server(conn, nil)
	if err != nil {
		return nil, fmt.Errorf("replay: start yamux session: %w", err)
	}
	s := &MultiplexedSink{session: session}
	go s.acceptLoop()
	return s, nil
}

func (s *MultiplexedSink) acceptLoop() {
	for {
		stream, err := s.session.Accept()
		if err != nil {
			return
		}
		s.mu.Lock()
		s.streams = append(s.streams, stream)
		s.mu.Unlock()
	}
}

// broadcast writes one newline-terminated JSON event to every live
// subscriber stream, closing and pruning any whose write fails in the same
// call — a disconnected viewer shouldn't stall the replay driving it.
func (s *MultiplexedSink) broadcast(kind string, data any) error {
	payload, err := json.Marshal(event{Kind: kind, Data: data})
	if err != nil {
		return err
	}
	payload = append(payload, '\n')

	s.mu.Lock()
	defer s.mu.Unlock()

	live := s.streams[:0]
	for _, stream := range s.streams {
		if _, err := stream.Write(payload); err == nil {
			live = append(live, stream)
		} else {
			stream.Close()
		}
	}
	s.streams = live
	return nil
}

// Close tears down the yamux session and every subscriber stream.
func (s *MultiplexedSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, stream := range s.streams {
		stream.Close()
	}
	return s.session.Close()
}

// The remaining methods implement Listener by broadcasting each event to
// every attached subscriber, so a MultiplexedSink can be passed directly
// to NewEngine as a live fan-out target.

func (s *MultiplexedSink) OnChat(message string) error {
	return s.broadcast("chat", message)
}

func (s *MultiplexedSink) OnPlayerInfo(username string, playerUUID [16]byte) error {
	return s.broadcast("player_info", map[string]any{
		"username": username,
		"uuid":     playerUUID,
	})
}

func (s *MultiplexedSink) OnPosition(pos Position) error {
	return s.broadcast("position", pos)
}

func (s *MultiplexedSink) OnInteract(use UseEntity) error {
	return s.broadcast("interact", use)
}

func (s *MultiplexedSink) OnTrades(raw []byte) error {
	return s.broadcast("trades", raw)
}
