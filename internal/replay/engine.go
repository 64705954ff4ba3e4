// Package replay implements ReplayEngine: reading a capture file back and
// driving a Listener with the high-level events it contains, grounded on
// dune_lib/src/replay.rs::TrafficPlayer and proxy_lib/src/player.rs's
// earlier version of the same pattern (both: open file, track
// ConnectionState locally, deserialize each DiskPacket, match on a handful
// of packet types, call the corresponding handler method, ignore the
// rest).
package replay

import (
	"fmt"
	"io"
	"os"

	"duneproxy/internal/capture"
	"duneproxy/internal/mcproto"
	"duneproxy/internal/mcproto/v765"
	"duneproxy/internal/mcproto/v765/handshaking"
	"duneproxy/internal/mcproto/v765/login"
	"duneproxy/internal/mcproto/v765/play"
	"duneproxy/internal/wire"
)

// Position is the high-level (x, y, z) a Listener receives from either a
// PositionRequest (player-authoritative) or PositionResponse
// (server-authoritative teleport), matching record.rs/replay.rs's shared
// events::Position.
type Position struct {
	X, Y, Z float64
}

// UseEntity is the high-level form of a decoded play.UseEntityRequest
// handed to a Listener, collapsing the three wire kinds (interact, attack,
// interact_at) spec.md §4.4 describes into one event plus its kind tag.
type UseEntity struct {
	EntityID int32
	Kind     string
}

// Listener receives high-level events as a capture file replays, the Go
// analogue of dune_lib::events::EventSubscriber. A Listener that only
// cares about a subset of events can embed NopListener and override just
// the methods it needs.
type Listener interface {
	OnChat(message string) error
	OnPlayerInfo(username string, playerUUID [16]byte) error
	OnPosition(pos Position) error
	OnInteract(use UseEntity) error
	OnTrades(raw []byte) error
}

// NopListener implements Listener with no-ops, for embedding.
type NopListener struct{}

func (NopListener) OnChat(string) error                  { return nil }
func (NopListener) OnPlayerInfo(string, [16]byte) error   { return nil }
func (NopListener) OnPosition(Position) error             { return nil }
func (NopListener) OnInteract(UseEntity) error            { return nil }
func (NopListener) OnTrades([]byte) error                 { return nil }

// Engine replays one capture file against a Listener, tracking
// ConnectionState locally exactly as TrafficPlayer does — the capture
// itself carries no state annotations, only raw (id, direction, payload)
// entries, so the replayer must walk the same state machine the original
// session did to know which dispatch table applies to each entry.
type Engine struct {
	listener Listener
	state    mcproto.ConnectionState
}

// NewEngine builds a replay engine that will call back into listener.
func NewEngine(listener Listener) *Engine {
	return &Engine{listener: listener, state: mcproto.Handshaking}
}

// PlayFile opens path, reads its SessionHeader, and replays every entry in
// order until the capture ends, matching dune_lib/src/replay.rs::play.
func (e *Engine) PlayFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("replay: open %s: %w", path, err)
	}
	defer f.Close()

	header, err := capture.ReadHeader(f)
	if err != nil {
		return fmt.Errorf("replay: read header: %w", err)
	}
	if header.ProtocolVersion != v765.ProtocolVersion {
		return fmt.Errorf("replay: capture is protocol %d, this build only replays %d", header.ProtocolVersion, v765.ProtocolVersion)
	}

	r, err := capture.NewReader(f)
	if err != nil {
		return fmt.Errorf("replay: open capture stream: %w", err)
	}
	defer r.Close()

	var count int
	for {
		entry, err := r.ReadEntry()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("replay: read entry #%d: %w", count, err)
		}
		if perr := e.doEntry(entry); perr != nil {
			// A single malformed or not-yet-understood entry shouldn't
			// abort the whole replay, matching replay.rs's warn!() and
			// continue on do_packet errors.
			fmt.Fprintf(os.Stderr, "replay: entry #%d: %v\n", count, perr)
		}
		count++
	}
	return nil
}

// doEntry decodes one entry against the engine's current state, advances
// that state on the packets that change it, and dispatches to the
// listener on the handful of packet types replay.rs/player.rs call out.
func (e *Engine) doEntry(entry *capture.Entry) error {
	r := wire.NewReader(entry.Payload)
	pkt, err := v765.Dispatch(e.state, entry.Direction, int32(entry.PacketID), r)
	if err != nil {
		return err
	}

	switch p := pkt.(type) {
	case *handshaking.SetProtocolRequest:
		if p.NextState == 1 {
			e.state = mcproto.Status
		} else {
			e.state = mcproto.Login
		}

	case *login.SuccessResponse:
		e.state = mcproto.Play
		return e.listener.OnPlayerInfo(p.Username, p.Uuid)

	case *play.ChatMessageRequest:
		return e.listener.OnChat(p.Message)

	case *play.ChatMessageResponse:
		return e.listener.OnChat(p.Message)

	case *play.PositionRequest:
		return e.listener.OnPosition(Position{X: p.X, Y: p.Y, Z: p.Z})

	case *play.PositionResponse:
		return e.listener.OnPosition(Position{X: p.X, Y: p.Y, Z: p.Z})

	case *play.UseEntityRequest:
		return e.listener.OnInteract(UseEntity{EntityID: p.EntityId, Kind: p.Kind})

	case *play.TradeListResponse:
		return e.listener.OnTrades(p.Raw)
	}
	return nil
}
