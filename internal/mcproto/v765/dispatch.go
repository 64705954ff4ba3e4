// Package v765 is protocolgen's per-version root for protocol 765
// (Minecraft 1.20.4/1.20.5): one subpackage per ConnectionState
// (handshaking, status, login, play), each with its own DispatchC2S/
// DispatchS2C, tied together here into the single total dispatch
// function spec.md §4.6 describes.
package v765

import (
	"duneproxy/internal/mcproto"
	"duneproxy/internal/mcproto/v765/handshaking"
	"duneproxy/internal/mcproto/v765/login"
	"duneproxy/internal/mcproto/v765/play"
	"duneproxy/internal/mcproto/v765/status"
	"duneproxy/internal/wire"
)

// ProtocolVersion is the numeric protocol id this package was generated
// for, matching the "protocolVersion" field minecraft-data indexes its
// per-version schema directories by.
const ProtocolVersion = 765

// Dispatch is the single entry point every packet in every state and
// direction routes through: total over (state, direction, id) in the
// sense that every id registered in the schema this package was
// generated from has a decode case; anything else returns
// mcproto.ErrUnknownPacket (spec.md §4.6's totality requirement, and
// spec.md §8's testable property #7).
func Dispatch(state mcproto.ConnectionState, dir mcproto.PacketDirection, id int32, r *wire.Reader) (any, error) {
	switch state {
	case mcproto.Handshaking:
		if dir == mcproto.ClientToServer {
			return handshaking.DispatchC2S(id, r)
		}
		return handshaking.DispatchS2C(id, r)
	case mcproto.Status:
		if dir == mcproto.ClientToServer {
			return status.DispatchC2S(id, r)
		}
		return status.DispatchS2C(id, r)
	case mcproto.Login:
		if dir == mcproto.ClientToServer {
			return login.DispatchC2S(id, r)
		}
		return login.DispatchS2C(id, r)
	default:
		if dir == mcproto.ClientToServer {
			return play.DispatchC2S(id, r)
		}
		return play.DispatchS2C(id, r)
	}
}
