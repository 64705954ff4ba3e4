// Command duneproxy masquerades as a Minecraft server, recording the
// traffic of every player who connects through it to the real upstream
// server, and can play a recorded capture back through a Listener. Flat
// os.Args subcommand dispatch follows the teacher's main.go, which
// branches on os.Args[1] for its own version flag rather than reaching for
// a flag-parsing framework.
package main

import (
	"fmt"
	"net"
	"os"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"duneproxy/internal/capture"
	"duneproxy/internal/config"
	"duneproxy/internal/logging"
	"duneproxy/internal/mcproto/v765"
	"duneproxy/internal/proxy"
	"duneproxy/internal/replay"
)

const version = "0.1.0"

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "-v", "--version", "--about":
		fmt.Printf("duneproxy v%s\n", version)
	case "record":
		runRecord(os.Args[2:])
	case "replay":
		runReplay(os.Args[2:])
	default:
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: duneproxy record <config.yaml> | replay <config.yaml> <capture-file> [fanout-addr]")
}

// runRecord loads cfg, opens a capture file per accepted connection, and
// relays each one through a proxy.ProxySession, mirroring record.rs's
// record_to_file entry point but with Go's net.Listener accept loop in
// place of a standalone run() poller — the teacher's main()/handleConnection
// shape, generalized to this domain's per-connection capture lifecycle.
func runRecord(args []string) {
	if len(args) < 1 {
		usage()
		os.Exit(1)
	}
	cfg, err := config.Load(args[0])
	if err != nil {
		logging.Default().Fatal("load config: %v", err)
	}
	if err := logging.SetLevelFromString(cfg.LogLevel); err != nil {
		logging.Default().Warn("%v", err)
	}
	log := logging.Default()

	var auth proxy.AuthData
	if cfg.CredentialsPath != "" {
		auth, err = loadAuthData(cfg.CredentialsPath)
		if err != nil {
			log.Fatal("load credentials: %v", err)
		}
	}

	listener, err := net.Listen("tcp", cfg.ListenAddr)
	if err != nil {
		log.Fatal("listen on %s: %v", cfg.ListenAddr, err)
	}
	log.Info("duneproxy recording on %s -> %s (protocol %d)", cfg.ListenAddr, cfg.UpstreamAddr, cfg.ProtocolVersion)

	for {
		conn, err := listener.Accept()
		if err != nil {
			log.Warn("accept: %v", err)
			continue
		}
		go serveRecordConnection(conn, cfg, auth, log)
	}
}

func serveRecordConnection(conn net.Conn, cfg *config.Config, auth proxy.AuthData, log *logging.Logger) {
	defer func() {
		if r := recover(); r != nil {
			log.Error("recovered from panic in session: %v", r)
			conn.Close()
		}
	}()

	sessionID := uuid.New()
	var journal *capture.Writer
	if cfg.CapturePath != "" {
		path := fmt.Sprintf("%s/%s.dpc", cfg.CapturePath, sessionID)
		f, err := os.Create(path)
		if err != nil {
			log.Error("create capture file %s: %v", path, err)
		} else {
			defer f.Close()
			if err := capture.WriteHeader(f, capture.SessionHeader{
				SessionID:       sessionID,
				ProtocolVersion: int32(v765.ProtocolVersion),
			}); err != nil {
				log.Error("write capture header: %v", err)
			} else if w, err := capture.NewWriter(f); err != nil {
				log.Error("open capture stream: %v", err)
			} else {
				journal = w
			}
		}
	}

	session, err := proxy.NewProxySession(conn, cfg.UpstreamAddr, auth, journal, log)
	if err != nil {
		log.Error("start session %s: %v", sessionID, err)
		conn.Close()
		return
	}
	log.Info("session %s started", sessionID)
	if err := session.Run(); err != nil {
		log.Info("session %s ended: %v", sessionID, err)
	}
}

// runReplay drives a capture file through replay.Engine with a listener
// that logs chat, player-info, position and interaction events (trade
// lists are not logged), the CLI-facing counterpart of
// dune_lib::replay::play used directly from dune/src/main.rs. A third,
// optional argument names an address to accept one transport connection
// on and fan every replayed event out to its yamux-multiplexed subscriber
// streams (SPEC_FULL.md §3: internal/replay.MultiplexedSink), so a
// dashboard or bot driver can watch the same replay live.
func runReplay(args []string) {
	if len(args) < 2 {
		usage()
		os.Exit(1)
	}
	cfg, err := config.Load(args[0])
	if err != nil {
		logging.Default().Fatal("load config: %v", err)
	}
	if err := logging.SetLevelFromString(cfg.LogLevel); err != nil {
		logging.Default().Warn("%v", err)
	}
	log := logging.Default()

	listeners := []replay.Listener{&loggingListener{log: log}}

	if len(args) >= 3 {
		sink, err := acceptFanoutSink(args[2], log)
		if err != nil {
			log.Fatal("fanout: %v", err)
		}
		defer sink.Close()
		listeners = append(listeners, sink)
	}

	engine := replay.NewEngine(&multiListener{listeners: listeners})
	if err := engine.PlayFile(args[1]); err != nil {
		log.Fatal("replay %s: %v", args[1], err)
	}
}

// acceptFanoutSink listens on addr and blocks for a single inbound
// transport connection (the yamux session carrying every live subscriber
// stream), matching handler.go's own startMuxTunnel accept-then-multiplex
// shape now repurposed for replay fan-out instead of tunnel impersonation.
func acceptFanoutSink(addr string, log *logging.Logger) (*replay.MultiplexedSink, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", addr, err)
	}
	defer listener.Close()

	log.Info("fanout: waiting for a subscriber transport on %s", addr)
	conn, err := listener.Accept()
	if err != nil {
		return nil, fmt.Errorf("accept on %s: %w", addr, err)
	}
	log.Info("fanout: transport connected from %s", conn.RemoteAddr())
	return replay.NewMultiplexedSink(conn)
}

// loadAuthData reads a small YAML credentials file
// ({selected_profile, access_token}) separately from the main config, so a
// capture directory and credentials can be rotated independently.
func loadAuthData(path string) (proxy.AuthData, error) {
	f, err := os.Open(path)
	if err != nil {
		return proxy.AuthData{}, err
	}
	defer f.Close()

	var raw struct {
		SelectedProfile string `yaml:"selected_profile"`
		AccessToken     string `yaml:"access_token"`
	}
	if err := yaml.NewDecoder(f).Decode(&raw); err != nil {
		return proxy.AuthData{}, err
	}
	profile, err := uuid.Parse(raw.SelectedProfile)
	if err != nil {
		return proxy.AuthData{}, fmt.Errorf("credentials: invalid selected_profile: %w", err)
	}
	return proxy.AuthData{SelectedProfile: profile, AccessToken: raw.AccessToken}, nil
}

// loggingListener is a minimal replay.Listener that logs chat, player-info,
// position and interaction events (OnTrades falls through to the embedded
// NopListener and logs nothing), standing in for a real consumer (a dashboard, a bot) the way
// dune/src/main.rs's EventHandler stood in for one in the original.
type loggingListener struct {
	replay.NopListener
	log *logging.Logger
}

func (l *loggingListener) OnChat(message string) error {
	l.log.Info("chat: %s", message)
	return nil
}

func (l *loggingListener) OnPlayerInfo(username string, playerUUID [16]byte) error {
	l.log.Info("player info: %s %x", username, playerUUID)
	return nil
}

func (l *loggingListener) OnPosition(pos replay.Position) error {
	l.log.Debug("position: %.2f %.2f %.2f", pos.X, pos.Y, pos.Z)
	return nil
}

func (l *loggingListener) OnInteract(use replay.UseEntity) error {
	l.log.Info("interact: entity=%d kind=%s", use.EntityID, use.Kind)
	return nil
}

// multiListener fans every replay.Listener callback out to each of its
// listeners in order, stopping at (and returning) the first error, so
// runReplay can drive the logging listener and an optional
// replay.MultiplexedSink from the same engine.
type multiListener struct {
	listeners []replay.Listener
}

func (m *multiListener) OnChat(message string) error {
	for _, l := range m.listeners {
		if err := l.OnChat(message); err != nil {
			return err
		}
	}
	return nil
}

func (m *multiListener) OnPlayerInfo(username string, playerUUID [16]byte) error {
	for _, l := range m.listeners {
		if err := l.OnPlayerInfo(username, playerUUID); err != nil {
			return err
		}
	}
	return nil
}

func (m *multiListener) OnPosition(pos replay.Position) error {
	for _, l := range m.listeners {
		if err := l.OnPosition(pos); err != nil {
			return err
		}
	}
	return nil
}

func (m *multiListener) OnInteract(use replay.UseEntity) error {
	for _, l := range m.listeners {
		if err := l.OnInteract(use); err != nil {
			return err
		}
	}
	return nil
}

func (m *multiListener) OnTrades(raw []byte) error {
	for _, l := range m.listeners {
		if err := l.OnTrades(raw); err != nil {
			return err
		}
	}
	return nil
}
