// Package config loads duneproxy's YAML configuration, following the
// teacher's shape exactly: a single flat Config struct with yaml tags,
// decoded with yaml.NewDecoder, with a couple of defaults applied after
// decode (main.go applies the same pattern for ProtocolID/MaxPlayers).
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds every setting either the record or the replay subcommand
// needs; both subcommands load the same file and ignore the fields that
// don't apply to them, matching the teacher's single Config struct
// covering both the main listener and the subscription server.
type Config struct {
	ListenAddr   string `yaml:"listen_addr"`
	UpstreamAddr string `yaml:"upstream_addr"`

	ProtocolVersion int `yaml:"protocol_version"`

	CompressionThreshold int `yaml:"compression_threshold"`

	CapturePath string `yaml:"capture_path"`

	CredentialsPath string `yaml:"credentials_path"`

	LogLevel string `yaml:"log_level"`
}

// Load reads and decodes path, then applies defaults for anything left
// zero, mirroring main.go's post-decode default-filling for ProtocolID
// and MaxPlayers.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %s: %w", path, err)
	}
	defer f.Close()

	var cfg Config
	decoder := yaml.NewDecoder(f)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("config: decode %s: %w", path, err)
	}

	if cfg.ProtocolVersion == 0 {
		cfg.ProtocolVersion = 765
	}
	if cfg.CompressionThreshold == 0 {
		cfg.CompressionThreshold = 256
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}

	return &cfg, nil
}
