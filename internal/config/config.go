// Package config decodes the per-relay TOML shape spec §6.3 defines
// (`[relay]`, `[transport]`, `[validation]`, `[topics]`, `[performance]`)
// and enforces its load-time validations, the way
// stellar-live-source/go/server/config.go layers environment overrides
// over TOML/defaults — but via pelletier/go-toml/v2 instead of raw
// os.Getenv parsing, since a relay config is a file, not a flat env var
// set.
package config

import (
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"
	"go.uber.org/multierr"

	"github.com/dawsh2/torq/pkg/torqerr"
)

// ExtractionStrategy selects how a relay extracts a topic string from a
// published message (spec §4.4/§6.3).
type ExtractionStrategy string

const (
	StrategySourceType     ExtractionStrategy = "SourceType"
	StrategyInstrumentVenue ExtractionStrategy = "InstrumentVenue"
	StrategyCustomField    ExtractionStrategy = "CustomField"
	StrategyFixed          ExtractionStrategy = "Fixed"
)

// RelaySection is TOML's `[relay]`.
type RelaySection struct {
	Domain      uint8  `toml:"domain"`
	Name        string `toml:"name"`
	Description string `toml:"description"`
}

// TransportSection is TOML's `[transport]`.
type TransportSection struct {
	Mode        string `toml:"mode"` // unix_socket, tcp, udp, message_queue
	Path        string `toml:"path"`
	Address     string `toml:"address"`
	Port        int    `toml:"port"`
	UseTopology bool   `toml:"use_topology"`
}

// ValidationSection is TOML's `[validation]`.
type ValidationSection struct {
	Checksum       bool `toml:"checksum"`
	Audit          bool `toml:"audit"`
	Strict         bool `toml:"strict"`
	MaxMessageSize int  `toml:"max_message_size"`
}

// TopicsSection is TOML's `[topics]`.
type TopicsSection struct {
	Default            string             `toml:"default"`
	Available          []string           `toml:"available"`
	AutoDiscover       bool               `toml:"auto_discover"`
	ExtractionStrategy ExtractionStrategy `toml:"extraction_strategy"`
	// CustomFieldOffset is the byte offset CustomField extraction reads a
	// little-endian uint16 from, within the domain's default topic TLV
	// type's payload (resolved Open Question, SPEC_FULL.md §9).
	CustomFieldOffset int `toml:"custom_field_offset"`
}

// PerformanceSection is TOML's `[performance]`.
type PerformanceSection struct {
	TargetThroughput int  `toml:"target_throughput"`
	BufferSize       int  `toml:"buffer_size"`
	MaxConnections   int  `toml:"max_connections"`
	BatchSize        int  `toml:"batch_size"`
	Monitoring       bool `toml:"monitoring"`
}

// RelayConfig is the fully decoded, validated per-relay configuration.
type RelayConfig struct {
	Relay       RelaySection       `toml:"relay"`
	Transport   TransportSection   `toml:"transport"`
	Validation  ValidationSection  `toml:"validation"`
	Topics      TopicsSection      `toml:"topics"`
	Performance PerformanceSection `toml:"performance"`

	CleanupInterval   time.Duration
	ConnectionTimeout time.Duration
}

// defaultCleanupInterval and defaultConnectionTimeout satisfy §6.3's
// stated minimums; Load applies them when the TORQ_CLEANUP_INTERVAL_MS /
// TORQ_CONNECTION_TIMEOUT_MS environment variables are unset or unparsable.
const (
	defaultCleanupInterval   = 1 * time.Second
	defaultConnectionTimeout = 10 * time.Second
)

// Load reads and decodes raw TOML bytes into a validated RelayConfig,
// then layers TORQ_CLEANUP_INTERVAL_MS / TORQ_CONNECTION_TIMEOUT_MS
// environment overrides on top, the way the teacher's config.go layers
// env vars over struct defaults.
func Load(raw []byte) (RelayConfig, error) {
	var cfg RelayConfig
	if err := toml.Unmarshal(raw, &cfg); err != nil {
		return RelayConfig{}, torqerr.Wrap(torqerr.Configuration, "config.Load", err)
	}

	cfg.CleanupInterval = durationEnvOrDefault("TORQ_CLEANUP_INTERVAL_MS", defaultCleanupInterval)
	cfg.ConnectionTimeout = durationEnvOrDefault("TORQ_CONNECTION_TIMEOUT_MS", defaultConnectionTimeout)

	if err := Validate(cfg); err != nil {
		return RelayConfig{}, err
	}
	return cfg, nil
}

// Validate enforces spec §6.3's load-time checks: relay.domain in 1-3, a
// nonzero performance.buffer_size, cleanup interval ≥ 100ms, connection
// timeout ≥ 5s, the address fields the transport mode needs, and a
// non-negative custom_field_offset. Every violated check is accumulated via
// multierr rather than stopping at the first failure, so an operator
// fixing a malformed config file sees every problem in one pass instead
// of one per Load attempt.
func Validate(cfg RelayConfig) error {
	var errs error
	if cfg.Relay.Domain < 1 || cfg.Relay.Domain > 3 {
		errs = multierr.Append(errs, torqerr.New(torqerr.Configuration, "config.Validate", "relay.domain must be 1, 2, or 3"))
	}
	if cfg.Performance.BufferSize <= 0 {
		errs = multierr.Append(errs, torqerr.New(torqerr.Configuration, "config.Validate", "performance.buffer_size must be nonzero"))
	}
	if cfg.CleanupInterval < 100*time.Millisecond {
		errs = multierr.Append(errs, torqerr.New(torqerr.Configuration, "config.Validate", "cleanup interval must be >= 100ms"))
	}
	if cfg.ConnectionTimeout < 5*time.Second {
		errs = multierr.Append(errs, torqerr.New(torqerr.Configuration, "config.Validate", "connection timeout must be >= 5s"))
	}
	switch cfg.Transport.Mode {
	case "unix_socket":
		if cfg.Transport.Path == "" {
			errs = multierr.Append(errs, torqerr.New(torqerr.Configuration, "config.Validate", "transport.path is required for unix_socket mode"))
		}
	case "tcp", "udp":
		if cfg.Transport.Address == "" || cfg.Transport.Port == 0 {
			errs = multierr.Append(errs, torqerr.New(torqerr.Configuration, "config.Validate", "transport.address and transport.port are required for tcp/udp mode"))
		}
	case "message_queue":
		// no additional fields required
	default:
		errs = multierr.Append(errs, torqerr.New(torqerr.Configuration, "config.Validate", "unrecognized transport.mode"))
	}
	if cfg.Topics.ExtractionStrategy == StrategyCustomField && cfg.Topics.CustomFieldOffset < 0 {
		errs = multierr.Append(errs, torqerr.New(torqerr.Configuration, "config.Validate", "topics.custom_field_offset must be non-negative"))
	}
	return errs
}

func durationEnvOrDefault(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	ms, err := time.ParseDuration(v + "ms")
	if err != nil {
		return def
	}
	return ms
}
