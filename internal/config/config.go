package config

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"
)

// ServerConfig carries hosting tunables that sit outside the variant
// tables: driver cadence, roster limits, autopilot pacing, listen
// addresses, and session expiry for the standalone server.
type ServerConfig struct {
	DefaultVariant  string `json:"default_variant"`
	TickRate        int    `json:"tick_rate"`
	MaxParticipants int    `json:"max_participants"`

	AutopilotEnabled bool `json:"autopilot_enabled"`
	AutopilotCount   int  `json:"autopilot_count"`
	// AutopilotSpendFloor is the elixir level an autopilot waits for before spending.
	AutopilotSpendFloor int `json:"autopilot_spend_floor"`
	// AutopilotDelayTicksMax bounds the randomized wait between autopilot spends.
	AutopilotDelayTicksMax int `json:"autopilot_delay_ticks_max"`

	ListenAddr        string `json:"listen_addr"`
	MetricsAddr       string `json:"metrics_addr"`
	SessionTTLSeconds int    `json:"session_ttl_seconds"`
}

var (
	cfg      *ServerConfig
	loadOnce sync.Once
	loadErr  error
)

// Load reads the server configuration from the given path. Only the
// first call does anything; later calls return the first result.
func Load(path string) error {
	loadOnce.Do(func() {
		data, err := os.ReadFile(path)
		if err != nil {
			loadErr = fmt.Errorf("failed to read server config: %w", err)
			return
		}
		c, err := parse(data)
		if err != nil {
			loadErr = err
			return
		}
		cfg = c
	})
	return loadErr
}

func parse(data []byte) (*ServerConfig, error) {
	var c ServerConfig
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to unmarshal server config: %w", err)
	}
	return &c, nil
}

// Get returns the global server configuration, nil when no file loaded.
func Get() *ServerConfig {
	return cfg
}

// DefaultVariant returns the variant new matches use when the creator
// names none.
func DefaultVariant() string {
	if cfg == nil || cfg.DefaultVariant == "" {
		return "standard" // safe default
	}
	return cfg.DefaultVariant
}

// TickRate returns the driver frequency in ticks per second.
func TickRate() int {
	if cfg == nil || cfg.TickRate <= 0 {
		return 10 // 100ms cadence
	}
	return cfg.TickRate
}

// MaxParticipants returns the roster limit per match.
func MaxParticipants() int {
	if cfg == nil || cfg.MaxParticipants <= 0 {
		return 8
	}
	return cfg.MaxParticipants
}

// AutopilotEnabled reports whether new standalone sessions seat agents.
func AutopilotEnabled() bool {
	return cfg != nil && cfg.AutopilotEnabled
}

// AutopilotCount returns how many agents an autopiloted session seats.
func AutopilotCount() int {
	if cfg == nil || cfg.AutopilotCount <= 0 {
		return 2
	}
	return cfg.AutopilotCount
}

// AutopilotSpendFloor returns the elixir level an autopilot waits for.
func AutopilotSpendFloor() int {
	if cfg == nil || cfg.AutopilotSpendFloor <= 0 {
		return 8
	}
	return cfg.AutopilotSpendFloor
}

// AutopilotDelayTicksMax returns the most ticks an autopilot waits
// between spends.
func AutopilotDelayTicksMax() int {
	if cfg == nil || cfg.AutopilotDelayTicksMax <= 0 {
		return 30
	}
	return cfg.AutopilotDelayTicksMax
}

// ListenAddr returns the standalone server's HTTP listen address.
func ListenAddr() string {
	if cfg == nil || cfg.ListenAddr == "" {
		return ":8080"
	}
	return cfg.ListenAddr
}

// MetricsAddr returns the Prometheus listener address.
func MetricsAddr() string {
	if cfg == nil || cfg.MetricsAddr == "" {
		return ":9090"
	}
	return cfg.MetricsAddr
}

// SessionTTL returns how long a finished standalone session lingers
// before the manager reaps it.
func SessionTTL() time.Duration {
	if cfg == nil || cfg.SessionTTLSeconds <= 0 {
		return 10 * time.Minute
	}
	return time.Duration(cfg.SessionTTLSeconds) * time.Second
}
