// Package config holds server-wide configuration: listen address, CORS
// policy, durable store location and the session/throttle tuning knobs.
package config

import (
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Environment names recognised in APP_ENV.
const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
	EnvTest        = "test"
)

// ServerConfig holds server-wide configuration settings.
type ServerConfig struct {
	// Port is the HTTP/WebSocket listen port.
	Port int `yaml:"port"`

	// Environment is one of development, production, test.
	Environment string `yaml:"environment"`

	// DatabaseURL selects the durable store: postgres://... uses the
	// PostgreSQL driver, anything else is treated as a SQLite file path.
	DatabaseURL string `yaml:"database_url"`

	WebSocket   WebSocketConfig   `yaml:"websocket"`
	Connections ConnectionsConfig `yaml:"connections"`
	Session     SessionConfig     `yaml:"session"`
	Throttle    ThrottleConfig    `yaml:"throttle"`
}

// WebSocketConfig holds WebSocket-specific settings.
type WebSocketConfig struct {
	// AllowedOrigins is a list of origins allowed to connect.
	// Empty list enforces same-origin policy. "*" allows all origins.
	AllowedOrigins []string `yaml:"allowed_origins"`

	// MaxMessageSize is the maximum inbound message size in bytes.
	MaxMessageSize int64 `yaml:"max_message_size"`
}

// ConnectionsConfig holds connection limit settings.
type ConnectionsConfig struct {
	// MaxPerIP is the maximum concurrent connections from one IP. 0 = unlimited.
	MaxPerIP int `yaml:"max_per_ip"`

	// MaxTotal is the maximum total concurrent connections. 0 = unlimited.
	MaxTotal int `yaml:"max_total"`
}

// SessionConfig holds session cache tuning.
type SessionConfig struct {
	// IdleTimeoutMinutes is how long an unpaused session may sit without
	// activity before it is checkpointed and evicted.
	IdleTimeoutMinutes int `yaml:"idle_timeout_minutes"`

	// SweepIntervalSeconds is how often the eviction sweeper runs.
	SweepIntervalSeconds int `yaml:"sweep_interval_seconds"`
}

// ThrottleConfig holds the per-connection intent rate limits.
type ThrottleConfig struct {
	// MoveIntervalMillis is the minimum spacing between accepted moves.
	MoveIntervalMillis int `yaml:"move_interval_millis"`

	// AttackIntervalMillis is the minimum spacing between accepted attacks.
	AttackIntervalMillis int `yaml:"attack_interval_millis"`

	// MaxPending is the inbound queue depth; arrivals beyond it are dropped.
	MaxPending int `yaml:"max_pending"`

	// MaxUnacked caps unacknowledged outbound messages in flight.
	MaxUnacked int `yaml:"max_unacked"`
}

// DefaultConfig returns a ServerConfig with the standard defaults.
func DefaultConfig() *ServerConfig {
	return &ServerConfig{
		Port:        3000,
		Environment: EnvDevelopment,
		DatabaseURL: "data/gloomdelve.db",
		WebSocket: WebSocketConfig{
			AllowedOrigins: []string{}, // Same-origin only by default
			MaxMessageSize: 4096,
		},
		Connections: ConnectionsConfig{
			MaxPerIP: 4,
			MaxTotal: 500,
		},
		Session: SessionConfig{
			IdleTimeoutMinutes:   5,
			SweepIntervalSeconds: 60,
		},
		Throttle: ThrottleConfig{
			MoveIntervalMillis:   80,
			AttackIntervalMillis: 400,
			MaxPending:           5,
			MaxUnacked:           3,
		},
	}
}

// LoadConfig loads server configuration from a YAML file and applies
// environment variable overrides. A missing file yields defaults.
func LoadConfig(path string) (*ServerConfig, error) {
	config := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			config.applyEnv()
			return config, nil
		}
		return config, err
	}

	if err := yaml.Unmarshal(data, config); err != nil {
		config = DefaultConfig()
		config.applyEnv()
		return config, err
	}

	config.applyEnv()
	return config, nil
}

// applyEnv overlays the recognised environment variables.
func (c *ServerConfig) applyEnv() {
	if port := os.Getenv("PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil && p > 0 {
			c.Port = p
		}
	}
	if url := os.Getenv("DATABASE_URL"); url != "" {
		c.DatabaseURL = url
	}
	if origins := os.Getenv("ALLOWED_ORIGINS"); origins != "" {
		parts := strings.Split(origins, ",")
		allowed := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				allowed = append(allowed, trimmed)
			}
		}
		c.WebSocket.AllowedOrigins = allowed
	}
	if env := os.Getenv("APP_ENV"); env != "" {
		c.Environment = env
	}
}

// IsOriginAllowed checks if the given origin is allowed based on the config.
// Returns true if:
//   - AllowedOrigins contains "*" (allow all)
//   - AllowedOrigins contains the exact origin
//   - AllowedOrigins is empty and origin matches the request host (same-origin)
func (c *WebSocketConfig) IsOriginAllowed(origin, requestHost string) bool {
	if len(c.AllowedOrigins) == 0 {
		return isSameOrigin(origin, requestHost)
	}

	for _, allowed := range c.AllowedOrigins {
		if allowed == "*" {
			return true
		}
		if allowed == origin {
			return true
		}
	}

	return false
}

// isSameOrigin checks if the origin matches the request host.
func isSameOrigin(origin, requestHost string) bool {
	if origin == "" {
		return true // No origin header means same-origin (e.g., non-browser client)
	}

	originHost := origin
	if idx := strings.Index(origin, "://"); idx != -1 {
		originHost = origin[idx+3:]
	}
	originHost = strings.TrimSuffix(originHost, "/")

	return originHost == requestHost
}
