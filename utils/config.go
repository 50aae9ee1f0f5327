// File: utils/config.go
package utils

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configurable runtime parameters.
type Config struct {
	Engine EngineConfig `yaml:"engine"`
	Store  StoreConfig  `yaml:"store"`
	Server ServerConfig `yaml:"server"`
	Log    LogConfig    `yaml:"log"`
}

// EngineConfig sizes the actor engine.
type EngineConfig struct {
	Workers     int           `yaml:"workers"`      // Worker goroutines; 0 means one per CPU
	TimeSlice   int           `yaml:"time_slice"`   // Kernel instructions per scheduling pass
	MailboxSize int           `yaml:"mailbox_size"` // Soft limit on pending envelopes per actor
	AskTimeout  time.Duration `yaml:"ask_timeout"`  // How long an external ask waits for its reply
}

// StoreConfig selects the key/value backend.
type StoreConfig struct {
	Driver  string `yaml:"driver"`  // "memory" or "sqlite"
	Readers int    `yaml:"readers"` // Size of the reader pool behind the router
}

// ServerConfig configures the HTTP/websocket front door.
type ServerConfig struct {
	Addr      string  `yaml:"addr"`
	RateLimit float64 `yaml:"rate_limit"` // Requests per second across all clients
	Burst     int     `yaml:"burst"`
}

// LogConfig configures the logger.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json or console
}

// DefaultConfig returns a Config struct with default values.
func DefaultConfig() Config {
	return Config{
		Engine: EngineConfig{
			Workers:     0,
			TimeSlice:   10000,
			MailboxSize: 1024,
			AskTimeout:  5 * time.Second,
		},
		Store: StoreConfig{
			Driver:  "memory",
			Readers: 4,
		},
		Server: ServerConfig{
			Addr:      ":8080",
			RateLimit: 200,
			Burst:     50,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// LoadConfig reads a YAML file over the defaults. An empty path or a missing
// file yields the defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate rejects settings the runtime cannot work with.
func (c Config) Validate() error {
	switch {
	case c.Engine.Workers < 0:
		return fmt.Errorf("engine.workers must not be negative")
	case c.Engine.TimeSlice < 0:
		return fmt.Errorf("engine.time_slice must not be negative")
	case c.Engine.MailboxSize < 0:
		return fmt.Errorf("engine.mailbox_size must not be negative")
	case c.Engine.AskTimeout <= 0:
		return fmt.Errorf("engine.ask_timeout must be positive")
	case c.Store.Driver != "memory" && c.Store.Driver != "sqlite":
		return fmt.Errorf("store.driver %q is not memory or sqlite", c.Store.Driver)
	case c.Store.Readers < 1:
		return fmt.Errorf("store.readers must be at least 1")
	case c.Server.RateLimit <= 0 || c.Server.Burst < 1:
		return fmt.Errorf("server.rate_limit and server.burst must be positive")
	}
	return nil
}
