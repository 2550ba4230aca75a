package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/aretw0/taproot/pkg/schema"
)

// Config is the taproot CLI's configuration file, YAML or JSON by extension.
type Config struct {
	Store StoreConfig `yaml:"store" json:"store"`

	// Delay is the debounce window as a duration string, e.g. "500ms".
	Delay string `yaml:"delay" json:"delay"`

	// PII lists key patterns (regexp) masked before snapshots are stored.
	PII []string `yaml:"pii" json:"pii"`

	Encryption EncryptionConfig `yaml:"encryption" json:"encryption"`

	// Schema maps top-level field names to type names (string, int, float,
	// bool, []T). Declared fields are required in every snapshot and writes
	// to them are type-checked.
	Schema schema.Schema `yaml:"schema" json:"schema"`

	HTTP HTTPConfig `yaml:"http" json:"http"`
}

// StoreConfig selects and parametrizes the snapshot store.
type StoreConfig struct {
	// Type is one of: file, memory, redis, postgres, loam.
	// Empty disables persistence.
	Type string `yaml:"type" json:"type"`

	// Path is the file path (file) or repository directory (loam).
	Path string `yaml:"path" json:"path"`

	Redis    RedisConfig    `yaml:"redis" json:"redis"`
	Postgres PostgresConfig `yaml:"postgres" json:"postgres"`
}

type RedisConfig struct {
	Address  string `yaml:"address" json:"address"`
	Password string `yaml:"password" json:"password"`
	DB       int    `yaml:"db" json:"db"`
	Key      string `yaml:"key" json:"key"`
}

type PostgresConfig struct {
	DSN  string `yaml:"dsn" json:"dsn"`
	Name string `yaml:"name" json:"name"`
}

// EncryptionConfig configures at-rest encryption. Keys are hex-encoded
// 32-byte values; Fallbacks enable key rotation.
type EncryptionConfig struct {
	Key       string   `yaml:"key" json:"key"`
	Fallbacks []string `yaml:"fallbacks" json:"fallbacks"`
}

type HTTPConfig struct {
	Address string `yaml:"address" json:"address"`
}

// DelayDuration parses the configured debounce window. An empty value
// means "use the built-in default" and returns zero.
func (c Config) DelayDuration() (time.Duration, error) {
	if c.Delay == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.Delay)
	if err != nil {
		return 0, fmt.Errorf("invalid delay %q: %w", c.Delay, err)
	}
	return d, nil
}

// DefaultConfig returns the configuration used when no file is given: a
// plain file store next to the working directory.
func DefaultConfig() Config {
	return Config{
		Store: StoreConfig{Type: "file", Path: "state.json"},
		HTTP:  HTTPConfig{Address: ":8080"},
	}
}

// LoadConfig reads path, dispatching on extension: .json is parsed as JSON,
// everything else as YAML.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}

	if filepath.Ext(path) == ".json" {
		if err := json.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse config: %w", err)
		}
		return cfg, nil
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}
