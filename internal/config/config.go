// Package config loads the settings of a sharewalk deployment.
//
// Values come from a YAML file layered over Default, then from command-line
// flags. The result is validated once and passed down by value.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Checkpoint backends.
const (
	BackendFile   = "file"
	BackendRedis  = "redis"
	BackendBadger = "badger"
	BackendSQLite = "sqlite"
	BackendSheets = "sheets"
)

// Config is the full configuration of a deployment.
type Config struct {
	// ForceFresh discards any checkpoint and starts from the root.
	ForceFresh bool `yaml:"force_fresh"`
	// StartPath starts a fresh walk at this slash-separated folder path.
	StartPath string `yaml:"start_path"`
	// Budget is the wall time one invocation may spend stepping.
	Budget time.Duration `yaml:"budget" validate:"gt=0"`

	Checkpoint CheckpointConfig `yaml:"checkpoint"`
	Output     OutputConfig     `yaml:"output"`
	Drive      DriveConfig      `yaml:"drive"`
	Lock       LockConfig       `yaml:"lock"`
	Metrics    MetricsConfig    `yaml:"metrics"`
	Server     ServerConfig     `yaml:"server"`
	Log        LogConfig        `yaml:"log"`
}

type CheckpointConfig struct {
	Backend string      `yaml:"backend" validate:"oneof=file redis badger sqlite"`
	Path    string      `yaml:"path" validate:"required_unless=Backend redis"`
	Key     string      `yaml:"key" validate:"required"`
	Redis   RedisConfig `yaml:"redis"`
	// Encryption seals stored checkpoints when Key is set.
	Encryption EncryptionConfig `yaml:"encryption"`
}

// EncryptionConfig holds base64-encoded AES-256 keys.
type EncryptionConfig struct {
	Key          string   `yaml:"key" validate:"omitempty,base64"`
	FallbackKeys []string `yaml:"fallback_keys" validate:"dive,base64"`
}

type RedisConfig struct {
	Addr     string        `yaml:"addr" validate:"required"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db" validate:"gte=0"`
	Prefix   string        `yaml:"prefix"`
	TTL      time.Duration `yaml:"ttl" validate:"gte=0"`
}

type OutputConfig struct {
	Backend       string `yaml:"backend" validate:"oneof=sqlite sheets"`
	Path          string `yaml:"path" validate:"required_if=Backend sqlite"`
	SpreadsheetID string `yaml:"spreadsheet_id" validate:"required_if=Backend sheets"`
}

type DriveConfig struct {
	CredentialsFile string  `yaml:"credentials_file"`
	RootID          string  `yaml:"root_id" validate:"required"`
	RateLimit       float64 `yaml:"rate_limit" validate:"gte=0"`
	Burst           int     `yaml:"burst" validate:"gte=1"`
}

type LockConfig struct {
	Enabled bool          `yaml:"enabled"`
	TTL     time.Duration `yaml:"ttl" validate:"gt=0"`
}

type MetricsConfig struct {
	// Textfile, when set, receives the metrics after each invocation.
	Textfile string `yaml:"textfile"`
}

type ServerConfig struct {
	Addr string `yaml:"addr" validate:"required,hostname_port"`
}

type LogConfig struct {
	Level string `yaml:"level" validate:"oneof=debug info warn error"`
}

// Default returns a configuration that works on a single host with local files.
func Default() Config {
	return Config{
		Budget: 5 * time.Minute,
		Checkpoint: CheckpointConfig{
			Backend: BackendFile,
			Path:    ".sharewalk/checkpoints",
			Key:     "checkpoint",
			Redis: RedisConfig{
				Addr:   "localhost:6379",
				Prefix: "sharewalk:",
			},
		},
		Output: OutputConfig{
			Backend: BackendSQLite,
			Path:    ".sharewalk/report.db",
		},
		Drive: DriveConfig{
			RootID:    "root",
			RateLimit: 10,
			Burst:     1,
		},
		Lock: LockConfig{
			TTL: 15 * time.Minute,
		},
		Server: ServerConfig{
			Addr: "127.0.0.1:8080",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate reports every invalid field at once.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]error, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Errorf("%s: failed %q", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("invalid configuration: %w", errors.Join(msgs...))
		}
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if c.Lock.Enabled && c.Checkpoint.Backend != BackendRedis {
		return errors.New("invalid configuration: lock.enabled requires the redis checkpoint backend")
	}
	// The lock is not renewed, so it must outlive a whole invocation.
	if c.Lock.Enabled && c.Lock.TTL <= c.Budget {
		return fmt.Errorf("invalid configuration: lock.ttl (%s) must exceed budget (%s)", c.Lock.TTL, c.Budget)
	}
	return nil
}

// Load reads path over Default and validates the result.
// An empty path yields the validated defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, cfg.Validate()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := decode(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func decode(data []byte, cfg *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}
