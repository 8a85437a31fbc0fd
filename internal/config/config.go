// Package config loads application configuration from environment variables
// (prefix POS) with an optional YAML file overlay, validates it, and resolves
// filesystem paths.
package config

import (
	"crypto/ed25519"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// DefaultConfigFile is looked up relative to the working directory.
const DefaultConfigFile = "pos-config.yaml"

// Config is the complete application configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server" envconfig:"SERVER"`
	Security  SecurityConfig  `yaml:"security" envconfig:"SECURITY"`
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
	Telemetry TelemetryConfig `yaml:"telemetry" envconfig:"TELEMETRY"`
	Paths     PathsConfig     `yaml:"paths" envconfig:"PATHS"`
}

// ServerConfig contains HTTP server configuration.
type ServerConfig struct {
	Port            int           `yaml:"port" envconfig:"PORT" default:"8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT" default:"15s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT" default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT" default:"30s"`
}

// SecurityConfig contains entitlement and credential settings.
type SecurityConfig struct {
	// IssuerPublicKey is the hex-encoded Ed25519 public key of the license
	// issuing authority. 32 bytes, so 64 hex characters.
	IssuerPublicKey string `yaml:"issuer_public_key" envconfig:"ISSUER_PUBLIC_KEY" validate:"required,hexadecimal,len=64"`
	// EnvelopeSecret keys the HMAC integrity envelope around persisted
	// trial/license records.
	EnvelopeSecret string `yaml:"envelope_secret" envconfig:"ENVELOPE_SECRET" validate:"required,min=16"`
	// BcryptCost for password and PIN hashes.
	BcryptCost int `yaml:"bcrypt_cost" envconfig:"BCRYPT_COST" default:"10" validate:"min=4,max=31"`
	// ActivationRPS and ActivationBurst bound license activation attempts.
	ActivationRPS   float64 `yaml:"activation_rps" envconfig:"ACTIVATION_RPS" default:"0.2"`
	ActivationBurst int     `yaml:"activation_burst" envconfig:"ACTIVATION_BURST" default:"5"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" default:"info"`
	Format   string `yaml:"format" envconfig:"FORMAT" default:"json"`
	Output   string `yaml:"output" envconfig:"OUTPUT" default:"console"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH" default:"logs/pos.log"`
}

// TelemetryConfig contains tracing configuration. Metrics always export
// through the prometheus registry; tracing is switchable because the stdout
// exporter is chatty on a till terminal.
type TelemetryConfig struct {
	TraceExporter    string  `yaml:"trace_exporter" envconfig:"TRACE_EXPORTER" default:"stdout" validate:"oneof=stdout none"`
	TraceSampleRatio float64 `yaml:"trace_sample_ratio" envconfig:"TRACE_SAMPLE_RATIO" default:"1.0" validate:"min=0,max=1"`
}

// PathsConfig contains filesystem paths.
type PathsConfig struct {
	DataDir   string `yaml:"data_dir" envconfig:"DATA_DIR" default:"data"`
	StoreFile string `yaml:"store_file" envconfig:"STORE_FILE" default:"pos-store.json"`
}

// Load builds configuration from the environment, then overlays the optional
// config file. File values win over environment for the keys they set.
func Load() (*Config, error) {
	return LoadFrom(DefaultConfigFile)
}

// LoadFrom is Load with an explicit config file path, for tests.
func LoadFrom(configFile string) (*Config, error) {
	var cfg Config

	if err := envconfig.Process("POS", &cfg); err != nil {
		return nil, fmt.Errorf("load config from env: %w", err)
	}

	if configFile != "" {
		if _, err := os.Stat(configFile); err == nil {
			raw, err := os.ReadFile(configFile)
			if err != nil {
				return nil, fmt.Errorf("read config file: %w", err)
			}
			if err := yaml.Unmarshal(raw, &cfg); err != nil {
				return nil, fmt.Errorf("parse config file: %w", err)
			}
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks structural constraints.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server port %d out of range", c.Server.Port)
	}
	return nil
}

// IssuerKey decodes the configured issuer public key.
func (c *Config) IssuerKey() (ed25519.PublicKey, error) {
	raw, err := hex.DecodeString(c.Security.IssuerPublicKey)
	if err != nil {
		return nil, fmt.Errorf("decode issuer public key: %w", err)
	}
	if len(raw) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("issuer public key must be %d bytes, got %d", ed25519.PublicKeySize, len(raw))
	}
	return ed25519.PublicKey(raw), nil
}

// StorePath resolves the store file under the data directory.
func (c *Config) StorePath() string {
	if filepath.IsAbs(c.Paths.StoreFile) {
		return c.Paths.StoreFile
	}
	return filepath.Join(c.Paths.DataDir, c.Paths.StoreFile)
}

// ListenAddr formats the server bind address.
func (c *Config) ListenAddr() string {
	return fmt.Sprintf(":%d", c.Server.Port)
}
