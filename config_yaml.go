package jwtgate

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// fileConfig is the YAML shape accepted by LoadConfigFile. Key material is
// referenced by file path rather than inlined, so config files stay safe to
// commit.
type fileConfig struct {
	SecretKeyFile  string `yaml:"secret_key_file"`
	PublicKeyFile  string `yaml:"public_key_file"`
	PrivateKeyFile string `yaml:"private_key_file"`

	EntityKeyName   string      `yaml:"entity_key_name"`
	APIName         string      `yaml:"api_name"`
	StaticMount     string      `yaml:"static_mount"`
	TokenExpiryDays int         `yaml:"token_expiry_days"`
	Whitelist       []RouteRule `yaml:"whitelist_routes"`
	Ignored         []RouteRule `yaml:"ignored_routes"`

	Audit struct {
		Enabled    bool `yaml:"enabled"`
		BufferSize int  `yaml:"buffer_size"`
		DropIfFull bool `yaml:"drop_if_full"`
	} `yaml:"audit"`

	Metrics struct {
		Enabled           bool `yaml:"enabled"`
		LatencyHistograms bool `yaml:"latency_histograms"`
	} `yaml:"metrics"`
}

// LoadConfigFile reads route rules, key material references, and gate options
// from a YAML file. Entity descriptors and strategies cannot be expressed in
// YAML; register those on the [Builder].
func LoadConfigFile(path string) (Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(raw, &fc); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	cfg := DefaultConfig()
	if fc.EntityKeyName != "" {
		cfg.EntityKeyName = fc.EntityKeyName
	}
	cfg.APIName = fc.APIName
	cfg.StaticMount = fc.StaticMount
	if fc.TokenExpiryDays > 0 {
		cfg.TokenExpiryDays = fc.TokenExpiryDays
	}
	cfg.WhitelistRoutes = fc.Whitelist
	cfg.IgnoredRoutes = fc.Ignored
	cfg.Audit.Enabled = fc.Audit.Enabled
	if fc.Audit.BufferSize > 0 {
		cfg.Audit.BufferSize = fc.Audit.BufferSize
	}
	cfg.Audit.DropIfFull = fc.Audit.DropIfFull
	cfg.Metrics.Enabled = fc.Metrics.Enabled
	cfg.Metrics.EnableLatencyHistograms = fc.Metrics.LatencyHistograms

	if fc.SecretKeyFile != "" {
		if cfg.SecretKey, err = os.ReadFile(fc.SecretKeyFile); err != nil {
			return Config{}, fmt.Errorf("read secret key: %w", err)
		}
	}
	if fc.PublicKeyFile != "" {
		if cfg.PublicKey, err = os.ReadFile(fc.PublicKeyFile); err != nil {
			return Config{}, fmt.Errorf("read public key: %w", err)
		}
	}
	if fc.PrivateKeyFile != "" {
		if cfg.PrivateKey, err = os.ReadFile(fc.PrivateKeyFile); err != nil {
			return Config{}, fmt.Errorf("read private key: %w", err)
		}
	}

	return cfg, nil
}
