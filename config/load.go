package config

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"

	"github.com/npsgd-project/npsgd/crypto"
)

//go:embed default.toml
var defaultConfigToml []byte

// Load decodes the embedded defaults, then overlays path (if non-empty) on
// top, then applies a few environment variable overrides for secrets that
// should never sit in a config file, matching the teacher's
// embedded-defaults-plus-override pattern.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if _, err := toml.Decode(string(defaultConfigToml), cfg); err != nil {
		return nil, fmt.Errorf("config: decode embedded defaults: %w", err)
	}

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
		if _, err := toml.Decode(string(raw), cfg); err != nil {
			return nil, fmt.Errorf("config: decode %s: %w", path, err)
		}
	}

	if secret := os.Getenv("NPSGD_REQUEST_SECRET"); secret != "" {
		cfg.Queue.RequestSecret = secret
		cfg.Web.RequestSecret = secret
		cfg.Worker.RequestSecret = secret
	}
	if user := os.Getenv("NPSGD_SMTP_USERNAME"); user != "" {
		cfg.Smtp.Username = user
	}
	if pass := os.Getenv("NPSGD_SMTP_PASSWORD"); pass != "" {
		cfg.Smtp.Password = pass
	}

	// An operator who hasn't provisioned a request_secret anywhere gets a
	// fresh ephemeral one shared across all three sub-configs, so a single
	// process (or a docker-compose-style all-in-one bring-up sharing this
	// same config file) still authenticates cleanly. A multi-host
	// deployment must still set request_secret explicitly in each
	// process's config, since this value is never persisted back to disk.
	if cfg.Queue.RequestSecret == "" && cfg.Web.RequestSecret == "" && cfg.Worker.RequestSecret == "" {
		token, err := crypto.GenerateSecureToken(32)
		if err != nil {
			return nil, fmt.Errorf("config: generating ephemeral request_secret: %w", err)
		}
		cfg.Queue.RequestSecret = token
		cfg.Web.RequestSecret = token
		cfg.Worker.RequestSecret = token
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
