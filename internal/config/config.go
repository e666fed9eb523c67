// Package config implements the persisted CLI configuration described in
// spec.md §4.A: registry URL/token, proxy override, and the two
// telemetry-adjacent opt-ins, all backed by a strict TOML file.
package config

import (
	"bytes"
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// defaultRegistryURL is the production registry, used when no config file
// exists yet or registry.url is unset.
const defaultRegistryURL = "https://registry.wapm.io/graphql"

// Config is the schema of $CONFIG_DIR/wapm.toml. Field order matches the
// canonical write order used by Save.
type Config struct {
	Registry struct {
		URL   string `toml:"url"`
		Token string `toml:"token"`
	} `toml:"registry"`
	Proxy struct {
		URL string `toml:"url,omitempty"`
	} `toml:"proxy"`
	Telemetry struct {
		Enabled bool `toml:"enabled"`
	} `toml:"telemetry"`
	UpdateNotifications struct {
		Enabled bool `toml:"enabled"`
	} `toml:"update-notifications"`
}

// Default returns a Config with the production registry and telemetry/update
// notifications on, matching the original tool's first-run defaults.
func Default() *Config {
	c := &Config{}
	c.Registry.URL = defaultRegistryURL
	c.Telemetry.Enabled = true
	c.UpdateNotifications.Enabled = true
	return c
}

// Load reads and strictly decodes the config file at path. A missing file
// is not an error; Default() is returned instead.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	cfg := Default()
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes cfg to path atomically (temp file + rename), in the field
// order declared on the Config struct.
func Save(path string, cfg *Config) error {
	data, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("failed to write temp config file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("failed to commit config file: %w", err)
	}
	return nil
}
