package repo

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// Config stores repository-local settings, decoded from
// .grit/config.toml. It supplies the identity collaborator used when
// building commits.
type Config struct {
	User UserConfig `toml:"user"`
}

// UserConfig is the configured author identity.
type UserConfig struct {
	Name  string `toml:"name"`
	Email string `toml:"email"`
}

func (r *Repo) configPath() string {
	return filepath.Join(r.GritDir, "config.toml")
}

// ReadConfig reads .grit/config.toml. A missing file returns an empty
// config.
func (r *Repo) ReadConfig() (*Config, error) {
	var cfg Config
	if _, err := toml.DecodeFile(r.configPath(), &cfg); err != nil {
		if os.IsNotExist(err) {
			return &Config{}, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	return &cfg, nil
}

// WriteConfig atomically writes .grit/config.toml.
func (r *Repo) WriteConfig(cfg *Config) error {
	if cfg == nil {
		cfg = &Config{}
	}

	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("write config: encode: %w", err)
	}

	tmp, err := os.CreateTemp(r.GritDir, ".config-tmp-*")
	if err != nil {
		return fmt.Errorf("write config: tmpfile: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write config: write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("write config: close: %w", err)
	}
	if err := os.Rename(tmpName, r.configPath()); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("write config: rename: %w", err)
	}
	return nil
}

// SetUser stores the author identity in repository config.
func (r *Repo) SetUser(name, email string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("set user: name is required")
	}

	cfg, err := r.ReadConfig()
	if err != nil {
		return fmt.Errorf("set user: %w", err)
	}
	cfg.User.Name = name
	cfg.User.Email = strings.TrimSpace(email)
	if err := r.WriteConfig(cfg); err != nil {
		return fmt.Errorf("set user: %w", err)
	}
	return nil
}

// Author returns the configured identity as "Name <email>", falling
// back to the USER environment variable, then "unknown".
func (r *Repo) Author() string {
	cfg, err := r.ReadConfig()
	if err == nil && cfg.User.Name != "" {
		if cfg.User.Email != "" {
			return fmt.Sprintf("%s <%s>", cfg.User.Name, cfg.User.Email)
		}
		return cfg.User.Name
	}
	if u := os.Getenv("USER"); u != "" {
		return u
	}
	return "unknown"
}
