package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/danhigham/cometcharm/internal/domain"
)

// Compiled-in fallback credentials, set with
// -ldflags "-X github.com/danhigham/cometcharm/internal/config.BuildAppID=..."
var (
	BuildAppID   string
	BuildAuthKey string
	BuildRegion  string
)

const (
	envAppID   = "COMETCHAT_APP_ID"
	envAuthKey = "COMETCHAT_AUTH_KEY"
	envRegion  = "COMETCHAT_REGION"
)

const DefaultBusyRejectDelay = 2 * time.Second

type Config struct {
	Defaults        domain.Credentials `yaml:"defaults"`
	LogLevel        string             `yaml:"log_level"`
	BusyRejectDelay time.Duration      `yaml:"busy_reject_delay"`
	InitTimeout     time.Duration      `yaml:"init_timeout"`
	API             APIConfig          `yaml:"api"`
	SampleUsers     []SampleUser       `yaml:"sample_users"`
}

type APIConfig struct {
	BaseURL     string `yaml:"base_url"`
	RealtimeURL string `yaml:"realtime_url"`
}

type SampleUser struct {
	UID  string `yaml:"uid"`
	Name string `yaml:"name"`
}

var defaultSampleUsers = []SampleUser{
	{UID: "user1", Name: "Alice Johnson"},
	{UID: "user2", Name: "Bob Smith"},
	{UID: "user3", Name: "Charlie Brown"},
}

func Dir() string {
	cfgDir, err := os.UserConfigDir()
	if err != nil {
		cfgDir = filepath.Join(os.Getenv("HOME"), ".config")
	}
	return filepath.Join(cfgDir, "cometcharm")
}

// Path returns the default config file location.
func Path() string {
	return filepath.Join(Dir(), "config.yaml")
}

// Load reads the YAML config at path. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := &Config{Defaults: builtinDefaults()}

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("read config: %w", err)
	default:
		var file Config
		if err := yaml.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
		cfg.merge(file)
	}

	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.BusyRejectDelay <= 0 {
		cfg.BusyRejectDelay = DefaultBusyRejectDelay
	}
	if cfg.InitTimeout < 0 {
		cfg.InitTimeout = 0
	}
	if len(cfg.SampleUsers) == 0 {
		cfg.SampleUsers = append([]SampleUser(nil), defaultSampleUsers...)
	}

	return cfg, nil
}

// builtinDefaults layers environment variables over the compiled-in values.
func builtinDefaults() domain.Credentials {
	d := domain.Credentials{
		AppID:   BuildAppID,
		AuthKey: BuildAuthKey,
		Region:  BuildRegion,
	}
	if v := os.Getenv(envAppID); v != "" {
		d.AppID = v
	}
	if v := os.Getenv(envAuthKey); v != "" {
		d.AuthKey = v
	}
	if v := os.Getenv(envRegion); v != "" {
		d.Region = v
	}
	return d
}

func (c *Config) merge(file Config) {
	if file.Defaults.AppID != "" {
		c.Defaults.AppID = file.Defaults.AppID
	}
	if file.Defaults.AuthKey != "" {
		c.Defaults.AuthKey = file.Defaults.AuthKey
	}
	if file.Defaults.Region != "" {
		c.Defaults.Region = file.Defaults.Region
	}
	c.LogLevel = file.LogLevel
	c.BusyRejectDelay = file.BusyRejectDelay
	c.InitTimeout = file.InitTimeout
	c.API = file.API
	c.SampleUsers = file.SampleUsers
}
