// Package config loads the YAML configuration file.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ensigniasec/jobdeck/internal/storage"
	"github.com/ensigniasec/jobdeck/internal/validate"
)

// DefaultPath is used when no --config flag is given.
const DefaultPath = "~/.config/jobdeck/config.yaml"

// EnvAPIURL overrides api_url when set.
const EnvAPIURL = "JOBDECK_API_URL"

// Auth configures the OAuth device authorization grant.
type Auth struct {
	ClientID      string   `yaml:"client_id" validate:"required"`
	DeviceAuthURL string   `yaml:"device_auth_url" validate:"required,url"`
	TokenURL      string   `yaml:"token_url" validate:"required,url"`
	Scopes        []string `yaml:"scopes"`
}

// Config is the application configuration. Durations use Go syntax ("250ms", "1m").
type Config struct {
	APIURL string `yaml:"api_url" validate:"required,url"`
	Auth   Auth   `yaml:"auth"`

	TickRate             time.Duration `yaml:"tick_rate" validate:"gte=10ms"`
	FrameRate            time.Duration `yaml:"frame_rate" validate:"gte=5ms"`
	RefreshInterval      time.Duration `yaml:"refresh_interval" validate:"gte=1s"`
	LogPollInterval      time.Duration `yaml:"log_poll_interval" validate:"gte=100ms"`
	TransferPollInterval time.Duration `yaml:"transfer_poll_interval" validate:"gte=100ms"`
	ProgressInterval     time.Duration `yaml:"progress_interval" validate:"gte=0"`

	DownloadDir string `yaml:"download_dir" validate:"required"`
	SecretsFile string `yaml:"secrets_file" validate:"required"`
	LogFile     string `yaml:"log_file"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		APIURL: "http://localhost:8000/api/v1",
		Auth: Auth{
			ClientID:      "jobdeck",
			DeviceAuthURL: "http://localhost:8000/oauth/device/code",
			TokenURL:      "http://localhost:8000/oauth/token",
			Scopes:        []string{"openid", "offline_access"},
		},
		TickRate:             250 * time.Millisecond,
		FrameRate:            33 * time.Millisecond,
		RefreshInterval:      10 * time.Second,
		LogPollInterval:      2 * time.Second,
		TransferPollInterval: 2 * time.Second,
		ProgressInterval:     250 * time.Millisecond,
		DownloadDir:          "~/Downloads/jobdeck",
		SecretsFile:          "~/.config/jobdeck/secrets.json",
		LogFile:              "~/.local/state/jobdeck/jobdeck.log",
	}
}

// Load reads the file at path on top of the defaults. An empty path means
// DefaultPath, which may be absent; an explicitly given path must exist.
func Load(path string) (Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultPath
	}
	expanded, err := storage.ExpandTilde(path)
	if err != nil {
		return cfg, err
	}

	raw, err := os.ReadFile(expanded)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return cfg, fmt.Errorf("parse %s: %w", expanded, err)
		}
	case errors.Is(err, os.ErrNotExist) && !explicit:
	default:
		return cfg, fmt.Errorf("read config: %w", err)
	}

	if v := os.Getenv(EnvAPIURL); v != "" {
		cfg.APIURL = v
	}

	for _, p := range []*string{&cfg.DownloadDir, &cfg.SecretsFile, &cfg.LogFile} {
		if *p, err = storage.ExpandTilde(*p); err != nil {
			return cfg, err
		}
	}

	if err := validate.Struct(cfg); err != nil {
		return cfg, fmt.Errorf("invalid config %s: %w", expanded, err)
	}
	return cfg, nil
}
