package config

import (
	"errors"
	"os"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

const (
	defaultBaseURL             = "https://jules.googleapis.com/v1alpha"
	defaultTimeoutSeconds      = 30
	defaultStorageBackend      = "file"
	defaultPollIntervalSeconds = 5
	defaultActivitiesPageSize  = 50
	defaultSessionsPageSize    = 20
	defaultMaxActivityPages    = 10
)

var storageBackends = []string{"file", "bbolt", "sqlite"}

type Config struct {
	API     APIConfig     `toml:"api"`
	Storage StorageConfig `toml:"storage"`
	Logging LoggingConfig `toml:"logging"`
	Sync    SyncConfig    `toml:"sync"`
	UI      UIConfig      `toml:"ui"`
}

type APIConfig struct {
	BaseURL        string `toml:"base_url"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

type StorageConfig struct {
	Backend string `toml:"backend"`
}

type LoggingConfig struct {
	Level string `toml:"level"`
}

type SyncConfig struct {
	PollIntervalSeconds int `toml:"poll_interval_seconds"`
	ActivitiesPageSize  int `toml:"activities_page_size"`
	SessionsPageSize    int `toml:"sessions_page_size"`
	MaxActivityPages    int `toml:"max_activity_pages"`
}

type UIConfig struct {
	// RestoreDraftOnSendFailure puts the cleared chat input back when a send
	// fails. Off by default.
	RestoreDraftOnSendFailure bool  `toml:"restore_draft_on_send_failure"`
	DarkMode                  *bool `toml:"dark_mode"`
}

func Default() Config {
	return Config{
		API: APIConfig{
			BaseURL:        defaultBaseURL,
			TimeoutSeconds: defaultTimeoutSeconds,
		},
		Storage: StorageConfig{Backend: defaultStorageBackend},
		Logging: LoggingConfig{Level: "warn"},
		Sync: SyncConfig{
			PollIntervalSeconds: defaultPollIntervalSeconds,
			ActivitiesPageSize:  defaultActivitiesPageSize,
			SessionsPageSize:    defaultSessionsPageSize,
			MaxActivityPages:    defaultMaxActivityPages,
		},
	}
}

func Load() (Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return Config{}, err
	}
	return LoadFromPath(path)
}

func LoadFromPath(path string) (Config, error) {
	cfg := Default()
	if err := readTOML(path, &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Encode renders cfg as TOML.
func Encode(cfg Config) ([]byte, error) {
	return toml.Marshal(cfg)
}

func (c Config) BaseURL() string {
	base := strings.TrimRight(strings.TrimSpace(c.API.BaseURL), "/")
	if base == "" {
		return defaultBaseURL
	}
	return base
}

func (c Config) Timeout() time.Duration {
	if c.API.TimeoutSeconds <= 0 {
		return defaultTimeoutSeconds * time.Second
	}
	return time.Duration(c.API.TimeoutSeconds) * time.Second
}

func (c Config) StorageBackend() string {
	backend := strings.ToLower(strings.TrimSpace(c.Storage.Backend))
	for _, known := range storageBackends {
		if backend == known {
			return backend
		}
	}
	return defaultStorageBackend
}

func (c Config) LogLevel() string {
	level := strings.TrimSpace(c.Logging.Level)
	if level == "" {
		return "warn"
	}
	return level
}

func (c Config) PollInterval() time.Duration {
	if c.Sync.PollIntervalSeconds <= 0 {
		return defaultPollIntervalSeconds * time.Second
	}
	return time.Duration(c.Sync.PollIntervalSeconds) * time.Second
}

func (c Config) ActivitiesPageSize() int {
	return positiveOr(c.Sync.ActivitiesPageSize, defaultActivitiesPageSize)
}

func (c Config) SessionsPageSize() int {
	return positiveOr(c.Sync.SessionsPageSize, defaultSessionsPageSize)
}

func (c Config) MaxActivityPages() int {
	return positiveOr(c.Sync.MaxActivityPages, defaultMaxActivityPages)
}

// DarkMode reports the configured markdown background, defaulting to dark.
func (c Config) DarkMode() bool {
	if c.UI.DarkMode == nil {
		return true
	}
	return *c.UI.DarkMode
}

func positiveOr(value, fallback int) int {
	if value <= 0 {
		return fallback
	}
	return value
}

func readTOML(path string, out any) error {
	path = strings.TrimSpace(path)
	if path == "" {
		return errors.New("path is required")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil
	}
	return toml.Unmarshal(data, out)
}
