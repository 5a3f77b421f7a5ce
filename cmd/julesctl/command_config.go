package main

import (
	"encoding/json"
	"errors"
	"flag"
	"io"
	"strings"

	toml "github.com/pelletier/go-toml/v2"

	"julesctl/internal/config"
	"julesctl/internal/store"
)

type ConfigCommand struct {
	stdout io.Writer
	stderr io.Writer
}

const (
	configFormatJSON = "json"
	configFormatTOML = "toml"
)

type configOutput struct {
	ConfigPath string                 `json:"config_path" toml:"config_path"`
	DataDir    string                 `json:"data_dir" toml:"data_dir"`
	API        effectiveAPIConfig     `json:"api" toml:"api"`
	Storage    effectiveStorageConfig `json:"storage" toml:"storage"`
	Logging    effectiveLoggingConfig `json:"logging" toml:"logging"`
	Sync       effectiveSyncConfig    `json:"sync" toml:"sync"`
	UI         effectiveUIConfig      `json:"ui" toml:"ui"`
}

type effectiveAPIConfig struct {
	BaseURL        string `json:"base_url" toml:"base_url"`
	TimeoutSeconds int    `json:"timeout_seconds" toml:"timeout_seconds"`
}

type effectiveStorageConfig struct {
	Backend string `json:"backend" toml:"backend"`
	Path    string `json:"path" toml:"path"`
}

type effectiveLoggingConfig struct {
	Level     string `json:"level" toml:"level"`
	UILogPath string `json:"ui_log_path" toml:"ui_log_path"`
}

type effectiveSyncConfig struct {
	PollIntervalSeconds int `json:"poll_interval_seconds" toml:"poll_interval_seconds"`
	ActivitiesPageSize  int `json:"activities_page_size" toml:"activities_page_size"`
	SessionsPageSize    int `json:"sessions_page_size" toml:"sessions_page_size"`
	MaxActivityPages    int `json:"max_activity_pages" toml:"max_activity_pages"`
}

type effectiveUIConfig struct {
	RestoreDraftOnSendFailure bool `json:"restore_draft_on_send_failure" toml:"restore_draft_on_send_failure"`
	DarkMode                  bool `json:"dark_mode" toml:"dark_mode"`
}

func NewConfigCommand(stdout, stderr io.Writer) *ConfigCommand {
	return &ConfigCommand{
		stdout: stdout,
		stderr: stderr,
	}
}

func (c *ConfigCommand) Run(args []string) error {
	fs := flag.NewFlagSet("config", flag.ContinueOnError)
	fs.SetOutput(c.stderr)
	defaults := fs.Bool("default", false, "print default config values")
	format := fs.String("format", configFormatJSON, "output format: json|toml")
	if err := fs.Parse(args); err != nil {
		return err
	}

	resolvedFormat, err := resolveConfigFormat(*format)
	if err != nil {
		return err
	}
	payload, err := c.buildOutput(*defaults)
	if err != nil {
		return err
	}
	return writeConfigOutput(c.stdout, resolvedFormat, payload)
}

func (c *ConfigCommand) buildOutput(defaults bool) (configOutput, error) {
	configPath, err := config.ConfigPath()
	if err != nil {
		return configOutput{}, err
	}
	dataDir, err := config.DataDir()
	if err != nil {
		return configOutput{}, err
	}
	uiLogPath, err := config.UILogPath()
	if err != nil {
		return configOutput{}, err
	}

	cfg := config.Default()
	if !defaults {
		cfg, err = config.LoadFromPath(configPath)
		if err != nil {
			return configOutput{}, err
		}
	}
	paths, err := storePaths()
	if err != nil {
		return configOutput{}, err
	}

	backend := cfg.StorageBackend()
	return configOutput{
		ConfigPath: configPath,
		DataDir:    dataDir,
		API: effectiveAPIConfig{
			BaseURL:        cfg.BaseURL(),
			TimeoutSeconds: int(cfg.Timeout().Seconds()),
		},
		Storage: effectiveStorageConfig{
			Backend: backend,
			Path:    storagePath(backend, paths),
		},
		Logging: effectiveLoggingConfig{
			Level:     cfg.LogLevel(),
			UILogPath: uiLogPath,
		},
		Sync: effectiveSyncConfig{
			PollIntervalSeconds: int(cfg.PollInterval().Seconds()),
			ActivitiesPageSize:  cfg.ActivitiesPageSize(),
			SessionsPageSize:    cfg.SessionsPageSize(),
			MaxActivityPages:    cfg.MaxActivityPages(),
		},
		UI: effectiveUIConfig{
			RestoreDraftOnSendFailure: cfg.UI.RestoreDraftOnSendFailure,
			DarkMode:                  cfg.DarkMode(),
		},
	}, nil
}

func storagePath(backend string, paths store.Paths) string {
	switch backend {
	case store.BackendBbolt:
		return paths.Bbolt
	case store.BackendSQLite:
		return paths.SQLite
	default:
		return paths.File
	}
}

func writeConfigOutput(out io.Writer, format string, payload any) error {
	switch format {
	case configFormatJSON:
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")
		return encoder.Encode(payload)
	case configFormatTOML:
		data, err := toml.Marshal(payload)
		if err != nil {
			return err
		}
		if len(data) == 0 || data[len(data)-1] != '\n' {
			data = append(data, '\n')
		}
		_, err = out.Write(data)
		return err
	default:
		return errors.New("unsupported format")
	}
}

func resolveConfigFormat(raw string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", configFormatJSON:
		return configFormatJSON, nil
	case configFormatTOML:
		return configFormatTOML, nil
	default:
		return "", errors.New("invalid format: must be json or toml")
	}
}
