package config

import (
	"os"
	"path/filepath"
	"strings"
)

const (
	appDirName = ".julesctl"
	homeEnvVar = "JULESCTL_HOME"
)

// DataDir returns the base data directory. JULESCTL_HOME overrides the
// default of ~/.julesctl.
func DataDir() (string, error) {
	if override := strings.TrimSpace(os.Getenv(homeEnvVar)); override != "" {
		return filepath.Clean(override), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, appDirName), nil
}

// ConfigPath returns the path to config.toml.
func ConfigPath() (string, error) {
	return inDataDir("config.toml")
}

// AccountsPath returns the path used by the file storage backend.
func AccountsPath() (string, error) {
	return inDataDir("accounts.json")
}

// AccountsDBPath returns the path used by the bbolt storage backend.
func AccountsDBPath() (string, error) {
	return inDataDir("accounts.db")
}

// AccountsSQLitePath returns the path used by the sqlite storage backend.
func AccountsSQLitePath() (string, error) {
	return inDataDir("accounts.sqlite")
}

// UILogPath returns the path the terminal UI logs to.
func UILogPath() (string, error) {
	return inDataDir("ui.log")
}

func inDataDir(name string) (string, error) {
	dataDir, err := DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dataDir, name), nil
}
