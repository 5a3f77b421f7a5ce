package config

import (
	"path/filepath"
	"testing"
)

func TestDataDirDefaultsToHome(t *testing.T) {
	home := filepath.Join(t.TempDir(), "home")
	t.Setenv("HOME", home)
	t.Setenv("JULESCTL_HOME", "")

	dir, err := DataDir()
	if err != nil {
		t.Fatalf("DataDir: %v", err)
	}
	if want := filepath.Join(home, ".julesctl"); dir != want {
		t.Fatalf("unexpected data dir: got=%q want=%q", dir, want)
	}
}

func TestDataDirOverride(t *testing.T) {
	override := filepath.Join(t.TempDir(), "custom")
	t.Setenv("JULESCTL_HOME", override)

	path, err := AccountsPath()
	if err != nil {
		t.Fatalf("AccountsPath: %v", err)
	}
	if want := filepath.Join(override, "accounts.json"); path != want {
		t.Fatalf("unexpected accounts path: got=%q want=%q", path, want)
	}
	path, err = ConfigPath()
	if err != nil {
		t.Fatalf("ConfigPath: %v", err)
	}
	if want := filepath.Join(override, "config.toml"); path != want {
		t.Fatalf("unexpected config path: got=%q want=%q", path, want)
	}
}
