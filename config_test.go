package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfig_MissingFileUsesDefaults(t *testing.T) {
	t.Setenv("KMSGRAB_CONFIG", filepath.Join(t.TempDir(), "config.yaml"))

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Backend != backendDRM {
		t.Errorf("default backend = %q, want drm", cfg.Backend)
	}
	if cfg.MaxCards != 16 {
		t.Errorf("default max_cards = %d, want 16", cfg.MaxCards)
	}
	if cfg.Log.Level != "info" {
		t.Errorf("default log level = %q, want info", cfg.Log.Level)
	}
}

func TestLoadConfig_ParsesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte("backend: x11\nmax_cards: 4\nlog:\n  level: debug\n")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("KMSGRAB_CONFIG", path)

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Backend != backendX11 {
		t.Errorf("backend = %q, want x11", cfg.Backend)
	}
	if cfg.MaxCards != 4 {
		t.Errorf("max_cards = %d, want 4", cfg.MaxCards)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("log level = %q, want debug", cfg.Log.Level)
	}
}

func TestLoadConfig_PartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("backend: auto\n"), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("KMSGRAB_CONFIG", path)

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Backend != backendAuto {
		t.Errorf("backend = %q, want auto", cfg.Backend)
	}
	if cfg.MaxCards != 16 {
		t.Errorf("max_cards = %d, want default 16", cfg.MaxCards)
	}
}

func TestLoadConfig_RejectsBadValues(t *testing.T) {
	cases := []struct {
		name string
		yaml string
	}{
		{"unknown backend", "backend: wayland\n"},
		{"zero max_cards", "max_cards: 0\n"},
		{"unknown log level", "log:\n  level: trace\n"},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			if err := os.WriteFile(path, []byte(c.yaml), 0644); err != nil {
				t.Fatal(err)
			}
			t.Setenv("KMSGRAB_CONFIG", path)

			if _, err := LoadConfig(); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestConfigPath_DirOverride(t *testing.T) {
	t.Setenv("KMSGRAB_CONFIG", "")
	dir := t.TempDir()
	configDir = dir
	t.Cleanup(func() { configDir = "" })

	path, err := configPath()
	if err != nil {
		t.Fatalf("configPath: %v", err)
	}
	if path != filepath.Join(dir, "config.yaml") {
		t.Errorf("got %q", path)
	}
}
