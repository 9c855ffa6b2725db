package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestSaveAndLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ConfigFileName)

	cfg := &Config{
		Servers: []Server{
			{URL: "https://api.agency.gov", Alias: "production"},
			{URL: "http://localhost:8000", Alias: "local"},
		},
	}

	if err := Save(path, cfg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(loaded.Servers) != 2 {
		t.Fatalf("expected 2 servers, got %d", len(loaded.Servers))
	}
	if loaded.Servers[0].URL != "https://api.agency.gov" {
		t.Errorf("unexpected URL: %s", loaded.Servers[0].URL)
	}
	if loaded.Servers[1].Alias != "local" {
		t.Errorf("unexpected alias: %s", loaded.Servers[1].Alias)
	}
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ConfigFileName)

	if err := os.WriteFile(path, []byte("servers: [unclosed"), 0644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}

	if _, err := Load(path); err == nil {
		t.Error("expected error for malformed YAML, got nil")
	}
}

func TestFindConfigFileWalksUp(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "a", "b", "c")
	if err := os.MkdirAll(nested, 0755); err != nil {
		t.Fatalf("failed to create dirs: %v", err)
	}

	cfgPath := filepath.Join(root, ConfigFileName)
	if err := Save(cfgPath, DefaultConfig()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	originalDir, err := os.Getwd()
	if err != nil {
		t.Fatalf("failed to get working directory: %v", err)
	}
	defer os.Chdir(originalDir)

	if err := os.Chdir(nested); err != nil {
		t.Fatalf("failed to change directory: %v", err)
	}

	found, err := FindConfigFile()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Resolve symlinks so the comparison survives /tmp -> /private/tmp setups
	wantResolved, _ := filepath.EvalSymlinks(cfgPath)
	foundResolved, _ := filepath.EvalSymlinks(found)
	if foundResolved != wantResolved {
		t.Errorf("expected %s, got %s", wantResolved, foundResolved)
	}
}

func TestGetServerByAlias(t *testing.T) {
	cfg := &Config{
		Servers: []Server{
			{URL: "https://api.agency.gov", Alias: "production"},
		},
	}

	server, err := cfg.GetServerByAlias("production")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if server.URL != "https://api.agency.gov" {
		t.Errorf("unexpected URL: %s", server.URL)
	}

	if _, err := cfg.GetServerByAlias("staging"); err == nil {
		t.Error("expected error for unknown alias, got nil")
	}
}

func TestGetDefaultServer(t *testing.T) {
	empty := &Config{}
	if _, err := empty.GetDefaultServer(); err == nil {
		t.Error("expected error for empty server list, got nil")
	}

	cfg := DefaultConfig()
	server, err := cfg.GetDefaultServer()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if server.Alias != "local" {
		t.Errorf("unexpected alias: %s", server.Alias)
	}
}
