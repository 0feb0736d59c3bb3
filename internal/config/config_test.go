package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFileReturnsDefault(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !cfg.StrictCache {
		t.Fatal("default config should have strict cache consistency on")
	}
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("bogus_top_level_key: true\n"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(path); err == nil {
		t.Fatal("expected error for unknown top-level key")
	}
}

func TestLoadParsesKnownFields(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
build:
  threads: 4
  crosscompile: true
pkgbuilds:
  git_repo: https://example.invalid/pkgbuilds.git
  git_branch: main
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Build.Threads != 4 {
		t.Errorf("Threads = %d, want 4", cfg.Build.Threads)
	}
	if cfg.Pkgbuilds.GitBranch != "main" {
		t.Errorf("GitBranch = %q, want main", cfg.Pkgbuilds.GitBranch)
	}
}

func TestThreadsAutoFallback(t *testing.T) {
	cfg := Default()
	if got := cfg.Threads(8); got != 8 {
		t.Errorf("Threads(8) = %d, want 8 (auto)", got)
	}
	cfg.Build.Threads = 2
	if got := cfg.Threads(8); got != 2 {
		t.Errorf("Threads(8) with override = %d, want 2", got)
	}
}

func TestResolveProfileInheritance(t *testing.T) {
	cfg := Default()
	cfg.Profiles["base"] = Profile{Device: "oneplus-enchilada", Hostname: "phosh"}
	cfg.Profiles["child"] = Profile{Parent: "base", Username: "user"}

	resolved, err := cfg.ResolveProfile("child")
	if err != nil {
		t.Fatalf("ResolveProfile() error = %v", err)
	}
	if resolved.Device != "oneplus-enchilada" {
		t.Errorf("Device = %q, want inherited value", resolved.Device)
	}
	if resolved.Username != "user" {
		t.Errorf("Username = %q, want user", resolved.Username)
	}
}

func TestResolveProfileCycle(t *testing.T) {
	cfg := Default()
	cfg.Profiles["a"] = Profile{Parent: "b"}
	cfg.Profiles["b"] = Profile{Parent: "a"}

	if _, err := cfg.ResolveProfile("a"); err == nil {
		t.Fatal("expected cycle error")
	}
}

func TestHostPathOverride(t *testing.T) {
	cfg := Default()
	cfg.Paths.Chroots = "/custom/chroots"
	if got := cfg.HostPath("chroots"); got != "/custom/chroots" {
		t.Errorf("HostPath(chroots) = %q, want /custom/chroots", got)
	}
}
