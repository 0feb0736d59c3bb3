package chroot

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kupferbootstrap/kupferbootstrap/internal/arch"
)

func TestWritePacmanConfigRendersOptionsAndRepos(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "etc"), 0o755); err != nil {
		t.Fatal(err)
	}
	c := &Chroot{path: dir, arch: arch.Aarch64, extraRepos: []string{"kupfer-main"}}

	mirrors := []Repo{{Name: "core", ServerURLs: []string{"http://example.org/$arch/$repo"}}}
	if err := c.WritePacmanConfig(mirrors, 5); err != nil {
		t.Fatalf("WritePacmanConfig: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "etc", "pacman.conf"))
	if err != nil {
		t.Fatal(err)
	}
	s := string(data)

	for _, want := range []string{
		"Architecture = aarch64",
		"ParallelDownloads = 5",
		"[core]",
		"Server = http://example.org/$arch/$repo",
		"[kupfer-main]",
	} {
		if !strings.Contains(s, want) {
			t.Fatalf("pacman.conf missing %q, got:\n%s", want, s)
		}
	}
}

func TestWritePacmanConfigOmitsParallelDownloadsWhenZero(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "etc"), 0o755); err != nil {
		t.Fatal(err)
	}
	c := &Chroot{path: dir, arch: arch.X86_64}

	if err := c.WritePacmanConfig(nil, 0); err != nil {
		t.Fatalf("WritePacmanConfig: %v", err)
	}
	data, _ := os.ReadFile(filepath.Join(dir, "etc", "pacman.conf"))
	if strings.Contains(string(data), "ParallelDownloads") {
		t.Fatal("expected no ParallelDownloads line when 0")
	}
}
