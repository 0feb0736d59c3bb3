package repo

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/kupferbootstrap/kupferbootstrap/internal/arch"
	"github.com/kupferbootstrap/kupferbootstrap/internal/config"
	"github.com/kupferbootstrap/kupferbootstrap/internal/paths"
)

// fakeScript writes an executable shell script to dir/name and returns
// its path, for overriding repoAddBinary/tarBinary in tests without
// depending on the real distro tools being installed.
func fakeScript(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755); err != nil {
		t.Fatal(err)
	}
	return path
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	root := t.TempDir()
	cfg.Paths.Packages = filepath.Join(root, "packages")
	cfg.Paths.Pacman = filepath.Join(root, "pacman")
	return cfg
}

func TestInitIndexCreatesArchivePairsForEveryBucket(t *testing.T) {
	scriptDir := t.TempDir()
	oldTar := tarBinary
	tarBinary = fakeScript(t, scriptDir, "tar", `
for a in "$@"; do
  case "$a" in
    --file=*) out="${a#--file=}";;
  esac
done
: > "$out"
`)
	t.Cleanup(func() { tarBinary = oldTar })

	cfg := testConfig(t)
	if err := InitIndex(cfg, arch.X86_64); err != nil {
		t.Fatalf("InitIndex: %v", err)
	}

	idx := New(cfg, arch.X86_64, "main")
	for _, p := range []string{idx.dbArchive(), idx.filesArchive()} {
		if _, err := os.Stat(p); err != nil {
			t.Fatalf("expected archive %s to exist: %v", p, err)
		}
	}
}

func TestInitIndexIsIdempotent(t *testing.T) {
	scriptDir := t.TempDir()
	oldTar := tarBinary
	tarBinary = fakeScript(t, scriptDir, "tar", `
for a in "$@"; do
  case "$a" in
    --file=*) out="${a#--file=}";;
  esac
done
: > "$out"
`)
	t.Cleanup(func() { tarBinary = oldTar })

	cfg := testConfig(t)
	if err := InitIndex(cfg, arch.X86_64); err != nil {
		t.Fatalf("first InitIndex: %v", err)
	}
	idx := New(cfg, arch.X86_64, "main")
	marker := []byte("sentinel")
	if err := os.WriteFile(idx.dbArchive(), marker, 0o644); err != nil {
		t.Fatal(err)
	}

	if err := InitIndex(cfg, arch.X86_64); err != nil {
		t.Fatalf("second InitIndex: %v", err)
	}

	got, err := os.ReadFile(idx.dbArchive())
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "sentinel" {
		t.Fatal("InitIndex should not recreate an already-existing archive")
	}
}

func TestAddFileRefreshesUnsuffixedCopyAfterRepoAdd(t *testing.T) {
	scriptDir := t.TempDir()
	oldRepoAdd := repoAddBinary
	// Fake repo-add: appends the package name to the db archive so we
	// can assert the unsuffixed copy reflects the post-update archive.
	// Invoked as `repo-add --remove <db> <pkg>`.
	repoAddBinary = fakeScript(t, scriptDir, "repo-add", `
db="$2"
pkg="$3"
echo "$pkg" >> "$db"
`)
	t.Cleanup(func() { repoAddBinary = oldRepoAdd })

	cfg := testConfig(t)
	idx := New(cfg, arch.X86_64, "main")
	if err := os.MkdirAll(idx.dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(idx.dbArchive(), nil, 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(idx.filesArchive(), nil, 0o644); err != nil {
		t.Fatal(err)
	}

	srcDir := t.TempDir()
	pkgPath := filepath.Join(srcDir, "foo-1.0-1-x86_64.pkg.tar.zst")
	if err := os.WriteFile(pkgPath, []byte("package contents"), 0o644); err != nil {
		t.Fatal(err)
	}

	f, err := idx.AddFile(context.Background(), pkgPath)
	if err != nil {
		t.Fatalf("AddFile: %v", err)
	}
	if f.Name != "foo-1.0-1-x86_64.pkg.tar.zst" {
		t.Fatalf("unexpected file name: %s", f.Name)
	}
	if f.Digest == "" {
		t.Fatal("expected a non-empty digest")
	}

	if !idx.Has(f.Name) {
		t.Fatal("expected the added file to be present in the bucket")
	}
	if _, err := os.Stat(pkgPath); !os.IsNotExist(err) {
		t.Fatal("expected the source path to be moved, not copied")
	}

	archiveContents, err := os.ReadFile(idx.dbArchive())
	if err != nil {
		t.Fatal(err)
	}
	plainContents, err := os.ReadFile(idx.db())
	if err != nil {
		t.Fatal(err)
	}
	if string(archiveContents) != string(plainContents) {
		t.Fatalf("unsuffixed copy %q does not match archive %q", plainContents, archiveContents)
	}
}

func TestAddFileEvictsStalePacmanCacheEntry(t *testing.T) {
	scriptDir := t.TempDir()
	oldRepoAdd := repoAddBinary
	repoAddBinary = fakeScript(t, scriptDir, "repo-add", `:`)
	t.Cleanup(func() { repoAddBinary = oldRepoAdd })

	cfg := testConfig(t)
	idx := New(cfg, arch.X86_64, "main")
	if err := os.MkdirAll(idx.dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(idx.dbArchive(), nil, 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(idx.filesArchive(), nil, 0o644); err != nil {
		t.Fatal(err)
	}

	cacheDir := filepath.Join(cfg.HostPath(paths.KeyPacman), string(arch.X86_64))
	if err := os.MkdirAll(cacheDir, 0o755); err != nil {
		t.Fatal(err)
	}
	stale := filepath.Join(cacheDir, "foo-1.0-1-x86_64.pkg.tar.zst")
	if err := os.WriteFile(stale, []byte("old"), 0o644); err != nil {
		t.Fatal(err)
	}

	srcDir := t.TempDir()
	pkgPath := filepath.Join(srcDir, "foo-1.0-1-x86_64.pkg.tar.zst")
	if err := os.WriteFile(pkgPath, []byte("new"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := idx.AddFile(context.Background(), pkgPath); err != nil {
		t.Fatalf("AddFile: %v", err)
	}

	if _, err := os.Stat(stale); !os.IsNotExist(err) {
		t.Fatal("expected the stale pacman cache entry to be evicted")
	}
}

func TestExpectedName(t *testing.T) {
	got := ExpectedName("foo", "1.0-1", arch.Aarch64, "zst")
	want := "foo-1.0-1-aarch64.pkg.tar.zst"
	if got != want {
		t.Fatalf("ExpectedName = %q, want %q", got, want)
	}
}
