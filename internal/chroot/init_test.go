package chroot

import (
	"os"
	"path/filepath"
	"testing"
)

func TestRemoveContentsLeavesDirItself(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "a"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.Mkdir(filepath.Join(dir, "sub"), 0o755); err != nil {
		t.Fatal(err)
	}

	if err := removeContents(dir); err != nil {
		t.Fatalf("removeContents: %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected dir to be empty, got %v", entries)
	}
	if _, err := os.Stat(dir); err != nil {
		t.Fatal("removeContents should not remove dir itself")
	}
}

func TestRemoveContentsMissingDirIsNoOp(t *testing.T) {
	if err := removeContents(filepath.Join(t.TempDir(), "missing")); err != nil {
		t.Fatalf("removeContents on missing dir should be a no-op, got %v", err)
	}
}

func TestInitializeIsNoOpWhenAlreadyInitialized(t *testing.T) {
	c := &Chroot{initialized: true}
	if err := c.Initialize(nil, false); err != nil {
		t.Fatalf("Initialize on already-initialized chroot should no-op, got %v", err)
	}
}

func TestInitBuildRejectsSelfReferencingBase(t *testing.T) {
	m := newTestManager(t)
	build, err := m.Get("build_x86_64")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	build.baseName = build.name

	if err := build.Initialize(nil, false); err == nil {
		t.Fatal("expected an error when a build chroot's base resolves to itself")
	}
}
