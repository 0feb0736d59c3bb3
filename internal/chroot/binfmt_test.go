package chroot

import (
	"os"
	"path/filepath"
	"testing"
)

func withBinfmtInfo(t *testing.T, contents string) {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "qemu-static.conf")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatal(err)
	}
	old := binfmtInfoPath
	binfmtInfoPath = path
	t.Cleanup(func() { binfmtInfoPath = old })
}

func TestParseBinfmtInfoSkipsCommentsAndNonQemuHandlers(t *testing.T) {
	withBinfmtInfo(t, ""+
		"# comment line, no colons\n"+
		":qemu-aarch64:M::magic:mask:/usr/bin/qemu-aarch64-static:F\n"+
		":some-other-handler:M::magic:mask:/usr/bin/other:F\n"+
		"garbage line without colons\n",
	)

	handlers, err := parseBinfmtInfo()
	if err != nil {
		t.Fatalf("parseBinfmtInfo: %v", err)
	}
	if _, ok := handlers["aarch64"]; !ok {
		t.Fatalf("expected aarch64 handler, got %v", handlers)
	}
	if len(handlers) != 1 {
		t.Fatalf("expected exactly one recognized handler, got %d: %v", len(handlers), handlers)
	}
}

func TestParseBinfmtInfoMissingFile(t *testing.T) {
	old := binfmtInfoPath
	binfmtInfoPath = filepath.Join(t.TempDir(), "does-not-exist.conf")
	defer func() { binfmtInfoPath = old }()

	if _, err := parseBinfmtInfo(); err == nil {
		t.Fatal("expected an error for a missing binfmt info file")
	}
}

func TestRegisterBinfmtUnknownArch(t *testing.T) {
	withBinfmtInfo(t, ":qemu-aarch64:M::magic:mask:/usr/bin/qemu-aarch64-static:F\n")

	if err := RegisterBinfmt("riscv64"); err == nil {
		t.Fatal("expected an error for an architecture with no registered handler")
	}
}
