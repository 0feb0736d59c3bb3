package chroot

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestAllowRootExecutionReplacesLiteralGuard(t *testing.T) {
	dir := t.TempDir()
	script := "if ((EUID == 0)) && ! ...; then\n  die\nfi\n"
	if err := os.WriteFile(filepath.Join(dir, "makepkg"), []byte(script), 0o755); err != nil {
		t.Fatal(err)
	}

	c := &Chroot{path: dir}
	if err := c.AllowRootExecution("makepkg"); err != nil {
		t.Fatalf("AllowRootExecution: %v", err)
	}

	patched, err := os.ReadFile(filepath.Join(dir, "makepkg"))
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(patched), "EUID == 0") {
		t.Fatal("expected EUID == 0 to be replaced")
	}
	if !strings.Contains(string(patched), "EUID == -1") {
		t.Fatalf("expected EUID == -1 in patched script, got %q", patched)
	}
}

func TestPatchMakepkgConfOverridesAppendMissingKeys(t *testing.T) {
	template := []byte("CARCH=\"x86_64\"\n#COMPRESSXZ=(xz -c -z -)\nOPTIONS=(strip docs)\n")
	out := patchMakepkgConf(template, map[string]string{"CHOST": "aarch64-linux-gnu"})

	s := string(out)
	if strings.Contains(s, "#COMPRESSXZ") {
		t.Fatal("expected COMPRESSXZ line to be uncommented/rewritten")
	}
	if !strings.Contains(s, "!checkdeps") {
		t.Fatal("expected OPTIONS to disable checkdeps")
	}
	if !strings.Contains(s, `CHOST="aarch64-linux-gnu"`) {
		t.Fatalf("expected CHOST override appended, got %q", s)
	}
}

func TestSortedKeys(t *testing.T) {
	got := sortedKeys(map[string]string{"CXX": "1", "CARCH": "2", "CC": "3"})
	want := []string{"CARCH", "CC", "CXX"}
	if len(got) != len(want) {
		t.Fatalf("sortedKeys = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("sortedKeys[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}
