package chroot

import "testing"

func TestCrossCompilerPackageKnownPair(t *testing.T) {
	pkg, ok := CrossCompilerPackage("x86_64", "aarch64")
	if !ok {
		t.Fatal("expected a known cross-compiler for x86_64 -> aarch64")
	}
	if pkg != "aarch64-linux-gnu-gcc" {
		t.Fatalf("pkg = %q, want aarch64-linux-gnu-gcc", pkg)
	}
}

func TestCrossCompilerPackageUnknownPair(t *testing.T) {
	if _, ok := CrossCompilerPackage("aarch64", "x86_64"); ok {
		t.Fatal("expected no known cross-compiler for aarch64 -> x86_64")
	}
}

func TestForeignInNativeRelPath(t *testing.T) {
	if got, want := ForeignInNativeRelPath("build_aarch64"), "chroot/build_aarch64"; got != want {
		t.Fatalf("ForeignInNativeRelPath = %q, want %q", got, want)
	}
}

func TestCrosscompileSysroot(t *testing.T) {
	if got, want := CrosscompileSysroot("build_aarch64"), "/chroot/build_aarch64"; got != want {
		t.Fatalf("CrosscompileSysroot = %q, want %q", got, want)
	}
}
