package chroot

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/kupferbootstrap/kupferbootstrap/internal/arch"
	"github.com/kupferbootstrap/kupferbootstrap/internal/xerrlib"
)

// gccHostspecs maps a native (host) architecture to the GNU config
// triplet its cross-compiler targets a given foreign architecture under,
// mirroring the distro's GCC package naming.
var gccHostspecs = map[arch.Arch]map[arch.Arch]string{
	arch.X86_64: {
		arch.X86_64:  "x86_64-pc-linux-gnu",
		arch.Aarch64: "aarch64-linux-gnu",
	},
	arch.Aarch64: {
		arch.Aarch64: "aarch64-unknown-linux-gnu",
	},
}

// CrossdirectInfraPackages are installed into the native chroot before
// it is bind-mounted into a foreign build chroot as /native. Exported so
// the build scheduler can recognize these recipes as the crossdirect/
// qemu-user infrastructure itself and skip wiring crossdirect for their
// own builds.
var CrossdirectInfraPackages = []string{"crossdirect", "qemu-user-static-bin", "binfmt-qemu-static-all-arch"}

// crossdirectPackages is the package set MountCrossdirect installs into
// the native chroot, together with the cross-compiler package.
var crossdirectPackages = CrossdirectInfraPackages

// CrossCompilerPackage returns the distro GCC package name that
// cross-compiles for target from native, and whether one is known.
func CrossCompilerPackage(native, target arch.Arch) (string, bool) {
	hostspec, ok := gccHostspecs[native][target]
	if !ok {
		return "", false
	}
	return hostspec + "-gcc", true
}

// MountCrossdirect activates crossdirect in this (foreign) build chroot:
// native is initialized, given its pacman cache and prebuilt-package bind
// mounts (hostPacmanCache/hostPackages, the same host directories the
// caller already resolved for its own chroots), activated, and has
// crossdirect plus the cross-compiler package for this chroot's
// architecture installed. It is then bind-mounted at <this>/native, and
// a handful of compatibility symlinks are created so the foreign
// chroot's build tooling picks up the host-native compiler transparently
// instead of compiling under emulation. Returns the absolute host path
// native was mounted at.
func (c *Chroot) MountCrossdirect(ctx context.Context, native *Chroot, hostPacmanCache, hostPackages string, failIfMounted bool) (string, error) {
	hostspec, ok := gccHostspecs[native.arch][c.arch]
	if !ok {
		return "", xerrlib.Wrapf(ErrChrootInitFailed, "no GCC hostspec for native=%s target=%s", native.arch, c.arch)
	}
	cc := hostspec + "-cc"
	gcc := hostspec + "-gcc"

	nativeMount := filepath.Join(c.path, "native")

	if err := native.Initialize(ctx, false); err != nil {
		return "", err
	}
	if err := native.MountPacmanCache(hostPacmanCache, false); err != nil {
		return "", err
	}
	if err := native.MountPackages(hostPackages, false); err != nil {
		return "", err
	}
	if err := native.Activate(); err != nil {
		return "", err
	}

	results, err := native.InstallPackages(ctx, append(append([]string{}, crossdirectPackages...), gcc), true, false)
	if err != nil {
		return "", err
	}
	if res := results[gcc]; res != nil && res.ExitCode != 0 {
		slog.Debug("failed to install cross-compiler package, crossdirect may still work", "package", gcc)
	}
	if res := results["crossdirect"]; res == nil || res.ExitCode != 0 {
		return "", xerrlib.Wrapf(ErrChrootInitFailed, "failed to install crossdirect in %s", native.name)
	}

	ccPath := filepath.Join(native.path, "usr", "bin", cc)
	targetLibDir := filepath.Join(c.path, "lib64")
	targetIncludeDir := filepath.Join(c.path, "include")

	symlinks := map[string]string{
		ccPath:           gcc,
		targetLibDir:     "lib",
		targetIncludeDir: "usr/include",
	}
	for target, source := range symlinks {
		if _, err := os.Lstat(target); os.IsNotExist(err) {
			if err := os.Symlink(source, target); err != nil {
				return "", xerrlib.Wrap(ErrChrootInitFailed, err)
			}
		}
	}

	ldSoName, err := findLdLinuxSo(native.path)
	if err != nil {
		return "", err
	}
	ldSoTarget := filepath.Join(targetLibDir, ldSoName)
	if _, err := os.Lstat(ldSoTarget); os.IsNotExist(err) {
		if err := os.Symlink(filepath.Join("/native", "usr", "lib", ldSoName), ldSoTarget); err != nil {
			return "", xerrlib.Wrap(ErrChrootInitFailed, err)
		}
	}

	rustc := filepath.Join(native.path, "usr/lib/crossdirect", string(c.arch), "rustc")
	if _, err := os.Stat(rustc); err == nil {
		if err := os.Remove(rustc); err != nil {
			return "", xerrlib.Wrap(ErrChrootInitFailed, err)
		}
	}

	if err := ensureDir(nativeMount); err != nil {
		return "", xerrlib.Wrap(ErrChrootInitFailed, err)
	}
	if err := c.Mount(native.path, "native", []string{"bind"}, "", failIfMounted); err != nil {
		return "", err
	}
	return nativeMount, nil
}

// findLdLinuxSo locates the native chroot's dynamic linker, whose exact
// name varies by architecture ("ld-linux-x86-64.so.2",
// "ld-linux-aarch64.so.1").
func findLdLinuxSo(nativePath string) (string, error) {
	matches, err := filepath.Glob(filepath.Join(nativePath, "usr", "lib", "ld-linux-*"))
	if err != nil {
		return "", xerrlib.Wrap(ErrChrootInitFailed, err)
	}
	if len(matches) == 0 {
		return "", xerrlib.Wrapf(ErrChrootInitFailed, "no ld-linux.so found under %s/usr/lib", nativePath)
	}
	return filepath.Base(matches[0]), nil
}

// MountCrosscompile bind-mounts a foreign build chroot's root at
// /chroot/<name> inside this (native) chroot so its sysroot is reachable
// from a host-native cross-compiler invocation.
func (c *Chroot) MountCrosscompile(ctx context.Context, foreign *Chroot, failIfMounted bool) error {
	return c.MountForeignInNative(foreign, failIfMounted)
}
