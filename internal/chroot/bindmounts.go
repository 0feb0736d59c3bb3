package chroot

import (
	"path/filepath"
	"strings"

	"github.com/kupferbootstrap/kupferbootstrap/internal/paths"
)

// MountPkgbuilds bind-mounts the recipe tree at the pkgbuilds bind-mount
// point ("pkgbuilds -> /pkgbuilds").
func (c *Chroot) MountPkgbuilds(hostPkgbuilds string, failIfMounted bool) error {
	return c.Mount(hostPkgbuilds, strings.TrimPrefix(paths.InChroot(paths.KeyPkgbuilds), "/"), []string{"bind"}, "", failIfMounted)
}

// MountPackages bind-mounts the prebuilt-package output tree at the
// packages bind-mount point ("packages -> /prebuilts").
func (c *Chroot) MountPackages(hostPackages string, failIfMounted bool) error {
	return c.Mount(hostPackages, strings.TrimPrefix(paths.InChroot(paths.KeyPackages), "/"), []string{"bind"}, "", failIfMounted)
}

// MountPacmanCache bind-mounts the per-arch pacman cache directory
// <hostCache>/<arch> (created if missing) at the pacman bind-mount point
// ("pacman -> /var/cache/pacman/<arch>"). hostCache is the unscoped
// pacman cache root; each arch gets its own subdirectory so a native and
// a foreign chroot never race on the same package cache.
func (c *Chroot) MountPacmanCache(hostCache string, failIfMounted bool) error {
	archCache := filepath.Join(hostCache, string(c.arch))
	if err := ensureDir(archCache); err != nil {
		return err
	}
	return c.Mount(archCache, strings.TrimPrefix(paths.InChroot(paths.KeyPacman), "/")+"/"+string(c.arch), []string{"bind"}, "", failIfMounted)
}

// MountForeignInNative bind-mounts a foreign build chroot's root at
// /chroot/<name> inside this (native) chroot, used by cross-compile
// strategy selection to make the target build chroot's sysroot reachable
// from the native compiler's invocation.
func (c *Chroot) MountForeignInNative(foreign *Chroot, failIfMounted bool) error {
	return c.Mount(foreign.path, ForeignInNativeRelPath(foreign.name), []string{"bind"}, "", failIfMounted)
}

// ForeignInNativeRelPath is the chroot-relative mount destination
// MountForeignInNative uses for a foreign chroot named name.
func ForeignInNativeRelPath(name string) string {
	return strings.TrimPrefix(paths.InChroot(paths.KeyChroots), "/") + "/" + name
}

// CrosscompileSysroot is the absolute in-native-chroot path a foreign
// chroot named name is reachable at once MountForeignInNative (via
// MountCrosscompile) has bind-mounted it in. A cross-compile makepkg
// config's CFLAGS/LDFLAGS --sysroot should point at this value.
func CrosscompileSysroot(name string) string {
	return paths.InChroot(paths.KeyChroots) + "/" + name
}
