package chroot

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/kupferbootstrap/kupferbootstrap/internal/paths"
	"github.com/kupferbootstrap/kupferbootstrap/internal/xerrlib"
)

// DefaultMakepkgConfPath is the chroot-relative path of the default,
// host-mode recipe-build-tool config written into every build chroot.
const DefaultMakepkgConfPath = "etc/makepkg.conf"

// chostTable maps a target arch to its GNU config triplet, used for
// CHOST/CFLAGS/LDFLAGS injection in cross-compile config.
var chostTable = map[string]string{
	"aarch64": "aarch64-linux-gnu",
	"x86_64":  "x86_64-pc-linux-gnu",
}

// CrossTriplet returns the GNU config triplet for targetArch, or "" if
// the arch is unknown. Used both for CHOST injection and for the
// QEMU_LD_PREFIX loader hint ("/usr/<triplet>") emulated builds carry.
func CrossTriplet(targetArch string) string {
	return chostTable[targetArch]
}

// CrossConfigPath returns the chroot-relative path of the cross-compile
// makepkg config for targetArch: written under
// etc/makepkg_cross_<arch>.conf alongside the default etc/makepkg.conf.
func CrossConfigPath(targetArch string) string {
	return fmt.Sprintf("etc/makepkg_cross_%s.conf", targetArch)
}

// WriteDefaultMakepkgConfig patches a build chroot's default makepkg
// config to enable parallel compression and disable the
// check-dependencies phase. confTemplate is the pristine config as
// bootstrapped by the package manager.
func (c *Chroot) WriteDefaultMakepkgConfig(confTemplate []byte) error {
	patched := patchMakepkgConf(confTemplate, nil)
	if err := os.WriteFile(c.HostPath(DefaultMakepkgConfPath), patched, paths.DefaultFileMode); err != nil {
		return xerrlib.Wrap(ErrChrootInitFailed, err)
	}
	return nil
}

// WriteCrossMakepkgConfig renders a cross-compile variant of confTemplate
// for targetArch: CHOST/CFLAGS/LDFLAGS are injected for cross-compiling,
// and CARCH is overridden explicitly. sysroot is the in-native-chroot
// absolute path the target build chroot is bind-mounted at (e.g.
// "/chroot/build_aarch64", per MountCrosscompile) so the cross-compiler
// resolves headers and libraries against the target chroot's root
// instead of the native chroot's own.
func (c *Chroot) WriteCrossMakepkgConfig(confTemplate []byte, targetArch, sysroot string) (string, error) {
	chost := chostTable[targetArch]
	overrides := map[string]string{
		"CARCH":   targetArch,
		"CHOST":   chost,
		"CC":      chost + "-gcc",
		"CXX":     chost + "-g++",
		"CFLAGS":  fmt.Sprintf("-march=%s --sysroot=%s $CFLAGS", targetArch, sysroot),
		"LDFLAGS": fmt.Sprintf("-target %s --sysroot=%s $LDFLAGS", chost, sysroot),
	}

	patched := patchMakepkgConf(confTemplate, overrides)
	relPath := CrossConfigPath(targetArch)
	if err := os.WriteFile(c.HostPath(relPath), patched, paths.DefaultFileMode); err != nil {
		return "", xerrlib.Wrap(ErrChrootInitFailed, err)
	}
	return relPath, nil
}

// AllowRootExecution patches the recipe build tool's identity check so
// it permits execution as uid 0 inside the chroot, replacing "EUID == 0"
// with "EUID == -1". scriptPath is the chroot-relative path to the
// tool's shell script (usr/bin/makepkg).
func (c *Chroot) AllowRootExecution(scriptPath string) error {
	path := c.HostPath(scriptPath)
	data, err := os.ReadFile(path)
	if err != nil {
		return xerrlib.Wrap(ErrChrootInitFailed, err)
	}

	patched := strings.ReplaceAll(string(data), "EUID == 0", "EUID == -1")
	if err := os.WriteFile(path, []byte(patched), paths.DefaultFileMode); err != nil {
		return xerrlib.Wrap(ErrChrootInitFailed, err)
	}
	return nil
}

var (
	parallelCompressionPattern = regexp.MustCompile(`(?m)^#?COMPRESSXZ=.*$`)
	checkDependsPattern        = regexp.MustCompile(`(?m)^OPTIONS=.*$`)
)

// patchMakepkgConf applies the standard build-chroot patches (parallel
// compression enabled, check-dependencies phase disabled) and then
// layers the given key=value overrides, appending any override key not
// already present in the template.
func patchMakepkgConf(template []byte, overrides map[string]string) []byte {
	out := parallelCompressionPattern.ReplaceAll(template, []byte(`COMPRESSXZ=(xz -c -z -T0 -)`))
	out = checkDependsPattern.ReplaceAll(out, []byte(`OPTIONS=(strip docs libtool emptydirs zipman purge !debug !lto !checkdeps)`))

	for _, k := range sortedKeys(overrides) {
		out = append(out, []byte(fmt.Sprintf("\n%s=%q\n", k, overrides[k]))...)
	}
	return out
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	// simple insertion sort, map sizes here are tiny (< 10 entries)
	for i := 1; i < len(keys); i++ {
		for j := i; j > 0 && keys[j-1] > keys[j]; j-- {
			keys[j-1], keys[j] = keys[j], keys[j-1]
		}
	}
	return keys
}
