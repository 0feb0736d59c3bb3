package paths

import (
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
)

const (

	// Name used for directory and file naming.
	appName = "kupferbootstrap"

	// Default permission mode for directories.
	DefaultDirMode os.FileMode = 0755

	// Default permission mode for files.
	DefaultFileMode os.FileMode = 0644
)

// Runtime returns the directory for runtime files (such as the PID
// file).
//
//	Linux:   $XDG_RUNTIME_DIR/kupferbootstrap or /run/user/<uid>/kupferbootstrap
//	macOS:   ~/Library/Caches/kupferbootstrap/run
func Runtime() string {
	if xdg.RuntimeDir != "" {
		return filepath.Join(xdg.RuntimeDir, appName)
	}
	return filepath.Join(xdg.CacheHome, appName, "run")
}

// PIDFile returns the default path to the PID file of a long-running build.
func PIDFile() string {
	return filepath.Join(Runtime(), appName+".pid")
}

// CacheDir returns the root cache directory under which chroots, the
// pacman cache, prebuilt packages, cloned pkgbuilds, and built images
// live by default. Config values under paths.* override the individual
// subdirectories; this is only the fallback root.
func CacheDir() string {
	return filepath.Join(xdg.CacheHome, appName)
}

// ConfigFile returns the default path to the kupferbootstrap config file.
func ConfigFile() string {
	return filepath.Join(xdg.ConfigHome, appName, "config.yaml")
}

// Bind-mount keys used inside a chroot, mirroring the host-side paths
// keys of the same name under the "paths" config section.
const (
	KeyChroots   = "chroots"
	KeyJumpdrive = "jumpdrive"
	KeyPacman    = "pacman"
	KeyPackages  = "packages"
	KeyPkgbuilds = "pkgbuilds"
	KeyImages    = "images"
)

// InChroot returns the absolute path, as seen from inside any chroot,
// that the given bind-mount key is mounted at.
func InChroot(key string) string {
	switch key {
	case KeyChroots:
		return "/chroot"
	case KeyJumpdrive:
		return "/var/cache/jumpdrive"
	case KeyPacman:
		return "/var/cache/pacman"
	case KeyPackages:
		return "/prebuilts"
	case KeyPkgbuilds:
		return "/pkgbuilds"
	case KeyImages:
		return "/images"
	default:
		return ""
	}
}

// DefaultHostPath returns the default host-side directory for the given
// bind-mount key, rooted at CacheDir. Config overrides replace this.
func DefaultHostPath(key string) string {
	return filepath.Join(CacheDir(), key)
}
