package chroot

import (
	"fmt"
	"path/filepath"
	"sync"

	"github.com/kupferbootstrap/kupferbootstrap/internal/arch"
)

// Kind identifies a chroot's role and, with it, its initialization and
// lineage rules.
type Kind string

const (
	KindBase   Kind = "base"
	KindBuild  Kind = "build"
	KindDevice Kind = "device"
)

// pseudoMounts is the fixed, ordered set of pseudo-filesystems Activate
// mounts and Deactivate tears down in reverse, with /proc unmounted last.
var pseudoMounts = []string{
	"proc", "sys", "dev", "dev/pts", "dev/shm", "run", "etc/resolv.conf",
}

// excludeFromBaseCopy lists the bind-mount directories a build chroot's
// directory-tree sync from its base never copies (they get bind-mounted
// separately, or don't belong on the base in the first place).
var excludeFromBaseCopy = []string{"chroot", "prebuilts", "pkgbuilds", "var/cache/pacman", "images", "var/cache/jumpdrive"}

// Chroot is a managed root filesystem. It is owned exclusively by a
// [Manager]; callers receive it via Manager.Get and never construct one
// directly. A Chroot never stores a pointer to another Chroot: a build
// chroot's base and a cross-compile target chroot are referenced by name
// and resolved back through the owning Manager.
type Chroot struct {
	mu sync.Mutex

	// mgr is the owning registry, used only to resolve this chroot's
	// base by name (never stored as a direct *Chroot pointer).
	mgr *Manager

	name string
	kind Kind
	arch arch.Arch
	path string

	// baseName is the name of the chroot whose tree this one is cloned
	// from, set only when copyBase is true: base_<arch> for a build
	// chroot, build_<arch> for a device chroot created with copyBase.
	baseName string

	// copyBase selects whether Initialize clones a base chroot's tree
	// (true: build chroots, and device chroots created with copyBase)
	// or is populated directly by the bootstrap tool / an external
	// partition mount (false: base chroots, and device chroots created
	// without it). Manager.Get derives it from the base_/build_ name
	// prefix; for a device chroot it is always the value passed to
	// Manager.GetDevice, never inferred from the name.
	copyBase bool

	initialized bool
	active      bool

	// activeMounts preserves insertion order; Deactivate unmounts in
	// reverse, with /proc always last regardless of position.
	activeMounts []string

	extraRepos   []string
	basePackages []string
}

// NameBase returns the registry name of the base chroot for a.
func NameBase(a arch.Arch) string { return "base_" + string(a) }

// NameBuild returns the registry name of the build chroot for a.
func NameBuild(a arch.Arch) string { return "build_" + string(a) }

// NameDevice returns the registry name of a device chroot for a given
// device/flavour pair.
func NameDevice(device, flavour string) string { return fmt.Sprintf("rootfs_%s-%s", device, flavour) }

// Name returns this chroot's registry name.
func (c *Chroot) Name() string { return c.name }

// Kind returns this chroot's kind.
func (c *Chroot) Kind() Kind { return c.kind }

// Arch returns this chroot's architecture.
func (c *Chroot) Arch() arch.Arch { return c.arch }

// Path returns the chroot's root filesystem path on the host.
func (c *Chroot) Path() string { return c.path }

// HostPath joins a chroot-relative path onto the chroot's root.
func (c *Chroot) HostPath(rel string) string { return filepath.Join(c.path, rel) }

// Initialized reports whether the chroot has a complete root population.
func (c *Chroot) Initialized() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.initialized
}

// Active reports whether the chroot's pseudo-filesystems are mounted.
func (c *Chroot) Active() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active
}

// ActiveMounts returns a copy of the ordered set of relative mount
// points currently tracked as active, including the pseudo-filesystem
// set once activated.
func (c *Chroot) ActiveMounts() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.activeMounts))
	copy(out, c.activeMounts)
	return out
}

// SetExtraRepos records the extra local repositories to enable in this
// chroot's package-manager config (build and device chroots only).
func (c *Chroot) SetExtraRepos(repos []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.extraRepos = append([]string{}, repos...)
}

// SetBasePackages records the package set Initialize installs.
func (c *Chroot) SetBasePackages(pkgs []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.basePackages = append([]string{}, pkgs...)
}
