package chroot

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/kupferbootstrap/kupferbootstrap/internal/arch"
	"github.com/kupferbootstrap/kupferbootstrap/internal/config"
	"github.com/kupferbootstrap/kupferbootstrap/internal/xerrlib"
)

// Manager is the process-wide chroot registry: a caller asking twice for
// the same name receives the same handle; it is not reentrant.
type Manager struct {
	mu      sync.Mutex
	cfg     *config.Config
	chroots map[string]*Chroot
}

// managers tracks every Manager constructed in this process so Cleanup
// can walk them all at exit.
var managers struct {
	mu   sync.Mutex
	list []*Manager
}

// NewManager creates a registry rooted at cfg's configured paths and
// records it for Cleanup.
func NewManager(cfg *config.Config) *Manager {
	m := &Manager{
		cfg:     cfg,
		chroots: map[string]*Chroot{},
	}
	managers.mu.Lock()
	managers.list = append(managers.list, m)
	managers.mu.Unlock()
	return m
}

// Cleanup deactivates every chroot of every Manager constructed in this
// process. This is the single process-exit hook that walks the
// registry: the CLI defers it around the selected subcommand, so
// pseudo-filesystem and bind mounts never outlive the process whether
// the command succeeds, fails, or is interrupted.
func Cleanup() {
	managers.mu.Lock()
	list := append([]*Manager{}, managers.list...)
	managers.mu.Unlock()
	for _, m := range list {
		m.DeactivateAll()
	}
}

// Get returns the chroot registered under name, constructing it
// according to the naming convention (base_<arch>, build_<arch>,
// rootfs_<device>-<flavour>) on first request. The kind and arch
// embedded in the name determine copyBase and lineage; device chroots
// must be registered explicitly via GetDevice since their kind cannot be
// inferred from the name alone.
func (m *Manager) Get(name string) (*Chroot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if c, ok := m.chroots[name]; ok {
		return c, nil
	}

	var c *Chroot
	switch {
	case hasPrefix(name, "base_"):
		a, err := arch.Parse(name[len("base_"):])
		if err != nil {
			return nil, err
		}
		c = &Chroot{mgr: m, name: name, kind: KindBase, arch: a, copyBase: false, path: m.pathFor(name)}
	case hasPrefix(name, "build_"):
		a, err := arch.Parse(name[len("build_"):])
		if err != nil {
			return nil, err
		}
		c = &Chroot{mgr: m, name: name, kind: KindBuild, arch: a, copyBase: true, baseName: NameBase(a), path: m.pathFor(name)}
	default:
		return nil, xerrlib.Wrapf(ErrChrootInitFailed, "unrecognized chroot name %q (want base_<arch>, build_<arch>, or GetDevice)", name)
	}

	m.chroots[name] = c
	return c, nil
}

// GetDevice returns (constructing if needed) the device chroot for the
// given device/flavour, rooted at partitionPath (the target image's
// mounted partition) rather than under the chroots cache dir.
// copyBase is normally false: a device chroot's root filesystem is the
// image partition itself, not a clone of a base chroot. Passing
// copyBase=true is reserved for device flavours that explicitly want a
// base/build-style population instead of an external partition.
func (m *Manager) GetDevice(device, flavour, partitionPath string, copyBase bool, a arch.Arch) (*Chroot, error) {
	name := NameDevice(device, flavour)

	m.mu.Lock()
	defer m.mu.Unlock()

	if c, ok := m.chroots[name]; ok {
		return c, nil
	}

	c := &Chroot{mgr: m, name: name, kind: KindDevice, arch: a, copyBase: copyBase, path: partitionPath}
	if copyBase {
		c.baseName = NameBuild(a)
	}
	m.chroots[name] = c
	return c, nil
}

// Base resolves a build chroot's base chroot by name through the
// registry, never through a stored pointer.
func (m *Manager) Base(c *Chroot) (*Chroot, error) {
	if c.baseName == "" {
		return nil, nil
	}
	return m.Get(c.baseName)
}

// All returns every chroot currently registered, in no particular order.
func (m *Manager) All() []*Chroot {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*Chroot, 0, len(m.chroots))
	for _, c := range m.chroots {
		out = append(out, c)
	}
	return out
}

func (m *Manager) pathFor(name string) string {
	return filepath.Join(m.cfg.HostPath("chroots"), name)
}

// DeactivateAll deactivates every registered chroot, best-effort.
// A chroot with tracked bind mounts but no active pseudo-filesystems
// (e.g. deactivated core with pkgbuilds still mounted) is torn down
// too, not just fully active ones.
func (m *Manager) DeactivateAll() {
	for _, c := range m.All() {
		if c.Active() || len(c.ActiveMounts()) > 0 {
			_ = c.Deactivate()
		}
	}
}

func hasPrefix(s, prefix string) bool {
	return len(s) >= len(prefix) && s[:len(prefix)] == prefix
}

// ensureDir creates dir (and parents) if it does not already exist.
func ensureDir(dir string) error {
	return os.MkdirAll(dir, 0o755)
}
