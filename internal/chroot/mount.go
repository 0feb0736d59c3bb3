package chroot

import (
	"bufio"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"golang.org/x/sys/unix"

	"github.com/kupferbootstrap/kupferbootstrap/internal/metrics"
	"github.com/kupferbootstrap/kupferbootstrap/internal/xerrlib"
)

// StrictMountConsistency, when true (the default), turns a detected
// mount-tracking inconsistency into a hard error. When false, the same
// condition is only logged as a warning ("strict_cache_consistency=false").
var StrictMountConsistency = true

// Mount bind-mounts (or mounts, for a real fs_type) source onto the
// chroot-relative destination, creating the destination if needed and
// recording it in ActiveMounts. fsType == "" means a bind mount of a
// host path; a non-empty fsType (e.g. "proc", "sysfs", "tmpfs",
// "devpts") mounts a pseudo-filesystem instead and source is ignored.
func (c *Chroot) Mount(source, relDest string, options []string, fsType string, failIfMounted bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mountLocked(source, relDest, options, fsType, failIfMounted)
}

func (c *Chroot) mountLocked(source, relDest string, options []string, fsType string, failIfMounted bool) error {
	dest := c.HostPath(relDest)

	hostMounted := isMounted(dest)
	tracked := contains(c.activeMounts, relDest)

	if hostMounted && !tracked {
		if StrictMountConsistency {
			return xerrlib.Wrapf(ErrLeakedMount, "%s is mounted on the host but not tracked", dest)
		}
		slog.Warn("adopting a mount present on the host but not tracked", "dest", dest)
		c.activeMounts = append(c.activeMounts, relDest)
		tracked = true
	}
	if tracked && !hostMounted {
		if StrictMountConsistency {
			return xerrlib.Wrapf(ErrGhostMount, "%s is tracked but not mounted on the host", dest)
		}
		slog.Warn("dropping a tracked mount that is not mounted on the host", "dest", dest)
		c.activeMounts = removeString(c.activeMounts, relDest)
	}

	if hostMounted {
		if failIfMounted {
			return xerrlib.Wrapf(ErrMountFailed, "%s is already mounted", dest)
		}
		return nil
	}

	if err := ensureDir(dest); err != nil {
		return xerrlib.Wrap(ErrMountFailed, err)
	}

	flags, data := mountArgs(options, fsType)
	mountSource := source
	if mountSource == "" {
		mountSource = fsType
	}
	if err := unix.Mount(mountSource, dest, fsType, flags, data); err != nil {
		return xerrlib.Wrapf(ErrMountFailed, "mount %s -> %s: %w", mountSource, dest, err)
	}

	c.activeMounts = append(c.activeMounts, relDest)
	return nil
}

// Umount unmounts a chroot-relative path previously passed to Mount and
// removes it from ActiveMounts.
func (c *Chroot) Umount(relDest string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.umountLocked(relDest)
}

func (c *Chroot) umountLocked(relDest string) error {
	dest := c.HostPath(relDest)
	if isMounted(dest) {
		if err := unix.Unmount(dest, 0); err != nil {
			if err := unix.Unmount(dest, unix.MNT_DETACH); err != nil {
				return xerrlib.Wrapf(ErrMountFailed, "umount %s: %w", dest, err)
			}
		}
	}
	c.activeMounts = removeString(c.activeMounts, relDest)
	return nil
}

// Activate mounts the fixed pseudo-filesystem set in the fixed,
// significant order: /proc, /sys, /dev, /dev/pts, /dev/shm, /run,
// /etc/resolv.conf. After Activate, RunCmd is permitted.
func (c *Chroot) Activate() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.active {
		return nil
	}

	for _, m := range pseudoMounts {
		if err := c.activateOne(m); err != nil {
			return err
		}
	}

	c.active = true
	metrics.ChrootsActive.WithLabelValues(string(c.kind)).Inc()
	return nil
}

func (c *Chroot) activateOne(relDest string) error {
	switch relDest {
	case "proc":
		return c.mountLocked("", relDest, nil, "proc", false)
	case "sys":
		return c.mountLocked("", relDest, nil, "sysfs", false)
	case "dev":
		return c.mountLocked("/dev", relDest, []string{"bind"}, "", false)
	case "dev/pts":
		return c.mountLocked("/dev/pts", relDest, []string{"bind"}, "", false)
	case "dev/shm":
		return c.mountLocked("/dev/shm", relDest, []string{"bind"}, "", false)
	case "run":
		return c.mountLocked("/run", relDest, []string{"bind"}, "", false)
	case "etc/resolv.conf":
		return c.bindFile("/etc/resolv.conf", relDest)
	default:
		return xerrlib.Wrapf(ErrMountFailed, "unknown pseudo mount %q", relDest)
	}
}

// bindFile bind-mounts a single file (resolv.conf), creating an empty
// destination file first since Mount's directory-creation path doesn't
// apply to single files.
func (c *Chroot) bindFile(source, relDest string) error {
	dest := c.HostPath(relDest)
	if err := ensureDir(filepath.Dir(dest)); err != nil {
		return xerrlib.Wrap(ErrMountFailed, err)
	}
	if _, err := os.Stat(dest); os.IsNotExist(err) {
		f, err := os.OpenFile(dest, os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return xerrlib.Wrap(ErrMountFailed, err)
		}
		f.Close()
	}

	if isMounted(dest) {
		return nil
	}
	if err := unix.Mount(source, dest, "", unix.MS_BIND, ""); err != nil {
		return xerrlib.Wrapf(ErrMountFailed, "bind %s -> %s: %w", source, dest, err)
	}
	c.activeMounts = append(c.activeMounts, relDest)
	return nil
}

// DeactivateCore unmounts the pseudo-filesystem set in reverse order,
// with /proc unmounted last.
func (c *Chroot) DeactivateCore() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.deactivateCoreLocked()
}

func (c *Chroot) deactivateCoreLocked() error {
	wasActive := c.active
	for i := len(pseudoMounts) - 1; i >= 0; i-- {
		if err := c.umountLocked(pseudoMounts[i]); err != nil {
			return err
		}
	}
	c.active = false
	if wasActive {
		metrics.ChrootsActive.WithLabelValues(string(c.kind)).Dec()
	}
	return nil
}

// Deactivate unmounts every path in ActiveMounts in reverse lexicographic
// order (so nested mounts come off before their parents), with /proc
// always unmounted last regardless of where it sorts.
func (c *Chroot) Deactivate() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	wasActive := c.active
	paths := append([]string{}, c.activeMounts...)
	sort.Sort(sort.Reverse(sort.StringSlice(paths)))

	var deferredProc bool
	for _, p := range paths {
		if p == "proc" {
			deferredProc = true
			continue
		}
		if err := c.umountLocked(p); err != nil {
			return err
		}
	}
	if deferredProc {
		if err := c.umountLocked("proc"); err != nil {
			return err
		}
	}

	c.active = false
	if wasActive {
		metrics.ChrootsActive.WithLabelValues(string(c.kind)).Dec()
	}
	return nil
}

// mountArgs translates option strings into mount(2) flags plus a
// leftover comma-joined data string for options mount(2) doesn't model
// as flags (pacman cache mounts pass none; this is mainly a hook for
// future fs-specific options).
func mountArgs(options []string, fsType string) (uintptr, string) {
	var flags uintptr
	var data []string
	for _, o := range options {
		switch o {
		case "bind":
			flags |= unix.MS_BIND
		case "ro":
			flags |= unix.MS_RDONLY
		default:
			data = append(data, o)
		}
	}
	if fsType == "" && flags == 0 {
		flags = unix.MS_BIND
	}
	joined := ""
	for i, d := range data {
		if i > 0 {
			joined += ","
		}
		joined += d
	}
	return flags, joined
}

// isMounted reports whether the host's mount table already has an entry
// whose mount point is exactly path.
func isMounted(path string) bool {
	f, err := os.Open("/proc/self/mountinfo")
	if err != nil {
		return false
	}
	defer f.Close()

	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		fields := splitFields(sc.Text())
		// mountinfo format: ... (4) mount point ...
		if len(fields) > 4 && fields[4] == abs {
			return true
		}
	}
	return false
}

func splitFields(line string) []string {
	var fields []string
	start := -1
	for i, r := range line {
		if r == ' ' {
			if start >= 0 {
				fields = append(fields, line[start:i])
				start = -1
			}
		} else if start < 0 {
			start = i
		}
	}
	if start >= 0 {
		fields = append(fields, line[start:])
	}
	return fields
}

func contains(haystack []string, needle string) bool {
	for _, h := range haystack {
		if h == needle {
			return true
		}
	}
	return false
}

func removeString(haystack []string, needle string) []string {
	out := haystack[:0]
	for _, h := range haystack {
		if h != needle {
			out = append(out, h)
		}
	}
	return out
}
