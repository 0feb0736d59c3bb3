package chroot

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/kupferbootstrap/kupferbootstrap/internal/paths"
	"github.com/kupferbootstrap/kupferbootstrap/internal/xerrlib"
)

// pacstrapBinary and rsyncBinary are the external tools Initialize
// shells out to. Overridable in tests.
var (
	pacstrapBinary = "pacstrap"
	rsyncBinary    = "rsync"
)

// Initialize populates the chroot's root filesystem if it isn't already
// populated (or unconditionally, if reset is true), dispatching on kind.
// Idempotent: a chroot that is already initialized and not being reset
// is a no-op.
func (c *Chroot) Initialize(ctx context.Context, reset bool) error {
	c.mu.Lock()
	if c.initialized && !reset {
		c.mu.Unlock()
		return nil
	}
	wasActive := c.active
	c.mu.Unlock()

	if wasActive {
		if err := c.DeactivateCore(); err != nil {
			return err
		}
	}

	var err error
	switch c.kind {
	case KindBase:
		err = c.initBase(ctx, reset)
	case KindBuild:
		err = c.initBuild(ctx, reset)
	case KindDevice:
		if c.copyBase {
			err = c.initBuild(ctx, reset)
		} else {
			// the device chroot's root is an external partition mount;
			// there is no tree to populate here, only to mark ready.
			err = nil
		}
	default:
		err = xerrlib.Wrapf(ErrChrootInitFailed, "unknown chroot kind %q", c.kind)
	}
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.initialized = true
	c.mu.Unlock()

	if wasActive {
		return c.Activate()
	}
	return nil
}

// initBase bootstraps a minimal root for this chroot's architecture
// using the host's package-bootstrap tool.
func (c *Chroot) initBase(ctx context.Context, reset bool) error {
	if reset {
		if err := removeContents(c.path); err != nil {
			return xerrlib.Wrap(ErrChrootInitFailed, err)
		}
	}

	mirrors := DefaultMirrors[c.arch]
	if err := c.WritePacmanConfig(mirrors, 0); err != nil {
		return err
	}
	if err := c.MountPacmanCache(c.mgr.cfg.HostPath(paths.KeyPacman), false); err != nil {
		return err
	}

	basePackages := c.basePackages
	if len(basePackages) == 0 {
		basePackages = DefaultBasePackages
	}

	if err := ensureDir(c.path); err != nil {
		return xerrlib.Wrap(ErrChrootInitFailed, err)
	}

	args := []string{"-C", c.HostPath(pacmanConfPath), "-c", "-G", c.path}
	args = append(args, basePackages...)
	args = append(args, "--needed", "--overwrite=*", "-yyuu")

	cmd := exec.CommandContext(ctx, pacstrapBinary, args...)
	cmd.Stdout, cmd.Stderr = os.Stdout, os.Stderr
	if err := cmd.Run(); err != nil {
		return xerrlib.Wrapf(ErrChrootInitFailed, "pacstrap %s: %w", c.name, err)
	}
	return nil
}

// initBuild clones the arch-matching base chroot's tree via an
// exclude-aware rsync, then patches the build tool for root execution
// and rewrites its config.
func (c *Chroot) initBuild(ctx context.Context, reset bool) error {
	base, err := c.mgr.Base(c)
	if err != nil {
		return err
	}
	if base == nil {
		return xerrlib.Wrapf(ErrChrootInitFailed, "%s has no base chroot configured", c.name)
	}
	if base == c {
		return xerrlib.Wrapf(ErrChrootInitFailed, "%s: base chroot resolves to itself", c.name)
	}

	if err := base.Initialize(ctx, false); err != nil {
		return err
	}

	needsCopy := reset
	if !needsCopy {
		if _, err := os.Stat(filepath.Join(c.path, "usr", "bin")); os.IsNotExist(err) {
			needsCopy = true
		}
	}

	if needsCopy {
		if err := rsyncTree(ctx, base.path, c.path); err != nil {
			return err
		}
	}

	c.mu.Lock()
	hasExtraRepos := len(c.extraRepos) > 0
	c.mu.Unlock()
	if hasExtraRepos {
		if err := c.MountPackages(c.mgr.cfg.HostPath(paths.KeyPackages), false); err != nil {
			return err
		}
	}
	if err := c.MountPacmanCache(c.mgr.cfg.HostPath(paths.KeyPacman), false); err != nil {
		return err
	}
	if err := c.WritePacmanConfig(DefaultMirrors[c.arch], 0); err != nil {
		return err
	}

	if err := c.Activate(); err != nil {
		return err
	}
	basePackages := c.basePackages
	if len(basePackages) == 0 {
		basePackages = DefaultBasePackages
	}
	if _, err := c.InstallPackages(ctx, basePackages, true, false); err != nil {
		_ = c.DeactivateCore()
		return err
	}
	if err := c.DeactivateCore(); err != nil {
		return err
	}

	if err := c.AllowRootExecution("usr/bin/makepkg"); err != nil {
		return err
	}
	template, err := os.ReadFile(c.HostPath(DefaultMakepkgConfPath))
	if err != nil {
		return xerrlib.Wrap(ErrChrootInitFailed, err)
	}
	return c.WriteDefaultMakepkgConfig(template)
}

// rsyncTree mirrors src onto dst the way the build tool's source does:
// archive mode, delete-extraneous, one-filesystem, skipping the bind
// mount points that get mounted separately after the copy.
func rsyncTree(ctx context.Context, src, dst string) error {
	if err := ensureDir(dst); err != nil {
		return xerrlib.Wrap(ErrChrootInitFailed, err)
	}

	args := []string{"-a", "--delete", "-q", "-W", "-x"}
	for _, excl := range excludeFromBaseCopy {
		args = append(args, "--exclude", excl)
	}
	args = append(args, src+"/", dst+"/")

	cmd := exec.CommandContext(ctx, rsyncBinary, args...)
	cmd.Stdout, cmd.Stderr = os.Stdout, os.Stderr
	if err := cmd.Run(); err != nil {
		return xerrlib.Wrapf(ErrChrootInitFailed, "rsync %s -> %s: %w", src, dst, err)
	}
	return nil
}

// removeContents deletes every entry directly under dir, without
// removing dir itself.
func removeContents(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	for _, e := range entries {
		if err := os.RemoveAll(filepath.Join(dir, e.Name())); err != nil {
			return fmt.Errorf("removing %s: %w", e.Name(), err)
		}
	}
	return nil
}
