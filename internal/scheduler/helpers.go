package scheduler

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/kupferbootstrap/kupferbootstrap/internal/arch"
	"github.com/kupferbootstrap/kupferbootstrap/internal/chroot"
	"github.com/kupferbootstrap/kupferbootstrap/internal/paths"
	"github.com/kupferbootstrap/kupferbootstrap/internal/recipe"
	"github.com/kupferbootstrap/kupferbootstrap/internal/xerrlib"
)

// nativeBuildChroot resolves (initializing if needed) the build chroot
// for the host architecture, with the local bucket repositories enabled
// and the recipe tree bind-mounted.
func (s *Scheduler) nativeBuildChroot(ctx context.Context) (*chroot.Chroot, error) {
	return s.buildChroot(ctx, arch.Host(), false)
}

// targetBuildChroot resolves (initializing if needed) the build chroot
// for targetArch, with the local bucket repositories enabled and the
// recipe tree bind-mounted.
func (s *Scheduler) targetBuildChroot(ctx context.Context, targetArch arch.Arch, reset bool) (*chroot.Chroot, error) {
	return s.buildChroot(ctx, targetArch, reset)
}

func (s *Scheduler) buildChroot(ctx context.Context, a arch.Arch, reset bool) (*chroot.Chroot, error) {
	c, err := s.mgr.Get(chroot.NameBuild(a))
	if err != nil {
		return nil, err
	}
	c.SetExtraRepos(recipe.Buckets)
	if err := c.Initialize(ctx, reset); err != nil {
		return nil, err
	}
	if err := s.mountPkgbuilds(c); err != nil {
		return nil, err
	}
	return c, nil
}

// mountPkgbuilds bind-mounts the configured recipe root into c,
// idempotently (a second call for an already-active build is expected).
func (s *Scheduler) mountPkgbuilds(c *chroot.Chroot) error {
	return c.MountPkgbuilds(s.cfg.HostPath(paths.KeyPkgbuilds), false)
}

// writeCrossConfig reads c's pristine default makepkg config and renders
// the cross-compile variant targeting targetArch, sysrooted at the
// target build chroot's mount point inside c (as set up by
// MountCrosscompile), returning its absolute in-chroot path for use as
// `makepkg --config <path>` (cross config lives under
// etc/makepkg_cross_<arch>.conf alongside the default).
func writeCrossConfig(c *chroot.Chroot, targetArch arch.Arch, sysroot string) (string, error) {
	template, err := os.ReadFile(c.HostPath(chroot.DefaultMakepkgConfPath))
	if err != nil {
		return "", xerrlib.Wrap(ErrBuildFailed, err)
	}
	relPath, err := c.WriteCrossMakepkgConfig(template, string(targetArch), sysroot)
	if err != nil {
		return "", err
	}
	return "/" + relPath, nil
}

// defaultConfigPath is the absolute in-chroot path of the default,
// host-mode makepkg config.
func defaultConfigPath() string {
	return "/" + chroot.DefaultMakepkgConfPath
}

// recipeInChrootPath is the absolute in-chroot path to r's recipe
// directory, once the recipe tree is bind-mounted at the pkgbuilds key.
func recipeInChrootPath(r *recipe.Recipe) string {
	return filepath.Join(paths.InChroot(paths.KeyPkgbuilds), r.Path)
}

// packageList runs `makepkg --config <confPath> --packagelist` inside c,
// cwd'd at r's recipe directory, and returns the basenames of the
// artifact filenames the recipe is expected to produce.
func packageList(ctx context.Context, c *chroot.Chroot, r *recipe.Recipe, confPath string) ([]string, error) {
	script := "makepkg --config " + confPath + " --packagelist"
	res, err := c.Run(ctx, script, nil, nil, false, recipeInChrootPath(r), true)
	if err != nil {
		return nil, err
	}
	if res.ExitCode != 0 {
		return nil, xerrlib.Wrapf(ErrBuildFailed, "%s: makepkg --packagelist exited %d: %s", r.Name, res.ExitCode, res.Stderr)
	}

	var names []string
	for _, line := range strings.Split(res.Stdout, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		names = append(names, filepath.Base(line))
	}
	return names, nil
}
