package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/kupferbootstrap/kupferbootstrap/internal/arch"
	"github.com/kupferbootstrap/kupferbootstrap/internal/chroot"
	"github.com/kupferbootstrap/kupferbootstrap/internal/depgraph"
	"github.com/kupferbootstrap/kupferbootstrap/internal/metrics"
	"github.com/kupferbootstrap/kupferbootstrap/internal/paths"
	"github.com/kupferbootstrap/kupferbootstrap/internal/recipe"
	"github.com/kupferbootstrap/kupferbootstrap/internal/repo"
	"github.com/kupferbootstrap/kupferbootstrap/internal/scheduler"
)

// PackagesCmd groups the package build/update/check/clean subcommands.
type PackagesCmd struct {
	Build  BuildCmd  `cmd:"" help:"Build packages by recipe path."`
	Update UpdateCmd `cmd:"" help:"Update the PKGBUILDs git repository."`
	Check  CheckCmd  `cmd:"" help:"Check that the given PKGBUILDs parse correctly."`
	Clean  CleanCmd  `cmd:"" help:"Remove untracked build/source directories."`
}

// BuildCmd builds one or more recipes, by recipe-root-relative path,
// and every local dependency they need.
type BuildCmd struct {
	Paths       []string `arg:"" optional:"" help:"Recipe paths, e.g. main/linux. Builds everything discovered if omitted."`
	Force       bool     `help:"Rebuild even if the cache gate reports the recipe already built."`
	Arch        string   `help:"Target architecture. Defaults to the host architecture." placeholder:"ARCH"`
	DebugShell  bool     `help:"Drop into a shell inside the build chroot when a build fails."`
	MetricsAddr string   `help:"Serve Prometheus build/chroot/repo metrics on this address for the run's duration, e.g. :9090." placeholder:"ADDR"`
}

func (c *BuildCmd) Run(ctx context.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	targetArch, err := resolveArch(c.Arch)
	if err != nil {
		return err
	}

	if err := cfg.EnsureDirs(); err != nil {
		return err
	}
	if err := repo.InitIndex(cfg, arch.Host()); err != nil {
		return err
	}
	if targetArch != arch.Host() {
		if err := repo.InitIndex(cfg, targetArch); err != nil {
			return err
		}
	}

	if c.MetricsAddr != "" {
		srv := metrics.NewServer(c.MetricsAddr)
		errCh := srv.Start(ctx)
		defer srv.Stop()
		go func() {
			if err, ok := <-errCh; ok && err != nil {
				slog.Warn("metrics server", "error", err)
			}
		}()
	}

	mgr := chroot.NewManager(cfg)
	set, err := discoverRecipes(ctx, cfg, mgr)
	if err != nil {
		return err
	}

	requested := filterByPaths(set, c.Paths)
	if len(requested) == 0 {
		return fmt.Errorf("no recipes matched %v", c.Paths)
	}

	g := depgraph.New(set.All)
	sched := scheduler.New(cfg, mgr)

	result, err := sched.BuildPackages(ctx, g, requested, targetArch, scheduler.Options{
		Force:              c.Force,
		EnableCrosscompile: cfg.Build.Crosscompile,
		EnableCrossdirect:  cfg.Build.Crossdirect,
		EnableCcache:       cfg.Build.Ccache,
		Threads:            cfg.Build.Threads,
		Reset:              cfg.Build.CleanMode,
		DebugShell:         c.DebugShell,
	})
	if err != nil {
		return err
	}

	for _, a := range result.Built {
		fmt.Println(a.Name)
	}
	return nil
}

// UpdateCmd clones or fast-forwards the configured PKGBUILDs git
// repository, as configured by pkgbuilds.git_repo and
// pkgbuilds.git_branch.
type UpdateCmd struct{}

func (c *UpdateCmd) Run(ctx context.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.Pkgbuilds.GitRepo == "" {
		return fmt.Errorf("pkgbuilds.git_repo is not configured")
	}
	branch := cfg.Pkgbuilds.GitBranch
	if branch == "" {
		branch = "main"
	}
	return recipe.EnsureCloned(ctx, cfg.Pkgbuilds.GitRepo, branch, cfg.HostPath(paths.KeyPkgbuilds))
}

// CheckCmd validates that the given recipes parse, without building
// anything.
type CheckCmd struct {
	Paths []string `arg:"" optional:"" help:"Recipe paths to check. Checks everything discovered if omitted."`
}

func (c *CheckCmd) Run(ctx context.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	mgr := chroot.NewManager(cfg)
	set, err := discoverRecipes(ctx, cfg, mgr)
	if err != nil {
		return err
	}

	matched := filterByPaths(set, c.Paths)
	if len(matched) == 0 {
		return fmt.Errorf("no recipes matched %v", c.Paths)
	}
	for _, r := range matched {
		fmt.Printf("%s: ok (%s)\n", r.Path, r.Version)
	}
	return nil
}

// CleanCmd removes built package/source work directories under the
// configured pkgbuilds root.
type CleanCmd struct {
	Noop bool `short:"n" help:"Print what would be removed without removing it."`
}

func (c *CleanCmd) Run(ctx context.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	return recipe.CleanBuildDirs(cfg.HostPath(paths.KeyPkgbuilds), c.Noop)
}
