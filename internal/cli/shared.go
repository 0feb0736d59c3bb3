package cli

import (
	"context"
	"strings"

	"github.com/kupferbootstrap/kupferbootstrap/internal/arch"
	"github.com/kupferbootstrap/kupferbootstrap/internal/chroot"
	"github.com/kupferbootstrap/kupferbootstrap/internal/config"
	"github.com/kupferbootstrap/kupferbootstrap/internal/paths"
	"github.com/kupferbootstrap/kupferbootstrap/internal/recipe"
)

// loadConfig loads the configured config file, or the default search
// path if RootCmd.Config is unset, and applies the process-wide policy
// knobs the config carries.
func loadConfig() (*config.Config, error) {
	var cfg *config.Config
	var err error
	if RootCmd.Config != "" {
		cfg, err = config.Load(RootCmd.Config)
	} else {
		cfg, err = config.LoadDefault()
	}
	if err != nil {
		return nil, err
	}
	chroot.StrictMountConsistency = cfg.StrictCache
	return cfg, nil
}

// discoverRecipes parses every PKGBUILD under cfg's configured pkgbuilds
// root, using a native build chroot (initialized and activated on
// demand) to expand SRCINFO.
func discoverRecipes(ctx context.Context, cfg *config.Config, mgr *chroot.Manager) (*recipe.Set, error) {
	native, err := mgr.Get(chroot.NameBuild(arch.Host()))
	if err != nil {
		return nil, err
	}
	native.SetExtraRepos(recipe.Buckets)
	if err := native.Initialize(ctx, false); err != nil {
		return nil, err
	}
	if err := native.MountPkgbuilds(cfg.HostPath(paths.KeyPkgbuilds), false); err != nil {
		return nil, err
	}
	if err := native.Activate(); err != nil {
		return nil, err
	}
	return recipe.Discover(ctx, native, cfg.HostPath(paths.KeyPkgbuilds))
}

// filterByPaths returns the recipes in set whose Path matches one of the
// given recipe-root-relative paths exactly or as a directory prefix.
// An empty paths selects every recipe: bare `packages build` with no
// arguments builds everything discovered.
func filterByPaths(set *recipe.Set, paths []string) []*recipe.Recipe {
	if len(paths) == 0 {
		return set.All
	}

	var out []*recipe.Recipe
	for _, r := range set.All {
		for _, p := range paths {
			p = strings.Trim(p, "/")
			if r.Path == p || strings.HasPrefix(r.Path, p+"/") {
				out = append(out, r)
				break
			}
		}
	}
	return out
}

// resolveArch parses raw if non-empty, otherwise returns the host
// architecture.
func resolveArch(raw string) (arch.Arch, error) {
	if raw == "" {
		return arch.Host(), nil
	}
	return arch.Parse(raw)
}
