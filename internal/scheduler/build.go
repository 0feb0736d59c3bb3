package scheduler

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kupferbootstrap/kupferbootstrap/internal/arch"
	"github.com/kupferbootstrap/kupferbootstrap/internal/depgraph"
	"github.com/kupferbootstrap/kupferbootstrap/internal/metrics"
	"github.com/kupferbootstrap/kupferbootstrap/internal/recipe"
	"github.com/kupferbootstrap/kupferbootstrap/internal/repo"
	"github.com/kupferbootstrap/kupferbootstrap/internal/xerrlib"
)

// Result is the outcome of a BuildPackages run.
type Result struct {
	Built  []*Artifact
	Cached []*recipe.Recipe
}

// BuildPackages builds requested and every local dependency it needs,
// for targetArch, skipping anything the cache gate already reports as
// built unless opts.Force names it explicitly.
func (s *Scheduler) BuildPackages(ctx context.Context, g *depgraph.Graph, requested []*recipe.Recipe, targetArch arch.Arch, opts Options) (*Result, error) {
	levels, err := depgraph.BuildLevels(g, requested)
	if err != nil {
		return nil, err
	}

	forced := map[*recipe.Recipe]bool{}
	if opts.Force {
		for _, r := range requested {
			forced[r] = true
		}
	}

	res := &Result{}
	var scheduled []*recipe.Recipe
	for levelIdx, level := range levels {
		toBuild, err := s.selectLevel(ctx, level, targetArch, forced, scheduled)
		if err != nil {
			return nil, err
		}
		scheduled = append(scheduled, toBuild.build...)

		for _, r := range toBuild.build {
			slog.Info("building recipe", "name", r.Name, "arch", targetArch, "level", levelIdx)
			artifacts, err := s.buildRecipe(ctx, r, targetArch, opts)
			if err != nil {
				return nil, xerrlib.Wrapf(ErrBuildFailed, "%s: %w", r.Name, err)
			}
			res.Built = append(res.Built, artifacts...)
		}
		res.Cached = append(res.Cached, toBuild.cached...)
	}
	return res, nil
}

type levelSelection struct {
	build  []*recipe.Recipe
	cached []*recipe.Recipe
}

// selectLevel applies the rebuild rules to one level: a
// recipe not yet cached is always built; a cached recipe is rebuilt
// anyway if it was explicitly forced, or if any of its own local
// dependencies is in this run's scheduled-to-build set (a changed
// dependency invalidates the cache even though the gate never saw it
// change). scheduled carries every recipe selected to build in earlier
// levels this run.
func (s *Scheduler) selectLevel(ctx context.Context, level []*recipe.Recipe, targetArch arch.Arch, forced map[*recipe.Recipe]bool, scheduled []*recipe.Recipe) (levelSelection, error) {
	var sel levelSelection
	for _, r := range level {
		built, err := s.CheckBuilt(ctx, r, targetArch)
		if err != nil {
			return sel, err
		}

		if !built || forced[r] || s.dependsOnScheduled(r, scheduled) {
			sel.build = append(sel.build, r)
			continue
		}
		sel.cached = append(sel.cached, r)
		metrics.BuildsTotal.WithLabelValues(r.Bucket(), string(targetArch), "cached").Inc()
	}
	return sel, nil
}

// dependsOnScheduled reports whether r locally depends on any recipe
// already selected to build this run.
func (s *Scheduler) dependsOnScheduled(r *recipe.Recipe, scheduled []*recipe.Recipe) bool {
	for _, dep := range scheduled {
		for _, name := range r.LocalDepends {
			if dep.HasName(name) {
				return true
			}
		}
	}
	return false
}

// buildRecipe runs r's build for targetArch under the resolved
// strategy, and publishes every produced artifact into the bucket index.
func (s *Scheduler) buildRecipe(ctx context.Context, r *recipe.Recipe, targetArch arch.Arch, opts Options) (artifacts []*Artifact, err error) {
	st, err := s.resolveStrategy(ctx, opts, r, targetArch)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	defer func() {
		metrics.BuildDurationSeconds.WithLabelValues(st.label).Observe(time.Since(start).Seconds())
		outcome := "built"
		if err != nil {
			outcome = "failed"
		}
		metrics.BuildsTotal.WithLabelValues(r.Bucket(), string(targetArch), outcome).Inc()
	}()

	if len(st.extraPackages) > 0 {
		if _, err := st.buildChroot.InstallPackages(ctx, st.extraPackages, false, false); err != nil {
			return nil, err
		}
	}

	deps := append([]string{}, r.Depends...)
	if _, err := st.buildChroot.InstallPackages(ctx, deps, true, true); err != nil {
		return nil, err
	}

	cwd := recipeInChrootPath(r)

	prepareFlags := []string{"--nobuild", "--holdver", "--nodeps", "--skippgpcheck"}
	prepareScript := "makepkg --config " + st.confPath + " " + strings.Join(prepareFlags, " ")
	if res, err := st.buildChroot.Run(ctx, prepareScript, st.innerEnv, nil, false, cwd, true); err != nil {
		return nil, err
	} else if res.ExitCode != 0 {
		return nil, xerrlib.Wrapf(ErrBuildFailed, "prepare step exited %d: %s", res.ExitCode, res.Stderr)
	}

	buildFlags := append([]string{"--skippgpcheck", "--needed", "--noconfirm", "--ignorearch"}, st.makepkgFlags...)
	buildScript := "makepkg --config " + st.confPath + " " + strings.Join(buildFlags, " ")
	res, err := st.buildChroot.Run(ctx, buildScript, st.innerEnv, nil, false, cwd, true)
	if err != nil {
		return nil, err
	}
	if res.ExitCode != 0 {
		if opts.DebugShell {
			slog.Info("build failed, dropping into debug shell", "recipe", r.Name, "chroot", st.buildChroot.Name(), "session", s.SessionID)
			if _, shellErr := st.buildChroot.Shell(ctx, st.innerEnv); shellErr != nil {
				slog.Warn("debug shell failed", "error", shellErr)
			}
		}
		return nil, xerrlib.Wrapf(ErrBuildFailed, "makepkg exited %d: %s", res.ExitCode, res.Stderr)
	}

	names, err := packageList(ctx, st.buildChroot, r, st.confPath)
	if err != nil {
		return nil, err
	}

	idx := repo.New(s.cfg, targetArch, r.Bucket())
	for _, name := range names {
		srcPath := filepath.Join(st.buildChroot.HostPath(strings.TrimPrefix(cwd, "/")), name)
		if _, err := os.Stat(srcPath); err != nil {
			return nil, xerrlib.Wrapf(ErrBuildFailed, "%s: expected artifact %s missing after build: %w", r.Name, name, err)
		}
		file, err := idx.AddFile(ctx, srcPath)
		if err != nil {
			return nil, err
		}
		artifacts = append(artifacts, &Artifact{Recipe: r, Name: file.Name, Digest: file.Digest})
	}
	return artifacts, nil
}
