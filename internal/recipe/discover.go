package recipe

import (
	"context"
	"os"
	"path/filepath"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/kupferbootstrap/kupferbootstrap/internal/xerrlib"
)

// Buckets lists the known output repository buckets a recipe root is
// expected to contain a subdirectory for.
var Buckets = []string{"boot", "device", "firmware", "linux", "main"}

// Set is the discovered package graph: every identity-set member maps
// to the recipe that owns it, plus the flat list of all recipes found.
type Set struct {
	All    []*Recipe
	byName map[string]*Recipe
}

// ByName looks up a recipe by any member of its identity set.
func (s *Set) ByName(name string) (*Recipe, bool) {
	r, ok := s.byName[name]
	return r, ok
}

// Discover walks recipeRoot/<bucket>/<pkg> for every known bucket,
// parsing each directory's PKGBUILD in parallel through a worker pool
// bounded by the number of CPUs, then projects every recipe's Depends onto
// LocalDepends using the union of all discovered identity sets.
func Discover(ctx context.Context, runner Runner, recipeRoot string) (*Set, error) {
	dirs, err := findRecipeDirs(recipeRoot)
	if err != nil {
		return nil, err
	}

	results := make([][]*Recipe, len(dirs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())
	for i, dir := range dirs {
		i, dir := i, dir
		g.Go(func() error {
			parsed, err := ParseDirectory(gctx, runner, recipeRoot, dir)
			if err != nil {
				return xerrlib.Wrapf(ErrInvalidRecipe, "%s: %w", dir, err)
			}
			results[i] = parsed
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	set := &Set{byName: map[string]*Recipe{}}
	for _, parsed := range results {
		for _, r := range parsed {
			set.All = append(set.All, r)
			for _, name := range r.Names() {
				set.byName[name] = r
			}
		}
	}

	projectLocalDepends(set)
	return set, nil
}

// findRecipeDirs walks recipeRoot/<bucket>/<pkg> for every bucket and
// returns the recipeRoot-relative paths ("<bucket>/<pkg>") of
// directories containing a PKGBUILD.
func findRecipeDirs(recipeRoot string) ([]string, error) {
	var dirs []string
	for _, bucket := range Buckets {
		bucketDir := filepath.Join(recipeRoot, bucket)
		entries, err := os.ReadDir(bucketDir)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return nil, err
		}
		for _, e := range entries {
			if !e.IsDir() {
				continue
			}
			pkgDir := filepath.Join(bucket, e.Name())
			if _, err := os.Stat(filepath.Join(recipeRoot, pkgDir, "PKGBUILD")); err == nil {
				dirs = append(dirs, pkgDir)
			}
		}
	}
	return dirs, nil
}

// projectLocalDepends replaces every recipe's Depends with the subset of
// names present in the discovered identity set, per the dependency
// projection step: external dependencies are not tracked by the
// scheduler.
func projectLocalDepends(set *Set) {
	for _, r := range set.All {
		var local []string
		for _, dep := range r.Depends {
			if _, ok := set.byName[dep]; ok {
				local = append(local, dep)
			}
		}
		r.LocalDepends = local
	}
}
