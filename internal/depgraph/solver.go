package depgraph

import (
	"strings"

	"github.com/kupferbootstrap/kupferbootstrap/internal/recipe"
	"github.com/kupferbootstrap/kupferbootstrap/internal/xerrlib"
)

// maxLevels bounds the total number of levels BuildLevels will produce
// before reporting a cycle: a cyclic group of recipes keeps being
// depended on by its own members, so each pass pushes the whole group
// one level deeper forever. partition moves every depended-on recipe of
// a level in one batch, so level growth, not per-level stalling, is how
// a cycle manifests.
const maxLevels = 100

// BuildLevels computes the ordered build levels for requested and its
// transitive local dependencies: index 0 holds leaves (no local
// dependencies among the seeded set), and every later index's recipes
// depend only on recipes in earlier indices. Empty levels are pruned.
// An empty requested returns a nil slice with no error.
func BuildLevels(g *Graph, requested []*recipe.Recipe) ([][]*recipe.Recipe, error) {
	if len(requested) == 0 {
		return nil, nil
	}

	seed := seedTransitive(g, requested)
	if err := checkSelfLoops(g, seed); err != nil {
		return nil, err
	}

	levels := [][]*recipe.Recipe{seed}

	for l := 0; l < len(levels); l++ {
		if l >= maxLevels {
			return nil, xerrlib.Wrapf(ErrDependencyCycle, "exceeded %d levels: %s", maxLevels, describe(levels[l]))
		}

		for {
			moved, rest := partition(g, levels[l])
			if len(moved) == 0 {
				break
			}

			levels[l] = rest
			if l+1 == len(levels) {
				levels = append(levels, nil)
			}
			levels[l+1] = append(levels[l+1], moved...)
		}
	}

	return reverseAndPrune(levels), nil
}

// seedTransitive returns requested plus every recipe transitively
// reachable via LocalDepends, deduplicated.
func seedTransitive(g *Graph, requested []*recipe.Recipe) []*recipe.Recipe {
	seen := map[*recipe.Recipe]bool{}
	var order []*recipe.Recipe

	var visit func(r *recipe.Recipe)
	visit = func(r *recipe.Recipe) {
		if seen[r] {
			return
		}
		seen[r] = true
		order = append(order, r)
		for _, dep := range g.LocalDeps(r) {
			visit(dep)
		}
	}

	for _, r := range requested {
		visit(r)
	}
	return order
}

// checkSelfLoops rejects any recipe that lists its own identity set as a
// local dependency. The main partitioning loop only ever moves a recipe
// that is a dependency of a *different* recipe in its level, so a bare
// self-loop would otherwise sit inert forever instead of surfacing as a
// cycle.
func checkSelfLoops(g *Graph, recipes []*recipe.Recipe) error {
	for _, r := range recipes {
		for _, dep := range g.LocalDeps(r) {
			if dep == r {
				return xerrlib.Wrapf(ErrDependencyCycle, "%s depends on itself", r.Name)
			}
		}
	}
	return nil
}

// partition splits current into (moved, rest): moved holds every recipe
// that is a local dependency of some *other* recipe also in current.
func partition(g *Graph, current []*recipe.Recipe) (moved, rest []*recipe.Recipe) {
	dependedOn := map[*recipe.Recipe]bool{}
	for _, r := range current {
		for _, dep := range g.LocalDeps(r) {
			if dep != r {
				dependedOn[dep] = true
			}
		}
	}

	for _, r := range current {
		if dependedOn[r] {
			moved = append(moved, r)
		} else {
			rest = append(rest, r)
		}
	}
	return moved, rest
}

// reverseAndPrune reverses level order so leaves come first and drops
// empty levels.
func reverseAndPrune(levels [][]*recipe.Recipe) [][]*recipe.Recipe {
	var out [][]*recipe.Recipe
	for i := len(levels) - 1; i >= 0; i-- {
		if len(levels[i]) > 0 {
			out = append(out, levels[i])
		}
	}
	return out
}

func describe(recipes []*recipe.Recipe) string {
	names := make([]string, len(recipes))
	for i, r := range recipes {
		names[i] = r.Name
	}
	return strings.Join(names, ", ")
}
