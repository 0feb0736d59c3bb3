package depgraph

import "github.com/kupferbootstrap/kupferbootstrap/internal/recipe"

// Graph is the package dependency graph: every identity-set member maps
// to the recipe that owns it (many-to-one), plus the flat recipe list.
// Edges are not stored explicitly; BuildLevels walks LocalDepends on
// demand via ByName.
type Graph struct {
	all    []*recipe.Recipe
	byName map[string]*recipe.Recipe
}

// New builds a Graph from a discovered recipe set. recipes must already
// have LocalDepends populated (see recipe.Discover); New only indexes
// identity sets, it does not recompute dependency projection.
func New(recipes []*recipe.Recipe) *Graph {
	g := &Graph{
		all:    recipes,
		byName: make(map[string]*recipe.Recipe, len(recipes)*2),
	}
	for _, r := range recipes {
		for _, name := range r.Names() {
			g.byName[name] = r
		}
	}
	return g
}

// ByName looks up a recipe by any member of its identity set.
func (g *Graph) ByName(name string) (*recipe.Recipe, bool) {
	r, ok := g.byName[name]
	return r, ok
}

// All returns every recipe in the graph.
func (g *Graph) All() []*recipe.Recipe {
	return g.all
}

// LocalDeps returns the recipes r locally depends on, resolved through
// the graph's identity index. A local dependency name that resolves to
// no recipe (should not happen after recipe.Discover's projection, but
// the solver treats the graph as its own source of truth) is skipped.
func (g *Graph) LocalDeps(r *recipe.Recipe) []*recipe.Recipe {
	var deps []*recipe.Recipe
	for _, name := range r.LocalDepends {
		if dep, ok := g.byName[name]; ok {
			deps = append(deps, dep)
		}
	}
	return deps
}
