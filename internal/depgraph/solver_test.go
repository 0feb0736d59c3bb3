package depgraph

import (
	"errors"
	"testing"

	"github.com/kupferbootstrap/kupferbootstrap/internal/recipe"
)

func mkRecipe(name string, deps ...string) *recipe.Recipe {
	return &recipe.Recipe{Name: name, Version: "1-1", LocalDepends: deps}
}

func TestBuildLevels_LinearChain(t *testing.T) {
	a := mkRecipe("A", "B")
	b := mkRecipe("B", "C")
	c := mkRecipe("C")
	g := New([]*recipe.Recipe{a, b, c})

	levels, err := BuildLevels(g, []*recipe.Recipe{a})
	if err != nil {
		t.Fatalf("BuildLevels: %v", err)
	}
	want := [][]string{{"C"}, {"B"}, {"A"}}
	assertLevels(t, levels, want)
}

func TestBuildLevels_IndependentRecipes(t *testing.T) {
	a := mkRecipe("A")
	b := mkRecipe("B")
	g := New([]*recipe.Recipe{a, b})

	levels, err := BuildLevels(g, []*recipe.Recipe{a, b})
	if err != nil {
		t.Fatalf("BuildLevels: %v", err)
	}
	if len(levels) != 1 || len(levels[0]) != 2 {
		t.Fatalf("expected one level with both recipes, got %v", levels)
	}
}

func TestBuildLevels_MutualCycle(t *testing.T) {
	a := mkRecipe("A", "B")
	b := mkRecipe("B", "A")
	g := New([]*recipe.Recipe{a, b})

	_, err := BuildLevels(g, []*recipe.Recipe{a})
	if !errors.Is(err, ErrDependencyCycle) {
		t.Fatalf("expected ErrDependencyCycle, got %v", err)
	}
}

func TestBuildLevels_SelfLoop(t *testing.T) {
	a := mkRecipe("A", "A")
	g := New([]*recipe.Recipe{a})

	_, err := BuildLevels(g, []*recipe.Recipe{a})
	if !errors.Is(err, ErrDependencyCycle) {
		t.Fatalf("expected ErrDependencyCycle, got %v", err)
	}
}

func TestBuildLevels_EmptyRequest(t *testing.T) {
	g := New(nil)
	levels, err := BuildLevels(g, nil)
	if err != nil {
		t.Fatalf("BuildLevels: %v", err)
	}
	if len(levels) != 0 {
		t.Fatalf("expected empty levels, got %v", levels)
	}
}

func TestBuildLevels_InvariantDependenciesInEarlierLevels(t *testing.T) {
	a := mkRecipe("A", "B", "D")
	b := mkRecipe("B", "C")
	c := mkRecipe("C")
	d := mkRecipe("D")
	g := New([]*recipe.Recipe{a, b, c, d})

	levels, err := BuildLevels(g, []*recipe.Recipe{a})
	if err != nil {
		t.Fatalf("BuildLevels: %v", err)
	}

	seenBefore := map[string]bool{}
	for _, level := range levels {
		for _, r := range level {
			for _, dep := range r.LocalDepends {
				if !seenBefore[dep] {
					t.Fatalf("recipe %s depends on %s which has not appeared in an earlier level", r.Name, dep)
				}
			}
		}
		for _, r := range level {
			seenBefore[r.Name] = true
		}
	}
}

func assertLevels(t *testing.T, got [][]*recipe.Recipe, want [][]string) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("expected %d levels, got %d (%v)", len(want), len(got), got)
	}
	for i, level := range got {
		if len(level) != len(want[i]) {
			t.Fatalf("level %d: expected %v, got %v", i, want[i], names(level))
		}
		set := map[string]bool{}
		for _, n := range want[i] {
			set[n] = true
		}
		for _, r := range level {
			if !set[r.Name] {
				t.Fatalf("level %d: unexpected recipe %s, want %v", i, r.Name, want[i])
			}
		}
	}
}

func names(recipes []*recipe.Recipe) []string {
	out := make([]string, len(recipes))
	for i, r := range recipes {
		out[i] = r.Name
	}
	return out
}
