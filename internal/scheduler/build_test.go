package scheduler

import (
	"testing"

	"github.com/kupferbootstrap/kupferbootstrap/internal/recipe"
)

func TestDependsOnScheduledDetectsLocalDependency(t *testing.T) {
	s := &Scheduler{}
	base := &recipe.Recipe{Name: "libfoo", Provides: []string{"libfoo.so"}}
	dependent := &recipe.Recipe{Name: "bar", LocalDepends: []string{"libfoo.so"}}

	if !s.dependsOnScheduled(dependent, []*recipe.Recipe{base}) {
		t.Fatal("expected dependsOnScheduled to match through a provides entry")
	}
}

func TestDependsOnScheduledFalseWhenNoOverlap(t *testing.T) {
	s := &Scheduler{}
	base := &recipe.Recipe{Name: "libfoo"}
	dependent := &recipe.Recipe{Name: "bar", LocalDepends: []string{"libbaz"}}

	if s.dependsOnScheduled(dependent, []*recipe.Recipe{base}) {
		t.Fatal("expected dependsOnScheduled to be false for unrelated recipes")
	}
}

func TestDependsOnScheduledEmptyScheduledSet(t *testing.T) {
	s := &Scheduler{}
	dependent := &recipe.Recipe{Name: "bar", LocalDepends: []string{"libfoo"}}

	if s.dependsOnScheduled(dependent, nil) {
		t.Fatal("expected dependsOnScheduled to be false with no scheduled recipes")
	}
}

func TestIsCrossdirectInfraMatchesIdentitySet(t *testing.T) {
	r := &recipe.Recipe{Name: "crossdirect"}
	if !isCrossdirectInfra(r) {
		t.Fatal("expected crossdirect itself to be recognized as infra")
	}

	other := &recipe.Recipe{Name: "some-app", Provides: []string{"qemu-user-static-bin"}}
	if !isCrossdirectInfra(other) {
		t.Fatal("expected a recipe providing infra package name to be recognized")
	}

	unrelated := &recipe.Recipe{Name: "some-app"}
	if isCrossdirectInfra(unrelated) {
		t.Fatal("expected unrelated recipe not to be recognized as infra")
	}
}
