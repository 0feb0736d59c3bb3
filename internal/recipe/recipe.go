package recipe

// Mode selects a recipe's default build strategy.
type Mode string

const (
	ModeHost  Mode = "host"
	ModeCross Mode = "cross"
)

// Recipe is one parsed PKGBUILD output: either a recipe's base package or
// one of its subpackages. Every subpackage of a multi-output recipe is
// represented as its own Recipe sharing the base's Version.
type Recipe struct {
	// Path relative to the recipe root, e.g. "device/msm8916-bq-paella".
	// The first path segment is the output repository bucket.
	Path string

	// Name is this output's package name (the base name for a
	// single-output recipe, or the subpackage name for a branch).
	Name string

	// Version is "pkgver-pkgrel", shared by every subpackage of a recipe.
	Version string

	Provides []string
	Replaces []string

	// Depends is the full external+local dependency union as declared by
	// the PKGBUILD, version constraints stripped. The build scheduler
	// installs these into the build chroot; only LocalDepends below
	// participates in build ordering.
	Depends []string

	// LocalDepends is the projection of Depends onto names present in the
	// discovered recipe set. Populated by Discover, not by ParseDirectory.
	LocalDepends []string

	Mode Mode

	// ArchesHint holds the declared target arches, or "all".
	ArchesHint []string

	// Subpackages lists the other outputs produced by the same PKGBUILD,
	// excluding this Recipe itself, so every output can enumerate its
	// siblings. Empty for a single-output recipe.
	Subpackages []*Recipe
}

// Bucket returns the output repository bucket this recipe publishes
// into: the first path segment.
func (r *Recipe) Bucket() string {
	for i, c := range r.Path {
		if c == '/' {
			return r.Path[:i]
		}
	}
	return r.Path
}

// Names returns the recipe's identity set: name ∪ provides ∪ replaces.
// Dependency satisfaction is always checked against this set, never bare
// Name alone.
func (r *Recipe) Names() []string {
	seen := map[string]bool{r.Name: true}
	names := []string{r.Name}
	for _, group := range [][]string{r.Provides, r.Replaces} {
		for _, n := range group {
			if !seen[n] {
				seen[n] = true
				names = append(names, n)
			}
		}
	}
	return names
}

// HasName reports whether name is a member of this recipe's identity set.
func (r *Recipe) HasName(name string) bool {
	for _, n := range r.Names() {
		if n == name {
			return true
		}
	}
	return false
}
