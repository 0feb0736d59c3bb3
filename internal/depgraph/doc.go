// Package depgraph builds the package dependency graph from a discovered
// recipe set and orders it into build levels.
//
// A [Graph] maps every recipe's identity-set member (name, provides,
// replaces) to the recipe that owns it, mirroring [recipe.Set] but scoped
// to the operations the solver needs. [BuildLevels] computes an ordered
// list of recipe sets such that index 0 contains leaves (no local
// dependencies) and every later set's recipes depend only on recipes in
// earlier sets.
package depgraph
