package scheduler

import (
	"github.com/opencontainers/go-digest"

	"github.com/kupferbootstrap/kupferbootstrap/internal/recipe"
)

// Artifact is a built package file, indexed into its bucket. Digest is
// the file's content digest as computed by the index when the file was
// added; the cache gate does not compare digests and only checks that
// each expected filename is present in the bucket.
type Artifact struct {
	Recipe *recipe.Recipe
	Name   string
	Digest digest.Digest
}
