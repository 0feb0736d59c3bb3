package recipe

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/kupferbootstrap/kupferbootstrap/internal/xerrlib"
)

// EnsureCloned clones repoURL at branch into dir if dir does not yet
// contain a git checkout, otherwise fetches and resets it to the
// branch head. This is where pkgbuilds.git_repo/git_branch from the
// configuration land.
func EnsureCloned(ctx context.Context, repoURL, branch, dir string) error {
	if _, err := os.Stat(filepath.Join(dir, ".git")); os.IsNotExist(err) {
		cmd := exec.CommandContext(ctx, "git", "clone", "--branch", branch, "--depth", "1", repoURL, dir)
		if out, err := cmd.CombinedOutput(); err != nil {
			return xerrlib.Wrapf(ErrInvalidRecipe, "git clone %s: %w: %s", repoURL, err, out)
		}
		return nil
	}

	for _, args := range [][]string{
		{"fetch", "origin", branch},
		{"checkout", branch},
		{"reset", "--hard", "origin/" + branch},
	} {
		cmd := exec.CommandContext(ctx, "git", args...)
		cmd.Dir = dir
		if out, err := cmd.CombinedOutput(); err != nil {
			return xerrlib.Wrapf(ErrInvalidRecipe, "git %v: %w: %s", args, err, out)
		}
	}
	return nil
}
