package recipe

import (
	"log/slog"
	"os"
	"path/filepath"

	"github.com/kupferbootstrap/kupferbootstrap/internal/xerrlib"
)

// CleanBuildDirs removes every pkg/ and src/ work directory makepkg
// leaves behind under recipeRoot/<bucket>/<pkg>. noop only logs what
// would be removed.
func CleanBuildDirs(recipeRoot string, noop bool) error {
	var dirs []string
	for _, loc := range []string{"pkg", "src"} {
		matches, err := filepath.Glob(filepath.Join(recipeRoot, "*", "*", loc))
		if err != nil {
			return xerrlib.Wrap(ErrInvalidRecipe, err)
		}
		dirs = append(dirs, matches...)
	}

	for _, dir := range dirs {
		if noop {
			slog.Info("would remove directory", "dir", dir)
			continue
		}
		slog.Info("removing directory", "dir", dir)
		if err := os.RemoveAll(dir); err != nil {
			return xerrlib.Wrap(ErrInvalidRecipe, err)
		}
	}
	return nil
}
