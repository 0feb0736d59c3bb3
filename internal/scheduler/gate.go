package scheduler

import (
	"context"
	"path/filepath"

	"github.com/kupferbootstrap/kupferbootstrap/internal/arch"
	"github.com/kupferbootstrap/kupferbootstrap/internal/chroot"
	"github.com/kupferbootstrap/kupferbootstrap/internal/recipe"
	"github.com/kupferbootstrap/kupferbootstrap/internal/repo"
)

// CheckBuilt reports whether every artifact r's PKGBUILD would produce
// for targetArch is already present in r's bucket index. It always
// resolves the expected filenames through a
// cross-configured makepkg config, even when targetArch equals the host
// architecture, because CARCH there is what stamps the arch suffix onto
// the artifact filename - the native chroot's own arch is irrelevant.
func (s *Scheduler) CheckBuilt(ctx context.Context, r *recipe.Recipe, targetArch arch.Arch) (bool, error) {
	native, err := s.nativeBuildChroot(ctx)
	if err != nil {
		return false, err
	}

	// No build ever runs here, so the target chroot is never mounted;
	// the sysroot path only needs to be the one a real cross build
	// would use, since CARCH/CHOST/CC alone decide the artifact name.
	sysroot := chroot.CrosscompileSysroot(chroot.NameBuild(targetArch))
	confPath, err := writeCrossConfig(native, targetArch, sysroot)
	if err != nil {
		return false, err
	}

	names, err := packageList(ctx, native, r, confPath)
	if err != nil {
		return false, err
	}
	if len(names) == 0 {
		return false, nil
	}

	idx := repo.New(s.cfg, targetArch, r.Bucket())
	for _, name := range names {
		if !idx.Has(name) {
			return false, nil
		}
	}

	// Every expected file is present. Fold each back into the bucket's
	// database so a package dropped into the directory externally (or
	// indexed by an older run that crashed between move and repo-add)
	// is listed before anything downstream reads the index.
	for _, name := range names {
		if _, err := idx.AddFile(ctx, filepath.Join(idx.Dir(), name)); err != nil {
			return false, err
		}
	}
	return true, nil
}
