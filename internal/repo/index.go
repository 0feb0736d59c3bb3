package repo

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/opencontainers/go-digest"

	"github.com/kupferbootstrap/kupferbootstrap/internal/arch"
	"github.com/kupferbootstrap/kupferbootstrap/internal/config"
	"github.com/kupferbootstrap/kupferbootstrap/internal/metrics"
	"github.com/kupferbootstrap/kupferbootstrap/internal/paths"
	"github.com/kupferbootstrap/kupferbootstrap/internal/recipe"
	"github.com/kupferbootstrap/kupferbootstrap/internal/xerrlib"
)

// repoAddBinary and tarBinary are the external tools Index shells out
// to. Overridable in tests.
var (
	repoAddBinary = "repo-add"
	tarBinary     = "tar"
)

// File describes one artifact added to an Index.
type File struct {
	Name   string
	Digest digest.Digest
}

// Index is the repository index for one (arch, bucket) pair: a
// directory holding the bucket's built package files plus the
// {bucket}.db(.tar.xz) / {bucket}.files(.tar.xz) archive pairs.
type Index struct {
	cfg    *config.Config
	arch   arch.Arch
	bucket string
	dir    string
}

// New returns the Index for the given arch/bucket, rooted under the
// configured packages path.
func New(cfg *config.Config, a arch.Arch, bucket string) *Index {
	return &Index{
		cfg:    cfg,
		arch:   a,
		bucket: bucket,
		dir:    filepath.Join(cfg.HostPath(paths.KeyPackages), string(a), bucket),
	}
}

// Dir returns the bucket's directory on the host.
func (idx *Index) Dir() string { return idx.dir }

func (idx *Index) dbArchive() string    { return filepath.Join(idx.dir, idx.bucket+".db.tar.xz") }
func (idx *Index) db() string           { return filepath.Join(idx.dir, idx.bucket+".db") }
func (idx *Index) filesArchive() string { return filepath.Join(idx.dir, idx.bucket+".files.tar.xz") }
func (idx *Index) files() string        { return filepath.Join(idx.dir, idx.bucket+".files") }

// Has reports whether a file named name already exists in the bucket
// directory (used by the build scheduler's cache gate to probe expected
// output filenames).
func (idx *Index) Has(name string) bool {
	_, err := os.Stat(filepath.Join(idx.dir, name))
	return err == nil
}

// InitIndex ensures every known bucket has a directory and an archive
// pair for arch, creating empty archives where missing.
func InitIndex(cfg *config.Config, a arch.Arch) error {
	for _, bucket := range recipe.Buckets {
		idx := New(cfg, a, bucket)
		if err := os.MkdirAll(idx.dir, paths.DefaultDirMode); err != nil {
			return xerrlib.Wrap(ErrIndexFailed, err)
		}
		if err := idx.ensureEmptyArchive(idx.dbArchive()); err != nil {
			return err
		}
		if err := idx.ensureEmptyArchive(idx.filesArchive()); err != nil {
			return err
		}
	}
	return nil
}

// ensureEmptyArchive creates an empty tar.xz archive at path if one
// doesn't already exist. Shelling out to tar directly keeps the
// produced archive byte-compatible with what repo-add and pacman expect
// to read back.
func (idx *Index) ensureEmptyArchive(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	cmd := exec.Command(tarBinary, "--create", "--file="+path, "--files-from=/dev/null", "--xz")
	if out, err := cmd.CombinedOutput(); err != nil {
		return xerrlib.Wrapf(ErrExternalToolMissing, "creating empty archive %s: %w: %s", path, err, out)
	}
	return nil
}

// AddFile moves srcPath into the bucket directory (if it isn't already
// there), removes any stale same-named file from the per-arch
// pacman cache, invokes repo-add to fold it into the database, and
// refreshes the unsuffixed {bucket}.db/.files copies from the freshly
// written archives. The refresh happens only
// after repo-add has succeeded, so a reader of the unsuffixed path never
// observes a partial update.
func (idx *Index) AddFile(ctx context.Context, srcPath string) (*File, error) {
	if err := os.MkdirAll(idx.dir, paths.DefaultDirMode); err != nil {
		return nil, xerrlib.Wrap(ErrIndexFailed, err)
	}

	name := filepath.Base(srcPath)
	dst := filepath.Join(idx.dir, name)
	if srcPath != dst {
		if err := moveFile(srcPath, dst); err != nil {
			return nil, xerrlib.Wrap(ErrIndexFailed, err)
		}
	}

	if err := idx.evictFromPacmanCache(name); err != nil {
		return nil, err
	}

	if err := idx.runRepoAdd(ctx, dst); err != nil {
		return nil, err
	}

	for _, pair := range [][2]string{
		{idx.dbArchive(), idx.db()},
		{idx.filesArchive(), idx.files()},
	} {
		if err := refreshUnsuffixed(pair[0], pair[1]); err != nil {
			return nil, err
		}
	}

	if err := idx.removeOldBackups(); err != nil {
		return nil, err
	}

	dgst, err := digestFile(dst)
	if err != nil {
		return nil, xerrlib.Wrap(ErrIndexFailed, err)
	}
	metrics.RepoIndexUpdatesTotal.WithLabelValues(idx.bucket, string(idx.arch)).Inc()
	return &File{Name: name, Digest: dgst}, nil
}

// evictFromPacmanCache removes name from the per-arch pacman cache
// directory, if present, so the package manager never serves a stale
// binary that was since rebuilt under the same filename.
func (idx *Index) evictFromPacmanCache(name string) error {
	cachePath := filepath.Join(idx.cfg.HostPath(paths.KeyPacman), string(idx.arch), name)
	if err := os.Remove(cachePath); err != nil && !os.IsNotExist(err) {
		return xerrlib.Wrap(ErrIndexFailed, err)
	}
	return nil
}

// runRepoAdd invokes the distro's repo-add tool against this bucket's
// database archive, relative to the bucket directory. --remove drops any
// stale entries for packages no longer present; --prevent-downgrade is
// deliberately omitted so rebuilding the same version is never rejected
// (decided in DESIGN.md).
func (idx *Index) runRepoAdd(ctx context.Context, pkgPath string) error {
	cmd := exec.CommandContext(ctx, repoAddBinary, "--remove", idx.bucket+".db.tar.xz", filepath.Base(pkgPath))
	cmd.Dir = idx.dir
	out, err := cmd.CombinedOutput()
	if err != nil {
		return xerrlib.Wrapf(ErrIndexFailed, "repo-add %s: %w: %s", idx.bucket, err, out)
	}
	return nil
}

// removeOldBackups deletes the .old backups repo-add leaves behind after
// a successful update.
func (idx *Index) removeOldBackups() error {
	for _, suffix := range []string{".db.tar.xz.old", ".files.tar.xz.old"} {
		path := filepath.Join(idx.dir, idx.bucket+suffix)
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return xerrlib.Wrap(ErrIndexFailed, err)
		}
	}
	return nil
}

// refreshUnsuffixed removes the unsuffixed copy at plain and re-copies
// it from archive, guaranteeing the archive-less name points at current
// data.
func refreshUnsuffixed(archive, plain string) error {
	if _, err := os.Stat(archive); os.IsNotExist(err) {
		return nil
	}
	if err := os.Remove(plain); err != nil && !os.IsNotExist(err) {
		return xerrlib.Wrap(ErrIndexFailed, err)
	}
	return copyFile(archive, plain)
}

func moveFile(src, dst string) error {
	if err := os.Rename(src, dst); err == nil {
		return nil
	}
	// Rename fails across filesystems (e.g. a build chroot on a
	// different mount than the packages root); fall back to copy+remove.
	if err := copyFile(src, dst); err != nil {
		return err
	}
	return os.Remove(src)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, paths.DefaultFileMode)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Close()
}

func digestFile(path string) (digest.Digest, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	d, err := digest.FromReader(f)
	if err != nil {
		return "", err
	}
	return d, nil
}

// ExpectedName renders the standard artifact filename for a recipe at
// the given arch: "<name>-<version>-<arch>.pkg.tar.<compression>", where
// compression is "xz" or "zst" depending on makepkg's configured
// compressor.
func ExpectedName(pkgName, version string, a arch.Arch, compression string) string {
	return fmt.Sprintf("%s-%s-%s.pkg.tar.%s", pkgName, version, a, compression)
}
