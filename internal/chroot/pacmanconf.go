package chroot

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/kupferbootstrap/kupferbootstrap/internal/paths"
	"github.com/kupferbootstrap/kupferbootstrap/internal/xerrlib"
)

// pacmanConfPath is the chroot-relative path the package-manager config
// is written to.
const pacmanConfPath = "etc/pacman.conf"

// Repo describes one repository section of a rendered pacman.conf.
type Repo struct {
	Name       string
	ServerURLs []string // may contain $repo/$arch, substituted by the package manager itself, not here
}

// WritePacmanConfig renders and writes the package-manager config: a
// header pinned to this chroot's arch with the per-arch cache dir and
// download settings, followed by one section per enabled repository
// (distro mirrors first, then this chroot's ExtraRepos).
func (c *Chroot) WritePacmanConfig(mirrors []Repo, parallelDownloads int) error {
	var b strings.Builder

	fmt.Fprintf(&b, "[options]\n")
	fmt.Fprintf(&b, "Architecture = %s\n", c.arch)
	fmt.Fprintf(&b, "CacheDir = %s/%s\n", paths.InChroot(paths.KeyPacman), c.arch)
	fmt.Fprintf(&b, "SigLevel = Required DatabaseOptional\n")
	fmt.Fprintf(&b, "LocalFileSigLevel = Optional\n")
	if parallelDownloads > 0 {
		fmt.Fprintf(&b, "ParallelDownloads = %d\n", parallelDownloads)
	}
	b.WriteByte('\n')

	c.mu.Lock()
	extra := append([]string{}, c.extraRepos...)
	c.mu.Unlock()

	for _, repo := range mirrors {
		writeRepoSection(&b, repo)
	}
	for _, name := range extra {
		writeRepoSection(&b, Repo{Name: name, ServerURLs: []string{
			fmt.Sprintf("file://%s/$arch/$repo", paths.InChroot(paths.KeyPackages)),
		}})
	}

	confPath := c.HostPath(pacmanConfPath)
	if err := ensureDir(filepath.Dir(confPath)); err != nil {
		return xerrlib.Wrap(ErrChrootInitFailed, err)
	}
	if err := os.WriteFile(confPath, []byte(b.String()), paths.DefaultFileMode); err != nil {
		return xerrlib.Wrap(ErrChrootInitFailed, err)
	}
	return nil
}

func writeRepoSection(b *strings.Builder, r Repo) {
	fmt.Fprintf(b, "[%s]\n", r.Name)
	for _, url := range r.ServerURLs {
		fmt.Fprintf(b, "Server = %s\n", url)
	}
	b.WriteByte('\n')
}
