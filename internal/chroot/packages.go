package chroot

import (
	"context"
	"fmt"
	"strings"

	"github.com/kupferbootstrap/kupferbootstrap/internal/xerrlib"
)

// InstallPackages installs packages inside the chroot via the package
// manager, optionally refreshing the sync databases first. If allowFail
// is true and the bulk install fails, it retries each package one at a
// time and reports per-package results instead of aborting (a distro
// mirror snapshot commonly has a package or two missing for one arch).
func (c *Chroot) InstallPackages(ctx context.Context, packages []string, refresh, allowFail bool) (map[string]*CompletedResult, error) {
	results := map[string]*CompletedResult{}

	if refresh {
		res, err := c.Run(ctx, "pacman -Syy --noconfirm", nil, nil, false, "", true)
		if err != nil {
			return nil, err
		}
		results["refresh"] = res
	}

	script := fmt.Sprintf("pacman -S --noconfirm --needed --overwrite='/*' -y %s", strings.Join(packages, " "))
	res, err := c.Run(ctx, script, nil, nil, false, "", true)
	if err != nil {
		return nil, err
	}
	if res.ExitCode == 0 || !allowFail {
		for _, pkg := range packages {
			results[pkg] = res
		}
		if res.ExitCode != 0 {
			return results, xerrlib.Wrapf(ErrChrootInitFailed, "pacman install failed with exit code %d: %s", res.ExitCode, res.Stderr)
		}
		return results, nil
	}

	for _, pkg := range packages {
		script := fmt.Sprintf("pacman -S --noconfirm --needed --overwrite='/*' %s", pkg)
		res, err := c.Run(ctx, script, nil, nil, false, "", true)
		if err != nil {
			return nil, err
		}
		results[pkg] = res
	}
	return results, nil
}
