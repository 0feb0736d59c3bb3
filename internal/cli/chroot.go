package cli

import (
	"context"
	"fmt"

	"github.com/kupferbootstrap/kupferbootstrap/internal/chroot"
	"github.com/kupferbootstrap/kupferbootstrap/internal/recipe"
)

// ChrootCmd initializes (if needed) and enters an interactive debug
// shell inside a base or build chroot.
type ChrootCmd struct {
	Kind string `arg:"" enum:"base,build" help:"Chroot kind: base or build."`
	Arch string `arg:"" help:"Target architecture, e.g. x86_64 or aarch64."`
}

func (c *ChrootCmd) Run(ctx context.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	targetArch, err := resolveArch(c.Arch)
	if err != nil {
		return err
	}

	var name string
	switch c.Kind {
	case "base":
		name = chroot.NameBase(targetArch)
	case "build":
		name = chroot.NameBuild(targetArch)
	default:
		return fmt.Errorf("unknown chroot kind %q", c.Kind)
	}

	mgr := chroot.NewManager(cfg)
	ch, err := mgr.Get(name)
	if err != nil {
		return err
	}
	if c.Kind == "build" {
		ch.SetExtraRepos(recipe.Buckets)
	}
	if err := ch.Initialize(ctx, false); err != nil {
		return err
	}
	if err := ch.Activate(); err != nil {
		return err
	}

	res, err := ch.Shell(ctx, nil)
	if err != nil {
		return err
	}
	if res.ExitCode != 0 {
		return fmt.Errorf("shell exited with status %d", res.ExitCode)
	}
	return nil
}
