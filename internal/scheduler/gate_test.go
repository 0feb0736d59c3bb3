package scheduler

import (
	"context"
	"errors"
	"testing"

	"github.com/kupferbootstrap/kupferbootstrap/internal/chroot"
	"github.com/kupferbootstrap/kupferbootstrap/internal/config"
	"github.com/kupferbootstrap/kupferbootstrap/internal/recipe"
)

func TestPackageListPropagatesInactiveChrootError(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.Chroots = t.TempDir()
	mgr := chroot.NewManager(cfg)

	c, err := mgr.Get("build_x86_64")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}

	r := &recipe.Recipe{Name: "foo", Path: "main/foo"}
	if _, err := packageList(context.Background(), c, r, defaultConfigPath()); !errors.Is(err, chroot.ErrChrootInactive) {
		t.Fatalf("packageList on an inactive chroot = %v, want ErrChrootInactive", err)
	}
}
