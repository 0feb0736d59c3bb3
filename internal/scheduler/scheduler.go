package scheduler

import (
	"github.com/google/uuid"

	"github.com/kupferbootstrap/kupferbootstrap/internal/chroot"
	"github.com/kupferbootstrap/kupferbootstrap/internal/config"
)

// Options controls a single BuildPackages run.
type Options struct {
	// Force rebuilds every explicitly requested recipe even if the
	// cache gate reports it already built.
	Force bool

	// EnableCrosscompile allows the cross strategy to be selected for
	// recipes declaring _mode=cross.
	EnableCrosscompile bool

	// EnableCrossdirect wires the crossdirect transparent-exec layer
	// for foreign host-mode builds instead of plain QEMU emulation.
	EnableCrossdirect bool

	// EnableCcache prepends the compiler-cache PATH entry for
	// host-mode builds that don't use crossdirect.
	EnableCcache bool

	// Threads overrides MAKEFLAGS=-j<threads>; 0 selects config.Threads'
	// auto-detected CPU count.
	Threads int

	// Reset re-initializes the target-arch build chroot from its base
	// each time a foreign-target build resolves it (build.clean_mode).
	// The host-arch build chroot is not reset.
	Reset bool

	// DebugShell drops the operator into an interactive shell inside
	// the build chroot when a recipe's build fails, with the failing
	// chroot still mounted for inspection.
	DebugShell bool
}

// Scheduler builds packages against a process-wide chroot registry,
// selecting strategy and wiring per recipe.
type Scheduler struct {
	cfg *config.Config
	mgr *chroot.Manager

	// SessionID correlates this run's log lines and, on failure, the
	// debug-shell handle offered to the operator.
	SessionID uuid.UUID
}

// New returns a Scheduler operating against mgr's chroot registry.
func New(cfg *config.Config, mgr *chroot.Manager) *Scheduler {
	return &Scheduler{cfg: cfg, mgr: mgr, SessionID: uuid.New()}
}
