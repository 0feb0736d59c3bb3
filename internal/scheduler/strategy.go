package scheduler

import (
	"context"
	"fmt"
	"runtime"

	"github.com/kupferbootstrap/kupferbootstrap/internal/arch"
	"github.com/kupferbootstrap/kupferbootstrap/internal/chroot"
	"github.com/kupferbootstrap/kupferbootstrap/internal/paths"
	"github.com/kupferbootstrap/kupferbootstrap/internal/recipe"
	"github.com/kupferbootstrap/kupferbootstrap/internal/xerrlib"
)

// strategy is a fully resolved set of wiring decisions for building one
// recipe for targetArch.
type strategy struct {
	// buildChroot is the chroot the recipe's build script actually runs
	// in: the target-arch build chroot for native/emulated builds, the
	// native build chroot itself for a cross-compile build.
	buildChroot *chroot.Chroot

	// confPath is the in-chroot makepkg config path to build with.
	confPath string

	// extraPackages are installed into buildChroot before the build
	// (crossdirect's infrastructure packages plus the cross-compiler for
	// a cross build; nothing extra for native/emulated).
	extraPackages []string

	// makepkgFlags are appended to the main makepkg build invocation for
	// this strategy (not to the prepare or --packagelist invocations).
	makepkgFlags []string

	// innerEnv is merged into the script's environment inside the
	// chroot.
	innerEnv map[string]string

	// label identifies the resolved strategy for metrics partitioning
	// ("native", "cross", "emulated").
	label string
}

// resolveStrategy picks native, cross, or QEMU-emulated host-mode
// compilation for r against targetArch, and wires the chroot(s) it
// needs. The native build chroot is the build root for native and cross
// builds; a foreign emulated build resolves it only when crossdirect is
// wired.
func (s *Scheduler) resolveStrategy(ctx context.Context, opts Options, r *recipe.Recipe, targetArch arch.Arch) (*strategy, error) {
	env := map[string]string{
		"LANG":      "C",
		"MAKEFLAGS": fmt.Sprintf("-j%d", s.cfg.Threads(runtime.NumCPU())),
	}
	if opts.Threads > 0 {
		env["MAKEFLAGS"] = fmt.Sprintf("-j%d", opts.Threads)
	}
	if triplet := chroot.CrossTriplet(string(targetArch)); arch.Foreign(targetArch) && triplet != "" {
		env["QEMU_LD_PREFIX"] = "/usr/" + triplet
	}

	if !arch.Foreign(targetArch) {
		native, err := s.nativeBuildChroot(ctx)
		if err != nil {
			return nil, err
		}
		if opts.EnableCcache {
			env["PATH"] = "/usr/lib/ccache/bin:" + defaultPath
		}
		return &strategy{
			buildChroot:  native,
			confPath:     defaultConfigPath(),
			makepkgFlags: []string{"--syncdeps", "--holdver"},
			innerEnv:     env,
			label:        "native",
		}, nil
	}

	if opts.EnableCrosscompile && r.Mode == recipe.ModeCross {
		return s.resolveCrossStrategy(ctx, opts, r, targetArch, env)
	}
	return s.resolveEmulatedStrategy(ctx, opts, r, targetArch, env)
}

// resolveCrossStrategy builds r inside the native chroot, targeting
// targetArch with a cross-compiler toolchain and a CARCH-overridden
// makepkg config - the PKGBUILD's own build() runs entirely on host
// silicon. The target arch's own build chroot is resolved and bind-
// mounted into the native chroot at /chroot/<name> so the cross-compiler
// has the target's sysroot available, and crossdirect's infrastructure
// packages are installed into the native chroot alongside the
// cross-compiler itself.
func (s *Scheduler) resolveCrossStrategy(ctx context.Context, opts Options, r *recipe.Recipe, targetArch arch.Arch, env map[string]string) (*strategy, error) {
	crossCompiler, ok := chroot.CrossCompilerPackage(arch.Host(), targetArch)
	if !ok {
		return nil, xerrlib.Wrapf(ErrBuildFailed, "%s: no cross-compiler known for host=%s target=%s", r.Name, arch.Host(), targetArch)
	}

	native, err := s.nativeBuildChroot(ctx)
	if err != nil {
		return nil, err
	}

	target, err := s.targetBuildChroot(ctx, targetArch, opts.Reset)
	if err != nil {
		return nil, err
	}

	if err := native.MountCrosscompile(ctx, target, false); err != nil {
		return nil, err
	}
	sysroot := chroot.CrosscompileSysroot(target.Name())

	confPath, err := writeCrossConfig(native, targetArch, sysroot)
	if err != nil {
		return nil, err
	}

	return &strategy{
		buildChroot:   native,
		confPath:      confPath,
		extraPackages: crossExtraPackages(crossCompiler),
		makepkgFlags:  []string{"--nodeps", "--holdver"},
		innerEnv:      env,
		label:         "cross",
	}, nil
}

// crossExtraPackages is the package set resolveCrossStrategy installs
// into the native chroot before the build: crossdirect's own
// infrastructure packages plus the cross-compiler targeting this
// recipe's arch pair. The recipe's declared depends are installed
// separately by buildRecipe for every strategy.
func crossExtraPackages(crossCompiler string) []string {
	return append(append([]string{}, chroot.CrossdirectInfraPackages...), crossCompiler)
}

// resolveEmulatedStrategy builds r inside targetArch's own build
// chroot. When opts.EnableCrossdirect is set and r is not crossdirect
// infrastructure itself, the native chroot's compiler toolchain is
// bind-mounted in via crossdirect so compilation runs at host speed
// while everything else (the recipe's own test/install steps) still
// executes under QEMU. Otherwise the whole build runs under QEMU, with
// the compiler-cache PATH entry prepended when opts.EnableCcache is set.
func (s *Scheduler) resolveEmulatedStrategy(ctx context.Context, opts Options, r *recipe.Recipe, targetArch arch.Arch, env map[string]string) (*strategy, error) {
	target, err := s.targetBuildChroot(ctx, targetArch, opts.Reset)
	if err != nil {
		return nil, err
	}

	st := &strategy{
		buildChroot:  target,
		confPath:     defaultConfigPath(),
		makepkgFlags: []string{"--syncdeps", "--holdver"},
		innerEnv:     env,
		label:        "emulated",
	}

	if !opts.EnableCrossdirect || isCrossdirectInfra(r) {
		if opts.EnableCcache {
			st.innerEnv["PATH"] = "/usr/lib/ccache/bin:" + defaultPath
		}
		return st, nil
	}

	native, err := s.nativeBuildChroot(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := target.MountCrossdirect(ctx, native,
		s.cfg.HostPath(paths.KeyPacman), s.cfg.HostPath(paths.KeyPackages), false); err != nil {
		return nil, err
	}
	st.innerEnv["PATH"] = "/native/usr/lib/crossdirect/" + string(targetArch) + ":" + defaultPath
	return st, nil
}

func isCrossdirectInfra(r *recipe.Recipe) bool {
	for _, infra := range chroot.CrossdirectInfraPackages {
		if r.HasName(infra) {
			return true
		}
	}
	return false
}

const defaultPath = "/usr/local/sbin:/usr/local/bin:/usr/bin:/usr/sbin:/bin:/sbin"
