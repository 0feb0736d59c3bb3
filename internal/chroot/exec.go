package chroot

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"sort"
	"strings"

	"github.com/kupferbootstrap/kupferbootstrap/internal/recipe"
	"github.com/kupferbootstrap/kupferbootstrap/internal/xerrlib"
)

// chrootBinary is the host helper invoked to run commands inside a
// chroot. Overridable in tests.
var chrootBinary = "chroot"

// CompletedResult is the captured result of a RunCmd invocation.
type CompletedResult struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// Run executes script inside the chroot as `chroot <path> /usr/bin/env
// <K=V...> /bin/bash -c <script>`. innerEnv variables
// are passed through env(1) into the chrooted process; outerEnv
// variables are set on the host-side exec.Cmd (e.g. QEMU_LD_PREFIX hints
// that must reach a binfmt-registered emulator wrapper before it
// re-execs inside the chroot). If cwd is set, the script is wrapped as
// `cd <cwd> && ( <script> )`. attachTTY inherits the host's stdio
// instead of capturing output.
func (c *Chroot) Run(ctx context.Context, script string, innerEnv, outerEnv map[string]string, attachTTY bool, cwd string, failInactive bool) (*CompletedResult, error) {
	if failInactive && !c.Active() {
		return nil, ErrChrootInactive
	}

	if cwd != "" {
		script = fmt.Sprintf("cd %s && ( %s )", shellQuote(cwd), script)
	}

	args := []string{c.path, "/usr/bin/env"}
	args = append(args, envArgs(innerEnv)...)
	args = append(args, "/bin/bash", "-c", script)

	cmd := exec.CommandContext(ctx, chrootBinary, args...)
	cmd.Env = append(os.Environ(), envArgs(outerEnv)...)

	if attachTTY {
		cmd.Stdin = os.Stdin
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr
		err := cmd.Run()
		return &CompletedResult{ExitCode: exitCode(err)}, runErr(err)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()

	return &CompletedResult{
		ExitCode: exitCode(err),
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
	}, runErr(err)
}

// RunCmd adapts Run to the recipe.Runner interface so internal/recipe
// can invoke `makepkg --printsrcinfo` inside a chroot without importing
// this package (keeping the parser a leaf with respect to chroot).
func (c *Chroot) RunCmd(ctx context.Context, script string, env map[string]string, cwd string) (recipe.Output, error) {
	res, err := c.Run(ctx, script, env, nil, false, cwd, true)
	if err != nil {
		return recipe.Output{}, err
	}
	return recipe.Output{Stdout: res.Stdout, Stderr: res.Stderr, ExitCode: res.ExitCode}, nil
}

// runErr only surfaces host-level exec failures (binary missing, killed
// by signal); a nonzero exit status is not an error, callers inspect
// ExitCode themselves.
func runErr(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := err.(*exec.ExitError); ok {
		return nil
	}
	if os.IsNotExist(err) {
		return xerrlib.Wrap(ErrExternalToolMissing, err)
	}
	return err
}

func exitCode(err error) int {
	if err == nil {
		return 0
	}
	if exitErr, ok := err.(*exec.ExitError); ok {
		return exitErr.ExitCode()
	}
	return -1
}

// envArgs renders a map as a deterministically ordered "K=V" slice. These
// values are passed directly as argv elements to /usr/bin/env and as
// cmd.Env entries, both of which bypass a shell, so they must NOT be
// shell-quoted (unlike the script string passed to `bash -c`, which
// does go through a shell and uses shellQuote below).
func envArgs(env map[string]string) []string {
	if len(env) == 0 {
		return nil
	}
	keys := make([]string, 0, len(env))
	for k := range env {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]string, 0, len(env))
	for _, k := range keys {
		out = append(out, k+"="+env[k])
	}
	return out
}

// shellQuote single-quotes s for safe inclusion in a shell -c script,
// escaping embedded single quotes.
func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
