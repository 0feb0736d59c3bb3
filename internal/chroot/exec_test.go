package chroot

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestShellQuote(t *testing.T) {
	cases := map[string]string{
		"simple":     "'simple'",
		"":           "''",
		"it's":       `'it'\''s'`,
		"a b":        "'a b'",
		"a'b'c":      `'a'\''b'\''c'`,
	}
	for in, want := range cases {
		if got := shellQuote(in); got != want {
			t.Fatalf("shellQuote(%q) = %q, want %q", in, got, want)
		}
	}
}

// envArgs feeds /usr/bin/env's argv and cmd.Env directly, with no shell
// in between, so its entries must be plain "K=V": quoting them would
// make env(1) see a variable literally named "'K" instead of "K".
func TestEnvArgsOrderedAndUnquoted(t *testing.T) {
	got := envArgs(map[string]string{"B": "2", "A": "1 2"})
	want := []string{"A=1 2", "B=2"}
	if len(got) != len(want) {
		t.Fatalf("envArgs = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("envArgs[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

// TestRunPassesEnvUnquotedToChrootedProcess exercises Run() end to end
// against a faked "chroot" binary that strips the chroot-path and
// /usr/bin/env argv slots chroot(8) itself would normally consume, then
// execs the real env(1) with whatever Run built. This is the regression
// test for the bug where envArgs single-quoted each "K=V" entry: env(1)
// would then see a variable literally named "'A", not "A", and the value
// would never reach the script.
func TestRunPassesEnvUnquotedToChrootedProcess(t *testing.T) {
	realEnv, err := findEnvBinary()
	if err != nil {
		t.Skipf("no env(1) on this host: %v", err)
	}

	dir := t.TempDir()
	fake := filepath.Join(dir, "chroot")
	script := "#!/bin/sh\nshift 2\nexec " + realEnv + " \"$@\"\n"
	if err := os.WriteFile(fake, []byte(script), 0o755); err != nil {
		t.Fatal(err)
	}

	old := chrootBinary
	chrootBinary = fake
	defer func() { chrootBinary = old }()

	c := &Chroot{path: "/unused"}
	res, err := c.Run(context.Background(), `printf '%s' "$A"`,
		map[string]string{"A": "1 2"}, nil, false, "", false)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.ExitCode != 0 {
		t.Fatalf("exit code = %d, stderr = %s", res.ExitCode, res.Stderr)
	}
	if res.Stdout != "1 2" {
		t.Fatalf("stdout = %q, want %q (env var A did not survive unquoted)", res.Stdout, "1 2")
	}
}

func findEnvBinary() (string, error) {
	for _, p := range []string{"/usr/bin/env", "/bin/env"} {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}
	return "", os.ErrNotExist
}

func TestEnvArgsEmpty(t *testing.T) {
	if got := envArgs(nil); got != nil {
		t.Fatalf("envArgs(nil) = %v, want nil", got)
	}
	if got := envArgs(map[string]string{}); got != nil {
		t.Fatalf("envArgs(empty) = %v, want nil", got)
	}
}

func TestExitCode(t *testing.T) {
	if exitCode(nil) != 0 {
		t.Fatal("exitCode(nil) should be 0")
	}
}
