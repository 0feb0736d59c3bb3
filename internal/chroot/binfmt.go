package chroot

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"golang.org/x/sys/unix"

	"github.com/kupferbootstrap/kupferbootstrap/internal/xerrlib"
)

// binfmtInfoPath is the qemu-user-static registration manifest installed
// by the host's binfmt package. Overridable in tests.
var binfmtInfoPath = "/usr/lib/binfmt.d/qemu-static.conf"

// binfmtMiscDir and binfmtRegister are the binfmt_misc kernel interface
// paths: mounted once per host, then written to per architecture.
const (
	binfmtMiscDir   = "/proc/sys/fs/binfmt_misc"
	binfmtRegister  = binfmtMiscDir + "/register"
	binfmtMountName = "binfmt_misc"
)

// binfmtHandler is one parsed line of binfmtInfoPath, in the kernel's
// `:name:type:offset:magic:mask:interpreter:flags` registration format.
type binfmtHandler struct {
	arch string
	line string
}

// parseBinfmtInfo reads binfmtInfoPath and returns the registered
// handlers keyed by target architecture ("aarch64", not "qemu-aarch64").
// Only names prefixed "qemu-" are recognized; anything else is a handler
// this tool did not register and has no opinion about, so it is skipped
// rather than rejected outright.
func parseBinfmtInfo() (map[string]binfmtHandler, error) {
	f, err := os.Open(binfmtInfoPath)
	if err != nil {
		return nil, xerrlib.Wrap(ErrExternalToolMissing, err)
	}
	defer f.Close()

	handlers := map[string]binfmtHandler{}
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := sc.Text()
		if strings.HasPrefix(line, "#") || !strings.Contains(line, ":") {
			continue
		}
		fields := strings.Split(line, ":")
		if len(fields) < 2 {
			continue
		}
		if !strings.HasPrefix(fields[1], "qemu-") {
			slog.Warn("skipping binfmt handler not registered by qemu", "name", fields[1], "file", binfmtInfoPath)
			continue
		}
		arch := strings.TrimPrefix(fields[1], "qemu-")
		handlers[arch] = binfmtHandler{arch: arch, line: line}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return handlers, nil
}

// BinfmtRegistered reports whether a's qemu-user handler is already
// registered with the kernel.
func BinfmtRegistered(a string) bool {
	_, err := os.Stat(binfmtMiscDir + "/qemu-" + a)
	return err == nil
}

// RegisterBinfmt registers the host's qemu-user-static interpreter for a
// with binfmt_misc, mounting the binfmt_misc pseudo-filesystem first if
// it isn't already available. Idempotent: a no-op if a is already
// registered.
func RegisterBinfmt(a string) error {
	if BinfmtRegistered(a) {
		return nil
	}

	handlers, err := parseBinfmtInfo()
	if err != nil {
		return err
	}
	handler, ok := handlers[a]
	if !ok {
		return xerrlib.Wrapf(ErrExternalToolMissing, "no qemu binfmt handler for %q in %s", a, binfmtInfoPath)
	}

	if _, err := os.Stat(binfmtRegister); os.IsNotExist(err) {
		if err := unix.Mount(binfmtMountName, binfmtMiscDir, "binfmt_misc", 0, ""); err != nil {
			return xerrlib.Wrapf(ErrMountFailed, "mount binfmt_misc at %s: %w", binfmtMiscDir, err)
		}
	}

	if err := writeRegisterLine(handler.line); err != nil {
		return err
	}
	if !BinfmtRegistered(a) {
		return xerrlib.Wrapf(ErrExternalToolMissing, "registering qemu-user for %q did not create %s/qemu-%s", a, binfmtMiscDir, a)
	}
	return nil
}

// UnregisterBinfmt tears down a's binfmt_misc registration, if present.
func UnregisterBinfmt(a string) error {
	path := binfmtMiscDir + "/qemu-" + a
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	f, err := os.OpenFile(path, os.O_WRONLY, 0)
	if err != nil {
		return xerrlib.Wrap(ErrExternalToolMissing, err)
	}
	defer f.Close()
	_, err = fmt.Fprint(f, "-1")
	return err
}

// writeRegisterLine writes a handler's registration line to the kernel's
// binfmt_misc register interface.
func writeRegisterLine(line string) error {
	f, err := os.OpenFile(binfmtRegister, os.O_WRONLY, 0)
	if err != nil {
		return xerrlib.Wrap(ErrExternalToolMissing, err)
	}
	defer f.Close()
	_, err = fmt.Fprint(f, line)
	return err
}
