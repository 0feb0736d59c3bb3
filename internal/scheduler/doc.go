// Package scheduler selects, wires, and invokes package builds: it
// consults the artifact cache gate before scheduling anything, picks a
// per-package compilation strategy (native host-mode, cross-compile, or
// QEMU-emulated host compile via crossdirect), wires the chosen chroot
// accordingly, runs the recipe build tool inside it, and publishes the
// resulting artifacts into the repository index.
package scheduler
