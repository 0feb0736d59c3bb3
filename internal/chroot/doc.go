// Package chroot manages layered root filesystems used to build and
// populate Arch-style packages and device images.
//
// A [Chroot] is a self-contained root filesystem on host storage,
// identified by (kind, arch): a base chroot bootstraps a minimal package
// set for an architecture, a build chroot descends from a base chroot
// via a directory-tree copy and is used to compile recipes, and a device
// chroot is the target image's own partition mounted at the chroot path.
//
// [Manager] is the process-wide registry: callers never construct a
// Chroot directly, they ask the Manager for one by name and receive the
// same handle every time. A Chroot never stores a pointer to another
// Chroot (a build chroot referencing its base, or a cross-compile target
// chroot mounted inside a native one); it stores the other chroot's name
// and resolves it back through the Manager, so chroots are owned
// exclusively by the registry.
//
// Example usage:
//
//	mgr := chroot.NewManager(cfg)
//	base, err := mgr.Get(chroot.NameBase(arch.X86_64))
//	if err != nil {
//	    return err
//	}
//	if err := base.Initialize(ctx, false); err != nil {
//	    return err
//	}
package chroot
