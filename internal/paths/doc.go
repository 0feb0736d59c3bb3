// Package paths provides platform-appropriate paths for kupferbootstrap,
// plus the fixed bind-mount layout every chroot is provisioned with.
//
// Host-side paths follow XDG conventions on Linux and platform-native
// conventions on macOS and Windows. "kupferbootstrap" is used as the
// subdirectory under each base path unless overridden by the paths.*
// config section.
package paths
