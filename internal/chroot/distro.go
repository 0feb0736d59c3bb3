package chroot

import "github.com/kupferbootstrap/kupferbootstrap/internal/arch"

// DefaultMirrors are the distro repository sections written into a base
// chroot's package-manager config, one set per architecture (aarch64
// pulls from the ARM port mirrors, x86_64 from the upstream Arch
// mirrors).
var DefaultMirrors = map[arch.Arch][]Repo{
	arch.X86_64: {
		{Name: "core", ServerURLs: []string{"https://geo.mirror.pkgbuild.com/$repo/os/$arch"}},
		{Name: "extra", ServerURLs: []string{"https://geo.mirror.pkgbuild.com/$repo/os/$arch"}},
	},
	arch.Aarch64: {
		{Name: "core", ServerURLs: []string{"http://mirror.archlinuxarm.org/$arch/$repo"}},
		{Name: "extra", ServerURLs: []string{"http://mirror.archlinuxarm.org/$arch/$repo"}},
		{Name: "alarm", ServerURLs: []string{"http://mirror.archlinuxarm.org/$arch/$repo"}},
	},
}

// DefaultBasePackages is the package set a fresh base chroot is
// bootstrapped with, when a profile doesn't override it.
var DefaultBasePackages = []string{"base", "base-devel", "git", "sudo"}
