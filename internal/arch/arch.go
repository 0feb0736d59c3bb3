// Package arch models the small, closed set of CPU architectures
// kupferbootstrap builds for, and normalizes between bare architecture
// tags ("aarch64") and OCI-style platform strings ("linux/arm64") using
// the platform parser the rest of the dependency stack already speaks.
package arch

import (
	"fmt"

	"github.com/containerd/platforms"
)

// Arch is a validated architecture tag, e.g. "x86_64" or "aarch64".
type Arch string

// Supported architectures. Unlike a distro mirror, kupferbootstrap only
// ever builds for this fixed set.
const (
	X86_64  Arch = "x86_64"
	Aarch64 Arch = "aarch64"
)

// All returns every supported architecture in a stable order.
func All() []Arch {
	return []Arch{X86_64, Aarch64}
}

// archToGOARCH maps an Arch to the platforms package's normalized
// architecture name (which follows Go's GOARCH naming, not Arch Linux's).
var archToGOARCH = map[Arch]string{
	X86_64:  "amd64",
	Aarch64: "arm64",
}

var goarchToArch = map[string]Arch{
	"amd64": X86_64,
	"arm64": Aarch64,
}

// Parse validates a bare architecture tag.
func Parse(s string) (Arch, error) {
	a := Arch(s)
	if _, ok := archToGOARCH[a]; !ok {
		return "", fmt.Errorf("unsupported architecture %q", s)
	}
	return a, nil
}

// ParsePlatform parses an OCI-style platform string ("linux/arm64") or a
// bare architecture tag and returns the corresponding Arch.
func ParsePlatform(s string) (Arch, error) {
	if a, err := Parse(s); err == nil {
		return a, nil
	}
	p, err := platforms.Parse(s)
	if err != nil {
		return "", fmt.Errorf("parsing platform %q: %w", s, err)
	}
	a, ok := goarchToArch[p.Architecture]
	if !ok {
		return "", fmt.Errorf("unsupported platform architecture %q", p.Architecture)
	}
	return a, nil
}

// Platform returns the OCI-style platform string for a, e.g. "linux/arm64".
func (a Arch) Platform() string {
	goarch, ok := archToGOARCH[a]
	if !ok {
		return ""
	}
	return platforms.Format(platforms.Normalize(platforms.Platform{
		OS:           "linux",
		Architecture: goarch,
	}))
}

// Host returns the Arch of the machine this process is running on.
func Host() Arch {
	p := platforms.DefaultSpec()
	a, ok := goarchToArch[p.Architecture]
	if !ok {
		return Arch(p.Architecture)
	}
	return a
}

// Foreign reports whether building for target requires emulation on the
// current host (target != Host()).
func Foreign(target Arch) bool {
	return target != Host()
}

func (a Arch) String() string { return string(a) }
