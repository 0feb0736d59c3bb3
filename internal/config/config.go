package config

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/kupferbootstrap/kupferbootstrap/internal/paths"
	"github.com/kupferbootstrap/kupferbootstrap/internal/xerrlib"
)

// Build holds the build.* configuration surface.
type Build struct {
	Crosscompile bool `yaml:"crosscompile"`
	Crossdirect  bool `yaml:"crossdirect"`
	Ccache       bool `yaml:"ccache"`
	Threads      int  `yaml:"threads"` // 0 = auto (all CPUs)
	CleanMode    bool `yaml:"clean_mode"`
}

// Pkgbuilds holds the pkgbuilds.* configuration surface.
type Pkgbuilds struct {
	GitRepo   string `yaml:"git_repo"`
	GitBranch string `yaml:"git_branch"`
}

// Paths holds the paths.* configuration surface: host-side directories
// for each standard bind-mount key (see internal/paths).
type Paths struct {
	Chroots   string `yaml:"chroots"`
	Pacman    string `yaml:"pacman"`
	Packages  string `yaml:"packages"`
	Pkgbuilds string `yaml:"pkgbuilds"`
	Images    string `yaml:"images"`
	Jumpdrive string `yaml:"jumpdrive"`
}

// Profile describes one device target build profile.
type Profile struct {
	Parent      string   `yaml:"parent"`
	Device      string   `yaml:"device"`
	Flavour     string   `yaml:"flavour"`
	PkgsInclude []string `yaml:"pkgs_include"`
	PkgsExclude []string `yaml:"pkgs_exclude"`
	Hostname    string   `yaml:"hostname"`
	Username    string   `yaml:"username"`
	Password    string   `yaml:"password"`
}

// Config is the complete, fixed kupferbootstrap configuration schema.
type Config struct {
	Build          Build              `yaml:"build"`
	Pkgbuilds      Pkgbuilds          `yaml:"pkgbuilds"`
	Paths          Paths              `yaml:"paths"`
	Profiles       map[string]Profile `yaml:"profiles"`
	CurrentProfile string             `yaml:"current_profile"`
	StrictCache    bool               `yaml:"strict_cache_consistency"`
}

// Default returns a Config with the host-derived default paths and a
// conservative, strict-by-default posture.
func Default() *Config {
	return &Config{
		Build: Build{
			Crosscompile: true,
			Crossdirect:  true,
			Ccache:       true,
		},
		Paths: Paths{
			Chroots:   paths.DefaultHostPath(paths.KeyChroots),
			Pacman:    paths.DefaultHostPath(paths.KeyPacman),
			Packages:  paths.DefaultHostPath(paths.KeyPackages),
			Pkgbuilds: paths.DefaultHostPath(paths.KeyPkgbuilds),
			Images:    paths.DefaultHostPath(paths.KeyImages),
			Jumpdrive: paths.DefaultHostPath(paths.KeyJumpdrive),
		},
		Profiles:    map[string]Profile{},
		StrictCache: true,
	}
}

// Load reads and validates the config file at path, rejecting unknown
// keys rather than silently ignoring them. A missing file returns
// Default() unmodified.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	return cfg, nil
}

// LoadDefault loads the config from the default XDG config location.
func LoadDefault() (*Config, error) {
	return Load(paths.ConfigFile())
}

// ResolveProfile follows Profile.Parent chains and returns the fully
// merged profile for name. Fields set on a child win over its parent.
func (c *Config) ResolveProfile(name string) (Profile, error) {
	seen := map[string]bool{}
	var chain []Profile

	cur := name
	for cur != "" {
		if seen[cur] {
			return Profile{}, xerrlib.Wrapf(ErrProfileCycle, "at %q", cur)
		}
		seen[cur] = true

		p, ok := c.Profiles[cur]
		if !ok {
			return Profile{}, xerrlib.Wrapf(ErrUnknownProfile, "%q", cur)
		}
		chain = append(chain, p)
		cur = p.Parent
	}

	merged := Profile{}
	for i := len(chain) - 1; i >= 0; i-- {
		mergeProfile(&merged, chain[i])
	}
	return merged, nil
}

func mergeProfile(dst *Profile, src Profile) {
	if src.Device != "" {
		dst.Device = src.Device
	}
	if src.Flavour != "" {
		dst.Flavour = src.Flavour
	}
	if src.Hostname != "" {
		dst.Hostname = src.Hostname
	}
	if src.Username != "" {
		dst.Username = src.Username
	}
	if src.Password != "" {
		dst.Password = src.Password
	}
	if len(src.PkgsInclude) > 0 {
		dst.PkgsInclude = src.PkgsInclude
	}
	if len(src.PkgsExclude) > 0 {
		dst.PkgsExclude = src.PkgsExclude
	}
}

// HostPath returns the configured host-side directory for the given
// paths.Key* constant, honoring overrides and falling back to the
// XDG-derived default.
func (c *Config) HostPath(key string) string {
	switch key {
	case paths.KeyChroots:
		return firstNonEmpty(c.Paths.Chroots, paths.DefaultHostPath(key))
	case paths.KeyPacman:
		return firstNonEmpty(c.Paths.Pacman, paths.DefaultHostPath(key))
	case paths.KeyPackages:
		return firstNonEmpty(c.Paths.Packages, paths.DefaultHostPath(key))
	case paths.KeyPkgbuilds:
		return firstNonEmpty(c.Paths.Pkgbuilds, paths.DefaultHostPath(key))
	case paths.KeyImages:
		return firstNonEmpty(c.Paths.Images, paths.DefaultHostPath(key))
	case paths.KeyJumpdrive:
		return firstNonEmpty(c.Paths.Jumpdrive, paths.DefaultHostPath(key))
	default:
		return ""
	}
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

// Threads returns the configured build parallelism, defaulting to the
// number of available CPUs when unset (0).
func (c *Config) Threads(numCPU int) int {
	if c.Build.Threads > 0 {
		return c.Build.Threads
	}
	return numCPU
}

// EnsureDirs creates every configured path directory if missing.
func (c *Config) EnsureDirs() error {
	for _, key := range []string{
		paths.KeyChroots, paths.KeyPacman, paths.KeyPackages,
		paths.KeyPkgbuilds, paths.KeyImages, paths.KeyJumpdrive,
	} {
		dir := c.HostPath(key)
		if err := os.MkdirAll(dir, paths.DefaultDirMode); err != nil {
			return fmt.Errorf("creating %s: %w", dir, err)
		}
	}
	return nil
}
