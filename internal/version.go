package internal

import (
	"fmt"
	"runtime"
	"strings"
)

const (

	// Name used for directory naming, kong program name and log grouping.
	Name = "kupferbootstrap"

	// String to indicate an undefined variable.
	defaultUndefined = "(undefined)"

	// String to indicate a local (non-pipeline) build.
	defaultLocalBuild = "(local)"

	// Main branch name used in version strings.
	mainBranch = "main"
)

var (
	version   = "" // Version number (e.g., "1.2.3")
	stage     = "" // Development stage or git branch (e.g., "staging", "main")
	gitCommit = "" // Git commit hash (e.g., "a1b2c3d4")

	rawQuiet   = "false" // Whether to enable quiet mode
	rawDebug   = "false" // Whether to enable debug mode
	rawVerbose = "false" // Whether to enable verbose logging
)

// Version returns the current version.
//
// If the version is not set, returns "(undefined)". A leading "v"/"V"
// prefix (e.g. "v1.0.0") is stripped.
func Version() string {
	v := strings.TrimSpace(version)
	if v == "" {
		return defaultUndefined
	}

	v = strings.ToLower(v)
	v = strings.TrimPrefix(v, "v")

	return v
}

// Stage returns the development stage (e.g. "alpha"), corresponding to
// the git branch used during the build. Returns "(undefined)" if unset.
func Stage() string {
	s := strings.TrimSpace(stage)
	if s == "" {
		return defaultUndefined
	}
	return strings.ToLower(s)
}

// GitCommit returns the git commit hash, or "(undefined)" if unset.
func GitCommit() string {
	c := strings.TrimSpace(gitCommit)
	if c == "" {
		return defaultUndefined
	}
	return c
}

// Arch returns the build architecture.
func Arch() string {
	return runtime.GOARCH
}

// IsLocal reports whether this is a local (non-pipeline) build.
//
// A build is local if any of the version, git commit, or stage
// variables are unset. Pipeline builds set all three via linker flags.
func IsLocal() bool {
	return strings.TrimSpace(version) == "" ||
		strings.TrimSpace(gitCommit) == "" ||
		strings.TrimSpace(stage) == ""
}

// VersionString returns a detailed version string, or "(local)" for a
// local build. Otherwise formatted as "<version>+<stage> <commit> [<arch>]",
// with the "+<stage>" part left out for the main branch.
func VersionString() string {
	if IsLocal() {
		return defaultLocalBuild
	}

	s := Stage()
	if s == mainBranch {
		s = ""
	} else {
		s = "+" + s
	}

	return fmt.Sprintf("%s%s %s [%s]", Version(), s, GitCommit(), Arch())
}
