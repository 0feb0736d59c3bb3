package recipe

import (
	"bufio"
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/kupferbootstrap/kupferbootstrap/internal/paths"
	"github.com/kupferbootstrap/kupferbootstrap/internal/xerrlib"
)

// makepkgCmd is the recipe-processing command invoked inside a native
// build chroot to expand a PKGBUILD into SRCINFO form.
var makepkgCmd = []string{"makepkg"}

// Runner executes a shell script inside an activated chroot and returns
// its captured output. *chroot.Chroot satisfies this interface; the
// parser is decoupled from the chroot package so it can be tested with a
// fake.
type Runner interface {
	RunCmd(ctx context.Context, script string, env map[string]string, cwd string) (Output, error)
}

// Output is the captured result of a Runner invocation.
type Output struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// ParseDirectory produces one or more Recipe records for the PKGBUILD at
// recipeRoot/relDir, by invoking `makepkg --printsrcinfo` inside runner
// (a native build chroot with recipeRoot bind-mounted at the pkgbuilds
// path) and parsing the SRCINFO output.
func ParseDirectory(ctx context.Context, runner Runner, recipeRoot, relDir string) ([]*Recipe, error) {
	mode, err := readMode(filepath.Join(recipeRoot, relDir, "PKGBUILD"))
	if err != nil {
		return nil, err
	}

	cwd := filepath.Join(paths.InChroot(paths.KeyPkgbuilds), relDir)
	out, err := runner.RunCmd(ctx, strings.Join(append(makepkgCmd, "--printsrcinfo"), " "), nil, cwd)
	if err != nil {
		return nil, xerrlib.Wrap(ErrInvalidRecipe, err)
	}
	if out.ExitCode != 0 {
		return nil, xerrlib.Wrapf(ErrInvalidRecipe, "%s: makepkg --printsrcinfo exited %d: %s", relDir, out.ExitCode, out.Stderr)
	}

	results, err := parseSrcinfo(out.Stdout)
	if err != nil {
		return nil, xerrlib.Wrapf(ErrInvalidRecipe, "%s: %w", relDir, err)
	}

	for _, r := range results {
		r.Path = relDir
		r.Mode = mode
	}

	if err := checkVersions(results); err != nil {
		return nil, err
	}

	linkSubpackages(results)
	return results, nil
}

// readMode locates the line `_mode=<value>` in the PKGBUILD and
// validates it is "host" or "cross".
func readMode(pkgbuildPath string) (Mode, error) {
	f, err := os.Open(pkgbuildPath)
	if err != nil {
		return "", xerrlib.Wrap(ErrInvalidRecipe, err)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if !strings.HasPrefix(line, "_mode=") {
			continue
		}
		value := strings.TrimPrefix(line, "_mode=")
		switch Mode(value) {
		case ModeHost, ModeCross:
			return Mode(value), nil
		default:
			return "", xerrlib.Wrapf(ErrInvalidRecipe, "unrecognized _mode %q", value)
		}
	}
	if err := sc.Err(); err != nil {
		return "", xerrlib.Wrap(ErrInvalidRecipe, err)
	}
	return "", xerrlib.Wrapf(ErrInvalidRecipe, "no _mode= line found in %s", pkgbuildPath)
}

// dependKeys are the SRCINFO keys whose values fold into Depends, after
// stripping a version constraint and an optional ": description" suffix.
var dependKeys = map[string]bool{
	"depends":      true,
	"makedepends":  true,
	"checkdepends": true,
	"optdepends":   true,
}

// parseSrcinfo runs the state machine described in the recipe model &
// parser component: the fields declared before the first pkgname line
// are the shared pkgbase template; each pkgname line, including the
// first, branches off a deep copy of that template and becomes the
// "current output" subsequent fields accumulate onto.
func parseSrcinfo(stdout string) ([]*Recipe, error) {
	template := &Recipe{}
	var subpackages []*Recipe
	current := template

	sc := bufio.NewScanner(strings.NewReader(stdout))
	for sc.Scan() {
		line := sc.Text()
		key, value, ok := splitSrcinfoLine(line)
		if !ok {
			continue
		}

		switch key {
		case "pkgbase":
			template.Name = value
		case "pkgname":
			if current != template {
				subpackages = append(subpackages, current)
			}
			current = cloneRecipe(template)
			current.Name = value
		case "pkgver":
			current.Version = setVersionPart(current.Version, value, 0)
		case "pkgrel":
			current.Version = setVersionPart(current.Version, value, 1)
		case "provides":
			current.Provides = append(current.Provides, value)
		case "replaces":
			current.Replaces = append(current.Replaces, value)
		case "arch":
			current.ArchesHint = append(current.ArchesHint, value)
		default:
			if dependKeys[key] {
				current.Depends = append(current.Depends, stripDependSuffix(value))
			}
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}

	if current != template {
		subpackages = append(subpackages, current)
	}

	results := subpackages
	if len(results) == 0 {
		results = []*Recipe{template}
	}

	for _, r := range results {
		r.Depends = dedupe(r.Depends)
	}
	return results, nil
}

func splitSrcinfoLine(line string) (key, value string, ok bool) {
	parts := strings.SplitN(strings.TrimSpace(line), " = ", 2)
	if len(parts) != 2 {
		return "", "", false
	}
	return strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1]), true
}

// stripDependSuffix strips a "<version constraint" and a ": description"
// suffix from a dependency value, e.g. "foo>=1.0: needed for bar" -> "foo".
func stripDependSuffix(value string) string {
	for _, sep := range []string{"=", "<", ">"} {
		if i := strings.Index(value, sep); i >= 0 {
			value = value[:i]
		}
	}
	if i := strings.Index(value, ": "); i >= 0 {
		value = value[:i]
	}
	return strings.TrimSpace(value)
}

func cloneRecipe(src *Recipe) *Recipe {
	clone := *src
	clone.Provides = append([]string{}, src.Provides...)
	clone.Replaces = append([]string{}, src.Replaces...)
	clone.Depends = append([]string{}, src.Depends...)
	clone.ArchesHint = append([]string{}, src.ArchesHint...)
	clone.Subpackages = nil
	return &clone
}

func setVersionPart(version, value string, part int) string {
	pkgver, pkgrel, _ := strings.Cut(version, "-")
	if part == 0 {
		pkgver = value
	} else {
		pkgrel = value
	}
	if pkgrel == "" {
		return pkgver
	}
	return pkgver + "-" + pkgrel
}

func dedupe(values []string) []string {
	seen := map[string]bool{}
	out := make([]string, 0, len(values))
	for _, v := range values {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}

// checkVersions asserts every subpackage shares the base's pkgver-pkgrel.
func checkVersions(results []*Recipe) error {
	if len(results) == 0 {
		return nil
	}
	want := results[0].Version
	for _, r := range results[1:] {
		if r.Version != want {
			return xerrlib.Wrapf(ErrVersionMismatch, "%s: %s != base %s", r.Name, r.Version, want)
		}
	}
	return nil
}

// linkSubpackages points every output's Subpackages slice at every other
// output produced by the same PKGBUILD.
func linkSubpackages(results []*Recipe) {
	if len(results) < 2 {
		return
	}
	for i, r := range results {
		var siblings []*Recipe
		for j, other := range results {
			if j != i {
				siblings = append(siblings, other)
			}
		}
		r.Subpackages = siblings
	}
}
