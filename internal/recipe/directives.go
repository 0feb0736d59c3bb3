package recipe

// RecognizedDirectives lists every recognized PKGBUILD key. Nothing in
// this tree reads it: the `packages check` command only verifies that
// recipes parse, and the parser itself only depends on `_mode` and the
// SRCINFO-producible keys.
var RecognizedDirectives = []string{
	"pkgbase", "pkgname", "pkgver", "pkgrel", "_arches", "arch",
	"license", "url", "provides", "conflicts", "depends", "optdepends",
	"makedepends", "backup", "install", "options", "_commit", "source",
	"sha256sums",
}
