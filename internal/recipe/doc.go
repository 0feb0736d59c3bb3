// Package recipe parses Arch-style PKGBUILD recipe directories into
// typed Recipe records and discovers the full recipe tree in parallel.
//
//	set, err := recipe.Discover(ctx, nativeChroot, pkgbuildsRoot)
//	if err != nil {
//		return err
//	}
//	r, ok := set.ByName("linux-postmarketos")
package recipe
