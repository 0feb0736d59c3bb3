// Package repo manages the local package repository indexes: one
// per (arch, bucket), each a directory holding the bucket's built
// package files plus a pacman-compatible database archive pair
// ({bucket}.db.tar.xz, {bucket}.files.tar.xz) and their unsuffixed
// copies.
//
// Index.AddFile is the only mutating operation: it moves a freshly
// built artifact into the bucket directory, invokes the distro's
// repo-add tool to fold it into the archive pair, and only then
// refreshes the unsuffixed copies, so a reader opening the
// unsuffixed {bucket}.db never observes a partial update.
package repo
