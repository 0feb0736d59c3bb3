// Command kupferbootstrap bootstraps cross-architecture Linux
// distribution images: it parses PKGBUILD-style recipes, builds a
// dependency graph, provisions chroots, schedules builds (native,
// cross-compiled, or QEMU-emulated), and publishes the resulting
// packages into pacman-style repositories.
package main

import (
	"log/slog"
	"os"

	"github.com/kupferbootstrap/kupferbootstrap/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		slog.Error(err.Error())
		os.Exit(1)
	}
}
