package cli

import (
	"context"
	"fmt"

	"github.com/kupferbootstrap/kupferbootstrap/internal"
)

// VersionCmd prints the build's version string.
type VersionCmd struct{}

// Executes the version command.
func (c *VersionCmd) Run(ctx context.Context) error {
	fmt.Println(internal.VersionString())
	return nil
}
