package chroot

import "context"

// Shell launches an interactive bash session inside the chroot,
// attaching the host's stdio, for the `chroot <kind> <arch>` CLI
// command. The chroot must already be initialized; it is
// activated first if not already active, and left active on return
// since a debug session is typically followed by more interactive work.
func (c *Chroot) Shell(ctx context.Context, env map[string]string) (*CompletedResult, error) {
	if !c.Active() {
		if err := c.Activate(); err != nil {
			return nil, err
		}
	}
	return c.Run(ctx, "exec /bin/bash", env, nil, true, "", true)
}
