package chroot

import "errors"

var (
	ErrChrootInitFailed    = errors.New("chroot init failed")
	ErrChrootInactive      = errors.New("chroot inactive")
	ErrMountFailed         = errors.New("mount failed")
	ErrLeakedMount         = errors.New("leaked mount")
	ErrGhostMount          = errors.New("ghost mount")
	ErrExternalToolMissing = errors.New("external tool missing")
)
