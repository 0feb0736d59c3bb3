package repo

import "errors"

var (
	ErrIndexFailed         = errors.New("repo index failed")
	ErrExternalToolMissing = errors.New("external tool missing")
)
