package config

import "errors"

var (
	ErrUnknownProfile = errors.New("unknown profile")
	ErrProfileCycle   = errors.New("profile inheritance cycle")
)
