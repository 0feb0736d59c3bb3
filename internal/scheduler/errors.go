package scheduler

import "errors"

// ErrBuildFailed is wrapped with the failing recipe's name: "recipe's
// own build command returned nonzero".
var ErrBuildFailed = errors.New("build failed")
