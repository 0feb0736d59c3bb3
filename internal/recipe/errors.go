package recipe

import "errors"

var (
	ErrInvalidRecipe   = errors.New("invalid recipe")
	ErrVersionMismatch = errors.New("subpackage version mismatch")
)
