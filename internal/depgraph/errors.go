package depgraph

import "errors"

// ErrDependencyCycle is returned when the solver cannot make progress
// placing recipes into levels because of a local dependency cycle.
var ErrDependencyCycle = errors.New("dependency cycle")
