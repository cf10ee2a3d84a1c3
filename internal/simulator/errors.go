package simulator

import "errors"

// ErrConcurrencyTimeout is returned when the worker pool does not finish
// within its bound. Entries committed before the timeout remain in place.
var ErrConcurrencyTimeout = errors.New("simulation did not finish in time")
