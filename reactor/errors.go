//go:build unix

package reactor

import "github.com/yanrbts/wscan/errtax"

// errInvalidArg builds the error returned by AddIO when neither Read nor
// Write is set (or Persist is set without either), fd is negative or cb is
// nil; by AddTimer when millis < 0 or cb is nil; and by Del for a nil
// handle, per §4.1's operation contracts.
func errInvalidArg(op string) error {
	return errtax.New(errtax.InvalidArg, op, nil)
}

// errResource is returned when the reactor cannot allocate OS resources for
// the wakeup pipe or the poll(2) buffer.
func errResource(op string, cause error) error {
	return errtax.New(errtax.Resource, op, cause)
}
