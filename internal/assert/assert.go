// Package assert holds invariant checks for conditions that can only fail because of a defect in this server.
// A failed check panics; gamestate.Store.AtomicFn turns that panic into an aborted operation.
package assert

import "fmt"

func That(cond bool, format string, args ...any) { //nolint:goprintffuncname // it's ok
	if !cond {
		panic(fmt.Sprintf(format, args...))
	}
}

// NoError panics when err is non-nil. msg names the step that was not allowed to fail.
func NoError(err error, msg string) {
	if err != nil {
		panic(fmt.Sprintf("%s: %v", msg, err))
	}
}
