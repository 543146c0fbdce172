// Package compiler treats the Elm compiler as a black box (compile these
// bytes at this project root, succeed or fail) and ships one
// subprocess-based implementation of that contract, plus the bounded LIFO
// compilation task that feeds it.
package compiler

import "context"

// Driver compiles src as if it were saved at the given project root and
// reports whether it compiled cleanly. Only the boolean matters to
// callers; compiler diagnostics are not modeled.
type Driver interface {
	Compile(ctx context.Context, projectRoot string, src []byte) (bool, error)
}
