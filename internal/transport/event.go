// Package transport defines the editor-facing event stream and driver
// contract, plus one concrete wire implementation for Neovim. Framing and
// payload are editor-specific; the rest of the daemon only ever sees the
// typed Event values below.
package transport

import "github.com/viant/elm-pair/internal/sourcecode"

// Event is one message the core receives from a connected editor.
type Event interface {
	isEvent()
}

// OpenedBuffer reports a buffer the editor just opened, along with its full
// current contents.
type OpenedBuffer struct {
	Buffer       sourcecode.Buffer
	Path         string
	InitialBytes []byte
}

func (OpenedBuffer) isEvent() {}

// ModifiedBuffer reports one incremental edit to an already-open buffer.
// RefactorAllowed is false for the duration of an editor-initiated bulk
// apply: the analysis loop must suppress its pipeline for
// this buffer until a bracketing event re-enables it, to avoid a
// refactor-triggered-by-refactor loop.
type ModifiedBuffer struct {
	Buffer          sourcecode.Buffer
	Edit            sourcecode.Edit
	RefactorAllowed bool
}

func (ModifiedBuffer) isEvent() {}

// EditorConnected reports a newly connected editor and the Driver the
// analysis loop should use to send it edits.
type EditorConnected struct {
	EditorID sourcecode.EditorID
	Driver   Driver
}

func (EditorConnected) isEvent() {}

// EditorDisconnected reports that an editor's socket closed. The analysis
// loop drops the editor's driver and every buffer belonging to it.
type EditorDisconnected struct {
	EditorID sourcecode.EditorID
}

func (EditorDisconnected) isEvent() {}

// Driver is the one capability the core holds on each connected editor:
// apply a batch of edits atomically relative to concurrent user input.
// Implementations must be safe for use by exactly one caller at a time;
// the analysis loop enforces that by owning each Driver exclusively.
type Driver interface {
	ApplyEdits(edits []sourcecode.Edit) bool
}
