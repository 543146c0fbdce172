package analysis_test

import (
	"bytes"
	"context"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viant/elm-pair/internal/analysis"
	"github.com/viant/elm-pair/internal/compiler"
	"github.com/viant/elm-pair/internal/project"
	"github.com/viant/elm-pair/internal/refactor"
	"github.com/viant/elm-pair/internal/sourcecode"
	"github.com/viant/elm-pair/internal/transport"
)

type fakeCompileDriver struct{}

func (fakeCompileDriver) Compile(context.Context, string, []byte) (bool, error) {
	return true, nil
}

type fakeDriver struct {
	accept  bool
	applied [][]sourcecode.Edit
}

func (f *fakeDriver) ApplyEdits(edits []sourcecode.Edit) bool {
	f.applied = append(f.applied, edits)
	return f.accept
}

func newTestLoop(t *testing.T) *analysis.Loop {
	t.Helper()
	idx := project.NewIndex()
	idx.Set(project.Module{Name: "Maybe", Exports: []project.ExportedName{{Kind: project.ExportedValue, Name: "map"}}})

	engine, err := refactor.NewEngine(idx)
	require.NoError(t, err)

	detector := project.NewDetector()
	task := compiler.NewTask(fakeCompileDriver{}, make(chan compiler.Result, 4))

	return analysis.NewLoop(engine, detector, nil, task)
}

// drive feeds events through the loop and waits for them all to be
// processed, by closing the events channel and waiting for Run to return;
// Run only exits once the buffered channel is fully drained. The compiled
// channel stays open (and empty) so it can never end Run first.
func drive(t *testing.T, loop *analysis.Loop, events []transport.Event) {
	t.Helper()
	eventsCh := make(chan transport.Event, len(events)+1)
	compiledCh := make(chan compiler.Result)
	for _, e := range events {
		eventsCh <- e
	}
	close(eventsCh)

	done := make(chan struct{})
	go func() {
		loop.Run(context.Background(), eventsCh, compiledCh)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("analysis loop did not process its events and terminate")
	}
}

// applyEdits is a minimal reimplementation of the emitter's apply-in-place
// step, used only to check the edits an analysis pass sent the driver
// actually reconstruct the expected resulting text.
func applyEdits(src []byte, edits []sourcecode.Edit) []byte {
	sorted := append([]sourcecode.Edit(nil), edits...)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].OldEndByte != sorted[j].OldEndByte {
			return sorted[i].OldEndByte > sorted[j].OldEndByte
		}
		return sorted[i].StartByte > sorted[j].StartByte
	})
	out := append([]byte(nil), src...)
	for _, e := range sorted {
		next := append([]byte(nil), out[:e.StartByte]...)
		next = append(next, e.NewBytes...)
		next = append(next, out[e.OldEndByte:]...)
		out = next
	}
	return out
}

func TestLoop_QualifierAddedTriggersRefactorSentToDriver(t *testing.T) {
	loop := newTestLoop(t)
	driver := &fakeDriver{accept: true}

	buf := sourcecode.Buffer{EditorID: 1, BufferID: 1}
	initial := []byte("import Maybe exposing (map)\nf = map g xs\nh = map g ys\n")

	pos := bytes.Index(initial, []byte("f = map")) + len("f = ")
	require.Greater(t, pos, 0)

	drive(t, loop, []transport.Event{
		transport.EditorConnected{EditorID: 1, Driver: driver},
		transport.OpenedBuffer{Buffer: buf, Path: "/tmp/Main.elm", InitialBytes: initial},
		transport.ModifiedBuffer{
			Buffer:          buf,
			Edit:            sourcecode.Edit{Buffer: buf, StartByte: pos, OldEndByte: pos, NewBytes: []byte("Maybe.")},
			RefactorAllowed: true,
		},
	})

	require.Len(t, driver.applied, 1)
	edits := driver.applied[0]
	require.NotEmpty(t, edits)

	afterTyping := applyEdits(initial, []sourcecode.Edit{{StartByte: pos, OldEndByte: pos, NewBytes: []byte("Maybe.")}})
	final := applyEdits(afterTyping, edits)

	assert.Contains(t, string(final), "Maybe.map g ys")
	assert.NotContains(t, string(final), "exposing (map)")
}

func TestLoop_RefactorNotAllowedSuppressesPipeline(t *testing.T) {
	loop := newTestLoop(t)
	driver := &fakeDriver{accept: true}

	buf := sourcecode.Buffer{EditorID: 1, BufferID: 1}
	initial := []byte("import Maybe exposing (map)\nf = map g xs\nh = map g ys\n")
	pos := bytes.Index(initial, []byte("f = map")) + len("f = ")

	drive(t, loop, []transport.Event{
		transport.EditorConnected{EditorID: 1, Driver: driver},
		transport.OpenedBuffer{Buffer: buf, Path: "/tmp/Main.elm", InitialBytes: initial},
		transport.ModifiedBuffer{
			Buffer:          buf,
			Edit:            sourcecode.Edit{Buffer: buf, StartByte: pos, OldEndByte: pos, NewBytes: []byte("Maybe.")},
			RefactorAllowed: false,
		},
	})

	assert.Empty(t, driver.applied, "refactor_allowed=false must suppress the analysis pipeline")
}

func TestLoop_DriverRejectionLeavesLastCompilingUnadvanced(t *testing.T) {
	loop := newTestLoop(t)
	driver := &fakeDriver{accept: false}

	buf := sourcecode.Buffer{EditorID: 1, BufferID: 1}
	initial := []byte("import Maybe exposing (map)\nf = map g xs\nh = map g ys\n")
	pos := bytes.Index(initial, []byte("f = map")) + len("f = ")

	drive(t, loop, []transport.Event{
		transport.EditorConnected{EditorID: 1, Driver: driver},
		transport.OpenedBuffer{Buffer: buf, Path: "/tmp/Main.elm", InitialBytes: initial},
		transport.ModifiedBuffer{
			Buffer:          buf,
			Edit:            sourcecode.Edit{Buffer: buf, StartByte: pos, OldEndByte: pos, NewBytes: []byte("Maybe.")},
			RefactorAllowed: true,
		},
	})

	require.Len(t, driver.applied, 1, "the pipeline still attempts the refactor even though the driver will reject it")

	// A second identical pass should retry: since the driver always rejects,
	// onIdle keeps seeing the same (last-compiling, latest) pair and fires
	// again on the next event, rather than silently giving up.
	drive(t, loop, []transport.Event{
		transport.ModifiedBuffer{
			Buffer:          buf,
			Edit:            sourcecode.Edit{Buffer: buf, StartByte: 0, OldEndByte: 0, NewBytes: nil},
			RefactorAllowed: true,
		},
	})
	assert.Len(t, driver.applied, 2)
}

func TestLoop_EditorDisconnectedClearsBufferState(t *testing.T) {
	loop := newTestLoop(t)
	driver := &fakeDriver{accept: true}

	buf := sourcecode.Buffer{EditorID: 1, BufferID: 1}
	initial := []byte("f = 1\n")

	// Run must return on its own once the last editor disconnects, well
	// before drive's channel-close fallback, leaving the stray trailing
	// modification unprocessed rather than panicking on unknown state.
	drive(t, loop, []transport.Event{
		transport.EditorConnected{EditorID: 1, Driver: driver},
		transport.OpenedBuffer{Buffer: buf, Path: "/tmp/Main.elm", InitialBytes: initial},
		transport.EditorDisconnected{EditorID: 1},
		transport.ModifiedBuffer{
			Buffer:          buf,
			Edit:            sourcecode.Edit{Buffer: buf, StartByte: 0, OldEndByte: 0, NewBytes: []byte("g")},
			RefactorAllowed: true,
		},
	})

	assert.Empty(t, driver.applied)
}

// A modification for a buffer the loop never saw (or already dropped) is
// ignored instead of panicking.
func TestLoop_ModificationForUnknownBufferIsIgnored(t *testing.T) {
	loop := newTestLoop(t)
	driver := &fakeDriver{accept: true}

	buf := sourcecode.Buffer{EditorID: 1, BufferID: 9}
	drive(t, loop, []transport.Event{
		transport.EditorConnected{EditorID: 1, Driver: driver},
		transport.ModifiedBuffer{
			Buffer:          buf,
			Edit:            sourcecode.Edit{Buffer: buf, StartByte: 0, OldEndByte: 0, NewBytes: []byte("g")},
			RefactorAllowed: true,
		},
	})

	assert.Empty(t, driver.applied)
}
