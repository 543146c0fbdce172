// Package analysis is elm-pair's analysis task. It owns the authoritative
// buffer state and the refactor engine, and is the only place edits get
// sent back to an editor.
package analysis

import (
	"context"

	"github.com/viant/elm-pair/internal/compiler"
	"github.com/viant/elm-pair/internal/daemonlog"
	"github.com/viant/elm-pair/internal/project"
	"github.com/viant/elm-pair/internal/refactor"
	"github.com/viant/elm-pair/internal/sourcecode"
	"github.com/viant/elm-pair/internal/transport"
)

// Loop is the single-threaded analysis task. All of its state is only ever
// touched from the goroutine running Run, so none of it needs its own
// locking; exclusive ownership instead of a mutex.
type Loop struct {
	engine   *refactor.Engine
	detector *project.Detector
	compile  *compiler.Task
	watcher  *project.Watcher

	latestByBuffer  map[sourcecode.Buffer]sourcecode.Snapshot
	lastCompiling   map[sourcecode.Buffer]sourcecode.Snapshot
	drivers         map[sourcecode.EditorID]transport.Driver
	buffersByEditor map[sourcecode.EditorID]map[sourcecode.Buffer]bool
	refactorAllowed map[sourcecode.Buffer]bool
	projectRoots    map[sourcecode.Buffer]string
	watchedRoots    map[string]bool
	everConnected   bool
}

// NewLoop builds an analysis loop around engine (holding the shared project
// index), detector (project-root resolution for newly opened buffers),
// watcher (first-time indexing and ongoing invalidation of a project root's
// exports), and compile (where newly-edited snapshots get pushed for
// validation).
func NewLoop(engine *refactor.Engine, detector *project.Detector, watcher *project.Watcher, compile *compiler.Task) *Loop {
	return &Loop{
		engine:          engine,
		detector:        detector,
		compile:         compile,
		watcher:         watcher,
		latestByBuffer:  map[sourcecode.Buffer]sourcecode.Snapshot{},
		lastCompiling:   map[sourcecode.Buffer]sourcecode.Snapshot{},
		drivers:         map[sourcecode.EditorID]transport.Driver{},
		buffersByEditor: map[sourcecode.EditorID]map[sourcecode.Buffer]bool{},
		refactorAllowed: map[sourcecode.Buffer]bool{},
		projectRoots:    map[sourcecode.Buffer]string{},
		watchedRoots:    map[string]bool{},
	}
}

// Run is the main event loop: it drains events and compilation results
// until the last connected editor disconnects, either channel closes, or ctx
// is canceled. Returning tears the daemon down; the other tasks observe
// their channels closing and exit too.
func (l *Loop) Run(ctx context.Context, events <-chan transport.Event, compiled <-chan compiler.Result) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			l.handleEvent(ev)
			if l.everConnected && len(l.drivers) == 0 {
				daemonlog.L().Info("analysis: last editor disconnected, shutting down")
				return
			}
		case res, ok := <-compiled:
			if !ok {
				return
			}
			l.handleCompilationResult(res)
		}
		l.onIdle()
	}
}

func (l *Loop) handleEvent(ev transport.Event) {
	switch e := ev.(type) {
	case transport.EditorConnected:
		l.everConnected = true
		l.drivers[e.EditorID] = e.Driver
		l.buffersByEditor[e.EditorID] = map[sourcecode.Buffer]bool{}

	case transport.EditorDisconnected:
		for buf := range l.buffersByEditor[e.EditorID] {
			delete(l.latestByBuffer, buf)
			delete(l.lastCompiling, buf)
			delete(l.refactorAllowed, buf)
			delete(l.projectRoots, buf)
		}
		delete(l.buffersByEditor, e.EditorID)
		delete(l.drivers, e.EditorID)

	case transport.OpenedBuffer:
		snapshot, err := sourcecode.NewSnapshot(context.Background(), e.Buffer, e.InitialBytes)
		if err != nil {
			daemonlog.L().WithField("buffer", e.Buffer).WithError(err).Error("analysis: failed parsing opened buffer")
			return
		}
		l.latestByBuffer[e.Buffer] = snapshot
		l.lastCompiling[e.Buffer] = snapshot
		l.refactorAllowed[e.Buffer] = true
		if editorBufs, ok := l.buffersByEditor[e.Buffer.EditorID]; ok {
			editorBufs[e.Buffer] = true
		}
		root := l.detector.RootFor(e.Path)
		l.projectRoots[e.Buffer] = root
		l.ensureIndexed(root)
		l.compile.Push(snapshot, root)

	case transport.ModifiedBuffer:
		l.refactorAllowed[e.Buffer] = e.RefactorAllowed
		current, ok := l.latestByBuffer[e.Buffer]
		if !ok {
			daemonlog.L().WithField("buffer", e.Buffer).Warn("analysis: modification for unknown buffer")
			return
		}
		if err := current.ApplyEdit(context.Background(), e.Edit.StartByte, e.Edit.OldEndByte, e.Edit.NewBytes); err != nil {
			daemonlog.L().WithField("buffer", e.Buffer).WithError(err).Error("analysis: failed applying editor edit")
			return
		}
		l.latestByBuffer[e.Buffer] = current
		if !current.HasParseErrors() {
			l.compile.Push(current, l.projectRoots[e.Buffer])
		}
	}
}

// ensureIndexed populates the project index for root the first time a
// buffer under it is opened, then hands root off to the file watcher so
// later edits to its modules or dependency interface stay current.
func (l *Loop) ensureIndexed(root string) {
	if root == "" || l.watcher == nil || l.watchedRoots[root] {
		return
	}
	l.watchedRoots[root] = true
	if err := l.watcher.Refresh(context.Background(), root); err != nil {
		daemonlog.L().WithField("project_root", root).WithError(err).Warn("analysis: failed indexing project")
	}
	if err := l.watcher.Watch(root); err != nil {
		daemonlog.L().WithField("project_root", root).WithError(err).Warn("analysis: failed watching project")
	}
}

func (l *Loop) handleCompilationResult(res compiler.Result) {
	if !res.Success {
		return
	}
	buf := res.Snapshot.Buffer
	last, ok := l.lastCompiling[buf]
	if ok && res.Snapshot.Revision < last.Revision {
		return
	}
	l.lastCompiling[buf] = res.Snapshot
}

// onIdle runs after every event: for every buffer whose latest snapshot
// strictly outpaces its last-compiling one, run the refactor pipeline and,
// on success, send the edits through that buffer's driver, advancing
// last-compiling only if the editor accepted them.
func (l *Loop) onIdle() {
	for buf, latest := range l.latestByBuffer {
		if !l.refactorAllowed[buf] {
			continue
		}
		last, ok := l.lastCompiling[buf]
		if !ok || latest.Revision <= last.Revision {
			continue
		}

		r, err := l.engine.RespondToChange(last, latest)
		if err != nil {
			daemonlog.L().WithField("buffer", buf).WithError(err).Warn("analysis: refactor pipeline failed")
			continue
		}
		if r.Empty() {
			continue
		}

		edits, next, ok := emit(latest, r)
		if !ok {
			continue
		}

		driver, ok := l.drivers[buf.EditorID]
		if !ok {
			continue
		}
		if !driver.ApplyEdits(edits) {
			// Editor rejected the edits (likely concurrent user input);
			// leave last-compiling where it was so the next pass retries
			// against a fresh diff.
			continue
		}
		l.latestByBuffer[buf] = next
		l.lastCompiling[buf] = next
	}
}

func emit(latest sourcecode.Snapshot, r refactor.Refactor) ([]sourcecode.Edit, sourcecode.Snapshot, bool) {
	edits, next, ok, err := refactor.Emit(context.Background(), latest, r)
	if err != nil {
		daemonlog.L().WithError(err).Warn("analysis: refactor emitter failed")
		return nil, sourcecode.Snapshot{}, false
	}
	return edits, next, ok
}
