package compiler

import (
	"context"
	"sync"

	"github.com/viant/elm-pair/internal/sourcecode"
)

const maxCompilationCandidates = 10

// candidate pairs a snapshot with the project root it should be compiled
// against; the Driver already knows which compiler binary to invoke.
type candidate struct {
	snapshot sourcecode.Snapshot
	root     string
}

// Result is what the compilation task reports back once a candidate
// finishes compiling, win or lose; the analysis loop only advances its
// last-compiling snapshot on Success.
type Result struct {
	Snapshot sourcecode.Snapshot
	Success  bool
}

// Task owns a bounded LIFO of compilation candidates: push drops the
// oldest candidate once capacity is reached, and the task always compiles
// the most recently pushed snapshot first, so stale candidates for a
// buffer are naturally superseded rather than queued up.
type Task struct {
	driver  Driver
	results chan<- Result

	mu    sync.Mutex
	stack []candidate
	wake  chan struct{}
}

// NewTask returns a Task that compiles via driver and reports results on
// results.
func NewTask(driver Driver, results chan<- Result) *Task {
	return &Task{
		driver:  driver,
		results: results,
		wake:    make(chan struct{}, 1),
	}
}

// Push adds a new compilation candidate, dropping the oldest queued one if
// the stack is already at capacity.
func (t *Task) Push(snapshot sourcecode.Snapshot, projectRoot string) {
	t.mu.Lock()
	if len(t.stack) >= maxCompilationCandidates {
		t.stack = t.stack[1:]
	}
	t.stack = append(t.stack, candidate{snapshot: snapshot, root: projectRoot})
	t.mu.Unlock()

	select {
	case t.wake <- struct{}{}:
	default:
	}
}

func (t *Task) pop() (candidate, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.stack) == 0 {
		return candidate{}, false
	}
	last := t.stack[len(t.stack)-1]
	t.stack = t.stack[:len(t.stack)-1]
	return last, true
}

// Run pops the most recent candidate and compiles it whenever one is
// available, until ctx is canceled.
func (t *Task) Run(ctx context.Context) error {
	for {
		c, ok := t.pop()
		if !ok {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-t.wake:
				continue
			}
		}

		success, err := t.driver.Compile(ctx, c.root, c.snapshot.Bytes)
		if err != nil {
			// Compiler invocation itself failed (binary missing, tempfile
			// write error, ...): treat as a failed compile rather than
			// killing the task, so the daemon stays live.
			success = false
		}

		select {
		case t.results <- Result{Snapshot: c.snapshot, Success: success}:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
