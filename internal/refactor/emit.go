package refactor

import (
	"context"
	"fmt"
	"sort"

	"github.com/viant/elm-pair/internal/daemonlog"
	"github.com/viant/elm-pair/internal/sourcecode"
)

// Emit applies r to a working copy of snapshot, never the one passed in,
// so that a rejected refactor leaves the caller's snapshot untouched. On
// success it returns the edits to forward to the editor and the new
// snapshot, installed at revision+1 (odd, marking it refactor- rather than
// editor-sourced). On failure (an empty Refactor, or a result with parse
// errors) it returns ok=false and the snapshot it was given.
func Emit(ctx context.Context, snapshot sourcecode.Snapshot, r Refactor) (edits []sourcecode.Edit, next sourcecode.Snapshot, ok bool, err error) {
	if r.Empty() {
		return nil, snapshot, false, nil
	}

	changes := append([]Change(nil), r.Changes...)
	sort.Slice(changes, func(i, j int) bool {
		if changes[i].End != changes[j].End {
			return changes[i].End > changes[j].End
		}
		return changes[i].Start > changes[j].Start
	})

	working := snapshot
	working.Tree = snapshot.Tree.Copy()
	working.Bytes = append([]byte(nil), snapshot.Bytes...)

	edits = make([]sourcecode.Edit, 0, len(changes))
	for _, c := range changes {
		if c.Start < 0 || c.End > len(working.Bytes) || c.Start > c.End {
			return nil, snapshot, false, fmt.Errorf("refactor: emit: invalid range [%d,%d) for %d byte buffer", c.Start, c.End, len(working.Bytes))
		}
		newBytes := []byte(c.Replacement)
		if spliceErr := working.Splice(ctx, c.Start, c.End, newBytes); spliceErr != nil {
			return nil, snapshot, false, spliceErr
		}
		edits = append(edits, sourcecode.Edit{
			Buffer:     snapshot.Buffer,
			StartByte:  c.Start,
			OldEndByte: c.End,
			NewBytes:   newBytes,
		})
	}

	if working.HasParseErrors() {
		daemonlog.L().WithField("buffer", snapshot.Buffer).Warn("refactor: discarding edit set, result has parse errors")
		return nil, snapshot, false, nil
	}

	working.Revision = snapshot.Revision + 1
	return edits, working, true, nil
}
