package diff_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viant/elm-pair/internal/diff"
	"github.com/viant/elm-pair/internal/sourcecode"
)

func snapshot(t *testing.T, src string) sourcecode.Snapshot {
	t.Helper()
	snap, err := sourcecode.NewSnapshot(context.Background(), sourcecode.Buffer{BufferID: 1}, []byte(src))
	require.NoError(t, err)
	return snap
}

// soundness: replacing OldRemoved under OldParent with NewAdded recovers
// the new snapshot's bytes within OldParent's range.
func assertSound(t *testing.T, old, new sourcecode.Snapshot, changes diff.Changes) {
	t.Helper()
	if changes.OldParent == nil || len(changes.OldRemoved) == 0 {
		// A pure insertion carries no anchor in the old tree's byte space
		// for this helper to splice against; soundness for that case is
		// exercised indirectly via the refactor-emitter round trip instead.
		return
	}

	removedStart := int(changes.OldRemoved[0].StartByte())
	removedEnd := int(changes.OldRemoved[len(changes.OldRemoved)-1].EndByte())

	// The added range may carry different inter-node whitespace than the
	// removed one, so splice the whole added span rather than concatenating
	// node texts.
	addedText := ""
	if len(changes.NewAdded) > 0 {
		first := changes.NewAdded[0]
		last := changes.NewAdded[len(changes.NewAdded)-1]
		addedText = string(new.Slice(int(first.StartByte()), int(last.EndByte())))
	}

	newParentBytes := new.Slice(int(changes.NewParent.StartByte()), int(changes.NewParent.EndByte()))
	prefix := old.Slice(int(changes.OldParent.StartByte()), removedStart)
	suffix := old.Slice(removedEnd, int(changes.OldParent.EndByte()))
	reconstructed := string(prefix) + addedText + string(suffix)

	assert.Equal(t, string(newParentBytes), reconstructed, "replacing OldRemoved with NewAdded under OldParent should recover NewParent's bytes")
}

// minimality: the returned lists contain no trimmable leading or trailing
// sibling pair. The leading pair must always differ; a
// matching trailing pair is legal only when trimming it would leave one
// side empty, which is where the backward walk stops.
func assertMinimal(t *testing.T, old, new sourcecode.Snapshot, changes diff.Changes) {
	t.Helper()
	if len(changes.OldRemoved) == 0 || len(changes.NewAdded) == 0 {
		return
	}
	oldFirst := old.Slice(int(changes.OldRemoved[0].StartByte()), int(changes.OldRemoved[0].EndByte()))
	newFirst := new.Slice(int(changes.NewAdded[0].StartByte()), int(changes.NewAdded[0].EndByte()))
	assert.NotEqual(t, string(oldFirst), string(newFirst), "minimality: leading sibling pair should not already match")

	if len(changes.OldRemoved) == 1 || len(changes.NewAdded) == 1 {
		return
	}
	oldLast := changes.OldRemoved[len(changes.OldRemoved)-1]
	newLast := changes.NewAdded[len(changes.NewAdded)-1]
	oldLastText := old.Slice(int(oldLast.StartByte()), int(oldLast.EndByte()))
	newLastText := new.Slice(int(newLast.StartByte()), int(newLast.EndByte()))
	assert.NotEqual(t, string(oldLastText), string(newLastText), "minimality: trailing sibling pair should not already match")
}

func TestTrees_NoChange(t *testing.T) {
	src := "import List\nf = List.map g xs\n"
	old := snapshot(t, src)
	new := snapshot(t, src)

	changes := diff.Trees(diff.Diff{Old: old, New: new})
	assert.Empty(t, changes.OldRemoved)
	assert.Empty(t, changes.NewAdded)
}

func TestTrees_SingleIdentifierQualified(t *testing.T) {
	old := snapshot(t, "import Maybe exposing (map)\nf = map g xs\n")
	new := snapshot(t, "import Maybe exposing (map)\nf = Maybe.map g xs\n")

	changes := diff.Trees(diff.Diff{Old: old, New: new})
	require.Len(t, changes.OldRemoved, 1)
	require.Len(t, changes.NewAdded, 3)
	assert.Equal(t, "map", string(old.Slice(int(changes.OldRemoved[0].StartByte()), int(changes.OldRemoved[0].EndByte()))))
	assert.Equal(t, "Maybe.map", string(new.Slice(int(changes.NewAdded[0].StartByte()), int(changes.NewAdded[2].EndByte()))))
	assert.Equal(t, "module_name_segment", changes.NewAdded[0].Type())
	assert.Equal(t, "lower_case_identifier", changes.NewAdded[2].Type())

	assertSound(t, old, new, changes)
	assertMinimal(t, old, new, changes)
}

func TestTrees_AsClauseRenamed(t *testing.T) {
	old := snapshot(t, "import Json.Decode as D\nf = D.string\n")
	new := snapshot(t, "import Json.Decode as JD\nf = D.string\n")

	changes := diff.Trees(diff.Diff{Old: old, New: new})
	require.Len(t, changes.OldRemoved, 1)
	require.Len(t, changes.NewAdded, 1)
	assert.Equal(t, "D", string(old.Slice(int(changes.OldRemoved[0].StartByte()), int(changes.OldRemoved[0].EndByte()))))
	assert.Equal(t, "JD", string(new.Slice(int(changes.NewAdded[0].StartByte()), int(changes.NewAdded[0].EndByte()))))

	assertSound(t, old, new, changes)
}

func TestTrees_ExposingListGrew(t *testing.T) {
	old := snapshot(t, "import List exposing (map)\nf = map g xs\n")
	new := snapshot(t, "import List exposing (map, filter)\nf = map g xs\n")

	changes := diff.Trees(diff.Diff{Old: old, New: new})
	assert.Empty(t, changes.OldRemoved)
	require.NotEmpty(t, changes.NewAdded)

	var addedText string
	for _, n := range changes.NewAdded {
		addedText += string(new.Slice(int(n.StartByte()), int(n.EndByte())))
	}
	assert.Contains(t, addedText, "filter")

	assertSound(t, old, new, changes)
}
