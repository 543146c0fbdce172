package refactor_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viant/elm-pair/internal/project"
	"github.com/viant/elm-pair/internal/refactor"
	"github.com/viant/elm-pair/internal/sourcecode"
)

// newSnapshot parses src as revision 0 of a fresh buffer.
func newSnapshot(t *testing.T, src string) sourcecode.Snapshot {
	t.Helper()
	snap, err := sourcecode.NewSnapshot(context.Background(), sourcecode.Buffer{BufferID: 1}, []byte(src))
	require.NoError(t, err)
	require.False(t, snap.HasParseErrors(), "fixture must parse cleanly:\n%s", src)
	return snap
}

// respond runs the full diff -> classify -> plan pipeline and, if it
// produced any changes, emits them against new and returns the resulting
// source text. idx seeds the project index the handlers consult for
// exported names.
func respond(t *testing.T, idx *project.Index, old, new sourcecode.Snapshot) (string, bool) {
	t.Helper()
	engine, err := refactor.NewEngine(idx)
	require.NoError(t, err)

	r, err := engine.RespondToChange(old, new)
	require.NoError(t, err)
	if r.Empty() {
		return string(new.Bytes), false
	}

	_, next, ok, err := refactor.Emit(context.Background(), new, r)
	require.NoError(t, err)
	if !ok {
		return string(new.Bytes), false
	}
	return string(next.Bytes), true
}

func colorModule() project.Module {
	return project.Module{
		Name: "Color",
		Exports: []project.ExportedName{
			{Kind: project.ExportedType, Name: "Color", Constructors: []string{"Red", "Green"}},
		},
	}
}

func TestScenario1_AddQualifier_OtherSiteRewritten(t *testing.T) {
	old := newSnapshot(t, "import Maybe exposing (map)\nf = map g xs\nh = map g ys\n")
	new := newSnapshot(t, "import Maybe exposing (map)\nf = Maybe.map g xs\nh = map g ys\n")

	idx := project.NewIndex()
	idx.Set(project.Module{Name: "Maybe", Exports: []project.ExportedName{{Kind: project.ExportedValue, Name: "map"}}})

	out, changed := respond(t, idx, old, new)
	require.True(t, changed)
	assert.Contains(t, out, "Maybe.map g xs")
	assert.Contains(t, out, "Maybe.map g ys")
	assert.NotContains(t, out, "exposing (map)")
}

func TestScenario2_RemoveQualifier_ExposeAdded(t *testing.T) {
	old := newSnapshot(t, "import List\nf = List.map g xs\n")
	new := newSnapshot(t, "import List\nf = map g xs\n")

	idx := project.NewIndex()
	idx.Set(project.Module{Name: "List", Exports: []project.ExportedName{{Kind: project.ExportedValue, Name: "map"}}})

	out, changed := respond(t, idx, old, new)
	require.True(t, changed)
	assert.Contains(t, out, "import List exposing (map)")
	assert.Contains(t, out, "f = map g xs")
}

func TestScenario3_QualifyOneConstructor(t *testing.T) {
	old := newSnapshot(t, "import Color exposing (Color(..))\nr = Red\ng = Green\n")
	new := newSnapshot(t, "import Color exposing (Color(..))\nr = Color.Red\ng = Green\n")

	idx := project.NewIndex()
	idx.Set(colorModule())

	out, changed := respond(t, idx, old, new)
	require.True(t, changed)
	assert.Contains(t, out, "Color.Red")
	assert.Contains(t, out, "Color.Green")
	assert.Contains(t, out, "exposing (Color)")
	assert.NotContains(t, out, "(..)")
}

func TestScenario4_RemoveExposingDotDot(t *testing.T) {
	old := newSnapshot(t, "import Html exposing (..)\nview = div [] [ text \"hi\" ]\n")
	new := newSnapshot(t, "import Html\nview = div [] [ text \"hi\" ]\n")

	idx := project.NewIndex()
	idx.Set(project.Module{Name: "Html", Exports: []project.ExportedName{
		{Kind: project.ExportedValue, Name: "div"},
		{Kind: project.ExportedValue, Name: "text"},
	}})

	out, changed := respond(t, idx, old, new)
	require.True(t, changed)
	assert.Contains(t, out, "Html.div")
	assert.Contains(t, out, "Html.text")
}

func TestScenario5_CollisionOnUnqualify(t *testing.T) {
	pre := "import A exposing (x)\nimport B\ny = x\nz =\n    let\n        x =\n            1\n    in\n    x\nw = B.x\n"
	post := "import A exposing (x)\nimport B\ny = x\nz =\n    let\n        x =\n            1\n    in\n    x\nw = x\n"
	old := newSnapshot(t, pre)
	new := newSnapshot(t, post)

	idx := project.NewIndex()
	idx.Set(project.Module{Name: "A", Exports: []project.ExportedName{{Kind: project.ExportedValue, Name: "x"}}})
	idx.Set(project.Module{Name: "B", Exports: []project.ExportedName{{Kind: project.ExportedValue, Name: "x"}}})

	out, changed := respond(t, idx, old, new)
	require.True(t, changed)

	// B now exposes x; the freshly unqualified use stays bare.
	assert.Contains(t, out, "import B exposing (x)")
	assert.Contains(t, out, "w = x")
	// The local binding is renamed throughout its scope.
	assert.Contains(t, out, "x2 =\n            1")
	assert.Contains(t, out, "in\n    x2")
	// A stops exposing x and its pre-existing use gets A's qualifier.
	assert.Contains(t, out, "import A\n")
	assert.NotContains(t, out, "import A exposing")
	assert.Contains(t, out, "y = A.x")
}

func TestScenario6_AsClauseChanged(t *testing.T) {
	old := newSnapshot(t, "import Json.Decode as D\nf = D.string\n")
	new := newSnapshot(t, "import Json.Decode as JD\nf = D.string\n")

	idx := project.NewIndex()
	idx.Set(project.Module{Name: "Json.Decode", Exports: []project.ExportedName{{Kind: project.ExportedValue, Name: "string"}}})

	out, changed := respond(t, idx, old, new)
	require.True(t, changed)
	assert.Contains(t, out, "import Json.Decode as JD")
	assert.Contains(t, out, "JD.string")
	assert.NotContains(t, out, "D.string")
}

// Growing an existing exposing list unqualifies the new names across the
// file.
func TestChangedExposingList_AddedItemUnqualifies(t *testing.T) {
	old := newSnapshot(t, "import List exposing (map)\nf = map g xs\nh = List.filter g xs\n")
	new := newSnapshot(t, "import List exposing (filter, map)\nf = map g xs\nh = List.filter g xs\n")

	idx := project.NewIndex()
	idx.Set(project.Module{Name: "List", Exports: []project.ExportedName{
		{Kind: project.ExportedValue, Name: "filter"},
		{Kind: project.ExportedValue, Name: "map"},
	}})

	out, changed := respond(t, idx, old, new)
	require.True(t, changed)
	assert.Contains(t, out, "h = filter g xs")
	assert.Contains(t, out, "f = map g xs")
}

// Removing `(..)` from an exposed type qualifies its constructors while
// the type itself stays exposed.
func TestCtorsRemoved_ConstructorsQualified(t *testing.T) {
	old := newSnapshot(t, "import Color exposing (Color(..))\nb : Color\nb = Red\n")
	new := newSnapshot(t, "import Color exposing (Color)\nb : Color\nb = Red\n")

	idx := project.NewIndex()
	idx.Set(colorModule())

	out, changed := respond(t, idx, old, new)
	require.True(t, changed)
	assert.Contains(t, out, "b = Color.Red")
	assert.Contains(t, out, "b : Color")
	assert.Contains(t, out, "exposing (Color)")
}

// Idempotence: running the pipeline on (old, old) must produce no changes.
func TestIdempotence_NoChangeYieldsEmptyRefactor(t *testing.T) {
	snap := newSnapshot(t, "import Maybe exposing (map)\nf = map g xs\n")
	idx := project.NewIndex()

	engine, err := refactor.NewEngine(idx)
	require.NoError(t, err)

	r, err := engine.RespondToChange(snap, snap)
	require.NoError(t, err)
	assert.True(t, r.Empty())
}

// Revision parity: editor-driven snapshots stay on an even
// revision, and Emit always lands its result on the next odd one.
func TestEmit_RevisionParity(t *testing.T) {
	new := newSnapshot(t, "import List\nf = List.map g xs\n")
	require.NoError(t, new.ApplyEdit(context.Background(), 0, 0, nil))
	require.Equal(t, 2, new.Revision)

	var r refactor.Refactor
	r.Add(0, 0, "")
	_, next, ok, err := refactor.Emit(context.Background(), new, r)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, new.Revision+1, next.Revision)
	assert.Equal(t, 1, next.Revision%2)
}

// Emit must never mutate the caller's original snapshot, even on success:
// edits apply to a working copy, not in place.
func TestEmit_DoesNotMutateCallerSnapshot(t *testing.T) {
	new := newSnapshot(t, "import List\nf = List.map g xs\n")
	originalBytes := append([]byte(nil), new.Bytes...)

	var r refactor.Refactor
	r.Add(0, len("import List\n"), "import List\n")

	_, _, ok, err := refactor.Emit(context.Background(), new, r)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, originalBytes, new.Bytes)
}

// Emit rejects the whole batch, unmodified, if applying it would leave
// parse errors behind.
func TestEmit_RejectsResultWithParseErrors(t *testing.T) {
	new := newSnapshot(t, "import List\nf = List.map g xs\n")

	var r refactor.Refactor
	r.Add(0, len(new.Bytes), "(((")

	edits, next, ok, err := refactor.Emit(context.Background(), new, r)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, edits)
	assert.Equal(t, new.Bytes, next.Bytes)
}

// Round trip: qualifying one occurrence and then, on the resulting file,
// removing that same qualifier again must return the source unchanged,
// byte for byte.
func TestRoundTrip_QualifierAddedThenRemoved(t *testing.T) {
	idx := project.NewIndex()
	idx.Set(project.Module{Name: "Maybe", Exports: []project.ExportedName{{Kind: project.ExportedValue, Name: "map"}}})

	original := "import Maybe exposing (map)\nf = map g xs\nh = map g ys\n"
	old := newSnapshot(t, original)
	typed := newSnapshot(t, "import Maybe exposing (map)\nf = Maybe.map g xs\nh = map g ys\n")

	post1, changed := respond(t, idx, old, typed)
	require.True(t, changed)
	assert.Equal(t, "import Maybe\nf = Maybe.map g xs\nh = Maybe.map g ys\n", post1)

	post1Snap := newSnapshot(t, post1)
	deleted := newSnapshot(t, "import Maybe\nf = map g xs\nh = Maybe.map g ys\n")

	final, changed := respond(t, idx, post1Snap, deleted)
	require.True(t, changed)
	assert.Equal(t, original, final)
}

func TestEmit_EmptyRefactorIsNoop(t *testing.T) {
	new := newSnapshot(t, "f = 1\n")
	edits, next, ok, err := refactor.Emit(context.Background(), new, refactor.Refactor{})
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, edits)
	assert.Equal(t, new, next)
}
