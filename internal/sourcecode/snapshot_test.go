package sourcecode_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viant/elm-pair/internal/sourcecode"
)

func TestNewSnapshot_StartsAtRevisionZero(t *testing.T) {
	snap, err := sourcecode.NewSnapshot(context.Background(), sourcecode.Buffer{BufferID: 1}, []byte("module Main exposing (x)\nx = 1\n"))
	require.NoError(t, err)
	assert.Equal(t, 0, snap.Revision)
	assert.False(t, snap.HasParseErrors())
}

func TestApplyEdit_BumpsRevisionByTwoAndReparses(t *testing.T) {
	snap, err := sourcecode.NewSnapshot(context.Background(), sourcecode.Buffer{BufferID: 1}, []byte("x = 1\n"))
	require.NoError(t, err)

	require.NoError(t, snap.ApplyEdit(context.Background(), 4, 5, []byte("2")))
	assert.Equal(t, 2, snap.Revision)
	assert.Equal(t, "x = 2\n", string(snap.Bytes))

	require.NoError(t, snap.ApplyEdit(context.Background(), 4, 5, []byte("3")))
	assert.Equal(t, 4, snap.Revision)
}

func TestSplice_DoesNotTouchRevision(t *testing.T) {
	snap, err := sourcecode.NewSnapshot(context.Background(), sourcecode.Buffer{BufferID: 1}, []byte("x = 1\n"))
	require.NoError(t, err)

	require.NoError(t, snap.Splice(context.Background(), 4, 5, []byte("9")))
	assert.Equal(t, 0, snap.Revision)
	assert.Equal(t, "x = 9\n", string(snap.Bytes))
}

func TestSlice_ClampsOutOfRangeOffsets(t *testing.T) {
	snap, err := sourcecode.NewSnapshot(context.Background(), sourcecode.Buffer{BufferID: 1}, []byte("abc"))
	require.NoError(t, err)

	assert.Equal(t, []byte("abc"), snap.Slice(-5, 100))
	assert.Equal(t, []byte{}, snap.Slice(10, 2))
}

func TestRowColumn(t *testing.T) {
	bytes := []byte("abc\ndef\nghi")
	row, col := sourcecode.RowColumn(bytes, 0)
	assert.Equal(t, 0, row)
	assert.Equal(t, 0, col)

	row, col = sourcecode.RowColumn(bytes, 5) // 'e' in "def"
	assert.Equal(t, 1, row)
	assert.Equal(t, 1, col)

	row, col = sourcecode.RowColumn(bytes, 1000) // clamps to end of buffer
	assert.Equal(t, 2, row)
	assert.Equal(t, 3, col)
}
