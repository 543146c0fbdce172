package sourcecode

import (
	"context"
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/elm"
)

// Snapshot is the full state elm-pair tracks for one open buffer: its bytes,
// the tree-sitter concrete syntax tree parsed from those bytes, and a
// monotonically increasing revision counter.
//
// No rope/piece-table library is available anywhere in the dependency
// surface this module draws on, so Bytes is a plain []byte and edits splice
// it directly; see SPEC_FULL.md §3 for why this one piece of the core stays on the
// standard library instead of a third-party data structure.
type Snapshot struct {
	Buffer   Buffer
	Bytes    []byte
	Tree     *sitter.Tree
	Revision int
}

// NewSnapshot parses bytes for the first time and returns revision 0.
func NewSnapshot(ctx context.Context, buffer Buffer, bytes []byte) (Snapshot, error) {
	tree, err := parse(ctx, nil, bytes)
	if err != nil {
		return Snapshot{}, err
	}
	return Snapshot{Buffer: buffer, Bytes: bytes, Tree: tree, Revision: 0}, nil
}

// ApplyEdit splices newBytes into the range [startByte, oldEndByte), bumps
// the revision by 2, and reparses incrementally against the previous tree.
//
// Revisions only increase by 2 here. Refactor edits produced by this package
// set the revision to current+1 directly (see refactor.Emit), so editor
// driven revisions stay even and elm-pair driven ones stay odd; this is how
// callers tell the two apart without a separate flag.
func (s *Snapshot) ApplyEdit(ctx context.Context, startByte, oldEndByte int, newBytes []byte) error {
	if err := s.applyRaw(ctx, startByte, oldEndByte, newBytes); err != nil {
		return err
	}
	s.Revision += 2
	return nil
}

// Splice applies one byte-range replacement without touching Revision,
// leaving revision bookkeeping to the caller. The refactor emitter uses
// this to apply a whole batch of edits and bump the revision exactly once
// at the end, to current+1 rather than the editor path's +2.
func (s *Snapshot) Splice(ctx context.Context, startByte, oldEndByte int, newBytes []byte) error {
	return s.applyRaw(ctx, startByte, oldEndByte, newBytes)
}

func (s *Snapshot) applyRaw(ctx context.Context, startByte, oldEndByte int, newBytes []byte) error {
	startPoint := bytePosition(s.Bytes, startByte)
	oldEndPoint := bytePosition(s.Bytes, oldEndByte)

	if startByte < 0 || oldEndByte > len(s.Bytes) || startByte > oldEndByte {
		return fmt.Errorf("sourcecode: edit range [%d,%d) out of bounds for %d byte buffer", startByte, oldEndByte, len(s.Bytes))
	}

	next := make([]byte, 0, len(s.Bytes)-(oldEndByte-startByte)+len(newBytes))
	next = append(next, s.Bytes[:startByte]...)
	next = append(next, newBytes...)
	next = append(next, s.Bytes[oldEndByte:]...)

	newEndByte := startByte + len(newBytes)
	newEndPoint := bytePosition(next, newEndByte)

	// Edit a copy: other Snapshot values made from s share s.Tree and must
	// keep a tree that matches their own bytes.
	prev := s.Tree.Copy()
	prev.Edit(sitter.EditInput{
		StartIndex:  uint32(startByte),
		OldEndIndex: uint32(oldEndByte),
		NewEndIndex: uint32(newEndByte),
		StartPoint:  startPoint,
		OldEndPoint: oldEndPoint,
		NewEndPoint: newEndPoint,
	})

	tree, err := parse(ctx, prev, next)
	if err != nil {
		return err
	}

	s.Bytes = next
	s.Tree = tree
	return nil
}

// Slice returns the bytes in [start,end), clamping out-of-range offsets to
// the buffer length instead of panicking.
func (s *Snapshot) Slice(start, end int) []byte {
	if start < 0 {
		start = 0
	}
	if start > len(s.Bytes) {
		start = len(s.Bytes)
	}
	if end > len(s.Bytes) {
		end = len(s.Bytes)
	}
	if end < start {
		end = start
	}
	return s.Bytes[start:end]
}

// HasParseErrors reports whether the tree contains any ERROR or missing
// node, the signal the refactor emitter uses to reject a refactor that would
// leave the buffer syntactically broken.
func (s *Snapshot) HasParseErrors() bool {
	return s.Tree.RootNode().HasError()
}

func parse(ctx context.Context, prev *sitter.Tree, bytes []byte) (*sitter.Tree, error) {
	parser := sitter.NewParser()
	parser.SetLanguage(elm.GetLanguage())
	tree, err := parser.ParseCtx(ctx, prev, bytes)
	if err != nil {
		return nil, fmt.Errorf("sourcecode: tree-sitter failed to parse buffer: %w", err)
	}
	return tree, nil
}

func bytePosition(bytes []byte, offset int) sitter.Point {
	row, col := RowColumn(bytes, offset)
	return sitter.Point{Row: uint32(row), Column: uint32(col)}
}

// RowColumn converts a byte offset into bytes to a zero-indexed (row,
// column) pair, clamping offsets beyond the buffer's length. Exported so
// editor drivers that only know line/column addressing (e.g. Neovim's
// nvim_buf_set_text) can translate a byte-range Edit without duplicating
// this scan.
func RowColumn(bytes []byte, offset int) (row, column int) {
	if offset > len(bytes) {
		offset = len(bytes)
	}
	lineStart := 0
	for i := 0; i < offset; i++ {
		if bytes[i] == '\n' {
			row++
			lineStart = i + 1
		}
	}
	return row, offset - lineStart
}
