// Package refactor is elm-pair's refactor engine: it classifies a narrowed
// tree-diff against the recognized edit shapes and plans the set of
// byte-range edits that restore consistency, consulting a project export
// index along the way.
package refactor

// Change is one planned edit: replace the bytes in [Start,End) with
// Replacement. Start==End represents a pure insertion.
type Change struct {
	Start       int
	End         int
	Replacement string
}

// Refactor accumulates the changes one classified shape's handler produces.
// The zero value is an empty, valid Refactor.
type Refactor struct {
	Changes []Change
}

// Add records a replacement of [start,end) with replacement.
func (r *Refactor) Add(start, end int, replacement string) {
	r.Changes = append(r.Changes, Change{Start: start, End: end, Replacement: replacement})
}

// Insert records a pure insertion of text immediately before at.
func (r *Refactor) Insert(at int, text string) {
	r.Add(at, at, text)
}

// Empty reports whether no changes were planned: the "no guess" empty
// refactor unclassifiable or failed edits map to.
func (r *Refactor) Empty() bool {
	return len(r.Changes) == 0
}

// Merge appends other's changes onto r.
func (r *Refactor) Merge(other Refactor) {
	r.Changes = append(r.Changes, other.Changes...)
}

// ByteRange is a half-open [Start,End) span, used to mark the node the
// programmer just edited so helpers skip rewriting it a second time.
type ByteRange struct {
	Start, End int
}

// Contains reports whether offset falls within the range.
func (b ByteRange) Contains(offset int) bool {
	return offset >= b.Start && offset < b.End
}

func anyContains(ranges []ByteRange, offset int) bool {
	for _, r := range ranges {
		if r.Contains(offset) {
			return true
		}
	}
	return false
}
