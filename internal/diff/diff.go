// Package diff compares two tree-sitter syntax trees representing two
// revisions of the same buffer and reports which siblings under a shared
// parent were replaced.
//
// The differ walks both trees in lock step comparing siblings, and
// whenever exactly one old sibling was replaced by exactly one new sibling
// of the same kind, descends into them instead of reporting the whole
// subtree as changed. This keeps the reported change as narrow as the
// editor's actual edit, which is what lets the classifier recognize small,
// well-known edit shapes.
package diff

import (
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/viant/elm-pair/internal/sourcecode"
)

// Changes describes the smallest pair of sibling ranges that differ between
// two snapshots: the siblings under OldParent that no longer exist, and the
// siblings under NewParent that replaced them.
type Changes struct {
	OldParent  *sitter.Node
	NewParent  *sitter.Node
	OldRemoved []*sitter.Node
	NewAdded   []*sitter.Node
}

// Diff of is a pair of snapshots of the same buffer at different revisions.
type Diff struct {
	Old sourcecode.Snapshot
	New sourcecode.Snapshot
}

type firstChangeKind int

const (
	noneFound firstChangeKind = iota
	bothChanged
	oldAdditional
	newAdditional
)

// Trees finds the narrowest pair of sibling ranges that differ between the
// old and new snapshot's trees.
func Trees(d Diff) Changes {
	oldParent := d.Old.Tree.RootNode()
	newParent := d.New.Tree.RootNode()
	oldNode := oldParent
	newNode := newParent

	for {
		firstOld, firstNew, kind := firstChangedSibling(d, oldNode, newNode)
		switch kind {
		case noneFound:
			return Changes{OldParent: oldParent, NewParent: newParent}
		case oldAdditional:
			return Changes{OldParent: oldParent, NewParent: newParent, OldRemoved: collectRemainingSiblings(firstOld)}
		case newAdditional:
			return Changes{OldParent: oldParent, NewParent: newParent, NewAdded: collectRemainingSiblings(firstNew)}
		}

		oldRemovedCount, newAddedCount := countChangedSiblings(d, firstOld, firstNew)

		// If only a single sibling changed and its kind stayed the same,
		// descend into it instead of reporting the whole node as changed.
		if oldRemovedCount == 1 && newAddedCount == 1 &&
			firstOld.Type() == firstNew.Type() &&
			firstOld.ChildCount() > 0 && firstNew.ChildCount() > 0 {
			oldParent = firstOld
			newParent = firstNew
			oldNode = firstOld.Child(0)
			newNode = firstNew.Child(0)
			continue
		}

		return Changes{
			OldParent:  oldParent,
			NewParent:  newParent,
			OldRemoved: collectNSiblings(firstOld, oldRemovedCount),
			NewAdded:   collectNSiblings(firstNew, newAddedCount),
		}
	}
}

// firstChangedSibling moves forward through sibling nodes in lock step,
// stopping at the first pair that differs.
func firstChangedSibling(d Diff, oldNode, newNode *sitter.Node) (*sitter.Node, *sitter.Node, firstChangeKind) {
	for {
		if hasNodeChanged(d, oldNode, newNode) {
			return oldNode, newNode, bothChanged
		}
		nextOld := oldNode.NextSibling()
		nextNew := newNode.NextSibling()
		switch {
		case nextOld != nil && nextNew != nil:
			oldNode, newNode = nextOld, nextNew
		case nextOld == nil && nextNew == nil:
			return oldNode, newNode, noneFound
		case nextOld != nil:
			return nextOld, nil, oldAdditional
		default:
			return nil, nextNew, newAdditional
		}
	}
}

func collectRemainingSiblings(node *sitter.Node) []*sitter.Node {
	acc := []*sitter.Node{node}
	for next := node.NextSibling(); next != nil; next = next.NextSibling() {
		acc = append(acc, next)
	}
	return acc
}

func collectNSiblings(node *sitter.Node, n int) []*sitter.Node {
	acc := make([]*sitter.Node, 0, n)
	for node != nil && len(acc) < n {
		acc = append(acc, node)
		node = node.NextSibling()
	}
	return acc
}

// countChangedSiblings finds how many old siblings starting at firstOld were
// replaced by how many new siblings starting at firstNew. It walks to the
// end of both sibling lists, then walks backwards in lock step counting
// equal trailing nodes, which is cheaper on average than confirming equality
// forwards, since most of the time only a handful of trailing siblings
// still match.
func countChangedSiblings(d Diff, firstOld, firstNew *sitter.Node) (int, int) {
	oldRemoved := 1
	for n := firstOld.NextSibling(); n != nil; n = n.NextSibling() {
		oldRemoved++
	}
	newAdded := 1
	for n := firstNew.NextSibling(); n != nil; n = n.NextSibling() {
		newAdded++
	}

	oldLast := lastSibling(firstOld)
	newLast := lastSibling(firstNew)
	for {
		if oldRemoved == 0 || newAdded == 0 || hasNodeChanged(d, oldLast, newLast) {
			break
		}
		prevOld := oldLast.PrevSibling()
		prevNew := newLast.PrevSibling()
		if prevOld == nil || prevNew == nil {
			break
		}
		oldLast, newLast = prevOld, prevNew
		oldRemoved--
		newAdded--
	}

	return oldRemoved, newAdded
}

func lastSibling(node *sitter.Node) *sitter.Node {
	for next := node.NextSibling(); next != nil; next = next.NextSibling() {
		node = next
	}
	return node
}

// hasNodeChanged checks kind first since it's cheap, then falls back to
// comparing the bytes each node spans.
func hasNodeChanged(d Diff, old, new *sitter.Node) bool {
	if old.Type() != new.Type() {
		return true
	}
	return string(d.Old.Slice(int(old.StartByte()), int(old.EndByte()))) !=
		string(d.New.Slice(int(new.StartByte()), int(new.EndByte())))
}
