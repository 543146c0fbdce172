package refactor

import (
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/viant/elm-pair/internal/diff"
	"github.com/viant/elm-pair/internal/langelm"
)

// Shape is one recognized edit shape.
type Shape int

const (
	// ShapeNoChange means old and new trees were byte-identical; it
	// short-circuits to an empty Refactor before any shape handler runs.
	ShapeNoChange Shape = iota
	ShapeChangedExposingList
	ShapeQualifierAdded
	ShapeQualifierRemoved
	ShapeExposingAdded
	ShapeExposingRemoved
	ShapeCtorsAdded
	ShapeCtorsRemoved
	ShapeAsClauseChanged
	ShapeModuleNameChanged
	ShapeUnrecognized
)

// Classify matches the kind sequences of the removed and added sibling
// lists against the recognized edit shapes. The first matching arm wins; an
// edit matching none of them still returns ShapeUnrecognized rather than an
// error, since that path runs a handler of its own.
func Classify(changes diff.Changes) Shape {
	before := attachKinds(changes.OldRemoved)
	after := attachKinds(changes.NewAdded)

	switch {
	case len(before) == 0 && len(after) == 0:
		return ShapeNoChange
	case isExposingItemSlice(before) && isExposingItemSlice(after):
		return ShapeChangedExposingList
	case isQualifierAddition(before, after):
		return ShapeQualifierAdded
	case isQualifierAddition(after, before):
		return ShapeQualifierRemoved
	case len(before) == 0 && isSingle(after, langelm.KindExposingList):
		return ShapeExposingAdded
	case isSingle(before, langelm.KindExposingList) && len(after) == 0:
		return ShapeExposingRemoved
	case len(before) == 0 && isSingle(after, langelm.KindExposedUnionConstructors):
		return ShapeCtorsAdded
	case isSingle(before, langelm.KindExposedUnionConstructors) && len(after) == 0:
		return ShapeCtorsRemoved
	case isEmptyOrAsClause(before) && isEmptyOrAsClause(after):
		return ShapeAsClauseChanged
	case lastIsModuleSegment(before) && lastIsModuleSegment(after):
		return ShapeModuleNameChanged
	default:
		return ShapeUnrecognized
	}
}

func attachKinds(nodes []*sitter.Node) []string {
	kinds := make([]string, len(nodes))
	for i, node := range nodes {
		kinds[i] = node.Type()
	}
	return kinds
}

func isSingle(kinds []string, kind string) bool {
	return len(kinds) == 1 && kinds[0] == kind
}

// lastIsModuleSegment accepts an upper-case identifier in the last position
// too: the handler filters on the parent's kind anyway, and some grammar
// revisions spell an as-clause's alias as a plain upper-case identifier
// rather than a module-name segment.
func lastIsModuleSegment(kinds []string) bool {
	if len(kinds) == 0 {
		return false
	}
	last := kinds[len(kinds)-1]
	return last == langelm.KindModuleNameSegment || last == "upper_case_identifier"
}

// isExposingItemSlice reports whether kinds looks like a (possibly empty)
// run of exposing-list items: empty, a lone `..`, or items optionally led
// by the comma that separated them from what came before.
func isExposingItemSlice(kinds []string) bool {
	if len(kinds) == 0 {
		return true
	}
	if isSingle(kinds, langelm.KindDoubleDot) {
		return true
	}
	first := kinds[0]
	if first == langelm.KindComma && len(kinds) > 1 {
		first = kinds[1]
	}
	return first == langelm.KindExposedValue || first == langelm.KindExposedType
}

// isQualifierAddition reports whether a bare identifier turned into the
// same category of identifier behind one or more module-name segments:
// `map` → `Maybe.map`. Called with the arguments flipped it recognizes the
// inverse, qualifier removal.
func isQualifierAddition(before, after []string) bool {
	if len(before) != 1 || len(after) < 3 {
		return false
	}
	ident := before[0]
	switch ident {
	case langelm.KindLowerCaseIdentifier, langelm.KindTypeIdentifier, langelm.KindConstructorIdentifier:
	default:
		return false
	}
	return after[0] == langelm.KindModuleNameSegment &&
		after[1] == langelm.KindDot &&
		after[len(after)-1] == ident
}

func isEmptyOrAsClause(kinds []string) bool {
	return len(kinds) == 0 || isSingle(kinds, langelm.KindAsClause)
}
