package query

import (
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/viant/elm-pair/internal/sourcecode"
)

// UnqualifiedValues compiles and runs the bare-identifier query: value,
// type, and constructor references written without a module qualifier, plus
// the declaration sites (function names, let bindings, patterns) a
// collision-resolution rename must rewrite alongside the uses.
type UnqualifiedValues struct {
	query         *sitter.Query
	value         uint32
	type_         uint32
	constructor   uint32
	declaredValue uint32
}

func NewUnqualifiedValues() (*UnqualifiedValues, error) {
	q, err := compile("queries/unqualified_values.scm")
	if err != nil {
		return nil, err
	}
	value, err := captureIndex(q, "value")
	if err != nil {
		return nil, err
	}
	type_, err := captureIndex(q, "type")
	if err != nil {
		return nil, err
	}
	constructor, err := captureIndex(q, "constructor")
	if err != nil {
		return nil, err
	}
	declaredValue, err := captureIndex(q, "declared_value")
	if err != nil {
		return nil, err
	}
	return &UnqualifiedValues{query: q, value: value, type_: type_, constructor: constructor, declaredValue: declaredValue}, nil
}

// UnqualifiedReference is one bare identifier found in the tree.
// IsDeclaration marks binding sites (a function's name, a let binding, an
// argument pattern) as opposed to uses: a rename rewrites both, a qualify
// pass must only ever touch uses.
type UnqualifiedReference struct {
	NameNode      *sitter.Node
	Kind          NameKind
	IsDeclaration bool
}

// Run finds every unqualified reference in code.
func (q *UnqualifiedValues) Run(code *sourcecode.Snapshot) []UnqualifiedReference {
	return q.RunIn(code, code.Tree.RootNode())
}

// RunIn finds every unqualified reference under (or at) node.
func (q *UnqualifiedValues) RunIn(code *sourcecode.Snapshot, node *sitter.Node) []UnqualifiedReference {
	cursor := sitter.NewQueryCursor()
	cursor.Exec(q.query, node)

	var refs []UnqualifiedReference
	for {
		match, ok := cursor.NextMatch()
		if !ok {
			break
		}
		for _, capture := range match.Captures {
			ref := UnqualifiedReference{NameNode: capture.Node}
			switch capture.Index {
			case q.value:
				ref.Kind = KindValue
			case q.type_:
				ref.Kind = KindType
			case q.constructor:
				ref.Kind = KindConstructor
			case q.declaredValue:
				ref.Kind = KindValue
				ref.IsDeclaration = true
			default:
				continue
			}
			refs = append(refs, ref)
		}
	}
	return refs
}

// FirstIn returns the first unqualified reference found under (or at) node.
func (q *UnqualifiedValues) FirstIn(code *sourcecode.Snapshot, node *sitter.Node) (UnqualifiedReference, bool) {
	refs := q.RunIn(code, node)
	if len(refs) == 0 {
		return UnqualifiedReference{}, false
	}
	return refs[0], true
}

// Name returns the text of the referenced identifier.
func (r UnqualifiedReference) Name(code *sourcecode.Snapshot) string {
	return string(code.Slice(int(r.NameNode.StartByte()), int(r.NameNode.EndByte())))
}
