package query

import (
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/viant/elm-pair/internal/sourcecode"
)

// QualifiedValues compiles and runs the qualified-reference query: every
// value, type, or constructor reference written with an explicit module
// qualifier, e.g. `Html.Attributes.class`.
type QualifiedValues struct {
	query       *sitter.Query
	root        uint32
	qualifier   uint32
	value       uint32
	type_       uint32
	constructor uint32
}

func NewQualifiedValues() (*QualifiedValues, error) {
	q, err := compile("queries/qualified_values.scm")
	if err != nil {
		return nil, err
	}
	indexes := [5]uint32{}
	for i, name := range []string{"root", "qualifier", "value", "type", "constructor"} {
		idx, err := captureIndex(q, name)
		if err != nil {
			return nil, err
		}
		indexes[i] = idx
	}
	return &QualifiedValues{
		query:       q,
		root:        indexes[0],
		qualifier:   indexes[1],
		value:       indexes[2],
		type_:       indexes[3],
		constructor: indexes[4],
	}, nil
}

// QualifiedReference is one qualified reference found in the tree. The
// qualifier may span several module-name segments (`Html.Attributes.class`),
// so it is carried as a byte range from the first segment to the last.
type QualifiedReference struct {
	ReferenceNode  *sitter.Node
	NameNode       *sitter.Node
	QualifierStart int
	QualifierEnd   int
	Kind           NameKind
}

// Run finds every qualified reference in code.
func (q *QualifiedValues) Run(code *sourcecode.Snapshot) []QualifiedReference {
	return q.RunIn(code, code.Tree.RootNode())
}

// RunIn finds every qualified reference under (or at) node.
func (q *QualifiedValues) RunIn(code *sourcecode.Snapshot, node *sitter.Node) []QualifiedReference {
	cursor := sitter.NewQueryCursor()
	cursor.Exec(q.query, node)

	var refs []QualifiedReference
	for {
		match, ok := cursor.NextMatch()
		if !ok {
			break
		}
		ref := QualifiedReference{QualifierStart: -1}
		for _, capture := range match.Captures {
			switch capture.Index {
			case q.root:
				ref.ReferenceNode = capture.Node
			case q.qualifier:
				if ref.QualifierStart < 0 {
					ref.QualifierStart = int(capture.Node.StartByte())
				}
				ref.QualifierEnd = int(capture.Node.EndByte())
			case q.value:
				ref.NameNode = capture.Node
				ref.Kind = KindValue
			case q.type_:
				ref.NameNode = capture.Node
				ref.Kind = KindType
			case q.constructor:
				ref.NameNode = capture.Node
				ref.Kind = KindConstructor
			}
		}
		if ref.ReferenceNode == nil || ref.NameNode == nil || ref.QualifierStart < 0 {
			continue
		}
		refs = append(refs, ref)
	}
	return refs
}

// FirstIn returns the first qualified reference found under (or at) node.
func (q *QualifiedValues) FirstIn(code *sourcecode.Snapshot, node *sitter.Node) (QualifiedReference, bool) {
	refs := q.RunIn(code, node)
	if len(refs) == 0 {
		return QualifiedReference{}, false
	}
	return refs[0], true
}

// Qualifier returns the full dotted qualifier text, e.g. "Html.Attributes"
// for a reference written as `Html.Attributes.class`.
func (r QualifiedReference) Qualifier(code *sourcecode.Snapshot) string {
	return string(code.Slice(r.QualifierStart, r.QualifierEnd))
}

// Name returns the text of the referenced identifier itself.
func (r QualifiedReference) Name(code *sourcecode.Snapshot) string {
	return string(code.Slice(int(r.NameNode.StartByte()), int(r.NameNode.EndByte())))
}
