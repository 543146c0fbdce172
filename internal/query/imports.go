package query

import (
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/viant/elm-pair/internal/langelm"
	"github.com/viant/elm-pair/internal/sourcecode"
)

// Imports compiles and runs the import_clause query.
type Imports struct {
	query        *sitter.Query
	root         uint32
	name         uint32
	asClause     uint32
	exposingList uint32
}

// NewImports compiles the imports query.
func NewImports() (*Imports, error) {
	q, err := compile("queries/imports.scm")
	if err != nil {
		return nil, err
	}
	root, err := captureIndex(q, "root")
	if err != nil {
		return nil, err
	}
	name, err := captureIndex(q, "name")
	if err != nil {
		return nil, err
	}
	asClause, err := captureIndex(q, "as_clause")
	if err != nil {
		return nil, err
	}
	exposingList, err := captureIndex(q, "exposing_list")
	if err != nil {
		return nil, err
	}
	return &Imports{query: q, root: root, name: name, asClause: asClause, exposingList: exposingList}, nil
}

// Import is one import clause found in a file. AsClauseNode, when present,
// spans the whole `as Alias` clause; its alias name is the clause's last
// named child.
type Import struct {
	RootNode         *sitter.Node
	NameNode         *sitter.Node
	AsClauseNode     *sitter.Node
	ExposingListNode *sitter.Node
	code             *sourcecode.Snapshot
}

// Run finds every import clause in code, starting at the tree's root.
func (q *Imports) Run(code *sourcecode.Snapshot) []Import {
	return q.RunIn(code, code.Tree.RootNode())
}

// RunIn finds every import clause under node.
func (q *Imports) RunIn(code *sourcecode.Snapshot, node *sitter.Node) []Import {
	cursor := sitter.NewQueryCursor()
	cursor.Exec(q.query, node)

	var imports []Import
	for {
		match, ok := cursor.NextMatch()
		if !ok {
			break
		}
		var nodes [4]*sitter.Node
		for _, capture := range match.Captures {
			nodes[capture.Index] = capture.Node
		}
		if nodes[q.root] == nil || nodes[q.name] == nil {
			continue
		}
		imports = append(imports, Import{
			RootNode:         nodes[q.root],
			NameNode:         nodes[q.name],
			AsClauseNode:     nodes[q.asClause],
			ExposingListNode: nodes[q.exposingList],
			code:             code,
		})
	}
	return imports
}

// FirstIn parses node as an import clause, returning the first match the
// imports query finds under (or at) it.
func (q *Imports) FirstIn(code *sourcecode.Snapshot, node *sitter.Node) (Import, bool) {
	imports := q.RunIn(code, node)
	if len(imports) == 0 {
		return Import{}, false
	}
	return imports[0], true
}

// ByAliasedName finds the import whose effective (aliased, if present) name
// matches name, e.g. looking up `Attr` after `import Html.Attributes as Attr`.
func (q *Imports) ByAliasedName(code *sourcecode.Snapshot, name string) (Import, bool) {
	for _, imp := range q.Run(code) {
		if imp.AliasedName() == name {
			return imp, true
		}
	}
	return Import{}, false
}

// UnaliasedName is the module's real, dotted name, e.g. "Html.Attributes".
func (imp Import) UnaliasedName() string {
	return string(imp.code.Slice(int(imp.NameNode.StartByte()), int(imp.NameNode.EndByte())))
}

// AliasNameNode is the name node inside the as-clause, or nil without one.
func (imp Import) AliasNameNode() *sitter.Node {
	if imp.AsClauseNode == nil || imp.AsClauseNode.NamedChildCount() == 0 {
		return nil
	}
	return imp.AsClauseNode.NamedChild(int(imp.AsClauseNode.NamedChildCount()) - 1)
}

// AliasedName is the name code in this file uses to refer to the module:
// the as-clause's name if present, the real module name otherwise.
func (imp Import) AliasedName() string {
	node := imp.AliasNameNode()
	if node == nil {
		node = imp.NameNode
	}
	return string(imp.code.Slice(int(node.StartByte()), int(node.EndByte())))
}

// ExposingList iterates the names this import exposes, or yields nothing if
// there is no exposing clause.
func (imp Import) ExposingList() []ExposedEntry {
	if imp.ExposingListNode == nil {
		return nil
	}
	return parseExposingList(imp.code, imp.ExposingListNode)
}

// NameKind distinguishes the four kinds of names Elm's grammar can reference.
type NameKind int

const (
	KindValue NameKind = iota
	KindType
	KindConstructor
	KindOperator
)

// ExposedEntry is one parsed entry of an exposing list: `foo`, `Foo`,
// `Foo(..)`, or the bare `..` wildcard.
type ExposedEntry struct {
	Node                 *sitter.Node
	Kind                 NameKind
	Name                 string
	ExposingConstructors bool
	// ConstructorsNode is the `(..)` node trailing the type name when
	// ExposingConstructors is true, e.g. the exposed_union_constructors node
	// in `Color(..)`. Refactors that qualify one constructor of a type
	// exposed with `(..)` need this to remove just that suffix rather than
	// the whole entry.
	ConstructorsNode *sitter.Node
	IsDoubleDot      bool
}

// parseExposingList walks the named children of an exposing_list node,
// skipping the parenthesis tokens and the editing artifact tree-sitter-elm
// produces for `exposing ()`: a lone, empty node wrapping a missing child.
func parseExposingList(code *sourcecode.Snapshot, node *sitter.Node) []ExposedEntry {
	var entries []ExposedEntry
	count := int(node.NamedChildCount())
	for i := 0; i < count; i++ {
		if entry, ok := classifyExposingItem(code, node.NamedChild(i)); ok {
			entries = append(entries, entry)
		}
	}
	return entries
}

func classifyExposingItem(code *sourcecode.Snapshot, child *sitter.Node) (ExposedEntry, bool) {
	if child == nil || child.StartByte() == child.EndByte() {
		return ExposedEntry{}, false
	}
	switch child.Type() {
	case langelm.KindExposedValue:
		return ExposedEntry{
			Node: child, Kind: KindValue,
			Name: string(code.Slice(int(child.StartByte()), int(child.EndByte()))),
		}, true
	case langelm.KindExposedOperator:
		return ExposedEntry{
			Node: child, Kind: KindOperator,
			Name: string(code.Slice(int(child.StartByte()), int(child.EndByte()))),
		}, true
	case langelm.KindExposedType:
		nameNode := child.NamedChild(0)
		if nameNode == nil {
			return ExposedEntry{}, false
		}
		var ctorsNode *sitter.Node
		if child.NamedChildCount() > 1 {
			ctorsNode = child.NamedChild(1)
		}
		return ExposedEntry{
			Node: child, Kind: KindType,
			Name:                 string(code.Slice(int(nameNode.StartByte()), int(nameNode.EndByte()))),
			ExposingConstructors: ctorsNode != nil,
			ConstructorsNode:     ctorsNode,
		}, true
	case langelm.KindDoubleDot:
		return ExposedEntry{Node: child, IsDoubleDot: true}, true
	}
	return ExposedEntry{}, false
}
