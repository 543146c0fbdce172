package query

import (
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/viant/elm-pair/internal/sourcecode"
)

// Exports compiles and runs the module-exports query: a module's own
// exposing list plus the top-level declarations that can be exported. The
// project indexer runs this over every in-project module to augment the
// index beyond what the dependency interface file already supplies.
type Exports struct {
	query           *sitter.Query
	module          uint32
	exposingList    uint32
	valueDecl       uint32
	valueName       uint32
	typeAliasDecl   uint32
	typeAliasName   uint32
	typeDecl        uint32
	typeName        uint32
	constructorName uint32
}

func NewExports() (*Exports, error) {
	q, err := compile("queries/exports.scm")
	if err != nil {
		return nil, err
	}
	idx := func(name string) uint32 {
		i, _ := captureIndex(q, name)
		return i
	}
	return &Exports{
		query:           q,
		module:          idx("module"),
		exposingList:    idx("exposing_list"),
		valueDecl:       idx("value_declaration"),
		valueName:       idx("value_name"),
		typeAliasDecl:   idx("type_alias_declaration"),
		typeAliasName:   idx("type_alias_name"),
		typeDecl:        idx("type_declaration"),
		typeName:        idx("type_name"),
		constructorName: idx("constructor_name"),
	}, nil
}

// ModuleExposing is the module declaration's own exposing list, or nil if
// the match didn't capture one (e.g. a file with no module declaration yet).
type ModuleExposing struct {
	Node *sitter.Node
}

// Declared is one top-level declaration a module file can export.
type Declared struct {
	// Kind is KindValue, KindType, or KindConstructor (only ever surfaced
	// nested under a KindType entry, never standalone).
	Kind NameKind
	Name string
	// Constructors is non-empty only for a custom type declaration.
	Constructors []string
	// IsRecordAlias is true when Kind is KindType and this came from a
	// type-alias declaration whose aliased expression is a record type
	// (`type alias Point = { x : Float, y : Float }`) rather than some other
	// alias (`type alias Name = String`). A record type alias's bare name is
	// usable as both a type and a zero-arg constructor at use sites, with its
	// own exposing-list grammar.
	IsRecordAlias bool
}

// Run walks code's tree once and returns the module's own exposing list (if
// any) plus every top-level declaration it could export.
func (q *Exports) Run(code *sourcecode.Snapshot) (*ModuleExposing, []Declared) {
	cursor := sitter.NewQueryCursor()
	cursor.Exec(q.query, code.Tree.RootNode())

	var exposing *ModuleExposing
	byTypeDecl := map[*sitter.Node]*Declared{}
	var order []*sitter.Node
	var declared []Declared

	for {
		match, ok := cursor.NextMatch()
		if !ok {
			break
		}
		var exposingNode, valueDeclNode, valueNameNode *sitter.Node
		var aliasDeclNode, aliasNameNode *sitter.Node
		var typeDeclNode, typeNameNode *sitter.Node
		for _, capture := range match.Captures {
			switch capture.Index {
			case q.exposingList:
				exposingNode = capture.Node
			case q.valueDecl:
				valueDeclNode = capture.Node
			case q.valueName:
				valueNameNode = capture.Node
			case q.typeAliasDecl:
				aliasDeclNode = capture.Node
			case q.typeAliasName:
				aliasNameNode = capture.Node
			case q.typeDecl:
				typeDeclNode = capture.Node
			case q.typeName:
				typeNameNode = capture.Node
			}
		}
		if exposingNode != nil && exposing == nil {
			exposing = &ModuleExposing{Node: exposingNode}
		}
		if valueDeclNode != nil && valueNameNode != nil {
			declared = append(declared, Declared{
				Kind: KindValue,
				Name: string(code.Slice(int(valueNameNode.StartByte()), int(valueNameNode.EndByte()))),
			})
		}
		if aliasDeclNode != nil && aliasNameNode != nil {
			declared = append(declared, Declared{
				Kind:          KindType,
				Name:          string(code.Slice(int(aliasNameNode.StartByte()), int(aliasNameNode.EndByte()))),
				IsRecordAlias: aliasesRecordType(aliasDeclNode),
			})
		}
		if typeDeclNode != nil && typeNameNode != nil {
			entry, seen := byTypeDecl[typeDeclNode]
			if !seen {
				entry = &Declared{
					Kind: KindType,
					Name: string(code.Slice(int(typeNameNode.StartByte()), int(typeNameNode.EndByte()))),
				}
				// A quantified capture yields at most one constructor per
				// match, so read every union_variant off the declaration.
				for i := 0; i < int(typeDeclNode.NamedChildCount()); i++ {
					variant := typeDeclNode.NamedChild(i)
					if variant.Type() != "union_variant" || variant.NamedChildCount() == 0 {
						continue
					}
					ctor := variant.NamedChild(0)
					entry.Constructors = append(entry.Constructors, string(code.Slice(int(ctor.StartByte()), int(ctor.EndByte()))))
				}
				byTypeDecl[typeDeclNode] = entry
				order = append(order, typeDeclNode)
			}
		}
	}
	for _, node := range order {
		declared = append(declared, *byTypeDecl[node])
	}
	return exposing, declared
}

// aliasesRecordType reports whether a type_alias_declaration node's aliased
// expression is a record type, by looking for a record_type child anywhere
// among its direct named children.
func aliasesRecordType(node *sitter.Node) bool {
	count := int(node.NamedChildCount())
	for i := 0; i < count; i++ {
		if node.NamedChild(i).Type() == "record_type" {
			return true
		}
	}
	return false
}
