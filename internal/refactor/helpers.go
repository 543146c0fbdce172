package refactor

import (
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/viant/elm-pair/internal/project"
	"github.com/viant/elm-pair/internal/query"
	"github.com/viant/elm-pair/internal/sourcecode"
)

// expandExposedEntry expands one parsed exposing-list entry against a
// module's export surface into the bare Names it makes available:
//
//   - a value entry is just that value;
//   - a type entry is the type, plus the alias's use as a constructor when
//     the export is really a record type alias of the same name, plus every
//     constructor of the custom type when the entry carries `(..)`;
//   - `..` is every export, with a record type alias contributing both its
//     value and type uses.
func expandExposedEntry(entry query.ExposedEntry, exports []project.ExportedName) []Name {
	if entry.IsDoubleDot {
		return expandAllExports(exports)
	}
	switch entry.Kind {
	case query.KindOperator:
		return []Name{{Text: entry.Name, Kind: query.KindOperator}}
	case query.KindValue:
		return []Name{{Text: entry.Name, Kind: query.KindValue}}
	case query.KindType:
		names := []Name{{Text: entry.Name, Kind: query.KindType}}
		for _, exp := range exports {
			switch exp.Kind {
			case project.ExportedRecordTypeAlias:
				if exp.Name == entry.Name {
					names = append(names, Name{Text: exp.Name, Kind: query.KindConstructor})
				}
			case project.ExportedType:
				if entry.ExposingConstructors && exp.Name == entry.Name {
					for _, ctor := range exp.Constructors {
						names = append(names, Name{Text: ctor, Kind: query.KindConstructor})
					}
				}
			}
		}
		return names
	}
	return nil
}

func expandAllExports(exports []project.ExportedName) []Name {
	var names []Name
	for _, exp := range exports {
		switch exp.Kind {
		case project.ExportedValue:
			names = append(names, Name{Text: exp.Name, Kind: query.KindValue})
		case project.ExportedRecordTypeAlias:
			names = append(names,
				Name{Text: exp.Name, Kind: query.KindValue},
				Name{Text: exp.Name, Kind: query.KindType})
		case project.ExportedType:
			names = append(names, Name{Text: exp.Name, Kind: query.KindType})
			for _, ctor := range exp.Constructors {
				names = append(names, Name{Text: ctor, Kind: query.KindConstructor})
			}
		}
	}
	return names
}

// exposedConstructors resolves what "the constructors of typeName" means for
// a module's exports: either the single alias-as-constructor of a record
// type alias, or the constructor list of a custom type.
type exposedConstructors struct {
	// AliasName is set when typeName is a record type alias; its name
	// doubles as the one constructor.
	AliasName string
	// Constructors is set when typeName is a custom type.
	Constructors []string
	IsAlias      bool
}

func constructorsOfExports(exports []project.ExportedName, typeName string) (exposedConstructors, bool) {
	for _, exp := range exports {
		switch exp.Kind {
		case project.ExportedRecordTypeAlias:
			if exp.Name == typeName {
				return exposedConstructors{AliasName: exp.Name, IsAlias: true}, true
			}
		case project.ExportedType:
			if exp.Name == typeName {
				return exposedConstructors{Constructors: exp.Constructors}, true
			}
		}
	}
	return exposedConstructors{}, false
}

// owningType finds the custom type in exports whose constructor list
// contains ctorName.
func owningType(exports []project.ExportedName, ctorName string) (project.ExportedName, bool) {
	for _, exp := range exports {
		if exp.Kind != project.ExportedType {
			continue
		}
		for _, ctor := range exp.Constructors {
			if ctor == ctorName {
				return exp, true
			}
		}
	}
	return project.ExportedName{}, false
}

// parentOf is a nil-safe node.Parent().
func parentOf(node *sitter.Node) *sitter.Node {
	if node == nil {
		return nil
	}
	return node.Parent()
}

// parseImportNode reads node (an import_clause, or a node containing one)
// back as an Import.
func (e *Engine) parseImportNode(code *sourcecode.Snapshot, node *sitter.Node) (query.Import, bool) {
	if node == nil {
		return query.Import{}, false
	}
	return e.Imports.FirstIn(code, node)
}

func namesToSet(names []Name) map[Name]bool {
	set := make(map[Name]bool, len(names))
	for _, n := range names {
		set[n] = true
	}
	return set
}

// diffNameSets reports names present only in a and names present only in b.
func diffNameSets(a, b []Name) (onlyA, onlyB []Name) {
	setA, setB := namesToSet(a), namesToSet(b)
	for n := range setA {
		if !setB[n] {
			onlyA = append(onlyA, n)
		}
	}
	for n := range setB {
		if !setA[n] {
			onlyB = append(onlyB, n)
		}
	}
	return onlyA, onlyB
}
