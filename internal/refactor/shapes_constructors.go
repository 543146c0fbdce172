package refactor

import (
	"github.com/viant/elm-pair/internal/diff"
	"github.com/viant/elm-pair/internal/query"
	"github.com/viant/elm-pair/internal/sourcecode"
)

// onCtorsAdded fires when `Type` became `Type(..)`. Every
// constructor of Type gets unqualified across the file.
func (e *Engine) onCtorsAdded(old, new sourcecode.Snapshot, changes diff.Changes) (Refactor, error) {
	var r Refactor

	typeNameNode := changes.NewParent.NamedChild(0)
	if typeNameNode == nil {
		return r, nil
	}
	typeName := string(new.Slice(int(typeNameNode.StartByte()), int(typeNameNode.EndByte())))

	imp, ok := e.parseImportNode(&new, parentOf(parentOf(changes.NewParent)))
	if !ok {
		return r, nil
	}
	exports, ok := e.Index.ExportsOf(imp.UnaliasedName())
	if !ok {
		return r, nil
	}
	ctors, found := constructorsOfExports(exports, typeName)
	if !found {
		return r, nil
	}

	names := constructorNameSet(ctors)
	if err := e.UnqualifyNames(&new, &r, names, imp.AliasedName(), nil); err != nil {
		return r, err
	}
	return r, nil
}

// onCtorsRemoved fires when `Type(..)` became `Type`. Every
// constructor of Type gets qualified across the file, with the removed
// wildcard read from the old snapshot.
func (e *Engine) onCtorsRemoved(old, new sourcecode.Snapshot, changes diff.Changes) (Refactor, error) {
	var r Refactor

	typeNameNode := changes.OldParent.NamedChild(0)
	if typeNameNode == nil {
		return r, nil
	}
	typeName := string(old.Slice(int(typeNameNode.StartByte()), int(typeNameNode.EndByte())))

	oldImp, ok := e.parseImportNode(&old, parentOf(parentOf(changes.OldParent)))
	if !ok {
		return r, nil
	}
	exports, ok := e.Index.ExportsOf(oldImp.UnaliasedName())
	if !ok {
		return r, nil
	}
	ctors, found := constructorsOfExports(exports, typeName)
	if !found {
		return r, nil
	}

	e.QualifyNames(&new, &r, constructorNameSet(ctors), oldImp.AliasedName(), nil)
	return r, nil
}

// constructorNameSet turns a type's constructor surface into the Name set
// the qualify/unqualify helpers take: the alias name itself for a record
// type alias, each declared constructor for a custom type.
func constructorNameSet(ctors exposedConstructors) map[Name]bool {
	names := map[Name]bool{}
	if ctors.IsAlias {
		names[Name{Text: ctors.AliasName, Kind: query.KindConstructor}] = true
		return names
	}
	for _, ctor := range ctors.Constructors {
		names[Name{Text: ctor, Kind: query.KindConstructor}] = true
	}
	return names
}
