package refactor

import (
	"fmt"

	"github.com/viant/elm-pair/internal/diff"
	"github.com/viant/elm-pair/internal/project"
	"github.com/viant/elm-pair/internal/query"
	"github.com/viant/elm-pair/internal/sourcecode"
)

// onQualifierAdded fires when the programmer prefixed one
// identifier with a module qualifier, so the tree differ settled on the qid
// node, reporting the bare identifier removed and the segment-dot-identifier
// run added. Drop the name from that import's exposing list (or all
// constructors of its owning type), then qualify every other occurrence of
// the same name.
func (e *Engine) onQualifierAdded(old, new sourcecode.Snapshot, changes diff.Changes) (Refactor, error) {
	var r Refactor

	oldRef, ok := e.Unqualified.FirstIn(&old, changes.OldParent)
	if !ok {
		return r, fmt.Errorf("refactor: parsing unqualified node before qualifier addition failed")
	}
	newRef, ok := e.Qualified.FirstIn(&new, changes.NewParent)
	if !ok {
		return r, fmt.Errorf("refactor: parsing qualified node after qualifier addition failed")
	}
	if oldRef.Name(&old) != newRef.Name(&new) {
		// The programmer changed the identifier itself, not just qualified it.
		return r, nil
	}

	x := Name{Text: newRef.Name(&new), Kind: newRef.Kind}
	err := e.qualifyValue(&new, &r, nil, newRef.Qualifier(&new), x, false)
	return r, err
}

// onQualifierRemoved fires when the programmer dropped a
// qualifier from one identifier. Add the name back to the import's exposing
// list (plus the owning type's `(..)` if it's a constructor), then
// unqualify every other occurrence.
func (e *Engine) onQualifierRemoved(old, new sourcecode.Snapshot, changes diff.Changes) (Refactor, error) {
	var r Refactor

	oldRef, ok := e.Qualified.FirstIn(&old, changes.OldParent)
	if !ok {
		return r, fmt.Errorf("refactor: parsing qualified node before qualifier removal failed")
	}
	newRef, ok := e.Unqualified.FirstIn(&new, changes.NewParent)
	if !ok {
		return r, fmt.Errorf("refactor: parsing unqualified node after qualifier removal failed")
	}
	if oldRef.Name(&old) != newRef.Name(&new) {
		return r, nil
	}

	qualifier := oldRef.Qualifier(&old)
	imp, ok := e.Imports.ByAliasedName(&new, qualifier)
	if !ok {
		return r, nil
	}

	x := Name{Text: newRef.Name(&new), Kind: newRef.Kind}
	toUnqualify := map[Name]bool{x: true}
	if x.Kind == query.KindConstructor {
		exports, _ := e.Index.ExportsOf(imp.UnaliasedName())
		expandConstructorExposure(&r, imp, exports, x, toUnqualify)
	} else {
		AddToExposingList(&r, imp, x.Text, "")
	}

	skip := []ByteRange{{Start: int(newRef.NameNode.StartByte()), End: int(newRef.NameNode.EndByte())}}
	if err := e.UnqualifyNames(&new, &r, toUnqualify, qualifier, skip); err != nil {
		return r, err
	}
	return r, nil
}

// expandConstructorExposure works out what exposing a constructor means for
// imp's exposing list: a record type alias is exposed by its bare name
// (usable as both type and constructor), while a custom type's constructor
// drags its whole `Type(..)` along, and every sibling constructor joins
// the unqualify set, since they become visible together.
func expandConstructorExposure(r *Refactor, imp query.Import, exports []project.ExportedName, x Name, toUnqualify map[Name]bool) {
	for _, exp := range exports {
		switch exp.Kind {
		case project.ExportedRecordTypeAlias:
			if exp.Name == x.Text {
				AddToExposingList(r, imp, exp.Name, "")
				return
			}
		case project.ExportedType:
			if containsString(exp.Constructors, x.Text) {
				for _, ctor := range exp.Constructors {
					toUnqualify[Name{Text: ctor, Kind: query.KindConstructor}] = true
				}
				AddToExposingList(r, imp, x.Text, exp.Name)
				return
			}
		}
	}
	// Module not in the index: expose the constructor's own name behind a
	// wildcard rather than guessing at the owning type.
	AddToExposingList(r, imp, x.Text, x.Text)
}
