package refactor

import (
	"github.com/viant/elm-pair/internal/diff"
	"github.com/viant/elm-pair/internal/sourcecode"
)

// onChangedExposingList fires when items were added to or
// dropped from an existing exposing list. The old and new lists are
// expanded in full against the module's exports and diffed: names no
// longer exposed get qualified everywhere in the file, names newly exposed
// get unqualified.
func (e *Engine) onChangedExposingList(old, new sourcecode.Snapshot, changes diff.Changes) (Refactor, error) {
	var r Refactor

	oldImp, ok := e.parseImportNode(&old, parentOf(changes.OldParent))
	if !ok {
		return r, nil
	}
	newImp, ok := e.parseImportNode(&new, parentOf(changes.NewParent))
	if !ok {
		return r, nil
	}
	exports, ok := e.Index.ExportsOf(oldImp.UnaliasedName())
	if !ok {
		return r, nil
	}

	var oldNames, newNames []Name
	for _, entry := range oldImp.ExposingList() {
		oldNames = append(oldNames, expandExposedEntry(entry, exports)...)
	}
	for _, entry := range newImp.ExposingList() {
		newNames = append(newNames, expandExposedEntry(entry, exports)...)
	}

	noLongerExposed, newlyExposed := diffNameSets(oldNames, newNames)

	if len(noLongerExposed) > 0 {
		e.QualifyNames(&new, &r, namesToSet(noLongerExposed), newImp.AliasedName(), nil)
	}
	if len(newlyExposed) > 0 {
		if err := e.UnqualifyNames(&new, &r, namesToSet(newlyExposed), newImp.AliasedName(), nil); err != nil {
			return r, err
		}
	}
	return r, nil
}
