package refactor

import (
	"github.com/viant/elm-pair/internal/diff"
	"github.com/viant/elm-pair/internal/sourcecode"
)

// onExposingAdded handles an exposing clause added
// where the import previously had none. Every item it exposes becomes
// unqualified across the file.
func (e *Engine) onExposingAdded(old, new sourcecode.Snapshot, changes diff.Changes) (Refactor, error) {
	var r Refactor

	imp, ok := e.parseImportNode(&new, changes.NewParent)
	if !ok {
		return r, nil
	}
	exports, ok := e.Index.ExportsOf(imp.UnaliasedName())
	if !ok {
		return r, nil
	}

	var newNames []Name
	for _, entry := range imp.ExposingList() {
		newNames = append(newNames, expandExposedEntry(entry, exports)...)
	}

	exposingList := changes.NewAdded[0]
	skip := []ByteRange{{Start: int(exposingList.StartByte()), End: int(exposingList.EndByte())}}
	if err := e.UnqualifyNames(&new, &r, namesToSet(newNames), imp.AliasedName(), skip); err != nil {
		return r, err
	}
	return r, nil
}

// onExposingRemoved fires when the whole exposing clause was
// deleted. Every item it used to expose gets qualified across the file,
// reading the removed list from the old snapshot since the new one no
// longer has it.
func (e *Engine) onExposingRemoved(old, new sourcecode.Snapshot, changes diff.Changes) (Refactor, error) {
	var r Refactor

	oldImp, ok := e.parseImportNode(&old, changes.OldParent)
	if !ok {
		return r, nil
	}
	exports, ok := e.Index.ExportsOf(oldImp.UnaliasedName())
	if !ok {
		return r, nil
	}

	var oldNames []Name
	for _, entry := range oldImp.ExposingList() {
		oldNames = append(oldNames, expandExposedEntry(entry, exports)...)
	}

	e.QualifyNames(&new, &r, namesToSet(oldNames), oldImp.AliasedName(), nil)
	return r, nil
}
