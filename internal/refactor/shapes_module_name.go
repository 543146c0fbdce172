package refactor

import (
	"github.com/viant/elm-pair/internal/diff"
	"github.com/viant/elm-pair/internal/langelm"
	"github.com/viant/elm-pair/internal/sourcecode"
)

// onModuleNameChanged handles a changed module-name segment. What it means
// depends on the parent the tree differ settled
// on: inside an as-clause it's just an alias rename; inside a
// value/type/constructor qualifier the import's as-clause is edited to
// match the new qualifier and every other reference follows. A segment
// edit inside the import statement's own module path names a different
// module on disk; nothing this side of the filesystem can compensate for
// that, so it's left alone.
func (e *Engine) onModuleNameChanged(old, new sourcecode.Snapshot, changes diff.Changes) (Refactor, error) {
	var r Refactor

	switch changes.OldParent.Type() {
	case langelm.KindAsClause:
		return e.changedAsClauseOfImports(old, new, parentOf(changes.OldParent), parentOf(changes.NewParent))
	case langelm.KindValueQid, langelm.KindTypeQid, langelm.KindConstructorQid:
	default:
		return r, nil
	}

	oldRef, ok := e.Qualified.FirstIn(&old, changes.OldParent)
	if !ok {
		return r, nil
	}
	newRef, ok := e.Qualified.FirstIn(&new, changes.NewParent)
	if !ok {
		return r, nil
	}
	oldQualifier := oldRef.Qualifier(&old)
	newQualifier := newRef.Qualifier(&new)
	if oldQualifier == newQualifier {
		return r, nil
	}

	imp, ok := e.Imports.ByAliasedName(&new, oldQualifier)
	if !ok {
		return r, nil
	}

	switch {
	case newQualifier == imp.UnaliasedName():
		// The new qualifier is the module's own name: the alias is obsolete.
		if imp.AsClauseNode != nil {
			r.Add(int(imp.NameNode.EndByte()), int(imp.AsClauseNode.EndByte()), "")
		}
	case imp.AsClauseNode != nil:
		alias := imp.AliasNameNode()
		r.Add(int(alias.StartByte()), int(alias.EndByte()), newQualifier)
	default:
		r.Insert(int(imp.NameNode.EndByte()), " as "+newQualifier)
	}

	e.rewriteQualifier(&new, &r, oldQualifier, newQualifier)
	return r, nil
}
