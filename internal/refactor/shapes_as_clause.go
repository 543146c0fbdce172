package refactor

import (
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/viant/elm-pair/internal/diff"
	"github.com/viant/elm-pair/internal/sourcecode"
)

// onAsClauseChanged fires when the as-clause was added,
// removed, or renamed. The import is re-read from both snapshots, since
// its aliased name before and after is everything this shape needs; every
// qualified reference using the old aliased name is rewritten to the new
// one.
func (e *Engine) onAsClauseChanged(old, new sourcecode.Snapshot, changes diff.Changes) (Refactor, error) {
	return e.changedAsClauseOfImports(old, new, changes.OldParent, changes.NewParent)
}

func (e *Engine) changedAsClauseOfImports(old, new sourcecode.Snapshot, oldImportNode, newImportNode *sitter.Node) (Refactor, error) {
	var r Refactor

	oldImp, ok := e.parseImportNode(&old, oldImportNode)
	if !ok {
		return r, nil
	}
	newImp, ok := e.parseImportNode(&new, newImportNode)
	if !ok {
		return r, nil
	}

	oldAlias := oldImp.AliasedName()
	newAlias := newImp.AliasedName()
	if oldAlias == newAlias {
		return r, nil
	}

	e.rewriteQualifier(&new, &r, oldAlias, newAlias)
	return r, nil
}

// rewriteQualifier replaces the qualifier of every qualified reference in
// code whose qualifier equals from with to.
func (e *Engine) rewriteQualifier(code *sourcecode.Snapshot, r *Refactor, from, to string) {
	for _, ref := range e.Qualified.Run(code) {
		if ref.Qualifier(code) != from {
			continue
		}
		r.Add(ref.QualifierStart, ref.QualifierEnd, to)
	}
}
