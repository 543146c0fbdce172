package refactor

import (
	"github.com/viant/elm-pair/internal/diff"
	"github.com/viant/elm-pair/internal/langelm"
	"github.com/viant/elm-pair/internal/sourcecode"
)

// onUnrecognized runs when the edit didn't fit any known
// shape. It still runs, because the programmer may have typed a qualifier
// for a module that isn't imported yet, in which case elm-pair inserts the
// import for them rather than guessing at a rename.
func (e *Engine) onUnrecognized(old, new sourcecode.Snapshot, changes diff.Changes) (Refactor, error) {
	var r Refactor
	scanRoot := changes.NewParent
	if scanRoot == nil {
		scanRoot = new.Tree.RootNode()
	}

	existing := map[string]bool{}
	for _, imp := range e.Imports.Run(&new) {
		existing[imp.AliasedName()] = true
	}

	seen := map[string]bool{}
	for _, ref := range e.Qualified.RunIn(&new, scanRoot) {
		qualifier := ref.Qualifier(&new)
		if existing[qualifier] || seen[qualifier] || langelm.IsImplicitImport(qualifier) {
			continue
		}
		if _, ok := e.Index.ExportsOf(qualifier); !ok {
			continue
		}
		seen[qualifier] = true
		at := insertionPoint(&new)
		r.Insert(at, "import "+qualifier+"\n")
	}
	return r, nil
}

// insertionPoint finds the file's first non-declaration, non-block-comment
// position: the start of the first top-level node that isn't the module
// declaration or a leading block comment (typically the first existing
// import, or the first declaration when the file has none).
func insertionPoint(code *sourcecode.Snapshot) int {
	root := code.Tree.RootNode()
	count := int(root.NamedChildCount())
	for i := 0; i < count; i++ {
		child := root.NamedChild(i)
		switch child.Type() {
		case langelm.KindModuleDeclaration, langelm.KindBlockComment:
			continue
		default:
			return int(child.StartByte())
		}
	}
	return len(code.Bytes)
}
