package refactor

import (
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/viant/elm-pair/internal/sourcecode"
)

// UnqualifyNames strips "<stripQualifier>." from every occurrence of names
// currently qualified by it, resolving naming collisions first:
//
//   - a name bound locally (a let binding, an argument, a declaration) is
//     renamed with the smallest free trailing digit, throughout the
//     binding's scope;
//   - a name exposed by another import stops being exposed there, and its
//     remaining bare uses get qualified with that import's name instead.
//
// Both can apply to the same name at once: a file with a local `x` and an
// `import A exposing (x)` needs the local one renamed and the uses of A's
// one qualified before a third module's `x` can go bare.
//
// skip marks byte ranges (typically the edited node) that must not be
// touched by either the collision resolution or the final unqualify pass.
func (e *Engine) UnqualifyNames(code *sourcecode.Snapshot, r *Refactor, names map[Name]bool, stripQualifier string, skip []ByteRange) error {
	if len(names) == 0 {
		return nil
	}

	unqualified := e.Unqualified.Run(code)
	namesInUse := map[Name]bool{}
	declarations := map[Name][]*sitter.Node{}
	for _, ref := range unqualified {
		n := Name{Text: ref.Name(code), Kind: ref.Kind}
		namesInUse[n] = true
		if ref.IsDeclaration && !anyContains(skip, int(ref.NameNode.StartByte())) {
			declarations[n] = append(declarations[n], ref.NameNode)
		}
	}

	namesFromOtherImports := map[Name]string{}
	for _, imp := range e.Imports.Run(code) {
		if imp.AliasedName() == stripQualifier {
			continue
		}
		if anyContains(skip, int(imp.RootNode.StartByte())) {
			continue
		}
		exports, ok := e.Index.ExportsOf(imp.UnaliasedName())
		if !ok {
			continue
		}
		for _, entry := range imp.ExposingList() {
			for _, n := range expandExposedEntry(entry, exports) {
				namesFromOtherImports[n] = imp.AliasedName()
			}
		}
	}

	for name := range names {
		if !namesInUse[name] {
			continue
		}

		renamedScopes := append([]ByteRange(nil), skip...)
		wholeFileRenamed := false
		if decls := declarations[name]; len(decls) > 0 {
			renamed, err := freeName(name, namesInUse)
			if err != nil {
				return err
			}
			scopes := map[ByteRange]bool{}
			for _, decl := range decls {
				scope := bindingScope(decl)
				if scope == nil {
					wholeFileRenamed = true
					break
				}
				scopes[ByteRange{Start: int(scope.StartByte()), End: int(scope.EndByte())}] = true
			}
			if wholeFileRenamed {
				e.renameUnqualified(code, r, name, renamed, nil, skip)
			} else {
				for scope := range scopes {
					scope := scope
					e.renameUnqualified(code, r, name, renamed, &scope, skip)
					renamedScopes = append(renamedScopes, scope)
				}
			}
			namesInUse[renamed] = true
		}

		if wholeFileRenamed {
			continue
		}
		if otherQualifier, ok := namesFromOtherImports[name]; ok {
			// The other import stops exposing the colliding name; its `..`
			// wildcard, if that's how the name was exposed, shrinks to an
			// explicit list so the name really is freed up.
			if err := e.qualifyValue(code, r, renamedScopes, otherQualifier, name, true); err != nil {
				return err
			}
		}
	}

	for _, ref := range e.Qualified.Run(code) {
		name := Name{Text: ref.Name(code), Kind: ref.Kind}
		if !names[name] || ref.Qualifier(code) != stripQualifier {
			continue
		}
		if anyContains(skip, int(ref.ReferenceNode.StartByte())) {
			continue
		}
		r.Add(int(ref.ReferenceNode.StartByte()), int(ref.NameNode.StartByte()), "")
	}
	return nil
}

// bindingScope returns the node delimiting where a binding introduced at
// decl is visible: the enclosing let expression or lambda, the enclosing
// declaration for an argument pattern, or nil for a top-level name (visible
// file-wide).
func bindingScope(decl *sitter.Node) *sitter.Node {
	isPattern := decl.Type() == "lower_pattern"
	for p := decl.Parent(); p != nil; p = p.Parent() {
		switch p.Type() {
		case "let_in_expr", "anonymous_function_expr":
			return p
		case "value_declaration":
			if isPattern {
				return p
			}
		}
	}
	return nil
}

// renameUnqualified rewrites every bare occurrence of from within scope
// (the whole file when scope is nil) to to.Text, leaving occurrences inside
// skip untouched, i.e. the newly-unqualified occurrence that forced this rename
// in the first place.
func (e *Engine) renameUnqualified(code *sourcecode.Snapshot, r *Refactor, from, to Name, scope *ByteRange, skip []ByteRange) {
	for _, ref := range e.Unqualified.Run(code) {
		n := Name{Text: ref.Name(code), Kind: ref.Kind}
		if n != from {
			continue
		}
		start := int(ref.NameNode.StartByte())
		if anyContains(skip, start) {
			continue
		}
		if scope != nil && !scope.Contains(start) {
			continue
		}
		r.Add(start, int(ref.NameNode.EndByte()), to.Text)
	}
}

// freeName finds the smallest integer suffix >= 2 appended to name.Text
// that doesn't collide with any name already in use: "foo" -> "foo2", then
// "foo3".
func freeName(name Name, inUse map[Name]bool) (Name, error) {
	for digit := 2; digit < 100000; digit++ {
		candidate := Name{Text: fmt.Sprintf("%s%d", name.Text, digit), Kind: name.Kind}
		if !inUse[candidate] {
			return candidate, nil
		}
	}
	return Name{}, fmt.Errorf("refactor: ran out of free names for %q", name.Text)
}
