package refactor

import (
	"fmt"
	"sort"
	"strings"

	"github.com/viant/elm-pair/internal/project"
	"github.com/viant/elm-pair/internal/query"
	"github.com/viant/elm-pair/internal/sourcecode"
)

// QualifyNames inserts "<qualifier>." immediately before every unqualified
// occurrence in code whose (text, kind) is in names, skipping any
// occurrence inside skip, typically the node the programmer just edited,
// so a refactor never re-qualifies the very reference that triggered it.
func (e *Engine) QualifyNames(code *sourcecode.Snapshot, r *Refactor, names map[Name]bool, qualifier string, skip []ByteRange) {
	if len(names) == 0 {
		return
	}
	for _, ref := range e.Unqualified.Run(code) {
		if ref.IsDeclaration {
			// A binding site can never carry a qualifier.
			continue
		}
		n := Name{Text: ref.Name(code), Kind: ref.Kind}
		if !names[n] {
			continue
		}
		start := int(ref.NameNode.StartByte())
		if anyContains(skip, start) {
			continue
		}
		r.Insert(start, qualifier+".")
	}
}

// qualifyValue hides one name behind its import's qualifier:
// drop it from the exposing list (or all constructors of its owning type,
// since Elm forbids exposing a proper subset of them), then qualify every
// remaining occurrence outside skip.
//
// When the import exposes everything via `..`, removeExposeAll picks one
// of two behaviors: false keeps the wildcard intact and qualifies just the
// one name (plus sibling constructors); true replaces the wildcard with an
// explicit list of the names still in use, minus the one being qualified.
// The latter is what the collision resolution needs: leaving `..` in
// place would re-expose the very name it just freed up.
func (e *Engine) qualifyValue(code *sourcecode.Snapshot, r *Refactor, skip []ByteRange, qualifier string, ref Name, removeExposeAll bool) error {
	imp, ok := e.Imports.ByAliasedName(code, qualifier)
	if !ok {
		return nil
	}
	exports, _ := e.Index.ExportsOf(imp.UnaliasedName())

	entries := imp.ExposingList()
	toQualify := map[Name]bool{}

	remove := func(entry query.ExposedEntry) {
		RemoveFromExposingList(r, imp, entry)
	}

loop:
	for _, entry := range entries {
		switch {
		case entry.IsDoubleDot:
			if removeExposeAll {
				e.shrinkExposeAll(code, r, entry, exports, ref)
			}
			switch ref.Kind {
			case query.KindOperator:
				return fmt.Errorf("refactor: cannot qualify operator %q, Elm does not allow qualified operators", ref.Text)
			case query.KindValue, query.KindType:
				toQualify[ref] = true
			case query.KindConstructor:
				// We know a constructor got qualified, but not which type it
				// belongs to; the type must be among the module's exports.
				if owning, found := owningType(exports, ref.Text); found {
					for _, ctor := range owning.Constructors {
						toQualify[Name{Text: ctor, Kind: query.KindConstructor}] = true
					}
				}
				break loop
			}

		case entry.Kind == query.KindOperator:
			if entry.Name == ref.Text && ref.Kind == query.KindOperator {
				return fmt.Errorf("refactor: cannot qualify operator %q, Elm does not allow qualified operators", ref.Text)
			}

		case entry.Kind == query.KindValue:
			if entry.Name == ref.Text && ref.Kind == query.KindValue {
				remove(entry)
				toQualify[ref] = true
				break loop
			}

		case entry.Kind == query.KindType:
			entryRemoved := false
			if entry.Name == ref.Text && ref.Kind == query.KindType {
				remove(entry)
				entryRemoved = true
				toQualify[ref] = true
			}
			ctors, found := constructorsOfExports(exports, entry.Name)
			switch {
			case !found:
			case ctors.IsAlias:
				if ctors.AliasName == ref.Text {
					if !entryRemoved {
						remove(entry)
					}
					toQualify[Name{Text: ctors.AliasName, Kind: query.KindType}] = true
					toQualify[Name{Text: ctors.AliasName, Kind: query.KindConstructor}] = true
				}
			default:
				if !entryRemoved && ref.Kind == query.KindConstructor && containsString(ctors.Constructors, ref.Text) {
					// Elm forbids exposing a proper subset of a type's
					// constructors, so qualifying one means qualifying all.
					RemoveConstructorsWildcard(r, entry)
					for _, ctor := range ctors.Constructors {
						toQualify[Name{Text: ctor, Kind: query.KindConstructor}] = true
					}
				}
			}
		}
	}

	e.QualifyNames(code, r, toQualify, imp.AliasedName(), skip)
	return nil
}

// shrinkExposeAll replaces a `..` wildcard entry with an explicit,
// alphabetized list of the module's exports still used unqualified in the
// file, minus the reference currently being qualified.
func (e *Engine) shrinkExposeAll(code *sourcecode.Snapshot, r *Refactor, entry query.ExposedEntry, exports []project.ExportedName, ref Name) {
	type exposedCandidate struct {
		name   Name
		insert string
	}
	var candidates []exposedCandidate
	for _, exp := range exports {
		switch exp.Kind {
		case project.ExportedValue:
			candidates = append(candidates, exposedCandidate{Name{exp.Name, query.KindValue}, exp.Name})
		case project.ExportedRecordTypeAlias:
			candidates = append(candidates,
				exposedCandidate{Name{exp.Name, query.KindType}, exp.Name},
				exposedCandidate{Name{exp.Name, query.KindConstructor}, exp.Name})
		case project.ExportedType:
			candidates = append(candidates, exposedCandidate{Name{exp.Name, query.KindType}, exp.Name})
			for _, ctor := range exp.Constructors {
				candidates = append(candidates, exposedCandidate{Name{ctor, query.KindConstructor}, exp.Name + "(..)"})
			}
		}
	}

	inUse := map[Name]bool{}
	for _, u := range e.Unqualified.Run(code) {
		if u.IsDeclaration {
			continue
		}
		inUse[Name{Text: u.Name(code), Kind: u.Kind}] = true
	}
	delete(inUse, ref)

	sort.Slice(candidates, func(i, j int) bool { return candidates[i].name.Text < candidates[j].name.Text })

	var parts []string
	seen := map[string]bool{}
	for _, c := range candidates {
		if !inUse[c.name] || seen[c.insert] {
			continue
		}
		seen[c.insert] = true
		parts = append(parts, c.insert)
	}
	r.Add(int(entry.Node.StartByte()), int(entry.Node.EndByte()), strings.Join(parts, ", "))
}

func containsString(haystack []string, needle string) bool {
	for _, s := range haystack {
		if s == needle {
			return true
		}
	}
	return false
}
