package refactor

import (
	"github.com/viant/elm-pair/internal/query"
)

// importTailEnd is the byte offset right after an import's own name (or its
// as-clause, if present): the insertion point for a brand new exposing
// clause, and the left edge of the range to delete when removing one
// entirely.
func importTailEnd(imp query.Import) int {
	if imp.AsClauseNode != nil {
		return int(imp.AsClauseNode.EndByte())
	}
	return int(imp.NameNode.EndByte())
}

// AddToExposingList inserts name into imp's exposing list in alphabetical
// position, or creates a new ` exposing (...)` clause if imp doesn't have
// one yet. A non-empty ctorType means name is really a
// constructor of that type: the item inserted is `ctorType(..)`, and if the
// type is already exposed without `(..)` the wildcard is appended to the
// existing item instead.
func AddToExposingList(r *Refactor, imp query.Import, name, ctorType string) {
	targetName := name
	insertText := name
	if ctorType != "" {
		targetName = ctorType
		insertText = ctorType + "(..)"
	}

	entries := imp.ExposingList()
	if imp.ExposingListNode == nil {
		r.Insert(importTailEnd(imp), " exposing ("+insertText+")")
		return
	}
	if len(entries) == 0 {
		// `exposing ()` grammar artifact: treat as an empty list.
		r.Add(int(imp.ExposingListNode.StartByte()), int(imp.ExposingListNode.EndByte()), "exposing ("+insertText+")")
		return
	}

	for _, entry := range entries {
		if entry.IsDoubleDot {
			return // `..` already exposes everything.
		}
		switch {
		case targetName == entry.Name:
			// Already exposed. A constructor reference may still need the
			// `(..)` appended to the bare type item.
			if ctorType != "" && !entry.ExposingConstructors {
				r.Insert(int(entry.Node.EndByte()), "(..)")
			}
			return
		case targetName < entry.Name:
			r.Insert(int(entry.Node.StartByte()), insertText+", ")
			return
		}
	}
	last := entries[len(entries)-1]
	r.Insert(int(last.Node.EndByte()), ", "+insertText)
}

// RemoveFromExposingList deletes entry from imp's exposing list along with
// its separating comma, or deletes the whole ` exposing (...)` clause if
// entry was the only item.
func RemoveFromExposingList(r *Refactor, imp query.Import, entry query.ExposedEntry) {
	entries := imp.ExposingList()
	if len(entries) <= 1 {
		r.Add(importTailEnd(imp), int(imp.ExposingListNode.EndByte()), "")
		return
	}
	for i, e := range entries {
		if e.Node != entry.Node {
			continue
		}
		if i == 0 {
			r.Add(int(entry.Node.StartByte()), int(entries[i+1].Node.StartByte()), "")
		} else {
			r.Add(int(entries[i-1].Node.EndByte()), int(entry.Node.EndByte()), "")
		}
		return
	}
}

// RemoveConstructorsWildcard deletes the "(..)" suffix from a type entry
// without removing the type name itself, leaving the type exposed but its
// constructors qualified.
func RemoveConstructorsWildcard(r *Refactor, entry query.ExposedEntry) {
	if entry.ConstructorsNode == nil {
		return
	}
	r.Add(int(entry.ConstructorsNode.StartByte()), int(entry.ConstructorsNode.EndByte()), "")
}
