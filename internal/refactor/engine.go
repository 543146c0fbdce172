package refactor

import (
	"fmt"

	"github.com/viant/elm-pair/internal/diff"
	"github.com/viant/elm-pair/internal/project"
	"github.com/viant/elm-pair/internal/query"
	"github.com/viant/elm-pair/internal/sourcecode"
)

// Engine holds the compiled queries and the project index consulted while
// planning a refactor. Built once per process and shared by reference with
// the analysis loop; no hidden singletons, the queries and index live here
// and nowhere else.
type Engine struct {
	Imports     *query.Imports
	Qualified   *query.QualifiedValues
	Unqualified *query.UnqualifiedValues
	Index       *project.Index
}

// NewEngine compiles every query the refactor planner needs.
func NewEngine(index *project.Index) (*Engine, error) {
	imports, err := query.NewImports()
	if err != nil {
		return nil, fmt.Errorf("refactor: compiling imports query: %w", err)
	}
	qualified, err := query.NewQualifiedValues()
	if err != nil {
		return nil, fmt.Errorf("refactor: compiling qualified-values query: %w", err)
	}
	unqualified, err := query.NewUnqualifiedValues()
	if err != nil {
		return nil, fmt.Errorf("refactor: compiling unqualified-values query: %w", err)
	}
	return &Engine{Imports: imports, Qualified: qualified, Unqualified: unqualified, Index: index}, nil
}

// RespondToChange is the full diff→classify→plan pipeline for one buffer:
// given the old (last-compiling) and new (latest) snapshots, it narrows the
// change with diff.Trees, classifies it, and dispatches to the matching
// shape handler. A Refactor with no Changes means either nothing changed or
// the edit could not be classified into anything the engine knows how to
// fix; either way the engine never guesses.
func (e *Engine) RespondToChange(old, new sourcecode.Snapshot) (Refactor, error) {
	changes := diff.Trees(diff.Diff{Old: old, New: new})
	shape := Classify(changes)

	switch shape {
	case ShapeNoChange:
		return Refactor{}, nil
	case ShapeChangedExposingList:
		return e.onChangedExposingList(old, new, changes)
	case ShapeQualifierAdded:
		return e.onQualifierAdded(old, new, changes)
	case ShapeQualifierRemoved:
		return e.onQualifierRemoved(old, new, changes)
	case ShapeExposingAdded:
		return e.onExposingAdded(old, new, changes)
	case ShapeExposingRemoved:
		return e.onExposingRemoved(old, new, changes)
	case ShapeCtorsAdded:
		return e.onCtorsAdded(old, new, changes)
	case ShapeCtorsRemoved:
		return e.onCtorsRemoved(old, new, changes)
	case ShapeAsClauseChanged:
		return e.onAsClauseChanged(old, new, changes)
	case ShapeModuleNameChanged:
		return e.onModuleNameChanged(old, new, changes)
	default:
		return e.onUnrecognized(old, new, changes)
	}
}
