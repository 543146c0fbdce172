// Package project maintains the index of which names each Elm module
// exports: the project-wide context the refactor planner consults whenever
// it needs to know what a qualifier's module exposes.
package project

import (
	"sync"

	"github.com/viant/elm-pair/internal/query"
)

// ExportedKind distinguishes the three shapes an exported name can take.
// RecordTypeAlias is kept apart from Type because the exposing-list grammar
// for the two differs: a record type alias's bare name already doubles as
// its one constructor, while a custom type needs `(..)` to expose its
// constructors.
type ExportedKind int

const (
	ExportedValue ExportedKind = iota
	ExportedType
	ExportedRecordTypeAlias
)

// ExportedName is one name a module makes available to importers.
type ExportedName struct {
	Kind         ExportedKind
	Name         string
	Constructors []string
}

// NameKind reports the query.NameKind an unqualified occurrence of this
// export would have. A Type export additionally answers as a Constructor
// kind for each of its constructors (handled by the caller, since one
// ExportedName can yield several Names).
func (e ExportedName) NameKind() query.NameKind {
	switch e.Kind {
	case ExportedValue:
		return query.KindValue
	default:
		return query.KindType
	}
}

// Module is one Elm module's export surface.
type Module struct {
	Name    string
	Exports []ExportedName
}

// Index is the map from module name to its export surface. It is one map
// for every indexed project root: modules are not keyed by root, so when
// two roots each have a module of the same name, the entry merged last wins.
// The same Index is read by the analysis loop's refactor engine and written
// by the dependency loader and the in-project file watcher concurrently, so
// every access goes through the mutex.
type Index struct {
	mu      sync.RWMutex
	modules map[string]Module
}

// NewIndex returns an empty index.
func NewIndex() *Index {
	return &Index{modules: map[string]Module{}}
}

// Set replaces (or adds) the export surface for one module.
func (ix *Index) Set(module Module) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	if ix.modules == nil {
		ix.modules = map[string]Module{}
	}
	ix.modules[module.Name] = module
}

// Merge installs every module in mods, overwriting any existing entry with
// the same name.
func (ix *Index) Merge(mods map[string]Module) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	if ix.modules == nil {
		ix.modules = map[string]Module{}
	}
	for name, mod := range mods {
		ix.modules[name] = mod
	}
}

// ExportsOf returns the ordered export list for moduleName, or ok=false if
// the module isn't (yet) known. Callers get a copy; the index's own slice
// is never handed out.
func (ix *Index) ExportsOf(moduleName string) ([]ExportedName, bool) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	mod, ok := ix.modules[moduleName]
	if !ok {
		return nil, false
	}
	out := make([]ExportedName, len(mod.Exports))
	copy(out, mod.Exports)
	return out, true
}
