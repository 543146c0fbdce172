package project

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/viant/afs"
	"github.com/viant/afs/url"

	"github.com/viant/elm-pair/internal/query"
	"github.com/viant/elm-pair/internal/sourcecode"
)

// ModuleLoader re-parses in-project .elm source files far enough to run the
// exports query over them, augmenting the index beyond what the dependency
// interface file already supplies.
type ModuleLoader struct {
	fs      afs.Service
	exports *query.Exports
}

// NewModuleLoader builds a loader over fs (afs.New() if nil) using a freshly
// compiled exports query.
func NewModuleLoader(fs afs.Service) (*ModuleLoader, error) {
	exports, err := query.NewExports()
	if err != nil {
		return nil, err
	}
	if fs == nil {
		fs = afs.New()
	}
	return &ModuleLoader{fs: fs, exports: exports}, nil
}

// LoadProjectModules walks every .elm file under root's source directories,
// as declared by elm.json's source-directories list (internal/project's
// Manifest), and returns each module's export surface keyed by its dotted
// module name as declared at the top of the file. If root has no elm.json,
// or it fails to parse, this falls back to walking root itself so a .elm
// file outside a recognizable Elm project still gets indexed.
func (l *ModuleLoader) LoadProjectModules(ctx context.Context, root string) (map[string]Module, error) {
	dirs := []string{root}
	if manifest, ok, err := LoadManifest(ctx, l.fs, root); err == nil && ok {
		dirs = manifest.SourceDirectories
	}

	mods := map[string]Module{}
	for _, dir := range dirs {
		if err := l.walkDir(ctx, dir, mods); err != nil {
			return nil, err
		}
	}
	return mods, nil
}

func (l *ModuleLoader) walkDir(ctx context.Context, dir string, mods map[string]Module) error {
	var walkErr error
	visitor := func(ctx context.Context, baseURL, parent string, info os.FileInfo, reader io.Reader) (bool, error) {
		if info.IsDir() {
			return true, nil
		}
		if !strings.HasSuffix(info.Name(), ".elm") {
			return true, nil
		}
		data, err := io.ReadAll(reader)
		if err != nil {
			walkErr = fmt.Errorf("project: reading %s: %w", url.Join(baseURL, parent, info.Name()), err)
			return false, nil
		}
		mod, ok, err := l.loadOne(ctx, data)
		if err != nil || !ok {
			return true, nil
		}
		mods[mod.Name] = mod
		return true, nil
	}
	if err := l.fs.Walk(ctx, dir, visitor); err != nil {
		return fmt.Errorf("project: walking %s: %w", dir, err)
	}
	return walkErr
}

func (l *ModuleLoader) loadOne(ctx context.Context, data []byte) (Module, bool, error) {
	snapshot, err := sourcecode.NewSnapshot(ctx, sourcecode.Buffer{}, data)
	if err != nil {
		return Module{}, false, err
	}
	if snapshot.HasParseErrors() {
		return Module{}, false, nil
	}

	moduleName := moduleDeclarationName(&snapshot)
	if moduleName == "" {
		return Module{}, false, nil
	}

	_, declared := l.exports.Run(&snapshot)
	mod := Module{Name: moduleName}
	for _, d := range declared {
		switch d.Kind {
		case query.KindValue:
			mod.Exports = append(mod.Exports, ExportedName{Kind: ExportedValue, Name: d.Name})
		case query.KindType:
			if d.IsRecordAlias {
				mod.Exports = append(mod.Exports, ExportedName{Kind: ExportedRecordTypeAlias, Name: d.Name})
			} else {
				mod.Exports = append(mod.Exports, ExportedName{Kind: ExportedType, Name: d.Name, Constructors: d.Constructors})
			}
		}
	}
	return mod, true, nil
}

// moduleDeclarationName reads the dotted module name from the file's module
// declaration (`module Foo.Bar exposing (..)`), or "" if absent/malformed.
func moduleDeclarationName(code *sourcecode.Snapshot) string {
	root := code.Tree.RootNode()
	count := int(root.NamedChildCount())
	for i := 0; i < count; i++ {
		child := root.NamedChild(i)
		if child.Type() != "module_declaration" {
			continue
		}
		nameCount := int(child.NamedChildCount())
		for j := 0; j < nameCount; j++ {
			n := child.NamedChild(j)
			if n.Type() == "upper_case_qid" {
				return string(code.Slice(int(n.StartByte()), int(n.EndByte())))
			}
		}
	}
	return ""
}
