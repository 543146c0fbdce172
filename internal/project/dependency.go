package project

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/viant/afs"
)

// DependencyInterfaceReader loads the export surface of a project's
// dependencies from whatever format the compiler's interface file uses.
// The compiler stores this as elm-stuff/0.19.1/i.dat, a binary format; the
// format stays behind this interface, with one concrete implementation
// below for hosts without a real elm compiler installed.
type DependencyInterfaceReader interface {
	ReadDependencyExports(ctx context.Context, projectRoot string) (map[string]Module, error)
}

// jsonExport is the on-disk shape jsonDependencyReader expects, one entry
// per exported name.
type jsonExport struct {
	Module       string   `json:"module"`
	Kind         string   `json:"kind"` // "value" | "type" | "recordTypeAlias"
	Name         string   `json:"name"`
	Constructors []string `json:"constructors,omitempty"`
}

// jsonDependencyReader reads a JSON-shaped stand-in for the compiler's
// binary interface file (elm-stuff/0.19.1/i.json by convention), using
// afs.Service so a remote or virtual project root works unmodified.
type jsonDependencyReader struct {
	fs           afs.Service
	relativePath string
}

// NewJSONDependencyReader returns a DependencyInterfaceReader backed by a
// JSON file at <projectRoot>/elm-stuff/0.19.1/i.json.
func NewJSONDependencyReader(fs afs.Service) DependencyInterfaceReader {
	return NewJSONDependencyReaderAt(fs, filepath.Join("elm-stuff", "0.19.1", "i.json"))
}

// NewJSONDependencyReaderAt is NewJSONDependencyReader with the interface
// file's path (relative to a project root) overridden, wiring
// config.Config.DependencyInterfaceFile through for hosts that keep it
// somewhere other than the default.
func NewJSONDependencyReaderAt(fs afs.Service, relativePath string) DependencyInterfaceReader {
	if fs == nil {
		fs = afs.New()
	}
	if relativePath == "" {
		relativePath = filepath.Join("elm-stuff", "0.19.1", "i.json")
	}
	return &jsonDependencyReader{fs: fs, relativePath: relativePath}
}

func (r *jsonDependencyReader) ReadDependencyExports(ctx context.Context, projectRoot string) (map[string]Module, error) {
	path := filepath.Join(projectRoot, r.relativePath)
	exists, err := r.fs.Exists(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("project: checking dependency interface %s: %w", path, err)
	}
	if !exists {
		return map[string]Module{}, nil
	}
	data, err := r.fs.DownloadWithURL(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("project: reading dependency interface %s: %w", path, err)
	}

	var entries []jsonExport
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("project: decoding dependency interface %s: %w", path, err)
	}

	mods := map[string]Module{}
	for _, e := range entries {
		mod := mods[e.Module]
		mod.Name = e.Module
		switch e.Kind {
		case "type":
			mod.Exports = append(mod.Exports, ExportedName{Kind: ExportedType, Name: e.Name, Constructors: e.Constructors})
		case "recordTypeAlias":
			mod.Exports = append(mod.Exports, ExportedName{Kind: ExportedRecordTypeAlias, Name: e.Name})
		default:
			mod.Exports = append(mod.Exports, ExportedName{Kind: ExportedValue, Name: e.Name})
		}
		mods[e.Module] = mod
	}
	return mods, nil
}
