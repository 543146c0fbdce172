package project

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/viant/afs"
	"golang.org/x/mod/semver"

	"github.com/viant/elm-pair/internal/daemonlog"
)

// Manifest is the subset of elm.json ModuleLoader and Watcher need: where
// the project's own source lives, and which elm-version the project was
// written against. A daemon that shells out to whatever `elm` is on $PATH
// benefits from flagging a likely mismatch before compilation fails
// mysteriously.
type Manifest struct {
	// SourceDirectories are resolved to absolute paths, project-root-relative
	// entries joined against the root they were loaded from.
	SourceDirectories []string
	// ElmVersionConstraint is elm.json's raw "elm-version" field: either an
	// exact version ("0.19.1", applications) or a range
	// ("0.19.0 <= v < 0.20.0", packages).
	ElmVersionConstraint string
}

// rawManifest mirrors the fields of elm.json this package reads; every
// other field (dependencies, type, name, ...) is intentionally ignored.
type rawManifest struct {
	SourceDirectories []string `json:"source-directories"`
	ElmVersion        string   `json:"elm-version"`
}

// LoadManifest reads and parses <root>/elm.json. A missing file is not an
// error: callers fall back to walking the whole project root.
func LoadManifest(ctx context.Context, fs afs.Service, root string) (Manifest, bool, error) {
	path := filepath.Join(root, "elm.json")
	exists, err := fs.Exists(ctx, path)
	if err != nil {
		return Manifest{}, false, fmt.Errorf("project: checking %s: %w", path, err)
	}
	if !exists {
		return Manifest{}, false, nil
	}
	data, err := fs.DownloadWithURL(ctx, path)
	if err != nil {
		return Manifest{}, false, fmt.Errorf("project: reading %s: %w", path, err)
	}
	var raw rawManifest
	if err := json.Unmarshal(data, &raw); err != nil {
		return Manifest{}, false, fmt.Errorf("project: parsing %s: %w", path, err)
	}

	m := Manifest{ElmVersionConstraint: raw.ElmVersion}
	if len(raw.SourceDirectories) == 0 {
		m.SourceDirectories = []string{root}
	} else {
		for _, dir := range raw.SourceDirectories {
			m.SourceDirectories = append(m.SourceDirectories, filepath.Join(root, dir))
		}
	}
	return m, true, nil
}

// CheckElmVersion logs a warning if compilerVersion (e.g. "0.19.1", as
// reported by `elm --version`) falls outside the manifest's elm-version
// constraint, using golang.org/x/mod/semver for the comparisons; package
// manifests express this as a half-open range ("min <= v < max"), so a
// plain string-equality check isn't enough. Best-effort: an unparseable
// constraint or version is logged and otherwise ignored, never fatal.
func (m Manifest) CheckElmVersion(compilerVersion string) {
	if m.ElmVersionConstraint == "" || compilerVersion == "" {
		return
	}
	v := "v" + strings.TrimPrefix(compilerVersion, "v")
	if !semver.IsValid(v) {
		return
	}
	ok, known := satisfiesConstraint(m.ElmVersionConstraint, v)
	if !known {
		return
	}
	if !ok {
		daemonlog.L().
			WithField("elm_version", compilerVersion).
			WithField("constraint", m.ElmVersionConstraint).
			Warn("project: installed elm compiler does not satisfy elm.json's elm-version")
	}
}

// satisfiesConstraint understands the two shapes elm.json's elm-version
// field actually takes: an exact version ("0.19.1") or a package-style
// half-open range ("0.19.0 <= v < 0.20.0"). known is false if constraint
// doesn't match either shape.
func satisfiesConstraint(constraint, v string) (ok bool, known bool) {
	fields := strings.Fields(constraint)
	if len(fields) == 1 {
		exact := "v" + strings.TrimPrefix(fields[0], "v")
		if !semver.IsValid(exact) {
			return false, false
		}
		return semver.Compare(v, exact) == 0, true
	}
	if len(fields) == 5 && fields[1] == "<=" && fields[2] == "v" && fields[3] == "<" {
		min := "v" + strings.TrimPrefix(fields[0], "v")
		max := "v" + strings.TrimPrefix(fields[4], "v")
		if !semver.IsValid(min) || !semver.IsValid(max) {
			return false, false
		}
		return semver.Compare(v, min) >= 0 && semver.Compare(v, max) < 0, true
	}
	return false, false
}
