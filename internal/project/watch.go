package project

import (
	"context"
	"os"

	"github.com/fsnotify/fsnotify"
	"github.com/minio/highwayhash"

	"github.com/viant/elm-pair/internal/daemonlog"
)

// hashKey is a fixed 32-byte key; the hash only detects unchanged bytes,
// nothing security sensitive, so a constant key is fine.
var hashKey = []byte("elm-pair-project-index-watch-key")

func contentHash(data []byte) uint64 {
	h, err := highwayhash.New64(hashKey)
	if err != nil {
		return 0
	}
	_, _ = h.Write(data)
	return h.Sum64()
}

// Watcher recomputes index entries when the filesystem changes underneath
// them, skipping the recompute when the new bytes hash identically to what
// it already indexed (an editor autosave often rewrites a file with the
// exact same content).
type Watcher struct {
	fsWatcher   *fsnotify.Watcher
	loader      *ModuleLoader
	deps        DependencyInterfaceReader
	index       *Index
	hashes      map[string]uint64
	elmVersion  func(ctx context.Context) (string, error)
	versionOnce map[string]bool
}

// NewWatcher wraps an fsnotify.Watcher and wires it to recompute index into
// the given Index whenever a watched path changes.
func NewWatcher(loader *ModuleLoader, deps DependencyInterfaceReader, index *Index) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{
		fsWatcher:   fw,
		loader:      loader,
		deps:        deps,
		index:       index,
		hashes:      map[string]uint64{},
		versionOnce: map[string]bool{},
	}, nil
}

// WithElmVersionCheck makes the first Refresh of each project root probe the
// installed compiler's version (via probe, typically
// compiler.SubprocessDriver.Version) and warn if it falls outside elm.json's
// declared elm-version constraint.
func (w *Watcher) WithElmVersionCheck(probe func(ctx context.Context) (string, error)) *Watcher {
	w.elmVersion = probe
	return w
}

// Watch adds root to the set of watched directories. The caller is expected
// to have already populated the index for root once via Refresh.
func (w *Watcher) Watch(root string) error {
	return w.fsWatcher.Add(root)
}

// Close stops watching.
func (w *Watcher) Close() error {
	return w.fsWatcher.Close()
}

// Run processes fsnotify events until ctx is done, recomputing a project's
// index entry whenever a watched file changes content. Only the root
// directory itself is watched (fsnotify does not recurse), so changes to
// files in its subdirectories raise no events.
func (w *Watcher) Run(ctx context.Context, rootOf func(path string) string) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			w.handleEvent(ctx, event, rootOf)
		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			daemonlog.L().WithField("component", "project.watch").WithError(err).Warn("fsnotify error")
		}
	}
}

func (w *Watcher) handleEvent(ctx context.Context, event fsnotify.Event, rootOf func(path string) string) {
	data, err := os.ReadFile(event.Name)
	if err != nil {
		// Removal, or a transient read race with the editor's own save;
		// either way there's nothing new to hash or index here.
		return
	}
	h := contentHash(data)
	if w.hashes[event.Name] == h {
		return
	}
	w.hashes[event.Name] = h

	root := rootOf(event.Name)
	if root == "" {
		return
	}
	if err := w.Refresh(ctx, root); err != nil {
		daemonlog.L().WithField("project_root", root).WithError(err).Warn("failed to refresh project index")
	}
}

// Refresh reloads both the dependency exports and the in-project modules for
// root and installs them into the index.
func (w *Watcher) Refresh(ctx context.Context, root string) error {
	w.checkElmVersionOnce(ctx, root)

	deps, err := w.deps.ReadDependencyExports(ctx, root)
	if err != nil {
		return err
	}
	w.index.Merge(deps)

	mods, err := w.loader.LoadProjectModules(ctx, root)
	if err != nil {
		return err
	}
	w.index.Merge(mods)
	return nil
}

func (w *Watcher) checkElmVersionOnce(ctx context.Context, root string) {
	if w.elmVersion == nil || w.versionOnce[root] {
		return
	}
	w.versionOnce[root] = true

	manifest, ok, err := LoadManifest(ctx, w.loader.fs, root)
	if err != nil || !ok {
		return
	}
	version, err := w.elmVersion(ctx)
	if err != nil {
		daemonlog.L().WithField("project_root", root).WithError(err).Debug("project: could not determine installed elm version")
		return
	}
	manifest.CheckElmVersion(version)
}
