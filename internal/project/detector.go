package project

import (
	"os"
	"path/filepath"
)

// Detector walks up from a buffer's path looking for a project root:
// elm.json first, then a handful of generic repository markers, so a .elm
// file living inside a polyglot repo whose nearest ancestor manifest is
// e.g. go.mod still resolves to a sane root for logging and diagnostics
// rather than reporting no root at all.
type Detector struct {
	fallbackMarkers []string
}

// NewDetector returns a Detector with the default fallback marker list.
func NewDetector() *Detector {
	return &Detector{
		fallbackMarkers: []string{
			"go.mod",
			"pom.xml",
			"build.gradle",
			"package.json",
			"Cargo.toml",
			".git",
		},
	}
}

// RootFor returns the elm.json-rooted project directory for filePath, or the
// nearest fallback marker's directory if no elm.json is found anywhere above
// it. Returns "" if neither is found before the filesystem root.
func (d *Detector) RootFor(filePath string) string {
	startDir := filepath.Dir(filePath)
	if info, err := os.Stat(filePath); err == nil && info.IsDir() {
		startDir = filePath
	}

	if root := d.findMarker(startDir, "elm.json"); root != "" {
		return root
	}
	for _, marker := range d.fallbackMarkers {
		if root := d.findMarker(startDir, marker); root != "" {
			return root
		}
	}
	return ""
}

func (d *Detector) findMarker(startDir, marker string) string {
	dir := startDir
	for {
		if _, err := os.Stat(filepath.Join(dir, marker)); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}
