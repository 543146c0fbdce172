package compiler

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/viant/elm-pair/internal/daemonlog"
)

// SubprocessDriver shells out to a real `elm` binary: it writes the
// candidate source to a scratch file under elm-stuff/elm-pair/ (never the
// file the editor has open, since that's liable to be ahead of or behind
// the in-memory snapshot) and runs `elm make --report=json` against it
// from the project root.
type SubprocessDriver struct {
	// ElmBin is the path to the elm executable, typically resolved once at
	// startup from package config or $PATH.
	ElmBin string
}

// NewSubprocessDriver returns a driver that invokes elmBin.
func NewSubprocessDriver(elmBin string) *SubprocessDriver {
	return &SubprocessDriver{ElmBin: elmBin}
}

// Version runs `elm --version` and returns its trimmed output (e.g.
// "0.19.1"), for checking against elm.json's elm-version constraint
// (project.Manifest.CheckElmVersion).
func (d *SubprocessDriver) Version(ctx context.Context) (string, error) {
	out, err := exec.CommandContext(ctx, d.ElmBin, "--version").Output()
	if err != nil {
		return "", fmt.Errorf("compiler: running %s --version: %w", d.ElmBin, err)
	}
	return strings.TrimSpace(string(out)), nil
}

func (d *SubprocessDriver) Compile(ctx context.Context, projectRoot string, src []byte) (bool, error) {
	scratchDir := filepath.Join(projectRoot, "elm-stuff", "elm-pair")
	if err := os.MkdirAll(scratchDir, 0o755); err != nil {
		return false, fmt.Errorf("compiler: creating scratch dir: %w", err)
	}
	tempPath := filepath.Join(scratchDir, "Temp.elm")
	if err := os.WriteFile(tempPath, src, 0o644); err != nil {
		return false, fmt.Errorf("compiler: writing candidate source: %w", err)
	}

	cmd := exec.CommandContext(ctx, d.ElmBin, "make", "--report=json", tempPath)
	cmd.Dir = projectRoot
	if err := cmd.Run(); err != nil {
		if _, ok := err.(*exec.ExitError); ok {
			daemonlog.L().WithField("project_root", projectRoot).Debug("compiler: elm make reported errors")
			return false, nil
		}
		return false, fmt.Errorf("compiler: running elm make: %w", err)
	}
	return true, nil
}
