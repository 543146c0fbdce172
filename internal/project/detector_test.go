package project_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/viant/elm-pair/internal/project"
)

func TestDetector_FindsElmJsonRoot(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "elm.json"), []byte(`{"source-directories":["src"]}`), 0o644))
	srcDir := filepath.Join(root, "src", "Page")
	require.NoError(t, os.MkdirAll(srcDir, 0o755))
	filePath := filepath.Join(srcDir, "Home.elm")
	require.NoError(t, os.WriteFile(filePath, []byte("module Page.Home exposing (view)\n"), 0o644))

	d := project.NewDetector()
	assert := require.New(t)
	assert.Equal(root, d.RootFor(filePath))
}

func TestDetector_FallsBackToMarkerWhenNoElmJson(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "go.mod"), []byte("module example\n"), 0o644))
	filePath := filepath.Join(root, "main.elm")
	require.NoError(t, os.WriteFile(filePath, []byte("module Main exposing (main)\n"), 0o644))

	d := project.NewDetector()
	require.Equal(t, root, d.RootFor(filePath))
}

func TestDetector_NoMarkerAnywhere(t *testing.T) {
	root := t.TempDir()
	filePath := filepath.Join(root, "stray.elm")
	require.NoError(t, os.WriteFile(filePath, []byte("module Stray exposing (x)\n"), 0o644))

	d := project.NewDetector()
	require.Equal(t, "", d.RootFor(filePath))
}
