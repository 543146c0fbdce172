package project_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/afs"

	"github.com/viant/elm-pair/internal/project"
)

func TestLoadManifest_ReadsSourceDirectoriesAndElmVersion(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "elm.json"),
		[]byte(`{"source-directories":["src","vendor"],"elm-version":"0.19.1"}`), 0o644))

	fs := afs.New()
	manifest, ok, err := project.LoadManifest(context.Background(), fs, root)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "0.19.1", manifest.ElmVersionConstraint)
	assert.Equal(t, []string{filepath.Join(root, "src"), filepath.Join(root, "vendor")}, manifest.SourceDirectories)
}

func TestLoadManifest_MissingFileIsNotAnError(t *testing.T) {
	root := t.TempDir()
	fs := afs.New()
	_, ok, err := project.LoadManifest(context.Background(), fs, root)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestModuleLoader_LoadsOnlyDeclaredSourceDirectories(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "elm.json"), []byte(`{"source-directories":["src"]}`), 0o644))

	srcDir := filepath.Join(root, "src")
	require.NoError(t, os.MkdirAll(srcDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(srcDir, "Main.elm"),
		[]byte("module Main exposing (view)\nview = 1\n"), 0o644))

	// A file sitting outside any declared source directory (e.g. a scratch
	// file the compiler driver writes under elm-stuff/) must not be
	// picked up.
	scratchDir := filepath.Join(root, "elm-stuff", "elm-pair")
	require.NoError(t, os.MkdirAll(scratchDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(scratchDir, "Temp.elm"),
		[]byte("module Temp exposing (bogus)\nbogus = 1\n"), 0o644))

	loader, err := project.NewModuleLoader(afs.New())
	require.NoError(t, err)

	mods, err := loader.LoadProjectModules(context.Background(), root)
	require.NoError(t, err)

	_, hasMain := mods["Main"]
	_, hasTemp := mods["Temp"]
	assert.True(t, hasMain)
	assert.False(t, hasTemp)
}
