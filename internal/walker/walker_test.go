package walker_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loupe/internal/walker"
)

var goOnly = map[string]bool{"go": true}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func collect(t *testing.T, root string, exts map[string]bool) []walker.FileInfo {
	t.Helper()
	files, errs := walker.Walk(root, exts)
	var out []walker.FileInfo
	for fi := range files {
		out = append(out, fi)
	}
	require.NoError(t, <-errs)
	return out
}

func relPaths(files []walker.FileInfo) []string {
	paths := make([]string, len(files))
	for i, f := range files {
		paths[i] = f.RelPath
	}
	return paths
}

func TestWalkFiltersByExtension(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "main.go", "package main\n")
	writeFile(t, dir, "notes.txt", "not source\n")
	writeFile(t, dir, "sub/util.go", "package sub\n")

	got := relPaths(collect(t, dir, goOnly))
	assert.ElementsMatch(t, []string{"main.go", "sub/util.go"}, got)
}

func TestWalkSkipsDefaultIgnoreDirs(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "keep.go", "package keep\n")
	writeFile(t, dir, "vendor/dep.go", "package dep\n")
	writeFile(t, dir, "node_modules/lib.go", "package lib\n")
	writeFile(t, dir, ".git/hook.go", "package hook\n")

	got := relPaths(collect(t, dir, goOnly))
	assert.Equal(t, []string{"keep.go"}, got)
}

func TestWalkHonorsIgnoreFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, ".loupeignore", "# comment\n\ngenerated\n")
	writeFile(t, dir, "keep.go", "package keep\n")
	writeFile(t, dir, "generated/gen.go", "package gen\n")

	got := relPaths(collect(t, dir, goOnly))
	assert.Equal(t, []string{"keep.go"}, got)
}

func TestWalkSkipsEmptyAndHugeFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "empty.go", "")
	writeFile(t, dir, "huge.go", strings.Repeat("x", 1<<20+1))
	writeFile(t, dir, "normal.go", "package n\n")

	got := relPaths(collect(t, dir, goOnly))
	assert.Equal(t, []string{"normal.go"}, got)
}

func TestWalkReportsSize(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.go", "package a\n")

	files := collect(t, dir, goOnly)
	require.Len(t, files, 1)
	assert.Equal(t, int64(len("package a\n")), files[0].Size)
	assert.True(t, filepath.IsAbs(files[0].Path))
}
