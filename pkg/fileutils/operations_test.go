package fileutils

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(b)
}

func TestMoveFile_CreatesParent(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "novel.pdf")
	dst := filepath.Join(dir, "History", "Jane Doe", "novel.pdf")
	writeFile(t, src, "pdf")

	require.NoError(t, MoveFile(src, dst))

	assert.False(t, Exists(src))
	assert.Equal(t, "pdf", readFile(t, dst))
}

func TestCopyFile_PreservesMode(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "a.pdf")
	dst := filepath.Join(dir, "b.pdf")
	writeFile(t, src, "content")
	require.NoError(t, os.Chmod(src, 0600))

	require.NoError(t, copyFile(src, dst))

	info, err := os.Stat(dst)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
	assert.Equal(t, "content", readFile(t, dst))
}

func TestMoveDir_RenameWhenTargetAbsent(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "History")
	dst := filepath.Join(dir, "Heritage")
	writeFile(t, filepath.Join(src, "Jane Doe", "novel.pdf"), "pdf")

	result, err := MoveDir(src, dst)
	require.NoError(t, err)

	assert.False(t, result.Merged)
	assert.True(t, result.SourceRemoved)
	assert.False(t, Exists(src))
	assert.Equal(t, "pdf", readFile(t, filepath.Join(dst, "Jane Doe", "novel.pdf")))
}

func TestMoveDir_MergeNeverOverwrites(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "old")
	dst := filepath.Join(dir, "new")
	writeFile(t, filepath.Join(src, "shared.pdf"), "from source")
	writeFile(t, filepath.Join(src, "only-source.pdf"), "moved")
	writeFile(t, filepath.Join(dst, "shared.pdf"), "original")

	result, err := MoveDir(src, dst)
	require.NoError(t, err)

	assert.True(t, result.Merged)
	assert.False(t, result.SourceRemoved)
	assert.Equal(t, "original", readFile(t, filepath.Join(dst, "shared.pdf")))
	assert.Equal(t, "moved", readFile(t, filepath.Join(dst, "only-source.pdf")))
	assert.Equal(t, "from source", readFile(t, filepath.Join(src, "shared.pdf")))

	require.Len(t, result.Entries, 2)
	byName := map[string]MergeEntry{}
	for _, e := range result.Entries {
		byName[e.Name] = e
	}
	assert.True(t, byName["shared.pdf"].Skipped)
	assert.False(t, byName["only-source.pdf"].Skipped)
	assert.NoError(t, byName["only-source.pdf"].Err)
}

func TestMoveDir_MergeRemovesEmptiedSource(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "old")
	dst := filepath.Join(dir, "new")
	writeFile(t, filepath.Join(src, "Author A", "a.pdf"), "a")
	writeFile(t, filepath.Join(dst, "Author B", "b.pdf"), "b")

	result, err := MoveDir(src, dst)
	require.NoError(t, err)

	assert.True(t, result.Merged)
	assert.True(t, result.SourceRemoved)
	assert.False(t, Exists(src))
	assert.True(t, Exists(filepath.Join(dst, "Author A", "a.pdf")))
	assert.True(t, Exists(filepath.Join(dst, "Author B", "b.pdf")))
}

func TestUniqueFilepath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "novel.pdf")

	assert.Equal(t, path, UniqueFilepath(path))

	writeFile(t, path, "1")
	assert.Equal(t, filepath.Join(dir, "novel (1).pdf"), UniqueFilepath(path))

	writeFile(t, filepath.Join(dir, "novel (1).pdf"), "2")
	assert.Equal(t, filepath.Join(dir, "novel (2).pdf"), UniqueFilepath(path))
}

func TestUniqueFilepath_NeverReturnsTakenPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "novel.pdf")
	writeFile(t, path, "0")
	for i := 1; i < 1000; i++ {
		writeFile(t, filepath.Join(dir, fmt.Sprintf("novel (%d).pdf", i)), "x")
	}

	got := UniqueFilepath(path)
	assert.NotEqual(t, path, got)
	assert.Equal(t, dir, filepath.Dir(got))
	assert.True(t, strings.HasPrefix(filepath.Base(got), "novel ("))
	assert.Equal(t, ".pdf", filepath.Ext(got))
	assert.NoFileExists(t, got)
}
