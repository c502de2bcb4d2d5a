package fileutils

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"syscall"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// MergeEntry describes what happened to one child of a merged directory.
type MergeEntry struct {
	Name    string
	Skipped bool
	Err     error
}

// MoveDirResult contains the results of moving a directory.
type MoveDirResult struct {
	// Merged is true when the destination already existed and children were
	// moved into it one by one.
	Merged  bool
	Entries []MergeEntry
	// SourceRemoved is false when the source still holds skipped children.
	SourceRemoved bool
}

// Exists reports whether anything is present at path.
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// MoveFile moves a file from src to dst, creating the parent directory of dst.
func MoveFile(src, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return errors.WithStack(err)
	}
	return moveFile(src, dst)
}

// moveFile safely moves a file from source to destination.
func moveFile(src, dst string) error {
	// Rename only works within one filesystem.
	err := os.Rename(src, dst)
	if err == nil {
		return nil
	}

	err = copyFile(src, dst)
	if err != nil {
		return errors.WithStack(err)
	}

	// Remove the source file only after successful copy
	err = os.Remove(src)
	if err != nil {
		os.Remove(dst)
		return errors.WithStack(err)
	}

	return nil
}

// copyFile copies a file from source to destination.
func copyFile(src, dst string) error {
	sourceFile, err := os.Open(src)
	if err != nil {
		return errors.WithStack(err)
	}
	defer sourceFile.Close()

	destFile, err := os.Create(dst)
	if err != nil {
		return errors.WithStack(err)
	}
	defer destFile.Close()

	_, err = io.Copy(destFile, sourceFile)
	if err != nil {
		return errors.WithStack(err)
	}

	sourceInfo, err := sourceFile.Stat()
	if err != nil {
		return errors.WithStack(err)
	}

	err = destFile.Chmod(sourceInfo.Mode())
	if err != nil {
		return errors.WithStack(err)
	}

	return nil
}

// MoveDir moves the directory src to dst. When dst does not exist this is a
// single rename. When it does, every child of src is moved into dst
// individually; a child whose name already exists in dst is skipped and never
// overwritten. Afterwards src is removed if it ended up empty.
func MoveDir(src, dst string) (*MoveDirResult, error) {
	result := &MoveDirResult{}

	if !Exists(dst) {
		if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
			return result, errors.WithStack(err)
		}
		if err := os.Rename(src, dst); err != nil {
			return result, errors.WithStack(err)
		}
		result.SourceRemoved = true
		return result, nil
	}

	result.Merged = true
	entries, err := os.ReadDir(src)
	if err != nil {
		return result, errors.WithStack(err)
	}

	for _, entry := range entries {
		name := entry.Name()
		from := filepath.Join(src, name)
		to := filepath.Join(dst, name)

		if Exists(to) {
			result.Entries = append(result.Entries, MergeEntry{Name: name, Skipped: true})
			continue
		}

		var moveErr error
		if entry.IsDir() {
			moveErr = errors.WithStack(os.Rename(from, to))
		} else {
			moveErr = moveFile(from, to)
		}
		result.Entries = append(result.Entries, MergeEntry{Name: name, Err: moveErr})
	}

	// Remove only succeeds once nothing was left behind.
	if err := os.Remove(src); err == nil {
		result.SourceRemoved = true
	} else if !os.IsExist(err) && !isNotEmpty(err) && !os.IsNotExist(err) {
		return result, errors.WithStack(err)
	}

	return result, nil
}

// UniqueFilepath returns path, or the first free "name (n).ext" variant of it.
// Once 999 variants are taken it falls back to a uuid in place of n.
func UniqueFilepath(path string) string {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return path
	}

	dir := filepath.Dir(path)
	ext := filepath.Ext(path)
	base := filepath.Base(path)
	nameWithoutExt := base[:len(base)-len(ext)]

	for i := 1; i < 1000; i++ {
		newName := fmt.Sprintf("%s (%d)%s", nameWithoutExt, i, ext)
		newPath := filepath.Join(dir, newName)
		if _, err := os.Stat(newPath); os.IsNotExist(err) {
			return newPath
		}
	}

	return filepath.Join(dir, fmt.Sprintf("%s (%s)%s", nameWithoutExt, uuid.NewString(), ext))
}

func isNotEmpty(err error) bool {
	return errors.Is(err, syscall.ENOTEMPTY)
}
