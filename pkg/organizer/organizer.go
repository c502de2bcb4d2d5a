// Package organizer keeps book files filed under
// Books/<Category>/<Author>/<file> and moves whole folders when a category or
// author is renamed or deleted.
package organizer

import (
	"context"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/maktabaapp/maktaba/pkg/fileutils"
	"github.com/maktabaapp/maktaba/pkg/models"
	"github.com/maktabaapp/maktaba/pkg/sandbox"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
)

type Organizer struct {
	roots    sandbox.Roots
	resolver *sandbox.Resolver
}

func New(roots sandbox.Roots) *Organizer {
	return &Organizer{
		roots:    roots,
		resolver: sandbox.NewResolver(roots),
	}
}

// CategoryDir is the folder that holds every book of a category.
func (o *Organizer) CategoryDir(category string) string {
	return filepath.Join(o.roots.BooksDir, fileutils.SanitizeName(category, models.DefaultCategory))
}

// AuthorDir is the folder that holds an author's books within a category.
func (o *Organizer) AuthorDir(category, author string) string {
	return filepath.Join(o.CategoryDir(category), fileutils.SanitizeName(author, models.DefaultAuthor))
}

// IsBooksURL reports whether fileURL points into the books namespace.
func IsBooksURL(fileURL string) bool {
	return strings.HasPrefix(fileURL, sandbox.BooksPrefix+"/")
}

// BookPath resolves a /books/ URL to its absolute path. ok is false for any
// other URL.
func (o *Organizer) BookPath(fileURL string) (string, bool) {
	if !IsBooksURL(fileURL) {
		return "", false
	}
	abs := o.resolver.Resolve(fileURL)
	if !sandbox.IsSafe(abs, []string{o.roots.BooksDir}) || samePath(abs, o.roots.BooksDir) {
		return "", false
	}
	return abs, true
}

// BookURL converts an absolute path inside BooksDir back into a /books/ URL
// with every segment percent-encoded.
func (o *Organizer) BookURL(abs string) (string, error) {
	rel, err := filepath.Rel(o.roots.BooksDir, abs)
	if err != nil {
		return "", errors.WithStack(err)
	}
	if rel == "." || strings.HasPrefix(rel, "..") {
		return "", errors.New("path is outside the books directory")
	}

	segments := strings.Split(filepath.ToSlash(rel), "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return sandbox.BooksPrefix + "/" + strings.Join(segments, "/"), nil
}

// Place moves the file behind fileURL into the folder for category and
// author and returns its new URL. URLs outside /books/ and files that are
// already in place are returned unchanged. A missing source, or one that is
// not a regular file, is logged and left alone. On a failed move the original URL is returned alongside the
// error.
func (o *Organizer) Place(ctx context.Context, fileURL, category, author string) (string, error) {
	log := logger.FromContext(ctx)

	current, ok := o.BookPath(fileURL)
	if !ok {
		return fileURL, nil
	}

	target := filepath.Join(o.AuthorDir(category, author), filepath.Base(current))
	if samePath(current, target) {
		return fileURL, nil
	}

	info, err := os.Stat(current)
	if err != nil {
		log.Warn("book file not found, leaving url as is", logger.Data{"file_url": fileURL})
		return fileURL, nil
	}
	if !info.Mode().IsRegular() {
		log.Warn("book url is not a regular file, leaving url as is", logger.Data{"file_url": fileURL})
		return fileURL, nil
	}

	// Never overwrite a different file that already owns the name.
	target = fileutils.UniqueFilepath(target)

	if err := fileutils.MoveFile(current, target); err != nil {
		return fileURL, errors.WithStack(err)
	}

	newURL, err := o.BookURL(target)
	if err != nil {
		return fileURL, err
	}

	log.Info("placed book file", logger.Data{
		"old_path": current,
		"new_path": target,
	})

	return newURL, nil
}

func samePath(a, b string) bool {
	return strings.EqualFold(filepath.Clean(a), filepath.Clean(b))
}
