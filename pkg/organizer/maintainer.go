package organizer

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/maktabaapp/maktaba/pkg/errcodes"
	"github.com/maktabaapp/maktaba/pkg/fileutils"
	"github.com/maktabaapp/maktaba/pkg/models"
	"github.com/maktabaapp/maktaba/pkg/store"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
)

const (
	StatusMoved   = "moved"
	StatusMerged  = "merged"
	StatusSkipped = "skipped"
	StatusRemoved = "removed"
	StatusMissing = "missing"
	StatusFailed  = "failed"
)

// Result reports a bulk rename or delete. The store phase always completes
// before any folder is touched and is never rolled back. Folder problems are
// reported per item and clear Success.
type Result struct {
	Books   int          `json:"books"`
	Items   []ItemResult `json:"items"`
	Success bool         `json:"success"`
}

// ItemResult describes one folder (or merged child) operation. Paths are
// relative to the books directory.
type ItemResult struct {
	Source string `json:"source"`
	Target string `json:"target,omitempty"`
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// finish marks the result successful unless an item failed. Skipped merge
// entries are not failures.
func (r *Result) finish() *Result {
	r.Success = true
	for _, item := range r.Items {
		if item.Status == StatusFailed {
			r.Success = false
			break
		}
	}
	return r
}

type Maintainer struct {
	store     store.Store
	organizer *Organizer
}

func NewMaintainer(s store.Store, o *Organizer) *Maintainer {
	return &Maintainer{store: s, organizer: o}
}

// relocation remembers where a book's file was before its URL was rewritten.
type relocation struct {
	book   *models.Book
	oldURL *string
	newAbs string
	oldAbs string
}

// RenameCategory renames every book filed in oldName's folder to newName and
// moves the folder along with it. Names that sanitize to the same folder are
// one category.
func (m *Maintainer) RenameCategory(ctx context.Context, oldName, newName string) (*Result, error) {
	src := m.organizer.CategoryDir(oldName)
	dst := m.organizer.CategoryDir(newName)
	if err := m.checkReserved(src, dst); err != nil {
		return nil, err
	}
	if src == dst {
		return &Result{Success: true}, nil
	}

	books, err := m.booksWhere(ctx, m.inCategoryDir(src))
	if err != nil {
		return nil, err
	}

	result := &Result{}
	var moved []relocation
	for _, b := range books {
		b.Category = newName
		rel, err := m.rebase(b, func(abs string) (string, bool) {
			return swapAncestor(abs, src, dst)
		})
		if err != nil {
			return nil, err
		}
		if rel != nil {
			moved = append(moved, *rel)
		}
		if err := m.store.UpdateBook(ctx, b, []string{store.ColumnCategory, store.ColumnFileURL}); err != nil {
			return nil, errors.WithStack(err)
		}
		result.Books++
	}

	result.Items = append(result.Items, m.moveFolder(ctx, src, dst)...)
	m.restoreSkipped(ctx, moved)

	return result.finish(), nil
}

// RenameAuthor renames every book whose author folder is oldName's to newName
// and moves that folder inside each category folder.
func (m *Maintainer) RenameAuthor(ctx context.Context, oldName, newName string) (*Result, error) {
	safeOld := fileutils.SanitizeName(oldName, models.DefaultAuthor)
	safeNew := fileutils.SanitizeName(newName, models.DefaultAuthor)
	if safeOld == safeNew {
		return &Result{Success: true}, nil
	}

	books, err := m.booksWhere(ctx, byAuthorFolder(safeOld))
	if err != nil {
		return nil, err
	}

	result := &Result{}
	var moved []relocation
	for _, b := range books {
		b.Author = newName
		rel, err := m.rebase(b, func(abs string) (string, bool) {
			return m.swapAuthor(abs, safeOld, safeNew)
		})
		if err != nil {
			return nil, err
		}
		if rel != nil {
			moved = append(moved, *rel)
		}
		if err := m.store.UpdateBook(ctx, b, []string{store.ColumnAuthor, store.ColumnFileURL}); err != nil {
			return nil, errors.WithStack(err)
		}
		result.Books++
	}

	for _, catDir := range m.categoryDirs(ctx) {
		src := filepath.Join(catDir, safeOld)
		if !fileutils.Exists(src) {
			continue
		}
		result.Items = append(result.Items, m.moveFolder(ctx, src, filepath.Join(catDir, safeNew))...)
	}
	m.restoreSkipped(ctx, moved)

	return result.finish(), nil
}

// DeleteCategory deletes every book filed in name's folder and then the
// folder itself, unless a remaining book still keeps its file there.
func (m *Maintainer) DeleteCategory(ctx context.Context, name string) (*Result, error) {
	dir := m.organizer.CategoryDir(name)
	if err := m.checkReserved(dir); err != nil {
		return nil, err
	}

	remaining, n, err := m.deleteWhere(ctx, m.inCategoryDir(dir))
	if err != nil {
		return nil, err
	}

	result := &Result{Books: n}
	result.Items = append(result.Items, m.removeFolder(ctx, dir, remaining))
	return result.finish(), nil
}

// DeleteAuthor deletes every book filed under name's author folder and that
// folder in every category.
func (m *Maintainer) DeleteAuthor(ctx context.Context, name string) (*Result, error) {
	safe := fileutils.SanitizeName(name, models.DefaultAuthor)

	remaining, n, err := m.deleteWhere(ctx, byAuthorFolder(safe))
	if err != nil {
		return nil, err
	}

	result := &Result{Books: n}
	for _, catDir := range m.categoryDirs(ctx) {
		dir := filepath.Join(catDir, safe)
		if !fileutils.Exists(dir) {
			continue
		}
		result.Items = append(result.Items, m.removeFolder(ctx, dir, remaining))
	}
	return result.finish(), nil
}

// booksWhere lists the books match accepts.
func (m *Maintainer) booksWhere(ctx context.Context, match func(*models.Book) bool) ([]*models.Book, error) {
	all, err := m.store.ListBooks(ctx, store.ListOptions{})
	if err != nil {
		return nil, errors.WithStack(err)
	}
	var out []*models.Book
	for _, b := range all {
		if match(b) {
			out = append(out, b)
		}
	}
	return out, nil
}

// deleteWhere deletes the books match accepts and returns the ones left.
func (m *Maintainer) deleteWhere(ctx context.Context, match func(*models.Book) bool) ([]*models.Book, int, error) {
	all, err := m.store.ListBooks(ctx, store.ListOptions{})
	if err != nil {
		return nil, 0, errors.WithStack(err)
	}
	var remaining []*models.Book
	deleted := 0
	for _, b := range all {
		if !match(b) {
			remaining = append(remaining, b)
			continue
		}
		if err := m.store.DeleteBook(ctx, b.ID); err != nil {
			return nil, 0, errors.WithStack(err)
		}
		deleted++
	}
	return remaining, deleted, nil
}

func (m *Maintainer) inCategoryDir(dir string) func(*models.Book) bool {
	return func(b *models.Book) bool {
		return m.organizer.CategoryDir(b.Category) == dir
	}
}

func byAuthorFolder(safe string) func(*models.Book) bool {
	return func(b *models.Book) bool {
		return fileutils.SanitizeName(b.Author, models.DefaultAuthor) == safe
	}
}

// Reorganize places every book's file where its metadata says it belongs.
func (m *Maintainer) Reorganize(ctx context.Context) (*Result, error) {
	log := logger.FromContext(ctx)

	books, err := m.store.ListBooks(ctx, store.ListOptions{})
	if err != nil {
		return nil, errors.WithStack(err)
	}

	result := &Result{}
	for _, b := range books {
		if b.FileURL == nil {
			continue
		}
		oldURL := *b.FileURL
		source, ok := m.organizer.BookPath(oldURL)
		if !ok {
			continue
		}

		newURL, err := m.organizer.Place(ctx, oldURL, b.Category, b.Author)
		if err != nil {
			log.Err(err).Error("failed to place book file", logger.Data{"book_id": b.ID})
			result.Items = append(result.Items, ItemResult{
				Source: m.rel(source),
				Status: StatusFailed,
				Error:  "move failed",
			})
			continue
		}
		if newURL == oldURL {
			continue
		}

		b.FileURL = &newURL
		if err := m.store.UpdateBook(ctx, b, []string{store.ColumnFileURL}); err != nil {
			return result, errors.WithStack(err)
		}
		target, _ := m.organizer.BookPath(newURL)
		result.Books++
		result.Items = append(result.Items, ItemResult{
			Source: m.rel(source),
			Target: m.rel(target),
			Status: StatusMoved,
		})
	}
	return result.finish(), nil
}

// rebase rewrites b.FileURL with swap, which maps the file's current path to
// where it will live once the folders have moved.
func (m *Maintainer) rebase(b *models.Book, swap func(abs string) (string, bool)) (*relocation, error) {
	if b.FileURL == nil {
		return nil, nil
	}
	oldAbs, ok := m.organizer.BookPath(*b.FileURL)
	if !ok {
		return nil, nil
	}
	newAbs, ok := swap(oldAbs)
	if !ok {
		return nil, nil
	}
	newURL, err := m.organizer.BookURL(newAbs)
	if err != nil {
		return nil, err
	}

	oldURL := *b.FileURL
	b.FileURL = &newURL
	return &relocation{book: b, oldURL: &oldURL, newAbs: newAbs, oldAbs: oldAbs}, nil
}

// restoreSkipped points books back at their old location when their file is
// still there, which happens when a merge skipped it.
func (m *Maintainer) restoreSkipped(ctx context.Context, moved []relocation) {
	log := logger.FromContext(ctx)
	for _, r := range moved {
		if samePath(r.oldAbs, r.newAbs) || !fileutils.Exists(r.oldAbs) {
			continue
		}
		r.book.FileURL = r.oldURL
		if err := m.store.UpdateBook(ctx, r.book, []string{store.ColumnFileURL}); err != nil {
			log.Err(err).Error("failed to restore file url", logger.Data{"book_id": r.book.ID})
		}
	}
}

func (m *Maintainer) moveFolder(ctx context.Context, src, dst string) []ItemResult {
	log := logger.FromContext(ctx)

	if !fileutils.Exists(src) {
		return []ItemResult{{Source: m.rel(src), Target: m.rel(dst), Status: StatusMissing}}
	}

	// A case-only rename would look like a merge into itself on
	// case-insensitive filesystems.
	if samePath(src, dst) {
		if err := os.Rename(src, dst); err != nil {
			log.Err(err).Error("failed to rename folder", logger.Data{"source": src, "target": dst})
			return []ItemResult{{Source: m.rel(src), Target: m.rel(dst), Status: StatusFailed, Error: "move failed"}}
		}
		return []ItemResult{{Source: m.rel(src), Target: m.rel(dst), Status: StatusMoved}}
	}

	res, err := fileutils.MoveDir(src, dst)
	if err != nil {
		log.Err(err).Error("failed to move folder", logger.Data{"source": src, "target": dst})
		return []ItemResult{{Source: m.rel(src), Target: m.rel(dst), Status: StatusFailed, Error: "move failed"}}
	}

	if !res.Merged {
		log.Info("moved folder", logger.Data{"source": src, "target": dst})
		return []ItemResult{{Source: m.rel(src), Target: m.rel(dst), Status: StatusMoved}}
	}

	items := []ItemResult{{Source: m.rel(src), Target: m.rel(dst), Status: StatusMerged}}
	for _, e := range res.Entries {
		from := filepath.Join(src, e.Name)
		to := filepath.Join(dst, e.Name)
		switch {
		case e.Skipped:
			log.Warn("merge target exists, skipping", logger.Data{"source": from, "target": to})
			items = append(items, ItemResult{Source: m.rel(from), Target: m.rel(to), Status: StatusSkipped})
		case e.Err != nil:
			log.Err(e.Err).Error("failed to merge entry", logger.Data{"source": from, "target": to})
			items = append(items, ItemResult{Source: m.rel(from), Target: m.rel(to), Status: StatusFailed, Error: "move failed"})
		}
	}
	log.Info("merged folder", logger.Data{"source": src, "target": dst, "removed": res.SourceRemoved})
	return items
}

// removeFolder deletes dir unless one of remaining still has its file inside.
func (m *Maintainer) removeFolder(ctx context.Context, dir string, remaining []*models.Book) ItemResult {
	if !fileutils.Exists(dir) {
		return ItemResult{Source: m.rel(dir), Status: StatusMissing}
	}
	for _, b := range remaining {
		if b.FileURL == nil {
			continue
		}
		abs, ok := m.organizer.BookPath(*b.FileURL)
		if !ok {
			continue
		}
		if _, inside := swapAncestor(abs, dir, dir); inside {
			logger.FromContext(ctx).Warn("folder still holds a book file, keeping it", logger.Data{"path": dir, "book_id": b.ID})
			return ItemResult{Source: m.rel(dir), Status: StatusSkipped, Error: "folder still holds books"}
		}
	}
	if err := os.RemoveAll(dir); err != nil {
		logger.FromContext(ctx).Err(err).Error("failed to remove folder", logger.Data{"path": dir})
		return ItemResult{Source: m.rel(dir), Status: StatusFailed, Error: "remove failed"}
	}
	logger.FromContext(ctx).Info("removed folder", logger.Data{"path": dir})
	return ItemResult{Source: m.rel(dir), Status: StatusRemoved}
}

// categoryDirs lists the category folders, leaving out the covers folder.
func (m *Maintainer) categoryDirs(ctx context.Context) []string {
	entries, err := os.ReadDir(m.organizer.roots.BooksDir)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.FromContext(ctx).Err(err).Error("failed to read books directory")
		}
		return nil
	}

	var dirs []string
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		dir := filepath.Join(m.organizer.roots.BooksDir, e.Name())
		if samePath(dir, m.organizer.roots.CoversDir) {
			continue
		}
		dirs = append(dirs, dir)
	}
	return dirs
}

// checkReserved refuses to treat the books or covers directory as a category
// folder.
func (m *Maintainer) checkReserved(dirs ...string) error {
	for _, dir := range dirs {
		if samePath(dir, m.organizer.roots.CoversDir) || samePath(dir, m.organizer.roots.BooksDir) {
			return errcodes.ValidationError("This name is reserved.")
		}
	}
	return nil
}

// swapAuthor maps BooksDir/<cat>/<old>/... to BooksDir/<cat>/<new>/...
func (m *Maintainer) swapAuthor(abs, safeOld, safeNew string) (string, bool) {
	rel, err := filepath.Rel(m.organizer.roots.BooksDir, abs)
	if err != nil {
		return "", false
	}
	parts := strings.Split(rel, string(filepath.Separator))
	if len(parts) < 3 || parts[1] != safeOld {
		return "", false
	}
	parts[1] = safeNew
	return filepath.Join(append([]string{m.organizer.roots.BooksDir}, parts...)...), true
}

// swapAncestor maps a path under from to the same relative path under to.
func swapAncestor(abs, from, to string) (string, bool) {
	rel, err := filepath.Rel(from, abs)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return "", false
	}
	return filepath.Join(to, rel), true
}

func (m *Maintainer) rel(abs string) string {
	rel, err := filepath.Rel(m.organizer.roots.BooksDir, abs)
	if err != nil {
		return filepath.Base(abs)
	}
	return filepath.ToSlash(rel)
}
