// Package jsonstore persists books in a single db.json file. It is the
// storage used when no database is configured, and its file format is shared
// with earlier desktop releases:
//
//	{"books": [[1, {...}], [2, {...}]], "currentId": 3}
package jsonstore

import (
	"context"
	"os"
	"path/filepath"
	"sync"

	"github.com/gofrs/flock"
	"github.com/maktabaapp/maktaba/pkg/errcodes"
	"github.com/maktabaapp/maktaba/pkg/models"
	"github.com/maktabaapp/maktaba/pkg/store"
	"github.com/maktabaapp/maktaba/pkg/textcrypt"
	"github.com/pkg/errors"
	"github.com/segmentio/encoding/json"
)

type Store struct {
	path   string
	cipher *textcrypt.Cipher
	flock  *flock.Flock

	mu        sync.RWMutex
	books     map[int]*models.Book
	currentID int
}

var _ store.Store = (*Store)(nil)

// Open loads the database at path, creating its directory if needed. A
// missing file is an empty database.
func Open(path string, cipher *textcrypt.Cipher) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, errors.WithStack(err)
	}

	s := &Store{
		path:   path,
		cipher: cipher,
		flock:  flock.New(path + ".lock"),
	}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) ListBooks(_ context.Context, opts store.ListOptions) ([]*models.Book, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.Book, 0, len(s.books))
	for _, stored := range s.books {
		b := s.decrypted(stored)
		if store.Matches(b, opts) {
			out = append(out, b)
		}
	}
	store.Sort(out, opts)
	return out, nil
}

func (s *Store) RetrieveBook(_ context.Context, id int) (*models.Book, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stored, ok := s.books[id]
	if !ok {
		return nil, errcodes.NotFound("Book")
	}
	return s.decrypted(stored), nil
}

func (s *Store) CreateBook(_ context.Context, book *models.Book) error {
	row, err := s.encrypted(book)
	if err != nil {
		return err
	}

	return s.write(func(books map[int]*models.Book) error {
		row.ID = s.currentID
		if row.CreatedAt.IsZero() {
			row.CreatedAt = now()
		}
		books[row.ID] = row
		s.currentID++

		book.ID = row.ID
		book.CreatedAt = row.CreatedAt
		return nil
	})
}

func (s *Store) UpdateBook(_ context.Context, book *models.Book, columns []string) error {
	row, err := s.encrypted(book)
	if err != nil {
		return err
	}

	return s.write(func(books map[int]*models.Book) error {
		existing, ok := books[book.ID]
		if !ok {
			return errcodes.NotFound("Book")
		}
		updated, err := applyColumns(existing, row, columns)
		if err != nil {
			return err
		}
		books[book.ID] = updated
		return nil
	})
}

func (s *Store) DeleteBook(_ context.Context, id int) error {
	return s.write(func(books map[int]*models.Book) error {
		delete(books, id)
		return nil
	})
}

func (s *Store) ListCategories(_ context.Context) ([]*models.NameCount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return store.CountNames(s.list(), func(b *models.Book) string { return b.Category }), nil
}

func (s *Store) ListAuthors(_ context.Context) ([]*models.NameCount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return store.CountNames(s.list(), func(b *models.Book) string { return b.Author }), nil
}

func (s *Store) Close() error {
	return errors.WithStack(s.flock.Close())
}

func (s *Store) list() []*models.Book {
	out := make([]*models.Book, 0, len(s.books))
	for _, b := range s.books {
		out = append(out, b)
	}
	return out
}

// write applies fn to a copy of the book map and makes it current only once
// the copy is on disk. The file lock keeps other processes from interleaving
// their own read-modify-write.
func (s *Store) write(fn func(books map[int]*models.Book) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.flock.Lock(); err != nil {
		return errors.WithStack(err)
	}
	defer s.flock.Unlock()

	// Pick up anything another process saved since the last load.
	if err := s.loadLocked(); err != nil {
		return err
	}

	prevID := s.currentID
	books := make(map[int]*models.Book, len(s.books))
	for id, b := range s.books {
		books[id] = b
	}

	if err := fn(books); err != nil {
		s.currentID = prevID
		return err
	}
	if err := s.save(books, s.currentID); err != nil {
		s.currentID = prevID
		return err
	}

	s.books = books
	return nil
}

func (s *Store) load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.flock.RLock(); err != nil {
		return errors.WithStack(err)
	}
	defer s.flock.Unlock()

	return s.loadLocked()
}

// loadLocked replaces the in-memory state with the file's. On a read or
// parse error the current state is kept.
func (s *Store) loadLocked() error {
	books := map[int]*models.Book{}
	currentID := 1

	data, err := os.ReadFile(s.path)
	if err != nil && !os.IsNotExist(err) {
		return errors.WithStack(err)
	}

	if len(data) > 0 {
		var f file
		if err := json.Unmarshal(data, &f); err != nil {
			return errors.Wrapf(err, "failed to parse %s", filepath.Base(s.path))
		}
		for _, e := range f.Books {
			e.Book.ID = e.ID
			books[e.ID] = e.Book
			if e.ID >= currentID {
				currentID = e.ID + 1
			}
		}
		if f.CurrentID > currentID {
			currentID = f.CurrentID
		}
	}

	s.books = books
	s.currentID = currentID
	return nil
}

func (s *Store) save(books map[int]*models.Book, currentID int) error {
	f := file{CurrentID: currentID, Books: make([]entry, 0, len(books))}
	for id, b := range books {
		f.Books = append(f.Books, entry{ID: id, Book: b})
	}
	sortEntries(f.Books)

	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return errors.WithStack(err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".db-*.json")
	if err != nil {
		return errors.WithStack(err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return errors.WithStack(err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return errors.WithStack(err)
	}
	if err := tmp.Close(); err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(os.Rename(tmpName, s.path))
}

func (s *Store) encrypted(book *models.Book) (*models.Book, error) {
	row := book.Clone()
	enc, err := s.cipher.EncryptPtr(row.ExtractedContent)
	if err != nil {
		return nil, err
	}
	row.ExtractedContent = enc
	return row, nil
}

func (s *Store) decrypted(stored *models.Book) *models.Book {
	b := stored.Clone()
	b.ExtractedContent = s.cipher.DecryptPtr(b.ExtractedContent)
	return b
}
