package jsonstore

import (
	"sort"
	"time"

	"github.com/maktabaapp/maktaba/pkg/models"
	"github.com/maktabaapp/maktaba/pkg/store"
	"github.com/pkg/errors"
	"github.com/segmentio/encoding/json"
)

type file struct {
	Books     []entry `json:"books"`
	CurrentID int     `json:"currentId"`
}

// entry is one [id, book] pair.
type entry struct {
	ID   int
	Book *models.Book
}

func (e entry) MarshalJSON() ([]byte, error) {
	return json.Marshal([]interface{}{e.ID, e.Book})
}

func (e *entry) UnmarshalJSON(data []byte) error {
	var pair []json.RawMessage
	if err := json.Unmarshal(data, &pair); err != nil {
		return errors.WithStack(err)
	}
	if len(pair) != 2 {
		return errors.Errorf("expected [id, book] pair, got %d elements", len(pair))
	}
	if err := json.Unmarshal(pair[0], &e.ID); err != nil {
		return errors.WithStack(err)
	}
	e.Book = &models.Book{}
	if err := json.Unmarshal(pair[1], e.Book); err != nil {
		return errors.WithStack(err)
	}
	return nil
}

func sortEntries(entries []entry) {
	sort.Slice(entries, func(i, j int) bool { return entries[i].ID < entries[j].ID })
}

func now() time.Time {
	return time.Now().UTC()
}

// applyColumns returns a copy of existing with the given columns taken from
// src. No columns means every column except the id and creation time.
func applyColumns(existing, src *models.Book, columns []string) (*models.Book, error) {
	if len(columns) == 0 {
		out := src.Clone()
		out.ID = existing.ID
		out.CreatedAt = existing.CreatedAt
		return out, nil
	}

	out := existing.Clone()
	s := src.Clone()
	for _, col := range columns {
		switch col {
		case store.ColumnTitle:
			out.Title = s.Title
		case store.ColumnAuthor:
			out.Author = s.Author
		case store.ColumnCategory:
			out.Category = s.Category
		case store.ColumnYear:
			out.Year = s.Year
		case store.ColumnStatus:
			out.Status = s.Status
		case store.ColumnCoverURL:
			out.CoverURL = s.CoverURL
		case store.ColumnFileURL:
			out.FileURL = s.FileURL
		case store.ColumnExtractedContent:
			out.ExtractedContent = s.ExtractedContent
		case store.ColumnNotes:
			out.Notes = s.Notes
		case store.ColumnQuote:
			out.Quote = s.Quote
		case store.ColumnLastReadPage:
			out.LastReadPage = s.LastReadPage
		case store.ColumnTotalPages:
			out.TotalPages = s.TotalPages
		case store.ColumnLastOpenedAt:
			out.LastOpenedAt = s.LastOpenedAt
		case store.ColumnRating:
			out.Rating = s.Rating
		case store.ColumnIsFavorite:
			out.IsFavorite = s.IsFavorite
		case store.ColumnTags:
			out.Tags = s.Tags
		default:
			return nil, errors.Errorf("unknown column %q", col)
		}
	}
	return out, nil
}
