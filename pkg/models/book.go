package models

import (
	"time"

	"github.com/uptrace/bun"
)

const (
	BookStatusPlanned   = "planned"
	BookStatusReading   = "reading"
	BookStatusCompleted = "completed"

	// BookStatusHistory is a list filter, never a stored status.
	BookStatusHistory = "history"
)

const (
	DefaultCategory = "Uncategorized"
	DefaultAuthor   = "Unknown"
)

type Book struct {
	bun.BaseModel `bun:"table:books,alias:b"`

	ID               int        `bun:",pk,autoincrement" json:"id"`
	Title            string     `bun:",notnull" json:"title"`
	Author           string     `bun:",notnull" json:"author"`
	Category         string     `bun:",notnull" json:"category"`
	Year             int        `bun:",notnull" json:"year"`
	Status           string     `bun:",notnull" json:"status"`
	CoverURL         string     `bun:"cover_url,notnull" json:"coverUrl"`
	FileURL          *string    `bun:"file_url" json:"fileUrl"`
	ExtractedContent *string    `json:"extractedContent"`
	Notes            *string    `json:"notes"`
	Quote            *string    `json:"quote"`
	LastReadPage     int        `bun:",notnull" json:"lastReadPage"`
	TotalPages       int        `bun:",notnull" json:"totalPages"`
	LastOpenedAt     *time.Time `json:"lastOpenedAt"`
	Rating           int        `bun:",notnull" json:"rating"`
	IsFavorite       int        `bun:",notnull" json:"isFavorite"`
	Tags             *string    `json:"tags"`
	CreatedAt        time.Time  `bun:",nullzero,notnull,default:current_timestamp" json:"createdAt"`
}

// Clone returns a copy that shares no pointers with b.
func (b *Book) Clone() *Book {
	c := *b
	c.FileURL = cloneString(b.FileURL)
	c.ExtractedContent = cloneString(b.ExtractedContent)
	c.Notes = cloneString(b.Notes)
	c.Quote = cloneString(b.Quote)
	c.Tags = cloneString(b.Tags)
	if b.LastOpenedAt != nil {
		t := *b.LastOpenedAt
		c.LastOpenedAt = &t
	}
	return &c
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

// NameCount is a distinct category or author name with the number of books
// filed under it.
type NameCount struct {
	Name  string `bun:"name" json:"name"`
	Count int    `bun:"count" json:"count"`
}
