package books

import "time"

type ListBooksQuery struct {
	Search     *string `query:"search" json:"search,omitempty" mod:"trim" validate:"omitempty,max=200"`
	Status     *string `query:"status" json:"status,omitempty" validate:"omitempty,oneof=planned reading completed history"`
	Category   *string `query:"category" json:"category,omitempty" validate:"omitempty,max=200"`
	Author     *string `query:"author" json:"author,omitempty" validate:"omitempty,max=200"`
	IsFavorite *bool   `query:"isFavorite" json:"isFavorite,omitempty"`
	MinRating  *int    `query:"minRating" json:"minRating,omitempty" validate:"omitempty,min=0,max=5"`
	Tag        *string `query:"tag" json:"tag,omitempty" mod:"trim" validate:"omitempty,max=100"`
}

type CreateBookPayload struct {
	Title            string     `json:"title" mod:"trim" validate:"required,max=500"`
	Author           string     `json:"author" mod:"trim" validate:"max=300"`
	Category         string     `json:"category" mod:"trim" validate:"max=300"`
	Year             int        `json:"year" validate:"min=0,max=9999"`
	Status           string     `json:"status" default:"planned" validate:"oneof=planned reading completed"`
	CoverURL         string     `json:"coverUrl" mod:"trim" validate:"required,asseturl"`
	FileURL          *string    `json:"fileUrl,omitempty" validate:"omitempty,asseturl"`
	ExtractedContent *string    `json:"extractedContent,omitempty"`
	Notes            *string    `json:"notes,omitempty"`
	Quote            *string    `json:"quote,omitempty" validate:"omitempty,max=2000"`
	LastReadPage     int        `json:"lastReadPage" validate:"min=0"`
	TotalPages       int        `json:"totalPages" validate:"min=0"`
	LastOpenedAt     *time.Time `json:"lastOpenedAt,omitempty"`
	Rating           int        `json:"rating" validate:"min=0,max=5"`
	IsFavorite       int        `json:"isFavorite" validate:"min=0,max=1"`
	Tags             *string    `json:"tags,omitempty" validate:"omitempty,max=1000"`
	CreatedAt        *time.Time `json:"createdAt,omitempty"`
}

// UpdateBookPayload is a partial book: only the fields that are present are
// changed.
type UpdateBookPayload struct {
	Title            *string    `json:"title,omitempty" mod:"trim" validate:"omitempty,min=1,max=500"`
	Author           *string    `json:"author,omitempty" mod:"trim" validate:"omitempty,max=300"`
	Category         *string    `json:"category,omitempty" mod:"trim" validate:"omitempty,max=300"`
	Year             *int       `json:"year,omitempty" validate:"omitempty,min=0,max=9999"`
	Status           *string    `json:"status,omitempty" validate:"omitempty,oneof=planned reading completed"`
	CoverURL         *string    `json:"coverUrl,omitempty" mod:"trim" validate:"omitempty,asseturl"`
	FileURL          *string    `json:"fileUrl,omitempty" validate:"omitempty,asseturl"`
	ExtractedContent *string    `json:"extractedContent,omitempty"`
	Notes            *string    `json:"notes,omitempty"`
	Quote            *string    `json:"quote,omitempty" validate:"omitempty,max=2000"`
	LastReadPage     *int       `json:"lastReadPage,omitempty" validate:"omitempty,min=0"`
	TotalPages       *int       `json:"totalPages,omitempty" validate:"omitempty,min=0"`
	LastOpenedAt     *time.Time `json:"lastOpenedAt,omitempty"`
	Rating           *int       `json:"rating,omitempty" validate:"omitempty,min=0,max=5"`
	IsFavorite       *int       `json:"isFavorite,omitempty" validate:"omitempty,min=0,max=1"`
	Tags             *string    `json:"tags,omitempty" validate:"omitempty,max=1000"`
}
