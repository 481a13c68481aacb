package book

import (
	"strings"
	"time"

	"bookreviews/internal/apperror"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

const (
	maxTitleLength       = 200
	maxAuthorLength      = 120
	maxDescriptionLength = 5000
	minPublicationYear   = 1000
)

func genreValues() []any {
	out := make([]any, len(Genres))
	for i, g := range Genres {
		out[i] = g
	}
	return out
}

func (b *Book) normalize() {
	b.Title = strings.TrimSpace(b.Title)
	b.Author = strings.TrimSpace(b.Author)
	b.Description = strings.TrimSpace(b.Description)
	b.Genre = strings.ToLower(strings.TrimSpace(b.Genre))
}

// validate checks the client-editable fields of a book.
func (b Book) validate() error {
	maxYear := time.Now().Year() + 1
	err := validation.ValidateStruct(&b,
		validation.Field(&b.Title, validation.Required, validation.RuneLength(1, maxTitleLength)),
		validation.Field(&b.Author, validation.Required, validation.RuneLength(1, maxAuthorLength)),
		validation.Field(&b.Description, validation.RuneLength(0, maxDescriptionLength)),
		validation.Field(&b.Genre, validation.Required, validation.In(genreValues()...)),
		validation.Field(&b.PublicationYear, validation.When(b.PublicationYear != 0,
			validation.Min(minPublicationYear), validation.Max(maxYear))),
	)
	return apperror.FromValidation(err)
}
