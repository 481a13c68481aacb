// Package ingest imports books from Open Library by ISBN.
package ingest

import (
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"bookreviews/internal/book"
	"bookreviews/internal/platform/openlibrary"
)

const (
	unknownAuthor  = "Unknown"
	maxTitle       = 200
	maxAuthor      = 120
	maxDescription = 5000
)

var yearPattern = regexp.MustCompile(`(?:^|[^0-9])(1[0-9]{3}|20[0-9]{2})(?:[^0-9]|$)`)

// subjectGenres maps keywords found in Open Library subjects to book genres.
// Earlier entries win; plain "fiction" is checked last.
var subjectGenres = []struct {
	keyword string
	genre   string
}{
	{"science fiction", "science-fiction"},
	{"fantasy", "fantasy"},
	{"detective", "mystery"},
	{"mystery", "mystery"},
	{"thriller", "thriller"},
	{"suspense", "thriller"},
	{"horror", "horror"},
	{"romance", "romance"},
	{"love stories", "romance"},
	{"autobiography", "biography"},
	{"biography", "biography"},
	{"history", "history"},
	{"self-help", "self-help"},
	{"poetry", "poetry"},
	{"nonfiction", "non-fiction"},
	{"non-fiction", "non-fiction"},
	{"fiction", "fiction"},
}

// Result reports the outcome of an import, per ISBN.
type Result struct {
	Imported []book.Book       `json:"imported"`
	NotFound []string          `json:"not_found,omitempty"`
	Invalid  []string          `json:"invalid,omitempty"`
	Rejected map[string]string `json:"rejected,omitempty"`
}

// NormalizeISBN strips separators and reports whether what remains looks
// like an ISBN-10 or ISBN-13. Check digits are not verified.
func NormalizeISBN(raw string) (string, bool) {
	s := strings.ToUpper(strings.NewReplacer("-", "", " ", "").Replace(strings.TrimSpace(raw)))
	switch len(s) {
	case 13:
		return s, isDigits(s)
	case 10:
		return s, isDigits(s[:9]) && (isDigits(s[9:]) || s[9] == 'X')
	default:
		return s, false
	}
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}

// toCreateInput maps an edition onto the fields a book is created with.
func toCreateInput(ed openlibrary.Edition) book.CreateInput {
	title := strings.TrimSpace(ed.Title)
	if sub := strings.TrimSpace(ed.Subtitle); sub != "" {
		title += ": " + sub
	}

	author := unknownAuthor
	if len(ed.Authors) > 0 && strings.TrimSpace(ed.Authors[0].Name) != "" {
		author = strings.TrimSpace(ed.Authors[0].Name)
	}

	desc := strings.TrimSpace(string(ed.Description))
	if desc == "" {
		desc = strings.TrimSpace(string(ed.Notes))
	}

	subjects := make([]string, len(ed.Subjects))
	for i, s := range ed.Subjects {
		subjects[i] = s.Name
	}

	return book.CreateInput{
		Title:           truncate(title, maxTitle),
		Author:          truncate(author, maxAuthor),
		Description:     truncate(desc, maxDescription),
		Genre:           genreFor(subjects),
		PublicationYear: publicationYear(ed.PublishDate),
	}
}

func genreFor(subjects []string) string {
	for _, candidate := range subjectGenres {
		for _, s := range subjects {
			if strings.Contains(strings.ToLower(s), candidate.keyword) {
				return candidate.genre
			}
		}
	}
	return "other"
}

// publicationYear pulls the first plausible year out of free-form dates such
// as "March 2005" or "c1965". Zero means unknown.
func publicationYear(date string) int {
	m := yearPattern.FindStringSubmatch(date)
	if m == nil {
		return 0
	}
	y, _ := strconv.Atoi(m[1])
	return y
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
