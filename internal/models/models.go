package models

import (
	"fmt"
	"sort"
	"time"
	"unicode/utf8"
)

// MaxTextLength is the most characters a single submission may carry.
const MaxTextLength = 2000

// PlaceholderTitle is shown for books that have not been named yet.
const PlaceholderTitle = "Untitled Book"

// Page is one unit of simplified text at a fixed position within a Book
type Page struct {
	ID         int64     `json:"id"`
	PageNumber int       `json:"page_number"` // 1-based reading order
	Content    string    `json:"content"`
	CreatedAt  time.Time `json:"created_at"`
}

// Book is a named, ordered collection of simplified pages belonging to one user
type Book struct {
	ID           int64     `json:"id"`
	Title        string    `json:"title"`
	UserID       string    `json:"user_id,omitempty"`
	OriginalText string    `json:"original_text,omitempty"`
	IsProcessed  bool      `json:"is_processed"`
	TotalPages   int       `json:"total_pages"`
	Pages        []Page    `json:"pages"`
	CreatedAt    time.Time `json:"created_at"`
	LastEdited   time.Time `json:"last_edited"`
}

// PageCount returns the number of pages, falling back to the server's
// total_pages for summary records that omit the page list.
func (b *Book) PageCount() int {
	if len(b.Pages) > 0 {
		return len(b.Pages)
	}
	return b.TotalPages
}

// DisplayTitle returns the title or the placeholder for unnamed books.
func (b *Book) DisplayTitle() string {
	if b.Title == "" {
		return PlaceholderTitle
	}
	return b.Title
}

// SortPages orders pages by page number.
func (b *Book) SortPages() {
	sort.SliceStable(b.Pages, func(i, j int) bool {
		return b.Pages[i].PageNumber < b.Pages[j].PageNumber
	})
}

// ValidatePages checks that page numbers run 1..n without gaps.
// Pages must already be sorted.
func (b *Book) ValidatePages() error {
	for i, p := range b.Pages {
		if p.PageNumber != i+1 {
			return fmt.Errorf("book %d: page at position %d has page_number %d", b.ID, i+1, p.PageNumber)
		}
	}
	return nil
}

// LastActivity is the time used to order books by recency.
func (b *Book) LastActivity() time.Time {
	if !b.LastEdited.IsZero() {
		return b.LastEdited
	}
	return b.CreatedAt
}

// TruncateText cuts s to at most MaxTextLength characters.
func TruncateText(s string) (string, bool) {
	if utf8.RuneCountInString(s) <= MaxTextLength {
		return s, false
	}
	r := []rune(s)
	return string(r[:MaxTextLength]), true
}

// TextTooLong reports whether s exceeds MaxTextLength characters.
func TextTooLong(s string) bool {
	return utf8.RuneCountInString(s) > MaxTextLength
}
