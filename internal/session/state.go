package session

import (
	"github.com/bookbuddy-app/bookbuddy/internal/models"
)

// Mode is one of Composing, Submitting or Reading.
type Mode interface {
	String() string
	bookID() int64
}

// Composing is the editable-draft mode. A zero BookID means the next
// submission creates a new book; otherwise it appends to that book.
type Composing struct {
	BookID int64
}

// Submitting is held while a submission is in flight.
type Submitting struct {
	BookID int64
}

// Reading displays one page of a book. Pages is never empty and Index is
// always within it.
type Reading struct {
	BookID int64
	Title  string
	Pages  []models.Page
	Index  int
}

func (Composing) String() string  { return "composing" }
func (Submitting) String() string { return "submitting" }
func (Reading) String() string    { return "reading" }

func (m Composing) bookID() int64  { return m.BookID }
func (m Submitting) bookID() int64 { return m.BookID }
func (m Reading) bookID() int64    { return m.BookID }

// Page returns the page at Index.
func (m Reading) Page() models.Page {
	return m.Pages[m.Index]
}

// DisplayTitle returns the title or the placeholder.
func (m Reading) DisplayTitle() string {
	if m.Title == "" {
		return models.PlaceholderTitle
	}
	return m.Title
}

func (m Reading) clamp(i int) Reading {
	switch {
	case i < 0:
		i = 0
	case i > len(m.Pages)-1:
		i = len(m.Pages) - 1
	}
	m.Index = i
	return m
}

func newReading(book *models.Book, index int) (Reading, bool) {
	if book == nil || len(book.Pages) == 0 {
		return Reading{}, false
	}
	r := Reading{
		BookID: book.ID,
		Title:  book.Title,
		Pages:  append([]models.Page(nil), book.Pages...),
	}
	return r.clamp(index), true
}

// TitlePrompt asks the user to confirm or assign a title for a book that is
// about to grow past its first page.
type TitlePrompt struct {
	BookID    int64
	Suggested string
}

// State is a point-in-time copy of a session.
type State struct {
	Mode       Mode
	Draft      string
	Processing bool
	Err        string
	Prompt     *TitlePrompt
}

// BookID returns the current book, 0 when none.
func (s State) BookID() int64 {
	return s.Mode.bookID()
}
