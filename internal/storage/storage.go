package storage

import (
	"sort"
	"sync"
	"time"

	"github.com/bookbuddy-app/bookbuddy/internal/models"
)

// BookStore keeps books in memory, scoped by user.
type BookStore struct {
	books      map[int64]*models.Book
	nextBookID int64
	nextPageID int64
	now        func() time.Time
	mu         sync.RWMutex
}

func New() *BookStore {
	return &BookStore{
		books: make(map[int64]*models.Book),
		now:   time.Now,
	}
}

// Create stores a new single-page book and returns a copy of it.
func (s *BookStore) Create(userID, originalText, content string) *models.Book {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().UTC()
	s.nextBookID++
	book := &models.Book{
		ID:           s.nextBookID,
		UserID:       userID,
		OriginalText: originalText,
		IsProcessed:  true,
		CreatedAt:    now,
		LastEdited:   now,
	}
	s.appendPageLocked(book, content, now)
	s.books[book.ID] = book
	return clone(book)
}

// Get returns a copy of the book if it exists and belongs to userID.
func (s *BookStore) Get(userID string, bookID int64) (*models.Book, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	book, exists := s.books[bookID]
	if !exists || book.UserID != userID {
		return nil, false
	}
	return clone(book), true
}

// List returns copies of the user's books, most recently edited first.
func (s *BookStore) List(userID string) []models.Book {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]models.Book, 0, len(s.books))
	for _, book := range s.books {
		if book.UserID == userID {
			result = append(result, *clone(book))
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].LastEdited.Equal(result[j].LastEdited) {
			return result[i].LastEdited.After(result[j].LastEdited)
		}
		return result[i].ID > result[j].ID
	})
	return result
}

// AppendPage adds a page at the end of the book.
func (s *BookStore) AppendPage(userID string, bookID int64, originalText, content string) (*models.Book, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	book, exists := s.books[bookID]
	if !exists || book.UserID != userID {
		return nil, false
	}

	now := s.now().UTC()
	s.appendPageLocked(book, content, now)
	if book.OriginalText == "" {
		book.OriginalText = originalText
	} else {
		book.OriginalText += "\n\n" + originalText
	}
	book.LastEdited = now
	return clone(book), true
}

// Rename sets the book's title.
func (s *BookStore) Rename(userID string, bookID int64, title string) (*models.Book, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	book, exists := s.books[bookID]
	if !exists || book.UserID != userID {
		return nil, false
	}
	book.Title = title
	book.LastEdited = s.now().UTC()
	return clone(book), true
}

func (s *BookStore) appendPageLocked(book *models.Book, content string, now time.Time) {
	s.nextPageID++
	book.Pages = append(book.Pages, models.Page{
		ID:         s.nextPageID,
		PageNumber: len(book.Pages) + 1,
		Content:    content,
		CreatedAt:  now,
	})
	book.TotalPages = len(book.Pages)
}

func clone(book *models.Book) *models.Book {
	c := *book
	c.Pages = append([]models.Page(nil), book.Pages...)
	return &c
}
