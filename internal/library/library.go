package library

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/agnivade/levenshtein"

	"github.com/bookbuddy-app/bookbuddy/internal/models"
)

// Fetcher loads a user's books.
type Fetcher interface {
	FetchLibrary(ctx context.Context, userID string) ([]models.Book, error)
}

// Library is a full-replacement cache of the user's books.
type Library struct {
	fetcher     Fetcher
	mu          sync.RWMutex
	books       []models.Book
	err         error
	refreshedAt time.Time
	now         func() time.Time
}

func New(fetcher Fetcher) *Library {
	return &Library{
		fetcher: fetcher,
		now:     time.Now,
	}
}

// Refresh replaces the list with the backend's current view. On failure the
// previous list is kept and the error is recorded.
func (l *Library) Refresh(ctx context.Context, userID string) error {
	books, err := l.fetcher.FetchLibrary(ctx, userID)

	l.mu.Lock()
	defer l.mu.Unlock()
	if err != nil {
		l.err = err
		slog.Warn("Library refresh failed", "err", err)
		return err
	}

	sort.SliceStable(books, func(i, j int) bool {
		return books[i].LastActivity().After(books[j].LastActivity())
	})
	l.books = books
	l.err = nil
	l.refreshedAt = l.now()
	slog.Debug("Library refreshed", "books", len(books))
	return nil
}

// Books returns a copy of the current list.
func (l *Library) Books() []models.Book {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]models.Book(nil), l.books...)
}

// Selectable returns books that have at least one page.
func (l *Library) Selectable() []models.Book {
	l.mu.RLock()
	defer l.mu.RUnlock()
	var result []models.Book
	for _, b := range l.books {
		if b.PageCount() > 0 {
			result = append(result, b)
		}
	}
	return result
}

// Err returns the error of the last refresh, nil if it succeeded.
func (l *Library) Err() error {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.err
}

// RefreshedAt returns when the list was last replaced.
func (l *Library) RefreshedAt() time.Time {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.refreshedAt
}

// Find ranks books by how closely their title matches query. Titles that
// contain the query come first; the rest are kept only when their edit
// distance is within half the query length.
func (l *Library) Find(query string) []models.Book {
	query = strings.ToLower(strings.TrimSpace(query))
	books := l.Books()
	if query == "" {
		return books
	}

	type match struct {
		book     models.Book
		contains bool
		distance int
	}
	var matches []match
	for _, b := range books {
		title := strings.ToLower(b.DisplayTitle())
		m := match{book: b, contains: strings.Contains(title, query)}
		m.distance = levenshtein.ComputeDistance(query, title)
		if !m.contains {
			// a close match on a single word counts too
			for _, word := range strings.Fields(title) {
				if d := levenshtein.ComputeDistance(query, word); d < m.distance {
					m.distance = d
				}
			}
			if m.distance > len([]rune(query))/2 {
				continue
			}
		}
		matches = append(matches, m)
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].contains != matches[j].contains {
			return matches[i].contains
		}
		return matches[i].distance < matches[j].distance
	})

	result := make([]models.Book, len(matches))
	for i, m := range matches {
		result[i] = m.book
	}
	return result
}
