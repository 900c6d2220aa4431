package export

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/parquet-go/parquet-go"
	"gopkg.in/yaml.v3"

	"github.com/bookbuddy-app/bookbuddy/internal/models"
)

// Format names an output encoding.
type Format string

const (
	FormatYAML    Format = "yaml"
	FormatParquet Format = "parquet"
)

// ParseFormat accepts "yaml", "yml" or "parquet".
func ParseFormat(s string) (Format, error) {
	switch s {
	case "yaml", "yml":
		return FormatYAML, nil
	case "parquet":
		return FormatParquet, nil
	default:
		return "", fmt.Errorf("unknown export format %q (want yaml or parquet)", s)
	}
}

// Row is one page, flattened for columnar output.
type Row struct {
	BookID     int64  `json:"book_id" parquet:"book_id"`
	Title      string `json:"title" parquet:"title"`
	PageNumber int    `json:"page_number" parquet:"page_number"`
	Content    string `json:"content" parquet:"content"`
	CreatedAt  string `json:"created_at" parquet:"created_at"` // RFC 3339
}

// Document is the YAML export layout.
type Document struct {
	ExportedAt string      `yaml:"exported_at"`
	UserID     string      `yaml:"user_id"`
	Books      []BookEntry `yaml:"books"`
}

// BookEntry is a book inside a Document.
type BookEntry struct {
	ID         int64       `yaml:"id"`
	Title      string      `yaml:"title"`
	LastEdited string      `yaml:"last_edited,omitempty"`
	Pages      []PageEntry `yaml:"pages"`
}

// PageEntry is a page inside a BookEntry.
type PageEntry struct {
	Number  int    `yaml:"number"`
	Content string `yaml:"content"`
}

// Rows flattens books into one row per page, in book then page order.
func Rows(books []models.Book) []Row {
	var rows []Row
	for _, b := range books {
		for _, p := range b.Pages {
			rows = append(rows, Row{
				BookID:     b.ID,
				Title:      b.DisplayTitle(),
				PageNumber: p.PageNumber,
				Content:    p.Content,
				CreatedAt:  formatTime(p.CreatedAt),
			})
		}
	}
	return rows
}

// Write encodes books to w in the given format.
func Write(w io.Writer, format Format, userID string, books []models.Book, now time.Time) error {
	switch format {
	case FormatYAML:
		return WriteYAML(w, userID, books, now)
	case FormatParquet:
		return WriteParquet(w, books)
	default:
		return fmt.Errorf("unknown export format %q", format)
	}
}

// WriteYAML writes books as a single YAML document.
func WriteYAML(w io.Writer, userID string, books []models.Book, now time.Time) error {
	doc := Document{
		ExportedAt: formatTime(now),
		UserID:     userID,
		Books:      make([]BookEntry, 0, len(books)),
	}
	for _, b := range books {
		entry := BookEntry{
			ID:         b.ID,
			Title:      b.DisplayTitle(),
			LastEdited: formatTime(b.LastActivity()),
			Pages:      make([]PageEntry, 0, len(b.Pages)),
		}
		for _, p := range b.Pages {
			entry.Pages = append(entry.Pages, PageEntry{Number: p.PageNumber, Content: p.Content})
		}
		doc.Books = append(doc.Books, entry)
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("failed to marshal YAML: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("failed to flush YAML: %w", err)
	}
	slog.Debug("Wrote YAML export", "books", len(books))
	return nil
}

// WriteParquet writes one row per page.
func WriteParquet(w io.Writer, books []models.Book) error {
	rows := Rows(books)
	writer := parquet.NewGenericWriter[Row](w)
	if _, err := writer.Write(rows); err != nil {
		return fmt.Errorf("failed to write parquet rows: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to close parquet writer: %w", err)
	}
	slog.Debug("Wrote parquet export", "books", len(books), "rows", len(rows))
	return nil
}

// ReadParquet reads rows written by WriteParquet.
func ReadParquet(r io.ReaderAt, size int64) ([]Row, error) {
	pf, err := parquet.OpenFile(r, size)
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet: %w", err)
	}

	reader := parquet.NewGenericReader[Row](pf)
	defer reader.Close()

	var result []Row
	rows := make([]Row, 128)
	for {
		n, err := reader.Read(rows)
		result = append(result, rows[:n]...)
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("failed to read parquet rows: %w", err)
		}
	}
	return result, nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
