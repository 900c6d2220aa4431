package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/bookbuddy-app/bookbuddy/internal/models"
)

// DefaultBaseURL is where the backend listens in a default local setup.
const DefaultBaseURL = "http://localhost:8000/api"

// DefaultTimeout bounds a single request when no http.Client is supplied.
const DefaultTimeout = 30 * time.Second

// maxResponseSize caps how much of a response body is read.
const maxResponseSize = 10 * 1024 * 1024

// Client talks to the simplification backend. It holds no session state.
type Client struct {
	BaseURL    string
	httpClient *http.Client
}

// NewClient creates a new backend client. A nil httpClient gets a default
// one with DefaultTimeout.
func NewClient(baseURL string, httpClient *http.Client) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout: DefaultTimeout,
		}
	}
	return &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
}

type textRequest struct {
	Text   string `json:"text"`
	UserID string `json:"userId"`
}

type renameRequest struct {
	Title  string `json:"title"`
	UserID string `json:"userId"`
}

type extractResponse struct {
	ExtractedText *string `json:"extracted_text"`
}

// SubmitText sends raw text for simplification and returns the new book.
func (c *Client) SubmitText(ctx context.Context, text, userID string) (*models.Book, error) {
	const op = "submit text"
	if models.TextTooLong(text) {
		return nil, ErrTextTooLong
	}

	var book models.Book
	if err := c.doJSON(ctx, op, http.MethodPost, "/process", nil, textRequest{Text: text, UserID: userID}, &book); err != nil {
		return nil, err
	}
	if err := normalizeBook(op, &book, true); err != nil {
		return nil, err
	}

	slog.Info("Book created", "book_id", book.ID, "pages", len(book.Pages))
	return &book, nil
}

// FetchBook returns a book with its full page list.
func (c *Client) FetchBook(ctx context.Context, bookID int64, userID string) (*models.Book, error) {
	const op = "fetch book"

	var book models.Book
	if err := c.doJSON(ctx, op, http.MethodGet, bookPath(bookID), userQuery(userID), nil, &book); err != nil {
		return nil, err
	}
	if err := normalizeBook(op, &book, true); err != nil {
		return nil, err
	}
	return &book, nil
}

// FetchLibrary returns the user's books, most recently edited first.
func (c *Client) FetchLibrary(ctx context.Context, userID string) ([]models.Book, error) {
	const op = "fetch library"

	var books []models.Book
	if err := c.doJSON(ctx, op, http.MethodGet, "/books", userQuery(userID), nil, &books); err != nil {
		return nil, err
	}
	for i := range books {
		if err := normalizeBook(op, &books[i], false); err != nil {
			return nil, err
		}
	}

	slog.Debug("Library fetched", "books", len(books))
	return books, nil
}

// AppendPage simplifies text and appends it as the last page of a book.
func (c *Client) AppendPage(ctx context.Context, bookID int64, text, userID string) (*models.Book, error) {
	const op = "append page"
	if models.TextTooLong(text) {
		return nil, ErrTextTooLong
	}

	var book models.Book
	if err := c.doJSON(ctx, op, http.MethodPost, bookPath(bookID)+"/pages", nil, textRequest{Text: text, UserID: userID}, &book); err != nil {
		return nil, err
	}
	if err := normalizeBook(op, &book, true); err != nil {
		return nil, err
	}

	slog.Info("Page appended", "book_id", book.ID, "pages", len(book.Pages))
	return &book, nil
}

// RenameBook sets a book's title.
func (c *Client) RenameBook(ctx context.Context, bookID int64, title, userID string) (*models.Book, error) {
	const op = "rename book"

	var book models.Book
	if err := c.doJSON(ctx, op, http.MethodPatch, bookPath(bookID), nil, renameRequest{Title: title, UserID: userID}, &book); err != nil {
		return nil, err
	}
	if err := normalizeBook(op, &book, false); err != nil {
		return nil, err
	}
	return &book, nil
}

// ExtractText uploads an image and returns the text the backend read from it.
// The returned text is raw; see sanitize.ExtractedText.
func (c *Client) ExtractText(ctx context.Context, image []byte, filename string) (string, error) {
	const op = "extract text"
	contentType, ok := DetectImage(image)
	if !ok {
		return "", ErrNotImage
	}
	if filename == "" {
		filename = "upload" + extensionFor(contentType)
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="image"; filename="%s"`, escapeQuotes(filepath.Base(filename))))
	header.Set("Content-Type", contentType)
	part, err := writer.CreatePart(header)
	if err != nil {
		return "", fmt.Errorf("failed to create multipart part: %w", err)
	}
	if _, err := part.Write(image); err != nil {
		return "", fmt.Errorf("failed to write image data: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("failed to finish multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/upload-image", &body)
	if err != nil {
		return "", fmt.Errorf("failed to create upload request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	var resp extractResponse
	if err := c.do(op, req, &resp); err != nil {
		return "", err
	}
	if resp.ExtractedText == nil {
		return "", &RemoteError{Op: op, Kind: KindMalformed, Err: fmt.Errorf("response has no extracted_text")}
	}

	slog.Info("Extracted text from image", "filename", filename, "length", len(*resp.ExtractedText))
	return *resp.ExtractedText, nil
}

// DetectImage sniffs the content type of data and reports whether it is an image.
func DetectImage(data []byte) (string, bool) {
	if len(data) == 0 {
		return "", false
	}
	contentType := http.DetectContentType(data)
	return contentType, strings.HasPrefix(contentType, "image/")
}

func (c *Client) doJSON(ctx context.Context, op, method, path string, query url.Values, payload, out any) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to marshal %s request: %w", op, err)
		}
		body = bytes.NewReader(data)
	}

	target := c.BaseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return fmt.Errorf("failed to create %s request: %w", op, err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	return c.do(op, req, out)
}

func (c *Client) do(op string, req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &RemoteError{Op: op, Kind: KindNetwork, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return &RemoteError{Op: op, Kind: KindNetwork, Status: resp.StatusCode, Err: fmt.Errorf("failed to read response: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		re := &RemoteError{
			Op:      op,
			Kind:    KindApplication,
			Status:  resp.StatusCode,
			Message: errorMessage(data),
		}
		re.Err = fmt.Errorf("status %d", resp.StatusCode)
		slog.Warn("Backend returned error", "op", op, "status", resp.StatusCode, "message", re.Message)
		return re
	}

	if err := json.Unmarshal(data, out); err != nil {
		return &RemoteError{Op: op, Kind: KindMalformed, Status: resp.StatusCode, Err: fmt.Errorf("failed to decode response: %w", err)}
	}
	return nil
}

// normalizeBook sorts pages and checks the invariants a caller relies on.
func normalizeBook(op string, book *models.Book, requirePages bool) error {
	if requirePages && len(book.Pages) == 0 {
		return &RemoteError{Op: op, Kind: KindMalformed, Err: fmt.Errorf("book %d has no pages", book.ID)}
	}
	book.SortPages()
	if err := book.ValidatePages(); err != nil {
		return &RemoteError{Op: op, Kind: KindMalformed, Err: err}
	}
	if len(book.Pages) > 0 {
		book.TotalPages = len(book.Pages)
	}
	return nil
}

func bookPath(bookID int64) string {
	return "/books/" + strconv.FormatInt(bookID, 10)
}

func userQuery(userID string) url.Values {
	return url.Values{"userId": {userID}}
}

func extensionFor(contentType string) string {
	switch contentType {
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	case "image/bmp":
		return ".bmp"
	default:
		return ".jpg"
	}
}

func escapeQuotes(s string) string {
	return strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(s)
}
