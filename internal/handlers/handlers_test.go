package handlers

import (
	"bytes"
	"encoding/json"
	"image"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/bookbuddy-app/bookbuddy/internal/models"
)

func doRequest(t *testing.T, h http.Handler, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("failed to encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeBook(t *testing.T, rec *httptest.ResponseRecorder) models.Book {
	t.Helper()
	var book models.Book
	if err := json.NewDecoder(rec.Body).Decode(&book); err != nil {
		t.Fatalf("failed to decode book: %v", err)
	}
	return book
}

func TestBookEndpoints(t *testing.T) {
	h := New().Routes()

	rec := doRequest(t, h, http.MethodPost, "/api/process", map[string]string{"text": "  Hello   world ", "userId": "u1"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	book := decodeBook(t, rec)
	if book.ID != 1 || len(book.Pages) != 1 || book.Pages[0].Content != "Hello world" {
		t.Fatalf("Unexpected book: %+v", book)
	}

	rec = doRequest(t, h, http.MethodPost, "/api/books/1/pages", map[string]string{"text": "Second", "userId": "u1"})
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if book = decodeBook(t, rec); len(book.Pages) != 2 {
		t.Errorf("Expected 2 pages, got %d", len(book.Pages))
	}

	rec = doRequest(t, h, http.MethodPatch, "/api/books/1", map[string]string{"title": "Greetings", "userId": "u1"})
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if book = decodeBook(t, rec); book.Title != "Greetings" {
		t.Errorf("Expected title Greetings, got %q", book.Title)
	}

	rec = doRequest(t, h, http.MethodGet, "/api/books/1?userId=u1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}

	rec = doRequest(t, h, http.MethodGet, "/api/books?userId=u1", nil)
	var books []models.Book
	if err := json.NewDecoder(rec.Body).Decode(&books); err != nil {
		t.Fatalf("failed to decode list: %v", err)
	}
	if len(books) != 1 || books[0].Title != "Greetings" {
		t.Errorf("Unexpected library: %+v", books)
	}
}

func TestBookEndpointErrors(t *testing.T) {
	h := New().Routes()

	tests := []struct {
		name       string
		method     string
		target     string
		body       any
		wantStatus int
		wantError  string
	}{
		{
			name:       "text too long",
			method:     http.MethodPost,
			target:     "/api/process",
			body:       map[string]string{"text": strings.Repeat("a", models.MaxTextLength+1), "userId": "u1"},
			wantStatus: http.StatusBadRequest,
			wantError:  "text too long",
		},
		{
			name:       "missing user",
			method:     http.MethodPost,
			target:     "/api/process",
			body:       map[string]string{"text": "hi"},
			wantStatus: http.StatusBadRequest,
			wantError:  "userId is required",
		},
		{
			name:       "blank text",
			method:     http.MethodPost,
			target:     "/api/process",
			body:       map[string]string{"text": "   ", "userId": "u1"},
			wantStatus: http.StatusBadRequest,
			wantError:  "text is required",
		},
		{
			name:       "unknown book",
			method:     http.MethodGet,
			target:     "/api/books/42?userId=u1",
			wantStatus: http.StatusNotFound,
			wantError:  "Book not found",
		},
		{
			name:       "bad id",
			method:     http.MethodGet,
			target:     "/api/books/abc?userId=u1",
			wantStatus: http.StatusBadRequest,
			wantError:  "Invalid book id",
		},
		{
			name:       "list without user",
			method:     http.MethodGet,
			target:     "/api/books",
			wantStatus: http.StatusBadRequest,
			wantError:  "userId is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(t, h, tt.method, tt.target, tt.body)
			if rec.Code != tt.wantStatus {
				t.Fatalf("Expected status %d, got %d", tt.wantStatus, rec.Code)
			}
			var payload map[string]string
			if err := json.NewDecoder(rec.Body).Decode(&payload); err != nil {
				t.Fatalf("failed to decode error body: %v", err)
			}
			if payload["error"] != tt.wantError {
				t.Errorf("Expected error %q, got %q", tt.wantError, payload["error"])
			}
		})
	}
}

func uploadRequest(t *testing.T, field, filename string, data []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile(field, filename)
	if err != nil {
		t.Fatalf("failed to create form file: %v", err)
	}
	if _, err := part.Write(data); err != nil {
		t.Fatalf("failed to write form file: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("failed to close writer: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/api/upload-image", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))); err != nil {
		t.Fatalf("failed to encode png: %v", err)
	}
	return buf.Bytes()
}

func TestHandleUpload(t *testing.T) {
	h := New().Routes()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, uploadRequest(t, "image", "page.png", pngBytes(t, 4, 3)))
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var payload map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&payload); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}
	if !strings.Contains(payload["extracted_text"], "Size: 4x3") {
		t.Errorf("Unexpected extracted text %q", payload["extracted_text"])
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, uploadRequest(t, "image", "notes.txt", []byte("just some text")))
	if rec.Code != http.StatusUnsupportedMediaType {
		t.Errorf("Expected 415 for text upload, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, uploadRequest(t, "file", "page.png", pngBytes(t, 1, 1)))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for wrong field name, got %d", rec.Code)
	}
}

func TestHealthcheck(t *testing.T) {
	rec := httptest.NewRecorder()
	New().Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthcheck", nil))
	if rec.Code != http.StatusOK || rec.Body.String() != "OK" {
		t.Errorf("Unexpected healthcheck response %d %q", rec.Code, rec.Body.String())
	}
}
