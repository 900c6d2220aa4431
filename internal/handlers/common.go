package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/bookbuddy-app/bookbuddy/internal/models"
	"github.com/bookbuddy-app/bookbuddy/internal/storage"
)

// maxUploadSize limits image uploads to 10MB.
const maxUploadSize = 10 * 1024 * 1024

// Handler serves the development backend. It speaks the same HTTP contract
// as the real simplification service but performs no real simplification.
type Handler struct {
	bookStore *storage.BookStore
	simplify  func(string) string
}

func New() *Handler {
	return &Handler{
		bookStore: storage.New(),
		simplify:  normalizeWhitespace,
	}
}

// Routes registers every endpoint under /api.
func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/process", h.HandleProcess)
	mux.HandleFunc("GET /api/books", h.HandleListBooks)
	mux.HandleFunc("GET /api/books/{id}", h.HandleGetBook)
	mux.HandleFunc("PATCH /api/books/{id}", h.HandleRenameBook)
	mux.HandleFunc("POST /api/books/{id}/pages", h.HandleAddPage)
	mux.HandleFunc("POST /api/upload-image", h.HandleUpload)
	mux.HandleFunc("/healthcheck", func(w http.ResponseWriter, r *http.Request) {
		if _, err := w.Write([]byte("OK")); err != nil {
			slog.Error("Unable to write healthcheck", "err", err)
		}
	})
	return mux
}

// Response helpers
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("Unable to encode JSON response", "err", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, message string, code int) {
	slog.Warn("Request failed", "status", code, "error", message)
	h.writeJSON(w, code, map[string]string{"error": message})
}

// Request helpers
type textRequest struct {
	Text   string `json:"text"`
	UserID string `json:"userId"`
}

func (h *Handler) decodeText(w http.ResponseWriter, r *http.Request) (textRequest, bool) {
	var req textRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&req); err != nil {
		h.writeError(w, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
		return req, false
	}
	if req.UserID == "" {
		h.writeError(w, "userId is required", http.StatusBadRequest)
		return req, false
	}
	if strings.TrimSpace(req.Text) == "" {
		h.writeError(w, "text is required", http.StatusBadRequest)
		return req, false
	}
	if models.TextTooLong(req.Text) {
		h.writeError(w, "text too long", http.StatusBadRequest)
		return req, false
	}
	return req, true
}

func (h *Handler) bookIDOrError(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		h.writeError(w, "Invalid book id", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

func normalizeWhitespace(text string) string {
	return strings.Join(strings.Fields(text), " ")
}
