package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
)

func (h *Handler) HandleProcess(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeText(w, r)
	if !ok {
		return
	}

	book := h.bookStore.Create(req.UserID, req.Text, h.simplify(req.Text))
	slog.Info("Book created", "book_id", book.ID, "user_id", req.UserID)
	h.writeJSON(w, http.StatusCreated, book)
}

func (h *Handler) HandleListBooks(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		h.writeError(w, "userId is required", http.StatusBadRequest)
		return
	}
	h.writeJSON(w, http.StatusOK, h.bookStore.List(userID))
}

func (h *Handler) HandleGetBook(w http.ResponseWriter, r *http.Request) {
	bookID, ok := h.bookIDOrError(w, r)
	if !ok {
		return
	}
	book, exists := h.bookStore.Get(r.URL.Query().Get("userId"), bookID)
	if !exists {
		h.writeError(w, "Book not found", http.StatusNotFound)
		return
	}
	h.writeJSON(w, http.StatusOK, book)
}

func (h *Handler) HandleRenameBook(w http.ResponseWriter, r *http.Request) {
	bookID, ok := h.bookIDOrError(w, r)
	if !ok {
		return
	}

	var req struct {
		Title  string `json:"title"`
		UserID string `json:"userId"`
	}
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&req); err != nil {
		h.writeError(w, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}
	title := strings.TrimSpace(req.Title)
	if title == "" {
		h.writeError(w, "title is required", http.StatusBadRequest)
		return
	}

	book, exists := h.bookStore.Rename(req.UserID, bookID, title)
	if !exists {
		h.writeError(w, "Book not found", http.StatusNotFound)
		return
	}
	h.writeJSON(w, http.StatusOK, book)
}

func (h *Handler) HandleAddPage(w http.ResponseWriter, r *http.Request) {
	bookID, ok := h.bookIDOrError(w, r)
	if !ok {
		return
	}
	req, ok := h.decodeText(w, r)
	if !ok {
		return
	}

	book, exists := h.bookStore.AppendPage(req.UserID, bookID, req.Text, h.simplify(req.Text))
	if !exists {
		h.writeError(w, "Book not found", http.StatusNotFound)
		return
	}
	slog.Info("Page added", "book_id", book.ID, "pages", len(book.Pages))
	h.writeJSON(w, http.StatusOK, book)
}
