package handlers

import (
	"io"
	"net/http"
	"strings"
)

func (h *Handler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize+1024*1024)
	file, header, err := r.FormFile("image")
	if err != nil {
		h.writeError(w, "Failed to read image: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer file.Close()

	// Limit file size to 10MB
	fileData, err := io.ReadAll(io.LimitReader(file, maxUploadSize))
	if err != nil {
		h.writeError(w, "Failed to read file contents: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if len(fileData) >= maxUploadSize {
		h.writeError(w, "File too large (max 10MB)", http.StatusBadRequest)
		return
	}

	contentType := http.DetectContentType(fileData)
	if !strings.HasPrefix(contentType, "image/") {
		h.writeError(w, "Unsupported media type: "+contentType, http.StatusUnsupportedMediaType)
		return
	}

	text, err := h.extractText(fileData, header.Filename)
	if err != nil {
		h.writeError(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{
		"extracted_text": text,
	})
}
